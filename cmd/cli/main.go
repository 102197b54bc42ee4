// Command minimetro reads a SimulationInput JSON from a file argument (or
// stdin), runs the scenario, and writes the SimulationLog JSON to stdout.
// With -db (or SQLITE_DATABASE) the sampled statistics are also recorded.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/cxd309/minimetro/internal/config"
	"github.com/cxd309/minimetro/internal/engine"
	"github.com/cxd309/minimetro/internal/store"
	"github.com/joho/godotenv"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	dbPath := flag.String("db", cfg.DatabasePath, "SQLite database to record the run into (empty disables recording)")
	flag.Parse()

	logrus.SetOutput(os.Stderr)
	logrus.SetLevel(cfg.LogLevel)

	var (
		data []byte
		err  error
	)
	if flag.NArg() > 0 {
		data, err = os.ReadFile(flag.Arg(0))
	} else {
		data, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error reading input: %v\n", err)
		os.Exit(1)
	}

	var input engine.SimulationInput
	if err := json.Unmarshal(data, &input); err != nil {
		fmt.Fprintf(os.Stderr, "invalid input JSON: %v\n", err)
		os.Exit(1)
	}

	simLog, err := engine.Run(input, cfg.Params())
	if err != nil {
		fmt.Fprintf(os.Stderr, "simulation error: %v\n", err)
		os.Exit(1)
	}

	if *dbPath != "" {
		if err := record(context.Background(), *dbPath, simLog); err != nil {
			fmt.Fprintf(os.Stderr, "recording run: %v\n", err)
			os.Exit(1)
		}
	}

	out, err := json.Marshal(simLog)
	if err != nil {
		fmt.Fprintf(os.Stderr, "marshaling output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}

func record(ctx context.Context, path string, simLog engine.SimulationLog) error {
	st, err := store.Open(ctx, path)
	if err != nil {
		return err
	}
	defer st.Close()

	runID, err := st.BeginRun(ctx, simLog.Meta.SimulationID, simLog.Meta.Seed)
	if err != nil {
		return err
	}
	samples := lo.Map(simLog.Output, func(row engine.SimulationLogRow, _ int) store.Sample {
		return store.SampleOf(row.Tick, row.Snapshot)
	})
	if err := st.RecordSamples(ctx, runID, samples); err != nil {
		return err
	}
	if err := st.FinishRun(ctx, runID); err != nil {
		return err
	}
	logrus.WithField("module", "cli").Infof("recorded run %s (%d samples) in %s", runID, len(samples), path)
	return nil
}
