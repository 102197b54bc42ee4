//go:build js && wasm

// Command wasm exposes the scenario runner to the browser via WebAssembly.
// After loading, it registers a global JavaScript function:
//
//	runSimulation(jsonString) -> jsonString
//
// The input and output are JSON-encoded SimulationInput and SimulationLog
// respectively, matching the contract used by the CLI.
package main

import (
	"errors"
	"syscall/js"

	"github.com/cxd309/minimetro/internal/engine"
	"github.com/sirupsen/logrus"
)

func main() {
	logrus.SetLevel(logrus.WarnLevel)
	js.Global().Set("runSimulation", js.FuncOf(runSimulation))
	select {} // block forever; returning unloads the exported function
}

// runSimulation returns the run log as a JSON string, or an {error} object.
func runSimulation(_ js.Value, args []js.Value) any {
	out, err := simulate(args)
	if err != nil {
		logrus.WithField("module", "wasm").WithError(err).Warn("run failed")
		return map[string]any{"error": err.Error()}
	}
	return out
}

func simulate(args []js.Value) (string, error) {
	if len(args) == 0 || args[0].Type() != js.TypeString {
		return "", errors.New("runSimulation expects one JSON string argument")
	}
	return engine.RunJSON(args[0].String())
}
