// Package store records simulation runs and their sampled statistics in
// SQLite.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cxd309/minimetro/internal/network"
	"github.com/cxd309/minimetro/internal/tracker"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	_ "modernc.org/sqlite"
)

var log = logrus.WithField("module", "store")

//go:embed schema.sql
var schemaSQL string

var ErrRunNotFound = errors.New("run not found")

// Run is one recorded simulation.
type Run struct {
	ID           uuid.UUID  `json:"id"`
	SimulationID string     `json:"simulation_id"`
	Seed         uint64     `json:"seed"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
}

// Sample is the passenger statistics of a run at one tick.
type Sample struct {
	tracker.Counters
	Tick    int     `json:"tick"`
	Time    float64 `json:"time"`
	Waiting int     `json:"waiting"`
	Onboard int     `json:"onboard"`
}

// SampleOf extracts the statistics of a snapshot taken at tick.
func SampleOf(tick int, snap network.Snapshot) Sample {
	return Sample{
		Tick:     tick,
		Time:     snap.Time,
		Counters: snap.Counters,
		Waiting:  snap.Waiting,
		Onboard:  snap.Onboard,
	}
}

// Store wraps a SQLite connection with write serialisation.
type Store struct {
	conn    *sql.DB
	writeMu sync.Mutex
}

// Open opens (creating if needed) the database at path and ensures the
// schema.
func Open(ctx context.Context, path string) (*Store, error) {
	conn, err := sql.Open("sqlite", path+"?_journal=WAL&_fk=1&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(time.Hour)

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	// The _fk DSN flag is not honoured by every driver version.
	if _, err := conn.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		log.WithError(err).Warn("failed to enable foreign keys")
	}

	s := &Store{conn: conn}
	if err := s.EnsureSchema(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	log.Infof("connected to SQLite database: %s", path)
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// EnsureSchema creates tables if they don't exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if _, err := s.conn.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// BeginRun registers a new run and returns its id.
func (s *Store) BeginRun(ctx context.Context, simulationID string, seed uint64) (uuid.UUID, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	id := uuid.New()
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.conn.ExecContext(ctx,
		"INSERT INTO runs (id, simulation_id, seed, started_at) VALUES (?, ?, ?, ?)",
		id.String(), simulationID, int64(seed), now)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to insert run: %w", err)
	}
	return id, nil
}

// RecordSamples stores samples for a run in one transaction. A sample for
// an already recorded tick replaces it.
func (s *Store) RecordSamples(ctx context.Context, runID uuid.UUID, samples []Sample) error {
	if len(samples) == 0 {
		return nil
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO samples (run_id, tick, sim_time, total, arrived, lost, waiting, onboard)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (run_id, tick) DO UPDATE SET
			sim_time = excluded.sim_time,
			total = excluded.total,
			arrived = excluded.arrived,
			lost = excluded.lost,
			waiting = excluded.waiting,
			onboard = excluded.onboard
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare sample statement: %w", err)
	}
	defer stmt.Close()

	for _, sm := range samples {
		_, err := stmt.ExecContext(ctx, runID.String(), sm.Tick, sm.Time,
			sm.TotalPassengers, sm.PassengersArrived, sm.PassengersLost, sm.Waiting, sm.Onboard)
		if err != nil {
			return fmt.Errorf("failed to insert sample at tick %d: %w", sm.Tick, err)
		}
	}
	return tx.Commit()
}

// FinishRun stamps the run's finish time.
func (s *Store) FinishRun(ctx context.Context, runID uuid.UUID) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.conn.ExecContext(ctx, "UPDATE runs SET finished_at = ? WHERE id = ?", now, runID.String())
	if err != nil {
		return fmt.Errorf("failed to finish run %s: %w", runID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("run %s: %w", runID, ErrRunNotFound)
	}
	return nil
}

// Runs lists every recorded run, oldest first.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.conn.QueryContext(ctx,
		"SELECT id, simulation_id, seed, started_at, finished_at FROM runs ORDER BY started_at, rowid")
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			id, started string
			seed        int64
			finished    sql.NullString
			r           Run
		)
		if err := rows.Scan(&id, &r.SimulationID, &seed, &started, &finished); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if r.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("run id %q: %w", id, err)
		}
		r.Seed = uint64(seed)
		if r.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
			return nil, fmt.Errorf("run %s started_at: %w", id, err)
		}
		if finished.Valid {
			t, err := time.Parse(time.RFC3339Nano, finished.String)
			if err != nil {
				return nil, fmt.Errorf("run %s finished_at: %w", id, err)
			}
			r.FinishedAt = &t
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Samples returns the samples of a run in tick order.
func (s *Store) Samples(ctx context.Context, runID uuid.UUID) ([]Sample, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT tick, sim_time, total, arrived, lost, waiting, onboard
		FROM samples WHERE run_id = ? ORDER BY tick`, runID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query samples: %w", err)
	}
	defer rows.Close()

	var samples []Sample
	for rows.Next() {
		var sm Sample
		if err := rows.Scan(&sm.Tick, &sm.Time, &sm.TotalPassengers, &sm.PassengersArrived,
			&sm.PassengersLost, &sm.Waiting, &sm.Onboard); err != nil {
			return nil, fmt.Errorf("failed to scan sample: %w", err)
		}
		samples = append(samples, sm)
	}
	return samples, rows.Err()
}
