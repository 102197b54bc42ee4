// Package station implements a station: a fixed location that spawns riders
// over time and holds a bounded FIFO queue of them.
package station

import (
	"fmt"
	"math/rand/v2"

	"github.com/cxd309/minimetro/internal/catalog"
	"github.com/cxd309/minimetro/internal/rider"
	"github.com/cxd309/minimetro/internal/tracker"
	"github.com/google/uuid"
	"github.com/quasilyte/gmath"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("module", "station")

// Params are the per-station tunables.
type Params struct {
	Limit         int     // maximum queued riders
	SpawnInterval float64 // seconds between spawn attempts
	Patience      float64 // seconds a rider waits before abandoning
}

// DefaultParams returns the standard game tunables.
func DefaultParams() Params {
	return Params{
		Limit:         20,
		SpawnInterval: 5.0,
		Patience:      30.0,
	}
}

// Station is a stop on the map. Stations are never removed individually;
// they live until the simulation is reset.
type Station struct {
	ID    uuid.UUID
	X, Y  int
	Type  catalog.StationType
	Limit int

	params    Params
	lastSpawn float64
	riders    []*rider.Rider
	tracker   *tracker.Tracker
}

// New creates a station at (x, y) whose spawn timer starts at now.
func New(x, y int, st catalog.StationType, params Params, tr *tracker.Tracker, now float64) *Station {
	return &Station{
		ID:        uuid.New(),
		X:         x,
		Y:         y,
		Type:      st,
		Limit:     params.Limit,
		params:    params,
		lastSpawn: now,
		tracker:   tr,
	}
}

// Pos returns the station position as a vector.
func (s *Station) Pos() gmath.Vec { return gmath.Vec{X: float64(s.X), Y: float64(s.Y)} }

// Describe returns a short human-readable description.
func (s *Station) Describe() string {
	return fmt.Sprintf("%s at (%d, %d)", s.Type, s.X, s.Y)
}

// Riders returns a copy of the queue in arrival order.
func (s *Station) Riders() []*rider.Rider {
	out := make([]*rider.Rider, len(s.riders))
	copy(out, s.riders)
	return out
}

// Waiting is the number of queued riders.
func (s *Station) Waiting() int { return len(s.riders) }

// Update runs the spawn step and then the expire step.
func (s *Station) Update(now float64, rng *rand.Rand) {
	s.spawnTick(now, rng)
	s.expireTick(now)
}

func (s *Station) spawnTick(now float64, rng *rand.Rand) {
	if now-s.lastSpawn < s.params.SpawnInterval {
		return
	}
	s.lastSpawn = now
	s.SpawnRider(now, rng)
}

// SpawnRider tries to queue one rider bound for a random type present on the
// map. Nothing is created when the queue is full or when the draw lands on
// the station's own type.
func (s *Station) SpawnRider(now float64, rng *rand.Rand) bool {
	if len(s.riders) >= s.Limit {
		return false
	}
	types := s.tracker.StationTypes()
	if len(types) == 0 {
		return false
	}
	dest := types[rng.IntN(len(types))]
	if dest == s.Type {
		return false
	}
	s.riders = append(s.riders, rider.New(s.ID, dest, now, s.params.Patience))
	s.tracker.RecordSpawn()
	log.Debugf("new rider at %s: wants %s (%d waiting)", s.Describe(), dest, len(s.riders))
	return true
}

func (s *Station) expireTick(now float64) {
	for _, r := range s.riders {
		r.Update(now)
	}
	before := len(s.riders)
	s.riders = lo.Reject(s.riders, func(r *rider.Rider, _ int) bool { return r.Abandoned() })
	if lost := before - len(s.riders); lost > 0 {
		s.tracker.RecordLost(lost)
		log.Debugf("%d riders abandoned %s", lost, s.Describe())
	}
}

// Board removes up to max riders accepted by accept, scanning the queue in
// arrival order, and returns them. Rejected riders keep their place.
func (s *Station) Board(accept func(*rider.Rider) bool, max int) []*rider.Rider {
	if max <= 0 || len(s.riders) == 0 {
		return nil
	}
	boarded := make([]*rider.Rider, 0, max)
	kept := make([]*rider.Rider, 0, len(s.riders))
	for _, r := range s.riders {
		if len(boarded) < max && accept(r) {
			boarded = append(boarded, r)
			continue
		}
		kept = append(kept, r)
	}
	s.riders = kept
	return boarded
}
