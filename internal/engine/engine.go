// Package engine runs a scripted simulation headlessly.
//
// A run seeds a network, then loops over ticks. At each tick it:
//
//  1. applies every scripted action due at that tick, in script order,
//  2. samples a snapshot into the log when the tick falls on the sample grid,
//  3. advances the network by one tick.
package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/cxd309/minimetro/internal/network"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("module", "engine")

var ErrIndexOutOfRange = errors.New("index out of range")

// Sim is the scenario runner state.
type Sim struct {
	meta    SimulationMeta
	net     *network.Network
	actions []Action
	next    int
	tick    int
}

// NewSim validates input and builds a seeded network with the requested
// starting stations.
func NewSim(input SimulationInput, params network.Params) (*Sim, error) {
	if input.Meta.Ticks < 0 {
		return nil, fmt.Errorf("ticks must be non-negative, got %d", input.Meta.Ticks)
	}
	if input.Meta.SampleEvery < 0 {
		return nil, fmt.Errorf("sample_every must be non-negative, got %d", input.Meta.SampleEvery)
	}
	if params.TickRate <= 0 {
		return nil, fmt.Errorf("tick rate must be positive, got %v", params.TickRate)
	}
	for i, a := range input.Actions {
		if !a.Op.valid() {
			return nil, fmt.Errorf("action %d: unknown op %q", i, a.Op)
		}
		if a.Tick < 0 || a.Tick > input.Meta.Ticks {
			return nil, fmt.Errorf("action %d (%s): tick %d outside [0, %d]", i, a.Op, a.Tick, input.Meta.Ticks)
		}
	}

	actions := slices.Clone(input.Actions)
	slices.SortStableFunc(actions, func(a, b Action) int { return a.Tick - b.Tick })

	seed := input.Meta.Seed
	net := network.New(params, rand.New(rand.NewPCG(seed, seed)))
	for range input.Meta.StartStations {
		net.CreateStation()
	}

	return &Sim{meta: input.Meta, net: net, actions: actions}, nil
}

// Network exposes the simulated network.
func (s *Sim) Network() *network.Network { return s.net }

// Run executes the full script and returns the log.
func (s *Sim) Run() (SimulationLog, error) {
	out := SimulationLog{Meta: s.meta, Actions: []ActionLog{}, Output: []SimulationLogRow{}}
	every := max(s.meta.SampleEvery, 1)
	for {
		for s.next < len(s.actions) && s.actions[s.next].Tick <= s.tick {
			a := s.actions[s.next]
			entry, err := s.apply(a)
			if err != nil {
				return SimulationLog{}, fmt.Errorf("at tick %d: action %d (%s): %w", s.tick, s.next, a.Op, err)
			}
			out.Actions = append(out.Actions, entry)
			s.next++
		}
		if s.tick%every == 0 || s.tick == s.meta.Ticks {
			out.Output = append(out.Output, SimulationLogRow{Tick: s.tick, Time: s.net.Now(), Snapshot: s.net.Snapshot()})
		}
		if s.tick == s.meta.Ticks {
			break
		}
		s.net.Tick()
		s.tick++
	}
	c := s.net.Tracker().Counters()
	log.Infof("simulation %q finished: %d ticks, %d riders, %d arrived, %d lost",
		s.meta.SimulationID, s.tick, c.TotalPassengers, c.PassengersArrived, c.PassengersLost)
	return out, nil
}

// apply runs one action. Refusals are reported in the log entry; only bad
// references are errors.
func (s *Sim) apply(a Action) (ActionLog, error) {
	entry := ActionLog{Tick: s.tick, Op: a.Op}
	switch a.Op {
	case OpCreateStation:
		st := s.net.CreateStation()
		entry.OK, entry.Detail = true, st.Describe()
	case OpPlaceStation:
		if !a.StationType.Valid() {
			return entry, fmt.Errorf("invalid station type %d", a.StationType)
		}
		st := s.net.AddStation(a.X, a.Y, a.StationType)
		entry.OK, entry.Detail = true, st.Describe()
	case OpConnect:
		from, err := s.stationID(a.From)
		if err != nil {
			return entry, err
		}
		to, err := s.stationID(a.To)
		if err != nil {
			return entry, err
		}
		entry.OK = s.net.Connect(from, to)
	case OpDeleteLine:
		id, err := s.lineID(a.Line)
		if err != nil {
			return entry, err
		}
		entry.OK = s.net.DeleteLine(id)
	case OpAddTrain:
		id, err := s.lineID(a.Line)
		if err != nil {
			return entry, err
		}
		entry.OK = s.net.AddTrain(id, a.TrainType)
		entry.Detail = a.TrainType.String()
	case OpDeleteTrain:
		trains := s.net.Trains()
		if a.Train < 0 || a.Train >= len(trains) {
			return entry, fmt.Errorf("train %d: %w", a.Train, ErrIndexOutOfRange)
		}
		entry.OK = s.net.DeleteTrain(trains[a.Train].ID)
	case OpSpawnRider:
		id, err := s.stationID(a.Station)
		if err != nil {
			return entry, err
		}
		entry.OK = s.net.SpawnRider(id)
	case OpCheckLocation:
		entry.OK, entry.Detail = true, string(s.net.CheckLocation(a.X, a.Y))
	case OpPause:
		s.net.SetPaused(true)
		entry.OK = true
	case OpResume:
		s.net.SetPaused(false)
		entry.OK = true
	}
	if !entry.OK {
		log.Debugf("tick %d: %s refused", s.tick, a.Op)
	}
	return entry, nil
}

func (s *Sim) stationID(i int) (uuid.UUID, error) {
	stations := s.net.Stations()
	if i < 0 || i >= len(stations) {
		return uuid.Nil, fmt.Errorf("station %d: %w", i, ErrIndexOutOfRange)
	}
	return stations[i].ID, nil
}

func (s *Sim) lineID(i int) (uuid.UUID, error) {
	lines := s.net.Lines()
	if i < 0 || i >= len(lines) {
		return uuid.Nil, fmt.Errorf("line %d: %w", i, ErrIndexOutOfRange)
	}
	return lines[i].ID, nil
}

func (o Op) valid() bool {
	switch o {
	case OpCreateStation, OpPlaceStation, OpConnect, OpDeleteLine, OpAddTrain,
		OpDeleteTrain, OpSpawnRider, OpCheckLocation, OpPause, OpResume:
		return true
	}
	return false
}

// Run builds a Sim from input and runs it to completion.
func Run(input SimulationInput, params network.Params) (SimulationLog, error) {
	sim, err := NewSim(input, params)
	if err != nil {
		return SimulationLog{}, err
	}
	return sim.Run()
}

// RunJSON is the primary entry point for the CLI and WASM targets. It accepts
// a JSON-encoded SimulationInput, runs it with the default parameters, and
// returns a JSON-encoded SimulationLog.
func RunJSON(jsonInput string) (string, error) {
	return RunJSONWith(jsonInput, network.DefaultParams())
}

// RunJSONWith is RunJSON with explicit network parameters.
func RunJSONWith(jsonInput string, params network.Params) (string, error) {
	var input SimulationInput
	if err := json.Unmarshal([]byte(jsonInput), &input); err != nil {
		return "", fmt.Errorf("invalid input JSON: %w", err)
	}

	simLog, err := Run(input, params)
	if err != nil {
		return "", err
	}

	out, err := json.Marshal(simLog)
	if err != nil {
		return "", fmt.Errorf("marshaling output: %w", err)
	}
	return string(out), nil
}
