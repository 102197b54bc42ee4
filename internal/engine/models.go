package engine

import (
	"github.com/cxd309/minimetro/internal/catalog"
	"github.com/cxd309/minimetro/internal/network"
)

// SimulationMeta holds the identity and timing parameters for a simulation run.
type SimulationMeta struct {
	SimulationID  string `json:"simulation_id"`
	Seed          uint64 `json:"seed"`
	Ticks         int    `json:"ticks"`
	SampleEvery   int    `json:"sample_every,omitempty"` // ticks between log rows; 0 or 1 logs every tick
	StartStations int    `json:"start_stations,omitempty"`
}

// Op names a scripted player action.
type Op string

const (
	OpCreateStation Op = "create_station"
	OpPlaceStation  Op = "place_station"
	OpConnect       Op = "connect"
	OpDeleteLine    Op = "delete_line"
	OpAddTrain      Op = "add_train"
	OpDeleteTrain   Op = "delete_train"
	OpSpawnRider    Op = "spawn_rider"
	OpCheckLocation Op = "check_location"
	OpPause         Op = "pause"
	OpResume        Op = "resume"
)

// Action is one scripted operation applied before the network advances past
// Tick. Stations, lines and trains are referenced by their index in creation
// order at the time the action runs.
type Action struct {
	Tick int `json:"tick"`
	Op   Op  `json:"op"`

	From    int `json:"from,omitempty"`    // connect
	To      int `json:"to,omitempty"`      // connect
	Station int `json:"station,omitempty"` // spawn_rider
	Line    int `json:"line,omitempty"`    // delete_line, add_train
	Train   int `json:"train,omitempty"`   // delete_train

	X int `json:"x,omitempty"` // place_station, check_location
	Y int `json:"y,omitempty"` // place_station, check_location

	StationType catalog.StationType `json:"station_type"` // place_station
	TrainType   catalog.TrainType   `json:"train_type"`   // add_train
}

// SimulationInput is the JSON-serialisable input to the engine.
type SimulationInput struct {
	Meta    SimulationMeta `json:"simulation_meta"`
	Actions []Action       `json:"actions"`
}

// ActionLog records the outcome of one applied action.
type ActionLog struct {
	Tick   int    `json:"tick"`
	Op     Op     `json:"op"`
	OK     bool   `json:"ok"`
	Detail string `json:"detail,omitempty"`
}

// SimulationLogRow is the state of the network at a single tick.
type SimulationLogRow struct {
	Tick     int              `json:"tick"`
	Time     float64          `json:"time"` // simulated seconds
	Snapshot network.Snapshot `json:"snapshot"`
}

// SimulationLog is the complete output of a simulation run.
type SimulationLog struct {
	Meta    SimulationMeta     `json:"simulation_meta"`
	Actions []ActionLog        `json:"actions"`
	Output  []SimulationLogRow `json:"output"`
}
