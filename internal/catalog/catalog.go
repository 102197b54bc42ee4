// Package catalog enumerates the station shapes and train classes of the
// simulation along with their fixed per-class attributes.
package catalog

import (
	"fmt"
	"strings"
)

// StationType is the shape of a station. Riders want to reach any station of
// a given type, never a specific station.
type StationType int

const (
	Circle StationType = iota
	Triangle
	Square
	Cross
	Pentagon
	Hexagon

	stationTypeCount
)

var stationTypeNames = [stationTypeCount]string{
	Circle:   "circle",
	Triangle: "triangle",
	Square:   "square",
	Cross:    "cross",
	Pentagon: "pentagon",
	Hexagon:  "hexagon",
}

// AllStationTypes returns every station type in declaration order.
func AllStationTypes() []StationType {
	out := make([]StationType, stationTypeCount)
	for i := range out {
		out[i] = StationType(i)
	}
	return out
}

// Valid reports whether t is a declared station type.
func (t StationType) Valid() bool { return t >= 0 && t < stationTypeCount }

func (t StationType) String() string {
	if !t.Valid() {
		return fmt.Sprintf("StationType(%d)", int(t))
	}
	return stationTypeNames[t]
}

// MarshalText implements encoding.TextMarshaler.
func (t StationType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid station type %d", int(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *StationType) UnmarshalText(text []byte) error {
	name := strings.ToLower(string(text))
	for i, n := range stationTypeNames {
		if n == name {
			*t = StationType(i)
			return nil
		}
	}
	return fmt.Errorf("unknown station type %q", string(text))
}

// TrainType is the class of a train. Capacity, speed and acceleration are
// fixed per class.
type TrainType int

const (
	Regular TrainType = iota
	Express
	HighCapacity

	trainTypeCount
)

type trainSpec struct {
	name         string
	capacity     int
	speed        float64 // distance per tick
	acceleration float64 // distance per tick²; 0 reaches speed immediately
}

var trainSpecs = [trainTypeCount]trainSpec{
	Regular:      {name: "regular", capacity: 5, speed: 4.0},
	Express:      {name: "express", capacity: 5, speed: 6.4, acceleration: 0.4},
	HighCapacity: {name: "high_capacity", capacity: 8, speed: 3.2, acceleration: 0.2},
}

// AllTrainTypes returns every train class in declaration order.
func AllTrainTypes() []TrainType {
	out := make([]TrainType, trainTypeCount)
	for i := range out {
		out[i] = TrainType(i)
	}
	return out
}

// Valid reports whether t is a declared train class.
func (t TrainType) Valid() bool { return t >= 0 && t < trainTypeCount }

// Capacity is the maximum number of riders on board.
func (t TrainType) Capacity() int { return trainSpecs[t].capacity }

// Speed is the cruise distance covered per tick.
func (t TrainType) Speed() float64 { return trainSpecs[t].speed }

// Acceleration is the per-tick speed gain after leaving a station.
func (t TrainType) Acceleration() float64 { return trainSpecs[t].acceleration }

func (t TrainType) String() string {
	if !t.Valid() {
		return fmt.Sprintf("TrainType(%d)", int(t))
	}
	return trainSpecs[t].name
}

// MarshalText implements encoding.TextMarshaler.
func (t TrainType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid train type %d", int(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *TrainType) UnmarshalText(text []byte) error {
	name := strings.ToLower(string(text))
	for i, s := range trainSpecs {
		if s.name == name {
			*t = TrainType(i)
			return nil
		}
	}
	return fmt.Errorf("unknown train type %q", string(text))
}
