package network

import (
	"github.com/cxd309/minimetro/internal/station"
	"github.com/cxd309/minimetro/internal/train"
)

// Rect is an axis-aligned screen rectangle.
type Rect struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// Contains reports whether (x, y) lies inside r, edges included.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x <= r.X+r.W && y >= r.Y && y <= r.Y+r.H
}

// Params configures a Network. Distances are in world units, times in
// simulated seconds.
type Params struct {
	WorldWidth  int
	WorldHeight int
	UIHeight    int // strip at the bottom of the world kept free of stations

	StationSpacing   int     // minimum distance between stations
	ClickSpacing     int     // half-size of a station's click box
	LineClickSpacing float64 // maximum distance from a line for a click to hit it
	DeleteButton     Rect    // sidebar button deleting the selected line

	StationSpawnInterval float64
	MaxStations          int
	MaxTrains            int
	TickRate             float64 // ticks per simulated second

	Station station.Params
	Train   train.Params
}

// DefaultParams returns the standard game layout and tunables.
func DefaultParams() Params {
	const (
		width    = 800
		height   = 800
		uiHeight = 60
	)
	return Params{
		WorldWidth:           width,
		WorldHeight:          height,
		UIHeight:             uiHeight,
		StationSpacing:       80,
		ClickSpacing:         10,
		LineClickSpacing:     6,
		DeleteButton:         Rect{X: width - 110, Y: height - uiHeight + 15, W: 90, H: 30},
		StationSpawnInterval: 10,
		MaxStations:          15,
		MaxTrains:            10,
		TickRate:             60,
		Station:              station.DefaultParams(),
		Train:                train.DefaultParams(),
	}
}
