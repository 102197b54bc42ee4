package network

import (
	"github.com/cxd309/minimetro/internal/catalog"
	"github.com/cxd309/minimetro/internal/rider"
	"github.com/cxd309/minimetro/internal/station"
	"github.com/cxd309/minimetro/internal/tracker"
	"github.com/cxd309/minimetro/internal/train"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

// StationLog is a point-in-time view of a station.
type StationLog struct {
	StationID uuid.UUID             `json:"station_id"`
	X         int                   `json:"x"`
	Y         int                   `json:"y"`
	Type      catalog.StationType   `json:"station_type"`
	Riders    []catalog.StationType `json:"riders"` // destination of each queued rider, in queue order
	Limit     int                   `json:"limit"`
	Serviced  bool                  `json:"serviced"`
	Selected  bool                  `json:"selected"`
}

// LineLog is a point-in-time view of a line.
type LineLog struct {
	LineID     uuid.UUID             `json:"line_id"`
	Color      catalog.Color         `json:"color"`
	StationIDs []uuid.UUID           `json:"station_ids"`
	Circular   bool                  `json:"circular"`
	Services   []catalog.StationType `json:"services"`
	Selected   bool                  `json:"selected"`
}

// TrainLog is a point-in-time view of a train.
type TrainLog struct {
	TrainID   uuid.UUID             `json:"train_id"`
	LineID    uuid.UUID             `json:"line_id"`
	TrainType catalog.TrainType     `json:"train_type"`
	State     train.State           `json:"state"`
	X         float64               `json:"x"`
	Y         float64               `json:"y"`
	Heading   float64               `json:"heading"` // degrees
	Distance  float64               `json:"distance"`
	Velocity  float64               `json:"velocity"`
	Riders    []catalog.StationType `json:"riders"`
}

// Snapshot is a read-only copy of the whole network for presentation.
type Snapshot struct {
	Time     float64              `json:"time"` // seconds
	Paused   bool                 `json:"paused"`
	Stations []StationLog         `json:"stations"`
	Lines    []LineLog            `json:"lines"`
	Trains   []TrainLog           `json:"trains"`
	Counters tracker.Counters     `json:"counters"`
	Waiting  int                  `json:"waiting"`
	Onboard  int                  `json:"onboard"`
	Services tracker.ServiceIndex `json:"services"`
}

// Snapshot captures the current state.
func (n *Network) Snapshot() Snapshot {
	snap := Snapshot{
		Time:     n.now,
		Paused:   n.paused,
		Stations: make([]StationLog, len(n.stations)),
		Lines:    make([]LineLog, len(n.lines)),
		Trains:   make([]TrainLog, len(n.trains)),
		Counters: n.tracker.Counters(),
		Services: n.tracker.Index(),
	}
	for i, s := range n.stations {
		snap.Stations[i] = n.stationLog(s)
		snap.Waiting += s.Waiting()
	}
	for i, l := range n.lines {
		snap.Lines[i] = LineLog{
			LineID:     l.ID,
			Color:      l.Color,
			StationIDs: lo.Map(l.Stations(), func(s *station.Station, _ int) uuid.UUID { return s.ID }),
			Circular:   l.Circular(),
			Services:   n.tracker.LineServices(l.ID),
			Selected:   l == n.selectedLine,
		}
	}
	for i, t := range n.trains {
		snap.Trains[i] = trainLog(t)
		snap.Onboard += t.Onboard()
	}
	return snap
}

func (n *Network) stationLog(s *station.Station) StationLog {
	return StationLog{
		StationID: s.ID,
		X:         s.X,
		Y:         s.Y,
		Type:      s.Type,
		Riders:    lo.Map(s.Riders(), func(r *rider.Rider, _ int) catalog.StationType { return r.Destination }),
		Limit:     s.Limit,
		Serviced:  n.tracker.Serviced(s.ID),
		Selected:  s == n.selectedStation,
	}
}

func trainLog(t *train.Train) TrainLog {
	pos := t.Position()
	return TrainLog{
		TrainID:   t.ID,
		LineID:    t.Line().ID,
		TrainType: t.Type,
		State:     t.State(),
		X:         pos.X,
		Y:         pos.Y,
		Heading:   t.Heading(),
		Distance:  t.Distance(),
		Velocity:  t.Velocity(),
		Riders:    t.Destinations(),
	}
}

