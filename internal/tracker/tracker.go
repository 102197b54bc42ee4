// Package tracker keeps the per-simulation passenger statistics and the
// service-topology indices read by the presentation layer.
package tracker

import (
	"slices"

	"github.com/cxd309/minimetro/internal/catalog"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Counters is a point-in-time copy of the passenger statistics.
type Counters struct {
	TotalPassengers   int `json:"total_passengers"`
	PassengersArrived int `json:"passengers_arrived"`
	PassengersLost    int `json:"passengers_lost"`
}

type typeSet map[catalog.StationType]struct{}

func (s typeSet) sorted() []catalog.StationType {
	out := lo.Keys(s)
	slices.Sort(out)
	return out
}

func newTypeSet(types []catalog.StationType) typeSet {
	s := make(typeSet, len(types))
	for _, t := range types {
		s[t] = struct{}{}
	}
	return s
}

// Tracker lives for one simulation run. A reset builds a new one.
type Tracker struct {
	counters Counters

	// stationTypes counts stations per type; spawners draw from its keys.
	stationTypes map[catalog.StationType]int
	// serviceCounts is the number of line visits touching each station.
	serviceCounts map[uuid.UUID]int

	stationServices map[uuid.UUID]typeSet
	lineServices    map[uuid.UUID]typeSet
}

func New() *Tracker {
	return &Tracker{
		stationTypes:    make(map[catalog.StationType]int),
		serviceCounts:   make(map[uuid.UUID]int),
		stationServices: make(map[uuid.UUID]typeSet),
		lineServices:    make(map[uuid.UUID]typeSet),
	}
}

// Counters returns a copy of the passenger statistics.
func (t *Tracker) Counters() Counters { return t.counters }

// RecordSpawn counts a newly created rider.
func (t *Tracker) RecordSpawn() { t.counters.TotalPassengers++ }

// RecordArrivals counts riders delivered to a station of their destination type.
func (t *Tracker) RecordArrivals(n int) { t.counters.PassengersArrived += n }

// RecordLost counts riders that abandoned a station queue.
func (t *Tracker) RecordLost(n int) { t.counters.PassengersLost += n }

// RegisterStation records a new station and its type.
func (t *Tracker) RegisterStation(id uuid.UUID, st catalog.StationType) {
	t.stationTypes[st]++
	t.serviceCounts[id] = 0
	t.stationServices[id] = typeSet{}
}

// StationTypes returns the distinct station types present, sorted.
func (t *Tracker) StationTypes() []catalog.StationType {
	out := lo.Keys(t.stationTypes)
	slices.Sort(out)
	return out
}

// AddService increments the service count of a station.
func (t *Tracker) AddService(id uuid.UUID) { t.serviceCounts[id]++ }

// RemoveService decrements the service count of a station, never below zero.
func (t *Tracker) RemoveService(id uuid.UUID) {
	if t.serviceCounts[id] > 0 {
		t.serviceCounts[id]--
	}
}

// ServiceCount is the number of line visits at a station.
func (t *Tracker) ServiceCount(id uuid.UUID) int { return t.serviceCounts[id] }

// Serviced reports whether any line visits the station.
func (t *Tracker) Serviced(id uuid.UUID) bool { return t.serviceCounts[id] > 0 }

// SetLineServices replaces the set of types a line serves.
func (t *Tracker) SetLineServices(lineID uuid.UUID, types []catalog.StationType) {
	t.lineServices[lineID] = newTypeSet(types)
}

// RemoveLine drops a line from the service index.
func (t *Tracker) RemoveLine(lineID uuid.UUID) { delete(t.lineServices, lineID) }

// SetStationServices replaces the set of types reachable from a station.
func (t *Tracker) SetStationServices(stationID uuid.UUID, types []catalog.StationType) {
	t.stationServices[stationID] = newTypeSet(types)
}

// LineServices returns the types a line serves, sorted.
func (t *Tracker) LineServices(lineID uuid.UUID) []catalog.StationType {
	return t.lineServices[lineID].sorted()
}

// StationServices returns the types reachable from a station, sorted.
func (t *Tracker) StationServices(stationID uuid.UUID) []catalog.StationType {
	return t.stationServices[stationID].sorted()
}

// ServiceIndex is the (station|line) -> service types graph, keyed by id.
type ServiceIndex struct {
	Stations map[uuid.UUID][]catalog.StationType `json:"stations"`
	Lines    map[uuid.UUID][]catalog.StationType `json:"lines"`
}

// Index returns a copy of both service-topology indices.
func (t *Tracker) Index() ServiceIndex {
	idx := ServiceIndex{
		Stations: make(map[uuid.UUID][]catalog.StationType, len(t.stationServices)),
		Lines:    make(map[uuid.UUID][]catalog.StationType, len(t.lineServices)),
	}
	for id, s := range t.stationServices {
		idx.Stations[id] = s.sorted()
	}
	for id, s := range t.lineServices {
		idx.Lines[id] = s.sorted()
	}
	return idx
}
