// Package line implements a metro line: an ordered, possibly circular run of
// stations and the geometry of its segments.
package line

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/cxd309/minimetro/internal/catalog"
	"github.com/cxd309/minimetro/internal/station"
	"github.com/google/uuid"
	"github.com/quasilyte/gmath"
	"github.com/samber/lo"
)

var (
	ErrTooFewStations  = errors.New("a line needs at least two stations")
	ErrRepeatedStation = errors.New("a station cannot follow itself on a line")
)

// Line is an ordered sequence of shared station references. A circular line
// keeps each station once; its closing segment runs from the last station
// back to the first.
type Line struct {
	ID       uuid.UUID
	Color    catalog.Color
	stations []*station.Station
	circular bool
}

// New creates a non-circular line through stations in order.
func New(color catalog.Color, stations ...*station.Station) (*Line, error) {
	if len(stations) < 2 {
		return nil, ErrTooFewStations
	}
	for i := 1; i < len(stations); i++ {
		if stations[i] == stations[i-1] {
			return nil, fmt.Errorf("%w: %s", ErrRepeatedStation, stations[i].Describe())
		}
	}
	return &Line{
		ID:       uuid.New(),
		Color:    color,
		stations: slices.Clone(stations),
	}, nil
}

// Stations returns a copy of the station order.
func (l *Line) Stations() []*station.Station { return slices.Clone(l.stations) }

// Station returns the i-th station.
func (l *Line) Station(i int) *station.Station { return l.stations[i] }

// Len is the number of distinct station positions on the line.
func (l *Line) Len() int { return len(l.stations) }

func (l *Line) Circular() bool { return l.circular }

// Origin is the first station.
func (l *Line) Origin() *station.Station { return l.stations[0] }

// Destination is the last station.
func (l *Line) Destination() *station.Station { return l.stations[len(l.stations)-1] }

// AddStation extends the line at its end. Returning to the origin of a line
// with more than two stations closes it into a loop. Repeating the last
// station, revisiting an interior station, bouncing straight back to the
// origin of a two-station line, or extending a loop are refused.
func (l *Line) AddStation(s *station.Station) bool {
	if l.circular {
		return false
	}
	switch idx := slices.Index(l.stations, s); {
	case idx == 0:
		if len(l.stations) > 2 {
			l.circular = true
			return true
		}
		return false
	case idx == len(l.stations)-1:
		return false
	case idx > 0:
		return false
	}
	l.stations = append(l.stations, s)
	return true
}

// Contains reports whether the station is on the line.
func (l *Line) Contains(id uuid.UUID) bool {
	return lo.ContainsBy(l.stations, func(s *station.Station) bool { return s.ID == id })
}

// Visits lists every station visit; a loop visits its origin twice.
func (l *Line) Visits() []*station.Station {
	visits := slices.Clone(l.stations)
	if l.circular {
		visits = append(visits, l.stations[0])
	}
	return visits
}

// StationTypes returns the distinct types on the line, sorted.
func (l *Line) StationTypes() []catalog.StationType {
	types := lo.Uniq(lo.Map(l.stations, func(s *station.Station, _ int) catalog.StationType { return s.Type }))
	slices.Sort(types)
	return types
}

// Serves reports whether a rider bound for st can reach it on this line.
func (l *Line) Serves(st catalog.StationType) bool {
	return lo.ContainsBy(l.stations, func(s *station.Station) bool { return s.Type == st })
}

// SegmentCount is the number of segments, including the closing one.
func (l *Line) SegmentCount() int {
	if l.circular {
		return len(l.stations)
	}
	return len(l.stations) - 1
}

// Segment returns the endpoints of segment i.
func (l *Line) Segment(i int) (from, to *station.Station) {
	return l.stations[i], l.stations[(i+1)%len(l.stations)]
}

// SegmentLengths computes each segment's length from the current topology.
func (l *Line) SegmentLengths() []float64 {
	lengths := make([]float64, l.SegmentCount())
	for i := range lengths {
		from, to := l.Segment(i)
		lengths[i] = from.Pos().DistanceTo(to.Pos())
	}
	return lengths
}

// Connects reports whether a and b are adjacent on the line, in either order.
func (l *Line) Connects(a, b uuid.UUID) bool {
	for i := 0; i < l.SegmentCount(); i++ {
		from, to := l.Segment(i)
		if (from.ID == a && to.ID == b) || (from.ID == b && to.ID == a) {
			return true
		}
	}
	return false
}

// DistanceTo returns the shortest distance from p to any segment.
func (l *Line) DistanceTo(p gmath.Vec) float64 {
	best := math.Inf(1)
	for i := 0; i < l.SegmentCount(); i++ {
		from, to := l.Segment(i)
		best = math.Min(best, segmentDistance(p, from.Pos(), to.Pos()))
	}
	return best
}

func segmentDistance(p, a, b gmath.Vec) float64 {
	ab := b.Sub(a)
	lenSq := ab.LenSquared()
	if lenSq == 0 {
		return p.DistanceTo(a)
	}
	t := lo.Clamp(p.Sub(a).Dot(ab)/lenSq, 0, 1)
	return p.DistanceTo(a.Add(ab.Mulf(t)))
}
