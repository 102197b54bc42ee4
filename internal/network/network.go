// Package network holds the aggregate root of a simulation: every station,
// line and train, the selection state driven by clicks, and the clock.
//
// A Network is not safe for concurrent use. Callers serialise mutators and
// Tick behind one lock.
package network

import (
	"math/rand/v2"
	"slices"

	"github.com/cxd309/minimetro/internal/catalog"
	"github.com/cxd309/minimetro/internal/line"
	"github.com/cxd309/minimetro/internal/station"
	"github.com/cxd309/minimetro/internal/tracker"
	"github.com/cxd309/minimetro/internal/train"
	"github.com/google/uuid"
	"github.com/quasilyte/gmath"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("module", "network")

const placementAttempts = 100

// Network owns the stations, lines and trains of one simulation run.
type Network struct {
	params  Params
	rng     *rand.Rand
	tracker *tracker.Tracker

	ticks            int
	now              float64
	lastStationSpawn float64
	paused           bool

	stations []*station.Station
	lines    []*line.Line
	trains   []*train.Train

	selectedStation *station.Station
	selectedLine    *line.Line
	colors          []catalog.Color
}

// New returns an empty network. rng drives every random choice, so a seeded
// source reproduces a run exactly.
func New(params Params, rng *rand.Rand) *Network {
	return &Network{
		params:  params,
		rng:     rng,
		tracker: tracker.New(),
		colors:  slices.Clone(catalog.LinePalette),
	}
}

// Now is the simulated time in seconds.
func (n *Network) Now() float64 { return n.now }

// Ticks is the number of ticks run while unpaused.
func (n *Network) Ticks() int { return n.ticks }

func (n *Network) Paused() bool { return n.paused }

// SetPaused freezes or resumes the clock.
func (n *Network) SetPaused(paused bool) {
	if n.paused != paused {
		log.Infof("paused=%v at t=%.2f", paused, n.now)
	}
	n.paused = paused
}

// Tracker exposes the run statistics.
func (n *Network) Tracker() *tracker.Tracker { return n.tracker }

func (n *Network) Stations() []*station.Station { return slices.Clone(n.stations) }
func (n *Network) Lines() []*line.Line          { return slices.Clone(n.lines) }
func (n *Network) Trains() []*train.Train       { return slices.Clone(n.trains) }

// SelectedStation returns the station picked by the last click, if any.
func (n *Network) SelectedStation() *station.Station { return n.selectedStation }

// SelectedLine returns the line picked by the last click, if any.
func (n *Network) SelectedLine() *line.Line { return n.selectedLine }

// Station looks up a station by id.
func (n *Network) Station(id uuid.UUID) (*station.Station, bool) {
	return lo.Find(n.stations, func(s *station.Station) bool { return s.ID == id })
}

// Line looks up a line by id.
func (n *Network) Line(id uuid.UUID) (*line.Line, bool) {
	return lo.Find(n.lines, func(l *line.Line) bool { return l.ID == id })
}

// Train looks up a train by id.
func (n *Network) Train(id uuid.UUID) (*train.Train, bool) {
	return lo.Find(n.trains, func(t *train.Train) bool { return t.ID == id })
}

// CreateStation places a station of a random type at a random free spot.
func (n *Network) CreateStation() *station.Station {
	x, y := n.location()
	types := catalog.AllStationTypes()
	return n.AddStation(x, y, types[n.rng.IntN(len(types))])
}

// AddStation places a station of type st at (x, y) without any spacing
// check.
func (n *Network) AddStation(x, y int, st catalog.StationType) *station.Station {
	s := station.New(x, y, st, n.params.Station, n.tracker, n.now)
	n.tracker.RegisterStation(s.ID, s.Type)
	n.stations = append(n.stations, s)
	n.lastStationSpawn = n.now
	log.Infof("created station %d: %s", len(n.stations), s.Describe())
	return s
}

// location rejection-samples a point at least StationSpacing away from every
// station, falling back to the world centre.
func (n *Network) location() (int, int) {
	p := n.params
	spacing := float64(p.StationSpacing)
	for range placementAttempts {
		x := p.StationSpacing + n.rng.IntN(max(p.WorldWidth-2*p.StationSpacing, 0)+1)
		y := p.StationSpacing + n.rng.IntN(max(p.WorldHeight-p.UIHeight-2*p.StationSpacing, 0)+1)
		pos := gmath.Vec{X: float64(x), Y: float64(y)}
		if !lo.ContainsBy(n.stations, func(s *station.Station) bool { return s.Pos().DistanceTo(pos) < spacing }) {
			return x, y
		}
	}
	log.Debugf("no free spot after %d attempts, using centre", placementAttempts)
	return p.WorldWidth / 2, p.WorldHeight / 2
}

// Connect links station a to station b. It first tries to extend a line
// ending at a; otherwise it opens a new line with one regular train, unless
// the pair is already adjacent on some line or no colour is left. Selection
// is cleared whatever the outcome.
func (n *Network) Connect(a, b uuid.UUID) bool {
	n.selectedStation = nil
	n.selectedLine = nil

	from, ok := n.Station(a)
	if !ok {
		return false
	}
	to, ok := n.Station(b)
	if !ok || from == to {
		log.Debugf("connect refused: unknown or identical stations")
		return false
	}

	for _, l := range n.lines {
		if l.Circular() || l.Destination() != from {
			continue
		}
		if l.AddStation(to) {
			n.tracker.AddService(to.ID)
			n.recalculate(l)
			n.refreshServices()
			log.Infof("extended line %s to %s", l.Color, to.Describe())
			return true
		}
	}

	if n.connected(from, to) {
		log.Debugf("connect refused: %s and %s already linked", from.Describe(), to.Describe())
		return false
	}
	if len(n.colors) == 0 {
		log.Debugf("connect refused: no line colour left")
		return false
	}

	l, err := line.New(n.colors[0], from, to)
	if err != nil {
		log.WithError(err).Error("creating line")
		return false
	}
	n.colors = n.colors[1:]
	n.lines = append(n.lines, l)
	n.trains = append(n.trains, train.New(l, catalog.Regular, n.params.Train, n.tracker, n.now))
	n.tracker.AddService(from.ID)
	n.tracker.AddService(to.ID)
	n.refreshServices()
	log.Infof("new line %s: %s -> %s", l.Color, from.Describe(), to.Describe())
	return true
}

func (n *Network) connected(a, b *station.Station) bool {
	return lo.ContainsBy(n.lines, func(l *line.Line) bool { return l.Connects(a.ID, b.ID) })
}

func (n *Network) recalculate(l *line.Line) {
	for _, t := range n.trains {
		if t.Line() == l {
			t.Recalculate()
		}
	}
}

// DeleteLine removes a line and every train on it, and frees its colour.
func (n *Network) DeleteLine(id uuid.UUID) bool {
	l, ok := n.Line(id)
	if !ok {
		return false
	}
	for _, s := range l.Visits() {
		n.tracker.RemoveService(s.ID)
	}
	n.lines = lo.Without(n.lines, l)
	removed := 0
	n.trains = lo.Reject(n.trains, func(t *train.Train, _ int) bool {
		if t.Line() != l {
			return false
		}
		n.evict(t)
		removed++
		return true
	})
	n.releaseColor(l.Color)
	if n.selectedLine == l {
		n.selectedLine = nil
	}
	n.tracker.RemoveLine(l.ID)
	n.refreshServices()
	log.Infof("deleted line %s with %d trains", l.Color, removed)
	return true
}

// releaseColor returns c to the pool, keeping palette order so the next line
// reuses the earliest free colour.
func (n *Network) releaseColor(c catalog.Color) {
	n.colors = append(n.colors, c)
	slices.SortFunc(n.colors, func(a, b catalog.Color) int {
		return slices.Index(catalog.LinePalette, a) - slices.Index(catalog.LinePalette, b)
	})
}

// AddTrain puts a new train of class tt on a line, within the train budget.
func (n *Network) AddTrain(lineID uuid.UUID, tt catalog.TrainType) bool {
	l, ok := n.Line(lineID)
	if !ok || !tt.Valid() {
		return false
	}
	if len(n.trains) >= n.params.MaxTrains {
		log.Debugf("no trains available (%d in service)", len(n.trains))
		return false
	}
	n.trains = append(n.trains, train.New(l, tt, n.params.Train, n.tracker, n.now))
	log.Infof("created %s train on line %s (total: %d)", tt, l.Color, len(n.trains))
	return true
}

// DeleteTrain takes a train out of service.
func (n *Network) DeleteTrain(id uuid.UUID) bool {
	t, ok := n.Train(id)
	if !ok {
		return false
	}
	n.evict(t)
	n.trains = lo.Without(n.trains, t)
	return true
}

// evict counts the riders of a train leaving service as lost.
func (n *Network) evict(t *train.Train) {
	if lost := t.Evict(); lost > 0 {
		n.tracker.RecordLost(lost)
		log.Debugf("%d riders lost with train %s", lost, t.ID)
	}
}

// SpawnRider queues a rider at a station immediately, ignoring its timer.
func (n *Network) SpawnRider(stationID uuid.UUID) bool {
	s, ok := n.Station(stationID)
	if !ok {
		return false
	}
	return s.SpawnRider(n.now, n.rng)
}

// Tick advances the simulation by one step of 1/TickRate seconds. It does
// nothing while paused.
func (n *Network) Tick() {
	if n.paused {
		return
	}
	n.ticks++
	n.now = float64(n.ticks) / n.params.TickRate

	if len(n.stations) < n.params.MaxStations && n.now-n.lastStationSpawn >= n.params.StationSpawnInterval {
		n.CreateStation()
	}
	for _, s := range n.stations {
		s.Update(n.now, n.rng)
	}
	for _, t := range n.trains {
		t.Update(n.now)
	}
}

// refreshServices rebuilds the line and station service indices.
func (n *Network) refreshServices() {
	for _, l := range n.lines {
		n.tracker.SetLineServices(l.ID, l.StationTypes())
	}
	for _, s := range n.stations {
		var types []catalog.StationType
		for _, l := range n.lines {
			if l.Contains(s.ID) {
				types = append(types, l.StationTypes()...)
			}
		}
		types = lo.Without(lo.Uniq(types), s.Type)
		n.tracker.SetStationServices(s.ID, types)
	}
}
