// Package train implements the train state machine. A train alternates
// between transit along its line and docking at a station to exchange riders.
//
// Progress is parameterised by distance along the concatenated segments of
// the line rather than per-segment fractions, so speed stays uniform across
// segments of different lengths and loops and reversals share one code path.
package train

import (
	"math"

	"github.com/cxd309/minimetro/internal/catalog"
	"github.com/cxd309/minimetro/internal/kinematics"
	"github.com/cxd309/minimetro/internal/line"
	"github.com/cxd309/minimetro/internal/rider"
	"github.com/cxd309/minimetro/internal/station"
	"github.com/cxd309/minimetro/internal/tracker"
	"github.com/google/uuid"
	"github.com/quasilyte/gmath"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("module", "train")

// State describes what the train is doing.
type State string

const (
	StateForward  State = "transit_forward"
	StateBackward State = "transit_backward"
	StateDocked   State = "docked"
)

// Params are the docking tunables shared by every train.
type Params struct {
	DwellTime    float64 // seconds docked with nobody to service
	PerRiderTime float64 // extra seconds per rider serviced
}

// DefaultParams returns the standard game tunables.
func DefaultParams() Params {
	return Params{DwellTime: 0.5, PerRiderTime: 0.5}
}

// Train runs back and forth (or around, on a loop) along one line.
type Train struct {
	ID   uuid.UUID
	Type catalog.TrainType

	line    *line.Line
	params  Params
	motion  kinematics.MotionModel
	tracker *tracker.Tracker

	segments []float64
	total    float64

	distance  float64
	forward   bool
	velocity  float64
	atStation bool
	parked    *station.Station
	arrivedAt float64
	lastIndex int
	now       float64

	riders []*rider.Rider
}

// New places a train docked at the origin of l at time now.
func New(l *line.Line, tt catalog.TrainType, params Params, tr *tracker.Tracker, now float64) *Train {
	t := &Train{
		ID:      uuid.New(),
		Type:    tt,
		line:    l,
		params:  params,
		motion:  kinematics.ConstantAcceleration{Rate: tt.Acceleration(), Cruise: tt.Speed()},
		tracker: tr,
		forward: true,
		now:     now,
	}
	t.Recalculate()
	t.arrive(0, 0)
	return t
}

// Recalculate refreshes the segment geometry after the line's topology
// changed. Distance travelled is kept, clamped to the new total.
func (t *Train) Recalculate() {
	t.segments = t.line.SegmentLengths()
	t.total = lo.Sum(t.segments)
	t.distance = lo.Clamp(t.distance, 0, t.total)
}

// Update advances the train by one tick ending at now.
func (t *Train) Update(now float64) {
	t.now = now
	if t.atStation {
		if !t.dwellElapsed() {
			t.exchange()
			return
		}
		t.atStation = false
	}
	t.move()
}

// dwellElapsed reports whether the dock time, extended for each rider being
// serviced, has passed.
func (t *Train) dwellElapsed() bool {
	serviced := min(t.parked.Waiting(), t.Type.Capacity())
	return t.now-t.arrivedAt-float64(serviced)*t.params.PerRiderTime >= t.params.DwellTime
}

// exchange unloads riders who reached their destination type, then boards
// queued riders this line can deliver, in queue order, up to capacity.
func (t *Train) exchange() {
	staying := lo.Reject(t.riders, func(r *rider.Rider, _ int) bool { return r.Destination == t.parked.Type })
	if arrived := len(t.riders) - len(staying); arrived > 0 {
		t.tracker.RecordArrivals(arrived)
		log.Debugf("%d riders arrived at %s", arrived, t.parked.Describe())
	}
	t.riders = staying

	boarded := t.parked.Board(func(r *rider.Rider) bool {
		return t.line.Serves(r.Destination)
	}, t.Type.Capacity()-len(t.riders))
	if len(boarded) > 0 {
		t.riders = append(t.riders, boarded...)
		log.Debugf("%d aboard train %s", len(t.riders), t.ID)
	}
}

func (t *Train) move() {
	if t.total <= 0 {
		return
	}
	step, v := t.motion.AccelerateStep(t.velocity, t.motion.VMax(), 1)
	t.velocity = v

	if t.forward {
		t.distance += step
		if t.distance >= t.total {
			if t.line.Circular() {
				t.distance = 0
			} else {
				t.distance = t.total
				t.forward = false
			}
		}
	} else {
		t.distance -= step
		if t.distance <= 0 {
			t.distance = 0
			t.forward = true
		}
	}

	if idx, offset, ok := t.stationAt(t.distance); ok && idx != t.lastIndex {
		t.arrive(idx, offset)
	}
}

// stationAt finds the station whose offset along the line lies within half a
// tick of travel of distance. It returns the station index and its offset.
func (t *Train) stationAt(distance float64) (int, float64, bool) {
	tolerance := t.Tolerance()
	offsets := t.StationOffsets()
	for i, offset := range offsets {
		if d := distance - offset; d < -tolerance || d >= tolerance {
			continue
		}
		if i == len(offsets)-1 {
			if t.line.Circular() {
				return 0, 0, true
			}
			return t.line.Len() - 1, offset, true
		}
		return i, offset, true
	}
	return -1, 0, false
}

func (t *Train) arrive(idx int, offset float64) {
	t.atStation = true
	t.parked = t.line.Station(idx)
	t.arrivedAt = t.now
	t.lastIndex = idx
	t.distance = offset
	t.velocity = 0
	log.Debugf("train %s arrived at %s", t.ID, t.parked.Describe())
}

// segmentIndex returns the segment containing the current distance; past the
// end it is clamped to the last segment.
func (t *Train) segmentIndex() int {
	cumulative := 0.0
	for i, seg := range t.segments {
		cumulative += seg
		if t.distance < cumulative {
			return i
		}
	}
	return len(t.segments) - 1
}

// Position interpolates the train's location within its current segment.
func (t *Train) Position() gmath.Vec {
	if t.total <= 0 {
		return t.line.Origin().Pos()
	}
	i := t.segmentIndex()
	from, to := t.line.Segment(i)
	if t.segments[i] == 0 {
		return from.Pos()
	}
	within := t.distance - lo.Sum(t.segments[:i])
	return from.Pos().MoveTowards(to.Pos(), within)
}

// Heading is the direction of travel in degrees, in [0, 360). It only
// matters for display.
func (t *Train) Heading() float64 {
	if t.total <= 0 {
		return 0
	}
	from, to := t.line.Segment(t.segmentIndex())
	deg := float64(from.Pos().AngleToPoint(to.Pos())) * 180 / math.Pi
	if !t.forward {
		deg += 180
	}
	return math.Mod(deg+360, 360)
}

// State reports the current state of the machine.
func (t *Train) State() State {
	switch {
	case t.atStation:
		return StateDocked
	case t.forward:
		return StateForward
	default:
		return StateBackward
	}
}

// Line returns the line the train runs on.
func (t *Train) Line() *line.Line { return t.line }

func (t *Train) Distance() float64 { return t.distance }
func (t *Train) Total() float64    { return t.total }
func (t *Train) Forward() bool     { return t.forward }
func (t *Train) Velocity() float64 { return t.velocity }
func (t *Train) AtStation() bool   { return t.atStation }

// Parked returns the station the train is docked at, or nil in transit.
func (t *Train) Parked() *station.Station {
	if !t.atStation {
		return nil
	}
	return t.parked
}

// Onboard is the number of riders on the train.
func (t *Train) Onboard() int { return len(t.riders) }

// Destinations lists the destination type of every rider on board.
func (t *Train) Destinations() []catalog.StationType {
	return lo.Map(t.riders, func(r *rider.Rider, _ int) catalog.StationType { return r.Destination })
}

// Tolerance is the docking distance window around a station offset.
func (t *Train) Tolerance() float64 { return t.Type.Speed() * 0.5 }

// StationOffsets returns each station's cumulative distance along the line.
func (t *Train) StationOffsets() []float64 {
	offsets := make([]float64, 0, len(t.segments)+1)
	cumulative := 0.0
	for _, seg := range t.segments {
		offsets = append(offsets, cumulative)
		cumulative += seg
	}
	return append(offsets, cumulative)
}

// Evict empties the train and returns how many riders were on board. Used
// when the train is taken out of service.
func (t *Train) Evict() int {
	n := len(t.riders)
	t.riders = nil
	return n
}
