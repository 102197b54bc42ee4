package network_test

import (
	"math/rand/v2"
	"testing"

	"github.com/cxd309/minimetro/internal/catalog"
	"github.com/cxd309/minimetro/internal/network"
	"github.com/cxd309/minimetro/internal/station"
	"github.com/cxd309/minimetro/internal/train"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newNetwork returns a seeded network that never spawns stations on its own.
func newNetwork(t *testing.T, mutate ...func(*network.Params)) *network.Network {
	t.Helper()
	p := network.DefaultParams()
	p.MaxStations = 0
	for _, m := range mutate {
		m(&p)
	}
	return network.New(p, rand.New(rand.NewPCG(42, 1)))
}

func ticks(n *network.Network, count int, each func()) {
	for range count {
		n.Tick()
		if each != nil {
			each()
		}
	}
}

func assertConservation(t *testing.T, n *network.Network) {
	t.Helper()
	snap := n.Snapshot()
	c := snap.Counters
	require.Equal(t, c.TotalPassengers, c.PassengersArrived+c.PassengersLost+snap.Waiting+snap.Onboard,
		"t=%.2f %+v waiting=%d onboard=%d", snap.Time, c, snap.Waiting, snap.Onboard)
}

func TestRoundTripDocksAtEachEndOnce(t *testing.T) {
	n := newNetwork(t)
	a := n.AddStation(100, 100, catalog.Circle)
	b := n.AddStation(300, 100, catalog.Square)
	require.True(t, n.Connect(a.ID, b.ID))
	require.Len(t, n.Trains(), 1)
	tr := n.Trains()[0]
	require.Equal(t, a, tr.Parked())

	var docks []*station.Station
	for i := 0; len(docks) < 2; i++ {
		require.Less(t, i, 20_000)
		was := tr.AtStation()
		n.Tick()
		if !was && tr.AtStation() {
			docks = append(docks, tr.Parked())
		}
		require.GreaterOrEqual(t, tr.Distance(), 0.0)
		require.LessOrEqual(t, tr.Distance(), tr.Total())
	}
	assert.Equal(t, []*station.Station{b, a}, docks)
	assert.Zero(t, tr.Distance())
	assert.True(t, tr.Forward())
}

func TestUnservedRidersAreLost(t *testing.T) {
	n := newNetwork(t)
	n.AddStation(100, 100, catalog.Circle)
	n.AddStation(300, 100, catalog.Square)
	n.AddStation(200, 300, catalog.Triangle)

	ticks(n, 600*60, nil)

	snap := n.Snapshot()
	assert.Equal(t, 600.0, snap.Time)
	assert.Positive(t, snap.Counters.PassengersLost)
	assert.Zero(t, snap.Counters.PassengersArrived)
	assert.Equal(t, snap.Counters.TotalPassengers, snap.Counters.PassengersLost+snap.Waiting)
	for _, s := range snap.Stations {
		assert.LessOrEqual(t, len(s.Riders), s.Limit)
		assert.False(t, s.Serviced)
	}
}

func TestDuplicateConnectRefused(t *testing.T) {
	n := newNetwork(t)
	a := n.AddStation(100, 100, catalog.Circle)
	b := n.AddStation(300, 100, catalog.Square)

	require.True(t, n.Connect(a.ID, b.ID))
	assert.False(t, n.Connect(a.ID, b.ID))
	assert.False(t, n.Connect(b.ID, a.ID))
	assert.Len(t, n.Lines(), 1)
	assert.Len(t, n.Trains(), 1)
	assert.Equal(t, 1, n.Tracker().ServiceCount(a.ID))
	assert.Equal(t, 1, n.Tracker().ServiceCount(b.ID))
}

func TestConnectRefusesSelfAndUnknown(t *testing.T) {
	n := newNetwork(t)
	a := n.AddStation(100, 100, catalog.Circle)

	assert.False(t, n.Connect(a.ID, a.ID))
	assert.False(t, n.Connect(a.ID, uuid.New()))
	assert.False(t, n.Connect(uuid.New(), a.ID))
	assert.Empty(t, n.Lines())
}

func TestExtensionKeepsTrainProgress(t *testing.T) {
	n := newNetwork(t)
	a := n.AddStation(100, 100, catalog.Circle)
	b := n.AddStation(300, 100, catalog.Square)
	c := n.AddStation(300, 250, catalog.Triangle)
	require.True(t, n.Connect(a.ID, b.ID))
	tr := n.Trains()[0]

	ticks(n, 50, nil)
	before := tr.Distance()
	require.Positive(t, before)
	require.Equal(t, 200.0, tr.Total())

	require.True(t, n.Connect(b.ID, c.ID))
	require.Len(t, n.Lines(), 1)
	assert.Equal(t, []*station.Station{a, b, c}, n.Lines()[0].Stations())
	assert.Equal(t, 350.0, tr.Total())
	assert.Equal(t, before, tr.Distance())
	assert.Equal(t, 1, n.Tracker().ServiceCount(c.ID))
}

func TestLoopAndDelete(t *testing.T) {
	n := newNetwork(t)
	a := n.AddStation(100, 100, catalog.Circle)
	b := n.AddStation(300, 100, catalog.Square)
	c := n.AddStation(300, 250, catalog.Triangle)
	require.True(t, n.Connect(a.ID, b.ID))
	require.True(t, n.Connect(b.ID, c.ID))
	require.True(t, n.Connect(c.ID, a.ID))

	require.Len(t, n.Lines(), 1)
	l := n.Lines()[0]
	assert.True(t, l.Circular())
	assert.Equal(t, 2, n.Tracker().ServiceCount(a.ID))
	assert.False(t, n.Connect(c.ID, b.ID), "a loop cannot be extended and c-b is already linked")

	require.True(t, n.DeleteLine(l.ID))
	assert.Empty(t, n.Lines())
	assert.Empty(t, n.Trains())
	for _, s := range []*station.Station{a, b, c} {
		assert.Zero(t, n.Tracker().ServiceCount(s.ID), s.Describe())
	}
	assert.False(t, n.DeleteLine(l.ID))

	require.True(t, n.Connect(a.ID, b.ID))
	assert.Equal(t, l.Color, n.Lines()[0].Color, "colour returned to the pool")
}

func TestColourPoolExhaustion(t *testing.T) {
	n := newNetwork(t)
	var stations []*station.Station
	for i := range 16 {
		stations = append(stations, n.AddStation(50+(i%4)*200, 50+(i/4)*150, catalog.StationType(i%2)))
	}
	for k := range 8 {
		ok := n.Connect(stations[2*k].ID, stations[2*k+1].ID)
		assert.Equal(t, k < len(catalog.LinePalette), ok, "pair %d", k)
	}
	assert.Len(t, n.Lines(), len(catalog.LinePalette))

	seen := map[catalog.Color]bool{}
	for _, l := range n.Lines() {
		assert.False(t, seen[l.Color])
		seen[l.Color] = true
	}
}

func TestTrainBudget(t *testing.T) {
	n := newNetwork(t, func(p *network.Params) { p.MaxTrains = 2 })
	a := n.AddStation(100, 100, catalog.Circle)
	b := n.AddStation(300, 100, catalog.Square)
	require.True(t, n.Connect(a.ID, b.ID))
	l := n.Lines()[0]

	assert.True(t, n.AddTrain(l.ID, catalog.Express))
	assert.False(t, n.AddTrain(l.ID, catalog.HighCapacity))
	assert.False(t, n.AddTrain(uuid.New(), catalog.Regular))
	assert.False(t, n.AddTrain(l.ID, catalog.TrainType(9)))

	require.True(t, n.DeleteTrain(n.Trains()[0].ID))
	assert.False(t, n.DeleteTrain(uuid.New()))
	assert.True(t, n.AddTrain(l.ID, catalog.HighCapacity))
	assert.Equal(t, catalog.HighCapacity, n.Trains()[1].Type)
}

func TestNewLineAlwaysGetsItsTrain(t *testing.T) {
	n := newNetwork(t, func(p *network.Params) { p.MaxTrains = 1 })
	a := n.AddStation(100, 100, catalog.Circle)
	b := n.AddStation(300, 100, catalog.Square)
	c := n.AddStation(100, 300, catalog.Triangle)
	d := n.AddStation(300, 300, catalog.Cross)

	require.True(t, n.Connect(a.ID, b.ID))
	require.True(t, n.Connect(c.ID, d.ID))
	require.Len(t, n.Lines(), 2)
	// A line is never left without a train, even past the budget.
	assert.Len(t, n.Trains(), 2)
	for _, l := range n.Lines() {
		assert.True(t, lo.ContainsBy(n.Trains(), func(tr *train.Train) bool { return tr.Line() == l }))
	}

	// Extra trains stay refused until the fleet is back under the budget.
	assert.False(t, n.AddTrain(n.Lines()[0].ID, catalog.Regular))
	require.True(t, n.DeleteLine(n.Lines()[1].ID))
	assert.Len(t, n.Trains(), 1)
	assert.False(t, n.AddTrain(n.Lines()[0].ID, catalog.Regular))
	require.True(t, n.DeleteTrain(n.Trains()[0].ID))
	assert.True(t, n.AddTrain(n.Lines()[0].ID, catalog.Express))
}

func TestServiceIndex(t *testing.T) {
	n := newNetwork(t)
	a := n.AddStation(100, 100, catalog.Circle)
	b := n.AddStation(300, 100, catalog.Square)
	c := n.AddStation(300, 250, catalog.Square)
	require.True(t, n.Connect(a.ID, b.ID))
	l := n.Lines()[0]

	tr := n.Tracker()
	assert.Equal(t, []catalog.StationType{catalog.Circle, catalog.Square}, tr.LineServices(l.ID))
	assert.Equal(t, []catalog.StationType{catalog.Square}, tr.StationServices(a.ID))
	assert.Equal(t, []catalog.StationType{catalog.Circle}, tr.StationServices(b.ID))
	assert.Empty(t, tr.StationServices(c.ID))
	assert.NotContains(t, tr.LineServices(l.ID), catalog.Triangle)

	require.True(t, n.DeleteLine(l.ID))
	assert.Empty(t, tr.StationServices(a.ID))
	assert.Empty(t, tr.LineServices(l.ID))
}

func TestManualRiderSpawn(t *testing.T) {
	n := newNetwork(t)
	a := n.AddStation(100, 100, catalog.Circle)
	n.AddStation(300, 100, catalog.Square)

	for i := 0; a.Waiting() == 0; i++ {
		require.Less(t, i, 100)
		n.SpawnRider(a.ID)
	}
	assert.Equal(t, catalog.Square, a.Riders()[0].Destination)
	assert.Equal(t, 1, n.Tracker().Counters().TotalPassengers)
	assert.False(t, n.SpawnRider(uuid.New()))
}

func TestPauseFreezesClock(t *testing.T) {
	n := newNetwork(t)
	ticks(n, 10, nil)
	n.SetPaused(true)
	ticks(n, 10, nil)
	assert.True(t, n.Paused())
	assert.Equal(t, 10, n.Ticks())
	assert.InDelta(t, 10.0/60, n.Now(), 1e-12)

	n.SetPaused(false)
	ticks(n, 5, nil)
	assert.Equal(t, 15, n.Ticks())
}

func TestStationAutoSpawn(t *testing.T) {
	n := newNetwork(t, func(p *network.Params) { p.MaxStations = 2 })
	ticks(n, 599, nil)
	assert.Empty(t, n.Stations())
	n.Tick()
	assert.Len(t, n.Stations(), 1)

	ticks(n, 3*600, nil)
	assert.Len(t, n.Stations(), 2, "capped at MaxStations")
}

func TestCreateStationPlacement(t *testing.T) {
	n := newNetwork(t)
	p := network.DefaultParams()
	for range 5 {
		n.CreateStation()
	}
	stations := n.Stations()
	require.Len(t, stations, 5)
	for i, s := range stations {
		assert.True(t, s.Type.Valid())
		assert.GreaterOrEqual(t, s.X, p.StationSpacing)
		assert.LessOrEqual(t, s.X, p.WorldWidth-p.StationSpacing)
		assert.GreaterOrEqual(t, s.Y, p.StationSpacing)
		assert.LessOrEqual(t, s.Y, p.WorldHeight-p.UIHeight-p.StationSpacing)
		for _, o := range stations[:i] {
			assert.GreaterOrEqual(t, s.Pos().DistanceTo(o.Pos()), float64(p.StationSpacing))
		}
	}
}

func TestCreateStationFallsBackToCentre(t *testing.T) {
	n := newNetwork(t, func(p *network.Params) {
		p.WorldWidth, p.WorldHeight, p.UIHeight = 200, 200, 0
		p.StationSpacing = 100
	})
	n.CreateStation()
	s := n.CreateStation()
	assert.Equal(t, 100, s.X)
	assert.Equal(t, 100, s.Y)
}

func TestConservationUnderLoad(t *testing.T) {
	n := newNetwork(t)
	a := n.AddStation(100, 100, catalog.Circle)
	b := n.AddStation(300, 100, catalog.Square)
	c := n.AddStation(300, 300, catalog.Triangle)
	d := n.AddStation(100, 300, catalog.Square)
	n.AddStation(500, 500, catalog.Cross)
	require.True(t, n.Connect(a.ID, b.ID))
	require.True(t, n.Connect(b.ID, c.ID))
	require.True(t, n.Connect(a.ID, d.ID))
	require.True(t, n.AddTrain(n.Lines()[0].ID, catalog.Express))

	i := 0
	ticks(n, 300*60, func() {
		i++
		for _, tr := range n.Trains() {
			for _, dest := range tr.Destinations() {
				require.True(t, tr.Line().Serves(dest), "rider bound for %s on a line that cannot reach it", dest)
			}
			require.LessOrEqual(t, tr.Onboard(), tr.Type.Capacity())
		}
		if i%60 == 0 {
			assertConservation(t, n)
		}
		if i == 150*60 {
			require.True(t, n.DeleteTrain(n.Trains()[0].ID))
			require.True(t, n.DeleteLine(n.Lines()[1].ID))
			assertConservation(t, n)
		}
	})
	assert.Positive(t, n.Tracker().Counters().PassengersArrived)
	assertConservation(t, n)
}

func TestSameSeedSameRun(t *testing.T) {
	run := func() network.Snapshot {
		n := newNetwork(t, func(p *network.Params) { p.MaxStations = 6 })
		for range 3 {
			n.CreateStation()
		}
		s := n.Stations()
		n.Connect(s[0].ID, s[1].ID)
		n.Connect(s[1].ID, s[2].ID)
		ticks(n, 120*60, nil)
		return n.Snapshot()
	}
	first, second := run(), run()
	opts := cmp.Options{
		cmpopts.IgnoreTypes(uuid.UUID{}),
		cmpopts.IgnoreFields(network.Snapshot{}, "Services"),
	}
	if diff := cmp.Diff(first, second, opts); diff != "" {
		t.Errorf("runs diverged (-first +second):\n%s", diff)
	}
}
