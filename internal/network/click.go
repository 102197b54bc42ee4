package network

import (
	"github.com/cxd309/minimetro/internal/line"
	"github.com/cxd309/minimetro/internal/station"
	"github.com/quasilyte/gmath"
)

// Click is the outcome of CheckLocation.
type Click string

const (
	ClickStationSelected Click = "station_selected"
	ClickConnected       Click = "connected"
	ClickConnectRefused  Click = "connect_refused"
	ClickLineDeleted     Click = "line_deleted"
	ClickLineSelected    Click = "line_selected"
	ClickLineDeselected  Click = "line_deselected"
	ClickCleared         Click = "cleared"
)

// CheckLocation interprets a click at (x, y). A station hit selects it, or
// connects the selected station to it. The delete button removes the
// selected line. A line hit toggles its selection. Anything else clears the
// selection.
func (n *Network) CheckLocation(x, y int) Click {
	if s := n.stationAt(x, y); s != nil {
		if n.selectedStation != nil && n.selectedStation != s {
			if n.Connect(n.selectedStation.ID, s.ID) {
				return ClickConnected
			}
			return ClickConnectRefused
		}
		log.Debugf("station clicked: %s", s.Describe())
		n.selectedStation = s
		n.selectedLine = nil
		return ClickStationSelected
	}

	if n.selectedLine != nil && n.params.DeleteButton.Contains(x, y) {
		n.DeleteLine(n.selectedLine.ID)
		n.selectedStation = nil
		return ClickLineDeleted
	}

	n.selectedStation = nil
	if l := n.lineAt(x, y); l != nil {
		if n.selectedLine == l {
			n.selectedLine = nil
			return ClickLineDeselected
		}
		n.selectedLine = l
		return ClickLineSelected
	}
	n.selectedLine = nil
	return ClickCleared
}

func (n *Network) stationAt(x, y int) *station.Station {
	spacing := n.params.ClickSpacing
	for _, s := range n.stations {
		if x+spacing >= s.X && x-spacing <= s.X && y+spacing >= s.Y && y-spacing <= s.Y {
			return s
		}
	}
	return nil
}

// lineAt returns the nearest line within LineClickSpacing of (x, y).
func (n *Network) lineAt(x, y int) *line.Line {
	p := gmath.Vec{X: float64(x), Y: float64(y)}
	var best *line.Line
	bestDist := n.params.LineClickSpacing
	for _, l := range n.lines {
		if d := l.DistanceTo(p); d <= bestDist {
			best, bestDist = l, d
		}
	}
	return best
}
