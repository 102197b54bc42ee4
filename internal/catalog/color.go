package catalog

import "fmt"

// Color is an RGB line colour.
type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

func (c Color) String() string { return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B) }

// LinePalette is the finite pool of line colours. A network can hold at most
// one line per colour.
var LinePalette = []Color{
	{R: 255, G: 150, B: 150},
	{R: 150, G: 255, B: 150},
	{R: 150, G: 150, B: 255},
	{R: 255, G: 210, B: 120},
	{R: 200, G: 140, B: 255},
	{R: 120, G: 230, B: 230},
	{R: 255, G: 140, B: 210},
}
