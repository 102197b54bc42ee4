package kinematics

// ConstantAcceleration ramps speed linearly from a standstill up to a cruise
// speed. A zero Rate cruises from the first tick.
type ConstantAcceleration struct {
	Rate   float64 `json:"rate"`   // speed gained per tick, units/tick²
	Cruise float64 `json:"cruise"` // units/tick
}

func (c ConstantAcceleration) VMax() float64 { return c.Cruise }

// AccelerateStep integrates the speed ramp over ticks. Distance is the area
// under the speed profile: a trapezoid while ramping, a rectangle once at
// targetV.
func (c ConstantAcceleration) AccelerateStep(v, targetV, ticks float64) (float64, float64) {
	if c.Rate <= 0 || v >= targetV {
		return targetV * ticks, targetV
	}
	ramp := (targetV - v) / c.Rate
	if ramp > ticks {
		end := v + c.Rate*ticks
		return (v + end) / 2 * ticks, end
	}
	return (v+targetV)/2*ramp + targetV*(ticks-ramp), targetV
}
