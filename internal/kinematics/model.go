// Package kinematics defines how a train's speed evolves while it is in
// transit. Distances are in map units, velocities in units per tick and time
// in ticks.
package kinematics

// MotionModel is the traction contract a train class satisfies.
type MotionModel interface {
	// VMax returns the cruise speed.
	VMax() float64

	// AccelerateStep advances the vehicle toward targetV over dt ticks.
	// If targetV is reached before dt expires, the vehicle cruises at targetV
	// for the remainder of the step.
	// Returns (distance travelled, new velocity).
	AccelerateStep(v, targetV, dt float64) (dist, newV float64)
}
