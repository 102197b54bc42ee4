package kinematics_test

import (
	"testing"

	"github.com/cxd309/minimetro/internal/kinematics"
	"github.com/stretchr/testify/assert"
)

func TestInstantModelCruisesImmediately(t *testing.T) {
	m := kinematics.ConstantAcceleration{Cruise: 4}
	dist, v := m.AccelerateStep(0, m.VMax(), 1)
	assert.Equal(t, 4.0, dist)
	assert.Equal(t, 4.0, v)
}

func TestAccelerationRampsUp(t *testing.T) {
	m := kinematics.ConstantAcceleration{Rate: 0.5, Cruise: 2}

	dist, v := m.AccelerateStep(0, m.VMax(), 1)
	assert.InDelta(t, 0.25, dist, 1e-9)
	assert.InDelta(t, 0.5, v, 1e-9)

	// 1.5 -> 2.0 takes exactly one tick.
	dist, v = m.AccelerateStep(1.5, m.VMax(), 1)
	assert.InDelta(t, 1.75, dist, 1e-9)
	assert.Equal(t, 2.0, v)
}

func TestAccelerationReachesTargetMidStep(t *testing.T) {
	m := kinematics.ConstantAcceleration{Rate: 1, Cruise: 2}
	// 1.5 -> 2.0 in half a tick, then cruise for the other half.
	dist, v := m.AccelerateStep(1.5, m.VMax(), 1)
	assert.InDelta(t, 0.875+1.0, dist, 1e-9)
	assert.Equal(t, 2.0, v)
}

func TestStepNeverExceedsCruise(t *testing.T) {
	m := kinematics.ConstantAcceleration{Rate: 0.4, Cruise: 6.4}
	v := 0.0
	for i := 0; i < 40; i++ {
		var dist float64
		dist, v = m.AccelerateStep(v, m.VMax(), 1)
		assert.LessOrEqual(t, dist, m.VMax()+1e-9)
		assert.LessOrEqual(t, v, m.VMax())
	}
	assert.Equal(t, 6.4, v)
}
