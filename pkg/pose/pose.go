// Package pose owns the accumulated 7-DOF pose offset and its conversion to
// a homogeneous transform.
package pose

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Component indices of an Offset: three translations, three rotations and
// the gripper angle. Rotations are in radians, applied in the fixed order
// A1, A2, A3 when the offset is turned into a transform.
const (
	X = iota
	Y
	Z
	A1
	A2
	A3
	Gripper

	Components
)

// Offset is the ordered 7-tuple of accumulated displacement from the neutral
// configuration.
type Offset [Components]float64

// Accumulator owns the persistent pose offset. It starts at the zero vector
// and is only ever added to; there is no reset or clamping. Drift is bounded
// externally by inverse kinematics refusing unreachable poses.
type Accumulator struct {
	offset Offset
}

// Apply integrates one tick worth of routed deltas into the offset. Each
// component advances by delta[i] * speed[i] * dt and the new state is
// returned.
func (a *Accumulator) Apply(delta, speed Offset, dt float64) Offset {
	for i := range a.offset {
		a.offset[i] += delta[i] * speed[i] * dt
	}
	return a.offset
}

// Offset returns the current accumulated state.
func (a *Accumulator) Offset() Offset {
	return a.offset
}

// Transform builds the homogeneous transform for the offset:
// Translate(x,y,z) * RotX(a1) * RotY(a2) * RotZ(a3). The order is fixed and
// not commutative.
func (o Offset) Transform() *mat.Dense {
	t := Translate(o[X], o[Y], o[Z])
	t.Mul(t, RotX(o[A1]))
	t.Mul(t, RotY(o[A2]))
	t.Mul(t, RotZ(o[A3]))
	return t
}

// Identity returns the 4x4 identity transform.
func Identity() *mat.Dense {
	m := mat.NewDense(4, 4, nil)
	for i := 0; i < 4; i++ {
		m.Set(i, i, 1)
	}
	return m
}

// Translate returns the homogeneous translation by (x, y, z).
func Translate(x, y, z float64) *mat.Dense {
	m := Identity()
	m.Set(0, 3, x)
	m.Set(1, 3, y)
	m.Set(2, 3, z)
	return m
}

// RotX returns the homogeneous rotation by a radians about the x axis.
func RotX(a float64) *mat.Dense {
	c, s := math.Cos(a), math.Sin(a)
	return mat.NewDense(4, 4, []float64{
		1, 0, 0, 0,
		0, c, -s, 0,
		0, s, c, 0,
		0, 0, 0, 1,
	})
}

// RotY returns the homogeneous rotation by a radians about the y axis.
func RotY(a float64) *mat.Dense {
	c, s := math.Cos(a), math.Sin(a)
	return mat.NewDense(4, 4, []float64{
		c, 0, s, 0,
		0, 1, 0, 0,
		-s, 0, c, 0,
		0, 0, 0, 1,
	})
}

// RotZ returns the homogeneous rotation by a radians about the z axis.
func RotZ(a float64) *mat.Dense {
	c, s := math.Cos(a), math.Sin(a)
	return mat.NewDense(4, 4, []float64{
		c, -s, 0, 0,
		s, c, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	})
}
