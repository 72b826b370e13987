// Package kinematics provides forward and inverse kinematics for a serial
// revolute-joint arm described by Denavit-Hartenberg parameters.
package kinematics

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Solver is the collaborator contract consumed by the control loop. Inverse
// reports ok=false instead of an error when the pose is unreachable; that is
// a normal control-loop outcome, not a fault.
type Solver interface {
	Forward(joints []float64) *mat.Dense
	Inverse(target *mat.Dense) ([]float64, bool)
}

// Link holds the standard DH parameters of one joint. Theta is a fixed
// offset added to the joint variable.
type Link struct {
	A     float64 // link length
	Alpha float64 // link twist
	D     float64 // link offset
	Theta float64 // joint angle offset

	// Joint limits in radians, applied to the normalized solution.
	Min, Max float64
}

// Chain is a serial kinematic chain.
type Chain struct {
	links []Link
}

var _ Solver = (*Chain)(nil)

// NewChain builds a chain from DH links.
func NewChain(links []Link) *Chain {
	return &Chain{links: links}
}

// SixDOFArm returns the chain for the default 6-joint arm with a spherical
// wrist, dimensions in meters.
func SixDOFArm() *Chain {
	const lim = 2.96 // ~170 degrees
	return NewChain([]Link{
		{A: 0, Alpha: math.Pi / 2, D: 0.110, Min: -lim, Max: lim},
		{A: 0.300, Alpha: 0, D: 0, Theta: math.Pi / 2, Min: -2.0, Max: 2.0},
		{A: 0.050, Alpha: math.Pi / 2, D: 0, Min: -2.4, Max: 2.4},
		{A: 0, Alpha: -math.Pi / 2, D: 0.300, Min: -lim, Max: lim},
		{A: 0, Alpha: math.Pi / 2, D: 0, Min: -2.0, Max: 2.0},
		{A: 0, Alpha: 0, D: 0.080, Min: -lim, Max: lim},
	})
}

// Dof returns the number of joints in the chain.
func (c *Chain) Dof() int {
	return len(c.links)
}

// dhTransform returns the homogeneous transform of one link for joint value q.
func dhTransform(l Link, q float64) *mat.Dense {
	th := l.Theta + q
	ct, st := math.Cos(th), math.Sin(th)
	ca, sa := math.Cos(l.Alpha), math.Sin(l.Alpha)
	return mat.NewDense(4, 4, []float64{
		ct, -st * ca, st * sa, l.A * ct,
		st, ct * ca, -ct * sa, l.A * st,
		0, sa, ca, l.D,
		0, 0, 0, 1,
	})
}

// Forward computes the end-effector pose for the given joint angles
// (radians). The joints slice must have one entry per link.
func (c *Chain) Forward(joints []float64) *mat.Dense {
	t := identity4()
	for i, l := range c.links {
		t.Mul(t, dhTransform(l, joints[i]))
	}
	return t
}

// Inverse solves for joint angles reaching the target pose using damped
// least squares on the geometric Jacobian. It returns ok=false when the
// iteration does not converge or the solution violates joint limits.
func (c *Chain) Inverse(target *mat.Dense) ([]float64, bool) {
	const (
		maxIters = 300
		tol      = 1e-5
		damping  = 0.05
	)

	n := len(c.links)
	q := make([]float64, n)

	for iter := 0; iter < maxIters; iter++ {
		e := c.poseError(q, target)
		if mat.Norm(e, 2) < tol {
			return c.normalize(q)
		}

		jac := c.jacobian(q)

		// dq = J^T (J J^T + lambda^2 I)^-1 e
		var jjt mat.Dense
		jjt.Mul(jac, jac.T())
		for i := 0; i < 6; i++ {
			jjt.Set(i, i, jjt.At(i, i)+damping*damping)
		}

		var y mat.VecDense
		if err := y.SolveVec(&jjt, e); err != nil {
			return nil, false
		}
		var dq mat.VecDense
		dq.MulVec(jac.T(), &y)

		for i := 0; i < n; i++ {
			q[i] += dq.AtVec(i)
			if math.IsNaN(q[i]) {
				return nil, false
			}
		}
	}
	return nil, false
}

// poseError returns the 6-vector [position error; orientation error] between
// the pose at q and the target.
func (c *Chain) poseError(q []float64, target *mat.Dense) *mat.VecDense {
	cur := c.Forward(q)
	e := mat.NewVecDense(6, nil)
	for i := 0; i < 3; i++ {
		e.SetVec(i, target.At(i, 3)-cur.At(i, 3))
	}
	// Orientation error as half the sum of column cross products.
	for col := 0; col < 3; col++ {
		cx, cy, cz := cur.At(0, col), cur.At(1, col), cur.At(2, col)
		tx, ty, tz := target.At(0, col), target.At(1, col), target.At(2, col)
		e.SetVec(3, e.AtVec(3)+0.5*(cy*tz-cz*ty))
		e.SetVec(4, e.AtVec(4)+0.5*(cz*tx-cx*tz))
		e.SetVec(5, e.AtVec(5)+0.5*(cx*ty-cy*tx))
	}
	return e
}

// jacobian computes the 6xN geometric Jacobian at q. For revolute joint i
// the column is [z_i x (p_e - p_i); z_i].
func (c *Chain) jacobian(q []float64) *mat.Dense {
	n := len(c.links)
	jac := mat.NewDense(6, n, nil)

	// Cumulative transforms up to each joint frame.
	t := identity4()
	origins := make([][3]float64, n)
	axes := make([][3]float64, n)
	for i, l := range c.links {
		origins[i] = [3]float64{t.At(0, 3), t.At(1, 3), t.At(2, 3)}
		axes[i] = [3]float64{t.At(0, 2), t.At(1, 2), t.At(2, 2)}
		t.Mul(t, dhTransform(l, q[i]))
	}
	pe := [3]float64{t.At(0, 3), t.At(1, 3), t.At(2, 3)}

	for i := 0; i < n; i++ {
		z := axes[i]
		r := [3]float64{pe[0] - origins[i][0], pe[1] - origins[i][1], pe[2] - origins[i][2]}
		jac.Set(0, i, z[1]*r[2]-z[2]*r[1])
		jac.Set(1, i, z[2]*r[0]-z[0]*r[2])
		jac.Set(2, i, z[0]*r[1]-z[1]*r[0])
		jac.Set(3, i, z[0])
		jac.Set(4, i, z[1])
		jac.Set(5, i, z[2])
	}
	return jac
}

// normalize wraps each joint angle into (-pi, pi] and enforces joint limits.
func (c *Chain) normalize(q []float64) ([]float64, bool) {
	out := make([]float64, len(q))
	for i, v := range q {
		for v > math.Pi {
			v -= 2 * math.Pi
		}
		for v <= -math.Pi {
			v += 2 * math.Pi
		}
		if v < c.links[i].Min || v > c.links[i].Max {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

func identity4() *mat.Dense {
	m := mat.NewDense(4, 4, nil)
	for i := 0; i < 4; i++ {
		m.Set(i, i, 1)
	}
	return m
}

// Degrees converts a radian sequence to degrees elementwise, preserving
// order and length.
func Degrees(rad []float64) []float64 {
	deg := make([]float64, len(rad))
	for i, r := range rad {
		deg[i] = r * 180 / math.Pi
	}
	return deg
}
