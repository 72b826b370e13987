package pose

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestAccumulatorStartsAtZero(t *testing.T) {
	var a Accumulator
	if a.Offset() != (Offset{}) {
		t.Errorf("new accumulator offset = %v, want zero vector", a.Offset())
	}
}

func TestAccumulatorApply(t *testing.T) {
	var a Accumulator
	delta := Offset{0.2, 0.5, -1.0, 0, 0, 1.2, 0.3}
	unit := Offset{1, 1, 1, 1, 1, 1, 1}

	got := a.Apply(delta, unit, 1)
	if got != delta {
		t.Errorf("after one tick offset = %v, want %v", got, delta)
	}

	// Accumulation, not replacement: a second identical tick doubles every
	// component.
	got = a.Apply(delta, unit, 1)
	for i := range got {
		if math.Abs(got[i]-2*delta[i]) > 1e-12 {
			t.Errorf("component %d after two ticks = %v, want %v", i, got[i], 2*delta[i])
		}
	}
}

func TestAccumulatorSpeedAndDtInterchangeable(t *testing.T) {
	delta := Offset{0.1, -0.2, 0.3, 0.4, -0.5, 0.6, 0.7}
	speed := Offset{2, 2, 2, 3, 3, 3, 2}

	var bySpeed, byDt Accumulator
	a := bySpeed.Apply(delta, speed, 1)

	// Scaling dt instead of speed component-wise produces the same state.
	for i := range delta {
		var single Offset
		single[i] = delta[i]
		var unit Offset
		unit[i] = 1
		byDt.Apply(single, unit, speed[i])
	}
	b := byDt.Offset()

	for i := range a {
		if math.Abs(a[i]-b[i]) > 1e-12 {
			t.Errorf("component %d: speed-scaled %v != dt-scaled %v", i, a[i], b[i])
		}
	}
}

func matApprox(t *testing.T, got, want mat.Matrix, tol float64) {
	t.Helper()
	r, c := got.Dims()
	wr, wc := want.Dims()
	if r != wr || c != wc {
		t.Fatalf("dimension mismatch: %dx%d vs %dx%d", r, c, wr, wc)
	}
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if math.Abs(got.At(i, j)-want.At(i, j)) > tol {
				t.Fatalf("element (%d,%d) = %v, want %v", i, j, got.At(i, j), want.At(i, j))
			}
		}
	}
}

func TestZeroOffsetTransformIsIdentity(t *testing.T) {
	var o Offset
	matApprox(t, o.Transform(), Identity(), 1e-12)
}

func TestTransformTranslationComponent(t *testing.T) {
	o := Offset{X: 1, Y: -2, Z: 3}
	m := o.Transform()
	if m.At(0, 3) != 1 || m.At(1, 3) != -2 || m.At(2, 3) != 3 {
		t.Errorf("translation column = (%v, %v, %v), want (1, -2, 3)",
			m.At(0, 3), m.At(1, 3), m.At(2, 3))
	}
}

func TestTransformRotationOrder(t *testing.T) {
	// Translation first, then RotX, RotY, RotZ in that order.
	o := Offset{X: 0.5, A1: 0.3, A2: -0.4, A3: 0.7}

	want := Translate(0.5, 0, 0)
	want.Mul(want, RotX(0.3))
	want.Mul(want, RotY(-0.4))
	want.Mul(want, RotZ(0.7))

	matApprox(t, o.Transform(), want, 1e-12)

	// The reversed order gives a different matrix; guard against silently
	// reordering the composition.
	reversed := Translate(0.5, 0, 0)
	reversed.Mul(reversed, RotZ(0.7))
	reversed.Mul(reversed, RotY(-0.4))
	reversed.Mul(reversed, RotX(0.3))

	diff := 0.0
	m := o.Transform()
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			diff += math.Abs(m.At(i, j) - reversed.At(i, j))
		}
	}
	if diff < 1e-6 {
		t.Error("rotation composition appears to commute; order should matter for these angles")
	}
}

func TestRotationsAreOrthonormal(t *testing.T) {
	for name, r := range map[string]*mat.Dense{
		"RotX": RotX(0.9), "RotY": RotY(-1.2), "RotZ": RotZ(2.1),
	} {
		var prod mat.Dense
		prod.Mul(r, r.T())
		matApprox(t, &prod, Identity(), 1e-12)
		if det := mat.Det(r); math.Abs(det-1) > 1e-12 {
			t.Errorf("%s determinant = %v, want 1", name, det)
		}
	}
}
