package lighttree

import (
	"testing"

	"github.com/achilleasa/lighttree/types"
	"github.com/chewxy/math32"
)

const angleEps float32 = 1e-4

func vecNear(a, b types.Vec3, eps float32) bool {
	return math32.Abs(a[0]-b[0]) <= eps && math32.Abs(a[1]-b[1]) <= eps && math32.Abs(a[2]-b[2]) <= eps
}

func TestMergeWithEmptyBounds(t *testing.T) {
	cone := OrientationBounds{Axis: types.Vec3{0, 1, 0}, ThetaO: 0.3, ThetaE: 0.5}

	if res := Merge(EmptyOrientationBounds, cone); res != cone {
		t.Fatalf("expected merging empty bounds with %v to yield %v; got %v", cone, cone, res)
	}
	if res := Merge(cone, EmptyOrientationBounds); res != cone {
		t.Fatalf("expected merging %v with empty bounds to yield %v; got %v", cone, cone, res)
	}
	if res := Merge(EmptyOrientationBounds, EmptyOrientationBounds); !res.IsEmpty() {
		t.Fatalf("expected merging two empty bounds to yield empty bounds; got %v", res)
	}
}

func TestMerge(t *testing.T) {
	x := types.Vec3{1, 0, 0}
	y := types.Vec3{0, 1, 0}
	z := types.Vec3{0, 0, 1}
	halfPi := float32(0.5 * math32.Pi)

	type spec struct {
		a, b      OrientationBounds
		expAxis   types.Vec3
		expThetaO float32
		expThetaE float32
	}
	specs := []spec{
		// identical cones
		{
			OrientationBounds{z, 0, halfPi}, OrientationBounds{z, 0, halfPi},
			z, 0, halfPi,
		},
		// orthogonal zero-width cones are bisected
		{
			OrientationBounds{x, 0, 0.1}, OrientationBounds{y, 0, 0.2},
			types.Vec3{math32.Sqrt(2) / 2, math32.Sqrt(2) / 2, 0}, 0.25 * math32.Pi, 0.2,
		},
		// a wide cone that already encloses a narrow one
		{
			OrientationBounds{z, halfPi, 0}, OrientationBounds{types.Vec3{0, 0.6, 0.8}, 0.2, 0.3},
			z, halfPi, 0.3,
		},
		// argument order does not matter; the widest cone wins
		{
			OrientationBounds{types.Vec3{0, 0.6, 0.8}, 0.2, 0.3}, OrientationBounds{z, halfPi, 0},
			z, halfPi, 0.3,
		},
		// anti-parallel cones produce a full sphere
		{
			OrientationBounds{x, 0, halfPi}, OrientationBounds{x.Neg(), 0, halfPi},
			x, math32.Pi, halfPi,
		},
		// merged angle beyond pi is clamped
		{
			OrientationBounds{x, 2.5, 0}, OrientationBounds{y, 2.5, 0},
			x, math32.Pi, 0,
		},
	}

	for index, s := range specs {
		res := Merge(s.a, s.b)
		if !vecNear(res.Axis, s.expAxis, angleEps) {
			t.Fatalf("[spec %d] expected axis %v; got %v", index, s.expAxis, res.Axis)
		}
		if math32.Abs(res.ThetaO-s.expThetaO) > angleEps {
			t.Fatalf("[spec %d] expected thetaO %f; got %f", index, s.expThetaO, res.ThetaO)
		}
		if math32.Abs(res.ThetaE-s.expThetaE) > angleEps {
			t.Fatalf("[spec %d] expected thetaE %f; got %f", index, s.expThetaE, res.ThetaE)
		}
		if !res.Contains(s.a, angleEps) || !res.Contains(s.b, angleEps) {
			t.Fatalf("[spec %d] expected %v to contain both %v and %v", index, res, s.a, s.b)
		}
	}
}

func TestMergeIsCommutative(t *testing.T) {
	cones := []OrientationBounds{
		{types.Vec3{1, 0, 0}, 0, 0.5},
		{types.Vec3{0, 1, 0}, 0.1, 1.0},
		{types.Vec3{0, 0.6, 0.8}, 0.4, 0.2},
		{types.Vec3{0.6, 0, -0.8}, 0.7, 1.5},
	}

	for i := range cones {
		for j := i + 1; j < len(cones); j++ {
			ab := Merge(cones[i], cones[j])
			ba := Merge(cones[j], cones[i])
			if math32.Abs(ab.ThetaO-ba.ThetaO) > angleEps || ab.ThetaE != ba.ThetaE || !vecNear(ab.Axis, ba.Axis, angleEps) {
				t.Fatalf("[cones %d, %d] expected merge to be commutative; got %v and %v", i, j, ab, ba)
			}
		}
	}
}

func TestMergeAccumulatesContainment(t *testing.T) {
	cones := []OrientationBounds{
		{types.Vec3{1, 0, 0}, 0, 0.5},
		{types.Vec3{0, 1, 0}, 0, 0.5},
		{types.Vec3{0, 0.6, 0.8}, 0.1, 0.2},
		{types.Vec3{0, 0, 1}, 0, 1.5},
		{types.Vec3{0.6, 0, -0.8}, 0.2, 0.1},
	}

	acc := EmptyOrientationBounds
	prevThetaO := float32(0)
	for index, cone := range cones {
		acc = Merge(acc, cone)
		if acc.ThetaO+angleEps < prevThetaO {
			t.Fatalf("[step %d] expected merged thetaO to never shrink; got %f after %f", index, acc.ThetaO, prevThetaO)
		}
		prevThetaO = acc.ThetaO

		for other := 0; other <= index; other++ {
			if !acc.Contains(cones[other], 1e-3) {
				t.Fatalf("[step %d] expected %v to contain cone %d (%v)", index, acc, other, cones[other])
			}
		}
	}
}

func TestMeasure(t *testing.T) {
	halfPi := float32(0.5 * math32.Pi)

	type spec struct {
		cone   OrientationBounds
		expVal float32
	}
	specs := []spec{
		{OrientationBounds{types.Vec3{0, 0, 1}, 0, 0}, 0},
		{OrientationBounds{types.Vec3{0, 0, 1}, 0, halfPi}, math32.Pi},
		{OrientationBounds{types.Vec3{0, 0, 1}, math32.Pi, halfPi}, 4 * math32.Pi},
		{OrientationBounds{types.Vec3{0, 0, 1}, math32.Pi, 0}, 4 * math32.Pi},
		// emission angles past the tangent plane are clamped
		{OrientationBounds{types.Vec3{0, 0, 1}, 0, math32.Pi}, math32.Pi},
	}

	for index, s := range specs {
		if got := s.cone.Measure(); math32.Abs(got-s.expVal) > 1e-4 {
			t.Fatalf("[spec %d] expected measure %f; got %f", index, s.expVal, got)
		}
	}
}

func TestMeasureIsMonotonic(t *testing.T) {
	const steps = 16
	for i := 0; i <= steps; i++ {
		thetaO := math32.Pi * float32(i) / steps
		prev := float32(-1)
		for j := 0; j <= steps; j++ {
			thetaE := 0.5 * math32.Pi * float32(j) / steps
			m := OrientationBounds{types.Vec3{0, 0, 1}, thetaO, thetaE}.Measure()
			if m+1e-4 < prev {
				t.Fatalf("expected measure to grow with thetaE (thetaO=%f, thetaE=%f): %f < %f", thetaO, thetaE, m, prev)
			}
			prev = m
		}
	}
}
