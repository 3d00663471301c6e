package lighttree

import (
	"github.com/achilleasa/lighttree/types"
	"github.com/chewxy/math32"
)

// The smallest normal float32; used for the angles of empty bounds.
const minAngle float32 = 1.17549435e-38

// OrientationBounds bound the normals of a set of emitters (a cone of
// half-angle ThetaO around Axis) together with their emission profile
// (ThetaE, the angle past the normal cone that still receives light).
type OrientationBounds struct {
	Axis   types.Vec3
	ThetaO float32
	ThetaE float32
}

// Empty orientation bounds. Merging them with any other bounds returns the
// other bounds unchanged.
var EmptyOrientationBounds = OrientationBounds{ThetaO: minAngle, ThetaE: minAngle}

// Returns true if these are empty bounds.
func (ob OrientationBounds) IsEmpty() bool {
	return ob.Axis.IsZero()
}

// Calculate the orientation measure of the bounds. This is the solid angle
// of the cone of emitted directions, weighted by the cosine falloff of the
// emission profile:
//
// θw = min(π, θo + θe)
// M = 2π(1 - cos θo) + π/2 (2 θw sin θo - cos(θo - 2 θw) - 2 θo sin θo + cos θo)
//
// The emission angle is clamped to π/2 since no emitter radiates past the
// tangent plane of its surface. The measure is 0 for a degenerate cone and
// 4π for an omnidirectional one.
func (ob OrientationBounds) Measure() float32 {
	thetaE := math32.Min(ob.ThetaE, 0.5*math32.Pi)
	thetaW := math32.Min(math32.Pi, ob.ThetaO+thetaE)
	cosO, sinO := math32.Cos(ob.ThetaO), math32.Sin(ob.ThetaO)

	return 2*math32.Pi*(1-cosO) +
		0.5*math32.Pi*(2*thetaW*sinO-math32.Cos(ob.ThetaO-2*thetaW)-2*ob.ThetaO*sinO+cosO)
}

// Returns true if these bounds enclose other, allowing for an angular error
// of eps radians.
func (ob OrientationBounds) Contains(other OrientationBounds, eps float32) bool {
	if other.IsEmpty() {
		return true
	}
	if ob.IsEmpty() {
		return false
	}

	thetaD := safeAcos(ob.Axis.Dot(other.Axis))
	return math32.Min(math32.Pi, thetaD+other.ThetaO) <= ob.ThetaO+eps && other.ThetaE <= ob.ThetaE+eps
}

// Merge two orientation bounds into the smallest bounds that enclose both.
func Merge(coneA, coneB OrientationBounds) OrientationBounds {
	if coneA.IsEmpty() {
		return coneB
	}
	if coneB.IsEmpty() {
		return coneA
	}

	// a always has the widest normal cone
	a, b := coneA, coneB
	if b.ThetaO > a.ThetaO {
		a, b = b, a
	}

	thetaD := safeAcos(a.Axis.Dot(b.Axis))
	thetaE := math32.Max(a.ThetaE, b.ThetaE)

	// a already encloses b
	if a.ThetaO >= math32.Min(math32.Pi, thetaD+b.ThetaO) {
		return OrientationBounds{Axis: a.Axis, ThetaO: a.ThetaO, ThetaE: thetaE}
	}

	thetaO := 0.5 * (thetaD + a.ThetaO + b.ThetaO)
	if thetaO >= math32.Pi {
		return OrientationBounds{Axis: a.Axis, ThetaO: math32.Pi, ThetaE: thetaE}
	}

	rotAxis := a.Axis.Cross(b.Axis).Normalize()
	if rotAxis.IsZero() {
		// Anti-parallel axes cannot be bisected; fall back to a full sphere.
		if a.Axis.Dot(b.Axis) < 0 {
			return OrientationBounds{Axis: a.Axis, ThetaO: math32.Pi, ThetaE: thetaE}
		}
		return OrientationBounds{Axis: a.Axis, ThetaO: math32.Min(math32.Pi, thetaD+b.ThetaO), ThetaE: thetaE}
	}

	// Rotate a's axis towards b so the new cone touches the far edges of both.
	axis := types.RotateAroundAxis(a.Axis, rotAxis, thetaO-a.ThetaO).Normalize()
	return OrientationBounds{Axis: axis, ThetaO: thetaO, ThetaE: thetaE}
}

func safeAcos(v float32) float32 {
	if v >= 1 {
		return 0
	} else if v <= -1 {
		return math32.Pi
	}
	return math32.Acos(v)
}
