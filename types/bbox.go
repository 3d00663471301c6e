package types

import "github.com/chewxy/math32"

// An axis-aligned bounding box. An empty box has its min corner set to
// +MaxFloat32 and its max corner set to -MaxFloat32 so that growing it with
// any point or box yields that point or box.
type BBox struct {
	Min Vec3
	Max Vec3
}

// Create an empty bounding box.
func EmptyBBox() BBox {
	return BBox{
		Min: Vec3{math32.MaxFloat32, math32.MaxFloat32, math32.MaxFloat32},
		Max: Vec3{-math32.MaxFloat32, -math32.MaxFloat32, -math32.MaxFloat32},
	}
}

// Create a bounding box from two corners.
func NewBBox(min, max Vec3) BBox {
	return BBox{Min: MinVec3(min, max), Max: MaxVec3(min, max)}
}

// Returns true if the box contains at least one point.
func (b BBox) Valid() bool {
	return b.Min[0] <= b.Max[0] && b.Min[1] <= b.Max[1] && b.Min[2] <= b.Max[2]
}

// Grow the box so it includes point p.
func (b BBox) GrowPoint(p Vec3) BBox {
	return BBox{Min: MinVec3(b.Min, p), Max: MaxVec3(b.Max, p)}
}

// Grow the box so it includes box other.
func (b BBox) Grow(other BBox) BBox {
	if !other.Valid() {
		return b
	}
	return BBox{Min: MinVec3(b.Min, other.Min), Max: MaxVec3(b.Max, other.Max)}
}

// Get the box extents. Empty boxes have a zero size.
func (b BBox) Size() Vec3 {
	if !b.Valid() {
		return Vec3{}
	}
	return b.Max.Sub(b.Min)
}

// Get the box center.
func (b BBox) Center() Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Calculate the box surface area.
func (b BBox) Area() float32 {
	side := b.Size()
	return 2.0 * (side[0]*side[1] + side[1]*side[2] + side[0]*side[2])
}

// Returns true if other is fully enclosed by this box.
func (b BBox) Contains(other BBox) bool {
	if !other.Valid() {
		return true
	}
	for axis := 0; axis < 3; axis++ {
		if other.Min[axis] < b.Min[axis] || other.Max[axis] > b.Max[axis] {
			return false
		}
	}
	return true
}
