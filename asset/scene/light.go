package scene

import (
	"github.com/achilleasa/lighttree/types"
	"github.com/chewxy/math32"
)

// The type of a non-mesh light.
type LightType uint8

const (
	PointLight LightType = iota
	SpotLight
	AreaLight
)

func (t LightType) String() string {
	switch t {
	case PointLight:
		return "point"
	case SpotLight:
		return "spot"
	case AreaLight:
		return "area"
	}
	return "unknown"
}

// A light that is not backed by mesh geometry.
type Light struct {
	Type LightType

	// World-space light center.
	Position types.Vec3

	// Emission axis for spot lights and surface normal for area lights.
	Direction types.Vec3

	// Emitted power (RGB).
	Strength types.Vec3

	// Radius of the emitting sphere for point and spot lights.
	Radius float32

	// Full cone angle (radians) for spot lights.
	SpotAngle float32

	// Area light tangent frame and dimensions. AxisU and AxisV are unit
	// vectors; the light spans SizeU x SizeV around Position.
	AxisU, AxisV types.Vec3
	SizeU, SizeV float32

	// Emission spread angle (radians) for area lights; Pi for a lambertian
	// emitter.
	Spread float32
}

// Create a point light.
func NewPointLight(position, strength types.Vec3, radius float32) *Light {
	return &Light{
		Type:     PointLight,
		Position: position,
		Strength: strength,
		Radius:   radius,
	}
}

// Create a spot light pointing towards direction. The angle defines the
// full cone aperture in radians.
func NewSpotLight(position, direction, strength types.Vec3, radius, angle float32) *Light {
	return &Light{
		Type:      SpotLight,
		Position:  position,
		Direction: direction.Normalize(),
		Strength:  strength,
		Radius:    radius,
		SpotAngle: math32.Min(angle, 2*math32.Pi),
	}
}

// Create a rectangular area light centered at position and facing normal.
// The second tangent is derived from normal and axisU.
func NewAreaLight(position, normal, axisU, strength types.Vec3, sizeU, sizeV, spread float32) *Light {
	n := normal.Normalize()
	u := axisU.Normalize()
	return &Light{
		Type:      AreaLight,
		Position:  position,
		Direction: n,
		Strength:  strength,
		AxisU:     u,
		AxisV:     n.Cross(u).Normalize(),
		SizeU:     sizeU,
		SizeV:     sizeV,
		Spread:    math32.Min(spread, math32.Pi),
	}
}
