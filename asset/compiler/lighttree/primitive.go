package lighttree

import (
	"github.com/achilleasa/lighttree/asset/scene"
	"github.com/achilleasa/lighttree/types"
	"github.com/chewxy/math32"
)

// The Scene interface is implemented by scene representations that can
// provide emitter data to the light tree builder.
type Scene interface {
	// List the candidate emitters.
	Emitters() []scene.EmitterRef

	// Get the world-space vertices of an emissive triangle.
	TriangleVertices(objectID, primID int) [3]types.Vec3

	// Get the radiance and emitting faces of an emissive triangle.
	TriangleEmission(objectID, primID int) (types.Vec3, scene.EmissionSides)

	// Get a light by index.
	Light(index int) *scene.Light
}

// A Primitive summarizes the position, orientation and energy of a single
// emitter.
type Primitive struct {
	// PrimID >= 0 is a triangle index of object ObjectID; otherwise
	// -PrimID-1 indexes the scene lights.
	PrimID   int32
	ObjectID int32

	// World-space vertices; only populated for triangles.
	Vertices [3]types.Vec3

	Centroid types.Vec3
	BBox     types.BBox
	BCone    OrientationBounds
	Energy   float32

	// The index of the primitive in the list passed to the tree builder.
	PrimNum int32
}

// Create a primitive for a scene emitter. The emitter referenced by primID
// and objectID must exist in the scene.
func NewPrimitive(sc Scene, primID, objectID int32) Primitive {
	prim := Primitive{
		PrimID:   primID,
		ObjectID: objectID,
	}

	if prim.IsTriangle() {
		prim.initTriangle(sc)
	} else {
		prim.initLight(sc.Light(int(-primID - 1)))
	}

	return prim
}

// Create primitives for all emitters reported by the scene.
func CollectPrimitives(sc Scene) []Primitive {
	refs := sc.Emitters()
	prims := make([]Primitive, len(refs))
	for index, ref := range refs {
		prims[index] = NewPrimitive(sc, ref.PrimID, ref.ObjectID)
	}
	return prims
}

// Returns true if this primitive is an emissive triangle.
func (p *Primitive) IsTriangle() bool {
	return p.PrimID >= 0
}

func (p *Primitive) initTriangle(sc Scene) {
	p.Vertices = sc.TriangleVertices(int(p.ObjectID), int(p.PrimID))
	radiance, sides := sc.TriangleEmission(int(p.ObjectID), int(p.PrimID))

	p.Centroid = p.Vertices[0].Add(p.Vertices[1]).Add(p.Vertices[2]).Mul(1.0 / 3.0)
	p.BBox = types.EmptyBBox()
	for _, v := range p.Vertices {
		p.BBox = p.BBox.GrowPoint(v)
	}

	// area = 0.5 * len(cross(v1-v0, v2-v0))
	normal := p.Vertices[1].Sub(p.Vertices[0]).Cross(p.Vertices[2].Sub(p.Vertices[0]))
	normalLen := normal.Len()
	area := 0.5 * normalLen

	// Zero-area triangles have no orientation; give them an omnidirectional
	// cone so they still bound correctly.
	if !(normalLen > 0) {
		p.BCone = OrientationBounds{Axis: types.Vec3{0, 0, 1}, ThetaO: math32.Pi, ThetaE: 0.5 * math32.Pi}
		p.Energy = 0
		return
	}

	axis := normal.Mul(1 / normalLen)
	if sides == scene.EmitBack {
		axis = axis.Neg()
	}

	p.BCone = OrientationBounds{Axis: axis, ThetaE: 0.5 * math32.Pi}
	if sides == scene.EmitBoth {
		p.BCone.ThetaO = math32.Pi
	}

	p.Energy = math32.Max(0, area*radiance.Average()*float32(sides.Count()))
}

func (p *Primitive) initLight(light *scene.Light) {
	p.Centroid = light.Position
	p.Energy = math32.Max(0, light.Strength.Average())

	axis := light.Direction.Normalize()
	if axis.IsZero() {
		axis = types.Vec3{0, 0, 1}
	}

	switch light.Type {
	case scene.SpotLight:
		p.BBox = sphereBBox(light.Position, light.Radius)
		p.BCone = OrientationBounds{Axis: axis, ThetaO: 0, ThetaE: 0.5 * light.SpotAngle}
	case scene.AreaLight:
		halfU := light.AxisU.Mul(0.5 * light.SizeU)
		halfV := light.AxisV.Mul(0.5 * light.SizeV)
		p.BBox = types.EmptyBBox().
			GrowPoint(light.Position.Sub(halfU).Sub(halfV)).
			GrowPoint(light.Position.Sub(halfU).Add(halfV)).
			GrowPoint(light.Position.Add(halfU).Sub(halfV)).
			GrowPoint(light.Position.Add(halfU).Add(halfV))
		p.BCone = OrientationBounds{Axis: axis, ThetaO: 0, ThetaE: 0.5 * light.Spread}
	default:
		// Point lights emit uniformly from every point of their sphere.
		p.BBox = sphereBBox(light.Position, light.Radius)
		p.BCone = OrientationBounds{Axis: axis, ThetaO: math32.Pi, ThetaE: 0.5 * math32.Pi}
	}
}

func sphereBBox(center types.Vec3, radius float32) types.BBox {
	r := types.Vec3{radius, radius, radius}
	return types.NewBBox(center.Sub(r), center.Add(r))
}
