package scene

import (
	"bytes"
	"fmt"

	"github.com/achilleasa/lighttree/types"
	"github.com/olekukonko/tablewriter"
)

// The faces of an emissive surface that emit light.
type EmissionSides uint8

const (
	EmitFront EmissionSides = 1 << iota
	EmitBack

	EmitBoth = EmitFront | EmitBack
)

// Get the number of emitting faces.
func (s EmissionSides) Count() int {
	count := 0
	if s&EmitFront != 0 {
		count++
	}
	if s&EmitBack != 0 {
		count++
	}
	return count
}

func (s EmissionSides) String() string {
	switch s {
	case EmitFront:
		return "front"
	case EmitBack:
		return "back"
	case EmitBoth:
		return "both"
	}
	return "none"
}

// A surface material. Only the emissive properties are tracked.
type Material struct {
	Name string

	// Emitted radiance (already multiplied by any radiance scaler).
	Radiance types.Vec3

	// The faces that emit light.
	Sides EmissionSides
}

// Returns true if the material emits light.
func (m *Material) IsEmissive() bool {
	return m.Radiance.MaxComponent() > 0 && m.Sides != 0
}

// A triangle primitive in mesh-local space.
type Primitive struct {
	Vertices      [3]types.Vec3
	MaterialIndex int
}

// A mesh is constructed by a list of primitives.
type Mesh struct {
	Name       string
	Primitives []*Primitive
}

// Create a new mesh.
func NewMesh(name string) *Mesh {
	return &Mesh{
		Name:       name,
		Primitives: make([]*Primitive, 0),
	}
}

// A mesh instance positions a Mesh inside the scene.
type MeshInstance struct {
	MeshIndex uint32
	Transform types.Mat4
}

// A reference to an emitter. PrimID >= 0 selects a triangle of the mesh
// instance ObjectID; otherwise -PrimID-1 is the index of a scene light.
type EmitterRef struct {
	PrimID   int32
	ObjectID int32
}

// The scene contains the geometry and lights consumed by the light tree compiler.
type Scene struct {
	Meshes        []*Mesh
	MeshInstances []*MeshInstance
	Materials     []*Material
	Lights        []*Light
}

// Create a new scene.
func NewScene() *Scene {
	return &Scene{
		Meshes:        make([]*Mesh, 0),
		MeshInstances: make([]*MeshInstance, 0),
		Materials:     make([]*Material, 0),
		Lights:        make([]*Light, 0),
	}
}

// List all scene emitters: first the emissive triangles of every mesh
// instance, in instance and triangle order, followed by the scene lights.
func (sc *Scene) Emitters() []EmitterRef {
	refs := make([]EmitterRef, 0)
	for instIndex, inst := range sc.MeshInstances {
		for primIndex, prim := range sc.Meshes[inst.MeshIndex].Primitives {
			if !sc.Materials[prim.MaterialIndex].IsEmissive() {
				continue
			}
			refs = append(refs, EmitterRef{PrimID: int32(primIndex), ObjectID: int32(instIndex)})
		}
	}

	for lightIndex := range sc.Lights {
		refs = append(refs, EmitterRef{PrimID: -int32(lightIndex) - 1, ObjectID: int32(lightIndex)})
	}

	return refs
}

// Get the world-space vertices of a mesh instance triangle.
func (sc *Scene) TriangleVertices(objectID, primID int) [3]types.Vec3 {
	inst := sc.MeshInstances[objectID]
	prim := sc.Meshes[inst.MeshIndex].Primitives[primID]

	var out [3]types.Vec3
	for index, v := range prim.Vertices {
		out[index] = types.TransformPoint(inst.Transform, v)
	}
	return out
}

// Get the emitted radiance and emitting faces of a mesh instance triangle.
func (sc *Scene) TriangleEmission(objectID, primID int) (types.Vec3, EmissionSides) {
	inst := sc.MeshInstances[objectID]
	mat := sc.Materials[sc.Meshes[inst.MeshIndex].Primitives[primID].MaterialIndex]
	return mat.Radiance, mat.Sides
}

// Get a scene light by index.
func (sc *Scene) Light(index int) *Light {
	return sc.Lights[index]
}

// Build a tabular representation of the scene emitters.
func (sc *Scene) Stats() string {
	emissiveTris := 0
	for _, inst := range sc.MeshInstances {
		for _, prim := range sc.Meshes[inst.MeshIndex].Primitives {
			if sc.Materials[prim.MaterialIndex].IsEmissive() {
				emissiveTris++
			}
		}
	}

	emissiveMats := 0
	for _, mat := range sc.Materials {
		if mat.IsEmissive() {
			emissiveMats++
		}
	}

	lightsByType := make(map[LightType]int)
	for _, light := range sc.Lights {
		lightsByType[light.Type]++
	}

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Asset Type", "Asset", "Count"})
	table.Append([]string{"Geometry", "Meshes", fmt.Sprint(len(sc.Meshes))})
	table.Append([]string{"", "Mesh instances", fmt.Sprint(len(sc.MeshInstances))})
	table.Append([]string{"", "Emissive triangles", fmt.Sprint(emissiveTris)})
	table.Append([]string{" ", " ", " "})
	table.Append([]string{"Materials", "Total", fmt.Sprint(len(sc.Materials))})
	table.Append([]string{"", "Emissive", fmt.Sprint(emissiveMats)})
	table.Append([]string{" ", " ", " "})
	table.Append([]string{"Lights", PointLight.String(), fmt.Sprint(lightsByType[PointLight])})
	table.Append([]string{"", SpotLight.String(), fmt.Sprint(lightsByType[SpotLight])})
	table.Append([]string{"", AreaLight.String(), fmt.Sprint(lightsByType[AreaLight])})
	table.SetFooter([]string{"Emitters", " ", fmt.Sprint(emissiveTris + len(sc.Lights))})

	table.Render()
	return buf.String()
}
