package reader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/achilleasa/lighttree/asset"
	"github.com/achilleasa/lighttree/asset/scene"
	"github.com/achilleasa/lighttree/types"
	"github.com/chewxy/math32"
)

const testMtl = `
# emissive materials
newmtl lamp
Ke 1 2 3
KeScaler 2

newmtl panel
include lamp
emit_sides both

newmtl wall
`

const testObj = `
mtllib materials.mtl

v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0

o lamp
usemtl lamp
f 1 2 3

o panel
usemtl panel
f 1/1 2/2 3/3 4/4

o wall
usemtl wall
f -4//1 -3//1 -2//1

instance lamp 0 0 10 0 0 0 1 1 1
instance panel 0 0 0 0 0 90 2 2 2

light point 1 2 3 4 4 4 0.5
light spot 0 5 0 0 -1 0 1 1 1 0.1 60
light area 0 9 0 0 -1 0 1 0 0 2 2 2 1 2 180
`

func writeTestFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestReadWavefrontScene(t *testing.T) {
	dir := writeTestFiles(t, map[string]string{"scene.obj": testObj, "materials.mtl": testMtl})

	sc, err := ReadScene(filepath.Join(dir, "scene.obj"))
	if err != nil {
		t.Fatal(err)
	}

	if len(sc.Meshes) != 3 {
		t.Fatalf("expected 3 meshes; got %d", len(sc.Meshes))
	}
	if got := len(sc.Meshes[1].Primitives); got != 2 {
		t.Fatalf("expected quad face to be split into 2 triangles; got %d", got)
	}

	if len(sc.Materials) != 3 {
		t.Fatalf("expected 3 materials; got %d", len(sc.Materials))
	}
	lamp, panel, wall := sc.Materials[0], sc.Materials[1], sc.Materials[2]
	if lamp.Radiance != (types.Vec3{2, 4, 6}) || lamp.Sides != scene.EmitFront {
		t.Fatalf("unexpected lamp material %+v", lamp)
	}
	if panel.Radiance != lamp.Radiance || panel.Sides != scene.EmitBoth || panel.Name != "panel" {
		t.Fatalf("unexpected panel material %+v", panel)
	}
	if wall.IsEmissive() {
		t.Fatalf("expected wall material not to be emissive")
	}

	if len(sc.MeshInstances) != 2 {
		t.Fatalf("expected 2 mesh instances; got %d", len(sc.MeshInstances))
	}

	// lamp instance is translated
	verts := sc.TriangleVertices(0, 0)
	if verts[1] != (types.Vec3{1, 0, 10}) {
		t.Fatalf("expected translated vertex (1, 0, 10); got %v", verts[1])
	}

	// panel instance is rotated 90 degrees around Z and scaled by 2
	verts = sc.TriangleVertices(1, 0)
	exp := types.Vec3{0, 2, 0}
	for axis := 0; axis < 3; axis++ {
		if math32.Abs(verts[1][axis]-exp[axis]) > 1e-5 {
			t.Fatalf("expected rotated vertex %v; got %v", exp, verts[1])
		}
	}

	if len(sc.Lights) != 3 {
		t.Fatalf("expected 3 lights; got %d", len(sc.Lights))
	}
	expTypes := []scene.LightType{scene.PointLight, scene.SpotLight, scene.AreaLight}
	for index, expType := range expTypes {
		if sc.Lights[index].Type != expType {
			t.Fatalf("[light %d] expected type %s; got %s", index, expType, sc.Lights[index].Type)
		}
	}
	if math32.Abs(sc.Lights[1].SpotAngle-math32.Pi/3) > 1e-5 {
		t.Fatalf("expected spot angle to be converted to radians; got %f", sc.Lights[1].SpotAngle)
	}
	if math32.Abs(sc.Lights[2].Spread-math32.Pi) > 1e-5 {
		t.Fatalf("expected area light spread to be converted to radians; got %f", sc.Lights[2].Spread)
	}

	// 1 lamp triangle + 2 panel triangles + 3 lights
	if got := len(sc.Emitters()); got != 6 {
		t.Fatalf("expected 6 emitters; got %d", got)
	}
}

func TestReadWavefrontErrors(t *testing.T) {
	type spec struct {
		obj    string
		expErr string
	}
	specs := []spec{
		{"v 0 0", `expected 3 arguments`},
		{"v 0 0 0\nf 1 2 3", `index out of bounds`},
		{"v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2/2 3", `expected each face argument to contain 1 indices`},
		{"usemtl missing", `undefined material with name "missing"`},
		{"instance missing 0 0 0 0 0 0 1 1 1", `unknown mesh with name "missing"`},
		{"instance a 0 0", `expected 10 arguments`},
		{"light laser 0 0 0", `unsupported light type "laser"`},
		{"light point 0 0 0 1 1 1", `expected 7 arguments; got 6`},
		{"light spot 0 0 0 0 0 0 1 1 1 1 45", `spot light direction must not be zero`},
		{"light area 0 0 0 0 1 0 0 1 0 1 1 1 1 1 180", `not parallel`},
		{"mtllib missing.mtl", `referenced from`},
	}

	for index, s := range specs {
		res := asset.NewResourceFromStream("test.obj", strings.NewReader(s.obj))
		_, err := newWavefrontReader().Read(res)
		if err == nil {
			t.Fatalf("[spec %d] expected an error", index)
		}
		if !strings.Contains(err.Error(), s.expErr) {
			t.Fatalf("[spec %d] expected error to contain %q; got %q", index, s.expErr, err.Error())
		}
	}
}

func TestReadMaterialErrors(t *testing.T) {
	type spec struct {
		mtl    string
		expErr string
	}
	specs := []spec{
		{"Ke 1 1 1", `got "Ke" without a "newmtl"`},
		{"newmtl a\nnewmtl a", `material "a" already defined`},
		{"newmtl a\ninclude b", `could not include unknown material "b"`},
		{"newmtl a\nemit_sides sideways", `unsupported value "sideways"`},
		{"newmtl a\nKeScaler", `expected 1 argument`},
	}

	for index, s := range specs {
		dir := writeTestFiles(t, map[string]string{"scene.obj": "mtllib materials.mtl\n", "materials.mtl": s.mtl})
		_, err := ReadScene(filepath.Join(dir, "scene.obj"))
		if err == nil {
			t.Fatalf("[spec %d] expected an error", index)
		}
		if !strings.Contains(err.Error(), s.expErr) {
			t.Fatalf("[spec %d] expected error to contain %q; got %q", index, s.expErr, err.Error())
		}
		if !strings.Contains(err.Error(), "referenced from") {
			t.Fatalf("[spec %d] expected error to include the include stack; got %q", index, err.Error())
		}
	}
}

func TestDefaultMeshInstances(t *testing.T) {
	obj := "v 0 0 0\nv 1 0 0\nv 0 1 0\no a\nf 1 2 3\no empty\no b\nf 1 2 3\n"
	sc, err := newWavefrontReader().Read(asset.NewResourceFromStream("test.obj", strings.NewReader(obj)))
	if err != nil {
		t.Fatal(err)
	}

	if len(sc.Meshes) != 2 {
		t.Fatalf("expected empty mesh to be dropped; got %d meshes", len(sc.Meshes))
	}
	if len(sc.MeshInstances) != 2 {
		t.Fatalf("expected a default instance per mesh; got %d", len(sc.MeshInstances))
	}
	if len(sc.Emitters()) != 0 {
		t.Fatalf("expected default material not to be emissive")
	}
}

func TestUnsupportedSceneFormat(t *testing.T) {
	dir := writeTestFiles(t, map[string]string{"scene.fbx": ""})
	if _, err := ReadScene(filepath.Join(dir, "scene.fbx")); err == nil {
		t.Fatal("expected an error for an unsupported scene format")
	}
}
