package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/achilleasa/lighttree/asset/archive"
	"github.com/achilleasa/lighttree/asset/compiler/lighttree"
	"github.com/urfave/cli"
)

const testScene = `
v 0 0 0
v 1 0 0
v 0 1 0
v 5 0 0
v 6 0 0
v 5 1 0

mtllib lamps.mtl
o lamps
usemtl lamp
f 1 2 3
f 4 5 6

light point 0 10 0 1 1 1 0.1
light spot 10 10 0 0 -1 0 1 1 1 0.1 45
`

const testMaterials = `
newmtl lamp
Ke 1 1 1
`

func testApp() *cli.App {
	app := cli.NewApp()
	app.Flags = []cli.Flag{
		cli.BoolFlag{Name: "v"},
		cli.BoolFlag{Name: "vv"},
		cli.StringFlag{Name: "log-level"},
	}
	app.Commands = []cli.Command{
		{
			Name:   "compile",
			Action: CompileScene,
			Flags: []cli.Flag{
				cli.UintFlag{Name: "max-leaf-lights", Value: 1},
				cli.IntFlag{Name: "max-depth", Value: 32},
				cli.IntFlag{Name: "parallel-threshold"},
				cli.StringFlag{Name: "out, o"},
			},
		},
		{
			Name:   "info",
			Action: ShowTreeInfo,
			Flags:  []cli.Flag{cli.BoolFlag{Name: "nodes"}},
		},
		{
			Name:   "export",
			Action: ExportNodes,
			Flags:  []cli.Flag{cli.StringFlag{Name: "out, o"}},
		},
	}
	return app
}

func TestCompileInfoExport(t *testing.T) {
	dir := t.TempDir()
	sceneFile := filepath.Join(dir, "lamps.obj")
	if err := os.WriteFile(sceneFile, []byte(testScene), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "lamps.mtl"), []byte(testMaterials), 0644); err != nil {
		t.Fatal(err)
	}

	app := testApp()
	if err := app.Run([]string{"lighttree", "--log-level", "warning", "compile", "--max-leaf-lights", "2", sceneFile}); err != nil {
		t.Fatal(err)
	}

	zipFile := filepath.Join(dir, "lamps.zip")
	tree, manifest, err := archive.ReadTree(zipFile)
	if err != nil {
		t.Fatal(err)
	}
	if manifest.NumPrims != 4 {
		t.Fatalf("expected 4 emitters; got %d", manifest.NumPrims)
	}
	if tree.MaxLightsInLeaf() != 2 {
		t.Fatalf("expected max leaf size 2; got %d", tree.MaxLightsInLeaf())
	}

	if err = app.Run([]string{"lighttree", "info", "--nodes", zipFile}); err != nil {
		t.Fatal(err)
	}

	if err = app.Run([]string{"lighttree", "export", zipFile}); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(filepath.Join(dir, "lamps.bin"))
	if err != nil {
		t.Fatal(err)
	}
	if exp := int64(len(tree.Nodes()) * lighttree.PackedNodeSize); info.Size() != exp {
		t.Fatalf("expected exported buffer to be %d bytes; got %d", exp, info.Size())
	}
}

func TestCommandErrors(t *testing.T) {
	type spec struct {
		args []string
	}
	specs := []spec{
		{[]string{"lighttree", "compile"}},
		{[]string{"lighttree", "compile", "--out", "a.zip", "a.obj", "b.obj"}},
		{[]string{"lighttree", "compile", "missing.obj"}},
		{[]string{"lighttree", "info"}},
		{[]string{"lighttree", "info", "tree.bin"}},
		{[]string{"lighttree", "export", "missing.zip"}},
		{[]string{"lighttree", "--log-level", "loud", "info", "tree.zip"}},
	}

	app := testApp()
	for index, s := range specs {
		if err := app.Run(s.args); err == nil {
			t.Fatalf("[spec %d] expected command %v to fail", index, s.args)
		}
	}
}
