package compiler

import (
	"fmt"
	"time"

	"github.com/achilleasa/lighttree/asset/compiler/lighttree"
	"github.com/achilleasa/lighttree/asset/scene"
	"github.com/achilleasa/lighttree/log"
)

type sceneCompiler struct {
	scene  *scene.Scene
	opts   lighttree.Options
	logger log.Logger
}

// Compile the emitters of a scene into a light tree.
func Compile(sc *scene.Scene, opts lighttree.Options) (*lighttree.Tree, error) {
	compiler := &sceneCompiler{
		scene:  sc,
		opts:   opts,
		logger: log.New("scene compiler"),
	}

	start := time.Now()
	compiler.logger.Noticef("compiling light tree")

	err := compiler.validateScene()
	if err != nil {
		return nil, err
	}

	tree := compiler.buildLightTree()

	compiler.logger.Noticef("compiled light tree in %d ms", time.Since(start).Nanoseconds()/1e6)
	return tree, nil
}

// Ensure that all scene references are valid so that emitter lookups
// performed by the tree builder cannot fail.
func (sc *sceneCompiler) validateScene() error {
	if sc.scene == nil {
		return fmt.Errorf("compiler: nil scene")
	}

	for matIndex, mat := range sc.scene.Materials {
		if mat == nil {
			return fmt.Errorf("compiler: material %d is nil", matIndex)
		}
	}

	for meshIndex, mesh := range sc.scene.Meshes {
		if mesh == nil {
			return fmt.Errorf("compiler: mesh %d is nil", meshIndex)
		}
	}

	for instIndex, inst := range sc.scene.MeshInstances {
		if inst == nil {
			return fmt.Errorf("compiler: mesh instance %d is nil", instIndex)
		}
		if int(inst.MeshIndex) >= len(sc.scene.Meshes) {
			return fmt.Errorf("compiler: mesh instance %d references unknown mesh %d", instIndex, inst.MeshIndex)
		}
	}

	for _, mesh := range sc.scene.Meshes {
		for primIndex, prim := range mesh.Primitives {
			if prim == nil {
				return fmt.Errorf("compiler: primitive %d of mesh %q is nil", primIndex, mesh.Name)
			}
			if prim.MaterialIndex < 0 || prim.MaterialIndex >= len(sc.scene.Materials) {
				return fmt.Errorf("compiler: primitive %d of mesh %q references unknown material %d", primIndex, mesh.Name, prim.MaterialIndex)
			}
		}
	}

	for lightIndex, light := range sc.scene.Lights {
		if light == nil {
			return fmt.Errorf("compiler: light %d is nil", lightIndex)
		}
		switch light.Type {
		case scene.PointLight, scene.SpotLight, scene.AreaLight:
		default:
			return fmt.Errorf("compiler: light %d has unsupported type %d", lightIndex, light.Type)
		}
		if light.Radius < 0 || light.SizeU < 0 || light.SizeV < 0 {
			return fmt.Errorf("compiler: light %d has negative dimensions", lightIndex)
		}
	}

	return nil
}

func (sc *sceneCompiler) buildLightTree() *lighttree.Tree {
	start := time.Now()
	sc.logger.Notice("collecting emitters")

	prims := lighttree.CollectPrimitives(sc.scene)

	var numTriangles, numZeroEnergy int
	for index := range prims {
		if prims[index].IsTriangle() {
			numTriangles++
		}
		if prims[index].Energy == 0 {
			numZeroEnergy++
		}
	}
	sc.logger.Infof(
		"collected %d emitters (%d triangles, %d lights) in %d ms",
		len(prims), numTriangles, len(prims)-numTriangles, time.Since(start).Nanoseconds()/1e6,
	)
	if numZeroEnergy > 0 {
		sc.logger.Warningf("%d emitters do not emit any energy", numZeroEnergy)
	}

	tree := lighttree.New(prims, sc.scene, sc.opts)
	sc.logger.Infof("light tree contains %d nodes and %d leafs", len(tree.Nodes()), tree.NumLeaves())
	return tree
}
