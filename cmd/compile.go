package cmd

import (
	"errors"
	"strings"

	"github.com/achilleasa/lighttree/asset/archive"
	"github.com/achilleasa/lighttree/asset/compiler"
	"github.com/achilleasa/lighttree/asset/compiler/lighttree"
	"github.com/achilleasa/lighttree/asset/scene/reader"
	"github.com/urfave/cli"
)

// Compile the emitters of one or more scenes into light tree archives.
func CompileScene(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}

	if ctx.NArg() == 0 {
		return errors.New("missing scene file")
	}
	if ctx.String("out") != "" && ctx.NArg() > 1 {
		return errors.New("the out flag can only be used when compiling a single scene")
	}

	opts := lighttree.Options{
		MaxLightsInLeaf:   uint32(ctx.Uint("max-leaf-lights")),
		MaxDepth:          ctx.Int("max-depth"),
		ParallelThreshold: ctx.Int("parallel-threshold"),
	}

	for idx := 0; idx < ctx.NArg(); idx++ {
		sceneFile := ctx.Args().Get(idx)
		if !strings.HasSuffix(sceneFile, ".obj") {
			logger.Warningf("skipping unsupported file %s", sceneFile)
			continue
		}

		logger.Noticef("parsing scene: %s", sceneFile)
		sc, err := reader.ReadScene(sceneFile)
		if err != nil {
			return err
		}
		logger.Noticef("scene emitters:\n%s", sc.Stats())

		tree, err := compiler.Compile(sc, opts)
		if err != nil {
			return err
		}
		logger.Noticef("light tree information:\n%s", tree.Stats())

		zipFile := ctx.String("out")
		if zipFile == "" {
			zipFile = strings.TrimSuffix(sceneFile, ".obj") + ".zip"
		}
		if _, err = archive.WriteTree(tree, zipFile); err != nil {
			return err
		}
	}

	return nil
}
