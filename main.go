package main

import (
	"os"

	"github.com/achilleasa/lighttree/cmd"
	"github.com/achilleasa/lighttree/log"
	"github.com/urfave/cli"
)

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "lighttree"
	app.Usage = "build light trees for many-light sampling"
	app.Version = "0.0.1"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
		cli.StringFlag{
			Name:  "log-level",
			Usage: "set the log level (debug, info, notice, warning, error)",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "compile",
			Usage: "compile the emitters of a scene into a light tree",
			Description: `
Parse a scene definition from a wavefront obj file, collect its emissive
triangles and lights and organize them into a light tree using the surface
area orientation heuristic.

The flattened tree nodes and the reordered emitter list are written to a zip
archive which can be inspected with the info command.`,
			ArgsUsage: "scene_file1.obj scene_file2.obj ...",
			Flags: []cli.Flag{
				cli.UintFlag{
					Name:  "max-leaf-lights",
					Value: 1,
					Usage: "max number of emitters per tree leaf",
				},
				cli.IntFlag{
					Name:  "max-depth",
					Value: 32,
					Usage: "max tree depth (up to 32)",
				},
				cli.IntFlag{
					Name:  "parallel-threshold",
					Value: 0,
					Usage: "build subtrees with at least this many emitters in parallel; 0 disables parallel builds",
				},
				cli.StringFlag{
					Name:  "out, o",
					Usage: "archive filename; defaults to the scene filename with a .zip extension",
				},
			},
			Action: cmd.CompileScene,
		},
		{
			Name:      "info",
			Usage:     "display information about a compiled light tree",
			ArgsUsage: "tree.zip",
			Flags: []cli.Flag{
				cli.BoolFlag{
					Name:  "nodes",
					Usage: "list all tree nodes",
				},
			},
			Action: cmd.ShowTreeInfo,
		},
		{
			Name:  "export",
			Usage: "export the packed node buffer of a compiled light tree",
			Description: `
Write the tree nodes in their 64-byte little-endian GPU layout so they can be
uploaded to a storage buffer as-is.`,
			ArgsUsage: "tree.zip",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "out, o",
					Usage: "output filename; defaults to the archive filename with a .bin extension",
				},
			},
			Action: cmd.ExportNodes,
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.New("lighttree").Error(err.Error())
		os.Exit(1)
	}
}
