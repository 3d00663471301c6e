package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/achilleasa/lighttree/asset/archive"
	"github.com/achilleasa/lighttree/asset/compiler/lighttree"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

func loadTree(ctx *cli.Context) (*lighttree.Tree, *archive.Manifest, error) {
	if ctx.NArg() != 1 {
		return nil, nil, errors.New("missing light tree zip file")
	}

	treeFile := ctx.Args().First()
	if !strings.HasSuffix(treeFile, ".zip") {
		return nil, nil, errors.New("only light tree files with a .zip extension are supported")
	}

	return archive.ReadTree(treeFile)
}

// Display compiled light tree info.
func ShowTreeInfo(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}

	tree, manifest, err := loadTree(ctx)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Property", "Value"})
	table.Append([]string{"Build ID", manifest.BuildID.String()})
	table.Append([]string{"Created", manifest.CreatedAt.Format("2006-01-02 15:04:05 MST")})
	table.Append([]string{"Format version", fmt.Sprint(manifest.Version)})
	table.Render()

	logger.Noticef("archive information:\n%s", buf.String())
	logger.Noticef("light tree information:\n%s", tree.Stats())

	if ctx.Bool("nodes") {
		logger.Noticef("light tree nodes:\n%s", nodeTable(tree))
	}
	return nil
}

// Export the packed node buffer of a compiled light tree.
func ExportNodes(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}

	tree, _, err := loadTree(ctx)
	if err != nil {
		return err
	}

	outFile := ctx.String("out")
	if outFile == "" {
		outFile = strings.TrimSuffix(ctx.Args().First(), ".zip") + ".bin"
	}

	f, err := os.Create(outFile)
	if err != nil {
		return err
	}
	defer f.Close()

	if err = lighttree.EncodeNodes(f, tree.Nodes()); err != nil {
		return err
	}

	logger.Noticef("exported %d nodes (%d bytes) to %s", len(tree.Nodes()), len(tree.Nodes())*lighttree.PackedNodeSize, outFile)
	return f.Close()
}

// List each node of the tree.
func nodeTable(tree *lighttree.Tree) string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Index", "Depth", "Bit trail", "Type", "Data", "Energy", "Cone (θo, θe)"})
	for index := range tree.Nodes() {
		node := &tree.Nodes()[index]

		nodeType, data := "interior", ""
		if node.IsLeaf() {
			first, count := node.Primitives()
			nodeType, data = "leaf", fmt.Sprintf("prims [%d, %d)", first, first+count)
		} else {
			data = fmt.Sprintf("right child %d", node.SecondChild())
		}

		table.Append([]string{
			fmt.Sprint(index),
			fmt.Sprint(node.Depth()),
			fmt.Sprintf("%b", node.BitTrail),
			nodeType,
			data,
			fmt.Sprintf("%.3f", node.Energy),
			fmt.Sprintf("%.3f, %.3f", node.ThetaO, node.ThetaE),
		})
	}
	table.Render()
	return buf.String()
}
