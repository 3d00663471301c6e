package lighttree

import (
	"bytes"
	"fmt"
	"reflect"
	"strings"

	"github.com/olekukonko/tablewriter"
)

// Build a tabular representation of tree statistics.
func (t *Tree) Stats() string {
	maxLeafSize, leafPrims := 0, 0
	var triangles, lights int
	for index := range t.nodes {
		if !t.nodes[index].IsLeaf() {
			continue
		}
		_, count := t.nodes[index].Primitives()
		leafPrims += int(count)
		if int(count) > maxLeafSize {
			maxLeafSize = int(count)
		}
	}
	for index := range t.prims {
		if t.prims[index].IsTriangle() {
			triangles++
		} else {
			lights++
		}
	}

	var avgLeafSize float32
	if t.numLeaves > 0 {
		avgLeafSize = float32(leafPrims) / float32(t.numLeaves)
	}

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Section", "Property", "Value"})
	table.Append([]string{"Emitters", "Triangles", fmt.Sprint(triangles)})
	table.Append([]string{"", "Lights", fmt.Sprint(lights)})
	table.Append([]string{"", "Energy", fmt.Sprintf("%.3f", t.Energy())})
	table.Append([]string{" ", " ", " "})
	table.Append([]string{"Tree", "Nodes", fmt.Sprint(len(t.nodes))})
	table.Append([]string{"", "Leafs", fmt.Sprint(t.numLeaves)})
	table.Append([]string{"", "Depth", fmt.Sprint(t.depth)})
	table.Append([]string{"", "Max lights/leaf", fmt.Sprintf("%d (limit %d)", maxLeafSize, t.maxLightsInLeaf)})
	table.Append([]string{"", "Avg lights/leaf", fmt.Sprintf("%.2f", avgLeafSize)})
	table.Append([]string{" ", " ", " "})
	table.Append([]string{"Memory", "Nodes", fmtSize(t.nodes)})
	table.Append([]string{"", "Primitives", fmtSize(t.prims)})
	table.SetFooter([]string{"Total", " ", strings.TrimLeft(fmtSize(t.nodes, t.prims), " ")})

	table.Render()
	return buf.String()
}

// Sum the total space used by a set of slices and return back a formatted
// value with the appropriate byte/kb/mb unit.
func fmtSize(items ...interface{}) string {
	var totalBytes float32 = 0.0
	for _, item := range items {
		v := reflect.ValueOf(item)
		if v.Len() == 0 {
			continue
		}

		totalBytes += float32(int(v.Type().Elem().Size()) * v.Len())
	}

	if totalBytes < 1e3 {
		return fmt.Sprintf("%3d bytes", int(totalBytes))
	} else if totalBytes < 1e6 {
		return fmt.Sprintf("%3.1f kb", totalBytes/1e3)
	}
	return fmt.Sprintf("%5.1f mb", totalBytes/1e6)
}
