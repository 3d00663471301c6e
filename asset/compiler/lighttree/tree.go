package lighttree

import (
	"time"

	"github.com/achilleasa/lighttree/log"
)

// Options control the shape of the generated tree.
type Options struct {
	// The maximum number of primitives per leaf. Leaves may exceed this
	// limit only when MaxDepth is reached. A value of 0 is treated as 1.
	MaxLightsInLeaf uint32

	// The maximum tree depth. Values <= 0 or greater than 32 select 32.
	MaxDepth int

	// Build the subtrees of ranges with at least this many primitives in
	// parallel. A value of 0 selects a sequential build.
	ParallelThreshold int
}

func (opts Options) withDefaults() Options {
	if opts.MaxLightsInLeaf == 0 {
		opts.MaxLightsInLeaf = 1
	}
	if opts.MaxDepth <= 0 || opts.MaxDepth > maxTreeDepth {
		opts.MaxDepth = maxTreeDepth
	}
	if opts.ParallelThreshold < 0 {
		opts.ParallelThreshold = 0
	}
	return opts
}

// A Tree is a bounding volume hierarchy over scene emitters, flattened into
// a pre-order node list.
type Tree struct {
	logger log.Logger

	// Primitives reordered so that each leaf covers a contiguous range.
	prims []Primitive

	nodes []PackedNode

	maxLightsInLeaf uint32
	numLeaves       int
	depth           int
	buildTime       time.Duration
}

// Build a light tree for the given primitives. If prims is nil the
// primitives are collected from the scene. The input slice is not modified;
// each primitive of the tree records its input index in PrimNum.
func New(prims []Primitive, sc Scene, opts Options) *Tree {
	if prims == nil && sc != nil {
		prims = CollectPrimitives(sc)
	}
	opts = opts.withDefaults()

	t := &Tree{
		logger:          log.New("lighttree"),
		prims:           make([]Primitive, len(prims)),
		nodes:           make([]PackedNode, 0),
		maxLightsInLeaf: opts.MaxLightsInLeaf,
	}
	copy(t.prims, prims)

	if len(t.prims) == 0 {
		t.logger.Warning("no emitters found; generated an empty light tree")
		return t
	}

	for index := range t.prims {
		t.prims[index].PrimNum = int32(index)
	}

	start := time.Now()
	b := &builder{
		prims:             t.prims,
		arena:             newNodeArena(len(t.prims)),
		maxLightsInLeaf:   int(opts.MaxLightsInLeaf),
		maxDepth:          opts.MaxDepth,
		parallelThreshold: opts.ParallelThreshold,
	}
	root := b.recursiveBuild(0, len(t.prims), 0, 0)

	t.nodes = make([]PackedNode, b.arena.len())
	var offset uint32
	t.flatten(b.arena, root, &offset)
	t.buildTime = time.Since(start)

	t.logger.Debugf(
		"light tree build time: %d ms, emitters: %d, maxDepth: %d, nodes: %d, leafs: %d",
		t.buildTime.Nanoseconds()/1e6,
		len(t.prims), t.depth, len(t.nodes), t.numLeaves,
	)
	return t
}

// Build a light tree with the default depth limit and a sequential builder.
func Build(prims []Primitive, sc Scene, maxLightsInLeaf uint32) *Tree {
	return New(prims, sc, Options{MaxLightsInLeaf: maxLightsInLeaf})
}

// Create a tree from previously flattened nodes and their primitives.
func FromNodes(prims []Primitive, nodes []PackedNode, maxLightsInLeaf uint32) *Tree {
	t := &Tree{
		logger:          log.New("lighttree"),
		prims:           prims,
		nodes:           nodes,
		maxLightsInLeaf: maxLightsInLeaf,
	}
	for index := range nodes {
		if nodes[index].IsLeaf() {
			t.numLeaves++
		}
		if depth := int(nodes[index].Depth()); depth > t.depth {
			t.depth = depth
		}
	}
	return t
}

// Get the reordered primitive list.
func (t *Tree) Prims() []Primitive {
	return t.prims
}

// Get the flattened node list. The root, if any, is at index 0.
func (t *Tree) Nodes() []PackedNode {
	return t.nodes
}

// Get the number of leaf nodes.
func (t *Tree) NumLeaves() int {
	return t.numLeaves
}

// Get the depth of the deepest node.
func (t *Tree) Depth() int {
	return t.depth
}

// Get the leaf size limit the tree was built with.
func (t *Tree) MaxLightsInLeaf() uint32 {
	return t.maxLightsInLeaf
}

// Get the total emitted energy.
func (t *Tree) Energy() float32 {
	if len(t.nodes) == 0 {
		return 0
	}
	return t.nodes[0].Energy
}

// Convert the subtree rooted at arena node index to packed nodes starting at
// *offset. Returns the packed index of the subtree root.
func (t *Tree) flatten(arena *nodeArena, index int32, offset *uint32) uint32 {
	bn := arena.get(index)
	nodeIndex := *offset
	*offset++

	if depth := int(bn.depth); depth > t.depth {
		t.depth = depth
	}

	node := &t.nodes[nodeIndex]
	if bn.isLeaf {
		node.SetPrimitives(uint32(bn.firstPrimIndex), uint32(bn.numLights))
		node.setCommon(bn)
		t.numLeaves++
		return nodeIndex
	}

	// The left child must be flattened first so it lands right after its parent.
	t.flatten(arena, bn.children[0], offset)
	secondChild := t.flatten(arena, bn.children[1], offset)
	node.SetSecondChild(secondChild)
	node.setCommon(bn)
	return nodeIndex
}
