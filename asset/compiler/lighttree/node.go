package lighttree

import (
	"fmt"
	"sync/atomic"

	"github.com/achilleasa/lighttree/types"
)

const (
	nodeFlagLeaf uint32 = 1 << iota

	nodeDepthShift = 8
	noChild        = int32(-1)
)

// A mutable tree node used while building the tree.
type buildNode struct {
	bbox   types.BBox
	bcone  OrientationBounds
	energy float32

	bitTrail uint32
	depth    uint32

	// Leaf nodes cover the primitives in [firstPrimIndex, firstPrimIndex+numLights)
	firstPrimIndex int32
	numLights      int32

	// Interior nodes always have two children; leaves have none.
	children [2]int32
	isLeaf   bool
}

func (n *buildNode) initLeaf(bbox types.BBox, bcone OrientationBounds, energy float32, firstPrimIndex, numLights int32) {
	n.bbox = bbox
	n.bcone = bcone
	n.energy = energy
	n.firstPrimIndex = firstPrimIndex
	n.numLights = numLights
	n.children = [2]int32{noChild, noChild}
	n.isLeaf = true
}

func (n *buildNode) initInterior(arena *nodeArena, left, right int32) {
	l, r := arena.get(left), arena.get(right)
	n.bbox = l.bbox.Grow(r.bbox)
	n.bcone = Merge(l.bcone, r.bcone)
	n.energy = l.energy + r.energy
	n.firstPrimIndex = -1
	n.numLights = 0
	n.children = [2]int32{left, right}
	n.isLeaf = false
}

// A fixed-capacity node store. Slots are claimed atomically so that
// independent subtrees can be built concurrently.
type nodeArena struct {
	nodes []buildNode
	used  int32
}

// A binary tree with n leaves has at most 2n-1 nodes.
func newNodeArena(numPrims int) *nodeArena {
	capacity := 2*numPrims - 1
	if capacity < 0 {
		capacity = 0
	}
	return &nodeArena{nodes: make([]buildNode, capacity)}
}

func (a *nodeArena) alloc() int32 {
	index := atomic.AddInt32(&a.used, 1) - 1
	if int(index) >= len(a.nodes) {
		panic(fmt.Sprintf("lighttree: node arena exhausted (capacity %d)", len(a.nodes)))
	}
	return index
}

func (a *nodeArena) get(index int32) *buildNode {
	return &a.nodes[index]
}

func (a *nodeArena) len() int {
	return int(atomic.LoadInt32(&a.used))
}

// A flattened light tree node. Nodes are stored in pre-order: the first child
// of an interior node always follows its parent. The struct layout matches
// the 64-byte encoding produced by MarshalBinary.
type PackedNode struct {
	Min    types.Vec3
	Energy float32

	Max types.Vec3

	// First primitive index for leaves; second child index for interior nodes.
	Data int32

	Axis   types.Vec3
	ThetaO float32
	ThetaE float32

	// Number of primitives covered by a leaf; 0 for interior nodes.
	NumLights uint32

	// Bit 0 is set for leaves; the node depth is stored from bit 8 onwards.
	Flags uint32

	// The path from the root to this node, one bit per level (0 = left,
	// 1 = right) with the deepest level in the least significant bit. The
	// root has an empty trail; use Depth() to tell the trail length.
	BitTrail uint32
}

// Get the node bounding box.
func (n *PackedNode) BBox() types.BBox {
	return types.BBox{Min: n.Min, Max: n.Max}
}

// Get the node orientation bounds.
func (n *PackedNode) BCone() OrientationBounds {
	return OrientationBounds{Axis: n.Axis, ThetaO: n.ThetaO, ThetaE: n.ThetaE}
}

// Returns true if this is a leaf node.
func (n *PackedNode) IsLeaf() bool {
	return n.Flags&nodeFlagLeaf == nodeFlagLeaf
}

// Get the depth of this node; the root is at depth 0.
func (n *PackedNode) Depth() uint32 {
	return n.Flags >> nodeDepthShift
}

// Mark this node as a leaf that covers count primitives starting at first.
func (n *PackedNode) SetPrimitives(first, count uint32) {
	n.Data = int32(first)
	n.NumLights = count
	n.Flags |= nodeFlagLeaf
}

// Get the first primitive index and primitive count of a leaf node.
func (n *PackedNode) Primitives() (first, count uint32) {
	if !n.IsLeaf() {
		panic("lighttree: Primitives() called on interior node")
	}
	return uint32(n.Data), n.NumLights
}

// Mark this node as an interior node whose right child is stored at index.
func (n *PackedNode) SetSecondChild(index uint32) {
	n.Data = int32(index)
	n.NumLights = 0
	n.Flags &^= nodeFlagLeaf
}

// Get the index of the right child of an interior node. The left child is
// always stored right after its parent.
func (n *PackedNode) SecondChild() uint32 {
	if n.IsLeaf() {
		panic("lighttree: SecondChild() called on leaf node")
	}
	return uint32(n.Data)
}

func (n *PackedNode) setCommon(bn *buildNode) {
	n.Min = bn.bbox.Min
	n.Max = bn.bbox.Max
	n.Energy = bn.energy
	n.Axis = bn.bcone.Axis
	n.ThetaO = bn.bcone.ThetaO
	n.ThetaE = bn.bcone.ThetaE
	n.BitTrail = bn.bitTrail
	n.Flags = (n.Flags & nodeFlagLeaf) | bn.depth<<nodeDepthShift
}
