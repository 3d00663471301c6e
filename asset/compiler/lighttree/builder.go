package lighttree

import (
	"fmt"
	"sync"

	"github.com/achilleasa/lighttree/types"
	"github.com/chewxy/math32"
)

const (
	// Number of buckets evaluated per axis by the SAOH split search.
	numBuckets = 12

	// The bit trail stores one bit per level so the tree cannot be deeper
	// than its width.
	maxTreeDepth = 32
)

// Aggregated emitter data for a bucket or a range of buckets.
type bucketInfo struct {
	count  int
	energy float32
	bbox   types.BBox
	bcone  OrientationBounds
}

func emptyBucket() bucketInfo {
	return bucketInfo{
		bbox:  types.EmptyBBox(),
		bcone: EmptyOrientationBounds,
	}
}

func (bi bucketInfo) add(prim *Primitive) bucketInfo {
	return bucketInfo{
		count:  bi.count + 1,
		energy: bi.energy + prim.Energy,
		bbox:   bi.bbox.Grow(prim.BBox),
		bcone:  Merge(bi.bcone, prim.BCone),
	}
}

func (bi bucketInfo) merge(other bucketInfo) bucketInfo {
	return bucketInfo{
		count:  bi.count + other.count,
		energy: bi.energy + other.energy,
		bbox:   bi.bbox.Grow(other.bbox),
		bcone:  Merge(bi.bcone, other.bcone),
	}
}

// The cost of the emitters in this bucket: energy * area * orientation measure.
func (bi bucketInfo) cost() float32 {
	return bi.energy * bi.bbox.Area() * bi.bcone.Measure()
}

type builder struct {
	prims []Primitive
	arena *nodeArena

	maxLightsInLeaf   int
	maxDepth          int
	parallelThreshold int
}

// Build the subtree for prims[start:end] and return the arena index of its
// root. The primitives in the range are reordered in place so that every
// leaf covers a contiguous slice.
func (b *builder) recursiveBuild(start, end int, bitTrail uint32, depth int) int32 {
	if start > end {
		panic(fmt.Sprintf("lighttree: invalid build range [%d, %d)", start, end))
	}

	nodeIndex := b.arena.alloc()
	node := b.arena.get(nodeIndex)
	node.bitTrail = bitTrail
	node.depth = uint32(depth)

	bbox := types.EmptyBBox()
	centroidBounds := types.EmptyBBox()
	bcone := EmptyOrientationBounds
	var energy float32
	for index := start; index < end; index++ {
		prim := &b.prims[index]
		bbox = bbox.Grow(prim.BBox)
		centroidBounds = centroidBounds.GrowPoint(prim.Centroid)
		bcone = Merge(bcone, prim.BCone)
		energy += prim.Energy
	}

	numPrims := end - start
	if numPrims <= 1 || depth >= b.maxDepth {
		node.initLeaf(bbox, bcone, energy, int32(start), int32(numPrims))
		return nodeIndex
	}

	minCost := float32(math32.MaxFloat32)
	minDim, minBucket := -1, 0
	if centroidBounds.Size().MaxComponent() > 0 {
		minCost, minDim, minBucket = b.minSplitSAOH(centroidBounds, start, end, bbox, bcone)
	}

	// Keep the range in a single leaf if it fits and no split is cheaper.
	if numPrims <= b.maxLightsInLeaf && !(minCost < energy) {
		node.initLeaf(bbox, bcone, energy, int32(start), int32(numPrims))
		return nodeIndex
	}

	middle := start + numPrims/2
	if minDim != -1 {
		split := start + stablePartition(b.prims[start:end], func(prim *Primitive) bool {
			return bucketIndex(prim.Centroid, centroidBounds, minDim) <= minBucket
		})
		if split != start && split != end {
			middle = split
		}
	}

	var left, right int32
	if b.parallelThreshold > 0 && numPrims >= b.parallelThreshold {
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			left = b.recursiveBuild(start, middle, bitTrail*2, depth+1)
		}()
		right = b.recursiveBuild(middle, end, bitTrail*2+1, depth+1)
		wg.Wait()
	} else {
		left = b.recursiveBuild(start, middle, bitTrail*2, depth+1)
		right = b.recursiveBuild(middle, end, bitTrail*2+1, depth+1)
	}

	node.initInterior(b.arena, left, right)
	return nodeIndex
}

// Find the cheapest bucket split of prims[start:end] using the surface area
// orientation heuristic (SAOH). The cost of a split is:
//
// reg * (E_l * A_l * M_l + E_r * A_r * M_r) / (A * M)
//
// where E is the energy, A the bbox surface area and M the orientation
// measure of each side. The denominator (the parent's area and measure)
// makes the cost comparable to the parent's energy. reg penalizes splits
// along the thin axes of the centroid bounds.
//
// Returns the minimum cost and the split dimension and bucket. The
// dimension is -1 if no split could be evaluated.
func (b *builder) minSplitSAOH(centroidBounds types.BBox, start, end int, bbox types.BBox, bcone OrientationBounds) (minCost float32, minDim, minBucket int) {
	minCost = math32.MaxFloat32
	minDim = -1

	extent := centroidBounds.Size()
	maxExtent := extent.MaxComponent()

	norm := bbox.Area() * bcone.Measure()
	if !(norm > 0) {
		norm = 1
	}

	for dim := 0; dim < 3; dim++ {
		if extent[dim] == 0 {
			continue
		}

		var buckets [numBuckets]bucketInfo
		for index := range buckets {
			buckets[index] = emptyBucket()
		}
		for index := start; index < end; index++ {
			prim := &b.prims[index]
			bucket := bucketIndex(prim.Centroid, centroidBounds, dim)
			buckets[bucket] = buckets[bucket].add(prim)
		}

		// Sweep from both ends; split k separates buckets [0, k] from [k+1, numBuckets)
		var leftSum, rightSum [numBuckets - 1]bucketInfo
		acc := emptyBucket()
		for split := 0; split < numBuckets-1; split++ {
			acc = acc.merge(buckets[split])
			leftSum[split] = acc
		}
		acc = emptyBucket()
		for split := numBuckets - 2; split >= 0; split-- {
			acc = acc.merge(buckets[split+1])
			rightSum[split] = acc
		}

		reg := maxExtent / extent[dim]
		for split := 0; split < numBuckets-1; split++ {
			if leftSum[split].count == 0 || rightSum[split].count == 0 {
				continue
			}

			cost := reg * (leftSum[split].cost() + rightSum[split].cost()) / norm
			if cost < minCost {
				minCost = cost
				minDim = dim
				minBucket = split
			}
		}
	}

	return minCost, minDim, minBucket
}

// Map a centroid to one of the numBuckets uniform buckets spanning the
// centroid bounds along dim.
func bucketIndex(centroid types.Vec3, centroidBounds types.BBox, dim int) int {
	extent := centroidBounds.Max[dim] - centroidBounds.Min[dim]
	if !(extent > 0) {
		return 0
	}

	bucket := int(float32(numBuckets) * (centroid[dim] - centroidBounds.Min[dim]) / extent)
	if bucket < 0 {
		return 0
	} else if bucket >= numBuckets {
		return numBuckets - 1
	}
	return bucket
}

// Reorder prims so that all items for which isLeft returns true come first
// while keeping the relative order within each group. Returns the number of
// items in the left group.
func stablePartition(prims []Primitive, isLeft func(*Primitive) bool) int {
	right := make([]Primitive, 0, len(prims))
	mid := 0
	for index := range prims {
		if isLeft(&prims[index]) {
			prims[mid] = prims[index]
			mid++
		} else {
			right = append(right, prims[index])
		}
	}
	copy(prims[mid:], right)
	return mid
}
