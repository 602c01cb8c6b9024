package kdforest

import "math/rand"

// splitDimensionCount is how many of the widest-spread dimensions are
// considered when picking a split dimension. The deterministic spread ranking
// plus the uniform random pick among these near-ties is what diversifies the
// trees of a forest.
const splitDimensionCount = 5

// Build constructs one KD-tree over descriptors. imageIndexes optionally maps
// each descriptor to its source image (nil means all descriptors belong to
// image 0) and must have the same length as descriptors when present.
//
// The descriptor slice is referenced, not copied, and must remain valid and
// unmodified for the lifetime of the tree. seed feeds the tree's private
// random stream: identical seed and input reproduce the identical tree.
func Build(descriptors []Descriptor, imageIndexes []uint16, leafSize int, seed int64) (*KDTree, error) {
	if len(descriptors) == 0 {
		return nil, ErrNoDescriptors
	}
	if leafSize < 1 {
		return nil, ErrZeroLeafSize
	}
	invariant(imageIndexes == nil || len(imageIndexes) == len(descriptors),
		"imageIndexes length %d does not match descriptor count %d", len(imageIndexes), len(descriptors))

	n := len(descriptors)
	// Every split strictly shrinks both sides, so a tree over n descriptors
	// has at most 2*ceil(n/leafSize)-1 nodes in the non-degenerate case.
	capHint := 2*((n+leafSize-1)/leafSize) - 1

	b := &builder{
		descriptors: descriptors,
		list:        makeAssociations(n, imageIndexes),
		leafSize:    uint32(leafSize),
		rng:         rand.New(rand.NewSource(seed)),
		nodes:       make([]node, 0, capHint),
		boxes:       make([]BoundingBox, 0, capHint),
	}
	b.build(0, uint32(n))

	return &KDTree{
		nodes:       b.nodes,
		boxes:       b.boxes,
		list:        b.list,
		descriptors: descriptors,
	}, nil
}

type builder struct {
	descriptors []Descriptor
	list        []Association
	leafSize    uint32
	rng         *rand.Rand
	nodes       []node
	boxes       []BoundingBox
}

// build creates the subtree over list[l:r) and returns its node index.
// Nodes are appended in preorder, so the left child always lands at the
// parent's index + 1 and needs no explicit link.
func (b *builder) build(l, r uint32) uint32 {
	self := uint32(len(b.nodes))
	b.nodes = append(b.nodes, node{})
	bb := b.rangeBox(l, r)
	b.boxes = append(b.boxes, bb)

	if r-l <= b.leafSize {
		b.nodes[self] = makeLeaf(l, r)
		return self
	}

	dim, ok := b.chooseSplitDim(&bb)
	if !ok {
		// All descriptors in the range are identical on every dimension;
		// further splitting cannot separate them.
		b.nodes[self] = makeLeaf(l, r)
		return self
	}

	// Midpoint of the chosen dimension's range. Since Min < Max here, both
	// partition sides are guaranteed non-empty.
	val := byte((uint32(bb.Min[dim]) + uint32(bb.Max[dim])) / 2)
	m := b.partition(l, r, dim, val)
	invariant(m > l && m < r, "partition of [%d,%d) on dim %d at %d produced empty side", l, r, dim, val)

	b.build(l, m)
	right := b.build(m, r)
	b.nodes[self] = makeInternal(right, dim, val)
	return self
}

// rangeBox returns the bounding box of the descriptors in list[l:r).
func (b *builder) rangeBox(l, r uint32) BoundingBox {
	bb := boxOf(&b.descriptors[b.list[l].GlobalIndex])
	for i := l + 1; i < r; i++ {
		bb.Extend(&b.descriptors[b.list[i].GlobalIndex])
	}
	return bb
}

// chooseSplitDim picks uniformly at random among the splitDimensionCount
// dimensions with the largest spread (max - min) in bb. Zero-spread
// dimensions are never chosen; ok is false when no dimension discriminates.
func (b *builder) chooseSplitDim(bb *BoundingBox) (dim byte, ok bool) {
	// Partial selection of the top dimensions by spread; ties keep the
	// lower dimension index so the ranking is deterministic.
	var top [splitDimensionCount]int // dimension indexes, best first
	count := 0
	for d := 0; d < DescriptorSize; d++ {
		spread := int(bb.Max[d]) - int(bb.Min[d])
		if spread == 0 {
			continue
		}
		pos := count
		if pos > splitDimensionCount-1 {
			pos = splitDimensionCount - 1
			if spreadOf(bb, top[pos]) >= spread {
				continue
			}
		}
		for pos > 0 && spreadOf(bb, top[pos-1]) < spread {
			top[pos] = top[pos-1]
			pos--
		}
		top[pos] = d
		if count < splitDimensionCount {
			count++
		}
	}
	if count == 0 {
		return 0, false
	}
	return byte(top[b.rng.Intn(count)]), true
}

func spreadOf(bb *BoundingBox, d int) int {
	return int(bb.Max[d]) - int(bb.Min[d])
}

// partition reorders list[l:r) in place so entries with value <= val on dim
// precede entries with value > val, returning the boundary index.
func (b *builder) partition(l, r uint32, dim, val byte) uint32 {
	i, j := l, r
	for i < j {
		for i < j && b.descriptors[b.list[i].GlobalIndex][dim] <= val {
			i++
		}
		for i < j && b.descriptors[b.list[j-1].GlobalIndex][dim] > val {
			j--
		}
		if i < j-1 {
			b.list[i], b.list[j-1] = b.list[j-1], b.list[i]
		}
	}
	return i
}
