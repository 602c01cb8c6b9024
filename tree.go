package kdforest

// node is the 8-byte packed tree node.
//
// There is no left link: the tree is laid out in depth-first preorder, so an
// internal node at index i always has its left child at i+1. The right-child
// index is therefore always strictly greater than the parent's own index.
type node struct {
	// index carries the leaf flag in its top bit. For internal nodes the
	// low 31 bits are the right-child node index; for leaves they are the
	// begin index of the node's association range.
	index uint32
	// data holds the split dimension (byte 0) and split value (byte 1) for
	// internal nodes, or the end index of the association range for leaves.
	data uint32
}

const leafFlag = 1 << 31

func makeLeaf(begin, end uint32) node {
	return node{index: begin | leafFlag, data: end}
}

func makeInternal(right uint32, dim, val byte) node {
	return node{index: right, data: uint32(dim) | uint32(val)<<8}
}

func (n node) isLeaf() bool   { return n.index&leafFlag != 0 }
func (n node) right() uint32  { return n.index }
func (n node) begin() uint32  { return n.index &^ leafFlag }
func (n node) end() uint32    { return n.data }
func (n node) splitDim() byte { return byte(n.data) }
func (n node) splitVal() byte { return byte(n.data >> 8) }

// KDTree is one immutable randomized KD-tree over a shared descriptor slice.
// Node 0 is always the root. The tree owns its node, bounding-box and
// association arrays but holds only a non-owning view of the descriptors,
// which must outlive it.
type KDTree struct {
	nodes       []node
	boxes       []BoundingBox // 1:1 with nodes
	list        []Association // leaf ranges index into this
	descriptors []Descriptor
}

// Root returns the root node index, always 0.
func (t *KDTree) Root() uint32 { return 0 }

// NodeCount returns the number of nodes in the tree.
func (t *KDTree) NodeCount() uint32 { return uint32(len(t.nodes)) }

func (t *KDTree) nodeAt(n uint32) node {
	invariant(n < uint32(len(t.nodes)), "node index %d out of range [0, %d)", n, len(t.nodes))
	return t.nodes[n]
}

// IsLeaf reports whether node n is a leaf.
func (t *KDTree) IsLeaf(n uint32) bool { return t.nodeAt(n).isLeaf() }

// Left returns the left child index of internal node n. Panics on a leaf.
func (t *KDTree) Left(n uint32) uint32 {
	invariant(!t.nodeAt(n).isLeaf(), "Left called on leaf node %d", n)
	return n + 1
}

// Right returns the right child index of internal node n. Panics on a leaf.
func (t *KDTree) Right(n uint32) uint32 {
	nd := t.nodeAt(n)
	invariant(!nd.isLeaf(), "Right called on leaf node %d", n)
	return nd.right()
}

// SplitDim returns the split dimension (0-127) of internal node n.
// Panics on a leaf.
func (t *KDTree) SplitDim(n uint32) byte {
	nd := t.nodeAt(n)
	invariant(!nd.isLeaf(), "SplitDim called on leaf node %d", n)
	return nd.splitDim()
}

// SplitVal returns the split value (0-255) of internal node n.
// Panics on a leaf.
func (t *KDTree) SplitVal(n uint32) byte {
	nd := t.nodeAt(n)
	invariant(!nd.isLeaf(), "SplitVal called on leaf node %d", n)
	return nd.splitVal()
}

// BB returns the bounding box of node n. Valid for leaves and internal nodes.
func (t *KDTree) BB(n uint32) *BoundingBox {
	invariant(n < uint32(len(t.boxes)), "node index %d out of range [0, %d)", n, len(t.boxes))
	return &t.boxes[n]
}

// Leaf returns the [begin, end) association range of leaf node n.
// Panics on an internal node.
func (t *KDTree) Leaf(n uint32) (begin, end uint32) {
	nd := t.nodeAt(n)
	invariant(nd.isLeaf(), "Leaf called on internal node %d", n)
	invariant(nd.end() <= uint32(len(t.list)), "leaf node %d range end %d exceeds list length %d", n, nd.end(), len(t.list))
	return nd.begin(), nd.end()
}

// Associations returns the tree's reordered association list. Leaf ranges
// returned by Leaf index into it. Callers must not modify it.
func (t *KDTree) Associations() []Association { return t.list }

// Descriptors returns the shared descriptor slice the tree was built over.
func (t *KDTree) Descriptors() []Descriptor { return t.descriptors }

// DescriptorCount returns the number of indexed descriptors.
func (t *KDTree) DescriptorCount() int { return len(t.list) }
