package kdforest

import "math"

// DescriptorSize is the byte length of a single feature descriptor.
const DescriptorSize = 128

// DescriptorAlign is the required alignment, in bytes, of descriptor storage.
// Vector-lane kernels read descriptors 32 bytes at a time; storage backed by
// OpenDescriptorFile is page-aligned and always satisfies this. Heap-allocated
// []Descriptor slices are handled by the portable kernels regardless.
const DescriptorAlign = 32

// Descriptor is a fixed 128-byte binary feature vector describing one image
// keypoint. Descriptors are immutable once indexed and are identified by
// their position in the caller-owned descriptor slice.
type Descriptor [DescriptorSize]byte

// BoundingBox is the component-wise min/max envelope of a set of descriptors
// in 128-dimensional byte space.
type BoundingBox struct {
	Min Descriptor
	Max Descriptor
}

// Union returns the smallest bounding box covering both a and b.
func Union(a, b BoundingBox) BoundingBox {
	var u BoundingBox
	for i := 0; i < DescriptorSize; i++ {
		u.Min[i] = minByte(a.Min[i], b.Min[i])
		u.Max[i] = maxByte(a.Max[i], b.Max[i])
	}
	return u
}

// Extend grows the box in place to cover d.
func (bb *BoundingBox) Extend(d *Descriptor) {
	for i := 0; i < DescriptorSize; i++ {
		bb.Min[i] = minByte(bb.Min[i], d[i])
		bb.Max[i] = maxByte(bb.Max[i], d[i])
	}
}

// Contains reports whether the box component-wise contains d.
func (bb *BoundingBox) Contains(d *Descriptor) bool {
	for i := 0; i < DescriptorSize; i++ {
		if d[i] < bb.Min[i] || d[i] > bb.Max[i] {
			return false
		}
	}
	return true
}

// ContainsBox reports whether the box component-wise contains inner.
func (bb *BoundingBox) ContainsBox(inner *BoundingBox) bool {
	for i := 0; i < DescriptorSize; i++ {
		if inner.Min[i] < bb.Min[i] || inner.Max[i] > bb.Max[i] {
			return false
		}
	}
	return true
}

// boxOf returns the bounding box of a single descriptor.
func boxOf(d *Descriptor) BoundingBox {
	return BoundingBox{Min: *d, Max: *d}
}

// Association links one slot of a tree's reordered leaf list back to a global
// descriptor and its source image. The same global descriptor may appear in
// every tree of a forest, but at most once within a single tree's list.
type Association struct {
	GlobalIndex uint32 // index into the shared descriptor slice
	ImageIndex  uint16 // image the descriptor came from
	LocalIndex  uint16 // ordinal of the descriptor within its image
}

// NoAssociation is the sentinel returned for unmet query result slots.
var NoAssociation = Association{GlobalIndex: math.MaxUint32}

// Valid reports whether a refers to an actual descriptor (i.e., is not the
// NoAssociation sentinel).
func (a Association) Valid() bool {
	return a.GlobalIndex != math.MaxUint32
}

// makeAssociations builds the identity association list for a descriptor set.
// LocalIndex is the running per-image ordinal, so descriptors of one image
// must be contiguous for local indexes to match the source ordering; the list
// is correct (if less meaningful) either way.
func makeAssociations(count int, imageIndexes []uint16) []Association {
	list := make([]Association, count)
	perImage := make(map[uint16]uint16)
	for i := 0; i < count; i++ {
		var img uint16
		if imageIndexes != nil {
			img = imageIndexes[i]
		}
		list[i] = Association{
			GlobalIndex: uint32(i),
			ImageIndex:  img,
			LocalIndex:  perImage[img],
		}
		perImage[img]++
	}
	return list
}

func minByte(a, b byte) byte {
	if a < b {
		return a
	}
	return b
}

func maxByte(a, b byte) byte {
	if a > b {
		return a
	}
	return b
}
