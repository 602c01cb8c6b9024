package kdforest

import (
	"fmt"
	"math/rand"
)

// Distance kernels are selected once at init time. The GOARCH-specific
// dispatch files override the scalar defaults with the unrolled lane kernels
// when the CPU's vector units make them profitable.
var (
	l1Impl    func(a, b *Descriptor) uint32
	l2Impl    func(a, b *Descriptor) uint32
	l1BoxImpl func(d *Descriptor, bb *BoundingBox) uint32
	l2BoxImpl func(d *Descriptor, bb *BoundingBox) uint32

	distanceImplDesc = "scalar"
)

func init() {
	if l1Impl == nil {
		l1Impl = l1Scalar
		l2Impl = l2Scalar
		l1BoxImpl = l1BoxScalar
		l2BoxImpl = l2BoxScalar
	}
}

// L1Distance returns the sum of absolute byte-wise differences between a and
// b over all 128 dimensions (Manhattan distance). Suitable for coarse
// comparisons; nearest-neighbor ranking uses L2DistanceSquared.
func L1Distance(a, b *Descriptor) uint32 { return l1Impl(a, b) }

// L2DistanceSquared returns the sum of squared byte-wise differences between
// a and b. The square root is never taken: comparisons are monotonic under
// squaring. Maximum value is 128 * 255² = 8323200, well within uint32.
func L2DistanceSquared(a, b *Descriptor) uint32 { return l2Impl(a, b) }

// L1DistanceToBox returns a lower bound on the L1 distance from d to any
// point contained in bb. Dimensions where d already lies inside the box
// contribute zero.
func L1DistanceToBox(d *Descriptor, bb *BoundingBox) uint32 { return l1BoxImpl(d, bb) }

// L2DistanceSquaredToBox returns a lower bound on the squared L2 distance
// from d to any point contained in bb. This is the pruning primitive used by
// the query engine.
func L2DistanceSquaredToBox(d *Descriptor, bb *BoundingBox) uint32 { return l2BoxImpl(d, bb) }

// DistanceImpl returns a description of the selected kernel implementation,
// for logging.
func DistanceImpl() string { return distanceImplDesc }

// --- scalar reference kernels ---

func l1Scalar(a, b *Descriptor) uint32 {
	var sum uint32
	for i := 0; i < DescriptorSize; i++ {
		d := int32(a[i]) - int32(b[i])
		if d < 0 {
			d = -d
		}
		sum += uint32(d)
	}
	return sum
}

func l2Scalar(a, b *Descriptor) uint32 {
	var sum uint32
	for i := 0; i < DescriptorSize; i++ {
		d := int32(a[i]) - int32(b[i])
		sum += uint32(d * d)
	}
	return sum
}

func l1BoxScalar(d *Descriptor, bb *BoundingBox) uint32 {
	var sum uint32
	for i := 0; i < DescriptorSize; i++ {
		sum += uint32(boxGap(d[i], bb.Min[i], bb.Max[i]))
	}
	return sum
}

func l2BoxScalar(d *Descriptor, bb *BoundingBox) uint32 {
	var sum uint32
	for i := 0; i < DescriptorSize; i++ {
		g := boxGap(d[i], bb.Min[i], bb.Max[i])
		sum += uint32(g * g)
	}
	return sum
}

// boxGap is the distance from v to the interval [lo, hi]; zero if inside.
func boxGap(v, lo, hi byte) int32 {
	if v < lo {
		return int32(lo) - int32(v)
	}
	if v > hi {
		return int32(v) - int32(hi)
	}
	return 0
}

// --- unrolled lane kernels ---
//
// The descriptor is processed as 4 lanes of 32 bytes with 4 independent
// accumulators per lane, a shape the compiler vectorizes on targets with
// 32-byte vector units. Results are bit-identical to the scalar kernels.

const laneWidth = 32

func l1Lanes(a, b *Descriptor) uint32 {
	var s0, s1, s2, s3 uint32
	for lane := 0; lane < DescriptorSize; lane += laneWidth {
		for i := lane; i < lane+laneWidth; i += 4 {
			s0 += uint32(absDiff(a[i], b[i]))
			s1 += uint32(absDiff(a[i+1], b[i+1]))
			s2 += uint32(absDiff(a[i+2], b[i+2]))
			s3 += uint32(absDiff(a[i+3], b[i+3]))
		}
	}
	return s0 + s1 + s2 + s3
}

func l2Lanes(a, b *Descriptor) uint32 {
	var s0, s1, s2, s3 uint32
	for lane := 0; lane < DescriptorSize; lane += laneWidth {
		for i := lane; i < lane+laneWidth; i += 4 {
			d0 := int32(a[i]) - int32(b[i])
			d1 := int32(a[i+1]) - int32(b[i+1])
			d2 := int32(a[i+2]) - int32(b[i+2])
			d3 := int32(a[i+3]) - int32(b[i+3])
			s0 += uint32(d0 * d0)
			s1 += uint32(d1 * d1)
			s2 += uint32(d2 * d2)
			s3 += uint32(d3 * d3)
		}
	}
	return s0 + s1 + s2 + s3
}

func l1BoxLanes(d *Descriptor, bb *BoundingBox) uint32 {
	var s0, s1 uint32
	for lane := 0; lane < DescriptorSize; lane += laneWidth {
		for i := lane; i < lane+laneWidth; i += 2 {
			s0 += uint32(boxGap(d[i], bb.Min[i], bb.Max[i]))
			s1 += uint32(boxGap(d[i+1], bb.Min[i+1], bb.Max[i+1]))
		}
	}
	return s0 + s1
}

func l2BoxLanes(d *Descriptor, bb *BoundingBox) uint32 {
	var s0, s1 uint32
	for lane := 0; lane < DescriptorSize; lane += laneWidth {
		for i := lane; i < lane+laneWidth; i += 2 {
			g0 := boxGap(d[i], bb.Min[i], bb.Max[i])
			g1 := boxGap(d[i+1], bb.Min[i+1], bb.Max[i+1])
			s0 += uint32(g0 * g0)
			s1 += uint32(g1 * g1)
		}
	}
	return s0 + s1
}

func absDiff(a, b byte) byte {
	if a > b {
		return a - b
	}
	return b - a
}

// VerifyDistances cross-checks the selected kernels against the scalar
// reference over randomized inputs. Intended to run once at process start or
// under test; it is not a steady-state dependency.
func VerifyDistances(rng *rand.Rand) error {
	const rounds = 1000
	for round := 0; round < rounds; round++ {
		var a, b, c Descriptor
		fillRandom(&a, rng)
		fillRandom(&b, rng)
		fillRandom(&c, rng)

		bb := boxOf(&b)
		bb.Extend(&c)

		if got, want := l1Impl(&a, &b), l1Scalar(&a, &b); got != want {
			return fmt.Errorf("kdforest: %s L1 kernel returned %d, scalar reference %d", distanceImplDesc, got, want)
		}
		if got, want := l2Impl(&a, &b), l2Scalar(&a, &b); got != want {
			return fmt.Errorf("kdforest: %s L2² kernel returned %d, scalar reference %d", distanceImplDesc, got, want)
		}
		if got, want := l1BoxImpl(&a, &bb), l1BoxScalar(&a, &bb); got != want {
			return fmt.Errorf("kdforest: %s L1 box kernel returned %d, scalar reference %d", distanceImplDesc, got, want)
		}
		if got, want := l2BoxImpl(&a, &bb), l2BoxScalar(&a, &bb); got != want {
			return fmt.Errorf("kdforest: %s L2² box kernel returned %d, scalar reference %d", distanceImplDesc, got, want)
		}
		if d := l2Impl(&a, &a); d != 0 {
			return fmt.Errorf("kdforest: %s L2² kernel self-distance is %d, want 0", distanceImplDesc, d)
		}
		if d := l2BoxImpl(&b, &bb); d != 0 {
			return fmt.Errorf("kdforest: %s L2² box kernel returned %d for a contained point, want 0", distanceImplDesc, d)
		}
	}
	return nil
}

func fillRandom(d *Descriptor, rng *rand.Rand) {
	for i := range d {
		d[i] = byte(rng.Intn(256))
	}
}
