package kdforest

import (
	"math/rand"
	"testing"
)

func randomDescriptor(rng *rand.Rand) Descriptor {
	var d Descriptor
	fillRandom(&d, rng)
	return d
}

func TestDistance_KnownValues(t *testing.T) {
	var a, b Descriptor
	a[0], b[0] = 10, 13   // diff 3
	a[5], b[5] = 200, 196 // diff 4
	a[127], b[127] = 0, 255

	if got := L1Distance(&a, &b); got != 3+4+255 {
		t.Errorf("L1Distance = %d, want %d", got, 3+4+255)
	}
	if got := L2DistanceSquared(&a, &b); got != 9+16+255*255 {
		t.Errorf("L2DistanceSquared = %d, want %d", got, 9+16+255*255)
	}
}

func TestDistance_SelfIsZero(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	d := randomDescriptor(rng)
	if got := L1Distance(&d, &d); got != 0 {
		t.Errorf("L1Distance(d, d) = %d, want 0", got)
	}
	if got := L2DistanceSquared(&d, &d); got != 0 {
		t.Errorf("L2DistanceSquared(d, d) = %d, want 0", got)
	}
}

func TestDistance_Symmetry(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	for i := 0; i < 100; i++ {
		a := randomDescriptor(rng)
		b := randomDescriptor(rng)
		if L1Distance(&a, &b) != L1Distance(&b, &a) {
			t.Fatal("L1Distance is not symmetric")
		}
		if L2DistanceSquared(&a, &b) != L2DistanceSquared(&b, &a) {
			t.Fatal("L2DistanceSquared is not symmetric")
		}
	}
}

func TestDistance_MaxValue(t *testing.T) {
	var a, b Descriptor
	for i := range b {
		b[i] = 255
	}
	if got := L1Distance(&a, &b); got != 128*255 {
		t.Errorf("max L1Distance = %d, want %d", got, 128*255)
	}
	if got := L2DistanceSquared(&a, &b); got != 128*255*255 {
		t.Errorf("max L2DistanceSquared = %d, want %d", got, 128*255*255)
	}
}

func TestDistanceToBox_ContainedIsZero(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	a := randomDescriptor(rng)
	b := randomDescriptor(rng)
	c := randomDescriptor(rng)
	bb := boxOf(&a)
	bb.Extend(&b)
	bb.Extend(&c)

	for _, d := range []*Descriptor{&a, &b, &c} {
		if got := L2DistanceSquaredToBox(d, &bb); got != 0 {
			t.Errorf("L2DistanceSquaredToBox = %d for contained descriptor, want 0", got)
		}
		if got := L1DistanceToBox(d, &bb); got != 0 {
			t.Errorf("L1DistanceToBox = %d for contained descriptor, want 0", got)
		}
	}
}

func TestDistanceToBox_IsLowerBound(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	for i := 0; i < 200; i++ {
		q := randomDescriptor(rng)
		a := randomDescriptor(rng)
		b := randomDescriptor(rng)
		bb := boxOf(&a)
		bb.Extend(&b)

		// The box bound must never exceed the true distance to any
		// member descriptor.
		for _, member := range []*Descriptor{&a, &b} {
			if bound, d := L2DistanceSquaredToBox(&q, &bb), L2DistanceSquared(&q, member); bound > d {
				t.Fatalf("L2² box bound %d exceeds member distance %d", bound, d)
			}
			if bound, d := L1DistanceToBox(&q, &bb), L1Distance(&q, member); bound > d {
				t.Fatalf("L1 box bound %d exceeds member distance %d", bound, d)
			}
		}
	}
}

func TestDistanceToBox_DegenerateBoxEqualsDistance(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	q := randomDescriptor(rng)
	p := randomDescriptor(rng)
	bb := boxOf(&p)

	// A single-point box gives the exact distance, not just a bound.
	if got, want := L2DistanceSquaredToBox(&q, &bb), L2DistanceSquared(&q, &p); got != want {
		t.Errorf("L2DistanceSquaredToBox to point box = %d, want %d", got, want)
	}
	if got, want := L1DistanceToBox(&q, &bb), L1Distance(&q, &p); got != want {
		t.Errorf("L1DistanceToBox to point box = %d, want %d", got, want)
	}
}

func TestUnion(t *testing.T) {
	rng := rand.New(rand.NewSource(6))
	a := randomDescriptor(rng)
	b := randomDescriptor(rng)
	c := randomDescriptor(rng)
	d := randomDescriptor(rng)

	ab := boxOf(&a)
	ab.Extend(&b)
	cd := boxOf(&c)
	cd.Extend(&d)
	u := Union(ab, cd)

	if !u.ContainsBox(&ab) || !u.ContainsBox(&cd) {
		t.Error("Union does not contain both input boxes")
	}
	for i := 0; i < DescriptorSize; i++ {
		if u.Min[i] != minByte(ab.Min[i], cd.Min[i]) || u.Max[i] != maxByte(ab.Max[i], cd.Max[i]) {
			t.Fatalf("Union not component-wise min/max at dim %d", i)
		}
	}
}

func TestVerifyDistances(t *testing.T) {
	if err := VerifyDistances(rand.New(rand.NewSource(7))); err != nil {
		t.Fatalf("kernel self-check failed: %v", err)
	}
}

// TestLaneKernels_AgreeWithScalar pins the lane kernels against the scalar
// reference directly, independent of which implementation init selected.
func TestLaneKernels_AgreeWithScalar(t *testing.T) {
	rng := rand.New(rand.NewSource(8))
	for i := 0; i < 500; i++ {
		a := randomDescriptor(rng)
		b := randomDescriptor(rng)
		c := randomDescriptor(rng)
		bb := boxOf(&b)
		bb.Extend(&c)

		if got, want := l1Lanes(&a, &b), l1Scalar(&a, &b); got != want {
			t.Fatalf("l1Lanes = %d, scalar = %d", got, want)
		}
		if got, want := l2Lanes(&a, &b), l2Scalar(&a, &b); got != want {
			t.Fatalf("l2Lanes = %d, scalar = %d", got, want)
		}
		if got, want := l1BoxLanes(&a, &bb), l1BoxScalar(&a, &bb); got != want {
			t.Fatalf("l1BoxLanes = %d, scalar = %d", got, want)
		}
		if got, want := l2BoxLanes(&a, &bb), l2BoxScalar(&a, &bb); got != want {
			t.Fatalf("l2BoxLanes = %d, scalar = %d", got, want)
		}
	}
}
