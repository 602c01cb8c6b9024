package kdforest

import (
	"math"
	"testing"
)

func TestEdgeCase_TwoDescriptors(t *testing.T) {
	descs := randomDescriptors(2, 40)
	forest, err := BuildForest(descs, nil, Config{TreeCount: 3, LeafSize: 1, Seed: 1})
	if err != nil {
		t.Fatalf("BuildForest: %v", err)
	}
	m := Query2NN(forest, math.MaxInt, []Descriptor{descs[0]})[0]
	if m.Best.GlobalIndex != 0 || m.Second.GlobalIndex != 1 {
		t.Errorf("2NN = (%d, %d), want (0, 1)", m.Best.GlobalIndex, m.Second.GlobalIndex)
	}
}

func TestEdgeCase_DuplicateDescriptors(t *testing.T) {
	// Several copies of the same descriptor among distinct ones: the build
	// must terminate and queries must return two distinct indices.
	descs := randomDescriptors(20, 41)
	for i := 5; i < 15; i++ {
		descs[i] = descs[4]
	}
	forest, err := BuildForest(descs, nil, Config{TreeCount: 2, LeafSize: 2, Seed: 1})
	if err != nil {
		t.Fatalf("BuildForest: %v", err)
	}
	for _, tree := range forest {
		checkDuplicateTreeTerminated(t, tree)
	}
	m := Query2NN(forest, math.MaxInt, []Descriptor{descs[4]})[0]
	if m.BestDist != 0 || m.SecondDist != 0 {
		t.Errorf("2NN distances = (%d, %d), want (0, 0) for duplicated descriptor", m.BestDist, m.SecondDist)
	}
	if m.Best.GlobalIndex == m.Second.GlobalIndex {
		t.Error("best and second refer to the same slot")
	}
}

// checkDuplicateTreeTerminated verifies every descriptor landed in exactly
// one leaf even when ranges cannot be split further.
func checkDuplicateTreeTerminated(t *testing.T, tree *KDTree) {
	t.Helper()
	total := 0
	for n := uint32(0); n < tree.NodeCount(); n++ {
		if tree.IsLeaf(n) {
			begin, end := tree.Leaf(n)
			total += int(end - begin)
		}
	}
	if total != tree.DescriptorCount() {
		t.Errorf("leaves hold %d associations, want %d", total, tree.DescriptorCount())
	}
}

func TestEdgeCase_QueryFarOutsideAllBoxes(t *testing.T) {
	// Descriptors clustered low, query saturated high: pruning must not
	// discard the only candidates there are.
	descs := make([]Descriptor, 10)
	for i := range descs {
		for j := range descs[i] {
			descs[i][j] = byte(i)
		}
	}
	var q Descriptor
	for j := range q {
		q[j] = 255
	}
	forest, err := BuildForest(descs, nil, Config{TreeCount: 2, LeafSize: 2, Seed: 1})
	if err != nil {
		t.Fatalf("BuildForest: %v", err)
	}
	m := Query2NN(forest, math.MaxInt, []Descriptor{q})[0]
	if m.Best.GlobalIndex != 9 || m.Second.GlobalIndex != 8 {
		t.Errorf("2NN = (%d, %d), want (9, 8)", m.Best.GlobalIndex, m.Second.GlobalIndex)
	}
}

func TestEdgeCase_NoQueries(t *testing.T) {
	descs := randomDescriptors(10, 42)
	forest, err := BuildForest(descs, nil, DefaultConfig())
	if err != nil {
		t.Fatalf("BuildForest: %v", err)
	}
	if matches := Query2NN(forest, 100, nil); len(matches) != 0 {
		t.Errorf("expected no matches for no queries, got %d", len(matches))
	}
}

func TestEdgeCase_BudgetSmallerThanForest(t *testing.T) {
	// A budget below the tree count still yields a valid (if rough) match
	// from the leaves it could afford.
	descs := randomDescriptors(500, 43)
	forest, err := BuildForest(descs, nil, Config{TreeCount: 8, LeafSize: 4, Seed: 1})
	if err != nil {
		t.Fatalf("BuildForest: %v", err)
	}
	m := Query2NN(forest, 2, []Descriptor{descs[100]})[0]
	if !m.Best.Valid() {
		t.Error("budget 2 should still scan two leaves and find a candidate")
	}
}
