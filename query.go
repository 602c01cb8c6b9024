package kdforest

import (
	"container/heap"
	"math"
)

// Match holds the best and second-best neighbor found for one query
// descriptor within the search budget. Distances are squared L2, exposed so
// callers can apply a ratio test without recomputing them. Unmet slots carry
// NoAssociation and a MaxUint32 distance.
type Match struct {
	Best       Association
	Second     Association
	BestDist   uint32
	SecondDist uint32
}

// Query2NN finds the approximate best and second-best neighbor for each query
// descriptor across all trees of the forest.
//
// The search is best-first over pending subtrees of every tree at once,
// ordered by bounding-box lower-bound distance, and stops for a query once
// maxCandidates leaves have been scanned or no pending subtree can still beat
// the current second-best. A budget covering every leaf of every tree makes
// the result exact. Queries never fail: with an empty forest, a zero budget
// or fewer than two distinct descriptors, the unmet slots hold NoAssociation.
//
// A descriptor indexed by several trees is counted once; the two results are
// always distinct descriptors.
func Query2NN(forest Forest, maxCandidates int, queries []Descriptor) []Match {
	matches := make([]Match, len(queries))
	var pending subtreeHeap
	for i := range queries {
		matches[i] = query2NNOne(forest, maxCandidates, &queries[i], &pending)
	}
	return matches
}

// pendingSubtree is a not-yet-visited subtree, keyed by the lower-bound
// distance from the query to the subtree's bounding box.
type pendingSubtree struct {
	tree  uint32
	node  uint32
	bound uint32
}

// subtreeHeap is a min-heap of pending subtrees (lowest lower bound on top).
type subtreeHeap []pendingSubtree

func (h subtreeHeap) Len() int           { return len(h) }
func (h subtreeHeap) Less(i, j int) bool { return h[i].bound < h[j].bound }
func (h subtreeHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *subtreeHeap) Push(x any)        { *h = append(*h, x.(pendingSubtree)) }
func (h *subtreeHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

func query2NNOne(forest Forest, maxCandidates int, q *Descriptor, pending *subtreeHeap) Match {
	m := Match{
		Best:       NoAssociation,
		Second:     NoAssociation,
		BestDist:   math.MaxUint32,
		SecondDist: math.MaxUint32,
	}
	*pending = (*pending)[:0]

	leavesVisited := 0
	for ti := range forest {
		if leavesVisited >= maxCandidates {
			break
		}
		descendToLeaf(forest, uint32(ti), forest[ti].Root(), q, &m, pending)
		leavesVisited++
	}

	for leavesVisited < maxCandidates && pending.Len() > 0 {
		next := heap.Pop(pending).(pendingSubtree)
		// The heap is bound-ordered: once the closest pending subtree
		// cannot beat the current second-best, none of them can.
		if next.bound >= m.SecondDist {
			break
		}
		descendToLeaf(forest, next.tree, next.node, q, &m, pending)
		leavesVisited++
	}
	return m
}

// descendToLeaf walks from node n of tree ti to the leaf on the query's side
// of every split, pushing each bypassed sibling subtree onto the pending heap
// with its box lower bound, then scans the leaf.
func descendToLeaf(forest Forest, ti, n uint32, q *Descriptor, m *Match, pending *subtreeHeap) {
	t := forest[ti]
	nd := t.nodes[n]
	for !nd.isLeaf() {
		near, far := n+1, nd.right()
		if q[nd.splitDim()] > nd.splitVal() {
			near, far = far, near
		}
		heap.Push(pending, pendingSubtree{
			tree:  ti,
			node:  far,
			bound: L2DistanceSquaredToBox(q, &t.boxes[far]),
		})
		n = near
		nd = t.nodes[n]
	}

	for i := nd.begin(); i < nd.end(); i++ {
		a := t.list[i]
		// Every tree indexes every descriptor; count re-encounters once.
		if a.GlobalIndex == m.Best.GlobalIndex || a.GlobalIndex == m.Second.GlobalIndex {
			continue
		}
		d := L2DistanceSquared(q, &t.descriptors[a.GlobalIndex])
		if d < m.BestDist {
			m.Second, m.SecondDist = m.Best, m.BestDist
			m.Best, m.BestDist = a, d
		} else if d < m.SecondDist {
			m.Second, m.SecondDist = a, d
		}
	}
}
