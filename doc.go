// Package kdforest implements a randomized forest of KD-trees over fixed
// 128-byte binary feature descriptors, with approximate two-nearest-neighbor
// (2NN) queries for image keypoint matching.
//
// Each tree partitions the descriptor set with a randomized split rule: the
// split dimension is drawn uniformly from the five dimensions with the
// largest value range, so independently seeded trees partition the same data
// differently and their search errors are largely independent. Queries run a
// best-first search across all trees of a forest at once, pruned by
// bounding-box lower bounds and bounded by a leaf-visit budget.
//
// Basic usage:
//
//	forest, err := kdforest.BuildForest(descriptors, imageIndexes, kdforest.DefaultConfig())
//	matches := kdforest.Query2NN(forest, 512, queries)
//	// matches[i].Best / matches[i].Second are the 2NN associations for queries[i]
//
// The descriptor slice is shared by every tree built from it and is never
// copied: it must remain valid and unmodified until the last tree referencing
// it is dropped. Built trees and forests are immutable and safe for
// concurrent queries without locking.
//
// Accuracy improves with forest size and with the query budget; the search is
// exhaustive (exact) only when the budget covers every leaf of every tree.
package kdforest
