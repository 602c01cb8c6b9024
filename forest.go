package kdforest

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Forest is an ordered set of independently randomized KD-trees sharing one
// descriptor slice. Built once, then read-only; safe for concurrent queries.
type Forest []*KDTree

// Config controls forest construction.
// Start with [DefaultConfig] and override the fields you need.
type Config struct {
	// TreeCount is the number of independently randomized trees. More trees
	// raise recall at the same query budget, at linear build cost.
	// Must be >= 1. Default: 4.
	TreeCount int

	// LeafSize is the maximum number of descriptors per leaf node.
	// Must be >= 1. Default: 50.
	LeafSize int

	// Seed feeds the per-tree random streams: tree i is seeded Seed+i, so a
	// fixed seed reproduces the identical forest. Default: 1.
	Seed int64
}

// DefaultConfig returns the default forest configuration.
func DefaultConfig() Config {
	return Config{
		TreeCount: 4,
		LeafSize:  50,
		Seed:      1,
	}
}

// BuildForest builds cfg.TreeCount independent trees over descriptors,
// concurrently. Tree builds share no mutable state beyond the read-only
// descriptor slice, so the forest is identical to one built sequentially:
// output order is by tree index, never by completion order.
//
// The descriptor slice must remain valid and unmodified for the lifetime of
// the forest.
func BuildForest(descriptors []Descriptor, imageIndexes []uint16, cfg Config) (Forest, error) {
	if len(descriptors) == 0 {
		return nil, ErrNoDescriptors
	}
	if cfg.LeafSize < 1 {
		return nil, ErrZeroLeafSize
	}
	if cfg.TreeCount < 1 {
		return nil, ErrNoTrees
	}

	forest := make(Forest, cfg.TreeCount)

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := 0; i < cfg.TreeCount; i++ {
		i := i
		g.Go(func() error {
			tree, err := Build(descriptors, imageIndexes, cfg.LeafSize, cfg.Seed+int64(i))
			if err != nil {
				return err
			}
			forest[i] = tree
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return forest, nil
}
