package kdforest

import (
	"errors"
	"fmt"
)

// Construction errors returned by Build and BuildForest. They are reported to
// the caller and construction simply does not proceed.
var (
	// ErrNoDescriptors is returned when building over an empty descriptor set.
	ErrNoDescriptors = errors.New("kdforest: descriptor count is zero")

	// ErrZeroLeafSize is returned when the leaf size is not positive.
	ErrZeroLeafSize = errors.New("kdforest: leaf size must be >= 1")

	// ErrNoTrees is returned when a forest is requested with zero trees.
	ErrNoTrees = errors.New("kdforest: tree count must be >= 1")
)

// invariant panics if cond is false. Invariant violations indicate a caller
// contract breach (e.g. a split accessor on a leaf node) or a builder bug;
// they are unrecoverable and surfaced immediately rather than masked.
func invariant(cond bool, format string, args ...any) {
	if !cond {
		panic("kdforest: invariant violation: " + fmt.Sprintf(format, args...))
	}
}
