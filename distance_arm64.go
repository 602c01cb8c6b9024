//go:build arm64

package kdforest

func init() {
	// NEON is baseline on arm64; the lane kernels always apply.
	l1Impl = l1Lanes
	l2Impl = l2Lanes
	l1BoxImpl = l1BoxLanes
	l2BoxImpl = l2BoxLanes
	distanceImplDesc = "lanes-neon"
}
