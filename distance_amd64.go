//go:build amd64

package kdforest

import "golang.org/x/sys/cpu"

func init() {
	// The lane kernels assume 32-byte vector units; on older cores the
	// scalar defaults win.
	if cpu.X86.HasAVX2 {
		l1Impl = l1Lanes
		l2Impl = l2Lanes
		l1BoxImpl = l1BoxLanes
		l2BoxImpl = l2BoxLanes
		distanceImplDesc = "lanes-avx2"
	} else {
		l1Impl = l1Scalar
		l2Impl = l2Scalar
		l1BoxImpl = l1BoxScalar
		l2BoxImpl = l2BoxScalar
	}
}
