package core

import (
	"errors"
)

// Presentation and allocation failures are classified once, here, so
// that callers can decide between rebuilding the swapchain and tearing
// the process down with errors.Is instead of matching API result codes.
var (
	// Transient. The swapchain no longer matches the surface; the frame
	// is skipped (acquire) or finishes degraded (present) and the
	// swapchain is rebuilt before the next frame begins.
	ErrSwapchainOutOfDate  = errors.New("swapchain out of date")
	ErrSwapchainSuboptimal = errors.New("swapchain suboptimal")

	// Recoverable, handled inside the descriptor allocator by retiring
	// the pool and retrying once on a fresh one.
	ErrPoolExhausted = errors.New("descriptor pool exhausted")

	// Fatal. A second allocation failure right after growing means the
	// budget itself is wrong; there is no point limping along.
	ErrDescriptorBudget = errors.New("descriptor allocation failed on a fresh pool")

	// Fatal. The GPU did not finish a frame within the fence timeout.
	ErrDeviceHang = errors.New("frame fence wait timed out")

	ErrUnknown = errors.New("unknown")
)
