// Package renderer owns the frame lifecycle: it decides when a frame
// slot is reused, how swapchain staleness is handled and in what order
// the backend is driven. The device-specific work lives behind the
// FrameBackend port so the sequencing can be tested without a GPU.
package renderer

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/vireo3d/vireo/engine/core"
	"github.com/vireo3d/vireo/engine/scene"
)

// FenceTimeout bounds the wait on a frame slot's fence. A frame that
// has not finished after this long means the device stopped making
// progress, which is unrecoverable.
const FenceTimeout = 1 * time.Second

// DefaultFramesInFlight is how many frame slots are cycled when the
// configuration does not say otherwise.
const DefaultFramesInFlight = 2

// RenderPacket carries everything the backend needs to record one
// frame.
type RenderPacket struct {
	DeltaTime float64

	View           mgl32.Mat4
	Projection     mgl32.Mat4
	CameraPosition mgl32.Vec3

	Context *scene.DrawContext
}

// FrameBackend is the device-facing port the renderer drives. Calls
// arrive in a fixed order per frame:
//
//	WaitPreviousFrame -> AcquireImage -> Record -> Submit -> Present
//
// with Recreate interleaved between frames when the swapchain went
// stale.
type FrameBackend interface {
	// WaitPreviousFrame blocks until the slot's previous frame has
	// fully retired, then prepares the slot for reuse: deletion queue
	// flush and descriptor pool reset. It returns core.ErrDeviceHang
	// when the wait exceeds the timeout.
	WaitPreviousFrame(slot int, timeout time.Duration) error

	// AcquireImage asks the presentation engine for the next image.
	// core.ErrSwapchainOutOfDate means no image could be acquired and
	// the frame must be skipped.
	AcquireImage(slot int) (imageIndex uint32, err error)

	// Record fills the slot's command buffer from the packet.
	Record(slot int, imageIndex uint32, packet *RenderPacket) (scene.DrawStats, error)

	// Submit hands the recorded work to the graphics queue, signaling
	// the slot's fence on completion.
	Submit(slot int, imageIndex uint32) error

	// Present queues the image for display. core.ErrSwapchainOutOfDate
	// and core.ErrSwapchainSuboptimal report a stale swapchain; the
	// frame itself was still presented or dropped harmlessly.
	Present(slot int, imageIndex uint32) error

	// Recreate rebuilds the size-dependent resources for new
	// framebuffer dimensions.
	Recreate(width, height uint32) error

	// Shutdown waits for the device to go idle and releases
	// everything.
	Shutdown() error
}

// Renderer sequences frames across a fixed set of in-flight slots.
type Renderer struct {
	backend        FrameBackend
	framesInFlight int

	frameNumber uint64

	resizeRequested bool
	sizeKnown       bool
	pendingWidth    uint32
	pendingHeight   uint32

	lastStats scene.DrawStats
}

func NewRenderer(backend FrameBackend, framesInFlight int) *Renderer {
	if framesInFlight <= 0 {
		framesInFlight = DefaultFramesInFlight
	}
	return &Renderer{
		backend:        backend,
		framesInFlight: framesInFlight,
	}
}

// RequestResize marks the swapchain stale. The rebuild happens at the
// start of the next DrawFrame, never mid-frame.
func (r *Renderer) RequestResize(width, height uint32) {
	r.resizeRequested = true
	r.sizeKnown = true
	r.pendingWidth = width
	r.pendingHeight = height
	core.LogDebug("renderer: resize requested to %dx%d", width, height)
}

// DrawFrame runs one full frame. A stale swapchain causes the frame to
// be skipped rather than failed; the caller just calls again. Any
// returned error is fatal to the renderer.
func (r *Renderer) DrawFrame(packet *RenderPacket) error {
	if r.resizeRequested {
		if r.sizeKnown && (r.pendingWidth == 0 || r.pendingHeight == 0) {
			// Minimized. Nothing to render until the window comes back.
			return nil
		}
		// When staleness came from the backend before any size report,
		// the dimensions are zero and the backend falls back to the
		// surface's current extent.
		if err := r.backend.Recreate(r.pendingWidth, r.pendingHeight); err != nil {
			err = fmt.Errorf("recreating swapchain at %dx%d: %w", r.pendingWidth, r.pendingHeight, err)
			core.LogError(err.Error())
			return err
		}
		r.resizeRequested = false
	}

	slot := int(r.frameNumber % uint64(r.framesInFlight))

	if err := r.backend.WaitPreviousFrame(slot, FenceTimeout); err != nil {
		err = fmt.Errorf("frame %d slot %d: %w", r.frameNumber, slot, err)
		core.LogError(err.Error())
		return err
	}

	imageIndex, err := r.backend.AcquireImage(slot)
	if err != nil {
		if errors.Is(err, core.ErrSwapchainOutOfDate) {
			// The slot was prepared but nothing was submitted, so its
			// fence stays signaled and the slot is safe to revisit.
			r.resizeRequested = true
			return nil
		}
		err = fmt.Errorf("acquiring swapchain image: %w", err)
		core.LogError(err.Error())
		return err
	}

	stats, err := r.backend.Record(slot, imageIndex, packet)
	if err != nil {
		err = fmt.Errorf("recording frame %d: %w", r.frameNumber, err)
		core.LogError(err.Error())
		return err
	}
	r.lastStats = stats

	if err := r.backend.Submit(slot, imageIndex); err != nil {
		err = fmt.Errorf("submitting frame %d: %w", r.frameNumber, err)
		core.LogError(err.Error())
		return err
	}

	err = r.backend.Present(slot, imageIndex)
	switch {
	case errors.Is(err, core.ErrSwapchainOutOfDate), errors.Is(err, core.ErrSwapchainSuboptimal):
		r.resizeRequested = true
	case err != nil:
		err = fmt.Errorf("presenting frame %d: %w", r.frameNumber, err)
		core.LogError(err.Error())
		return err
	}

	r.frameNumber++
	return nil
}

// FrameNumber is the count of frames submitted so far. Skipped frames
// do not advance it.
func (r *Renderer) FrameNumber() uint64 {
	return r.frameNumber
}

// LastStats reports the draw statistics of the last recorded frame.
func (r *Renderer) LastStats() scene.DrawStats {
	return r.lastStats
}

// ResizePending reports whether the next DrawFrame will rebuild the
// swapchain first.
func (r *Renderer) ResizePending() bool {
	return r.resizeRequested
}

// Shutdown tears the backend down. The renderer must not be used
// afterwards.
func (r *Renderer) Shutdown() error {
	if err := r.backend.Shutdown(); err != nil {
		err = fmt.Errorf("shutting down render backend: %w", err)
		core.LogError(err.Error())
		return err
	}
	return nil
}
