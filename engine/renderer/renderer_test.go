package renderer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vireo3d/vireo/engine/core"
	"github.com/vireo3d/vireo/engine/scene"
)

// scriptedBackend records the call sequence and fails on demand.
type scriptedBackend struct {
	calls []string
	slots []int

	waitErr    error
	acquireErr error
	recordErr  error
	submitErr  error
	presentErr error
	recreateErr error

	recreates [][2]uint32
	stats     scene.DrawStats
}

func (b *scriptedBackend) WaitPreviousFrame(slot int, timeout time.Duration) error {
	b.calls = append(b.calls, "wait")
	b.slots = append(b.slots, slot)
	return b.waitErr
}

func (b *scriptedBackend) AcquireImage(slot int) (uint32, error) {
	b.calls = append(b.calls, "acquire")
	return 0, b.acquireErr
}

func (b *scriptedBackend) Record(slot int, imageIndex uint32, packet *RenderPacket) (scene.DrawStats, error) {
	b.calls = append(b.calls, "record")
	return b.stats, b.recordErr
}

func (b *scriptedBackend) Submit(slot int, imageIndex uint32) error {
	b.calls = append(b.calls, "submit")
	return b.submitErr
}

func (b *scriptedBackend) Present(slot int, imageIndex uint32) error {
	b.calls = append(b.calls, "present")
	return b.presentErr
}

func (b *scriptedBackend) Recreate(width, height uint32) error {
	b.calls = append(b.calls, "recreate")
	b.recreates = append(b.recreates, [2]uint32{width, height})
	return b.recreateErr
}

func (b *scriptedBackend) Shutdown() error {
	b.calls = append(b.calls, "shutdown")
	return nil
}

func TestDrawFrameCallOrder(t *testing.T) {
	backend := &scriptedBackend{}
	r := NewRenderer(backend, 2)

	require.NoError(t, r.DrawFrame(&RenderPacket{}))
	assert.Equal(t, []string{"wait", "acquire", "record", "submit", "present"}, backend.calls)
	assert.Equal(t, uint64(1), r.FrameNumber())
}

func TestDrawFrameCyclesSlots(t *testing.T) {
	backend := &scriptedBackend{}
	r := NewRenderer(backend, 2)

	for i := 0; i < 4; i++ {
		require.NoError(t, r.DrawFrame(&RenderPacket{}))
	}
	assert.Equal(t, []int{0, 1, 0, 1}, backend.slots)
}

func TestAcquireOutOfDateSkipsFrame(t *testing.T) {
	backend := &scriptedBackend{acquireErr: core.ErrSwapchainOutOfDate}
	r := NewRenderer(backend, 2)

	require.NoError(t, r.DrawFrame(&RenderPacket{}))

	// Nothing recorded or submitted, the frame number did not advance
	// and the swapchain rebuild is pending.
	assert.Equal(t, []string{"wait", "acquire"}, backend.calls)
	assert.Zero(t, r.FrameNumber())
	assert.True(t, r.ResizePending())
}

func TestBackendStalenessWithoutSizeReportRecreates(t *testing.T) {
	backend := &scriptedBackend{acquireErr: core.ErrSwapchainOutOfDate}
	r := NewRenderer(backend, 2)

	require.NoError(t, r.DrawFrame(&RenderPacket{}))
	require.True(t, r.ResizePending())

	// The window never reported a size, so the rebuild goes through
	// with zero dimensions and the backend reads the surface extent.
	backend.acquireErr = nil
	require.NoError(t, r.DrawFrame(&RenderPacket{}))
	require.Len(t, backend.recreates, 1)
	assert.Equal(t, [2]uint32{0, 0}, backend.recreates[0])
	assert.False(t, r.ResizePending())
}

func TestPresentSuboptimalFlagsResizeButCompletes(t *testing.T) {
	backend := &scriptedBackend{presentErr: core.ErrSwapchainSuboptimal}
	r := NewRenderer(backend, 2)

	require.NoError(t, r.DrawFrame(&RenderPacket{}))
	assert.Equal(t, uint64(1), r.FrameNumber())
	assert.True(t, r.ResizePending())
}

func TestRequestResizeRebuildsBeforeNextFrame(t *testing.T) {
	backend := &scriptedBackend{}
	r := NewRenderer(backend, 2)

	r.RequestResize(800, 600)
	require.NoError(t, r.DrawFrame(&RenderPacket{}))

	require.NotEmpty(t, backend.calls)
	assert.Equal(t, "recreate", backend.calls[0])
	assert.Equal(t, [2]uint32{800, 600}, backend.recreates[0])
}

func TestMinimizedWindowSkipsEverything(t *testing.T) {
	backend := &scriptedBackend{}
	r := NewRenderer(backend, 2)

	r.RequestResize(0, 0)
	require.NoError(t, r.DrawFrame(&RenderPacket{}))
	assert.Empty(t, backend.calls)

	// Restoring the window resumes normally.
	r.RequestResize(800, 600)
	require.NoError(t, r.DrawFrame(&RenderPacket{}))
	assert.Equal(t, []string{"recreate", "wait", "acquire", "record", "submit", "present"}, backend.calls)
}

func TestFenceTimeoutIsFatal(t *testing.T) {
	backend := &scriptedBackend{waitErr: core.ErrDeviceHang}
	r := NewRenderer(backend, 2)

	err := r.DrawFrame(&RenderPacket{})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrDeviceHang)
}

func TestDrawFrameStoresStats(t *testing.T) {
	backend := &scriptedBackend{stats: scene.DrawStats{DrawCalls: 3, Triangles: 12, CulledObjects: 2}}
	r := NewRenderer(backend, 2)

	require.NoError(t, r.DrawFrame(&RenderPacket{}))
	assert.Equal(t, scene.DrawStats{DrawCalls: 3, Triangles: 12, CulledObjects: 2}, r.LastStats())
}

func TestZeroFramesInFlightFallsBack(t *testing.T) {
	r := NewRenderer(&scriptedBackend{}, 0)
	assert.Equal(t, DefaultFramesInFlight, r.framesInFlight)
}

func TestShutdownDelegates(t *testing.T) {
	backend := &scriptedBackend{}
	r := NewRenderer(backend, 2)

	require.NoError(t, r.Shutdown())
	assert.Equal(t, []string{"shutdown"}, backend.calls)
}
