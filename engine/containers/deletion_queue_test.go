package containers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeletionQueueFlushesNewestFirst(t *testing.T) {
	dq := NewDeletionQueue[string]()
	dq.Push("buffer")
	dq.Push("view")
	dq.Push("image")

	var released []string
	dq.Flush(func(entry string) {
		released = append(released, entry)
	})

	assert.Equal(t, []string{"image", "view", "buffer"}, released)
	assert.Equal(t, 0, dq.Len())
}

func TestDeletionQueueReusableAfterFlush(t *testing.T) {
	dq := NewDeletionQueue[int]()
	dq.Push(1)
	dq.Flush(func(int) {})

	dq.Push(2)
	dq.Push(3)
	assert.Equal(t, 2, dq.Len())

	var released []int
	dq.Flush(func(entry int) {
		released = append(released, entry)
	})
	assert.Equal(t, []int{3, 2}, released)
}

func TestDeletionQueueFlushEmpty(t *testing.T) {
	dq := NewDeletionQueue[int]()
	calls := 0
	dq.Flush(func(int) { calls++ })
	assert.Zero(t, calls)
}
