package containers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRingQueueFIFO(t *testing.T) {
	rq := NewRingQueue[int](4)
	require.NoError(t, rq.Enqueue(1))
	require.NoError(t, rq.Enqueue(2))
	require.NoError(t, rq.Enqueue(3))

	v, err := rq.Dequeue()
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	v, err = rq.Peek()
	require.NoError(t, err)
	assert.Equal(t, 2, v)

	v, err = rq.Dequeue()
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

func TestRingQueueFullAndEmpty(t *testing.T) {
	rq := NewRingQueue[string](2)
	assert.True(t, rq.IsEmpty())

	require.NoError(t, rq.Enqueue("a"))
	require.NoError(t, rq.Enqueue("b"))
	assert.True(t, rq.IsFull())
	assert.Error(t, rq.Enqueue("c"))

	_, err := rq.Dequeue()
	require.NoError(t, err)
	_, err = rq.Dequeue()
	require.NoError(t, err)

	assert.True(t, rq.IsEmpty())
	_, err = rq.Dequeue()
	assert.Error(t, err)
	_, err = rq.Peek()
	assert.Error(t, err)
}

func TestRingQueueWrapsAround(t *testing.T) {
	rq := NewRingQueue[int](3)
	for round := 0; round < 5; round++ {
		require.NoError(t, rq.Enqueue(round*2))
		require.NoError(t, rq.Enqueue(round*2+1))

		v, err := rq.Dequeue()
		require.NoError(t, err)
		assert.Equal(t, round*2, v)
		v, err = rq.Dequeue()
		require.NoError(t, err)
		assert.Equal(t, round*2+1, v)
	}
}
