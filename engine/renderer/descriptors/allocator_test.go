package descriptors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vireo3d/vireo/engine/core"
)

// fakePool is a pool with a fixed set capacity.
type fakePool struct {
	id       int
	capacity uint32
	used     uint32
}

type fakeBackend struct {
	nextID    int
	pools     map[int]*fakePool
	created   []uint32
	destroyed []int
	resets    []int

	failCreate bool
	exhaustAll bool
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{pools: map[int]*fakePool{}}
}

func (b *fakeBackend) CreatePool(maxSets uint32, ratios []PoolSizeRatio) (int, error) {
	if b.failCreate {
		return 0, errors.New("out of device memory")
	}
	b.nextID++
	b.pools[b.nextID] = &fakePool{id: b.nextID, capacity: maxSets}
	b.created = append(b.created, maxSets)
	return b.nextID, nil
}

func (b *fakeBackend) Allocate(pool int, layout string) (string, error) {
	p := b.pools[pool]
	if b.exhaustAll || p.used >= p.capacity {
		return "", core.ErrPoolExhausted
	}
	p.used++
	return fmt.Sprintf("set-%d-%d", pool, p.used), nil
}

func (b *fakeBackend) ResetPool(pool int) error {
	b.pools[pool].used = 0
	b.resets = append(b.resets, pool)
	return nil
}

func (b *fakeBackend) DestroyPool(pool int) {
	delete(b.pools, pool)
	b.destroyed = append(b.destroyed, pool)
}

func TestAllocatorCreatesInitialPool(t *testing.T) {
	backend := newFakeBackend()
	a, err := NewAllocator[int, string, string](backend, 10, nil, 0)
	require.NoError(t, err)

	assert.Equal(t, []uint32{10}, backend.created)
	assert.Equal(t, 1, a.PoolCount())
	// The next pool is already half again as big.
	assert.Equal(t, uint32(15), a.SetsPerPool())
}

func TestAllocatorRejectsZeroInitialSets(t *testing.T) {
	_, err := NewAllocator[int, string, string](newFakeBackend(), 0, nil, 0)
	assert.Error(t, err)
}

func TestAllocatorGrowsOnExhaustion(t *testing.T) {
	backend := newFakeBackend()
	a, err := NewAllocator[int, string, string](backend, 2, nil, 0)
	require.NoError(t, err)

	sets := map[string]bool{}
	for i := 0; i < 5; i++ {
		set, err := a.Allocate("layout")
		require.NoError(t, err)
		assert.False(t, sets[set], "set %s handed out twice", set)
		sets[set] = true
	}

	// 2-set pool exhausted, a 3-set pool was created for the retry.
	assert.Equal(t, []uint32{2, 3}, backend.created)
	assert.Equal(t, 2, a.PoolCount())
}

func TestAllocatorGrowthIsCapped(t *testing.T) {
	backend := newFakeBackend()
	a, err := NewAllocator[int, string, string](backend, 100, nil, 120)
	require.NoError(t, err)
	assert.Equal(t, uint32(120), a.SetsPerPool())

	// Exhaust the first pool so the capped pool gets created.
	for i := 0; i < 101; i++ {
		_, err := a.Allocate("layout")
		require.NoError(t, err)
	}
	assert.Equal(t, []uint32{100, 120}, backend.created)
	assert.Equal(t, uint32(120), a.SetsPerPool())
}

func TestAllocatorSecondFailureIsBudgetError(t *testing.T) {
	backend := newFakeBackend()
	a, err := NewAllocator[int, string, string](backend, 1, nil, 0)
	require.NoError(t, err)

	_, err = a.Allocate("layout")
	require.NoError(t, err)

	// Every pool reports exhausted, the fresh retry pool included.
	backend.exhaustAll = true
	_, err = a.Allocate("layout")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrDescriptorBudget)
}

func TestAllocatorResetPoolsMergesFullPools(t *testing.T) {
	backend := newFakeBackend()
	a, err := NewAllocator[int, string, string](backend, 1, nil, 0)
	require.NoError(t, err)

	// Force a second pool into existence.
	_, err = a.Allocate("layout")
	require.NoError(t, err)
	_, err = a.Allocate("layout")
	require.NoError(t, err)
	require.Equal(t, 2, a.PoolCount())

	require.NoError(t, a.ResetPools())
	assert.Len(t, backend.resets, 2)

	// Every pool is usable again from the start of its capacity.
	for _, p := range backend.pools {
		assert.Zero(t, p.used)
	}
}

func TestAllocatorDestroyReleasesEveryPool(t *testing.T) {
	backend := newFakeBackend()
	a, err := NewAllocator[int, string, string](backend, 1, nil, 0)
	require.NoError(t, err)

	_, err = a.Allocate("layout")
	require.NoError(t, err)
	_, err = a.Allocate("layout")
	require.NoError(t, err)

	a.Destroy()
	assert.Len(t, backend.destroyed, 2)
	assert.Zero(t, a.PoolCount())
}

func TestAllocatorUnrecoverableCreateError(t *testing.T) {
	backend := newFakeBackend()
	a, err := NewAllocator[int, string, string](backend, 1, nil, 0)
	require.NoError(t, err)

	_, err = a.Allocate("layout")
	require.NoError(t, err)

	backend.failCreate = true
	_, err = a.Allocate("layout")
	require.Error(t, err)
	assert.NotErrorIs(t, err, core.ErrDescriptorBudget)
}
