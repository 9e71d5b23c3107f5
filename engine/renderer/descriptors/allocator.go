// Package descriptors implements a growable descriptor set allocator on
// top of a small pool backend interface. The allocator owns a set of
// ready pools and a set of exhausted pools; when the backend reports a
// pool as exhausted the pool is retired, a bigger one is created and the
// allocation is retried exactly once.
package descriptors

import (
	"errors"
	"fmt"

	"github.com/vireo3d/vireo/engine/core"
)

// PoolSizeRatio expresses how many descriptors of a given type a pool
// carves out per set. Type holds the backend's descriptor type code
// (VkDescriptorType for the Vulkan backend).
type PoolSizeRatio struct {
	Type  uint32
	Ratio float32
}

// Backend abstracts the descriptor pool operations of the GPU API.
// Allocate must report a full or fragmented pool as
// core.ErrPoolExhausted; any other error is treated as unrecoverable by
// the allocator.
type Backend[P comparable, L, S any] interface {
	CreatePool(maxSets uint32, ratios []PoolSizeRatio) (P, error)
	Allocate(pool P, layout L) (S, error)
	ResetPool(pool P) error
	DestroyPool(pool P)
}

// DefaultMaxSetsPerPool bounds pool growth when no ceiling is configured.
const DefaultMaxSetsPerPool = 4092

type Allocator[P comparable, L, S any] struct {
	backend Backend[P, L, S]
	ratios  []PoolSizeRatio

	readyPools []P
	fullPools  []P

	setsPerPool    uint32
	maxSetsPerPool uint32
}

// NewAllocator creates the first pool sized for initialSets and primes
// the growth sequence. maxSetsPerPool of zero selects
// DefaultMaxSetsPerPool.
func NewAllocator[P comparable, L, S any](backend Backend[P, L, S], initialSets uint32, ratios []PoolSizeRatio, maxSetsPerPool uint32) (*Allocator[P, L, S], error) {
	if initialSets == 0 {
		err := fmt.Errorf("descriptor allocator requires initialSets > 0")
		core.LogError(err.Error())
		return nil, err
	}
	if maxSetsPerPool == 0 {
		maxSetsPerPool = DefaultMaxSetsPerPool
	}

	a := &Allocator[P, L, S]{
		backend:        backend,
		ratios:         append([]PoolSizeRatio(nil), ratios...),
		maxSetsPerPool: maxSetsPerPool,
	}

	pool, err := backend.CreatePool(initialSets, a.ratios)
	if err != nil {
		return nil, err
	}
	a.readyPools = append(a.readyPools, pool)
	a.setsPerPool = a.grow(initialSets)
	return a, nil
}

// grow advances the pool size sequence: half again as big, capped.
func (a *Allocator[P, L, S]) grow(sets uint32) uint32 {
	sets += sets / 2
	if sets > a.maxSetsPerPool {
		sets = a.maxSetsPerPool
	}
	return sets
}

// getPool pops a ready pool, or creates the next bigger one if none are
// left.
func (a *Allocator[P, L, S]) getPool() (P, error) {
	if n := len(a.readyPools); n > 0 {
		pool := a.readyPools[n-1]
		a.readyPools = a.readyPools[:n-1]
		return pool, nil
	}
	pool, err := a.backend.CreatePool(a.setsPerPool, a.ratios)
	if err != nil {
		var zero P
		return zero, err
	}
	a.setsPerPool = a.grow(a.setsPerPool)
	return pool, nil
}

// Allocate carves one descriptor set with the given layout. A pool
// reported exhausted is retired to the full list and the allocation is
// retried exactly once on a fresh pool; a second failure wraps
// core.ErrDescriptorBudget, which callers must treat as fatal.
func (a *Allocator[P, L, S]) Allocate(layout L) (S, error) {
	var zero S

	pool, err := a.getPool()
	if err != nil {
		return zero, err
	}

	set, err := a.backend.Allocate(pool, layout)
	if errors.Is(err, core.ErrPoolExhausted) {
		a.fullPools = append(a.fullPools, pool)

		pool, err = a.getPool()
		if err != nil {
			return zero, err
		}
		set, err = a.backend.Allocate(pool, layout)
		if err != nil {
			a.fullPools = append(a.fullPools, pool)
			wrapped := fmt.Errorf("%w: %v", core.ErrDescriptorBudget, err)
			core.LogError(wrapped.Error())
			return zero, wrapped
		}
	} else if err != nil {
		a.readyPools = append(a.readyPools, pool)
		core.LogError("descriptor allocation failed: %s", err.Error())
		return zero, err
	}

	a.readyPools = append(a.readyPools, pool)
	return set, nil
}

// ResetPools returns every pool, full ones included, to the ready list.
// Previously allocated sets become invalid. Called once per frame slot
// before recording begins.
func (a *Allocator[P, L, S]) ResetPools() error {
	for _, pool := range a.readyPools {
		if err := a.backend.ResetPool(pool); err != nil {
			return err
		}
	}
	for _, pool := range a.fullPools {
		if err := a.backend.ResetPool(pool); err != nil {
			return err
		}
		a.readyPools = append(a.readyPools, pool)
	}
	a.fullPools = a.fullPools[:0]
	return nil
}

// Destroy releases every pool. The allocator is unusable afterwards.
func (a *Allocator[P, L, S]) Destroy() {
	for _, pool := range a.readyPools {
		a.backend.DestroyPool(pool)
	}
	for _, pool := range a.fullPools {
		a.backend.DestroyPool(pool)
	}
	a.readyPools = nil
	a.fullPools = nil
}

// PoolCount reports how many pools the allocator currently owns.
func (a *Allocator[P, L, S]) PoolCount() int {
	return len(a.readyPools) + len(a.fullPools)
}

// SetsPerPool reports the size the next created pool will have.
func (a *Allocator[P, L, S]) SetsPerPool() uint32 {
	return a.setsPerPool
}
