package containers

// DeletionQueue accumulates records of resources whose destruction has
// to wait until the GPU is done with them. Entries are plain values
// describing what to release; the owner supplies the release routine at
// flush time. Flushing walks the queue in reverse push order, so a
// resource is always released before anything it depends on.
type DeletionQueue[E any] struct {
	entries []E
}

func NewDeletionQueue[E any]() *DeletionQueue[E] {
	return &DeletionQueue[E]{}
}

// Push records an entry for deferred release.
func (dq *DeletionQueue[E]) Push(entry E) {
	dq.entries = append(dq.entries, entry)
}

// Len reports how many entries are pending.
func (dq *DeletionQueue[E]) Len() int {
	return len(dq.entries)
}

// Flush releases every pending entry, newest first, and empties the
// queue. The queue remains usable afterwards.
func (dq *DeletionQueue[E]) Flush(release func(E)) {
	for i := len(dq.entries) - 1; i >= 0; i-- {
		release(dq.entries[i])
	}
	dq.entries = dq.entries[:0]
}
