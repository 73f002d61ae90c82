package worldsync

import (
	"sync"
	"sync/atomic"

	"github.com/mxkacsa/worldsync/state"
)

// Update is delivered to subscribers after every publish.
type Update struct {
	Trigger TriggerKind
	Prev    *state.Snapshot
	Next    *state.Snapshot
	Changes *ChangeSet
}

// UpdateBuffer collects updates for consumers that poll instead of
// subscribing. Subscribe it with store.Subscribe(buf.Add).
type UpdateBuffer struct {
	mu      sync.Mutex
	updates []Update
	swap    []Update     // Pre-allocated swap buffer
	count   atomic.Int32 // Lock-free count for HasUpdates check
	limit   int
}

// NewUpdateBuffer creates a buffer keeping at most limit updates; older
// ones are dropped first. A limit of 0 keeps everything.
func NewUpdateBuffer(limit int) *UpdateBuffer {
	return &UpdateBuffer{
		updates: make([]Update, 0, 8),
		swap:    make([]Update, 0, 8),
		limit:   limit,
	}
}

// Add appends an update.
func (b *UpdateBuffer) Add(u Update) {
	b.mu.Lock()
	b.updates = append(b.updates, u)
	if b.limit > 0 && len(b.updates) > b.limit {
		n := copy(b.updates, b.updates[len(b.updates)-b.limit:])
		clear(b.updates[n:])
		b.updates = b.updates[:n]
	}
	b.count.Store(int32(len(b.updates)))
	b.mu.Unlock()
}

// Drain returns all pending updates and clears the buffer.
// The returned slice is only valid until the next Drain.
func (b *UpdateBuffer) Drain() []Update {
	// Fast path: check atomic counter first (no lock)
	if b.count.Load() == 0 {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.updates) == 0 {
		return nil
	}

	updates := b.updates
	b.updates = b.swap[:0]
	b.swap = updates[:0]
	b.count.Store(0)
	return updates
}

// Count returns the number of pending updates (lock-free)
func (b *UpdateBuffer) Count() int {
	return int(b.count.Load())
}

// HasUpdates returns true if there are pending updates (lock-free)
func (b *UpdateBuffer) HasUpdates() bool {
	return b.count.Load() > 0
}

// Clear removes all pending updates without returning them
func (b *UpdateBuffer) Clear() {
	b.mu.Lock()
	clear(b.updates)
	b.updates = b.updates[:0]
	b.count.Store(0)
	b.mu.Unlock()
}
