package tx

import (
	"context"
	"sync"
)

// Snapshotter is implemented by in-memory stores that can capture their state
// and hand back a restore function. The memory runner uses it to give unit
// tests the same all-or-nothing semantics a SQL transaction provides.
type Snapshotter interface {
	Snapshot() (restore func())
}

// MemoryRunner serializes transactions over in-memory stores. Holding one
// mutex across the whole callback mirrors a serializable transaction: no two
// writers can interleave a read-max-then-insert sequence.
type MemoryRunner struct {
	mu     sync.Mutex
	stores []Snapshotter
}

// NewMemoryRunner builds a runner over the given participating stores.
func NewMemoryRunner(stores ...Snapshotter) *MemoryRunner {
	return &MemoryRunner{stores: stores}
}

// RunInTx executes fn under the runner's lock. If fn returns an error, every
// participating store is restored to its pre-transaction state.
func (r *MemoryRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	restores := make([]func(), 0, len(r.stores))
	for _, store := range r.stores {
		restores = append(restores, store.Snapshot())
	}

	if err := fn(ctx); err != nil {
		// Restore in reverse order so dependent stores unwind last-first.
		for i := len(restores) - 1; i >= 0; i-- {
			restores[i]()
		}
		return err
	}
	return nil
}
