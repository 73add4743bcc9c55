package audit

import "context"

// Store persists audit events. Implementations must treat events as
// append-only: no update or delete methods exist on this interface and none
// may be added.
type Store interface {
	// Append writes one event. Implementations backed by SQL must join an
	// ambient transaction from the context so the event commits atomically
	// with the mutation that triggered it.
	Append(ctx context.Context, event Event) error

	// List returns events matching the filter, newest first.
	List(ctx context.Context, filter Filter) ([]Event, error)
}
