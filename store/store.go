package store

import "context"

// Store is an append-only sink for enriched login records. Records are
// immutable once appended; implementations provide no update or delete
// operations.
type Store interface {
	// Append durably persists one record. A failed append never leaves a
	// partially-written record behind.
	Append(ctx context.Context, record map[string]any) error
	Close() error
}

// Pinger is implemented by backends that can report reachability for the
// readiness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PersistenceError reports a failed append. The record is considered lost
// for that request; the pipeline does not retry.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return "failed to persist login record: " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
