package workflow

import (
	"context"
	"time"
)

// Filter narrows a listing. An empty filter matches every request.
type Filter struct {
	RequestedBy string
}

// Store describes persistence for request records. The workflow service is
// the only writer.
//
// MarkResolved is the conditional-update primitive: the write is accepted
// only if the stored status is still pending at write time. Implementations
// must make the status check and the write a single atomic operation and
// return ErrConflict for the race loser; an application-layer read-then-write
// is not an acceptable implementation.
type Store interface {
	Create(ctx context.Context, req *Request) error
	Find(ctx context.Context, id string) (Request, error)
	// List returns requests newest-created-first.
	List(ctx context.Context, f Filter) ([]Request, error)
	// SetAssignment overwrites both assignment fields together. Reassignment
	// is unrestricted.
	SetAssignment(ctx context.Context, id, assignedTo, assignedBy string) (Request, error)
	MarkResolved(ctx context.Context, id, resolvedBy string, at time.Time) (Request, error)
}
