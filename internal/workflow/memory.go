package workflow

import (
	"context"
	"sync"
	"time"
)

// InMemory implements Store with in-process concurrency safety. The mutex
// makes MarkResolved linearizable, matching the conditional-update guarantee
// the SQL store gets from a conditional UPDATE.
type InMemory struct {
	mu       sync.RWMutex
	requests map[string]*Request
	order    []string
}

var _ Store = (*InMemory)(nil)

// NewInMemory creates an empty request store.
func NewInMemory() *InMemory {
	return &InMemory{requests: make(map[string]*Request)}
}

func (s *InMemory) Create(ctx context.Context, req *Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *req
	s.requests[req.ID] = &cp
	s.order = append(s.order, req.ID)
	return nil
}

func (s *InMemory) Find(ctx context.Context, id string) (Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	req, ok := s.requests[id]
	if !ok {
		return Request{}, ErrNotFound
	}
	return *req, nil
}

func (s *InMemory) List(ctx context.Context, f Filter) ([]Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Request
	// newest first
	for i := len(s.order) - 1; i >= 0; i-- {
		req, ok := s.requests[s.order[i]]
		if !ok {
			continue
		}
		if f.RequestedBy != "" && req.RequestedBy != f.RequestedBy {
			continue
		}
		out = append(out, *req)
	}
	return out, nil
}

func (s *InMemory) SetAssignment(ctx context.Context, id, assignedTo, assignedBy string) (Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[id]
	if !ok {
		return Request{}, ErrNotFound
	}
	req.AssignedTo = assignedTo
	req.AssignedBy = assignedBy
	return *req, nil
}

func (s *InMemory) MarkResolved(ctx context.Context, id, resolvedBy string, at time.Time) (Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[id]
	if !ok {
		return Request{}, ErrNotFound
	}
	if req.Status != StatusPending {
		return Request{}, ErrConflict
	}
	at = at.UTC()
	req.Status = StatusResolved
	req.ResolvedAt = &at
	req.ResolvedBy = resolvedBy
	return *req, nil
}
