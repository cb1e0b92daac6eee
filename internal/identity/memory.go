package identity

import (
	"context"
	"strings"
	"sync"
	"time"
)

// InMemory implements Store with in-process concurrency safety. Used by
// tests and as a fallback when no database is configured.
type InMemory struct {
	mu    sync.RWMutex
	users map[string]User
	order []string // insertion order of ids
}

var _ Store = (*InMemory)(nil)

// NewInMemory creates an empty directory store.
func NewInMemory() *InMemory {
	return &InMemory{users: make(map[string]User)}
}

func (s *InMemory) Create(ctx context.Context, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return ErrConflict
		}
	}
	s.users[u.ID] = *u
	s.order = append(s.order, u.ID)
	return nil
}

func (s *InMemory) Find(ctx context.Context, id string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (s *InMemory) FindByEmail(ctx context.Context, email string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (s *InMemory) List(ctx context.Context, roles ...Role) ([]User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []User
	// newest first
	for i := len(s.order) - 1; i >= 0; i-- {
		u, ok := s.users[s.order[i]]
		if !ok {
			continue
		}
		if len(roles) > 0 && !roleMatch(u.Role, roles) {
			continue
		}
		out = append(out, u)
	}
	return out, nil
}

func (s *InMemory) Update(ctx context.Context, id string, upd Update) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	if upd.Email != nil {
		for otherID, other := range s.users {
			if otherID != id && strings.EqualFold(other.Email, *upd.Email) {
				return User{}, ErrConflict
			}
		}
		u.Email = *upd.Email
	}
	if upd.Name != nil {
		u.Name = *upd.Name
	}
	if upd.Role != nil {
		u.Role = *upd.Role
	}
	if upd.Office != nil {
		u.Office = *upd.Office
	}
	u.UpdatedAt = time.Now().UTC()
	s.users[id] = u
	return u, nil
}

func (s *InMemory) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}
	u.PasswordHash = passwordHash
	u.UpdatedAt = time.Now().UTC()
	s.users[id] = u
	return nil
}

func (s *InMemory) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return ErrNotFound
	}
	delete(s.users, id)
	return nil
}

func roleMatch(role Role, roles []Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
