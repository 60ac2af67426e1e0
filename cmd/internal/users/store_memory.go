package users

import (
	"context"
	"sync"
)

// InMemoryStore is a dev-only fallback when no database is configured.
// Like the Postgres table, it keeps every row and does not deduplicate emails.
type InMemoryStore struct {
	mu    sync.Mutex
	users []User
}

// NewInMemoryStore constructs an empty in-memory Store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		users: make([]User, 0, 64),
	}
}

// Save appends u.
func (s *InMemoryStore) Save(ctx context.Context, u User) error {
	if err := ctx.Err(); err != nil {
		return OpError{Op: "users.Save", Kind: ErrStore, Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = append(s.users, u)
	return nil
}

// Users returns a snapshot of stored rows in insertion order.
func (s *InMemoryStore) Users() []User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]User(nil), s.users...)
}

// Len returns the number of stored rows.
func (s *InMemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}
