package users

import "context"

// Store is the registration persistence boundary.
//
// Save inserts exactly one record. It performs no duplicate check and no retry;
// a uniqueness violation reported by the backend surfaces as ConflictError.
type Store interface {
	Save(ctx context.Context, u User) error
}

// Hasher derives an encoded password hash.
type Hasher interface {
	Hash(password string) (string, error)
}
