package users

import (
	"context"
	"errors"
	"runtime"
	"strings"

	"golang.org/x/sync/semaphore"
)

// Service registers users: hash the password, then save one record.
//
// Each Argon2id call allocates the configured memory cost (64 MiB by default),
// so at most hashConcurrency hashes run at once. Waiting for a slot honours the
// caller's context.
type Service struct {
	hasher Hasher
	store  Store
	sem    *semaphore.Weighted
}

// ServiceOption configures a Service.
type ServiceOption func(*serviceOptions)

type serviceOptions struct {
	hashConcurrency int64
}

// WithHashConcurrency bounds the number of concurrent hash computations.
// Non-positive values keep the default (runtime.NumCPU()).
func WithHashConcurrency(n int) ServiceOption {
	return func(o *serviceOptions) {
		if n > 0 {
			o.hashConcurrency = int64(n)
		}
	}
}

// NewService constructs a Service. hasher and store must be non-nil.
func NewService(hasher Hasher, store Store, opts ...ServiceOption) (*Service, error) {
	if hasher == nil {
		return nil, errors.New("users: nil hasher")
	}
	if store == nil {
		return nil, errors.New("users: nil store")
	}

	o := serviceOptions{hashConcurrency: int64(max(runtime.NumCPU(), 1))}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	return &Service{
		hasher: hasher,
		store:  store,
		sem:    semaphore.NewWeighted(o.hashConcurrency),
	}, nil
}

// Register hashes in.Password and stores (in.Email, hash).
//
// Error kinds: ErrInvalidInput for a missing field, ErrBusy when ctx ends while
// waiting for a hashing slot, ErrHash for hashing failures, ErrStore or
// ConflictError for persistence failures. Nothing is retried.
func (s *Service) Register(ctx context.Context, in RegisterInput) error {
	const op = "users.Register"

	if strings.TrimSpace(in.Email) == "" {
		return OpError{Op: op, Kind: ErrInvalidInput, Msg: "email is required"}
	}
	if in.Password == "" {
		return OpError{Op: op, Kind: ErrInvalidInput, Msg: "password is required"}
	}

	hash, err := s.hash(ctx, in.Password)
	if err != nil {
		return err
	}

	err = s.store.Save(ctx, User{Email: in.Email, PasswordHash: hash})
	switch {
	case err == nil:
		return nil
	case IsConflict(err), errors.Is(err, ErrStore):
		return err
	default:
		return OpError{Op: op, Kind: ErrStore, Err: err}
	}
}

func (s *Service) hash(ctx context.Context, password string) (string, error) {
	const op = "users.Register"

	if err := s.sem.Acquire(ctx, 1); err != nil {
		return "", OpError{Op: op, Kind: ErrBusy, Msg: "waiting for hash slot", Err: err}
	}
	defer s.sem.Release(1)

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return "", OpError{Op: op, Kind: ErrHash, Err: err}
	}
	if hash == "" || hash == password {
		return "", OpError{Op: op, Kind: ErrHash, Msg: "hasher returned unusable output"}
	}
	return hash, nil
}
