package users

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type measuredStore struct {
	store Store
	obs   prometheus.Observer
}

// NewMeasuredStore wraps store so that every successful Save is observed
// (in seconds) on obs.
func NewMeasuredStore(store Store, obs prometheus.Observer) Store {
	return &measuredStore{store: store, obs: obs}
}

func (m *measuredStore) Save(ctx context.Context, u User) (err error) {
	t0 := time.Now()
	err = m.store.Save(ctx, u)
	if err == nil {
		m.obs.Observe(time.Since(t0).Seconds())
	}
	return
}

type measuredHasher struct {
	hasher Hasher
	obs    prometheus.Observer
}

// NewMeasuredHasher wraps hasher so that every successful Hash is observed
// (in seconds) on obs.
func NewMeasuredHasher(hasher Hasher, obs prometheus.Observer) Hasher {
	return &measuredHasher{hasher: hasher, obs: obs}
}

func (m *measuredHasher) Hash(password string) (encoded string, err error) {
	t0 := time.Now()
	encoded, err = m.hasher.Hash(password)
	if err == nil {
		m.obs.Observe(time.Since(t0).Seconds())
	}
	return
}
