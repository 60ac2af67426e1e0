// Package app wires the signup server runtime: config, logging, metrics,
// persistence and HTTP routes.
package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"signup/cmd/internal/metrics"
	"signup/cmd/internal/users"
	usersapi "signup/cmd/internal/users/api"
	"signup/cmd/security/password"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// Store is a small app-level lifecycle abstraction.
// It exists to allow DB-backed resources to be closed gracefully.
type Store interface {
	Close(ctx context.Context) error
}

// nopStore is used for in-memory store mode.
type nopStore struct{}

func (nopStore) Close(_ context.Context) error { return nil }

type dbStore struct {
	pool *pgxpool.Pool
}

func (s dbStore) Close(_ context.Context) error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// App is the signup server runtime. It owns the HTTP server, the metrics
// registry and the database pool.
type App struct {
	cfg Config
	log Logger

	store Store

	dbPool    *pgxpool.Pool
	dbEnabled bool

	registry *prometheus.Registry
	metrics  *metrics.Metrics

	users    *usersapi.Handler
	memStore *users.InMemoryStore
}

const shutdownTimeout = 10 * time.Second

// New constructs a fully wired App instance from config and logger.
func New(cfg Config, log Logger) (*App, error) {
	if log == nil {
		log = NewLogger(cfg.LogLevel)
	}

	registry := metrics.NewRegistry()
	m, err := metrics.New(registry)
	if err != nil {
		return nil, err
	}

	pwCfg, err := password.FromEnv()
	if err != nil {
		return nil, err
	}

	st, dbPool, dbEnabled, userStore, err := newStore(context.Background(), cfg, log)
	if err != nil {
		return nil, err
	}

	svc, err := users.NewService(
		users.NewMeasuredHasher(pwCfg, m.GenerateHashDuration),
		users.NewMeasuredStore(userStore, m.SaveUserDuration),
		users.WithHashConcurrency(cfg.HashConcurrency),
	)
	if err != nil {
		_ = st.Close(context.Background())
		return nil, err
	}

	h, err := usersapi.NewHandler(log, svc, usersapi.WithMaxBodyBytes(cfg.MaxBodyBytes))
	if err != nil {
		_ = st.Close(context.Background())
		return nil, err
	}

	memStore, _ := userStore.(*users.InMemoryStore)

	log.Info("users.hasher.configured",
		"algorithm", password.Algorithm,
		"memory_kib", pwCfg.Params.MemoryKiB,
		"iterations", pwCfg.Params.Iterations,
		"parallelism", pwCfg.Params.Parallelism,
		"hash_concurrency", cfg.HashConcurrency,
	)

	return &App{
		cfg:       cfg,
		log:       log,
		store:     st,
		dbPool:    dbPool,
		dbEnabled: dbEnabled,
		registry:  registry,
		metrics:   m,
		users:     h,
		memStore:  memStore,
	}, nil
}

// Handler returns the fully routed HTTP handler, wrapped in request logging.
func (a *App) Handler() http.Handler {
	mux := http.NewServeMux()
	registerHTTP(mux, a.log, a.cfg, a.dbPool, a.dbEnabled, a.users, a.registry)
	return WithRequestLogging(mux, a.log)
}

// Close releases the database pool, if any.
func (a *App) Close(ctx context.Context) error {
	return a.store.Close(ctx)
}

// Run listens on cfg.HTTPAddr, serves until ctx is done, then shuts down
// within 10s and closes the store. It returns nil after a clean shutdown.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.cfg.HTTPAddr)
	if err != nil {
		a.log.Error("server.listen.fail", "addr", a.cfg.HTTPAddr, "err", err)
		_ = a.Close(context.Background())
		return err
	}
	return a.serve(ctx, ln)
}

func (a *App) serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           a.Handler(),
		ReadHeaderTimeout: nonZeroDuration(a.cfg.ReadHeaderTimeout, 5*time.Second),
		ReadTimeout:       nonZeroDuration(a.cfg.ReadTimeout, 15*time.Second),
		WriteTimeout:      nonZeroDuration(a.cfg.WriteTimeout, 15*time.Second),
		IdleTimeout:       nonZeroDuration(a.cfg.IdleTimeout, 60*time.Second),
		MaxHeaderBytes:    nonZeroInt(a.cfg.MaxHeaderBytes, 1<<20),
	}

	a.log.Info("server.start", "addr", ln.Addr().String(), "db_enabled", a.dbEnabled)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info("server.stop", "reason", "context_done")
	case err := <-errCh:
		a.log.Error("server.fail", "err", err)
		_ = a.Close(context.Background())
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("server.shutdown.fail", "err", err)
		_ = a.Close(shutdownCtx)
		return err
	}

	// Summary before the pool goes away; in-memory rows are lost from here on.
	a.log.Info("server.stopped", a.registrationSummary()...)

	if err := a.Close(shutdownCtx); err != nil {
		a.log.Error("store.close.fail", "err", err)
	}
	return nil
}

// registrationSummary reports what this process recorded since start.
func (a *App) registrationSummary() []any {
	var attrs []any
	if n, err := metrics.HistogramCount(a.registry, "generate_hash_duration_seconds"); err == nil {
		attrs = append(attrs, "hashes", n)
	}
	if n, err := metrics.HistogramCount(a.registry, "save_user_duration_seconds"); err == nil {
		attrs = append(attrs, "saves", n)
	}
	if a.memStore != nil {
		attrs = append(attrs, "inmemory_users", a.memStore.Len())
	}
	return attrs
}

func nonZeroDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

func nonZeroInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// newStore decides between Postgres-backed persistence and the in-memory dev store.
func newStore(ctx context.Context, cfg Config, log Logger) (Store, *pgxpool.Pool, bool, users.Store, error) {
	if cfg.DatabaseURL == "" {
		log.Info("db.disabled.inmemory_store")
		return nopStore{}, nil, false, users.NewInMemoryStore(), nil
	}

	pool, err := NewDBPool(ctx, cfg)
	if err != nil {
		return nil, nil, false, nil, err
	}

	// The app owns the pool; PostgresStore never closes it.
	pgStore, err := users.NewPostgresStore(pool, users.WithTable(cfg.UsersTable))
	if err != nil {
		pool.Close()
		return nil, nil, false, nil, err
	}

	log.Info("db.enabled.postgres_store", "table", pgStore.Table())

	return dbStore{pool: pool}, pool, true, pgStore, nil
}
