package users

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"testing"
	"time"

	"signup/cmd/identity/ids"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// Integration tests are opt-in and require SIGNUP_DATABASE_URL.
// Outside CI, an unreachable Postgres skips these tests.

func TestPostgresStore_Integration_SaveAndConcurrentRows(t *testing.T) {
	pool := mustOpenTestPool(t)
	defer pool.Close()

	schema := mustCreateTestSchema(t, pool)
	t.Cleanup(func() { mustDropSchema(t, pool, schema) })
	mustExec(t, pool, `CREATE TABLE `+pgx.Identifier{schema, DefaultTable}.Sanitize()+` (
		email TEXT NOT NULL,
		password_hash TEXT NOT NULL
	)`)

	st, err := NewPostgresStore(pool, WithTable(schema+"."+DefaultTable))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	const n = 20
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			return st.Save(gctx, User{Email: fmt.Sprintf("it%02d@example.com", i), PasswordHash: "$argon2id$fake"})
		})
	}
	require.NoError(t, g.Wait())

	var rows, distinct int
	err = pool.QueryRow(ctx, `SELECT count(*), count(DISTINCT email) FROM `+st.Table()).Scan(&rows, &distinct)
	require.NoError(t, err)
	require.Equal(t, n, rows)
	require.Equal(t, n, distinct)
}

func TestPostgresStore_Integration_UniqueEmailConflict(t *testing.T) {
	pool := mustOpenTestPool(t)
	defer pool.Close()

	schema := mustCreateTestSchema(t, pool)
	t.Cleanup(func() { mustDropSchema(t, pool, schema) })
	mustExec(t, pool, `CREATE TABLE `+pgx.Identifier{schema, DefaultTable}.Sanitize()+` (
		email TEXT NOT NULL CONSTRAINT uq_users_email UNIQUE,
		password_hash TEXT NOT NULL
	)`)

	st, err := NewPostgresStore(pool, WithTable(schema+"."+DefaultTable))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	require.NoError(t, st.Save(ctx, User{Email: "dup@example.com", PasswordHash: "h1"}))
	err = st.Save(ctx, User{Email: "dup@example.com", PasswordHash: "h2"})
	require.True(t, IsConflict(err), "got %v", err)
}

func mustOpenTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	raw := strings.TrimSpace(os.Getenv("SIGNUP_DATABASE_URL"))
	if raw == "" {
		t.Skip("integration test skipped: SIGNUP_DATABASE_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 12*time.Second)
	defer cancel()

	cfg, err := pgxpool.ParseConfig(raw)
	require.NoError(t, err, "parse SIGNUP_DATABASE_URL")

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	require.NoError(t, err, "connect postgres")

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer pingCancel()

	c, err := pool.Acquire(pingCtx)
	if err != nil {
		pool.Close()
		if shouldSkipIntegration(err) {
			t.Skipf("integration test skipped: Postgres unreachable (SIGNUP_DATABASE_URL set): %v", err)
		}
		require.NoError(t, err, "acquire")
	}
	c.Release()

	return pool
}

func mustCreateTestSchema(t *testing.T, pool *pgxpool.Pool) string {
	t.Helper()

	id, err := ids.NewULID(time.Now().UTC())
	require.NoError(t, err)
	schema := "signup_it_" + strings.ToLower(id)

	mustExec(t, pool, `CREATE SCHEMA `+pgx.Identifier{schema}.Sanitize())
	return schema
}

func mustDropSchema(t *testing.T, pool *pgxpool.Pool, schema string) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, _ = pool.Exec(ctx, `DROP SCHEMA IF EXISTS `+pgx.Identifier{schema}.Sanitize()+` CASCADE`)
}

func mustExec(t *testing.T, pool *pgxpool.Pool, sql string, args ...any) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := pool.Exec(ctx, sql, args...)
	require.NoError(t, err, "exec %s", sql)
}

func shouldSkipIntegration(err error) bool {
	if err == nil {
		return false
	}
	if os.Getenv("CI") != "" {
		return false
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "context deadline exceeded") ||
		strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "dial tcp") ||
		strings.Contains(msg, "no such host")
}
