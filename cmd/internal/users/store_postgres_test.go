package users

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

type execCall struct {
	sql  string
	args []any
}

type fakeExecer struct {
	calls []execCall
	tag   pgconn.CommandTag
	err   error
}

func (f *fakeExecer) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.calls = append(f.calls, execCall{sql: sql, args: args})
	return f.tag, f.err
}

var insertRe = regexp.MustCompile(`(?s)^INSERT\s+INTO\s+"rust_users"\s*\(email,\s*password_hash\)\s*VALUES\s*\(\$1,\s*\$2\)$`)

func TestPostgresStore_Save_SingleParameterizedInsert(t *testing.T) {
	db := &fakeExecer{tag: pgconn.NewCommandTag("INSERT 0 1")}
	st, err := NewPostgresStore(db)
	require.NoError(t, err)

	err = st.Save(context.Background(), User{Email: "a@example.com", PasswordHash: "$argon2id$..."})
	require.NoError(t, err)

	require.Len(t, db.calls, 1)
	require.Regexp(t, insertRe, db.calls[0].sql)
	require.Equal(t, []any{"a@example.com", "$argon2id$..."}, db.calls[0].args)
}

func TestPostgresStore_Save_SchemaQualifiedTable(t *testing.T) {
	db := &fakeExecer{tag: pgconn.NewCommandTag("INSERT 0 1")}
	st, err := NewPostgresStore(db, WithTable("lesson.go_users"))
	require.NoError(t, err)
	require.Equal(t, `"lesson"."go_users"`, st.Table())

	require.NoError(t, st.Save(context.Background(), User{Email: "a@example.com", PasswordHash: "h"}))
	require.Contains(t, db.calls[0].sql, `INSERT INTO "lesson"."go_users"`)
}

func TestPostgresStore_WithTable_RejectsInvalidIdentifiers(t *testing.T) {
	for _, name := range []string{"", "users; DROP TABLE x", "a.b.c", "1users", `"quoted"`} {
		_, err := NewPostgresStore(&fakeExecer{}, WithTable(name))
		require.Error(t, err, "table %q", name)
	}
}

func TestPostgresStore_NilDB(t *testing.T) {
	_, err := NewPostgresStore(nil)
	require.Error(t, err)
}

func TestPostgresStore_Save_DBError(t *testing.T) {
	boom := errors.New("db down")
	st, err := NewPostgresStore(&fakeExecer{err: boom})
	require.NoError(t, err)

	err = st.Save(context.Background(), User{Email: "a@example.com", PasswordHash: "h"})
	require.ErrorIs(t, err, ErrStore)
	require.ErrorIs(t, err, boom)
	require.False(t, IsConflict(err))
}

func TestPostgresStore_Save_UniqueViolation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "rust_users_email_key"}
	st, err := NewPostgresStore(&fakeExecer{err: pgErr})
	require.NoError(t, err)

	err = st.Save(context.Background(), User{Email: "a@example.com", PasswordHash: "h"})
	require.True(t, IsConflict(err))

	var ce ConflictError
	require.True(t, errors.As(err, &ce))
	require.Equal(t, "email", ce.Field)
}

func TestPostgresStore_Save_OtherPgErrorIsStoreError(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "42P01", Message: `relation "rust_users" does not exist`}
	st, err := NewPostgresStore(&fakeExecer{err: pgErr})
	require.NoError(t, err)

	err = st.Save(context.Background(), User{Email: "a@example.com", PasswordHash: "h"})
	require.ErrorIs(t, err, ErrStore)
	require.False(t, IsConflict(err))
}

func TestPostgresStore_Save_UnexpectedRowCount(t *testing.T) {
	st, err := NewPostgresStore(&fakeExecer{tag: pgconn.NewCommandTag("INSERT 0 0")})
	require.NoError(t, err)

	err = st.Save(context.Background(), User{Email: "a@example.com", PasswordHash: "h"})
	require.ErrorIs(t, err, ErrStore)
	require.ErrorContains(t, err, "rows affected 0")
}
