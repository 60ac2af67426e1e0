package users

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DefaultTable is the registration table: rust_users(email, password_hash).
const DefaultTable = "rust_users"

// Execer is the subset of *pgxpool.Pool (and pgx.Tx) used by PostgresStore.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresStore persists registrations with a single parameterized INSERT.
//
// The pool is owned by the caller; this store never closes it. The table name
// is validated as a (optionally schema-qualified) identifier and quoted.
type PostgresStore struct {
	db    Execer
	table []string
}

// PostgresOption configures the store.
type PostgresOption func(*PostgresStore) error

var pgIdentRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// WithTable sets the target table, e.g. "rust_users" or "app.users".
func WithTable(name string) PostgresOption {
	return func(s *PostgresStore) error {
		parts, err := parseTableName(name)
		if err != nil {
			return err
		}
		s.table = parts
		return nil
	}
}

// NewPostgresStore constructs a PostgresStore writing to DefaultTable unless
// overridden.
func NewPostgresStore(db Execer, opts ...PostgresOption) (*PostgresStore, error) {
	st := &PostgresStore{
		db:    db,
		table: []string{DefaultTable},
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(st); err != nil {
			return nil, err
		}
	}
	if st.db == nil {
		return nil, fmt.Errorf("users: nil db")
	}
	return st, nil
}

// Save inserts one (email, password_hash) row. No transaction, no retry.
func (s *PostgresStore) Save(ctx context.Context, u User) error {
	const op = "users.Save"

	query, args, err := s.insertSQL(u)
	if err != nil {
		return OpError{Op: op, Kind: ErrStore, Msg: "build query", Err: err}
	}

	tag, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		if field, ok := pgClassifyUniqueViolation(err); ok {
			return ConflictError{Op: op, Field: field}
		}
		return OpError{Op: op, Kind: ErrStore, Err: err}
	}
	if n := tag.RowsAffected(); n != 1 {
		return OpError{Op: op, Kind: ErrStore, Msg: fmt.Sprintf("rows affected %d", n)}
	}
	return nil
}

// Table returns the quoted target table.
func (s *PostgresStore) Table() string {
	return pgx.Identifier(s.table).Sanitize()
}

func (s *PostgresStore) insertSQL(u User) (string, []any, error) {
	return sq.Insert(s.Table()).
		Columns("email", "password_hash").
		Values(u.Email, u.PasswordHash).
		PlaceholderFormat(sq.Dollar).
		ToSql()
}

func parseTableName(name string) ([]string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("users: empty table name")
	}
	parts := strings.Split(name, ".")
	if len(parts) > 2 {
		return nil, fmt.Errorf("users: invalid table identifier %q", name)
	}
	for _, p := range parts {
		if !pgIdentRe.MatchString(p) {
			return nil, fmt.Errorf("users: invalid table identifier %q", name)
		}
	}
	return parts, nil
}

func pgClassifyUniqueViolation(err error) (field string, ok bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return "", false
	}
	if pgErr.Code != "23505" { // unique_violation
		return "", false
	}

	c := strings.ToLower(pgErr.ConstraintName)
	if strings.Contains(c, "email") {
		return "email", true
	}
	return "unique", true
}
