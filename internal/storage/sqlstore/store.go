// Package sqlstore implements storage.Store on top of database/sql.
//
// The SQL is shared between backends; a Dialect captures the differences
// (placeholder style and how account rows are locked). Backend packages
// (sqlite, postgres) open the database, run their schema and wrap it here.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mmynk/fintrack/internal/storage"
)

// Ensure Store implements storage.Store
var _ storage.Store = (*Store)(nil)

// Dialect describes how a backend differs from plain SQL.
type Dialect struct {
	// Name is used in logs and errors.
	Name string

	// NumberedParams rewrites ? placeholders into $1, $2, ...
	NumberedParams bool

	// LockClause is appended to the reads that lock rows (accounts, transactions,
	// split requests, users).
	// Backends whose transactions already hold an exclusive write lock leave it empty.
	LockClause string

	// TxOptions are passed to BeginTx for every unit of work.
	TxOptions *sql.TxOptions
}

var (
	// SQLite relies on BEGIN IMMEDIATE (the _txlock=immediate DSN option):
	// the unit of work owns the database write lock before its first read.
	SQLite = Dialect{Name: "sqlite"}

	// Postgres locks each touched account row with SELECT ... FOR UPDATE.
	Postgres = Dialect{
		Name:           "postgres",
		NumberedParams: true,
		LockClause:     " FOR UPDATE",
		TxOptions:      &sql.TxOptions{Isolation: sql.LevelReadCommitted},
	}
)

func (d Dialect) rebind(query string) string {
	if !d.NumberedParams {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 16)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// queries implements storage.Queries against either the pool or an open transaction.
type queries struct {
	db      dbtx
	dialect Dialect
}

func (q *queries) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return q.db.ExecContext(ctx, q.dialect.rebind(query), args...)
}

func (q *queries) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return q.db.QueryContext(ctx, q.dialect.rebind(query), args...)
}

func (q *queries) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return q.db.QueryRowContext(ctx, q.dialect.rebind(query), args...)
}

// Store implements storage.Store using database/sql.
type Store struct {
	*queries
	db        *sql.DB
	txTimeout time.Duration
}

// New wraps an open database. txTimeout bounds every unit of work; zero disables it.
func New(db *sql.DB, dialect Dialect, txTimeout time.Duration) *Store {
	return &Store{
		queries:   &queries{db: db, dialect: dialect},
		db:        db,
		txTimeout: txTimeout,
	}
}

// DB exposes the underlying pool for migrations and health checks.
func (s *Store) DB() *sql.DB {
	return s.db
}

// WithTx runs fn inside a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, q storage.Queries) error) error {
	ctx = context.WithoutCancel(ctx)
	if s.txTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.txTimeout)
		defer cancel()
	}

	tx, err := s.db.BeginTx(ctx, s.dialect.TxOptions)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(ctx, &queries{db: tx, dialect: s.dialect}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// placeholders returns "?, ?, ?" with n placeholders.
// Used for building IN clauses with multiple placeholders.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func stringArgs(values []string) []any {
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return args
}

// nullString maps the empty string to NULL.
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// nullUnix maps a zero timestamp to NULL.
func nullUnix(ts int64) any {
	if ts == 0 {
		return nil
	}
	return ts
}

func unixDate(t time.Time) int64 {
	return t.UTC().Unix()
}

func fromUnix(ts int64) time.Time {
	return time.Unix(ts, 0).UTC()
}

func now() int64 {
	return time.Now().Unix()
}
