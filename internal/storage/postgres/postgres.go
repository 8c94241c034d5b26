// Package postgres opens a PostgreSQL database through the pgx stdlib driver
// and wraps it in a sqlstore.Store.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/mmynk/fintrack/internal/storage/sqlstore"
)

// New connects to dsn and applies the schema.
//
// Each unit of work runs at READ COMMITTED and locks the account rows it
// touches with SELECT ... FOR UPDATE.
func New(ctx context.Context, dsn string, txTimeout time.Duration) (*sqlstore.Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	migrateCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if _, err := db.ExecContext(migrateCtx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return sqlstore.New(db, sqlstore.Postgres, txTimeout), nil
}
