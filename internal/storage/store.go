// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/fintrack/internal/models"
)

// ErrNotFound is returned by single-row reads when the row does not exist.
var ErrNotFound = errors.New("not found")

// Store defines the storage backend used by the ledger and the split coordinator.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL)
// without changing the domain layer.
type Store interface {
	Queries

	// WithTx runs fn inside a single unit of work. Every account row read
	// through LockAccounts inside fn stays locked until fn returns; the unit
	// commits when fn returns nil and rolls back otherwise.
	//
	// The unit is detached from ctx cancellation so that a started unit is
	// never abandoned half-way by a disconnecting caller.
	WithTx(ctx context.Context, fn func(ctx context.Context, q Queries) error) error

	// Close releases any resources held by the store.
	Close() error
}

// TransactionFilter selects ledger entries for listing and aggregation.
type TransactionFilter struct {
	AccountID string
	UserID    string

	// From and To bound Date inclusively when non-nil.
	From *time.Time
	To   *time.Time

	Type models.TransactionType

	// Limit of zero means no limit.
	Limit  int
	Offset int
}

// Queries are the row-level operations available both on the Store and
// inside a unit of work.
type Queries interface {
	// UpsertUser inserts the user or refreshes its email and display name.
	UpsertUser(ctx context.Context, user *models.User) error

	// LockUser locks the user's row for the rest of the unit of work.
	// Operations on a user's set of accounts take it first.
	LockUser(ctx context.Context, userID string) error

	// GetUsersByIDs returns a map of user ID to User. Unknown IDs are omitted.
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error)

	// SaveFriendship inserts or updates a directed friendship row.
	SaveFriendship(ctx context.Context, f *models.Friendship) error

	// AreFriends reports whether an ACCEPTED friendship exists in either direction.
	AreFriends(ctx context.Context, userID, otherID string) (bool, error)

	// CreateAccount persists a new account. ID and timestamps are generated when empty.
	CreateAccount(ctx context.Context, account *models.Account) error

	// GetAccount returns an account by ID without locking it.
	GetAccount(ctx context.Context, accountID string) (*models.Account, error)

	// LockAccounts reads the given accounts and locks their rows for the rest
	// of the unit of work. Rows are locked in ascending ID order.
	// Missing accounts are omitted from the result.
	LockAccounts(ctx context.Context, accountIDs ...string) (map[string]*models.Account, error)

	// ListAccounts returns a user's accounts, newest first, with transaction counts.
	ListAccounts(ctx context.Context, userID string) ([]*models.Account, error)

	// UpdateAccount writes name, type, minimum balance, monthly budget and default flag.
	// It never writes the balance.
	UpdateAccount(ctx context.Context, account *models.Account) error

	// SetAccountBalance overwrites the stored balance.
	SetAccountBalance(ctx context.Context, accountID string, balance decimal.Decimal) error

	// ClearDefaultAccount unsets the default flag on every account of the user.
	ClearDefaultAccount(ctx context.Context, userID string) error

	// InsertTransaction persists a new ledger entry. ID and timestamps are generated when empty.
	InsertTransaction(ctx context.Context, t *models.Transaction) error

	// GetTransaction returns a ledger entry by ID.
	GetTransaction(ctx context.Context, id string) (*models.Transaction, error)

	// LockTransactions returns the entries that exist among ids and locks their
	// rows for the rest of the unit of work. Rows are locked in ascending ID order.
	LockTransactions(ctx context.Context, ids ...string) ([]*models.Transaction, error)

	// UpdateTransaction rewrites every mutable column of a ledger entry.
	UpdateTransaction(ctx context.Context, t *models.Transaction) error

	// DeleteTransactions removes the given entries. It fails with ErrNotFound
	// unless every one of them was deleted.
	DeleteTransactions(ctx context.Context, ids []string) error

	// ListTransactions returns entries matching filter ordered by date, newest first.
	ListTransactions(ctx context.Context, filter TransactionFilter) ([]*models.Transaction, error)

	// CountTransactions returns how many entries match filter, ignoring Limit and Offset.
	CountTransactions(ctx context.Context, filter TransactionFilter) (int, error)

	// CreateSplit persists a split request and its participants.
	CreateSplit(ctx context.Context, split *models.SplitRequest) error

	// GetSplit returns a split request with its participants.
	GetSplit(ctx context.Context, id string) (*models.SplitRequest, error)

	// LockSplit returns a split request with its participants and locks the
	// request row for the rest of the unit of work.
	LockSplit(ctx context.Context, id string) (*models.SplitRequest, error)

	// UpdateSplit writes status, linked transaction IDs and the paid-full flag.
	UpdateSplit(ctx context.Context, split *models.SplitRequest) error

	// UpdateParticipant writes status, account, approval time and linked transaction.
	UpdateParticipant(ctx context.Context, p *models.SplitParticipant) error

	// ListSplitsByRequester returns split requests created by userID, newest first.
	ListSplitsByRequester(ctx context.Context, userID string) ([]*models.SplitRequest, error)

	// ListSplitsByParticipant returns split requests userID takes part in, newest first.
	ListSplitsByParticipant(ctx context.Context, userID string) ([]*models.SplitRequest, error)
}
