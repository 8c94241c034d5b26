//go:build integration

package postgres

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/mmynk/fintrack/internal/ledger"
	"github.com/mmynk/fintrack/internal/models"
	"github.com/mmynk/fintrack/internal/storage"
	"github.com/mmynk/fintrack/internal/storage/sqlstore"
)

// postgresDSN returns FINTRACK_POSTGRES_DSN when set, otherwise it starts a
// disposable container that lives until the test ends.
func postgresDSN(t *testing.T) string {
	t.Helper()
	if dsn := os.Getenv("FINTRACK_POSTGRES_DSN"); dsn != "" {
		return dsn
	}

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("fintrack"),
		tcpostgres.WithUsername("fintrack"),
		tcpostgres.WithPassword("fintrack"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, container.Terminate(ctx))
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return dsn
}

func newTestStore(t *testing.T) *sqlstore.Store {
	t.Helper()
	store, err := New(context.Background(), postgresDSN(t), 5*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func openAccount(t *testing.T, store *sqlstore.Store, balance string) *models.Account {
	t.Helper()
	ctx := context.Background()
	userID := "pg-" + uuid.New().String()
	require.NoError(t, store.UpsertUser(ctx, models.NewUser(userID, userID+"@example.com", "PG")))

	account := &models.Account{
		UserID:         userID,
		Name:           "Salary",
		Type:           models.AccountCurrent,
		Balance:        decimal.RequireFromString(balance),
		OpeningBalance: decimal.RequireFromString(balance),
		MinimumBalance: models.DefaultMinimumBalance,
		MonthlyBudget:  models.DefaultMonthlyBudget,
		IsDefault:      true,
	}
	require.NoError(t, store.CreateAccount(ctx, account))
	return account
}

func TestPostgresStore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	account := openAccount(t, store, "100.50")

	err := store.WithTx(ctx, func(ctx context.Context, q storage.Queries) error {
		locked, err := q.LockAccounts(ctx, account.ID)
		if err != nil {
			return err
		}
		a := locked[account.ID]
		require.NotNil(t, a, "account should be locked")
		return q.SetAccountBalance(ctx, a.ID, a.Balance.Add(decimal.RequireFromString("0.25")))
	})
	require.NoError(t, err)

	got, err := store.GetAccount(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(decimal.RequireFromString("100.75")), "balance = %s", got.Balance)
	assert.True(t, got.IsDefault)
}

func TestPostgresStore_ConcurrentDebits(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	account := openAccount(t, store, "100")
	one := decimal.NewFromInt(1)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := store.WithTx(ctx, func(ctx context.Context, q storage.Queries) error {
				locked, err := q.LockAccounts(ctx, account.ID)
				if err != nil {
					return err
				}
				a := locked[account.ID]
				return q.SetAccountBalance(ctx, a.ID, a.Balance.Sub(one))
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := store.GetAccount(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(decimal.NewFromInt(80)), "balance = %s", got.Balance)
}

func TestPostgresStore_RollbackOnError(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	account := openAccount(t, store, "10")

	err := store.WithTx(ctx, func(ctx context.Context, q storage.Queries) error {
		if err := q.SetAccountBalance(ctx, account.ID, decimal.Zero); err != nil {
			return err
		}
		return storage.ErrNotFound
	})
	require.ErrorIs(t, err, storage.ErrNotFound)

	got, err := store.GetAccount(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(decimal.NewFromInt(10)), "balance = %s", got.Balance)
}

func TestPostgresLedger_ConcurrentDeletesApplyOnce(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	account := openAccount(t, store, "1000")
	l := ledger.New(store)

	tx, err := l.Create(ctx, account.UserID, ledger.Draft{
		AccountID: account.ID,
		Type:      models.Expense,
		Amount:    decimal.NewFromInt(100),
	})
	require.NoError(t, err)

	var (
		wg   sync.WaitGroup
		errs = make([]error, 8)
	)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = l.BulkDelete(ctx, account.UserID, []string{tx.ID})
		}(i)
	}
	wg.Wait()

	var ok int
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, ledger.ErrNotFound)
	}
	assert.Equal(t, 1, ok)

	got, err := store.GetAccount(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(decimal.NewFromInt(1000)), "balance = %s", got.Balance)
	_, err = l.Verify(ctx, account.UserID, account.ID)
	require.NoError(t, err)
}

func TestPostgresLedger_ConcurrentUpdatesUseCommittedAmount(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	account := openAccount(t, store, "1000")
	l := ledger.New(store)

	tx, err := l.Create(ctx, account.UserID, ledger.Draft{
		AccountID: account.ID,
		Type:      models.Expense,
		Amount:    decimal.NewFromInt(100),
	})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for _, amount := range []int64{200, 300, 150, 250} {
		wg.Add(1)
		go func(amount int64) {
			defer wg.Done()
			_, err := l.Update(ctx, account.UserID, tx.ID, ledger.Draft{
				AccountID: account.ID,
				Type:      models.Expense,
				Amount:    decimal.NewFromInt(amount),
				Date:      tx.Date,
			})
			assert.NoError(t, err)
		}(amount)
	}
	wg.Wait()

	final, err := l.Get(ctx, account.UserID, tx.ID)
	require.NoError(t, err)
	got, err := store.GetAccount(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(decimal.NewFromInt(1000).Sub(final.Amount)), "balance = %s", got.Balance)
	_, err = l.Verify(ctx, account.UserID, account.ID)
	require.NoError(t, err)
}

func TestPostgresLedger_OneDefaultAccount(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	userID := "pg-" + uuid.New().String()
	require.NoError(t, store.UpsertUser(ctx, models.NewUser(userID, userID+"@example.com", "PG")))
	l := ledger.New(store)

	var (
		wg       sync.WaitGroup
		accounts = make([]*models.Account, 6)
	)
	for i := range accounts {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a, err := l.CreateAccount(ctx, userID, ledger.NewAccount{Name: "Account"})
			assert.NoError(t, err)
			accounts[i] = a
		}(i)
	}
	wg.Wait()

	for _, a := range accounts {
		require.NotNil(t, a)
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := l.SetDefaultAccount(ctx, userID, id)
			assert.NoError(t, err)
		}(a.ID)
	}
	wg.Wait()

	listed, err := store.ListAccounts(ctx, userID)
	require.NoError(t, err)
	var defaults int
	for _, a := range listed {
		if a.IsDefault {
			defaults++
		}
	}
	assert.Equal(t, 1, defaults)
}
