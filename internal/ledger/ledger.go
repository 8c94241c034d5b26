// Package ledger keeps account balances consistent with transaction history.
//
// The Ledger is the only incremental writer of models.Account.Balance. Every
// balance change happens inside a storage unit of work that first locks the
// account row, then checks the spend preconditions against the locked
// balance, then writes the transaction row and the new balance together.
package ledger

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/fintrack/internal/metrics"
	"github.com/mmynk/fintrack/internal/models"
	"github.com/mmynk/fintrack/internal/storage"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 200
)

// Ledger posts, updates and deletes transactions against accounts.
type Ledger struct {
	store   storage.Store
	metrics *metrics.Metrics

	defaultMinimum decimal.Decimal
	defaultBudget  decimal.Decimal
	now            func() time.Time
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithMetrics records operation outcomes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Ledger) { l.metrics = m }
}

// WithAccountDefaults overrides the minimum balance and monthly budget given
// to accounts created without one.
func WithAccountDefaults(minimum, budget decimal.Decimal) Option {
	return func(l *Ledger) {
		l.defaultMinimum = minimum
		l.defaultBudget = budget
	}
}

// WithClock overrides the clock used for default dates and budget months.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// New creates a Ledger on top of store.
func New(store storage.Store, opts ...Option) *Ledger {
	l := &Ledger{
		store:          store,
		defaultMinimum: models.DefaultMinimumBalance,
		defaultBudget:  models.DefaultMonthlyBudget,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Draft is the caller-supplied content of a transaction.
type Draft struct {
	AccountID         string
	Type              models.TransactionType
	Amount            decimal.Decimal
	Date              time.Time
	Category          string
	Description       string
	IsRecurring       bool
	RecurringInterval models.RecurringInterval
	ExcludeFromBudget bool
}

func (l *Ledger) normalize(d Draft) (Draft, error) {
	if d.AccountID == "" {
		return d, invalidInput("account_id is required")
	}
	if !d.Type.Valid() {
		return d, invalidInput("invalid transaction type %q", d.Type)
	}
	if err := validateAmount("amount", d.Amount); err != nil {
		return d, err
	}
	if !d.RecurringInterval.Valid() {
		return d, invalidInput("invalid recurring interval %q", d.RecurringInterval)
	}
	if d.IsRecurring && d.RecurringInterval == "" {
		return d, invalidInput("recurring_interval is required for recurring transactions")
	}
	if !d.IsRecurring {
		d.RecurringInterval = ""
	}
	if d.Date.IsZero() {
		d.Date = l.now()
	}
	d.Date = day(d.Date)
	return d, nil
}

// validateAmount requires a positive amount with at most two decimal places.
func validateAmount(field string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return invalidInput("%s must be greater than zero", field)
	}
	if !amount.Equal(amount.Truncate(2)) {
		return invalidInput("%s must have at most two decimal places", field)
	}
	return nil
}

// checkDebit verifies that spending required out of available keeps the
// account solvent and above its floor. available is the balance the expense
// is charged against, with any entry being replaced already released.
func checkDebit(a *models.Account, available, required decimal.Decimal) error {
	projected := available.Sub(required)
	if projected.IsNegative() {
		return insufficientFunds(available, required)
	}
	if projected.LessThan(a.MinimumBalance) {
		return belowMinimum(available, required, a.MinimumBalance)
	}
	return nil
}

// lockTransaction locks one of userID's transactions. An empty userID skips
// the ownership check.
func lockTransaction(ctx context.Context, q storage.Queries, userID, transactionID string) (*models.Transaction, error) {
	found, err := q.LockTransactions(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 || (userID != "" && found[0].UserID != userID) {
		return nil, notFound("transaction", transactionID)
	}
	return found[0], nil
}

// lockOwned locks the given accounts and requires each to exist and belong to userID.
func lockOwned(ctx context.Context, q storage.Queries, userID string, ids ...string) (map[string]*models.Account, error) {
	accounts, err := q.LockAccounts(ctx, ids...)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		a, ok := accounts[id]
		if !ok || a.UserID != userID {
			return nil, notFound("account", id)
		}
	}
	return accounts, nil
}

func (l *Ledger) record(op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = string(KindOf(err))
		if outcome == "" {
			outcome = "error"
		}
	}
	l.metrics.LedgerOp(op, outcome)
}

// Create posts a new transaction and applies its signed amount to the account.
func (l *Ledger) Create(ctx context.Context, userID string, d Draft) (*models.Transaction, error) {
	var created *models.Transaction
	err := l.store.WithTx(ctx, func(ctx context.Context, q storage.Queries) error {
		t, err := l.Post(ctx, q, userID, d, "")
		created = t
		return err
	})
	l.record("create", err)
	if err != nil {
		return nil, err
	}

	slog.Info("Transaction created",
		"transaction_id", created.ID,
		"account_id", created.AccountID,
		"type", created.Type,
		"amount", created.Amount.String(),
	)
	return created, nil
}

// Post creates a transaction inside the caller's unit of work. It locks the
// account, runs the EXPENSE preconditions and writes the row and the balance.
// splitID tags the entry as belonging to a split request.
func (l *Ledger) Post(ctx context.Context, q storage.Queries, userID string, d Draft, splitID string) (*models.Transaction, error) {
	d, err := l.normalize(d)
	if err != nil {
		return nil, err
	}

	accounts, err := lockOwned(ctx, q, userID, d.AccountID)
	if err != nil {
		return nil, err
	}
	account := accounts[d.AccountID]

	signed := models.SignedAmount(d.Type, d.Amount)
	projected := account.Balance.Add(signed)
	if d.Type == models.Expense {
		if err := checkDebit(account, account.Balance, d.Amount); err != nil {
			return nil, err
		}
	}

	t := &models.Transaction{
		AccountID:         d.AccountID,
		UserID:            userID,
		Type:              d.Type,
		Amount:            d.Amount,
		Date:              d.Date,
		Category:          d.Category,
		Description:       d.Description,
		IsRecurring:       d.IsRecurring,
		RecurringInterval: d.RecurringInterval,
		NextRecurringDate: NextRecurringDate(d.Date, d.IsRecurring, d.RecurringInterval),
		ExcludeFromBudget: d.ExcludeFromBudget,
		Status:            models.StatusCompleted,
		SplitRequestID:    splitID,
	}
	if err := q.InsertTransaction(ctx, t); err != nil {
		return nil, err
	}
	if err := q.SetAccountBalance(ctx, account.ID, projected); err != nil {
		return nil, err
	}
	return t, nil
}

// Reverse deletes a transaction inside the caller's unit of work and
// releases its effect on the account balance. No spend checks apply.
// The transaction row is locked before the account.
func (l *Ledger) Reverse(ctx context.Context, q storage.Queries, transactionID string) (*models.Transaction, error) {
	t, err := lockTransaction(ctx, q, "", transactionID)
	if err != nil {
		return nil, err
	}

	accounts, err := q.LockAccounts(ctx, t.AccountID)
	if err != nil {
		return nil, err
	}
	account, ok := accounts[t.AccountID]
	if !ok {
		return nil, notFound("account", t.AccountID)
	}

	if err := q.DeleteTransactions(ctx, []string{t.ID}); err != nil {
		return nil, err
	}
	if err := q.SetAccountBalance(ctx, account.ID, account.Balance.Sub(t.SignedAmount())); err != nil {
		return nil, err
	}
	return t, nil
}

// Update rewrites a transaction and applies the net balance change.
//
// The transaction row is locked first so that concurrent updates compute their
// net change from the committed amount. The EXPENSE preconditions run for
// every EXPENSE draft against the balance with the old amount released. When
// the account changes, the old account is released and the new one charged,
// both locked in ID order.
func (l *Ledger) Update(ctx context.Context, userID, transactionID string, d Draft) (*models.Transaction, error) {
	var updated *models.Transaction
	err := l.store.WithTx(ctx, func(ctx context.Context, q storage.Queries) error {
		d, err := l.normalize(d)
		if err != nil {
			return err
		}

		old, err := lockTransaction(ctx, q, userID, transactionID)
		if err != nil {
			return err
		}
		if old.SplitRequestID != "" {
			return NewError(KindSplitLinked, "transaction %s belongs to split request %s", old.ID, old.SplitRequestID)
		}

		accounts, err := lockOwned(ctx, q, userID, old.AccountID, d.AccountID)
		if err != nil {
			return err
		}

		oldSigned := old.SignedAmount()
		newSigned := models.SignedAmount(d.Type, d.Amount)

		if old.AccountID == d.AccountID {
			account := accounts[d.AccountID]
			net := newSigned.Sub(oldSigned)
			projected := account.Balance.Add(net)
			if d.Type == models.Expense {
				if err := checkDebit(account, account.Balance.Sub(oldSigned), d.Amount); err != nil {
					return err
				}
			}
			if !net.IsZero() {
				if err := q.SetAccountBalance(ctx, account.ID, projected); err != nil {
					return err
				}
			}
		} else {
			from, to := accounts[old.AccountID], accounts[d.AccountID]
			projected := to.Balance.Add(newSigned)
			if d.Type == models.Expense {
				if err := checkDebit(to, to.Balance, d.Amount); err != nil {
					return err
				}
			}
			if err := q.SetAccountBalance(ctx, from.ID, from.Balance.Sub(oldSigned)); err != nil {
				return err
			}
			if err := q.SetAccountBalance(ctx, to.ID, projected); err != nil {
				return err
			}
		}

		t := *old
		t.AccountID = d.AccountID
		t.Type = d.Type
		t.Amount = d.Amount
		t.Date = d.Date
		t.Category = d.Category
		t.Description = d.Description
		t.IsRecurring = d.IsRecurring
		t.RecurringInterval = d.RecurringInterval
		t.NextRecurringDate = NextRecurringDate(d.Date, d.IsRecurring, d.RecurringInterval)
		t.ExcludeFromBudget = d.ExcludeFromBudget
		if err := q.UpdateTransaction(ctx, &t); err != nil {
			return err
		}
		updated = &t
		return nil
	})
	l.record("update", err)
	if err != nil {
		return nil, err
	}

	slog.Info("Transaction updated", "transaction_id", updated.ID, "account_id", updated.AccountID)
	return updated, nil
}

// BulkDeleteResult reports what a bulk delete removed.
type BulkDeleteResult struct {
	// Deleted is the number of transactions removed.
	Deleted int
	// Balances maps each touched account to its new balance.
	Balances map[string]decimal.Decimal
}

// BulkDelete deletes the caller's transactions among ids and reverses their
// effect on every touched account in a single unit of work. IDs that do not
// exist or belong to someone else are ignored; if none remain the call fails
// with NotFound.
func (l *Ledger) BulkDelete(ctx context.Context, userID string, ids []string) (*BulkDeleteResult, error) {
	ids = slices.Compact(slices.Sorted(slices.Values(ids)))
	if len(ids) == 0 {
		return nil, invalidInput("transaction_ids is required")
	}

	var result *BulkDeleteResult
	err := l.store.WithTx(ctx, func(ctx context.Context, q storage.Queries) error {
		found, err := q.LockTransactions(ctx, ids...)
		if err != nil {
			return err
		}

		var owned []*models.Transaction
		for _, t := range found {
			if t.UserID != userID {
				continue
			}
			if t.SplitRequestID != "" {
				return NewError(KindSplitLinked, "transaction %s belongs to split request %s", t.ID, t.SplitRequestID)
			}
			owned = append(owned, t)
		}
		if len(owned) == 0 {
			return NewError(KindNotFound, "no transactions found")
		}

		nets := netByAccount(owned)
		accountIDs := make([]string, 0, len(nets))
		for id := range nets {
			accountIDs = append(accountIDs, id)
		}
		accounts, err := lockOwned(ctx, q, userID, accountIDs...)
		if err != nil {
			return err
		}

		deleteIDs := make([]string, len(owned))
		for i, t := range owned {
			deleteIDs[i] = t.ID
		}
		if err := q.DeleteTransactions(ctx, deleteIDs); err != nil {
			return err
		}

		result = &BulkDeleteResult{Deleted: len(owned), Balances: make(map[string]decimal.Decimal, len(nets))}
		for id, net := range nets {
			balance := accounts[id].Balance.Sub(net)
			if err := q.SetAccountBalance(ctx, id, balance); err != nil {
				return err
			}
			result.Balances[id] = balance
		}
		return nil
	})
	l.record("bulk_delete", err)
	if err != nil {
		return nil, err
	}

	slog.Info("Transactions deleted", "user_id", userID, "count", result.Deleted, "accounts", len(result.Balances))
	return result, nil
}

// Get returns one of the caller's transactions.
func (l *Ledger) Get(ctx context.Context, userID, transactionID string) (*models.Transaction, error) {
	t, err := l.store.GetTransaction(ctx, transactionID)
	if errors.Is(err, storage.ErrNotFound) || (err == nil && t.UserID != userID) {
		return nil, notFound("transaction", transactionID)
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// ListQuery selects a page of transactions.
type ListQuery struct {
	// AccountID restricts the listing to one account; empty lists all the user's accounts.
	AccountID string
	Type      models.TransactionType
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}

// Page is one page of a transaction listing.
type Page struct {
	Transactions []*models.Transaction
	Total        int
	Limit        int
	Offset       int
}

// List returns the caller's transactions, newest first.
func (l *Ledger) List(ctx context.Context, userID string, lq ListQuery) (*Page, error) {
	if lq.Offset < 0 {
		return nil, invalidInput("offset must not be negative")
	}
	if lq.Type != "" && !lq.Type.Valid() {
		return nil, invalidInput("invalid transaction type %q", lq.Type)
	}
	switch {
	case lq.Limit <= 0:
		lq.Limit = DefaultPageSize
	case lq.Limit > MaxPageSize:
		lq.Limit = MaxPageSize
	}

	if lq.AccountID != "" {
		if _, err := l.GetAccount(ctx, userID, lq.AccountID); err != nil {
			return nil, err
		}
	}

	filter := storage.TransactionFilter{
		AccountID: lq.AccountID,
		UserID:    userID,
		Type:      lq.Type,
		From:      lq.From,
		To:        lq.To,
		Limit:     lq.Limit,
		Offset:    lq.Offset,
	}
	txs, err := l.store.ListTransactions(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := l.store.CountTransactions(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &Page{Transactions: txs, Total: total, Limit: lq.Limit, Offset: lq.Offset}, nil
}
