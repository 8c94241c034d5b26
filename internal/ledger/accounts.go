package ledger

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/fintrack/internal/models"
	"github.com/mmynk/fintrack/internal/storage"
)

// NewAccount is the input for CreateAccount. Nil limits take the ledger defaults.
type NewAccount struct {
	Name           string
	Type           models.AccountType
	OpeningBalance decimal.Decimal
	MinimumBalance *decimal.Decimal
	MonthlyBudget  *decimal.Decimal
	IsDefault      bool
}

// AccountSettings are the user-editable fields of an account.
type AccountSettings struct {
	Name           string
	Type           models.AccountType
	MinimumBalance decimal.Decimal
	MonthlyBudget  decimal.Decimal
}

func validateSettings(name string, typ models.AccountType, minimum, budget decimal.Decimal) error {
	if strings.TrimSpace(name) == "" {
		return invalidInput("name is required")
	}
	if !typ.Valid() {
		return invalidInput("invalid account type %q", typ)
	}
	if minimum.IsNegative() {
		return invalidInput("minimum_balance must not be negative")
	}
	if budget.IsNegative() {
		return invalidInput("monthly_budget must not be negative")
	}
	return nil
}

// CreateAccount opens an account with the given opening balance.
// A user's first account is always the default; marking a new account default
// clears the flag on the others in the same unit of work. The user row is
// locked first so concurrent account changes see each other's defaults.
func (l *Ledger) CreateAccount(ctx context.Context, userID string, in NewAccount) (*models.Account, error) {
	minimum, budget := l.defaultMinimum, l.defaultBudget
	if in.MinimumBalance != nil {
		minimum = *in.MinimumBalance
	}
	if in.MonthlyBudget != nil {
		budget = *in.MonthlyBudget
	}
	if in.Type == "" {
		in.Type = models.AccountCurrent
	}
	if err := validateSettings(in.Name, in.Type, minimum, budget); err != nil {
		return nil, err
	}
	if !in.OpeningBalance.Equal(in.OpeningBalance.Truncate(2)) {
		return nil, invalidInput("opening_balance must have at most two decimal places")
	}

	account := &models.Account{
		UserID:         userID,
		Name:           strings.TrimSpace(in.Name),
		Type:           in.Type,
		Balance:        in.OpeningBalance,
		OpeningBalance: in.OpeningBalance,
		MinimumBalance: minimum,
		MonthlyBudget:  budget,
		IsDefault:      in.IsDefault,
	}

	err := l.store.WithTx(ctx, func(ctx context.Context, q storage.Queries) error {
		if err := lockUser(ctx, q, userID); err != nil {
			return err
		}
		existing, err := q.ListAccounts(ctx, userID)
		if err != nil {
			return err
		}
		if len(existing) == 0 {
			account.IsDefault = true
		}
		if account.IsDefault {
			if err := q.ClearDefaultAccount(ctx, userID); err != nil {
				return err
			}
		}
		return q.CreateAccount(ctx, account)
	})
	l.record("create_account", err)
	if err != nil {
		return nil, err
	}

	slog.Info("Account created",
		"account_id", account.ID,
		"user_id", userID,
		"opening_balance", account.OpeningBalance.String(),
		"is_default", account.IsDefault,
	)
	return account, nil
}

func lockUser(ctx context.Context, q storage.Queries, userID string) error {
	err := q.LockUser(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return notFound("user", userID)
	}
	return err
}

// GetAccount returns one of the caller's accounts.
func (l *Ledger) GetAccount(ctx context.Context, userID, accountID string) (*models.Account, error) {
	a, err := l.store.GetAccount(ctx, accountID)
	if errors.Is(err, storage.ErrNotFound) || (err == nil && a.UserID != userID) {
		return nil, notFound("account", accountID)
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// ListAccounts returns the caller's accounts, newest first.
func (l *Ledger) ListAccounts(ctx context.Context, userID string) ([]*models.Account, error) {
	return l.store.ListAccounts(ctx, userID)
}

// UpdateAccount changes an account's settings. The balance is never touched.
func (l *Ledger) UpdateAccount(ctx context.Context, userID, accountID string, s AccountSettings) (*models.Account, error) {
	if err := validateSettings(s.Name, s.Type, s.MinimumBalance, s.MonthlyBudget); err != nil {
		return nil, err
	}

	var updated *models.Account
	err := l.store.WithTx(ctx, func(ctx context.Context, q storage.Queries) error {
		accounts, err := lockOwned(ctx, q, userID, accountID)
		if err != nil {
			return err
		}
		a := accounts[accountID]
		a.Name = strings.TrimSpace(s.Name)
		a.Type = s.Type
		a.MinimumBalance = s.MinimumBalance
		a.MonthlyBudget = s.MonthlyBudget
		if err := q.UpdateAccount(ctx, a); err != nil {
			return err
		}
		updated = a
		return nil
	})
	l.record("update_account", err)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// SetDefaultAccount makes accountID the caller's only default account.
func (l *Ledger) SetDefaultAccount(ctx context.Context, userID, accountID string) (*models.Account, error) {
	var updated *models.Account
	err := l.store.WithTx(ctx, func(ctx context.Context, q storage.Queries) error {
		if err := lockUser(ctx, q, userID); err != nil {
			return err
		}
		accounts, err := lockOwned(ctx, q, userID, accountID)
		if err != nil {
			return err
		}
		if err := q.ClearDefaultAccount(ctx, userID); err != nil {
			return err
		}
		a := accounts[accountID]
		a.IsDefault = true
		if err := q.UpdateAccount(ctx, a); err != nil {
			return err
		}
		updated = a
		return nil
	})
	l.record("set_default_account", err)
	if err != nil {
		return nil, err
	}

	slog.Info("Default account changed", "user_id", userID, "account_id", accountID)
	return updated, nil
}

// AccountStats aggregates an account's transactions, optionally within [from, to].
type AccountStats struct {
	AccountID string
	Totals    Totals
	// ExpensesByCategory lists expense categories, largest first.
	ExpensesByCategory []CategoryTotal
}

// GetAccountStats summarizes one of the caller's accounts.
func (l *Ledger) GetAccountStats(ctx context.Context, userID, accountID string, from, to *time.Time) (*AccountStats, error) {
	if _, err := l.GetAccount(ctx, userID, accountID); err != nil {
		return nil, err
	}

	txs, err := l.store.ListTransactions(ctx, storage.TransactionFilter{AccountID: accountID, From: from, To: to})
	if err != nil {
		return nil, err
	}

	return &AccountStats{
		AccountID:          accountID,
		Totals:             Summarize(txs),
		ExpensesByCategory: ByCategory(txs, models.Expense),
	}, nil
}

// BudgetStatus compares a month's spend with the monthly budget.
type BudgetStatus struct {
	// AccountID is empty when the status covers all of the user's accounts.
	AccountID   string
	Month       time.Time
	Budget      decimal.Decimal
	Spent       decimal.Decimal
	Remaining   decimal.Decimal
	PercentUsed decimal.Decimal
}

// GetBudgetStatus reports the caller's spend in the calendar month containing
// month, excluding transactions marked ExcludeFromBudget. With an empty
// accountID the budgets and spend of all the caller's accounts are combined.
// A zero month means the current month.
func (l *Ledger) GetBudgetStatus(ctx context.Context, userID, accountID string, month time.Time) (*BudgetStatus, error) {
	if month.IsZero() {
		month = l.now()
	}
	y, m, _ := month.UTC().Date()
	start := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0).Add(-time.Second)

	budget := decimal.Zero
	if accountID != "" {
		a, err := l.GetAccount(ctx, userID, accountID)
		if err != nil {
			return nil, err
		}
		budget = a.MonthlyBudget
	} else {
		accounts, err := l.store.ListAccounts(ctx, userID)
		if err != nil {
			return nil, err
		}
		for _, a := range accounts {
			budget = budget.Add(a.MonthlyBudget)
		}
	}

	txs, err := l.store.ListTransactions(ctx, storage.TransactionFilter{
		AccountID: accountID,
		UserID:    userID,
		Type:      models.Expense,
		From:      &start,
		To:        &end,
	})
	if err != nil {
		return nil, err
	}

	spent := BudgetSpend(txs)
	status := &BudgetStatus{
		AccountID:   accountID,
		Month:       start,
		Budget:      budget,
		Spent:       spent,
		Remaining:   budget.Sub(spent),
		PercentUsed: decimal.Zero,
	}
	if budget.IsPositive() {
		status.PercentUsed = spent.Div(budget).Mul(decimal.NewFromInt(100)).Round(2)
	}
	return status, nil
}
