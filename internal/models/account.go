package models

import "github.com/shopspring/decimal"

// AccountType distinguishes current accounts from savings accounts.
type AccountType string

const (
	AccountCurrent AccountType = "CURRENT"
	AccountSavings AccountType = "SAVINGS"
)

// Valid reports whether t is a known account type.
func (t AccountType) Valid() bool {
	return t == AccountCurrent || t == AccountSavings
}

var (
	// DefaultMinimumBalance is the floor applied when an account is created without one.
	DefaultMinimumBalance = decimal.NewFromInt(250)

	// DefaultMonthlyBudget is the budget applied when an account is created without one.
	DefaultMonthlyBudget = decimal.NewFromInt(5000)
)

// Account is a user-owned ledger.
//
// Balance always equals OpeningBalance plus the signed sum of the account's
// transactions. Balance is only written by the ledger and the reconciler.
type Account struct {
	// ID is the unique identifier for the account (UUID format).
	ID string

	// UserID is the owner of the account.
	UserID string

	// Name is the display name (e.g., "Salary", "Holiday fund").
	Name string

	// Type is CURRENT or SAVINGS.
	Type AccountType

	// Balance is the incrementally maintained current balance.
	Balance decimal.Decimal

	// OpeningBalance is the balance supplied when the account was created.
	// The reconciler folds transaction history on top of it.
	OpeningBalance decimal.Decimal

	// MinimumBalance is the floor an EXPENSE may not push Balance under.
	MinimumBalance decimal.Decimal

	// MonthlyBudget is the spending ceiling used by budget reporting.
	MonthlyBudget decimal.Decimal

	// IsDefault marks the user's default account. Exactly one per user.
	IsDefault bool

	// TransactionCount is populated by list/get reads; it is not stored.
	TransactionCount int

	// CreatedAt is the Unix timestamp when the account was created.
	CreatedAt int64

	// UpdatedAt is the Unix timestamp of the last write to the row.
	UpdatedAt int64
}

// Available returns how much can be spent before reaching the minimum balance.
func (a *Account) Available() decimal.Decimal {
	return a.Balance.Sub(a.MinimumBalance)
}
