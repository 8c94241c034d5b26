package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is INCOME or EXPENSE.
type TransactionType string

const (
	Income  TransactionType = "INCOME"
	Expense TransactionType = "EXPENSE"
)

// Valid reports whether t is a known transaction type.
func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

// RecurringInterval is the cadence of a recurring transaction.
type RecurringInterval string

const (
	Daily   RecurringInterval = "DAILY"
	Weekly  RecurringInterval = "WEEKLY"
	Monthly RecurringInterval = "MONTHLY"
	Yearly  RecurringInterval = "YEARLY"
)

// Valid reports whether i is a known interval. The empty interval is valid.
func (i RecurringInterval) Valid() bool {
	switch i {
	case "", Daily, Weekly, Monthly, Yearly:
		return true
	}
	return false
}

// TransactionStatus is the processing state of a transaction.
type TransactionStatus string

const (
	StatusCompleted TransactionStatus = "COMPLETED"
	StatusPending   TransactionStatus = "PENDING"
	StatusFailed    TransactionStatus = "FAILED"
)

// Transaction is a monetary entry owned by exactly one Account.
type Transaction struct {
	// ID is the unique identifier for the transaction (UUID format).
	ID string

	// AccountID is the account whose balance this entry affects.
	AccountID string

	// UserID is the owner of the account.
	UserID string

	// Type decides the sign of Amount.
	Type TransactionType

	// Amount is always positive.
	Amount decimal.Decimal

	// Date is the day the money moved (UTC, truncated to the day).
	Date time.Time

	// Category is a category id such as "food" or "salary".
	Category string

	// Description is a free-form note.
	Description string

	// IsRecurring marks templates that an external scheduler re-posts.
	IsRecurring bool

	// RecurringInterval is set when IsRecurring is true.
	RecurringInterval RecurringInterval

	// NextRecurringDate is derived from Date and RecurringInterval.
	NextRecurringDate *time.Time

	// ExcludeFromBudget removes the entry from monthly budget totals.
	ExcludeFromBudget bool

	// Status is COMPLETED for everything the ledger posts itself.
	Status TransactionStatus

	// SplitRequestID links entries posted on behalf of a split request.
	SplitRequestID string

	// CreatedAt is the Unix timestamp when the row was inserted.
	CreatedAt int64

	// UpdatedAt is the Unix timestamp of the last update.
	UpdatedAt int64
}

// SignedAmount returns +Amount for INCOME and -Amount for everything else.
func (t *Transaction) SignedAmount() decimal.Decimal {
	return SignedAmount(t.Type, t.Amount)
}

// SignedAmount applies the sign convention to a raw amount.
func SignedAmount(typ TransactionType, amount decimal.Decimal) decimal.Decimal {
	if typ == Income {
		return amount
	}
	return amount.Neg()
}
