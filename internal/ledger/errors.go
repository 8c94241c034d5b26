package ledger

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Kind classifies a domain failure.
type Kind string

const (
	KindNotFound            Kind = "NOT_FOUND"
	KindInsufficientFunds   Kind = "INSUFFICIENT_FUNDS"
	KindBelowMinimumBalance Kind = "BELOW_MINIMUM_BALANCE"
	KindAlreadyProcessed    Kind = "ALREADY_PROCESSED"
	KindInvalidParticipants Kind = "INVALID_PARTICIPANTS"
	KindInconsistent        Kind = "INCONSISTENT"
	KindInvalidInput        Kind = "INVALID_INPUT"
	KindForbidden           Kind = "FORBIDDEN"
	KindSplitLinked         Kind = "SPLIT_LINKED"
)

// Error is a structured domain error. Balance failures carry the figures a
// caller needs to render an actionable message.
type Error struct {
	Kind    Kind
	Message string

	// Available is the balance the check ran against.
	Available decimal.Decimal
	// Required is the amount the operation needed.
	Required decimal.Decimal
	// Minimum is the account's minimum balance.
	Minimum decimal.Decimal
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return e.Message
}

// Is matches any *Error of the same kind, so callers can write
// errors.Is(err, ledger.ErrInsufficientFunds).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrNotFound            = &Error{Kind: KindNotFound}
	ErrInsufficientFunds   = &Error{Kind: KindInsufficientFunds}
	ErrBelowMinimumBalance = &Error{Kind: KindBelowMinimumBalance}
	ErrAlreadyProcessed    = &Error{Kind: KindAlreadyProcessed}
	ErrInvalidParticipants = &Error{Kind: KindInvalidParticipants}
	ErrInconsistent        = &Error{Kind: KindInconsistent}
	ErrInvalidInput        = &Error{Kind: KindInvalidInput}
	ErrForbidden           = &Error{Kind: KindForbidden}
	ErrSplitLinked         = &Error{Kind: KindSplitLinked}
)

// NewError creates a domain error of the given kind.
func NewError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of the first *Error in err's chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func notFound(what, id string) *Error {
	return NewError(KindNotFound, "%s %s not found", what, id)
}

func invalidInput(format string, args ...any) *Error {
	return NewError(KindInvalidInput, format, args...)
}

func insufficientFunds(balance, amount decimal.Decimal) *Error {
	return &Error{
		Kind:      KindInsufficientFunds,
		Message:   fmt.Sprintf("insufficient funds: available %s, required %s", balance.StringFixed(2), amount.StringFixed(2)),
		Available: balance,
		Required:  amount,
	}
}

func belowMinimum(balance, amount, minimum decimal.Decimal) *Error {
	return &Error{
		Kind: KindBelowMinimumBalance,
		Message: fmt.Sprintf("transaction would bring balance below minimum of %s: available %s, required %s",
			minimum.StringFixed(2), balance.StringFixed(2), amount.StringFixed(2)),
		Available: balance,
		Required:  amount,
		Minimum:   minimum,
	}
}
