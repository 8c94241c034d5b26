package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/mmynk/fintrack/internal/models"
	"github.com/mmynk/fintrack/internal/storage"
)

// Reconciliation is the outcome of comparing a stored balance with history.
type Reconciliation struct {
	AccountID string
	// Stored is the balance held on the account before the run.
	Stored decimal.Decimal
	// Expected is the opening balance plus the signed sum of every transaction.
	Expected decimal.Decimal
	// Drift is Stored minus Expected.
	Drift decimal.Decimal
	// TransactionCount is the number of transactions folded.
	TransactionCount int
}

// Drifted reports whether the stored balance diverges from history.
func (r *Reconciliation) Drifted() bool {
	return !r.Drift.IsZero()
}

func reconcile(ctx context.Context, q storage.Queries, account *models.Account) (*Reconciliation, error) {
	txs, err := q.ListTransactions(ctx, storage.TransactionFilter{AccountID: account.ID})
	if err != nil {
		return nil, err
	}

	expected := account.OpeningBalance.Add(SumSigned(txs))
	return &Reconciliation{
		AccountID:        account.ID,
		Stored:           account.Balance,
		Expected:         expected,
		Drift:            account.Balance.Sub(expected),
		TransactionCount: len(txs),
	}, nil
}

// Recalculate rebuilds an account's balance from its opening balance and full
// transaction history and overwrites the stored balance unconditionally.
// No minimum-balance check applies; this is a correction, not a spend.
func (l *Ledger) Recalculate(ctx context.Context, userID, accountID string) (*Reconciliation, error) {
	var result *Reconciliation
	err := l.store.WithTx(ctx, func(ctx context.Context, q storage.Queries) error {
		accounts, err := lockOwned(ctx, q, userID, accountID)
		if err != nil {
			return err
		}

		r, err := reconcile(ctx, q, accounts[accountID])
		if err != nil {
			return err
		}
		if err := q.SetAccountBalance(ctx, accountID, r.Expected); err != nil {
			return err
		}
		result = r
		return nil
	})
	l.record("recalculate", err)
	if err != nil {
		return nil, err
	}

	l.metrics.Reconciled("recalculate", result.Drifted())
	if result.Drifted() {
		slog.Warn("Balance drift repaired",
			"account_id", accountID,
			"stored", result.Stored.String(),
			"expected", result.Expected.String(),
			"drift", result.Drift.String(),
		)
	}
	return result, nil
}

// Verify recomputes an account's balance without writing it. When the stored
// balance diverges it returns the reconciliation together with an
// Inconsistent error.
func (l *Ledger) Verify(ctx context.Context, userID, accountID string) (*Reconciliation, error) {
	var result *Reconciliation
	err := l.store.WithTx(ctx, func(ctx context.Context, q storage.Queries) error {
		accounts, err := lockOwned(ctx, q, userID, accountID)
		if err != nil {
			return err
		}
		result, err = reconcile(ctx, q, accounts[accountID])
		return err
	})
	if err != nil {
		l.record("verify", err)
		return nil, err
	}

	l.metrics.Reconciled("verify", result.Drifted())
	if result.Drifted() {
		err := &Error{
			Kind: KindInconsistent,
			Message: fmt.Sprintf("account %s balance %s does not match history %s",
				accountID, result.Stored.StringFixed(2), result.Expected.StringFixed(2)),
			Available: result.Stored,
			Required:  result.Expected,
		}
		l.record("verify", err)
		slog.Warn("Balance drift detected",
			"account_id", accountID,
			"stored", result.Stored.String(),
			"expected", result.Expected.String(),
		)
		return result, err
	}

	l.record("verify", nil)
	return result, nil
}
