package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mmynk/fintrack/internal/models"
	"github.com/mmynk/fintrack/internal/storage"
)

const accountColumns = `a.id, a.user_id, a.name, a.type, a.balance, a.opening_balance,
	a.minimum_balance, a.monthly_budget, a.is_default, a.created_at, a.updated_at`

const accountCountColumn = `(SELECT COUNT(*) FROM transactions t WHERE t.account_id = a.id)`

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(row scanner, extra ...any) (*models.Account, error) {
	a := &models.Account{}
	var typ string
	dest := []any{
		&a.ID, &a.UserID, &a.Name, &typ, &a.Balance, &a.OpeningBalance,
		&a.MinimumBalance, &a.MonthlyBudget, &a.IsDefault, &a.CreatedAt, &a.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	a.Type = models.AccountType(typ)
	return a, nil
}

// CreateAccount persists a new account.
func (q *queries) CreateAccount(ctx context.Context, a *models.Account) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.CreatedAt == 0 {
		a.CreatedAt = now()
	}
	a.UpdatedAt = a.CreatedAt

	_, err := q.exec(ctx, `
		INSERT INTO accounts (id, user_id, name, type, balance, opening_balance,
			minimum_balance, monthly_budget, is_default, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.UserID, a.Name, string(a.Type), a.Balance, a.OpeningBalance,
		a.MinimumBalance, a.MonthlyBudget, a.IsDefault, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert account: %w", err)
	}

	return nil
}

// GetAccount retrieves an account with its transaction count.
func (q *queries) GetAccount(ctx context.Context, accountID string) (*models.Account, error) {
	row := q.queryRow(ctx,
		`SELECT `+accountColumns+`, `+accountCountColumn+` FROM accounts a WHERE a.id = ?`,
		accountID,
	)

	var count int
	a, err := scanAccount(row, &count)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("account %s: %w", accountID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	a.TransactionCount = count

	return a, nil
}

// LockAccounts reads and locks accounts one row at a time in ascending ID order,
// so that two units touching the same accounts always queue in the same order.
func (q *queries) LockAccounts(ctx context.Context, accountIDs ...string) (map[string]*models.Account, error) {
	ids := slices.Clone(accountIDs)
	slices.Sort(ids)
	ids = slices.Compact(ids)

	accounts := make(map[string]*models.Account, len(ids))
	for _, id := range ids {
		row := q.queryRow(ctx,
			`SELECT `+accountColumns+` FROM accounts a WHERE a.id = ?`+q.dialect.LockClause,
			id,
		)
		a, err := scanAccount(row)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to lock account %s: %w", id, err)
		}
		accounts[id] = a
	}

	return accounts, nil
}

// ListAccounts retrieves all accounts of a user, newest first.
func (q *queries) ListAccounts(ctx context.Context, userID string) ([]*models.Account, error) {
	rows, err := q.query(ctx,
		`SELECT `+accountColumns+`, `+accountCountColumn+`
		 FROM accounts a WHERE a.user_id = ? ORDER BY a.created_at DESC, a.id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*models.Account
	for rows.Next() {
		var count int
		a, err := scanAccount(rows, &count)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		a.TransactionCount = count
		accounts = append(accounts, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate accounts: %w", err)
	}

	return accounts, nil
}

// UpdateAccount writes the account settings. The balance is left untouched.
func (q *queries) UpdateAccount(ctx context.Context, a *models.Account) error {
	a.UpdatedAt = now()

	res, err := q.exec(ctx, `
		UPDATE accounts
		SET name = ?, type = ?, minimum_balance = ?, monthly_budget = ?, is_default = ?, updated_at = ?
		WHERE id = ?`,
		a.Name, string(a.Type), a.MinimumBalance, a.MonthlyBudget, a.IsDefault, a.UpdatedAt, a.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}

	return requireRow(res, "account", a.ID)
}

// SetAccountBalance overwrites the stored balance of an account.
func (q *queries) SetAccountBalance(ctx context.Context, accountID string, balance decimal.Decimal) error {
	res, err := q.exec(ctx,
		`UPDATE accounts SET balance = ?, updated_at = ? WHERE id = ?`,
		balance, now(), accountID,
	)
	if err != nil {
		return fmt.Errorf("failed to set account balance: %w", err)
	}

	return requireRow(res, "account", accountID)
}

// ClearDefaultAccount unsets the default flag on all of a user's accounts.
func (q *queries) ClearDefaultAccount(ctx context.Context, userID string) error {
	_, err := q.exec(ctx,
		`UPDATE accounts SET is_default = ?, updated_at = ? WHERE user_id = ? AND is_default = ?`,
		false, now(), userID, true,
	)
	if err != nil {
		return fmt.Errorf("failed to clear default account: %w", err)
	}
	return nil
}

func requireRow(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, storage.ErrNotFound)
	}
	return nil
}
