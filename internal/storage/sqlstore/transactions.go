package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/mmynk/fintrack/internal/models"
	"github.com/mmynk/fintrack/internal/storage"
)

const transactionColumns = `id, account_id, user_id, type, amount, date, category, description,
	is_recurring, recurring_interval, next_recurring_date, exclude_from_budget, status,
	split_request_id, created_at, updated_at`

func scanTransaction(row scanner) (*models.Transaction, error) {
	t := &models.Transaction{}
	var (
		typ, interval, status string
		date                  int64
		nextDate              sql.NullInt64
		splitID               sql.NullString
	)

	err := row.Scan(&t.ID, &t.AccountID, &t.UserID, &typ, &t.Amount, &date, &t.Category, &t.Description,
		&t.IsRecurring, &interval, &nextDate, &t.ExcludeFromBudget, &status,
		&splitID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}

	t.Type = models.TransactionType(typ)
	t.RecurringInterval = models.RecurringInterval(interval)
	t.Status = models.TransactionStatus(status)
	t.Date = fromUnix(date)
	if nextDate.Valid {
		next := fromUnix(nextDate.Int64)
		t.NextRecurringDate = &next
	}
	if splitID.Valid {
		t.SplitRequestID = splitID.String
	}

	return t, nil
}

func nextDateArg(t *models.Transaction) any {
	if t.NextRecurringDate == nil {
		return nil
	}
	return unixDate(*t.NextRecurringDate)
}

// InsertTransaction persists a new ledger entry.
func (q *queries) InsertTransaction(ctx context.Context, t *models.Transaction) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.CreatedAt == 0 {
		t.CreatedAt = now()
	}
	if t.Status == "" {
		t.Status = models.StatusCompleted
	}
	t.UpdatedAt = t.CreatedAt

	_, err := q.exec(ctx, `
		INSERT INTO transactions (`+transactionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.AccountID, t.UserID, string(t.Type), t.Amount, unixDate(t.Date), t.Category, t.Description,
		t.IsRecurring, string(t.RecurringInterval), nextDateArg(t), t.ExcludeFromBudget, string(t.Status),
		nullString(t.SplitRequestID), t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}

	return nil
}

// GetTransaction retrieves a ledger entry by ID.
func (q *queries) GetTransaction(ctx context.Context, id string) (*models.Transaction, error) {
	t, err := scanTransaction(q.queryRow(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("transaction %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return t, nil
}

// LockTransactions reads the ledger entries that exist among ids and locks
// them in ascending ID order.
func (q *queries) LockTransactions(ctx context.Context, ids ...string) ([]*models.Transaction, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := q.query(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id IN (`+placeholders(len(ids))+`) ORDER BY id`+q.dialect.LockClause,
		stringArgs(ids)...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to lock transactions: %w", err)
	}
	defer rows.Close()

	return collectTransactions(rows)
}

// UpdateTransaction rewrites the mutable columns of a ledger entry.
func (q *queries) UpdateTransaction(ctx context.Context, t *models.Transaction) error {
	t.UpdatedAt = now()

	res, err := q.exec(ctx, `
		UPDATE transactions
		SET account_id = ?, type = ?, amount = ?, date = ?, category = ?, description = ?,
			is_recurring = ?, recurring_interval = ?, next_recurring_date = ?,
			exclude_from_budget = ?, status = ?, updated_at = ?
		WHERE id = ?`,
		t.AccountID, string(t.Type), t.Amount, unixDate(t.Date), t.Category, t.Description,
		t.IsRecurring, string(t.RecurringInterval), nextDateArg(t),
		t.ExcludeFromBudget, string(t.Status), t.UpdatedAt, t.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}

	return requireRow(res, "transaction", t.ID)
}

// DeleteTransactions removes ledger entries by ID.
func (q *queries) DeleteTransactions(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	res, err := q.exec(ctx,
		`DELETE FROM transactions WHERE id IN (`+placeholders(len(ids))+`)`,
		stringArgs(ids)...,
	)
	if err != nil {
		return fmt.Errorf("failed to delete transactions: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n != int64(len(ids)) {
		return fmt.Errorf("deleted %d of %d transactions: %w", n, len(ids), storage.ErrNotFound)
	}
	return nil
}

func filterClause(f storage.TransactionFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.AccountID != "" {
		conds = append(conds, "account_id = ?")
		args = append(args, f.AccountID)
	}
	if f.UserID != "" {
		conds = append(conds, "user_id = ?")
		args = append(args, f.UserID)
	}
	if f.Type != "" {
		conds = append(conds, "type = ?")
		args = append(args, string(f.Type))
	}
	if f.From != nil {
		conds = append(conds, "date >= ?")
		args = append(args, unixDate(*f.From))
	}
	if f.To != nil {
		conds = append(conds, "date <= ?")
		args = append(args, unixDate(*f.To))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// ListTransactions retrieves ledger entries matching the filter, newest first.
func (q *queries) ListTransactions(ctx context.Context, f storage.TransactionFilter) ([]*models.Transaction, error) {
	where, args := filterClause(f)
	query := `SELECT ` + transactionColumns + ` FROM transactions` + where +
		` ORDER BY date DESC, created_at DESC, id`
	if f.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, f.Limit, f.Offset)
	}

	rows, err := q.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	return collectTransactions(rows)
}

// CountTransactions counts ledger entries matching the filter.
func (q *queries) CountTransactions(ctx context.Context, f storage.TransactionFilter) (int, error) {
	where, args := filterClause(f)

	var n int
	if err := q.queryRow(ctx, `SELECT COUNT(*) FROM transactions`+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return n, nil
}

func collectTransactions(rows *sql.Rows) ([]*models.Transaction, error) {
	var out []*models.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}
	return out, nil
}
