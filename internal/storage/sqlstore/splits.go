package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/mmynk/fintrack/internal/models"
	"github.com/mmynk/fintrack/internal/storage"
)

const splitColumns = `id, requester_id, requester_account_id, original_amount, split_amount,
	description, category, date, status, requester_transaction_id, rejected_transaction_id,
	user_paid_full, created_at, updated_at`

// CreateSplit persists a split request and its participants.
func (q *queries) CreateSplit(ctx context.Context, split *models.SplitRequest) error {
	if split.ID == "" {
		split.ID = uuid.New().String()
	}
	if split.CreatedAt == 0 {
		split.CreatedAt = now()
	}
	if split.Status == "" {
		split.Status = models.SplitPending
	}
	split.UpdatedAt = split.CreatedAt

	_, err := q.exec(ctx, `
		INSERT INTO split_requests (`+splitColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		split.ID, split.RequesterID, split.RequesterAccountID, split.OriginalAmount, split.SplitAmount,
		split.Description, split.Category, unixDate(split.Date), string(split.Status),
		nullString(split.RequesterTransactionID), nullString(split.RejectedTransactionID),
		split.UserPaidFull, split.CreatedAt, split.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert split request: %w", err)
	}

	for i := range split.Participants {
		p := &split.Participants[i]
		if p.ID == "" {
			p.ID = uuid.New().String()
		}
		if p.Status == "" {
			p.Status = models.ParticipantPending
		}
		p.SplitRequestID = split.ID

		_, err := q.exec(ctx, `
			INSERT INTO split_participants (id, split_request_id, user_id, amount, status,
				account_id, approved_at, transaction_id, position)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.SplitRequestID, p.UserID, p.Amount, string(p.Status),
			nullString(p.AccountID), nullUnix(p.ApprovedAt), nullString(p.TransactionID), i,
		)
		if err != nil {
			return fmt.Errorf("failed to insert split participant: %w", err)
		}
	}

	return nil
}

func scanSplit(row scanner) (*models.SplitRequest, error) {
	s := &models.SplitRequest{}
	var (
		status      string
		date        int64
		requesterTx sql.NullString
		rejectTx    sql.NullString
	)
	err := row.Scan(&s.ID, &s.RequesterID, &s.RequesterAccountID, &s.OriginalAmount, &s.SplitAmount,
		&s.Description, &s.Category, &date, &status, &requesterTx, &rejectTx,
		&s.UserPaidFull, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	s.Status = models.SplitStatus(status)
	s.Date = fromUnix(date)
	s.RequesterTransactionID = requesterTx.String
	s.RejectedTransactionID = rejectTx.String
	return s, nil
}

// GetSplit retrieves a split request with its participants.
func (q *queries) GetSplit(ctx context.Context, id string) (*models.SplitRequest, error) {
	return q.getSplit(ctx, id, "")
}

// LockSplit retrieves a split request and locks its row for the rest of the unit of work.
func (q *queries) LockSplit(ctx context.Context, id string) (*models.SplitRequest, error) {
	return q.getSplit(ctx, id, q.dialect.LockClause)
}

func (q *queries) getSplit(ctx context.Context, id, lockClause string) (*models.SplitRequest, error) {
	split, err := scanSplit(q.queryRow(ctx,
		`SELECT `+splitColumns+` FROM split_requests WHERE id = ?`+lockClause, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("split request %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get split request: %w", err)
	}

	if err := q.loadParticipants(ctx, split); err != nil {
		return nil, err
	}
	return split, nil
}

func (q *queries) loadParticipants(ctx context.Context, split *models.SplitRequest) error {
	rows, err := q.query(ctx, `
		SELECT id, split_request_id, user_id, amount, status, account_id, approved_at, transaction_id
		FROM split_participants
		WHERE split_request_id = ?
		ORDER BY position`,
		split.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to get split participants: %w", err)
	}
	defer rows.Close()

	split.Participants = nil
	for rows.Next() {
		var (
			p           models.SplitParticipant
			status      string
			accountID   sql.NullString
			approvedAt  sql.NullInt64
			transaction sql.NullString
		)
		if err := rows.Scan(&p.ID, &p.SplitRequestID, &p.UserID, &p.Amount, &status,
			&accountID, &approvedAt, &transaction); err != nil {
			return fmt.Errorf("failed to scan split participant: %w", err)
		}
		p.Status = models.ParticipantStatus(status)
		p.AccountID = accountID.String
		p.ApprovedAt = approvedAt.Int64
		p.TransactionID = transaction.String
		split.Participants = append(split.Participants, p)
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate split participants: %w", err)
	}
	return nil
}

// UpdateSplit writes the mutable fields of a split request.
func (q *queries) UpdateSplit(ctx context.Context, split *models.SplitRequest) error {
	split.UpdatedAt = now()

	res, err := q.exec(ctx, `
		UPDATE split_requests
		SET status = ?, requester_transaction_id = ?, rejected_transaction_id = ?,
			user_paid_full = ?, updated_at = ?
		WHERE id = ?`,
		string(split.Status), nullString(split.RequesterTransactionID),
		nullString(split.RejectedTransactionID), split.UserPaidFull, split.UpdatedAt, split.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update split request: %w", err)
	}

	return requireRow(res, "split request", split.ID)
}

// UpdateParticipant writes the mutable fields of a participant row.
func (q *queries) UpdateParticipant(ctx context.Context, p *models.SplitParticipant) error {
	res, err := q.exec(ctx, `
		UPDATE split_participants
		SET status = ?, account_id = ?, approved_at = ?, transaction_id = ?
		WHERE id = ?`,
		string(p.Status), nullString(p.AccountID), nullUnix(p.ApprovedAt), nullString(p.TransactionID), p.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update split participant: %w", err)
	}

	return requireRow(res, "split participant", p.ID)
}

// ListSplitsByRequester retrieves split requests created by a user, newest first.
func (q *queries) ListSplitsByRequester(ctx context.Context, userID string) ([]*models.SplitRequest, error) {
	return q.listSplits(ctx, `
		SELECT `+splitColumns+` FROM split_requests
		WHERE requester_id = ?
		ORDER BY created_at DESC, id`, userID)
}

// ListSplitsByParticipant retrieves split requests a user takes part in, newest first.
func (q *queries) ListSplitsByParticipant(ctx context.Context, userID string) ([]*models.SplitRequest, error) {
	return q.listSplits(ctx, `
		SELECT `+splitColumns+` FROM split_requests
		WHERE id IN (SELECT split_request_id FROM split_participants WHERE user_id = ?)
		ORDER BY created_at DESC, id`, userID)
}

func (q *queries) listSplits(ctx context.Context, query string, args ...any) ([]*models.SplitRequest, error) {
	rows, err := q.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list split requests: %w", err)
	}

	var splits []*models.SplitRequest
	for rows.Next() {
		split, err := scanSplit(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan split request: %w", err)
		}
		splits = append(splits, split)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to iterate split requests: %w", err)
	}

	// Participants are loaded after the outer cursor is closed; a transaction
	// holds a single connection and cannot interleave two result sets.
	for _, split := range splits {
		if err := q.loadParticipants(ctx, split); err != nil {
			return nil, err
		}
	}

	return splits, nil
}
