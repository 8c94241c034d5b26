package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mmynk/fintrack/internal/models"
	"github.com/mmynk/fintrack/internal/storage"
)

// UpsertUser inserts a user or refreshes the identity fields of an existing one.
func (q *queries) UpsertUser(ctx context.Context, user *models.User) error {
	if user.CreatedAt == 0 {
		user.CreatedAt = time.Now().Unix()
	}

	_, err := q.exec(ctx, `
		INSERT INTO users (id, email, display_name, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			email = excluded.email,
			display_name = excluded.display_name
	`, user.ID, user.Email, user.DisplayName, user.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}

	return nil
}

// LockUser locks a user row. On SQLite the unit of work already holds the
// write lock, so this only checks that the user exists.
func (q *queries) LockUser(ctx context.Context, userID string) error {
	var id string
	err := q.queryRow(ctx, `SELECT id FROM users WHERE id = ?`+q.dialect.LockClause, userID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("user %s: %w", userID, storage.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to lock user: %w", err)
	}
	return nil
}

// GetUsersByIDs retrieves multiple users by their IDs.
// Returns a map of user ID to User object.
// Users that don't exist are omitted from the result.
func (q *queries) GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error) {
	users := make(map[string]*models.User, len(ids))
	if len(ids) == 0 {
		return users, nil
	}

	rows, err := q.query(ctx, `
		SELECT id, email, display_name, created_at
		FROM users
		WHERE id IN (`+placeholders(len(ids))+`)`,
		stringArgs(ids)...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get users by IDs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		user := &models.User{}
		if err := rows.Scan(&user.ID, &user.Email, &user.DisplayName, &user.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users[user.ID] = user
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}

// SaveFriendship inserts a directed friendship row or updates its status.
func (q *queries) SaveFriendship(ctx context.Context, f *models.Friendship) error {
	if f.CreatedAt == 0 {
		f.CreatedAt = time.Now().Unix()
	}

	_, err := q.exec(ctx, `
		INSERT INTO friendships (requester_id, addressee_id, status, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (requester_id, addressee_id) DO UPDATE SET status = excluded.status
	`, f.RequesterID, f.AddresseeID, string(f.Status), f.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save friendship: %w", err)
	}

	return nil
}

// AreFriends checks both directions of the friendship for an ACCEPTED row.
func (q *queries) AreFriends(ctx context.Context, userID, otherID string) (bool, error) {
	var n int
	err := q.queryRow(ctx, `
		SELECT COUNT(*) FROM friendships
		WHERE status = ?
		  AND ((requester_id = ? AND addressee_id = ?) OR (requester_id = ? AND addressee_id = ?))
	`, string(models.FriendshipAccepted), userID, otherID, otherID, userID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check friendship: %w", err)
	}
	return n > 0, nil
}
