// Package split runs the split-settlement protocol: a requester shares an
// expense with friends, each friend approves (paying their share from an
// account of their choice) or declines, and the requester resolves declines.
//
// Every balance effect goes through the ledger inside the same unit of work
// as the split state change.
package split

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mmynk/fintrack/internal/ledger"
	"github.com/mmynk/fintrack/internal/metrics"
	"github.com/mmynk/fintrack/internal/models"
	"github.com/mmynk/fintrack/internal/storage"
)

// FriendChecker reports whether two users are mutually ACCEPTED friends.
type FriendChecker interface {
	AreFriends(ctx context.Context, userID, otherID string) (bool, error)
}

// Action is a requester's resolution of declined shares.
type Action string

const (
	// ActionReRequest puts declined participants back to PENDING.
	ActionReRequest Action = "re-request"
	// ActionPayFull debits the declined shares from the requester and completes the split.
	ActionPayFull Action = "pay-full"
	// ActionCompleteWithoutAdding completes the split without any ledger entry.
	ActionCompleteWithoutAdding Action = "complete-without-adding"
)

// Coordinator drives split requests through their lifecycle.
type Coordinator struct {
	store   storage.Store
	ledger  *ledger.Ledger
	friends FriendChecker
	metrics *metrics.Metrics
	now     func() time.Time
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithFriendChecker replaces the store-backed friendship lookup.
func WithFriendChecker(f FriendChecker) Option {
	return func(c *Coordinator) { c.friends = f }
}

// WithMetrics records split state transitions.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Coordinator) { c.metrics = m }
}

// WithClock overrides the clock used for approval timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// NewCoordinator creates a Coordinator. Friendships are read from store
// unless WithFriendChecker is given.
func NewCoordinator(store storage.Store, l *ledger.Ledger, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:   store,
		ledger:  l,
		friends: store,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateInput describes a new split request.
type CreateInput struct {
	TotalAmount        decimal.Decimal
	RequesterShare     decimal.Decimal
	Description        string
	Category           string
	Date               time.Time
	RequesterAccountID string
	Participants       []Share
}

func invalidParticipants(format string, args ...any) error {
	return ledger.NewError(ledger.KindInvalidParticipants, format, args...)
}

func invalidInput(format string, args ...any) error {
	return ledger.NewError(ledger.KindInvalidInput, format, args...)
}

func alreadyProcessed(format string, args ...any) error {
	return ledger.NewError(ledger.KindAlreadyProcessed, format, args...)
}

func splitNotFound(id string) error {
	return ledger.NewError(ledger.KindNotFound, "split request %s not found", id)
}

func validateCreate(requesterID string, in CreateInput) error {
	if strings.TrimSpace(in.Description) == "" {
		return invalidInput("description is required")
	}
	if in.RequesterAccountID == "" {
		return invalidInput("requester_account_id is required")
	}
	if !in.TotalAmount.IsPositive() {
		return invalidInput("total_amount must be greater than zero")
	}
	if in.RequesterShare.IsNegative() {
		return invalidInput("requester_share must not be negative")
	}
	if len(in.Participants) == 0 {
		return invalidParticipants("at least one participant is required")
	}

	seen := make(map[string]bool, len(in.Participants))
	for _, p := range in.Participants {
		if p.UserID == "" {
			return invalidParticipants("participant user_id is required")
		}
		if p.UserID == requesterID {
			return invalidParticipants("requester cannot be a participant")
		}
		if seen[p.UserID] {
			return invalidParticipants("participant %s listed more than once", p.UserID)
		}
		seen[p.UserID] = true
		if !p.Amount.IsPositive() {
			return invalidParticipants("share of %s must be greater than zero", p.UserID)
		}
		if !p.Amount.Equal(p.Amount.Truncate(2)) {
			return invalidParticipants("share of %s must have at most two decimal places", p.UserID)
		}
	}

	if sum := sumShares(in.Participants).Add(in.RequesterShare); !sum.Equal(in.TotalAmount) {
		return invalidParticipants("shares add up to %s but total is %s", sum.StringFixed(2), in.TotalAmount.StringFixed(2))
	}
	return nil
}

// Create opens a split request and debits the requester's share in one unit of work.
func (c *Coordinator) Create(ctx context.Context, requesterID string, in CreateInput) (*models.SplitRequest, error) {
	if err := validateCreate(requesterID, in); err != nil {
		return nil, err
	}

	ids := make([]string, len(in.Participants))
	for i, p := range in.Participants {
		ids[i] = p.UserID
	}
	users, err := c.store.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		if _, ok := users[id]; !ok {
			return nil, invalidParticipants("user %s does not exist", id)
		}
		ok, err := c.friends.AreFriends(ctx, requesterID, id)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, invalidParticipants("user %s is not a friend", id)
		}
	}

	split := &models.SplitRequest{
		ID:                 uuid.New().String(),
		RequesterID:        requesterID,
		RequesterAccountID: in.RequesterAccountID,
		OriginalAmount:     in.TotalAmount,
		SplitAmount:        in.RequesterShare,
		Description:        strings.TrimSpace(in.Description),
		Category:           in.Category,
		Date:               in.Date,
		Status:             models.SplitPending,
	}
	if split.Date.IsZero() {
		split.Date = c.now()
	}
	y, m, d := split.Date.UTC().Date()
	split.Date = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	for _, p := range in.Participants {
		split.Participants = append(split.Participants, models.SplitParticipant{
			UserID: p.UserID,
			Amount: p.Amount,
			Status: models.ParticipantPending,
		})
	}

	err = c.store.WithTx(ctx, func(ctx context.Context, q storage.Queries) error {
		if split.SplitAmount.IsPositive() {
			t, err := c.ledger.Post(ctx, q, requesterID, ledger.Draft{
				AccountID:   split.RequesterAccountID,
				Type:        models.Expense,
				Amount:      split.SplitAmount,
				Date:        split.Date,
				Category:    split.Category,
				Description: "Split: " + split.Description,
			}, split.ID)
			if err != nil {
				return err
			}
			split.RequesterTransactionID = t.ID
		} else {
			a, err := q.GetAccount(ctx, split.RequesterAccountID)
			if errors.Is(err, storage.ErrNotFound) || (err == nil && a.UserID != requesterID) {
				return ledger.NewError(ledger.KindNotFound, "account %s not found", split.RequesterAccountID)
			}
			if err != nil {
				return err
			}
		}
		return q.CreateSplit(ctx, split)
	})
	if err != nil {
		return nil, err
	}

	c.metrics.SplitTransition("request", string(models.SplitPending))
	slog.Info("Split request created",
		"split_id", split.ID,
		"requester_id", requesterID,
		"total", split.OriginalAmount.String(),
		"participants", len(split.Participants),
	)
	return split, nil
}

// lockForParticipant locks a split and returns the caller's participant row.
func lockForParticipant(ctx context.Context, q storage.Queries, splitID, userID string) (*models.SplitRequest, *models.SplitParticipant, error) {
	split, err := q.LockSplit(ctx, splitID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil, splitNotFound(splitID)
	}
	if err != nil {
		return nil, nil, err
	}

	p := split.Participant(userID)
	if p == nil {
		return nil, nil, splitNotFound(splitID)
	}
	if p.Status != models.ParticipantPending {
		return nil, nil, alreadyProcessed("split request already %s", strings.ToLower(string(p.Status)))
	}
	if split.Status != models.SplitPending {
		return nil, nil, alreadyProcessed("split request is %s", strings.ToLower(string(split.Status)))
	}
	return split, p, nil
}

// Approve pays the caller's share from accountID. When every participant has
// approved, the request completes in the same unit of work.
func (c *Coordinator) Approve(ctx context.Context, splitID, userID, accountID string) (*models.SplitRequest, error) {
	if accountID == "" {
		return nil, invalidInput("account_id is required to approve")
	}

	var result *models.SplitRequest
	err := c.store.WithTx(ctx, func(ctx context.Context, q storage.Queries) error {
		split, p, err := lockForParticipant(ctx, q, splitID, userID)
		if err != nil {
			return err
		}

		t, err := c.ledger.Post(ctx, q, userID, ledger.Draft{
			AccountID:   accountID,
			Type:        models.Expense,
			Amount:      p.Amount,
			Date:        c.now(),
			Category:    split.Category,
			Description: "Split: " + split.Description,
		}, split.ID)
		if err != nil {
			return err
		}

		p.Status = models.ParticipantApproved
		p.AccountID = accountID
		p.ApprovedAt = c.now().Unix()
		p.TransactionID = t.ID
		if err := q.UpdateParticipant(ctx, p); err != nil {
			return err
		}

		if split.AllApproved() {
			split.Status = models.SplitCompleted
			if err := q.UpdateSplit(ctx, split); err != nil {
				return err
			}
		}
		result = split
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.metrics.SplitTransition("participant", string(models.ParticipantApproved))
	if result.Status == models.SplitCompleted {
		c.metrics.SplitTransition("request", string(models.SplitCompleted))
	}
	slog.Info("Split share approved", "split_id", splitID, "user_id", userID, "status", result.Status)
	return result, nil
}

// Decline marks the caller's share as declined. The request stays PENDING
// until the requester resolves it.
func (c *Coordinator) Decline(ctx context.Context, splitID, userID string) (*models.SplitRequest, error) {
	var result *models.SplitRequest
	err := c.store.WithTx(ctx, func(ctx context.Context, q storage.Queries) error {
		split, p, err := lockForParticipant(ctx, q, splitID, userID)
		if err != nil {
			return err
		}
		p.Status = models.ParticipantDeclined
		if err := q.UpdateParticipant(ctx, p); err != nil {
			return err
		}
		result = split
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.metrics.SplitTransition("participant", string(models.ParticipantDeclined))
	slog.Info("Split share declined", "split_id", splitID, "user_id", userID)
	return result, nil
}

// ResolveInput selects how declined shares are settled.
type ResolveInput struct {
	Action Action
	// AccountID is the account pay-full debits; defaults to the split's requester account.
	AccountID string
	// ParticipantIDs narrows re-request to these participants (participant or user IDs).
	ParticipantIDs []string
}

// lockForRequester locks a split the caller created and requires it to be PENDING.
func lockForRequester(ctx context.Context, q storage.Queries, splitID, requesterID string) (*models.SplitRequest, error) {
	split, err := q.LockSplit(ctx, splitID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, splitNotFound(splitID)
	}
	if err != nil {
		return nil, err
	}
	if split.RequesterID != requesterID {
		if split.Participant(requesterID) != nil {
			return nil, ledger.NewError(ledger.KindForbidden, "only the requester can change split request %s", splitID)
		}
		return nil, splitNotFound(splitID)
	}
	if split.Status != models.SplitPending {
		return nil, alreadyProcessed("split request is %s", strings.ToLower(string(split.Status)))
	}
	return split, nil
}

// Resolve applies the requester's decision about declined shares.
func (c *Coordinator) Resolve(ctx context.Context, requesterID, splitID string, in ResolveInput) (*models.SplitRequest, error) {
	var result *models.SplitRequest
	err := c.store.WithTx(ctx, func(ctx context.Context, q storage.Queries) error {
		split, err := lockForRequester(ctx, q, splitID, requesterID)
		if err != nil {
			return err
		}

		switch in.Action {
		case ActionReRequest:
			err = c.reRequest(ctx, q, split, in.ParticipantIDs)
		case ActionPayFull:
			err = c.payFull(ctx, q, split, in.AccountID)
		case ActionCompleteWithoutAdding:
			err = c.completeWithoutAdding(ctx, q, split)
		default:
			err = invalidInput("unknown resolve action %q", in.Action)
		}
		if err != nil {
			return err
		}
		result = split
		return nil
	})
	if err != nil {
		return nil, err
	}

	switch in.Action {
	case ActionReRequest:
		c.metrics.SplitTransition("participant", string(models.ParticipantPending))
	default:
		c.metrics.SplitTransition("request", string(models.SplitCompleted))
	}
	slog.Info("Split request resolved", "split_id", splitID, "action", in.Action, "status", result.Status)
	return result, nil
}

func (c *Coordinator) reRequest(ctx context.Context, q storage.Queries, split *models.SplitRequest, only []string) error {
	filter := make(map[string]bool, len(only))
	for _, id := range only {
		filter[id] = true
	}

	n := 0
	for i := range split.Participants {
		p := &split.Participants[i]
		if p.Status != models.ParticipantDeclined {
			continue
		}
		if len(filter) > 0 && !filter[p.ID] && !filter[p.UserID] {
			continue
		}
		p.Status = models.ParticipantPending
		p.AccountID = ""
		p.ApprovedAt = 0
		p.TransactionID = ""
		if err := q.UpdateParticipant(ctx, p); err != nil {
			return err
		}
		n++
	}
	if n == 0 {
		return invalidInput("no declined participants to re-request")
	}
	return nil
}

// requireSettled refuses to complete a split while shares are still awaiting an answer.
func requireSettled(split *models.SplitRequest) (decimal.Decimal, error) {
	if pending := split.ParticipantsWithStatus(models.ParticipantPending); len(pending) > 0 {
		return decimal.Zero, invalidInput("%d participant(s) have not responded yet", len(pending))
	}
	declined := decimal.Zero
	for _, p := range split.ParticipantsWithStatus(models.ParticipantDeclined) {
		declined = declined.Add(p.Amount)
	}
	return declined, nil
}

func (c *Coordinator) payFull(ctx context.Context, q storage.Queries, split *models.SplitRequest, accountID string) error {
	declined, err := requireSettled(split)
	if err != nil {
		return err
	}
	if !declined.IsPositive() {
		return invalidInput("no declined amount to pay")
	}
	if accountID == "" {
		accountID = split.RequesterAccountID
	}

	t, err := c.ledger.Post(ctx, q, split.RequesterID, ledger.Draft{
		AccountID:   accountID,
		Type:        models.Expense,
		Amount:      declined,
		Date:        c.now(),
		Category:    split.Category,
		Description: "Split (rejected portion): " + split.Description,
	}, split.ID)
	if err != nil {
		return err
	}

	split.Status = models.SplitCompleted
	split.RejectedTransactionID = t.ID
	return q.UpdateSplit(ctx, split)
}

func (c *Coordinator) completeWithoutAdding(ctx context.Context, q storage.Queries, split *models.SplitRequest) error {
	declined, err := requireSettled(split)
	if err != nil {
		return err
	}

	split.Status = models.SplitCompleted
	split.UserPaidFull = true
	if err := q.UpdateSplit(ctx, split); err != nil {
		return err
	}

	slog.Info("Declined shares absorbed without ledger entry",
		"split_id", split.ID,
		"requester_id", split.RequesterID,
		"amount", declined.String(),
	)
	return nil
}

// Cancel withdraws a split request. The requester's debit and every approved
// participant's debit are reversed through the ledger in the same unit of work.
func (c *Coordinator) Cancel(ctx context.Context, requesterID, splitID string) (*models.SplitRequest, error) {
	var result *models.SplitRequest
	err := c.store.WithTx(ctx, func(ctx context.Context, q storage.Queries) error {
		split, err := lockForRequester(ctx, q, splitID, requesterID)
		if err != nil {
			return err
		}

		var (
			accountIDs = []string{split.RequesterAccountID}
			reversals  []string
		)
		if split.RequesterTransactionID != "" {
			reversals = append(reversals, split.RequesterTransactionID)
		}
		for _, p := range split.ParticipantsWithStatus(models.ParticipantApproved) {
			accountIDs = append(accountIDs, p.AccountID)
			if p.TransactionID != "" {
				reversals = append(reversals, p.TransactionID)
			}
		}

		// Take every account lock up front, in ID order.
		if _, err := q.LockAccounts(ctx, accountIDs...); err != nil {
			return err
		}
		for _, id := range reversals {
			if _, err := c.ledger.Reverse(ctx, q, id); err != nil {
				return err
			}
		}

		split.Status = models.SplitCancelled
		if err := q.UpdateSplit(ctx, split); err != nil {
			return err
		}
		result = split
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.metrics.SplitTransition("request", string(models.SplitCancelled))
	slog.Info("Split request cancelled", "split_id", splitID, "requester_id", requesterID)
	return result, nil
}

// Get returns a split request visible to the caller as requester or participant.
func (c *Coordinator) Get(ctx context.Context, userID, splitID string) (*models.SplitRequest, error) {
	split, err := c.store.GetSplit(ctx, splitID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, splitNotFound(splitID)
	}
	if err != nil {
		return nil, err
	}
	if split.RequesterID != userID && split.Participant(userID) == nil {
		return nil, splitNotFound(splitID)
	}
	return split, nil
}

// Lists groups the split requests a user is involved in.
type Lists struct {
	Created       []*models.SplitRequest
	Participating []*models.SplitRequest
}

// List returns the split requests the caller created and those they take part in.
func (c *Coordinator) List(ctx context.Context, userID string) (*Lists, error) {
	created, err := c.store.ListSplitsByRequester(ctx, userID)
	if err != nil {
		return nil, err
	}
	participating, err := c.store.ListSplitsByParticipant(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Lists{Created: created, Participating: participating}, nil
}
