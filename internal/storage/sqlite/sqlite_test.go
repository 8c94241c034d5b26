package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/fintrack/internal/models"
	"github.com/mmynk/fintrack/internal/storage"
	"github.com/mmynk/fintrack/internal/storage/sqlstore"
)

func newTestStore(t *testing.T) *sqlstore.Store {
	t.Helper()

	store, err := New(filepath.Join(t.TempDir(), "test.db"), 5*time.Second)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func seedUser(t *testing.T, store storage.Store, id string) {
	t.Helper()
	if err := store.UpsertUser(context.Background(), models.NewUser(id, id+"@example.com", id)); err != nil {
		t.Fatalf("UpsertUser failed: %v", err)
	}
}

func seedAccount(t *testing.T, store storage.Store, userID, name string, balance int64) *models.Account {
	t.Helper()
	a := &models.Account{
		UserID:         userID,
		Name:           name,
		Type:           models.AccountCurrent,
		Balance:        decimal.NewFromInt(balance),
		OpeningBalance: decimal.NewFromInt(balance),
		MinimumBalance: models.DefaultMinimumBalance,
		MonthlyBudget:  models.DefaultMonthlyBudget,
	}
	if err := store.CreateAccount(context.Background(), a); err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}
	return a
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestUsersAndFriendships(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	seedUser(t, store, "alice")
	seedUser(t, store, "bob")
	seedUser(t, store, "carol")

	t.Run("UpsertUser refreshes identity fields", func(t *testing.T) {
		if err := store.UpsertUser(ctx, models.NewUser("alice", "alice@new.example.com", "Alice")); err != nil {
			t.Fatalf("UpsertUser failed: %v", err)
		}
		users, err := store.GetUsersByIDs(ctx, []string{"alice", "nobody"})
		if err != nil {
			t.Fatalf("GetUsersByIDs failed: %v", err)
		}
		if len(users) != 1 {
			t.Fatalf("Expected 1 user, got %d", len(users))
		}
		if users["alice"].DisplayName != "Alice" {
			t.Errorf("DisplayName = %q, want %q", users["alice"].DisplayName, "Alice")
		}
	})

	t.Run("AreFriends checks both directions", func(t *testing.T) {
		err := store.SaveFriendship(ctx, &models.Friendship{
			RequesterID: "alice",
			AddresseeID: "bob",
			Status:      models.FriendshipAccepted,
		})
		if err != nil {
			t.Fatalf("SaveFriendship failed: %v", err)
		}

		for _, pair := range [][2]string{{"alice", "bob"}, {"bob", "alice"}} {
			ok, err := store.AreFriends(ctx, pair[0], pair[1])
			if err != nil {
				t.Fatalf("AreFriends failed: %v", err)
			}
			if !ok {
				t.Errorf("Expected %s and %s to be friends", pair[0], pair[1])
			}
		}
	})

	t.Run("Pending friendship does not count", func(t *testing.T) {
		err := store.SaveFriendship(ctx, &models.Friendship{
			RequesterID: "alice",
			AddresseeID: "carol",
			Status:      models.FriendshipPending,
		})
		if err != nil {
			t.Fatalf("SaveFriendship failed: %v", err)
		}
		ok, err := store.AreFriends(ctx, "carol", "alice")
		if err != nil {
			t.Fatalf("AreFriends failed: %v", err)
		}
		if ok {
			t.Error("Expected pending friendship not to count")
		}
	})
}

func TestAccounts(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedUser(t, store, "alice")

	first := seedAccount(t, store, "alice", "Salary", 1000)
	second := seedAccount(t, store, "alice", "Holiday", 50)

	t.Run("GetAccount round-trips decimals", func(t *testing.T) {
		got, err := store.GetAccount(ctx, first.ID)
		if err != nil {
			t.Fatalf("GetAccount failed: %v", err)
		}
		if !got.Balance.Equal(decimal.NewFromInt(1000)) {
			t.Errorf("Balance = %s, want 1000", got.Balance)
		}
		if !got.MinimumBalance.Equal(models.DefaultMinimumBalance) {
			t.Errorf("MinimumBalance = %s, want %s", got.MinimumBalance, models.DefaultMinimumBalance)
		}
	})

	t.Run("GetAccount returns ErrNotFound", func(t *testing.T) {
		_, err := store.GetAccount(ctx, "missing")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("LockAccounts skips missing accounts", func(t *testing.T) {
		err := store.WithTx(ctx, func(ctx context.Context, q storage.Queries) error {
			locked, err := q.LockAccounts(ctx, second.ID, "missing", first.ID, second.ID)
			if err != nil {
				return err
			}
			if len(locked) != 2 {
				t.Errorf("Expected 2 locked accounts, got %d", len(locked))
			}
			return nil
		})
		if err != nil {
			t.Fatalf("WithTx failed: %v", err)
		}
	})

	t.Run("SetAccountBalance and ClearDefaultAccount", func(t *testing.T) {
		first.IsDefault = true
		if err := store.UpdateAccount(ctx, first); err != nil {
			t.Fatalf("UpdateAccount failed: %v", err)
		}
		if err := store.SetAccountBalance(ctx, second.ID, decimal.RequireFromString("12.34")); err != nil {
			t.Fatalf("SetAccountBalance failed: %v", err)
		}
		if err := store.ClearDefaultAccount(ctx, "alice"); err != nil {
			t.Fatalf("ClearDefaultAccount failed: %v", err)
		}

		accounts, err := store.ListAccounts(ctx, "alice")
		if err != nil {
			t.Fatalf("ListAccounts failed: %v", err)
		}
		if len(accounts) != 2 {
			t.Fatalf("Expected 2 accounts, got %d", len(accounts))
		}
		for _, a := range accounts {
			if a.IsDefault {
				t.Errorf("Account %s still marked default", a.Name)
			}
			if a.ID == second.ID && a.Balance.String() != "12.34" {
				t.Errorf("Balance = %s, want 12.34", a.Balance)
			}
		}
	})

	t.Run("SetAccountBalance on missing account", func(t *testing.T) {
		err := store.SetAccountBalance(ctx, "missing", decimal.Zero)
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})
}

func TestTransactions(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedUser(t, store, "alice")
	account := seedAccount(t, store, "alice", "Salary", 0)

	next := day(2024, time.February, 1)
	entries := []*models.Transaction{
		{AccountID: account.ID, UserID: "alice", Type: models.Income, Amount: decimal.NewFromInt(500), Date: day(2024, time.January, 1), Category: "salary"},
		{AccountID: account.ID, UserID: "alice", Type: models.Expense, Amount: decimal.NewFromInt(40), Date: day(2024, time.January, 5), Category: "food"},
		{
			AccountID: account.ID, UserID: "alice", Type: models.Expense, Amount: decimal.RequireFromString("9.99"),
			Date: day(2024, time.January, 1), Category: "subscriptions",
			IsRecurring: true, RecurringInterval: models.Monthly, NextRecurringDate: &next,
		},
	}
	for _, e := range entries {
		if err := store.InsertTransaction(ctx, e); err != nil {
			t.Fatalf("InsertTransaction failed: %v", err)
		}
	}

	t.Run("GetTransaction round-trips fields", func(t *testing.T) {
		got, err := store.GetTransaction(ctx, entries[2].ID)
		if err != nil {
			t.Fatalf("GetTransaction failed: %v", err)
		}
		if got.Amount.String() != "9.99" {
			t.Errorf("Amount = %s, want 9.99", got.Amount)
		}
		if got.NextRecurringDate == nil || !got.NextRecurringDate.Equal(next) {
			t.Errorf("NextRecurringDate = %v, want %v", got.NextRecurringDate, next)
		}
		if got.Status != models.StatusCompleted {
			t.Errorf("Status = %s, want COMPLETED", got.Status)
		}
	})

	t.Run("ListTransactions orders newest first", func(t *testing.T) {
		got, err := store.ListTransactions(ctx, storage.TransactionFilter{AccountID: account.ID})
		if err != nil {
			t.Fatalf("ListTransactions failed: %v", err)
		}
		if len(got) != 3 {
			t.Fatalf("Expected 3 transactions, got %d", len(got))
		}
		if got[0].ID != entries[1].ID {
			t.Errorf("Expected the January 5 entry first, got %s", got[0].Category)
		}
	})

	t.Run("Filter by type and window", func(t *testing.T) {
		from := day(2024, time.January, 2)
		filter := storage.TransactionFilter{UserID: "alice", Type: models.Expense, From: &from}
		got, err := store.ListTransactions(ctx, filter)
		if err != nil {
			t.Fatalf("ListTransactions failed: %v", err)
		}
		if len(got) != 1 || got[0].ID != entries[1].ID {
			t.Errorf("Expected only the food expense, got %d entries", len(got))
		}

		n, err := store.CountTransactions(ctx, storage.TransactionFilter{UserID: "alice", Type: models.Expense})
		if err != nil {
			t.Fatalf("CountTransactions failed: %v", err)
		}
		if n != 2 {
			t.Errorf("CountTransactions = %d, want 2", n)
		}
	})

	t.Run("Limit and offset", func(t *testing.T) {
		got, err := store.ListTransactions(ctx, storage.TransactionFilter{AccountID: account.ID, Limit: 2, Offset: 2})
		if err != nil {
			t.Fatalf("ListTransactions failed: %v", err)
		}
		if len(got) != 1 {
			t.Errorf("Expected 1 transaction on the second page, got %d", len(got))
		}
	})

	t.Run("Account reports transaction count", func(t *testing.T) {
		got, err := store.GetAccount(ctx, account.ID)
		if err != nil {
			t.Fatalf("GetAccount failed: %v", err)
		}
		if got.TransactionCount != 3 {
			t.Errorf("TransactionCount = %d, want 3", got.TransactionCount)
		}
	})

	t.Run("DeleteTransactions requires every ID", func(t *testing.T) {
		err := store.WithTx(ctx, func(ctx context.Context, q storage.Queries) error {
			return q.DeleteTransactions(ctx, []string{entries[0].ID, "missing"})
		})
		if !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("Expected ErrNotFound, got %v", err)
		}

		got, err := store.LockTransactions(ctx, entries[1].ID, entries[0].ID, "missing")
		if err != nil {
			t.Fatalf("LockTransactions failed: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("Expected the rollback to keep 2 transactions, got %d", len(got))
		}
		if got[0].ID > got[1].ID {
			t.Errorf("Expected transactions in ID order, got %s before %s", got[0].ID, got[1].ID)
		}

		if err := store.DeleteTransactions(ctx, []string{entries[0].ID}); err != nil {
			t.Fatalf("DeleteTransactions failed: %v", err)
		}
		got, err = store.LockTransactions(ctx, entries[0].ID, entries[1].ID)
		if err != nil {
			t.Fatalf("LockTransactions failed: %v", err)
		}
		if len(got) != 1 {
			t.Errorf("Expected 1 remaining transaction, got %d", len(got))
		}
	})
}

func TestOneDefaultAccountPerUser(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedUser(t, store, "alice")
	seedUser(t, store, "bob")

	first := seedAccount(t, store, "alice", "Salary", 100)
	second := seedAccount(t, store, "alice", "Holiday", 50)
	other := seedAccount(t, store, "bob", "Salary", 10)

	for _, a := range []*models.Account{first, other} {
		a.IsDefault = true
		if err := store.UpdateAccount(ctx, a); err != nil {
			t.Fatalf("UpdateAccount failed: %v", err)
		}
	}

	second.IsDefault = true
	if err := store.UpdateAccount(ctx, second); err == nil {
		t.Fatal("Expected a second default account for alice to be rejected")
	}
}

func TestLockUser(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedUser(t, store, "alice")

	err := store.WithTx(ctx, func(ctx context.Context, q storage.Queries) error {
		return q.LockUser(ctx, "alice")
	})
	if err != nil {
		t.Fatalf("LockUser failed: %v", err)
	}

	err = store.WithTx(ctx, func(ctx context.Context, q storage.Queries) error {
		return q.LockUser(ctx, "nobody")
	})
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestWithTxRollsBack(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedUser(t, store, "alice")
	account := seedAccount(t, store, "alice", "Salary", 100)

	boom := errors.New("boom")
	err := store.WithTx(ctx, func(ctx context.Context, q storage.Queries) error {
		if err := q.SetAccountBalance(ctx, account.ID, decimal.NewFromInt(1)); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Expected the callback error, got %v", err)
	}

	got, err := store.GetAccount(ctx, account.ID)
	if err != nil {
		t.Fatalf("GetAccount failed: %v", err)
	}
	if !got.Balance.Equal(decimal.NewFromInt(100)) {
		t.Errorf("Balance = %s after rollback, want 100", got.Balance)
	}
}

func TestSplits(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	for _, id := range []string{"alice", "bob", "carol"} {
		seedUser(t, store, id)
	}
	account := seedAccount(t, store, "alice", "Salary", 1000)

	split := &models.SplitRequest{
		RequesterID:        "alice",
		RequesterAccountID: account.ID,
		OriginalAmount:     decimal.NewFromInt(300),
		SplitAmount:        decimal.NewFromInt(100),
		Description:        "Dinner",
		Category:           "food",
		Date:               day(2024, time.March, 1),
		Participants: []models.SplitParticipant{
			{UserID: "carol", Amount: decimal.NewFromInt(150)},
			{UserID: "bob", Amount: decimal.NewFromInt(50)},
		},
	}
	if err := store.CreateSplit(ctx, split); err != nil {
		t.Fatalf("CreateSplit failed: %v", err)
	}

	t.Run("GetSplit keeps participant order", func(t *testing.T) {
		got, err := store.GetSplit(ctx, split.ID)
		if err != nil {
			t.Fatalf("GetSplit failed: %v", err)
		}
		if got.Status != models.SplitPending {
			t.Errorf("Status = %s, want PENDING", got.Status)
		}
		if len(got.Participants) != 2 {
			t.Fatalf("Expected 2 participants, got %d", len(got.Participants))
		}
		if got.Participants[0].UserID != "carol" || got.Participants[1].UserID != "bob" {
			t.Errorf("Participants out of order: %s, %s", got.Participants[0].UserID, got.Participants[1].UserID)
		}
		if got.Participants[0].Status != models.ParticipantPending {
			t.Errorf("Participant status = %s, want PENDING", got.Participants[0].Status)
		}
	})

	t.Run("UpdateParticipant and UpdateSplit persist", func(t *testing.T) {
		p := split.Participant("bob")
		p.Status = models.ParticipantApproved
		p.AccountID = account.ID
		p.ApprovedAt = time.Now().Unix()
		if err := store.UpdateParticipant(ctx, p); err != nil {
			t.Fatalf("UpdateParticipant failed: %v", err)
		}

		split.Status = models.SplitCancelled
		if err := store.UpdateSplit(ctx, split); err != nil {
			t.Fatalf("UpdateSplit failed: %v", err)
		}

		got, err := store.GetSplit(ctx, split.ID)
		if err != nil {
			t.Fatalf("GetSplit failed: %v", err)
		}
		if got.Status != models.SplitCancelled {
			t.Errorf("Status = %s, want CANCELLED", got.Status)
		}
		bob := got.Participant("bob")
		if bob.Status != models.ParticipantApproved || bob.AccountID != account.ID || bob.ApprovedAt == 0 {
			t.Errorf("Unexpected participant after update: %+v", bob)
		}
	})

	t.Run("List by requester and participant", func(t *testing.T) {
		mine, err := store.ListSplitsByRequester(ctx, "alice")
		if err != nil {
			t.Fatalf("ListSplitsByRequester failed: %v", err)
		}
		if len(mine) != 1 || len(mine[0].Participants) != 2 {
			t.Errorf("Unexpected requester listing: %d splits", len(mine))
		}

		theirs, err := store.ListSplitsByParticipant(ctx, "bob")
		if err != nil {
			t.Fatalf("ListSplitsByParticipant failed: %v", err)
		}
		if len(theirs) != 1 {
			t.Errorf("Expected 1 split for bob, got %d", len(theirs))
		}

		none, err := store.ListSplitsByParticipant(ctx, "alice")
		if err != nil {
			t.Fatalf("ListSplitsByParticipant failed: %v", err)
		}
		if len(none) != 0 {
			t.Errorf("Expected no splits where alice participates, got %d", len(none))
		}
	})

	t.Run("GetSplit returns ErrNotFound", func(t *testing.T) {
		_, err := store.GetSplit(ctx, "missing")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})
}
