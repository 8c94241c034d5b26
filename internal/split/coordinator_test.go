package split

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/fintrack/internal/ledger"
	"github.com/mmynk/fintrack/internal/metrics"
	"github.com/mmynk/fintrack/internal/models"
	"github.com/mmynk/fintrack/internal/storage"
	"github.com/mmynk/fintrack/internal/storage/sqlite"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type fixture struct {
	store  storage.Store
	ledger *ledger.Ledger
	coord  *Coordinator
}

// newFixture creates alice (the requester), her friends bob and carol, and
// dave who is not a friend.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "split.db"), 10*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	for _, id := range []string{"alice", "bob", "carol", "dave"} {
		require.NoError(t, store.UpsertUser(ctx, models.NewUser(id, id+"@example.com", id)))
	}
	require.NoError(t, store.SaveFriendship(ctx, &models.Friendship{RequesterID: "alice", AddresseeID: "bob", Status: models.FriendshipAccepted}))
	require.NoError(t, store.SaveFriendship(ctx, &models.Friendship{RequesterID: "carol", AddresseeID: "alice", Status: models.FriendshipAccepted}))
	require.NoError(t, store.SaveFriendship(ctx, &models.Friendship{RequesterID: "alice", AddresseeID: "dave", Status: models.FriendshipPending}))

	m := metrics.New(prometheus.NewRegistry())
	l := ledger.New(store, ledger.WithMetrics(m))
	return &fixture{store: store, ledger: l, coord: NewCoordinator(store, l, WithMetrics(m))}
}

func (f *fixture) account(t *testing.T, userID, opening string) *models.Account {
	t.Helper()
	zero := decimal.Zero
	a, err := f.ledger.CreateAccount(context.Background(), userID, ledger.NewAccount{
		Name:           userID + " " + opening,
		OpeningBalance: dec(opening),
		MinimumBalance: &zero,
	})
	require.NoError(t, err)
	return a
}

func (f *fixture) balance(t *testing.T, userID, accountID string) decimal.Decimal {
	t.Helper()
	a, err := f.ledger.GetAccount(context.Background(), userID, accountID)
	require.NoError(t, err)
	return a.Balance
}

func (f *fixture) assertNoDrift(t *testing.T, userID string) {
	t.Helper()
	accounts, err := f.ledger.ListAccounts(context.Background(), userID)
	require.NoError(t, err)
	for _, a := range accounts {
		_, err := f.ledger.Verify(context.Background(), userID, a.ID)
		require.NoError(t, err, "account %s drifted", a.Name)
	}
}

func dinner(accountID string, share string, participants ...Share) CreateInput {
	total := dec(share)
	for _, p := range participants {
		total = total.Add(p.Amount)
	}
	return CreateInput{
		TotalAmount:        total,
		RequesterShare:     dec(share),
		Description:        "Dinner",
		Category:           "food",
		RequesterAccountID: accountID,
		Participants:       participants,
	}
}

func TestPayFullScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	main := f.account(t, "alice", "1000")
	spare := f.account(t, "alice", "500")

	split, err := f.coord.Create(ctx, "alice", dinner(main.ID, "100", Share{UserID: "bob", Amount: dec("200")}))
	require.NoError(t, err)
	assert.Equal(t, models.SplitPending, split.Status)
	assert.True(t, split.OriginalAmount.Equal(dec("300")))
	assert.NotEmpty(t, split.RequesterTransactionID)
	assert.True(t, f.balance(t, "alice", main.ID).Equal(dec("900")))

	debit, err := f.ledger.Get(ctx, "alice", split.RequesterTransactionID)
	require.NoError(t, err)
	assert.Equal(t, "Split: Dinner", debit.Description)
	assert.Equal(t, split.ID, debit.SplitRequestID)

	_, err = f.coord.Decline(ctx, split.ID, "bob")
	require.NoError(t, err)

	resolved, err := f.coord.Resolve(ctx, "alice", split.ID, ResolveInput{Action: ActionPayFull, AccountID: spare.ID})
	require.NoError(t, err)
	assert.Equal(t, models.SplitCompleted, resolved.Status)
	assert.NotEmpty(t, resolved.RejectedTransactionID)
	assert.True(t, f.balance(t, "alice", spare.ID).Equal(dec("300")))

	got, err := f.coord.Get(ctx, "bob", split.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SplitCompleted, got.Status)
	assert.Equal(t, models.ParticipantDeclined, got.Participant("bob").Status)

	rejected, err := f.ledger.Get(ctx, "alice", got.RejectedTransactionID)
	require.NoError(t, err)
	assert.Equal(t, "Split (rejected portion): Dinner", rejected.Description)
	assert.True(t, rejected.Amount.Equal(dec("200")))

	f.assertNoDrift(t, "alice")
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	main := f.account(t, "alice", "1000")
	bobs := f.account(t, "bob", "1000")

	tests := []struct {
		name string
		in   CreateInput
		kind ledger.Kind
	}{
		{
			name: "not a friend",
			in:   dinner(main.ID, "10", Share{UserID: "dave", Amount: dec("10")}),
			kind: ledger.KindInvalidParticipants,
		},
		{
			name: "unknown user",
			in:   dinner(main.ID, "10", Share{UserID: "zed", Amount: dec("10")}),
			kind: ledger.KindInvalidParticipants,
		},
		{
			name: "requester as participant",
			in:   dinner(main.ID, "10", Share{UserID: "alice", Amount: dec("10")}),
			kind: ledger.KindInvalidParticipants,
		},
		{
			name: "duplicate participant",
			in:   dinner(main.ID, "10", Share{UserID: "bob", Amount: dec("10")}, Share{UserID: "bob", Amount: dec("5")}),
			kind: ledger.KindInvalidParticipants,
		},
		{
			name: "no participants",
			in:   dinner(main.ID, "10"),
			kind: ledger.KindInvalidParticipants,
		},
		{
			name: "shares do not add up",
			in: CreateInput{
				TotalAmount: dec("100"), RequesterShare: dec("50"), Description: "Dinner",
				RequesterAccountID: main.ID, Participants: []Share{{UserID: "bob", Amount: dec("40")}},
			},
			kind: ledger.KindInvalidParticipants,
		},
		{
			name: "missing description",
			in: CreateInput{
				TotalAmount: dec("20"), RequesterShare: dec("10"),
				RequesterAccountID: main.ID, Participants: []Share{{UserID: "bob", Amount: dec("10")}},
			},
			kind: ledger.KindInvalidInput,
		},
		{
			name: "someone else's account",
			in:   dinner(bobs.ID, "10", Share{UserID: "carol", Amount: dec("10")}),
			kind: ledger.KindNotFound,
		},
		{
			name: "requester share exceeds balance",
			in:   dinner(main.ID, "1000.01", Share{UserID: "bob", Amount: dec("10")}),
			kind: ledger.KindInsufficientFunds,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.coord.Create(ctx, "alice", tt.in)
			require.Error(t, err)
			assert.Equal(t, tt.kind, ledger.KindOf(err))
		})
	}

	lists, err := f.coord.List(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, lists.Created, "failed creations must not leave split rows")
	assert.True(t, f.balance(t, "alice", main.ID).Equal(dec("1000")))
}

func TestCreateRespectsMinimumBalance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	floor := dec("900")
	main, err := f.ledger.CreateAccount(ctx, "alice", ledger.NewAccount{
		Name:           "Checking",
		OpeningBalance: dec("1000"),
		MinimumBalance: &floor,
	})
	require.NoError(t, err)

	_, err = f.coord.Create(ctx, "alice", dinner(main.ID, "200", Share{UserID: "bob", Amount: dec("100")}))
	require.ErrorIs(t, err, ledger.ErrBelowMinimumBalance)
	assert.True(t, f.balance(t, "alice", main.ID).Equal(dec("1000")))

	_, err = f.coord.Create(ctx, "alice", dinner(main.ID, "100", Share{UserID: "bob", Amount: dec("100")}))
	require.NoError(t, err)
	assert.True(t, f.balance(t, "alice", main.ID).Equal(dec("900")))
}

func TestApprove(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	main := f.account(t, "alice", "1000")
	bobs := f.account(t, "bob", "150")
	carols := f.account(t, "carol", "500")

	split, err := f.coord.Create(ctx, "alice", dinner(main.ID, "100",
		Share{UserID: "bob", Amount: dec("200")},
		Share{UserID: "carol", Amount: dec("50")},
	))
	require.NoError(t, err)

	t.Run("insufficient funds leaves participant pending", func(t *testing.T) {
		_, err := f.coord.Approve(ctx, split.ID, "bob", bobs.ID)
		require.ErrorIs(t, err, ledger.ErrInsufficientFunds)

		got, err := f.coord.Get(ctx, "bob", split.ID)
		require.NoError(t, err)
		assert.Equal(t, models.ParticipantPending, got.Participant("bob").Status)
		assert.True(t, f.balance(t, "bob", bobs.ID).Equal(dec("150")))
	})

	t.Run("cannot pay from someone else's account", func(t *testing.T) {
		_, err := f.coord.Approve(ctx, split.ID, "carol", main.ID)
		assert.ErrorIs(t, err, ledger.ErrNotFound)
	})

	t.Run("non participant", func(t *testing.T) {
		_, err := f.coord.Approve(ctx, split.ID, "dave", main.ID)
		assert.ErrorIs(t, err, ledger.ErrNotFound)
	})

	t.Run("approvals complete the split", func(t *testing.T) {
		got, err := f.coord.Approve(ctx, split.ID, "carol", carols.ID)
		require.NoError(t, err)
		assert.Equal(t, models.SplitPending, got.Status)

		carol := got.Participant("carol")
		assert.Equal(t, models.ParticipantApproved, carol.Status)
		assert.Equal(t, carols.ID, carol.AccountID)
		assert.NotZero(t, carol.ApprovedAt)
		assert.NotEmpty(t, carol.TransactionID)
		assert.True(t, f.balance(t, "carol", carols.ID).Equal(dec("450")))

		_, err = f.ledger.Create(ctx, "bob", ledger.Draft{AccountID: bobs.ID, Type: models.Income, Amount: dec("100")})
		require.NoError(t, err)

		got, err = f.coord.Approve(ctx, split.ID, "bob", bobs.ID)
		require.NoError(t, err)
		assert.Equal(t, models.SplitCompleted, got.Status)
		assert.True(t, f.balance(t, "bob", bobs.ID).Equal(dec("50")))
	})

	t.Run("second approval is already processed", func(t *testing.T) {
		_, err := f.coord.Approve(ctx, split.ID, "carol", carols.ID)
		assert.ErrorIs(t, err, ledger.ErrAlreadyProcessed)

		_, err = f.coord.Decline(ctx, split.ID, "carol")
		assert.ErrorIs(t, err, ledger.ErrAlreadyProcessed)
	})

	t.Run("split-linked entries cannot be bulk deleted", func(t *testing.T) {
		got, err := f.coord.Get(ctx, "carol", split.ID)
		require.NoError(t, err)
		_, err = f.ledger.BulkDelete(ctx, "carol", []string{got.Participant("carol").TransactionID})
		assert.ErrorIs(t, err, ledger.ErrSplitLinked)
	})

	f.assertNoDrift(t, "alice")
	f.assertNoDrift(t, "bob")
	f.assertNoDrift(t, "carol")
}

func TestReRequest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	main := f.account(t, "alice", "1000")
	bobs := f.account(t, "bob", "1000")
	carols := f.account(t, "carol", "1000")

	split, err := f.coord.Create(ctx, "alice", dinner(main.ID, "30",
		Share{UserID: "bob", Amount: dec("30")},
		Share{UserID: "carol", Amount: dec("30")},
	))
	require.NoError(t, err)

	_, err = f.coord.Approve(ctx, split.ID, "bob", bobs.ID)
	require.NoError(t, err)
	_, err = f.coord.Decline(ctx, split.ID, "carol")
	require.NoError(t, err)

	_, err = f.coord.Resolve(ctx, "alice", split.ID, ResolveInput{Action: ActionReRequest, ParticipantIDs: []string{"bob"}})
	assert.ErrorIs(t, err, ledger.ErrInvalidInput, "bob is not declined")

	got, err := f.coord.Resolve(ctx, "alice", split.ID, ResolveInput{Action: ActionReRequest, ParticipantIDs: []string{"carol"}})
	require.NoError(t, err)
	assert.Equal(t, models.SplitPending, got.Status)
	assert.Equal(t, models.ParticipantPending, got.Participant("carol").Status)
	assert.Equal(t, models.ParticipantApproved, got.Participant("bob").Status)

	got, err = f.coord.Approve(ctx, split.ID, "carol", carols.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SplitCompleted, got.Status)

	_, err = f.coord.Resolve(ctx, "alice", split.ID, ResolveInput{Action: ActionReRequest})
	assert.ErrorIs(t, err, ledger.ErrAlreadyProcessed)
}

func TestResolveGuards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	main := f.account(t, "alice", "1000")

	split, err := f.coord.Create(ctx, "alice", dinner(main.ID, "10",
		Share{UserID: "bob", Amount: dec("10")},
		Share{UserID: "carol", Amount: dec("10")},
	))
	require.NoError(t, err)
	_, err = f.coord.Decline(ctx, split.ID, "bob")
	require.NoError(t, err)

	_, err = f.coord.Resolve(ctx, "alice", split.ID, ResolveInput{Action: ActionPayFull})
	assert.ErrorIs(t, err, ledger.ErrInvalidInput, "carol has not answered yet")

	_, err = f.coord.Resolve(ctx, "alice", split.ID, ResolveInput{Action: ActionCompleteWithoutAdding})
	assert.ErrorIs(t, err, ledger.ErrInvalidInput)

	_, err = f.coord.Resolve(ctx, "alice", split.ID, ResolveInput{Action: "forgive"})
	assert.ErrorIs(t, err, ledger.ErrInvalidInput)

	_, err = f.coord.Resolve(ctx, "bob", split.ID, ResolveInput{Action: ActionReRequest})
	assert.ErrorIs(t, err, ledger.ErrForbidden)

	_, err = f.coord.Resolve(ctx, "dave", split.ID, ResolveInput{Action: ActionReRequest})
	assert.ErrorIs(t, err, ledger.ErrNotFound)

	assert.True(t, f.balance(t, "alice", main.ID).Equal(dec("990")))
}

func TestCompleteWithoutAdding(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	main := f.account(t, "alice", "1000")

	split, err := f.coord.Create(ctx, "alice", dinner(main.ID, "100", Share{UserID: "bob", Amount: dec("200")}))
	require.NoError(t, err)
	_, err = f.coord.Decline(ctx, split.ID, "bob")
	require.NoError(t, err)

	got, err := f.coord.Resolve(ctx, "alice", split.ID, ResolveInput{Action: ActionCompleteWithoutAdding})
	require.NoError(t, err)
	assert.Equal(t, models.SplitCompleted, got.Status)
	assert.True(t, got.UserPaidFull)
	assert.Empty(t, got.RejectedTransactionID)
	assert.True(t, f.balance(t, "alice", main.ID).Equal(dec("900")))
}

func TestCancel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	main := f.account(t, "alice", "1000")
	bobs := f.account(t, "bob", "1000")

	split, err := f.coord.Create(ctx, "alice", dinner(main.ID, "100",
		Share{UserID: "bob", Amount: dec("200")},
		Share{UserID: "carol", Amount: dec("50")},
	))
	require.NoError(t, err)
	_, err = f.coord.Approve(ctx, split.ID, "bob", bobs.ID)
	require.NoError(t, err)

	_, err = f.coord.Cancel(ctx, "bob", split.ID)
	assert.ErrorIs(t, err, ledger.ErrForbidden)
	_, err = f.coord.Cancel(ctx, "dave", split.ID)
	assert.ErrorIs(t, err, ledger.ErrNotFound)

	got, err := f.coord.Cancel(ctx, "alice", split.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SplitCancelled, got.Status)
	assert.True(t, f.balance(t, "alice", main.ID).Equal(dec("1000")))
	assert.True(t, f.balance(t, "bob", bobs.ID).Equal(dec("1000")))

	_, err = f.coord.Cancel(ctx, "alice", split.ID)
	assert.ErrorIs(t, err, ledger.ErrAlreadyProcessed)
	_, err = f.coord.Decline(ctx, split.ID, "carol")
	assert.ErrorIs(t, err, ledger.ErrAlreadyProcessed)

	f.assertNoDrift(t, "alice")
	f.assertNoDrift(t, "bob")
}

func TestCancelCompletedSplit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	main := f.account(t, "alice", "1000")

	split, err := f.coord.Create(ctx, "alice", dinner(main.ID, "100", Share{UserID: "bob", Amount: dec("200")}))
	require.NoError(t, err)
	_, err = f.coord.Decline(ctx, split.ID, "bob")
	require.NoError(t, err)
	_, err = f.coord.Resolve(ctx, "alice", split.ID, ResolveInput{Action: ActionCompleteWithoutAdding})
	require.NoError(t, err)

	_, err = f.coord.Cancel(ctx, "alice", split.ID)
	assert.ErrorIs(t, err, ledger.ErrAlreadyProcessed)
	assert.True(t, f.balance(t, "alice", main.ID).Equal(dec("900")))
}

func TestVisibilityAndListing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	main := f.account(t, "alice", "1000")

	split, err := f.coord.Create(ctx, "alice", dinner(main.ID, "10", Share{UserID: "bob", Amount: dec("10")}))
	require.NoError(t, err)

	_, err = f.coord.Get(ctx, "carol", split.ID)
	assert.ErrorIs(t, err, ledger.ErrNotFound)
	_, err = f.coord.Get(ctx, "alice", "missing")
	assert.ErrorIs(t, err, ledger.ErrNotFound)

	alice, err := f.coord.List(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, alice.Created, 1)
	assert.Empty(t, alice.Participating)

	bob, err := f.coord.List(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, bob.Created)
	require.Len(t, bob.Participating, 1)
	assert.Equal(t, split.ID, bob.Participating[0].ID)
}

func TestConcurrentApprovalsPayOnce(t *testing.T) {
	f := newFixture(t)
	main := f.account(t, "alice", "1000")
	bobs := f.account(t, "bob", "1000")

	split, err := f.coord.Create(context.Background(), "alice", dinner(main.ID, "10", Share{UserID: "bob", Amount: dec("100")}))
	require.NoError(t, err)

	var (
		wg   sync.WaitGroup
		errs = make([]error, 3)
	)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.coord.Approve(context.Background(), split.ID, "bob", bobs.ID)
		}(i)
	}
	wg.Wait()

	var ok int
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.True(t, errors.Is(err, ledger.ErrAlreadyProcessed), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, ok)
	assert.True(t, f.balance(t, "bob", bobs.ID).Equal(dec("900")))
}

type staticFriends bool

func (s staticFriends) AreFriends(context.Context, string, string) (bool, error) {
	return bool(s), nil
}

func TestFriendCheckerOverride(t *testing.T) {
	f := newFixture(t)
	main := f.account(t, "alice", "1000")
	coord := NewCoordinator(f.store, f.ledger, WithFriendChecker(staticFriends(true)))

	split, err := coord.Create(context.Background(), "alice", dinner(main.ID, "10", Share{UserID: "dave", Amount: dec("10")}))
	require.NoError(t, err)
	assert.Len(t, split.Participants, 1)
}
