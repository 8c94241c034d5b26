package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"

	"github.com/mmynk/fintrack/internal/ledger"
	"github.com/mmynk/fintrack/internal/middleware"
	"github.com/mmynk/fintrack/internal/models"
	"github.com/mmynk/fintrack/internal/split"
	"github.com/mmynk/fintrack/internal/storage"
	"github.com/mmynk/fintrack/internal/storage/sqlite"
	"github.com/mmynk/fintrack/pkg/api"
	"github.com/mmynk/fintrack/pkg/api/apiconnect"
)

const testUserHeader = "X-Test-User"

// testAuthInterceptor returns a Connect interceptor that trusts the user ID
// sent in the X-Test-User header.
func testAuthInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if userID := req.Header().Get(testUserHeader); userID != "" {
				ctx = middleware.WithUser(ctx, userID)
			}
			return next(ctx, req)
		}
	}
}

type testServer struct {
	ledger apiconnect.LedgerServiceClient
	splits apiconnect.SplitServiceClient
	store  storage.Store
}

// setupTestServer creates a test server backed by a temp-file SQLite database.
// Users alice, bob and carol exist; alice is friends with bob and carol.
func setupTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"), 10*time.Second)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	for _, id := range []string{"alice", "bob", "carol"} {
		if err := store.UpsertUser(ctx, models.NewUser(id, id+"@example.com", id)); err != nil {
			t.Fatalf("failed to create user: %v", err)
		}
	}
	for _, friend := range []string{"bob", "carol"} {
		f := &models.Friendship{RequesterID: "alice", AddresseeID: friend, Status: models.FriendshipAccepted}
		if err := store.SaveFriendship(ctx, f); err != nil {
			t.Fatalf("failed to save friendship: %v", err)
		}
	}

	l := ledger.New(store)
	interceptors := connect.WithInterceptors(testAuthInterceptor(), middleware.LoggingInterceptor())

	mux := http.NewServeMux()
	mux.Handle(apiconnect.NewLedgerServiceHandler(NewLedgerService(l), interceptors))
	mux.Handle(apiconnect.NewSplitServiceHandler(NewSplitService(split.NewCoordinator(store, l)), interceptors))

	server := httptest.NewServer(mux)
	t.Cleanup(func() {
		server.Close()
		store.Close()
	})

	return &testServer{
		ledger: apiconnect.NewLedgerServiceClient(http.DefaultClient, server.URL),
		splits: apiconnect.NewSplitServiceClient(http.DefaultClient, server.URL),
		store:  store,
	}
}

// as builds a request sent on behalf of userID.
func as[T any](userID string, msg *T) *connect.Request[T] {
	req := connect.NewRequest(msg)
	req.Header().Set(testUserHeader, userID)
	return req
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func ptr[T any](v T) *T {
	return &v
}

// expectError fails unless err is a Connect error with the given code and kind.
func expectError(t *testing.T, err error, code connect.Code, kind ledger.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v error, got nil", code)
	}
	var connectErr *connect.Error
	if !errors.As(err, &connectErr) {
		t.Fatalf("expected connect error, got %T: %v", err, err)
	}
	if connectErr.Code() != code {
		t.Errorf("expected code %v, got %v (%s)", code, connectErr.Code(), connectErr.Message())
	}
	if kind != "" {
		if got := connectErr.Meta().Get(middleware.ErrorKindHeader); got != string(kind) {
			t.Errorf("expected kind %s, got %q", kind, got)
		}
	}
}

// openAccount creates an account with a zero minimum balance unless minimum is given.
func (s *testServer) openAccount(t *testing.T, userID, opening string, minimum ...string) *api.Account {
	t.Helper()
	floor := decimal.Zero
	if len(minimum) > 0 {
		floor = dec(minimum[0])
	}
	resp, err := s.ledger.CreateAccount(context.Background(), as(userID, &api.CreateAccountRequest{
		Name:           userID + " main",
		OpeningBalance: dec(opening),
		MinimumBalance: &floor,
	}))
	if err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}
	return resp.Msg.Data
}

func (s *testServer) balance(t *testing.T, userID, accountID string) decimal.Decimal {
	t.Helper()
	resp, err := s.ledger.GetAccount(context.Background(), as(userID, &api.GetAccountRequest{AccountID: accountID}))
	if err != nil {
		t.Fatalf("GetAccount failed: %v", err)
	}
	return resp.Msg.Data.Balance
}
