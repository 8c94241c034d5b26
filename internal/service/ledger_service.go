package service

import (
	"context"
	"log/slog"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/fintrack/internal/ledger"
	"github.com/mmynk/fintrack/internal/models"
	"github.com/mmynk/fintrack/pkg/api"
)

// LedgerService implements the Connect LedgerService.
type LedgerService struct {
	ledger *ledger.Ledger
}

// NewLedgerService creates a new LedgerService backed by l.
func NewLedgerService(l *ledger.Ledger) *LedgerService {
	return &LedgerService{ledger: l}
}

// CreateAccount opens a new account for the caller.
func (s *LedgerService) CreateAccount(ctx context.Context, req *connect.Request[api.CreateAccountRequest]) (*connect.Response[api.AccountResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("CreateAccount request received", "user_id", userID, "name", req.Msg.Name)

	account, err := s.ledger.CreateAccount(ctx, userID, ledger.NewAccount{
		Name:           req.Msg.Name,
		Type:           models.AccountType(req.Msg.Type),
		OpeningBalance: req.Msg.OpeningBalance,
		MinimumBalance: req.Msg.MinimumBalance,
		MonthlyBudget:  req.Msg.MonthlyBudget,
		IsDefault:      req.Msg.IsDefault,
	})
	if err != nil {
		return nil, toConnectError("CreateAccount", err)
	}

	return connect.NewResponse(&api.AccountResponse{Data: toAPIAccount(account)}), nil
}

// ListAccounts returns the caller's accounts.
func (s *LedgerService) ListAccounts(ctx context.Context, req *connect.Request[api.ListAccountsRequest]) (*connect.Response[api.ListAccountsResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	accounts, err := s.ledger.ListAccounts(ctx, userID)
	if err != nil {
		return nil, toConnectError("ListAccounts", err)
	}

	out := make([]*api.Account, len(accounts))
	for i, a := range accounts {
		out[i] = toAPIAccount(a)
	}
	slog.Info("ListAccounts successful", "user_id", userID, "count", len(out))
	return connect.NewResponse(&api.ListAccountsResponse{Data: out}), nil
}

func (s *LedgerService) GetAccount(ctx context.Context, req *connect.Request[api.GetAccountRequest]) (*connect.Response[api.AccountResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	account, err := s.ledger.GetAccount(ctx, userID, req.Msg.AccountID)
	if err != nil {
		return nil, toConnectError("GetAccount", err)
	}
	return connect.NewResponse(&api.AccountResponse{Data: toAPIAccount(account)}), nil
}

// UpdateAccount changes account settings; the balance is never touched.
func (s *LedgerService) UpdateAccount(ctx context.Context, req *connect.Request[api.UpdateAccountRequest]) (*connect.Response[api.AccountResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("UpdateAccount request received", "user_id", userID, "account_id", req.Msg.AccountID)

	account, err := s.ledger.UpdateAccount(ctx, userID, req.Msg.AccountID, ledger.AccountSettings{
		Name:           req.Msg.Name,
		Type:           models.AccountType(req.Msg.Type),
		MinimumBalance: req.Msg.MinimumBalance,
		MonthlyBudget:  req.Msg.MonthlyBudget,
	})
	if err != nil {
		return nil, toConnectError("UpdateAccount", err)
	}
	return connect.NewResponse(&api.AccountResponse{Data: toAPIAccount(account)}), nil
}

func (s *LedgerService) SetDefaultAccount(ctx context.Context, req *connect.Request[api.SetDefaultAccountRequest]) (*connect.Response[api.AccountResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	account, err := s.ledger.SetDefaultAccount(ctx, userID, req.Msg.AccountID)
	if err != nil {
		return nil, toConnectError("SetDefaultAccount", err)
	}
	return connect.NewResponse(&api.AccountResponse{Data: toAPIAccount(account)}), nil
}

// GetAccountStats aggregates an account's income and expenses.
func (s *LedgerService) GetAccountStats(ctx context.Context, req *connect.Request[api.GetAccountStatsRequest]) (*connect.Response[api.AccountStatsResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	from, to, err := parseWindow(req.Msg.From, req.Msg.To)
	if err != nil {
		return nil, invalidArgument(err)
	}

	stats, err := s.ledger.GetAccountStats(ctx, userID, req.Msg.AccountID, from, to)
	if err != nil {
		return nil, toConnectError("GetAccountStats", err)
	}

	out := &api.AccountStats{
		AccountID:          stats.AccountID,
		TotalIncome:        stats.Totals.Income,
		TotalExpense:       stats.Totals.Expense,
		Net:                stats.Totals.Net(),
		IncomeCount:        stats.Totals.IncomeCount,
		ExpenseCount:       stats.Totals.ExpenseCount,
		TransactionCount:   stats.Totals.Count(),
		ExpensesByCategory: make([]api.CategoryTotal, len(stats.ExpensesByCategory)),
	}
	for i, c := range stats.ExpensesByCategory {
		out.ExpensesByCategory[i] = api.CategoryTotal{Category: c.Category, Amount: c.Amount, Count: c.Count}
	}
	return connect.NewResponse(&api.AccountStatsResponse{Data: out}), nil
}

// GetBudgetStatus reports a month's spend against the monthly budget.
func (s *LedgerService) GetBudgetStatus(ctx context.Context, req *connect.Request[api.GetBudgetStatusRequest]) (*connect.Response[api.BudgetStatusResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	var month time.Time
	if req.Msg.Month != "" {
		if month, err = time.Parse(api.MonthLayout, req.Msg.Month); err != nil {
			return nil, invalidArgument(err)
		}
	}

	status, err := s.ledger.GetBudgetStatus(ctx, userID, req.Msg.AccountID, month)
	if err != nil {
		return nil, toConnectError("GetBudgetStatus", err)
	}

	return connect.NewResponse(&api.BudgetStatusResponse{Data: &api.BudgetStatus{
		AccountID:   status.AccountID,
		Month:       status.Month.Format(api.MonthLayout),
		Budget:      status.Budget,
		Spent:       status.Spent,
		Remaining:   status.Remaining,
		PercentUsed: status.PercentUsed,
	}}), nil
}

// CreateTransaction records an income or expense against one of the caller's accounts.
func (s *LedgerService) CreateTransaction(ctx context.Context, req *connect.Request[api.CreateTransactionRequest]) (*connect.Response[api.TransactionResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("CreateTransaction request received",
		"user_id", userID,
		"account_id", req.Msg.AccountID,
		"type", req.Msg.Type,
		"amount", req.Msg.Amount.String(),
	)

	draft, err := fromAPIDraft(req.Msg.TransactionDraft)
	if err != nil {
		return nil, invalidArgument(err)
	}

	t, err := s.ledger.Create(ctx, userID, draft)
	if err != nil {
		return nil, toConnectError("CreateTransaction", err)
	}
	return connect.NewResponse(&api.TransactionResponse{Data: toAPITransaction(t)}), nil
}

func (s *LedgerService) GetTransaction(ctx context.Context, req *connect.Request[api.GetTransactionRequest]) (*connect.Response[api.TransactionResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	t, err := s.ledger.Get(ctx, userID, req.Msg.TransactionID)
	if err != nil {
		return nil, toConnectError("GetTransaction", err)
	}
	return connect.NewResponse(&api.TransactionResponse{Data: toAPITransaction(t)}), nil
}

// UpdateTransaction replaces a transaction and moves the balance difference.
func (s *LedgerService) UpdateTransaction(ctx context.Context, req *connect.Request[api.UpdateTransactionRequest]) (*connect.Response[api.TransactionResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("UpdateTransaction request received", "user_id", userID, "transaction_id", req.Msg.TransactionID)

	draft, err := fromAPIDraft(req.Msg.TransactionDraft)
	if err != nil {
		return nil, invalidArgument(err)
	}

	t, err := s.ledger.Update(ctx, userID, req.Msg.TransactionID, draft)
	if err != nil {
		return nil, toConnectError("UpdateTransaction", err)
	}
	return connect.NewResponse(&api.TransactionResponse{Data: toAPITransaction(t)}), nil
}

func (s *LedgerService) BulkDeleteTransactions(ctx context.Context, req *connect.Request[api.BulkDeleteTransactionsRequest]) (*connect.Response[api.BulkDeleteTransactionsResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("BulkDeleteTransactions request received", "user_id", userID, "count", len(req.Msg.TransactionIDs))

	result, err := s.ledger.BulkDelete(ctx, userID, req.Msg.TransactionIDs)
	if err != nil {
		return nil, toConnectError("BulkDeleteTransactions", err)
	}
	return connect.NewResponse(&api.BulkDeleteTransactionsResponse{Data: &api.BulkDeleteResult{
		Deleted:  result.Deleted,
		Balances: result.Balances,
	}}), nil
}

// ListTransactions returns a page of the caller's transactions, newest first.
func (s *LedgerService) ListTransactions(ctx context.Context, req *connect.Request[api.ListTransactionsRequest]) (*connect.Response[api.ListTransactionsResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	from, to, err := parseWindow(req.Msg.From, req.Msg.To)
	if err != nil {
		return nil, invalidArgument(err)
	}

	page, err := s.ledger.List(ctx, userID, ledger.ListQuery{
		AccountID: req.Msg.AccountID,
		Type:      models.TransactionType(req.Msg.Type),
		From:      from,
		To:        to,
		Limit:     req.Msg.Limit,
		Offset:    req.Msg.Offset,
	})
	if err != nil {
		return nil, toConnectError("ListTransactions", err)
	}

	return connect.NewResponse(&api.ListTransactionsResponse{Data: &api.TransactionPage{
		Transactions: toAPITransactions(page.Transactions),
		Total:        page.Total,
		Limit:        page.Limit,
		Offset:       page.Offset,
	}}), nil
}

// RecalculateBalance rebuilds an account's balance from its history.
func (s *LedgerService) RecalculateBalance(ctx context.Context, req *connect.Request[api.BalanceRequest]) (*connect.Response[api.ReconciliationResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("RecalculateBalance request received", "user_id", userID, "account_id", req.Msg.AccountID)

	result, err := s.ledger.Recalculate(ctx, userID, req.Msg.AccountID)
	if err != nil {
		return nil, toConnectError("RecalculateBalance", err)
	}
	return connect.NewResponse(&api.ReconciliationResponse{Data: toAPIReconciliation(result)}), nil
}

// VerifyBalance checks an account's balance against its history without
// repairing it. Drift is reported as a DataLoss error of kind INCONSISTENT.
func (s *LedgerService) VerifyBalance(ctx context.Context, req *connect.Request[api.BalanceRequest]) (*connect.Response[api.ReconciliationResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	result, err := s.ledger.Verify(ctx, userID, req.Msg.AccountID)
	if err != nil {
		return nil, toConnectError("VerifyBalance", err)
	}
	return connect.NewResponse(&api.ReconciliationResponse{Data: toAPIReconciliation(result)}), nil
}
