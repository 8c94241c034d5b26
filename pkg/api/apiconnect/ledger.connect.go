// Package apiconnect wires the api messages into Connect handlers and clients.
package apiconnect

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/fintrack/pkg/api"
)

const (
	// LedgerServiceName is the fully-qualified name of the LedgerService service.
	LedgerServiceName = "fintrack.v1.LedgerService"
)

// LedgerService procedures.
const (
	LedgerServiceCreateAccountProcedure          = "/fintrack.v1.LedgerService/CreateAccount"
	LedgerServiceListAccountsProcedure           = "/fintrack.v1.LedgerService/ListAccounts"
	LedgerServiceGetAccountProcedure             = "/fintrack.v1.LedgerService/GetAccount"
	LedgerServiceUpdateAccountProcedure          = "/fintrack.v1.LedgerService/UpdateAccount"
	LedgerServiceSetDefaultAccountProcedure      = "/fintrack.v1.LedgerService/SetDefaultAccount"
	LedgerServiceGetAccountStatsProcedure        = "/fintrack.v1.LedgerService/GetAccountStats"
	LedgerServiceGetBudgetStatusProcedure        = "/fintrack.v1.LedgerService/GetBudgetStatus"
	LedgerServiceCreateTransactionProcedure      = "/fintrack.v1.LedgerService/CreateTransaction"
	LedgerServiceGetTransactionProcedure         = "/fintrack.v1.LedgerService/GetTransaction"
	LedgerServiceUpdateTransactionProcedure      = "/fintrack.v1.LedgerService/UpdateTransaction"
	LedgerServiceBulkDeleteTransactionsProcedure = "/fintrack.v1.LedgerService/BulkDeleteTransactions"
	LedgerServiceListTransactionsProcedure       = "/fintrack.v1.LedgerService/ListTransactions"
	LedgerServiceRecalculateBalanceProcedure     = "/fintrack.v1.LedgerService/RecalculateBalance"
	LedgerServiceVerifyBalanceProcedure          = "/fintrack.v1.LedgerService/VerifyBalance"
)

// LedgerServiceHandler is implemented by the server side of fintrack.v1.LedgerService.
type LedgerServiceHandler interface {
	CreateAccount(context.Context, *connect.Request[api.CreateAccountRequest]) (*connect.Response[api.AccountResponse], error)
	ListAccounts(context.Context, *connect.Request[api.ListAccountsRequest]) (*connect.Response[api.ListAccountsResponse], error)
	GetAccount(context.Context, *connect.Request[api.GetAccountRequest]) (*connect.Response[api.AccountResponse], error)
	UpdateAccount(context.Context, *connect.Request[api.UpdateAccountRequest]) (*connect.Response[api.AccountResponse], error)
	SetDefaultAccount(context.Context, *connect.Request[api.SetDefaultAccountRequest]) (*connect.Response[api.AccountResponse], error)
	GetAccountStats(context.Context, *connect.Request[api.GetAccountStatsRequest]) (*connect.Response[api.AccountStatsResponse], error)
	GetBudgetStatus(context.Context, *connect.Request[api.GetBudgetStatusRequest]) (*connect.Response[api.BudgetStatusResponse], error)
	CreateTransaction(context.Context, *connect.Request[api.CreateTransactionRequest]) (*connect.Response[api.TransactionResponse], error)
	GetTransaction(context.Context, *connect.Request[api.GetTransactionRequest]) (*connect.Response[api.TransactionResponse], error)
	UpdateTransaction(context.Context, *connect.Request[api.UpdateTransactionRequest]) (*connect.Response[api.TransactionResponse], error)
	BulkDeleteTransactions(context.Context, *connect.Request[api.BulkDeleteTransactionsRequest]) (*connect.Response[api.BulkDeleteTransactionsResponse], error)
	ListTransactions(context.Context, *connect.Request[api.ListTransactionsRequest]) (*connect.Response[api.ListTransactionsResponse], error)
	RecalculateBalance(context.Context, *connect.Request[api.BalanceRequest]) (*connect.Response[api.ReconciliationResponse], error)
	VerifyBalance(context.Context, *connect.Request[api.BalanceRequest]) (*connect.Response[api.ReconciliationResponse], error)
}

// NewLedgerServiceHandler builds an HTTP handler for svc. It returns the path
// to mount the handler on and the handler itself.
func NewLedgerServiceHandler(svc LedgerServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(api.Codec{})}, opts...)

	handlers := map[string]http.Handler{
		LedgerServiceCreateAccountProcedure:          connect.NewUnaryHandler(LedgerServiceCreateAccountProcedure, svc.CreateAccount, opts...),
		LedgerServiceListAccountsProcedure:           connect.NewUnaryHandler(LedgerServiceListAccountsProcedure, svc.ListAccounts, opts...),
		LedgerServiceGetAccountProcedure:             connect.NewUnaryHandler(LedgerServiceGetAccountProcedure, svc.GetAccount, opts...),
		LedgerServiceUpdateAccountProcedure:          connect.NewUnaryHandler(LedgerServiceUpdateAccountProcedure, svc.UpdateAccount, opts...),
		LedgerServiceSetDefaultAccountProcedure:      connect.NewUnaryHandler(LedgerServiceSetDefaultAccountProcedure, svc.SetDefaultAccount, opts...),
		LedgerServiceGetAccountStatsProcedure:        connect.NewUnaryHandler(LedgerServiceGetAccountStatsProcedure, svc.GetAccountStats, opts...),
		LedgerServiceGetBudgetStatusProcedure:        connect.NewUnaryHandler(LedgerServiceGetBudgetStatusProcedure, svc.GetBudgetStatus, opts...),
		LedgerServiceCreateTransactionProcedure:      connect.NewUnaryHandler(LedgerServiceCreateTransactionProcedure, svc.CreateTransaction, opts...),
		LedgerServiceGetTransactionProcedure:         connect.NewUnaryHandler(LedgerServiceGetTransactionProcedure, svc.GetTransaction, opts...),
		LedgerServiceUpdateTransactionProcedure:      connect.NewUnaryHandler(LedgerServiceUpdateTransactionProcedure, svc.UpdateTransaction, opts...),
		LedgerServiceBulkDeleteTransactionsProcedure: connect.NewUnaryHandler(LedgerServiceBulkDeleteTransactionsProcedure, svc.BulkDeleteTransactions, opts...),
		LedgerServiceListTransactionsProcedure:       connect.NewUnaryHandler(LedgerServiceListTransactionsProcedure, svc.ListTransactions, opts...),
		LedgerServiceRecalculateBalanceProcedure:     connect.NewUnaryHandler(LedgerServiceRecalculateBalanceProcedure, svc.RecalculateBalance, opts...),
		LedgerServiceVerifyBalanceProcedure:          connect.NewUnaryHandler(LedgerServiceVerifyBalanceProcedure, svc.VerifyBalance, opts...),
	}
	return "/" + LedgerServiceName + "/", route(handlers)
}

// route dispatches to the handler registered for the request path.
func route(handlers map[string]http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h, ok := handlers[r.URL.Path]; ok {
			h.ServeHTTP(w, r)
			return
		}
		http.NotFound(w, r)
	})
}

// LedgerServiceClient is a client for the fintrack.v1.LedgerService service.
type LedgerServiceClient interface {
	CreateAccount(context.Context, *connect.Request[api.CreateAccountRequest]) (*connect.Response[api.AccountResponse], error)
	ListAccounts(context.Context, *connect.Request[api.ListAccountsRequest]) (*connect.Response[api.ListAccountsResponse], error)
	GetAccount(context.Context, *connect.Request[api.GetAccountRequest]) (*connect.Response[api.AccountResponse], error)
	UpdateAccount(context.Context, *connect.Request[api.UpdateAccountRequest]) (*connect.Response[api.AccountResponse], error)
	SetDefaultAccount(context.Context, *connect.Request[api.SetDefaultAccountRequest]) (*connect.Response[api.AccountResponse], error)
	GetAccountStats(context.Context, *connect.Request[api.GetAccountStatsRequest]) (*connect.Response[api.AccountStatsResponse], error)
	GetBudgetStatus(context.Context, *connect.Request[api.GetBudgetStatusRequest]) (*connect.Response[api.BudgetStatusResponse], error)
	CreateTransaction(context.Context, *connect.Request[api.CreateTransactionRequest]) (*connect.Response[api.TransactionResponse], error)
	GetTransaction(context.Context, *connect.Request[api.GetTransactionRequest]) (*connect.Response[api.TransactionResponse], error)
	UpdateTransaction(context.Context, *connect.Request[api.UpdateTransactionRequest]) (*connect.Response[api.TransactionResponse], error)
	BulkDeleteTransactions(context.Context, *connect.Request[api.BulkDeleteTransactionsRequest]) (*connect.Response[api.BulkDeleteTransactionsResponse], error)
	ListTransactions(context.Context, *connect.Request[api.ListTransactionsRequest]) (*connect.Response[api.ListTransactionsResponse], error)
	RecalculateBalance(context.Context, *connect.Request[api.BalanceRequest]) (*connect.Response[api.ReconciliationResponse], error)
	VerifyBalance(context.Context, *connect.Request[api.BalanceRequest]) (*connect.Response[api.ReconciliationResponse], error)
}

// NewLedgerServiceClient constructs a client for fintrack.v1.LedgerService at baseURL.
func NewLedgerServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) LedgerServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(api.Codec{})}, opts...)
	return &ledgerServiceClient{
		createAccount:          connect.NewClient[api.CreateAccountRequest, api.AccountResponse](httpClient, baseURL+LedgerServiceCreateAccountProcedure, opts...),
		listAccounts:           connect.NewClient[api.ListAccountsRequest, api.ListAccountsResponse](httpClient, baseURL+LedgerServiceListAccountsProcedure, opts...),
		getAccount:             connect.NewClient[api.GetAccountRequest, api.AccountResponse](httpClient, baseURL+LedgerServiceGetAccountProcedure, opts...),
		updateAccount:          connect.NewClient[api.UpdateAccountRequest, api.AccountResponse](httpClient, baseURL+LedgerServiceUpdateAccountProcedure, opts...),
		setDefaultAccount:      connect.NewClient[api.SetDefaultAccountRequest, api.AccountResponse](httpClient, baseURL+LedgerServiceSetDefaultAccountProcedure, opts...),
		getAccountStats:        connect.NewClient[api.GetAccountStatsRequest, api.AccountStatsResponse](httpClient, baseURL+LedgerServiceGetAccountStatsProcedure, opts...),
		getBudgetStatus:        connect.NewClient[api.GetBudgetStatusRequest, api.BudgetStatusResponse](httpClient, baseURL+LedgerServiceGetBudgetStatusProcedure, opts...),
		createTransaction:      connect.NewClient[api.CreateTransactionRequest, api.TransactionResponse](httpClient, baseURL+LedgerServiceCreateTransactionProcedure, opts...),
		getTransaction:         connect.NewClient[api.GetTransactionRequest, api.TransactionResponse](httpClient, baseURL+LedgerServiceGetTransactionProcedure, opts...),
		updateTransaction:      connect.NewClient[api.UpdateTransactionRequest, api.TransactionResponse](httpClient, baseURL+LedgerServiceUpdateTransactionProcedure, opts...),
		bulkDeleteTransactions: connect.NewClient[api.BulkDeleteTransactionsRequest, api.BulkDeleteTransactionsResponse](httpClient, baseURL+LedgerServiceBulkDeleteTransactionsProcedure, opts...),
		listTransactions:       connect.NewClient[api.ListTransactionsRequest, api.ListTransactionsResponse](httpClient, baseURL+LedgerServiceListTransactionsProcedure, opts...),
		recalculateBalance:     connect.NewClient[api.BalanceRequest, api.ReconciliationResponse](httpClient, baseURL+LedgerServiceRecalculateBalanceProcedure, opts...),
		verifyBalance:          connect.NewClient[api.BalanceRequest, api.ReconciliationResponse](httpClient, baseURL+LedgerServiceVerifyBalanceProcedure, opts...),
	}
}

type ledgerServiceClient struct {
	createAccount          *connect.Client[api.CreateAccountRequest, api.AccountResponse]
	listAccounts           *connect.Client[api.ListAccountsRequest, api.ListAccountsResponse]
	getAccount             *connect.Client[api.GetAccountRequest, api.AccountResponse]
	updateAccount          *connect.Client[api.UpdateAccountRequest, api.AccountResponse]
	setDefaultAccount      *connect.Client[api.SetDefaultAccountRequest, api.AccountResponse]
	getAccountStats        *connect.Client[api.GetAccountStatsRequest, api.AccountStatsResponse]
	getBudgetStatus        *connect.Client[api.GetBudgetStatusRequest, api.BudgetStatusResponse]
	createTransaction      *connect.Client[api.CreateTransactionRequest, api.TransactionResponse]
	getTransaction         *connect.Client[api.GetTransactionRequest, api.TransactionResponse]
	updateTransaction      *connect.Client[api.UpdateTransactionRequest, api.TransactionResponse]
	bulkDeleteTransactions *connect.Client[api.BulkDeleteTransactionsRequest, api.BulkDeleteTransactionsResponse]
	listTransactions       *connect.Client[api.ListTransactionsRequest, api.ListTransactionsResponse]
	recalculateBalance     *connect.Client[api.BalanceRequest, api.ReconciliationResponse]
	verifyBalance          *connect.Client[api.BalanceRequest, api.ReconciliationResponse]
}

func (c *ledgerServiceClient) CreateAccount(ctx context.Context, req *connect.Request[api.CreateAccountRequest]) (*connect.Response[api.AccountResponse], error) {
	return c.createAccount.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) ListAccounts(ctx context.Context, req *connect.Request[api.ListAccountsRequest]) (*connect.Response[api.ListAccountsResponse], error) {
	return c.listAccounts.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) GetAccount(ctx context.Context, req *connect.Request[api.GetAccountRequest]) (*connect.Response[api.AccountResponse], error) {
	return c.getAccount.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) UpdateAccount(ctx context.Context, req *connect.Request[api.UpdateAccountRequest]) (*connect.Response[api.AccountResponse], error) {
	return c.updateAccount.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) SetDefaultAccount(ctx context.Context, req *connect.Request[api.SetDefaultAccountRequest]) (*connect.Response[api.AccountResponse], error) {
	return c.setDefaultAccount.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) GetAccountStats(ctx context.Context, req *connect.Request[api.GetAccountStatsRequest]) (*connect.Response[api.AccountStatsResponse], error) {
	return c.getAccountStats.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) GetBudgetStatus(ctx context.Context, req *connect.Request[api.GetBudgetStatusRequest]) (*connect.Response[api.BudgetStatusResponse], error) {
	return c.getBudgetStatus.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) CreateTransaction(ctx context.Context, req *connect.Request[api.CreateTransactionRequest]) (*connect.Response[api.TransactionResponse], error) {
	return c.createTransaction.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) GetTransaction(ctx context.Context, req *connect.Request[api.GetTransactionRequest]) (*connect.Response[api.TransactionResponse], error) {
	return c.getTransaction.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) UpdateTransaction(ctx context.Context, req *connect.Request[api.UpdateTransactionRequest]) (*connect.Response[api.TransactionResponse], error) {
	return c.updateTransaction.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) BulkDeleteTransactions(ctx context.Context, req *connect.Request[api.BulkDeleteTransactionsRequest]) (*connect.Response[api.BulkDeleteTransactionsResponse], error) {
	return c.bulkDeleteTransactions.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) ListTransactions(ctx context.Context, req *connect.Request[api.ListTransactionsRequest]) (*connect.Response[api.ListTransactionsResponse], error) {
	return c.listTransactions.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) RecalculateBalance(ctx context.Context, req *connect.Request[api.BalanceRequest]) (*connect.Response[api.ReconciliationResponse], error) {
	return c.recalculateBalance.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) VerifyBalance(ctx context.Context, req *connect.Request[api.BalanceRequest]) (*connect.Response[api.ReconciliationResponse], error) {
	return c.verifyBalance.CallUnary(ctx, req)
}
