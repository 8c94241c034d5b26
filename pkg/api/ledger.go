package api

import "github.com/shopspring/decimal"

type Account struct {
	ID               string          `json:"id"`
	UserID           string          `json:"userId"`
	Name             string          `json:"name"`
	Type             string          `json:"type"`
	Balance          decimal.Decimal `json:"balance"`
	OpeningBalance   decimal.Decimal `json:"openingBalance"`
	MinimumBalance   decimal.Decimal `json:"minimumBalance"`
	MonthlyBudget    decimal.Decimal `json:"monthlyBudget"`
	IsDefault        bool            `json:"isDefault"`
	TransactionCount int             `json:"transactionCount"`
	CreatedAt        int64           `json:"createdAt"`
	UpdatedAt        int64           `json:"updatedAt"`
}

type Transaction struct {
	ID                string          `json:"id"`
	AccountID         string          `json:"accountId"`
	UserID            string          `json:"userId"`
	Type              string          `json:"type"`
	Amount            decimal.Decimal `json:"amount"`
	Date              string          `json:"date"`
	Category          string          `json:"category,omitempty"`
	Description       string          `json:"description,omitempty"`
	IsRecurring       bool            `json:"isRecurring"`
	RecurringInterval string          `json:"recurringInterval,omitempty"`
	NextRecurringDate string          `json:"nextRecurringDate,omitempty"`
	ExcludeFromBudget bool            `json:"excludeFromBudget"`
	Status            string          `json:"status"`
	SplitRequestID    string          `json:"splitRequestId,omitempty"`
	CreatedAt         int64           `json:"createdAt"`
	UpdatedAt         int64           `json:"updatedAt"`
}

// TransactionDraft is the caller-supplied part of a transaction.
type TransactionDraft struct {
	AccountID         string          `json:"accountId"`
	Type              string          `json:"type"`
	Amount            decimal.Decimal `json:"amount"`
	Date              string          `json:"date,omitempty"`
	Category          string          `json:"category,omitempty"`
	Description       string          `json:"description,omitempty"`
	IsRecurring       bool            `json:"isRecurring,omitempty"`
	RecurringInterval string          `json:"recurringInterval,omitempty"`
	ExcludeFromBudget bool            `json:"excludeFromBudget,omitempty"`
}

type CreateAccountRequest struct {
	Name           string           `json:"name"`
	Type           string           `json:"type,omitempty"`
	OpeningBalance decimal.Decimal  `json:"openingBalance"`
	MinimumBalance *decimal.Decimal `json:"minimumBalance,omitempty"`
	MonthlyBudget  *decimal.Decimal `json:"monthlyBudget,omitempty"`
	IsDefault      bool             `json:"isDefault,omitempty"`
}

type ListAccountsRequest struct{}

type GetAccountRequest struct {
	AccountID string `json:"accountId"`
}

type UpdateAccountRequest struct {
	AccountID      string          `json:"accountId"`
	Name           string          `json:"name"`
	Type           string          `json:"type"`
	MinimumBalance decimal.Decimal `json:"minimumBalance"`
	MonthlyBudget  decimal.Decimal `json:"monthlyBudget"`
}

type SetDefaultAccountRequest struct {
	AccountID string `json:"accountId"`
}

type AccountResponse struct {
	Data *Account `json:"data"`
}

type ListAccountsResponse struct {
	Data []*Account `json:"data"`
}

type GetAccountStatsRequest struct {
	AccountID string `json:"accountId"`
	From      string `json:"from,omitempty"`
	To        string `json:"to,omitempty"`
}

type CategoryTotal struct {
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
	Count    int             `json:"count"`
}

type AccountStats struct {
	AccountID          string          `json:"accountId"`
	TotalIncome        decimal.Decimal `json:"totalIncome"`
	TotalExpense       decimal.Decimal `json:"totalExpense"`
	Net                decimal.Decimal `json:"net"`
	IncomeCount        int             `json:"incomeCount"`
	ExpenseCount       int             `json:"expenseCount"`
	TransactionCount   int             `json:"transactionCount"`
	ExpensesByCategory []CategoryTotal `json:"expensesByCategory"`
}

type AccountStatsResponse struct {
	Data *AccountStats `json:"data"`
}

// GetBudgetStatusRequest asks for the spend of one month (YYYY-MM, default
// current). An empty AccountID covers all accounts.
type GetBudgetStatusRequest struct {
	AccountID string `json:"accountId,omitempty"`
	Month     string `json:"month,omitempty"`
}

type BudgetStatus struct {
	AccountID   string          `json:"accountId,omitempty"`
	Month       string          `json:"month"`
	Budget      decimal.Decimal `json:"budget"`
	Spent       decimal.Decimal `json:"spent"`
	Remaining   decimal.Decimal `json:"remaining"`
	PercentUsed decimal.Decimal `json:"percentUsed"`
}

type BudgetStatusResponse struct {
	Data *BudgetStatus `json:"data"`
}

type CreateTransactionRequest struct {
	TransactionDraft
}

type GetTransactionRequest struct {
	TransactionID string `json:"transactionId"`
}

type UpdateTransactionRequest struct {
	TransactionID string `json:"transactionId"`
	TransactionDraft
}

type TransactionResponse struct {
	Data *Transaction `json:"data"`
}

type BulkDeleteTransactionsRequest struct {
	TransactionIDs []string `json:"transactionIds"`
}

type BulkDeleteResult struct {
	Deleted  int                        `json:"deleted"`
	Balances map[string]decimal.Decimal `json:"balances"`
}

type BulkDeleteTransactionsResponse struct {
	Data *BulkDeleteResult `json:"data"`
}

type ListTransactionsRequest struct {
	AccountID string `json:"accountId,omitempty"`
	Type      string `json:"type,omitempty"`
	From      string `json:"from,omitempty"`
	To        string `json:"to,omitempty"`
	Limit     int    `json:"limit,omitempty"`
	Offset    int    `json:"offset,omitempty"`
}

type TransactionPage struct {
	Transactions []*Transaction `json:"transactions"`
	Total        int            `json:"total"`
	Limit        int            `json:"limit"`
	Offset       int            `json:"offset"`
}

type ListTransactionsResponse struct {
	Data *TransactionPage `json:"data"`
}

type BalanceRequest struct {
	AccountID string `json:"accountId"`
}

type Reconciliation struct {
	AccountID        string          `json:"accountId"`
	Previous         decimal.Decimal `json:"previous"`
	Recalculated     decimal.Decimal `json:"recalculated"`
	Drift            decimal.Decimal `json:"drift"`
	TransactionCount int             `json:"transactionCount"`
}

type ReconciliationResponse struct {
	Data *Reconciliation `json:"data"`
}
