package ledger

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/mmynk/fintrack/internal/models"
)

// Totals is an aggregation over a snapshot of transactions.
type Totals struct {
	Income       decimal.Decimal
	Expense      decimal.Decimal
	IncomeCount  int
	ExpenseCount int
}

// Net returns income minus expenses.
func (t Totals) Net() decimal.Decimal {
	return t.Income.Sub(t.Expense)
}

// Count returns the number of transactions aggregated.
func (t Totals) Count() int {
	return t.IncomeCount + t.ExpenseCount
}

// SumSigned folds the signed amounts of txs.
func SumSigned(txs []*models.Transaction) decimal.Decimal {
	sum := decimal.Zero
	for _, t := range txs {
		sum = sum.Add(t.SignedAmount())
	}
	return sum
}

// Summarize totals income and expenses separately.
func Summarize(txs []*models.Transaction) Totals {
	totals := Totals{Income: decimal.Zero, Expense: decimal.Zero}
	for _, t := range txs {
		switch t.Type {
		case models.Income:
			totals.Income = totals.Income.Add(t.Amount)
			totals.IncomeCount++
		case models.Expense:
			totals.Expense = totals.Expense.Add(t.Amount)
			totals.ExpenseCount++
		}
	}
	return totals
}

// BudgetSpend sums the expenses that count towards a monthly budget.
func BudgetSpend(txs []*models.Transaction) decimal.Decimal {
	sum := decimal.Zero
	for _, t := range txs {
		if t.Type == models.Expense && !t.ExcludeFromBudget {
			sum = sum.Add(t.Amount)
		}
	}
	return sum
}

// CategoryTotal is the amount spent or earned in one category.
type CategoryTotal struct {
	Category string
	Amount   decimal.Decimal
	Count    int
}

// ByCategory groups transactions of the given type by category, largest first.
func ByCategory(txs []*models.Transaction, typ models.TransactionType) []CategoryTotal {
	index := make(map[string]int)
	var out []CategoryTotal
	for _, t := range txs {
		if t.Type != typ {
			continue
		}
		i, ok := index[t.Category]
		if !ok {
			i = len(out)
			index[t.Category] = i
			out = append(out, CategoryTotal{Category: t.Category, Amount: decimal.Zero})
		}
		out[i].Amount = out[i].Amount.Add(t.Amount)
		out[i].Count++
	}

	sort.SliceStable(out, func(i, j int) bool {
		if c := out[i].Amount.Cmp(out[j].Amount); c != 0 {
			return c > 0
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// netByAccount returns, per account, the signed sum of txs.
func netByAccount(txs []*models.Transaction) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for _, t := range txs {
		out[t.AccountID] = out[t.AccountID].Add(t.SignedAmount())
	}
	return out
}
