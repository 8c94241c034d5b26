package service

import (
	"fmt"
	"time"

	"github.com/mmynk/fintrack/internal/ledger"
	"github.com/mmynk/fintrack/internal/models"
	"github.com/mmynk/fintrack/pkg/api"
)

func toAPIAccount(a *models.Account) *api.Account {
	return &api.Account{
		ID:               a.ID,
		UserID:           a.UserID,
		Name:             a.Name,
		Type:             string(a.Type),
		Balance:          a.Balance,
		OpeningBalance:   a.OpeningBalance,
		MinimumBalance:   a.MinimumBalance,
		MonthlyBudget:    a.MonthlyBudget,
		IsDefault:        a.IsDefault,
		TransactionCount: a.TransactionCount,
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
	}
}

func toAPITransaction(t *models.Transaction) *api.Transaction {
	out := &api.Transaction{
		ID:                t.ID,
		AccountID:         t.AccountID,
		UserID:            t.UserID,
		Type:              string(t.Type),
		Amount:            t.Amount,
		Date:              api.FormatDate(t.Date),
		Category:          t.Category,
		Description:       t.Description,
		IsRecurring:       t.IsRecurring,
		RecurringInterval: string(t.RecurringInterval),
		ExcludeFromBudget: t.ExcludeFromBudget,
		Status:            string(t.Status),
		SplitRequestID:    t.SplitRequestID,
		CreatedAt:         t.CreatedAt,
		UpdatedAt:         t.UpdatedAt,
	}
	if t.NextRecurringDate != nil {
		out.NextRecurringDate = api.FormatDate(*t.NextRecurringDate)
	}
	return out
}

func toAPITransactions(txs []*models.Transaction) []*api.Transaction {
	out := make([]*api.Transaction, len(txs))
	for i, t := range txs {
		out[i] = toAPITransaction(t)
	}
	return out
}

func toAPISplit(s *models.SplitRequest) *api.SplitRequest {
	out := &api.SplitRequest{
		ID:                     s.ID,
		RequesterID:            s.RequesterID,
		RequesterAccountID:     s.RequesterAccountID,
		OriginalAmount:         s.OriginalAmount,
		SplitAmount:            s.SplitAmount,
		Description:            s.Description,
		Category:               s.Category,
		Date:                   api.FormatDate(s.Date),
		Status:                 string(s.Status),
		RequesterTransactionID: s.RequesterTransactionID,
		RejectedTransactionID:  s.RejectedTransactionID,
		UserPaidFull:           s.UserPaidFull,
		Participants:           make([]api.SplitParticipant, len(s.Participants)),
		CreatedAt:              s.CreatedAt,
		UpdatedAt:              s.UpdatedAt,
	}
	for i, p := range s.Participants {
		out.Participants[i] = api.SplitParticipant{
			ID:            p.ID,
			UserID:        p.UserID,
			Amount:        p.Amount,
			Status:        string(p.Status),
			AccountID:     p.AccountID,
			ApprovedAt:    p.ApprovedAt,
			TransactionID: p.TransactionID,
		}
	}
	return out
}

func toAPISplits(splits []*models.SplitRequest) []*api.SplitRequest {
	out := make([]*api.SplitRequest, len(splits))
	for i, s := range splits {
		out[i] = toAPISplit(s)
	}
	return out
}

func toAPIReconciliation(r *ledger.Reconciliation) *api.Reconciliation {
	return &api.Reconciliation{
		AccountID:        r.AccountID,
		Previous:         r.Stored,
		Recalculated:     r.Expected,
		Drift:            r.Drift,
		TransactionCount: r.TransactionCount,
	}
}

// fromAPIDraft converts a wire draft into a ledger draft.
func fromAPIDraft(d api.TransactionDraft) (ledger.Draft, error) {
	date, err := api.ParseDate(d.Date)
	if err != nil {
		return ledger.Draft{}, err
	}
	return ledger.Draft{
		AccountID:         d.AccountID,
		Type:              models.TransactionType(d.Type),
		Amount:            d.Amount,
		Date:              date,
		Category:          d.Category,
		Description:       d.Description,
		IsRecurring:       d.IsRecurring,
		RecurringInterval: models.RecurringInterval(d.RecurringInterval),
		ExcludeFromBudget: d.ExcludeFromBudget,
	}, nil
}

// parseWindow parses optional from/to dates. to is inclusive of its whole day.
func parseWindow(from, to string) (*time.Time, *time.Time, error) {
	var fromT, toT *time.Time
	if from != "" {
		t, err := api.ParseDate(from)
		if err != nil {
			return nil, nil, err
		}
		fromT = &t
	}
	if to != "" {
		t, err := api.ParseDate(to)
		if err != nil {
			return nil, nil, err
		}
		t = t.AddDate(0, 0, 1).Add(-time.Second)
		toT = &t
	}
	if fromT != nil && toT != nil && toT.Before(*fromT) {
		return nil, nil, fmt.Errorf("from %s is after to %s", from, to)
	}
	return fromT, toT, nil
}
