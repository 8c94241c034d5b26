package api

import "github.com/shopspring/decimal"

// Respond actions.
const (
	RespondApprove = "approve"
	RespondDecline = "decline"
)

type SplitParticipant struct {
	ID            string          `json:"id"`
	UserID        string          `json:"userId"`
	Amount        decimal.Decimal `json:"amount"`
	Status        string          `json:"status"`
	AccountID     string          `json:"accountId,omitempty"`
	ApprovedAt    int64           `json:"approvedAt,omitempty"`
	TransactionID string          `json:"transactionId,omitempty"`
}

type SplitRequest struct {
	ID                     string             `json:"id"`
	RequesterID            string             `json:"requesterId"`
	RequesterAccountID     string             `json:"requesterAccountId"`
	OriginalAmount         decimal.Decimal    `json:"originalAmount"`
	SplitAmount            decimal.Decimal    `json:"splitAmount"`
	Description            string             `json:"description"`
	Category               string             `json:"category,omitempty"`
	Date                   string             `json:"date"`
	Status                 string             `json:"status"`
	RequesterTransactionID string             `json:"requesterTransactionId,omitempty"`
	RejectedTransactionID  string             `json:"rejectedTransactionId,omitempty"`
	UserPaidFull           bool               `json:"userPaidFull"`
	Participants           []SplitParticipant `json:"participants"`
	CreatedAt              int64              `json:"createdAt"`
	UpdatedAt              int64              `json:"updatedAt"`
}

type ParticipantShare struct {
	UserID string          `json:"userId"`
	Amount decimal.Decimal `json:"amount"`
}

// CreateSplitRequest opens a split. With SplitEqually set, RequesterShare and
// the participant amounts are computed from TotalAmount and ParticipantIDs.
type CreateSplitRequest struct {
	TotalAmount        decimal.Decimal    `json:"totalAmount"`
	RequesterShare     decimal.Decimal    `json:"requesterShare"`
	Description        string             `json:"description"`
	Category           string             `json:"category,omitempty"`
	Date               string             `json:"date,omitempty"`
	RequesterAccountID string             `json:"requesterAccountId"`
	Participants       []ParticipantShare `json:"participants,omitempty"`
	SplitEqually       bool               `json:"splitEqually,omitempty"`
	ParticipantIDs     []string           `json:"participantIds,omitempty"`
}

type GetSplitRequest struct {
	SplitID string `json:"splitId"`
}

type ListSplitsRequest struct{}

// RespondToSplitRequest approves (paying from AccountID) or declines the caller's share.
type RespondToSplitRequest struct {
	SplitID   string `json:"splitId"`
	Action    string `json:"action"`
	AccountID string `json:"accountId,omitempty"`
}

// ResolveSplitRequest settles declined shares with one of re-request,
// pay-full or complete-without-adding.
type ResolveSplitRequest struct {
	SplitID        string   `json:"splitId"`
	Action         string   `json:"action"`
	AccountID      string   `json:"accountId,omitempty"`
	ParticipantIDs []string `json:"participantIds,omitempty"`
}

type CancelSplitRequest struct {
	SplitID string `json:"splitId"`
}

type SplitResponse struct {
	Data *SplitRequest `json:"data"`
}

type SplitLists struct {
	Created       []*SplitRequest `json:"created"`
	Participating []*SplitRequest `json:"participating"`
}

type ListSplitsResponse struct {
	Data *SplitLists `json:"data"`
}
