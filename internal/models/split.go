package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SplitStatus is the lifecycle state of a split request.
//
//	PENDING → COMPLETED
//	PENDING → CANCELLED
type SplitStatus string

const (
	SplitPending   SplitStatus = "PENDING"
	SplitCompleted SplitStatus = "COMPLETED"
	SplitCancelled SplitStatus = "CANCELLED"
)

// ParticipantStatus is the state of one participant's share.
//
//	PENDING → APPROVED
//	PENDING → DECLINED
//	DECLINED → PENDING (re-request)
type ParticipantStatus string

const (
	ParticipantPending  ParticipantStatus = "PENDING"
	ParticipantApproved ParticipantStatus = "APPROVED"
	ParticipantDeclined ParticipantStatus = "DECLINED"
)

// SplitRequest is a shared expense initiated by one user and divided among friends.
type SplitRequest struct {
	// ID is the unique identifier for the split request (UUID format).
	ID string

	// RequesterID is the user who paid and asked friends to chip in.
	RequesterID string

	// RequesterAccountID is the account the requester's share was debited from.
	RequesterAccountID string

	// OriginalAmount is the total expense.
	OriginalAmount decimal.Decimal

	// SplitAmount is the requester's own share.
	SplitAmount decimal.Decimal

	Description string
	Category    string
	Date        time.Time

	// Status is PENDING until completed or cancelled.
	Status SplitStatus

	// RequesterTransactionID is the ledger entry that debited SplitAmount.
	RequesterTransactionID string

	// RejectedTransactionID is the ledger entry created by a pay-full resolution.
	RejectedTransactionID string

	// UserPaidFull is set when the requester completed the split without
	// recording the declined shares (complete-without-adding).
	UserPaidFull bool

	// Participants are the friends sharing the expense.
	Participants []SplitParticipant

	CreatedAt int64
	UpdatedAt int64
}

// SplitParticipant is one friend's share of a split request.
type SplitParticipant struct {
	// ID is the unique identifier for the participant row (UUID format).
	ID string

	// SplitRequestID is the owning split request.
	SplitRequestID string

	// UserID is the friend who owes this share.
	UserID string

	// Amount is this participant's share; always positive.
	Amount decimal.Decimal

	// Status is PENDING, APPROVED or DECLINED.
	Status ParticipantStatus

	// AccountID is the account the participant paid from. Set only on approval.
	AccountID string

	// ApprovedAt is the Unix timestamp of approval, zero otherwise.
	ApprovedAt int64

	// TransactionID is the ledger entry that debited Amount. Set only on approval.
	TransactionID string
}

// Participant returns the participant row for userID, or nil.
func (s *SplitRequest) Participant(userID string) *SplitParticipant {
	for i := range s.Participants {
		if s.Participants[i].UserID == userID {
			return &s.Participants[i]
		}
	}
	return nil
}

// AllApproved reports whether every participant has approved.
func (s *SplitRequest) AllApproved() bool {
	if len(s.Participants) == 0 {
		return false
	}
	for _, p := range s.Participants {
		if p.Status != ParticipantApproved {
			return false
		}
	}
	return true
}

// ParticipantsWithStatus returns the participants currently in status.
func (s *SplitRequest) ParticipantsWithStatus(status ParticipantStatus) []SplitParticipant {
	var out []SplitParticipant
	for _, p := range s.Participants {
		if p.Status == status {
			out = append(out, p)
		}
	}
	return out
}
