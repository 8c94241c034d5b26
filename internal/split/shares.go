package split

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Share is one participant's part of a split.
type Share struct {
	UserID string
	Amount decimal.Decimal
}

// EqualShares divides total between the requester and the given participants.
// Amounts are rounded down to the cent and the leftover cents go to the
// requester, so the shares always add up to total exactly.
func EqualShares(total decimal.Decimal, participantIDs []string) (requesterShare decimal.Decimal, shares []Share, err error) {
	if !total.IsPositive() {
		return decimal.Zero, nil, fmt.Errorf("total must be greater than zero")
	}
	if len(participantIDs) == 0 {
		return decimal.Zero, nil, fmt.Errorf("must have at least one participant")
	}

	people := decimal.NewFromInt(int64(len(participantIDs) + 1))
	each := total.Div(people).RoundDown(2)
	if !each.IsPositive() {
		return decimal.Zero, nil, fmt.Errorf("total %s is too small to split %s ways", total, people)
	}

	shares = make([]Share, len(participantIDs))
	allocated := decimal.Zero
	for i, id := range participantIDs {
		shares[i] = Share{UserID: id, Amount: each}
		allocated = allocated.Add(each)
	}

	return total.Sub(allocated), shares, nil
}

// sumShares adds up the participant amounts.
func sumShares(shares []Share) decimal.Decimal {
	sum := decimal.Zero
	for _, s := range shares {
		sum = sum.Add(s.Amount)
	}
	return sum
}
