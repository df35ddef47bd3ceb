// Package odds holds the pure price arithmetic shared by placement and
// settlement, and the rules for picking the snapshot that prices a bet.
package odds

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sideline/platform/internal/domain"
)

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// ToDecimal converts American odds to decimal odds.
// +150 → 2.5, -200 → 1.5.
func ToDecimal(american int) (decimal.Decimal, error) {
	if american == 0 {
		return decimal.Zero, fmt.Errorf("american odds cannot be zero")
	}
	am := decimal.NewFromInt(int64(american))
	if american > 0 {
		return one.Add(am.Div(hundred)), nil
	}
	return one.Add(hundred.Div(am.Abs())), nil
}

// Payout returns the total credit for a winning stake: round(stake × decimal),
// halves rounded away from zero.
func Payout(stakeCents int64, american int) (int64, error) {
	dec, err := ToDecimal(american)
	if err != nil {
		return 0, err
	}
	return decimal.NewFromInt(stakeCents).Mul(dec).Round(0).IntPart(), nil
}

// SettlementCredit is the amount returned to the wallet for a graded bet.
// A push refunds the stake, a loss credits nothing.
func SettlementCredit(outcome domain.Outcome, stakeCents int64, american int) (int64, error) {
	switch outcome {
	case domain.OutcomeWin:
		return Payout(stakeCents, american)
	case domain.OutcomePush:
		return stakeCents, nil
	case domain.OutcomeLoss:
		return 0, nil
	}
	return 0, fmt.Errorf("unknown outcome %q", outcome)
}

// CreditReason maps a positive settlement credit to its ledger reason.
func CreditReason(outcome domain.Outcome) domain.LedgerReason {
	if outcome == domain.OutcomePush {
		return domain.ReasonBetPushRefund
	}
	return domain.ReasonBetWin
}
