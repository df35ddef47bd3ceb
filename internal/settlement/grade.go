package settlement

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sideline/platform/internal/domain"
)

// Grade decides a bet against final scores using its frozen market, side and
// line. A spread bet wins when the selected side's score margin exceeds the
// stored line; ingestion stores the margin the home side must beat.
func Grade(market domain.Market, side domain.Side, line *float64, homeScore, awayScore int) (domain.Outcome, error) {
	if !market.Accepts(side) {
		return "", domain.ErrInvalidSelection(market, side)
	}
	if market.HasLine() && line == nil {
		return "", fmt.Errorf("%s bet has no line", market)
	}

	home := decimal.NewFromInt(int64(homeScore))
	away := decimal.NewFromInt(int64(awayScore))

	switch market {
	case domain.MarketMoneyline:
		margin := home.Sub(away)
		if side == domain.SideAway {
			margin = margin.Neg()
		}
		return outcomeOf(margin), nil

	case domain.MarketSpread:
		diff := home.Sub(away)
		if side == domain.SideAway {
			diff = diff.Neg()
		}
		return outcomeOf(diff.Sub(decimal.NewFromFloat(*line))), nil

	case domain.MarketTotal:
		margin := home.Add(away).Sub(decimal.NewFromFloat(*line))
		if side == domain.SideUnder {
			margin = margin.Neg()
		}
		return outcomeOf(margin), nil
	}

	return "", fmt.Errorf("unknown market %q", market)
}

func outcomeOf(margin decimal.Decimal) domain.Outcome {
	switch margin.Sign() {
	case 1:
		return domain.OutcomeWin
	case 0:
		return domain.OutcomePush
	default:
		return domain.OutcomeLoss
	}
}
