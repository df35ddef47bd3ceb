package settlement

import (
	"testing"

	"github.com/sideline/platform/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func linePtr(v float64) *float64 { return &v }

func TestGrade(t *testing.T) {
	tests := []struct {
		name   string
		market domain.Market
		side   domain.Side
		line   *float64
		home   int
		away   int
		want   domain.Outcome
	}{
		{"moneyline home wins", domain.MarketMoneyline, domain.SideHome, nil, 24, 17, domain.OutcomeWin},
		{"moneyline away loses", domain.MarketMoneyline, domain.SideAway, nil, 24, 17, domain.OutcomeLoss},
		{"moneyline away wins", domain.MarketMoneyline, domain.SideAway, nil, 3, 10, domain.OutcomeWin},
		{"moneyline tie pushes home", domain.MarketMoneyline, domain.SideHome, nil, 20, 20, domain.OutcomePush},
		{"moneyline tie pushes away", domain.MarketMoneyline, domain.SideAway, nil, 20, 20, domain.OutcomePush},

		{"spread home covers", domain.MarketSpread, domain.SideHome, linePtr(-3.5), 20, 10, domain.OutcomeWin},
		{"spread away fails to cover", domain.MarketSpread, domain.SideAway, linePtr(-3.5), 20, 10, domain.OutcomeLoss},
		{"spread whole line push home", domain.MarketSpread, domain.SideHome, linePtr(7), 17, 10, domain.OutcomePush},
		{"spread whole line push away", domain.MarketSpread, domain.SideAway, linePtr(-7), 17, 10, domain.OutcomePush},
		{"spread home short of line", domain.MarketSpread, domain.SideHome, linePtr(3.5), 13, 10, domain.OutcomeLoss},

		{"total over wins", domain.MarketTotal, domain.SideOver, linePtr(44.5), 24, 21, domain.OutcomeWin},
		{"total under loses", domain.MarketTotal, domain.SideUnder, linePtr(44.5), 24, 21, domain.OutcomeLoss},
		{"total under wins", domain.MarketTotal, domain.SideUnder, linePtr(44.5), 21, 20, domain.OutcomeWin},
		{"total push over", domain.MarketTotal, domain.SideOver, linePtr(44), 24, 20, domain.OutcomePush},
		{"total push under", domain.MarketTotal, domain.SideUnder, linePtr(44), 24, 20, domain.OutcomePush},
		{"scoreless under", domain.MarketTotal, domain.SideUnder, linePtr(0.5), 0, 0, domain.OutcomeWin},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Grade(tt.market, tt.side, tt.line, tt.home, tt.away)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGrade_Errors(t *testing.T) {
	t.Run("mismatched side", func(t *testing.T) {
		_, err := Grade(domain.MarketTotal, domain.SideHome, linePtr(40), 1, 2)
		require.Error(t, err)
		assert.True(t, domain.HasCode(err, domain.CodeInvalidSelection))
	})

	t.Run("spread without line", func(t *testing.T) {
		_, err := Grade(domain.MarketSpread, domain.SideHome, nil, 1, 2)
		require.Error(t, err)
	})

	t.Run("total without line", func(t *testing.T) {
		_, err := Grade(domain.MarketTotal, domain.SideOver, nil, 1, 2)
		require.Error(t, err)
	})
}

func TestGrade_TotalSidesMirror(t *testing.T) {
	lines := []float64{0.5, 37, 44.5, 51}
	scores := [][2]int{{0, 0}, {20, 17}, {24, 20}, {31, 20}}
	mirror := map[domain.Outcome]domain.Outcome{
		domain.OutcomeWin:  domain.OutcomeLoss,
		domain.OutcomeLoss: domain.OutcomeWin,
		domain.OutcomePush: domain.OutcomePush,
	}

	for _, l := range lines {
		for _, s := range scores {
			over, err := Grade(domain.MarketTotal, domain.SideOver, linePtr(l), s[0], s[1])
			require.NoError(t, err)
			under, err := Grade(domain.MarketTotal, domain.SideUnder, linePtr(l), s[0], s[1])
			require.NoError(t, err)
			assert.Equal(t, mirror[over], under, "line %v score %v", l, s)
		}
	}
}
