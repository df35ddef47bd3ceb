package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventStatus tracks the lifecycle of a sporting event.
type EventStatus string

const (
	EventScheduled EventStatus = "scheduled"
	EventOpen      EventStatus = "open"
	EventFinal     EventStatus = "final"
	EventCancelled EventStatus = "cancelled"
)

// AcceptsBets reports whether the status allows new wagers.
func (s EventStatus) AcceptsBets() bool {
	return s == EventScheduled || s == EventOpen
}

// Event represents an events row.
type Event struct {
	ID           int64       `json:"id"`
	EventKey     string      `json:"event_key"`
	Sport        string      `json:"sport"`
	League       string      `json:"league"`
	HomeTeam     string      `json:"home_team"`
	AwayTeam     string      `json:"away_team"`
	CommenceTime time.Time   `json:"commence_time"`
	Status       EventStatus `json:"status"`
	HomeScore    *int        `json:"home_score,omitempty"`
	AwayScore    *int        `json:"away_score,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// BettingOpen reports whether a bet may be placed on the event at now.
func (e *Event) BettingOpen(now time.Time) bool {
	return e.Status.AcceptsBets() && now.Before(e.CommenceTime)
}

// FinalScores returns the final scores, treating missing values as zero.
func (e *Event) FinalScores() (home, away int) {
	if e.HomeScore != nil {
		home = *e.HomeScore
	}
	if e.AwayScore != nil {
		away = *e.AwayScore
	}
	return home, away
}

// Market is a bet market kind.
type Market string

const (
	MarketMoneyline Market = "moneyline"
	MarketSpread    Market = "spread"
	MarketTotal     Market = "total"
)

// AllMarkets lists markets in display order.
func AllMarkets() []Market {
	return []Market{MarketMoneyline, MarketSpread, MarketTotal}
}

// Valid reports whether m is a known market.
func (m Market) Valid() bool {
	switch m {
	case MarketMoneyline, MarketSpread, MarketTotal:
		return true
	}
	return false
}

// HasLine reports whether bets on the market carry a line.
func (m Market) HasLine() bool {
	return m == MarketSpread || m == MarketTotal
}

// Side is the selection within a market.
type Side string

const (
	SideHome  Side = "home"
	SideAway  Side = "away"
	SideOver  Side = "over"
	SideUnder Side = "under"
)

// Accepts reports whether side is a valid selection for the market.
// home/away belong to moneyline and spread; over/under belong to total.
func (m Market) Accepts(side Side) bool {
	switch m {
	case MarketMoneyline, MarketSpread:
		return side == SideHome || side == SideAway
	case MarketTotal:
		return side == SideOver || side == SideUnder
	}
	return false
}

// OddsSnapshot represents an odds_snapshots row: the latest prices for one
// event, bookmaker and market.
type OddsSnapshot struct {
	ID                 int64     `json:"id"`
	EventID            int64     `json:"event_id"`
	Bookmaker          string    `json:"bookmaker"`
	Market             Market    `json:"market"`
	HomeML             *int      `json:"home_ml,omitempty"`
	AwayML             *int      `json:"away_ml,omitempty"`
	SpreadLine         *float64  `json:"spread_line,omitempty"`
	HomeSpreadAmerican *int      `json:"home_spread_american,omitempty"`
	AwaySpreadAmerican *int      `json:"away_spread_american,omitempty"`
	TotalLine          *float64  `json:"total_line,omitempty"`
	OverAmerican       *int      `json:"over_american,omitempty"`
	UnderAmerican      *int      `json:"under_american,omitempty"`
	IsOverridden       bool      `json:"is_overridden"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Quote returns the American price and line for a side of the snapshot's
// market. Either may be nil when the feed has not priced it.
func (s *OddsSnapshot) Quote(side Side) (price *int, line *float64) {
	switch s.Market {
	case MarketMoneyline:
		switch side {
		case SideHome:
			return s.HomeML, nil
		case SideAway:
			return s.AwayML, nil
		}
	case MarketSpread:
		switch side {
		case SideHome:
			return s.HomeSpreadAmerican, s.SpreadLine
		case SideAway:
			return s.AwaySpreadAmerican, s.SpreadLine
		}
	case MarketTotal:
		switch side {
		case SideOver:
			return s.OverAmerican, s.TotalLine
		case SideUnder:
			return s.UnderAmerican, s.TotalLine
		}
	}
	return nil, nil
}

// BetStatus tracks the lifecycle of a bet. Pending is the only mutable state.
type BetStatus string

const (
	BetPending BetStatus = "pending"
	BetWon     BetStatus = "won"
	BetLost    BetStatus = "lost"
	BetPush    BetStatus = "push"
)

// Outcome is the graded result of a bet.
type Outcome string

const (
	OutcomeWin  Outcome = "win"
	OutcomeLoss Outcome = "loss"
	OutcomePush Outcome = "push"
)

// BetStatus maps a graded outcome to the terminal bet status.
func (o Outcome) BetStatus() BetStatus {
	switch o {
	case OutcomeWin:
		return BetWon
	case OutcomePush:
		return BetPush
	default:
		return BetLost
	}
}

// Bet represents a bets row. Odds and line are frozen at placement.
type Bet struct {
	ID             uuid.UUID  `json:"id"`
	UserID         uuid.UUID  `json:"user_id"`
	EventID        int64      `json:"event_id"`
	Market         Market     `json:"market"`
	Side           Side       `json:"side"`
	AmericanOdds   int        `json:"american_odds"`
	Line           *float64   `json:"line,omitempty"`
	StakeCents     int64      `json:"stake_cents"`
	Status         BetStatus  `json:"status"`
	PayoutCents    *int64     `json:"payout_cents,omitempty"`
	IdempotencyKey *string    `json:"-"`
	PlacedAt       time.Time  `json:"placed_at"`
	SettledAt      *time.Time `json:"settled_at,omitempty"`
}

// BetWithEvent is a bet joined with its event for history views.
type BetWithEvent struct {
	Bet
	HomeTeam     string      `json:"home_team"`
	AwayTeam     string      `json:"away_team"`
	CommenceTime time.Time   `json:"commence_time"`
	EventStatus  EventStatus `json:"event_status"`
}

// SettleableBet is a pending bet whose event has gone final.
type SettleableBet struct {
	Bet
	HomeScore int
	AwayScore int
}
