package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sideline/platform/internal/domain"
	"github.com/sideline/platform/internal/metrics"
	"github.com/sideline/platform/internal/odds"
	"github.com/sideline/platform/internal/projection"
	"github.com/sideline/platform/internal/repository"
)

// boardLookback keeps games that started recently on the board.
const boardLookback = 6 * time.Hour

// lineColumns are the override fields holding half-point lines; the rest are
// integer American prices.
var lineColumns = map[string]bool{
	"spread_line": true,
	"total_line":  true,
}

// OddsService renders the odds board and applies admin overrides.
type OddsService struct {
	pool      repository.DBTX
	repos     Repos
	preferred []string
	cache     projection.Store
	metrics   *metrics.Metrics
	logger    *slog.Logger
	now       func() time.Time
}

// NewOddsService creates an OddsService.
func NewOddsService(pool repository.DBTX, repos Repos, preferred []string, cache projection.Store, m *metrics.Metrics, logger *slog.Logger) *OddsService {
	return &OddsService{
		pool:      pool,
		repos:     repos,
		preferred: preferred,
		cache:     cache,
		metrics:   m,
		logger:    logger,
		now:       utcNow,
	}
}

// BoardEvent is one game on the odds board with its effective snapshot per market.
type BoardEvent struct {
	domain.Event
	BettingOpen bool                                   `json:"betting_open"`
	Markets     map[domain.Market]*domain.OddsSnapshot `json:"markets"`
}

// Board is the cached odds board.
type Board struct {
	GeneratedAt time.Time    `json:"generated_at"`
	Events      []BoardEvent `json:"events"`
}

// Board returns upcoming and recently started events with their odds.
func (s *OddsService) Board(ctx context.Context) (*Board, error) {
	var cached Board
	err := projection.GetBoard(ctx, s.cache, &cached)
	if err == nil {
		return &cached, nil
	}
	if !errors.Is(err, projection.ErrMiss) {
		s.logger.Warn("read odds board cache", "error", err)
	}

	now := s.now()
	since := now.Add(-boardLookback)
	events, err := s.repos.Events.List(ctx, s.pool, repository.EventFilter{Since: &since, Limit: 200})
	if err != nil {
		return nil, domain.ErrStorage("list events", err)
	}

	ids := make([]int64, 0, len(events))
	for _, e := range events {
		ids = append(ids, e.ID)
	}
	snaps, err := s.repos.Odds.ListByEvents(ctx, s.pool, ids)
	if err != nil {
		return nil, domain.ErrStorage("list odds", err)
	}
	byEvent := make(map[int64][]domain.OddsSnapshot, len(events))
	for _, snap := range snaps {
		byEvent[snap.EventID] = append(byEvent[snap.EventID], snap)
	}

	board := &Board{GeneratedAt: now, Events: make([]BoardEvent, 0, len(events))}
	for i := range events {
		board.Events = append(board.Events, BoardEvent{
			Event:       events[i],
			BettingOpen: events[i].BettingOpen(now),
			Markets:     odds.GroupByMarket(byEvent[events[i].ID], s.preferred),
		})
	}

	if err := projection.PutBoard(ctx, s.cache, board); err != nil {
		s.logger.Warn("write odds board cache", "error", err)
	}
	return board, nil
}

// OverrideInput forces prices or lines on every snapshot of an event market.
// Field values may be numbers, numeric strings or null.
type OverrideInput struct {
	EventID int64                  `json:"event_id" validate:"required,gt=0"`
	Market  domain.Market          `json:"market" validate:"required"`
	Fields  map[string]interface{} `json:"fields" validate:"required,min=1"`
}

// Override sets fields on the (event, market) snapshots and flags them so
// ingestion leaves them alone until the override is cleared.
func (s *OddsService) Override(ctx context.Context, in OverrideInput) error {
	if err := validateInput(in); err != nil {
		return err
	}
	if !in.Market.Valid() {
		return domain.ErrValidation(fmt.Sprintf("unknown market %q", in.Market))
	}
	fields, err := ParseOverrideFields(in.Fields)
	if err != nil {
		return err
	}

	n, err := s.repos.Odds.Override(ctx, s.pool, in.EventID, in.Market, fields)
	if err != nil {
		return domain.ErrStorage("override odds", err)
	}
	if n == 0 {
		return domain.ErrNotFound("odds", fmt.Sprintf("%d/%s", in.EventID, in.Market))
	}

	s.invalidateBoard(ctx)
	s.logger.Info("odds overridden",
		"event_id", in.EventID, "market", in.Market, "fields", sortedKeys(fields), "rows", n)
	return nil
}

// ClearOverride hands the (event, market) snapshots back to ingestion.
func (s *OddsService) ClearOverride(ctx context.Context, eventID int64, market domain.Market) error {
	if !market.Valid() {
		return domain.ErrValidation(fmt.Sprintf("unknown market %q", market))
	}
	n, err := s.repos.Odds.ClearOverride(ctx, s.pool, eventID, market)
	if err != nil {
		return domain.ErrStorage("clear odds override", err)
	}
	if n == 0 {
		return domain.ErrNotFound("odds", fmt.Sprintf("%d/%s", eventID, market))
	}
	s.invalidateBoard(ctx)
	s.logger.Info("odds override cleared", "event_id", eventID, "market", market)
	return nil
}

func (s *OddsService) invalidateBoard(ctx context.Context) {
	if err := projection.InvalidateBoard(ctx, s.cache); err != nil {
		s.logger.Warn("invalidate odds board", "error", err)
	}
}

// ParseOverrideFields converts decoded JSON values to column values. Prices
// become ints, lines become float64 and null clears the column. Booleans and
// non-numeric strings are rejected.
func ParseOverrideFields(raw map[string]interface{}) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(raw))
	for name, v := range raw {
		if !repository.OverridableOddsColumns[name] {
			return nil, domain.ErrValidation(fmt.Sprintf("field %q cannot be overridden", name))
		}
		if v == nil {
			out[name] = nil
			continue
		}

		var f float64
		switch val := v.(type) {
		case float64:
			f = val
		case int:
			f = float64(val)
		case int64:
			f = float64(val)
		case string:
			parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
			if err != nil {
				return nil, domain.ErrValidation(fmt.Sprintf("field %q must be numeric", name))
			}
			f = parsed
		default:
			return nil, domain.ErrValidation(fmt.Sprintf("field %q must be numeric", name))
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, domain.ErrValidation(fmt.Sprintf("field %q must be finite", name))
		}

		if lineColumns[name] {
			out[name] = f
			continue
		}
		price := int(math.Round(f))
		if price > -100 && price < 100 {
			return nil, domain.ErrValidation(fmt.Sprintf("field %q is not a valid American price", name))
		}
		out[name] = price
	}
	return out, nil
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
