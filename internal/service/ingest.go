package service

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strings"

	"github.com/sideline/platform/internal/domain"
	"github.com/sideline/platform/internal/metrics"
	"github.com/sideline/platform/internal/projection"
	"github.com/sideline/platform/internal/provider"
	"github.com/sideline/platform/internal/repository"
)

// scoresLookbackDays is how far back completed games are fetched.
const scoresLookbackDays = 3

// defaultBookmaker labels feed snapshots that arrive without a bookmaker key.
const defaultBookmaker = "theoddsapi"

// sportLabels maps feed sport keys to display labels.
var sportLabels = map[string]string{
	"americanfootball_nfl":   "NFL",
	"americanfootball_ncaaf": "NCAAF",
}

// SportLabel returns the display label for a feed sport key. Unmapped keys
// use their upper-cased last segment, so "basketball_nba" becomes "NBA".
func SportLabel(key string) string {
	if label, ok := sportLabels[key]; ok {
		return label
	}
	if i := strings.LastIndex(key, "_"); i >= 0 {
		key = key[i+1:]
	}
	return strings.ToUpper(key)
}

// OddsFeed is the upstream odds and scores source.
type OddsFeed interface {
	FetchOdds(ctx context.Context, sportKey string) ([]provider.OddsEvent, error)
	FetchScores(ctx context.Context, sportKey string, daysFrom int) ([]provider.ScoreEvent, error)
}

// IngestService pulls odds and final scores from the feed into the store.
type IngestService struct {
	pool    repository.DBTX
	repos   Repos
	feed    OddsFeed
	sports  []string
	cache   projection.Store
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewIngestService creates an IngestService for the given feed sport keys.
func NewIngestService(pool repository.DBTX, repos Repos, feed OddsFeed, sports []string, cache projection.Store, m *metrics.Metrics, logger *slog.Logger) *IngestService {
	return &IngestService{
		pool:    pool,
		repos:   repos,
		feed:    feed,
		sports:  sports,
		cache:   cache,
		metrics: m,
		logger:  logger,
	}
}

// SportFailure records a sport the sync could not complete.
type SportFailure struct {
	Sport string `json:"sport"`
	Error string `json:"error"`
}

// SyncResult summarises one odds pull.
type SyncResult struct {
	Events    int            `json:"events"`
	Snapshots int            `json:"snapshots"`
	Skipped   int            `json:"skipped_overridden"`
	Failures  []SportFailure `json:"failures,omitempty"`
}

// SyncOdds upserts every feed event and its bookmaker snapshots. A failing
// sport or event is logged and skipped; the rest of the pull continues.
// Snapshots under an admin override are left untouched.
func (s *IngestService) SyncOdds(ctx context.Context) (*SyncResult, error) {
	result := &SyncResult{}
	for _, sport := range s.sports {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		feedEvents, err := s.feed.FetchOdds(ctx, sport)
		if err != nil {
			s.logger.Warn("fetch odds", "sport", sport, "error", err)
			result.Failures = append(result.Failures, SportFailure{Sport: sport, Error: err.Error()})
			continue
		}

		label := SportLabel(sport)
		for i := range feedEvents {
			if err := s.ingestEvent(ctx, label, &feedEvents[i], result); err != nil {
				s.logger.Warn("ingest event", "sport", sport, "event_key", feedEvents[i].ID, "error", err)
			}
		}
	}

	if result.Events > 0 {
		if err := projection.InvalidateBoard(ctx, s.cache); err != nil {
			s.logger.Warn("invalidate odds board", "error", err)
		}
	}
	s.logger.Info("odds sync complete",
		"events", result.Events, "snapshots", result.Snapshots,
		"skipped_overridden", result.Skipped, "failed_sports", len(result.Failures))

	if len(s.sports) > 0 && len(result.Failures) == len(s.sports) {
		return result, domain.ErrUnknown("every sport failed to sync", errors.New(result.Failures[0].Error))
	}
	return result, nil
}

func (s *IngestService) ingestEvent(ctx context.Context, label string, fe *provider.OddsEvent, result *SyncResult) error {
	event, err := s.repos.Events.UpsertByKey(ctx, s.pool, &domain.Event{
		EventKey:     fe.ID,
		Sport:        label,
		League:       label,
		HomeTeam:     fe.HomeTeam,
		AwayTeam:     fe.AwayTeam,
		CommenceTime: fe.CommenceTime.UTC(),
		Status:       domain.EventScheduled,
	})
	if err != nil {
		return err
	}
	result.Events++

	for _, bm := range fe.Bookmakers {
		bookmaker := bm.Key
		if bookmaker == "" {
			bookmaker = defaultBookmaker
		}
		for _, m := range bm.Markets {
			snap := SnapshotFromFeed(event.ID, bookmaker, fe.HomeTeam, fe.AwayTeam, m)
			if snap == nil {
				continue
			}
			written, err := s.repos.Odds.Upsert(ctx, s.pool, snap)
			if err != nil {
				return err
			}
			s.metrics.OddsUpserted(written)
			if written {
				result.Snapshots++
			} else {
				result.Skipped++
			}
		}
	}
	return nil
}

// SnapshotFromFeed maps one feed market to a snapshot row. h2h becomes
// moneyline, spreads becomes spread and totals becomes total; other markets
// return nil. The spread line is the away team's point, the margin the home
// side has to beat. Prices are rounded to whole American odds.
func SnapshotFromFeed(eventID int64, bookmaker, homeTeam, awayTeam string, m provider.Market) *domain.OddsSnapshot {
	snap := &domain.OddsSnapshot{EventID: eventID, Bookmaker: bookmaker}

	switch m.Key {
	case "h2h":
		snap.Market = domain.MarketMoneyline
		for _, o := range m.Outcomes {
			switch o.Name {
			case homeTeam:
				snap.HomeML = americanPrice(o.Price)
			case awayTeam:
				snap.AwayML = americanPrice(o.Price)
			}
		}

	case "spreads":
		snap.Market = domain.MarketSpread
		var homePoint, awayPoint *float64
		for _, o := range m.Outcomes {
			switch o.Name {
			case homeTeam:
				snap.HomeSpreadAmerican = americanPrice(o.Price)
				homePoint = o.Point
			case awayTeam:
				snap.AwaySpreadAmerican = americanPrice(o.Price)
				awayPoint = o.Point
			}
		}
		switch {
		case awayPoint != nil:
			line := *awayPoint
			snap.SpreadLine = &line
		case homePoint != nil:
			line := -*homePoint
			snap.SpreadLine = &line
		}

	case "totals":
		snap.Market = domain.MarketTotal
		for _, o := range m.Outcomes {
			if o.Point != nil {
				line := *o.Point
				snap.TotalLine = &line
			}
			switch strings.ToLower(o.Name) {
			case "over":
				snap.OverAmerican = americanPrice(o.Price)
			case "under":
				snap.UnderAmerican = americanPrice(o.Price)
			}
		}

	default:
		return nil
	}
	return snap
}

func americanPrice(p float64) *int {
	v := int(math.Round(p))
	if v == 0 {
		return nil
	}
	return &v
}

// ScoresResult summarises one score sync.
type ScoresResult struct {
	Finalized int            `json:"finalized"`
	Failures  []SportFailure `json:"failures,omitempty"`
}

// SyncScores marks completed games final with their scores. Events that are
// already final or cancelled are left alone.
func (s *IngestService) SyncScores(ctx context.Context) (*ScoresResult, error) {
	result := &ScoresResult{}
	for _, sport := range s.sports {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		games, err := s.feed.FetchScores(ctx, sport, scoresLookbackDays)
		if err != nil {
			s.logger.Warn("fetch scores", "sport", sport, "error", err)
			result.Failures = append(result.Failures, SportFailure{Sport: sport, Error: err.Error()})
			continue
		}

		for _, g := range games {
			home, away, ok := g.FinalScores()
			if !ok {
				continue
			}
			finalized, err := s.repos.Events.MarkFinalByKey(ctx, s.pool, g.ID, home, away)
			if err != nil {
				s.logger.Warn("mark event final", "event_key", g.ID, "error", err)
				continue
			}
			if finalized {
				result.Finalized++
				s.logger.Info("event final", "event_key", g.ID, "home_score", home, "away_score", away)
			}
		}
	}

	if result.Finalized > 0 {
		if err := projection.InvalidateBoard(ctx, s.cache); err != nil {
			s.logger.Warn("invalidate odds board", "error", err)
		}
	}
	if len(s.sports) > 0 && len(result.Failures) == len(s.sports) {
		return result, domain.ErrUnknown("every sport failed to sync scores", errors.New(result.Failures[0].Error))
	}
	return result, nil
}
