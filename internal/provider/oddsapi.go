package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sideline/platform/internal/guard"
)

// ErrQuotaExceeded is returned when The Odds API answers 429.
var ErrQuotaExceeded = errors.New("odds api quota exceeded")

// ErrCircuitOpen is returned while the breaker is refusing calls.
var ErrCircuitOpen = errors.New("odds api circuit open")

const circuitKey = "oddsapi"

// ── Odds API Types ──

// OddsEvent is one game from /v4/sports/{sport}/odds.
type OddsEvent struct {
	ID           string      `json:"id"`
	SportKey     string      `json:"sport_key"`
	SportTitle   string      `json:"sport_title"`
	CommenceTime time.Time   `json:"commence_time"`
	HomeTeam     string      `json:"home_team"`
	AwayTeam     string      `json:"away_team"`
	Bookmakers   []Bookmaker `json:"bookmakers"`
}

type Bookmaker struct {
	Key        string    `json:"key"`
	Title      string    `json:"title"`
	LastUpdate time.Time `json:"last_update"`
	Markets    []Market  `json:"markets"`
}

// Market is a feed market: h2h, spreads or totals.
type Market struct {
	Key      string    `json:"key"`
	Outcomes []Outcome `json:"outcomes"`
}

// Outcome is a priced side. Price is American when requested with
// oddsFormat=american; Point carries the spread or total line.
type Outcome struct {
	Name  string   `json:"name"`
	Price float64  `json:"price"`
	Point *float64 `json:"point,omitempty"`
}

// ScoreEvent is one game from /v4/sports/{sport}/scores.
type ScoreEvent struct {
	ID           string      `json:"id"`
	SportKey     string      `json:"sport_key"`
	CommenceTime time.Time   `json:"commence_time"`
	Completed    bool        `json:"completed"`
	HomeTeam     string      `json:"home_team"`
	AwayTeam     string      `json:"away_team"`
	Scores       []TeamScore `json:"scores"`
}

type TeamScore struct {
	Name  string `json:"name"`
	Score string `json:"score"`
}

// FinalScores returns the home and away scores of a completed game.
func (e ScoreEvent) FinalScores() (home, away int, ok bool) {
	if !e.Completed {
		return 0, 0, false
	}
	var foundHome, foundAway bool
	for _, s := range e.Scores {
		n, err := strconv.Atoi(strings.TrimSpace(s.Score))
		if err != nil {
			return 0, 0, false
		}
		switch s.Name {
		case e.HomeTeam:
			home, foundHome = n, true
		case e.AwayTeam:
			away, foundAway = n, true
		}
	}
	return home, away, foundHome && foundAway
}

// OddsAPIConfig holds the feed parameters.
type OddsAPIConfig struct {
	BaseURL    string
	APIKey     string
	Regions    string
	Markets    string
	Bookmakers string
}

// ── OddsAPIClient ──

// OddsAPIClient reads odds and scores from The Odds API.
type OddsAPIClient struct {
	cfg     OddsAPIConfig
	client  *http.Client
	breaker *guard.CircuitBreaker
	logger  *slog.Logger
}

// NewOddsAPIClient creates a client. A nil breaker disables circuit breaking.
func NewOddsAPIClient(cfg OddsAPIConfig, breaker *guard.CircuitBreaker, logger *slog.Logger) *OddsAPIClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.the-odds-api.com"
	}
	return &OddsAPIClient{
		cfg:     cfg,
		client:  &http.Client{Timeout: 30 * time.Second},
		breaker: breaker,
		logger:  logger,
	}
}

// FetchOdds returns upcoming games with American prices for one sport.
func (c *OddsAPIClient) FetchOdds(ctx context.Context, sportKey string) ([]OddsEvent, error) {
	q := url.Values{}
	q.Set("regions", c.cfg.Regions)
	q.Set("markets", c.cfg.Markets)
	q.Set("oddsFormat", "american")
	q.Set("dateFormat", "iso")
	if c.cfg.Bookmakers != "" {
		q.Set("bookmakers", c.cfg.Bookmakers)
	}

	var events []OddsEvent
	if err := c.get(ctx, fmt.Sprintf("/v4/sports/%s/odds", url.PathEscape(sportKey)), q, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// FetchScores returns recent and live games for one sport. daysFrom (1-3)
// includes games completed in that many past days.
func (c *OddsAPIClient) FetchScores(ctx context.Context, sportKey string, daysFrom int) ([]ScoreEvent, error) {
	q := url.Values{}
	if daysFrom > 0 {
		q.Set("daysFrom", strconv.Itoa(daysFrom))
	}
	q.Set("dateFormat", "iso")

	var events []ScoreEvent
	if err := c.get(ctx, fmt.Sprintf("/v4/sports/%s/scores", url.PathEscape(sportKey)), q, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// ── HTTP helper ──

func (c *OddsAPIClient) get(ctx context.Context, path string, q url.Values, dest interface{}) error {
	if c.breaker != nil {
		if res := c.breaker.Check(ctx, circuitKey); !res.Allowed {
			return fmt.Errorf("%w: %s", ErrCircuitOpen, res.Reason)
		}
	}

	err := c.do(ctx, path, q, dest)
	if c.breaker != nil {
		// quota exhaustion is not an upstream fault
		if err == nil || errors.Is(err, ErrQuotaExceeded) {
			c.breaker.RecordSuccess(circuitKey)
		} else if ctx.Err() == nil {
			c.breaker.RecordFailure(circuitKey)
		} else {
			c.breaker.Release(circuitKey)
		}
	}
	return err
}

func (c *OddsAPIClient) do(ctx context.Context, path string, q url.Values, dest interface{}) error {
	q.Set("apiKey", c.cfg.APIKey)
	reqURL := strings.TrimRight(c.cfg.BaseURL, "/") + path + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("odds api %s: %w", path, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<20))

	remaining := resp.Header.Get("x-requests-remaining")
	c.logger.Info("odds api request", "path", path, "status", resp.StatusCode, "requests_remaining", remaining)

	if resp.StatusCode == http.StatusTooManyRequests {
		return ErrQuotaExceeded
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("odds api returned %d: %s", resp.StatusCode, string(body[:min(200, len(body))]))
	}

	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
