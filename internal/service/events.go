package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sideline/platform/internal/domain"
	"github.com/sideline/platform/internal/projection"
	"github.com/sideline/platform/internal/repository"
)

// EventService is the admin surface over sporting events.
type EventService struct {
	pool   repository.DBTX
	repos  Repos
	cache  projection.Store
	logger *slog.Logger
}

// NewEventService creates an EventService.
func NewEventService(pool repository.DBTX, repos Repos, cache projection.Store, logger *slog.Logger) *EventService {
	return &EventService{pool: pool, repos: repos, cache: cache, logger: logger}
}

// List returns events ordered by start time, optionally filtered by status.
func (s *EventService) List(ctx context.Context, status string, limit int) ([]domain.Event, error) {
	filter := repository.EventFilter{Limit: limit}
	if status != "" {
		st := domain.EventStatus(status)
		switch st {
		case domain.EventScheduled, domain.EventOpen, domain.EventFinal, domain.EventCancelled:
		default:
			return nil, domain.ErrValidation(fmt.Sprintf("unknown status %q", status))
		}
		filter.Status = &st
	}
	events, err := s.repos.Events.List(ctx, s.pool, filter)
	if err != nil {
		return nil, domain.ErrStorage("list events", err)
	}
	if events == nil {
		events = []domain.Event{}
	}
	return events, nil
}

// CreateEventInput adds a game by hand, for sports the feed does not cover.
type CreateEventInput struct {
	EventKey     string    `json:"event_key"`
	Sport        string    `json:"sport" validate:"required"`
	League       string    `json:"league"`
	HomeTeam     string    `json:"home_team" validate:"required"`
	AwayTeam     string    `json:"away_team" validate:"required,nefield=HomeTeam"`
	CommenceTime time.Time `json:"commence_time" validate:"required"`
}

// Create inserts a scheduled event.
func (s *EventService) Create(ctx context.Context, in CreateEventInput) (*domain.Event, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	key := in.EventKey
	if key == "" {
		key = "manual-" + uuid.NewString()
	}
	league := in.League
	if league == "" {
		league = in.Sport
	}

	event := &domain.Event{
		EventKey:     key,
		Sport:        in.Sport,
		League:       league,
		HomeTeam:     in.HomeTeam,
		AwayTeam:     in.AwayTeam,
		CommenceTime: in.CommenceTime.UTC(),
		Status:       domain.EventScheduled,
	}
	if err := s.repos.Events.Create(ctx, s.pool, event); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, domain.ErrConflict(fmt.Sprintf("event key %q already exists", key))
		}
		return nil, domain.ErrStorage("create event", err)
	}

	s.invalidateBoard(ctx)
	s.logger.Info("event created", "event_id", event.ID, "event_key", key)
	return event, nil
}

// UpdateStatusInput changes an event's lifecycle state. Final requires scores.
type UpdateStatusInput struct {
	Status    domain.EventStatus `json:"status" validate:"required,oneof=scheduled open final cancelled"`
	HomeScore *int               `json:"home_score" validate:"omitempty,gte=0"`
	AwayScore *int               `json:"away_score" validate:"omitempty,gte=0"`
}

// UpdateStatus moves an event through its lifecycle. Final is terminal: its
// bets may already be graded against the stored scores, so a final event only
// accepts a repeat of the same result.
func (s *EventService) UpdateStatus(ctx context.Context, id int64, in UpdateStatusInput) (*domain.Event, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if in.Status == domain.EventFinal && (in.HomeScore == nil || in.AwayScore == nil) {
		return nil, domain.ErrValidation("final status requires home_score and away_score")
	}

	current, err := s.repos.Events.FindByID(ctx, s.pool, id)
	if err != nil {
		return nil, domain.ErrStorage("load event", err)
	}
	if current == nil {
		return nil, domain.ErrNotFound("event", strconv.FormatInt(id, 10))
	}
	if current.Status == domain.EventFinal {
		if in.Status == domain.EventFinal && sameResult(current, *in.HomeScore, *in.AwayScore) {
			return current, nil
		}
		return nil, domain.ErrConflict("event is final and its bets may be graded; result cannot change")
	}

	updated, err := s.repos.Events.UpdateStatus(ctx, s.pool, id, in.Status, in.HomeScore, in.AwayScore)
	if err != nil {
		return nil, domain.ErrStorage("update event", err)
	}
	if updated == nil {
		// Finalized between the read and the update.
		return nil, domain.ErrConflict("event is final and its bets may be graded; result cannot change")
	}

	s.invalidateBoard(ctx)
	s.logger.Info("event status updated", "event_id", id, "status", in.Status)
	return updated, nil
}

func sameResult(e *domain.Event, home, away int) bool {
	return e.HomeScore != nil && e.AwayScore != nil && *e.HomeScore == home && *e.AwayScore == away
}

func (s *EventService) invalidateBoard(ctx context.Context) {
	if err := projection.InvalidateBoard(ctx, s.cache); err != nil {
		s.logger.Warn("invalidate odds board", "error", err)
	}
}
