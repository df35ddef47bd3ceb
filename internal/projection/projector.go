package projection

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/sideline/platform/internal/domain"
)

// Topics the projector subscribes to.
var ProjectorTopics = []string{
	string(domain.EventLedgerPosted),
	string(domain.EventWalletReset),
}

type eventEnvelope struct {
	EventID   string          `json:"event_id"`
	EventType string          `json:"event_type"`
	Payload   json.RawMessage `json:"payload"`
}

// Projector applies relayed wallet events to the balance cache so every API
// instance reads the same balance.
type Projector struct {
	store  Store
	logger *slog.Logger
}

// NewProjector creates a Projector writing to store.
func NewProjector(store Store, logger *slog.Logger) *Projector {
	return &Projector{store: store, logger: logger}
}

// Handle applies one message. Messages that cannot be decoded are logged and
// dropped; only cache failures are returned.
func (p *Projector) Handle(ctx context.Context, topic string, _, value []byte) error {
	var env eventEnvelope
	if err := json.Unmarshal(value, &env); err != nil {
		p.logger.Warn("drop undecodable event", "topic", topic, "error", err)
		return nil
	}

	switch domain.EventType(env.EventType) {
	case domain.EventLedgerPosted:
		var posted domain.LedgerPostedPayload
		if err := json.Unmarshal(env.Payload, &posted); err != nil || posted.Entry == nil {
			p.logger.Warn("drop malformed ledger event", "event_id", env.EventID, "error", err)
			return nil
		}
		return p.applyBalance(ctx, posted.Entry.UserID.String(), posted.BalanceCents)

	case domain.EventWalletReset:
		var w domain.Wallet
		if err := json.Unmarshal(env.Payload, &w); err != nil {
			p.logger.Warn("drop malformed reset event", "event_id", env.EventID, "error", err)
			return nil
		}
		return UpdateBalance(ctx, p.store, FromWallet(&w))
	}
	return nil
}

// applyBalance patches the cached balance. Without a cached entry there is
// nothing to keep fresh; the next read loads the wallet row.
func (p *Projector) applyBalance(ctx context.Context, userID string, balance int64) error {
	cached, err := GetBalance(ctx, p.store, userID)
	if errors.Is(err, ErrMiss) {
		return nil
	}
	if err != nil {
		return err
	}
	cached.BalanceCents = balance
	return UpdateBalance(ctx, p.store, *cached)
}
