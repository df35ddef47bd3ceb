package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType enumerates all domain event types.
type EventType string

const (
	EventUserRegistered EventType = "sideline.user.registered"
	EventLedgerPosted   EventType = "sideline.wallet.ledger.posted"
	EventWalletReset    EventType = "sideline.wallet.reset"
	EventBetPlaced      EventType = "sideline.bet.placed"
	EventBetSettled     EventType = "sideline.bet.settled"
)

// AggregateType enumerates the aggregate root types for outbox events.
type AggregateType string

const (
	AggregateUser   AggregateType = "user"
	AggregateWallet AggregateType = "wallet"
	AggregateBet    AggregateType = "bet"
)

// OutboxDraft is the payload written to the event_outbox table.
type OutboxDraft struct {
	EventID       uuid.UUID       `json:"event_id"`
	AggregateType AggregateType   `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	EventType     EventType       `json:"event_type"`
	PartitionKey  string          `json:"partition_key"`
	Headers       json.RawMessage `json:"headers"`
	Payload       json.RawMessage `json:"payload"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

// OutboxRow is an OutboxDraft as stored, with its sequence id.
type OutboxRow struct {
	SeqID int64
	OutboxDraft
}

// Topic is the Kafka topic an outbox event is relayed to.
func (d OutboxDraft) Topic() string {
	return string(d.EventType)
}

func newDraft(agg AggregateType, aggID string, partitionKey string, evt EventType, payload interface{}) OutboxDraft {
	body, _ := json.Marshal(payload)
	return OutboxDraft{
		EventID:       uuid.New(),
		AggregateType: agg,
		AggregateID:   aggID,
		EventType:     evt,
		PartitionKey:  partitionKey,
		Headers:       json.RawMessage(`{}`),
		Payload:       body,
		OccurredAt:    time.Now().UTC(),
	}
}
