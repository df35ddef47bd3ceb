package infra

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/sideline/platform/internal/domain"
	"github.com/sideline/platform/internal/metrics"
	"github.com/sideline/platform/internal/repository"
)

const defaultRelayBatch = 100

// Publisher sends one message to a topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

// OutboxMessage is the envelope published for each outbox row.
type OutboxMessage struct {
	EventID       string          `json:"event_id"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	EventType     string          `json:"event_type"`
	Payload       json.RawMessage `json:"payload"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

// OutboxRelay moves event_outbox rows to Kafka. Rows are removed only after a
// successful publish, so delivery is at least once.
type OutboxRelay struct {
	db        repository.DBTX
	outbox    repository.OutboxRepository
	producer  Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
	batchSize int
}

// NewOutboxRelay creates a relay over the given outbox repository.
func NewOutboxRelay(db repository.DBTX, outbox repository.OutboxRepository, producer Publisher, m *metrics.Metrics, logger *slog.Logger) *OutboxRelay {
	return &OutboxRelay{
		db:        db,
		outbox:    outbox,
		producer:  producer,
		metrics:   m,
		logger:    logger,
		batchSize: defaultRelayBatch,
	}
}

// RelayOnce publishes one batch in sequence order. It stops at the first
// publish failure so per-aggregate ordering is kept; the rest is retried on
// the next call. It returns the number of rows relayed.
func (r *OutboxRelay) RelayOnce(ctx context.Context) (int, error) {
	rows, err := r.outbox.FetchUnpublished(ctx, r.db, r.batchSize)
	if err != nil {
		return 0, fmt.Errorf("fetch outbox: %w", err)
	}
	if len(rows) == 0 {
		return 0, nil
	}

	published := make([]int64, 0, len(rows))
	var publishErr error
	for _, row := range rows {
		msg, err := json.Marshal(envelope(row))
		if err != nil {
			publishErr = fmt.Errorf("encode event %s: %w", row.EventID, err)
			break
		}
		if err := r.producer.Publish(ctx, row.Topic(), []byte(row.PartitionKey), msg); err != nil {
			publishErr = fmt.Errorf("publish event %s: %w", row.EventID, err)
			break
		}
		published = append(published, row.SeqID)
	}

	if len(published) > 0 {
		if err := r.outbox.MarkPublished(ctx, r.db, published); err != nil {
			return 0, fmt.Errorf("mark published: %w", err)
		}
		r.metrics.Relayed(len(published))
		r.logger.Debug("outbox relayed", "published", len(published))
	}
	return len(published), publishErr
}

func envelope(row domain.OutboxRow) OutboxMessage {
	return OutboxMessage{
		EventID:       row.EventID.String(),
		AggregateType: string(row.AggregateType),
		AggregateID:   row.AggregateID,
		EventType:     string(row.EventType),
		Payload:       row.Payload,
		OccurredAt:    row.OccurredAt.UTC(),
	}
}
