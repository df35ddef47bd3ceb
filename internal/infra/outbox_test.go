package infra

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sideline/platform/internal/domain"
	"github.com/sideline/platform/internal/metrics"
	"github.com/sideline/platform/internal/repository/repotest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sent struct {
	topic string
	key   string
	value []byte
}

type fakePublisher struct {
	sent   []sent
	failAt int
}

func (p *fakePublisher) Publish(_ context.Context, topic string, key, value []byte) error {
	if p.failAt > 0 && len(p.sent)+1 == p.failAt {
		return errors.New("broker unavailable")
	}
	p.sent = append(p.sent, sent{topic: topic, key: string(key), value: value})
	return nil
}

func seedOutbox(t *testing.T, store *repotest.Store, n int) uuid.UUID {
	t.Helper()
	userID := uuid.New()
	for i := 0; i < n; i++ {
		require.NoError(t, store.Outbox().Insert(context.Background(), store, domain.NewUserRegisteredEvent(userID, "fan")))
	}
	return userID
}

func newRelay(store *repotest.Store, pub Publisher) (*OutboxRelay, *metrics.Metrics) {
	m := metrics.New(prometheus.NewRegistry())
	return NewOutboxRelay(store, store.Outbox(), pub, m, slog.New(slog.NewTextHandler(io.Discard, nil))), m
}

func TestOutboxRelay_PublishesAndRemoves(t *testing.T) {
	store := repotest.NewStore()
	userID := seedOutbox(t, store, 3)
	pub := &fakePublisher{}
	relay, m := newRelay(store, pub)

	n, err := relay.RelayOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Empty(t, store.OutboxEvents())
	assert.Equal(t, float64(3), testutil.ToFloat64(m.OutboxRelayed))

	require.Len(t, pub.sent, 3)
	assert.Equal(t, string(domain.EventUserRegistered), pub.sent[0].topic)
	assert.Equal(t, userID.String(), pub.sent[0].key)

	var msg OutboxMessage
	require.NoError(t, json.Unmarshal(pub.sent[0].value, &msg))
	assert.Equal(t, "user", msg.AggregateType)
	assert.JSONEq(t, `{"user_id":"`+userID.String()+`","username":"fan"}`, string(msg.Payload))

	n, err = relay.RelayOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestOutboxRelay_StopsAtFirstFailure(t *testing.T) {
	store := repotest.NewStore()
	seedOutbox(t, store, 3)
	pub := &fakePublisher{failAt: 2}
	relay, _ := newRelay(store, pub)

	n, err := relay.RelayOnce(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, n)
	assert.Len(t, store.OutboxEvents(), 2)

	pub.failAt = 0
	n, err = relay.RelayOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Empty(t, store.OutboxEvents())
}

func TestOutboxRelay_FetchFailure(t *testing.T) {
	store := repotest.NewStore()
	store.FailOn("outbox.FetchUnpublished", errors.New("db down"))
	relay, _ := newRelay(store, &fakePublisher{})
	_, err := relay.RelayOnce(context.Background())
	assert.Error(t, err)
}
