package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reubenai/dealsense/internal/infrastructure/monitoring/logging"
)

type mockWriter struct {
	writeFunc func(ctx context.Context, msgs ...kafka.Message) error
	closed    bool
}

func (m *mockWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if m.writeFunc != nil {
		return m.writeFunc(ctx, msgs...)
	}
	return nil
}

func (m *mockWriter) Close() error {
	m.closed = true
	return nil
}

func TestPublishEnrichmentCompleted(t *testing.T) {
	var captured []kafka.Message
	w := &mockWriter{writeFunc: func(ctx context.Context, msgs ...kafka.Message) error {
		captured = append(captured, msgs...)
		return nil
	}}
	p := NewProducerWithWriter(w, logging.NewNopLogger())

	err := p.PublishEnrichmentCompleted(context.Background(), "deal-1", []string{"vc_market_opportunity"})

	require.NoError(t, err)
	require.Len(t, captured, 1)
	assert.Equal(t, TopicEnrichmentCompleted, captured[0].Topic)
	assert.Equal(t, "deal-1", string(captured[0].Key))

	env, err := DecodeEnvelope(captured[0].Value)
	require.NoError(t, err)
	assert.Equal(t, TopicEnrichmentCompleted, env.EventType)
	assert.Equal(t, "v1", env.SchemaVersion)
	assert.NotEmpty(t, env.EventID)

	var payload EnrichmentCompletedPayload
	require.NoError(t, env.DecodePayload(&payload))
	assert.Equal(t, "deal-1", payload.DealID)
	assert.Equal(t, []string{"vc_market_opportunity"}, payload.DegradedPacks)
}

func TestPublishEnrichmentRequestedCarriesForceRefresh(t *testing.T) {
	var captured []kafka.Message
	w := &mockWriter{writeFunc: func(ctx context.Context, msgs ...kafka.Message) error {
		captured = append(captured, msgs...)
		return nil
	}}
	p := NewProducerWithWriter(w, logging.NewNopLogger())

	err := p.PublishEnrichmentRequested(context.Background(), "deal-2", "fund-1", []string{"vc_financial_validation"}, true)

	require.NoError(t, err)
	require.Len(t, captured, 1)

	env, err := DecodeEnvelope(captured[0].Value)
	require.NoError(t, err)
	var payload EnrichmentRequestedPayload
	require.NoError(t, env.DecodePayload(&payload))
	assert.Equal(t, "fund-1", payload.FundID)
	assert.True(t, payload.ForceRefresh)
}

func TestPublishWriteFailure(t *testing.T) {
	w := &mockWriter{writeFunc: func(ctx context.Context, msgs ...kafka.Message) error {
		return errors.New("broker unreachable")
	}}
	p := NewProducerWithWriter(w, logging.NewNopLogger())

	err := p.PublishScoreUpdated(context.Background(), "deal-1", 71.5, "Green")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker unreachable")
}

func TestPublishAfterCloseFails(t *testing.T) {
	w := &mockWriter{}
	p := NewProducerWithWriter(w, logging.NewNopLogger())

	require.NoError(t, p.Close())
	require.NoError(t, p.Close()) // idempotent
	assert.True(t, w.closed)

	err := p.PublishMemoGenerated(context.Background(), "deal-1", "memo-1", 2)
	assert.ErrorIs(t, err, ErrProducerClosed)
}

func TestEnvelopeRoundTrip(t *testing.T) {
	env, err := NewEventEnvelope(TopicScoreUpdated, "test", ScoreUpdatedPayload{DealID: "d", OverallScore: 55, RAGStatus: "Amber"})
	require.NoError(t, err)

	raw, err := env.Encode()
	require.NoError(t, err)

	got, err := DecodeEnvelope(raw)
	require.NoError(t, err)
	assert.Equal(t, env.EventID, got.EventID)

	var payload ScoreUpdatedPayload
	require.NoError(t, got.DecodePayload(&payload))
	assert.Equal(t, 55.0, payload.OverallScore)
}

func TestDecodeEnvelopeRejectsEmptyAndGarbage(t *testing.T) {
	_, err := DecodeEnvelope(nil)
	assert.Error(t, err)

	_, err = DecodeEnvelope([]byte("not json"))
	assert.Error(t, err)
}

func TestDecodePayloadRejectsNull(t *testing.T) {
	env := &EventEnvelope{Payload: json.RawMessage("null")}
	var payload ScoreUpdatedPayload
	assert.Error(t, env.DecodePayload(&payload))
}
