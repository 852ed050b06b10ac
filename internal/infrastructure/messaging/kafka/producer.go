package kafka

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/reubenai/dealsense/internal/config"
	"github.com/reubenai/dealsense/internal/infrastructure/monitoring/logging"
	appErrors "github.com/reubenai/dealsense/pkg/errors"
	"github.com/reubenai/dealsense/pkg/types/common"
)

var ErrProducerClosed = appErrors.New(appErrors.ErrCodeInternal, "kafka producer is closed")

const producerSource = "dealsense"

// WriterInterface abstracts kafka.Writer for testing.
type WriterInterface interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes deal pipeline events. Messages are keyed by deal
// ID so all events for one deal land on the same partition in order.
type Producer struct {
	writer WriterInterface
	logger logging.Logger
	closed atomic.Bool

	sent   atomic.Int64
	failed atomic.Int64
}

// NewProducer builds a Producer from the Kafka configuration.
func NewProducer(cfg config.KafkaConfig, logger logging.Logger) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, appErrors.New(appErrors.ErrCodeValidation, "kafka brokers required")
	}

	retries := cfg.ProducerRetries
	if retries <= 0 {
		retries = 3
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.Hash{},
		MaxAttempts:  retries + 1,
		BatchSize:    batchSize,
		BatchTimeout: time.Second,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireAll,
	}

	return &Producer{writer: writer, logger: logger}, nil
}

// NewProducerWithWriter builds a Producer over an existing writer.
// Used by tests.
func NewProducerWithWriter(writer WriterInterface, logger logging.Logger) *Producer {
	return &Producer{writer: writer, logger: logger}
}

// PublishEnrichmentRequested queues an enrichment run for the worker.
func (p *Producer) PublishEnrichmentRequested(ctx context.Context, dealID, fundID common.ID, packs []string, forceRefresh bool) error {
	payload := EnrichmentRequestedPayload{
		DealID:       string(dealID),
		FundID:       string(fundID),
		Packs:        packs,
		ForceRefresh: forceRefresh,
		RequestedAt:  time.Now().UTC(),
	}
	return p.publish(ctx, TopicEnrichmentRequested, string(dealID), payload)
}

// PublishEnrichmentCompleted reports a finished enrichment run.
func (p *Producer) PublishEnrichmentCompleted(ctx context.Context, dealID common.ID, degradedPacks []string) error {
	payload := EnrichmentCompletedPayload{
		DealID:        string(dealID),
		DegradedPacks: degradedPacks,
		CompletedAt:   time.Now().UTC(),
	}
	return p.publish(ctx, TopicEnrichmentCompleted, string(dealID), payload)
}

// PublishScoreUpdated announces a new composite score.
func (p *Producer) PublishScoreUpdated(ctx context.Context, dealID common.ID, overall float64, rag string) error {
	payload := ScoreUpdatedPayload{
		DealID:       string(dealID),
		OverallScore: overall,
		RAGStatus:    rag,
		ScoredAt:     time.Now().UTC(),
	}
	return p.publish(ctx, TopicScoreUpdated, string(dealID), payload)
}

// PublishMemoGenerated announces a new IC memo draft.
func (p *Producer) PublishMemoGenerated(ctx context.Context, dealID, memoID common.ID, version int) error {
	payload := MemoGeneratedPayload{
		DealID:      string(dealID),
		MemoID:      string(memoID),
		Version:     version,
		GeneratedAt: time.Now().UTC(),
	}
	return p.publish(ctx, TopicMemoGenerated, string(dealID), payload)
}

func (p *Producer) publish(ctx context.Context, topic, key string, payload interface{}) error {
	if p.closed.Load() {
		return ErrProducerClosed
	}

	env, err := NewEventEnvelope(topic, producerSource, payload)
	if err != nil {
		return err
	}
	raw, err := env.Encode()
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: raw,
		Time:  env.Timestamp,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(env.EventType)},
			{Key: "schema_version", Value: []byte(env.SchemaVersion)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.failed.Add(1)
		return appErrors.Wrap(err, appErrors.ErrCodeExternalService, "failed to publish event to "+topic)
	}

	p.sent.Add(1)
	p.logger.Debug("Event published",
		logging.String("topic", topic),
		logging.String("key", key),
	)
	return nil
}

// Close flushes and shuts the writer down. Safe to call twice.
func (p *Producer) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	err := p.writer.Close()
	p.logger.Info("Kafka producer closed", logging.Int64("sent", p.sent.Load()))
	return err
}
