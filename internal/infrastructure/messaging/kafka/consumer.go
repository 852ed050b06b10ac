package kafka

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/reubenai/dealsense/internal/config"
	"github.com/reubenai/dealsense/internal/infrastructure/monitoring/logging"
	appErrors "github.com/reubenai/dealsense/pkg/errors"
)

var (
	ErrAlreadyRunning = appErrors.New(appErrors.ErrCodeConflict, "kafka consumer is already running")
	ErrConsumerClosed = appErrors.New(appErrors.ErrCodeInternal, "kafka consumer is closed")
)

// Handler processes a decoded event. A returned error triggers the
// retry and dead-letter path.
type Handler func(ctx context.Context, env *EventEnvelope) error

// ReaderInterface abstracts kafka.Reader for testing.
type ReaderInterface interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// ConsumerConfig tunes the retry and dead-letter behavior on top of
// the shared Kafka connection config.
type ConsumerConfig struct {
	Topics          []string
	MaxRetries      int
	RetryBackoff    time.Duration
	MaxRetryBackoff time.Duration
	DeadLetterTopic string
}

// Consumer reads pipeline events and dispatches them to per-topic
// handlers. Failed messages are retried with exponential backoff and
// finally parked on the dead-letter topic so the partition keeps
// moving.
type Consumer struct {
	reader     ReaderInterface
	cfg        ConsumerConfig
	logger     logging.Logger
	deadLetter *Producer

	mu       sync.RWMutex
	handlers map[string]Handler

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	processed    atomic.Int64
	failed       atomic.Int64
	deadLettered atomic.Int64
}

// NewConsumer builds a consumer group reader over the given topics.
func NewConsumer(kafkaCfg config.KafkaConfig, cfg ConsumerConfig, logger logging.Logger) (*Consumer, error) {
	if len(kafkaCfg.Brokers) == 0 {
		return nil, appErrors.New(appErrors.ErrCodeValidation, "kafka brokers required")
	}
	if kafkaCfg.GroupID == "" {
		return nil, appErrors.New(appErrors.ErrCodeValidation, "kafka consumer group id required")
	}
	if len(cfg.Topics) == 0 {
		return nil, appErrors.New(appErrors.ErrCodeValidation, "at least one topic required")
	}
	applyConsumerDefaults(&cfg)

	startOffset := kafka.FirstOffset
	if kafkaCfg.AutoOffsetReset == "latest" {
		startOffset = kafka.LastOffset
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:           kafkaCfg.Brokers,
		GroupID:           kafkaCfg.GroupID,
		GroupTopics:       cfg.Topics,
		MinBytes:          1,
		MaxBytes:          10 * 1024 * 1024,
		StartOffset:       startOffset,
		SessionTimeout:    30 * time.Second,
		HeartbeatInterval: 3 * time.Second,
	})

	var dlq *Producer
	if cfg.DeadLetterTopic != "" {
		p, err := NewProducer(kafkaCfg, logger)
		if err != nil {
			_ = reader.Close()
			return nil, err
		}
		dlq = p
	}

	return &Consumer{
		reader:     reader,
		cfg:        cfg,
		logger:     logger,
		deadLetter: dlq,
		handlers:   make(map[string]Handler),
	}, nil
}

// NewConsumerWithReader builds a consumer over an existing reader.
// Used by tests.
func NewConsumerWithReader(reader ReaderInterface, cfg ConsumerConfig, logger logging.Logger) *Consumer {
	applyConsumerDefaults(&cfg)
	return &Consumer{
		reader:   reader,
		cfg:      cfg,
		logger:   logger,
		handlers: make(map[string]Handler),
	}
}

func applyConsumerDefaults(cfg *ConsumerConfig) {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = time.Second
	}
	if cfg.MaxRetryBackoff <= 0 {
		cfg.MaxRetryBackoff = 30 * time.Second
	}
}

// Subscribe registers a handler for topic. Must be called before Start.
func (c *Consumer) Subscribe(topic string, handler Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[topic] = handler
}

// Start launches the consume loop. It returns immediately; the loop
// runs until the context is cancelled or Close is called.
func (c *Consumer) Start(ctx context.Context) error {
	if c.running.Swap(true) {
		return ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.wg.Add(1)
	go c.consumeLoop(ctx)

	c.logger.Info("Kafka consumer started", logging.Int("topics", len(c.handlers)))
	return nil
}

func (c *Consumer) consumeLoop(ctx context.Context) {
	defer c.wg.Done()

	for {
		if ctx.Err() != nil {
			return
		}

		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("Failed to fetch message", logging.Err(err))
			time.Sleep(time.Second)
			continue
		}

		c.handleMessage(ctx, m)

		if err := c.reader.CommitMessages(ctx, m); err != nil && ctx.Err() == nil {
			c.logger.Error("Failed to commit offset",
				logging.String("topic", m.Topic),
				logging.Int64("offset", m.Offset),
				logging.Err(err),
			)
		}
	}
}

func (c *Consumer) handleMessage(ctx context.Context, m kafka.Message) {
	c.mu.RLock()
	handler, ok := c.handlers[m.Topic]
	c.mu.RUnlock()
	if !ok {
		c.logger.Warn("No handler for topic", logging.String("topic", m.Topic))
		return
	}

	env, err := DecodeEnvelope(m.Value)
	if err != nil {
		c.logger.Error("Undecodable message, sending to dead letter",
			logging.String("topic", m.Topic),
			logging.Int64("offset", m.Offset),
			logging.Err(err),
		)
		c.sendToDeadLetter(ctx, m, err)
		return
	}

	if err := c.processWithRetry(ctx, env, handler); err != nil {
		c.failed.Add(1)
		c.logger.Error("Message processing failed after retries",
			logging.String("topic", m.Topic),
			logging.String("event_id", env.EventID),
			logging.Err(err),
		)
		c.sendToDeadLetter(ctx, m, err)
		return
	}
	c.processed.Add(1)
}

func (c *Consumer) processWithRetry(ctx context.Context, env *EventEnvelope, handler Handler) error {
	err := handler(ctx, env)
	if err == nil {
		return nil
	}

	backoff := c.cfg.RetryBackoff
	for i := 0; i < c.cfg.MaxRetries; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}

		if err = handler(ctx, env); err == nil {
			return nil
		}

		backoff *= 2
		if backoff > c.cfg.MaxRetryBackoff {
			backoff = c.cfg.MaxRetryBackoff
		}
	}
	return err
}

func (c *Consumer) sendToDeadLetter(ctx context.Context, m kafka.Message, cause error) {
	if c.deadLetter == nil || c.cfg.DeadLetterTopic == "" {
		return
	}
	msg := kafka.Message{
		Topic: c.cfg.DeadLetterTopic,
		Key:   m.Key,
		Value: m.Value,
		Headers: []kafka.Header{
			{Key: "original_topic", Value: []byte(m.Topic)},
			{Key: "error_message", Value: []byte(cause.Error())},
		},
	}
	if err := c.deadLetter.writer.WriteMessages(ctx, msg); err != nil {
		c.logger.Error("Failed to write dead letter", logging.Err(err))
		return
	}
	c.deadLettered.Add(1)
}

// Close stops the loop and releases the reader. Safe to call twice.
func (c *Consumer) Close() error {
	if !c.running.CompareAndSwap(true, false) {
		return nil
	}
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()

	err := c.reader.Close()
	if c.deadLetter != nil {
		_ = c.deadLetter.Close()
	}
	c.logger.Info("Kafka consumer closed", logging.Int64("processed", c.processed.Load()))
	return err
}
