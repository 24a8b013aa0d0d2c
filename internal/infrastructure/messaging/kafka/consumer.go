package kafka

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/fraudlens/fraudlens/internal/config"
	"github.com/fraudlens/fraudlens/internal/infrastructure/monitoring/logging"
	"github.com/fraudlens/fraudlens/internal/infrastructure/monitoring/prometheus"
	"github.com/fraudlens/fraudlens/pkg/errors"
)

// MessageHandler processes one decoded event.  Returning an error triggers a
// retry up to the configured limit; the message is committed either way once
// handling finishes.
type MessageHandler func(ctx context.Context, env *EventEnvelope) error

// ReaderInterface abstracts kafka.Reader for testing.
type ReaderInterface interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer reads claim events off a consumer group and dispatches them to
// registered per-topic handlers.
type Consumer struct {
	reader  ReaderInterface
	logger  logging.Logger
	metrics *prometheus.AppMetrics

	maxRetries   int
	retryBackoff time.Duration

	mu       sync.RWMutex
	handlers map[string]MessageHandler
}

// NewConsumer builds a consumer-group reader over the given topics.
func NewConsumer(cfg config.KafkaConfig, worker config.WorkerConfig, topics []string, logger logging.Logger, metrics *prometheus.AppMetrics) *Consumer {
	startOffset := kafka.FirstOffset
	if cfg.AutoOffsetReset == "latest" {
		startOffset = kafka.LastOffset
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		GroupID:        cfg.GroupID,
		GroupTopics:    topics,
		StartOffset:    startOffset,
		CommitInterval: worker.CommitInterval,
	})
	return NewConsumerWithReader(reader, worker, logger, metrics)
}

// NewConsumerWithReader wraps an existing reader (for testing).
func NewConsumerWithReader(reader ReaderInterface, worker config.WorkerConfig, logger logging.Logger, metrics *prometheus.AppMetrics) *Consumer {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if metrics == nil {
		metrics = prometheus.NewNopAppMetrics()
	}
	backoff := worker.RetryBackoff
	if backoff <= 0 {
		backoff = 100 * time.Millisecond
	}
	return &Consumer{
		reader:       reader,
		logger:       logger.Named("kafka.consumer"),
		metrics:      metrics,
		maxRetries:   worker.MaxRetries,
		retryBackoff: backoff,
		handlers:     make(map[string]MessageHandler),
	}
}

// Handle registers the handler for a topic.  Messages on topics without a
// handler are committed and dropped.
func (c *Consumer) Handle(topic string, handler MessageHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[topic] = handler
}

// Run consumes until ctx is cancelled.  It returns nil on cancellation and
// an error only when the underlying reader fails permanently.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return errors.Wrap(err, errors.ErrCodeEventConsumeFailed, "failed to fetch message")
		}

		c.process(ctx, msg)

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Error("failed to commit message",
				logging.String("topic", msg.Topic), logging.Err(err))
		}
	}
}

func (c *Consumer) process(ctx context.Context, msg kafka.Message) {
	start := time.Now()
	defer func() {
		c.metrics.WorkerProcessDuration.WithLabelValues(msg.Topic).Observe(time.Since(start).Seconds())
	}()

	c.mu.RLock()
	handler, ok := c.handlers[msg.Topic]
	c.mu.RUnlock()
	if !ok {
		c.metrics.WorkerMessagesTotal.WithLabelValues(msg.Topic, "skipped").Inc()
		return
	}

	var env EventEnvelope
	if err := json.Unmarshal(msg.Value, &env); err != nil {
		c.logger.Error("discarding malformed event",
			logging.String("topic", msg.Topic), logging.Err(err))
		c.metrics.WorkerMessagesTotal.WithLabelValues(msg.Topic, "malformed").Inc()
		return
	}

	var err error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(c.retryBackoff * time.Duration(attempt)):
			}
		}
		if err = handler(ctx, &env); err == nil {
			c.metrics.WorkerMessagesTotal.WithLabelValues(msg.Topic, "ok").Inc()
			return
		}
	}

	c.logger.Error("handler exhausted retries",
		logging.String("topic", msg.Topic),
		logging.String("event_id", env.EventID),
		logging.Int("attempts", c.maxRetries+1),
		logging.Err(err))
	c.metrics.WorkerMessagesTotal.WithLabelValues(msg.Topic, "failed").Inc()
}

// Close shuts down the underlying reader.
func (c *Consumer) Close() error {
	return c.reader.Close()
}
