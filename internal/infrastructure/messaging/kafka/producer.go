package kafka

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/fraudlens/fraudlens/internal/config"
	"github.com/fraudlens/fraudlens/internal/domain/claim"
	"github.com/fraudlens/fraudlens/internal/infrastructure/monitoring/logging"
	"github.com/fraudlens/fraudlens/internal/infrastructure/monitoring/prometheus"
	"github.com/fraudlens/fraudlens/pkg/errors"
)

// WriterInterface abstracts kafka.Writer for testing.
type WriterInterface interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes claim lifecycle events.  Messages are keyed by claim id
// so per-claim ordering survives partitioning.
type Producer struct {
	writer  WriterInterface
	logger  logging.Logger
	metrics *prometheus.AppMetrics
	closed  atomic.Bool
}

var _ claim.EventPublisher = (*Producer)(nil)

// NewProducer builds a producer from the Kafka configuration.
func NewProducer(cfg config.KafkaConfig, logger logging.Logger, metrics *prometheus.AppMetrics) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		MaxAttempts:  cfg.ProducerRetries,
		BatchSize:    cfg.BatchSize,
		WriteTimeout: cfg.WriteTimeout,
	}
	return NewProducerWithWriter(writer, logger, metrics)
}

// NewProducerWithWriter wraps an existing writer (for testing).
func NewProducerWithWriter(writer WriterInterface, logger logging.Logger, metrics *prometheus.AppMetrics) *Producer {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if metrics == nil {
		metrics = prometheus.NewNopAppMetrics()
	}
	return &Producer{
		writer:  writer,
		logger:  logger.Named("kafka.producer"),
		metrics: metrics,
	}
}

// ClaimAnalyzed publishes the analysis outcome for any verdict.
func (p *Producer) ClaimAnalyzed(ctx context.Context, v *claim.Verdict) error {
	return p.publish(ctx, TopicClaimAnalyzed, v.ClaimID.String(), analyzedPayload(v))
}

// ClaimFlagged publishes a high-risk alert.
func (p *Producer) ClaimFlagged(ctx context.Context, v *claim.Verdict) error {
	return p.publish(ctx, TopicClaimFlagged, v.ClaimID.String(), flaggedPayload(v))
}

func (p *Producer) publish(ctx context.Context, topic, key string, payload interface{}) error {
	if p.closed.Load() {
		return errors.New(errors.ErrCodeEventPublishFailed, "producer is closed")
	}

	env, err := NewEnvelope(topic, payload)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode event payload")
	}
	data, err := json.Marshal(env)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode event envelope")
	}

	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
		Time:  time.Now(),
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.metrics.EventPublishFailures.WithLabelValues(topic).Inc()
		return errors.Wrap(err, errors.ErrCodeEventPublishFailed, "failed to publish event")
	}

	p.metrics.EventsPublishedTotal.WithLabelValues(topic).Inc()
	p.logger.Debug("published event",
		logging.String("topic", topic),
		logging.String("key", key))
	return nil
}

// Close flushes and shuts down the writer.  Safe to call more than once.
func (p *Producer) Close() error {
	if p.closed.Swap(true) {
		return nil
	}
	return p.writer.Close()
}
