package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/SashiniHimaya/blood-donation-system/internal/platform/metrics"
)

const produceTimeout = 5 * time.Second

// KafkaPublisher writes notification events to a Kafka topic. The
// out-of-process mailer consumes the topic and owns rendering/delivery.
type KafkaPublisher struct {
	client  *kgo.Client
	topic   string
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type KafkaOption func(p *KafkaPublisher)

func WithKafkaMetrics(m *metrics.Metrics) KafkaOption {
	return func(p *KafkaPublisher) {
		p.metrics = m
	}
}

// NewKafkaPublisher connects to the brokers and ensures the topic exists.
func NewKafkaPublisher(ctx context.Context, brokers []string, topic string, logger *slog.Logger, opts ...KafkaOption) (*KafkaPublisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, err
	}

	if err := ensureTopic(ctx, client, topic); err != nil {
		client.Close()
		return nil, err
	}

	p := &KafkaPublisher{
		client: client,
		topic:  topic,
		logger: logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// ensureTopic creates the notifications topic when it does not exist yet.
func ensureTopic(ctx context.Context, client *kgo.Client, topic string) error {
	admin := kadm.NewClient(client)
	topics, err := admin.ListTopics(ctx)
	if err != nil {
		return err
	}
	if topics.Has(topic) {
		return nil
	}
	_, err = admin.CreateTopic(ctx, 3, 1, nil, topic)
	return err
}

// Close flushes outstanding records and releases the client.
func (p *KafkaPublisher) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), produceTimeout)
	defer cancel()
	_ = p.client.Flush(ctx)
	p.client.Close()
}

func (p *KafkaPublisher) DonorOffered(ctx context.Context, event DonorOfferedEvent) {
	p.publish(ctx, KindDonorOffered, event.RequestID.String(), event)
}

func (p *KafkaPublisher) DonationStatusChanged(ctx context.Context, event StatusChangedEvent) {
	p.publish(ctx, KindStatusChanged, event.DonationID.String(), event)
}

func (p *KafkaPublisher) MatchAlert(ctx context.Context, event MatchAlertEvent) {
	p.publish(ctx, KindMatchAlert, event.DonorID.String(), event)
}

// envelope wraps every event with its kind so the consumer can route
// without inspecting payload shapes.
type envelope struct {
	Kind    string `json:"kind"`
	Payload any    `json:"payload"`
}

// publish produces asynchronously; the caller's transition never waits on
// broker acknowledgement.
func (p *KafkaPublisher) publish(ctx context.Context, kind, key string, payload any) {
	value, err := json.Marshal(envelope{Kind: kind, Payload: payload})
	if err != nil {
		p.fail(ctx, kind, err)
		return
	}

	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(key),
		Value: value,
	}
	p.client.Produce(context.WithoutCancel(ctx), record, func(_ *kgo.Record, err error) {
		if err != nil {
			p.fail(ctx, kind, err)
			return
		}
		if p.metrics != nil {
			p.metrics.NotificationsSent.WithLabelValues(kind).Inc()
		}
	})
}

func (p *KafkaPublisher) fail(ctx context.Context, kind string, err error) {
	if p.metrics != nil {
		p.metrics.NotificationFailures.Inc()
	}
	if p.logger != nil {
		p.logger.ErrorContext(ctx, "notification dispatch failed",
			"kind", kind,
			"topic", p.topic,
			"error", err,
		)
	}
}
