package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"notamcore/pkg/platform/circuit"
)

// ErrPublisherUnavailable is returned while the breaker is open.
var ErrPublisherUnavailable = errors.New("event publisher unavailable")

const headerEventType = "event_type"

const eventTypeNewNotam = "notam.new"

// producer is the subset of *kgo.Client the publisher uses.
type producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
	Close()
}

// KafkaPublisher writes events as JSON records keyed by identity key, so
// every event for one NOTAM lands on the same partition.
type KafkaPublisher struct {
	client  producer
	topic   string
	breaker *circuit.Breaker
	logger  *slog.Logger
}

// KafkaOption configures a KafkaPublisher.
type KafkaOption func(*KafkaPublisher)

func WithBreaker(b *circuit.Breaker) KafkaOption {
	return func(p *KafkaPublisher) {
		if b != nil {
			p.breaker = b
		}
	}
}

func WithLogger(logger *slog.Logger) KafkaOption {
	return func(p *KafkaPublisher) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewKafkaClient connects a franz-go client to brokers.
func NewKafkaClient(brokers []string, topic string) (*kgo.Client, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return client, nil
}

// EnsureTopic creates topic if it does not exist yet.
func EnsureTopic(ctx context.Context, client *kgo.Client, topic string, partitions int32, replicationFactor int16) error {
	admin := kadm.NewClient(client)
	resps, err := admin.CreateTopics(ctx, partitions, replicationFactor, nil, topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", topic, err)
	}
	for _, r := range resps {
		if r.Err != nil && !errors.Is(r.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create topic %s: %w", r.Topic, r.Err)
		}
	}
	return nil
}

func NewKafkaPublisher(client producer, topic string, opts ...KafkaOption) *KafkaPublisher {
	p := &KafkaPublisher{
		client:  client,
		topic:   topic,
		breaker: circuit.New("kafka-events", circuit.WithFailureThreshold(3)),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// Publish produces all events synchronously and returns the first failure.
func (p *KafkaPublisher) Publish(ctx context.Context, evts ...NewNotamEvent) error {
	if len(evts) == 0 {
		return nil
	}
	if !p.breaker.Allow() {
		return ErrPublisherUnavailable
	}

	records := make([]*kgo.Record, 0, len(evts))
	for _, e := range evts {
		value, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("marshal event %s: %w", e.EventID, err)
		}
		records = append(records, &kgo.Record{
			Topic: p.topic,
			Key:   []byte(e.IdentityKey),
			Value: value,
			Headers: []kgo.RecordHeader{
				{Key: headerEventType, Value: []byte(eventTypeNewNotam)},
			},
		})
	}

	if err := p.client.ProduceSync(ctx, records...).FirstErr(); err != nil {
		if _, change := p.breaker.RecordFailure(); change.Opened {
			p.logger.WarnContext(ctx, "event publisher circuit opened", "topic", p.topic, "error", err)
		}
		return fmt.Errorf("produce events: %w", err)
	}
	if _, change := p.breaker.RecordSuccess(); change.Closed {
		p.logger.InfoContext(ctx, "event publisher circuit closed", "topic", p.topic)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	p.client.Close()
	return nil
}
