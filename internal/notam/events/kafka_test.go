package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"notamcore/internal/notam/models"
	"notamcore/pkg/platform/circuit"
)

type fakeProducer struct {
	records []*kgo.Record
	err     error
	calls   int
	closed  bool
}

func (f *fakeProducer) ProduceSync(_ context.Context, rs ...*kgo.Record) kgo.ProduceResults {
	f.calls++
	results := make(kgo.ProduceResults, 0, len(rs))
	for _, r := range rs {
		if f.err == nil {
			f.records = append(f.records, r)
		}
		results = append(results, kgo.ProduceResult{Record: r, Err: f.err})
	}
	return results
}

func (f *fakeProducer) Close() { f.closed = true }

func sampleEvent() NewNotamEvent {
	return NewNotamEvent{
		EventID:       "evt-1",
		CycleID:       "cycle-1",
		Scope:         "crew-1",
		IdentityKey:   "A1234/24|QMRLC|LFPG|2024-03-15",
		NotamID:       "A1234/24",
		Location:      "LFPG",
		QCode:         "QMRLC",
		Priority:      models.PriorityHigh,
		Rule:          "runway_closure_at_airport",
		EffectiveFrom: time.Date(2024, 3, 15, 6, 0, 0, 0, time.UTC),
		DetectedAt:    time.Date(2024, 3, 14, 12, 0, 0, 0, time.UTC),
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestKafkaPublisherProducesKeyedJSON(t *testing.T) {
	fake := &fakeProducer{}
	p := NewKafkaPublisher(fake, "notams.new", WithLogger(quietLogger()))

	require.NoError(t, p.Publish(context.Background(), sampleEvent()))

	require.Len(t, fake.records, 1)
	rec := fake.records[0]
	assert.Equal(t, "notams.new", rec.Topic)
	assert.Equal(t, "A1234/24|QMRLC|LFPG|2024-03-15", string(rec.Key))
	assert.Equal(t, []kgo.RecordHeader{{Key: "event_type", Value: []byte("notam.new")}}, rec.Headers)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(rec.Value, &decoded))
	assert.Equal(t, "high", decoded["priority"])
	assert.Equal(t, "A1234/24", decoded["notam_id"])
}

func TestKafkaPublisherNoEvents(t *testing.T) {
	fake := &fakeProducer{}
	p := NewKafkaPublisher(fake, "notams.new")

	require.NoError(t, p.Publish(context.Background()))
	assert.Zero(t, fake.calls)
}

func TestKafkaPublisherOpensBreaker(t *testing.T) {
	fake := &fakeProducer{err: errors.New("broker down")}
	breaker := circuit.New("test", circuit.WithFailureThreshold(2), circuit.WithCooldown(time.Hour))
	p := NewKafkaPublisher(fake, "notams.new", WithBreaker(breaker), WithLogger(quietLogger()))
	ctx := context.Background()

	assert.Error(t, p.Publish(ctx, sampleEvent()))
	assert.Error(t, p.Publish(ctx, sampleEvent()))
	assert.True(t, breaker.IsOpen())

	err := p.Publish(ctx, sampleEvent())
	assert.ErrorIs(t, err, ErrPublisherUnavailable)
	assert.Equal(t, 2, fake.calls)
}

func TestKafkaPublisherClose(t *testing.T) {
	fake := &fakeProducer{}
	require.NoError(t, NewKafkaPublisher(fake, "t").Close())
	assert.True(t, fake.closed)
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	assert.NoError(t, p.Publish(context.Background(), sampleEvent()))
	assert.NoError(t, p.Close())
}
