package messaging

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Amit-Kumar22/hipro-comm-admin-sub001/internal/infrastructure/config"
	"github.com/Amit-Kumar22/hipro-comm-admin-sub001/internal/infrastructure/scheduler"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeReader struct {
	msgs chan kafka.Message
	errs chan error

	mu        sync.Mutex
	committed []int64
	closed    bool
}

func newFakeReader() *fakeReader {
	return &fakeReader{
		msgs: make(chan kafka.Message, 16),
		errs: make(chan error, 4),
	}
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	case err := <-r.errs:
		return kafka.Message{}, err
	case msg := <-r.msgs:
		return msg, nil
	}
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *fakeReader) committedOffsets() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.committed...)
}

type recordingTriggerer struct {
	mu      sync.Mutex
	sources []scheduler.TriggerSource
}

func (t *recordingTriggerer) Trigger(source scheduler.TriggerSource) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sources = append(t.sources, source)
	return true
}

func (t *recordingTriggerer) count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sources)
}

func TestOrderEventListener_Handle(t *testing.T) {
	tests := []struct {
		name      string
		value     string
		triggered bool
	}{
		{"confirmed", `{"orderId":"o1","status":"confirmed"}`, true},
		{"processing", `{"orderId":"o1","status":"processing"}`, true},
		{"cancelled", `{"orderId":"o1","status":"cancelled"}`, true},
		{"pending", `{"orderId":"o1","status":"pending"}`, false},
		{"delivered", `{"orderId":"o1","status":"delivered"}`, false},
		{"unknown status", `{"orderId":"o1","status":"refunded"}`, false},
		{"missing order id", `{"status":"confirmed"}`, false},
		{"malformed json", `{"orderId":`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trig := &recordingTriggerer{}
			l := NewOrderEventListener(newFakeReader(), trig, zaptest.NewLogger(t))

			got := l.handle(context.Background(), kafka.Message{Value: []byte(tt.value)})
			assert.Equal(t, tt.triggered, got)
			if tt.triggered {
				assert.Equal(t, []scheduler.TriggerSource{scheduler.TriggerOrderEvent}, trig.sources)
			} else {
				assert.Empty(t, trig.sources)
			}
		})
	}
}

func TestOrderEventListener_ConsumesAndCommits(t *testing.T) {
	reader := newFakeReader()
	trig := &recordingTriggerer{}
	l := NewOrderEventListener(reader, trig, zaptest.NewLogger(t))

	require.NoError(t, l.Start(context.Background()))

	reader.errs <- errors.New("broker unavailable")
	reader.msgs <- kafka.Message{Offset: 1, Value: []byte(`{"orderId":"o1","status":"confirmed"}`)}
	reader.msgs <- kafka.Message{Offset: 2, Value: []byte(`not json`)}
	reader.msgs <- kafka.Message{Offset: 3, Value: []byte(`{"orderId":"o2","status":"pending"}`)}
	reader.msgs <- kafka.Message{Offset: 4, Value: []byte(`{"orderId":"o3","status":"cancelled"}`)}

	assert.Eventually(t, func() bool {
		return len(reader.committedOffsets()) == 4
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, []int64{1, 2, 3, 4}, reader.committedOffsets())
	assert.Equal(t, 2, trig.count())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, l.Stop(ctx))
	assert.True(t, reader.closed)

	require.NoError(t, l.Stop(ctx))
}

func TestHeaderCarrier(t *testing.T) {
	c := headerCarrier{
		{Key: "traceparent", Value: []byte("00-abc-def-01")},
		{Key: "baggage", Value: []byte("k=v")},
	}
	assert.Equal(t, "00-abc-def-01", c.Get("traceparent"))
	assert.Equal(t, "", c.Get("missing"))
	assert.ElementsMatch(t, []string{"traceparent", "baggage"}, c.Keys())
}

func TestNewKafkaReader_RequiresBrokers(t *testing.T) {
	_, err := NewKafkaReader(config.KafkaConfig{Topic: "orders.status-changed"})
	assert.ErrorIs(t, err, ErrNoBrokers)
}
