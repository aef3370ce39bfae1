package messaging

import (
	"context"
	"errors"

	"github.com/Amit-Kumar22/hipro-comm-admin-sub001/internal/infrastructure/config"
	"github.com/segmentio/kafka-go"
)

// ErrNoBrokers is returned when Kafka is enabled without brokers
var ErrNoBrokers = errors.New("messaging: at least one kafka broker is required")

// MessageReader is the subset of *kafka.Reader used by the listener
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

var _ MessageReader = (*kafka.Reader)(nil)

// NewKafkaReader creates a consumer-group reader for the order events topic
func NewKafkaReader(cfg config.KafkaConfig) (*kafka.Reader, error) {
	if len(cfg.Brokers) == 0 {
		return nil, ErrNoBrokers
	}
	readerCfg := kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: cfg.MinBytes,
		MaxBytes: cfg.MaxBytes,
	}
	if readerCfg.MinBytes <= 0 {
		readerCfg.MinBytes = 1
	}
	if readerCfg.MaxBytes <= 0 {
		readerCfg.MaxBytes = 10e6
	}
	return kafka.NewReader(readerCfg), nil
}

// headerCarrier adapts kafka headers to a propagation.TextMapCarrier
type headerCarrier []kafka.Header

func (c headerCarrier) Get(key string) string {
	for _, h := range c {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func (c headerCarrier) Set(string, string) {}

func (c headerCarrier) Keys() []string {
	keys := make([]string, 0, len(c))
	for _, h := range c {
		keys = append(keys, h.Key)
	}
	return keys
}
