package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaOptions configures the Kafka publisher.
type KafkaOptions struct {
	// Brokers is a comma separated bootstrap list.
	Brokers string
	Topic   string
	// WriteTimeout bounds a single publish.
	WriteTimeout time.Duration
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka publishes events as JSON messages keyed by image id.
type Kafka struct {
	writer  messageWriter
	timeout time.Duration
}

// NewKafka creates a synchronous Kafka publisher.
func NewKafka(opts KafkaOptions) (*Kafka, error) {
	if strings.TrimSpace(opts.Brokers) == "" || opts.Topic == "" {
		return nil, errors.New("events: kafka brokers and topic are required")
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(strings.Split(opts.Brokers, ",")...),
		Topic:                  opts.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		Async:                  false,
		AllowAutoTopicCreation: true,
	}
	return newKafka(w, opts.WriteTimeout), nil
}

func newKafka(w messageWriter, timeout time.Duration) *Kafka {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Kafka{writer: w, timeout: timeout}
}

// Publish implements Publisher.
func (k *Kafka) Publish(ctx context.Context, ev Event) error {
	value, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("events: marshal: %w", err)
	}
	writeCtx, cancel := context.WithTimeout(ctx, k.timeout)
	defer cancel()
	err = k.writer.WriteMessages(writeCtx, kafka.Message{
		Key:     []byte(ev.ID),
		Value:   value,
		Headers: []kafka.Header{{Key: "type", Value: []byte(ev.Type)}},
		Time:    ev.Time,
	})
	if err != nil {
		return fmt.Errorf("events: publish %s for %q: %w", ev.Type, ev.ID, err)
	}
	return nil
}

// Close implements Publisher.
func (k *Kafka) Close() error {
	return k.writer.Close()
}

var _ Publisher = (*Kafka)(nil)
