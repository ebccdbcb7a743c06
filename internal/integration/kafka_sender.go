package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"
)

// KafkaSender publishes notifications to a topic consumed by an external SMS gateway.
// Messages are keyed by destination so a recipient's messages keep their order.
type KafkaSender struct {
	writer *kafkago.Writer
	clock  clockwork.Clock
}

// Notification is the JSON value written for each message
type Notification struct {
	To       string    `json:"to"`
	Body     string    `json:"body"`
	QueuedAt time.Time `json:"queued_at"`
}

// NewKafkaSender creates a producer for the notification topic
func NewKafkaSender(brokers []string, topic string, clock clockwork.Clock) (*KafkaSender, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("KAFKA_BROKERS is required")
	}
	if topic == "" {
		return nil, fmt.Errorf("KAFKA_NOTIFY_TOPIC is required")
	}
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchSize:    1,
		BatchTimeout: 10 * time.Millisecond,
	}
	return &KafkaSender{writer: w, clock: clock}, nil
}

// Send writes one notification and waits for the broker acknowledgement
func (k *KafkaSender) Send(ctx context.Context, destination, body string) error {
	msg, err := notificationMessage(Notification{To: destination, Body: body, QueuedAt: k.clock.Now().UTC()})
	if err != nil {
		return err
	}
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka write: %w", err)
	}
	return nil
}

// Close flushes and closes the writer
func (k *KafkaSender) Close() error {
	return k.writer.Close()
}

func notificationMessage(n Notification) (kafkago.Message, error) {
	data, err := json.Marshal(n)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize notification: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(n.To),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "content_type", Value: []byte("application/json")},
			{Key: "queued_at", Value: []byte(n.QueuedAt.Format(time.RFC3339))},
		},
	}, nil
}
