package notifications

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/angelmondragon/tradelink-backend/pkg/kafka"
	"github.com/angelmondragon/tradelink-backend/pkg/logger"
	"go.uber.org/multierr"
)

// LogNotifier writes notifications to the structured log. Used in development
// and as the default driver when no broker is configured.
type LogNotifier struct {
	logg *logger.Logger
}

func NewLogNotifier(logg *logger.Logger) *LogNotifier {
	return &LogNotifier{logg: logg}
}

func (n *LogNotifier) Send(ctx context.Context, msg Message) error {
	fields := map[string]any{
		"notification_kind": msg.Kind.String(),
		"recipient":         msg.Recipient,
	}
	for k, v := range msg.Data {
		// Codes are secrets even in development logs.
		if k == "code" {
			v = "******"
		}
		fields["data_"+k] = v
	}
	n.logg.Info(n.logg.WithFields(ctx, fields), "notification")
	return nil
}

// PubSubNotifier publishes notifications to a Pub/Sub topic for the mailer
// service to render.
type PubSubNotifier struct {
	publish func(ctx context.Context, msg *pubsub.Message) (string, error)
	now     func() time.Time
}

func NewPubSubNotifier(publisher *pubsub.Publisher) (*PubSubNotifier, error) {
	if publisher == nil {
		return nil, fmt.Errorf("pubsub publisher required")
	}
	return &PubSubNotifier{
		publish: func(ctx context.Context, msg *pubsub.Message) (string, error) {
			return publisher.Publish(ctx, msg).Get(ctx)
		},
		now: time.Now,
	}, nil
}

func (n *PubSubNotifier) Send(ctx context.Context, msg Message) error {
	data, err := encode(msg, n.now())
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	_, err = n.publish(ctx, &pubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"kind": msg.Kind.String(),
		},
	})
	if err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}

// KafkaNotifier writes notifications to a Kafka topic keyed by recipient.
type KafkaNotifier struct {
	writer kafka.MessageWriter
	now    func() time.Time
}

func NewKafkaNotifier(writer kafka.MessageWriter) (*KafkaNotifier, error) {
	if writer == nil {
		return nil, fmt.Errorf("kafka writer required")
	}
	return &KafkaNotifier{writer: writer, now: time.Now}, nil
}

func (n *KafkaNotifier) Send(ctx context.Context, msg Message) error {
	env := envelope{Kind: msg.Kind.String(), Recipient: msg.Recipient, Data: msg.Data, SentAt: n.now().UTC()}
	if err := kafka.PublishJSON(ctx, n.writer, msg.Recipient, map[string]string{"kind": env.Kind}, env); err != nil {
		return fmt.Errorf("write notification: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}

// Fanout delivers each message to every notifier and reports all failures.
type Fanout []Notifier

func (f Fanout) Send(ctx context.Context, msg Message) error {
	var err error
	for _, n := range f {
		err = multierr.Append(err, n.Send(ctx, msg))
	}
	return err
}
