package notifications

import (
	"context"
	"encoding/json"
	"time"

	"github.com/angelmondragon/tradelink-backend/pkg/enums"
)

// Message is a templated notification addressed to one recipient, usually an
// email address.
type Message struct {
	Kind      enums.NotificationKind
	Recipient string
	Data      map[string]any
}

// Notifier delivers a message to an external channel.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, msg Message) error

func (f NotifierFunc) Send(ctx context.Context, msg Message) error {
	return f(ctx, msg)
}

// envelope is the wire form published to brokers.
type envelope struct {
	Kind      string         `json:"kind"`
	Recipient string         `json:"recipient"`
	Data      map[string]any `json:"data,omitempty"`
	SentAt    time.Time      `json:"sent_at"`
}

func encode(msg Message, at time.Time) ([]byte, error) {
	return json.Marshal(envelope{
		Kind:      msg.Kind.String(),
		Recipient: msg.Recipient,
		Data:      msg.Data,
		SentAt:    at.UTC(),
	})
}
