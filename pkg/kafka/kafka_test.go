package kafka

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
)

type captureWriter struct {
	msgs []kafka.Message
}

func (c *captureWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	c.msgs = append(c.msgs, msgs...)
	return nil
}

func (c *captureWriter) Close() error { return nil }

func TestPublishJSON(t *testing.T) {
	w := &captureWriter{}
	err := PublishJSON(context.Background(), w, "buyer@example.com", map[string]string{"kind": "delivery-otp"}, map[string]string{"code": "123456"})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)
	require.Equal(t, "buyer@example.com", string(w.msgs[0].Key))
	require.Equal(t, "kind", w.msgs[0].Headers[0].Key)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &body))
	require.Equal(t, "123456", body["code"])
}

func TestWriterRequiresBrokers(t *testing.T) {
	_, err := NewClient(nil).NewWriter("topic")
	require.ErrorIs(t, err, ErrDisabled)

	w, err := NewClient([]string{"localhost:9092"}).NewWriter("topic")
	require.NoError(t, err)
	require.Equal(t, "topic", w.Topic)
}
