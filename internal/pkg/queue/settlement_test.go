package queue

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scorewise/scorewise/internal/pkg/config"
)

type captureWriter struct {
	messages []kafka.Message
	closed   bool
}

func (w *captureWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *captureWriter) Close() error {
	w.closed = true
	return nil
}

func TestEventFinishedKeyedByEventID(t *testing.T) {
	w := &captureWriter{}
	p := &SettlementProducer{w: w, enabled: true}

	err := p.EventFinished(context.Background(), "event-42", 2, 1)
	require.NoError(t, err)
	require.Len(t, w.messages, 1)

	msg := w.messages[0]
	assert.Equal(t, "event-42", string(msg.Key))

	var body SettlementMessage
	require.NoError(t, json.Unmarshal(msg.Value, &body))
	assert.Equal(t, "event_finished", body.Type)
	assert.Equal(t, "event-42", body.EventID)
	assert.Equal(t, 2, body.Result.HomeScore)
	assert.Equal(t, 1, body.Result.AwayScore)
}

func TestDisabledProducerIsNoOp(t *testing.T) {
	p := NewSettlementProducer(config.QueueConfig{Enabled: false})

	assert.NoError(t, p.EventFinished(context.Background(), "event-1", 0, 0))
	assert.NoError(t, p.Close())
}
