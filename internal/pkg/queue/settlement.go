package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/scorewise/scorewise/internal/pkg/config"
)

// SettlementMessage tells the downstream settlement worker that an event has
// a final score.
type SettlementMessage struct {
	Type    string           `json:"type"`
	EventID string           `json:"eventId"`
	Result  SettlementResult `json:"result"`
}

type SettlementResult struct {
	HomeScore int `json:"homeScore"`
	AwayScore int `json:"awayScore"`
}

const messageTypeEventFinished = "event_finished"

// writer is the slice of kafka.Writer the producer uses, extracted so tests
// can capture messages without a broker.
type writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// SettlementProducer publishes finished-event notifications. Messages are
// keyed by event ID so per-event ordering survives partitioning. A disabled
// producer is a no-op, which keeps local runs broker-free.
type SettlementProducer struct {
	w       writer
	enabled bool
}

func NewSettlementProducer(cfg config.QueueConfig) *SettlementProducer {
	if !cfg.Enabled || cfg.Brokers == "" {
		slog.Info("settlement queue disabled")
		return &SettlementProducer{}
	}

	w := &kafka.Writer{
		Addr:         kafka.TCP(strings.Split(cfg.Brokers, ",")...),
		Topic:        cfg.SettlementTopic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
	}
	return &SettlementProducer{w: w, enabled: true}
}

// EventFinished publishes one settlement notification for an event.
func (p *SettlementProducer) EventFinished(ctx context.Context, eventID string, homeScore, awayScore int) error {
	if !p.enabled {
		return nil
	}

	body, err := json.Marshal(SettlementMessage{
		Type:    messageTypeEventFinished,
		EventID: eventID,
		Result:  SettlementResult{HomeScore: homeScore, AwayScore: awayScore},
	})
	if err != nil {
		return fmt.Errorf("marshal settlement message: %w", err)
	}

	err = p.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(eventID),
		Value: body,
	})
	if err != nil {
		return fmt.Errorf("publish settlement for event %s: %w", eventID, err)
	}
	slog.Info("settlement enqueued", "event_id", eventID, "home", homeScore, "away", awayScore)
	return nil
}

func (p *SettlementProducer) Close() error {
	if p.w == nil {
		return nil
	}
	return p.w.Close()
}
