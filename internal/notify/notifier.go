// Package notify publishes engine state transitions to Kafka. Notifications
// are observable side effects, not state: they are emitted after the owning
// transaction commits, and a publish failure is logged by the caller but
// never fails the operation.
package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
)

type Notifier interface {
	MarketOpened(ctx context.Context, e MarketOpened) error
	PredictionPlaced(ctx context.Context, e PredictionPlaced) error
	RoundSettled(ctx context.Context, e RoundSettled) error
	ClaimPaid(ctx context.Context, e ClaimPaid) error
}

type KafkaNotifier struct {
	opened  *kafka.Writer
	placed  *kafka.Writer
	settled *kafka.Writer
	claimed *kafka.Writer
}

func NewKafkaNotifier(brokers string) *KafkaNotifier {
	return &KafkaNotifier{
		opened:  newWriter(brokers, TopicMarketOpened),
		placed:  newWriter(brokers, TopicPredictionPlaced),
		settled: newWriter(brokers, TopicRoundSettled),
		claimed: newWriter(brokers, TopicClaimPaid),
	}
}

func newWriter(brokers string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
}

func (n *KafkaNotifier) Close() error {
	for _, w := range []*kafka.Writer{n.opened, n.placed, n.settled, n.claimed} {
		if w != nil {
			_ = w.Close()
		}
	}
	return nil
}

func (n *KafkaNotifier) MarketOpened(ctx context.Context, e MarketOpened) error {
	e.TsUnixMs = time.Now().UnixMilli()
	return writeJSON(ctx, n.opened, e.RoundID, e)
}

func (n *KafkaNotifier) PredictionPlaced(ctx context.Context, e PredictionPlaced) error {
	e.TsUnixMs = time.Now().UnixMilli()
	return writeJSON(ctx, n.placed, e.RoundID, e)
}

func (n *KafkaNotifier) RoundSettled(ctx context.Context, e RoundSettled) error {
	e.TsUnixMs = time.Now().UnixMilli()
	return writeJSON(ctx, n.settled, e.RoundID, e)
}

func (n *KafkaNotifier) ClaimPaid(ctx context.Context, e ClaimPaid) error {
	e.TsUnixMs = time.Now().UnixMilli()
	return writeJSON(ctx, n.claimed, e.RoundID, e)
}

func writeJSON(ctx context.Context, w *kafka.Writer, key string, payload any) error {
	if w == nil {
		return nil
	}
	b, _ := json.Marshal(payload)
	return w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: b,
		Time:  time.Now(),
	})
}

// Nop satisfies Notifier when Kafka is disabled.
type Nop struct{}

func (Nop) MarketOpened(context.Context, MarketOpened) error         { return nil }
func (Nop) PredictionPlaced(context.Context, PredictionPlaced) error { return nil }
func (Nop) RoundSettled(context.Context, RoundSettled) error         { return nil }
func (Nop) ClaimPaid(context.Context, ClaimPaid) error               { return nil }
