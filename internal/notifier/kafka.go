package notifier

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

type kafkaNotifier struct {
	writer *kafka.Writer
	logger zerolog.Logger
}

// NewKafkaNotifier publishes events keyed by order id, so all events of one order land on
// the same partition in order. The writer is async: Notify never blocks on the brokers.
func NewKafkaNotifier(brokers []string, topic string, logger zerolog.Logger) Notifier {
	n := &kafkaNotifier{logger: logger}
	n.writer = &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
		Async:        true,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				n.logger.Error().Err(err).Int("messages", len(messages)).Msg("publish notifications")
			}
		},
	}
	return n
}

func (n *kafkaNotifier) Notify(ctx context.Context, event Event) {
	value, err := json.Marshal(event)
	if err != nil {
		n.logger.Error().Err(err).Str("event", event.Type).Msg("encode notification")
		return
	}

	msg := kafka.Message{
		Key:   []byte(strconv.FormatUint(uint64(event.OrderID), 10)),
		Value: value,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(event.Type)},
		},
		Time: event.OccurredAt,
	}
	// Detached from the request context: the request may finish before the batch flushes.
	if err := n.writer.WriteMessages(context.WithoutCancel(ctx), msg); err != nil {
		n.logger.Error().Err(err).Str("event", event.Type).Msg("enqueue notification")
	}
}

func (n *kafkaNotifier) Close() error {
	return n.writer.Close()
}
