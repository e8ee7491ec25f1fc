package events

import (
	"context"
	"log/slog"
	"time"

	"studio-booking/internal/domain/booking"
	"studio-booking/internal/pkg/config"
	"studio-booking/internal/pkg/errs"

	"github.com/segmentio/kafka-go"
)

// KafkaPublisher writes booking events keyed by booking id, so events of
// one booking stay ordered within a partition.
type KafkaPublisher struct {
	writer  *kafka.Writer
	timeout time.Duration
	logger  *slog.Logger
}

func NewKafkaPublisher(cfg config.KafkaConfig, logger *slog.Logger) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           10 * time.Millisecond,
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
	logger.Info("kafka publisher configured", "brokers", cfg.Brokers, "topic", cfg.Topic)
	return &KafkaPublisher{writer: writer, timeout: cfg.WriteTimeout, logger: logger}
}

func (p *KafkaPublisher) Publish(ctx context.Context, events []booking.Event) error {
	msgs := make([]kafka.Message, len(events))
	for i, e := range events {
		msgs[i] = kafka.Message{
			Key:   []byte(e.BookingID.String()),
			Value: e.Payload,
			Time:  e.OccurredAt,
			Headers: []kafka.Header{
				{Key: "event-id", Value: []byte(e.ID.String())},
				{Key: "event-type", Value: []byte(e.Type)},
			},
		}
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return errs.Wrapf(err, "failed to write %d booking events", len(msgs))
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// LogPublisher stands in for Kafka when no brokers are configured.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(_ context.Context, events []booking.Event) error {
	for _, e := range events {
		p.logger.Info("booking event",
			"event_id", e.ID,
			"type", string(e.Type),
			"booking_id", e.BookingID,
			"occurred_at", e.OccurredAt)
	}
	return nil
}

func (p *LogPublisher) Close() error { return nil }
