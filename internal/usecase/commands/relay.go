package commands

import (
	"context"
	"log/slog"

	"studio-booking/internal/pkg/clock"
	"studio-booking/internal/usecase/shared"

	"github.com/google/uuid"
)

type EventRelay interface {
	// RelayPending publishes up to one batch of pending events and reports
	// how many were published.
	RelayPending(ctx context.Context) (int, error)
}

type eventRelayImpl struct {
	outbox    Outbox
	publisher EventPublisher
	batchSize int
	clock     clock.Clock
	logger    *slog.Logger
}

func NewEventRelay(outbox Outbox, publisher EventPublisher, batchSize int, clk clock.Clock, logger *slog.Logger) EventRelay {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &eventRelayImpl{outbox: outbox, publisher: publisher, batchSize: batchSize, clock: clk, logger: logger}
}

func (r *eventRelayImpl) RelayPending(ctx context.Context) (int, error) {
	events, err := r.outbox.Pending(ctx, r.batchSize)
	if err != nil {
		return 0, shared.Transient(err, "reading outbox")
	}
	if len(events) == 0 {
		return 0, nil
	}

	if err := r.publisher.Publish(ctx, events); err != nil {
		return 0, shared.Transient(err, "publishing booking events")
	}

	ids := make([]uuid.UUID, len(events))
	for i, e := range events {
		ids[i] = e.ID
	}
	// A failure here republishes the batch on the next pass.
	if err := r.outbox.MarkPublished(ctx, ids, r.clock.Now()); err != nil {
		return 0, shared.Transient(err, "marking events published")
	}
	r.logger.Debug("booking events relayed", "count", len(events))
	return len(events), nil
}
