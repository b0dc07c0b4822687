package workers

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	application "royalties/contexts/finance-core/royalty-engine/application"
	"royalties/contexts/finance-core/royalty-engine/ports"
)

// OutboxRelay publishes committed outbox rows to the event bus, one topic per
// event type.
type OutboxRelay struct {
	Outbox    ports.OutboxRepository
	Publisher ports.EventPublisher
	Clock     ports.Clock
	BatchSize int
	Logger    *slog.Logger
}

// RunOnce publishes a bounded batch and marks each row sent only after the
// publish succeeds. It stops at the first failure; the row is retried on the
// next cycle, so consumers must tolerate redelivery.
func (r OutboxRelay) RunOnce(ctx context.Context) (int, error) {
	logger := application.ResolveLogger(r.Logger)
	limit := r.BatchSize
	if limit <= 0 {
		limit = 100
	}

	pending, err := r.Outbox.ListPendingOutbox(ctx, limit)
	if err != nil {
		logger.Error("royalty outbox list failed",
			"event", "royalty_outbox_list_failed",
			"module", "finance-core/royalty-engine",
			"layer", "worker",
			"error", err.Error(),
		)
		return 0, err
	}
	if len(pending) == 0 {
		return 0, nil
	}

	published := 0
	for _, row := range pending {
		var event ports.EventEnvelope
		if err := json.Unmarshal(row.Payload, &event); err != nil {
			logger.Error("royalty outbox decode failed",
				"event", "royalty_outbox_decode_failed",
				"module", "finance-core/royalty-engine",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"error", err.Error(),
			)
			return published, err
		}
		topic := event.EventType
		if topic == "" {
			topic = row.EventType
		}
		if err := r.Publisher.Publish(ctx, topic, event); err != nil {
			logger.Error("royalty outbox publish failed",
				"event", "royalty_outbox_publish_failed",
				"module", "finance-core/royalty-engine",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"event_id", event.EventID,
				"topic", topic,
				"error", err.Error(),
			)
			return published, err
		}
		if err := r.Outbox.MarkOutboxSent(ctx, row.OutboxID, r.now()); err != nil {
			logger.Error("royalty outbox mark sent failed",
				"event", "royalty_outbox_mark_sent_failed",
				"module", "finance-core/royalty-engine",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"error", err.Error(),
			)
			return published, err
		}
		published++
	}

	logger.Info("royalty outbox relay cycle completed",
		"event", "royalty_outbox_relay_completed",
		"module", "finance-core/royalty-engine",
		"layer", "worker",
		"published_count", published,
	)
	return published, nil
}

// Drain runs RunOnce until the outbox is empty or an error occurs.
func (r OutboxRelay) Drain(ctx context.Context) error {
	for {
		published, err := r.RunOnce(ctx)
		if err != nil {
			return err
		}
		if published == 0 {
			return nil
		}
	}
}

func (r OutboxRelay) now() time.Time {
	if r.Clock == nil {
		return time.Now().UTC()
	}
	return r.Clock.Now().UTC()
}
