package workers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"strings"
	"time"

	application "royalties/contexts/finance-core/royalty-engine/application"
	"royalties/contexts/finance-core/royalty-engine/application/commands"
	domainerrors "royalties/contexts/finance-core/royalty-engine/domain/errors"
	"royalties/contexts/finance-core/royalty-engine/ports"
)

const defaultTriggerConsumerGroup = "royalty-engine-trigger-cg"

// triggerTopics are the events that can make a track distributable. Every
// topic but streams.recorded retries the fixed-amount run.
var triggerTopics = []string{
	commands.EventTrackCreated,
	commands.EventTrackUpdated,
	commands.EventSplitCreated,
	commands.EventSplitUpdated,
	commands.EventSplitRemoved,
	commands.EventStreamsRecorded,
}

type triggerPayload struct {
	TrackID string `json:"track_id"`
}

// DistributionTriggerConsumer runs distributions in reaction to track, split
// and stream events. Delivery is at-least-once; the event dedup store and the
// engine's own guards make repeats harmless.
type DistributionTriggerConsumer struct {
	Subscriber    ports.EventSubscriber
	Dedup         ports.EventDedupStore
	Fixed         commands.DistributeFixedUseCase
	Streams       commands.DistributeFromStreamsUseCase
	Clock         ports.Clock
	ConsumerGroup string
	DedupTTL      time.Duration
	Disabled      bool
	Logger        *slog.Logger
}

func (c DistributionTriggerConsumer) Start(ctx context.Context) error {
	logger := application.ResolveLogger(c.Logger)
	if c.Disabled {
		logger.Info("distribution trigger consumer disabled",
			"event", "royalty_trigger_consumer_disabled",
			"module", "finance-core/royalty-engine",
			"layer", "worker",
		)
		return nil
	}
	if c.Subscriber == nil {
		return nil
	}
	group := strings.TrimSpace(c.ConsumerGroup)
	if group == "" {
		group = defaultTriggerConsumerGroup
	}

	for _, topic := range triggerTopics {
		handler := c.handleFixed
		if topic == commands.EventStreamsRecorded {
			handler = c.handleStreams
		}
		if err := c.Subscriber.Subscribe(ctx, topic, group, handler); err != nil {
			logger.Error("distribution trigger subscribe failed",
				"event", "royalty_trigger_subscribe_failed",
				"module", "finance-core/royalty-engine",
				"layer", "worker",
				"topic", topic,
				"consumer_group", group,
				"error", err.Error(),
			)
			return err
		}
	}
	logger.Info("distribution trigger consumer subscribed",
		"event", "royalty_trigger_consumer_started",
		"module", "finance-core/royalty-engine",
		"layer", "worker",
		"consumer_group", group,
	)
	return nil
}

func (c DistributionTriggerConsumer) handleFixed(ctx context.Context, event ports.EventEnvelope) error {
	return c.handle(ctx, event, func(trackID string) (commands.DistributionResult, error) {
		return c.Fixed.Execute(ctx, commands.DistributeFixedCommand{TrackID: trackID, Trigger: true})
	})
}

func (c DistributionTriggerConsumer) handleStreams(ctx context.Context, event ports.EventEnvelope) error {
	return c.handle(ctx, event, func(trackID string) (commands.DistributionResult, error) {
		return c.Streams.Execute(ctx, commands.DistributeFromStreamsCommand{TrackID: trackID})
	})
}

func (c DistributionTriggerConsumer) handle(
	ctx context.Context,
	event ports.EventEnvelope,
	run func(trackID string) (commands.DistributionResult, error),
) error {
	logger := application.ResolveLogger(c.Logger)
	alreadyProcessed, err := c.Dedup.ReserveEvent(ctx, event.EventID, hashPayload(event.Data), c.now().Add(c.dedupTTL()))
	if err != nil {
		logger.Error("distribution trigger dedupe failed",
			"event", "royalty_trigger_dedupe_failed",
			"module", "finance-core/royalty-engine",
			"layer", "worker",
			"event_id", event.EventID,
			"event_type", event.EventType,
			"error", err.Error(),
		)
		return err
	}
	if alreadyProcessed {
		logger.Debug("distribution trigger replay skipped",
			"event", "royalty_trigger_replayed",
			"module", "finance-core/royalty-engine",
			"layer", "worker",
			"event_id", event.EventID,
		)
		return nil
	}

	var payload triggerPayload
	if err := event.Decode(&payload); err != nil || strings.TrimSpace(payload.TrackID) == "" {
		// A malformed event will not improve on redelivery; keep the reservation.
		logger.Error("distribution trigger payload invalid",
			"event", "royalty_trigger_payload_invalid",
			"module", "finance-core/royalty-engine",
			"layer", "worker",
			"event_id", event.EventID,
			"event_type", event.EventType,
		)
		return nil
	}

	result, err := run(payload.TrackID)
	switch {
	case err == nil:
		logger.Info("distribution trigger consumed",
			"event", "royalty_trigger_consumed",
			"module", "finance-core/royalty-engine",
			"layer", "worker",
			"event_id", event.EventID,
			"event_type", event.EventType,
			"track_id", payload.TrackID,
			"royalty_id", result.RoyaltyID,
			"message", result.Message,
		)
		return nil
	case isNotReady(err):
		logger.Info("distribution trigger skipped",
			"event", "royalty_trigger_skipped",
			"module", "finance-core/royalty-engine",
			"layer", "worker",
			"event_id", event.EventID,
			"event_type", event.EventType,
			"track_id", payload.TrackID,
			"reason", err.Error(),
		)
		return nil
	default:
		if releaseErr := c.Dedup.ReleaseEvent(ctx, event.EventID); releaseErr != nil {
			logger.Error("distribution trigger release failed",
				"event", "royalty_trigger_release_failed",
				"module", "finance-core/royalty-engine",
				"layer", "worker",
				"event_id", event.EventID,
				"error", releaseErr.Error(),
			)
		}
		return err
	}
}

// isNotReady covers tracks that cannot be distributed yet. A later split or
// stream event triggers them again.
func isNotReady(err error) bool {
	return errors.Is(err, domainerrors.ErrIncompleteSplit) ||
		errors.Is(err, domainerrors.ErrInvalidAmount) ||
		errors.Is(err, domainerrors.ErrTrackNotFound)
}

func hashPayload(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

func (c DistributionTriggerConsumer) now() time.Time {
	if c.Clock == nil {
		return time.Now().UTC()
	}
	return c.Clock.Now().UTC()
}

func (c DistributionTriggerConsumer) dedupTTL() time.Duration {
	if c.DedupTTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return c.DedupTTL
}
