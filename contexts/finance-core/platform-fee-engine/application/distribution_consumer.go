package application

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	domainerrors "royalties/contexts/finance-core/platform-fee-engine/domain/errors"
	"royalties/contexts/finance-core/platform-fee-engine/ports"
)

const defaultFeeConsumerGroup = "platform-fee-engine-royalty-cg"

// RoyaltyDistributedConsumer feeds royalty.distributed events into the fee
// ledger.
type RoyaltyDistributedConsumer struct {
	Subscriber    ports.EventSubscriber
	Service       Service
	ConsumerGroup string
	Logger        *slog.Logger
}

func (c RoyaltyDistributedConsumer) Start(ctx context.Context) error {
	if c.Subscriber == nil {
		return nil
	}
	group := strings.TrimSpace(c.ConsumerGroup)
	if group == "" {
		group = defaultFeeConsumerGroup
	}
	return c.Subscriber.Subscribe(ctx, ports.TopicRoyaltyDistributed, group, c.Handle)
}

func (c RoyaltyDistributedConsumer) Handle(ctx context.Context, envelope ports.EventEnvelope) error {
	logger := resolveLogger(c.Logger)
	var event ports.RoyaltyDistributedEvent
	if err := envelope.Decode(&event); err != nil {
		logger.Error("royalty distributed payload rejected",
			"event", "platform_fee_payload_rejected",
			"module", "finance-core/platform-fee-engine",
			"layer", "worker",
			"event_id", envelope.EventID,
			"error", err.Error(),
		)
		return nil
	}

	_, replayed, err := c.Service.RecordDistribution(ctx, envelope.EventID, event)
	switch {
	case errors.Is(err, domainerrors.ErrInvalidInput), errors.Is(err, domainerrors.ErrEventPayloadConflict):
		logger.Warn("royalty distributed event skipped",
			"event", "platform_fee_event_skipped",
			"module", "finance-core/platform-fee-engine",
			"layer", "worker",
			"event_id", envelope.EventID,
			"error", err.Error(),
		)
		return nil
	case err != nil:
		return err
	}
	if replayed {
		logger.Debug("royalty distributed event replayed",
			"event", "platform_fee_event_replayed",
			"module", "finance-core/platform-fee-engine",
			"layer", "worker",
			"event_id", envelope.EventID,
		)
	}
	return nil
}
