package royaltyengine

import (
	"log/slog"
	"time"

	httpadapter "royalties/contexts/finance-core/royalty-engine/adapters/http"
	"royalties/contexts/finance-core/royalty-engine/adapters/memory"
	"royalties/contexts/finance-core/royalty-engine/adapters/transfer"
	"royalties/contexts/finance-core/royalty-engine/application/commands"
	"royalties/contexts/finance-core/royalty-engine/application/queries"
	"royalties/contexts/finance-core/royalty-engine/application/workers"
	"royalties/contexts/finance-core/royalty-engine/ports"

	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
)

type Module struct {
	Handler httpadapter.Handler
	Trigger workers.DistributionTriggerConsumer
	Relay   workers.OutboxRelay
	Store   *memory.Store
}

type Dependencies struct {
	Ledger     ports.LedgerStore
	Tracks     ports.TrackReader
	Wallets    ports.WalletReader
	Outbox     ports.OutboxRepository
	EventDedup ports.EventDedupStore
	Publisher  ports.EventPublisher
	Subscriber ports.EventSubscriber
	Transfers  ports.TransferGateway
	Metrics    ports.Metrics

	Clock       ports.Clock
	IDGenerator ports.IDGenerator

	PlatformFeePercent   decimal.Decimal
	DefaultRatePerStream decimal.Decimal
	EventDedupTTL        time.Duration
	RelayBatchSize       int
	ConsumerGroup        string
	DisableTrigger       bool
	Logger               *slog.Logger
}

func NewModule(deps Dependencies) Module {
	fixed := commands.DistributeFixedUseCase{
		Ledger:             deps.Ledger,
		Clock:              deps.Clock,
		IDGenerator:        deps.IDGenerator,
		PlatformFeePercent: deps.PlatformFeePercent,
		Metrics:            deps.Metrics,
		Logger:             deps.Logger,
	}
	streams := commands.DistributeFromStreamsUseCase{
		Ledger:               deps.Ledger,
		Clock:                deps.Clock,
		IDGenerator:          deps.IDGenerator,
		PlatformFeePercent:   deps.PlatformFeePercent,
		DefaultRatePerStream: deps.DefaultRatePerStream,
		Metrics:              deps.Metrics,
		Logger:               deps.Logger,
	}

	return Module{
		Handler: httpadapter.Handler{
			RegisterTrack: commands.RegisterTrackUseCase{
				Ledger:      deps.Ledger,
				Clock:       deps.Clock,
				IDGenerator: deps.IDGenerator,
				Logger:      deps.Logger,
			},
			UpdateTrack: commands.UpdateTrackUseCase{
				Ledger:      deps.Ledger,
				Clock:       deps.Clock,
				IDGenerator: deps.IDGenerator,
				Logger:      deps.Logger,
			},
			DeleteTrack: commands.DeleteTrackUseCase{
				Ledger:      deps.Ledger,
				Clock:       deps.Clock,
				IDGenerator: deps.IDGenerator,
				Logger:      deps.Logger,
			},
			AddSplit: commands.AddSplitUseCase{
				Ledger:      deps.Ledger,
				Clock:       deps.Clock,
				IDGenerator: deps.IDGenerator,
				Logger:      deps.Logger,
			},
			UpdateSplit: commands.UpdateSplitUseCase{
				Ledger:      deps.Ledger,
				Clock:       deps.Clock,
				IDGenerator: deps.IDGenerator,
				Logger:      deps.Logger,
			},
			RemoveSplit: commands.RemoveSplitUseCase{
				Ledger:      deps.Ledger,
				Clock:       deps.Clock,
				IDGenerator: deps.IDGenerator,
				Logger:      deps.Logger,
			},
			RecordStreams: commands.RecordStreamsUseCase{
				Ledger:      deps.Ledger,
				Clock:       deps.Clock,
				IDGenerator: deps.IDGenerator,
				Logger:      deps.Logger,
			},
			DistributeFixed:   fixed,
			DistributeStreams: streams,
			Withdraw: commands.WithdrawUseCase{
				Ledger:      deps.Ledger,
				Transfers:   deps.Transfers,
				Clock:       deps.Clock,
				IDGenerator: deps.IDGenerator,
				Metrics:     deps.Metrics,
				Logger:      deps.Logger,
			},
			ConfirmPayout: commands.ConfirmPayoutUseCase{
				Ledger: deps.Ledger,
				Clock:  deps.Clock,
				Logger: deps.Logger,
			},
			LinkWalletAddress: commands.LinkWalletAddressUseCase{
				Ledger:      deps.Ledger,
				Clock:       deps.Clock,
				IDGenerator: deps.IDGenerator,
				Logger:      deps.Logger,
			},
			GetTrack:           queries.GetTrackUseCase{Tracks: deps.Tracks, Logger: deps.Logger},
			ListTracks:         queries.ListTracksUseCase{Tracks: deps.Tracks, Logger: deps.Logger},
			SplitStatus:        queries.SplitStatusUseCase{Tracks: deps.Tracks, Logger: deps.Logger},
			ListRoyalties:      queries.ListRoyaltiesUseCase{Tracks: deps.Tracks, Logger: deps.Logger},
			GetWallet:          queries.GetWalletUseCase{Wallets: deps.Wallets, Logger: deps.Logger},
			GetWalletByUser:    queries.GetWalletByUserUseCase{Wallets: deps.Wallets, Logger: deps.Logger},
			ListPayouts:        queries.ListPayoutsUseCase{Wallets: deps.Wallets, Logger: deps.Logger},
			WalletSummary:      queries.WalletSummaryUseCase{Wallets: deps.Wallets, Logger: deps.Logger},
			ListPayoutStatuses: queries.ListPayoutStatusesUseCase{Wallets: deps.Wallets, Logger: deps.Logger},
			Logger:             deps.Logger,
		},
		Trigger: workers.DistributionTriggerConsumer{
			Subscriber:    deps.Subscriber,
			Dedup:         deps.EventDedup,
			Fixed:         fixed,
			Streams:       streams,
			Clock:         deps.Clock,
			ConsumerGroup: deps.ConsumerGroup,
			DedupTTL:      deps.EventDedupTTL,
			Disabled:      deps.DisableTrigger,
			Logger:        deps.Logger,
		},
		Relay: workers.OutboxRelay{
			Outbox:    deps.Outbox,
			Publisher: deps.Publisher,
			Clock:     deps.Clock,
			BatchSize: deps.RelayBatchSize,
			Logger:    deps.Logger,
		},
	}
}

// NewInMemoryModule wires the engine to the in-memory ledger and the stub
// transfer gateway. Publisher and Subscriber are left to the caller.
func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Ledger:               store,
		Tracks:               store,
		Wallets:              store,
		Outbox:               store,
		EventDedup:           store,
		Transfers:            transfer.StubGateway{Logger: logger},
		Clock:                clockwork.NewRealClock(),
		IDGenerator:          store,
		PlatformFeePercent:   commands.DefaultPlatformFeePercent(),
		DefaultRatePerStream: decimal.RequireFromString("0.003"),
		EventDedupTTL:        7 * 24 * time.Hour,
		Logger:               logger,
	})
	module.Store = store
	return module
}
