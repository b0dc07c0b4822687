package platformfeeengine

import (
	"log/slog"
	"time"

	httpadapter "royalties/contexts/finance-core/platform-fee-engine/adapters/http"
	"royalties/contexts/finance-core/platform-fee-engine/adapters/memory"
	"royalties/contexts/finance-core/platform-fee-engine/application"
	"royalties/contexts/finance-core/platform-fee-engine/ports"

	"github.com/shopspring/decimal"
)

type Module struct {
	Handler  httpadapter.Handler
	Consumer application.RoyaltyDistributedConsumer
	Store    *memory.Store
}

type Dependencies struct {
	Repository        ports.Repository
	EventDedup        ports.EventDedupStore
	Subscriber        ports.EventSubscriber
	Clock             ports.Clock
	IDGenerator       ports.IDGenerator
	EventDedupTTL     time.Duration
	DefaultFeePercent decimal.Decimal
	ConsumerGroup     string
	Logger            *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Repo:              deps.Repository,
		EventDedup:        deps.EventDedup,
		Clock:             deps.Clock,
		IDGen:             deps.IDGenerator,
		EventDedupTTL:     deps.EventDedupTTL,
		DefaultFeePercent: deps.DefaultFeePercent,
		Logger:            deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Service: service,
			Logger:  deps.Logger,
		},
		Consumer: application.RoyaltyDistributedConsumer{
			Subscriber:    deps.Subscriber,
			Service:       service,
			ConsumerGroup: deps.ConsumerGroup,
			Logger:        deps.Logger,
		},
	}
}

func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Repository:        store,
		EventDedup:        store,
		Clock:             store,
		IDGenerator:       store,
		EventDedupTTL:     7 * 24 * time.Hour,
		DefaultFeePercent: decimal.RequireFromString("2.00"),
		Logger:            logger,
	})
	module.Store = store
	return module
}
