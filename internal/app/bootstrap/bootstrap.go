package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	platformfeeengine "royalties/contexts/finance-core/platform-fee-engine"
	feepostgres "royalties/contexts/finance-core/platform-fee-engine/adapters/postgres"
	royaltyengine "royalties/contexts/finance-core/royalty-engine"
	royaltypostgres "royalties/contexts/finance-core/royalty-engine/adapters/postgres"
	"royalties/contexts/finance-core/royalty-engine/adapters/transfer"
	"royalties/contexts/finance-core/royalty-engine/ports"
	"royalties/internal/platform/config"
	"royalties/internal/platform/db"
	"royalties/internal/platform/httpserver"
	"royalties/internal/platform/logging"
	"royalties/internal/platform/messaging"
	"royalties/internal/platform/observability"
	"royalties/internal/platform/telemetry"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type eventBus interface {
	ports.EventPublisher
	ports.EventSubscriber
}

// runtime holds everything api and worker processes share.
type runtime struct {
	cfg      config.Config
	logger   *slog.Logger
	database *db.Database
	bus      eventBus
	registry *prometheus.Registry
	royalty  royaltyengine.Module
	fees     platformfeeengine.Module
	closers  []io.Closer
	shutdown []func(context.Context) error
}

type APIApp struct {
	runtime *runtime
	server  *httpserver.Server
	// inProcessWorkers runs the relay and consumers inside the api process
	// when the bus cannot reach a separate worker.
	inProcessWorkers bool
}

type WorkerApp struct {
	runtime *runtime
}

func BuildAPI(ctx context.Context, opts config.Options) (*APIApp, error) {
	rt, err := buildRuntime(ctx, opts, "api")
	if err != nil {
		return nil, err
	}
	server := httpserver.New(rt.royalty, rt.fees, rt.registry, rt.logger, normalizeAddr(rt.cfg.HTTPPort))
	return &APIApp{
		runtime:          rt,
		server:           server,
		inProcessWorkers: rt.cfg.EventBus == config.EventBusMemory,
	}, nil
}

func BuildWorker(ctx context.Context, opts config.Options) (*WorkerApp, error) {
	rt, err := buildRuntime(ctx, opts, "worker")
	if err != nil {
		return nil, err
	}
	if rt.cfg.EventBus == config.EventBusMemory {
		rt.logger.Warn("worker running with in-process bus; events published by api processes are not visible here",
			"event", "bootstrap_worker_memory_bus",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return &WorkerApp{runtime: rt}, nil
}

// Migrate applies the schema and exits. Used by cmd/migrate and --migrate-only.
func Migrate(ctx context.Context, opts config.Options) error {
	cfg, err := config.LoadWithOptions(opts)
	if err != nil {
		return err
	}
	logger, closer := logging.Setup(logging.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		File:    cfg.Log.File,
		Service: cfg.ServiceName,
	})
	defer closer.Close()

	database, err := connect(cfg)
	if err != nil {
		return err
	}
	defer database.Close()
	return db.Migrate(ctx, database, logger, royaltypostgres.AutoMigrate, feepostgres.AutoMigrate)
}

func buildRuntime(ctx context.Context, opts config.Options, process string) (*runtime, error) {
	cfg, err := config.LoadWithOptions(opts)
	if err != nil {
		return nil, err
	}

	baseLogger, logCloser := logging.Setup(logging.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		File:    cfg.Log.File,
		Service: cfg.ServiceName,
	})
	logger := baseLogger.With("process", process)
	rt := &runtime{cfg: cfg, logger: logger, closers: []io.Closer{logCloser}}

	shutdownTracing, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName: cfg.ServiceName,
		Environment: cfg.Environment,
		Endpoint:    cfg.Telemetry.OTLPEndpoint,
		Insecure:    cfg.Telemetry.Insecure,
		Enabled:     cfg.Telemetry.Enabled,
	})
	if err != nil {
		_ = rt.Close()
		return nil, fmt.Errorf("init telemetry: %w", err)
	}
	rt.shutdown = append(rt.shutdown, shutdownTracing)

	database, err := connect(cfg)
	if err != nil {
		_ = rt.Close()
		return nil, err
	}
	rt.database = database
	rt.closers = append(rt.closers, database)

	if err := db.Migrate(ctx, database, logger, royaltypostgres.AutoMigrate, feepostgres.AutoMigrate); err != nil {
		_ = rt.Close()
		return nil, err
	}

	bus, err := buildBus(ctx, cfg, logger)
	if err != nil {
		_ = rt.Close()
		return nil, err
	}
	rt.bus = bus
	if closer, ok := bus.(io.Closer); ok {
		rt.closers = append(rt.closers, closer)
	}

	gateway, err := buildTransferGateway(ctx, cfg, logger)
	if err != nil {
		_ = rt.Close()
		return nil, err
	}

	rt.registry = prometheus.NewRegistry()
	rt.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	clock := clockwork.NewRealClock()
	ids := royaltypostgres.UUIDGenerator{}

	repo := royaltypostgres.NewRepository(database.DB, logger)
	rt.royalty = royaltyengine.NewModule(royaltyengine.Dependencies{
		Ledger:               repo,
		Tracks:               repo,
		Wallets:              repo,
		Outbox:               repo,
		EventDedup:           repo,
		Publisher:            bus,
		Subscriber:           bus,
		Transfers:            gateway,
		Metrics:              observability.NewRoyaltyMetrics(rt.registry),
		Clock:                clock,
		IDGenerator:          ids,
		PlatformFeePercent:   cfg.Royalty.PlatformFeePercent,
		DefaultRatePerStream: cfg.Royalty.RatePerStream,
		EventDedupTTL:        cfg.Royalty.EventDedupTTL,
		RelayBatchSize:       cfg.Royalty.RelayBatchSize,
		DisableTrigger:       cfg.Royalty.DisableTrigger,
		Logger:               logger,
	})

	feeRepo := feepostgres.NewRepository(database.DB, logger)
	rt.fees = platformfeeengine.NewModule(platformfeeengine.Dependencies{
		Repository:        feeRepo,
		EventDedup:        feeRepo,
		Subscriber:        bus,
		Clock:             clock,
		IDGenerator:       ids,
		EventDedupTTL:     cfg.Royalty.EventDedupTTL,
		DefaultFeePercent: cfg.Royalty.PlatformFeePercent,
		Logger:            logger,
	})

	logger.Info("runtime built",
		"event", "bootstrap_runtime_built",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"db_driver", cfg.DBDriver,
		"event_bus", cfg.EventBus,
		"transfer_mode", cfg.Transfer.Mode,
		"platform_fee_percent", cfg.Royalty.PlatformFeePercent.StringFixed(2),
	)
	return rt, nil
}

func connect(cfg config.Config) (*db.Database, error) {
	dsn := cfg.PostgresDSN
	if cfg.DBDriver == config.DriverSQLite {
		dsn = cfg.SQLitePath
	}
	return db.Connect(cfg.DBDriver, dsn)
}

func buildBus(ctx context.Context, cfg config.Config, logger *slog.Logger) (eventBus, error) {
	switch cfg.EventBus {
	case config.EventBusRedis:
		return messaging.DialRedis(ctx, cfg.RedisAddr, logger)
	default:
		return messaging.NewBus(logger), nil
	}
}

func buildTransferGateway(ctx context.Context, cfg config.Config, logger *slog.Logger) (ports.TransferGateway, error) {
	switch cfg.Transfer.Mode {
	case config.TransferModeEthereum:
		return transfer.DialEthereum(ctx, transfer.EthereumConfig{
			RPCURL:        cfg.Transfer.RPCURL,
			PrivateKeyHex: cfg.Transfer.PrivateKeyHex,
			Decimals:      cfg.Transfer.TokenDecimals,
		}, logger)
	default:
		return transfer.StubGateway{Logger: logger}, nil
	}
}

func (a *APIApp) Run(ctx context.Context) error {
	rt := a.runtime
	group, ctx := errgroup.WithContext(ctx)
	if a.inProcessWorkers {
		if err := rt.subscribe(ctx); err != nil {
			return err
		}
		group.Go(func() error { return rt.relayLoop(ctx) })
	}
	group.Go(func() error {
		rt.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
			"in_process_workers", a.inProcessWorkers,
		)
		return a.server.Start()
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return a.server.Shutdown(shutdownCtx)
	})
	return group.Wait()
}

func (a *APIApp) Close() error {
	return a.runtime.Close()
}

func (w *WorkerApp) Run(ctx context.Context) error {
	rt := w.runtime
	if err := rt.subscribe(ctx); err != nil {
		return err
	}
	rt.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", rt.cfg.WorkerPollInterval.String(),
	)
	return rt.relayLoop(ctx)
}

func (w *WorkerApp) Close() error {
	return w.runtime.Close()
}

func (rt *runtime) subscribe(ctx context.Context) error {
	if err := rt.royalty.Trigger.Start(ctx); err != nil {
		return err
	}
	return rt.fees.Consumer.Start(ctx)
}

// relayLoop drains the outbox every poll interval until ctx is done. Relay
// errors are logged and retried on the next tick.
func (rt *runtime) relayLoop(ctx context.Context) error {
	ticker := time.NewTicker(rt.cfg.WorkerPollInterval)
	defer ticker.Stop()
	for {
		if err := rt.royalty.Relay.Drain(ctx); err != nil && !errors.Is(err, context.Canceled) {
			rt.logger.Error("outbox relay pass failed",
				"event", "bootstrap_outbox_relay_failed",
				"module", "internal/app/bootstrap",
				"layer", "platform",
				"error", err.Error(),
			)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (rt *runtime) Close() error {
	var errs []error
	for _, shutdown := range rt.shutdown {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		errs = append(errs, shutdown(ctx))
		cancel()
	}
	for i := len(rt.closers) - 1; i >= 0; i-- {
		errs = append(errs, rt.closers[i].Close())
	}
	return errors.Join(errs...)
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
