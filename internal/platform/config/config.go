package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	EventBusMemory = "memory"
	EventBusRedis  = "redis"

	TransferModeStub     = "stub"
	TransferModeEthereum = "ethereum"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName string
	Environment string
	HTTPPort    string

	DBDriver    string
	PostgresDSN string
	SQLitePath  string

	EventBus  string
	RedisAddr string

	Log       LogConfig
	Telemetry TelemetryConfig
	Royalty   RoyaltyConfig
	Transfer  TransferConfig

	WorkerPollInterval time.Duration
}

type LogConfig struct {
	Level  string
	Format string
	File   string
}

type TelemetryConfig struct {
	Enabled      bool
	OTLPEndpoint string
	Insecure     bool
}

type RoyaltyConfig struct {
	PlatformFeePercent decimal.Decimal
	RatePerStream      decimal.Decimal
	DisableTrigger     bool
	RelayBatchSize     int
	EventDedupTTL      time.Duration
}

type TransferConfig struct {
	Mode          string
	RPCURL        string
	PrivateKeyHex string
	TokenDecimals int32
}

// Options selects the optional files Load reads before the environment.
type Options struct {
	EnvFile    string
	ConfigFile string
}

func Load() (Config, error) {
	return LoadWithOptions(Options{})
}

// LoadWithOptions resolves configuration in this order: defaults, the YAML
// file, then environment variables. A dotenv file only fills variables that
// are not already set.
func LoadWithOptions(opts Options) (Config, error) {
	if err := loadEnvFile(opts.EnvFile); err != nil {
		return Config{}, err
	}

	cfg := defaults()
	configFile := strings.TrimSpace(opts.ConfigFile)
	if configFile == "" {
		configFile = strings.TrimSpace(os.Getenv("CONFIG_FILE"))
	}
	if configFile != "" {
		if err := applyFile(&cfg, configFile); err != nil {
			return Config{}, err
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func defaults() Config {
	return Config{
		ServiceName: "royalty-engine",
		Environment: "local",
		HTTPPort:    "8080",
		DBDriver:    DriverPostgres,
		SQLitePath:  "royalties.db",
		EventBus:    EventBusMemory,
		RedisAddr:   "localhost:6379",
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Royalty: RoyaltyConfig{
			PlatformFeePercent: decimal.RequireFromString("2.00"),
			RatePerStream:      decimal.RequireFromString("0.003"),
			RelayBatchSize:     100,
			EventDedupTTL:      7 * 24 * time.Hour,
		},
		Transfer: TransferConfig{
			Mode:          TransferModeStub,
			TokenDecimals: 18,
		},
		WorkerPollInterval: 2 * time.Second,
	}
}

func applyEnv(cfg *Config) error {
	cfg.ServiceName = envString("SERVICE_NAME", cfg.ServiceName)
	cfg.Environment = envString("ENVIRONMENT", cfg.Environment)
	cfg.HTTPPort = envString("HTTP_PORT", cfg.HTTPPort)
	cfg.DBDriver = strings.ToLower(envString("DB_DRIVER", cfg.DBDriver))
	cfg.PostgresDSN = envString("POSTGRES_DSN", cfg.PostgresDSN)
	cfg.SQLitePath = envString("SQLITE_PATH", cfg.SQLitePath)
	cfg.EventBus = strings.ToLower(envString("EVENT_BUS", cfg.EventBus))
	cfg.RedisAddr = envString("REDIS_ADDR", cfg.RedisAddr)

	cfg.Log.Level = envString("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = strings.ToLower(envString("LOG_FORMAT", cfg.Log.Format))
	cfg.Log.File = envString("LOG_FILE", cfg.Log.File)

	cfg.Telemetry.Enabled = envBool("OTEL_ENABLED", cfg.Telemetry.Enabled)
	cfg.Telemetry.OTLPEndpoint = envString("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.Telemetry.OTLPEndpoint)
	cfg.Telemetry.Insecure = envBool("OTEL_EXPORTER_OTLP_INSECURE", cfg.Telemetry.Insecure)

	var err error
	if cfg.Royalty.PlatformFeePercent, err = envDecimal("ROYALTY_PLATFORM_FEE_PERCENT", cfg.Royalty.PlatformFeePercent); err != nil {
		return err
	}
	if cfg.Royalty.RatePerStream, err = envDecimal("ROYALTY_RATE_PER_STREAM", cfg.Royalty.RatePerStream); err != nil {
		return err
	}
	cfg.Royalty.DisableTrigger = envBool("ROYALTY_DISABLE_TRIGGER", cfg.Royalty.DisableTrigger)
	if cfg.Royalty.RelayBatchSize, err = envInt("ROYALTY_RELAY_BATCH_SIZE", cfg.Royalty.RelayBatchSize); err != nil {
		return err
	}
	if cfg.Royalty.EventDedupTTL, err = envDuration("ROYALTY_EVENT_DEDUP_TTL", cfg.Royalty.EventDedupTTL); err != nil {
		return err
	}

	cfg.Transfer.Mode = strings.ToLower(envString("TRANSFER_MODE", cfg.Transfer.Mode))
	cfg.Transfer.RPCURL = envString("TRANSFER_RPC_URL", cfg.Transfer.RPCURL)
	cfg.Transfer.PrivateKeyHex = envString("TRANSFER_PRIVATE_KEY", cfg.Transfer.PrivateKeyHex)
	decimals, err := envInt("TRANSFER_TOKEN_DECIMALS", int(cfg.Transfer.TokenDecimals))
	if err != nil {
		return err
	}
	cfg.Transfer.TokenDecimals = int32(decimals)

	if cfg.WorkerPollInterval, err = envDuration("WORKER_POLL_INTERVAL", cfg.WorkerPollInterval); err != nil {
		return err
	}
	return nil
}

func (c Config) Validate() error {
	var errs []error
	hundred := decimal.NewFromInt(100)
	if c.Royalty.PlatformFeePercent.IsNegative() || c.Royalty.PlatformFeePercent.GreaterThanOrEqual(hundred) {
		errs = append(errs, fmt.Errorf("platform fee percent must be in [0,100), got %s", c.Royalty.PlatformFeePercent))
	}
	if !c.Royalty.RatePerStream.IsPositive() {
		errs = append(errs, fmt.Errorf("rate per stream must be positive, got %s", c.Royalty.RatePerStream))
	}
	switch c.DBDriver {
	case DriverPostgres, DriverSQLite:
	default:
		errs = append(errs, fmt.Errorf("unsupported db driver %q", c.DBDriver))
	}
	switch c.EventBus {
	case EventBusMemory, EventBusRedis:
	default:
		errs = append(errs, fmt.Errorf("unsupported event bus %q", c.EventBus))
	}
	switch c.Transfer.Mode {
	case TransferModeStub:
	case TransferModeEthereum:
		if strings.TrimSpace(c.Transfer.RPCURL) == "" || strings.TrimSpace(c.Transfer.PrivateKeyHex) == "" {
			errs = append(errs, errors.New("ethereum transfer mode requires TRANSFER_RPC_URL and TRANSFER_PRIVATE_KEY"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported transfer mode %q", c.Transfer.Mode))
	}
	if c.WorkerPollInterval <= 0 {
		errs = append(errs, errors.New("worker poll interval must be positive"))
	}
	return errors.Join(errs...)
}

func loadEnvFile(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load .env: %w", err)
		}
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

func envString(name string, fallback string) string {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	return raw
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return fallback
	}
}

func envInt(name string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return value, nil
}

func envDecimal(name string, fallback decimal.Decimal) (decimal.Decimal, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback, nil
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%s: %w", name, err)
	}
	return value, nil
}

func envDuration(name string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback, nil
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return value, nil
}
