package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration to support YAML unmarshalling.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value == nil {
		return nil
	}
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("duration must be string")
	}
	raw := strings.TrimSpace(value.Value)
	if raw == "" {
		d.Duration = 0
		return nil
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", raw, err)
	}
	d.Duration = parsed
	return nil
}

// fileConfig is the YAML overlay. Unset keys keep the defaults.
type fileConfig struct {
	ServiceName  string       `yaml:"service_name"`
	HTTPPort     string       `yaml:"http_port"`
	PollInterval Duration     `yaml:"worker_poll_interval"`
	Royalty      fileRoyalty  `yaml:"royalty"`
	Transfer     fileTransfer `yaml:"transfer"`
	Log          fileLog      `yaml:"log"`
	EventBus     fileEventBus `yaml:"event_bus"`
}

type fileRoyalty struct {
	PlatformFeePercent string   `yaml:"platform_fee_percent"`
	RatePerStream      string   `yaml:"rate_per_stream"`
	DisableTrigger     *bool    `yaml:"disable_trigger"`
	RelayBatchSize     int      `yaml:"relay_batch_size"`
	EventDedupTTL      Duration `yaml:"event_dedup_ttl"`
}

type fileTransfer struct {
	Mode          string `yaml:"mode"`
	RPCURL        string `yaml:"rpc_url"`
	TokenDecimals *int32 `yaml:"token_decimals"`
}

type fileLog struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

type fileEventBus struct {
	Kind      string `yaml:"kind"`
	RedisAddr string `yaml:"redis_addr"`
}

func applyFile(cfg *Config, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var overlay fileConfig
	if err := yaml.NewDecoder(file).Decode(&overlay); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	return overlay.apply(cfg)
}

func (f fileConfig) apply(cfg *Config) error {
	setString(&cfg.ServiceName, f.ServiceName)
	setString(&cfg.HTTPPort, f.HTTPPort)
	if f.PollInterval.Duration > 0 {
		cfg.WorkerPollInterval = f.PollInterval.Duration
	}

	if err := setDecimal(&cfg.Royalty.PlatformFeePercent, f.Royalty.PlatformFeePercent, "royalty.platform_fee_percent"); err != nil {
		return err
	}
	if err := setDecimal(&cfg.Royalty.RatePerStream, f.Royalty.RatePerStream, "royalty.rate_per_stream"); err != nil {
		return err
	}
	if f.Royalty.DisableTrigger != nil {
		cfg.Royalty.DisableTrigger = *f.Royalty.DisableTrigger
	}
	if f.Royalty.RelayBatchSize > 0 {
		cfg.Royalty.RelayBatchSize = f.Royalty.RelayBatchSize
	}
	if f.Royalty.EventDedupTTL.Duration > 0 {
		cfg.Royalty.EventDedupTTL = f.Royalty.EventDedupTTL.Duration
	}

	setString(&cfg.Transfer.Mode, strings.ToLower(f.Transfer.Mode))
	setString(&cfg.Transfer.RPCURL, f.Transfer.RPCURL)
	if f.Transfer.TokenDecimals != nil {
		cfg.Transfer.TokenDecimals = *f.Transfer.TokenDecimals
	}

	setString(&cfg.Log.Level, f.Log.Level)
	setString(&cfg.Log.Format, strings.ToLower(f.Log.Format))
	setString(&cfg.Log.File, f.Log.File)

	setString(&cfg.EventBus, strings.ToLower(f.EventBus.Kind))
	setString(&cfg.RedisAddr, f.EventBus.RedisAddr)
	return nil
}

func setString(target *string, value string) {
	if value = strings.TrimSpace(value); value != "" {
		*target = value
	}
}

func setDecimal(target *decimal.Decimal, raw string, key string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*target = value
	return nil
}
