package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"

	"royalties/internal/app/bootstrap"
	"royalties/internal/platform/config"
)

// API process entrypoint.
// Data flow:
// 1) Load config.
// 2) Build app wiring (ports + adapters + use cases).
// 3) Start HTTP server, plus relay and consumers on the in-process bus.
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	envFileFlag := flag.String("env-file", "", "dotenv file loaded before the environment")
	configFileFlag := flag.String("config", "", "YAML config file (or set CONFIG_FILE env var)")
	migrateOnlyFlag := flag.Bool("migrate-only", false, "apply database migrations and exit")
	flag.Parse()

	opts := config.Options{EnvFile: *envFileFlag, ConfigFile: *configFileFlag}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *migrateOnlyFlag {
		return bootstrap.Migrate(ctx, opts)
	}

	app, err := bootstrap.BuildAPI(ctx, opts)
	if err != nil {
		return fmt.Errorf("bootstrap api: %w", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "api shutdown close failed: %v\n", err)
		}
	}()
	return app.Run(ctx)
}
