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

// Worker process entrypoint.
// Data flow:
// 1) Load config.
// 2) Build app wiring.
// 3) Subscribe consumers and relay the outbox until signalled.
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	envFileFlag := flag.String("env-file", "", "dotenv file loaded before the environment")
	configFileFlag := flag.String("config", "", "YAML config file (or set CONFIG_FILE env var)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.BuildWorker(ctx, config.Options{EnvFile: *envFileFlag, ConfigFile: *configFileFlag})
	if err != nil {
		return fmt.Errorf("bootstrap worker: %w", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "worker shutdown close failed: %v\n", err)
		}
	}()
	return app.Run(ctx)
}
