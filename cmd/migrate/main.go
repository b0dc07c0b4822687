package main

import (
	"context"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"royalties/internal/app/bootstrap"
	"royalties/internal/platform/config"
)

func main() {
	envFileFlag := flag.String("env-file", "", "dotenv file loaded before the environment")
	configFileFlag := flag.String("config", "", "YAML config file (or set CONFIG_FILE env var)")
	flag.Parse()

	err := bootstrap.Migrate(context.Background(), config.Options{EnvFile: *envFileFlag, ConfigFile: *configFileFlag})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
