package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"floorsight/dashboard/internal/app"
	"floorsight/dashboard/internal/config"
)

func main() {
	// First pass extracts --config so file values become the defaults the
	// remaining flags override.
	boot := pflag.NewFlagSet("dashboard", pflag.ContinueOnError)
	boot.ParseErrorsWhitelist.UnknownFlags = true
	boot.Usage = func() {}
	configPath := boot.String("config", "", "path to YAML configuration file")
	_ = boot.Parse(os.Args[1:])

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("%v", err)
		}
		cfg = loaded
	}

	fs := pflag.NewFlagSet("dashboard", pflag.ExitOnError)
	fs.String("config", *configPath, "path to YAML configuration file")
	cfg.BindFlags(fs)
	if err := fs.Parse(os.Args[1:]); err != nil {
		log.Fatalf("%v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, cfg); err != nil {
		log.Fatalf("%v", err)
	}
}
