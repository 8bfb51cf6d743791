package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samvad-hq/samvad-feed-connector/internal/app"
	"github.com/samvad-hq/samvad-feed-connector/internal/config"
	"github.com/samvad-hq/samvad-feed-connector/internal/logger"
)

func main() {
	testProvider := flag.String("test", "", "probe the given provider id and exit")
	flag.Parse()

	if err := run(*testProvider); err != nil {
		fmt.Fprintf(os.Stderr, "connector start failed: %v\n", err)
		os.Exit(1)
	}
}

func run(testProvider string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.Init(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	logger.InfoObj("connector starting", "config", cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	connector, err := app.NewConnector(ctx, cfg, log)
	if err != nil {
		logger.ErrorObj("failed to initialize connector", "error", err)
		return err
	}

	if testProvider != "" {
		if err := connector.TestProvider(ctx, testProvider); err != nil {
			return fmt.Errorf("provider %s probe: %w", testProvider, err)
		}
		logger.InfoObj("provider probe succeeded", "provider_id", testProvider)
		return nil
	}

	if err := connector.Run(ctx); err != nil {
		return fmt.Errorf("connector run: %w", err)
	}

	return nil
}
