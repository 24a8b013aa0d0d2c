// Command apiserver runs the fraud-analysis HTTP API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fraudlens/fraudlens/internal/bootstrap"
	"github.com/fraudlens/fraudlens/internal/config"
	"github.com/fraudlens/fraudlens/internal/infrastructure/monitoring/logging"
)

func main() {
	configPath := flag.String("config", "", "path to YAML configuration file (default: environment only)")
	flag.Parse()

	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.Load(*configPath)
	} else {
		cfg, err = config.LoadFromEnv()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logCfg := logging.LogConfig{Level: cfg.Log.Level, Format: cfg.Log.Format}
	if cfg.Log.Output != "" {
		logCfg.OutputPaths = []string{cfg.Log.Output}
	}
	logger, err := logging.NewLogger(logCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		os.Exit(1)
	}
	logger = logger.Named("apiserver")

	logger.Info("starting fraud-analysis API server",
		logging.Int("port", cfg.Server.Port),
		logging.String("mode", cfg.Server.Mode),
	)

	app, err := bootstrap.NewApp(cfg, logger)
	if err != nil {
		logger.Fatal("startup failed", logging.Err(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx); err != nil {
		logger.Fatal("server terminated", logging.Err(err))
	}
	logger.Info("server stopped")
}
