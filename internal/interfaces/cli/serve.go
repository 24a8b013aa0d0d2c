package cli

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fraudlens/fraudlens/internal/bootstrap"
	"github.com/fraudlens/fraudlens/internal/config"
	"github.com/fraudlens/fraudlens/internal/infrastructure/monitoring/logging"
)

// newServeCmd creates the serve command.  It boots the API server in-process
// with the same assembly cmd/apiserver uses.
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the fraud-analysis API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}

			var cfg *config.Config
			if cliCtx.ConfigPath != "" {
				cfg, err = config.Load(cliCtx.ConfigPath)
			} else {
				cfg, err = config.LoadFromEnv()
			}
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}

			logCfg := logging.LogConfig{Level: cfg.Log.Level, Format: cfg.Log.Format}
			if cfg.Log.Output != "" {
				logCfg.OutputPaths = []string{cfg.Log.Output}
			}
			logger, err := logging.NewLogger(logCfg)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}

			app, err := bootstrap.NewApp(cfg, logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return app.Run(ctx)
		},
	}
}
