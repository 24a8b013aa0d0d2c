// Package cli implements the fraudlens command-line interface.  The analyze,
// stats, and feedback commands talk to a running API server through
// pkg/client; serve boots the API server in-process.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/fraudlens/fraudlens/internal/infrastructure/monitoring/logging"
	"github.com/fraudlens/fraudlens/pkg/client"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// defaultServerAddr is used when neither --server nor FRAUDLENS_SERVER is set.
const defaultServerAddr = "http://localhost:8080"

// cliContextKey is the context key under which CLIContext travels.
type cliContextKey struct{}

// RootOptions holds the global CLI flags.
type RootOptions struct {
	ConfigPath   string
	ServerAddr   string
	APIKey       string
	OutputFormat string
	LogLevel     string
	Timeout      time.Duration
}

// CLIContext carries initialized dependencies through the command tree.
type CLIContext struct {
	Logger       logging.Logger
	Client       *client.Client
	OutputFormat string
	Timeout      time.Duration
	ConfigPath   string
}

// NewRootCommand creates the root cobra command with all global flags and
// subcommands registered.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:     "fraudlens",
		Short:   "FraudLens CLI for insurance-claim fraud analysis",
		Long:    "FraudLens analyzes insurance-claim documents for fraud signals:\nentity extraction, cost-outlier detection, and anomaly-based risk scoring.",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return persistentPreRun(cmd, opts)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.ConfigPath, "config", "c", "", "config file path (serve only)")
	pf.StringVar(&opts.ServerAddr, "server", "", "API server address (default: "+defaultServerAddr+")")
	pf.StringVar(&opts.APIKey, "api-key", "", "API key sent as X-API-Key (default: $FRAUDLENS_API_KEY)")
	pf.StringVarP(&opts.OutputFormat, "output", "o", "text", "output format (text, json)")
	pf.StringVar(&opts.LogLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	pf.DurationVar(&opts.Timeout, "timeout", 30*time.Second, "per-request timeout")

	cmd.AddCommand(
		newAnalyzeCmd(),
		newStatsCmd(),
		newFeedbackCmd(),
		newServeCmd(),
	)

	return cmd
}

// persistentPreRun builds the CLIContext and stores it on the command context.
func persistentPreRun(cmd *cobra.Command, opts *RootOptions) error {
	logger, err := initLogger(opts)
	if err != nil {
		return fmt.Errorf("logger initialization failed: %w", err)
	}

	apiClient, err := initClient(opts)
	if err != nil {
		return fmt.Errorf("client initialization failed: %w", err)
	}

	cliCtx := &CLIContext{
		Logger:       logger,
		Client:       apiClient,
		OutputFormat: opts.OutputFormat,
		Timeout:      opts.Timeout,
		ConfigPath:   opts.ConfigPath,
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	cmd.SetContext(context.WithValue(parent, cliContextKey{}, cliCtx))

	return nil
}

// initLogger creates a console logger on stderr so command output on stdout
// stays machine-readable.
func initLogger(opts *RootOptions) (logging.Logger, error) {
	return logging.NewLogger(logging.LogConfig{
		Level:            opts.LogLevel,
		Format:           "console",
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	})
}

// initClient builds the API client from flags and environment.
func initClient(opts *RootOptions) (*client.Client, error) {
	addr := opts.ServerAddr
	if addr == "" {
		addr = os.Getenv("FRAUDLENS_SERVER")
	}
	if addr == "" {
		addr = defaultServerAddr
	}

	key := opts.APIKey
	if key == "" {
		key = os.Getenv("FRAUDLENS_API_KEY")
	}

	return client.NewClient(addr, key, client.WithTimeout(opts.Timeout))
}

// GetCLIContext extracts the CLIContext from a cobra command's context.
func GetCLIContext(cmd *cobra.Command) (*CLIContext, error) {
	ctx := cmd.Context()
	if ctx == nil {
		return nil, fmt.Errorf("cli: command context is nil")
	}
	cliCtx, ok := ctx.Value(cliContextKey{}).(*CLIContext)
	if !ok || cliCtx == nil {
		return nil, fmt.Errorf("cli: context not initialized; was PersistentPreRunE skipped?")
	}
	return cliCtx, nil
}

// Execute is the entry point used by cmd/fraudlens.
func Execute() error {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(rootCmd.ErrOrStderr(), "Error: %s\n", err.Error())
		return err
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Output helpers
// ─────────────────────────────────────────────────────────────────────────────

// printResult renders data in the format chosen by --output.  Text rendering
// delegates to render, which each command supplies for its own payload.
func printResult(cmd *cobra.Command, cliCtx *CLIContext, data interface{}, render func() string) error {
	if strings.EqualFold(cliCtx.OutputFormat, "json") {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	}
	fmt.Fprint(cmd.OutOrStdout(), render())
	return nil
}

// formatTable renders headers and rows as an aligned ASCII table.
func formatTable(headers []string, rows [][]string) string {
	if len(headers) == 0 {
		return ""
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i := 0; i < len(row) && i < len(widths); i++ {
			if len(row[i]) > widths[i] {
				widths[i] = len(row[i])
			}
		}
	}

	var sb strings.Builder
	for i, h := range headers {
		if i > 0 {
			sb.WriteString("  ")
		}
		sb.WriteString(padRight(h, widths[i]))
	}
	sb.WriteString("\n")
	for i, w := range widths {
		if i > 0 {
			sb.WriteString("  ")
		}
		sb.WriteString(strings.Repeat("-", w))
	}
	sb.WriteString("\n")
	for _, row := range rows {
		for i := range headers {
			if i > 0 {
				sb.WriteString("  ")
			}
			val := ""
			if i < len(row) {
				val = row[i]
			}
			sb.WriteString(padRight(val, widths[i]))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
