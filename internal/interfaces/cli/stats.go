package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fraudlens/fraudlens/pkg/client"
)

// newStatsCmd creates the stats command.  It fetches the aggregate claim
// report from the API server.
func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show aggregate fraud statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), cliCtx.Timeout)
			defer cancel()

			stats, err := cliCtx.Client.Stats(ctx)
			if err != nil {
				return fmt.Errorf("stats failed: %w", err)
			}

			return printResult(cmd, cliCtx, stats, func() string {
				return formatStats(stats)
			})
		},
	}
}

// formatStats renders the aggregate report with top-doctor and top-diagnosis
// tables.
func formatStats(s *client.Stats) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Total claims:      %d\n", s.TotalClaims)
	fmt.Fprintf(&sb, "High-risk claims:  %d\n", s.HighRiskClaims)
	fmt.Fprintf(&sb, "Low-risk claims:   %d\n", s.LowRiskClaims)
	fmt.Fprintf(&sb, "Average risk:      %.4f\n", s.AverageRisk)

	if len(s.TopDoctors) > 0 {
		sb.WriteString("\nTop doctors:\n")
		sb.WriteString(formatTable([]string{"DOCTOR", "CLAIMS"}, nameCountRows(s.TopDoctors)))
	}
	if len(s.TopDiagnoses) > 0 {
		sb.WriteString("\nTop diagnoses:\n")
		sb.WriteString(formatTable([]string{"DIAGNOSIS", "CLAIMS"}, nameCountRows(s.TopDiagnoses)))
	}

	return sb.String()
}

func nameCountRows(items []client.NameCount) [][]string {
	rows := make([][]string, 0, len(items))
	for _, it := range items {
		rows = append(rows, []string{it.Name, strconv.FormatInt(it.Count, 10)})
	}
	return rows
}
