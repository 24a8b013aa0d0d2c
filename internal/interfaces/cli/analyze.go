package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fraudlens/fraudlens/pkg/client"
)

// newAnalyzeCmd creates the analyze command.  It uploads one claim document
// to the API server and prints the verdict.
func newAnalyzeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <file>",
		Short: "Analyze a claim document for fraud signals",
		Long:  "Uploads a claim document (txt, pdf, or image) to the API server and prints\nthe extracted entities, computed features, and risk verdict.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), cliCtx.Timeout)
			defer cancel()

			result, err := cliCtx.Client.AnalyzeFile(ctx, args[0])
			if err != nil {
				return fmt.Errorf("analyze failed: %w", err)
			}

			return printResult(cmd, cliCtx, result, func() string {
				return formatVerdict(result)
			})
		},
	}
}

// formatVerdict renders an analysis verdict for terminal output.
func formatVerdict(r *client.AnalyzeResult) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Claim ID:    %s\n", r.ClaimID)
	fmt.Fprintf(&sb, "Status:      %s\n", r.Status)

	fmt.Fprintf(&sb, "Doctor:      %s\n", orDash(r.Entities.DoctorName))
	fmt.Fprintf(&sb, "Diagnosis:   %s\n", orDash(r.Entities.Diagnosis))
	if r.Entities.ClaimCost != nil {
		fmt.Fprintf(&sb, "Cost:        %.2f\n", *r.Entities.ClaimCost)
	} else {
		sb.WriteString("Cost:        -\n")
	}

	if r.RiskScore != nil {
		fmt.Fprintf(&sb, "Risk score:  %.4f\n", *r.RiskScore)
	}
	if r.Prediction != nil {
		fmt.Fprintf(&sb, "Prediction:  %s\n", *r.Prediction)
	}
	if len(r.Issues) > 0 {
		fmt.Fprintf(&sb, "Issues:      %s\n", strings.Join(r.Issues, "; "))
	}
	if r.DocumentKey != "" {
		fmt.Fprintf(&sb, "Archived as: %s\n", r.DocumentKey)
	}

	return sb.String()
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}
