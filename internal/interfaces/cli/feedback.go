package cli

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// newFeedbackCmd creates the feedback command.  It records an investigator's
// fraud/legitimate label for a previously analyzed claim.
func newFeedbackCmd() *cobra.Command {
	var fraud bool
	var legitimate bool

	cmd := &cobra.Command{
		Use:   "feedback <claim-id>",
		Short: "Record an investigator label for a claim",
		Long:  "Marks a previously analyzed claim as confirmed fraud (--fraud) or\nconfirmed legitimate (--legitimate).",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}

			if fraud == legitimate {
				return fmt.Errorf("exactly one of --fraud or --legitimate is required")
			}
			if _, err := uuid.Parse(args[0]); err != nil {
				return fmt.Errorf("invalid claim id %q: %w", args[0], err)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), cliCtx.Timeout)
			defer cancel()

			if err := cliCtx.Client.SubmitFeedback(ctx, args[0], fraud); err != nil {
				return fmt.Errorf("feedback failed: %w", err)
			}

			label := "legitimate"
			if fraud {
				label = "fraud"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded claim %s as %s\n", args[0], label)
			return nil
		},
	}

	cmd.Flags().BoolVar(&fraud, "fraud", false, "mark the claim as confirmed fraud")
	cmd.Flags().BoolVar(&legitimate, "legitimate", false, "mark the claim as confirmed legitimate")

	return cmd
}
