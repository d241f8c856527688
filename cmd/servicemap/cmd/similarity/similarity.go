// Package similarity implements the similarity command.
package similarity

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentstation/servicemap/cmd/application"
	"github.com/agentstation/servicemap/internal/cmd/output"
	"github.com/agentstation/servicemap/pkg/dedup"
	"github.com/agentstation/servicemap/pkg/errors"
	"github.com/agentstation/servicemap/pkg/similarity"
)

// NewCommand creates the similarity command. It scores names locally and
// needs no catalog connection.
func NewCommand(app application.Application) *cobra.Command {
	var threshold float64

	cmd := &cobra.Command{
		Use:     "similarity <name> <name>",
		GroupID: "core",
		Short:   "Score how alike two provider names are",
		Long: `Similarity runs the duplicate detector on two provider names and reports
the score and whether it counts as a confirmed duplicate, a possible one or a
distinct provider.`,
		Example: `  servicemap similarity "Blue Peak Plumbing Co." "Blue Peak Plumbing LLC"
  servicemap similarity "ACME Electric" "Acme Electrical" --threshold 0.9`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, b := strings.TrimSpace(args[0]), strings.TrimSpace(args[1])
			if a == "" || b == "" {
				return errors.NewValidationError("name", "", "both names are required")
			}
			if threshold <= 0 || threshold > 1 {
				return errors.NewValidationError("threshold", threshold, "must be in (0, 1]")
			}

			score := similarity.Score(a, b)
			band := similarity.Classify(score, threshold)

			app.Logger().Debug().
				Float64("score", score).
				Str("band", band.String()).
				Msg("Names compared")

			format := output.DetectFormat(app.OutputFormat())
			return output.NewPrinter(cmd.OutOrStdout(), format, app.NoColor()).Comparison(output.Comparison{
				A:         a,
				B:         b,
				Score:     score,
				Band:      band,
				Duplicate: band == similarity.Confirmed,
				Threshold: threshold,
			})
		},
	}

	cmd.Flags().Float64Var(&threshold, "threshold", dedup.DefaultThreshold, "duplicate similarity threshold")

	return cmd
}
