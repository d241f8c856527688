// Package search implements the search command.
package search

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentstation/servicemap"
	"github.com/agentstation/servicemap/cmd/application"
	"github.com/agentstation/servicemap/internal/cmd/output"
	"github.com/agentstation/servicemap/pkg/dedup"
	"github.com/agentstation/servicemap/pkg/errors"
	"github.com/agentstation/servicemap/pkg/federation"
	"github.com/agentstation/servicemap/pkg/query"
)

// Flags holds the search command flags.
type Flags struct {
	Limit     int
	Service   string
	Region    string
	Prefer    string
	Urgency   string
	TieBreak  string
	Threshold float64
}

// hasIntent reports whether any flag describes the request directly.
func (f *Flags) hasIntent() bool {
	return f.Service != "" || f.Region != "" || f.Prefer != "" || f.Urgency != ""
}

func (f *Flags) intent(text string) query.Intent {
	return query.Intent{
		ServiceType:             f.Service,
		Urgency:                 f.Urgency,
		Description:             text,
		LocationPreference:      f.Region,
		RecommendedProviderType: f.Prefer,
	}
}

func (f *Flags) clientOptions() ([]servicemap.Option, error) {
	var opts []servicemap.Option
	if f.TieBreak != "" {
		tb, err := dedup.ParseTieBreak(f.TieBreak)
		if err != nil {
			return nil, err
		}
		opts = append(opts, servicemap.WithTieBreak(tb))
	}
	if f.Threshold != 0 {
		opts = append(opts, servicemap.WithThreshold(f.Threshold))
	}
	return opts, nil
}

// NewCommand creates the search command.
func NewCommand(app application.Application) *cobra.Command {
	flags := &Flags{}

	cmd := &cobra.Command{
		Use:     "search <request...>",
		GroupID: "core",
		Short:   "Search both catalogs for providers",
		Long: `Search analyzes a free-text service request, queries the company and
worker catalogs concurrently, merges duplicate providers and prints a ranked
list with a summary of how each catalog contributed.

Passing --service, --region, --prefer or --urgency describes the request
directly and skips intent analysis.`,
		Example: `  servicemap search "leaking pipe in chicago, urgent"
  servicemap search plumber --region midwest --prefer company
  servicemap search "rewire kitchen" --tie-break origin_first:catalog_b -o json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, app, flags, strings.Join(args, " "))
		},
	}

	cmd.Flags().IntVarP(&flags.Limit, "limit", "n", 0, "maximum providers to list (default 10)")
	cmd.Flags().StringVar(&flags.Service, "service", "", "service type, e.g. plumbing")
	cmd.Flags().StringVar(&flags.Region, "region", "", "preferred region")
	cmd.Flags().StringVar(&flags.Prefer, "prefer", "", "provider type: company, individual or both")
	cmd.Flags().StringVar(&flags.Urgency, "urgency", "", "urgency: low, medium, high or emergency")
	cmd.Flags().StringVar(&flags.TieBreak, "tie-break", "", "duplicate policy: highest_rated, most_volume, origin_first:<origin>")
	cmd.Flags().Float64Var(&flags.Threshold, "threshold", 0, "duplicate similarity threshold (0-1)")

	return cmd
}

func run(cmd *cobra.Command, app application.Application, flags *Flags, text string) error {
	ctx := cmd.Context()
	logger := app.Logger()

	if strings.TrimSpace(text) == "" {
		return errors.NewValidationError("request", text, "must not be empty")
	}
	if flags.Limit < 0 {
		return errors.NewValidationError("limit", flags.Limit, "must not be negative")
	}

	opts, err := flags.clientOptions()
	if err != nil {
		return err
	}
	client, err := app.Client(ctx, opts...)
	if err != nil {
		return err
	}

	var result *federation.Result
	if flags.hasIntent() {
		result, err = client.Search(ctx, text, flags.intent(text), flags.Limit)
	} else {
		result, err = client.SearchText(ctx, text, flags.Limit)
	}
	if err != nil {
		return err
	}

	logger.Debug().
		Str("request_id", result.RequestID).
		Int("ranked", len(result.Ranked)).
		Int("duplicates_removed", result.Summary.DuplicatesRemoved).
		Msg("Search completed")

	format := output.DetectFormat(app.OutputFormat())
	return output.NewPrinter(cmd.OutOrStdout(), format, app.NoColor()).Result(result)
}
