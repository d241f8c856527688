// Package analyze implements the analyze command, an offline duplicate
// audit over both catalogs.
package analyze

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/agentstation/servicemap/cmd/application"
	"github.com/agentstation/servicemap/internal/cmd/alerts"
	"github.com/agentstation/servicemap/internal/cmd/output"
	"github.com/agentstation/servicemap/pkg/analysis"
	"github.com/agentstation/servicemap/pkg/dedup"
	"github.com/agentstation/servicemap/pkg/errors"
	"github.com/agentstation/servicemap/pkg/providers"
)

// Flags holds the analyze command flags.
type Flags struct {
	CSV            string
	XLSX           string
	CrossThreshold float64
	SameThreshold  float64
}

// NewCommand creates the analyze command.
func NewCommand(app application.Application) *cobra.Command {
	flags := &Flags{}

	cmd := &cobra.Command{
		Use:     "analyze",
		GroupID: "management",
		Short:   "Audit both catalogs for duplicate providers",
		Long: `Analyze lists every record of both catalogs, including unavailable
workers, and reports providers that appear more than once: across the two
catalogs or inside one of them. The report can also be exported as CSV or
XLSX for review.`,
		Example: `  servicemap analyze
  servicemap analyze --csv duplicates.csv --xlsx duplicates.xlsx
  servicemap analyze -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, app, flags)
		},
	}

	cmd.Flags().StringVar(&flags.CSV, "csv", "", "write the duplicate list as CSV to this path")
	cmd.Flags().StringVar(&flags.XLSX, "xlsx", "", "write the report as an XLSX workbook to this path")
	cmd.Flags().Float64Var(&flags.CrossThreshold, "cross-threshold", dedup.DefaultThreshold, "similarity threshold across catalogs")
	cmd.Flags().Float64Var(&flags.SameThreshold, "same-threshold", dedup.SameOriginThreshold, "similarity threshold inside one catalog")

	return cmd
}

func run(cmd *cobra.Command, app application.Application, flags *Flags) error {
	ctx := cmd.Context()
	logger := app.Logger()

	primary, secondary, err := app.Catalogs(ctx)
	if err != nil {
		return err
	}

	a, b, err := listBoth(ctx, primary, secondary)
	if err != nil {
		return err
	}
	logger.Info().
		Int("primary", len(a)).
		Int("secondary", len(b)).
		Msg("Catalogs loaded")

	report, err := analysis.Analyze(a, b,
		analysis.WithCrossThreshold(flags.CrossThreshold),
		analysis.WithSameOriginThreshold(flags.SameThreshold),
	)
	if err != nil {
		return err
	}

	notes := alerts.NewWriter(cmd.ErrOrStderr(), app.NoColor())
	if flags.CSV != "" {
		if err := writeFile(flags.CSV, report.WriteCSV); err != nil {
			return err
		}
		notes.Write(alerts.NewSuccess("Wrote " + flags.CSV))
	}
	if flags.XLSX != "" {
		if err := writeFile(flags.XLSX, report.WriteXLSX); err != nil {
			return err
		}
		notes.Write(alerts.NewSuccess("Wrote " + flags.XLSX))
	}
	if report.Stats.Health != analysis.Healthy {
		notes.Write(alerts.NewWarning("Catalog health is " + string(report.Stats.Health)).
			WithDetails("Review the active duplicates listed below."))
	}

	format := output.DetectFormat(app.OutputFormat())
	return output.NewPrinter(cmd.OutOrStdout(), format, app.NoColor()).Report(report)
}

// listBoth lists both catalogs concurrently. Unlike a search, an audit
// fails when either catalog cannot be read.
func listBoth(ctx context.Context, primary, secondary application.Lister) ([]providers.Provider, []providers.Provider, error) {
	var a, b []providers.Provider
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		a, err = primary.All(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		b, err = secondary.All(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return a, b, nil
}

func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.WrapIO("create", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.WrapIO("close", path, cerr)
		}
	}()
	if err := write(f); err != nil {
		return errors.WrapIO("write", path, err)
	}
	return nil
}
