// Package version implements the version command.
package version

import (
	"runtime"

	"github.com/spf13/cobra"

	"github.com/agentstation/servicemap/cmd/application"
	"github.com/agentstation/servicemap/internal/cmd/output"
	"github.com/agentstation/servicemap/internal/cmd/table"
)

// Info is the build information the command prints.
type Info struct {
	Version   string `json:"version" yaml:"version"`
	Commit    string `json:"commit" yaml:"commit"`
	Date      string `json:"built" yaml:"built"`
	BuiltBy   string `json:"built_by" yaml:"built_by"`
	GoVersion string `json:"go_version" yaml:"go_version"`
	Platform  string `json:"platform" yaml:"platform"`
}

// TableData lists the build information as properties. The wide layout adds
// the builder and toolchain.
func (i Info) TableData(wide bool) table.Data {
	rows := [][]string{
		{"Version", i.Version},
		{"Commit", i.Commit},
		{"Built", i.Date},
	}
	if wide {
		rows = append(rows,
			[]string{"Built by", i.BuiltBy},
			[]string{"Go version", i.GoVersion},
			[]string{"Platform", i.Platform},
		)
	}
	return table.Data{Headers: []string{"Property", "Value"}, Rows: rows}
}

// NewCommand creates the version command.
func NewCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := Info{
				Version:   app.Version(),
				Commit:    app.Commit(),
				Date:      app.Date(),
				BuiltBy:   app.BuiltBy(),
				GoVersion: runtime.Version(),
				Platform:  runtime.GOOS + "/" + runtime.GOARCH,
			}
			format := output.Format(app.OutputFormat())
			return output.NewFormatter(format).Format(cmd.OutOrStdout(), info)
		},
	}
}
