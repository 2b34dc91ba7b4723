package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/bqscope/internal/cli/output"
	"github.com/leapstack-labs/bqscope/internal/extract"
	"github.com/leapstack-labs/bqscope/internal/index"
)

// ImpactOptions holds options for the impact command.
type ImpactOptions struct {
	FromReport string
}

// ImpactOutput is the JSON shape of an impact lookup.
type ImpactOutput struct {
	Table   string   `json:"table"`
	Found   bool     `json:"found"`
	Queries []string `json:"queries,omitempty"`
	Code    []string `json:"code,omitempty"`
}

// NewImpactCommand creates the impact command.
func NewImpactCommand() *cobra.Command {
	opts := &ImpactOptions{}

	cmd := &cobra.Command{
		Use:   "impact <table>",
		Short: "Show which queries and projects reference a table",
		Long: `Look up a fully qualified table name in the usage index and list the
scheduled queries and codebase projects that reference it.

Without --from-report a fresh scan of both sources runs first.`,
		Example: `  # Scan and look up a table
  bqscope impact myproject.analytics.events

  # Look up in a previously written report
  bqscope impact myproject.analytics.events --from-report result.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImpact(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.FromReport, "from-report", "", "Read an existing report instead of scanning")

	return cmd
}

func runImpact(cmd *cobra.Command, opts *ImpactOptions, table string) error {
	cmdCtx := NewCommandContext(cmd)
	r := cmdCtx.Renderer

	if !extract.ValidName(table) {
		r.Warning(fmt.Sprintf("%q does not look like a project.dataset.table name", table))
	}

	report, err := loadReport(cmd.Context(), cmdCtx, opts.FromReport)
	if err != nil {
		return err
	}

	entry, found := report.Lookup(table)

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(ImpactOutput{
			Table:   table,
			Found:   found,
			Queries: entry.Queries,
			Code:    entry.Code,
		})
	case output.ModeMarkdown:
		renderImpactMarkdown(r, table, entry, found)
	default:
		renderImpactText(r, table, entry, found)
	}
	return nil
}

func renderImpactText(r *output.Renderer, table string, entry index.Entry, found bool) {
	if !found {
		r.Muted(fmt.Sprintf("No usages found for %s", table))
		return
	}

	r.Header(2, table)
	if len(entry.Queries) > 0 {
		r.Println("Scheduled queries:")
		for _, q := range entry.Queries {
			r.Println("  - " + q)
		}
	}
	if len(entry.Code) > 0 {
		r.Println("Projects:")
		for _, p := range entry.Code {
			r.Println("  - " + p)
		}
	}
}

func renderImpactMarkdown(r *output.Renderer, table string, entry index.Entry, found bool) {
	r.Println(output.FormatHeader(1, "Impact: "+table))
	if !found {
		r.Println("No usages found.")
		return
	}
	if len(entry.Queries) > 0 {
		r.Println(output.FormatHeader(2, "Scheduled Queries"))
		for _, q := range entry.Queries {
			r.Println("- " + q)
		}
		r.Println("")
	}
	if len(entry.Code) > 0 {
		r.Println(output.FormatHeader(2, "Projects"))
		for _, p := range entry.Code {
			r.Println("- " + p)
		}
	}
}
