package commands

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/bqscope/internal/cli/output"
	"github.com/leapstack-labs/bqscope/internal/index"
)

// TablesOptions holds options for the tables command.
type TablesOptions struct {
	FromReport string
}

// TablesOutput is the JSON shape of a tables listing.
type TablesOutput struct {
	Tables []TableUsage `json:"tables"`
	Count  int          `json:"count"`
}

// TableUsage summarizes one table's referencers.
type TableUsage struct {
	Table   string `json:"table"`
	Queries int    `json:"queries"`
	Code    int    `json:"code"`
}

// NewTablesCommand creates the tables command.
func NewTablesCommand() *cobra.Command {
	opts := &TablesOptions{}

	cmd := &cobra.Command{
		Use:   "tables",
		Short: "List every table in the usage index",
		Long: `List all tables known to the usage index with the number of scheduled
queries and codebase projects referencing each.

Without --from-report a fresh scan of both sources runs first.`,
		Example: `  # Scan and list tables
  bqscope tables

  # List from a previously written report
  bqscope tables --from-report result.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTables(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.FromReport, "from-report", "", "Read an existing report instead of scanning")

	return cmd
}

func runTables(cmd *cobra.Command, opts *TablesOptions) error {
	cmdCtx := NewCommandContext(cmd)
	r := cmdCtx.Renderer

	report, err := loadReport(cmd.Context(), cmdCtx, opts.FromReport)
	if err != nil {
		return err
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(buildTablesOutput(report))
	case output.ModeMarkdown:
		renderTablesMarkdown(r, report)
	default:
		renderTablesText(r, report)
	}
	return nil
}

func buildTablesOutput(report *index.Report) TablesOutput {
	out := TablesOutput{
		Tables: make([]TableUsage, 0, len(report.Entries)),
		Count:  len(report.Entries),
	}
	for _, entry := range report.Entries {
		out.Tables = append(out.Tables, TableUsage{
			Table:   entry.Table,
			Queries: len(entry.Queries),
			Code:    len(entry.Code),
		})
	}
	return out
}

func renderTablesText(r *output.Renderer, report *index.Report) {
	if len(report.Entries) == 0 {
		r.Muted("No tables in the index.")
		return
	}

	rows := make([]table.Row, 0, len(report.Entries))
	for _, entry := range report.Entries {
		rows = append(rows, table.Row{entry.Table, len(entry.Queries), len(entry.Code)})
	}
	r.Table(table.Row{"Table", "Queries", "Code"}, rows)
	r.Muted(fmt.Sprintf("%d tables", len(report.Entries)))
}

func renderTablesMarkdown(r *output.Renderer, report *index.Report) {
	r.Println(output.FormatHeader(1, "Tables"))
	if len(report.Entries) == 0 {
		r.Println("No tables in the index.")
		return
	}

	r.Println("| Table | Queries | Code |")
	r.Println("|-------|---------|------|")
	for _, entry := range report.Entries {
		r.Printf("| %s | %d | %d |\n", entry.Table, len(entry.Queries), len(entry.Code))
	}
	r.Println("")
	r.Printf("%d tables\n", len(report.Entries))
}
