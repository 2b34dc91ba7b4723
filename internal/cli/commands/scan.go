package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/bqscope/internal/cli/output"
	"github.com/leapstack-labs/bqscope/internal/index"
)

// ScanOptions holds options for the scan command.
type ScanOptions struct {
	ProjectsOnly bool
	QueriesOnly  bool
}

// ScanOutput is the JSON shape of a scan run.
type ScanOutput struct {
	ReportPath string            `json:"report_path"`
	Tables     int               `json:"tables"`
	Code       *CodeScanStats    `json:"code,omitempty"`
	Catalog    *CatalogScanStats `json:"catalog,omitempty"`
}

// CodeScanStats summarizes the filesystem side of a scan.
type CodeScanStats struct {
	Projects     int      `json:"projects"`
	Files        int      `json:"files"`
	Tables       int      `json:"tables"`
	SkippedPaths []string `json:"skipped_paths,omitempty"`
}

// CatalogScanStats summarizes the scheduled-query side of a scan.
type CatalogScanStats struct {
	Records int `json:"records"`
	Skipped int `json:"skipped"`
	Tables  int `json:"tables"`
}

// NewScanCommand creates the scan command.
func NewScanCommand() *cobra.Command {
	opts := &ScanOptions{}

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan the codebase and scheduled queries, then write the usage report",
		Long: `Build the table usage report.

By default both sources are scanned: the codebase under the scan root and
the BigQuery scheduled queries of the configured project. The merged index
is written to the report path as deterministic YAML.`,
		Example: `  # Scan both sources
  bqscope scan

  # Scan only the codebase
  bqscope scan -p

  # Scan only the scheduled queries
  bqscope scan -q`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.ProjectsOnly, "projects-only", "p", false, "Scan only the codebase")
	cmd.Flags().BoolVarP(&opts.QueriesOnly, "queries-only", "q", false, "Scan only the scheduled queries")

	return cmd
}

func runScan(cmd *cobra.Command, opts *ScanOptions) error {
	if opts.ProjectsOnly && opts.QueriesOnly {
		return fmt.Errorf("--projects-only and --queries-only are mutually exclusive")
	}

	cmdCtx := NewCommandContext(cmd)
	r := cmdCtx.Renderer

	sel := sourceSelection{
		Code:    !opts.QueriesOnly,
		Catalog: !opts.ProjectsOnly,
	}

	var spinner *output.Spinner
	if r.EffectiveMode() == output.ModeText && r.IsTTY() {
		spinner = r.NewSpinner("Scanning...")
		spinner.Start()
	}

	result, err := runPipeline(cmd.Context(), cmdCtx, sel)
	if err != nil {
		if spinner != nil {
			spinner.Fail("Scan failed")
		}
		return err
	}

	if err := index.WriteReport(cmdCtx.Cfg.ReportPath, result.Report); err != nil {
		if spinner != nil {
			spinner.Fail("Scan failed")
		}
		return err
	}
	if spinner != nil {
		spinner.Success("Scan complete")
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(buildScanOutput(cmdCtx.Cfg.ReportPath, result))
	case output.ModeMarkdown:
		renderScanMarkdown(r, cmdCtx.Cfg.ReportPath, result)
	default:
		renderScanText(r, cmdCtx.Cfg.ReportPath, result)
	}
	return nil
}

func buildScanOutput(reportPath string, result *pipelineResult) ScanOutput {
	out := ScanOutput{
		ReportPath: reportPath,
		Tables:     len(result.Report.Entries),
	}
	if result.Code != nil {
		stats := &CodeScanStats{
			Projects: result.Code.Projects,
			Files:    result.Code.Files,
			Tables:   len(result.Code.Tables),
		}
		for _, scanErr := range result.Code.Errors {
			stats.SkippedPaths = append(stats.SkippedPaths, scanErr.Path)
		}
		out.Code = stats
	}
	if result.Catalog != nil {
		out.Catalog = &CatalogScanStats{
			Records: result.Catalog.Records,
			Skipped: result.Catalog.Skipped,
			Tables:  len(result.Catalog.Tables),
		}
	}
	return out
}

func renderScanText(r *output.Renderer, reportPath string, result *pipelineResult) {
	r.Success(fmt.Sprintf("Report written to %s (%d tables)", reportPath, len(result.Report.Entries)))
	if result.Code != nil {
		r.Muted("Code    " + result.Code.Summary())
	}
	if result.Catalog != nil {
		r.Muted("Catalog " + result.Catalog.Summary())
	}
	if result.Code != nil && result.Code.HasErrors() {
		r.Warning(fmt.Sprintf("%d paths could not be read", len(result.Code.Errors)))
		for _, scanErr := range result.Code.Errors {
			r.StatusLine(scanErr.Path, "error", scanErr.Message)
		}
	}
}

func renderScanMarkdown(r *output.Renderer, reportPath string, result *pipelineResult) {
	r.Println(output.FormatHeader(1, "Scan Report"))
	r.Println(output.FormatKeyValue("Report", reportPath))
	r.Println(output.FormatKeyValue("Tables", fmt.Sprintf("%d", len(result.Report.Entries))))
	if result.Code != nil {
		r.Println("")
		r.Println(output.FormatHeader(2, "Codebase"))
		r.Println(output.FormatKeyValue("Projects", fmt.Sprintf("%d", result.Code.Projects)))
		r.Println(output.FormatKeyValue("Files", fmt.Sprintf("%d", result.Code.Files)))
		r.Println(output.FormatKeyValue("Skipped paths", fmt.Sprintf("%d", len(result.Code.Errors))))
	}
	if result.Catalog != nil {
		r.Println("")
		r.Println(output.FormatHeader(2, "Scheduled Queries"))
		r.Println(output.FormatKeyValue("Records", fmt.Sprintf("%d", result.Catalog.Records)))
		r.Println(output.FormatKeyValue("Skipped", fmt.Sprintf("%d", result.Catalog.Skipped)))
	}
}
