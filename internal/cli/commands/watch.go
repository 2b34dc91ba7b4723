package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/bqscope/internal/index"
	"github.com/leapstack-labs/bqscope/internal/scan"
	"github.com/leapstack-labs/bqscope/internal/watch"
)

// WatchOptions holds options for the watch command.
type WatchOptions struct {
	ProjectsOnly bool
}

// NewWatchCommand creates the watch command.
func NewWatchCommand() *cobra.Command {
	opts := &WatchOptions{}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Rebuild the report whenever the codebase changes",
		Long: `Watch the scan root and rewrite the usage report on every change to a
query or settings file.

The scheduled-query catalog is fetched once at startup unless
--projects-only; file changes only rescan the codebase side and merge it
with the cached catalog.`,
		Example: `  # Watch the codebase, catalog fetched once
  bqscope watch

  # Watch without touching the catalog
  bqscope watch -p`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.ProjectsOnly, "projects-only", "p", false, "Skip the scheduled-query catalog")

	return cmd
}

func runWatch(cmd *cobra.Command, opts *WatchOptions) error {
	cmdCtx := NewCommandContext(cmd)
	cfg := cmdCtx.Cfg
	logger := cmdCtx.Logger
	r := cmdCtx.Renderer

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sel := sourceSelection{Code: true, Catalog: !opts.ProjectsOnly}
	result, err := runPipeline(ctx, cmdCtx, sel)
	if err != nil {
		return err
	}
	if err := index.WriteReport(cfg.ReportPath, result.Report); err != nil {
		return err
	}
	r.Success(fmt.Sprintf("Report written to %s (%d tables)", cfg.ReportPath, len(result.Report.Entries)))

	// The catalog side does not change with the filesystem; fetch it once
	// and reuse it on every rescan.
	cachedQueries := map[string][]string{}
	if result.Catalog != nil {
		cachedQueries = result.Catalog.Tables
	}

	patterns, err := exclusionPatterns(cfg)
	if err != nil {
		return err
	}
	scanner, err := scan.New(scan.Config{
		Root:    cfg.ScanRoot,
		Exclude: patterns,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	rescan := func() {
		codeResult, err := scanner.Scan(ctx)
		if err != nil {
			logger.Warn("rescan failed", "error", err)
			return
		}
		report := index.Merge(codeResult.Tables, cachedQueries)
		if err := index.WriteReport(cfg.ReportPath, report); err != nil {
			logger.Warn("report write failed", "error", err)
			return
		}
		r.Muted(fmt.Sprintf("Report updated (%d tables)", len(report.Entries)))
	}

	watcher, err := watch.New(watch.Config{
		Root:     cfg.ScanRoot,
		Logger:   logger,
		OnChange: rescan,
	})
	if err != nil {
		return err
	}

	r.Muted(fmt.Sprintf("Watching %s for changes. Press Ctrl+C to stop", cfg.ScanRoot))

	if err := watcher.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
