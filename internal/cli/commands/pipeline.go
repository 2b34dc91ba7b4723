package commands

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/bqscope/internal/catalog"
	"github.com/leapstack-labs/bqscope/internal/index"
	"github.com/leapstack-labs/bqscope/internal/scan"
)

// sourceSelection captures which sides of the usage index a run builds.
type sourceSelection struct {
	Code    bool
	Catalog bool
}

// pipelineResult bundles the merged report with the per-source results
// that produced it. A source that was not selected leaves its result nil.
type pipelineResult struct {
	Report  *index.Report
	Code    *scan.Result
	Catalog *catalog.Result
}

// runPipeline validates the configuration for the selected sources, runs
// the scans in parallel, and merges them into a report. Validation happens
// before anything is scanned; a failure there means no work was started.
func runPipeline(ctx context.Context, cmdCtx *CommandContext, sel sourceSelection) (*pipelineResult, error) {
	cfg := cmdCtx.Cfg
	if err := cfg.ValidateForScan(sel.Code, sel.Catalog); err != nil {
		return nil, err
	}

	// Every run gets its own id so interleaved log lines stay attributable.
	logger := cmdCtx.Logger.With("run_id", uuid.NewString())

	var (
		codeResult    *scan.Result
		catalogResult *catalog.Result
	)

	g, gctx := errgroup.WithContext(ctx)

	if sel.Code {
		patterns, err := exclusionPatterns(cfg)
		if err != nil {
			return nil, err
		}
		scanner, err := scan.New(scan.Config{
			Root:    cfg.ScanRoot,
			Exclude: patterns,
			Logger:  logger,
		})
		if err != nil {
			return nil, err
		}
		g.Go(func() error {
			var err error
			codeResult, err = scanner.Scan(gctx)
			return err
		})
	}

	if sel.Catalog {
		client := catalog.NewBQClient(catalog.ClientConfig{
			CredentialsFile: cfg.CredentialsFile,
			ProjectID:       cfg.ProjectID,
			Location:        cfg.Location,
			BinPath:         cfg.BQPath,
			Logger:          logger,
		})
		scanner := catalog.NewScanner(catalog.ScannerConfig{
			Fetcher: client,
			Logger:  logger,
		})
		g.Go(func() error {
			var err error
			catalogResult, err = scanner.Scan(gctx)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}

	code := map[string]map[string]struct{}{}
	if codeResult != nil {
		code = codeResult.Tables
	}
	queries := map[string][]string{}
	if catalogResult != nil {
		queries = catalogResult.Tables
	}

	return &pipelineResult{
		Report:  index.Merge(code, queries),
		Code:    codeResult,
		Catalog: catalogResult,
	}, nil
}

// loadReport either reads a previously written report or runs a fresh
// scan of both sources.
func loadReport(ctx context.Context, cmdCtx *CommandContext, fromReport string) (*index.Report, error) {
	if fromReport != "" {
		return index.ReadReport(fromReport)
	}

	result, err := runPipeline(ctx, cmdCtx, sourceSelection{Code: true, Catalog: true})
	if err != nil {
		return nil, err
	}
	return result.Report, nil
}
