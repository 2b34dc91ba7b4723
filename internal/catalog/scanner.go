package catalog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/leapstack-labs/bqscope/internal/extract"
)

// Scanner builds the query-side usage index from catalog records.
type Scanner struct {
	fetcher Fetcher
	logger  *slog.Logger
}

// ScannerConfig holds the collaborators for a Scanner.
type ScannerConfig struct {
	// Fetcher supplies the catalog records. Required.
	Fetcher Fetcher
	// Logger receives progress output. Defaults to a discard logger.
	Logger *slog.Logger
}

// NewScanner creates a scanner over the given catalog source.
func NewScanner(cfg ScannerConfig) *Scanner {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Scanner{fetcher: cfg.Fetcher, logger: logger}
}

// Result holds the query-side usage index.
type Result struct {
	// Tables maps each referenced table to the labels of the queries that
	// reference it, in first-seen catalog order. A query referencing the
	// same table in several clauses contributes one entry; two distinct
	// records sharing a display name contribute one each.
	Tables map[string][]string
	// Records is the number of catalog records inspected.
	Records int
	// Skipped counts records without a query body.
	Skipped int
	// Duration is the total scan time, fetch included.
	Duration time.Duration
}

// Summary returns a one-line description of the scan.
func (r *Result) Summary() string {
	return fmt.Sprintf(
		"Queries: %d total (%d skipped) | Tables: %d | Duration: %s",
		r.Records, r.Skipped, len(r.Tables),
		r.Duration.Round(time.Millisecond),
	)
}

// Scan fetches the catalog and indexes each query's table references. A
// record with an empty query body is skipped without error; it is an
// upstream data-quality issue, not a local failure.
func (s *Scanner) Scan(ctx context.Context) (*Result, error) {
	start := time.Now()

	records, err := s.fetcher.FetchScheduledQueries(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch scheduled queries: %w", err)
	}

	result := &Result{Tables: make(map[string][]string)}
	for _, rec := range records {
		result.Records++
		if rec.Query == "" {
			result.Skipped++
			s.logger.Debug("skipping record without query body", "query", rec.Name)
			continue
		}

		label := rec.Label()
		for _, table := range extract.TableRefs(rec.Query) {
			result.Tables[table] = append(result.Tables[table], label)
		}
	}

	result.Duration = time.Since(start)
	s.logger.Info("scheduled query scan complete",
		"records", result.Records,
		"skipped", result.Skipped,
		"tables", len(result.Tables),
		"duration", result.Duration.Round(time.Millisecond))
	return result, nil
}
