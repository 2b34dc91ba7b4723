// Package scan walks a codebase tree and indexes which tables each
// top-level project references.
package scan

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gobwas/glob"

	"github.com/leapstack-labs/bqscope/internal/extract"
)

// settingsFileName is the settings-file convention recognized inside
// projects. Only files with exactly this name go through the settings
// extractor.
const settingsFileName = "settings.py"

// queryFileSuffixes mark files whose contents are scanned as SQL.
var queryFileSuffixes = []string{".sql", ".bigquery"}

// isQueryFile reports whether a file name carries a query suffix.
func isQueryFile(name string) bool {
	for _, suffix := range queryFileSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

// IsSourceFile reports whether a file name is one the scanner reads: a
// query file by suffix or a settings file by exact name.
func IsSourceFile(name string) bool {
	return isQueryFile(name) || name == settingsFileName
}

// Scanner walks a scan root and builds the code-side usage index.
type Scanner struct {
	root    string
	exclude []glob.Glob
	logger  *slog.Logger
}

// Config holds the settings for a Scanner.
type Config struct {
	// Root is the codebase root whose immediate subdirectories are treated
	// as projects. Required.
	Root string
	// Exclude lists glob patterns matched against top-level directory
	// names; matching directories are not treated as projects.
	Exclude []string
	// Logger receives progress output. Defaults to a discard logger.
	Logger *slog.Logger
}

// New creates a scanner over the given root. Invalid exclusion patterns are
// reported immediately rather than at scan time.
func New(cfg Config) (*Scanner, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	compiled := make([]glob.Glob, 0, len(cfg.Exclude))
	for _, pattern := range cfg.Exclude {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid exclusion pattern %q: %w", pattern, err)
		}
		compiled = append(compiled, g)
	}

	return &Scanner{root: cfg.Root, exclude: compiled, logger: logger}, nil
}

// Result holds the code-side usage index.
type Result struct {
	// Tables maps each referenced table to the set of projects that
	// reference it.
	Tables map[string]map[string]struct{}
	// Projects is the number of top-level project directories walked.
	Projects int
	// Files is the number of query and settings files read.
	Files int
	// Errors collects per-file read failures (non-fatal).
	Errors []ScanError
	// Duration is the total walk time.
	Duration time.Duration
}

// ScanError records a path that could not be read during a scan.
type ScanError struct {
	Path    string
	Message string
}

// HasErrors returns true if any paths were skipped.
func (r *Result) HasErrors() bool {
	return len(r.Errors) > 0
}

// Summary returns a one-line description of the scan.
func (r *Result) Summary() string {
	return fmt.Sprintf(
		"Projects: %d | Files: %d | Tables: %d | Skipped paths: %d | Duration: %s",
		r.Projects, r.Files, len(r.Tables), len(r.Errors),
		r.Duration.Round(time.Millisecond),
	)
}

// Scan enumerates the projects under the root and extracts table references
// from every query and settings file.
//
// A missing or unreadable root is fatal. An individual unreadable file or
// subdirectory is not: it is logged at WARN, recorded on the Result, and
// the walk continues, so a partial result always carries its own indication.
func (s *Scanner) Scan(ctx context.Context) (*Result, error) {
	start := time.Now()

	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("failed to read scan root: %w", err)
	}

	result := &Result{Tables: make(map[string]map[string]struct{})}
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !entry.IsDir() {
			continue
		}
		if s.excluded(entry.Name()) {
			s.logger.Debug("excluding project directory", "dir", entry.Name())
			continue
		}

		result.Projects++
		s.scanProject(entry.Name(), filepath.Join(s.root, entry.Name()), result)
	}

	result.Duration = time.Since(start)
	s.logger.Info("project scan complete",
		"projects", result.Projects,
		"files", result.Files,
		"tables", len(result.Tables),
		"skipped", len(result.Errors),
		"duration", result.Duration.Round(time.Millisecond))
	return result, nil
}

// scanProject walks one project directory and accumulates its references.
func (s *Scanner) scanProject(project, dir string, result *Result) {
	s.logger.Debug("scanning project", "project", project, "dir", dir)

	_ = filepath.Walk(dir, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			s.logger.Warn("skipping unreadable path", "path", path, "error", walkErr)
			result.Errors = append(result.Errors, ScanError{Path: path, Message: walkErr.Error()})
			return nil
		}
		if info.IsDir() {
			return nil
		}

		refs, ok := s.extractFile(path, info.Name(), result)
		if !ok {
			return nil
		}
		for _, table := range refs {
			if result.Tables[table] == nil {
				result.Tables[table] = make(map[string]struct{})
			}
			result.Tables[table][project] = struct{}{}
		}
		return nil
	})
}

// extractFile reads one file and runs the extractor matching its name.
// The second return is false for files of no interest or unreadable files.
func (s *Scanner) extractFile(path, name string, result *Result) ([]string, bool) {
	isQuery := isQueryFile(name)
	if !isQuery && name != settingsFileName {
		return nil, false
	}

	content, err := os.ReadFile(path)
	if err != nil {
		s.logger.Warn("skipping unreadable file", "path", path, "error", err)
		result.Errors = append(result.Errors, ScanError{Path: path, Message: err.Error()})
		return nil, false
	}
	result.Files++

	if isQuery {
		return extract.TableRefs(string(content)), true
	}
	// Settings extraction may return duplicates; collapse per file.
	return dedupe(extract.SettingsRefs(string(content))), true
}

// excluded reports whether a top-level directory name matches any exclusion
// pattern.
func (s *Scanner) excluded(name string) bool {
	for _, g := range s.exclude {
		if g.Match(name) {
			return true
		}
	}
	return false
}

// dedupe collapses a list to its distinct members, keeping first-seen order.
func dedupe(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	var out []string
	for _, name := range names {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

// ReadIgnoreFile parses an ignore file: one exclusion glob per line, blank
// lines and full-line # comments skipped.
func ReadIgnoreFile(path string) ([]string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var patterns []string
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	return patterns, nil
}
