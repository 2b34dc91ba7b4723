package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/leapstack-labs/bqscope/internal/cli/config"
	"github.com/leapstack-labs/bqscope/internal/cli/output"
	"github.com/leapstack-labs/bqscope/internal/scan"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext assembles the dependencies every command needs.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())
	mode := output.Mode(cfg.OutputFormat)
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}
}

// Helper functions shared across commands

// getConfig returns the current configuration.
// It uses config.GetCurrentConfig() if available, otherwise falls back to
// environment variables.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}

	// Fallback: read from environment with defaults
	return &config.Config{
		ScanRoot:        os.Getenv("PROJ_ROOT"),
		CredentialsFile: os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
		ProjectID:       os.Getenv("GCP_PROJECT"),
		Location:        getEnvOrDefault("BQSCOPE_LOCATION", config.DefaultLocation),
		ReportPath:      getEnvOrDefault("BQSCOPE_REPORT_PATH", config.DefaultReportFile),
		IgnoreFile:      getEnvOrDefault("BQSCOPE_IGNORE_FILE", config.DefaultIgnoreFile),
		BQPath:          getEnvOrDefault("BQSCOPE_BQ_PATH", config.DefaultBQPath),
		Verbose:         os.Getenv("BQSCOPE_VERBOSE") == "true",
		OutputFormat:    os.Getenv("BQSCOPE_OUTPUT"),
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// exclusionPatterns merges the configured exclusion globs with the
// patterns from the ignore file. A missing ignore file is an error only
// when it was pointed somewhere other than the default name; the default
// is optional.
func exclusionPatterns(cfg *config.Config) ([]string, error) {
	patterns := append([]string(nil), cfg.Exclude...)

	if cfg.IgnoreFile == "" {
		return patterns, nil
	}

	filePatterns, err := scan.ReadIgnoreFile(cfg.IgnoreFile)
	if err != nil {
		if os.IsNotExist(err) && filepath.Base(cfg.IgnoreFile) == config.DefaultIgnoreFile {
			return patterns, nil
		}
		return nil, fmt.Errorf("failed to read ignore file: %w", err)
	}

	return append(patterns, filePatterns...), nil
}
