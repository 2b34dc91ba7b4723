package config

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// loggerKey is used to store the logger in context.
// This key is shared with root.go via both using the same type.
type loggerKey struct{}

// maxUpwardSearchLevels limits how far up the directory tree to search for
// config files.
const maxUpwardSearchLevels = 10

// Package-level koanf instance and config file tracking
var (
	k              = koanf.New(".")
	configFileUsed string
	currentConfig  *Config // Stores the loaded config for access by commands
)

// configNames are the file names searched for in the project root.
var configNames = []string{"bqscope.yaml", "bqscope.yml"}

// configExistsIn checks if a bqscope config file exists in the directory.
func configExistsIn(dir string) bool {
	for _, name := range configNames {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	return false
}

// findProjectRootUpward searches upward from startDir for a bqscope config
// file. Returns empty string if not found within maxUpwardSearchLevels.
func findProjectRootUpward(startDir string) string {
	dir := startDir
	for i := 0; i < maxUpwardSearchLevels; i++ {
		if configExistsIn(dir) {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			break
		}
		dir = parent
	}
	return ""
}

// inferProjectRoot determines the directory anchoring relative paths.
// Priority:
//  1. The explicit --config file's directory
//  2. Search upward from CWD for bqscope.yaml
//  3. Current working directory
func inferProjectRoot(cfgFile string) string {
	if cfgFile != "" {
		if abs, err := filepath.Abs(cfgFile); err == nil {
			return filepath.Dir(abs)
		}
	}

	if cwd, err := os.Getwd(); err == nil {
		if root := findProjectRootUpward(cwd); root != "" {
			return root
		}
	}

	cwd, _ := os.Getwd()
	if cwd == "" {
		cwd = "."
	}
	return cwd
}

// resolvePathRelativeTo resolves a path relative to baseDir if it's not
// absolute. Returns the path unchanged if it's empty or already absolute.
func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

// ResetConfig resets the koanf instance. Used for testing.
func ResetConfig() {
	k = koanf.New(".")
	configFileUsed = ""
	currentConfig = nil
}

// LoadConfig loads configuration from file, environment variables, and
// flags. Precedence (highest to lowest): flags > BQSCOPE_ env vars >
// conventional env vars > config file > defaults.
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	// Reset koanf for fresh load
	k = koanf.New(".")

	// A local .env supplies the conventional variables in dev setups.
	_ = godotenv.Load()

	projectRoot := inferProjectRoot(cfgFile)

	// Paths given as flags are relative to the CWD, not the project root;
	// make them absolute before the normal resolution step.
	flagPaths := make(map[string]string)
	if flags != nil {
		for _, name := range []string{"root", "report", "ignore-file", "credentials"} {
			if !flags.Changed(name) {
				continue
			}
			if v, _ := flags.GetString(name); v != "" {
				if abs, err := filepath.Abs(v); err == nil {
					flagPaths[name] = abs
				}
			}
		}
	}

	// 1. Load defaults
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"scan_root":   "",
		"location":    DefaultLocation,
		"report_path": DefaultReportFile,
		"ignore_file": DefaultIgnoreFile,
		"bq_path":     DefaultBQPath,
		"verbose":     false,
		"output":      DefaultOutput,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Find and load config file
	// Search in the project root if no explicit config file provided
	if cfgFile == "" {
		for _, name := range configNames {
			candidate := filepath.Join(projectRoot, name)
			if _, err := os.Stat(candidate); err == nil {
				cfgFile = candidate
				break
			}
		}
	}
	configFileUsed = cfgFile
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
	}

	// 3. Conventional environment variables, honored under the names the
	// surrounding tooling already uses
	alias := make(map[string]interface{})
	if v := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); v != "" {
		alias["credentials_file"] = v
	}
	if v := os.Getenv("GCP_PROJECT"); v != "" {
		alias["project_id"] = v
	}
	if v := os.Getenv("PROJ_ROOT"); v != "" {
		alias["scan_root"] = v
	}
	if len(alias) > 0 {
		if err := k.Load(confmap.Provider(alias, "."), nil); err != nil {
			return nil, fmt.Errorf("failed to load environment: %w", err)
		}
	}

	// 4. Load environment variables (BQSCOPE_ prefix)
	// Transform: BQSCOPE_PROJECT_ID -> project_id
	if err := k.Load(env.Provider("BQSCOPE_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "BQSCOPE_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 5. Load flags (highest priority - overrides env vars and config file)
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			// Only load flags that were explicitly set
			if !f.Changed {
				return "", nil
			}
			// Transform kebab-case to snake_case for config keys
			key := strings.ReplaceAll(f.Name, "-", "_")

			// EXPLICIT MAPPING: short flag names map onto longer config keys
			switch key {
			case "root":
				key = "scan_root"
			case "credentials":
				key = "credentials_file"
			case "project":
				key = "project_id"
			case "report":
				key = "report_path"
			}

			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// 6. Unmarshal into Config struct
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// 7. Set the project root and resolve relative paths against it. Paths
	// that came in as flags keep their CWD-anchored absolute form.
	cfg.ProjectRoot = projectRoot

	if p, ok := flagPaths["root"]; ok {
		cfg.ScanRoot = p
	} else {
		cfg.ScanRoot = resolvePathRelativeTo(cfg.ScanRoot, projectRoot)
	}
	if p, ok := flagPaths["report"]; ok {
		cfg.ReportPath = p
	} else {
		cfg.ReportPath = resolvePathRelativeTo(cfg.ReportPath, projectRoot)
	}
	if p, ok := flagPaths["ignore-file"]; ok {
		cfg.IgnoreFile = p
	} else {
		cfg.IgnoreFile = resolvePathRelativeTo(cfg.IgnoreFile, projectRoot)
	}
	if p, ok := flagPaths["credentials"]; ok {
		cfg.CredentialsFile = p
	} else {
		cfg.CredentialsFile = resolvePathRelativeTo(cfg.CredentialsFile, projectRoot)
	}

	// The scan root defaults to the project root itself.
	if cfg.ScanRoot == "" {
		cfg.ScanRoot = projectRoot
	}

	// Store config for access by commands
	currentConfig = &cfg

	return &cfg, nil
}

// GetConfigFileUsed returns the path to the config file being used, if any.
func GetConfigFileUsed() string {
	return configFileUsed
}

// GetCurrentConfig returns the currently loaded configuration.
// This is available after LoadConfig is called.
func GetCurrentConfig() *Config {
	return currentConfig
}

// LoggerKey returns the context key used for storing the logger.
// This allows the commands package to retrieve the logger from context
// without creating an import cycle with the cli package.
func LoggerKey() interface{} {
	return loggerKey{}
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	// Return discard logger as safe fallback
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
