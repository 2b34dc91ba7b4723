// Package config provides configuration management for the bqscope CLI.
//
// Configuration is an immutable value constructed once at startup from
// defaults, an optional bqscope.yaml, the environment, and command-line
// flags. Scanners receive it explicitly and never read the environment
// themselves.
package config

// Config holds all CLI configuration options.
type Config struct {
	// ScanRoot is the codebase root whose immediate subdirectories are
	// treated as projects. Defaults to the project root.
	ScanRoot string `koanf:"scan_root"`
	// Exclude lists glob patterns for top-level directories to skip.
	Exclude []string `koanf:"exclude"`
	// IgnoreFile is an additional per-repo exclusion file, one glob per
	// line. A missing file is only an error when set to a non-default.
	IgnoreFile string `koanf:"ignore_file"`
	// CredentialsFile is the application default credentials path handed
	// to the bq CLI. Conventionally GOOGLE_APPLICATION_CREDENTIALS.
	CredentialsFile string `koanf:"credentials_file"`
	// ProjectID is the GCP project whose scheduled queries are scanned.
	// Conventionally GCP_PROJECT.
	ProjectID string `koanf:"project_id"`
	// Location is the transfer location passed to bq ls.
	Location string `koanf:"location"`
	// ReportPath is where the merged report is written.
	ReportPath string `koanf:"report_path"`
	// BQPath overrides the bq binary.
	BQPath string `koanf:"bq_path"`
	// Verbose enables debug logging.
	Verbose bool `koanf:"verbose"`
	// OutputFormat selects the renderer mode: auto, text, markdown, json.
	OutputFormat string `koanf:"output"`

	// ProjectRoot anchors relative paths. Inferred from the config file
	// location or the working directory, never set in YAML.
	ProjectRoot string `koanf:"-"`
}

// Default configuration values.
const (
	DefaultLocation   = "EU"
	DefaultReportFile = "result.yaml"
	DefaultIgnoreFile = ".bqscopeignore"
	DefaultBQPath     = "bq"
	DefaultOutput     = "auto" // Auto-detect: TTY=text, non-TTY=plain text without styling
)
