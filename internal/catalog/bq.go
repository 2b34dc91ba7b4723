package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
)

// transferConfig mirrors the fields of `bq ls --transfer_config
// --format=prettyjson` output that matter here; unknown fields are ignored.
type transferConfig struct {
	DisplayName string `json:"displayName"`
	Disabled    bool   `json:"disabled"`
	Params      struct {
		Query string `json:"query"`
	} `json:"params"`
}

// BQClient fetches scheduled queries by shelling out to the bq CLI.
type BQClient struct {
	credentials string
	projectID   string
	location    string
	binPath     string
	logger      *slog.Logger
}

// ClientConfig holds the settings for a BQClient.
type ClientConfig struct {
	// CredentialsFile is the application default credentials path handed
	// to bq verbatim.
	CredentialsFile string
	// ProjectID is the GCP project whose transfer configs are listed.
	ProjectID string
	// Location is the transfer location, e.g. "EU".
	Location string
	// BinPath overrides the bq binary. Defaults to "bq" on PATH.
	BinPath string
	// Logger receives debug output. Defaults to a discard logger.
	Logger *slog.Logger
}

// NewBQClient creates a client for the given project and location.
func NewBQClient(cfg ClientConfig) *BQClient {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	bin := cfg.BinPath
	if bin == "" {
		bin = "bq"
	}
	return &BQClient{
		credentials: cfg.CredentialsFile,
		projectID:   cfg.ProjectID,
		location:    cfg.Location,
		binPath:     bin,
		logger:      logger,
	}
}

// FetchScheduledQueries lists the project's transfer configs and decodes
// them into records. Cancellation of ctx kills the subprocess.
func (c *BQClient) FetchScheduledQueries(ctx context.Context) ([]QueryRecord, error) {
	args := []string{
		"ls",
		"--application_default_credential_file=" + c.credentials,
		"--project_id=" + c.projectID,
		"--transfer_config",
		"--transfer_location=" + c.location,
		"--format=prettyjson",
	}

	cmd := exec.CommandContext(ctx, c.binPath, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	c.logger.Debug("listing scheduled queries",
		"project", c.projectID,
		"location", c.location,
		"bin", c.binPath)

	if err := cmd.Run(); err != nil {
		return nil, &ExitError{Stderr: strings.TrimSpace(stderr.String()), Err: err}
	}

	var configs []transferConfig
	if err := json.Unmarshal(stdout.Bytes(), &configs); err != nil {
		return nil, fmt.Errorf("failed to decode transfer configs: %w", err)
	}

	records := make([]QueryRecord, 0, len(configs))
	for _, tc := range configs {
		records = append(records, QueryRecord{
			Name:     tc.DisplayName,
			Query:    tc.Params.Query,
			Disabled: tc.Disabled,
		})
	}

	c.logger.Debug("fetched transfer configs", "count", len(records))
	return records, nil
}

// ExitError reports a bq invocation that exited non-zero, carrying the
// process stderr for diagnosis.
type ExitError struct {
	Stderr string
	Err    error
}

func (e *ExitError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("bq ls failed: %v", e.Err)
	}
	return fmt.Sprintf("bq ls failed: %v: %s", e.Err, e.Stderr)
}

func (e *ExitError) Unwrap() error { return e.Err }
