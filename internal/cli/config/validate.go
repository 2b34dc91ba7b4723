package config

import (
	"fmt"
	"os"
)

// ValidationError reports a missing or unusable startup requirement. The
// pipeline refuses to start on one of these; nothing is scanned.
type ValidationError struct {
	Field   string
	Message string
	Hint    string
}

func (e *ValidationError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = fmt.Sprintf("%s is required", e.Field)
	}
	if e.Hint != "" {
		return msg + "\nHint: " + e.Hint
	}
	return msg
}

// ValidateForScan checks that everything the selected sources need is
// configured. It runs before any scanning begins; a failure here is fatal.
func (c *Config) ValidateForScan(code, catalog bool) error {
	if catalog {
		if c.CredentialsFile == "" {
			return &ValidationError{
				Field: "credentials_file",
				Hint:  "set GOOGLE_APPLICATION_CREDENTIALS, or credentials_file in bqscope.yaml",
			}
		}
		if c.ProjectID == "" {
			return &ValidationError{
				Field: "project_id",
				Hint:  "set GCP_PROJECT, or project_id in bqscope.yaml",
			}
		}
	}

	if code {
		if c.ScanRoot == "" {
			return &ValidationError{
				Field: "scan_root",
				Hint:  "set PROJ_ROOT, scan_root in bqscope.yaml, or --root",
			}
		}
		info, err := os.Stat(c.ScanRoot)
		if err != nil || !info.IsDir() {
			return &ValidationError{
				Field:   "scan_root",
				Message: fmt.Sprintf("scan root does not exist: %s", c.ScanRoot),
				Hint:    "create the directory or point --root at the codebase checkout",
			}
		}
	}

	return nil
}
