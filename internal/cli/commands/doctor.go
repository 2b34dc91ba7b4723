package commands

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/bqscope/internal/cli/config"
	"github.com/leapstack-labs/bqscope/internal/cli/output"
	"github.com/leapstack-labs/bqscope/internal/scan"
)

// DoctorOptions holds options for the doctor command.
type DoctorOptions struct {
	Format string // Output format: text, json
}

// NewDoctorCommand creates the doctor command.
func NewDoctorCommand() *cobra.Command {
	opts := &DoctorOptions{}
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check that the environment is ready for scanning",
		Long: `Verify the configuration, catalog access, and codebase prerequisites.

The doctor command checks:
- Configuration (config file discovery)
- Catalog access (credentials, project id, bq executable)
- Codebase (scan root, ignore file)

It exits non-zero when any check fails, so it can guard CI pipelines.`,
		Example: `  # Run all checks
  bqscope doctor

  # Output as JSON
  bqscope doctor --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDoctor(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: text, json")

	return cmd
}

// DoctorOutput is the JSON output for the doctor command.
type DoctorOutput struct {
	Checks  []HealthCheck `json:"checks"`
	Failed  int           `json:"failed"`
	Healthy bool          `json:"healthy"`
}

// HealthCheck represents a single environment check result.
type HealthCheck struct {
	Name   string `json:"name"`
	Group  string `json:"group"`
	Status string `json:"status"` // "pass", "warn", "error", "skip"
	Detail string `json:"detail,omitempty"`
}

func runDoctor(cmd *cobra.Command, opts *DoctorOptions) error {
	cmdCtx := NewCommandContext(cmd)
	r := cmdCtx.Renderer

	// Override renderer if format flag is set
	if opts.Format != "" {
		r = output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(opts.Format))
	}

	doctorOutput := buildDoctorOutput(cmdCtx.Cfg)

	switch r.EffectiveMode() {
	case output.ModeJSON:
		if err := r.JSON(doctorOutput); err != nil {
			return err
		}
	case output.ModeMarkdown:
		renderDoctorMarkdown(r, doctorOutput)
	default:
		renderDoctorText(r, doctorOutput)
	}

	if doctorOutput.Failed > 0 {
		return fmt.Errorf("%d of %d checks failed", doctorOutput.Failed, len(doctorOutput.Checks))
	}
	return nil
}

func buildDoctorOutput(cfg *config.Config) *DoctorOutput {
	checks := []HealthCheck{
		checkConfigFile(),
		checkCredentials(cfg),
		checkProjectID(cfg),
		checkBQExecutable(cfg),
		checkScanRoot(cfg),
		checkIgnoreFile(cfg),
	}

	failed := 0
	for _, check := range checks {
		if check.Status == "error" {
			failed++
		}
	}

	return &DoctorOutput{
		Checks:  checks,
		Failed:  failed,
		Healthy: failed == 0,
	}
}

func checkConfigFile() HealthCheck {
	check := HealthCheck{Name: "config file", Group: "configuration"}
	if used := config.GetConfigFileUsed(); used != "" {
		check.Status = "pass"
		check.Detail = used
	} else {
		check.Status = "warn"
		check.Detail = "no config file found, using defaults and environment"
	}
	return check
}

func checkCredentials(cfg *config.Config) HealthCheck {
	check := HealthCheck{Name: "credentials", Group: "catalog"}
	if cfg.CredentialsFile == "" {
		check.Status = "error"
		check.Detail = "no credentials file configured (set GOOGLE_APPLICATION_CREDENTIALS)"
		return check
	}
	if _, err := os.Stat(cfg.CredentialsFile); err != nil {
		check.Status = "error"
		check.Detail = fmt.Sprintf("%s: %v", cfg.CredentialsFile, err)
		return check
	}
	check.Status = "pass"
	check.Detail = cfg.CredentialsFile
	return check
}

func checkProjectID(cfg *config.Config) HealthCheck {
	check := HealthCheck{Name: "project id", Group: "catalog"}
	if cfg.ProjectID == "" {
		check.Status = "error"
		check.Detail = "no project id configured (set GCP_PROJECT)"
		return check
	}
	check.Status = "pass"
	check.Detail = cfg.ProjectID
	return check
}

func checkBQExecutable(cfg *config.Config) HealthCheck {
	check := HealthCheck{Name: "bq executable", Group: "catalog"}
	path, err := exec.LookPath(cfg.BQPath)
	if err != nil {
		check.Status = "error"
		check.Detail = fmt.Sprintf("%q not found in PATH", cfg.BQPath)
		return check
	}
	check.Status = "pass"
	check.Detail = path
	return check
}

func checkScanRoot(cfg *config.Config) HealthCheck {
	check := HealthCheck{Name: "scan root", Group: "codebase"}
	info, err := os.Stat(cfg.ScanRoot)
	switch {
	case err != nil:
		check.Status = "error"
		check.Detail = fmt.Sprintf("%s: %v", cfg.ScanRoot, err)
	case !info.IsDir():
		check.Status = "error"
		check.Detail = fmt.Sprintf("%s is not a directory", cfg.ScanRoot)
	default:
		check.Status = "pass"
		check.Detail = cfg.ScanRoot
	}
	return check
}

func checkIgnoreFile(cfg *config.Config) HealthCheck {
	check := HealthCheck{Name: "ignore file", Group: "codebase"}
	patterns, err := scan.ReadIgnoreFile(cfg.IgnoreFile)
	if err != nil {
		if os.IsNotExist(err) {
			check.Status = "skip"
			check.Detail = "not present (optional)"
			return check
		}
		check.Status = "error"
		check.Detail = fmt.Sprintf("%s: %v", cfg.IgnoreFile, err)
		return check
	}
	check.Status = "pass"
	check.Detail = fmt.Sprintf("%s (%d patterns)", cfg.IgnoreFile, len(patterns))
	return check
}

func renderDoctorText(r *output.Renderer, out *DoctorOutput) {
	styles := r.Styles()

	r.Println("")
	r.Println(styles.Header1.Render("Environment Check"))
	r.Println(styles.Muted.Render(strings.Repeat("=", 55)))
	r.Println("")

	currentGroup := ""
	titleCaser := cases.Title(language.English)
	for _, check := range out.Checks {
		if check.Group != currentGroup {
			currentGroup = check.Group
			r.Println(styles.Bold.Render("   " + titleCaser.String(currentGroup)))
			r.Println(styles.Muted.Render("   " + strings.Repeat("-", 40)))
		}

		icon := styles.StatusSuccess.String()
		switch check.Status {
		case "warn":
			icon = styles.Warning.Render("!")
		case "error":
			icon = styles.StatusFailed.String()
		case "skip":
			icon = styles.Muted.Render("-")
		}

		line := fmt.Sprintf("%s %s", icon, check.Name)
		if check.Detail != "" {
			line += styles.Muted.Render(" (" + check.Detail + ")")
		}
		r.Println("   " + line)
	}
	r.Println("")

	r.Println(styles.Muted.Render(strings.Repeat("=", 55)))
	if out.Healthy {
		r.Success("All checks passed")
	} else {
		r.Printf("%s %d of %d checks failed\n", styles.StatusFailed.String(), out.Failed, len(out.Checks))
	}
	r.Println("")
}

func renderDoctorMarkdown(r *output.Renderer, out *DoctorOutput) {
	r.Println("# Environment Check")
	r.Println("")

	currentGroup := ""
	titleCaser := cases.Title(language.English)
	for _, check := range out.Checks {
		if check.Group != currentGroup {
			currentGroup = check.Group
			r.Println("## " + titleCaser.String(currentGroup))
			r.Println("")
		}

		status := strings.ToUpper(check.Status)
		r.Printf("- **[%s]** %s", status, check.Name)
		if check.Detail != "" {
			r.Printf(": %s", check.Detail)
		}
		r.Println("")
	}
	r.Println("")

	if out.Healthy {
		r.Println("All checks passed.")
	} else {
		r.Printf("%d of %d checks failed.\n", out.Failed, len(out.Checks))
	}
}
