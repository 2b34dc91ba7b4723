// Package main provides tests for the bqscope CLI.
package main

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/leapstack-labs/bqscope/internal/cli"
)

// neutralizeEnv blanks every configuration source the host environment
// could leak into a test run.
func neutralizeEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"GOOGLE_APPLICATION_CREDENTIALS",
		"GCP_PROJECT",
		"PROJ_ROOT",
		"BQSCOPE_CREDENTIALS_FILE",
		"BQSCOPE_PROJECT_ID",
		"BQSCOPE_SCAN_ROOT",
		"BQSCOPE_REPORT_PATH",
		"BQSCOPE_OUTPUT",
		"BQSCOPE_EXCLUDE",
	} {
		t.Setenv(name, "")
	}
}

func execute(args ...string) (string, error) {
	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestVersionCommand(t *testing.T) {
	output, err := execute("version")
	if err != nil {
		t.Errorf("version command error = %v", err)
	}
	if !strings.Contains(output, "bqscope") {
		t.Errorf("version output should contain 'bqscope', got: %s", output)
	}
}

func TestVersionShort(t *testing.T) {
	output, err := execute("version", "--short")
	if err != nil {
		t.Errorf("version --short error = %v", err)
	}
	if strings.TrimSpace(output) != cli.Version {
		t.Errorf("version --short = %q, want %q", strings.TrimSpace(output), cli.Version)
	}
}

func TestHelpCommand(t *testing.T) {
	output, err := execute("--help")
	if err != nil {
		t.Errorf("help command error = %v", err)
	}

	expectedCommands := []string{"scan", "impact", "tables", "doctor", "serve", "watch"}
	for _, expected := range expectedCommands {
		if !strings.Contains(output, expected) {
			t.Errorf("help output should contain '%s', got: %s", expected, output)
		}
	}
}

func TestUnknownCommand(t *testing.T) {
	_, err := execute("frobnicate")
	if err == nil {
		t.Error("unknown command should return an error")
	}
}

func TestScanConflictingFlags(t *testing.T) {
	neutralizeEnv(t)
	tmpDir := t.TempDir()

	_, err := execute("scan", "-p", "-q",
		"--root", tmpDir,
		"--report", filepath.Join(tmpDir, "result.yaml"))
	if err == nil {
		t.Fatal("scan -p -q should return an error")
	}
	if !strings.Contains(err.Error(), "mutually exclusive") {
		t.Errorf("error should mention mutual exclusion, got: %v", err)
	}
}

func TestScanQueriesOnlyWithoutCredentials(t *testing.T) {
	neutralizeEnv(t)
	tmpDir := t.TempDir()

	_, err := execute("scan", "-q",
		"--report", filepath.Join(tmpDir, "result.yaml"))
	if err == nil {
		t.Fatal("scan -q without credentials should return an error")
	}
	if !strings.Contains(err.Error(), "credentials_file is required") {
		t.Errorf("error should name the missing field, got: %v", err)
	}
}

func TestScanProjectsOnly(t *testing.T) {
	neutralizeEnv(t)

	scanRoot := t.TempDir()
	proj1 := filepath.Join(scanRoot, "proj1")
	if err := os.Mkdir(proj1, 0o755); err != nil {
		t.Fatal(err)
	}
	query := "SELECT * FROM `p.d.t1`"
	if err := os.WriteFile(filepath.Join(proj1, "query.sql"), []byte(query), 0o644); err != nil {
		t.Fatal(err)
	}

	reportPath := filepath.Join(t.TempDir(), "result.yaml")
	output, err := execute("scan", "-p",
		"--root", scanRoot,
		"--report", reportPath)
	if err != nil {
		t.Fatalf("scan -p error = %v", err)
	}
	if !strings.Contains(output, reportPath) {
		t.Errorf("scan output should mention the report path, got: %s", output)
	}

	data, err := os.ReadFile(reportPath)
	if err != nil {
		t.Fatalf("report not written: %v", err)
	}
	for _, want := range []string{"p.d.t1", "code", "proj1"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("report should contain %q, got:\n%s", want, data)
		}
	}
}

func TestScanBothSources(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("stub executable requires a POSIX shell")
	}
	neutralizeEnv(t)

	scanRoot := t.TempDir()
	proj1 := filepath.Join(scanRoot, "proj1")
	if err := os.Mkdir(proj1, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(proj1, "query.sql"), []byte("SELECT * FROM `p.d.t1`"), 0o644); err != nil {
		t.Fatal(err)
	}

	stubDir := t.TempDir()
	stub := filepath.Join(stubDir, "bq")
	payload := `[{"displayName":"job1","disabled":true,"params":{"query":"JOIN p.d.t2"}}]`
	script := "#!/bin/sh\ncat <<'EOF'\n" + payload + "\nEOF\n"
	if err := os.WriteFile(stub, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}

	credsFile := filepath.Join(stubDir, "creds.json")
	if err := os.WriteFile(credsFile, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	reportPath := filepath.Join(t.TempDir(), "result.yaml")
	_, err := execute("scan",
		"--root", scanRoot,
		"--report", reportPath,
		"--credentials", credsFile,
		"--project", "my-project",
		"--bq-path", stub)
	if err != nil {
		t.Fatalf("scan error = %v", err)
	}

	data, err := os.ReadFile(reportPath)
	if err != nil {
		t.Fatalf("report not written: %v", err)
	}
	report := string(data)
	for _, want := range []string{"p.d.t1", "proj1", "p.d.t2", "job1 (disabled)"} {
		if !strings.Contains(report, want) {
			t.Errorf("report should contain %q, got:\n%s", want, report)
		}
	}
}

func TestImpactFromReport(t *testing.T) {
	neutralizeEnv(t)

	scanRoot := t.TempDir()
	proj1 := filepath.Join(scanRoot, "proj1")
	if err := os.Mkdir(proj1, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(proj1, "query.sql"), []byte("SELECT * FROM `p.d.t1`"), 0o644); err != nil {
		t.Fatal(err)
	}

	reportPath := filepath.Join(t.TempDir(), "result.yaml")
	if _, err := execute("scan", "-p", "--root", scanRoot, "--report", reportPath); err != nil {
		t.Fatalf("scan -p error = %v", err)
	}

	output, err := execute("impact", "p.d.t1", "--from-report", reportPath)
	if err != nil {
		t.Fatalf("impact error = %v", err)
	}
	if !strings.Contains(output, "proj1") {
		t.Errorf("impact output should contain 'proj1', got: %s", output)
	}

	output, err = execute("impact", "p.d.missing", "--from-report", reportPath)
	if err != nil {
		t.Fatalf("impact miss error = %v", err)
	}
	if !strings.Contains(output, "No usages found") {
		t.Errorf("impact miss should report no usages, got: %s", output)
	}
}

func TestTablesFromReport(t *testing.T) {
	neutralizeEnv(t)

	scanRoot := t.TempDir()
	proj1 := filepath.Join(scanRoot, "proj1")
	if err := os.Mkdir(proj1, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(proj1, "query.sql"), []byte("SELECT * FROM `p.d.t1`"), 0o644); err != nil {
		t.Fatal(err)
	}

	reportPath := filepath.Join(t.TempDir(), "result.yaml")
	if _, err := execute("scan", "-p", "--root", scanRoot, "--report", reportPath); err != nil {
		t.Fatalf("scan -p error = %v", err)
	}

	output, err := execute("tables", "--from-report", reportPath)
	if err != nil {
		t.Fatalf("tables error = %v", err)
	}
	if !strings.Contains(output, "p.d.t1") {
		t.Errorf("tables output should contain 'p.d.t1', got: %s", output)
	}
}

func TestCompletionCommand(t *testing.T) {
	_, err := execute("completion", "bash")
	if err != nil {
		t.Errorf("completion bash error = %v", err)
	}

	_, err = execute("completion", "ksh")
	if err == nil {
		t.Error("completion with unsupported shell should return an error")
	}
}
