package commands

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewVersionCommand(t *testing.T) {
	tests := []struct {
		name    string
		info    VersionInfo
		wantOut []string
	}{
		{
			name:    "default version",
			info:    VersionInfo{Version: "0.1.0", Commit: "abc1234", Date: "2026-01-01"},
			wantOut: []string{"bqscope v0.1.0", "abc1234", "2026-01-01"},
		},
		{
			name:    "custom version",
			info:    VersionInfo{Version: "1.2.3"},
			wantOut: []string{"bqscope v1.2.3"},
		},
		{
			name:    "dev version",
			info:    VersionInfo{Version: "dev"},
			wantOut: []string{"bqscope vdev"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := NewVersionCommand(tt.info)
			buf := new(bytes.Buffer)
			cmd.SetOut(buf)
			cmd.SetErr(buf)

			err := cmd.Execute()
			if err != nil {
				t.Errorf("Execute() error = %v", err)
				return
			}

			output := buf.String()
			for _, want := range tt.wantOut {
				if !strings.Contains(output, want) {
					t.Errorf("output should contain %q, got: %s", want, output)
				}
			}
		})
	}
}

func TestVersionCommandShort(t *testing.T) {
	cmd := NewVersionCommand(VersionInfo{Version: "1.2.3", Commit: "abc1234"})
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--short"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if got := strings.TrimSpace(buf.String()); got != "1.2.3" {
		t.Errorf("--short output = %q, want %q", got, "1.2.3")
	}
}

func TestVersionCommandMetadata(t *testing.T) {
	cmd := NewVersionCommand(VersionInfo{Version: "test"})

	if cmd.Use != "version" {
		t.Errorf("Use = %q, want %q", cmd.Use, "version")
	}

	if cmd.Short == "" {
		t.Error("Short should not be empty")
	}

	if cmd.Long == "" {
		t.Error("Long should not be empty")
	}
}
