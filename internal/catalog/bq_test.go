package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/bqscope/internal/testutil"
)

// writeStub writes an executable shell script standing in for the bq CLI.
// It records its arguments next to itself before emitting the body.
func writeStub(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("stub executable requires a POSIX shell")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "bq")
	script := "#!/bin/sh\necho \"$@\" > \"$(dirname \"$0\")/args\"\n" + body
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func TestBQClientFetchScheduledQueries(t *testing.T) {
	payload := `[{"displayName":"job1","disabled":true,"params":{"query":"JOIN p.d.t2"}},` +
		`{"displayName":"job2","params":{"query":"SELECT 1"}},` +
		`{"displayName":"empty","params":{}}]`
	stub := writeStub(t, "cat <<'EOF'\n"+payload+"\nEOF\n")

	client := NewBQClient(ClientConfig{
		CredentialsFile: "/tmp/creds.json",
		ProjectID:       "my-project",
		Location:        "EU",
		BinPath:         stub,
		Logger:          testutil.NewTestLogger(t),
	})

	records, err := client.FetchScheduledQueries(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, QueryRecord{Name: "job1", Query: "JOIN p.d.t2", Disabled: true}, records[0])
	assert.Equal(t, QueryRecord{Name: "job2", Query: "SELECT 1"}, records[1])
	assert.Equal(t, QueryRecord{Name: "empty"}, records[2])

	args, err := os.ReadFile(filepath.Join(filepath.Dir(stub), "args"))
	require.NoError(t, err)
	for _, want := range []string{
		"ls",
		"--application_default_credential_file=/tmp/creds.json",
		"--project_id=my-project",
		"--transfer_config",
		"--transfer_location=EU",
		"--format=prettyjson",
	} {
		assert.Contains(t, string(args), want)
	}
}

func TestBQClientCommandFailure(t *testing.T) {
	stub := writeStub(t, "echo 'credentials rejected' >&2\nexit 1\n")

	client := NewBQClient(ClientConfig{BinPath: stub})

	_, err := client.FetchScheduledQueries(context.Background())
	require.Error(t, err)

	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Contains(t, exitErr.Stderr, "credentials rejected")
	assert.Contains(t, err.Error(), "bq ls failed")
}

func TestBQClientInvalidJSON(t *testing.T) {
	stub := writeStub(t, "echo 'not json'\n")

	client := NewBQClient(ClientConfig{BinPath: stub})

	_, err := client.FetchScheduledQueries(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode transfer configs")
}

func TestBQClientDefaultsBinPath(t *testing.T) {
	client := NewBQClient(ClientConfig{})
	assert.Equal(t, "bq", client.binPath)
}
