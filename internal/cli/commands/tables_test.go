package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/bqscope/internal/cli/output"
	"github.com/leapstack-labs/bqscope/internal/index"
)

func sampleReport() *index.Report {
	return index.Merge(
		map[string]map[string]struct{}{
			"p.d.t1": {"proj1": {}, "proj2": {}},
		},
		map[string][]string{
			"p.d.t1": {"daily rollup"},
			"p.d.t2": {"job1 (disabled)", "job2"},
		},
	)
}

func TestBuildTablesOutput(t *testing.T) {
	out := buildTablesOutput(sampleReport())

	assert.Equal(t, 2, out.Count)
	require.Len(t, out.Tables, 2)
	assert.Equal(t, TableUsage{Table: "p.d.t1", Queries: 1, Code: 2}, out.Tables[0])
	assert.Equal(t, TableUsage{Table: "p.d.t2", Queries: 2, Code: 0}, out.Tables[1])
}

func TestRenderTablesText(t *testing.T) {
	r, buf := newBufferRenderer(output.ModeText)

	renderTablesText(r, sampleReport())

	got := buf.String()
	// go-pretty's light style upper-cases headers
	assert.Contains(t, got, "TABLE")
	assert.Contains(t, got, "QUERIES")
	assert.Contains(t, got, "CODE")
	assert.Contains(t, got, "p.d.t1")
	assert.Contains(t, got, "p.d.t2")
	assert.Contains(t, got, "2 tables")
}

func TestRenderTablesTextEmpty(t *testing.T) {
	r, buf := newBufferRenderer(output.ModeText)

	renderTablesText(r, &index.Report{})

	assert.Contains(t, buf.String(), "No tables in the index.")
}

func TestRenderTablesMarkdown(t *testing.T) {
	r, buf := newBufferRenderer(output.ModeMarkdown)

	renderTablesMarkdown(r, sampleReport())

	got := buf.String()
	assert.Contains(t, got, "# Tables")
	assert.Contains(t, got, "| Table | Queries | Code |")
	assert.Contains(t, got, "| p.d.t1 | 1 | 2 |")
	assert.Contains(t, got, "| p.d.t2 | 2 | 0 |")
	assert.Contains(t, got, "2 tables")
}

func TestRenderTablesMarkdownEmpty(t *testing.T) {
	r, buf := newBufferRenderer(output.ModeMarkdown)

	renderTablesMarkdown(r, &index.Report{})

	assert.Contains(t, buf.String(), "No tables in the index.")
}
