package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/leapstack-labs/bqscope/internal/cli/output"
	"github.com/leapstack-labs/bqscope/internal/index"
)

func TestRenderImpactTextFound(t *testing.T) {
	r, buf := newBufferRenderer(output.ModeText)

	entry := index.Entry{
		Table:   "p.d.t1",
		Queries: []string{"daily rollup", "job1 (disabled)"},
		Code:    []string{"proj1", "proj2"},
	}
	renderImpactText(r, "p.d.t1", entry, true)

	got := buf.String()
	assert.Contains(t, got, "p.d.t1")
	assert.Contains(t, got, "Scheduled queries:")
	assert.Contains(t, got, "  - daily rollup")
	assert.Contains(t, got, "  - job1 (disabled)")
	assert.Contains(t, got, "Projects:")
	assert.Contains(t, got, "  - proj1")
	assert.Contains(t, got, "  - proj2")
}

func TestRenderImpactTextNotFound(t *testing.T) {
	r, buf := newBufferRenderer(output.ModeText)

	renderImpactText(r, "p.d.ghost", index.Entry{}, false)

	assert.Contains(t, buf.String(), "No usages found for p.d.ghost")
}

func TestRenderImpactTextCodeOnly(t *testing.T) {
	r, buf := newBufferRenderer(output.ModeText)

	renderImpactText(r, "p.d.t1", index.Entry{Table: "p.d.t1", Code: []string{"proj1"}}, true)

	got := buf.String()
	assert.NotContains(t, got, "Scheduled queries:")
	assert.Contains(t, got, "Projects:")
}

func TestRenderImpactMarkdown(t *testing.T) {
	r, buf := newBufferRenderer(output.ModeMarkdown)

	entry := index.Entry{
		Table:   "p.d.t1",
		Queries: []string{"daily rollup"},
		Code:    []string{"proj1"},
	}
	renderImpactMarkdown(r, "p.d.t1", entry, true)

	got := buf.String()
	assert.Contains(t, got, "# Impact: p.d.t1")
	assert.Contains(t, got, "## Scheduled Queries")
	assert.Contains(t, got, "- daily rollup")
	assert.Contains(t, got, "## Projects")
	assert.Contains(t, got, "- proj1")
}

func TestRenderImpactMarkdownNotFound(t *testing.T) {
	r, buf := newBufferRenderer(output.ModeMarkdown)

	renderImpactMarkdown(r, "p.d.ghost", index.Entry{}, false)

	got := buf.String()
	assert.Contains(t, got, "# Impact: p.d.ghost")
	assert.Contains(t, got, "No usages found.")
}
