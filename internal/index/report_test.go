package index

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestReportYAMLRoundTrip(t *testing.T) {
	report := Merge(
		map[string]map[string]struct{}{
			"p.d.t1": {"proj1": {}},
			"p.d.t3": {"proj1": {}, "proj2": {}},
		},
		map[string][]string{
			"p.d.t2": {"job1 (disabled)"},
			"p.d.t3": {"hourly sync"},
		},
	)

	data, err := yaml.Marshal(report)
	require.NoError(t, err)

	var parsed Report
	require.NoError(t, yaml.Unmarshal(data, &parsed))
	assert.Equal(t, report.Entries, parsed.Entries)
}

func TestReportYAMLOmitsAbsentSides(t *testing.T) {
	report := Merge(
		map[string]map[string]struct{}{"p.d.t1": {"proj1": {}}},
		map[string][]string{"p.d.t2": {"job1 (disabled)"}},
	)

	data, err := yaml.Marshal(report)
	require.NoError(t, err)
	doc := string(data)

	t1 := strings.Index(doc, "p.d.t1:")
	t2 := strings.Index(doc, "p.d.t2:")
	require.GreaterOrEqual(t, t1, 0)
	require.Greater(t, t2, t1, "entries must serialize in sorted order")

	// The t1 block carries only code, the t2 block only queries.
	assert.NotContains(t, doc[t1:t2], "queries:")
	assert.Contains(t, doc[t1:t2], "code:")
	assert.Contains(t, doc[t1:t2], "- proj1")
	assert.NotContains(t, doc[t2:], "code:")
	assert.Contains(t, doc[t2:], "queries:")
	assert.Contains(t, doc[t2:], "- job1 (disabled)")
}

func TestReportYAMLIsByteDeterministic(t *testing.T) {
	build := func() *Report {
		return Merge(
			map[string]map[string]struct{}{
				"a.b.c": {"p3": {}, "p1": {}, "p2": {}},
				"d.e.f": {"p1": {}},
			},
			map[string][]string{
				"a.b.c": {"q-late", "q-early"},
			},
		)
	}

	first, err := yaml.Marshal(build())
	require.NoError(t, err)
	second, err := yaml.Marshal(build())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestReportYAMLEmpty(t *testing.T) {
	data, err := yaml.Marshal(&Report{})
	require.NoError(t, err)

	var parsed Report
	require.NoError(t, yaml.Unmarshal(data, &parsed))
	assert.Empty(t, parsed.Entries)
}

func TestReportUnmarshalRejectsNonMapping(t *testing.T) {
	var report Report
	err := yaml.Unmarshal([]byte("- just\n- a\n- list\n"), &report)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "report root must be a mapping")
}
