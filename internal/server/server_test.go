package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/bqscope/internal/index"
)

func testReport() *index.Report {
	return index.Merge(
		map[string]map[string]struct{}{
			"proj.ds.events": {"proj1": {}},
			"proj.ds.users":  {"proj1": {}, "proj2": {}},
		},
		map[string][]string{
			"proj.ds.events": {"daily rollup"},
		},
	)
}

func newTestServer(t *testing.T, report *index.Report) *httptest.Server {
	t.Helper()
	srv := New(Config{Addr: ":0", Report: report})
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

func getJSON(t *testing.T, url string, v any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	return resp.StatusCode
}

func TestHandleTables(t *testing.T) {
	ts := newTestServer(t, testReport())

	var body struct {
		Tables []index.Entry `json:"tables"`
		Count  int           `json:"count"`
	}
	status := getJSON(t, ts.URL+"/api/tables", &body)

	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 2, body.Count)
	require.Len(t, body.Tables, 2)
	assert.Equal(t, "proj.ds.events", body.Tables[0].Table)
	assert.Equal(t, []string{"daily rollup"}, body.Tables[0].Queries)
	assert.Equal(t, "proj.ds.users", body.Tables[1].Table)
	assert.Equal(t, []string{"proj1", "proj2"}, body.Tables[1].Code)
}

func TestHandleTableFound(t *testing.T) {
	ts := newTestServer(t, testReport())

	var entry index.Entry
	status := getJSON(t, ts.URL+"/api/tables/proj.ds.events", &entry)

	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "proj.ds.events", entry.Table)
	assert.Equal(t, []string{"daily rollup"}, entry.Queries)
	assert.Equal(t, []string{"proj1"}, entry.Code)
}

func TestHandleTableNotFound(t *testing.T) {
	ts := newTestServer(t, testReport())

	var body struct {
		Error string `json:"error"`
	}
	status := getJSON(t, ts.URL+"/api/tables/proj.ds.missing", &body)

	require.Equal(t, http.StatusNotFound, status)
	assert.Contains(t, body.Error, "proj.ds.missing")
}

func TestHandleHealthz(t *testing.T) {
	ts := newTestServer(t, testReport())

	var body struct {
		Status string `json:"status"`
	}
	status := getJSON(t, ts.URL+"/healthz", &body)

	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body.Status)
}

func TestNewNilReport(t *testing.T) {
	ts := newTestServer(t, nil)

	var body struct {
		Count int `json:"count"`
	}
	status := getJSON(t, ts.URL+"/api/tables", &body)

	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 0, body.Count)
}
