package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/searchlens/searchlens/dataset"
)

type stubQueryClient struct {
	lastQuery string
	results   []map[string]interface{}
	err       error
}

func (s *stubQueryClient) Query(ctx context.Context, query string) ([]map[string]interface{}, error) {
	s.lastQuery = query
	return s.results, s.err
}

func (s *stubQueryClient) Initialize() error { return nil }
func (s *stubQueryClient) Close() error      { return nil }

func testServer(t *testing.T) (*Server, *stubQueryClient) {
	t.Helper()
	fs := afero.NewMemMapFs()
	files := map[string]string{
		dataset.FileMonthlyTrend: "month,subdomain,section,clicks,impressions,unique_pages\n" +
			"2022-01,www,home,100,1000,10\n",
		dataset.FilePageSummary: "page,short_name,subdomain,section,content_type,total_clicks,total_impressions,avg_position,ctr,cluster\n" +
			"/a,A,www,home,New Content,120,2000,2.5,6.0,alpha\n",
		dataset.FileClusterPerformance: "Cluster,pages,total_clicks,total_impressions,avg_position,avg_word_count,ctr,clicks_per_page\n" +
			"alpha,1,120,2000,2.5,1500,6.0,120\n",
		dataset.FileWeeklyTrend: "week,clicks,impressions,content_type\n" +
			"2022-W01,40,400,New Content\n",
		dataset.FileMonthlyByCluster: "month,Cluster,clicks\n" +
			"2022-01,alpha,60\n",
	}
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fs, "data/"+name, []byte(content), 0o644))
	}

	qc := &stubQueryClient{results: []map[string]interface{}{{"value": int64(42)}}}
	return NewServer(fs, "data", dataset.NewLoader(fs, "data"), qc, ""), qc
}

func TestPageEndpoints(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.Routes()

	paths := []string{
		"/api/overview",
		"/api/monthly",
		"/api/weekly",
		"/api/pages",
		"/api/clusters",
		"/api/content-types",
		"/api/sections",
		"/api/positions",
	}
	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		})
	}
}

func TestOverviewEndpointBody(t *testing.T) {
	srv, _ := testServer(t)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/overview", nil))

	var o Overview
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &o))
	assert.Equal(t, float64(100), o.TotalClicks)
	assert.Equal(t, "2022-01", o.PeakMonth)
}

func TestQueryEndpoint(t *testing.T) {
	srv, qc := testServer(t)
	body := strings.NewReader(`{"query":"SELECT count(*) AS value FROM page_summary"}`)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/query", body))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "SELECT count(*) AS value FROM page_summary", qc.lastQuery)
	assert.Contains(t, rec.Body.String(), `"42"`)
}

func TestQueryEndpointRejectsEmptyQuery(t *testing.T) {
	srv, _ := testServer(t)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/query", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDatasetExport(t *testing.T) {
	srv, _ := testServer(t)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/data/weekly_trend", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "2022-W01")
}

func TestDatasetExportUnknown(t *testing.T) {
	srv, _ := testServer(t)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/data/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLoadFailureReturns503(t *testing.T) {
	fs := afero.NewMemMapFs() // no files at all
	qc := &stubQueryClient{}
	srv := NewServer(fs, "data", dataset.NewLoader(fs, "data"), qc, "")

	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/overview", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHealth(t *testing.T) {
	srv, _ := testServer(t)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestCORSPreflight(t *testing.T) {
	srv, _ := testServer(t)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/overview", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
