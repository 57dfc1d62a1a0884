package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoofbeat/hoofbeat-go/internal/conf"
	"github.com/hoofbeat/hoofbeat-go/internal/datastore"
	"github.com/hoofbeat/hoofbeat-go/internal/geocoding"
	"github.com/hoofbeat/hoofbeat-go/internal/parsers"
	"github.com/hoofbeat/hoofbeat-go/internal/scanner"
)

type emptyParser struct{}

func (emptyParser) Fetch(_ context.Context, _ string) ([]parsers.ExtractedCompetition, error) {
	return nil, nil
}

type testEnv struct {
	controller *Controller
	store      datastore.Interface
	source     datastore.Source
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	settings := &conf.Settings{}
	settings.Main.Name = "HoofBeat-Go"
	settings.Database.Path = filepath.Join(t.TempDir(), "api_test.db")
	settings.Server.Port = 0

	store := datastore.New(settings)
	require.NoError(t, store.Open())
	t.Cleanup(func() { _ = store.Close() })

	parserKey := "api_stub_" + strings.ToLower(t.Name())
	parsers.Register(parserKey, emptyParser{})

	source := datastore.Source{
		Name:      "API Test Source",
		URL:       "https://listings.test/events",
		ParserKey: parserKey,
		Enabled:   true,
	}
	require.NoError(t, store.UpsertSource(&source))

	geocoder := geocoding.New(settings)
	t.Cleanup(geocoder.Close)
	orchestrator := scanner.New(settings, store, geocoder)
	t.Cleanup(orchestrator.Wait)

	return &testEnv{
		controller: New(settings, store, orchestrator),
		store:      store,
		source:     source,
	}
}

func (e *testEnv) request(method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echoContentType, "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	e.controller.Echo.ServeHTTP(rec, req)
	return rec
}

const echoContentType = "Content-Type"

func TestStartScanSingleSource(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request(http.MethodPost, "/api/v1/scans",
		`{"source_id": `+uintString(env.source.ID)+`}`)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	var resp struct {
		ScanIDs []uint `json:"scan_ids"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.ScanIDs, 1)
}

func TestStartScanAllSources(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request(http.MethodPost, "/api/v1/scans", "")
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	var resp struct {
		ScanIDs []uint `json:"scan_ids"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.ScanIDs)
}

func TestStartScanBusySourceIsSkipped(t *testing.T) {
	env := newTestEnv(t)

	scan := &datastore.Scan{SourceID: &env.source.ID, Status: datastore.ScanStatusRunning}
	require.NoError(t, env.store.CreateScan(scan))

	rec := env.request(http.MethodPost, "/api/v1/scans",
		`{"source_id": `+uintString(env.source.ID)+`}`)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	var resp struct {
		ScanIDs []uint `json:"scan_ids"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.ScanIDs)
}

func TestStartScanUnknownSource(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request(http.MethodPost, "/api/v1/scans", `{"source_id": 99999}`)
	assert.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())
}

func TestCancelUnknownScan(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request(http.MethodPost, "/api/v1/scans/99999/cancel", "")
	assert.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())
}

func TestCancelInvalidScanID(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request(http.MethodPost, "/api/v1/scans/abc/cancel", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListScansMostRecentFirst(t *testing.T) {
	env := newTestEnv(t)

	for range 3 {
		scan := &datastore.Scan{SourceID: &env.source.ID, Status: datastore.ScanStatusCompleted}
		require.NoError(t, env.store.CreateScan(scan))
		time.Sleep(5 * time.Millisecond)
	}

	rec := env.request(http.MethodGet, "/api/v1/scans", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var scans []scanSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &scans))
	require.Len(t, scans, 3)
	assert.Greater(t, scans[0].ID, scans[1].ID)
	assert.Greater(t, scans[1].ID, scans[2].ID)
}

func TestListScansLimit(t *testing.T) {
	env := newTestEnv(t)

	for range 5 {
		scan := &datastore.Scan{SourceID: &env.source.ID, Status: datastore.ScanStatusCompleted}
		require.NoError(t, env.store.CreateScan(scan))
	}

	rec := env.request(http.MethodGet, "/api/v1/scans?limit=2", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var scans []scanSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &scans))
	assert.Len(t, scans, 2)
}

func TestListScansInvalidLimit(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request(http.MethodGet, "/api/v1/scans?limit=bogus", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func uintString(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}
