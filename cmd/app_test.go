package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/locality-intel/internal/config"
	"github.com/sells-group/locality-intel/internal/model"
	"github.com/sells-group/locality-intel/internal/report"
)

func testConfig(baseURL string) *config.Config {
	return &config.Config{
		Search: config.SearchConfig{
			BaseURL:          baseURL,
			UserAgent:        "locality-intel-test",
			Language:         "en",
			ResultLimit:      30,
			TimeoutSecs:      5,
			RateLimit:        1000,
			CacheEntries:     16,
			CacheTTLMins:     5,
			BreakerThreshold: 3,
			BreakerResetSecs: 60,
		},
		Landmark: config.LandmarkConfig{Region: "Noida, Uttar Pradesh", MaxItems: 10},
		Report:   config.ReportConfig{Mode: "live"},
		Server:   config.ServerConfig{Port: 8080},
		Log:      config.LogConfig{Level: "error", Format: "json"},
	}
}

const searchFixture = `[
  {"place_id": 1, "display_name": "Fortis Hospital, Sector 62, Noida, Uttar Pradesh", "lat": "28.6187", "lon": "77.3727", "address": {"suburb": "Sector 62"}},
  {"place_id": 2, "display_name": "Sector 62 Metro Station, Blue Line, Noida", "lat": "28.6180", "lon": "77.3740", "address": {"suburb": "Sector 62"}},
  {"place_id": 3, "display_name": "Some Park, Noida", "lat": "28.61", "lon": "77.37"}
]`

func TestInitApp_LiveEndToEnd(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "landmarks and metro stations near Sector 62, Noida, Uttar Pradesh", r.URL.Query().Get("q"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(searchFixture))
	}))
	defer srv.Close()

	env, err := initApp(testConfig(srv.URL), false)
	require.NoError(t, err)
	require.NotNil(t, env.Search)
	require.NotNil(t, env.Breaker)
	assert.Equal(t, report.ModeLive, env.Assembler.Mode())

	rep, err := env.Assembler.Build(context.Background(), report.Request{City: "Noida", Sector: "Sector 62"})
	require.NoError(t, err)

	assert.Equal(t, report.SourceLive, rep.Source)
	assert.Equal(t, "sec-62", rep.Sector.ID)
	require.Len(t, rep.Sector.Infrastructure, 2)
	assert.Equal(t, "Fortis Hospital", rep.Sector.Infrastructure[0].Name)
	assert.Equal(t, model.CategoryHospital, rep.Sector.Infrastructure[0].Category)
	assert.Equal(t, "Delhi Metro Blue Line", rep.Sector.Infrastructure[1].Importance)
	require.NotNil(t, rep.MapPreview)
	assert.Len(t, rep.MapPreview.Features, 2)

	// Second report for the same sector is served from the cache.
	_, err = env.Assembler.Build(context.Background(), report.Request{City: "Noida", Sector: "sector 62"})
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestInitApp_UpstreamFailureFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	env, err := initApp(testConfig(srv.URL), false)
	require.NoError(t, err)

	rep, err := env.Assembler.Build(context.Background(), report.Request{City: "Noida", Sector: "Sector 150"})
	require.NoError(t, err)
	assert.Equal(t, report.SourceStatic, rep.Source)
	assert.Equal(t, "sec-150", rep.Sector.ID)

	rep, err = env.Assembler.Build(context.Background(), report.Request{City: "Noida", Sector: "Sector 137"})
	require.NoError(t, err)
	assert.Equal(t, report.SourceGeneric, rep.Source)
	assert.Len(t, rep.Sector.Infrastructure, 3)
}

func TestInitApp_Static(t *testing.T) {
	env, err := initApp(testConfig("http://127.0.0.1:1"), true)
	require.NoError(t, err)
	assert.Nil(t, env.Search)
	assert.Nil(t, env.Breaker)
	assert.Equal(t, report.ModeStatic, env.Assembler.Mode())

	rep, err := env.Assembler.Build(context.Background(), report.Request{City: "Noida", Sector: "Sector 150"})
	require.NoError(t, err)
	assert.Equal(t, report.SourceStatic, rep.Source)
}

func TestInitApp_BadMode(t *testing.T) {
	c := testConfig("http://127.0.0.1:1")
	c.Report.Mode = "cached"
	_, err := initApp(c, false)
	assert.Error(t, err)
}

func TestLoadCatalog_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	doc := `sectors:
  - id: sec-1
    name: Sector 1
    overall_score: 70
    label: Good
    breakdown: {connectivity: 70, healthcare: 70, education: 70, retail: 70, employment: 70}
    summary: Test sector.
use_cases: []
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	cat, err := loadCatalog(config.CatalogConfig{Path: path})
	require.NoError(t, err)
	require.Len(t, cat.Sectors(), 1)
	assert.Equal(t, "sec-1", cat.Sectors()[0].ID)
}

func TestLoadCatalog_MissingFile(t *testing.T) {
	_, err := loadCatalog(config.CatalogConfig{Path: filepath.Join(t.TempDir(), "nope.yaml")})
	assert.Error(t, err)
}

func TestInitApp_ResubmittedSectorStaysLive(t *testing.T) {
	var hits atomic.Int32
	started := make(chan struct{}, 4)
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		started <- struct{}{}
		<-release
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(searchFixture))
	}))
	defer srv.Close()

	env, err := initApp(testConfig(srv.URL), false)
	require.NoError(t, err)
	session := report.NewSession(env.Assembler)
	req := report.Request{City: "Noida", Sector: "Sector 62"}

	firstErr := make(chan error, 1)
	go func() {
		_, err := session.Submit(context.Background(), req)
		firstErr <- err
	}()
	<-started

	type result struct {
		rep *report.Report
		err error
	}
	second := make(chan result, 1)
	go func() {
		rep, err := session.Submit(context.Background(), req)
		second <- result{rep: rep, err: err}
	}()

	assert.ErrorIs(t, <-firstErr, report.ErrSuperseded)
	close(release)

	res := <-second
	require.NoError(t, res.err)
	assert.Equal(t, report.SourceLive, res.rep.Source)
	assert.Len(t, res.rep.Sector.Infrastructure, 2)
	assert.Equal(t, int32(1), hits.Load())
}
