package app

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	return Config{
		Host:                 "127.0.0.1",
		Port:                 0,
		DataFile:             filepath.Join("..", "dataset", "testdata", "sample.csv"),
		DatabaseFile:         ":memory:",
		AuditRetention:       time.Hour,
		Env:                  "test",
		LogLevel:             "error",
		LogFormat:            "text",
		ShutdownGracePeriod:  time.Second,
		HousekeepingInterval: time.Hour,
	}
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestNewLoadsDatasetAndServes(t *testing.T) {
	app, err := New(testConfig(t))
	require.NoError(t, err)
	app.housekeepingService.Start()
	t.Cleanup(func() { _ = app.Shutdown() })

	require.True(t, app.queryService.Loaded())
	require.Equal(t, http.StatusOK, get(t, app.Handler(), "/readyz").Code)

	rec := httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/query",
		strings.NewReader(`{"type":"total_revenue","use_dp":false}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `"result":252.5`)
}

func TestNewWithMissingDatasetStillStarts(t *testing.T) {
	cfg := testConfig(t)
	cfg.DataFile = filepath.Join(t.TempDir(), "missing.csv")

	app, err := New(cfg)
	require.NoError(t, err)
	app.housekeepingService.Start()
	t.Cleanup(func() { _ = app.Shutdown() })

	require.False(t, app.queryService.Loaded())
	require.Equal(t, http.StatusServiceUnavailable, get(t, app.Handler(), "/readyz").Code)
	require.Equal(t, http.StatusOK, get(t, app.Handler(), "/livez").Code)
}

func TestNewUsesPolicyFile(t *testing.T) {
	cfg := testConfig(t)
	cfg.PolicyFile = filepath.Join(t.TempDir(), "policy.toml")
	require.NoError(t, os.WriteFile(cfg.PolicyFile, []byte("[epsilon]\ntotal_revenue = 0.1\n"), 0o600))

	app, err := New(cfg)
	require.NoError(t, err)
	app.housekeepingService.Start()
	t.Cleanup(func() { _ = app.Shutdown() })

	require.Equal(t, 0.1, app.queryService.Policy.EpsilonFor("total_revenue"))
}

func TestNewRejectsInvalidPolicy(t *testing.T) {
	cfg := testConfig(t)
	cfg.PolicyFile = filepath.Join(t.TempDir(), "policy.toml")
	require.NoError(t, os.WriteFile(cfg.PolicyFile, []byte("default_epsilon = -1\n"), 0o600))

	_, err := New(cfg)
	require.Error(t, err)
}

func TestNewRejectsInvalidTrustedProxies(t *testing.T) {
	cfg := testConfig(t)
	cfg.TrustedProxies = "10.0.0.0/8, not-a-network"

	_, err := New(cfg)
	require.ErrorContains(t, err, "TRUSTED_PROXIES")
}

func TestForwardedForOnlyHonouredFromTrustedProxy(t *testing.T) {
	cfg := testConfig(t)
	cfg.TrustedProxies = "10.0.0.0/8"

	app, err := New(cfg)
	require.NoError(t, err)
	app.housekeepingService.Start()
	t.Cleanup(func() { _ = app.Shutdown() })

	for _, remote := range []string{"10.1.1.1:4000", "192.0.2.50:4000"} {
		req := httptest.NewRequest(http.MethodPost, "/api/query",
			strings.NewReader(`{"type":"total_revenue","use_dp":false}`))
		req.RemoteAddr = remote
		req.Header.Set("X-Forwarded-For", "198.51.100.9")
		rec := httptest.NewRecorder()
		app.Handler().ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	entries, err := app.queryService.RecentQueries(t.Context(), 10, "")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "192.0.2.50", entries[0].RemoteAddr)
	require.Equal(t, "198.51.100.9", entries[1].RemoteAddr)
}
