package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/aussiebroadwan/dpquery/pkg/dpsdk"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(t.Context())
	return stdout.String(), stderr.String(), err
}

func TestBaseURLFlagSelectsServer(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(dpsdk.PolicyResponse{
			DefaultEpsilon: 1,
			Epsilon:        map[string]float64{"revenue_by_region": 4},
		})
	}))
	t.Cleanup(srv.Close)

	stdout, stderr, err := run(t, "--base-url", srv.URL, "policy")
	require.NoError(t, err)
	require.Equal(t, int64(1), hits.Load())
	require.Contains(t, stdout, "revenue_by_region")
	require.Contains(t, stderr, "client initialized")
	require.Contains(t, stderr, srv.URL)
}

func TestBaseURLFromEnvironment(t *testing.T) {
	t.Setenv("DPQ_BASE_URL", "http://10.1.2.3:5000")

	cmd := newRootCmd(&bytes.Buffer{}, &bytes.Buffer{})
	flag := cmd.PersistentFlags().Lookup("base-url")
	require.Equal(t, "http://10.1.2.3:5000", flag.DefValue)
}

func TestDefaultBaseURL(t *testing.T) {
	t.Setenv("DPQ_BASE_URL", "")

	cmd := newRootCmd(&bytes.Buffer{}, &bytes.Buffer{})
	flag := cmd.PersistentFlags().Lookup("base-url")
	require.Equal(t, "http://127.0.0.1:5000", flag.DefValue)
}

func TestMalformedBaseURL(t *testing.T) {
	_, stderr, err := run(t, "--base-url", "not a url", "policy")
	require.ErrorIs(t, err, dpsdk.ErrInvalidBaseURL)
	require.Contains(t, stderr, "invalid base url")
}

func TestUnreachableServerReportsBaseURL(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	_, stderr, err := run(t, "--base-url", base, "health")
	require.Error(t, err)
	require.Contains(t, stderr, base)
}

func TestAnalyzeRejectsUnknownAnalysis(t *testing.T) {
	_, _, err := run(t, "analyze", "median")
	require.Error(t, err)
}
