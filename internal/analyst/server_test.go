package analyst

import (
	"bytes"
	"testing"
	"time"

	"github.com/aussiebroadwan/dpquery/pkg/dpsdk"
	"github.com/stretchr/testify/require"
)

func TestWritePolicy(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WritePolicy(&buf, &dpsdk.PolicyResponse{
		DefaultEpsilon: 1,
		Epsilon:        map[string]float64{"count_by_fingerprint": 0.2, "revenue_by_region": 4},
	}))

	out := buf.String()
	require.Contains(t, out, "count_by_fingerprint")
	require.Contains(t, out, "0.2")
	require.Contains(t, out, "(default)")
}

func TestWriteHistory(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteHistory(&buf, []dpsdk.AuditEntry{
		{Type: "total_revenue", UseDP: true, Epsilon: 0.5, Status: 200, RemoteAddr: "10.0.0.9", CreatedAt: time.Now()},
		{Type: "median", Status: 400, RemoteAddr: "10.0.0.9", CreatedAt: time.Now()},
	}))

	out := buf.String()
	require.Contains(t, out, "total_revenue")
	require.Contains(t, out, "0.5")
	require.Contains(t, out, "400")
	require.Contains(t, out, "10.0.0.9")
}

func TestWriteHealth(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteHealth(&buf,
		&dpsdk.HealthResponse{Status: "ok", Version: "v0.1.0", Uptime: "1m"},
		&dpsdk.HealthResponse{Status: "degraded", Checks: &dpsdk.HealthChecks{Database: "ok", Dataset: "error: not loaded"}},
	))

	out := buf.String()
	require.Contains(t, out, "v0.1.0")
	require.Contains(t, out, "degraded")
	require.Contains(t, out, "not loaded")
}

func TestWriteHealthToleratesMissingResponses(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NotPanics(t, func() {
		require.NoError(t, WriteHealth(&buf, nil, &dpsdk.HealthResponse{Status: "ok"}))
	})
	require.Contains(t, buf.String(), "Readiness")
	require.NotContains(t, buf.String(), "Liveness")

	buf.Reset()
	require.NoError(t, WriteHealth(&buf, &dpsdk.HealthResponse{Status: "ok", Version: "v0.1.0"}, nil))
	require.Contains(t, buf.String(), "v0.1.0")
	require.NotContains(t, buf.String(), "Readiness")
}
