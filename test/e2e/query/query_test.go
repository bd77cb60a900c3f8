//go:build e2e

package query_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/aussiebroadwan/dpquery/pkg/dpsdk"
	"github.com/stretchr/testify/require"
)

func TestHealth(t *testing.T) {
	client := setupQueryContainer(t, true)

	live, err := client.GetLiveness(t.Context())
	require.NoError(t, err)
	require.Equal(t, "ok", live.Status)

	ready, err := client.GetReadiness(t.Context())
	require.NoError(t, err)
	require.Equal(t, "ok", ready.Checks.Dataset)
}

func TestExactAndPrivateQueries(t *testing.T) {
	client := setupQueryContainer(t, true)
	ctx := t.Context()

	exact, err := client.RevenueByRegion(ctx, false)
	require.NoError(t, err)
	require.InDelta(t, 162.5, exact["Fiber"], 1e-9)
	require.InDelta(t, 90.0, exact["DSL"], 1e-9)

	private, err := client.RevenueByRegion(ctx, true)
	require.NoError(t, err)
	require.Len(t, private, len(exact))

	total, err := client.TotalRevenue(ctx, false)
	require.NoError(t, err)
	without, err := client.TotalRevenueExcluding(ctx, false, 0)
	require.NoError(t, err)
	require.InDelta(t, 120.5, total-without, 1e-9)

	resp, err := client.Query(ctx, dpsdk.QueryRequest{Type: dpsdk.QueryTotalRevenue, UseDP: true})
	require.NoError(t, err)
	require.Equal(t, 0.5, resp.Epsilon)

	entries, err := client.RecentQueries(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 5)
}

func TestUnsupportedQuery(t *testing.T) {
	client := setupQueryContainer(t, true)

	_, err := client.Query(t.Context(), dpsdk.QueryRequest{Type: "median_revenue"})
	var apiErr *dpsdk.APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	require.Equal(t, dpsdk.ErrorCodeUnsupportedQueryType, apiErr.Code)
}

func TestServerWithoutDataset(t *testing.T) {
	client := setupQueryContainer(t, false)

	_, err := client.TotalRevenue(t.Context(), false)
	var apiErr *dpsdk.APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	require.Equal(t, "Server data not loaded.", apiErr.Description)

	_, err = client.GetReadiness(t.Context())
	require.ErrorIs(t, err, dpsdk.ErrNotReady)
}
