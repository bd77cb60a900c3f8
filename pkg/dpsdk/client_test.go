package dpsdk

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewClientBaseURL(t *testing.T) {
	t.Parallel()

	t.Run("empty selects local default", func(t *testing.T) {
		c, err := NewClient("")
		require.NoError(t, err)
		require.Equal(t, "http://127.0.0.1:5000", c.BaseURL())
		require.Equal(t, DefaultBaseURL, c.BaseURL())
	})

	t.Run("stores the exact value", func(t *testing.T) {
		for _, in := range []string{
			"http://192.168.1.20:5000",
			"http://192.168.1.20:5000/",
			"https://dp.example.com",
			"http://[::1]:5000",
		} {
			c, err := NewClient(in)
			require.NoError(t, err)
			require.Equal(t, in, c.BaseURL())
		}
	})

	t.Run("rejects malformed values", func(t *testing.T) {
		for _, in := range []string{
			"127.0.0.1:5000",
			"ftp://127.0.0.1:5000",
			"http://",
			"http://host:5000?x=1",
			"://nope",
			"http://bad host:5000",
		} {
			_, err := NewClient(in)
			require.ErrorIs(t, err, ErrInvalidBaseURL, in)
		}
	})
}

func TestURLJoin(t *testing.T) {
	t.Parallel()

	c, err := NewClient("http://10.0.0.5:5000/")
	require.NoError(t, err)
	require.Equal(t, "http://10.0.0.5:5000/api/query", c.url("/api/query"))

	c, err = NewClient("http://10.0.0.5:5000/dp")
	require.NoError(t, err)
	require.Equal(t, "http://10.0.0.5:5000/dp/livez", c.url("/livez"))
}

func countingServer(t *testing.T, hits *atomic.Int64) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(HealthResponse{Status: "ok"})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRequestsGoToConfiguredServer(t *testing.T) {
	t.Parallel()

	var hitsA, hitsB atomic.Int64
	srvA := countingServer(t, &hitsA)
	srvB := countingServer(t, &hitsB)

	clientB, err := NewClient(srvB.URL)
	require.NoError(t, err)

	_, err = clientB.GetLiveness(t.Context())
	require.NoError(t, err)
	require.Equal(t, int64(0), hitsA.Load())
	require.Equal(t, int64(1), hitsB.Load())

	clientA, err := NewClient(srvA.URL)
	require.NoError(t, err)

	_, err = clientA.GetLiveness(t.Context())
	require.NoError(t, err)
	require.Equal(t, int64(1), hitsA.Load())
	require.Equal(t, int64(1), hitsB.Load())
}

func TestUnreachableServerNamesBaseURL(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c, err := NewClient(base)
	require.NoError(t, err)

	_, err = c.GetLiveness(t.Context())
	require.Error(t, err)
	require.Contains(t, err.Error(), base)
}

func TestQueryHelpers(t *testing.T) {
	t.Parallel()

	seen := make(chan QueryRequest, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/query", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req QueryRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		seen <- req

		var result any
		switch req.Type {
		case QueryRevenueByRegion:
			result = map[string]float64{"Fiber": 10.5}
		case QueryCountByCategory:
			result = map[string]int64{"Gold": -2}
		case QueryCountByFingerprint:
			result = 3
		case QueryTotalRevenue:
			result = 99.5
		default:
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(ErrorResponse{
				Error:            ErrorCodeUnsupportedQueryType,
				ErrorDescription: "Unsupported query type.",
			})
			return
		}

		raw, _ := json.Marshal(result)
		_ = json.NewEncoder(w).Encode(QueryResponse{Result: raw, QueryID: "q1"})
	}))
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL)
	require.NoError(t, err)
	ctx := t.Context()

	rev, err := c.RevenueByRegion(ctx, true)
	require.NoError(t, err)
	require.Equal(t, map[string]float64{"Fiber": 10.5}, rev)
	last := <-seen
	require.True(t, last.UseDP)
	require.Nil(t, last.Params)

	counts, err := c.CountByCategory(ctx, false)
	require.NoError(t, err)
	require.Equal(t, map[string]int64{"Gold": -2}, counts)
	<-seen

	n, err := c.CountByFingerprint(ctx, true, Fingerprint{Year: 2022, Month: 12, LOS: "05. 1-3yr", Channel: "MyTelkomsel"})
	require.NoError(t, err)
	require.Equal(t, int64(3), n)
	last = <-seen
	require.NotNil(t, last.Params)
	require.Equal(t, 2022, *last.Params.Year)
	require.Equal(t, 12, *last.Params.Month)
	require.Equal(t, "MyTelkomsel", last.Params.Channel)

	total, err := c.TotalRevenueExcluding(ctx, false, 7)
	require.NoError(t, err)
	require.Equal(t, 99.5, total)
	last = <-seen
	require.Equal(t, 7, *last.Params.ExcludeRow)

	_, err = c.Query(ctx, QueryRequest{Type: "median"})
	<-seen
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	require.Equal(t, ErrorCodeUnsupportedQueryType, apiErr.Code)
	require.Equal(t, "Unsupported query type.", apiErr.Description)
}

func TestParseErrorResponseFallback(t *testing.T) {
	t.Parallel()

	resp := &http.Response{StatusCode: http.StatusBadGateway}
	err := parseErrorResponse(resp, []byte("<html>bad gateway</html>"))

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, ErrorCodeServerError, apiErr.Code)
	require.True(t, strings.HasPrefix(apiErr.Description, "HTTP 502"))

	require.NoError(t, parseErrorResponse(&http.Response{StatusCode: http.StatusOK}, nil))
}

func TestGetReadinessDegraded(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(HealthResponse{
			Status: "degraded",
			Checks: &HealthChecks{Database: "ok", Dataset: "error: not loaded"},
		})
	}))
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL)
	require.NoError(t, err)

	health, err := c.GetReadiness(t.Context())
	require.ErrorIs(t, err, ErrNotReady)
	require.Equal(t, "degraded", health.Status)
	require.Equal(t, "error: not loaded", health.Checks.Dataset)
}

func TestRecentQueriesSendsLimit(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/queries", r.URL.Path)
		require.Equal(t, "5", r.URL.Query().Get("limit"))
		_ = json.NewEncoder(w).Encode(ListQueriesResponse{Queries: []AuditEntry{{ID: "a", Type: QueryTotalRevenue}}})
	}))
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL)
	require.NoError(t, err)

	got, err := c.RecentQueries(t.Context(), 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "a", got[0].ID)
}

func TestRecentQueriesBeforeSendsCursor(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/queries", r.URL.Path)
		require.Equal(t, "01HQ7T3Z1MZ0JQ3M6MZQ1FQ3ZV", r.URL.Query().Get("before"))
		require.Empty(t, r.URL.Query().Get("limit"))
		_ = json.NewEncoder(w).Encode(ListQueriesResponse{Queries: []AuditEntry{{ID: "b", RequestID: "req-1"}}})
	}))
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL)
	require.NoError(t, err)

	got, err := c.RecentQueriesBefore(t.Context(), 0, "01HQ7T3Z1MZ0JQ3M6MZQ1FQ3ZV")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "req-1", got[0].RequestID)
}
