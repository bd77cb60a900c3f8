package dpsdk

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// Query sends req to POST /api/query.
func (c *Client) Query(ctx context.Context, req QueryRequest) (*QueryResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/api/query", req)
	if err != nil {
		return nil, err
	}

	var out QueryResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// RevenueByRegion returns total revenue per region.
func (c *Client) RevenueByRegion(ctx context.Context, useDP bool) (map[string]float64, error) {
	var out map[string]float64
	err := c.queryInto(ctx, QueryRequest{Type: QueryRevenueByRegion, UseDP: useDP}, &out)
	return out, err
}

// CountByCategory returns the number of customers per package category.
func (c *Client) CountByCategory(ctx context.Context, useDP bool) (map[string]int64, error) {
	var out map[string]int64
	err := c.queryInto(ctx, QueryRequest{Type: QueryCountByCategory, UseDP: useDP}, &out)
	return out, err
}

// CountByFingerprint counts customers matching fp.
func (c *Client) CountByFingerprint(ctx context.Context, useDP bool, fp Fingerprint) (int64, error) {
	var out int64
	err := c.queryInto(ctx, QueryRequest{
		Type:  QueryCountByFingerprint,
		UseDP: useDP,
		Params: &QueryParams{
			Year:    &fp.Year,
			Month:   &fp.Month,
			LOS:     fp.LOS,
			Channel: fp.Channel,
		},
	}, &out)
	return out, err
}

// TotalRevenue sums revenue over every customer.
func (c *Client) TotalRevenue(ctx context.Context, useDP bool) (float64, error) {
	var out float64
	err := c.queryInto(ctx, QueryRequest{Type: QueryTotalRevenue, UseDP: useDP}, &out)
	return out, err
}

// TotalRevenueExcluding sums revenue over every customer except the one at
// 0-based position row.
func (c *Client) TotalRevenueExcluding(ctx context.Context, useDP bool, row int) (float64, error) {
	var out float64
	err := c.queryInto(ctx, QueryRequest{
		Type:   QueryTotalRevenue,
		UseDP:  useDP,
		Params: &QueryParams{ExcludeRow: &row},
	}, &out)
	return out, err
}

func (c *Client) queryInto(ctx context.Context, req QueryRequest, target any) error {
	resp, err := c.Query(ctx, req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(resp.Result, target); err != nil {
		return fmt.Errorf("failed to decode %s result: %w", req.Type, err)
	}
	return nil
}

// Policy returns the server's epsilon per query type.
func (c *Client) Policy(ctx context.Context) (*PolicyResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/api/policy", nil)
	if err != nil {
		return nil, err
	}

	var out PolicyResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// RecentQueries lists the newest audit entries. limit <= 0 uses the server default.
func (c *Client) RecentQueries(ctx context.Context, limit int) ([]AuditEntry, error) {
	return c.RecentQueriesBefore(ctx, limit, "")
}

// RecentQueriesBefore lists audit entries older than the entry with ID
// before. Passing the last ID of one page fetches the next.
func (c *Client) RecentQueriesBefore(ctx context.Context, limit int, before string) ([]AuditEntry, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if before != "" {
		q.Set("before", before)
	}

	path := "/api/queries"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	resp, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var out ListQueriesResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out.Queries, nil
}
