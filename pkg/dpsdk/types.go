package dpsdk

import (
	"encoding/json"
	"time"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error            string `json:"error" example:"unsupported_query_type"`
	ErrorDescription string `json:"error_description" example:"Unsupported query type."`
}

// Query types understood by the server.
const (
	QueryRevenueByRegion    = "revenue_by_region"
	QueryCountByCategory    = "count_by_category"
	QueryCountByFingerprint = "count_by_fingerprint"
	QueryTotalRevenue       = "total_revenue"
)

// QueryRequest is the body of POST /api/query. Epsilon is accepted for
// compatibility but the server always applies its own policy.
type QueryRequest struct {
	Type    string       `json:"type" example:"revenue_by_region"`
	UseDP   bool         `json:"use_dp"`
	Epsilon *float64     `json:"epsilon,omitempty"`
	Params  *QueryParams `json:"params,omitempty"`
}

// QueryParams holds per-type arguments. count_by_fingerprint needs Year,
// Month, LOS and Channel; total_revenue optionally takes ExcludeRow.
type QueryParams struct {
	Year       *int   `json:"year,omitempty" example:"2022"`
	Month      *int   `json:"month,omitempty" example:"12"`
	LOS        string `json:"los,omitempty" example:"05. 1-3yr"`
	Channel    string `json:"channel,omitempty" example:"MyTelkomsel"`
	ExcludeRow *int   `json:"exclude_row,omitempty"`
}

// QueryResponse carries the result undecoded since its shape depends on the
// query type. Epsilon is omitted for exact answers.
type QueryResponse struct {
	Result  json.RawMessage `json:"result" swaggertype:"object"`
	Epsilon float64         `json:"epsilon,omitempty" example:"4"`
	QueryID string          `json:"query_id" example:"01JABCDEFGHJKMNPQRSTVWXYZ0"`
}

// Fingerprint identifies a narrow slice of customers: activation year and
// month, length-of-service segment and sales channel.
type Fingerprint struct {
	Year    int
	Month   int
	LOS     string
	Channel string
}

type PolicyResponse struct {
	DefaultEpsilon float64            `json:"default_epsilon" example:"1"`
	Epsilon        map[string]float64 `json:"epsilon"`
}

// AuditEntry describes one query the server answered or rejected.
type AuditEntry struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	UseDP      bool      `json:"use_dp"`
	Epsilon    float64   `json:"epsilon,omitempty"`
	Status     int       `json:"status"`
	RemoteAddr string    `json:"remote_addr,omitempty"`
	RequestID  string    `json:"request_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type ListQueriesResponse struct {
	Queries []AuditEntry `json:"queries"`
}

// HealthResponse is returned by /livez and /readyz. Checks is only set by
// /readyz.
type HealthResponse struct {
	Status  string        `json:"status" example:"ok"`
	Uptime  string        `json:"uptime,omitempty"`
	Version string        `json:"version,omitempty"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

type HealthChecks struct {
	Database string `json:"database"`
	Dataset  string `json:"dataset"`
}
