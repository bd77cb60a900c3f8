package domain

import "time"

type QueryType string

const (
	QueryRevenueByRegion    QueryType = "revenue_by_region"
	QueryCountByCategory    QueryType = "count_by_category"
	QueryCountByFingerprint QueryType = "count_by_fingerprint"
	QueryTotalRevenue       QueryType = "total_revenue"
)

// KnownQueryTypes lists every type the engine answers.
var KnownQueryTypes = []QueryType{
	QueryRevenueByRegion,
	QueryCountByCategory,
	QueryCountByFingerprint,
	QueryTotalRevenue,
}

// AuditEntry records one answered (or rejected) query.
type AuditEntry struct {
	ID         string
	Type       QueryType
	UseDP      bool
	Epsilon    float64 // 0 when UseDP is false
	Status     int     // HTTP status returned to the caller
	RemoteAddr string
	RequestID  string // X-Request-ID of the HTTP request that asked
	CreatedAt  time.Time
}
