package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aussiebroadwan/dpquery/internal/query/domain"
	"github.com/aussiebroadwan/dpquery/internal/query/store"
	"github.com/aussiebroadwan/dpquery/pkg/dp"
	"github.com/aussiebroadwan/dpquery/pkg/idx"
	"github.com/aussiebroadwan/dpquery/pkg/slogx"
)

var (
	ErrUnsupportedQuery = errors.New("unsupported query type")
	ErrInvalidParams    = errors.New("invalid query parameters")
	ErrDataNotLoaded    = errors.New("server data not loaded")
)

const (
	DefaultAuditLimit = 50
	MaxAuditLimit     = 500
)

// QueryParams carries the optional per-type arguments. Fields a query type
// does not use are ignored.
type QueryParams struct {
	Year       *int
	Month      *int
	LOS        string
	Channel    string
	ExcludeRow *int
}

type QueryRequest struct {
	Type   domain.QueryType
	UseDP  bool
	Params QueryParams
}

// QueryResult is an answered query. Value is map[string]float64 for
// revenue_by_region, map[string]int64 for count_by_category, int64 for
// count_by_fingerprint and float64 for total_revenue.
type QueryResult struct {
	ID      string
	Type    domain.QueryType
	UseDP   bool
	Epsilon float64 // 0 when UseDP is false
	Value   any
}

// QueryService answers aggregate queries over the loaded dataset, adding
// Laplace noise when the caller asks for a private answer.
type QueryService struct {
	Store     store.Store
	Policy    Policy
	Mechanism *dp.Mechanism

	mu     sync.RWMutex
	loaded bool
	lower  float64
	upper  float64
}

// Ingest replaces the dataset and recomputes the revenue bounds used for
// every private sum.
func (s *QueryService) Ingest(ctx context.Context, rows []domain.Record) error {
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		return tx.Records().ReplaceAll(ctx, rows)
	})
	if err != nil {
		return fmt.Errorf("replace records: %w", err)
	}

	lower, upper, err := s.Store.Records().RevenueBounds(ctx)
	if err != nil {
		s.setLoaded(false, 0, 0)
		return fmt.Errorf("revenue bounds: %w", err)
	}

	s.setLoaded(true, lower, upper)
	slogx.FromContext(ctx).Info("dataset ingested",
		"rows", len(rows),
		"lower_bound", lower,
		"upper_bound", upper,
	)
	return nil
}

// Loaded reports whether a dataset is available for queries.
func (s *QueryService) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Bounds returns the clamp range used for private sums.
func (s *QueryService) Bounds() (lower, upper float64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lower, s.upper
}

func (s *QueryService) setLoaded(loaded bool, lower, upper float64) {
	s.mu.Lock()
	s.loaded, s.lower, s.upper = loaded, lower, upper
	s.mu.Unlock()
}

// Execute answers req. The epsilon comes from the policy, never the caller.
func (s *QueryService) Execute(ctx context.Context, req QueryRequest) (QueryResult, error) {
	if !s.Loaded() {
		return QueryResult{}, ErrDataNotLoaded
	}

	res := QueryResult{
		ID:    idx.New().String(),
		Type:  req.Type,
		UseDP: req.UseDP,
	}
	if req.UseDP {
		res.Epsilon = s.Policy.EpsilonFor(req.Type)
	}

	var err error
	switch req.Type {
	case domain.QueryRevenueByRegion:
		res.Value, err = s.revenueByRegion(ctx, res.UseDP, res.Epsilon)
	case domain.QueryCountByCategory:
		res.Value, err = s.countByCategory(ctx, res.UseDP, res.Epsilon)
	case domain.QueryCountByFingerprint:
		res.Value, err = s.countByFingerprint(ctx, res.UseDP, res.Epsilon, req.Params)
	case domain.QueryTotalRevenue:
		res.Value, err = s.totalRevenue(ctx, res.UseDP, res.Epsilon, req.Params)
	default:
		return QueryResult{}, fmt.Errorf("%w: %q", ErrUnsupportedQuery, req.Type)
	}
	if err != nil {
		return QueryResult{}, err
	}

	return res, nil
}

func (s *QueryService) revenueByRegion(ctx context.Context, private bool, eps float64) (map[string]float64, error) {
	groups, err := s.Store.Records().RevenuesByRegion(ctx)
	if err != nil {
		return nil, fmt.Errorf("revenues by region: %w", err)
	}

	lower, upper := s.Bounds()
	out := make(map[string]float64, len(groups))
	for region, revs := range groups {
		if !private {
			out[region] = sum(revs)
			continue
		}
		v, err := s.Mechanism.BoundedSum(revs, eps, lower, upper)
		if err != nil {
			return nil, err
		}
		out[region] = v
	}
	return out, nil
}

func (s *QueryService) countByCategory(ctx context.Context, private bool, eps float64) (map[string]int64, error) {
	counts, err := s.Store.Records().CountByCategory(ctx)
	if err != nil {
		return nil, fmt.Errorf("count by category: %w", err)
	}
	if !private {
		return counts, nil
	}

	out := make(map[string]int64, len(counts))
	for category, n := range counts {
		v, err := s.Mechanism.Count(n, eps)
		if err != nil {
			return nil, err
		}
		out[category] = v
	}
	return out, nil
}

func (s *QueryService) countByFingerprint(ctx context.Context, private bool, eps float64, p QueryParams) (int64, error) {
	fp, err := fingerprintFrom(p)
	if err != nil {
		return 0, err
	}

	n, err := s.Store.Records().CountMatching(ctx, fp)
	if err != nil {
		return 0, fmt.Errorf("count matching: %w", err)
	}
	if !private {
		return n, nil
	}
	return s.Mechanism.Count(n, eps)
}

func (s *QueryService) totalRevenue(ctx context.Context, private bool, eps float64, p QueryParams) (float64, error) {
	exclude := -1
	if p.ExcludeRow != nil {
		if *p.ExcludeRow < 0 {
			return 0, fmt.Errorf("%w: exclude_row must be >= 0", ErrInvalidParams)
		}
		exclude = *p.ExcludeRow
	}

	revs, err := s.Store.Records().Revenues(ctx, exclude)
	if err != nil {
		return 0, fmt.Errorf("revenues: %w", err)
	}
	if !private {
		return sum(revs), nil
	}

	lower, upper := s.Bounds()
	return s.Mechanism.BoundedSum(revs, eps, lower, upper)
}

func fingerprintFrom(p QueryParams) (domain.Fingerprint, error) {
	switch {
	case p.Year == nil:
		return domain.Fingerprint{}, fmt.Errorf("%w: year is required", ErrInvalidParams)
	case p.Month == nil:
		return domain.Fingerprint{}, fmt.Errorf("%w: month is required", ErrInvalidParams)
	case *p.Month < 1 || *p.Month > 12:
		return domain.Fingerprint{}, fmt.Errorf("%w: month must be 1-12", ErrInvalidParams)
	case p.LOS == "":
		return domain.Fingerprint{}, fmt.Errorf("%w: los is required", ErrInvalidParams)
	case p.Channel == "":
		return domain.Fingerprint{}, fmt.Errorf("%w: channel is required", ErrInvalidParams)
	}

	return domain.Fingerprint{
		Year:    *p.Year,
		Month:   *p.Month,
		LOS:     p.LOS,
		Channel: p.Channel,
	}, nil
}

func sum(vs []float64) float64 {
	var total float64
	for _, v := range vs {
		total += v
	}
	return total
}

// RecordAudit stores one audit entry, filling ID and CreatedAt when unset.
func (s *QueryService) RecordAudit(ctx context.Context, e domain.AuditEntry) error {
	if e.ID == "" {
		e.ID = idx.New().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	return s.Store.Audit().CreateEntry(ctx, e)
}

// RecentQueries returns the newest audit entries, older than before when it
// is set. limit <= 0 selects DefaultAuditLimit and anything above
// MaxAuditLimit is capped.
func (s *QueryService) RecentQueries(ctx context.Context, limit int, before idx.ID) ([]domain.AuditEntry, error) {
	switch {
	case limit <= 0:
		limit = DefaultAuditLimit
	case limit > MaxAuditLimit:
		limit = MaxAuditLimit
	}
	return s.Store.Audit().ListRecent(ctx, limit, before)
}
