// Package analyst runs the privacy comparisons an analyst performs against
// the query server and renders them as terminal tables.
package analyst

import (
	"context"
	"io"
	"log/slog"
	"math/rand/v2"

	"github.com/aussiebroadwan/dpquery/pkg/dpsdk"
	"github.com/olekukonko/tablewriter"
)

// Querier is the part of dpsdk.Client the analyses need.
type Querier interface {
	RevenueByRegion(ctx context.Context, useDP bool) (map[string]float64, error)
	CountByCategory(ctx context.Context, useDP bool) (map[string]int64, error)
	CountByFingerprint(ctx context.Context, useDP bool, fp dpsdk.Fingerprint) (int64, error)
	TotalRevenue(ctx context.Context, useDP bool) (float64, error)
	TotalRevenueExcluding(ctx context.Context, useDP bool, row int) (float64, error)
}

var _ Querier = (*dpsdk.Client)(nil)

// Analyst runs analyses against a query server and writes reports to Out.
type Analyst struct {
	Client Querier
	Out    io.Writer
	Logger *slog.Logger

	// Rand picks the differencing target. Nil uses the global source.
	Rand *rand.Rand
}

// Analysis names accepted by Run.
const (
	AnalysisRevenue      = "revenue"
	AnalysisCount        = "count"
	AnalysisLongTail     = "longtail"
	AnalysisFingerprint  = "fingerprint"
	AnalysisDifferencing = "differencing"
	AnalysisAll          = "all"
)

// Analyses lists every individual analysis in the order "all" runs them.
var Analyses = []string{
	AnalysisRevenue,
	AnalysisCount,
	AnalysisLongTail,
	AnalysisFingerprint,
	AnalysisDifferencing,
}

func (a *Analyst) logger() *slog.Logger {
	if a.Logger == nil {
		return slog.Default()
	}
	return a.Logger
}

func (a *Analyst) intN(n int) int {
	if a.Rand != nil {
		return a.Rand.IntN(n)
	}
	return rand.IntN(n)
}

func renderTable(w io.Writer, headers []string, rows [][]string) error {
	table := tablewriter.NewWriter(w)
	table.Header(headers)
	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}
