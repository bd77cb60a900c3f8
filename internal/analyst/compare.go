package analyst

import (
	"cmp"
	"math"
	"slices"

	"github.com/samber/lo"
)

const (
	TopRegions       = 10
	TopCategories    = 7
	LongTailMax      = 10
	VulnerableCount  = 5
	DifferencingRows = 100
)

type RevenueRow struct {
	Region   string
	Actual   float64
	Private  float64
	AbsError float64
}

// CompareRevenue pairs exact and private revenue per region and keeps the top
// regions by exact revenue.
func CompareRevenue(actual, private map[string]float64, top int) []RevenueRow {
	rows := lo.MapToSlice(actual, func(region string, v float64) RevenueRow {
		p := private[region]
		return RevenueRow{Region: region, Actual: v, Private: p, AbsError: math.Abs(v - p)}
	})

	slices.SortFunc(rows, func(a, b RevenueRow) int {
		if c := cmp.Compare(b.Actual, a.Actual); c != 0 {
			return c
		}
		return cmp.Compare(a.Region, b.Region)
	})
	return lo.Slice(rows, 0, top)
}

type ShareRow struct {
	Category     string
	Actual       int64
	Private      int64 // clipped at 0
	ActualShare  float64
	PrivateShare float64
}

// CompareShares keeps the top categories by exact count and computes each
// one's share of the customers in those categories, exact and private, so
// both columns sum to 100%. Noisy counts below zero are clipped first.
func CompareShares(actual, private map[string]int64, top int) []ShareRow {
	rows := lo.MapToSlice(actual, func(category string, n int64) ShareRow {
		return ShareRow{Category: category, Actual: n, Private: max(private[category], 0)}
	})

	slices.SortFunc(rows, func(a, b ShareRow) int {
		if c := cmp.Compare(b.Actual, a.Actual); c != 0 {
			return c
		}
		return cmp.Compare(a.Category, b.Category)
	})
	rows = lo.Slice(rows, 0, top)

	actualTotal := lo.SumBy(rows, func(r ShareRow) int64 { return r.Actual })
	privateTotal := lo.SumBy(rows, func(r ShareRow) int64 { return r.Private })
	for i := range rows {
		rows[i].ActualShare = share(rows[i].Actual, actualTotal)
		rows[i].PrivateShare = share(rows[i].Private, privateTotal)
	}
	return rows
}

func share(n, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}

type CountRow struct {
	Category string
	Actual   int64
	Private  int64
}

// LongTail returns categories with at most limit customers, smallest first.
// Private counts are reported unclipped.
func LongTail(actual, private map[string]int64, limit int64) []CountRow {
	small := lo.PickBy(actual, func(_ string, n int64) bool { return n <= limit })

	rows := lo.MapToSlice(small, func(category string, n int64) CountRow {
		return CountRow{Category: category, Actual: n, Private: private[category]}
	})

	slices.SortFunc(rows, func(a, b CountRow) int {
		if c := cmp.Compare(a.Actual, b.Actual); c != 0 {
			return c
		}
		return cmp.Compare(a.Category, b.Category)
	})
	return rows
}
