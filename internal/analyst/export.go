package analyst

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"sync"

	"github.com/gammazero/workerpool"
	"github.com/samber/lo"
)

const (
	analysisRevenue = "Revenue by Region"
	analysisCount   = "Count by Category"
)

// ExportFiles are written by Export, in this order.
var ExportFiles = []string{
	"actual_revenue.csv",
	"private_revenue.csv",
	"actual_counts.csv",
	"private_counts.csv",
}

// Export fetches exact and private revenue and counts concurrently and writes
// them as CSV files under dir. Nothing is written unless all four queries
// succeed.
func (a *Analyst) Export(ctx context.Context, dir string) ([]string, error) {
	var (
		actualRev, privateRev       map[string]float64
		actualCounts, privateCounts map[string]int64

		mu   sync.Mutex
		errs []error
	)
	fail := func(what string, err error) {
		mu.Lock()
		errs = append(errs, fmt.Errorf("%s: %w", what, err))
		mu.Unlock()
	}

	wp := workerpool.New(len(ExportFiles))
	wp.Submit(func() {
		var err error
		if actualRev, err = a.Client.RevenueByRegion(ctx, false); err != nil {
			fail("revenue by region", err)
		}
	})
	wp.Submit(func() {
		var err error
		if privateRev, err = a.Client.RevenueByRegion(ctx, true); err != nil {
			fail("private revenue by region", err)
		}
	})
	wp.Submit(func() {
		var err error
		if actualCounts, err = a.Client.CountByCategory(ctx, false); err != nil {
			fail("count by category", err)
		}
	})
	wp.Submit(func() {
		var err error
		if privateCounts, err = a.Client.CountByCategory(ctx, true); err != nil {
			fail("private count by category", err)
		}
	})
	wp.StopWait()

	if len(errs) > 0 {
		return nil, fmt.Errorf("export aborted: %w", errors.Join(errs...))
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	tables := [][][]string{
		revenueRecords(actualRev),
		revenueRecords(privateRev),
		countRecords(actualCounts),
		countRecords(privateCounts),
	}

	written := make([]string, 0, len(ExportFiles))
	for i, name := range ExportFiles {
		path := filepath.Join(dir, name)
		if err := writeCSV(path, tables[i]); err != nil {
			return written, err
		}
		written = append(written, path)
		a.logger().Info("wrote export", "path", path, "rows", len(tables[i])-1)
	}
	return written, nil
}

func revenueRecords(m map[string]float64) [][]string {
	keys := lo.Keys(m)
	slices.Sort(keys)

	out := [][]string{{"Category", "Revenue", "AnalysisType"}}
	for _, k := range keys {
		out = append(out, []string{k, strconv.FormatFloat(m[k], 'f', -1, 64), analysisRevenue})
	}
	return out
}

func countRecords(m map[string]int64) [][]string {
	keys := lo.Keys(m)
	slices.Sort(keys)

	out := [][]string{{"Category", "Count", "AnalysisType"}}
	for _, k := range keys {
		out = append(out, []string{k, strconv.FormatInt(m[k], 10), analysisCount})
	}
	return out
}

func writeCSV(path string, records [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.WriteAll(records); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
