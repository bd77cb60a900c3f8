package analyst

import (
	"context"
	"fmt"
	"strconv"

	"github.com/aussiebroadwan/dpquery/pkg/dpsdk"
)

// TargetFingerprint is a combination narrow enough that few customers match it.
var TargetFingerprint = dpsdk.Fingerprint{
	Year:    2022,
	Month:   12,
	LOS:     "05. 1-3yr",
	Channel: "MyTelkomsel",
}

// Run executes one analysis by name, or all of them for AnalysisAll.
func (a *Analyst) Run(ctx context.Context, name string) error {
	switch name {
	case AnalysisRevenue:
		return a.Revenue(ctx)
	case AnalysisCount:
		return a.Count(ctx)
	case AnalysisLongTail:
		return a.LongTail(ctx)
	case AnalysisFingerprint:
		return a.Fingerprint(ctx)
	case AnalysisDifferencing:
		return a.Differencing(ctx)
	case AnalysisAll:
		for _, n := range Analyses {
			if err := a.Run(ctx, n); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown analysis %q", name)
	}
}

// Revenue compares exact and private revenue for the largest regions.
func (a *Analyst) Revenue(ctx context.Context) error {
	actual, err := a.Client.RevenueByRegion(ctx, false)
	if err != nil {
		return fmt.Errorf("revenue by region: %w", err)
	}
	private, err := a.Client.RevenueByRegion(ctx, true)
	if err != nil {
		return fmt.Errorf("private revenue by region: %w", err)
	}

	rows := CompareRevenue(actual, private, TopRegions)
	a.logger().Debug("revenue analysis", "regions", len(actual), "shown", len(rows))

	fmt.Fprintf(a.Out, "\nRevenue by region (top %d)\n", TopRegions)
	data := make([][]string, len(rows))
	for i, r := range rows {
		data[i] = []string{r.Region, money(r.Actual), money(r.Private), money(r.AbsError)}
	}
	return renderTable(a.Out, []string{"Region", "Actual", "Private", "Abs Error"}, data)
}

// Count compares each category's share of customers.
func (a *Analyst) Count(ctx context.Context) error {
	actual, private, err := a.counts(ctx)
	if err != nil {
		return err
	}

	rows := CompareShares(actual, private, TopCategories)

	fmt.Fprintf(a.Out, "\nCustomer share by category (top %d)\n", TopCategories)
	data := make([][]string, len(rows))
	for i, r := range rows {
		data[i] = []string{
			r.Category,
			strconv.FormatInt(r.Actual, 10),
			strconv.FormatInt(r.Private, 10),
			percent(r.ActualShare),
			percent(r.PrivateShare),
		}
	}
	return renderTable(a.Out, []string{"Category", "Actual", "Private", "Actual Share", "Private Share"}, data)
}

// LongTail shows small categories, where noise dominates the true count.
func (a *Analyst) LongTail(ctx context.Context) error {
	actual, private, err := a.counts(ctx)
	if err != nil {
		return err
	}

	rows := LongTail(actual, private, LongTailMax)

	fmt.Fprintf(a.Out, "\nLong-tail categories (<= %d customers)\n", LongTailMax)
	if len(rows) == 0 {
		fmt.Fprintln(a.Out, "No categories in the long tail.")
		return nil
	}

	data := make([][]string, len(rows))
	for i, r := range rows {
		data[i] = []string{r.Category, strconv.FormatInt(r.Actual, 10), strconv.FormatInt(r.Private, 10)}
	}
	return renderTable(a.Out, []string{"Category", "Actual", "Private"}, data)
}

func (a *Analyst) counts(ctx context.Context) (actual, private map[string]int64, err error) {
	actual, err = a.Client.CountByCategory(ctx, false)
	if err != nil {
		return nil, nil, fmt.Errorf("count by category: %w", err)
	}
	private, err = a.Client.CountByCategory(ctx, true)
	if err != nil {
		return nil, nil, fmt.Errorf("private count by category: %w", err)
	}
	return actual, private, nil
}

type FingerprintResult struct {
	Fingerprint dpsdk.Fingerprint
	Exact       int64
	Private     int64
	Vulnerable  bool // Exact <= VulnerableCount
}

// FingerprintRisk counts the customers matching fp, exact and private.
func (a *Analyst) FingerprintRisk(ctx context.Context, fp dpsdk.Fingerprint) (FingerprintResult, error) {
	exact, err := a.Client.CountByFingerprint(ctx, false, fp)
	if err != nil {
		return FingerprintResult{}, fmt.Errorf("count by fingerprint: %w", err)
	}
	private, err := a.Client.CountByFingerprint(ctx, true, fp)
	if err != nil {
		return FingerprintResult{}, fmt.Errorf("private count by fingerprint: %w", err)
	}

	return FingerprintResult{
		Fingerprint: fp,
		Exact:       exact,
		Private:     private,
		Vulnerable:  exact <= VulnerableCount,
	}, nil
}

// Fingerprint reports how exposed customers matching TargetFingerprint are.
func (a *Analyst) Fingerprint(ctx context.Context) error {
	res, err := a.FingerprintRisk(ctx, TargetFingerprint)
	if err != nil {
		return err
	}

	verdict := "not unique enough to single out"
	if res.Vulnerable {
		verdict = "VULNERABLE: small enough to re-identify without noise"
	}

	fp := res.Fingerprint
	fmt.Fprintln(a.Out, "\nFingerprint re-identification risk")
	return renderTable(a.Out, []string{"Field", "Value"}, [][]string{
		{"Activation", fmt.Sprintf("%04d-%02d", fp.Year, fp.Month)},
		{"LOS segment", fp.LOS},
		{"Channel", fp.Channel},
		{"Exact count", strconv.FormatInt(res.Exact, 10)},
		{"Private count", strconv.FormatInt(res.Private, 10)},
		{"Assessment", verdict},
	})
}

type DifferencingResult struct {
	Row             int
	ExactAll        float64
	ExactWithout    float64
	ExactInferred   float64
	PrivateAll      float64
	PrivateWithout  float64
	PrivateInferred float64
}

// DifferencingAttack infers the revenue of the customer at row by
// subtracting two totals, once exact and once private.
func (a *Analyst) DifferencingAttack(ctx context.Context, row int) (DifferencingResult, error) {
	res := DifferencingResult{Row: row}

	var err error
	if res.ExactAll, err = a.Client.TotalRevenue(ctx, false); err != nil {
		return res, fmt.Errorf("total revenue: %w", err)
	}
	if res.ExactWithout, err = a.Client.TotalRevenueExcluding(ctx, false, row); err != nil {
		return res, fmt.Errorf("total revenue without row %d: %w", row, err)
	}
	if res.PrivateAll, err = a.Client.TotalRevenue(ctx, true); err != nil {
		return res, fmt.Errorf("private total revenue: %w", err)
	}
	if res.PrivateWithout, err = a.Client.TotalRevenueExcluding(ctx, true, row); err != nil {
		return res, fmt.Errorf("private total revenue without row %d: %w", row, err)
	}

	res.ExactInferred = res.ExactAll - res.ExactWithout
	res.PrivateInferred = res.PrivateAll - res.PrivateWithout
	return res, nil
}

// Differencing runs DifferencingAttack against a random customer in the
// first DifferencingRows+1 rows.
func (a *Analyst) Differencing(ctx context.Context) error {
	res, err := a.DifferencingAttack(ctx, a.intN(DifferencingRows+1))
	if err != nil {
		return err
	}

	fmt.Fprintf(a.Out, "\nDifferencing attack on customer #%d\n", res.Row)
	return renderTable(a.Out, []string{"", "All customers", "Without target", "Inferred revenue"}, [][]string{
		{"Exact", money(res.ExactAll), money(res.ExactWithout), money(res.ExactInferred)},
		{"Private", money(res.PrivateAll), money(res.PrivateWithout), money(res.PrivateInferred)},
	})
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func percent(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64) + "%"
}
