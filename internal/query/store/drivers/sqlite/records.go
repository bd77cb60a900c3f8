package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/aussiebroadwan/dpquery/internal/query/domain"
	"github.com/aussiebroadwan/dpquery/internal/query/store"
)

const actDateLayout = "2006-01-02"

type recordsRepo struct {
	q querier
}

// ReplaceAll should run inside WithTx so readers never see a half-loaded dataset.
func (r *recordsRepo) ReplaceAll(ctx context.Context, rows []domain.Record) error {
	if _, err := r.q.ExecContext(ctx, `DELETE FROM records`); err != nil {
		return fmt.Errorf("clear records: %w", err)
	}

	stmt, err := r.q.PrepareContext(ctx, `
		INSERT INTO records (position, total_rev, region, category, act_date, act_year, act_month, los_segment, channel)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, row := range rows {
		d := row.ActivationDate
		if _, err := stmt.ExecContext(ctx,
			i,
			row.TotalRevenue,
			row.Region,
			row.Category,
			d.Format(actDateLayout),
			d.Year(),
			int(d.Month()),
			row.LOSSegment,
			row.Channel,
		); err != nil {
			return fmt.Errorf("insert record %d: %w", i, err)
		}
	}

	return nil
}

func (r *recordsRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM records`).Scan(&n)
	return n, err
}

func (r *recordsRepo) RevenueBounds(ctx context.Context) (float64, float64, error) {
	var lower, upper sql.NullFloat64
	err := r.q.QueryRowContext(ctx, `SELECT MIN(total_rev), MAX(total_rev) FROM records`).Scan(&lower, &upper)
	if err != nil {
		return 0, 0, err
	}
	if !lower.Valid || !upper.Valid {
		return 0, 0, store.ErrEmpty
	}
	return lower.Float64, upper.Float64, nil
}

func (r *recordsRepo) RevenuesByRegion(ctx context.Context) (map[string][]float64, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT region, total_rev FROM records ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]float64)
	for rows.Next() {
		var (
			region string
			rev    float64
		)
		if err := rows.Scan(&region, &rev); err != nil {
			return nil, err
		}
		out[region] = append(out[region], rev)
	}
	return out, rows.Err()
}

func (r *recordsRepo) CountByCategory(ctx context.Context) (map[string]int64, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT category, COUNT(*) FROM records GROUP BY category`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var (
			category string
			n        int64
		)
		if err := rows.Scan(&category, &n); err != nil {
			return nil, err
		}
		out[category] = n
	}
	return out, rows.Err()
}

func (r *recordsRepo) CountMatching(ctx context.Context, fp domain.Fingerprint) (int64, error) {
	var n int64
	err := r.q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM records
		WHERE act_year = ? AND act_month = ? AND los_segment = ? AND channel = ?`,
		fp.Year, fp.Month, fp.LOS, fp.Channel,
	).Scan(&n)
	return n, err
}

func (r *recordsRepo) Revenues(ctx context.Context, exclude int) ([]float64, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT total_rev FROM records WHERE position != ? ORDER BY position`, exclude)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []float64
	for rows.Next() {
		var rev float64
		if err := rows.Scan(&rev); err != nil {
			return nil, err
		}
		out = append(out, rev)
	}
	return out, rows.Err()
}
