package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/dpquery/internal/query/domain"
	"github.com/aussiebroadwan/dpquery/pkg/idx"
)

type auditRepo struct {
	q querier
}

func (r *auditRepo) CreateEntry(ctx context.Context, e domain.AuditEntry) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO query_audit (id, query_type, use_dp, epsilon, status, remote_addr, request_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, string(e.Type), e.UseDP, e.Epsilon, e.Status, e.RemoteAddr, e.RequestID, e.CreatedAt.UTC().UnixMilli(),
	)
	return err
}

// ListRecent orders by ID. IDs are ULIDs, so this is creation order and
// before works as a stable cursor.
func (r *auditRepo) ListRecent(ctx context.Context, limit int, before idx.ID) ([]domain.AuditEntry, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, query_type, use_dp, epsilon, status, remote_addr, request_id, created_at
		FROM query_audit
		WHERE ? = '' OR id < ?
		ORDER BY id DESC
		LIMIT ?`, before.String(), before.String(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.AuditEntry
	for rows.Next() {
		var (
			e         domain.AuditEntry
			queryType string
			createdMs int64
		)
		if err := rows.Scan(&e.ID, &queryType, &e.UseDP, &e.Epsilon, &e.Status, &e.RemoteAddr, &e.RequestID, &createdMs); err != nil {
			return nil, err
		}
		e.Type = domain.QueryType(queryType)
		e.CreatedAt = time.UnixMilli(createdMs).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *auditRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.q.ExecContext(ctx,
		`DELETE FROM query_audit WHERE created_at < ?`, cutoff.UTC().UnixMilli())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
