package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/dpquery/internal/query/domain"
	"github.com/aussiebroadwan/dpquery/pkg/idx"
)

// ErrEmpty is returned by aggregates that need at least one record.
var ErrEmpty = errors.New("store: dataset is empty")

// Store is the root data access interface. Sub-repositories keep the
// dataset and the audit log apart; transactions hand out the same repos
// bound to the transaction.
type Store interface {
	Records() Records
	Audit() Audit

	ApplyMigrations() error

	// Tx starts a read/write transaction. The caller MUST Commit or Rollback.
	Tx(ctx context.Context) (Tx, error)

	// WithTx runs fn in a transaction, committing when fn returns nil and
	// rolling back otherwise.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error
	Ping(ctx context.Context) error
}

// Tx is a transactional store.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Records interface {
	// ReplaceAll deletes the current dataset and inserts rows in order. The
	// row at rows[i] is stored at position i.
	ReplaceAll(ctx context.Context, rows []domain.Record) error

	Count(ctx context.Context) (int64, error)

	// RevenueBounds returns min and max total revenue. ErrEmpty when there are no rows.
	RevenueBounds(ctx context.Context) (lower, upper float64, err error)

	// RevenuesByRegion groups every revenue value by region.
	RevenuesByRegion(ctx context.Context) (map[string][]float64, error)

	// CountByCategory returns the number of rows per category.
	CountByCategory(ctx context.Context) (map[string]int64, error)

	// CountMatching counts rows matching the fingerprint.
	CountMatching(ctx context.Context, fp domain.Fingerprint) (int64, error)

	// Revenues returns every revenue value in load order, skipping the row at
	// position exclude when exclude >= 0.
	Revenues(ctx context.Context, exclude int) ([]float64, error)
}

type Audit interface {
	CreateEntry(ctx context.Context, e domain.AuditEntry) error

	// ListRecent returns up to limit entries, newest first. A non-zero before
	// only returns entries older than that entry ID.
	ListRecent(ctx context.Context, limit int, before idx.ID) ([]domain.AuditEntry, error)

	// DeleteOlderThan removes entries created before cutoff and reports how many went.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
