package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aussiebroadwan/dpquery/internal/query/domain"
	"github.com/aussiebroadwan/dpquery/internal/query/store"
	"github.com/aussiebroadwan/dpquery/internal/query/store/drivers/sqlite"
	"github.com/aussiebroadwan/dpquery/pkg/idx"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

func date(y int, m time.Month) time.Time {
	return time.Date(y, m, 15, 0, 0, 0, 0, time.UTC)
}

func sampleRecords() []domain.Record {
	return []domain.Record{
		{TotalRevenue: 100, Region: "Fiber", Category: "Gold", ActivationDate: date(2022, 12), LOSSegment: "05. 1-3yr", Channel: "MyTelkomsel"},
		{TotalRevenue: 250, Region: "Fiber", Category: "Silver", ActivationDate: date(2022, 12), LOSSegment: "05. 1-3yr", Channel: "Retail"},
		{TotalRevenue: 50, Region: "DSL", Category: "Gold", ActivationDate: date(2021, 3), LOSSegment: "01. <3mo", Channel: "MyTelkomsel"},
		{TotalRevenue: 75, Region: "DSL", Category: "Gold", ActivationDate: date(2022, 12), LOSSegment: "05. 1-3yr", Channel: "MyTelkomsel"},
	}
}

func load(t *testing.T, st *sqlite.Store, rows []domain.Record) {
	t.Helper()
	err := st.WithTx(t.Context(), func(tx store.Tx) error {
		return tx.Records().ReplaceAll(t.Context(), rows)
	})
	require.NoError(t, err)
}

func TestMigrationsAreIdempotent(t *testing.T) {
	st := newStore(t)
	require.NoError(t, st.ApplyMigrations())
	require.NoError(t, st.Ping(t.Context()))
}

func TestRecords(t *testing.T) {
	st := newStore(t)
	ctx := t.Context()

	t.Run("empty dataset", func(t *testing.T) {
		n, err := st.Records().Count(ctx)
		require.NoError(t, err)
		require.Zero(t, n)

		_, _, err = st.Records().RevenueBounds(ctx)
		require.ErrorIs(t, err, store.ErrEmpty)
	})

	load(t, st, sampleRecords())

	t.Run("count and bounds", func(t *testing.T) {
		n, err := st.Records().Count(ctx)
		require.NoError(t, err)
		require.Equal(t, int64(4), n)

		lower, upper, err := st.Records().RevenueBounds(ctx)
		require.NoError(t, err)
		require.Equal(t, 50.0, lower)
		require.Equal(t, 250.0, upper)
	})

	t.Run("revenues by region keep load order", func(t *testing.T) {
		got, err := st.Records().RevenuesByRegion(ctx)
		require.NoError(t, err)
		require.Equal(t, map[string][]float64{
			"Fiber": {100, 250},
			"DSL":   {50, 75},
		}, got)
	})

	t.Run("count by category", func(t *testing.T) {
		got, err := st.Records().CountByCategory(ctx)
		require.NoError(t, err)
		require.Equal(t, map[string]int64{"Gold": 3, "Silver": 1}, got)
	})

	t.Run("count matching fingerprint", func(t *testing.T) {
		n, err := st.Records().CountMatching(ctx, domain.Fingerprint{
			Year: 2022, Month: 12, LOS: "05. 1-3yr", Channel: "MyTelkomsel",
		})
		require.NoError(t, err)
		require.Equal(t, int64(2), n)

		n, err = st.Records().CountMatching(ctx, domain.Fingerprint{Year: 1999, Month: 1})
		require.NoError(t, err)
		require.Zero(t, n)
	})

	t.Run("revenues with and without exclusion", func(t *testing.T) {
		all, err := st.Records().Revenues(ctx, -1)
		require.NoError(t, err)
		require.Equal(t, []float64{100, 250, 50, 75}, all)

		minusOne, err := st.Records().Revenues(ctx, 1)
		require.NoError(t, err)
		require.Equal(t, []float64{100, 50, 75}, minusOne)

		outOfRange, err := st.Records().Revenues(ctx, 99)
		require.NoError(t, err)
		require.Equal(t, all, outOfRange)
	})

	t.Run("replace all swaps the dataset", func(t *testing.T) {
		load(t, st, sampleRecords()[:1])

		n, err := st.Records().Count(ctx)
		require.NoError(t, err)
		require.Equal(t, int64(1), n)
	})

	t.Run("positions follow slice order after a reload", func(t *testing.T) {
		load(t, st, sampleRecords()[1:])

		skipFirst, err := st.Records().Revenues(ctx, 0)
		require.NoError(t, err)
		require.Equal(t, []float64{50, 75}, skipFirst)

		skipLast, err := st.Records().Revenues(ctx, 2)
		require.NoError(t, err)
		require.Equal(t, []float64{250, 50}, skipLast)
	})
}

func TestWithTxRollsBackOnError(t *testing.T) {
	st := newStore(t)
	ctx := t.Context()
	load(t, st, sampleRecords())

	boom := errors.New("boom")
	err := st.WithTx(ctx, func(tx store.Tx) error {
		require.NoError(t, tx.Records().ReplaceAll(ctx, nil))
		return boom
	})
	require.ErrorIs(t, err, boom)

	n, err := st.Records().Count(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(4), n)
}

func TestNestedTxUnsupported(t *testing.T) {
	st := newStore(t)

	err := st.WithTx(t.Context(), func(tx store.Tx) error {
		_, err := tx.Tx(context.Background())
		require.Error(t, err)
		return tx.WithTx(context.Background(), func(store.Tx) error { return nil })
	})
	require.Error(t, err)
}

func TestAudit(t *testing.T) {
	st := newStore(t)
	ctx := t.Context()

	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	for i, qt := range []domain.QueryType{
		domain.QueryRevenueByRegion,
		domain.QueryCountByCategory,
		domain.QueryCountByFingerprint,
	} {
		at := base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, st.Audit().CreateEntry(ctx, domain.AuditEntry{
			ID:         idx.NewAt(at).String(),
			Type:       qt,
			UseDP:      i%2 == 0,
			Epsilon:    float64(i),
			Status:     200,
			RemoteAddr: "127.0.0.1",
			RequestID:  "req-" + string(qt),
			CreatedAt:  at,
		}))
	}

	t.Run("list recent is newest first", func(t *testing.T) {
		got, err := st.Audit().ListRecent(ctx, 2, idx.Zero)
		require.NoError(t, err)
		require.Len(t, got, 2)
		require.Equal(t, domain.QueryCountByFingerprint, got[0].Type)
		require.Equal(t, domain.QueryCountByCategory, got[1].Type)
		require.True(t, got[0].UseDP)
		require.False(t, got[1].UseDP)
		require.Equal(t, base.Add(2*time.Hour), got[0].CreatedAt)
		require.Equal(t, "req-count_by_fingerprint", got[0].RequestID)
	})

	t.Run("before pages through older entries", func(t *testing.T) {
		first, err := st.Audit().ListRecent(ctx, 2, idx.Zero)
		require.NoError(t, err)
		require.Len(t, first, 2)

		next, err := st.Audit().ListRecent(ctx, 2, idx.ID(first[1].ID))
		require.NoError(t, err)
		require.Len(t, next, 1)
		require.Equal(t, domain.QueryRevenueByRegion, next[0].Type)

		last, err := st.Audit().ListRecent(ctx, 2, idx.ID(next[0].ID))
		require.NoError(t, err)
		require.Empty(t, last)
	})

	t.Run("delete older than cutoff", func(t *testing.T) {
		n, err := st.Audit().DeleteOlderThan(ctx, base.Add(90*time.Minute))
		require.NoError(t, err)
		require.Equal(t, int64(2), n)

		got, err := st.Audit().ListRecent(ctx, 10, idx.Zero)
		require.NoError(t, err)
		require.Len(t, got, 1)
	})
}
