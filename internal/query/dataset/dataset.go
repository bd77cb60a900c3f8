// Package dataset reads the customer CSV export into domain records.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/dpquery/internal/query/domain"
)

const columnPrefix = "cust_profile_bba_wl72k_v3."

// Source columns read from the export.
const (
	ColTotalRevenue = columnPrefix + "total_rev"
	ColRegion       = columnPrefix + "package_service"
	ColCategory     = columnPrefix + "package_category"
	ColActDate      = columnPrefix + "act_date"
	ColLOSSegment   = columnPrefix + "los_segment"
	ColChannel      = columnPrefix + "channel_new"
)

var requiredColumns = []string{
	ColTotalRevenue,
	ColRegion,
	ColCategory,
	ColActDate,
	ColLOSSegment,
	ColChannel,
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006/01/02",
	"1/2/2006",
}

var (
	ErrMissingColumn = errors.New("dataset: missing required column")
	ErrNoRows        = errors.New("dataset: no usable rows")
)

// Stats summarises a load.
type Stats struct {
	Read    int // data rows seen, excluding the header
	Kept    int
	Dropped int
}

// LoadFile opens path and parses it with Parse.
func LoadFile(path string) ([]domain.Record, Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	return Parse(f)
}

// Parse reads a headed CSV. Rows with an empty required field, or a revenue
// or activation date that does not parse, are dropped. Kept rows stay in
// file order.
func Parse(r io.Reader) ([]domain.Record, Stats, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, Stats{}, fmt.Errorf("read header: %w", err)
	}

	cols, err := indexColumns(header)
	if err != nil {
		return nil, Stats{}, err
	}

	var (
		out   []domain.Record
		stats Stats
	)
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, stats, fmt.Errorf("read row %d: %w", stats.Read+1, err)
		}
		stats.Read++

		rec, ok := parseRow(row, cols)
		if !ok {
			stats.Dropped++
			continue
		}
		out = append(out, rec)
	}

	stats.Kept = len(out)
	if stats.Kept == 0 {
		return nil, stats, ErrNoRows
	}
	return out, stats, nil
}

func indexColumns(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, dup := idx[name]; !dup {
			idx[name] = i
		}
	}

	for _, c := range requiredColumns {
		if _, ok := idx[c]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, c)
		}
	}
	return idx, nil
}

func parseRow(row []string, cols map[string]int) (domain.Record, bool) {
	field := func(name string) string {
		i := cols[name]
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	for _, c := range requiredColumns {
		if field(c) == "" {
			return domain.Record{}, false
		}
	}

	rev, err := strconv.ParseFloat(field(ColTotalRevenue), 64)
	if err != nil || math.IsNaN(rev) || math.IsInf(rev, 0) {
		return domain.Record{}, false
	}

	act, ok := ParseDate(field(ColActDate))
	if !ok {
		return domain.Record{}, false
	}

	return domain.Record{
		TotalRevenue:   rev,
		Region:         field(ColRegion),
		Category:       field(ColCategory),
		ActivationDate: act,
		LOSSegment:     field(ColLOSSegment),
		Channel:        field(ColChannel),
	}, true
}

// ParseDate tries each accepted layout in turn. The result is in UTC.
func ParseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
