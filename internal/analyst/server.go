package analyst

import (
	"io"
	"maps"
	"slices"
	"strconv"
	"time"

	"github.com/aussiebroadwan/dpquery/pkg/dpsdk"
)

// WriteHealth renders liveness and readiness side by side. Either response
// may be nil, in which case its rows are left out.
func WriteHealth(w io.Writer, live, ready *dpsdk.HealthResponse) error {
	var rows [][]string
	if live != nil {
		rows = append(rows,
			[]string{"Liveness", live.Status},
			[]string{"Version", live.Version},
			[]string{"Uptime", live.Uptime},
		)
	}
	if ready != nil {
		rows = append(rows, []string{"Readiness", ready.Status})
		if ready.Checks != nil {
			rows = append(rows,
				[]string{"Database", ready.Checks.Database},
				[]string{"Dataset", ready.Checks.Dataset},
			)
		}
	}
	return renderTable(w, []string{"Check", "Result"}, rows)
}

// WritePolicy renders the server's epsilon per query type.
func WritePolicy(w io.Writer, p *dpsdk.PolicyResponse) error {
	rows := make([][]string, 0, len(p.Epsilon)+1)
	for _, qt := range slices.Sorted(maps.Keys(p.Epsilon)) {
		rows = append(rows, []string{qt, strconv.FormatFloat(p.Epsilon[qt], 'f', -1, 64)})
	}
	rows = append(rows, []string{"(default)", strconv.FormatFloat(p.DefaultEpsilon, 'f', -1, 64)})
	return renderTable(w, []string{"Query Type", "Epsilon"}, rows)
}

// WriteHistory renders audit entries in the order given.
func WriteHistory(w io.Writer, entries []dpsdk.AuditEntry) error {
	rows := make([][]string, len(entries))
	for i, e := range entries {
		eps := "-"
		if e.UseDP && e.Epsilon > 0 {
			eps = strconv.FormatFloat(e.Epsilon, 'f', -1, 64)
		}
		rows[i] = []string{
			e.CreatedAt.Local().Format(time.DateTime),
			e.Type,
			strconv.FormatBool(e.UseDP),
			eps,
			strconv.Itoa(e.Status),
			e.RemoteAddr,
			e.ID,
		}
	}
	return renderTable(w, []string{"Time", "Type", "DP", "Epsilon", "Status", "Client", "Query ID"}, rows)
}
