package http

import (
	"net/http"
	"strconv"

	"github.com/aussiebroadwan/dpquery/internal/query/service"
	"github.com/aussiebroadwan/dpquery/pkg/dpsdk"
	"github.com/aussiebroadwan/dpquery/pkg/httpx"
	"github.com/aussiebroadwan/dpquery/pkg/idx"
	"github.com/aussiebroadwan/dpquery/pkg/slogx"
)

type QueriesHandler struct {
	QueryService *service.QueryService
}

// ServeHTTP lists recent queries from the audit log.
//
//	@Summary		Recent queries
//	@Description	Newest audit entries first. limit defaults to 50 and is capped at 500.
//	@Description	Pass the last query_id of a page as before to fetch the next page.
//	@Tags			Audit
//	@Produce		json
//	@Param			limit	query		int							false	"Maximum entries"
//	@Param			before	query		string						false	"Only entries older than this query ID"
//	@Success		200		{object}	dpsdk.ListQueriesResponse
//	@Failure		400		{object}	dpsdk.ErrorResponse			"limit is not a number or before is not a query ID"
//	@Failure		500		{object}	dpsdk.ErrorResponse
//	@Router			/api/queries [get].
func (h *QueriesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			httpx.WriteError(w, http.StatusBadRequest, dpsdk.ErrorCodeInvalidRequest, "limit must be an integer")
			return
		}
		limit = n
	}

	var before idx.ID
	if raw := r.URL.Query().Get("before"); raw != "" {
		id, err := idx.Parse(raw)
		if err != nil {
			httpx.WriteError(w, http.StatusBadRequest, dpsdk.ErrorCodeInvalidRequest, "before must be a query ID")
			return
		}
		before = id
	}

	entries, err := h.QueryService.RecentQueries(ctx, limit, before)
	if err != nil {
		slogx.FromContext(ctx).Error("failed to list audit entries", "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, dpsdk.ErrorCodeServerError, "Failed to retrieve queries")
		return
	}

	response := dpsdk.ListQueriesResponse{
		Queries: make([]dpsdk.AuditEntry, len(entries)),
	}
	for i, e := range entries {
		response.Queries[i] = dpsdk.AuditEntry{
			ID:         e.ID,
			Type:       string(e.Type),
			UseDP:      e.UseDP,
			Epsilon:    e.Epsilon,
			Status:     e.Status,
			RemoteAddr: e.RemoteAddr,
			RequestID:  e.RequestID,
			CreatedAt:  e.CreatedAt,
		}
	}

	httpx.WriteJSON(w, http.StatusOK, response)
}
