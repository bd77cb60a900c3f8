package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aussiebroadwan/dpquery/internal/query/domain"
	"github.com/aussiebroadwan/dpquery/internal/query/service"
	"github.com/aussiebroadwan/dpquery/pkg/dpsdk"
	"github.com/aussiebroadwan/dpquery/pkg/httpx"
	"github.com/aussiebroadwan/dpquery/pkg/slogx"
)

const maxQueryBody = 64 << 10

type QueryHandler struct {
	QueryService *service.QueryService

	// ClientIP fills the audit entry's remote address. Nil uses the
	// connection's peer.
	ClientIP httpx.KeyExtractor
}

// ServeHTTP answers one aggregate query.
//
//	@Summary		Run an aggregate query
//	@Description	Answers revenue_by_region, count_by_category, count_by_fingerprint or total_revenue.
//	@Description	With use_dp the answer carries Laplace noise and the response reports the epsilon spent.
//	@Description	Any epsilon in the request is ignored; the server policy decides.
//	@Tags			Query
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dpsdk.QueryRequest		true	"Query"
//	@Success		200		{object}	dpsdk.QueryResponse		"Query answer"
//	@Failure		400		{object}	dpsdk.ErrorResponse		"Malformed request or unsupported query type"
//	@Failure		429		{object}	dpsdk.ErrorResponse		"Rate limit exceeded"
//	@Failure		500		{object}	dpsdk.ErrorResponse		"Dataset not loaded or internal error"
//	@Router			/api/query [post].
func (h *QueryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	entry := domain.AuditEntry{
		RemoteAddr: h.clientIP(r),
		RequestID:  slogx.RequestID(ctx),
	}
	reply := func(code int, errCode, description string) {
		entry.Status = code
		h.audit(r, entry)
		httpx.WriteError(w, code, errCode, description)
	}

	var req dpsdk.QueryRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxQueryBody))
	if err := dec.Decode(&req); err != nil {
		log.Debug("invalid query body", "error", err)
		reply(http.StatusBadRequest, dpsdk.ErrorCodeInvalidRequest, "Request body must be a JSON query object.")
		return
	}

	entry.Type = domain.QueryType(req.Type)
	entry.UseDP = req.UseDP

	if req.Epsilon != nil {
		log.Debug("ignoring client-supplied epsilon", "requested", *req.Epsilon, "type", req.Type)
	}

	res, err := h.QueryService.Execute(ctx, service.QueryRequest{
		Type:   domain.QueryType(req.Type),
		UseDP:  req.UseDP,
		Params: toServiceParams(req.Params),
	})
	switch {
	case err == nil:
	case errors.Is(err, service.ErrDataNotLoaded):
		reply(http.StatusInternalServerError, dpsdk.ErrorCodeDataNotLoaded, "Server data not loaded.")
		return
	case errors.Is(err, service.ErrUnsupportedQuery):
		reply(http.StatusBadRequest, dpsdk.ErrorCodeUnsupportedQueryType, "Unsupported query type.")
		return
	case errors.Is(err, service.ErrInvalidParams):
		reply(http.StatusBadRequest, dpsdk.ErrorCodeInvalidRequest, err.Error())
		return
	default:
		log.Error("query failed", "type", req.Type, "error", err)
		reply(http.StatusInternalServerError, dpsdk.ErrorCodeServerError, "Failed to answer query.")
		return
	}

	raw, err := json.Marshal(res.Value)
	if err != nil {
		log.Error("failed to encode query result", "type", req.Type, "error", err)
		reply(http.StatusInternalServerError, dpsdk.ErrorCodeServerError, "Failed to answer query.")
		return
	}

	log.Info("query answered",
		"query_id", res.ID,
		"type", res.Type,
		"use_dp", res.UseDP,
		"epsilon", res.Epsilon,
	)

	entry.ID = res.ID
	entry.Epsilon = res.Epsilon
	entry.Status = http.StatusOK
	h.audit(r, entry)

	httpx.WriteJSON(w, http.StatusOK, dpsdk.QueryResponse{
		Result:  raw,
		Epsilon: res.Epsilon,
		QueryID: res.ID,
	})
}

func (h *QueryHandler) clientIP(r *http.Request) string {
	if h.ClientIP == nil {
		return httpx.IPKeyExtractor(r)
	}
	return h.ClientIP(r)
}

// audit failures are logged but never turn an answer into an error.
func (h *QueryHandler) audit(r *http.Request, e domain.AuditEntry) {
	if err := h.QueryService.RecordAudit(r.Context(), e); err != nil {
		slogx.FromContext(r.Context()).Warn("failed to record query audit", "error", err)
	}
}

func toServiceParams(p *dpsdk.QueryParams) service.QueryParams {
	if p == nil {
		return service.QueryParams{}
	}
	return service.QueryParams{
		Year:       p.Year,
		Month:      p.Month,
		LOS:        p.LOS,
		Channel:    p.Channel,
		ExcludeRow: p.ExcludeRow,
	}
}
