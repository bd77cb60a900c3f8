package http

import (
	"maps"
	"net/http"

	"github.com/aussiebroadwan/dpquery/internal/query/service"
	"github.com/aussiebroadwan/dpquery/pkg/dpsdk"
	"github.com/aussiebroadwan/dpquery/pkg/httpx"
)

type PolicyHandler struct {
	QueryService *service.QueryService
}

// ServeHTTP reports the privacy policy.
//
//	@Summary		Privacy policy
//	@Description	Epsilon spent per query type when use_dp is set. Types not listed use default_epsilon.
//	@Tags			Query
//	@Produce		json
//	@Success		200	{object}	dpsdk.PolicyResponse
//	@Router			/api/policy [get].
func (h *PolicyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p := h.QueryService.Policy
	httpx.WriteJSON(w, http.StatusOK, dpsdk.PolicyResponse{
		DefaultEpsilon: p.Default(),
		Epsilon:        maps.Clone(p.Epsilon),
	})
}
