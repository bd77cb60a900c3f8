package http

import (
	"log/slog"
	"net/http"
	"net/netip"
	"time"

	"github.com/aussiebroadwan/dpquery/internal/query/service"
	"github.com/aussiebroadwan/dpquery/internal/query/store"
	"github.com/aussiebroadwan/dpquery/pkg/httpx"
	"github.com/aussiebroadwan/dpquery/pkg/slogx"

	_ "github.com/aussiebroadwan/dpquery/api/query" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store        store.Store
	QueryService *service.QueryService

	// TrustedProxies may set X-Forwarded-For. Everyone else is keyed and
	// audited by their socket address.
	TrustedProxies []netip.Prefix
}

func NewRouter(buildVersion string, st store.Store, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerQueries()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Differential Privacy Query API
//	@version		0.1.0
//	@description	Aggregate queries over the customer dataset. Answers are exact or, when use_dp is set,
//	@description	perturbed with Laplace noise using an epsilon chosen by the server's privacy policy.
//
//	@contact.name	AussieBroadWAN Team
//	@contact.url	https://github.com/aussiebroadwan/dpquery
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host			localhost:5000
//	@BasePath		/
//
//	@schemes		http https
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) clientIP() httpx.KeyExtractor {
	return httpx.ClientIP{TrustedProxies: r.TrustedProxies}.Key
}

func (r *Router) registerQueries() {
	clientIP := r.clientIP()

	// POST /api/query - every answer spends privacy budget, so the tightest limit
	queryHandler := &QueryHandler{QueryService: r.QueryService, ClientIP: clientIP}
	r.Mux.Handle("POST /api/query",
		httpx.Chain(queryHandler,
			httpx.RateLimitMiddleware(httpx.QueryLimit, clientIP),
		),
	)

	policyHandler := &PolicyHandler{QueryService: r.QueryService}
	r.Mux.Handle("GET /api/policy",
		httpx.Chain(policyHandler,
			httpx.RateLimitMiddleware(httpx.ReadLimit, clientIP),
		),
	)

	auditHandler := &QueriesHandler{QueryService: r.QueryService}
	r.Mux.Handle("GET /api/queries",
		httpx.Chain(auditHandler,
			httpx.RateLimitMiddleware(httpx.ReadLimit, clientIP),
		),
	)
}

func (r *Router) registerSystem() {
	clientIP := r.clientIP()

	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitMiddleware(httpx.HealthLimit, clientIP),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.QueryService),
			httpx.RateLimitMiddleware(httpx.HealthLimit, clientIP),
		),
	)
}
