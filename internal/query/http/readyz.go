package http

import (
	"context"
	"net/http"
	"time"

	"github.com/aussiebroadwan/dpquery/pkg/dpsdk"
	"github.com/aussiebroadwan/dpquery/pkg/httpx"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type datasetStatus interface {
	Loaded() bool
}

// ReadyzHandler godoc
//
//	@Summary		Readiness Check Endpoint
//	@Description	Readiness probe covering the database connection and the loaded dataset
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	dpsdk.HealthResponse	"status, uptime, version, checks"
//	@Failure		503	{object}	dpsdk.HealthResponse	"status, uptime, version, checks - service not ready"
//	@Router			/readyz [get].
func ReadyzHandler(startTime time.Time, version string, db pinger, dataset datasetStatus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &dpsdk.HealthChecks{
			Database: "ok",
			Dataset:  "ok",
		}
		overallStatus := "ok"
		statusCode := http.StatusOK

		if err := db.Ping(r.Context()); err != nil {
			checks.Database = "error: " + err.Error()
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		if !dataset.Loaded() {
			checks.Dataset = "error: not loaded"
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		httpx.WriteJSON(w, statusCode, dpsdk.HealthResponse{
			Status:  overallStatus,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		})
	}
}
