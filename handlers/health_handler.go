package handlers

import (
	"net/http"
	"time"

	"github.com/upb/login-telemetry/app"
	"github.com/upb/login-telemetry/config"
	"github.com/upb/login-telemetry/store"
	"github.com/upb/login-telemetry/utils"
	"go.uber.org/zap"
)

// HealthResponse is the body of the health probe.
type HealthResponse struct {
	OK      bool   `json:"ok"`
	Service string `json:"service"`
	Time    string `json:"time"`
}

// HealthHandler handles GET /. It always returns 200 while the process is
// serving.
func HealthHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteJSON(w, http.StatusOK, HealthResponse{
			OK:      true,
			Service: config.ServiceName,
			Time:    time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// ReadinessHandler handles GET /readyz. When the active store backend can
// report reachability, an unreachable store turns readiness into a 503.
func ReadinessHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if pinger, ok := deps.Store.(store.Pinger); ok {
			if err := pinger.Ping(r.Context()); err != nil {
				deps.Logger.Warn("store readiness check failed", zap.Error(err))
				_ = utils.WriteError(w, http.StatusServiceUnavailable, "Store unavailable")
				return
			}
		}
		_ = utils.WriteJSON(w, http.StatusOK, HealthResponse{
			OK:      true,
			Service: config.ServiceName,
			Time:    time.Now().UTC().Format(time.RFC3339),
		})
	}
}
