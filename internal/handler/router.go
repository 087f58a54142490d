package handler

import (
	"net/http"

	"github.com/Shetty-boy/Omnichannel-Agent-AI/internal/funnel"
	"github.com/Shetty-boy/Omnichannel-Agent-AI/internal/infra/observability"
	"github.com/Shetty-boy/Omnichannel-Agent-AI/internal/port"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(svc *funnel.Service, sessions port.SessionStore, metrics *observability.Metrics, jwtSecret string, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler())
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {
		r.Use(OptionalJWTMiddleware(jwtSecret, logger))

		// Conversational entry point; the only surface a front end needs.
		r.Post("/chat", chatHandler(svc, logger))

		// Session inspection (debugging / UI tabs).
		r.Get("/sessions/{sessionId}", sessionHandler(sessions, logger))

		// Funnel-level metrics snapshot.
		r.Get("/metrics/funnel", funnelMetricsHandler(metrics))
	})

	return r
}

func healthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":  "active",
			"service": "omnichannel-sales-agent",
		})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func funnelMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.GetFunnelSnapshot())
	}
}
