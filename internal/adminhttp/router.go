// Package adminhttp serves the server's operational HTTP surface: a
// liveness probe and a Prometheus scrape endpoint. It never carries file
// traffic, which stays on the wire protocol's own listener.
package adminhttp

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Bilal079/dropvault/internal/cli/health"
	"github.com/Bilal079/dropvault/internal/logger"
	"github.com/Bilal079/dropvault/internal/metrics"
)

// NewRouter builds the admin HTTP router. startedAt is reported back in the
// /healthz response so clients can compute server uptime.
func NewRouter(m *metrics.Metrics, startedAt time.Time) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		uptime := time.Since(startedAt)

		var resp health.Response
		resp.Status = "ok"
		resp.Timestamp = time.Now().UTC().Format(time.RFC3339)
		resp.Data.Service = "dropvault"
		resp.Data.StartedAt = startedAt.UTC().Format(time.RFC3339)
		resp.Data.Uptime = uptime.String()
		resp.Data.UptimeSec = int64(uptime.Seconds())

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(resp)
	})

	r.Handle("/metrics", promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}))

	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := middleware.GetReqID(r.Context())

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		logger.Debug("admin HTTP request",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start).String(),
		)
	})
}
