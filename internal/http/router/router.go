// Package router wires every HTTP route and middleware onto one handler.
package router

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aanand-mishra/student-records/internal/config"
	"github.com/aanand-mishra/student-records/internal/http/handlers/health"
	"github.com/aanand-mishra/student-records/internal/http/handlers/page"
	"github.com/aanand-mishra/student-records/internal/http/handlers/student"
	"github.com/aanand-mishra/student-records/internal/http/middleware"
	"github.com/aanand-mishra/student-records/internal/storage"
	"github.com/aanand-mishra/student-records/internal/web"
)

// Deps are the collaborators every route is built from.
type Deps struct {
	Storage storage.Storage
	Index   config.IndexPage
	Logger  *slog.Logger
}

// New registers the route table:
//
//	GET  /               → static index page
//	GET  /dashboard      → HTML list of all students
//	GET  /api/students   → list all students (JSON)
//	POST /api/students   → create a student (JSON)
//	GET  /static/        → embedded JS assets
//	GET  /healthz        → liveness
//	GET  /readyz         → readiness (pings storage)
//	GET  /metrics        → Prometheus metrics
func New(d Deps) (http.Handler, error) {
	renderer, err := web.New()
	if err != nil {
		return nil, fmt.Errorf("router.New: %w", err)
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", page.Index(renderer, d.Index))
	mux.HandleFunc("GET /dashboard", page.Dashboard(d.Storage, renderer))

	mux.HandleFunc("POST /api/students", student.New(d.Storage))
	mux.HandleFunc("GET /api/students", student.GetList(d.Storage))

	mux.Handle("GET /static/", web.Static())

	mux.HandleFunc("GET /healthz", health.Liveness())
	mux.HandleFunc("GET /readyz", health.Readiness(d.Storage))
	mux.Handle("GET /metrics", promhttp.Handler())

	return withMiddleware(mux, d.Logger), nil
}

// withMiddleware wraps the mux. Recovery sits innermost so a recovered
// panic still reaches Logging and Metrics as a 500. Neither Metrics nor
// Recovery copies the request, so the pattern the mux records stays
// visible to Metrics.
func withMiddleware(mux *http.ServeMux, logger *slog.Logger) http.Handler {
	return middleware.Chain(
		middleware.RequestID,
		middleware.Logging(logger),
		middleware.Metrics,
		middleware.Recovery(logger),
	)(mux)
}
