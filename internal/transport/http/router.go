package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"profilegate/internal/platform/health"
	"profilegate/pkg/platform/middleware/pipeline"
	request "profilegate/pkg/platform/middleware/request"
	"profilegate/pkg/platform/middleware/requesttime"
	"profilegate/pkg/platform/validation"
)

// RouteRegistrar mounts a feature's routes.
type RouteRegistrar interface {
	Register(r chi.Router)
}

// Deps holds everything the router mounts.
type Deps struct {
	Logger   *slog.Logger
	Verifier *pipeline.Verifier
	Actions  RouteRegistrar
	Health   *health.Handler

	// Gatherer backs /metrics; nil disables the endpoint.
	Gatherer       prometheus.Gatherer
	RequestMetrics *request.Metrics
	RequestTimeout time.Duration
}

// NewRouter wires the public endpoints with middleware. Action routes require
// a pipeline bearer token; health and metrics are open for probes and scrapers.
func NewRouter(d Deps) http.Handler {
	if d.Logger == nil || d.Verifier == nil || d.Actions == nil {
		panic("httptransport: logger, verifier and actions are required")
	}

	r := chi.NewRouter()

	r.Use(request.Recovery(d.Logger))
	r.Use(request.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(request.Logger(d.Logger))
	r.Use(request.LatencyMiddleware(d.RequestMetrics, routePattern))
	r.Use(request.BodyLimit(validation.MaxBodySize))

	if d.Health != nil {
		d.Health.Register(r)
	}
	if d.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Group(func(r chi.Router) {
		if d.RequestTimeout > 0 {
			r.Use(request.Timeout(d.RequestTimeout))
		}
		r.Use(request.ContentTypeJSON)
		r.Use(pipeline.RequirePipeline(d.Verifier, d.Logger))
		d.Actions.Register(r)
	})

	return r
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		return rctx.RoutePattern()
	}
	return ""
}
