package server

import (
	"net/http"
	"time"

	"github.com/subarna-sahoo/portcast-project-assignment/pkg/health"
	"github.com/subarna-sahoo/portcast-project-assignment/pkg/metrics"
	"github.com/subarna-sahoo/portcast-project-assignment/pkg/middleware"
)

// Routes builds the service mux and wraps it in the standard middleware
// chain: request ID, metrics, request timeout. m may be nil, which skips
// the metrics middleware.
func Routes(h *Handler, checker *health.Checker, m *metrics.Metrics, requestTimeout time.Duration) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/passages/fetch", h.Ingest)
	mux.HandleFunc("GET /api/v1/dictionary", h.Dictionary)
	mux.HandleFunc("POST /api/v1/search", h.Search)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.InvalidateRanking)
	mux.HandleFunc("GET /health", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var handler http.Handler = mux
	if requestTimeout > 0 {
		handler = middleware.Timeout(requestTimeout)(handler)
	}
	if m != nil {
		handler = middleware.Metrics(m)(handler)
	}
	return middleware.RequestID(handler)
}
