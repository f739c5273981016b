// Package httptransport assembles the feature routers into one handler.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	adminhandler "certmint/internal/admin/handler"
	authhandler "certmint/internal/auth/handler"
	certhandler "certmint/internal/certificate/handler"
	identityhandler "certmint/internal/identity/handler"
	"certmint/internal/platform/metrics"
	"certmint/internal/platform/middleware"
	verificationhandler "certmint/internal/verification/handler"
)

const requestTimeout = 30 * time.Second

// Registrar is anything that can attach its routes to a chi router; every
// feature handler satisfies it.
type Registrar interface {
	Register(r chi.Router)
}

// Handlers collects the feature handlers wired in main.
type Handlers struct {
	Auth         *authhandler.Handler
	Identity     *identityhandler.Handler
	Certificate  *certhandler.Handler
	Verification *verificationhandler.Handler
	Admin        *adminhandler.Handler
}

// NewRouter builds the full route tree. The base middleware chain runs once
// for every request; auth requirements live inside the feature handlers so
// public endpoints stay public.
func NewRouter(logger *slog.Logger, m *metrics.Metrics, gatherer prometheus.Gatherer, h Handlers) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.Latency(m))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api", func(api chi.Router) {
		for _, registrar := range []Registrar{h.Auth, h.Identity, h.Certificate, h.Verification, h.Admin} {
			registrar.Register(api)
		}
	})

	return r
}
