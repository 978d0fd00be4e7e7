package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/athebyme/gomarket-platform/harvester/internal/api/handlers"
	"github.com/athebyme/gomarket-platform/harvester/internal/api/middleware"
	"github.com/athebyme/gomarket-platform/harvester/internal/security"
	"github.com/athebyme/gomarket-platform/harvester/pkg/interfaces"
)

// Pinger проверка зависимости для /ready
type Pinger interface {
	Ping(ctx context.Context) error
}

// RouterOptions параметры маршрутизатора
type RouterOptions struct {
	RequestTimeout time.Duration
	RateLimit      float64
	RateBurst      int
	// Auth проверка токенов; nil отключает авторизацию /api/v1
	Auth interfaces.AuthPort
	// Ready зависимости, проверяемые в /ready
	Ready map[string]Pinger
}

// SetupRouter настраивает маршрутизатор
func SetupRouter(runs handlers.RunManager, logger interfaces.LoggerPort, opts RouterOptions) *chi.Mux {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}

	r := chi.NewRouter()

	// Глобальные middleware
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Metrics)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(chimiddleware.Timeout(opts.RequestTimeout))
	r.Use(middleware.RateLimit(opts.RateLimit, opts.RateBurst))

	r.Method(http.MethodGet, "/health", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}))
	r.Method(http.MethodHead, "/health", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	r.Get("/ready", readyHandler(opts.Ready, logger))
	r.Handle("/metrics", promhttp.Handler())

	runHandler := handlers.NewRunHandler(runs, logger)

	r.Route("/api/v1", func(r chi.Router) {
		if opts.Auth != nil {
			r.Use(middleware.Auth(opts.Auth, logger))
		}

		r.Route("/runs", func(r chi.Router) {
			r.With(requireRole(opts.Auth, security.RoleOperator)).Post("/", runHandler.StartRun)
			r.With(requireRole(opts.Auth, security.RoleViewer, security.RoleOperator)).Get("/{id}", runHandler.GetRun)
		})
	})

	return r
}

func requireRole(auth interfaces.AuthPort, roles ...string) func(http.Handler) http.Handler {
	if auth == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return middleware.RequireRole(roles...)
}

func readyHandler(deps map[string]Pinger, logger interfaces.LoggerPort) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		for name, dep := range deps {
			if err := dep.Ping(r.Context()); err != nil {
				logger.WarnWithContext(r.Context(), "Зависимость недоступна",
					interfaces.LogField{Key: "dependency", Value: name},
					interfaces.LogField{Key: "error", Value: err.Error()},
				)
				http.Error(w, name+" unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}
}
