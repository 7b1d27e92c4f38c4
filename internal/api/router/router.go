package router

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/rickd5991-stack/jenny-bot/internal/http/handlers"
	httpmiddleware "github.com/rickd5991-stack/jenny-bot/internal/http/middleware"
	"github.com/rickd5991-stack/jenny-bot/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger          *logging.Logger
	Callbacks       *handlers.CallbackHandler
	AdminBookings   *handlers.AdminBookingsHandler
	AdminAuthSecret string
	MetricsHandler  http.Handler
	// CallbackLimiter throttles gateway callbacks per client IP when set.
	CallbackLimiter *httpmiddleware.RateLimiter
	// HealthCheck reports backing store health; nil means always healthy.
	HealthCheck func(ctx context.Context) error
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", healthHandler(cfg.HealthCheck))
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Group(func(callbacks chi.Router) {
		if cfg.CallbackLimiter != nil {
			callbacks.Use(httpmiddleware.RateLimit(cfg.CallbackLimiter))
		}
		callbacks.Post("/ussd/callback", cfg.Callbacks.HandleUSSD)
		callbacks.Post("/voice/callback", cfg.Callbacks.HandleVoice)
		callbacks.Post("/callback", cfg.Callbacks.HandleCallback)
	})

	if cfg.AdminBookings != nil {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			admin.Get("/bookings", cfg.AdminBookings.ListBookings)
			admin.Get("/bookings/availability", cfg.AdminBookings.CheckAvailability)
		})
	}

	return r
}

func healthHandler(check func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if check != nil {
			if err := check(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_ = json.NewEncoder(w).Encode(map[string]string{"status": "unhealthy", "error": err.Error()})
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}
