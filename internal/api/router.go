package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/rs/cors"
)

// RouterConfig holds the HTTP-layer settings.
type RouterConfig struct {
	// BearerToken protects every route except health. Empty disables auth.
	BearerToken string
	CORSOrigins []string
	// RateLimit is requests per minute per IP; 0 means 60.
	RateLimit int
}

// NewRouter builds and returns the Chi router with all routes configured.
// The health endpoint is never authenticated. Weather routes exist only when
// the handlers have a weather service.
func NewRouter(handlers *Handlers, cfg RouterConfig, checks []HealthCheck, log *slog.Logger) *chi.Mux {
	limit := cfg.RateLimit
	if limit <= 0 {
		limit = 60
	}

	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(log))
	r.Use(cors.New(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}).Handler)
	r.Use(httprate.LimitByIP(limit, time.Minute))

	r.Get("/api/v1/health", HealthHandlerFunc(checks, log))

	r.Group(func(r chi.Router) {
		if cfg.BearerToken != "" {
			r.Use(BearerAuth(cfg.BearerToken))
		}

		r.Post("/api/v1/chat", handlers.Chat)

		r.Get("/api/v1/sessions/{id}", handlers.GetSession)
		r.Delete("/api/v1/sessions/{id}", handlers.DeleteSession)

		r.Get("/api/v1/destinations", handlers.ListDestinations)
		r.Get("/api/v1/destinations/{name}", handlers.GetDestination)

		if handlers.weather != nil {
			r.Get("/api/v1/weather", handlers.ListWeatherCities)
			r.Get("/api/v1/weather/{city}", handlers.GetWeather)
			r.Get("/api/v1/weather/{city}/forecast", handlers.GetForecast)
		}
	})

	return r
}

// Ensure chi.Mux implements http.Handler.
var _ http.Handler = (*chi.Mux)(nil)
