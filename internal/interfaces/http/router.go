package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/turtacn/MedRemind/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MedRemind/internal/interfaces/http/handlers"
	"github.com/turtacn/MedRemind/internal/interfaces/http/middleware"
)

// RouterConfig aggregates all handler and middleware dependencies required
// to construct the complete HTTP route tree.
type RouterConfig struct {
	// Handlers
	ReminderHandler     *handlers.ReminderHandler
	PrescriptionHandler *handlers.PrescriptionHandler
	ExtractionHandler   *handlers.ExtractionHandler
	HealthHandler       *handlers.HealthHandler

	// Middleware
	AuthMiddleware *middleware.AuthMiddleware
	LoggingConfig  middleware.LoggingConfig
	HTTPMetrics    middleware.HTTPRecorder

	// MetricsHandler serves the scrape endpoint at MetricsPath.
	MetricsHandler http.Handler
	MetricsPath    string

	Logger logging.Logger
}

// NewRouter constructs the complete HTTP route tree from the given configuration.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// --- Global middleware (applied to every request) ---
	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestLogging(cfg.Logger, cfg.LoggingConfig))
	r.Use(middleware.Metrics(cfg.HTTPMetrics))

	// --- Public probes ---
	if cfg.HealthHandler != nil {
		r.Get("/healthz", cfg.HealthHandler.Liveness)
		r.Get("/readyz", cfg.HealthHandler.Readiness)
	}
	if cfg.MetricsHandler != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.Handle(path, cfg.MetricsHandler)
	}

	// --- API v1 (authenticated) ---
	r.Route("/api/v1", func(api chi.Router) {
		if cfg.AuthMiddleware != nil {
			api.Use(cfg.AuthMiddleware.Handler)
		}
		registerPrescriptionRoutes(api, cfg.PrescriptionHandler)
		registerReminderRoutes(api, cfg.ReminderHandler)
		registerExtractionRoutes(api, cfg.ExtractionHandler)
	})

	return r
}

func registerPrescriptionRoutes(r chi.Router, h *handlers.PrescriptionHandler) {
	if h == nil {
		return
	}
	r.Post("/prescriptions/upload", h.Upload)
}

func registerReminderRoutes(r chi.Router, h *handlers.ReminderHandler) {
	if h == nil {
		return
	}
	r.Route("/reminders", func(rr chi.Router) {
		rr.Get("/", h.List)
		rr.Post("/voice", h.AddVoice)
		rr.Post("/manual", h.AddManual)
		rr.Post("/test", h.CreateTest)

		rr.Route("/{id}", func(item chi.Router) {
			item.Get("/", h.Get)
			item.Put("/", h.Update)
			item.Delete("/", h.Delete)
		})
	})
}

func registerExtractionRoutes(r chi.Router, h *handlers.ExtractionHandler) {
	if h == nil {
		return
	}
	r.Post("/parse", h.Parse)
	r.Post("/schedule/preview", h.Preview)
}

//Personal.AI order the ending
