package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Nexuses/rsmsaudi-carbon-credit-assessment/internal/catalog"
	"github.com/Nexuses/rsmsaudi-carbon-credit-assessment/internal/config"
	"github.com/Nexuses/rsmsaudi-carbon-credit-assessment/internal/delivery"
	"github.com/Nexuses/rsmsaudi-carbon-credit-assessment/internal/flow"
	"github.com/Nexuses/rsmsaudi-carbon-credit-assessment/internal/models"
	"github.com/Nexuses/rsmsaudi-carbon-credit-assessment/internal/services"
)

// Deliverer runs the side-effecting assessment operations
type Deliverer interface {
	Submit(ctx context.Context, req models.SubmitRequest) (*delivery.SubmitResult, error)
	GenerateReport(ctx context.Context, req models.SubmitRequest) (*delivery.Artifact, error)
	BookConsultation(ctx context.Context, req models.Consultation) (*delivery.ConsultationResult, error)
}

// Server represents the HTTP API server
type Server struct {
	config         config.ServerConfig
	router         *chi.Mux
	catalog        *catalog.Catalog
	delivery       Deliverer
	machine        *flow.Machine
	registry       *services.Registry
	revealDuration time.Duration
}

// NewServer creates a new API server
func NewServer(
	cfg config.ServerConfig,
	cat *catalog.Catalog,
	deliverer Deliverer,
	registry *services.Registry,
) *Server {
	if registry == nil {
		registry = services.NewRegistry()
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 90 * time.Second
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}

	s := &Server{
		config:         cfg,
		catalog:        cat,
		delivery:       deliverer,
		machine:        flow.NewMachine(cat),
		registry:       registry,
		revealDuration: flow.DefaultRevealDuration,
	}
	s.setupRouter()
	return s
}

// Router returns the configured router
func (s *Server) Router() http.Handler {
	return s.router
}

// setupRouter configures all routes and middleware
func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.config.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Accept-Language", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(languageMiddleware)

		// The flow socket stays open for the whole assessment, so it is kept out of
		// the request timeout.
		r.Get("/flow/ws", s.handleFlowWS)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(s.config.RequestTimeout))
			r.Use(maxBodyMiddleware(maxBodyBytes))

			r.Get("/languages", s.handleListLanguages)
			r.Get("/domains", s.handleListDomains)
			r.Get("/catalog", s.handleGetCatalog)
			r.Post("/score", s.handleScore)

			r.Post("/assessments", s.handleSubmitAssessment)
			r.Post("/reports", s.handleGenerateReport)
			r.Post("/consultations", s.handleBookConsultation)
		})
	})

	s.router = r
}

// loggingMiddleware logs HTTP requests using slog
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			slog.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
				"remote_addr", r.RemoteAddr,
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
