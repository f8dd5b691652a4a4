// internal/server/server.go

package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/nats-io/nats.go"

	"marketpulse/internal/config"
	"marketpulse/internal/domain/competitor"
	"marketpulse/internal/domain/record"
	"marketpulse/internal/domain/strategy"
	"marketpulse/internal/domain/trend"
	"marketpulse/internal/server/handlers"
)

// Server represents the HTTP server
type Server struct {
	server *http.Server
	router *chi.Mux
}

// NewServer creates a new HTTP server
func NewServer(
	cfg config.ServerConfig,
	eventsTopic string,
	natsConn *nats.Conn,
	recordStore record.Store,
	trendEngine trend.Engine,
	competitorEngine competitor.Engine,
	generator strategy.Generator,
) *Server {
	router := chi.NewRouter()

	// Middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	// CORS configuration
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CorsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Create handler dependencies
	recordHandler := handlers.NewRecordHandler(recordStore)
	trendHandler := handlers.NewTrendHandler(trendEngine, recordStore)
	competitorHandler := handlers.NewCompetitorHandler(competitorEngine, recordStore)
	strategyHandler := handlers.NewStrategyHandler(generator, trendEngine, competitorEngine)

	// Routes
	router.Route("/api", func(r chi.Router) {
		// Health check
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("OK"))
		})

		// API version
		r.Route("/v1", func(r chi.Router) {
			// Records API
			r.Route("/records", func(r chi.Router) {
				r.Get("/", recordHandler.SearchRecords)
				r.Post("/", recordHandler.StoreRecord)
			})

			// Trends API
			r.Route("/trends", func(r chi.Router) {
				r.Post("/analyze", trendHandler.Analyze)
				r.Get("/niches", trendHandler.Niches)
				r.Get("/keywords", trendHandler.Keywords)
				r.Get("/products", trendHandler.Products)
				r.Get("/predictions", trendHandler.Predictions)
			})

			// Competitors API
			r.Route("/competitors", func(r chi.Router) {
				r.Post("/analyze", competitorHandler.Analyze)
				r.Get("/", competitorHandler.List)
				r.Get("/gaps", competitorHandler.Gaps)
				r.Put("/{id}", competitorHandler.Update)
				r.Delete("/{id}", competitorHandler.Remove)
			})

			// Strategy API
			r.Route("/strategy", func(r chi.Router) {
				r.Post("/generate", strategyHandler.Generate)
			})
		})
	})

	// WebSocket endpoint for live analysis events
	router.Get("/ws/events", handlers.EventsWebSocketHandler(natsConn, eventsTopic))

	// Create HTTP server
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return &Server{
		server: httpServer,
		router: router,
	}
}

// ListenAndServe starts the HTTP server
func (s *Server) ListenAndServe() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
