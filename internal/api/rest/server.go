package rest

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/fortuna/cutman/internal/cache"
	"github.com/fortuna/cutman/internal/store"
)

// Server represents the REST API server
type Server struct {
	port    string
	server  *http.Server
	handler *Handler
}

// NewServer creates a new REST API server
func NewServer(port string, db *store.Database, redisCache *cache.RedisCache, sched Scheduler) *Server {
	handler := NewHandler(db, redisCache, sched)

	router := mux.NewRouter()

	// Apply middleware
	router.Use(RecoveryMiddleware)
	router.Use(LoggingMiddleware)
	router.Use(CORSMiddleware)

	// Health check
	router.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	// API v1 routes
	api := router.PathPrefix("/api/v1").Subrouter()

	// Pipeline runs
	api.HandleFunc("/runs/latest", handler.GetLatestRun).Methods("GET")
	api.HandleFunc("/runs", handler.TriggerRun).Methods("POST")
	api.HandleFunc("/scheduler/status", handler.GetSchedulerStatus).Methods("GET")

	// Events
	api.HandleFunc("/events/upcoming", handler.GetUpcomingEvents).Methods("GET")
	api.HandleFunc("/events/{eventID}/fights", handler.GetEventFights).Methods("GET")

	// Fighters
	api.HandleFunc("/fighters/search", handler.SearchFighters).Methods("GET")

	return &Server{
		port:    port,
		handler: handler,
		server: &http.Server{
			Addr:    fmt.Sprintf(":%s", port),
			Handler: router,
		},
	}
}

// Start starts the REST API server
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
