// Package server exposes the entity store and the behaviour registries over
// HTTP: a health probe, prometheus metrics and a small JSON admin API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/specialistvlad/behaviourgrid/internal/ctxlog"
	"github.com/specialistvlad/behaviourgrid/internal/entitystore"
	"github.com/specialistvlad/behaviourgrid/internal/provider"
)

// maxBodyBytes caps request bodies accepted by the admin API.
const maxBodyBytes = 1 << 20

// BehaviourLister reports which entities carry which behaviour kinds.
type BehaviourLister interface {
	Snapshot() map[provider.Kind][]uuid.UUID
}

// Server routes admin requests.
type Server struct {
	router     *mux.Router
	store      *entitystore.Store
	behaviours BehaviourLister
	logger     *slog.Logger

	httpServer *http.Server
}

// New builds the router. metrics may be nil, in which case /metrics is not served.
func New(ctx context.Context, store *entitystore.Store, behaviours BehaviourLister, metrics http.Handler) *Server {
	s := &Server{
		router:     mux.NewRouter(),
		store:      store,
		behaviours: behaviours,
		logger:     ctxlog.FromContext(ctx).With("component", "server"),
	}

	s.router.Use(s.loggerMiddleware)
	s.router.HandleFunc("/health", s.healthHandler).Methods("GET")
	if metrics != nil {
		s.router.Handle("/metrics", metrics).Methods("GET")
	}
	s.router.HandleFunc("/entities", s.listEntitiesHandler).Methods("GET")
	s.router.HandleFunc("/entities", s.createEntityHandler).Methods("POST")
	s.router.HandleFunc("/entities/{id}", s.getEntityHandler).Methods("GET")
	s.router.HandleFunc("/entities/{id}", s.deleteEntityHandler).Methods("DELETE")
	s.router.HandleFunc("/entities/{id}/properties/{name}", s.setPropertyHandler).Methods("PUT")
	s.router.HandleFunc("/entities/{id}/reconfigure", s.reconfigureHandler).Methods("POST")
	s.router.HandleFunc("/behaviours", s.behavioursHandler).Methods("GET")

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// loggerMiddleware makes the server's logger available to store and provider
// code running on behalf of a request.
func (s *Server) loggerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(ctxlog.WithLogger(r.Context(), s.logger)))
	})
}

// Start listens on port in a background goroutine. A port <= 0 disables the server.
func (s *Server) Start(port int) {
	if port <= 0 {
		s.logger.Warn("Admin server not started: disabled")
		return
	}
	addr := fmt.Sprintf(":%d", port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		s.logger.Info("🩺 Admin server starting", "address", fmt.Sprintf("http://localhost%s/health", addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Admin server failed unexpectedly", "error", err)
		}
	}()
}

// Shutdown gracefully stops a started server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		s.logger.Debug("Admin server was not running.")
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	s.logger.Info("🩺 Shutting down admin server...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("Admin server shutdown failed", "error", err)
		return err
	}
	s.logger.Debug("Admin server shut down gracefully.")
	return nil
}
