// Package server exposes the document library and question answering over
// HTTP and a websocket.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ziadkadry99/docqa/internal/history"
	"github.com/ziadkadry99/docqa/internal/ingest"
	"github.com/ziadkadry99/docqa/internal/library"
	"github.com/ziadkadry99/docqa/internal/qa"
)

// Config holds server configuration.
type Config struct {
	Port           int
	AllowAll       bool  // allow all CORS origins (dev mode)
	MaxUploadBytes int64 // 0 means 25 MiB
}

const defaultMaxUpload = 25 << 20

// Server serves the docqa HTTP API.
type Server struct {
	cfg        Config
	lib        *library.Library
	ingestor   *ingest.Ingestor
	answerer   *qa.Answerer
	history    *history.Store
	log        *slog.Logger
	router     chi.Router
	httpServer *http.Server
}

// New creates a Server. hist may be nil, in which case the history routes
// are not mounted.
func New(cfg Config, lib *library.Library, ingestor *ingest.Ingestor, answerer *qa.Answerer, hist *history.Store, logger *slog.Logger) *Server {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = defaultMaxUpload
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:      cfg,
		lib:      lib,
		ingestor: ingestor,
		answerer: answerer,
		history:  hist,
		log:      logger,
	}
	s.router = s.buildRouter()
	return s
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
		corsOpts.AllowCredentials = false
	}
	r.Use(cors.Handler(corsOpts))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// The websocket outlives any request timeout.
	r.Get("/api/ws", s.handleWebSocket)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(120 * time.Second))

		r.Route("/api/documents", func(r chi.Router) {
			r.Post("/", s.handleUpload)
			r.Get("/", s.handleListDocuments)
			r.Get("/{key}", s.handleGetDocument)
			r.Delete("/{key}", s.handleDeleteDocument)
		})
		r.Post("/api/ask", s.handleAsk)
		r.Post("/api/search", s.handleSearch)

		if s.history != nil {
			history.RegisterRoutes(r, s.history)
		}
	})

	return r
}

// Router returns the chi router, mainly for tests.
func (s *Server) Router() chi.Router { return s.router }

// Start begins listening on the configured port.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      180 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.log.Info("docqa server listening", "addr", addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
