// Package server provides the HTTP API for kashi.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hyperjump/kashi/internal/config"
	"github.com/hyperjump/kashi/internal/pipeline"
	"github.com/hyperjump/kashi/internal/storage"
	"go.uber.org/zap"
)

// WatchService manages the watched lyric directories at runtime.
type WatchService interface {
	Directories() []string
	AddDirectory(path string, syncExisting bool) error
	RemoveDirectory(path string) error
}

// Server is the HTTP server for the kashi API.
type Server struct {
	pipeline *pipeline.Pipeline
	storage  storage.Storage
	config   *config.ServerConfig
	logger   *zap.Logger
	server   *http.Server

	watch       WatchService
	configPath  string
	appConfig   *config.Config
	appConfigMu sync.Mutex
}

// NewServer creates a server with the given dependencies. watch may be nil
// when directory watching is disabled; configPath and appConfig, when set,
// are used to persist watch directory changes and to report status.
func NewServer(
	p *pipeline.Pipeline,
	store storage.Storage,
	cfg *config.ServerConfig,
	logger *zap.Logger,
	watch WatchService,
	configPath string,
	appConfig *config.Config,
) *Server {
	return &Server{
		pipeline:   p,
		storage:    store,
		config:     cfg,
		logger:     logger,
		watch:      watch,
		configPath: configPath,
		appConfig:  appConfig,
	}
}

// Router returns the HTTP handler with all routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/assign", s.handleAssign)

		r.Post("/songs", s.handleCreateSong)
		r.Get("/songs", s.handleListSongs)
		r.Get("/songs/{id}", s.handleGetSong)
		r.Delete("/songs/{id}", s.handleDeleteSong)

		r.Get("/categories", s.handleListCategories)
		r.Get("/categories/{id}", s.handleGetCategory)

		r.Get("/watch/directories", s.handleWatchDirectoriesList)
		r.Post("/watch/directories", s.handleWatchDirectoriesAdd)
		r.Delete("/watch/directories", s.handleWatchDirectoriesRemove)

		r.Get("/status", s.handleStatus)
	})
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
