// Package server provides the HTTP API for the paper index.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/paperindex/internal/config"
	"github.com/hyperjump/paperindex/internal/models"
	"github.com/hyperjump/paperindex/internal/semindex"
)

// Index is the part of *semindex.Index the API serves.
type Index interface {
	Add(ctx context.Context, paper models.Paper) (semindex.AddResult, error)
	Search(ctx context.Context, text string, k int) ([]models.ScoredPaper, error)
	SimilarByID(ctx context.Context, id string, k int) ([]models.ScoredPaper, error)
	Get(id string) (models.Paper, bool)
	Papers() []models.Paper
	Counts() (vectors, records int)
	IndexType() string
	Dimensions() int
}

// Catalog finds stored papers by keyword. *keyword.Catalog implements it.
type Catalog interface {
	Search(ctx context.Context, query string, limit int) ([]string, error)
	Suggest(query string) (string, bool)
}

// DiskUsage reports the size of the saved state. *persist.Layer implements it.
type DiskUsage interface {
	DiskUsageBytes() (int64, error)
}

// Server is the HTTP server for the paper index API.
type Server struct {
	index   Index
	catalog Catalog
	disk    DiskUsage
	config  *config.Config
	logger  *zap.Logger
	server  *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(index Index, catalog Catalog, disk DiskUsage, cfg *config.Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		index:   index,
		catalog: catalog,
		disk:    disk,
		config:  cfg,
		logger:  logger,
	}
}

// Router returns the API routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/papers", s.handleAddPaper)
		r.Get("/papers", s.handleListPapers)
		r.Get("/papers/{id}", s.handleGetPaper)
		r.Get("/papers/{id}/similar", s.handleSimilar)
		r.Post("/search", s.handleSearch)
		r.Get("/status", s.handleStatus)
	})
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
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

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
