package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/paperindex/internal/config"
	"github.com/hyperjump/paperindex/internal/models"
	"github.com/hyperjump/paperindex/internal/persist"
	"github.com/hyperjump/paperindex/internal/semindex"
)

func (s *Server) handleAddPaper(w http.ResponseWriter, r *http.Request) {
	var input models.PaperInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("add paper request", zap.String("paper_id", input.ID), zap.String("title", input.Title))

	res, err := s.index.Add(r.Context(), input.Paper())
	if err != nil {
		var perr *persist.PersistenceError
		switch {
		case errors.Is(err, semindex.ErrInvalidPaper):
			s.respondError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, semindex.ErrEmbedding):
			s.respondError(w, http.StatusUnprocessableEntity, err.Error())
		case errors.As(err, &perr):
			s.logger.Error("paper added but not saved", zap.String("paper_id", input.ID), zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
		default:
			s.logger.Error("add paper failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	status := http.StatusCreated
	if res.Duplicate {
		status = http.StatusOK
	}
	s.respondJSON(w, status, res)
}

func (s *Server) handleGetPaper(w http.ResponseWriter, r *http.Request) {
	p, ok := s.index.Get(chi.URLParam(r, "id"))
	if !ok {
		s.respondError(w, http.StatusNotFound, "paper not found")
		return
	}
	s.respondJSON(w, http.StatusOK, p)
}

func (s *Server) handleSimilar(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	id := chi.URLParam(r, "id")
	k := 0
	if raw := r.URL.Query().Get("k"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.respondError(w, http.StatusBadRequest, "k must be a non-negative integer")
			return
		}
		k = n
	}
	if _, ok := s.index.Get(id); !ok {
		s.respondError(w, http.StatusNotFound, "paper not found")
		return
	}
	k = models.ClampLimit(k, s.config.Search.RelatedLimit, s.config.Search.MaxLimit)

	results, err := s.index.SimilarByID(r.Context(), id, k)
	if err != nil {
		s.logger.Error("similar papers failed", zap.String("paper_id", id), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, models.SearchResponse{
		SeedID:    id,
		Results:   results,
		Total:     len(results),
		QueryTime: time.Since(start).Milliseconds(),
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var query models.SearchQuery
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := query.Validate(s.config.Search.DefaultLimit, s.config.Search.MaxLimit); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Debug("search request", zap.String("query", query.Query), zap.Int("limit", query.Limit))

	results, err := s.index.Search(r.Context(), query.Query, query.Limit)
	if err != nil {
		if errors.Is(err, semindex.ErrEmbedding) {
			s.respondError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		s.logger.Error("search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, models.SearchResponse{
		Query:     query.Query,
		Results:   results,
		Total:     len(results),
		QueryTime: time.Since(start).Milliseconds(),
	})
}

type paperList struct {
	Papers     []models.Paper `json:"papers"`
	Total      int            `json:"total"`
	Suggestion string         `json:"suggestion,omitempty"`
}

// handleListPapers lists every stored paper, or those matching ?q= by keyword.
func (s *Server) handleListPapers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		papers := s.index.Papers()
		s.respondJSON(w, http.StatusOK, paperList{Papers: papers, Total: len(papers)})
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}
	limit = models.ClampLimit(limit, s.config.Search.MaxLimit, s.config.Search.MaxLimit)

	ids, err := s.catalog.Search(r.Context(), q, limit)
	if err != nil {
		s.logger.Error("catalog search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := paperList{Papers: make([]models.Paper, 0, len(ids))}
	for _, id := range ids {
		if p, ok := s.index.Get(id); ok {
			resp.Papers = append(resp.Papers, p)
		}
	}
	resp.Total = len(resp.Papers)
	if resp.Total == 0 {
		if suggestion, ok := s.catalog.Suggest(q); ok {
			resp.Suggestion = suggestion
		}
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, StatusOf(s.index, s.disk, s.config))
}

// StatusOf reports counts, disk usage and configuration for index.
func StatusOf(index Index, disk DiskUsage, cfg *config.Config) models.Status {
	vectors, records := index.Counts()
	st := models.Status{
		Papers:     records,
		Vectors:    vectors,
		Consistent: vectors == records,
		Config: &models.StatusConfig{
			IndexType:           index.IndexType(),
			EmbeddingDimensions: index.Dimensions(),
			EmbeddingProvider:   cfg.Embedding.Provider,
			SummarizerProvider:  cfg.Summarizer.Provider,
			VectorPath:          cfg.Storage.VectorPath,
			MetadataPath:        cfg.Storage.MetadataPath,
		},
	}
	if disk != nil {
		if diskBytes, err := disk.DiskUsageBytes(); err == nil {
			st.DiskUsageBytes = &diskBytes
		}
	}
	return st
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
