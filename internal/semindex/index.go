// Package semindex is the semantic paper index: it embeds paper summaries, keeps
// the vectors and their metadata in step, and persists both after every add.
package semindex

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/hyperjump/paperindex/internal/embedding"
	"github.com/hyperjump/paperindex/internal/metadata"
	"github.com/hyperjump/paperindex/internal/models"
	"github.com/hyperjump/paperindex/internal/vector"
)

var (
	// ErrInvalidPaper is returned by Add for a paper without an id.
	ErrInvalidPaper = errors.New("invalid paper")
	// ErrEmbedding is returned when a text cannot be turned into a usable vector.
	ErrEmbedding = errors.New("embedding failed")
)

// Persistence loads and saves the vector index and metadata store together.
// *persist.Layer implements it.
type Persistence interface {
	Load() (vector.Index, *metadata.Store, error)
	SaveAll(idx vector.Index, store *metadata.Store) error
}

// AddResult is the outcome of Add. Duplicate is true when a paper with the same
// id was already stored; Paper is then the stored record, not the argument.
type AddResult struct {
	Paper     models.Paper `json:"paper"`
	Duplicate bool         `json:"duplicate"`
}

// Index owns a vector index and the metadata store parallel to it.
// Position i of one always describes position i of the other.
type Index struct {
	embedder embedding.Embedder
	persist  Persistence
	vectors  vector.Index
	store    *metadata.Store
	logger   *zap.Logger
	hooks    []func(models.Paper)

	mu sync.Mutex
}

// Option configures an Index.
type Option func(*Index)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(ix *Index) {
		if l != nil {
			ix.logger = l
		}
	}
}

// WithAddHook registers fn to be called with every newly stored paper.
func WithAddHook(fn func(models.Paper)) Option {
	return func(ix *Index) {
		if fn != nil {
			ix.hooks = append(ix.hooks, fn)
		}
	}
}

// Open loads the saved state through p. A load failure is logged and the index
// starts empty.
func Open(embedder embedding.Embedder, p Persistence, opts ...Option) (*Index, error) {
	ix := &Index{
		embedder: embedder,
		persist:  p,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(ix)
	}

	vectors, store, err := p.Load()
	if vectors == nil || store == nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	if err != nil {
		ix.logger.Warn("could not load saved index, starting empty", zap.Error(err))
	}
	if embedder != nil && embedder.Dimensions() != vectors.Dimensions() {
		_ = vectors.Close()
		return nil, fmt.Errorf("embedder produces %d dimensions, index expects %d",
			embedder.Dimensions(), vectors.Dimensions())
	}
	ix.vectors = vectors
	ix.store = store
	ix.logger.Info("semantic index opened",
		zap.String("index_type", vectors.Type()),
		zap.Int("vectors", vectors.Len()),
		zap.Int("records", store.Len()),
	)
	return ix, nil
}

// Add embeds paper.Summary and stores the paper. A paper whose id is already
// stored is left untouched and reported as a duplicate. When saving fails the
// paper stays in memory and the returned error wraps *persist.PersistenceError.
func (ix *Index) Add(ctx context.Context, paper models.Paper) (AddResult, error) {
	paper.ID = strings.TrimSpace(paper.ID)
	if paper.ID == "" {
		return AddResult{}, fmt.Errorf("%w: empty paper id", ErrInvalidPaper)
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	if stored, _, ok := ix.store.Find(paper.ID); ok {
		ix.logger.Debug("paper already indexed", zap.String("paper_id", paper.ID))
		return AddResult{Paper: stored, Duplicate: true}, nil
	}

	vec, err := ix.embed(ctx, paper.Summary)
	if err != nil {
		return AddResult{}, err
	}

	vecPos, err := ix.vectors.Append(ctx, vec)
	if err != nil {
		return AddResult{}, fmt.Errorf("append vector: %w", err)
	}
	recPos, err := ix.store.Append(paper)
	if err != nil {
		return AddResult{}, fmt.Errorf("append metadata: %w", err)
	}
	if vecPos != recPos {
		ix.logger.Error("vector and metadata positions differ",
			zap.Int("vector_position", vecPos), zap.Int("metadata_position", recPos))
		return AddResult{}, fmt.Errorf("internal error: vector position %d, metadata position %d", vecPos, recPos)
	}

	for _, fn := range ix.hooks {
		fn(paper)
	}

	if err := ix.persist.SaveAll(ix.vectors, ix.store); err != nil {
		ix.logger.Error("failed to save index", zap.String("paper_id", paper.ID), zap.Error(err))
		return AddResult{Paper: paper}, fmt.Errorf("save index: %w", err)
	}
	ix.logger.Info("paper indexed", zap.String("paper_id", paper.ID), zap.Int("position", recPos))
	return AddResult{Paper: paper}, nil
}

// Search returns up to k stored papers most similar to text.
func (ix *Index) Search(ctx context.Context, text string, k int) ([]models.ScoredPaper, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if k <= 0 || ix.vectors.Len() == 0 {
		return []models.ScoredPaper{}, nil
	}
	q, err := ix.embed(ctx, text)
	if err != nil {
		return nil, err
	}
	hits, err := ix.vectors.Search(ctx, q, k)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	return ix.resolve(hits, -1, k), nil
}

// SimilarByID returns up to k papers most similar to the stored paper id,
// excluding that paper. An unknown id gives no results.
func (ix *Index) SimilarByID(ctx context.Context, id string, k int) ([]models.ScoredPaper, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	_, pos, ok := ix.store.Find(strings.TrimSpace(id))
	if !ok || k <= 0 || ix.store.Len() <= 1 {
		return []models.ScoredPaper{}, nil
	}
	seed, err := ix.vectors.Vector(pos)
	if err != nil {
		ix.logger.Warn("paper has no stored vector", zap.String("paper_id", id), zap.Int("position", pos), zap.Error(err))
		return []models.ScoredPaper{}, nil
	}
	hits, err := ix.vectors.Search(ctx, seed, k+1)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	return ix.resolve(hits, pos, k), nil
}

func (ix *Index) embed(ctx context.Context, text string) ([]float32, error) {
	raw, err := ix.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEmbedding, err)
	}
	if len(raw) != ix.vectors.Dimensions() {
		return nil, fmt.Errorf("%w: %w", ErrEmbedding, &vector.DimensionError{Got: len(raw), Want: ix.vectors.Dimensions()})
	}
	vec, err := vector.Normalize(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEmbedding, err)
	}
	return vec, nil
}

// resolve maps hits to papers, skipping the exclude position and any position
// without a metadata record.
func (ix *Index) resolve(hits []vector.Hit, exclude, k int) []models.ScoredPaper {
	out := make([]models.ScoredPaper, 0, len(hits))
	for _, h := range hits {
		if h.Position == exclude {
			continue
		}
		p, err := ix.store.Get(h.Position)
		if err != nil {
			ix.logger.Warn("dropping search hit without metadata", zap.Int("position", h.Position), zap.Error(err))
			continue
		}
		out = append(out, models.ScoredPaper{Paper: p, Score: h.Score})
		if len(out) == k {
			break
		}
	}
	return out
}

// Get returns the stored paper with id.
func (ix *Index) Get(id string) (models.Paper, bool) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	p, _, ok := ix.store.Find(strings.TrimSpace(id))
	return p, ok
}

// Contains reports whether a paper with id is stored.
func (ix *Index) Contains(id string) bool {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.store.Contains(strings.TrimSpace(id))
}

// Papers returns every stored paper in insertion order.
func (ix *Index) Papers() []models.Paper {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.store.All()
}

// Counts returns the number of stored vectors and metadata records.
func (ix *Index) Counts() (vectors, records int) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.vectors.Len(), ix.store.Len()
}

// IndexType returns the vector backend name.
func (ix *Index) IndexType() string {
	return ix.vectors.Type()
}

// Dimensions returns the vector dimension.
func (ix *Index) Dimensions() int {
	return ix.vectors.Dimensions()
}

// Close releases the vector index. The embedder belongs to the caller.
func (ix *Index) Close() error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.vectors.Close()
}
