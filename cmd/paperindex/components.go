package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/hyperjump/paperindex/internal/config"
	"github.com/hyperjump/paperindex/internal/embedding"
	"github.com/hyperjump/paperindex/internal/keyword"
	"github.com/hyperjump/paperindex/internal/models"
	"github.com/hyperjump/paperindex/internal/persist"
	"github.com/hyperjump/paperindex/internal/pubmed"
	"github.com/hyperjump/paperindex/internal/semindex"
	"github.com/hyperjump/paperindex/internal/summarize"
	"github.com/hyperjump/paperindex/internal/vector"
	"github.com/hyperjump/paperindex/internal/watcher"
)

// Components holds everything opened for one command.
type Components struct {
	Embedder embedding.Embedder
	Layer    *persist.Layer
	Index    *semindex.Index
	Catalog  *keyword.Catalog
}

func (c *Components) Close() {
	if c.Index != nil {
		_ = c.Index.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
	if c.Catalog != nil {
		_ = c.Catalog.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	embedder, err := embedding.NewEmbedder(cfg.Embedding, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}
	c := &Components{Embedder: embedder}

	c.Catalog, err = keyword.NewCatalog()
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize keyword catalog: %w", err)
	}

	indexType, dims := cfg.Storage.IndexType, cfg.Embedding.Dimensions
	c.Layer = persist.NewLayer(cfg.Storage.VectorPath, cfg.Storage.MetadataPath,
		func() (vector.Index, error) { return vector.NewIndex(indexType, dims) },
		persist.WithLogger(logger),
	)

	catalog := c.Catalog
	c.Index, err = semindex.Open(embedder, c.Layer,
		semindex.WithLogger(logger),
		semindex.WithAddHook(func(p models.Paper) {
			if err := catalog.Add(p); err != nil {
				logger.Warn("keyword catalog add failed", zap.String("paper_id", p.ID), zap.Error(err))
			}
		}),
	)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to open index: %w", err)
	}
	for _, p := range c.Index.Papers() {
		if err := catalog.Add(p); err != nil {
			logger.Warn("keyword catalog add failed", zap.String("paper_id", p.ID), zap.Error(err))
		}
	}

	vectors, records := c.Index.Counts()
	logger.Info("index opened",
		zap.String("type", c.Index.IndexType()),
		zap.Bool("faiss_available", vector.IsFAISSAvailable()),
		zap.Int("vectors", vectors),
		zap.Int("papers", records),
	)
	return c, nil
}

// StartWatcher warns about foreign writes to the state files until ctx is done.
// The returned func stops the watcher.
func (c *Components) StartWatcher(ctx context.Context, logger *zap.Logger) func() {
	w := watcher.NewWatcher(
		[]string{c.Layer.VectorPath(), c.Layer.MetadataPath()},
		c.Layer,
		watcher.WithLogger(logger),
	)
	if err := w.Start(ctx); err != nil {
		logger.Warn("state file watcher not started", zap.Error(err))
		return func() {}
	}
	return w.Stop
}

// newSummarizer builds the configured summarizer.
func newSummarizer(cfg *config.Config, logger *zap.Logger) (summarize.Summarizer, error) {
	return summarize.New(cfg.Summarizer, logger)
}

// newFetcher builds the PubMed client. The API key is optional.
func newFetcher(cfg *config.Config, logger *zap.Logger) *pubmed.Client {
	return pubmed.NewClient(pubmed.Options{
		BaseURL: cfg.PubMed.BaseURL,
		APIKey:  os.Getenv(cfg.PubMed.APIKeyEnv),
		Timeout: cfg.PubMed.Timeout,
	}, logger)
}
