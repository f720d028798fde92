package embedding

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/paperindex/internal/config"
)

// NewEmbedder builds the embedder selected by cfg.Provider. With "auto", an ONNX model
// that cannot be loaded falls back to the hashing embedder. Vectors from the two
// are not comparable, so an existing index should keep using the provider it was
// built with.
func NewEmbedder(cfg config.EmbeddingConfig, logger *zap.Logger) (Embedder, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch cfg.Provider {
	case config.ProviderHashing:
		return NewHashingEmbedder(cfg.Dimensions), nil
	case config.ProviderONNX, config.ProviderAuto, "":
		onnx, err := NewONNXEmbedder(ONNXOptions{
			ModelPath:   cfg.ModelPath,
			LibraryPath: cfg.LibraryPath,
			OutputName:  cfg.OutputName,
			Dimensions:  cfg.Dimensions,
			MaxTokens:   cfg.MaxTokens,
		})
		if err == nil {
			logger.Info("ONNX embedder loaded", zap.String("model_path", cfg.ModelPath), zap.Int("dimensions", cfg.Dimensions))
			return NewCachedEmbedder(onnx, cfg.CacheSize), nil
		}
		if cfg.Provider == config.ProviderONNX {
			return nil, fmt.Errorf("load ONNX embedder: %w", err)
		}
		logger.Warn("ONNX embedder unavailable, using hashing embedder",
			zap.String("model_path", cfg.ModelPath), zap.Error(err))
		return NewHashingEmbedder(cfg.Dimensions), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", cfg.Provider)
	}
}
