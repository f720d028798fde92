// Package embedding turns text into fixed-length vectors.
package embedding

import "context"

// Embedder produces vector embeddings for text. Implementations are expensive to
// construct and are created once per process.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
	Close() error
}
