package embedding

import (
	"context"
	"hash/fnv"
	"math"
)

// HashingEmbedder is a deterministic bag-of-words embedder: each lower-cased word
// adds one to the bucket selected by its FNV-1a hash. Texts sharing words get
// positive cosine similarity, which makes it usable offline and in tests.
type HashingEmbedder struct {
	dimensions int
}

// NewHashingEmbedder returns an embedder with the given dimensions (384 when <= 0).
func NewHashingEmbedder(dimensions int) *HashingEmbedder {
	if dimensions <= 0 {
		dimensions = 384
	}
	return &HashingEmbedder{dimensions: dimensions}
}

// Embed returns the unit-length word-count vector of text. Text without words
// yields the zero vector.
func (e *HashingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	emb := make([]float32, e.dimensions)
	for _, w := range Words(text) {
		emb[bucket(w, e.dimensions)]++
	}
	var sum float64
	for _, v := range emb {
		sum += float64(v) * float64(v)
	}
	if sum > 0 {
		norm := 1.0 / math.Sqrt(sum)
		for i := range emb {
			emb[i] = float32(float64(emb[i]) * norm)
		}
	}
	return emb, nil
}

func bucket(word string, n int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(word))
	return int(h.Sum32() % uint32(n))
}

// Dimensions returns the embedding dimension.
func (e *HashingEmbedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op for HashingEmbedder.
func (e *HashingEmbedder) Close() error {
	return nil
}
