// Package vector provides exact inner-product vector indices over unit-length vectors.
package vector

import (
	"context"
	"errors"
	"fmt"
)

// Index is an append-only, positional vector store with exact similarity search.
// Position i is assigned to the i-th appended vector and never changes.
type Index interface {
	Append(ctx context.Context, vec []float32) (int, error)
	// Search returns at most k hits by descending inner product. Equal scores are
	// ordered by ascending position.
	Search(ctx context.Context, query []float32, k int) ([]Hit, error)
	Vector(pos int) ([]float32, error)
	Len() int
	Dimensions() int
	Type() string
	Save(path string) error
	Load(path string) error
	Close() error
}

// Hit is a single search result.
type Hit struct {
	Position int
	Score    float64
}

// DimensionError reports a vector whose length does not match the index.
type DimensionError struct {
	Got  int
	Want int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("vector dimension mismatch: got %d, expected %d", e.Got, e.Want)
}

var (
	// ErrOutOfRange is returned for a position the index does not hold.
	ErrOutOfRange = errors.New("vector position out of range")
	// ErrDegenerateVector is returned when a vector cannot be normalized.
	ErrDegenerateVector = errors.New("degenerate vector: norm is zero")
)

func checkDims(vec []float32, want int) error {
	if len(vec) != want {
		return &DimensionError{Got: len(vec), Want: want}
	}
	return nil
}
