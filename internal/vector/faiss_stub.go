//go:build !faiss || !cgo
// +build !faiss !cgo

package vector

import (
	"context"
	"errors"
)

var errNoFAISS = errors.New("FAISS not available: build with -tags=faiss and install the FAISS C library")

// FAISSIndex is a stub that returns an error when FAISS is not available.
// Build with -tags=faiss to enable FAISS support.
type FAISSIndex struct{}

// NewFAISSIndex returns an error because FAISS is not available.
func NewFAISSIndex(dimensions int) (*FAISSIndex, error) {
	return nil, errNoFAISS
}

// Append is not implemented without FAISS.
func (f *FAISSIndex) Append(ctx context.Context, vec []float32) (int, error) {
	return 0, errNoFAISS
}

// Search is not implemented without FAISS.
func (f *FAISSIndex) Search(ctx context.Context, query []float32, k int) ([]Hit, error) {
	return nil, errNoFAISS
}

// Vector is not implemented without FAISS.
func (f *FAISSIndex) Vector(pos int) ([]float32, error) {
	return nil, errNoFAISS
}

// Save is not implemented without FAISS.
func (f *FAISSIndex) Save(path string) error {
	return errNoFAISS
}

// Load is not implemented without FAISS.
func (f *FAISSIndex) Load(path string) error {
	return errNoFAISS
}

// Len returns 0 without FAISS.
func (f *FAISSIndex) Len() int {
	return 0
}

// Dimensions returns 0 without FAISS.
func (f *FAISSIndex) Dimensions() int {
	return 0
}

// Type returns the index type identifier.
func (f *FAISSIndex) Type() string {
	return string(IndexTypeFAISS)
}

// Close is a no-op without FAISS.
func (f *FAISSIndex) Close() error {
	return nil
}
