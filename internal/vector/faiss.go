//go:build faiss && cgo
// +build faiss,cgo

package vector

/*
#cgo CFLAGS: -I/opt/homebrew/include -I/usr/local/include
#cgo LDFLAGS: -L/opt/homebrew/lib -L/usr/local/lib -lfaiss_c

#include <stdlib.h>
#include <faiss/c_api/Index_c.h>
#include <faiss/c_api/IndexFlat_c.h>
#include <faiss/c_api/index_io_c.h>
#include <faiss/c_api/error_c.h>
*/
import "C"

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"unsafe"
)

// FAISSIndex is a vector index backed by a FAISS IndexFlatIP. Positions are the
// FAISS sequential labels, so no id mapping is kept. Save writes the native FAISS
// index file.
type FAISSIndex struct {
	index      *C.FaissIndexFlatIP
	dimensions int
	mu         sync.RWMutex
}

// NewFAISSIndex creates a FAISS index with the given dimension using inner product.
func NewFAISSIndex(dimensions int) (*FAISSIndex, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}

	var index *C.FaissIndexFlatIP
	ret := C.faiss_IndexFlatIP_new_with(&index, C.idx_t(dimensions))
	if ret != 0 {
		return nil, fmt.Errorf("failed to create FAISS index: %s", faissLastError())
	}

	return &FAISSIndex{
		index:      index,
		dimensions: dimensions,
	}, nil
}

// faissLastError returns the last FAISS error message.
func faissLastError() string {
	cErr := C.faiss_get_last_error()
	if cErr == nil {
		return "unknown error"
	}
	return C.GoString(cErr)
}

// Type returns the index type identifier.
func (f *FAISSIndex) Type() string {
	return string(IndexTypeFAISS)
}

// Dimensions returns the vector length the index accepts.
func (f *FAISSIndex) Dimensions() int {
	return f.dimensions
}

// Append adds vec at the next position.
func (f *FAISSIndex) Append(ctx context.Context, vec []float32) (int, error) {
	if err := checkDims(vec, f.dimensions); err != nil {
		return 0, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	pos := int(C.faiss_Index_ntotal(f.index))
	ret := C.faiss_Index_add(f.index, 1, (*C.float)(unsafe.Pointer(&vec[0])))
	if ret != 0 {
		return 0, fmt.Errorf("failed to add vector to FAISS index: %s", faissLastError())
	}
	return pos, nil
}

// Search returns the top-k positions by inner product.
func (f *FAISSIndex) Search(ctx context.Context, query []float32, k int) ([]Hit, error) {
	if err := checkDims(query, f.dimensions); err != nil {
		return nil, err
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	ntotal := int(C.faiss_Index_ntotal(f.index))
	if k <= 0 || ntotal == 0 {
		return []Hit{}, nil
	}
	if k > ntotal {
		k = ntotal
	}

	distances := make([]float32, k)
	labels := make([]int64, k)
	ret := C.faiss_Index_search(
		f.index,
		1,
		(*C.float)(unsafe.Pointer(&query[0])),
		C.idx_t(k),
		(*C.float)(unsafe.Pointer(&distances[0])),
		(*C.idx_t)(unsafe.Pointer(&labels[0])),
	)
	if ret != 0 {
		return nil, fmt.Errorf("FAISS search failed: %s", faissLastError())
	}

	hits := make([]Hit, 0, k)
	for i := 0; i < k; i++ {
		if labels[i] < 0 {
			continue
		}
		hits = append(hits, Hit{Position: int(labels[i]), Score: float64(distances[i])})
	}
	// FAISS does not order equal scores; re-sort for the position tie-break.
	return topK(hits, k), nil
}

// Vector reconstructs the vector stored at pos.
func (f *FAISSIndex) Vector(pos int) ([]float32, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	ntotal := int(C.faiss_Index_ntotal(f.index))
	if pos < 0 || pos >= ntotal {
		return nil, fmt.Errorf("%w: %d (size %d)", ErrOutOfRange, pos, ntotal)
	}
	out := make([]float32, f.dimensions)
	ret := C.faiss_Index_reconstruct(f.index, C.idx_t(pos), (*C.float)(unsafe.Pointer(&out[0])))
	if ret != 0 {
		return nil, fmt.Errorf("FAISS reconstruct failed: %s", faissLastError())
	}
	return out, nil
}

// Save writes the native FAISS index file to path.
func (f *FAISSIndex) Save(path string) error {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if path == "" {
		return fmt.Errorf("empty index path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}

	cPath := C.CString(path)
	defer C.free(unsafe.Pointer(cPath))

	if ret := C.faiss_write_index_fname(f.index, cPath); ret != 0 {
		return fmt.Errorf("failed to save FAISS index: %s", faissLastError())
	}
	return nil
}

// Load reads a native FAISS index file and replaces the current index.
func (f *FAISSIndex) Load(path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("open index file: %w", err)
	}

	cPath := C.CString(path)
	defer C.free(unsafe.Pointer(cPath))

	var loaded *C.FaissIndex
	if ret := C.faiss_read_index_fname(cPath, 0, &loaded); ret != 0 {
		return fmt.Errorf("failed to load FAISS index: %s", faissLastError())
	}
	if d := int(C.faiss_Index_d(loaded)); d != f.dimensions {
		C.faiss_Index_free(loaded)
		return &DimensionError{Got: d, Want: f.dimensions}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.index != nil {
		C.faiss_Index_free(f.index)
	}
	f.index = loaded
	return nil
}

// Len returns the number of stored vectors.
func (f *FAISSIndex) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return int(C.faiss_Index_ntotal(f.index))
}

// Close frees the FAISS index resources.
func (f *FAISSIndex) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.index != nil {
		C.faiss_Index_free(f.index)
		f.index = nil
	}
	return nil
}
