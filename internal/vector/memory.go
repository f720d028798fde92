package vector

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sync"
)

// MemoryIndex is an in-memory vector index using brute-force inner product search.
type MemoryIndex struct {
	dimensions int
	vectors    [][]float32
	mu         sync.RWMutex
}

// NewMemoryIndex creates an in-memory vector index with the given dimension.
func NewMemoryIndex(dimensions int) (*MemoryIndex, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	return &MemoryIndex{
		dimensions: dimensions,
		vectors:    make([][]float32, 0),
	}, nil
}

// Type returns the index type identifier.
func (m *MemoryIndex) Type() string {
	return string(IndexTypeMemory)
}

// Dimensions returns the vector length the index accepts.
func (m *MemoryIndex) Dimensions() int {
	return m.dimensions
}

// Append copies vec into the next position and returns that position.
func (m *MemoryIndex) Append(ctx context.Context, vec []float32) (int, error) {
	if err := checkDims(vec, m.dimensions); err != nil {
		return 0, err
	}
	stored := make([]float32, m.dimensions)
	copy(stored, vec)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vectors = append(m.vectors, stored)
	return len(m.vectors) - 1, nil
}

// Search returns the top-k positions by inner product (assumes normalized vectors = cosine similarity).
func (m *MemoryIndex) Search(ctx context.Context, query []float32, k int) ([]Hit, error) {
	if err := checkDims(query, m.dimensions); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if k <= 0 || len(m.vectors) == 0 {
		return []Hit{}, nil
	}
	hits := make([]Hit, len(m.vectors))
	for i, vec := range m.vectors {
		hits[i] = Hit{Position: i, Score: InnerProduct(query, vec)}
	}
	return topK(hits, k), nil
}

// Vector returns a copy of the vector stored at pos.
func (m *MemoryIndex) Vector(pos int) ([]float32, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if pos < 0 || pos >= len(m.vectors) {
		return nil, fmt.Errorf("%w: %d (size %d)", ErrOutOfRange, pos, len(m.vectors))
	}
	out := make([]float32, m.dimensions)
	copy(out, m.vectors[pos])
	return out, nil
}

// Save writes the index to path. Directory is created if needed. Format: dimension (4), n (4),
// then n*dimension little-endian float32 values in position order.
func (m *MemoryIndex) Save(path string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if path == "" {
		return fmt.Errorf("empty index path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create index file: %w", err)
	}
	w := bufio.NewWriter(f)
	if err := m.writeTo(w); err != nil {
		_ = f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return fmt.Errorf("flush index file: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("sync index file: %w", err)
	}
	return f.Close()
}

func (m *MemoryIndex) writeTo(w io.Writer) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(m.dimensions)); err != nil {
		return fmt.Errorf("write dimensions: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(m.vectors))); err != nil {
		return fmt.Errorf("write count: %w", err)
	}
	for _, vec := range m.vectors {
		if _, err := w.Write(float32SliceToBytes(vec)); err != nil {
			return fmt.Errorf("write vector: %w", err)
		}
	}
	return nil
}

// Load reads the index from path and replaces the in-memory contents. Dimensions must match.
// The contents are only replaced when the whole file decodes.
func (m *MemoryIndex) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open index file: %w", err)
	}
	defer f.Close()
	r := bufio.NewReader(f)
	var dim, n uint32
	if err := binary.Read(r, binary.LittleEndian, &dim); err != nil {
		return fmt.Errorf("read dimensions: %w", err)
	}
	if int(dim) != m.dimensions {
		return &DimensionError{Got: int(dim), Want: m.dimensions}
	}
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return fmt.Errorf("read count: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat index file: %w", err)
	}
	if want := 8 + uint64(n)*uint64(dim)*4; uint64(info.Size()) != want {
		return fmt.Errorf("index file size %d does not match header (%d vectors of %d dims)", info.Size(), n, dim)
	}
	vectors := make([][]float32, 0, n)
	buf := make([]byte, m.dimensions*4)
	for i := uint32(0); i < n; i++ {
		if _, err := io.ReadFull(r, buf); err != nil {
			return fmt.Errorf("read vector %d: %w", i, err)
		}
		vectors = append(vectors, bytesToFloat32Slice(buf))
	}
	m.mu.Lock()
	m.vectors = vectors
	m.mu.Unlock()
	return nil
}

func float32SliceToBytes(s []float32) []byte {
	const size = 4
	out := make([]byte, len(s)*size)
	for i, v := range s {
		binary.LittleEndian.PutUint32(out[i*size:(i+1)*size], math.Float32bits(v))
	}
	return out
}

func bytesToFloat32Slice(b []byte) []float32 {
	const size = 4
	out := make([]float32, len(b)/size)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*size : (i+1)*size]))
	}
	return out
}

// Len returns the number of vectors in the index.
func (m *MemoryIndex) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.vectors)
}

// Close is a no-op for MemoryIndex.
func (m *MemoryIndex) Close() error {
	return nil
}
