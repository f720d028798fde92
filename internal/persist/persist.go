// Package persist saves and loads the semantic index state as two files: a binary
// vector file and a JSON metadata file.
package persist

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/paperindex/internal/metadata"
	"github.com/hyperjump/paperindex/internal/vector"
)

// PersistenceError is an I/O or decode failure on one of the state files.
type PersistenceError struct {
	Op   string // "load" or "save"
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// IndexFactory builds an empty vector index of the configured type and dimension.
type IndexFactory func() (vector.Index, error)

// Layer reads and writes the two state files. Each file is replaced atomically
// (temp file + rename); the pair is not written transactionally.
type Layer struct {
	vectorPath   string
	metadataPath string
	newIndex     IndexFactory
	logger       *zap.Logger

	mu     sync.Mutex
	stamps map[string]fileStamp
}

type fileStamp struct {
	modTime time.Time
	size    int64
}

// Option configures a Layer.
type Option func(*Layer)

// WithLogger sets the logger used for load warnings.
func WithLogger(l *zap.Logger) Option {
	return func(p *Layer) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewLayer returns a layer for the given file paths.
func NewLayer(vectorPath, metadataPath string, newIndex IndexFactory, opts ...Option) *Layer {
	l := &Layer{
		vectorPath:   vectorPath,
		metadataPath: metadataPath,
		newIndex:     newIndex,
		logger:       zap.NewNop(),
		stamps:       make(map[string]fileStamp),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// VectorPath returns the vector file path.
func (l *Layer) VectorPath() string { return l.vectorPath }

// MetadataPath returns the metadata file path.
func (l *Layer) MetadataPath() string { return l.metadataPath }

// Load reads both files. When either file is missing the collection starts empty.
// A count mismatch between the files is logged and the loaded state is returned as is.
// A read or decode failure returns an empty collection together with a *PersistenceError.
func (l *Layer) Load() (vector.Index, *metadata.Store, error) {
	idx, err := l.newIndex()
	if err != nil {
		return nil, nil, fmt.Errorf("create vector index: %w", err)
	}

	vecExists, err := fileExists(l.vectorPath)
	if err != nil {
		return idx, metadata.NewStore(), &PersistenceError{Op: "load", Path: l.vectorPath, Err: err}
	}
	metaExists, err := fileExists(l.metadataPath)
	if err != nil {
		return idx, metadata.NewStore(), &PersistenceError{Op: "load", Path: l.metadataPath, Err: err}
	}
	if !vecExists || !metaExists {
		if vecExists != metaExists {
			l.logger.Warn("only one state file present, starting with an empty collection",
				zap.String("vector_path", l.vectorPath), zap.Bool("vector_exists", vecExists),
				zap.String("metadata_path", l.metadataPath), zap.Bool("metadata_exists", metaExists),
			)
		}
		return idx, metadata.NewStore(), nil
	}

	if err := idx.Load(l.vectorPath); err != nil {
		return l.emptyAfterFailure(idx, l.vectorPath, err)
	}
	store, err := readMetadata(l.metadataPath)
	if err != nil {
		return l.emptyAfterFailure(idx, l.metadataPath, err)
	}

	if idx.Len() != store.Len() {
		l.logger.Warn("vector index and metadata sizes differ",
			zap.Int("vectors", idx.Len()),
			zap.Int("records", store.Len()),
			zap.String("vector_path", l.vectorPath),
			zap.String("metadata_path", l.metadataPath),
		)
	}
	l.stamp(l.vectorPath)
	l.stamp(l.metadataPath)
	return idx, store, nil
}

func (l *Layer) emptyAfterFailure(failed vector.Index, path string, cause error) (vector.Index, *metadata.Store, error) {
	_ = failed.Close()
	perr := &PersistenceError{Op: "load", Path: path, Err: cause}
	idx, err := l.newIndex()
	if err != nil {
		return nil, nil, errors.Join(perr, fmt.Errorf("create vector index: %w", err))
	}
	return idx, metadata.NewStore(), perr
}

func readMetadata(path string) (*metadata.Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return metadata.Decode(f)
}

// SaveAll rewrites both files completely, vector file first.
func (l *Layer) SaveAll(idx vector.Index, store *metadata.Store) error {
	if err := l.writeAtomic(l.vectorPath, idx.Save); err != nil {
		return &PersistenceError{Op: "save", Path: l.vectorPath, Err: err}
	}
	err := l.writeAtomic(l.metadataPath, func(tmp string) error {
		return writeMetadata(tmp, store)
	})
	if err != nil {
		return &PersistenceError{Op: "save", Path: l.metadataPath, Err: err}
	}
	return nil
}

func writeMetadata(path string, store *metadata.Store) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := store.Encode(f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// IsOwnWrite reports whether path still has the modification time and size this
// layer recorded after its last load or save of it.
func (l *Layer) IsOwnWrite(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.stamps[filepath.Clean(path)]
	return ok && s.size == info.Size() && s.modTime.Equal(info.ModTime())
}

func (l *Layer) stamp(path string) {
	info, err := os.Stat(path)
	if err != nil {
		return
	}
	l.mu.Lock()
	l.stamps[filepath.Clean(path)] = fileStamp{modTime: info.ModTime(), size: info.Size()}
	l.mu.Unlock()
}

// DiskUsageBytes returns the combined size of the two state files.
func (l *Layer) DiskUsageBytes() (int64, error) {
	return DiskUsageBytes(l.vectorPath, l.metadataPath)
}

func fileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if info.IsDir() {
		return false, fmt.Errorf("%s is a directory", path)
	}
	return true, nil
}
