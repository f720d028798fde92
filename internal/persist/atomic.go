package persist

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// writeAtomic calls write with a temporary sibling of path, then renames the
// temporary file over path. The temporary file is removed on failure.
func (l *Layer) writeAtomic(path string, write func(tmp string) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	tmp := filepath.Join(dir, "."+filepath.Base(path)+".tmp-"+uuid.NewString())
	if err := write(tmp); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename into place: %w", err)
	}
	l.stamp(path)
	return nil
}
