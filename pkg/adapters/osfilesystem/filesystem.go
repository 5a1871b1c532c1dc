// Package osfilesystem stores media segments in a directory on disk.
package osfilesystem

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/user/h264session/pkg/ports"
)

// Store writes segments below a root directory.
type Store struct {
	root string
}

// New creates a Store rooted at dir. An empty dir means the working directory.
func New(dir string) *Store {
	return &Store{root: dir}
}

// Path returns the file path a segment name maps to.
func (s *Store) Path(name string) string {
	if filepath.IsAbs(name) || s.root == "" {
		return name
	}
	return filepath.Join(s.root, name)
}

// WriteSegment writes data through a temporary file and renames it into
// place, so readers never observe a partial segment.
func (s *Store) WriteSegment(name string, data []byte) error {
	path := s.Path(name)
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create segment dir: %w", err)
		}
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp segment: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write segment: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close segment: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("rename segment: %w", err)
	}
	return nil
}

// Ensure Store implements ports.SegmentStore
var _ ports.SegmentStore = (*Store)(nil)
