// Package filestore persists the workspace document as a JSON file.
//
// The file holds exactly the export format, so a stored workspace can be
// imported elsewhere as is. Writes go to a temp file in the same directory
// and are renamed over the target, so readers never see a torn document.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/solatis/factkeeper/internal/types"
)

// DefaultFileName is the document file created inside the data directory.
const DefaultFileName = "factkeeper.json"

// Store reads and writes one document file.
type Store struct {
	path string
	mu   sync.Mutex
}

// New returns a store for path. The file need not exist yet.
func New(path string) *Store {
	return &Store{path: path}
}

// NewInDir returns a store for DefaultFileName inside dir, creating dir.
func NewInDir(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return New(filepath.Join(dir, DefaultFileName)), nil
}

// Path returns the document file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the document. Returns ErrNoDocument when the file is absent and
// ErrInvalidFormat when its content is not a valid document.
func (s *Store) Load(ctx context.Context) (*types.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	data, err := os.ReadFile(s.path)
	s.mu.Unlock()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, types.ErrNoDocument
		}
		return nil, fmt.Errorf("failed to read %s: %w", s.path, err)
	}

	doc, err := types.ParseDocument(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.path, err)
	}
	return doc, nil
}

// Save atomically replaces the document file.
func (s *Store) Save(ctx context.Context, doc types.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := types.MarshalDocument(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".factkeeper-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", s.path, err)
	}
	return nil
}

// Delete removes the document file. A missing file is not an error.
func (s *Store) Delete(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete %s: %w", s.path, err)
	}
	return nil
}
