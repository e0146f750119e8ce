package identity

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Store persists the set of seen canonical keys across process restarts.
type Store interface {
	Load() ([]string, error)
	Save(keys []string) error
}

// FileStore keeps the seen set in a single JSON document. Two historical
// shapes are accepted on load: a flat list of keys, and an object with an
// "ids" list. Saves always write the object shape.
type FileStore struct {
	path string
}

// NewFileStore creates a file-backed store at the given path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

type seenDocument struct {
	IDs []string `json:"ids"`
}

// Load reads the seen set. A missing file is an empty set, not an error.
func (s *FileStore) Load() ([]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read seen store: %w", err)
	}

	// Current shape: {"ids": [...]}.
	var doc seenDocument
	if err := json.Unmarshal(data, &doc); err == nil && doc.IDs != nil {
		return doc.IDs, nil
	}

	// Legacy shape: flat list.
	var flat []string
	if err := json.Unmarshal(data, &flat); err == nil {
		return flat, nil
	}

	return nil, fmt.Errorf("parse seen store %s: unrecognized document shape", s.path)
}

// Save rewrites the whole document. Full rewrites trade write efficiency for
// crash-safety: a partially written temp file never replaces a good one.
func (s *FileStore) Save(keys []string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	data, err := json.Marshal(seenDocument{IDs: keys})
	if err != nil {
		return fmt.Errorf("marshal seen store: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write seen store: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace seen store: %w", err)
	}

	return nil
}

// MemoryStore is an in-memory Store for tests and dry runs.
type MemoryStore struct {
	keys []string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load returns the stored keys.
func (s *MemoryStore) Load() ([]string, error) {
	return append([]string(nil), s.keys...), nil
}

// Save replaces the stored keys.
func (s *MemoryStore) Save(keys []string) error {
	s.keys = append([]string(nil), keys...)
	return nil
}
