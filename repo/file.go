package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
)

// FileStore persists the tree as one JSON document. Every write rewrites the
// file through a temp file and rename, so a crash leaves either the old or
// the new document.
type FileStore struct {
	path string
	log  zerolog.Logger

	mu   sync.RWMutex
	tree *tree
	last []byte // last document written successfully
}

// NewFileStore opens path, creating an empty store when it does not exist.
func NewFileStore(path string, logger zerolog.Logger) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("store path is empty")
	}
	s := &FileStore{
		path: path,
		log:  logger.With().Str("component", "file_store").Logger(),
		tree: newTree(),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.log.Info().Str("path", path).Msg("starting with empty store")
			return s, nil
		}
		return nil, fmt.Errorf("error reading store file: %v", err)
	}
	if err := s.load(data); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileStore) load(data []byte) error {
	root := map[string]any{}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &root); err != nil {
			return fmt.Errorf("error decoding store file: %v", err)
		}
	}
	if root == nil {
		root = map[string]any{}
	}
	s.tree.root = root
	s.last = data
	return nil
}

func (s *FileStore) Get(_ context.Context, key string, dst any) error {
	path, err := SplitKey(key)
	if err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tree.get(path, dst)
}

func (s *FileStore) Put(_ context.Context, key string, value any) error {
	path, err := SplitKey(key)
	if err != nil {
		return err
	}
	v, err := toJSONValue(value)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tree.set(path, v)
	return s.flush()
}

func (s *FileStore) Delete(_ context.Context, key string) error {
	path, err := SplitKey(key)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tree.delete(path)
	return s.flush()
}

// flush writes the tree to disk. On failure the in-memory tree is rolled back
// to the last written document. Callers hold s.mu.
func (s *FileStore) flush() error {
	data, err := json.MarshalIndent(s.tree.root, "", "  ")
	if err == nil {
		err = writeAtomic(s.path, data)
	}
	if err != nil {
		s.log.Error().Err(err).Str("path", s.path).Msg("error writing store file, rolling back")
		if rerr := s.load(s.last); rerr != nil {
			s.tree.root = map[string]any{}
		}
		return fmt.Errorf("error writing store file: %v", err)
	}
	s.last = data
	return nil
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".availability-store-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
