package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
)

// File is a Store backed by a single JSON file. Writes rewrite the whole file;
// the expected contents are a handful of small tokens, not bulk data. Safe for
// concurrent use within one process; no cross-process locking is attempted.
type File struct {
	mu   sync.Mutex
	path string
}

// NewFile returns a Store persisting to path. The file is created on first Set.
func NewFile(path string) *File {
	return &File{path: path}
}

// Get returns the value stored under key, or ErrNotFound. A missing or
// unreadable cache file is treated as empty.
func (f *File) Get(key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	values, err := f.load()
	if err != nil {
		zap.L().Debug("identity cache unreadable", zap.String("path", f.path), zap.Error(err))
		return "", ErrNotFound
	}
	v, ok := values[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

// Set stores value under key and rewrites the cache file.
func (f *File) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	values, err := f.load()
	if err != nil {
		values = make(map[string]string)
	}
	values[key] = value

	raw, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("encode cache: %w", err)
	}
	if err := os.WriteFile(f.path, raw, 0o600); err != nil {
		return fmt.Errorf("write cache file: %w", err)
	}
	return nil
}

func (f *File) load() (map[string]string, error) {
	raw, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil
		}
		return nil, err
	}
	values := make(map[string]string)
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, err
	}
	return values, nil
}
