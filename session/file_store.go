package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

const fileStoreMode = 0o600

// FileStore keeps session keys in a single JSON object on disk. Every write replaces
// the file atomically (temp file + rename). Reads go to disk so a value written by
// another process is picked up on the next lookup.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore returns a store persisting to path. The parent directory is created
// on first write.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file location.
func (f *FileStore) Path() string {
	return f.path
}

// Get returns the value stored under key.
func (f *FileStore) Get(_ context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, ErrEmptyKey
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.load()
	if err != nil {
		return "", false, err
	}
	v, ok := values[key]
	return v, ok, nil
}

// Set stores value under key.
func (f *FileStore) Set(ctx context.Context, key, value string) error {
	return f.SetMany(ctx, map[string]string{key: value})
}

// SetMany stores all pairs with a single file replacement.
func (f *FileStore) SetMany(_ context.Context, values map[string]string) error {
	for k := range values {
		if k == "" {
			return ErrEmptyKey
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	current, err := f.load()
	if err != nil {
		return err
	}
	for k, v := range values {
		current[k] = v
	}
	return f.save(current)
}

// Remove deletes the given keys. The file is removed once it holds no keys.
func (f *FileStore) Remove(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	current, err := f.load()
	if err != nil {
		return err
	}
	changed := false
	for _, k := range keys {
		if _, ok := current[k]; ok {
			delete(current, k)
			changed = true
		}
	}
	if !changed {
		return nil
	}
	if len(current) == 0 {
		if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		return nil
	}
	return f.save(current)
}

func (f *FileStore) load() (map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	values := map[string]string{}
	if len(data) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrStoreUnavailable, f.path, err)
	}
	return values, nil
}

func (f *FileStore) save(values map[string]string) error {
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*.json")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if err := tmp.Chmod(fileStoreMode); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}
