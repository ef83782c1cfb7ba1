package persist

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/matzehuels/docdesigner/pkg/errors"
)

// FileBackend stores the snapshot as <dir>/<key>.json and the sync queue
// as <dir>/<key>.sync-queue.json.
type FileBackend struct {
	mu  sync.RWMutex
	dir string
	key string
}

// NewFileBackend creates a file backend rooted at dir.
// If dir is empty, defaults to the user config dir (~/.config/docdesigner).
// If key is empty, [DefaultKey] is used.
func NewFileBackend(dir, key string) (*FileBackend, error) {
	if key == "" {
		key = DefaultKey
	}
	if err := errors.ValidateStorageKey(key); err != nil {
		return nil, err
	}
	if dir == "" {
		d, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &FileBackend{dir: dir, key: key}, nil
}

// DefaultDir returns the default storage directory.
func DefaultDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("get config dir: %w", err)
	}
	return filepath.Join(base, "docdesigner"), nil
}

// Path returns the snapshot file path.
func (b *FileBackend) Path() string {
	return filepath.Join(b.dir, b.key+".json")
}

func (b *FileBackend) queuePath() string {
	return filepath.Join(b.dir, b.key+".sync-queue.json")
}

// Load reads the snapshot file. A missing file is not an error.
func (b *FileBackend) Load(ctx context.Context) (*Snapshot, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var s Snapshot
	ok, err := readJSON(b.Path(), &s)
	if err != nil || !ok {
		return nil, err
	}
	return &s, nil
}

// Save writes the snapshot file atomically.
func (b *FileBackend) Save(ctx context.Context, s *Snapshot) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return writeJSON(b.Path(), s)
}

// Quarantine renames the snapshot file to <key>.json.corrupt-<timestamp>
// so the next Save does not replace it.
func (b *FileBackend) Quarantine(ctx context.Context) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	dest := b.Path() + ".corrupt-" + time.Now().UTC().Format("20060102T150405.000")
	if err := os.Rename(b.Path(), dest); err != nil {
		return "", fmt.Errorf("quarantine %s: %w", filepath.Base(b.Path()), err)
	}
	return dest, nil
}

// LoadQueue reads the pending sync queue.
func (b *FileBackend) LoadQueue(ctx context.Context) ([]Op, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var ops []Op
	if _, err := readJSON(b.queuePath(), &ops); err != nil {
		return nil, err
	}
	return ops, nil
}

// SaveQueue replaces the sync queue. An empty queue removes the file.
func (b *FileBackend) SaveQueue(ctx context.Context, ops []Op) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(ops) == 0 {
		if err := os.Remove(b.queuePath()); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove sync queue: %w", err)
		}
		return nil
	}
	return writeJSON(b.queuePath(), ops)
}

func readJSON(path string, v any) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, errors.Wrap(errors.ErrCodeInternal, err, "parse %s", filepath.Base(path))
	}
	return true, nil
}

// writeJSON writes to a temp file in the same directory and renames it over
// path so readers never observe a partial snapshot.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-"+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename %s: %w", filepath.Base(path), err)
	}
	return nil
}

var (
	_ Store       = (*FileBackend)(nil)
	_ Quarantiner = (*FileBackend)(nil)
)
