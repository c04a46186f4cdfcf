package session

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
)

// Backend persists the serialized session under a single storage scope.
// Load returns nil bytes when nothing is stored.
type Backend interface {
	Load() ([]byte, error)
	Save(data []byte) error
	Delete() error
}

// FileBackend stores the session as a file, the CLI's stand-in for a
// browser storage scope.
type FileBackend struct {
	path string
}

var _ Backend = (*FileBackend)(nil)

// NewFileBackend creates a backend writing to the given path. An empty path
// defaults to StorageKey + ".json" in the current directory.
func NewFileBackend(path string) *FileBackend {
	if path == "" {
		path = StorageKey + ".json"
	}
	return &FileBackend{path: path}
}

// Load implements Backend.
func (b *FileBackend) Load() ([]byte, error) {
	data, err := os.ReadFile(b.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "[FileBackend.Load] reading state file")
	}
	return data, nil
}

// Save implements Backend. The file is user-readable only: it holds bearer
// credentials.
func (b *FileBackend) Save(data []byte) error {
	if dir := filepath.Dir(b.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return errors.Wrap(err, "[FileBackend.Save] creating state directory")
		}
	}
	if err := os.WriteFile(b.path, data, 0o600); err != nil {
		return errors.Wrap(err, "[FileBackend.Save] writing state file")
	}
	return nil
}

// Delete implements Backend.
func (b *FileBackend) Delete() error {
	err := os.Remove(b.path)
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "[FileBackend.Delete] removing state file")
	}
	return nil
}

// MemoryBackend is a process-local Backend for tests and ephemeral sessions.
type MemoryBackend struct {
	lock    sync.Mutex
	data    []byte
	present bool
}

var _ Backend = (*MemoryBackend)(nil)

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

// Load implements Backend.
func (b *MemoryBackend) Load() ([]byte, error) {
	b.lock.Lock()
	defer b.lock.Unlock()
	if !b.present {
		return nil, nil
	}
	out := make([]byte, len(b.data))
	copy(out, b.data)
	return out, nil
}

// Save implements Backend.
func (b *MemoryBackend) Save(data []byte) error {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.data = make([]byte, len(data))
	copy(b.data, data)
	b.present = true
	return nil
}

// Delete implements Backend.
func (b *MemoryBackend) Delete() error {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.data = nil
	b.present = false
	return nil
}
