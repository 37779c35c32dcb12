package matching

import (
	"fmt"
	"os"
	"path/filepath"
)

// Storage keeps the uploaded invoice and purchase order of each session so
// previews can be rendered after the analysis request has finished.
type Storage interface {
	// Save stores a document under name and returns the key to read it back
	Save(name string, data []byte) (string, error)

	Get(key string) ([]byte, error)

	Delete(key string) error
}

// LocalStorage keeps session documents as flat files in one directory
type LocalStorage struct {
	dir string
}

// NewLocalStorage creates dir if needed
func NewLocalStorage(dir string) (*LocalStorage, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating document directory: %w", err)
	}
	return &LocalStorage{dir: dir}, nil
}

// documentPath maps a key onto a file inside dir. Keys are reduced to their
// base name so an uploaded filename cannot point outside the directory.
func (l *LocalStorage) documentPath(key string) (string, string) {
	name := filepath.Base(key)
	return name, filepath.Join(l.dir, name)
}

func (l *LocalStorage) Save(name string, data []byte) (string, error) {
	key, path := l.documentPath(name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("writing document %s: %w", key, err)
	}
	return key, nil
}

func (l *LocalStorage) Get(key string) ([]byte, error) {
	key, path := l.documentPath(key)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading document %s: %w", key, err)
	}
	return data, nil
}

func (l *LocalStorage) Delete(key string) error {
	key, path := l.documentPath(key)
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("deleting document %s: %w", key, err)
	}
	return nil
}
