// Package storage implements composer.Store on local files, Redis and memory.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"zenwriter/composer"
)

// Backend opens the store of one document.
type Backend interface {
	Open(id string) (composer.Store, error)
}

var validID = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

func checkID(id string) error {
	if id == "" || id == "." || id == ".." || !validID.MatchString(id) {
		return fmt.Errorf("invalid document id %q", id)
	}
	return nil
}

// FileStore keeps a document as a single markdown file.
type FileStore struct {
	Path string
}

var _ composer.Store = (*FileStore)(nil)

func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

// Save writes snapshot through a temp file so a crash never leaves a torn document.
func (f *FileStore) Save(_ context.Context, snapshot string) error {
	dir := filepath.Dir(f.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(f.Path)+".*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.WriteString(snapshot); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), f.Path)
}

func (f *FileStore) Load(_ context.Context) (string, bool, error) {
	data, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return string(data), true, nil
}

// FileBackend stores each document as <Dir>/<id>.md.
type FileBackend struct {
	Dir string
}

func (b FileBackend) Open(id string) (composer.Store, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	return NewFileStore(filepath.Join(b.Dir, id+".md")), nil
}
