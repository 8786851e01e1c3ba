package tasks

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/jsonc"

	"github.com/zeddy89/Context-Engine/internal/errkind"
	"github.com/zeddy89/Context-Engine/internal/fileutil"
)

// Store defines the persistence interface for the task list.
type Store interface {
	Load() (*List, error)
	Save(l *List) error
}

// FileStore implements Store on a single JSON file. Comments and trailing
// commas are accepted on read; Save always writes plain indented JSON.
type FileStore struct {
	path string
}

// NewFileStore creates a store for the task list at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the task list file path.
func (fs *FileStore) Path() string { return fs.path }

// Load reads the task list. A missing file is an empty list. A file that
// cannot be read or parsed yields an empty list and an error wrapping
// ErrStoreUnavailable; callers must not Save over that result.
func (fs *FileStore) Load() (*List, error) {
	data, err := os.ReadFile(fs.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &List{}, nil
		}
		return &List{}, errkind.New(errkind.ErrStoreUnavailable, "load tasks", err)
	}

	var l List
	if err := json.Unmarshal(jsonc.ToJSON(data), &l); err != nil {
		return &List{}, errkind.New(errkind.ErrStoreUnavailable, "load tasks",
			fmt.Errorf("parsing %s: %w", filepath.Base(fs.path), err))
	}
	return &l, nil
}

// Save writes the list atomically: temp file in the same directory, fsync,
// rename. On failure the previous file is left intact.
func (fs *FileStore) Save(l *List) error {
	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return errkind.New(errkind.ErrWriteFailure, "save tasks", fmt.Errorf("marshaling task list: %w", err))
	}
	data = append(data, '\n')
	if err := fileutil.WriteAtomic(fs.path, data); err != nil {
		return errkind.New(errkind.ErrWriteFailure, "save tasks", err)
	}
	return nil
}
