package knowledge

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zeddy89/Context-Engine/internal/errkind"
	"github.com/zeddy89/Context-Engine/internal/fileutil"
)

// FileStore keeps one markdown file per record with YAML front matter,
// under <root>/<category dir>/. Files dropped in by hand without front
// matter are read as plain bodies timestamped by their modification time.
type FileStore struct {
	root string
	log  *zap.Logger
}

// NewFileStore creates a file-backed store rooted at dir (usually
// .agent/memory). Directories are created lazily on first append.
func NewFileStore(dir string, log *zap.Logger) *FileStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &FileStore{root: dir, log: log}
}

// CategoryPath returns the directory holding records of c.
func (fs *FileStore) CategoryPath(c Category) string {
	return filepath.Join(fs.root, c.Dir())
}

// Root returns the store's root directory.
func (fs *FileStore) Root() string { return fs.root }

// Append writes a new record atomically and returns it.
func (fs *FileStore) Append(_ context.Context, in NewRecord) (Record, error) {
	in, err := validateNew(in)
	if err != nil {
		return Record{}, err
	}

	rec := Record{
		ID:        uuid.NewString(),
		Category:  in.Category,
		CreatedAt: timeNow().UTC(),
		Body:      in.Body,
		Task:      in.Task,
	}
	data, err := serializeRecord(rec)
	if err != nil {
		return Record{}, err
	}

	dir := fs.CategoryPath(rec.Category)
	name := rec.CreatedAt.Format(timestampLayout) + "-" + rec.ID[:8] + ".md"
	path := filepath.Join(dir, name)
	if err := fileutil.WriteAtomic(path, data); err != nil {
		return Record{}, errkind.New(errkind.ErrWriteFailure, "append knowledge", err)
	}
	return rec, nil
}

// Recent returns at most n records of category c, newest first. A missing
// category directory is an empty category, not an error.
func (fs *FileStore) Recent(_ context.Context, c Category, n int) ([]Record, error) {
	if n <= 0 {
		return nil, nil
	}
	recs, err := fs.readAll(c)
	if err != nil {
		return nil, err
	}
	sortNewestFirst(recs)
	if len(recs) > n {
		recs = recs[:n]
	}
	return recs, nil
}

// Count returns the number of readable records in c.
func (fs *FileStore) Count(_ context.Context, c Category) (int, error) {
	recs, err := fs.readAll(c)
	if err != nil {
		return 0, err
	}
	return len(recs), nil
}

// Close is a no-op; it exists to satisfy Store.
func (fs *FileStore) Close() error { return nil }

func (fs *FileStore) readAll(c Category) ([]Record, error) {
	if _, ok := dirNames[c]; !ok {
		return nil, fmt.Errorf("invalid category %q", c)
	}
	dir := fs.CategoryPath(c)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, errkind.New(errkind.ErrStoreUnavailable, "read "+string(c)+" records", err)
	}

	var out []Record
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".md" {
			continue
		}
		path := filepath.Join(dir, e.Name())
		rec, err := fs.readRecord(c, path, e)
		if err != nil {
			fs.log.Debug("skipping unreadable knowledge record", zap.String("path", path), zap.Error(err))
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (fs *FileStore) readRecord(c Category, path string, e os.DirEntry) (Record, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Record{}, err
	}
	fm, body, ok, err := parseRecord(raw)
	if err != nil {
		return Record{}, err
	}
	if body == "" {
		return Record{}, errors.New("empty body")
	}

	rec := Record{ID: fm.ID, Category: c, CreatedAt: fm.CreatedAt.UTC(), Body: body, Task: fm.Task}
	if rec.ID == "" {
		rec.ID = strings.TrimSuffix(e.Name(), ".md")
	}
	if !ok || fm.CreatedAt.IsZero() {
		info, err := e.Info()
		if err != nil {
			return Record{}, err
		}
		rec.CreatedAt = info.ModTime().UTC()
	}
	return rec, nil
}
