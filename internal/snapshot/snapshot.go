// Package snapshot keeps capped copies of the working view taken right
// before it is reset, pruned to the newest few.
package snapshot

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/zeddy89/Context-Engine/internal/errkind"
	"github.com/zeddy89/Context-Engine/internal/fileutil"
)

// IDLayout is the UTC timestamp layout of snapshot ids. It is fixed width
// so lexicographic order is chronological order.
const IDLayout = "20060102T150405.000000000Z"

// Marker ends a snapshot that hit the size cap.
const Marker = "\n\n[... snapshot truncated]"

const ext = ".md"

// Snapshotter writes and prunes snapshots in one directory.
type Snapshotter struct {
	dir      string
	maxChars int
	retain   int
	log      *zap.Logger
	now      func() time.Time
}

// Option configures a Snapshotter.
type Option func(*Snapshotter)

// WithLogger sets the logger used for swallowed cleanup errors.
func WithLogger(l *zap.Logger) Option {
	return func(s *Snapshotter) {
		if l != nil {
			s.log = l
		}
	}
}

// WithClock replaces time.Now; used in tests.
func WithClock(now func() time.Time) Option {
	return func(s *Snapshotter) { s.now = now }
}

// New creates a Snapshotter writing to dir, capping content at maxChars
// runes and keeping the newest retain snapshots.
func New(dir string, maxChars, retain int, opts ...Option) *Snapshotter {
	s := &Snapshotter{dir: dir, maxChars: maxChars, retain: retain, log: zap.NewNop(), now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Dir returns the snapshot directory.
func (s *Snapshotter) Dir() string { return s.dir }

// Take writes a capped copy of text and prunes old snapshots. Only the
// write can fail; pruning errors are logged and ignored.
func (s *Snapshotter) Take(text string) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", errkind.New(errkind.ErrWriteFailure, "snapshot", err)
	}

	at := s.now().UTC()
	id := at.Format(IDLayout)
	for s.exists(id) {
		at = at.Add(time.Nanosecond)
		id = at.Format(IDLayout)
	}

	if err := fileutil.WriteAtomic(s.path(id), []byte(capText(text, s.maxChars))); err != nil {
		return "", errkind.New(errkind.ErrWriteFailure, "snapshot", err, id)
	}
	s.prune()
	return id, nil
}

// List returns snapshot ids, newest first. A missing directory is empty.
func (s *Snapshotter) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, errkind.New(errkind.ErrStoreUnavailable, "list snapshots", err)
	}
	var ids []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ext) {
			continue
		}
		id := strings.TrimSuffix(name, ext)
		if _, err := time.Parse(IDLayout, id); err != nil {
			continue
		}
		ids = append(ids, id)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(ids)))
	return ids, nil
}

// Path returns the file holding snapshot id.
func (s *Snapshotter) Path(id string) string { return s.path(id) }

func (s *Snapshotter) path(id string) string {
	return filepath.Join(s.dir, id+ext)
}

func (s *Snapshotter) exists(id string) bool {
	_, err := os.Stat(s.path(id))
	return err == nil
}

func (s *Snapshotter) prune() {
	ids, err := s.List()
	if err != nil {
		s.log.Warn("listing snapshots for retention failed", zap.Error(err))
		return
	}
	if s.retain <= 0 || len(ids) <= s.retain {
		return
	}
	for _, id := range ids[s.retain:] {
		if err := os.Remove(s.path(id)); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.log.Warn("removing old snapshot failed", zap.String("id", id), zap.Error(err))
		}
	}
}

// capText cuts text to limit runes, ending with Marker when cut.
func capText(text string, limit int) string {
	runes := []rune(text)
	if limit <= 0 || len(runes) <= limit {
		return text
	}
	marker := []rune(Marker)
	keep := limit - len(marker)
	if keep < 0 {
		return string(runes[:limit])
	}
	return string(runes[:keep]) + Marker
}
