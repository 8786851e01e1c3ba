// Package watch recompiles the working view when its inputs change on
// disk: the task list, knowledge records, the reference file, the config
// and new commits.
package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/zeddy89/Context-Engine/internal/config"
	"github.com/zeddy89/Context-Engine/internal/knowledge"
)

// DefaultDebounce batches bursts of writes (editor saves, git commits)
// into one recompilation.
const DefaultDebounce = 500 * time.Millisecond

// CompileFunc is invoked after a debounced change.
type CompileFunc func(ctx context.Context) error

// Watcher drives CompileFunc from filesystem events under a project root.
type Watcher struct {
	root     string
	taskFile string
	compile  CompileFunc
	debounce time.Duration
	log      *zap.Logger
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.log = l
		}
	}
}

// New creates a Watcher for the project at root whose task list lives at
// taskFile.
func New(root, taskFile string, compile CompileFunc, opts ...Option) *Watcher {
	w := &Watcher{
		root:     filepath.Clean(root),
		taskFile: filepath.Clean(taskFile),
		compile:  compile,
		debounce: DefaultDebounce,
		log:      zap.NewNop(),
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

// Run compiles once, then watches until ctx is cancelled. Compile errors
// are logged and do not stop the loop.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	for _, dir := range w.dirs() {
		if !isGitDir(dir) {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				w.log.Warn("creating watched directory failed", zap.String("dir", dir), zap.Error(err))
			}
		}
		if err := fw.Add(dir); err != nil {
			w.log.Debug("not watching directory", zap.String("dir", dir), zap.Error(err))
			continue
		}
		w.log.Debug("watching", zap.String("dir", dir))
	}

	w.run(ctx)

	tick := w.debounce / 5
	if tick <= 0 {
		tick = w.debounce
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()
	var d debouncer
	d.wait = w.debounce

	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if !w.relevant(ev.Name) {
				continue
			}
			w.log.Debug("change detected", zap.String("path", ev.Name), zap.String("op", ev.Op.String()))
			d.mark(time.Now())

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", zap.Error(err))

		case now := <-ticker.C:
			if d.ready(now) {
				w.run(ctx)
			}
		}
	}
}

func (w *Watcher) run(ctx context.Context) {
	if err := w.compile(ctx); err != nil {
		w.log.Warn("recompile failed", zap.Error(err))
	}
}

// dirs lists the directories to watch. fsnotify is not recursive, so
// every category directory is added on its own.
func (w *Watcher) dirs() []string {
	dirs := []string{
		filepath.Dir(w.taskFile),
		config.AgentPath(w.root),
	}
	memory := config.MemoryPath(w.root)
	for _, c := range knowledge.Categories() {
		dirs = append(dirs, filepath.Join(memory, c.Dir()))
	}
	dirs = append(dirs, filepath.Join(w.root, ".git", "logs"))

	seen := map[string]bool{}
	var out []string
	for _, d := range dirs {
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	return out
}

// relevant reports whether a change to path can alter the compiled view.
// The engine's own outputs are ignored so a compile never triggers
// another.
func (w *Watcher) relevant(path string) bool {
	base := filepath.Base(path)
	if strings.HasSuffix(base, ".tmp") || strings.HasSuffix(base, "-shm") || strings.HasSuffix(base, "-journal") {
		return false
	}

	switch {
	case path == w.taskFile:
		return true
	case path == config.Path(w.root), path == config.ReferencePath(w.root):
		return true
	case path == config.DatabasePath(w.root), path == config.DatabasePath(w.root)+"-wal":
		return true
	case path == filepath.Join(w.root, ".git", "logs", "HEAD"):
		return true
	}

	memory := config.MemoryPath(w.root) + string(filepath.Separator)
	return strings.HasPrefix(path, memory) && filepath.Ext(base) == ".md"
}

func isGitDir(dir string) bool {
	return strings.Contains(dir, string(filepath.Separator)+".git"+string(filepath.Separator)) ||
		strings.HasSuffix(dir, string(filepath.Separator)+".git")
}

// debouncer fires once after events stop arriving for wait.
type debouncer struct {
	wait    time.Duration
	last    time.Time
	pending bool
}

func (d *debouncer) mark(now time.Time) {
	d.last = now
	d.pending = true
}

func (d *debouncer) ready(now time.Time) bool {
	if !d.pending || now.Sub(d.last) < d.wait {
		return false
	}
	d.pending = false
	return true
}
