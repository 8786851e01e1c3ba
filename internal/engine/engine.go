// Package engine runs one invocation of the context engine against a
// project: reconcile the task list with the commit history, schedule the
// next task, compile the working view and persist what changed.
//
// The engine holds no locks. Callers that may run concurrently against the
// same checkout must serialize invocations themselves.
package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/zeddy89/Context-Engine/internal/compiler"
	"github.com/zeddy89/Context-Engine/internal/config"
	"github.com/zeddy89/Context-Engine/internal/errkind"
	"github.com/zeddy89/Context-Engine/internal/fileutil"
	"github.com/zeddy89/Context-Engine/internal/gitlog"
	"github.com/zeddy89/Context-Engine/internal/knowledge"
	"github.com/zeddy89/Context-Engine/internal/snapshot"
	"github.com/zeddy89/Context-Engine/internal/tasks"
)

// Engine ties the stores and algorithms together for one project root.
type Engine struct {
	root      string
	cfg       config.Config
	log       *zap.Logger
	tasks     tasks.Store
	events    tasks.EventLog
	knowledge knowledge.Store
	compiler  *compiler.Compiler
	snaps     *snapshot.Snapshotter
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithEventLog replaces the git-backed completion log.
func WithEventLog(l tasks.EventLog) Option {
	return func(e *Engine) { e.events = l }
}

// WithKnowledgeStore replaces the configured knowledge backend.
func WithKnowledgeStore(s knowledge.Store) Option {
	return func(e *Engine) { e.knowledge = s }
}

// Open loads the configuration under root and opens every store.
func Open(root string, opts ...Option) (*Engine, error) {
	cfg, err := config.Load(root)
	if err != nil {
		return nil, errkind.New(errkind.ErrConfiguration, "load config", err)
	}
	return New(root, cfg, opts...)
}

// New builds an Engine from an already loaded configuration.
func New(root string, cfg config.Config, opts ...Option) (*Engine, error) {
	e := &Engine{root: root, cfg: cfg, log: zap.NewNop()}
	for _, o := range opts {
		o(e)
	}

	e.tasks = tasks.NewFileStore(cfg.TaskFilePath(root))
	if e.events == nil {
		e.events = gitlog.New(root,
			gitlog.WithPattern(cfg.Git.CompletionPattern),
			gitlog.WithTimeout(cfg.Git.Timeout),
		)
	}
	if e.knowledge == nil {
		e.knowledge = openKnowledge(root, cfg, e.log)
	}
	e.compiler = compiler.New(e.knowledge, cfg, compiler.WithLogger(e.log))
	e.snaps = snapshot.New(config.SnapshotsPath(root), cfg.Snapshot.MaxChars, cfg.Snapshot.Retain,
		snapshot.WithLogger(e.log))
	return e, nil
}

// openKnowledge opens the configured backend. A database that cannot be
// opened degrades to a store that reports every category unavailable.
func openKnowledge(root string, cfg config.Config, log *zap.Logger) knowledge.Store {
	switch cfg.Knowledge.Backend {
	case config.BackendSQLite:
		s, err := knowledge.OpenSQLite(config.DatabasePath(root))
		if err != nil {
			log.Warn("knowledge database unavailable, treating categories as empty", zap.Error(err))
			return knowledge.NewUnavailableStore(err)
		}
		return s
	default:
		return knowledge.NewFileStore(config.MemoryPath(root), log)
	}
}

// Close releases the knowledge store.
func (e *Engine) Close() error {
	return e.knowledge.Close()
}

// Root returns the project root.
func (e *Engine) Root() string { return e.root }

// Config returns the active configuration.
func (e *Engine) Config() config.Config { return e.cfg }

// Knowledge returns the knowledge store.
func (e *Engine) Knowledge() knowledge.Store { return e.knowledge }

// Snapshots returns the snapshotter.
func (e *Engine) Snapshots() *snapshot.Snapshotter { return e.snaps }

// SyncResult reports what reconciliation did.
type SyncResult struct {
	Fixed []string `json:"fixed,omitempty"`
	Saved bool     `json:"saved"`
	// LogAvailable is false when the commit history could not be read.
	LogAvailable bool `json:"log_available"`
	// Degraded is true when the task list could not be read.
	Degraded bool `json:"degraded,omitempty"`
}

// Sync loads the task list and reconciles it against the completion log,
// saving when tasks were fixed. An unreadable task list or commit history
// degrades to last-known state and is only logged; a failed save is
// returned.
func (e *Engine) Sync(ctx context.Context) (*tasks.List, SyncResult, error) {
	var res SyncResult
	l, err := e.tasks.Load()
	if err != nil {
		e.log.Warn("task list unavailable, treating as empty", zap.Error(err))
		res.Degraded = true
	}

	events, err := e.events.Events(ctx)
	if err != nil {
		e.log.Warn("completion log unavailable, skipping reconciliation", zap.Error(err))
		return l, res, nil
	}
	res.LogAvailable = true

	out, fixed := tasks.Reconcile(l.Features, events)
	if len(fixed) == 0 {
		return l, res, nil
	}
	l.Features = out
	res.Fixed = fixed
	for _, id := range fixed {
		e.log.Info("task completion found in git history", zap.String("task", id))
	}
	if res.Degraded {
		return l, res, nil
	}
	if err := e.tasks.Save(l); err != nil {
		return l, res, err
	}
	res.Saved = true
	return l, res, nil
}

// Next reconciles, then schedules. Reconciliation always runs first.
func (e *Engine) Next(ctx context.Context) (tasks.Decision, tasks.Progress, error) {
	l, d, err := e.plan(ctx)
	if err != nil {
		return tasks.Decision{}, tasks.Progress{}, err
	}
	return d, tasks.Summarize(l.Features), nil
}

func (e *Engine) plan(ctx context.Context) (*tasks.List, tasks.Decision, error) {
	l, _, err := e.Sync(ctx)
	if err != nil {
		return nil, tasks.Decision{}, err
	}
	d, err := tasks.Next(l.Features)
	if err != nil {
		return nil, tasks.Decision{}, err
	}
	return l, d, nil
}

// projectName prefers the name declared in the task list over the
// configured one.
func (e *Engine) projectName(l *tasks.List) string {
	if l != nil && strings.TrimSpace(l.Project) != "" {
		return l.Project
	}
	return e.cfg.Project
}

// Compile produces the working view for the next task and caches it in
// .agent/working-context/current.md. A positive budget overrides the
// configured one.
func (e *Engine) Compile(ctx context.Context, budget int) (*compiler.Result, error) {
	l, d, err := e.plan(ctx)
	if err != nil {
		return nil, err
	}

	res, err := e.compiler.Compile(ctx, compiler.Input{
		Project:   e.projectName(l),
		Decision:  d,
		Progress:  tasks.Summarize(l.Features),
		Reference: e.reference(),
		Budget:    budget,
	})
	if err != nil {
		return nil, err
	}

	path := config.WorkingContextPath(e.root)
	if err := fileutil.WriteAtomic(path, []byte(res.Text+"\n")); err != nil {
		return nil, errkind.New(errkind.ErrWriteFailure, "write working context", err)
	}
	e.log.Debug("compiled working context",
		zap.Int("chars", res.Chars),
		zap.Int("budget", res.Budget),
		zap.Strings("evicted", res.Evicted),
		zap.Strings("truncated", res.Truncated),
		zap.String("digest", res.Digest),
	)
	return res, nil
}

// reference is the hand-written reference section, or a generated one
// naming the detected test command.
func (e *Engine) reference() string {
	data, err := os.ReadFile(config.ReferencePath(e.root))
	if err == nil {
		return string(data)
	}
	if !errors.Is(err, os.ErrNotExist) {
		e.log.Warn("reading reference file failed", zap.Error(err))
	}
	if cmd := DetectTestCommand(e.root); cmd != "" {
		return fmt.Sprintf("Test command: %s\nRecord a completion with a commit message: %s <task-id>",
			cmd, e.cfg.Git.CompletionPattern)
	}
	return fmt.Sprintf("Record a completion with a commit message: %s <task-id>", e.cfg.Git.CompletionPattern)
}

// LastCompiled returns the cached working view, or "" when none exists.
func (e *Engine) LastCompiled() (string, error) {
	data, err := os.ReadFile(config.WorkingContextPath(e.root))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", errkind.New(errkind.ErrStoreUnavailable, "read working context", err)
	}
	return string(data), nil
}

// Snapshot stores a capped copy of the last compiled view, compiling one
// first when nothing is cached.
func (e *Engine) Snapshot(ctx context.Context) (string, error) {
	text, err := e.LastCompiled()
	if err != nil {
		return "", err
	}
	if text == "" {
		res, err := e.Compile(ctx, 0)
		if err != nil {
			return "", err
		}
		text = res.Text
	}
	id, err := e.snaps.Take(text)
	if err != nil {
		return "", err
	}
	e.log.Info("snapshot written", zap.String("id", id))
	return id, nil
}

// Reset snapshots the working view and then removes the cached copy, so
// the next compile starts fresh.
func (e *Engine) Reset(ctx context.Context) (string, error) {
	id, err := e.Snapshot(ctx)
	if err != nil {
		return "", err
	}
	if err := os.Remove(config.WorkingContextPath(e.root)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return id, errkind.New(errkind.ErrWriteFailure, "reset working context", err)
	}
	return id, nil
}
