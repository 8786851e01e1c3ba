package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/zeddy89/Context-Engine/internal/errkind"
	"github.com/zeddy89/Context-Engine/internal/knowledge"
	"github.com/zeddy89/Context-Engine/internal/tasks"
)

// update applies fn to a freshly loaded task list and saves it. A list
// that could not be read is never written back.
func (e *Engine) update(op string, fn func(l *tasks.List) error) error {
	l, err := e.tasks.Load()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := fn(l); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return e.tasks.Save(l)
}

// Complete marks a task as passing.
func (e *Engine) Complete(id string) error {
	return e.update("complete", func(l *tasks.List) error { return l.Complete(id) })
}

// Block flags a task so the scheduler skips it.
func (e *Engine) Block(id, reason string) error {
	return e.update("block", func(l *tasks.List) error { return l.Block(id, reason) })
}

// Unblock clears a task's blocked flag.
func (e *Engine) Unblock(id string) error {
	return e.update("unblock", func(l *tasks.List) error { return l.Unblock(id) })
}

// Reopen resets a passing task to incomplete.
func (e *Engine) Reopen(id string) error {
	return e.update("reopen", func(l *tasks.List) error { return l.Reopen(id) })
}

// Merge adds the tasks from a fix-features file, skipping ids already
// present. The merged list must still validate or nothing is written.
func (e *Engine) Merge(path string) (added, skipped []string, err error) {
	other, err := tasks.ReadList(path)
	if err != nil {
		return nil, nil, errkind.New(errkind.ErrConfiguration, "merge", err)
	}
	err = e.update("merge", func(l *tasks.List) error {
		added, skipped = l.Merge(other)
		return tasks.Validate(l)
	})
	if err != nil {
		return nil, nil, err
	}
	e.log.Info("merged tasks", zap.Strings("added", added), zap.Strings("skipped", skipped))
	return added, skipped, nil
}

// Validate checks the task list structure.
func (e *Engine) Validate() error {
	l, err := e.tasks.Load()
	if err != nil {
		return err
	}
	return tasks.Validate(l)
}

// TaskLevel returns the complexity level of task id, or of the task Next
// would schedule when id is empty. It does not reconcile or save. An empty
// level means there is no such task.
func (e *Engine) TaskLevel(ctx context.Context, id string) (string, error) {
	l, err := e.tasks.Load()
	if err != nil {
		return "", err
	}
	if id == "" {
		d, err := tasks.Next(l.Features)
		if err != nil || d.Task == nil {
			return "", err
		}
		return d.Task.Level(), nil
	}
	i := l.Find(id)
	if i < 0 {
		return "", nil
	}
	return l.Features[i].Level(), nil
}

// Remember appends a knowledge record.
func (e *Engine) Remember(ctx context.Context, c knowledge.Category, body, task string) (knowledge.Record, error) {
	rec, err := e.knowledge.Append(ctx, knowledge.NewRecord{Category: c, Body: body, Task: task})
	if err != nil {
		return knowledge.Record{}, err
	}
	e.log.Debug("knowledge recorded", zap.String("category", string(c)), zap.String("id", rec.ID))
	return rec, nil
}

// Recall returns the n most recent records of c, newest first.
func (e *Engine) Recall(ctx context.Context, c knowledge.Category, n int) ([]knowledge.Record, error) {
	return e.knowledge.Recent(ctx, c, n)
}

// Status is a read-only overview of the project.
type Status struct {
	Project   string                     `json:"project"`
	Progress  tasks.Progress             `json:"progress"`
	Decision  tasks.Decision             `json:"decision"`
	Knowledge map[knowledge.Category]int `json:"knowledge"`
	Snapshots []string                   `json:"snapshots,omitempty"`
	Sync      SyncResult                 `json:"sync"`
	// ScheduleError is set when scheduling failed, e.g. on a cycle.
	ScheduleError string `json:"schedule_error,omitempty"`
}

// Status reconciles and summarizes without compiling. A scheduling error
// is reported inside Status rather than returned.
func (e *Engine) Status(ctx context.Context) (*Status, error) {
	l, sync, err := e.Sync(ctx)
	if err != nil {
		return nil, err
	}
	st := &Status{
		Project:   e.projectName(l),
		Progress:  tasks.Summarize(l.Features),
		Knowledge: map[knowledge.Category]int{},
		Sync:      sync,
	}
	if d, err := tasks.Next(l.Features); err != nil {
		st.ScheduleError = err.Error()
	} else {
		st.Decision = d
	}
	for _, c := range knowledge.Categories() {
		n, err := e.knowledge.Count(ctx, c)
		if err != nil {
			e.log.Warn("counting knowledge records failed", zap.String("category", string(c)), zap.Error(err))
			continue
		}
		st.Knowledge[c] = n
	}
	if ids, err := e.snaps.List(); err != nil {
		e.log.Warn("listing snapshots failed", zap.Error(err))
	} else {
		st.Snapshots = ids
	}
	return st, nil
}
