// Package tasks holds the task graph: the on-disk task list, dependency
// validation, reconciliation against the commit history, scheduling of
// the next task, and the explicit state transitions callers apply.
package tasks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// DefaultPriority is used when a task omits "priority".
const DefaultPriority = 99

// Task is one unit of work in the task list.
//
// Fields the engine does not know about (severity, qa_origin, ...) are
// kept in Extra and written back unchanged by Save.
type Task struct {
	ID            string     `json:"id"`
	Name          string     `json:"name,omitempty"`
	Description   string     `json:"description,omitempty"`
	Priority      int        `json:"priority"`
	Dependencies  []string   `json:"dependencies,omitempty"`
	Passes        bool       `json:"passes"`
	Blocked       bool       `json:"blocked,omitempty"`
	BlockedReason string     `json:"blocked_reason,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	Category      string     `json:"category,omitempty"`
	Complexity    string     `json:"complexity,omitempty"`
	Tests         []string   `json:"tests,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// taskFields is the alias used to (un)marshal the known fields without
// recursing into Task's own methods.
type taskFields Task

var taskKeys = []string{
	"id", "name", "description", "priority", "dependencies", "passes",
	"blocked", "blocked_reason", "completed_at", "category", "complexity", "tests",
}

// UnmarshalJSON decodes the known fields and stashes the rest in Extra.
func (t *Task) UnmarshalJSON(data []byte) error {
	raw := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	f := taskFields{Priority: DefaultPriority}
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	if p, ok := raw["priority"]; ok && string(p) == "null" {
		f.Priority = DefaultPriority
	}
	f.Extra = extraFields(raw, taskKeys)
	*t = Task(f)
	return nil
}

// MarshalJSON writes the known fields followed by Extra in key order.
func (t Task) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(taskFields(t))
	if err != nil {
		return nil, err
	}
	return appendExtra(base, t.Extra)
}

// Clone returns a deep copy of t.
func (t Task) Clone() Task {
	c := t
	c.Dependencies = append([]string(nil), t.Dependencies...)
	c.Tests = append([]string(nil), t.Tests...)
	if t.CompletedAt != nil {
		at := *t.CompletedAt
		c.CompletedAt = &at
	}
	if t.Extra != nil {
		c.Extra = make(map[string]json.RawMessage, len(t.Extra))
		for k, v := range t.Extra {
			c.Extra[k] = append(json.RawMessage(nil), v...)
		}
	}
	return c
}

// List is the whole task list file.
type List struct {
	Project  string `json:"project,omitempty"`
	Features []Task `json:"features"`

	Extra map[string]json.RawMessage `json:"-"`
}

type listFields List

var listKeys = []string{"project", "features"}

// UnmarshalJSON decodes the list and keeps unknown top-level keys.
func (l *List) UnmarshalJSON(data []byte) error {
	raw := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var f listFields
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	f.Extra = extraFields(raw, listKeys)
	*l = List(f)
	return nil
}

// MarshalJSON writes the list with its unknown top-level keys.
func (l List) MarshalJSON() ([]byte, error) {
	f := listFields(l)
	if f.Features == nil {
		f.Features = []Task{}
	}
	base, err := json.Marshal(f)
	if err != nil {
		return nil, err
	}
	return appendExtra(base, l.Extra)
}

// Find returns the index of the task with id, or -1.
func (l *List) Find(id string) int {
	for i := range l.Features {
		if l.Features[i].ID == id {
			return i
		}
	}
	return -1
}

// CompletionEvent is one observation in the commit history that a task
// was completed.
type CompletionEvent struct {
	TaskID     string    `json:"task_id"`
	ObservedAt time.Time `json:"observed_at"`
	Ref        string    `json:"ref,omitempty"`
}

// EventLog is the authoritative, read-only record of completions.
type EventLog interface {
	Events(ctx context.Context) ([]CompletionEvent, error)
}

func extraFields(raw map[string]json.RawMessage, known []string) map[string]json.RawMessage {
	for _, k := range known {
		delete(raw, k)
	}
	if len(raw) == 0 {
		return nil
	}
	return raw
}

// appendExtra splices extra keys into an encoded JSON object. Keys already
// present in base are skipped.
func appendExtra(base []byte, extra map[string]json.RawMessage) ([]byte, error) {
	if len(extra) == 0 {
		return base, nil
	}
	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var present map[string]json.RawMessage
	if err := json.Unmarshal(base, &present); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.Write(bytes.TrimSuffix(base, []byte("}")))
	wrote := len(present) > 0
	for _, k := range keys {
		if _, dup := present[k]; dup {
			continue
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		if !json.Valid(extra[k]) {
			return nil, fmt.Errorf("field %q: invalid JSON value", k)
		}
		if wrote {
			buf.WriteByte(',')
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(extra[k])
		wrote = true
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
