package tasks

import (
	"fmt"
	"strings"
)

// --- Explicit state transitions ---
//
// The scheduler never mutates tasks. These are the only operations that
// change Passes or Blocked, and each is invoked deliberately by a caller:
// Complete after the work verifiably succeeded, Block after repeated
// failed attempts, Unblock and Reopen by an operator.

func (l *List) lookup(id string) (*Task, error) {
	i := l.Find(id)
	if i < 0 {
		return nil, fmt.Errorf("task %q not found", id)
	}
	return &l.Features[i], nil
}

// Complete marks the task as passing. Completing a passing task is a
// no-op that keeps the original CompletedAt.
func (l *List) Complete(id string) error {
	t, err := l.lookup(id)
	if err != nil {
		return err
	}
	if t.Passes {
		return nil
	}
	now := timeNow().UTC()
	t.Passes = true
	t.CompletedAt = &now
	t.Blocked = false
	t.BlockedReason = ""
	return nil
}

// Block flags an incomplete task so the scheduler skips it.
func (l *List) Block(id, reason string) error {
	t, err := l.lookup(id)
	if err != nil {
		return err
	}
	if t.Passes {
		return fmt.Errorf("task %q already passes; reopen it before blocking", id)
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return fmt.Errorf("blocking %q requires a reason", id)
	}
	t.Blocked = true
	t.BlockedReason = reason
	return nil
}

// Unblock clears the blocked flag.
func (l *List) Unblock(id string) error {
	t, err := l.lookup(id)
	if err != nil {
		return err
	}
	if !t.Blocked {
		return fmt.Errorf("task %q is not blocked", id)
	}
	t.Blocked = false
	t.BlockedReason = ""
	return nil
}

// Reopen resets a passing task to incomplete. This is the only way Passes
// goes from true to false and is reserved for operators.
func (l *List) Reopen(id string) error {
	t, err := l.lookup(id)
	if err != nil {
		return err
	}
	if !t.Passes {
		return fmt.Errorf("task %q is not complete", id)
	}
	t.Passes = false
	t.CompletedAt = nil
	return nil
}
