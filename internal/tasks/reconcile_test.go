package tasks

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

var (
	t1 = time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	t2 = time.Date(2026, 5, 2, 10, 0, 0, 0, time.UTC)
)

func TestReconcile_FixesDrift(t *testing.T) {
	ts := []Task{
		task("F1", 1, false),
		task("F2", 2, false),
		task("F10", 3, false),
	}
	events := []CompletionEvent{
		{TaskID: "F1", ObservedAt: t2, Ref: "bbb"},
		{TaskID: "F1", ObservedAt: t1, Ref: "aaa"},
	}

	out, fixed := Reconcile(ts, events)

	if diff := cmp.Diff([]string{"F1"}, fixed); diff != "" {
		t.Errorf("fixed mismatch (-want +got):\n%s", diff)
	}
	if !out[0].Passes {
		t.Fatal("F1 should pass after reconcile")
	}
	if !out[0].CompletedAt.Equal(t1) {
		t.Errorf("CompletedAt = %v, want earliest event %v", out[0].CompletedAt, t1)
	}
	if out[1].Passes || out[2].Passes {
		t.Error("only F1 has an event; F2 and F10 must stay incomplete")
	}
	if ts[0].Passes {
		t.Error("Reconcile mutated its input")
	}
}

func TestReconcile_Idempotent(t *testing.T) {
	ts := []Task{task("A", 1, false), task("B", 1, true), task("C", 1, false)}
	events := []CompletionEvent{{TaskID: "A", ObservedAt: t1}, {TaskID: "C", ObservedAt: t2}}

	once, _ := Reconcile(ts, events)
	twice, fixed := Reconcile(once, events)

	if diff := cmp.Diff(once, twice); diff != "" {
		t.Errorf("second reconcile changed tasks (-once +twice):\n%s", diff)
	}
	if len(fixed) != 0 {
		t.Errorf("second reconcile fixed %v, want nothing", fixed)
	}
}

func TestReconcile_NeverFlipsPassesOff(t *testing.T) {
	done := t1
	ts := []Task{{ID: "A", Passes: true, CompletedAt: &done}, task("B", 1, true)}

	out, fixed := Reconcile(ts, nil)

	for i := range ts {
		if !out[i].Passes {
			t.Errorf("%s: passes flipped to false", ts[i].ID)
		}
	}
	if len(fixed) != 0 {
		t.Errorf("fixed = %v, want none", fixed)
	}
	// An already passing task keeps its own completion time.
	out, _ = Reconcile(ts, []CompletionEvent{{TaskID: "A", ObservedAt: t2}})
	if !out[0].CompletedAt.Equal(t1) {
		t.Errorf("CompletedAt = %v, want untouched %v", out[0].CompletedAt, t1)
	}
}

func TestReconcile_EmptyLogIsNoOp(t *testing.T) {
	ts := []Task{task("A", 1, false)}
	out, fixed := Reconcile(ts, nil)
	if diff := cmp.Diff(ts, out); diff != "" {
		t.Errorf("no-op reconcile changed tasks:\n%s", diff)
	}
	if fixed != nil {
		t.Errorf("fixed = %v, want nil", fixed)
	}
}
