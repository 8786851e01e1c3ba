package tasks

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func fixedTime(t *testing.T, at time.Time) {
	t.Helper()
	orig := timeNow
	timeNow = func() time.Time { return at }
	t.Cleanup(func() { timeNow = orig })
}

func TestComplete(t *testing.T) {
	fixedTime(t, t1)
	l := &List{Features: []Task{{ID: "A", Blocked: true, BlockedReason: "x"}}}

	if err := l.Complete("A"); err != nil {
		t.Fatal(err)
	}
	got := l.Features[0]
	if !got.Passes || got.Blocked || got.BlockedReason != "" {
		t.Errorf("after Complete: %+v", got)
	}
	if !got.CompletedAt.Equal(t1) {
		t.Errorf("CompletedAt = %v, want %v", got.CompletedAt, t1)
	}

	// A second Complete keeps the first completion time.
	fixedTime(t, t2)
	if err := l.Complete("A"); err != nil {
		t.Fatal(err)
	}
	if !l.Features[0].CompletedAt.Equal(t1) {
		t.Errorf("CompletedAt moved to %v", l.Features[0].CompletedAt)
	}
}

func TestBlockUnblock(t *testing.T) {
	l := &List{Features: []Task{task("A", 1, false), task("B", 1, true)}}

	if err := l.Block("A", ""); err == nil {
		t.Error("Block without reason should fail")
	}
	if err := l.Block("B", "flaky"); err == nil {
		t.Error("Block of a passing task should fail")
	}
	if err := l.Block("A", "tests fail after 3 attempts"); err != nil {
		t.Fatal(err)
	}
	if !l.Features[0].Blocked || l.Features[0].BlockedReason != "tests fail after 3 attempts" {
		t.Errorf("after Block: %+v", l.Features[0])
	}

	if err := l.Unblock("A"); err != nil {
		t.Fatal(err)
	}
	if l.Features[0].Blocked || l.Features[0].BlockedReason != "" {
		t.Errorf("after Unblock: %+v", l.Features[0])
	}
	if err := l.Unblock("A"); err == nil {
		t.Error("Unblock of an unblocked task should fail")
	}
}

func TestReopen(t *testing.T) {
	at := t1
	l := &List{Features: []Task{{ID: "A", Passes: true, CompletedAt: &at}}}
	if err := l.Reopen("A"); err != nil {
		t.Fatal(err)
	}
	if l.Features[0].Passes || l.Features[0].CompletedAt != nil {
		t.Errorf("after Reopen: %+v", l.Features[0])
	}
	if err := l.Reopen("A"); err == nil {
		t.Error("Reopen of an incomplete task should fail")
	}
}

func TestTransitions_UnknownID(t *testing.T) {
	l := &List{}
	for name, fn := range map[string]func() error{
		"complete": func() error { return l.Complete("nope") },
		"block":    func() error { return l.Block("nope", "r") },
		"unblock":  func() error { return l.Unblock("nope") },
		"reopen":   func() error { return l.Reopen("nope") },
	} {
		if err := fn(); err == nil {
			t.Errorf("%s: expected not-found error", name)
		}
	}
}

func TestMerge_SkipsDuplicates(t *testing.T) {
	l := &List{Features: []Task{task("F1", 1, true)}}
	fixes := &List{Features: []Task{task("fix-1", 50, false), task("F1", 1, false), task("fix-2", 55, false)}}

	added, skipped := l.Merge(fixes)

	if diff := cmp.Diff([]string{"fix-1", "fix-2"}, added); diff != "" {
		t.Errorf("added mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"F1"}, skipped); diff != "" {
		t.Errorf("skipped mismatch (-want +got):\n%s", diff)
	}
	if len(l.Features) != 3 || !l.Features[0].Passes {
		t.Errorf("merged list = %+v", l.Features)
	}
}

func TestSummarize(t *testing.T) {
	ts := []Task{
		task("A", 1, true),
		task("B", 1, false),
		{ID: "C", Blocked: true},
		task("D", 1, true),
	}
	got := Summarize(ts)
	want := Progress{Total: 4, Completed: 2, Remaining: 2, Blocked: 1}
	if got != want {
		t.Errorf("Summarize = %+v, want %+v", got, want)
	}
	if got.Percent() != 50 {
		t.Errorf("Percent = %d, want 50", got.Percent())
	}
	if (Progress{}).Percent() != 0 {
		t.Error("empty progress should be 0%")
	}
}

func TestSummarize_PassingTaskIsNotBlocked(t *testing.T) {
	ts := []Task{{ID: "A", Passes: true, Blocked: true, BlockedReason: "flaky CI"}}
	want := Progress{Total: 1, Completed: 1}
	if got := Summarize(ts); got != want {
		t.Errorf("Summarize = %+v, want %+v", got, want)
	}
}

func TestLevel(t *testing.T) {
	tests := []struct {
		name string
		task Task
		want string
	}{
		{"explicit override", Task{Complexity: "HIGH", Description: "rename"}, ComplexityHigh},
		{
			"security api work",
			Task{Name: "Login", Description: "Add password reset endpoint with token expiry and audit"},
			ComplexityHigh,
		},
		{
			"service change",
			Task{Name: "Orders", Description: "Expose the order history through the existing service layer"},
			ComplexityMedium,
		},
		{"short description", Task{Name: "Fix", Description: "typo in footer"}, ComplexityLow},
		{
			"cleanup",
			Task{Name: "Simple cleanup", Description: "Refactor helpers in the billing package for readability"},
			ComplexityLow,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.task.Level(); got != tt.want {
				t.Errorf("Level() = %s, want %s", got, tt.want)
			}
		})
	}
}
