package gitlog

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/zeddy89/Context-Engine/internal/errkind"
	"github.com/zeddy89/Context-Engine/internal/tasks"
)

func record(hash, date, body string) string {
	return hash + fieldSep + date + fieldSep + body + "\n" + recordSep + "\n"
}

func stubRunner(out string, err error) (Runner, *[]string) {
	var got []string
	return func(_ context.Context, _ string, args ...string) (string, error) {
		got = args
		return out, err
	}, &got
}

func TestEvents_ParsesExactIDs(t *testing.T) {
	out := record("c3", "2026-05-03T12:00:00+02:00", "session: completed F10\n\nall green") +
		record("c2", "2026-05-02T09:00:00Z", "session: completed F1.") +
		record("c1", "2026-05-01T09:00:00Z", "wip: session: completed\nsession: completed fix-F4-001")
	run, args := stubRunner(out, nil)

	events, err := New("/repo", WithRunner(run)).Events(context.Background())
	if err != nil {
		t.Fatalf("Events: %v", err)
	}

	want := []tasks.CompletionEvent{
		{TaskID: "F10", ObservedAt: time.Date(2026, 5, 3, 10, 0, 0, 0, time.UTC), Ref: "c3"},
		{TaskID: "F1", ObservedAt: time.Date(2026, 5, 2, 9, 0, 0, 0, time.UTC), Ref: "c2"},
		{TaskID: "fix-F4-001", ObservedAt: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC), Ref: "c1"},
	}
	if diff := cmp.Diff(want, events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(strings.Join(*args, " "), "--grep=session: completed") {
		t.Errorf("git args = %v, want a single grep for the pattern", *args)
	}
}

func TestEvents_SkipsTruncatedIDs(t *testing.T) {
	out := record("b2", "2026-05-02T09:00:00Z", "session: completed feat/login") +
		record("b1", "2026-05-01T09:00:00Z", "session: completed F7, then session: completed F8#2")
	run, _ := stubRunner(out, nil)

	events, err := New("/repo", WithRunner(run)).Events(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	var ids []string
	for _, ev := range events {
		ids = append(ids, ev.TaskID)
	}
	if diff := cmp.Diff([]string{"F7"}, ids); diff != "" {
		t.Errorf("ids mismatch (-want +got):\n%s", diff)
	}
}

func TestEvents_CustomPattern(t *testing.T) {
	run, args := stubRunner(record("a1", "2026-05-01T09:00:00Z", "done: T-7"), nil)

	events, err := New("/repo", WithRunner(run), WithPattern("done:")).Events(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || events[0].TaskID != "T-7" {
		t.Errorf("events = %+v, want one for T-7", events)
	}
	if (*args)[2] != "--grep=done:" {
		t.Errorf("grep arg = %q", (*args)[2])
	}
}

func TestEvents_FailureIsExternalLogUnavailable(t *testing.T) {
	tests := []struct {
		name string
		out  string
		err  error
	}{
		{"git fails", "", errors.New("fatal: not a git repository")},
		{"garbage output", "nonsense" + recordSep, nil},
		{"bad date", record("x", "yesterday", "session: completed F1"), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			run, _ := stubRunner(tt.out, tt.err)
			_, err := New("/repo", WithRunner(run)).Events(context.Background())
			if !errors.Is(err, errkind.ErrExternalLogUnavailable) {
				t.Fatalf("err = %v, want ErrExternalLogUnavailable", err)
			}
		})
	}
}

func TestEvents_RealRepository(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	dir := t.TempDir()
	git := func(args ...string) {
		t.Helper()
		full := append([]string{"-C", dir, "-c", "user.name=test", "-c", "user.email=test@example.com"}, args...)
		if out, err := exec.Command("git", full...).CombinedOutput(); err != nil {
			t.Fatalf("git %v: %v\n%s", args, err, out)
		}
	}
	git("init", "-q")
	git("commit", "-q", "--allow-empty", "-m", "initial")
	git("commit", "-q", "--allow-empty", "-m", "session: completed F2")
	git("commit", "-q", "--allow-empty", "-m", "unrelated change")

	events, err := New(dir, WithTimeout(10*time.Second)).Events(context.Background())
	if err != nil {
		t.Fatalf("Events: %v", err)
	}
	if len(events) != 1 || events[0].TaskID != "F2" || events[0].Ref == "" {
		t.Errorf("events = %+v, want one for F2", events)
	}
}

func TestEvents_NotARepository(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	_, err := New(t.TempDir()).Events(context.Background())
	if !errors.Is(err, errkind.ErrExternalLogUnavailable) {
		t.Fatalf("err = %v, want ErrExternalLogUnavailable", err)
	}
}
