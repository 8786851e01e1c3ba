package knowledge

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/zeddy89/Context-Engine/internal/errkind"
)

// fixedClock makes timeNow return t0, t0+1s, t0+2s, ... on successive calls.
func fixedClock(t *testing.T) {
	t.Helper()
	t0 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	calls := 0
	orig := timeNow
	timeNow = func() time.Time {
		now := t0.Add(time.Duration(calls) * time.Second)
		calls++
		return now
	}
	t.Cleanup(func() { timeNow = orig })
}

// backends runs fn once against each Store implementation.
func backends(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Run("files", func(t *testing.T) {
		fn(t, NewFileStore(t.TempDir(), nil))
	})
	t.Run("sqlite", func(t *testing.T) {
		s, err := OpenSQLite(filepath.Join(t.TempDir(), "memory.db"))
		if err != nil {
			t.Fatalf("OpenSQLite: %v", err)
		}
		t.Cleanup(func() { s.Close() })
		fn(t, s)
	})
}

func bodies(recs []Record) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Body
	}
	return out
}

func TestRecent_NewestFirstAndCapped(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		fixedClock(t)
		ctx := context.Background()
		for _, b := range []string{"f1", "f2", "f3", "f4", "f5", "f6"} {
			if _, err := s.Append(ctx, NewRecord{Category: Failure, Body: b}); err != nil {
				t.Fatalf("Append(%s): %v", b, err)
			}
		}

		got, err := s.Recent(ctx, Failure, 3)
		if err != nil {
			t.Fatalf("Recent: %v", err)
		}
		if diff := cmp.Diff([]string{"f6", "f5", "f4"}, bodies(got)); diff != "" {
			t.Errorf("Recent mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestRecent_CategoriesAreIsolated(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		fixedClock(t)
		ctx := context.Background()
		if _, err := s.Append(ctx, NewRecord{Category: Constraint, Body: "never edit generated code"}); err != nil {
			t.Fatal(err)
		}
		if _, err := s.Append(ctx, NewRecord{Category: Strategy, Body: "bisect flaky tests", Task: "F2"}); err != nil {
			t.Fatal(err)
		}

		got, err := s.Recent(ctx, Strategy, 10)
		if err != nil {
			t.Fatalf("Recent: %v", err)
		}
		if len(got) != 1 {
			t.Fatalf("got %d strategy records, want 1", len(got))
		}
		if got[0].Task != "F2" || got[0].Category != Strategy {
			t.Errorf("record = %+v, want task F2 in strategy", got[0])
		}

		n, err := s.Count(ctx, Constraint)
		if err != nil {
			t.Fatalf("Count: %v", err)
		}
		if n != 1 {
			t.Errorf("Count(constraint) = %d, want 1", n)
		}
	})
}

func TestRecent_EmptyCategory(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		got, err := s.Recent(context.Background(), Entity, 5)
		if err != nil {
			t.Fatalf("Recent: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("got %d records, want 0", len(got))
		}
	})
}

func TestAppend_RejectsBadInput(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		if _, err := s.Append(ctx, NewRecord{Category: Failure, Body: "   "}); err == nil {
			t.Error("expected error for empty body")
		}
		if _, err := s.Append(ctx, NewRecord{Category: "gossip", Body: "x"}); err == nil {
			t.Error("expected error for unknown category")
		}
	})
}

func TestAppend_IsAppendOnly(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		fixedClock(t)
		ctx := context.Background()
		first, err := s.Append(ctx, NewRecord{Category: Failure, Body: "same text"})
		if err != nil {
			t.Fatal(err)
		}
		second, err := s.Append(ctx, NewRecord{Category: Failure, Body: "same text"})
		if err != nil {
			t.Fatal(err)
		}
		if first.ID == second.ID {
			t.Error("duplicate bodies must produce distinct records")
		}
		n, _ := s.Count(ctx, Failure)
		if n != 2 {
			t.Errorf("Count = %d, want 2", n)
		}
	})
}

func TestFileStore_ReadsHandWrittenRecords(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStore(dir, nil)
	catDir := s.CategoryPath(Constraint)
	if err := os.MkdirAll(catDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(catDir, "api.md"), []byte("Public API is frozen.\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	// Corrupt front matter is skipped, not fatal.
	if err := os.WriteFile(filepath.Join(catDir, "broken.md"), []byte("---\nid: [\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := s.Recent(context.Background(), Constraint, 5)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d records, want 1", len(got))
	}
	if got[0].ID != "api" || got[0].Body != "Public API is frozen." {
		t.Errorf("record = %+v", got[0])
	}
	if got[0].CreatedAt.IsZero() {
		t.Error("hand-written record should take its mtime")
	}
}

func TestFileStore_UnreadableDirIsStoreUnavailable(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStore(dir, nil)
	// A regular file where the category directory should be.
	if err := os.WriteFile(s.CategoryPath(Failure), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := s.Recent(context.Background(), Failure, 3)
	if !errors.Is(err, errkind.ErrStoreUnavailable) {
		t.Fatalf("err = %v, want ErrStoreUnavailable", err)
	}
}

func TestSerializeParse_RoundTrip(t *testing.T) {
	rec := Record{
		ID:        "abc",
		Category:  Entity,
		CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 6, time.UTC),
		Body:      "PaymentService owns refunds.",
		Task:      "F7",
	}
	data, err := serializeRecord(rec)
	if err != nil {
		t.Fatal(err)
	}
	fm, body, ok, err := parseRecord(data)
	if err != nil || !ok {
		t.Fatalf("parseRecord ok=%v err=%v", ok, err)
	}
	got := Record{ID: fm.ID, Category: fm.Category, CreatedAt: fm.CreatedAt, Body: body, Task: fm.Task}
	if diff := cmp.Diff(rec, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestParseCategory(t *testing.T) {
	tests := []struct {
		in   string
		want Category
	}{
		{"failure", Failure},
		{"Failures", Failure},
		{" strategies ", Strategy},
		{"entity", Entity},
	}
	for _, tt := range tests {
		got, err := ParseCategory(tt.in)
		if err != nil {
			t.Errorf("ParseCategory(%q) error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseCategory(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
	if _, err := ParseCategory("rumor"); err == nil {
		t.Error("expected error for unknown category")
	}
}
