package compiler

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/go-cmp/cmp"

	"github.com/zeddy89/Context-Engine/internal/errkind"
)

// block returns n runes of line-broken filler starting with a heading.
func block(title string, n int) string {
	var b strings.Builder
	b.WriteString("## " + title)
	line := 0
	for utf8.RuneCountInString(b.String()) < n {
		line++
		fmt.Fprintf(&b, "\n- item %d with some descriptive words", line)
	}
	return string([]rune(b.String())[:n])
}

func TestEnforce_EvictsLowestPrioritiesFirst(t *testing.T) {
	const size = 100
	var sections []Section
	for _, s := range []struct {
		name string
		prio int
	}{
		{"header", 100}, {"task", 90}, {"constraints", 80},
		{"failures", 70}, {"strategies", 60}, {"reference", 50},
	} {
		sections = append(sections, Section{Name: s.name, Priority: s.prio, Content: strings.Repeat("x", size)})
	}
	budget := 3*size + 2*len(separator)

	out, err := Enforce(sections, budget)
	if err != nil {
		t.Fatalf("Enforce: %v", err)
	}
	if diff := cmp.Diff([]string{"reference", "strategies", "failures"}, out.Evicted); diff != "" {
		t.Errorf("evicted mismatch (-want +got):\n%s", diff)
	}
	if len(out.Truncated) != 0 {
		t.Errorf("truncated %v; eviction alone should fit", out.Truncated)
	}
	if got := utf8.RuneCountInString(out.Text()); got != budget {
		t.Errorf("len = %d, want exactly %d", got, budget)
	}
}

func TestEnforce_TieEvictsLaterDeclared(t *testing.T) {
	sections := []Section{
		{Name: "header", Priority: 100, Content: "head", Min: 4},
		{Name: "a", Priority: 60, Content: strings.Repeat("a", 50)},
		{Name: "b", Priority: 60, Content: strings.Repeat("b", 50)},
	}
	out, err := Enforce(sections, 60)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"b"}, out.Evicted); diff != "" {
		t.Errorf("evicted mismatch (-want +got):\n%s", diff)
	}
}

func TestEnforce_ProportionalTruncationKeepsMinimums(t *testing.T) {
	header := "# Working Context: p"
	task := block("Current Task", 400)
	sections := []Section{
		{Name: "header", Priority: 100, Content: header, Min: utf8.RuneCountInString(header)},
		{Name: "task", Priority: 90, Content: task, Min: len("## Current Task")},
		{Name: "constraints", Priority: 80, Content: block("Active Constraints", 400)},
	}

	out, err := Enforce(sections, 500)
	if err != nil {
		t.Fatalf("Enforce: %v", err)
	}
	text := out.Text()
	if n := utf8.RuneCountInString(text); n > 500 {
		t.Fatalf("len = %d, exceeds budget 500", n)
	}
	if !strings.HasPrefix(text, header+separator+"## Current Task") {
		t.Errorf("header or task heading lost:\n%s", text)
	}
	if diff := cmp.Diff([]string{"task", "constraints"}, out.Truncated); diff != "" {
		t.Errorf("truncated mismatch (-want +got):\n%s", diff)
	}
	if strings.Count(text, TruncationMarker) != 2 {
		t.Errorf("want a marker per truncated section:\n%s", text)
	}
	for _, s := range out.Sections {
		if strings.Contains(s.Content, TruncationMarker) {
			// Cuts land on a line boundary: the line before the marker is whole.
			lines := strings.Split(s.Content, "\n")
			prev := lines[len(lines)-2]
			if !strings.HasPrefix(prev, "- item") && !strings.HasPrefix(prev, "## ") {
				t.Errorf("%s: cut mid-line, line before marker = %q", s.Name, prev)
			}
		}
	}
}

func TestEnforce_BudgetInvariant(t *testing.T) {
	header := "# Working Context: shop\nProgress: 3/10 complete, 7 remaining, 1 blocked"
	sections := func() []Section {
		return []Section{
			{Name: SectionHeader, Priority: 100, Content: header, Min: utf8.RuneCountInString(header)},
			{Name: SectionTask, Priority: 90, Content: block("Current Task", 700), Min: 30},
			{Name: SectionConstraints, Priority: 80, Content: block("Active Constraints", 900)},
			{Name: SectionFailures, Priority: 70, Content: block("Known Failures", 800)},
			{Name: SectionStrategies, Priority: 60, Content: block("Strategies", 600)},
			{Name: SectionEntities, Priority: 55, Content: block("Known Entities", 300)},
			{Name: SectionReference, Priority: 50, Content: block("Reference", 200)},
		}
	}
	minimum := minimumSize(sections())

	for _, budget := range []int{10, minimum - 1, minimum, minimum + 1, 150, 200, 333, 512, 1000, 1999, 2500, 4000, 10000} {
		t.Run(fmt.Sprint(budget), func(t *testing.T) {
			out, err := Enforce(sections(), budget)
			if budget < minimum {
				if !errors.Is(err, errkind.ErrBudgetInfeasible) {
					t.Fatalf("err = %v, want ErrBudgetInfeasible", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Enforce: %v", err)
			}
			if n := utf8.RuneCountInString(out.Text()); n > budget {
				t.Errorf("len = %d, exceeds budget %d", n, budget)
			}
			if !strings.HasPrefix(out.Text(), header) {
				t.Error("header must never be truncated")
			}
		})
	}
}

func TestEnforce_OrdersByPriority(t *testing.T) {
	sections := []Section{
		{Name: "low", Priority: 50, Content: "L"},
		{Name: "high", Priority: 100, Content: "H"},
		{Name: "mid", Priority: 80, Content: "M"},
		{Name: "empty", Priority: 70},
	}
	out, err := Enforce(sections, 1000)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := out.Text(), "H\n\nM\n\nL"; got != want {
		t.Errorf("Text = %q, want %q", got, want)
	}
}

func TestEnforce_DoesNotMutateInput(t *testing.T) {
	sections := []Section{
		{Name: "header", Priority: 100, Content: "h", Min: 1},
		{Name: "c", Priority: 80, Content: block("C", 300)},
	}
	before := sections[1].Content
	if _, err := Enforce(sections, 100); err != nil {
		t.Fatal(err)
	}
	if sections[1].Content != before {
		t.Error("Enforce modified its input")
	}
}
