package compiler

import (
	"math"
	"sort"
	"unicode/utf8"

	"github.com/zeddy89/Context-Engine/internal/errkind"
)

// headroom is the share of the proportional target kept for separators
// and markers.
const headroom = 0.9

// Outcome is the result of Enforce.
type Outcome struct {
	// Sections are the surviving sections in descending priority.
	Sections  []Section
	Evicted   []string
	Truncated []string
}

// Text assembles the surviving sections.
func (o Outcome) Text() string { return assemble(o.Sections) }

// Enforce fits sections into budget runes.
//
//  1. The total is the assembled length, separators included.
//  2. While over budget, the lowest-priority evictable section is dropped
//     (the later-declared one on ties).
//  3. If still over, every section shrinks to floor(size*ratio*0.9) runes
//     where ratio = budget/total, never below its Min.
//  4. If Min floors still leave it over, sections are cut lowest priority
//     first down to their Min.
//
// Sections are returned in descending priority, ties in declaration
// order. A budget below the sum of the non-evictable minimums is an
// ErrBudgetInfeasible error, reported before any work.
func Enforce(sections []Section, budget int) (Outcome, error) {
	if need := minimumSize(sections); need > budget {
		return Outcome{}, errkind.Errorf(errkind.ErrBudgetInfeasible, "compile", nil,
			"budget %d is below the %d characters required by non-evictable sections", budget, need)
	}

	kept := make([]Section, 0, len(sections))
	for _, s := range sections {
		if s.Content != "" {
			kept = append(kept, s)
		}
	}

	var out Outcome
	for totalSize(kept) > budget {
		i := lowestEvictable(kept)
		if i < 0 {
			break
		}
		out.Evicted = append(out.Evicted, kept[i].Name)
		kept = append(kept[:i], kept[i+1:]...)
	}

	truncated := map[string]bool{}
	if total := totalSize(kept); total > budget {
		ratio := float64(budget) / float64(total)
		for i := range kept {
			target := int(math.Floor(float64(kept[i].Size()) * ratio * headroom))
			if cut(&kept[i], target) {
				truncated[kept[i].Name] = true
			}
		}
	}

	if totalSize(kept) > budget {
		for _, i := range recutOrder(kept) {
			over := totalSize(kept) - budget
			if over <= 0 {
				break
			}
			if cut(&kept[i], kept[i].Size()-over) {
				truncated[kept[i].Name] = true
			}
		}
	}

	if total := totalSize(kept); total > budget {
		return Outcome{}, errkind.Errorf(errkind.ErrBudgetInfeasible, "compile", nil,
			"cannot fit %d characters of protected content into budget %d", total, budget)
	}

	sort.SliceStable(kept, func(a, b int) bool { return kept[a].Priority > kept[b].Priority })
	out.Sections = kept
	for _, s := range kept {
		if truncated[s.Name] {
			out.Truncated = append(out.Truncated, s.Name)
		}
	}
	return out, nil
}

// cut truncates s to target runes, respecting its Min. It reports whether
// the content changed.
func cut(s *Section, target int) bool {
	if target < s.Min {
		target = s.Min
	}
	if s.Size() <= target {
		return false
	}
	before := s.Content
	s.Content = Truncate(s.Content, target, s.Min)
	return s.Content != before
}

// minimumSize is the smallest assembled length the non-evictable
// sections can reach.
func minimumSize(ss []Section) int {
	n, count := 0, 0
	for _, s := range ss {
		if s.Evictable() || s.Min <= 0 || s.Content == "" {
			continue
		}
		n += min(s.Min, s.Size())
		count++
	}
	if count > 1 {
		n += (count - 1) * utf8.RuneCountInString(separator)
	}
	return n
}

// lowestEvictable returns the index of the evictable section to drop
// next, or -1. On equal priority the later one goes first.
func lowestEvictable(ss []Section) int {
	best := -1
	for i, s := range ss {
		if !s.Evictable() {
			continue
		}
		if best < 0 || s.Priority <= ss[best].Priority {
			best = i
		}
	}
	return best
}

// recutOrder lists section indexes lowest priority first, later-declared
// first on ties.
func recutOrder(ss []Section) []int {
	idx := make([]int, len(ss))
	for i := range idx {
		idx[i] = len(ss) - 1 - i
	}
	sort.SliceStable(idx, func(a, b int) bool { return ss[idx[a]].Priority < ss[idx[b]].Priority })
	return idx
}
