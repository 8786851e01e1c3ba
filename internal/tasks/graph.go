package tasks

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/zeddy89/Context-Engine/internal/errkind"
)

// IDPattern is the task id alphabet: ASCII letters, digits, '_', '.' and
// '-', starting and ending with a letter or digit. Completion commits can
// only name ids in this alphabet.
const IDPattern = `[A-Za-z0-9](?:[A-Za-z0-9_.-]*[A-Za-z0-9])?`

var idRE = regexp.MustCompile(`^` + IDPattern + `$`)

// Validate checks the structural invariants of the task list: every id is
// non-empty, unique and within IDPattern, no task depends on itself or on an unknown id, and
// the dependency relation is acyclic. Violations are ErrConfiguration
// errors carrying the offending ids.
func Validate(l *List) error {
	seen := make(map[string]bool, len(l.Features))
	var empty, malformed, dups []string
	for i, t := range l.Features {
		id := strings.TrimSpace(t.ID)
		if id == "" {
			empty = append(empty, fmt.Sprintf("#%d", i))
			continue
		}
		if !idRE.MatchString(t.ID) {
			malformed = append(malformed, t.ID)
		}
		if seen[id] {
			dups = append(dups, id)
		}
		seen[id] = true
	}
	if len(empty) > 0 {
		return errkind.Errorf(errkind.ErrConfiguration, "validate tasks", empty, "tasks without an id")
	}
	if len(malformed) > 0 {
		return errkind.Errorf(errkind.ErrConfiguration, "validate tasks", malformed,
			"task ids must use letters, digits, '_', '.' and '-' and start and end with a letter or digit")
	}
	if len(dups) > 0 {
		return errkind.Errorf(errkind.ErrConfiguration, "validate tasks", dups, "duplicate task ids")
	}

	var self, unknown []string
	for _, t := range l.Features {
		for _, d := range t.Dependencies {
			switch {
			case d == t.ID:
				self = append(self, t.ID)
			case !seen[d]:
				unknown = append(unknown, t.ID+"->"+d)
			}
		}
	}
	if len(self) > 0 {
		return errkind.Errorf(errkind.ErrConfiguration, "validate tasks", self, "tasks depend on themselves")
	}
	if len(unknown) > 0 {
		return errkind.Errorf(errkind.ErrConfiguration, "validate tasks", unknown, "dependencies on unknown tasks")
	}

	if order := topoOrder(l.Features); len(order) < len(l.Features) {
		return errkind.Errorf(errkind.ErrConfiguration, "validate tasks", cyclicIDs(l.Features, nil), "dependency cycle")
	}
	return nil
}

// topoOrder returns a topological order of task ids using Kahn's algorithm.
// Tasks on or behind a cycle are missing from the result. Dependencies on
// unknown ids are ignored.
func topoOrder(ts []Task) []string {
	index := make(map[string]int, len(ts))
	for i, t := range ts {
		index[t.ID] = i
	}
	indeg := make([]int, len(ts))
	dependents := make([][]int, len(ts))
	for i, t := range ts {
		for _, d := range t.Dependencies {
			j, ok := index[d]
			if !ok {
				continue
			}
			indeg[i]++
			dependents[j] = append(dependents[j], i)
		}
	}

	// Declaration order keeps the result deterministic.
	var ready []int
	for i := range ts {
		if indeg[i] == 0 {
			ready = append(ready, i)
		}
	}
	out := make([]string, 0, len(ts))
	for len(ready) > 0 {
		n := ready[0]
		ready = ready[1:]
		out = append(out, ts[n].ID)
		for _, m := range dependents[n] {
			indeg[m]--
			if indeg[m] == 0 {
				ready = append(ready, m)
			}
		}
	}
	return out
}

// cyclicIDs returns, in declaration order, the ids whose transitive
// dependency closure contains themselves. When skip is non-nil, edges to
// ids in skip (completed tasks) are not followed.
func cyclicIDs(ts []Task, skip map[string]bool) []string {
	deps := make(map[string][]string, len(ts))
	for _, t := range ts {
		for _, d := range t.Dependencies {
			if skip[d] {
				continue
			}
			deps[t.ID] = append(deps[t.ID], d)
		}
	}

	var out []string
	for _, t := range ts {
		if skip[t.ID] {
			continue
		}
		if reaches(deps, t.ID, t.ID) {
			out = append(out, t.ID)
		}
	}
	return out
}

// reaches reports whether target is reachable from start's dependencies.
func reaches(deps map[string][]string, start, target string) bool {
	visited := map[string]bool{}
	stack := append([]string(nil), deps[start]...)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n == target {
			return true
		}
		if visited[n] {
			continue
		}
		visited[n] = true
		stack = append(stack, deps[n]...)
	}
	return false
}
