package compiler

import (
	"strings"
	"unicode/utf8"
)

// Section names.
const (
	SectionHeader      = "header"
	SectionTask        = "task"
	SectionConstraints = "constraints"
	SectionFailures    = "failures"
	SectionStrategies  = "strategies"
	SectionEntities    = "entities"
	SectionReference   = "reference"
)

// EvictThreshold is the priority below which a whole section may be
// dropped to meet the budget.
const EvictThreshold = 80

// separator joins assembled sections.
const separator = "\n\n"

// Section is one labeled block of the working view. Sizes are counted in
// runes.
type Section struct {
	Name     string
	Priority int
	Content  string
	// Min is the number of leading runes truncation never removes.
	Min int
}

// Size returns the content length in runes.
func (s Section) Size() int { return utf8.RuneCountInString(s.Content) }

// Evictable reports whether the section may be dropped entirely.
func (s Section) Evictable() bool { return s.Priority < EvictThreshold }

// assemble joins non-empty sections with a blank line, in slice order.
func assemble(ss []Section) string {
	parts := make([]string, 0, len(ss))
	for _, s := range ss {
		if s.Content != "" {
			parts = append(parts, s.Content)
		}
	}
	return strings.Join(parts, separator)
}

// totalSize is the rune length of the assembled text, separators included.
func totalSize(ss []Section) int {
	n, count := 0, 0
	for _, s := range ss {
		if s.Content == "" {
			continue
		}
		n += s.Size()
		count++
	}
	if count > 1 {
		n += (count - 1) * utf8.RuneCountInString(separator)
	}
	return n
}
