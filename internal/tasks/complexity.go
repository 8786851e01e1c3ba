package tasks

import "strings"

// Complexity levels returned by Task.Level.
const (
	ComplexityHigh   = "high"
	ComplexityMedium = "medium"
	ComplexityLow    = "low"
)

var (
	highSignals = []string{
		"security", "crypto", "encrypt", "auth", "credential", "password",
		"ssh", "certificate", "token", "session", "permission", "rbac",
		"injection", "sanitize", "validate", "vulnerability",
	}
	mediumSignals = []string{
		"api", "endpoint", "database", "repository", "migration", "schema",
		"patch", "system", "service", "handler", "execute", "command",
	}
	lowSignals = []string{"refactor", "rename", "cleanup", "format", "typo", "comment", "docs"}
)

// Level estimates how much care a task needs. An explicit "complexity"
// field wins; otherwise a keyword score over name, description and
// category decides: 3 or more is high, 0 or less is low.
func (t Task) Level() string {
	switch c := strings.ToLower(strings.TrimSpace(t.Complexity)); c {
	case ComplexityHigh, ComplexityMedium, ComplexityLow:
		return c
	}

	name := strings.ToLower(t.Name)
	desc := strings.ToLower(t.Description)
	cat := strings.ToLower(t.Category)

	score := 0
	if containsAny(highSignals, desc, cat, name) {
		score += 2
	}
	if len(t.Dependencies) > 3 {
		score++
	}
	if len(t.Tests) > 5 {
		score++
	}
	if containsAny(mediumSignals, desc, cat) {
		score++
	}
	if containsAny(lowSignals, desc, cat, name) {
		score -= 2
	}
	if strings.Contains(name, "simple") || strings.Contains(name, "minor") {
		score--
	}
	if len(t.Description) < 40 {
		score--
	}

	switch {
	case score >= 3:
		return ComplexityHigh
	case score <= 0:
		return ComplexityLow
	}
	return ComplexityMedium
}

func containsAny(keywords []string, fields ...string) bool {
	for _, k := range keywords {
		for _, f := range fields {
			if strings.Contains(f, k) {
				return true
			}
		}
	}
	return false
}
