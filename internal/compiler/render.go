package compiler

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/zeddy89/Context-Engine/internal/knowledge"
	"github.com/zeddy89/Context-Engine/internal/tasks"
)

// sectionTitles are the headings of the knowledge sections.
var sectionTitles = map[knowledge.Category]string{
	knowledge.Constraint: "Active Constraints",
	knowledge.Failure:    "Known Failures",
	knowledge.Strategy:   "Strategies",
	knowledge.Entity:     "Known Entities",
}

func renderHeader(project string, p tasks.Progress) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Working Context: %s\n", project)
	fmt.Fprintf(&b, "Progress: %d/%d complete, %d remaining, %d blocked", p.Completed, p.Total, p.Remaining, p.Blocked)
	return b.String()
}

// renderTask returns the current-task section and the length of its
// protected prefix (heading plus the first line).
func renderTask(d tasks.Decision) (string, int) {
	var b strings.Builder
	b.WriteString("## Current Task\n")

	switch d.Kind {
	case tasks.Ready:
		t := d.Task
		if t == nil {
			b.WriteString("No task selected.")
			return b.String(), utf8.RuneCountInString(b.String())
		}
		fmt.Fprintf(&b, "ID: %s", t.ID)
		keep := utf8.RuneCountInString(b.String())
		if t.Name != "" {
			fmt.Fprintf(&b, "\nName: %s", t.Name)
		}
		fmt.Fprintf(&b, "\nPriority: %d | Complexity: %s", t.Priority, t.Level())
		if t.Category != "" {
			fmt.Fprintf(&b, " | Category: %s", t.Category)
		}
		if len(t.Dependencies) > 0 {
			fmt.Fprintf(&b, "\nDepends on: %s", strings.Join(t.Dependencies, ", "))
		}
		if t.Description != "" {
			b.WriteString("\n\n")
			b.WriteString(strings.TrimSpace(t.Description))
		}
		if len(t.Tests) > 0 {
			b.WriteString("\n\nTests:")
			for _, tc := range t.Tests {
				fmt.Fprintf(&b, "\n- %s", tc)
			}
		}
		return b.String(), keep

	case tasks.Blocked:
		b.WriteString("No eligible task: all remaining work is blocked.")
		keep := utf8.RuneCountInString(b.String())
		for _, bt := range d.Blocked {
			fmt.Fprintf(&b, "\n- %s", bt.ID)
			if bt.Flagged {
				b.WriteString(" (blocked")
				if bt.Reason != "" {
					fmt.Fprintf(&b, ": %s", bt.Reason)
				}
				b.WriteString(")")
			}
			if len(bt.Unmet) > 0 {
				fmt.Fprintf(&b, " waits on %s", strings.Join(bt.Unmet, ", "))
			}
		}
		return b.String(), keep

	default:
		b.WriteString("All tasks complete.")
		return b.String(), utf8.RuneCountInString(b.String())
	}
}

// renderRecords renders one knowledge category as a bulleted list, newest
// first. Each body is capped at recordCap runes.
func renderRecords(c knowledge.Category, recs []knowledge.Record, recordCap int) string {
	if len(recs) == 0 {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "## %s", sectionTitles[c])
	for _, r := range recs {
		body := strings.TrimSpace(r.Body)
		if recordCap > 0 {
			body = Truncate(body, recordCap, 0)
		}
		b.WriteString("\n- ")
		if r.Task != "" {
			fmt.Fprintf(&b, "[%s] ", r.Task)
		}
		b.WriteString(strings.ReplaceAll(body, "\n", "\n  "))
	}
	return b.String()
}

func renderReference(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	return "## Reference\n" + text
}

// capSection applies the per-section cap, keeping the heading line.
func capSection(content string, sectionCap int) string {
	if sectionCap <= 0 {
		return content
	}
	heading := content
	if i := strings.IndexByte(content, '\n'); i >= 0 {
		heading = content[:i]
	}
	return Truncate(content, sectionCap, utf8.RuneCountInString(heading))
}
