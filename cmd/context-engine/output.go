package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/zeddy89/Context-Engine/internal/engine"
	"github.com/zeddy89/Context-Engine/internal/knowledge"
	"github.com/zeddy89/Context-Engine/internal/snapshot"
	"github.com/zeddy89/Context-Engine/internal/tasks"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	idStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)
)

// progressBarWidth is the number of cells in the status progress bar.
const progressBarWidth = 30

func progressBar(p tasks.Progress) string {
	filled := 0
	if p.Total > 0 {
		filled = p.Completed * progressBarWidth / p.Total
	}
	return okStyle.Render(strings.Repeat("█", filled)) + dimStyle.Render(strings.Repeat("░", progressBarWidth-filled))
}

func (a *app) printDecision(d tasks.Decision, p tasks.Progress) {
	switch d.Kind {
	case tasks.Ready:
		t := d.Task
		a.printf("%s %s\n", idStyle.Render(t.ID), titleStyle.Render(t.Name))
		a.printf("%s\n", dimStyle.Render(fmt.Sprintf("priority %d | complexity %s", t.Priority, t.Level())))
		if len(t.Dependencies) > 0 {
			a.printf("%s\n", dimStyle.Render("depends on "+strings.Join(t.Dependencies, ", ")))
		}
		if desc := strings.TrimSpace(t.Description); desc != "" {
			a.printf("\n%s\n", desc)
		}
		for _, s := range t.Tests {
			a.printf("  - %s\n", s)
		}
	case tasks.Blocked:
		a.printf("%s\n", warnStyle.Render("All remaining work is blocked"))
		a.printBlocked(d.Blocked)
	case tasks.Done:
		a.printf("%s\n", okStyle.Render("All tasks complete"))
	}
	a.printf("\n%s %d/%d\n", progressBar(p), p.Completed, p.Total)
}

func (a *app) printBlocked(report []tasks.BlockedTask) {
	for _, bt := range report {
		switch {
		case bt.Flagged && bt.Reason != "":
			a.printf("  %s blocked: %s\n", idStyle.Render(bt.ID), bt.Reason)
		case bt.Flagged:
			a.printf("  %s blocked\n", idStyle.Render(bt.ID))
		default:
			a.printf("  %s waits on %s\n", idStyle.Render(bt.ID), strings.Join(bt.Unmet, ", "))
		}
	}
}

func (a *app) printRecord(r knowledge.Record) {
	meta := humanize.Time(r.CreatedAt)
	if r.Task != "" {
		meta += " | " + r.Task
	}
	a.printf("%s %s\n", idStyle.Render(shortID(r.ID)), dimStyle.Render(meta))
	for _, line := range strings.Split(r.Body, "\n") {
		a.printf("  %s\n", line)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func (a *app) printStatus(st *engine.Status) {
	p := st.Progress
	a.printf("%s\n\n", titleStyle.Render(st.Project))
	a.printf("%s %d%%\n", progressBar(p), p.Percent())
	a.printf("%d complete, %d remaining, %d blocked, %d total\n\n", p.Completed, p.Remaining, p.Blocked, p.Total)

	switch {
	case st.ScheduleError != "":
		a.printf("%s %s\n", errStyle.Render("✗"), st.ScheduleError)
	case st.Decision.Kind == tasks.Ready && st.Decision.Task != nil:
		a.printf("next: %s %s\n", idStyle.Render(st.Decision.Task.ID), st.Decision.Task.Name)
	case st.Decision.Kind == tasks.Blocked:
		a.printf("%s\n", warnStyle.Render("all remaining work is blocked"))
		a.printBlocked(st.Decision.Blocked)
	case st.Decision.Kind == tasks.Done:
		a.printf("%s\n", okStyle.Render("all tasks complete"))
	}

	a.printf("\n%s\n", titleStyle.Render("Knowledge"))
	for _, c := range knowledge.Categories() {
		a.printf("  %-12s %s\n", c.Dir(), humanize.Comma(int64(st.Knowledge[c])))
	}

	a.printf("\n%s\n", titleStyle.Render("Snapshots"))
	if len(st.Snapshots) == 0 {
		a.printf("  none\n")
	} else {
		latest := st.Snapshots[0]
		if t, err := time.Parse(snapshot.IDLayout, latest); err == nil {
			latest += " (" + humanize.Time(t) + ")"
		}
		a.printf("  %d stored, latest %s\n", len(st.Snapshots), latest)
	}

	switch {
	case !st.Sync.LogAvailable:
		a.printf("\n%s git history unavailable, task state not reconciled\n", warnStyle.Render("!"))
	case len(st.Sync.Fixed) > 0:
		a.printf("\n%s reconciled from git history: %s\n", okStyle.Render("✓"), strings.Join(st.Sync.Fixed, ", "))
	}
	if st.Sync.Degraded {
		a.printf("%s task list unreadable\n", warnStyle.Render("!"))
	}
}
