// Package gitlog reads task completion events from the commit history.
//
// A completion is recorded by committing with a message containing the
// completion pattern followed by a task id, e.g.
// "session: completed F12". The history is queried once per call with a
// single git log invocation.
package gitlog

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/zeddy89/Context-Engine/internal/errkind"
	"github.com/zeddy89/Context-Engine/internal/tasks"
)

const (
	fieldSep  = "\x1f"
	recordSep = "\x1e"
)

// DefaultPattern is the message prefix that marks a task as completed.
const DefaultPattern = "session: completed"

// Runner executes git with args in dir and returns stdout.
type Runner func(ctx context.Context, dir string, args ...string) (string, error)

// Log implements tasks.EventLog over a git working tree.
type Log struct {
	dir     string
	pattern string
	timeout time.Duration
	run     Runner
	idRE    *regexp.Regexp
}

// Option configures a Log.
type Option func(*Log)

// WithPattern overrides DefaultPattern.
func WithPattern(p string) Option {
	return func(l *Log) {
		if strings.TrimSpace(p) != "" {
			l.pattern = strings.TrimSpace(p)
		}
	}
}

// WithTimeout bounds the git invocation. Zero means no extra bound.
func WithTimeout(d time.Duration) Option {
	return func(l *Log) { l.timeout = d }
}

// WithRunner replaces the git executor; used in tests.
func WithRunner(r Runner) Option {
	return func(l *Log) { l.run = r }
}

// New returns a Log reading the repository at dir.
func New(dir string, opts ...Option) *Log {
	l := &Log{dir: dir, pattern: DefaultPattern, run: runGit}
	for _, o := range opts {
		o(l)
	}
	// The id is the whole token after the pattern, so "F1" never matches
	// a commit for "F10". parse rejects matches cut short by a character
	// outside the id alphabet.
	l.idRE = regexp.MustCompile(regexp.QuoteMeta(l.pattern) + `[ \t]+(` + tasks.IDPattern + `)`)
	return l
}

var _ tasks.EventLog = (*Log)(nil)

// Events lists every completion event in the history, oldest commit last
// as git reports them. Any failure (git missing, not a repository,
// timeout) is an ErrExternalLogUnavailable error.
func (l *Log) Events(ctx context.Context) ([]tasks.CompletionEvent, error) {
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	out, err := l.run(ctx, l.dir,
		"log",
		"--fixed-strings",
		"--grep="+l.pattern,
		"--format=%H"+"%x1f"+"%cI"+"%x1f"+"%B"+"%x1e",
	)
	if err != nil {
		return nil, errkind.New(errkind.ErrExternalLogUnavailable, "read git log", err)
	}
	events, err := l.parse(out)
	if err != nil {
		return nil, errkind.New(errkind.ErrExternalLogUnavailable, "read git log", err)
	}
	return events, nil
}

func (l *Log) parse(out string) ([]tasks.CompletionEvent, error) {
	var events []tasks.CompletionEvent
	for _, rec := range strings.Split(out, recordSep) {
		rec = strings.TrimLeft(rec, "\n")
		if strings.TrimSpace(rec) == "" {
			continue
		}
		parts := strings.SplitN(rec, fieldSep, 3)
		if len(parts) != 3 {
			return nil, fmt.Errorf("unexpected git log record %q", truncate(rec, 80))
		}
		at, err := time.Parse(time.RFC3339, strings.TrimSpace(parts[1]))
		if err != nil {
			return nil, fmt.Errorf("commit %s: bad date: %w", parts[0], err)
		}
		body := parts[2]
		for _, m := range l.idRE.FindAllStringSubmatchIndex(body, -1) {
			if !endsID(body, m[3]) {
				continue
			}
			events = append(events, tasks.CompletionEvent{
				TaskID:     body[m[2]:m[3]],
				ObservedAt: at.UTC(),
				Ref:        parts[0],
			})
		}
	}
	return events, nil
}

// endsID reports whether the id match ending at i is a whole token:
// followed by the end of the message, whitespace or sentence punctuation.
func endsID(s string, i int) bool {
	if i >= len(s) {
		return true
	}
	return strings.IndexByte(" \t\r\n.,;:!?)]\"'", s[i]) >= 0
}

func runGit(ctx context.Context, dir string, args ...string) (string, error) {
	fullArgs := append([]string{"-C", dir}, args...)
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "git", fullArgs...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("git %s in %s: %w (stderr: %s)",
			args[0], dir, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
