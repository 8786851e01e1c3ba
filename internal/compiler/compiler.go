// Package compiler assembles the bounded working view.
//
// A compilation pulls the most recent records of each knowledge category,
// renders them with the current task into labeled sections, and fits the
// result into a character budget by evicting whole low-priority sections
// first and truncating proportionally second. The output is a pure
// function of the store contents, the scheduling decision and the budget:
// nothing time-dependent or random is written into the text.
package compiler

import (
	"context"
	"encoding/hex"
	"errors"
	"unicode/utf8"

	"github.com/zeebo/blake3"
	"go.uber.org/zap"

	"github.com/zeddy89/Context-Engine/internal/config"
	"github.com/zeddy89/Context-Engine/internal/errkind"
	"github.com/zeddy89/Context-Engine/internal/knowledge"
	"github.com/zeddy89/Context-Engine/internal/tasks"
)

// Input is everything a compilation depends on besides the knowledge store.
type Input struct {
	Project   string
	Decision  tasks.Decision
	Progress  tasks.Progress
	Reference string
	// Budget overrides the configured budget when positive.
	Budget int
}

// Result is the compiled view plus out-of-band metadata.
type Result struct {
	Text            string   `json:"text"`
	Chars           int      `json:"chars"`
	Budget          int      `json:"budget"`
	EstimatedTokens int      `json:"estimated_tokens"`
	Digest          string   `json:"digest"`
	Evicted         []string `json:"evicted,omitempty"`
	Truncated       []string `json:"truncated,omitempty"`
	// Degraded lists categories whose records could not be read.
	Degraded []string `json:"degraded,omitempty"`
}

// Compiler builds working views from a knowledge store.
type Compiler struct {
	store knowledge.Reader
	cfg   config.Config
	log   *zap.Logger
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithLogger sets the logger used for degraded reads.
func WithLogger(l *zap.Logger) Option {
	return func(c *Compiler) {
		if l != nil {
			c.log = l
		}
	}
}

// New creates a Compiler reading from store with the tunables in cfg.
func New(store knowledge.Reader, cfg config.Config, opts ...Option) *Compiler {
	c := &Compiler{store: store, cfg: cfg, log: zap.NewNop()}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Compile renders and budgets the working view.
func (c *Compiler) Compile(ctx context.Context, in Input) (*Result, error) {
	budget := c.cfg.Budget
	if in.Budget > 0 {
		budget = in.Budget
	}

	sections, degraded := c.Sections(ctx, in)
	out, err := Enforce(sections, budget)
	if err != nil {
		return nil, err
	}

	text := out.Text()
	sum := blake3.Sum256([]byte(text))
	chars := utf8.RuneCountInString(text)
	return &Result{
		Text:            text,
		Chars:           chars,
		Budget:          budget,
		EstimatedTokens: EstimateTokens(chars),
		Digest:          hex.EncodeToString(sum[:]),
		Evicted:         out.Evicted,
		Truncated:       out.Truncated,
		Degraded:        degraded,
	}, nil
}

// Sections renders every section before budget enforcement, in
// declaration order. Categories whose store read failed are rendered as
// empty and returned in degraded.
func (c *Compiler) Sections(ctx context.Context, in Input) (sections []Section, degraded []string) {
	p := c.cfg.Priorities

	header := renderHeader(in.Project, in.Progress)
	sections = append(sections, Section{
		Name:     SectionHeader,
		Priority: p.Header,
		Content:  header,
		Min:      utf8.RuneCountInString(header),
	})

	task, keep := renderTask(in.Decision)
	sections = append(sections, Section{Name: SectionTask, Priority: p.Task, Content: task, Min: keep})

	cats := []struct {
		cat  knowledge.Category
		name string
		prio int
		n    int
	}{
		{knowledge.Constraint, SectionConstraints, p.Constraints, c.cfg.Retrieval.Constraints},
		{knowledge.Failure, SectionFailures, p.Failures, c.cfg.Retrieval.Failures},
		{knowledge.Strategy, SectionStrategies, p.Strategies, c.cfg.Retrieval.Strategies},
		{knowledge.Entity, SectionEntities, p.Entities, c.cfg.Retrieval.Entities},
	}
	for _, k := range cats {
		recs, err := c.store.Recent(ctx, k.cat, k.n)
		if err != nil {
			c.log.Warn("knowledge category unavailable, treating as empty",
				zap.String("category", string(k.cat)), zap.Error(err))
			degraded = append(degraded, string(k.cat))
			recs = nil
		}
		content := capSection(renderRecords(k.cat, recs, c.cfg.Caps.RecordChars), c.cfg.Caps.SectionChars)
		sections = append(sections, Section{Name: k.name, Priority: k.prio, Content: content})
	}

	ref := capSection(renderReference(in.Reference), c.cfg.Caps.SectionChars)
	sections = append(sections, Section{Name: SectionReference, Priority: p.Reference, Content: ref})
	return sections, degraded
}

// IsInfeasible reports whether err is a budget that cannot be met.
func IsInfeasible(err error) bool {
	return errors.Is(err, errkind.ErrBudgetInfeasible)
}
