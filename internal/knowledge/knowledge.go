// Package knowledge implements the categorized, append-only knowledge store.
//
// Records are never updated or merged: the store only appends new records
// and reads the most recent ones back. Two backends share the Store
// interface: FileStore keeps one markdown file per record under a
// directory per category, SQLiteStore keeps them in a single database.
package knowledge

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Category is one knowledge bucket.
type Category string

const (
	Constraint Category = "constraint"
	Failure    Category = "failure"
	Strategy   Category = "strategy"
	Entity     Category = "entity"
)

// Categories lists every category in rendering order.
func Categories() []Category {
	return []Category{Constraint, Failure, Strategy, Entity}
}

// dirNames maps a category to its directory under .agent/memory.
var dirNames = map[Category]string{
	Constraint: "constraints",
	Failure:    "failures",
	Strategy:   "strategies",
	Entity:     "entities",
}

// Dir returns the directory name of the category.
func (c Category) Dir() string { return dirNames[c] }

// ParseCategory accepts singular or plural spellings ("failure", "failures").
func ParseCategory(s string) (Category, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	for c, dir := range dirNames {
		if v == string(c) || v == dir {
			return c, nil
		}
	}
	return "", fmt.Errorf("invalid category %q: must be one of: constraint, failure, strategy, entity", s)
}

// Record is one immutable knowledge entry.
type Record struct {
	ID        string    `json:"id"`
	Category  Category  `json:"category"`
	CreatedAt time.Time `json:"created_at"`
	Body      string    `json:"body"`
	Task      string    `json:"task,omitempty"`
}

// NewRecord is the input to Append.
type NewRecord struct {
	Category Category
	Body     string
	Task     string
}

// Reader is the read side used by the context compiler.
type Reader interface {
	Recent(ctx context.Context, c Category, n int) ([]Record, error)
}

// Store is an append-only knowledge store.
type Store interface {
	Reader
	Append(ctx context.Context, rec NewRecord) (Record, error)
	Count(ctx context.Context, c Category) (int, error)
	Close() error
}

// timeNow is a package-level variable for testability.
var timeNow = time.Now

// sortNewestFirst orders records by creation time descending, breaking
// ties by ID descending so the order is total.
func sortNewestFirst(recs []Record) {
	sort.SliceStable(recs, func(i, j int) bool {
		if !recs[i].CreatedAt.Equal(recs[j].CreatedAt) {
			return recs[i].CreatedAt.After(recs[j].CreatedAt)
		}
		return recs[i].ID > recs[j].ID
	})
}

func validateNew(rec NewRecord) (NewRecord, error) {
	if _, ok := dirNames[rec.Category]; !ok {
		return rec, fmt.Errorf("invalid category %q", rec.Category)
	}
	rec.Body = strings.TrimSpace(rec.Body)
	if rec.Body == "" {
		return rec, fmt.Errorf("record body must not be empty")
	}
	rec.Task = strings.TrimSpace(rec.Task)
	return rec, nil
}

// timestampLayout is fixed-width so names and columns sort lexicographically.
const timestampLayout = "20060102T150405.000000000Z"
