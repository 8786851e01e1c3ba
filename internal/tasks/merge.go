package tasks

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tidwall/jsonc"
)

// Merge appends the tasks of other whose ids are not already present in
// l, preserving other's order. It returns the ids added and the ids
// skipped as duplicates.
func (l *List) Merge(other *List) (added, skipped []string) {
	seen := make(map[string]bool, len(l.Features))
	for _, t := range l.Features {
		seen[t.ID] = true
	}
	for _, t := range other.Features {
		if t.ID == "" || seen[t.ID] {
			skipped = append(skipped, t.ID)
			continue
		}
		seen[t.ID] = true
		l.Features = append(l.Features, t.Clone())
		added = append(added, t.ID)
	}
	return added, skipped
}

// ReadList parses a standalone task file such as a QA fix-features file.
// Unlike FileStore.Load a missing or malformed file is an error.
func ReadList(path string) (*List, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var l List
	if err := json.Unmarshal(jsonc.ToJSON(data), &l); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &l, nil
}
