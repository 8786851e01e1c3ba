package knowledge

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const frontMatterDelimiter = "---"

type frontMatter struct {
	ID        string    `yaml:"id"`
	Category  Category  `yaml:"category"`
	CreatedAt time.Time `yaml:"created_at"`
	Task      string    `yaml:"task,omitempty"`
}

// parseRecord decodes a record file. Files without front matter are
// accepted as plain bodies; ok reports whether front matter was present.
func parseRecord(raw []byte) (fm frontMatter, body string, ok bool, err error) {
	s := strings.ReplaceAll(string(raw), "\r\n", "\n")
	if !strings.HasPrefix(s, frontMatterDelimiter+"\n") {
		return frontMatter{}, strings.TrimSpace(s), false, nil
	}
	rest := s[len(frontMatterDelimiter):]
	idx := strings.Index(rest, "\n"+frontMatterDelimiter)
	if idx == -1 {
		return frontMatter{}, "", false, fmt.Errorf("unclosed front-matter block")
	}
	if err := yaml.Unmarshal([]byte(rest[:idx]), &fm); err != nil {
		return frontMatter{}, "", false, fmt.Errorf("front-matter parse error: %w", err)
	}
	body = rest[idx+len("\n"+frontMatterDelimiter):]
	return fm, strings.TrimSpace(body), true, nil
}

// serializeRecord renders a record to its on-disk form.
func serializeRecord(r Record) ([]byte, error) {
	fm := frontMatter{ID: r.ID, Category: r.Category, CreatedAt: r.CreatedAt.UTC(), Task: r.Task}
	yamlBytes, err := yaml.Marshal(&fm)
	if err != nil {
		return nil, fmt.Errorf("serializing record: %w", err)
	}
	var sb strings.Builder
	sb.WriteString(frontMatterDelimiter + "\n")
	sb.Write(yamlBytes)
	sb.WriteString(frontMatterDelimiter + "\n\n")
	sb.WriteString(r.Body)
	sb.WriteString("\n")
	return []byte(sb.String()), nil
}
