// Package config loads the context engine configuration.
//
// Configuration lives in .agent/config.yaml under the project root. Every
// field has a default, so a missing file is not an error; values present
// in the file override defaults and a small set of environment variables
// override both.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zeddy89/Context-Engine/internal/fileutil"
)

const (
	// AgentDir is the per-project directory holding engine state.
	AgentDir = ".agent"
	// ConfigFile is the config filename inside AgentDir.
	ConfigFile = "config.yaml"
	// DefaultTaskFile is the task list filename at the project root.
	DefaultTaskFile = "feature_list.json"

	BackendFiles  = "files"
	BackendSQLite = "sqlite"

	// EnvBudget overrides Config.Budget.
	EnvBudget = "CONTEXT_ENGINE_BUDGET"
	// EnvBackend overrides Config.Knowledge.Backend.
	EnvBackend = "CONTEXT_ENGINE_BACKEND"
)

// Config holds every tunable of the engine.
type Config struct {
	Project    string          `yaml:"project"`
	TaskFile   string          `yaml:"task_file"`
	Budget     int             `yaml:"budget_chars"`
	Retrieval  Retrieval       `yaml:"retrieval"`
	Caps       Caps            `yaml:"caps"`
	Priorities Priorities      `yaml:"priorities"`
	Snapshot   SnapshotConfig  `yaml:"snapshot"`
	Knowledge  KnowledgeConfig `yaml:"knowledge"`
	Git        GitConfig       `yaml:"git"`
}

// Retrieval is the number of most recent records pulled per category.
type Retrieval struct {
	Constraints int `yaml:"constraints"`
	Failures    int `yaml:"failures"`
	Strategies  int `yaml:"strategies"`
	Entities    int `yaml:"entities"`
}

// Caps bound records and sections before global budget enforcement.
type Caps struct {
	RecordChars  int `yaml:"record_chars"`
	SectionChars int `yaml:"section_chars"`
}

// Priorities of the compiled sections. Higher survives longer; sections
// below 80 may be evicted entirely.
type Priorities struct {
	Header      int `yaml:"header"`
	Task        int `yaml:"task"`
	Constraints int `yaml:"constraints"`
	Failures    int `yaml:"failures"`
	Strategies  int `yaml:"strategies"`
	Entities    int `yaml:"entities"`
	Reference   int `yaml:"reference"`
}

// SnapshotConfig controls continuity snapshots.
type SnapshotConfig struct {
	MaxChars int `yaml:"max_chars"`
	Retain   int `yaml:"retain"`
}

// KnowledgeConfig selects the knowledge store backend.
type KnowledgeConfig struct {
	Backend string `yaml:"backend"`
}

// GitConfig controls the completion-event query against commit history.
type GitConfig struct {
	CompletionPattern string        `yaml:"completion_pattern"`
	Timeout           time.Duration `yaml:"timeout"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		TaskFile: DefaultTaskFile,
		Budget:   12000,
		Retrieval: Retrieval{
			Constraints: 5,
			Failures:    3,
			Strategies:  3,
			Entities:    5,
		},
		Caps: Caps{
			RecordChars:  600,
			SectionChars: 2400,
		},
		Priorities: Priorities{
			Header:      100,
			Task:        90,
			Constraints: 80,
			Failures:    70,
			Strategies:  60,
			Entities:    55,
			Reference:   50,
		},
		Snapshot: SnapshotConfig{
			MaxChars: 50000,
			Retain:   10,
		},
		Knowledge: KnowledgeConfig{Backend: BackendFiles},
		Git: GitConfig{
			CompletionPattern: "session: completed",
			Timeout:           10 * time.Second,
		},
	}
}

// Load reads the configuration for projectRoot. A missing config file
// yields Default() with environment overrides applied.
func Load(projectRoot string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(Path(projectRoot))
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing %s: %w", Path(projectRoot), err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return Config{}, fmt.Errorf("reading %s: %w", Path(projectRoot), err)
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if cfg.Project == "" {
		cfg.Project = filepath.Base(projectRoot)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvBudget); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s=%q: %w", EnvBudget, v, err)
		}
		c.Budget = n
	}
	if v := os.Getenv(EnvBackend); v != "" {
		c.Knowledge.Backend = v
	}
	return nil
}

// Validate rejects values the engine cannot run with.
func (c Config) Validate() error {
	if c.Budget <= 0 {
		return fmt.Errorf("budget_chars must be > 0, got %d", c.Budget)
	}
	if c.TaskFile == "" {
		return errors.New("task_file must not be empty")
	}
	switch c.Knowledge.Backend {
	case BackendFiles, BackendSQLite:
	default:
		return fmt.Errorf("invalid knowledge backend %q: must be one of: %s, %s",
			c.Knowledge.Backend, BackendFiles, BackendSQLite)
	}
	if c.Priorities.Header < 80 || c.Priorities.Task < 80 {
		return fmt.Errorf("header and task priorities must be >= 80 (got %d, %d)",
			c.Priorities.Header, c.Priorities.Task)
	}
	if c.Snapshot.Retain < 1 {
		return fmt.Errorf("snapshot.retain must be >= 1, got %d", c.Snapshot.Retain)
	}
	if c.Snapshot.MaxChars < 1 {
		return fmt.Errorf("snapshot.max_chars must be >= 1, got %d", c.Snapshot.MaxChars)
	}
	for name, n := range map[string]int{
		"retrieval.constraints": c.Retrieval.Constraints,
		"retrieval.failures":    c.Retrieval.Failures,
		"retrieval.strategies":  c.Retrieval.Strategies,
		"retrieval.entities":    c.Retrieval.Entities,
	} {
		if n < 0 {
			return fmt.Errorf("%s must be >= 0, got %d", name, n)
		}
	}
	return nil
}

// Save writes cfg to the project's config file.
func Save(projectRoot string, cfg Config) error {
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return fileutil.WriteAtomic(Path(projectRoot), data)
}
