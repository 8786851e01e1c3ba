package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// AgentPath returns <root>/.agent.
func AgentPath(projectRoot string) string {
	return filepath.Join(projectRoot, AgentDir)
}

// Path returns the config file path for projectRoot.
func Path(projectRoot string) string {
	return filepath.Join(AgentPath(projectRoot), ConfigFile)
}

// MemoryPath returns the directory holding one subdirectory per knowledge category.
func MemoryPath(projectRoot string) string {
	return filepath.Join(AgentPath(projectRoot), "memory")
}

// DatabasePath returns the sqlite knowledge database path.
func DatabasePath(projectRoot string) string {
	return filepath.Join(AgentPath(projectRoot), "memory.db")
}

// WorkingContextPath returns the cached last compiled view.
func WorkingContextPath(projectRoot string) string {
	return filepath.Join(AgentPath(projectRoot), "working-context", "current.md")
}

// SnapshotsPath returns the snapshot directory.
func SnapshotsPath(projectRoot string) string {
	return filepath.Join(AgentPath(projectRoot), "snapshots")
}

// ReferencePath returns the optional hand-written reference section source.
func ReferencePath(projectRoot string) string {
	return filepath.Join(AgentPath(projectRoot), "reference.md")
}

// TaskFilePath resolves the task list file for cfg.
func (c Config) TaskFilePath(projectRoot string) string {
	if filepath.IsAbs(c.TaskFile) {
		return c.TaskFile
	}
	return filepath.Join(projectRoot, c.TaskFile)
}

// FindProjectRoot walks up from start looking for a .agent/ directory or a
// task list file. If none is found, start is returned; the caller decides
// what to do.
func FindProjectRoot(start string) (string, error) {
	if start == "" {
		dir, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getting working directory: %w", err)
		}
		start = dir
	}

	current := start
	for {
		if info, err := os.Stat(AgentPath(current)); err == nil && info.IsDir() {
			return current, nil
		}
		if _, err := os.Stat(filepath.Join(current, DefaultTaskFile)); err == nil {
			return current, nil
		}

		parent := filepath.Dir(current)
		if parent == current {
			return start, nil
		}
		current = parent
	}
}
