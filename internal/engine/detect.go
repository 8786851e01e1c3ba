package engine

import (
	"os"
	"path/filepath"
)

// testCommands maps a marker file to the project's test command, in
// detection order.
var testCommands = []struct {
	marker  string
	command string
}{
	{"Cargo.toml", "cargo test"},
	{"package.json", "npm test"},
	{"go.mod", "go test ./..."},
	{"requirements.txt", "pytest"},
	{"pyproject.toml", "pytest"},
	{"Makefile", "make test"},
}

// DetectTestCommand guesses the test command from marker files in root.
// It returns "" when nothing matches.
func DetectTestCommand(root string) string {
	for _, tc := range testCommands {
		if _, err := os.Stat(filepath.Join(root, tc.marker)); err == nil {
			return tc.command
		}
	}
	return ""
}
