// Context Engine: bounded working context for long-running coding agents.
//
// The engine keeps a dependency-ordered task list, an append-only store of
// constraints, failures, strategies and entities, and compiles both into a
// working view that fits a fixed character budget.
//
// Usage:
//
//	context-engine next        # Reconcile and print the next task
//	context-engine compile     # Write .agent/working-context/current.md
//	context-engine serve       # Start the MCP server (stdio transport)
//
// Exit codes: 0 success, 1 other failure, 2 configuration error, 3 budget
// cannot be met, 4 write failure. next exits 10 when all remaining work is
// blocked and 11 when every task is done.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/zeddy89/Context-Engine/internal/config"
	"github.com/zeddy89/Context-Engine/internal/engine"
	"github.com/zeddy89/Context-Engine/internal/errkind"
	ceserver "github.com/zeddy89/Context-Engine/internal/server"
)

// Exit codes reported by next beyond the errkind mapping.
const (
	exitBlocked = 10
	exitDone    = 11
)

// app carries flags and process-wide state through the command tree.
type app struct {
	verbose bool
	root    string

	out    io.Writer
	logger *zap.Logger
	// exitCode overrides the error-derived exit code when non-zero.
	exitCode int
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the CLI and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	a := &app{out: stdout, logger: zap.NewNop()}
	cmd := a.rootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.Execute()
	_ = a.logger.Sync()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return errkind.ExitCode(err)
	}
	return a.exitCode
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "context-engine",
		Short: "Bounded working context for long-running coding agents",
		Long: `context-engine schedules the next task from feature_list.json, reconciles
completions recorded in git history, and compiles a working view of the
task plus recent constraints, failures, strategies and entities that fits
a fixed character budget.`,
		Version:       ceserver.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg := zap.NewProductionConfig()
			if a.verbose {
				cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			logger, err := cfg.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			a.logger = logger
			return nil
		},
	}

	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&a.root, "root", "", "Project root (default: nearest directory with .agent/ or feature_list.json)")

	root.AddCommand(
		a.initCmd(),
		a.nextCmd(),
		a.syncCmd(),
		a.compileCmd(),
		a.snapshotCmd(),
		a.resetCmd(),
		a.rememberCmd(),
		a.recallCmd(),
		a.completeCmd(),
		a.blockCmd(),
		a.unblockCmd(),
		a.reopenCmd(),
		a.statusCmd(),
		a.validateCmd(),
		a.mergeCmd(),
		a.watchCmd(),
		a.serveCmd(),
	)
	return root
}

// projectRoot resolves --root or discovers the root from the working
// directory.
func (a *app) projectRoot() (string, error) {
	if a.root != "" {
		return a.root, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting working directory: %w", err)
	}
	return config.FindProjectRoot(wd)
}

// withEngine opens the engine for the project, runs fn and closes it.
func (a *app) withEngine(fn func(e *engine.Engine) error) error {
	root, err := a.projectRoot()
	if err != nil {
		return err
	}
	e, err := engine.Open(root, engine.WithLogger(a.logger))
	if err != nil {
		return err
	}
	defer func() {
		if err := e.Close(); err != nil {
			a.logger.Warn("closing knowledge store failed", zap.Error(err))
		}
	}()
	return fn(e)
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}
