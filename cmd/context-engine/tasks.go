package main

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zeddy89/Context-Engine/internal/engine"
	"github.com/zeddy89/Context-Engine/internal/tasks"
)

func (a *app) nextCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "next",
		Short: "Reconcile with git history and print the next task",
		Long: `Reconciles the task list with completion commits, then prints the next
eligible task. Exits 10 when all remaining work is blocked and 11 when
every task is done.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withEngine(func(e *engine.Engine) error {
				d, p, err := e.Next(cmd.Context())
				if err != nil {
					return err
				}
				switch d.Kind {
				case tasks.Blocked:
					a.exitCode = exitBlocked
				case tasks.Done:
					a.exitCode = exitDone
				}
				if asJSON {
					return a.writeJSON(struct {
						tasks.Decision
						Progress tasks.Progress `json:"progress"`
					}{d, p})
				}
				a.printDecision(d, p)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the decision as JSON")
	return cmd
}

func (a *app) syncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Mark tasks complete from completion commits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withEngine(func(e *engine.Engine) error {
				_, res, err := e.Sync(cmd.Context())
				if err != nil {
					return err
				}
				switch {
				case !res.LogAvailable:
					a.printf("%s git history unavailable, nothing reconciled\n", warnStyle.Render("!"))
				case len(res.Fixed) == 0:
					a.printf("%s task list matches git history\n", okStyle.Render("✓"))
				default:
					for _, id := range res.Fixed {
						a.printf("%s %s found in git history\n", okStyle.Render("✓"), id)
					}
					if !res.Saved {
						a.printf("%s task list unreadable, changes not saved\n", warnStyle.Render("!"))
					}
				}
				return nil
			})
		},
	}
}

// stateCmd builds the single-task state transition commands.
func (a *app) stateCmd(use, short, done string, fn func(e *engine.Engine, id string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <task-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withEngine(func(e *engine.Engine) error {
				if err := fn(e, args[0]); err != nil {
					return err
				}
				a.printf("%s %s %s\n", okStyle.Render("✓"), args[0], done)
				return nil
			})
		},
	}
}

func (a *app) completeCmd() *cobra.Command {
	return a.stateCmd("complete", "Mark a task as passing", "marked complete",
		func(e *engine.Engine, id string) error { return e.Complete(id) })
}

func (a *app) unblockCmd() *cobra.Command {
	return a.stateCmd("unblock", "Clear a task's blocked flag", "unblocked",
		func(e *engine.Engine, id string) error { return e.Unblock(id) })
}

func (a *app) reopenCmd() *cobra.Command {
	return a.stateCmd("reopen", "Reset a passing task to incomplete", "reopened",
		func(e *engine.Engine, id string) error { return e.Reopen(id) })
}

func (a *app) blockCmd() *cobra.Command {
	var reason string
	cmd := &cobra.Command{
		Use:   "block <task-id>",
		Short: "Flag a task so the scheduler skips it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withEngine(func(e *engine.Engine) error {
				if err := e.Block(args[0], reason); err != nil {
					return err
				}
				a.printf("%s %s blocked: %s\n", okStyle.Render("✓"), args[0], strings.TrimSpace(reason))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "", "Why the task cannot proceed (required)")
	_ = cmd.MarkFlagRequired("reason")
	return cmd
}

func (a *app) validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the task list for duplicate ids, unknown dependencies and cycles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withEngine(func(e *engine.Engine) error {
				if err := e.Validate(); err != nil {
					return err
				}
				a.printf("%s task list is valid\n", okStyle.Render("✓"))
				return nil
			})
		},
	}
}

func (a *app) mergeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "merge <fix-features.json>",
		Short: "Add tasks from another task file, skipping ids already present",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withEngine(func(e *engine.Engine) error {
				added, skipped, err := e.Merge(args[0])
				if err != nil {
					return err
				}
				a.printf("%s merged %d tasks", okStyle.Render("✓"), len(added))
				if len(skipped) > 0 {
					a.printf(", skipped existing: %s", strings.Join(skipped, ", "))
				}
				a.printf("\n")
				return nil
			})
		},
	}
}

func (a *app) writeJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
