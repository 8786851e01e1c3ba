package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/zeddy89/Context-Engine/internal/config"
	"github.com/zeddy89/Context-Engine/internal/engine"
	"github.com/zeddy89/Context-Engine/internal/errkind"
	"github.com/zeddy89/Context-Engine/internal/knowledge"
)

func (a *app) initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create .agent/ with a default config and the knowledge directories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := a.projectRoot()
			if err != nil {
				return err
			}
			if _, err := config.Load(root); err != nil {
				return errkind.New(errkind.ErrConfiguration, "init", err)
			}
			if err := writeDefaultConfig(root); err != nil {
				return err
			}
			for _, c := range knowledge.Categories() {
				if err := os.MkdirAll(filepath.Join(config.MemoryPath(root), c.Dir()), 0o755); err != nil {
					return errkind.New(errkind.ErrWriteFailure, "init", err)
				}
			}
			a.printf("%s initialized %s\n", okStyle.Render("✓"), config.AgentPath(root))
			return nil
		},
	}
}

// writeDefaultConfig writes config.yaml unless one already exists.
func writeDefaultConfig(root string) error {
	if _, err := os.Stat(config.Path(root)); err == nil {
		return nil
	}
	if err := config.Save(root, config.Default()); err != nil {
		return errkind.New(errkind.ErrWriteFailure, "init", err)
	}
	return nil
}

func (a *app) compileCmd() *cobra.Command {
	var (
		budget int
		stdout bool
	)
	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Compile the working context for the next task",
		Long: `Reconciles, schedules and compiles the working view into
.agent/working-context/current.md. Exits 3 when the budget cannot hold the
header and current task.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if budget < 0 {
				return errkind.Errorf(errkind.ErrConfiguration, "compile", nil, "--budget must be positive, got %d", budget)
			}
			return a.withEngine(func(e *engine.Engine) error {
				res, err := e.Compile(cmd.Context(), budget)
				if err != nil {
					return err
				}
				if stdout {
					a.printf("%s\n", res.Text)
					return nil
				}
				a.printf("%s compiled %s/%s chars (~%s tokens) to %s\n",
					okStyle.Render("✓"),
					humanize.Comma(int64(res.Chars)),
					humanize.Comma(int64(res.Budget)),
					humanize.Comma(int64(res.EstimatedTokens)),
					config.WorkingContextPath(e.Root()),
				)
				if len(res.Evicted) > 0 {
					a.printf("  evicted: %s\n", strings.Join(res.Evicted, ", "))
				}
				if len(res.Truncated) > 0 {
					a.printf("  truncated: %s\n", strings.Join(res.Truncated, ", "))
				}
				if len(res.Degraded) > 0 {
					a.printf("  %s unavailable: %s\n", warnStyle.Render("!"), strings.Join(res.Degraded, ", "))
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&budget, "budget", 0, "Character budget (default: configured budget_chars)")
	cmd.Flags().BoolVar(&stdout, "stdout", false, "Print the compiled view instead of a summary")
	return cmd
}

func (a *app) snapshotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "snapshot",
		Short: "Store a copy of the last compiled working context",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withEngine(func(e *engine.Engine) error {
				id, err := e.Snapshot(cmd.Context())
				if err != nil {
					return err
				}
				a.printf("%s snapshot %s\n", okStyle.Render("✓"), e.Snapshots().Path(id))
				return nil
			})
		},
	}
}

func (a *app) resetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Snapshot the working context, then discard it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withEngine(func(e *engine.Engine) error {
				id, err := e.Reset(cmd.Context())
				if err != nil {
					return err
				}
				a.printf("%s working context cleared, snapshot %s\n", okStyle.Render("✓"), id)
				return nil
			})
		},
	}
}

func (a *app) rememberCmd() *cobra.Command {
	var task string
	cmd := &cobra.Command{
		Use:   "remember <category> <text>...",
		Short: "Append a knowledge record",
		Long: `Appends a record to one of the knowledge categories: constraint, failure,
strategy or entity. Records are never edited; record a newer one instead.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := knowledge.ParseCategory(args[0])
			if err != nil {
				return errkind.New(errkind.ErrConfiguration, "remember", err)
			}
			return a.withEngine(func(e *engine.Engine) error {
				rec, err := e.Remember(cmd.Context(), c, strings.Join(args[1:], " "), task)
				if err != nil {
					return err
				}
				a.printf("%s recorded %s %s\n", okStyle.Render("✓"), rec.Category, rec.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&task, "task", "", "Task the record relates to")
	return cmd
}

func (a *app) recallCmd() *cobra.Command {
	var n int
	cmd := &cobra.Command{
		Use:   "recall <category>",
		Short: "List the most recent records of a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := knowledge.ParseCategory(args[0])
			if err != nil {
				return errkind.New(errkind.ErrConfiguration, "recall", err)
			}
			return a.withEngine(func(e *engine.Engine) error {
				recs, err := e.Recall(cmd.Context(), c, n)
				if err != nil {
					return err
				}
				if len(recs) == 0 {
					a.printf("no %s records\n", c)
					return nil
				}
				for _, r := range recs {
					a.printRecord(r)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&n, "limit", "n", 10, "Number of records")
	return cmd
}

func (a *app) statusCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show progress, the next task, knowledge counts and snapshots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withEngine(func(e *engine.Engine) error {
				st, err := e.Status(cmd.Context())
				if err != nil {
					return err
				}
				if asJSON {
					return a.writeJSON(st)
				}
				a.printStatus(st)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the status as JSON")
	return cmd
}
