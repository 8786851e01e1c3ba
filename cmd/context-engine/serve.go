package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zeddy89/Context-Engine/internal/engine"
	ceserver "github.com/zeddy89/Context-Engine/internal/server"
	"github.com/zeddy89/Context-Engine/internal/watch"
)

func (a *app) watchCmd() *cobra.Command {
	var debounce time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Recompile the working context whenever its inputs change",
		Long: `Watches the task list, knowledge records, reference file, config and
git history, and recompiles .agent/working-context/current.md after each
burst of changes. Stops on interrupt.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return a.withEngine(func(e *engine.Engine) error {
				compile := func(ctx context.Context) error {
					res, err := e.Compile(ctx, 0)
					if err != nil {
						return err
					}
					a.logger.Info("working context compiled",
						zap.Int("chars", res.Chars),
						zap.Int("budget", res.Budget),
						zap.String("digest", res.Digest),
					)
					return nil
				}
				w := watch.New(e.Root(), e.Config().TaskFilePath(e.Root()), compile,
					watch.WithDebounce(debounce),
					watch.WithLogger(a.logger),
				)
				a.logger.Info("watching project", zap.String("root", e.Root()))
				return w.Run(ctx)
			})
		},
	}
	cmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounce, "Quiet period before recompiling")
	return cmd
}

func (a *app) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server (stdio transport)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withEngine(func(e *engine.Engine) error {
				a.logger.Info("serving MCP over stdio", zap.String("root", e.Root()))
				return server.ServeStdio(ceserver.New(e))
			})
		},
	}
}
