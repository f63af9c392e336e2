package cli

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/prcodex/codexsage/internal/app"
	"github.com/prcodex/codexsage/internal/config"
	"github.com/prcodex/codexsage/internal/logging"
)

// Execute runs the command tree.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "codexsage",
		Short:         "Email ingestion and AI enrichment pipeline",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.AddCommand(newIngestCmd())
	root.AddCommand(newEnrichCmd())
	root.AddCommand(newRunCmd())
	root.AddCommand(newScheduleCmd())
	root.AddCommand(newWatchCmd())

	return root
}

// withApp loads config, builds the application and hands it to fn, closing it
// afterwards. Mutators adjust the loaded config before wiring.
func withApp(fn func(ctx context.Context, a *app.Application) error, mutators ...func(*config.Config)) error {
	cfg := config.Load()
	for _, m := range mutators {
		m(&cfg)
	}
	logger := logging.New(cfg.Logging.Level)

	a, err := app.New(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return fn(ctx, a)
}

func newIngestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest",
		Short: "Fetch and store new mail from the intake directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app.Application) error {
				_, err := a.Pipeline().Ingest(ctx)
				return err
			})
		},
	}
}

func newEnrichCmd() *cobra.Command {
	var (
		retryFailed bool
		documentID  string
	)

	cmd := &cobra.Command{
		Use:   "enrich",
		Short: "Enrich the pending document batch",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app.Application) error {
				if documentID != "" {
					return a.Pipeline().EnrichOne(ctx, documentID)
				}
				_, err := a.Pipeline().EnrichBatch(ctx, time.Now())
				return err
			}, func(cfg *config.Config) {
				if retryFailed {
					cfg.Pipeline.RetryFailed = true
				}
			})
		},
	}

	cmd.Flags().BoolVar(&retryFailed, "retry-failed", false, "include previously failed documents in the batch")
	cmd.Flags().StringVar(&documentID, "id", "", "enrich one document by id, regardless of state")

	return cmd
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Ingest then enrich in one pass",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app.Application) error {
				return a.Run(ctx)
			})
		},
	}
}

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Ingest mail continuously as it lands in the intake directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app.Application) error {
				err := a.Watch(ctx)
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			})
		},
	}
}

func newScheduleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Run the pipeline on the configured cron schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app.Application) error {
				return a.Schedule(ctx)
			})
		},
	}
}
