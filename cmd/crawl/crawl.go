// Package crawl implements the crawl command, which runs one full pass over
// the selected organizations.
package crawl

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	cmdcommon "github.com/jonesrussell/newsroom-crawler/cmd/common"
	"github.com/jonesrussell/newsroom-crawler/internal/logger"
)

// Command returns the crawl command for use in the root command.
func Command() *cobra.Command {
	var (
		orgs     []string
		backfill bool
	)

	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Run one crawl over the organization registry",
		Long: `Visits every seed page of the selected organizations, follows the
article links found there and appends qualifying articles to the result
files. URLs processed by earlier runs are skipped.

Use --org to restrict the run to specific organizations and --backfill to
write missing page snapshots for already stored records first.`,
		Example: `  newsroom-crawler crawl
  newsroom-crawler crawl --org Snowflake --org "Palantir Technologies"`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if len(orgs) > 0 {
				viper.Set("crawl.organizations", orgs)
			}

			deps, err := cmdcommon.NewCommandDeps()
			if err != nil {
				return fmt.Errorf("failed to initialize dependencies: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return run(ctx, cmd, deps, backfill)
		},
	}

	cmd.Flags().StringSliceVar(&orgs, "org", nil, "organization to crawl (repeatable, default all)")
	cmd.Flags().BoolVar(&backfill, "backfill", false, "write missing snapshots for stored records before crawling")

	return cmd
}

func run(ctx context.Context, cmd *cobra.Command, deps cmdcommon.CommandDeps, backfill bool) (err error) {
	app, err := cmdcommon.NewApp(ctx, deps)
	if err != nil {
		return fmt.Errorf("failed to construct crawler: %w", err)
	}
	defer func() {
		if closeErr := app.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	if backfill {
		result, backfillErr := app.Orchestrator.Backfill(ctx)
		cmdcommon.RenderBackfill(cmd.OutOrStdout(), result)
		if backfillErr != nil {
			if cmdcommon.IsCancellation(backfillErr) {
				deps.Logger.Info("Backfill interrupted")
				return nil
			}
			return fmt.Errorf("backfill: %w", backfillErr)
		}
	}

	summary, runErr := app.Orchestrator.Run(ctx)
	cmdcommon.RenderSummary(cmd.OutOrStdout(), summary)

	switch {
	case runErr == nil:
		return nil
	case cmdcommon.IsCancellation(runErr) && ctx.Err() != nil:
		// Interrupted runs keep everything already stored; the next run resumes.
		deps.Logger.Info("Crawl interrupted, progress saved",
			logger.Int("records", app.Store.Len()),
		)
		return nil
	default:
		return fmt.Errorf("crawl: %w", runErr)
	}
}
