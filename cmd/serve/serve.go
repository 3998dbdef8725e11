// Package serve implements the serve command: the status API plus scheduled
// crawl runs.
package serve

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	cmdcommon "github.com/jonesrussell/newsroom-crawler/cmd/common"
	"github.com/jonesrussell/newsroom-crawler/internal/api"
	"github.com/jonesrussell/newsroom-crawler/internal/logger"
	"github.com/jonesrussell/newsroom-crawler/internal/schedule"
)

// Command returns the serve command. version reports the build version for
// the health endpoint.
func Command(version func() string) *cobra.Command {
	var (
		cronSpec   string
		runAtStart bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the status API and run crawls on a schedule",
		Long: `Starts the HTTP status API. When a cron schedule is configured
(schedule.cron or --cron), crawl runs are started on that schedule. Runs can
also be started with POST /api/v1/runs. Runs never overlap.`,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			deps, err := cmdcommon.NewCommandDeps()
			if err != nil {
				return fmt.Errorf("failed to initialize dependencies: %w", err)
			}
			log := deps.Logger
			cfg := deps.Config

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app, err := cmdcommon.NewApp(ctx, deps)
			if err != nil {
				return fmt.Errorf("failed to construct crawler: %w", err)
			}
			defer func() {
				if closeErr := app.Close(); closeErr != nil && err == nil {
					err = closeErr
				}
			}()

			scheduler := schedule.New(app.Orchestrator, log)
			if !cmd.Flags().Changed("cron") {
				cronSpec = cfg.Schedule.Cron
			}
			if cronSpec != "" {
				if scheduleErr := scheduler.Schedule(cronSpec); scheduleErr != nil {
					return scheduleErr
				}
			}
			scheduler.Start(ctx)
			defer scheduler.Stop()

			if runAtStart {
				if triggerErr := scheduler.Trigger(ctx); triggerErr != nil {
					log.Warn("Initial run not started", logger.Error(triggerErr))
				}
			}

			server := api.NewServer(api.Config{
				Address:      cfg.Server.Address,
				ReadTimeout:  cfg.Server.ReadTimeout,
				WriteTimeout: cfg.Server.WriteTimeout,
				Debug:        cfg.App.Debug,
				Version:      version(),
				JWTSecret:    cfg.Server.JWTSecret,
			}, log, api.Deps{
				Records:   app.Store,
				Runs:      scheduler,
				Summaries: app.Orchestrator,
				Metrics:   app.Metrics,
			})

			return server.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&cronSpec, "cron", "", "cron schedule for crawl runs, overrides schedule.cron")
	cmd.Flags().BoolVar(&runAtStart, "run-at-start", false, "start a crawl run immediately")

	return cmd
}
