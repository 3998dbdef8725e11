// Package export implements commands that regenerate derived artifacts from
// the stored results without crawling.
package export

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	cmdcommon "github.com/jonesrussell/newsroom-crawler/cmd/common"
	"github.com/jonesrussell/newsroom-crawler/internal/logger"
	"github.com/jonesrussell/newsroom-crawler/internal/store"
)

// Command returns the export command and its subcommands.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Regenerate URL listings, result files, workbooks and page snapshots",
	}

	cmd.AddCommand(listingsCommand())
	cmd.AddCommand(resultsCommand())
	cmd.AddCommand(workbookCommand())
	cmd.AddCommand(snapshotsCommand())

	return cmd
}

func listingsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "listings",
		Short: "Write the per-organization and combined URL listings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := cmdcommon.NewCommandDeps()
			if err != nil {
				return fmt.Errorf("failed to initialize dependencies: %w", err)
			}
			storage := deps.Config.Storage

			results := store.NewResultStore(storage.ResultsJSON, storage.ResultsCSV)
			records, err := results.Load()
			if err != nil {
				return fmt.Errorf("load results: %w", err)
			}

			written, err := store.WriteListings(storage.URLDir, records)
			if err != nil {
				return err
			}
			for _, path := range written {
				cmd.Printf("Wrote %s\n", path)
			}
			deps.Logger.Info("URL listings written",
				logger.Int("records", len(records)),
				logger.Int("files", len(written)),
			)
			return nil
		},
	}
}

func resultsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "results",
		Short: "Rewrite the JSON and CSV result files from the stored records",
		Long: `Loads the JSON result file, drops duplicate URLs and rewrites both the
JSON and the CSV file. Use it to rebuild a lost or hand-edited CSV file.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := cmdcommon.NewCommandDeps()
			if err != nil {
				return fmt.Errorf("failed to initialize dependencies: %w", err)
			}
			storage := deps.Config.Storage

			results := store.NewResultStore(storage.ResultsJSON, storage.ResultsCSV)
			if _, err = results.Load(); err != nil {
				return fmt.Errorf("load results: %w", err)
			}
			if err = results.Flush(); err != nil {
				return err
			}

			cmd.Printf("Wrote %d records to %s and %s\n", results.Len(), storage.ResultsJSON, storage.ResultsCSV)
			return nil
		},
	}
}

func workbookCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "xlsx",
		Short: "Write the stored records to an Excel workbook",
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := cmdcommon.NewCommandDeps()
			if err != nil {
				return fmt.Errorf("failed to initialize dependencies: %w", err)
			}
			storage := deps.Config.Storage

			results := store.NewResultStore(storage.ResultsJSON, storage.ResultsCSV)
			records, err := results.Load()
			if err != nil {
				return fmt.Errorf("load results: %w", err)
			}

			if err = store.WriteWorkbook(output, records); err != nil {
				return err
			}
			cmd.Printf("Wrote %d records to %s\n", len(records), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "partnership_articles.xlsx", "workbook path")

	return cmd
}

func snapshotsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "snapshots",
		Short: "Fetch and snapshot stored records whose snapshot file is missing",
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			deps, err := cmdcommon.NewCommandDeps()
			if err != nil {
				return fmt.Errorf("failed to initialize dependencies: %w", err)
			}

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

			result, err := app.Orchestrator.Backfill(ctx)
			cmdcommon.RenderBackfill(cmd.OutOrStdout(), result)
			if err != nil && !cmdcommon.IsCancellation(err) {
				return fmt.Errorf("backfill: %w", err)
			}
			return nil
		},
	}
}
