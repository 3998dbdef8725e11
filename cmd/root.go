// Package cmd is the newsroom-crawler command line.
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jonesrussell/newsroom-crawler/cmd/crawl"
	"github.com/jonesrussell/newsroom-crawler/cmd/export"
	"github.com/jonesrussell/newsroom-crawler/cmd/registry"
	"github.com/jonesrussell/newsroom-crawler/cmd/serve"
	"github.com/jonesrussell/newsroom-crawler/internal/config"
)

// Version is stamped by the release build with -ldflags "-X".
var Version = "dev"

// Execute builds the command tree and runs it.
func Execute() error {
	return newRootCommand().ExecuteContext(context.Background())
}

func newRootCommand() *cobra.Command {
	var cfgFile string

	root := &cobra.Command{
		Use:   "newsroom-crawler",
		Short: "Crawl corporate newsrooms for partnership announcements",
		Long: `newsroom-crawler visits the newsroom pages of every organization in the
registry, follows the article links it finds there and keeps the articles
that mention a search term and were published on or after the cutoff date.
Kept articles are appended to JSON and CSV result files; every visited URL
is remembered so later runs only look at new links.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		// Settings are read once the flags of the chosen command are parsed.
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			v := viper.GetViper()
			if err := config.Setup(v, cfgFile); err != nil {
				return err
			}
			if err := v.BindPFlag("app.debug", cmd.Root().PersistentFlags().Lookup("debug")); err != nil {
				return fmt.Errorf("bind --debug: %w", err)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default ./config.yaml, then ./config/config.yaml)")
	flags.Bool("debug", false, "log at debug level")

	root.AddCommand(
		crawl.Command(),
		serve.Command(func() string { return Version }),
		registry.Command(),
		export.Command(),
		&cobra.Command{
			Use:   "version",
			Short: "Print the build version",
			Run: func(cmd *cobra.Command, _ []string) {
				cmd.Println("newsroom-crawler", Version)
			},
		},
	)
	return root
}
