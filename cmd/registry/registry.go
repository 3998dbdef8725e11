// Package registry implements commands for inspecting the organization
// registry.
package registry

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	cmdcommon "github.com/jonesrussell/newsroom-crawler/cmd/common"
	"github.com/jonesrussell/newsroom-crawler/internal/config"
)

// Command returns the registry command and its subcommands.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "registry",
		Short: "Inspect the organization registry",
	}

	cmd.AddCommand(listCommand())
	cmd.AddCommand(dumpCommand())

	return cmd
}

func listCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the organizations and their seed pages",
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := cmdcommon.NewCommandDeps()
			if err != nil {
				return fmt.Errorf("failed to initialize dependencies: %w", err)
			}

			selected, err := deps.Config.Targets()
			if err != nil {
				return err
			}

			RenderTable(cmd.OutOrStdout(), selected)
			return nil
		},
	}
}

func dumpCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "dump",
		Short: "Print the registry as YAML, ready to paste into config.yaml",
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := cmdcommon.NewCommandDeps()
			if err != nil {
				return fmt.Errorf("failed to initialize dependencies: %w", err)
			}

			return WriteYAML(cmd.OutOrStdout(), deps.Config.Registry)
		},
	}
}

// RenderTable writes one row per organization.
func RenderTable(w io.Writer, orgs []config.Organization) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Organization", "Seeds", "Seed URLs"})

	seeds := 0
	for _, org := range orgs {
		t.AppendRow(table.Row{org.Name, len(org.Seeds), strings.Join(org.Seeds, "\n")})
		t.AppendSeparator()
		seeds += len(org.Seeds)
	}

	t.AppendFooter(table.Row{fmt.Sprintf("%d organizations", len(orgs)), seeds, ""})
	t.Render()
}

// WriteYAML encodes orgs under a top-level registry key.
func WriteYAML(w io.Writer, orgs []config.Organization) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)

	doc := struct {
		Registry []config.Organization `yaml:"registry"`
	}{Registry: orgs}

	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode registry: %w", err)
	}
	return enc.Close()
}
