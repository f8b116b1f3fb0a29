package main

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/ssh-vom/mangadl/internal/providers/manga"
)

func newSitesCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sites",
		Short: "List the sites mangadl can download from",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			logger := newLogger(cfg)

			registry, err := buildRegistry(cfg, newHTTPClient(cfg), logger)
			if err != nil {
				return err
			}

			table, err := sitesTable(registry.Sites())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), table)
			return nil
		},
	}
}

func sitesTable(sites []manga.Site) (string, error) {
	data := pterm.TableData{{"Key", "Name", "Base URL"}}
	for _, site := range sites {
		data = append(data, []string{site.Key, site.Name, site.BaseURL})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
}
