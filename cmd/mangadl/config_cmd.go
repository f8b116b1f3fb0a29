package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ssh-vom/mangadl/internal/config"
)

func newConfigCommand(root *rootOptions) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the config file",
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := root.configPath
			if path == "" {
				defaultPath, err := config.ConfigPath()
				if err != nil {
					return err
				}
				path = defaultPath
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write the current settings to the config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			loadPath := root.configPath
			if _, err := os.Stat(loadPath); err != nil {
				loadPath = ""
			}
			cfg, err := (&rootOptions{configPath: loadPath, verbose: root.verbose, jsonLogs: root.jsonLogs}).loadConfig()
			if err != nil {
				return err
			}

			path := root.configPath
			if path == "" {
				if path, err = config.SaveConfig(cfg); err != nil {
					return err
				}
			} else if err := config.SaveConfigTo(path, cfg); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✓ Config written to %s\n", path)
			return nil
		},
	})

	return configCmd
}
