package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ssh-vom/mangadl/internal/config"
	"github.com/ssh-vom/mangadl/internal/logging"
)

type rootOptions struct {
	configPath string
	verbose    bool
	jsonLogs   bool
}

func newRootCommand() *cobra.Command {
	options := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "mangadl",
		Short: "Download manga chapters from several sites as CBZ archives",
		Long: `mangadl searches a manga site for a title, resolves a chapter range such as
"1-5, 8" or "all", downloads every page image and packages each chapter
into a CBZ archive. Finished archives can be published to a Boox tablet
or a storage bucket.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&options.configPath, "config", "", "config file path (default is the user config dir)")
	rootCmd.PersistentFlags().BoolVarP(&options.verbose, "verbose", "v", false, "show debug logs")
	rootCmd.PersistentFlags().BoolVar(&options.jsonLogs, "json-logs", false, "write logs as JSON")

	rootCmd.AddCommand(newRunCommand(options))
	rootCmd.AddCommand(newSitesCommand(options))
	rootCmd.AddCommand(newConfigCommand(options))

	return rootCmd
}

func (options *rootOptions) loadConfig() (config.Config, error) {
	cfg, err := config.Load(options.configPath)
	if err != nil {
		return cfg, err
	}
	if options.verbose {
		cfg.Verbose = true
	}
	if options.jsonLogs {
		cfg.LogJSON = true
	}
	return cfg, nil
}

func newLogger(cfg config.Config) *zap.Logger {
	return logging.New(logging.Options{Verbose: cfg.Verbose, JSON: cfg.LogJSON})
}
