package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ssh-vom/mangadl/internal/app"
	"github.com/ssh-vom/mangadl/internal/archive"
	"github.com/ssh-vom/mangadl/internal/config"
	"github.com/ssh-vom/mangadl/internal/fetch"
	"github.com/ssh-vom/mangadl/internal/logging"
	"github.com/ssh-vom/mangadl/internal/prompt"
	"github.com/ssh-vom/mangadl/internal/providers/manga"
	"github.com/ssh-vom/mangadl/internal/session"
	"github.com/ssh-vom/mangadl/internal/ui"
)

type runOptions struct {
	plain       bool
	pick        int
	concurrency int
	downloadDir string
	tempDir     string
	delay       time.Duration
}

func newRunCommand(root *rootOptions) *cobra.Command {
	options := &runOptions{}

	runCmd := &cobra.Command{
		Use:   "run [title] [range] [site]",
		Short: "Download a chapter range of a title",
		Long: `Search a site for the title, resolve the chapter range and write one CBZ
archive per chapter. Missing arguments are asked for interactively.

Range examples: "all", "12", "1-5, 8, 10.5".`,
		Args: cobra.MaximumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			options.apply(cmd, &cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runDownload(cmd, cfg, options, args)
		},
	}

	runCmd.Flags().BoolVar(&options.plain, "plain", false, "print logs and a summary instead of the TUI")
	runCmd.Flags().IntVar(&options.pick, "pick", 0, "pick the Nth search result without asking")
	runCmd.Flags().IntVar(&options.concurrency, "concurrency", 0, "parallel image downloads per chapter (0 is unbounded)")
	runCmd.Flags().StringVar(&options.downloadDir, "download-dir", "", "directory for CBZ archives")
	runCmd.Flags().StringVar(&options.tempDir, "temp-dir", "", "directory for staging images")
	runCmd.Flags().DurationVar(&options.delay, "delay", app.DefaultChapterDelay, "pause between chapters")

	return runCmd
}

func (options *runOptions) apply(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("concurrency") {
		cfg.Concurrency = options.concurrency
	}
	if flags.Changed("download-dir") {
		cfg.DownloadDir = options.downloadDir
	}
	if flags.Changed("temp-dir") {
		cfg.TempDir = options.tempDir
	}
	if flags.Changed("delay") {
		cfg.ChapterDelay = options.delay
	}
}

func requestFromArgs(args []string) app.Request {
	var request app.Request
	if len(args) > 0 {
		request.Title = strings.TrimSpace(args[0])
	}
	if len(args) > 1 {
		request.Range = strings.TrimSpace(args[1])
	}
	if len(args) > 2 {
		request.Site = strings.TrimSpace(args[2])
	}
	return request
}

func completeRequest(request app.Request, registry *manga.Registry, prompter *prompt.Prompter) (app.Request, error) {
	var err error
	if request.Site == "" {
		if request.Site, err = prompter.AskSite(registry.Sites()); err != nil {
			return request, err
		}
	}
	if request.Title == "" {
		if request.Title, err = prompter.AskTitle(); err != nil {
			return request, err
		}
	}
	if request.Range == "" {
		if request.Range, err = prompter.AskRange(); err != nil {
			return request, err
		}
	}
	return request, nil
}

func runDownload(cmd *cobra.Command, cfg config.Config, options *runOptions, args []string) error {
	ctx := cmd.Context()

	var sink *ui.LogSink
	logger := newLogger(cfg)
	if !options.plain {
		sink = ui.NewLogSink()
		logger = logging.New(logging.Options{Verbose: cfg.Verbose, JSON: cfg.LogJSON, Output: sink})
	}
	defer func() { _ = logger.Sync() }()

	httpClient := newHTTPClient(cfg)
	registry, err := buildRegistry(cfg, httpClient, logger)
	if err != nil {
		return err
	}

	prompter := prompt.New()
	request, err := completeRequest(requestFromArgs(args), registry, prompter)
	if err != nil {
		return err
	}

	publisher, cleanup, err := buildPublisher(ctx, cfg, httpClient, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	newOrchestrator := func(chooser app.Chooser, updates chan<- app.ProgressUpdate) *app.Orchestrator {
		if options.pick > 0 {
			chooser = prompt.FixedChooser(options.pick)
		}
		return app.New(app.Options{
			Registry: registry,
			OpenSession: func() (app.PageSession, error) {
				return session.Open(session.Options{
					UserAgent:         cfg.UserAgent,
					Timeout:           cfg.RequestTimeout,
					RequestsPerSecond: cfg.RequestsPerSecond,
					Logger:            logger,
				}), nil
			},
			Fetcher: fetch.New(fetch.Options{
				Concurrency: cfg.Concurrency,
				Attempts:    cfg.Attempts,
				BackoffUnit: cfg.Backoff,
				Timeout:     cfg.RequestTimeout,
				UserAgent:   cfg.UserAgent,
				TempRoot:    cfg.TempDir,
				Logger:      logger,
			}),
			Archiver:     archive.New(logger),
			Chooser:      chooser,
			Publisher:    publisher,
			DownloadDir:  cfg.DownloadDir,
			ChapterDelay: cfg.ChapterDelay,
			Updates:      updates,
			Logger:       logger,
		})
	}

	if options.plain {
		return runPlain(ctx, cmd, request, prompter, newOrchestrator, logger)
	}

	_, err = ui.Run(ctx, request, sink, func(ctx context.Context, chooser app.Chooser, updates chan<- app.ProgressUpdate) (app.Report, error) {
		return newOrchestrator(chooser, updates).Run(ctx, request)
	})
	return err
}

func runPlain(
	ctx context.Context,
	cmd *cobra.Command,
	request app.Request,
	chooser app.Chooser,
	newOrchestrator func(app.Chooser, chan<- app.ProgressUpdate) *app.Orchestrator,
	logger *zap.Logger,
) error {
	updates := make(chan app.ProgressUpdate, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range updates {
			if update.Message == "" || update.Done {
				continue
			}
			logger.Info(update.Message,
				zap.String(logging.FieldState, update.State.String()),
				zap.Int(logging.FieldIndex, update.Current),
				zap.Int(logging.FieldCount, update.Total),
			)
		}
	}()

	report, err := newOrchestrator(chooser, updates).Run(ctx, request)
	close(updates)
	<-done

	fmt.Fprintln(cmd.OutOrStdout(), ui.RenderSummary(report))
	if isCancelled(err) {
		logger.Warn("run cancelled")
	}
	return err
}
