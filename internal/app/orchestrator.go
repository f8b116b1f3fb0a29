package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ssh-vom/mangadl/internal/archive"
	"github.com/ssh-vom/mangadl/internal/fetch"
	"github.com/ssh-vom/mangadl/internal/locator"
	"github.com/ssh-vom/mangadl/internal/logging"
	"github.com/ssh-vom/mangadl/internal/providers/manga"
	"github.com/ssh-vom/mangadl/internal/publish"
	"github.com/ssh-vom/mangadl/internal/retry"
	"github.com/ssh-vom/mangadl/internal/selection"
	"github.com/ssh-vom/mangadl/internal/session"
)

const DefaultChapterDelay = 2 * time.Second

type Request struct {
	Title string
	Range string
	Site  string
}

type PageSession interface {
	manga.Page
	Close() error
}

type Chooser interface {
	Choose(ctx context.Context, results []manga.SearchResult) (int, error)
}

type ChooserFunc func(ctx context.Context, results []manga.SearchResult) (int, error)

func (chooser ChooserFunc) Choose(ctx context.Context, results []manga.SearchResult) (int, error) {
	return chooser(ctx, results)
}

type ChapterFetcher interface {
	Fetch(ctx context.Context, adapter manga.Adapter, page manga.Page, chapter manga.Chapter) (*fetch.Result, error)
}

type Archiver interface {
	Package(stagingDir, outputPath string) (archive.Archive, error)
}

type Options struct {
	Registry     *manga.Registry
	OpenSession  func() (PageSession, error)
	Fetcher      ChapterFetcher
	Archiver     Archiver
	Chooser      Chooser
	Publisher    publish.Publisher
	DownloadDir  string
	ChapterDelay time.Duration
	Sleep        func(ctx context.Context, delay time.Duration) error
	Updates      chan<- ProgressUpdate
	Logger       *zap.Logger
}

type ChapterResult struct {
	Chapter     manga.Chapter
	Status      ChapterStatus
	ArchivePath string
	ImageCount  int
	Failures    []fetch.Outcome
	Err         error
	PublishErr  error
}

type Report struct {
	RunID    string
	Request  Request
	Site     manga.Site
	Work     manga.SearchResult
	Chapters []ChapterResult
	Err      error
}

func (report Report) Count(status ChapterStatus) int {
	count := 0
	for _, chapter := range report.Chapters {
		if chapter.Status == status {
			count++
		}
	}
	return count
}

type Orchestrator struct {
	options Options
	logger  *zap.Logger
}

func New(options Options) *Orchestrator {
	if options.Sleep == nil {
		options.Sleep = retry.Sleep
	}
	if options.ChapterDelay < 0 {
		options.ChapterDelay = 0
	}
	if options.Archiver == nil {
		options.Archiver = archive.New(options.Logger)
	}
	if options.Fetcher == nil {
		options.Fetcher = fetch.New(fetch.Options{Logger: options.Logger})
	}
	if options.OpenSession == nil {
		logger := options.Logger
		options.OpenSession = func() (PageSession, error) {
			return session.Open(session.Options{Logger: logger}), nil
		}
	}
	if options.DownloadDir == "" {
		options.DownloadDir = "downloads"
	}

	return &Orchestrator{options: options, logger: logging.OrNop(options.Logger)}
}

// Run executes one download job. The returned error is set only for
// failures that stop the whole run; per-chapter problems live in the report.
func (orchestrator *Orchestrator) Run(ctx context.Context, request Request) (report Report, err error) {
	report = Report{RunID: uuid.NewString(), Request: request}
	logger := orchestrator.logger.With(zap.String(logging.FieldRunID, report.RunID))
	tracker := newProgressTracker(ctx, orchestrator.options.Updates)
	defer func() {
		report.Err = err
		tracker.finish(err)
		logger.Info("run finished",
			zap.Int("success", report.Count(StatusSuccess)),
			zap.Int("skipped", report.Count(StatusSkipped)),
			zap.Int("failed", report.Count(StatusFailed)),
			zap.Error(err),
		)
	}()

	tracker.enter(StateInit, "Starting")
	adapter, err := orchestrator.options.Registry.Lookup(request.Site)
	if err != nil {
		return report, err
	}
	report.Site = adapter.Site()
	logger = logger.With(zap.String(logging.FieldSite, report.Site.Key))
	tracker.enter(StateAdapterSelected, "Using "+report.Site.Name)

	page, err := orchestrator.options.OpenSession()
	if err != nil {
		return report, errors.Wrap(err, "unable to open page session")
	}
	defer func() {
		if closeErr := page.Close(); closeErr != nil {
			logger.Warn("unable to close page session", zap.Error(closeErr))
		}
	}()

	locate := locator.New(adapter, page, logger)
	work, err := orchestrator.locateWork(ctx, locate, request.Title, tracker)
	if err != nil {
		return report, err
	}
	report.Work = work
	logger = logger.With(zap.String(logging.FieldWork, work.Title))

	chapters, err := locate.Chapters(ctx, work.URL)
	if err != nil {
		return report, err
	}
	selected, err := selection.Select(request.Range, chapters)
	if err != nil {
		return report, err
	}

	tracker.total = len(selected)
	tracker.enter(StateRangeResolved, fmt.Sprintf("Selected %d of %d chapters", len(selected), len(chapters)))
	logger.Info("range resolved", zap.Int(logging.FieldCount, len(selected)), zap.Int("available", len(chapters)))

	for index, chapter := range selected {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		prefix := fmt.Sprintf("Chapter %d/%d: ", index+1, len(selected))
		result := orchestrator.processChapter(ctx, adapter, page, work, chapter, prefix, tracker, logger)
		report.Chapters = append(report.Chapters, result)
		tracker.advance(result, prefix+string(result.Status)+" "+manga.FormatChapterLabel(chapter))

		if index < len(selected)-1 && orchestrator.options.ChapterDelay > 0 {
			if err := orchestrator.options.Sleep(ctx, orchestrator.options.ChapterDelay); err != nil {
				return report, err
			}
		}
	}

	return report, nil
}

func (orchestrator *Orchestrator) locateWork(ctx context.Context, locate *locator.Locator, title string, tracker *progressTracker) (manga.SearchResult, error) {
	results, err := locate.Search(ctx, title)
	if err != nil {
		return manga.SearchResult{}, err
	}
	if len(results) == 0 {
		return manga.SearchResult{}, errors.WithHint(
			errors.Wrapf(manga.ErrNoWorkFound, "%q", title),
			"try a shorter or alternative title",
		)
	}
	tracker.enter(StateWorkLocated, fmt.Sprintf("Found %d result(s)", len(results)))

	if len(results) == 1 {
		return results[0], nil
	}

	tracker.enter(StateDisambiguation, "Choose a work")
	if orchestrator.options.Chooser == nil {
		orchestrator.logger.Info("several works matched, using the first", zap.String(logging.FieldWork, results[0].Title))
		return results[0], nil
	}

	choice, err := orchestrator.options.Chooser.Choose(ctx, results)
	if err != nil {
		return manga.SearchResult{}, errors.Mark(errors.Wrap(err, "no work chosen"), manga.ErrInvalidChoice)
	}
	if choice < 0 || choice >= len(results) {
		return manga.SearchResult{}, errors.Wrapf(manga.ErrInvalidChoice, "index %d outside 0..%d", choice, len(results)-1)
	}
	return results[choice], nil
}

func (orchestrator *Orchestrator) processChapter(ctx context.Context, adapter manga.Adapter, page manga.Page, work manga.SearchResult, chapter manga.Chapter, prefix string, tracker *progressTracker, logger *zap.Logger) ChapterResult {
	label := manga.FormatChapterLabel(chapter)
	logger = logger.With(zap.String(logging.FieldChapter, label))
	result := ChapterResult{Chapter: chapter}

	tracker.enter(StateFetching, prefix+"Downloading pages for "+label)
	fetched, err := orchestrator.options.Fetcher.Fetch(ctx, adapter, page, chapter)
	if err != nil {
		result.Status = StatusFailed
		result.Err = err
		logger.Warn("chapter failed", zap.Error(err))
		return result
	}
	result.Failures = fetched.Failures()

	if fetched.SuccessCount() == 0 {
		result.Status = StatusSkipped
		result.Err = errors.Newf("none of %d images downloaded", len(fetched.Outcomes))
		if err := os.RemoveAll(fetched.StagingDir); err != nil {
			logger.Warn("unable to remove staging dir", zap.String(logging.FieldPath, fetched.StagingDir), zap.Error(err))
		}
		logger.Warn("chapter skipped", zap.Int("failed", len(result.Failures)))
		return result
	}

	tracker.enter(StateArchiving, prefix+"Creating CBZ for "+label)
	outputPath := filepath.Join(
		orchestrator.options.DownloadDir,
		fmt.Sprintf("%s - %s%s", manga.Sanitize(work.Title), manga.Sanitize(label), archive.Extension),
	)
	packaged, err := orchestrator.options.Archiver.Package(fetched.StagingDir, outputPath)
	if err != nil {
		result.Status = StatusFailed
		result.Err = err
		logger.Warn("chapter failed", zap.Error(err))
		return result
	}

	result.Status = StatusSuccess
	result.ArchivePath = packaged.Path
	result.ImageCount = packaged.ImageCount
	logger.Info("chapter archived",
		zap.String(logging.FieldPath, packaged.Path),
		zap.Int(logging.FieldCount, packaged.ImageCount),
		zap.Int("failed", len(result.Failures)),
	)

	if orchestrator.options.Publisher != nil {
		item := publish.Item{Work: work.Title, Chapter: label, ArchivePath: packaged.Path}
		if err := orchestrator.options.Publisher.Publish(ctx, item); err != nil {
			result.PublishErr = err
			logger.Warn("publish failed", zap.String(logging.FieldPublisher, orchestrator.options.Publisher.Name()), zap.Error(err))
		}
	}

	return result
}
