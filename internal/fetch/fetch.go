package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ssh-vom/mangadl/internal/logging"
	"github.com/ssh-vom/mangadl/internal/providers/manga"
	"github.com/ssh-vom/mangadl/internal/retry"
	"github.com/ssh-vom/mangadl/internal/session"
)

const (
	DefaultAttempts    = 3
	DefaultBackoffUnit = time.Second
	DefaultTimeout     = 30 * time.Second
	defaultExtension   = ".jpg"
)

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".webp": true, ".gif": true, ".avif": true, ".bmp": true,
}

type Options struct {
	// Concurrency caps parallel image downloads per chapter; 0 means unbounded.
	Concurrency int
	Attempts    int
	BackoffUnit time.Duration
	Timeout     time.Duration
	UserAgent   string
	TempRoot    string
	HTTPClient  *http.Client
	Logger      *zap.Logger
}

type Outcome struct {
	Index    int
	URL      string
	Path     string
	Success  bool
	Err      error
	Attempts int
}

type Result struct {
	Chapter    manga.Chapter
	StagingDir string
	Outcomes   []Outcome
}

func (result *Result) SuccessCount() int {
	count := 0
	for _, outcome := range result.Outcomes {
		if outcome.Success {
			count++
		}
	}
	return count
}

func (result *Result) Failures() []Outcome {
	var failures []Outcome
	for _, outcome := range result.Outcomes {
		if !outcome.Success {
			failures = append(failures, outcome)
		}
	}
	return failures
}

type Fetcher struct {
	options    Options
	httpClient *http.Client
	logger     *zap.Logger
}

func New(options Options) *Fetcher {
	if options.Attempts <= 0 {
		options.Attempts = DefaultAttempts
	}
	if options.BackoffUnit <= 0 {
		options.BackoffUnit = DefaultBackoffUnit
	}
	if options.Timeout <= 0 {
		options.Timeout = DefaultTimeout
	}
	if options.UserAgent == "" {
		options.UserAgent = session.DefaultUserAgent
	}
	if options.TempRoot == "" {
		options.TempRoot = os.TempDir()
	}

	httpClient := options.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &Fetcher{options: options, httpClient: httpClient, logger: logging.OrNop(options.Logger)}
}

func (fetcher *Fetcher) Fetch(ctx context.Context, adapter manga.Adapter, page manga.Page, chapter manga.Chapter) (*Result, error) {
	imageURLs, err := fetcher.extract(ctx, adapter, page, chapter)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(fetcher.options.TempRoot, 0o755); err != nil {
		return nil, errors.Wrap(err, "unable to create temp root")
	}
	stagingDir, err := os.MkdirTemp(fetcher.options.TempRoot, manga.Sanitize(manga.FormatChapterLabel(chapter))+"-*")
	if err != nil {
		return nil, errors.Wrap(err, "unable to create staging dir")
	}

	result := &Result{
		Chapter:    chapter,
		StagingDir: stagingDir,
		Outcomes:   make([]Outcome, len(imageURLs)),
	}

	var group errgroup.Group
	if fetcher.options.Concurrency > 0 {
		group.SetLimit(fetcher.options.Concurrency)
	}

	for position, imageURL := range imageURLs {
		index := position + 1
		result.Outcomes[position] = Outcome{Index: index, URL: imageURL}
		group.Go(func() error {
			result.Outcomes[position] = fetcher.download(ctx, chapter.URL, stagingDir, index, imageURL)
			return nil
		})
	}
	_ = group.Wait()

	fetcher.logger.Debug("chapter fetched",
		zap.String(logging.FieldChapter, chapter.Title),
		zap.Int(logging.FieldCount, result.SuccessCount()),
		zap.Int("failed", len(result.Failures())),
	)
	return result, nil
}

func (fetcher *Fetcher) extract(ctx context.Context, adapter manga.Adapter, page manga.Page, chapter manga.Chapter) ([]string, error) {
	if !adapter.Site().API {
		if err := page.Navigate(ctx, chapter.URL); err != nil {
			return nil, errors.Wrapf(err, "error opening chapter %s", chapter.URL)
		}
	}

	if preparer, ok := adapter.(manga.ChapterViewPreparer); ok {
		if err := prepare(ctx, preparer, page); err != nil {
			fetcher.logger.Debug("chapter view preparation failed",
				zap.String(logging.FieldChapter, chapter.Title),
				zap.Error(err),
			)
		}
	}

	imageURLs, err := adapter.ExtractPageImageURLs(ctx, page, chapter.URL)
	if err != nil {
		return nil, err
	}
	if len(imageURLs) == 0 {
		return nil, errors.Wrapf(manga.ErrNoImagesFound, "%s", chapter.URL)
	}

	return imageURLs, nil
}

func prepare(ctx context.Context, preparer manga.ChapterViewPreparer, page manga.Page) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = errors.Newf("chapter view preparation panicked: %v", recovered)
		}
	}()
	return preparer.PrepareChapterView(ctx, page)
}

func (fetcher *Fetcher) download(ctx context.Context, referer, stagingDir string, index int, imageURL string) Outcome {
	filePath := filepath.Join(stagingDir, fmt.Sprintf("%03d%s", index, extensionFor(imageURL)))
	policy := retry.Policy{
		Attempts: fetcher.options.Attempts,
		Backoff:  retry.Linear(fetcher.options.BackoffUnit),
	}

	result := retry.Do(ctx, policy, func(ctx context.Context, attempt int) (int64, error) {
		attemptCtx, cancel := context.WithTimeout(ctx, fetcher.options.Timeout)
		defer cancel()

		written, err := fetcher.saveImage(attemptCtx, referer, imageURL, filePath)
		if err != nil {
			fetcher.logger.Debug("image attempt failed",
				zap.Int(logging.FieldIndex, index),
				zap.Int(logging.FieldAttempt, attempt),
				zap.String(logging.FieldURL, imageURL),
				zap.Error(err),
			)
		}
		return written, err
	})

	outcome := Outcome{Index: index, URL: imageURL, Attempts: result.Attempts}
	if result.Err != nil {
		outcome.Err = errors.Mark(errors.Wrapf(result.Err, "page %d", index), manga.ErrImageDownloadFailed)
		fetcher.logger.Warn("image download failed",
			zap.Int(logging.FieldIndex, index),
			zap.String(logging.FieldURL, imageURL),
			zap.Error(result.Err),
		)
		return outcome
	}

	outcome.Success = true
	outcome.Path = filePath
	return outcome
}

func (fetcher *Fetcher) saveImage(ctx context.Context, referer, imageURL, filePath string) (int64, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return 0, retry.Permanent(errors.Wrap(err, "error building image request"))
	}
	request.Header.Set("User-Agent", fetcher.options.UserAgent)
	request.Header.Set("Accept", "image/avif,image/webp,image/apng,image/*,*/*;q=0.8")
	request.Header.Set("Accept-Language", "en-US,en;q=0.9")
	if referer != "" {
		request.Header.Set("Referer", referer)
	}

	response, err := fetcher.httpClient.Do(request)
	if err != nil {
		return 0, errors.Wrap(err, "error downloading image")
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return 0, errors.Newf("image request failed: %s", response.Status)
	}

	file, err := os.Create(filePath)
	if err != nil {
		return 0, errors.Wrap(err, "unable to create image file")
	}

	written, copyErr := io.Copy(file, response.Body)
	closeErr := file.Close()
	if copyErr == nil && closeErr == nil && written == 0 {
		copyErr = errors.New("downloaded image is empty")
	}
	if err := errors.CombineErrors(copyErr, closeErr); err != nil {
		_ = os.Remove(filePath)
		return 0, errors.Wrap(err, "error writing image")
	}

	return written, nil
}

func extensionFor(imageURL string) string {
	parsed, err := url.Parse(imageURL)
	if err != nil {
		return defaultExtension
	}

	extension := strings.ToLower(path.Ext(parsed.Path))
	if !imageExtensions[extension] {
		return defaultExtension
	}
	return extension
}
