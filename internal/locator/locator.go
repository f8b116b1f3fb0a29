package locator

import (
	"context"
	"regexp"
	"sort"
	"strconv"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/ssh-vom/mangadl/internal/logging"
	"github.com/ssh-vom/mangadl/internal/providers/manga"
)

const MaxResults = 10

var chapterNumberPattern = regexp.MustCompile(`(?i)(?:chapter|ch\.?|episode|ep\.?)\s*(\d+(?:\.\d+)?)`)

type Locator struct {
	adapter manga.Adapter
	page    manga.Page
	logger  *zap.Logger
}

func New(adapter manga.Adapter, page manga.Page, logger *zap.Logger) *Locator {
	return &Locator{adapter: adapter, page: page, logger: logging.OrNop(logger)}
}

func (locator *Locator) Search(ctx context.Context, title string) ([]manga.SearchResult, error) {
	results, err := locator.adapter.Search(ctx, locator.page, title)
	if err != nil {
		if errors.Is(err, manga.ErrSearchUnavailable) {
			return nil, err
		}
		return nil, errors.Mark(errors.Wrap(err, "error searching"), manga.ErrSearchUnavailable)
	}

	if len(results) > MaxResults {
		results = results[:MaxResults]
	}

	locator.logger.Debug("search finished",
		zap.String(logging.FieldWork, title),
		zap.Int(logging.FieldCount, len(results)),
	)
	return results, nil
}

func (locator *Locator) Chapters(ctx context.Context, workURL string) ([]manga.Chapter, error) {
	listed, err := locator.adapter.ListChapters(ctx, locator.page, workURL)
	if err != nil {
		if errors.Is(err, manga.ErrChapterListUnavailable) {
			return nil, err
		}
		return nil, errors.Mark(errors.Wrap(err, "error listing chapters"), manga.ErrChapterListUnavailable)
	}

	chapters := make([]manga.Chapter, len(listed))
	for index, chapter := range listed {
		chapter.Number = ChapterNumber(chapter.Title)
		chapters[index] = chapter
	}

	sort.SliceStable(chapters, func(i, j int) bool {
		return chapters[i].Number < chapters[j].Number
	})

	locator.logger.Debug("chapters listed",
		zap.String(logging.FieldURL, workURL),
		zap.Int(logging.FieldCount, len(chapters)),
	)
	return chapters, nil
}

// ChapterNumber returns the first chapter or episode number in title, or 0.
func ChapterNumber(title string) float64 {
	match := chapterNumberPattern.FindStringSubmatch(title)
	if match == nil {
		return 0
	}

	number, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0
	}
	return number
}
