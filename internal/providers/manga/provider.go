package manga

import (
	"context"
	"net/url"

	"github.com/PuerkitoBio/goquery"
)

// Page is the navigable document session shared by every step of a run.
type Page interface {
	Navigate(ctx context.Context, rawURL string) error
	Document() *goquery.Document
	URL() *url.URL
}

type Adapter interface {
	Site() Site
	Search(ctx context.Context, page Page, query string) ([]SearchResult, error)
	ListChapters(ctx context.Context, page Page, workURL string) ([]Chapter, error)
	ExtractPageImageURLs(ctx context.Context, page Page, chapterURL string) ([]string, error)
}

// ChapterViewPreparer is implemented by adapters whose reader needs work
// after navigation before image URLs become visible.
type ChapterViewPreparer interface {
	PrepareChapterView(ctx context.Context, page Page) error
}
