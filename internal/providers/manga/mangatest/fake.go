// Package mangatest provides in-memory adapters and pages for tests.
package mangatest

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/cockroachdb/errors"

	"github.com/ssh-vom/mangadl/internal/providers/manga"
)

type Page struct {
	mu        sync.Mutex
	Visited   []string
	NavErr    error
	Closed    bool
	current   *url.URL
	documents map[string]string
	document  *goquery.Document
}

func NewPage(documents map[string]string) *Page {
	return &Page{documents: documents}
}

func (page *Page) Navigate(ctx context.Context, rawURL string) error {
	page.mu.Lock()
	defer page.mu.Unlock()

	page.Visited = append(page.Visited, rawURL)
	if page.NavErr != nil {
		return page.NavErr
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return err
	}
	document, err := goquery.NewDocumentFromReader(strings.NewReader(page.documents[rawURL]))
	if err != nil {
		return err
	}
	document.Url = parsed
	page.current = parsed
	page.document = document
	return nil
}

func (page *Page) Document() *goquery.Document {
	page.mu.Lock()
	defer page.mu.Unlock()
	return page.document
}

func (page *Page) URL() *url.URL {
	page.mu.Lock()
	defer page.mu.Unlock()
	return page.current
}

func (page *Page) Close() error {
	page.mu.Lock()
	defer page.mu.Unlock()
	page.Closed = true
	return nil
}

func (page *Page) Visits() []string {
	page.mu.Lock()
	defer page.mu.Unlock()
	return append([]string(nil), page.Visited...)
}

// Adapter serves canned search results, chapter lists and image URLs.
type Adapter struct {
	SiteConfig manga.Site
	Results    []manga.SearchResult
	SearchErr  error
	Chapters   map[string][]manga.Chapter
	ChapterErr error
	Images     map[string][]string
	ImageErrs  map[string]error
	PrepareErr error
	Prepared   int

	mu sync.Mutex
}

func (adapter *Adapter) Site() manga.Site {
	if adapter.SiteConfig.Key == "" {
		return manga.Site{Key: "fake", Name: "Fake", BaseURL: "https://fake.example"}
	}
	return adapter.SiteConfig
}

func (adapter *Adapter) Search(ctx context.Context, page manga.Page, query string) ([]manga.SearchResult, error) {
	if adapter.SearchErr != nil {
		return nil, adapter.SearchErr
	}
	return adapter.Results, nil
}

func (adapter *Adapter) ListChapters(ctx context.Context, page manga.Page, workURL string) ([]manga.Chapter, error) {
	if adapter.ChapterErr != nil {
		return nil, adapter.ChapterErr
	}
	return append([]manga.Chapter(nil), adapter.Chapters[workURL]...), nil
}

func (adapter *Adapter) ExtractPageImageURLs(ctx context.Context, page manga.Page, chapterURL string) ([]string, error) {
	if err := adapter.ImageErrs[chapterURL]; err != nil {
		return nil, err
	}
	images := adapter.Images[chapterURL]
	if len(images) == 0 {
		return nil, errors.Wrapf(manga.ErrNoImagesFound, "%s", chapterURL)
	}
	return images, nil
}

func (adapter *Adapter) PrepareChapterView(ctx context.Context, page manga.Page) error {
	adapter.mu.Lock()
	adapter.Prepared++
	adapter.mu.Unlock()
	return adapter.PrepareErr
}
