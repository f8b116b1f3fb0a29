package selector

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/cockroachdb/errors"

	"github.com/ssh-vom/mangadl/internal/providers/manga"
)

const defaultSearchParam = "s"

type Adapter struct {
	config Config
}

func New(config Config) (*Adapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Adapter{config: config}, nil
}

func (adapter *Adapter) Site() manga.Site {
	name := adapter.config.Name
	if name == "" {
		name = adapter.config.Key
	}
	return manga.Site{
		Key:       adapter.config.Key,
		Name:      name,
		BaseURL:   adapter.config.BaseURL,
		SearchURL: adapter.searchPageURL(),
	}
}

func (adapter *Adapter) searchPageURL() string {
	if adapter.config.SearchURL != "" {
		return adapter.config.SearchURL
	}
	return adapter.config.BaseURL
}

func (adapter *Adapter) Search(ctx context.Context, page manga.Page, query string) ([]manga.SearchResult, error) {
	resultsURL, err := adapter.resultsURL(ctx, page, query)
	if err != nil {
		return nil, errors.Mark(err, manga.ErrSearchUnavailable)
	}

	if err := page.Navigate(ctx, resultsURL); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "error loading search results"), manga.ErrSearchUnavailable)
	}

	document := page.Document()
	base := pageBase(page, resultsURL)
	selectors := adapter.config.Search

	results := []manga.SearchResult{}
	document.Find(selectors.Results).Each(func(_ int, item *goquery.Selection) {
		link := within(item, selectors.Link)
		href, ok := link.Attr("href")
		if !ok {
			return
		}
		workURL, err := manga.ResolveURL(base, href)
		if err != nil {
			return
		}

		title := cleanText(within(item, selectors.Title).Text())
		if title == "" {
			title = cleanText(link.Text())
		}
		if title == "" {
			return
		}

		result := manga.SearchResult{Title: title, URL: workURL}
		if selectors.Image != "" {
			if src := imageSource(within(item, selectors.Image), adapter.config.Prepare.LazyAttributes); src != "" {
				result.CoverURL, _ = manga.ResolveURL(base, src)
			}
		}
		results = append(results, result)
	})

	return results, nil
}

// resultsURL builds the search results address either from the configured
// template or by reading the search form that wraps the search input.
func (adapter *Adapter) resultsURL(ctx context.Context, page manga.Page, query string) (string, error) {
	if adapter.config.SearchTemplate != "" {
		return strings.ReplaceAll(adapter.config.SearchTemplate, QueryPlaceholder, url.QueryEscape(query)), nil
	}

	searchPage := adapter.searchPageURL()
	if err := page.Navigate(ctx, searchPage); err != nil {
		return "", errors.Wrap(err, "error loading search page")
	}

	input := page.Document().Find(adapter.config.Search.Input).First()
	if input.Length() == 0 {
		return "", errors.Newf("search input %q not found on %s", adapter.config.Search.Input, searchPage)
	}

	param := adapter.config.Search.Param
	if name, ok := input.Attr("name"); ok && strings.TrimSpace(name) != "" {
		param = strings.TrimSpace(name)
	}
	if param == "" {
		param = defaultSearchParam
	}

	base := pageBase(page, searchPage)
	form := input.Closest("form")
	action := base
	if href, ok := form.Attr("action"); ok && strings.TrimSpace(href) != "" {
		resolved, err := manga.ResolveURL(base, href)
		if err != nil {
			return "", errors.Wrap(err, "invalid search form action")
		}
		action = resolved
	}

	target, err := url.Parse(action)
	if err != nil {
		return "", errors.Wrap(err, "invalid search form action")
	}

	values := url.Values{}
	form.Find(`input[type="hidden"]`).Each(func(_ int, hidden *goquery.Selection) {
		name, ok := hidden.Attr("name")
		if !ok || name == "" {
			return
		}
		value, _ := hidden.Attr("value")
		values.Set(name, value)
	})
	values.Set(param, query)
	target.RawQuery = values.Encode()

	return target.String(), nil
}

func (adapter *Adapter) ListChapters(ctx context.Context, page manga.Page, workURL string) ([]manga.Chapter, error) {
	if err := page.Navigate(ctx, workURL); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "error loading work page"), manga.ErrChapterListUnavailable)
	}

	base := pageBase(page, workURL)
	selectors := adapter.config.Chapters

	var chapters []manga.Chapter
	page.Document().Find(selectors.List).Each(func(_ int, item *goquery.Selection) {
		link := within(item, selectors.Link)
		href, ok := link.Attr("href")
		if !ok {
			return
		}
		chapterURL, err := manga.ResolveURL(base, href)
		if err != nil {
			return
		}

		title := ""
		if selectors.Title != "" {
			title = cleanText(within(item, selectors.Title).Text())
		}
		if title == "" {
			title = cleanText(item.Text())
		}

		chapters = append(chapters, manga.Chapter{Title: title, URL: chapterURL})
	})

	if len(chapters) == 0 {
		return nil, errors.Wrapf(manga.ErrChapterListUnavailable, "no chapters matched %q on %s", selectors.List, workURL)
	}
	return chapters, nil
}

func (adapter *Adapter) ExtractPageImageURLs(ctx context.Context, page manga.Page, chapterURL string) ([]string, error) {
	if page.Document() == nil {
		if err := page.Navigate(ctx, chapterURL); err != nil {
			return nil, errors.Wrap(err, "error loading chapter page")
		}
	}

	document := page.Document()
	base := pageBase(page, chapterURL)

	for _, imageSelector := range adapter.config.Reader.Images {
		var imageURLs []string
		seen := map[string]bool{}
		document.Find(imageSelector).Each(func(_ int, image *goquery.Selection) {
			src := imageSource(image, adapter.config.Prepare.LazyAttributes)
			if src == "" || strings.HasPrefix(src, "data:image") {
				return
			}
			resolved, err := manga.ResolveURL(base, src)
			if err != nil || seen[resolved] {
				return
			}
			seen[resolved] = true
			imageURLs = append(imageURLs, resolved)
		})

		if len(imageURLs) > 0 {
			return imageURLs, nil
		}
	}

	return nil, errors.Wrapf(manga.ErrNoImagesFound, "%s", chapterURL)
}

// PrepareChapterView switches the reader to its all-pages mode when the site
// has one and promotes lazy-loaded image attributes to src.
func (adapter *Adapter) PrepareChapterView(ctx context.Context, page manga.Page) error {
	prepare := adapter.config.Prepare

	if prepare.ReadingModeQuery != "" && page.URL() != nil {
		current := page.URL()
		extra, err := url.ParseQuery(prepare.ReadingModeQuery)
		if err != nil {
			return errors.Wrap(err, "invalid reading mode query")
		}
		query := current.Query()
		changed := false
		for key, values := range extra {
			if query.Get(key) != values[0] {
				query.Set(key, values[0])
				changed = true
			}
		}
		if changed {
			current.RawQuery = query.Encode()
			if err := page.Navigate(ctx, current.String()); err != nil {
				return errors.Wrap(err, "error switching reading mode")
			}
		}
	}

	document := page.Document()
	if document == nil {
		return nil
	}
	for _, attribute := range prepare.LazyAttributes {
		document.Find("img[" + attribute + "]").Each(func(_ int, image *goquery.Selection) {
			if value := strings.TrimSpace(image.AttrOr(attribute, "")); value != "" {
				image.SetAttr("src", value)
			}
		})
	}

	return nil
}

func within(item *goquery.Selection, selector string) *goquery.Selection {
	if selector == "" || item.Is(selector) {
		return item
	}
	return item.Find(selector).First()
}

func imageSource(image *goquery.Selection, lazyAttributes []string) string {
	src := strings.TrimSpace(image.AttrOr("src", ""))
	if src != "" && !strings.HasPrefix(src, "data:image") {
		return src
	}
	for _, attribute := range lazyAttributes {
		if value := strings.TrimSpace(image.AttrOr(attribute, "")); value != "" {
			return value
		}
	}
	if value := strings.TrimSpace(image.AttrOr("data-src", "")); value != "" {
		return value
	}
	return src
}

func pageBase(page manga.Page, fallback string) string {
	if current := page.URL(); current != nil {
		return current.String()
	}
	return fallback
}

func cleanText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
