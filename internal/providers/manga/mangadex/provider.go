package mangadex

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/ssh-vom/mangadl/internal/logging"
	"github.com/ssh-vom/mangadl/internal/providers/manga"
	"github.com/ssh-vom/mangadl/internal/retry"
)

const (
	Key               = "mangadex"
	defaultAPIBase    = "https://api.mangadex.org"
	defaultSiteBase   = "https://mangadex.org"
	coverBaseURL      = "https://uploads.mangadex.org"
	mangaDexUserAgent = "mangadl/0.1"
	searchLimit       = 10
	feedLimit         = 100
)

type Options struct {
	HTTPClient  *http.Client
	APIKey      string
	APIBase     string
	SiteBase    string
	Language    string
	BackoffUnit time.Duration
	Logger      *zap.Logger
}

type Provider struct {
	httpClient *http.Client
	apiKey     string
	apiBase    string
	siteBase   string
	language   string
	policy     retry.Policy
	logger     *zap.Logger
}

func New(options Options) *Provider {
	httpClient := options.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	backoffUnit := options.BackoffUnit
	if backoffUnit <= 0 {
		backoffUnit = 250 * time.Millisecond
	}

	return &Provider{
		httpClient: httpClient,
		apiKey:     strings.TrimSpace(options.APIKey),
		apiBase:    strings.TrimRight(orDefault(options.APIBase, defaultAPIBase), "/"),
		siteBase:   strings.TrimRight(orDefault(options.SiteBase, defaultSiteBase), "/"),
		language:   orDefault(options.Language, "en"),
		policy:     retry.Policy{Attempts: 3, Backoff: retry.Quadratic(backoffUnit)},
		logger:     logging.OrNop(options.Logger),
	}
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return strings.TrimSpace(value)
}

func (provider *Provider) Site() manga.Site {
	return manga.Site{
		Key:       Key,
		Name:      "MangaDex",
		BaseURL:   provider.siteBase,
		SearchURL: provider.apiBase + "/manga",
		API:       true,
	}
}

func (provider *Provider) Search(ctx context.Context, _ manga.Page, query string) ([]manga.SearchResult, error) {
	searchURL, err := url.Parse(provider.apiBase + "/manga")
	if err != nil {
		return nil, errors.Wrap(err, "error parsing search URL")
	}

	q := searchURL.Query()
	q.Set("title", query)
	q.Set("limit", fmt.Sprint(searchLimit))
	q.Add("includes[]", "cover_art")
	q.Set("order[relevance]", "desc")
	searchURL.RawQuery = q.Encode()

	var result mangaSearchResponse
	if err := provider.getJSON(ctx, searchURL.String(), &result); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "error making search request"), manga.ErrSearchUnavailable)
	}

	results := make([]manga.SearchResult, 0, len(result.Data))
	for _, entry := range result.Data {
		title := pickTitle(entry.Attributes.Title)
		if title == "" {
			continue
		}

		coverFileName := pickCoverFileName(entry.Relationships)
		results = append(results, manga.SearchResult{
			Title:    title,
			URL:      provider.siteBase + "/title/" + entry.ID,
			CoverURL: buildCoverURL(entry.ID, coverFileName),
		})
	}

	return results, nil
}

func (provider *Provider) ListChapters(ctx context.Context, _ manga.Page, workURL string) ([]manga.Chapter, error) {
	mangaID, err := idFromURL(workURL, "title")
	if err != nil {
		return nil, errors.Mark(err, manga.ErrChapterListUnavailable)
	}

	var chapters []manga.Chapter
	seen := make(map[string]bool)
	offset := 0

	for {
		feedURL, err := url.Parse(fmt.Sprintf("%s/manga/%s/feed", provider.apiBase, mangaID))
		if err != nil {
			return nil, errors.Wrap(err, "error parsing feed URL")
		}
		q := feedURL.Query()
		q.Set("limit", fmt.Sprint(feedLimit))
		q.Set("offset", fmt.Sprint(offset))
		q.Add("translatedLanguage[]", provider.language)
		for _, rating := range []string{"safe", "suggestive", "erotica"} {
			q.Add("contentRating[]", rating)
		}
		q.Set("includeFutureUpdates", "1")
		q.Set("order[volume]", "asc")
		q.Set("order[chapter]", "asc")
		feedURL.RawQuery = q.Encode()

		var response chapterResponse
		if err := provider.getJSON(ctx, feedURL.String(), &response); err != nil {
			return nil, errors.Mark(errors.Wrap(err, "error fetching chapters"), manga.ErrChapterListUnavailable)
		}

		for _, chapterData := range response.Data {
			if seen[chapterData.ID] {
				continue
			}
			if chapterData.Attributes.ExternalURL != "" || chapterData.Attributes.Pages == 0 {
				continue
			}
			seen[chapterData.ID] = true

			chapters = append(chapters, manga.Chapter{
				Title: chapterTitle(chapterData.Attributes.Volume, chapterData.Attributes.Chapter, chapterData.Attributes.Title),
				URL:   provider.siteBase + "/chapter/" + chapterData.ID,
			})
		}

		if len(response.Data) < feedLimit {
			break
		}
		offset += feedLimit
	}

	if len(chapters) == 0 {
		return nil, errors.Wrapf(manga.ErrChapterListUnavailable, "no readable chapters for %s", mangaID)
	}
	return chapters, nil
}

func (provider *Provider) ExtractPageImageURLs(ctx context.Context, _ manga.Page, chapterURL string) ([]string, error) {
	chapterID, err := idFromURL(chapterURL, "chapter")
	if err != nil {
		return nil, err
	}

	details, err := provider.fetchChapterDetails(ctx, chapterID)
	if err != nil {
		return nil, err
	}

	strategies := []struct {
		segment string
		files   []string
	}{
		{segment: "data", files: details.Chapter.Data},
		{segment: "data-saver", files: details.Chapter.DataSaver},
	}
	for _, strategy := range strategies {
		if len(strategy.files) == 0 {
			continue
		}
		imageURLs := make([]string, 0, len(strategy.files))
		for _, fileName := range strategy.files {
			imageURLs = append(imageURLs, fmt.Sprintf("%s/%s/%s/%s", details.BaseURL, strategy.segment, details.Chapter.Hash, fileName))
		}
		return imageURLs, nil
	}

	return nil, errors.Wrapf(manga.ErrNoImagesFound, "no pages returned for chapter %s", chapterID)
}

func (provider *Provider) fetchChapterDetails(ctx context.Context, chapterID string) (*chapterDetails, error) {
	endpoint := fmt.Sprintf("%s/at-home/server/%s", provider.apiBase, chapterID)

	result := retry.Do(ctx, provider.policy, func(ctx context.Context, attempt int) (*chapterDetails, error) {
		var details chapterDetails
		if err := provider.getOnce(ctx, endpoint, &details); err != nil {
			return nil, err
		}
		if details.Result != "ok" {
			return nil, errors.Newf("chapter details request returned %q", details.Result)
		}
		if details.BaseURL == "" || details.Chapter.Hash == "" {
			return nil, errors.Newf("chapter details missing baseUrl/hash for %s", chapterID)
		}
		return &details, nil
	})
	if result.Err != nil {
		return nil, errors.Wrap(result.Err, "error fetching chapter details")
	}
	return result.Value, nil
}

func (provider *Provider) getJSON(ctx context.Context, endpoint string, target any) error {
	result := retry.Do(ctx, provider.policy, func(ctx context.Context, attempt int) (struct{}, error) {
		if attempt > 1 {
			provider.logger.Debug("retrying mangadex request",
				zap.String(logging.FieldURL, endpoint),
				zap.Int(logging.FieldAttempt, attempt),
			)
		}
		return struct{}{}, provider.getOnce(ctx, endpoint, target)
	})
	return result.Err
}

func (provider *Provider) getOnce(ctx context.Context, endpoint string, target any) error {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return retry.Permanent(errors.Wrap(err, "error building request"))
	}
	provider.addHeaders(request)

	response, err := provider.httpClient.Do(request)
	if err != nil {
		return errors.Wrap(err, "request failed")
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return errors.Wrap(err, "error reading response")
	}

	if response.StatusCode != http.StatusOK {
		err := errors.Newf("request failed: %s %s", response.Status, strings.TrimSpace(string(body)))
		if !shouldRetry(response.StatusCode) {
			return retry.Permanent(err)
		}
		return err
	}

	if err := json.Unmarshal(body, target); err != nil {
		return errors.Wrap(err, "error parsing response")
	}
	return nil
}

func (provider *Provider) addHeaders(request *http.Request) {
	request.Header.Set("User-Agent", mangaDexUserAgent)
	if provider.apiKey == "" {
		return
	}
	request.Header.Set("Authorization", "Bearer "+provider.apiKey)
	request.Header.Set("X-Api-Key", provider.apiKey)
}

type mangaRelationship struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	Attributes struct {
		FileName string `json:"fileName"`
	} `json:"attributes"`
}

type mangaSearchResponse struct {
	Data []struct {
		ID         string `json:"id"`
		Attributes struct {
			Title map[string]string `json:"title"`
		} `json:"attributes"`
		Relationships []mangaRelationship `json:"relationships"`
	} `json:"data"`
}

type chapterResponse struct {
	Data []struct {
		ID         string `json:"id"`
		Attributes struct {
			Volume      string `json:"volume"`
			Chapter     string `json:"chapter"`
			Title       string `json:"title"`
			Pages       int    `json:"pages"`
			ExternalURL string `json:"externalUrl"`
		} `json:"attributes"`
	} `json:"data"`
}

type chapterDetails struct {
	Result  string `json:"result"`
	BaseURL string `json:"baseUrl"`
	Chapter struct {
		Hash      string   `json:"hash"`
		Data      []string `json:"data"`
		DataSaver []string `json:"dataSaver"`
	} `json:"chapter"`
}

func chapterTitle(volume, number, title string) string {
	label := "Oneshot"
	if number != "" {
		label = "Chapter " + number
	}
	if volume != "" {
		label = fmt.Sprintf("Vol. %s %s", volume, label)
	}
	if title != "" {
		label = fmt.Sprintf("%s - %s", label, title)
	}
	return label
}

func idFromURL(rawURL, kind string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", errors.Wrapf(err, "invalid %s url", kind)
	}

	segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	for index := 0; index+1 < len(segments); index++ {
		if segments[index] == kind && segments[index+1] != "" {
			return segments[index+1], nil
		}
	}
	return "", errors.Newf("no %s id in %q", kind, rawURL)
}

func buildCoverURL(mangaID, fileName string) string {
	if mangaID == "" || fileName == "" {
		return ""
	}

	return fmt.Sprintf("%s/covers/%s/%s.256.jpg", coverBaseURL, mangaID, fileName)
}

func pickCoverFileName(relationships []mangaRelationship) string {
	for _, relation := range relationships {
		if relation.Type != "cover_art" {
			continue
		}
		if relation.Attributes.FileName != "" {
			return relation.Attributes.FileName
		}
	}

	return ""
}

func pickTitle(titles map[string]string) string {
	if titles == nil {
		return ""
	}

	if value, ok := titles["en"]; ok {
		return value
	}

	for _, value := range titles {
		return value
	}

	return ""
}

func shouldRetry(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests || statusCode >= http.StatusInternalServerError
}
