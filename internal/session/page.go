package session

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ssh-vom/mangadl/internal/logging"
)

const DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

type Options struct {
	UserAgent         string
	Timeout           time.Duration
	RequestsPerSecond float64
	HTTPClient        *http.Client
	Logger            *zap.Logger
}

// Page is an HTTP backed document session. Navigation is serialized and paced.
type Page struct {
	mu         sync.Mutex
	httpClient *http.Client
	limiter    *rate.Limiter
	userAgent  string
	logger     *zap.Logger

	document *goquery.Document
	current  *url.URL
	closed   bool
}

func Open(options Options) *Page {
	httpClient := options.HTTPClient
	if httpClient == nil {
		timeout := options.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	limit := rate.Inf
	if options.RequestsPerSecond > 0 {
		limit = rate.Limit(options.RequestsPerSecond)
	}

	userAgent := options.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	return &Page{
		httpClient: httpClient,
		limiter:    rate.NewLimiter(limit, 1),
		userAgent:  userAgent,
		logger:     logging.OrNop(options.Logger),
	}
}

func (page *Page) Navigate(ctx context.Context, rawURL string) error {
	page.mu.Lock()
	defer page.mu.Unlock()

	if page.closed {
		return errors.New("page session is closed")
	}

	target, err := url.Parse(rawURL)
	if err != nil {
		return errors.Wrapf(err, "invalid url %q", rawURL)
	}
	if !target.IsAbs() {
		return errors.Newf("url %q is not absolute", rawURL)
	}

	if err := page.limiter.Wait(ctx); err != nil {
		return errors.Wrap(err, "error waiting for request slot")
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return errors.Wrap(err, "error building page request")
	}
	request.Header.Set("User-Agent", page.userAgent)
	request.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	request.Header.Set("Accept-Language", "en-US,en;q=0.9")
	if page.current != nil {
		request.Header.Set("Referer", page.current.String())
	}

	page.logger.Debug("navigating", zap.String(logging.FieldURL, target.String()))
	response, err := page.httpClient.Do(request)
	if err != nil {
		return errors.Wrapf(err, "error loading %s", target)
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(response.Body, 512))
		return errors.Newf("page request failed: %s %s", response.Status, string(body))
	}

	document, err := goquery.NewDocumentFromReader(response.Body)
	if err != nil {
		return errors.Wrap(err, "error parsing page")
	}

	final := target
	if response.Request != nil && response.Request.URL != nil {
		final = response.Request.URL
	}
	document.Url = final

	page.document = document
	page.current = final
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
	if page.current == nil {
		return nil
	}
	copied := *page.current
	return &copied
}

func (page *Page) Close() error {
	page.mu.Lock()
	defer page.mu.Unlock()
	if page.closed {
		return nil
	}
	page.closed = true
	page.document = nil
	page.httpClient.CloseIdleConnections()
	return nil
}
