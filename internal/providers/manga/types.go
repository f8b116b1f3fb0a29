package manga

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

type Site struct {
	Key       string
	Name      string
	BaseURL   string
	SearchURL string
	API       bool
}

type SearchResult struct {
	Title    string
	URL      string
	CoverURL string
}

type Chapter struct {
	Title  string
	URL    string
	Number float64
}

var (
	unsafeFileChars = strings.NewReplacer(
		"<", "_", ">", "_", ":", "_", "\"", "_", "/", "_",
		"\\", "_", "|", "_", "?", "_", "*", "_",
	)
	whitespaceRun = regexp.MustCompile(`\s+`)
)

func Sanitize(name string) string {
	cleaned := unsafeFileChars.Replace(name)
	cleaned = whitespaceRun.ReplaceAllString(cleaned, " ")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return "untitled"
	}

	return cleaned
}

func FormatChapterLabel(chapter Chapter) string {
	if title := strings.TrimSpace(chapter.Title); title != "" {
		return title
	}

	return fmt.Sprintf("Chapter %s", strconv.FormatFloat(chapter.Number, 'f', -1, 64))
}

func ResolveURL(base, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", errors.New("empty reference")
	}

	baseURL, err := url.Parse(base)
	if err != nil {
		return "", errors.Wrapf(err, "unable to parse base url %q", base)
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return "", errors.Wrapf(err, "unable to parse reference %q", ref)
	}

	return baseURL.ResolveReference(refURL).String(), nil
}
