package mangadex

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ssh-vom/mangadl/internal/providers/manga"
)

func newTestProvider(t *testing.T, handler http.Handler) *Provider {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return New(Options{
		APIBase:     server.URL,
		APIKey:      "secret",
		BackoffUnit: time.Millisecond,
		Logger:      zaptest.NewLogger(t),
	})
}

func TestSearch(t *testing.T) {
	var authHeader string
	provider := newTestProvider(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		authHeader = request.Header.Get("Authorization")
		assert.Equal(t, "/manga", request.URL.Path)
		assert.Equal(t, "frieren", request.URL.Query().Get("title"))
		fmt.Fprint(writer, `{"data":[
			{"id":"m1","attributes":{"title":{"en":"Frieren"}},"relationships":[{"type":"cover_art","attributes":{"fileName":"c.jpg"}}]},
			{"id":"m2","attributes":{"title":{}},"relationships":[]},
			{"id":"m3","attributes":{"title":{"ja":"Sousou no Frieren"}},"relationships":[]}
		]}`)
	}))

	results, err := provider.Search(context.Background(), nil, "frieren")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, manga.SearchResult{
		Title:    "Frieren",
		URL:      "https://mangadex.org/title/m1",
		CoverURL: "https://uploads.mangadex.org/covers/m1/c.jpg.256.jpg",
	}, results[0])
	assert.Equal(t, "Sousou no Frieren", results[1].Title)
	assert.Equal(t, "Bearer secret", authHeader)
}

func TestSearchFailureIsUnavailable(t *testing.T) {
	provider := newTestProvider(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		http.Error(writer, "nope", http.StatusBadRequest)
	}))

	_, err := provider.Search(context.Background(), nil, "x")
	assert.True(t, errors.Is(err, manga.ErrSearchUnavailable))
}

func TestListChaptersPaginatesAndFilters(t *testing.T) {
	provider := newTestProvider(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, "/manga/m1/feed", request.URL.Path)
		if request.URL.Query().Get("offset") == "0" {
			fmt.Fprint(writer, `{"data":[`)
			for index := 0; index < feedLimit; index++ {
				if index > 0 {
					fmt.Fprint(writer, ",")
				}
				fmt.Fprintf(writer, `{"id":"c%d","attributes":{"chapter":"%d","pages":5}}`, index, index+1)
			}
			fmt.Fprint(writer, `]}`)
			return
		}
		fmt.Fprint(writer, `{"data":[
			{"id":"c0","attributes":{"chapter":"1","pages":5}},
			{"id":"ext","attributes":{"chapter":"102","pages":5,"externalUrl":"https://elsewhere"}},
			{"id":"empty","attributes":{"chapter":"103","pages":0}},
			{"id":"last","attributes":{"volume":"9","chapter":"101.5","title":"Side Story","pages":3}}
		]}`)
	}))

	chapters, err := provider.ListChapters(context.Background(), nil, "https://mangadex.org/title/m1/frieren")
	require.NoError(t, err)
	require.Len(t, chapters, feedLimit+1)
	assert.Equal(t, "Chapter 1", chapters[0].Title)
	assert.Equal(t, "https://mangadex.org/chapter/c0", chapters[0].URL)
	assert.Equal(t, "Vol. 9 Chapter 101.5 - Side Story", chapters[feedLimit].Title)
}

func TestListChaptersRejectsForeignURL(t *testing.T) {
	provider := New(Options{})

	_, err := provider.ListChapters(context.Background(), nil, "https://mangadex.org/user/abc")
	assert.True(t, errors.Is(err, manga.ErrChapterListUnavailable))
}

func TestExtractPageImageURLsRetriesAndFallsBack(t *testing.T) {
	var calls atomic.Int32
	provider := newTestProvider(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, "/at-home/server/c1", request.URL.Path)
		if calls.Add(1) == 1 {
			http.Error(writer, "slow down", http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(writer, `{"result":"ok","baseUrl":"https://node.example","chapter":{"hash":"h","data":[],"dataSaver":["1.jpg","2.jpg"]}}`)
	}))

	imageURLs, err := provider.ExtractPageImageURLs(context.Background(), nil, "https://mangadex.org/chapter/c1")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://node.example/data-saver/h/1.jpg",
		"https://node.example/data-saver/h/2.jpg",
	}, imageURLs)
	assert.EqualValues(t, 2, calls.Load())
}

func TestExtractPageImageURLsNoPages(t *testing.T) {
	provider := newTestProvider(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		fmt.Fprint(writer, `{"result":"ok","baseUrl":"https://node.example","chapter":{"hash":"h"}}`)
	}))

	_, err := provider.ExtractPageImageURLs(context.Background(), nil, "https://mangadex.org/chapter/c1")
	assert.True(t, errors.Is(err, manga.ErrNoImagesFound))
}

func TestSiteIsAPI(t *testing.T) {
	site := New(Options{}).Site()
	assert.Equal(t, Key, site.Key)
	assert.True(t, site.API)
	assert.Equal(t, "https://mangadex.org", site.BaseURL)
}
