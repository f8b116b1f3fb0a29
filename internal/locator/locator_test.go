package locator

import (
	"context"
	"fmt"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ssh-vom/mangadl/internal/providers/manga"
	"github.com/ssh-vom/mangadl/internal/providers/manga/mangatest"
)

func TestChapterNumber(t *testing.T) {
	cases := map[string]float64{
		"Chapter 12.5 - Title": 12.5,
		"Ch. 7":                7,
		"ch7":                  7,
		"EPISODE 3":            3,
		"Ep.40 finale":         40,
		"Prologue":             0,
		"Vol 2 Chapter 14":     14,
		"":                     0,
	}

	for title, want := range cases {
		assert.Equal(t, want, ChapterNumber(title), "title %q", title)
	}
}

func TestSearchTruncatesToTen(t *testing.T) {
	adapter := &mangatest.Adapter{}
	for index := 0; index < 15; index++ {
		adapter.Results = append(adapter.Results, manga.SearchResult{
			Title: fmt.Sprintf("Work %d", index),
			URL:   fmt.Sprintf("https://fake.example/work/%d", index),
		})
	}

	results, err := New(adapter, mangatest.NewPage(nil), zaptest.NewLogger(t)).Search(context.Background(), "work")
	require.NoError(t, err)
	require.Len(t, results, MaxResults)
	assert.Equal(t, "Work 0", results[0].Title)
	assert.Equal(t, "Work 9", results[9].Title)
}

func TestSearchFailureIsSearchUnavailable(t *testing.T) {
	adapter := &mangatest.Adapter{SearchErr: errors.New("selector timeout")}

	_, err := New(adapter, mangatest.NewPage(nil), nil).Search(context.Background(), "x")
	require.Error(t, err)
	assert.True(t, errors.Is(err, manga.ErrSearchUnavailable))
	assert.Contains(t, err.Error(), "selector timeout")
}

func TestChaptersSortedByExtractedNumber(t *testing.T) {
	workURL := "https://fake.example/work/1"
	adapter := &mangatest.Adapter{Chapters: map[string][]manga.Chapter{
		workURL: {
			{Title: "Chapter 3", URL: workURL + "/3"},
			{Title: "Extra", URL: workURL + "/extra"},
			{Title: "Chapter 1", URL: workURL + "/1"},
			{Title: "Chapter 2.5", URL: workURL + "/2.5"},
			{Title: "Notice", URL: workURL + "/notice"},
		},
	}}

	chapters, err := New(adapter, mangatest.NewPage(nil), nil).Chapters(context.Background(), workURL)
	require.NoError(t, err)

	titles := make([]string, 0, len(chapters))
	for _, chapter := range chapters {
		titles = append(titles, chapter.Title)
	}
	assert.Equal(t, []string{"Extra", "Notice", "Chapter 1", "Chapter 2.5", "Chapter 3"}, titles)
	assert.Equal(t, 2.5, chapters[3].Number)
}

func TestChaptersFailureIsChapterListUnavailable(t *testing.T) {
	adapter := &mangatest.Adapter{ChapterErr: errors.New("timeout")}

	_, err := New(adapter, mangatest.NewPage(nil), nil).Chapters(context.Background(), "https://fake.example/w")
	assert.True(t, errors.Is(err, manga.ErrChapterListUnavailable))
}
