package prompt

import (
	"context"
	"testing"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssh-vom/mangadl/internal/providers/manga"
)

func scripted(answer func(question survey.Prompt, response interface{})) AskFunc {
	return func(question survey.Prompt, response interface{}, _ ...survey.AskOpt) error {
		answer(question, response)
		return nil
	}
}

func TestAskSiteReturnsKey(t *testing.T) {
	sites := []manga.Site{{Key: "mangadex", Name: "MangaDex"}, {Key: "sushiscan", Name: "SushiScan"}}
	var options []string
	prompter := NewWithAsk(scripted(func(question survey.Prompt, response interface{}) {
		options = question.(*survey.Select).Options
		*response.(*int) = 1
	}))

	key, err := prompter.AskSite(sites)
	require.NoError(t, err)
	assert.Equal(t, "sushiscan", key)
	assert.Equal(t, []string{"MangaDex (mangadex)", "SushiScan (sushiscan)"}, options)
}

func TestAskRangeDefaultsToAll(t *testing.T) {
	prompter := NewWithAsk(scripted(func(question survey.Prompt, response interface{}) {
		assert.Equal(t, DefaultRange, question.(*survey.Input).Default)
		*response.(*string) = "  "
	}))

	expression, err := prompter.AskRange()
	require.NoError(t, err)
	assert.Equal(t, "all", expression)
}

func TestAskTitleTrims(t *testing.T) {
	prompter := NewWithAsk(scripted(func(_ survey.Prompt, response interface{}) {
		*response.(*string) = "  One Piece "
	}))

	title, err := prompter.AskTitle()
	require.NoError(t, err)
	assert.Equal(t, "One Piece", title)
}

func TestInterruptIsCancelled(t *testing.T) {
	prompter := NewWithAsk(func(survey.Prompt, interface{}, ...survey.AskOpt) error {
		return terminal.InterruptErr
	})

	_, err := prompter.AskTitle()
	assert.True(t, errors.Is(err, ErrCancelled))
}

func TestChooseListsResults(t *testing.T) {
	results := []manga.SearchResult{{Title: "Blue Lock"}, {Title: "Blue Lock: Episode Nagi"}}
	prompter := NewWithAsk(scripted(func(question survey.Prompt, response interface{}) {
		assert.Equal(t, []string{"1. Blue Lock", "2. Blue Lock: Episode Nagi"}, question.(*survey.Select).Options)
		*response.(*int) = 1
	}))

	index, err := prompter.Choose(context.Background(), results)
	require.NoError(t, err)
	assert.Equal(t, 1, index)
}

func TestFixedChooser(t *testing.T) {
	results := []manga.SearchResult{{Title: "A"}, {Title: "B"}}

	index, err := FixedChooser(2).Choose(context.Background(), results)
	require.NoError(t, err)
	assert.Equal(t, 1, index)

	_, err = FixedChooser(3).Choose(context.Background(), results)
	assert.True(t, errors.Is(err, manga.ErrInvalidChoice))
}

func TestSiteOption(t *testing.T) {
	assert.Equal(t, "fake", SiteOption(manga.Site{Key: "fake", Name: "Fake"}))
	assert.Equal(t, "fake", SiteOption(manga.Site{Key: "fake"}))
}
