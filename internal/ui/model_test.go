package ui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssh-vom/mangadl/internal/app"
	"github.com/ssh-vom/mangadl/internal/fetch"
	"github.com/ssh-vom/mangadl/internal/providers/manga"
)

func update(t *testing.T, current model, msg tea.Msg) model {
	next, _ := current.Update(msg)
	updated, ok := next.(model)
	require.True(t, ok)
	return updated
}

func TestModelChoosingRepliesWithSelectedIndex(t *testing.T) {
	current := newModel(app.Request{Title: "blue lock", Site: "fake"}, nil, make(chan app.ProgressUpdate), nil)
	current = update(t, current, tea.WindowSizeMsg{Width: 100, Height: 30})

	reply := make(chan choiceReply, 1)
	current = update(t, current, chooseRequestMsg{
		results: []manga.SearchResult{
			{Title: "Blue Lock", URL: "https://fake.example/1"},
			{Title: "Blue Lock: Episode Nagi", URL: "https://fake.example/2"},
		},
		reply: reply,
	})
	assert.Equal(t, stateChoosing, current.state)
	assert.Contains(t, current.View(), "Several works matched")

	current = update(t, current, tea.KeyMsg{Type: tea.KeyDown})
	current = update(t, current, tea.KeyMsg{Type: tea.KeyEnter})

	answer := <-reply
	require.NoError(t, answer.err)
	assert.Equal(t, 1, answer.index)
	assert.Equal(t, stateRunning, current.state)
}

func TestModelChoosingCancel(t *testing.T) {
	current := newModel(app.Request{}, nil, make(chan app.ProgressUpdate), nil)

	reply := make(chan choiceReply, 1)
	current = update(t, current, chooseRequestMsg{results: []manga.SearchResult{{Title: "A"}, {Title: "B"}}, reply: reply})
	update(t, current, tea.KeyMsg{Type: tea.KeyEsc})

	answer := <-reply
	assert.True(t, errors.Is(answer.err, errChoiceCancelled))
}

func TestModelCtrlCCancelsRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	current := newModel(app.Request{}, cancel, make(chan app.ProgressUpdate), nil)

	_, cmd := current.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Error(t, ctx.Err())
}

func TestModelTracksProgressAndSummary(t *testing.T) {
	updates := make(chan app.ProgressUpdate, 1)
	current := newModel(app.Request{Title: "blue lock", Site: "fake"}, nil, updates, nil)

	result := app.ChapterResult{Chapter: manga.Chapter{Title: "Chapter 1", Number: 1}, Status: app.StatusSuccess, ImageCount: 3}
	current = update(t, current, app.ProgressUpdate{State: app.StateArchiving, Current: 1, Total: 2, Message: "Chapter 1/2: success Chapter 1", Result: &result})
	assert.Equal(t, 1, current.progressCurrent)
	assert.Len(t, current.finished, 1)
	assert.Contains(t, current.View(), "1/2 chapters")

	report := app.Report{
		Site: manga.Site{Name: "Fake"},
		Work: manga.SearchResult{Title: "Blue Lock"},
		Chapters: []app.ChapterResult{
			result,
			{Chapter: manga.Chapter{Title: "Chapter 2", Number: 2}, Status: app.StatusSkipped, Err: errors.New("none of 2 images downloaded"), Failures: []fetch.Outcome{{Index: 1}, {Index: 2}}},
		},
	}
	current = update(t, current, runFinishedMsg{report: report})
	assert.Equal(t, stateDone, current.state)

	view := current.View()
	assert.Contains(t, view, "Summary")
	assert.Contains(t, view, "Chapter 2")
	assert.Contains(t, view, "1 succeeded · 1 skipped · 0 failed")

	_, cmd := current.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	assert.NotNil(t, cmd)
}

func TestModelKeepsRecentLogLines(t *testing.T) {
	logs := make(chan logMsg, 10)
	current := newModel(app.Request{}, nil, make(chan app.ProgressUpdate), logs)
	for index := 0; index < maxLogLines+3; index++ {
		current = update(t, current, logMsg(strings.Repeat("x", index+1)))
	}

	assert.Len(t, current.logLines, maxLogLines)
	assert.Equal(t, strings.Repeat("x", maxLogLines+3), current.logLines[maxLogLines-1])
	assert.Contains(t, current.View(), "Logs")
}

func TestRenderSummaryListsEveryChapter(t *testing.T) {
	report := app.Report{
		Chapters: []app.ChapterResult{
			{Chapter: manga.Chapter{Title: "Chapter 1"}, Status: app.StatusSuccess, ImageCount: 10, PublishErr: errors.New("offline")},
			{Chapter: manga.Chapter{Title: "Chapter 2"}, Status: app.StatusFailed, Err: errors.New("no images found")},
		},
		Err: context.Canceled,
	}

	summary := RenderSummary(report)
	assert.Contains(t, summary, "Chapter 1")
	assert.Contains(t, summary, "10 images")
	assert.Contains(t, summary, "publish: offline")
	assert.Contains(t, summary, "no images found")
	assert.Contains(t, summary, "1 succeeded · 0 skipped · 1 failed")
	assert.Contains(t, summary, "Run stopped")
}

func TestLogSinkSplitsLines(t *testing.T) {
	sink := NewLogSink()
	written, err := sink.Write([]byte("first\n\n  second  \n"))
	require.NoError(t, err)
	assert.Equal(t, len("first\n\n  second  \n"), written)

	assert.Equal(t, logMsg("first"), <-sink.channel)
	assert.Equal(t, logMsg("second"), <-sink.channel)
}
