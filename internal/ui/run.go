package ui

import (
	"context"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/cockroachdb/errors"

	"github.com/ssh-vom/mangadl/internal/app"
	"github.com/ssh-vom/mangadl/internal/providers/manga"
)

// Runner executes a download job, asking chooser when the search is ambiguous
// and reporting progress on updates.
type Runner func(ctx context.Context, chooser app.Chooser, updates chan<- app.ProgressUpdate) (app.Report, error)

type programChooser struct {
	program *tea.Program
}

func (chooser programChooser) Choose(ctx context.Context, results []manga.SearchResult) (int, error) {
	reply := make(chan choiceReply, 1)
	chooser.program.Send(chooseRequestMsg{results: results, reply: reply})

	select {
	case <-ctx.Done():
		return -1, ctx.Err()
	case answer := <-reply:
		return answer.index, answer.err
	}
}

// Run shows the job in a full-screen TUI until the user dismisses the summary.
func Run(ctx context.Context, request app.Request, logs *LogSink, run Runner) (app.Report, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	updates := make(chan app.ProgressUpdate, 64)
	var logChannel <-chan logMsg
	if logs != nil {
		logChannel = logs.channel
	}

	program := tea.NewProgram(newModel(request, cancel, updates, logChannel), tea.WithAltScreen(), tea.WithContext(ctx))

	type outcome struct {
		report app.Report
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		report, err := run(ctx, programChooser{program: program}, updates)
		done <- outcome{report: report, err: err}
		program.Send(runFinishedMsg{report: report, err: err})
	}()

	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		cancel()
		result := <-done
		return result.report, errors.CombineErrors(result.err, errors.Wrap(err, "TUI error"))
	}

	cancel()
	result := <-done
	return result.report, result.err
}

// LogSink is an io.Writer that forwards log lines to the TUI log pane.
type LogSink struct {
	channel chan logMsg
}

func NewLogSink() *LogSink {
	return &LogSink{channel: make(chan logMsg, 200)}
}

var _ io.Writer = (*LogSink)(nil)

func (sink *LogSink) Write(data []byte) (int, error) {
	message := strings.TrimSpace(string(data))
	if message == "" {
		return len(data), nil
	}

	for _, line := range strings.Split(message, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		select {
		case sink.channel <- logMsg(line):
		default:
		}
	}

	return len(data), nil
}
