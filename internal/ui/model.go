package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/cockroachdb/errors"

	"github.com/ssh-vom/mangadl/internal/app"
	"github.com/ssh-vom/mangadl/internal/providers/manga"
)

type viewState int

const (
	stateRunning viewState = iota
	stateChoosing
	stateDone
)

const maxLogLines = 6

var errChoiceCancelled = errors.New("selection cancelled")

type mangaResultItem struct {
	result manga.SearchResult
}

func (item mangaResultItem) Title() string       { return item.result.Title }
func (item mangaResultItem) Description() string { return item.result.URL }
func (item mangaResultItem) FilterValue() string { return item.result.Title }

type choiceReply struct {
	index int
	err   error
}

type chooseRequestMsg struct {
	results []manga.SearchResult
	reply   chan<- choiceReply
}

type runFinishedMsg struct {
	report app.Report
	err    error
}

type logMsg string

type model struct {
	state   viewState
	title   string
	site    string
	cancel  context.CancelFunc
	updates <-chan app.ProgressUpdate
	logs    <-chan logMsg

	spinner         spinner.Model
	progress        progress.Model
	progressCurrent int
	progressTotal   int
	progressMessage string
	runState        app.State
	finished        []app.ChapterResult

	resultsList list.Model
	reply       chan<- choiceReply

	report app.Report
	err    error

	width    int
	height   int
	logLines []string
}

func newModel(request app.Request, cancel context.CancelFunc, updates <-chan app.ProgressUpdate, logs <-chan logMsg) model {
	spinnerModel := spinner.New()
	spinnerModel.Spinner = spinner.Dot

	return model{
		state:    stateRunning,
		title:    request.Title,
		site:     request.Site,
		cancel:   cancel,
		updates:  updates,
		logs:     logs,
		spinner:  spinnerModel,
		progress: progress.New(progress.WithDefaultGradient()),
	}
}

func (model model) Init() tea.Cmd {
	commands := []tea.Cmd{model.spinner.Tick, listenProgressCmd(model.updates)}
	if model.logs != nil {
		commands = append(commands, listenLogCmd(model.logs))
	}
	return tea.Batch(commands...)
}

func (model model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		model.width = msg.Width
		model.height = msg.Height
		if model.state == stateChoosing {
			model.resultsList.SetSize(listWidth(msg.Width), listHeight(msg.Height))
		}
		progressWidth := msg.Width - 10
		if progressWidth < 10 {
			progressWidth = 10
		}
		model.progress.Width = progressWidth
		return model, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			model.answer(choiceReply{err: errChoiceCancelled})
			if model.cancel != nil {
				model.cancel()
			}
			return model, tea.Quit
		}
	case chooseRequestMsg:
		model.state = stateChoosing
		model.reply = msg.reply
		model.resultsList = newMangaResultsList(msg.results, listWidth(model.width), listHeight(model.height))
		return model, nil
	case app.ProgressUpdate:
		model.runState = msg.State
		model.progressCurrent = msg.Current
		model.progressTotal = msg.Total
		if msg.Message != "" {
			model.progressMessage = msg.Message
		}
		if msg.Result != nil {
			model.finished = append(model.finished, *msg.Result)
		}
		if msg.Done {
			return model, nil
		}
		var progressCmd tea.Cmd
		if msg.Total > 0 {
			progressCmd = model.progress.SetPercent(float64(msg.Current) / float64(msg.Total))
		}
		return model, tea.Batch(progressCmd, listenProgressCmd(model.updates))
	case runFinishedMsg:
		model.state = stateDone
		model.report = msg.report
		model.err = msg.err
		return model, nil
	case progress.FrameMsg:
		updatedModel, cmd := model.progress.Update(msg)
		if progressModel, ok := updatedModel.(progress.Model); ok {
			model.progress = progressModel
		}
		return model, cmd
	case logMsg:
		model.logLines = append(model.logLines, string(msg))
		if len(model.logLines) > maxLogLines {
			model.logLines = model.logLines[len(model.logLines)-maxLogLines:]
		}
		return model, listenLogCmd(model.logs)
	}

	return model.handleStateUpdate(msg)
}

func (model *model) handleStateUpdate(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch model.state {
	case stateRunning:
		var spinnerCmd tea.Cmd
		model.spinner, spinnerCmd = model.spinner.Update(msg)
		return *model, spinnerCmd
	case stateChoosing:
		return *model, model.updateChoosing(msg)
	case stateDone:
		if key, ok := msg.(tea.KeyMsg); ok {
			switch key.String() {
			case "q", "esc", "enter":
				return *model, tea.Quit
			}
		}
		return *model, nil
	default:
		return *model, nil
	}
}

func (model *model) updateChoosing(msg tea.Msg) tea.Cmd {
	if key, ok := msg.(tea.KeyMsg); ok && model.resultsList.FilterState() != list.Filtering {
		switch key.String() {
		case "enter":
			index := model.resultsList.Index()
			if item, ok := model.resultsList.SelectedItem().(mangaResultItem); ok {
				index = indexOf(model.resultsList.Items(), item)
			}
			model.answer(choiceReply{index: index})
			model.state = stateRunning
			return model.spinner.Tick
		case "esc", "q":
			model.answer(choiceReply{err: errChoiceCancelled})
			model.state = stateRunning
			return model.spinner.Tick
		}
	}

	var cmd tea.Cmd
	model.resultsList, cmd = model.resultsList.Update(msg)
	return cmd
}

func (model *model) answer(reply choiceReply) {
	if model.reply == nil {
		return
	}
	model.reply <- reply
	model.reply = nil
}

func indexOf(items []list.Item, target mangaResultItem) int {
	for index, item := range items {
		if candidate, ok := item.(mangaResultItem); ok && candidate.result == target.result {
			return index
		}
	}
	return -1
}

func (model model) View() string {
	view := ""

	switch model.state {
	case stateRunning:
		lines := []string{
			titleStyle.Render(fmt.Sprintf("Downloading %q from %s", model.title, model.site)),
			fmt.Sprintf("%s %s", model.spinner.View(), model.progressMessage),
		}
		if model.progressTotal > 0 {
			lines = append(lines,
				model.progress.View(),
				secondaryStyle.Render(fmt.Sprintf("%d/%d chapters · %s", model.progressCurrent, model.progressTotal, model.runState)),
			)
		}
		for _, result := range model.finished {
			lines = append(lines, chapterLine(result))
		}
		lines = append(lines, secondaryStyle.Render("ctrl+c to stop"))
		view = lipgloss.JoinVertical(lipgloss.Left, lines...)
	case stateChoosing:
		view = lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("Several works matched"),
			model.resultsList.View(),
			secondaryStyle.Render("Enter to select · / to filter · esc to cancel"),
		)
	case stateDone:
		view = lipgloss.JoinVertical(lipgloss.Left,
			RenderSummary(model.report),
			secondaryStyle.Render("Press q to exit"),
		)
	}

	if len(model.logLines) > 0 {
		view = lipgloss.JoinVertical(lipgloss.Left, view, "", model.logView())
	}
	return view
}

func (model model) logView() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		panelTitleStyle.Render("Logs"),
		strings.Join(model.logLines, "\n"),
	)
}

func listWidth(width int) int {
	if width <= 4 {
		return 80
	}
	return width - 4
}

func listHeight(height int) int {
	if height <= 0 {
		return 20
	}
	if height <= 10 {
		return height
	}

	return height - 8
}

func newMangaResultsList(results []manga.SearchResult, width, height int) list.Model {
	items := make([]list.Item, 0, len(results))
	for _, result := range results {
		items = append(items, mangaResultItem{result: result})
	}

	resultList := list.New(items, list.NewDefaultDelegate(), width, height)
	resultList.Title = "Results"
	resultList.SetShowStatusBar(false)
	resultList.SetFilteringEnabled(true)
	resultList.SetShowHelp(false)

	return resultList
}

func listenProgressCmd(updates <-chan app.ProgressUpdate) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-updates
		if !ok {
			return app.ProgressUpdate{Done: true}
		}
		return msg
	}
}

func listenLogCmd(ch <-chan logMsg) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}
