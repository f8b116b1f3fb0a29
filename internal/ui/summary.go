package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ssh-vom/mangadl/internal/app"
	"github.com/ssh-vom/mangadl/internal/providers/manga"
)

func RenderSummary(report app.Report) string {
	lines := []string{titleStyle.Render("Summary")}

	if report.Work.Title != "" {
		lines = append(lines, secondaryStyle.Render(fmt.Sprintf("%s on %s", report.Work.Title, report.Site.Name)))
	}

	for _, chapter := range report.Chapters {
		lines = append(lines, chapterLine(chapter))
	}

	lines = append(lines, fmt.Sprintf("%d succeeded · %d skipped · %d failed",
		report.Count(app.StatusSuccess),
		report.Count(app.StatusSkipped),
		report.Count(app.StatusFailed),
	))

	if report.Err != nil {
		lines = append(lines, warningStyle.Render("Run stopped: "+report.Err.Error()))
	}

	return panelStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func chapterLine(chapter app.ChapterResult) string {
	label := manga.FormatChapterLabel(chapter.Chapter)

	var status string
	switch chapter.Status {
	case app.StatusSuccess:
		status = successStyle.Render("✓ success")
	case app.StatusSkipped:
		status = skippedStyle.Render("- skipped")
	default:
		status = warningStyle.Render("✗ failed ")
	}

	details := []string{}
	if chapter.Status == app.StatusSuccess {
		details = append(details, fmt.Sprintf("%d images", chapter.ImageCount))
	}
	if len(chapter.Failures) > 0 {
		details = append(details, fmt.Sprintf("%d missing", len(chapter.Failures)))
	}
	if chapter.Err != nil {
		details = append(details, chapter.Err.Error())
	}
	if chapter.PublishErr != nil {
		details = append(details, "publish: "+chapter.PublishErr.Error())
	}

	line := fmt.Sprintf("%s  %s", status, label)
	if len(details) > 0 {
		line += secondaryStyle.Render("  (" + strings.Join(details, ", ") + ")")
	}
	return line
}
