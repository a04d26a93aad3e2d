package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jblairy/techwatch/internal/record"
)

func renderPreview(rec *record.Record, width, height, scroll int) string {
	if rec == nil {
		return centerText("Select an article", width, height)
	}

	contentWidth := width - 2
	if contentWidth < 10 {
		contentWidth = 10
	}

	title := previewTitleStyle.Width(contentWidth).Render(rec.Title)

	date := "undated"
	if rec.HasDate() {
		date = rec.Date.Format("Jan 2, 2006")
	}
	source := previewSourceStyle.Render(fmt.Sprintf("%s · %s", rec.Origin, date))

	summary := rec.Summary
	if summary == "" {
		summary = "(No summary available)"
	}

	body := previewBodyStyle.Width(contentWidth).Render(wrapText(summary, contentWidth))
	link := previewLinkStyle.Width(contentWidth).Render("Read more: " + rec.URL)

	content := lipgloss.JoinVertical(lipgloss.Left, title, source, "", body, "", link)

	// Apply scroll offset
	lines := strings.Split(content, "\n")
	if scroll > 0 && scroll < len(lines) {
		lines = lines[scroll:]
	}

	// Pad to fill height
	if len(lines) < height {
		lines = append(lines, make([]string, height-len(lines))...)
	} else if len(lines) > height {
		lines = lines[:height]
	}

	return strings.Join(lines, "\n")
}

func wrapText(s string, width int) string {
	if width <= 0 {
		return s
	}
	words := strings.Fields(s)
	if len(words) == 0 {
		return ""
	}

	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		if len(line)+1+len(w) > width {
			lines = append(lines, line)
			line = w
		} else {
			line += " " + w
		}
	}
	lines = append(lines, line)
	return strings.Join(lines, "\n")
}
