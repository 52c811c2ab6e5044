// Package render draws the task list for a terminal
package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/vthunder/tasktracker/internal/tasks"
)

// DateFormat is how due dates appear in the list
const DateFormat = "Jan 02, 2006 03:04 PM"

const (
	columnWidthIndex = 4
	columnWidthCheck = 4
	columnWidthTitle = 28
	columnWidthDate  = 22
	columnWidthAlarm = 5

	headerWidth = columnWidthIndex + columnWidthCheck + columnWidthTitle + columnWidthDate + columnWidthAlarm
)

// Checkbox returns the completion marker for a row
func Checkbox(completed bool) string {
	if completed {
		return "[x]"
	}
	return "[ ]"
}

// Render draws one row per task in list order. Row backgrounds follow
// the urgency classification at now.
func Render(list []tasks.Task, now time.Time, nightMode bool) string {
	theme := ThemeFor(nightMode)

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.HeaderText)

	if len(list) == 0 {
		return lipgloss.NewStyle().Foreground(theme.FaintText).Render("No tasks.") + "\n"
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("%-*s%-*s%-*s%-*s%s",
		columnWidthIndex, "#",
		columnWidthCheck, "",
		columnWidthTitle, "TITLE",
		columnWidthDate, "DUE",
		"ALARM")))
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.BorderColor).Render(strings.Repeat("─", headerWidth)))
	b.WriteString("\n")

	for i, task := range list {
		b.WriteString(renderRow(i, task, now, theme))
		b.WriteString("\n")
	}
	return b.String()
}

func renderRow(index int, task tasks.Task, now time.Time, theme Theme) string {
	rowStyle := lipgloss.NewStyle().
		Background(theme.Background(tasks.Classify(task, now))).
		Foreground(theme.RowText)

	title := truncate(task.Title, columnWidthTitle-1)
	titleStyle := rowStyle.Width(columnWidthTitle)
	if task.IsCompleted {
		titleStyle = titleStyle.Strikethrough(true)
	}

	alarm := ""
	if task.AlarmType == tasks.AlarmNotification {
		alarm = "on"
	}

	row := rowStyle.Width(columnWidthIndex).Render(fmt.Sprintf("%d", index)) +
		rowStyle.Width(columnWidthCheck).Render(Checkbox(task.IsCompleted)) +
		titleStyle.Render(title) +
		rowStyle.Width(columnWidthDate).Render(task.Due().Local().Format(DateFormat)) +
		rowStyle.Render(alarm)

	if task.Description != "" {
		desc := lipgloss.NewStyle().
			Foreground(theme.FaintText).
			PaddingLeft(columnWidthIndex + columnWidthCheck).
			Render(task.Description)
		row += "\n" + desc
	}
	return row
}

func truncate(s string, maxWidth int) string {
	if lipgloss.Width(s) <= maxWidth {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes))+1 > maxWidth {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}
