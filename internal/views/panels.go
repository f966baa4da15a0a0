package views

import (
	"fmt"
	"strings"
)

type TaskRowData struct {
	Index    int
	Title    string
	Status   string
	Priority string
	Category string
	DueAt    string
	Overdue  bool
	DueToday bool
}

type TaskListPanelData struct {
	QuickAddView string
	ListView     string
	Rows         []TaskRowData
	CursorRow    int
	Completed    int
	Pending      int
}

type DetailPanelData struct {
	ID           string
	MarkdownView string
	Tags         []string
}

type CategoryCountData struct {
	Category string
	Count    int
}

type StatsPanelData struct {
	Total      int
	Completed  int
	Pending    int
	Overdue    int
	Categories []CategoryCountData
}

type HelpPanelData struct {
	CurrentView string
	Bindings    []string
	HelpView    string
}

func RenderTaskListPanel(data TaskListPanelData) string {
	var b strings.Builder
	b.WriteString("tasks:\n")
	if data.QuickAddView != "" {
		b.WriteString(data.QuickAddView + "\n")
	}
	b.WriteString("actions: [j/k]move [d]done [p]start [x]delete [r]reload\n")
	b.WriteString(data.ListView + "\n")

	if len(data.Rows) == 0 {
		b.WriteString("(no tasks)\n")
	}
	for i, row := range data.Rows {
		cursor := " "
		if i == data.CursorRow {
			cursor = ">"
		}
		line := fmt.Sprintf("%2d. %s%s", row.Index, rowMarker(row), row.Title)
		if row.Category != "" && row.Category != "default" {
			line += " @" + row.Category
		}
		if row.DueAt != "" {
			line += " due:" + row.DueAt
		}
		line += fmt.Sprintf(" [%s]", row.Status)
		b.WriteString(cursor + " " + styleTaskRow(row, line) + "\n")
	}
	b.WriteString(fmt.Sprintf("\npending: %d | completed: %d", data.Pending, data.Completed))
	return strings.TrimSpace(b.String())
}

func RenderDetailPanel(data DetailPanelData) string {
	var b strings.Builder
	b.WriteString("detail:\n")
	b.WriteString(fmt.Sprintf("id: %s\n", data.ID))
	if len(data.Tags) > 0 {
		b.WriteString(fmt.Sprintf("tags: %s\n", strings.Join(data.Tags, ",")))
	}
	b.WriteString(data.MarkdownView)
	return strings.TrimSpace(b.String())
}

func RenderStatsPanel(data StatsPanelData) string {
	var b strings.Builder
	b.WriteString("statistics:\n")
	b.WriteString(fmt.Sprintf("total: %d\n", data.Total))
	b.WriteString(fmt.Sprintf("pending: %d\n", data.Pending))
	b.WriteString(fmt.Sprintf("completed: %d\n", data.Completed))
	b.WriteString(fmt.Sprintf("overdue: %d\n", data.Overdue))
	if data.Total > 0 {
		pct := data.Completed * 100 / data.Total
		b.WriteString(fmt.Sprintf("completion: %d%%\n", pct))
	}
	if len(data.Categories) > 0 {
		b.WriteString("\nby category:\n")
		for _, c := range data.Categories {
			b.WriteString(fmt.Sprintf("- %s: %d\n", c.Category, c.Count))
		}
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func RenderCommandPalette(active bool, inputView string) string {
	if !active {
		return ""
	}
	return fmt.Sprintf("command: %s", inputView)
}

func RenderHelpPanel(data HelpPanelData) string {
	return fmt.Sprintf("help:\n%s view:\n%s\n%s",
		strings.ToLower(data.CurrentView),
		strings.Join(data.Bindings, "\n"),
		data.HelpView,
	)
}
