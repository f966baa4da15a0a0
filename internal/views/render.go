package views

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

type AppData struct {
	Header        string
	LeftPane      string
	RightPane     string
	StatusLine    string
	StatusIsError bool
	Footer        string
	Notification  string
}

const (
	leftPaneWidth  = 60
	rightPaneWidth = 56
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	panelStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	overdueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	dueTodayStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	urgentStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("13")).Bold(true)
	doneStyle     = lipgloss.NewStyle().Faint(true).Strikethrough(true)
)

// styleTaskRow colors a rendered row by how urgently it needs attention.
// Overdue wins over due-today, which wins over priority; finished work
// fades out.
func styleTaskRow(row TaskRowData, line string) string {
	switch {
	case row.Status == "Completed":
		return doneStyle.Render(line)
	case row.Overdue:
		return overdueStyle.Render(line)
	case row.DueToday:
		return dueTodayStyle.Render(line)
	case row.Priority == "Urgent":
		return urgentStyle.Render(line)
	default:
		return line
	}
}

// rowMarker is the plain-text cue that survives terminals without color.
func rowMarker(row TaskRowData) string {
	switch {
	case row.Status == "Completed":
		return ""
	case row.Overdue:
		return "! "
	case row.DueToday:
		return "* "
	default:
		return ""
	}
}

func RenderApp(data AppData) string {
	left := panelStyle.Width(leftPaneWidth).Render(data.LeftPane)
	right := panelStyle.Width(rightPaneWidth).Render(data.RightPane)

	sections := []string{
		headerStyle.Render(data.Header),
		lipgloss.JoinHorizontal(lipgloss.Top, left, right),
	}
	if data.StatusLine != "" {
		style := statusStyle
		if data.StatusIsError {
			style = errorStyle
		}
		sections = append(sections, style.Render(data.StatusLine))
	}
	if data.Notification != "" {
		sections = append(sections, panelStyle.Render(data.Notification))
	}
	if data.Footer != "" {
		sections = append(sections, footerStyle.Render(data.Footer))
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// RenderMarkdown renders task notes wrapped to the detail pane. Raw
// markdown is better than nothing, so render failures fall back to it.
func RenderMarkdown(md string) string {
	if strings.TrimSpace(md) == "" {
		return ""
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(rightPaneWidth-2),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimSpace(out)
}
