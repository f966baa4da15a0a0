package views

import (
	"strings"
	"testing"
)

func TestRowMarkerPrecedence(t *testing.T) {
	cases := []struct {
		name string
		row  TaskRowData
		want string
	}{
		{"overdue", TaskRowData{Overdue: true, DueToday: true}, "! "},
		{"due today", TaskRowData{DueToday: true}, "* "},
		{"completed overdue", TaskRowData{Status: "Completed", Overdue: true}, ""},
		{"plain", TaskRowData{}, ""},
	}
	for _, tc := range cases {
		if got := rowMarker(tc.row); got != tc.want {
			t.Errorf("%s: rowMarker = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestRenderTaskListPanelRows(t *testing.T) {
	out := RenderTaskListPanel(TaskListPanelData{
		Rows: []TaskRowData{
			{Index: 1, Title: "Pay rent", Status: "Pending", Category: "bills", DueAt: "2026-03-01", Overdue: true},
			{Index: 2, Title: "Water plants", Status: "Completed", Category: "default"},
		},
		CursorRow: 0,
		Pending:   1,
		Completed: 1,
	})

	if !strings.Contains(out, "! Pay rent @bills due:2026-03-01 [Pending]") {
		t.Fatalf("overdue row not rendered with marker:\n%s", out)
	}
	if !strings.Contains(out, "Water plants [Completed]") {
		t.Fatalf("completed row missing:\n%s", out)
	}
	if strings.Contains(out, "@default") {
		t.Fatalf("default category should stay implicit:\n%s", out)
	}
	if !strings.Contains(out, "pending: 1 | completed: 1") {
		t.Fatalf("counts footer missing:\n%s", out)
	}
	cursorLine := ""
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, ">") {
			cursorLine = line
		}
	}
	if !strings.Contains(cursorLine, "Pay rent") {
		t.Fatalf("cursor not on first row:\n%s", out)
	}
}

func TestRenderTaskListPanelEmpty(t *testing.T) {
	out := RenderTaskListPanel(TaskListPanelData{})
	if !strings.Contains(out, "(no tasks)") {
		t.Fatalf("empty state missing:\n%s", out)
	}
}

func TestRenderAppSections(t *testing.T) {
	out := RenderApp(AppData{
		Header:        "memo | view: tasks",
		LeftPane:      "left",
		RightPane:     "right",
		StatusLine:    "status: saved",
		Notification:  "last-reminder: soon",
		Footer:        "keys: q quit",
		StatusIsError: false,
	})
	for _, want := range []string{"memo | view: tasks", "left", "right", "status: saved", "last-reminder: soon", "keys: q quit"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}

	quiet := RenderApp(AppData{Header: "memo", LeftPane: "l", RightPane: "r"})
	if strings.Contains(quiet, "status:") {
		t.Fatalf("empty status should render no status section:\n%s", quiet)
	}
}

func TestRenderMarkdownEmpty(t *testing.T) {
	if got := RenderMarkdown("   \n"); got != "" {
		t.Fatalf("blank markdown should render empty, got %q", got)
	}
}
