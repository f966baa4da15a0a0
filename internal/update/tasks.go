package update

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"memo/internal/commands"
	"memo/internal/model"
	"memo/internal/storage"
	"memo/internal/views"
)

func (m Model) completeCursorTask() Model {
	t, ok := m.List.At(m.Cursor)
	if !ok {
		return m
	}
	return m.setTaskStatus(t, model.StatusCompleted)
}

func (m Model) startCursorTask() Model {
	t, ok := m.List.At(m.Cursor)
	if !ok {
		return m
	}
	return m.setTaskStatus(t, model.StatusInProgress)
}

func (m Model) setTaskStatus(t model.Task, next model.Status) Model {
	if err := m.List.SetStatus(context.Background(), t.ID, next); err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return m
	}
	m.Status = StatusBar{Text: fmt.Sprintf("%s: %s", strings.ToLower(next.String()), t.Title)}
	return m
}

func (m Model) deleteCursorTask() Model {
	t, ok := m.List.At(m.Cursor)
	if !ok {
		return m
	}
	if err := m.List.Remove(context.Background(), t.ID); err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return m
	}
	m.Status = StatusBar{Text: fmt.Sprintf("deleted: %s", t.Title)}
	return m
}

func (m Model) submitQuickAdd() Model {
	raw := strings.TrimSpace(m.QuickAdd.Input)
	m.QuickAdd.Active = false
	m.QuickAdd.Input = ""
	m.quickAddInput.SetValue("")
	m.quickAddInput.Blur()
	if raw == "" {
		return m
	}

	cmd, err := commands.Parse("add " + raw)
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return m
	}
	msgText, err := m.addTask(*cmd.Add)
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return m
	}
	m.Status = StatusBar{Text: msgText}
	return m
}

// addTask turns parsed quick-add arguments into a persisted task.
func (m Model) addTask(args commands.AddArgs) (string, error) {
	t := model.NewWithTitle(args.Title, "")
	t.Priority = args.Priority
	if args.Category != "" {
		t.Category = args.Category
	}
	t.Tags = args.Tags
	if args.Due != "" {
		due, err := parseDueInput(args.Due, m.now())
		if err != nil {
			return "", err
		}
		t.DueTime = &due
		t.ReminderEnabled = true
		if m.cfg.DefaultReminderMins > 0 {
			t.ReminderMinutes = m.cfg.DefaultReminderMins
		}
	}
	if err := m.List.Add(context.Background(), t); err != nil {
		return "", err
	}
	return fmt.Sprintf("added: %s", t.Title), nil
}

// parseDueInput accepts a date, a date with time, or the keywords today
// and tomorrow. Bare dates default to end of day so the task is not
// overdue the moment it is created.
func parseDueInput(raw string, now time.Time) (time.Time, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "today":
		y, mo, d := now.Date()
		return time.Date(y, mo, d, 23, 59, 0, 0, now.Location()), nil
	case "tomorrow":
		y, mo, d := now.AddDate(0, 0, 1).Date()
		return time.Date(y, mo, d, 23, 59, 0, 0, now.Location()), nil
	}
	if t, err := time.ParseInLocation("2006-01-02T15:04", raw, now.Location()); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation("2006-01-02", raw, now.Location()); err == nil {
		return t.Add(23*time.Hour + 59*time.Minute), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized due time: %q", raw)
}

// resolveTarget finds a task by 1-based row number or ID prefix.
func (m Model) resolveTarget(target string) (model.Task, error) {
	if n, err := strconv.Atoi(target); err == nil {
		t, ok := m.List.At(n - 1)
		if !ok {
			return model.Task{}, fmt.Errorf("no task at row %d", n)
		}
		return t, nil
	}
	for _, t := range m.List.Tasks() {
		if strings.HasPrefix(t.ID, target) {
			return t, nil
		}
	}
	return model.Task{}, fmt.Errorf("no task matches %q", target)
}

func (m *Model) refreshStats() {
	ctx := context.Background()
	store := m.List.Store()

	stats := StatsState{}
	var err error
	if stats.Total, err = store.GetTotalTaskCount(ctx); err != nil {
		m.statsError(err)
		return
	}
	if stats.Completed, err = store.GetCompletedTaskCount(ctx); err != nil {
		m.statsError(err)
		return
	}
	if stats.Pending, err = store.GetPendingTaskCount(ctx); err != nil {
		m.statsError(err)
		return
	}
	overdue, err := store.GetOverdueTasks(ctx, m.now())
	if err != nil {
		m.statsError(err)
		return
	}
	stats.Overdue = len(overdue)

	categories, err := store.GetAllCategories(ctx)
	if err != nil {
		m.statsError(err)
		return
	}
	for _, category := range categories {
		n, err := store.GetTaskCountByCategory(ctx, category)
		if err != nil {
			m.statsError(err)
			return
		}
		stats.Categories = append(stats.Categories, CategoryCount{Category: category, Count: n})
	}
	m.Stats = stats
}

func (m *Model) statsError(err error) {
	if errors.Is(err, storage.ErrNotInitialized) {
		m.Status = StatusBar{Text: "store not ready", IsError: true}
		return
	}
	m.Status = StatusBar{Text: err.Error(), IsError: true}
}

func (m Model) renderTasksView() string {
	rows := make([]views.TaskRowData, 0, m.List.Len())
	now := m.now()
	for i, t := range m.List.Tasks() {
		row := views.TaskRowData{
			Index:    i + 1,
			Title:    t.Title,
			Status:   t.Status.String(),
			Priority: t.Priority.String(),
			Category: t.Category,
			Overdue:  t.IsOverdue(now),
			DueToday: t.IsDueToday(now),
		}
		if t.DueTime != nil {
			row.DueAt = t.DueTime.Format("2006-01-02 15:04")
		}
		rows = append(rows, row)
	}

	quickAdd := ""
	if m.QuickAdd.Active {
		quickAdd = m.quickAddInput.View()
	}
	return views.RenderTaskListPanel(views.TaskListPanelData{
		QuickAddView: quickAdd,
		ListView:     m.taskList.View(),
		Rows:         rows,
		CursorRow:    m.Cursor,
		Completed:    m.List.CompletedCount(),
		Pending:      m.List.PendingCount(),
	})
}

func (m Model) renderDetailPane() string {
	t, ok := m.List.At(m.Cursor)
	if !ok {
		return "detail:\n(no selection)"
	}
	return views.RenderDetailPanel(views.DetailPanelData{
		ID:           t.ID,
		MarkdownView: m.detailView.View(),
		Tags:         t.Tags,
	})
}

func (m Model) renderStatsView() string {
	categories := make([]views.CategoryCountData, 0, len(m.Stats.Categories))
	for _, c := range m.Stats.Categories {
		categories = append(categories, views.CategoryCountData{Category: c.Category, Count: c.Count})
	}
	return views.RenderStatsPanel(views.StatsPanelData{
		Total:      m.Stats.Total,
		Completed:  m.Stats.Completed,
		Pending:    m.Stats.Pending,
		Overdue:    m.Stats.Overdue,
		Categories: categories,
	})
}

// taskMarkdown formats a task for the glamour-rendered detail pane.
func taskMarkdown(t model.Task, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", t.Title)
	if t.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", t.Description)
	}
	fmt.Fprintf(&b, "- status: %s\n", t.Status)
	fmt.Fprintf(&b, "- priority: %s\n", t.Priority)
	fmt.Fprintf(&b, "- category: %s\n", t.Category)
	if len(t.Tags) > 0 {
		fmt.Fprintf(&b, "- tags: %s\n", strings.Join(t.Tags, ", "))
	}
	if t.DueTime != nil {
		fmt.Fprintf(&b, "- due: %s\n", t.DueTime.Format("2006-01-02 15:04"))
		if t.IsOverdue(now) {
			b.WriteString("- **overdue**\n")
		}
	}
	if t.ReminderEnabled {
		fmt.Fprintf(&b, "- reminder: %d minutes before due\n", t.ReminderMinutes)
	}
	return b.String()
}
