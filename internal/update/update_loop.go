package update

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"memo/internal/views"
)

func (m Model) Init() tea.Cmd {
	cmds := make([]tea.Cmd, 0, 2)
	if m.Scheduler != nil {
		cmds = append(cmds, waitForReminderCmd(m.Scheduler.C()))
	}
	cmds = append(cmds, m.overdueTickCmd())
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	defer m.syncBubbleData()

	switch typed := msg.(type) {
	case tea.KeyMsg:
		if m.Palette.Active {
			next := m.handlePaletteKey(typed)
			return next, nil
		}
		if m.QuickAdd.Active {
			next := m.handleQuickAddKey(typed)
			return next, nil
		}

		switch typed.String() {
		case "/":
			m.Palette.Active = true
			m.Palette.Input = ""
			m.commandInput.SetValue("")
			m.commandInput.Focus()
			m.Status = StatusBar{Text: "command palette active"}
			return m, nil
		case m.Keys.Add:
			m.QuickAdd.Active = true
			m.QuickAdd.Input = ""
			m.quickAddInput.SetValue("")
			m.quickAddInput.Focus()
			return m, nil
		case m.Keys.Tasks:
			m.CurrentView = ViewTasks
			return m, nil
		case m.Keys.Stats:
			m.CurrentView = ViewStats
			m.refreshStats()
			return m, nil
		case m.Keys.Help:
			m.HelpVisible = !m.HelpVisible
			return m, nil
		case "ctrl+c", m.Keys.Quit:
			m.Quitting = true
			return m, tea.Quit
		}
		if m.CurrentView == ViewTasks {
			return m.handleTasksKey(typed), nil
		}
	case SetStatusMsg:
		m.Status = StatusBar{Text: typed.Text, IsError: typed.IsError}
		return m, nil
	case ClearStatusMsg:
		m.Status = StatusBar{}
		return m, nil
	case AppErrorMsg:
		m.LastError = typed.Err
		if typed.Err != nil {
			m.Status = StatusBar{Text: typed.Err.Error(), IsError: true}
			m.log.Errorw("app error", "error", typed.Err)
		}
		return m, nil
	case ReminderDueMsg:
		m.onReminder(typed.Event)
		if m.Scheduler != nil {
			return m, waitForReminderCmd(m.Scheduler.C())
		}
		return m, nil
	case OverdueTickMsg:
		m.List.NotifyTimeDerived(m.now())
		if m.CurrentView == ViewStats {
			m.refreshStats()
		}
		return m, m.overdueTickCmd()
	}

	return m, nil
}

func (m Model) View() string {
	status := ""
	if m.Status.Text != "" {
		status = fmt.Sprintf("status: %s", m.Status.Text)
	}

	leftPane := ""
	rightPane := ""
	switch m.CurrentView {
	case ViewStats:
		leftPane = m.renderStatsView()
		rightPane = m.renderHelpIfVisible()
	default:
		leftPane = m.renderTasksView()
		rightPane = strings.TrimSpace(strings.Join([]string{
			m.renderDetailPane(),
			views.RenderCommandPalette(m.Palette.Active, m.commandInput.View()),
			m.renderHelpIfVisible(),
		}, "\n"))
	}

	notification := ""
	if len(m.ReminderLog) > 0 {
		last := m.ReminderLog[len(m.ReminderLog)-1]
		notification = fmt.Sprintf("last-reminder: %s @ %s", last.Message, last.TriggerAt.Format("15:04:05"))
	}

	filter := m.List.Filter()
	filterText := "none"
	if filter.Active() {
		parts := make([]string, 0, 2)
		if filter.Category != "" {
			parts = append(parts, "category="+filter.Category)
		}
		if filter.Status != nil {
			parts = append(parts, "status="+filter.Status.String())
		}
		filterText = strings.Join(parts, " ")
	}

	return views.RenderApp(views.AppData{
		Header:        fmt.Sprintf("memo | view: %s | filter: %s | tasks: %d", m.CurrentView, filterText, m.List.Len()),
		LeftPane:      leftPane,
		RightPane:     rightPane,
		StatusLine:    status,
		StatusIsError: m.Status.IsError,
		Notification:  notification,
		Footer: fmt.Sprintf("keys: %s tasks | %s stats | %s add | / cmd | %s help | %s quit",
			m.Keys.Tasks, m.Keys.Stats, m.Keys.Add, m.Keys.Help, m.Keys.Quit),
	})
}

func (m Model) handleTasksKey(msg tea.KeyMsg) Model {
	if m.Cursor >= m.List.Len() {
		m.Cursor = m.List.Len() - 1
	}
	if m.Cursor < 0 {
		m.Cursor = 0
	}
	switch msg.String() {
	case "j", "down":
		if m.Cursor < m.List.Len()-1 {
			m.Cursor++
		}
	case "k", "up":
		if m.Cursor > 0 {
			m.Cursor--
		}
	case "d", "enter":
		m = m.completeCursorTask()
	case "p":
		m = m.startCursorTask()
	case "x":
		m = m.deleteCursorTask()
	case "r":
		if err := m.List.Refresh(context.Background()); err != nil {
			m.Status = StatusBar{Text: err.Error(), IsError: true}
		} else {
			m.Status = StatusBar{Text: "task list reloaded"}
		}
	}
	return m
}

func (m Model) handleQuickAddKey(msg tea.KeyMsg) Model {
	switch msg.String() {
	case "esc":
		m.QuickAdd.Active = false
		m.QuickAdd.Input = ""
		m.quickAddInput.SetValue("")
		m.quickAddInput.Blur()
	case "enter":
		m.QuickAdd.Input = m.quickAddInput.Value()
		m = m.submitQuickAdd()
	default:
		var cmd tea.Cmd
		m.quickAddInput, cmd = m.quickAddInput.Update(msg)
		_ = cmd
		m.QuickAdd.Input = m.quickAddInput.Value()
	}
	return m
}

func (m *Model) syncBubbleData() {
	tasks := m.List.Tasks()
	if m.Cursor >= len(tasks) {
		m.Cursor = len(tasks) - 1
	}
	if m.Cursor < 0 {
		m.Cursor = 0
	}

	items := make([]list.Item, 0, len(tasks))
	for _, t := range tasks {
		items = append(items, taskItem{
			title:       t.Title,
			description: fmt.Sprintf("%s | %s | %s", t.Status, t.Priority, t.Category),
		})
	}
	m.taskList.SetItems(items)
	if len(items) > 0 {
		m.taskList.Select(m.Cursor)
	}

	if m.QuickAdd.Active {
		m.quickAddInput.Focus()
	}
	if m.Palette.Active {
		m.commandInput.Focus()
	}

	if t, ok := m.List.At(m.Cursor); ok {
		m.detailView.SetContent(views.RenderMarkdown(taskMarkdown(t, m.now())))
	} else {
		m.detailView.SetContent("")
	}
}

func (m Model) overdueTickCmd() tea.Cmd {
	interval := time.Duration(m.cfg.OverdueCheckSeconds) * time.Second
	if interval <= 0 {
		interval = time.Minute
	}
	return tea.Tick(interval, func(time.Time) tea.Msg { return OverdueTickMsg{} })
}
