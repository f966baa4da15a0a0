package update

import (
	tea "github.com/charmbracelet/bubbletea"

	"memo/internal/notify"
	"memo/internal/scheduler"
)

const reminderLogLimit = 20

func waitForReminderCmd(ch <-chan scheduler.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return ReminderDueMsg{Event: ev}
	}
}

func (m *Model) onReminder(ev scheduler.Event) {
	m.ReminderLog = append(m.ReminderLog, ev)
	if len(m.ReminderLog) > reminderLogLimit {
		m.ReminderLog = m.ReminderLog[len(m.ReminderLog)-reminderLogLimit:]
	}

	m.Status = StatusBar{Text: ev.Message, IsError: ev.DueNow}
	if err := m.notifier.Send(notify.Notification{
		TaskID: ev.TaskID,
		Title:  ev.Title,
		Body:   ev.Message,
	}); err != nil {
		m.log.Warnw("desktop notification failed", "task_id", ev.TaskID, "error", err)
	}
	m.List.NotifyTimeDerived(m.now())
}
