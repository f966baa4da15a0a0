package update

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"memo/internal/commands"
	"memo/internal/model"
	"memo/internal/tasklist"
)

func (m Model) handlePaletteKey(msg tea.KeyMsg) Model {
	switch msg.String() {
	case "esc":
		m.Palette.Active = false
		m.Palette.Input = ""
		m.commandInput.SetValue("")
		m.commandInput.Blur()
		m.Status = StatusBar{Text: "command palette closed"}
	case "enter":
		m.Palette.Input = m.commandInput.Value()
		m = m.executePaletteCommand()
	default:
		var cmd tea.Cmd
		m.commandInput, cmd = m.commandInput.Update(msg)
		_ = cmd
		m.Palette.Input = m.commandInput.Value()
	}
	return m
}

func (m Model) executePaletteCommand() Model {
	raw := strings.TrimSpace(m.Palette.Input)
	cmd, err := commands.Parse(raw)
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		m.Palette.Active = false
		m.Palette.Input = ""
		return m
	}

	ctx := context.Background()
	res, err := commands.Execute(cmd, commands.Handlers{
		Add: func(a commands.AddArgs) (commands.Result, error) {
			msgText, err := m.addTask(a)
			if err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: msgText}, nil
		},
		Done: func(d commands.DoneArgs) (commands.Result, error) {
			t, err := m.resolveTarget(d.Target)
			if err != nil {
				return commands.Result{}, &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: err.Error()}
			}
			if err := m.List.SetStatus(ctx, t.ID, model.StatusCompleted); err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: fmt.Sprintf("completed: %s", t.Title)}, nil
		},
		Delete: func(d commands.DeleteArgs) (commands.Result, error) {
			t, err := m.resolveTarget(d.Target)
			if err != nil {
				return commands.Result{}, &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: err.Error()}
			}
			if err := m.List.Remove(ctx, t.ID); err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: fmt.Sprintf("deleted: %s", t.Title)}, nil
		},
		Filter: func(f commands.FilterArgs) (commands.Result, error) {
			if f.Clear {
				if err := m.List.ClearFilter(ctx); err != nil {
					return commands.Result{}, err
				}
				return commands.Result{Message: "filter cleared"}, nil
			}
			if err := m.List.SetFilter(ctx, f.Category, f.Status); err != nil {
				return commands.Result{}, err
			}
			if f.Status != nil {
				return commands.Result{Message: fmt.Sprintf("filter: status=%s", f.Status)}, nil
			}
			return commands.Result{Message: fmt.Sprintf("filter: category=%s", f.Category)}, nil
		},
		Sort: func(s commands.SortArgs) (commands.Result, error) {
			key, ok := tasklist.ParseSortKey(s.Key)
			if !ok {
				return commands.Result{}, &commands.CommandError{
					Code:    commands.ErrCodeInvalidArgument,
					Message: fmt.Sprintf("unknown sort key: %s", s.Key),
				}
			}
			order := tasklist.Ascending
			if s.Descending {
				order = tasklist.Descending
			}
			m.List.SetSort(key, order)
			return commands.Result{Message: fmt.Sprintf("sorted by %s %s", key, order)}, nil
		},
		Clear: func() (commands.Result, error) {
			return commands.Result{Message: ""}, nil
		},
	})
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
	} else {
		m.Status = StatusBar{Text: res.Message}
	}

	m.Palette.Active = false
	m.Palette.Input = ""
	m.commandInput.SetValue("")
	m.commandInput.Blur()
	return m
}
