package update

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	"go.uber.org/zap"

	"memo/internal/config"
	"memo/internal/notify"
	"memo/internal/scheduler"
	"memo/internal/tasklist"
)

type View string

const (
	ViewTasks View = "Tasks"
	ViewStats View = "Stats"
)

type StatusBar struct {
	Text    string
	IsError bool
}

type GlobalKeyMap struct {
	Tasks string
	Stats string
	Add   string
	Help  string
	Quit  string
}

type CommandPaletteState struct {
	Active bool
	Input  string
}

type QuickAddState struct {
	Active bool
	Input  string
}

type CategoryCount struct {
	Category string
	Count    int
}

type StatsState struct {
	Total      int
	Completed  int
	Pending    int
	Overdue    int
	Categories []CategoryCount
}

// changeLog collects row notifications from the task list. The Elm-style
// Model is a value, so this has to live behind a pointer shared across
// copies.
type changeLog struct {
	inserts     int
	changes     int
	removals    int
	countEvents int
	filterSwaps int
}

func (c *changeLog) RowsInserted(from, to int) { c.inserts += to - from + 1 }
func (c *changeLog) RowsChanged(from, to int)  { c.changes += to - from + 1 }
func (c *changeLog) RowsRemoved(from, to int)  { c.removals += to - from + 1 }
func (c *changeLog) RowCountChanged()          { c.countEvents++ }
func (c *changeLog) FilterChanged()            { c.filterSwaps++ }

type Model struct {
	List        *tasklist.List
	Scheduler   *scheduler.Engine
	CurrentView View
	Cursor      int
	Palette     CommandPaletteState
	QuickAdd    QuickAddState
	HelpVisible bool
	Status      StatusBar
	Stats       StatsState
	ReminderLog []scheduler.Event
	Keys        GlobalKeyMap
	Quitting    bool
	LastError   error

	notifier notify.Notifier
	cfg      config.RuntimeConfig
	log      *zap.SugaredLogger
	changes  *changeLog
	now      func() time.Time

	taskList      list.Model
	quickAddInput textinput.Model
	commandInput  textinput.Model
	detailView    viewport.Model
	helpModel     help.Model
}

type taskItem struct {
	title       string
	description string
}

func (i taskItem) FilterValue() string { return i.title + " " + i.description }
func (i taskItem) Title() string       { return i.title }
func (i taskItem) Description() string { return i.description }

type SetStatusMsg struct {
	Text    string
	IsError bool
}

type ClearStatusMsg struct{}

type AppErrorMsg struct {
	Err error
}

type ReminderDueMsg struct {
	Event scheduler.Event
}

type OverdueTickMsg struct{}

func NewModel(taskList *tasklist.List, engine *scheduler.Engine, notifier notify.Notifier,
	cfg config.RuntimeConfig, log *zap.SugaredLogger) Model {
	if notifier == nil {
		notifier = notify.Noop{}
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	m := Model{
		List:        taskList,
		Scheduler:   engine,
		CurrentView: ViewTasks,
		notifier:    notifier,
		cfg:         cfg,
		log:         log,
		changes:     &changeLog{},
		now:         func() time.Time { return time.Now().UTC() },
		Keys: GlobalKeyMap{
			Tasks: "1",
			Stats: "2",
			Add:   "a",
			Help:  "?",
			Quit:  "q",
		},
	}
	if taskList != nil {
		taskList.AddObserver(m.changes)
	}
	m.initBubbleComponents()
	m.syncBubbleData()
	return m
}

func (m *Model) initBubbleComponents() {
	m.taskList = list.New([]list.Item{}, list.NewDefaultDelegate(), 56, 14)
	m.taskList.Title = "Tasks"
	m.taskList.SetShowHelp(false)
	m.taskList.SetFilteringEnabled(false)

	m.quickAddInput = textinput.New()
	m.quickAddInput.Prompt = "add> "
	m.quickAddInput.Placeholder = "title @category !priority #tag due:YYYY-MM-DD"
	m.quickAddInput.CharLimit = 256
	m.quickAddInput.Width = 48

	m.commandInput = textinput.New()
	m.commandInput.Prompt = "/"
	m.commandInput.CharLimit = 256
	m.commandInput.Width = 48

	m.detailView = viewport.New(54, 12)
	m.helpModel = help.New()
}
