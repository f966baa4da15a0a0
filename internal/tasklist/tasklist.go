package tasklist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"memo/internal/model"
	"memo/internal/storage"
)

var ErrInvalidTransition = errors.New("tasklist: invalid status transition")

// Filter restricts which tasks are visible in the projection. Status is an
// explicit optional so that "only Pending" is a real filter, not the
// absence of one.
type Filter struct {
	Category string
	Status   *model.Status
}

func (f Filter) Active() bool {
	return f.Category != "" || f.Status != nil
}

func (f Filter) matches(t model.Task) bool {
	if f.Category != "" && t.Category != f.Category {
		return false
	}
	if f.Status != nil && t.Status != *f.Status {
		return false
	}
	return true
}

// Observer receives range notifications about the visible projection,
// mirroring what a list view needs to redraw incrementally.
type Observer interface {
	RowsInserted(from, to int)
	RowsChanged(from, to int)
	RowsRemoved(from, to int)
	RowCountChanged()
	FilterChanged()
}

// List is the observable in-memory projection of the store: loaded tasks,
// filtered and sorted, kept consistent by reacting to store events. All
// methods must be called from the single event-loop goroutine.
type List struct {
	store     *storage.Store
	log       *zap.SugaredLogger
	tasks     []model.Task
	filter    Filter
	sortKey   SortKey
	order     Order
	observers []Observer
}

// New builds a list registered as a store listener. The projection starts
// empty; call Refresh to load.
func New(store *storage.Store, log *zap.SugaredLogger) *List {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	l := &List{
		store:   store,
		log:     log,
		tasks:   make([]model.Task, 0),
		sortKey: SortByCreateTime,
		order:   Descending,
	}
	store.AddListener(l)
	return l
}

// Store exposes the backing store for read-side queries the projection
// does not cache, like aggregate counts.
func (l *List) Store() *storage.Store {
	return l.store
}

func (l *List) AddObserver(o Observer) {
	if o == nil {
		return
	}
	l.observers = append(l.observers, o)
}

func (l *List) Len() int {
	return len(l.tasks)
}

func (l *List) At(i int) (model.Task, bool) {
	if i < 0 || i >= len(l.tasks) {
		return model.Task{}, false
	}
	return l.tasks[i], true
}

func (l *List) ByID(id string) (model.Task, bool) {
	if i := l.indexOf(id); i >= 0 {
		return l.tasks[i], true
	}
	return model.Task{}, false
}

// Tasks returns a copy of the visible projection.
func (l *List) Tasks() []model.Task {
	out := make([]model.Task, len(l.tasks))
	copy(out, l.tasks)
	return out
}

// CompletedCount counts over the currently loaded, filtered set, not the
// full store.
func (l *List) CompletedCount() int {
	n := 0
	for _, t := range l.tasks {
		if t.Status == model.StatusCompleted {
			n++
		}
	}
	return n
}

func (l *List) PendingCount() int {
	n := 0
	for _, t := range l.tasks {
		if t.Status == model.StatusPending {
			n++
		}
	}
	return n
}

// Add delegates to the store; the projection grows only when the store's
// insert event arrives, so the list never shows unpersisted state.
func (l *List) Add(ctx context.Context, t model.Task) error {
	return l.store.InsertTask(ctx, t)
}

func (l *List) Update(ctx context.Context, t model.Task) error {
	return l.store.UpdateTask(ctx, t)
}

func (l *List) Remove(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("tasklist: remove: empty id")
	}
	return l.store.DeleteTask(ctx, id)
}

func (l *List) RemoveAt(ctx context.Context, i int) error {
	t, ok := l.At(i)
	if !ok {
		return fmt.Errorf("tasklist: remove: row %d out of range", i)
	}
	return l.Remove(ctx, t.ID)
}

// SetStatus changes a task's status through the store, enforcing the
// transition state machine.
func (l *List) SetStatus(ctx context.Context, id string, next model.Status) error {
	t, ok := l.ByID(id)
	if !ok {
		var err error
		t, err = l.store.GetTask(ctx, id)
		if err != nil {
			return err
		}
	}
	if !t.IsValidTransition(next) {
		return fmt.Errorf("%w: %v -> %v", ErrInvalidTransition, t.Status, next)
	}
	t.Status = next
	return l.store.UpdateTask(ctx, t)
}

// SetFilter replaces the active filter and reloads the projection from the
// store in full, so the visible set matches the whole dataset exactly.
func (l *List) SetFilter(ctx context.Context, category string, status *model.Status) error {
	l.filter = Filter{Category: category, Status: status}
	if err := l.load(ctx); err != nil {
		return err
	}
	l.notifyFilterChanged()
	return nil
}

func (l *List) ClearFilter(ctx context.Context) error {
	l.filter = Filter{}
	if err := l.load(ctx); err != nil {
		return err
	}
	l.notifyFilterChanged()
	return nil
}

func (l *List) Filter() Filter {
	return l.filter
}

// Refresh reloads the projection unconditionally.
func (l *List) Refresh(ctx context.Context) error {
	return l.load(ctx)
}

func (l *List) load(ctx context.Context) error {
	all, err := l.store.GetAllTasks(ctx)
	if err != nil {
		return err
	}
	l.tasks = l.tasks[:0]
	for _, t := range all {
		if l.filter.matches(t) {
			l.tasks = append(l.tasks, t)
		}
	}
	l.sortTasks()
	if len(l.tasks) > 0 {
		l.notifyRowsChanged(0, len(l.tasks)-1)
	}
	l.notifyRowCountChanged()
	return nil
}

// NotifyTimeDerived re-announces the visible rows whose presentation
// depends on the clock, so views recompute overdue/due-today flags;
// called from the periodic tick. Rows that render the same at any
// instant are skipped, and the notification is suppressed entirely
// when no visible row is time-sensitive.
func (l *List) NotifyTimeDerived(now time.Time) {
	first, last := -1, -1
	for i := range l.tasks {
		if !l.tasks[i].IsOverdue(now) && !l.tasks[i].IsDueToday(now) {
			continue
		}
		if first == -1 {
			first = i
		}
		last = i
	}
	if first == -1 {
		return
	}
	l.notifyRowsChanged(first, last)
}

func (l *List) indexOf(id string) int {
	for i := range l.tasks {
		if l.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

// TaskInserted implements storage.Listener. A new task joins the
// projection only if it matches the active filter.
func (l *List) TaskInserted(t model.Task) {
	if !l.filter.matches(t) {
		return
	}
	l.tasks = append(l.tasks, t)
	i := len(l.tasks) - 1
	l.notifyRowsInserted(i, i)
	l.notifyRowCountChanged()
}

// TaskUpdated implements storage.Listener. The row is replaced in place
// without re-checking the filter: a task that no longer matches stays
// visible until the next full reload. That staleness window is deliberate
// and covered by tests.
func (l *List) TaskUpdated(t model.Task) {
	i := l.indexOf(t.ID)
	if i < 0 {
		return
	}
	l.tasks[i] = t
	l.notifyRowsChanged(i, i)
}

// TaskDeleted implements storage.Listener.
func (l *List) TaskDeleted(id string) {
	i := l.indexOf(id)
	if i < 0 {
		return
	}
	l.tasks = append(l.tasks[:i], l.tasks[i+1:]...)
	l.notifyRowsRemoved(i, i)
	l.notifyRowCountChanged()
}

// DatabaseError implements storage.Listener.
func (l *List) DatabaseError(msg string) {
	l.log.Errorw("store reported database error", "error", msg)
}

func (l *List) notifyRowsInserted(from, to int) {
	for _, o := range l.observers {
		o.RowsInserted(from, to)
	}
}

func (l *List) notifyRowsChanged(from, to int) {
	for _, o := range l.observers {
		o.RowsChanged(from, to)
	}
}

func (l *List) notifyRowsRemoved(from, to int) {
	for _, o := range l.observers {
		o.RowsRemoved(from, to)
	}
}

func (l *List) notifyRowCountChanged() {
	for _, o := range l.observers {
		o.RowCountChanged()
	}
}

func (l *List) notifyFilterChanged() {
	for _, o := range l.observers {
		o.FilterChanged()
	}
}
