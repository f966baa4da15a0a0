package scheduler

import (
	"time"

	"go.uber.org/zap"

	"memo/internal/model"
)

// StoreListener keeps the engine in sync with the task store: inserts and
// updates (re)schedule reminders, deletions cancel them. Register it with
// the store's AddListener.
type StoreListener struct {
	engine *Engine
	now    func() time.Time
	log    *zap.SugaredLogger
}

func NewStoreListener(engine *Engine, now func() time.Time, log *zap.SugaredLogger) *StoreListener {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &StoreListener{engine: engine, now: now, log: log}
}

func (sl *StoreListener) TaskInserted(t model.Task) { sl.reschedule(t) }

func (sl *StoreListener) TaskUpdated(t model.Task) { sl.reschedule(t) }

func (sl *StoreListener) TaskDeleted(id string) {
	sl.engine.Cancel(id)
}

func (sl *StoreListener) DatabaseError(msg string) {
	sl.log.Warnw("skipping reminder sync after database error", "error", msg)
}

// reschedule drops reminders for tasks that reached a terminal status and
// lets ScheduleTask handle everything else, including tasks whose
// reminder was switched off.
func (sl *StoreListener) reschedule(t model.Task) {
	if t.Status == model.StatusCompleted || t.Status == model.StatusCancelled {
		sl.engine.Cancel(t.ID)
		return
	}
	if err := sl.engine.ScheduleTask(t, sl.now()); err != nil {
		sl.log.Warnw("failed to schedule reminder", "task_id", t.ID, "error", err)
	}
}
