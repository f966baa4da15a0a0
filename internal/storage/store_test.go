package storage

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"memo/internal/model"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	s := New(t.TempDir(), nil)
	if err := s.Initialize(context.Background()); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testTask(t *testing.T, title string) model.Task {
	t.Helper()
	task := model.NewWithTitle(title, "")
	task.CreateTime = time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC)
	return task
}

type recordingListener struct {
	inserted []model.Task
	updated  []model.Task
	deleted  []string
	errors   []string
}

func (r *recordingListener) TaskInserted(t model.Task) { r.inserted = append(r.inserted, t) }
func (r *recordingListener) TaskUpdated(t model.Task)  { r.updated = append(r.updated, t) }
func (r *recordingListener) TaskDeleted(id string)     { r.deleted = append(r.deleted, id) }
func (r *recordingListener) DatabaseError(msg string)  { r.errors = append(r.errors, msg) }

func TestInsertThenFetch(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	task := testTask(t, "Write schema")
	task.Description = "Design storage layout"
	task.Category = "work"
	task.Priority = model.PriorityHigh
	task.Tags = []string{"design", "db"}
	due := task.CreateTime.Add(48 * time.Hour)
	task.DueTime = &due
	task.ReminderEnabled = true
	task.ReminderMinutes = 30

	if err := s.InsertTask(ctx, task); err != nil {
		t.Fatalf("insert task: %v", err)
	}

	got, err := s.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if !got.Equal(task) || got.Title != task.Title || got.Description != task.Description {
		t.Fatalf("unexpected task: %#v", got)
	}
	if got.Priority != model.PriorityHigh || got.Status != model.StatusPending || got.Category != "work" {
		t.Fatalf("unexpected task fields: %#v", got)
	}
	if !got.CreateTime.Equal(task.CreateTime) {
		t.Fatalf("create time mismatch: %v vs %v", got.CreateTime, task.CreateTime)
	}
	if got.DueTime == nil || !got.DueTime.Equal(due) {
		t.Fatalf("due time mismatch: %v", got.DueTime)
	}
	if !got.ReminderEnabled || got.ReminderMinutes != 30 {
		t.Fatalf("reminder fields mismatch: %#v", got)
	}
	if len(got.Tags) != 2 || got.Tags[0] != "db" || got.Tags[1] != "design" {
		t.Fatalf("unexpected tags: %#v", got.Tags)
	}

	all, err := s.GetAllTasks(ctx)
	if err != nil {
		t.Fatalf("get all tasks: %v", err)
	}
	matches := 0
	for _, item := range all {
		if item.ID == task.ID {
			matches++
		}
	}
	if matches != 1 {
		t.Fatalf("expected exactly one task with id %s, found %d", task.ID, matches)
	}
}

func TestFetchRoundTripsColumnTypes(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	// BOOLEAN and DATETIME columns come back from the driver as Go bool
	// and time.Time; both states of each must survive a round trip.
	off := testTask(t, "No reminder")
	if err := s.InsertTask(ctx, off); err != nil {
		t.Fatalf("insert: %v", err)
	}
	on := testTask(t, "With reminder")
	due := on.CreateTime.Add(2 * time.Hour)
	on.DueTime = &due
	on.ReminderEnabled = true
	if err := s.InsertTask(ctx, on); err != nil {
		t.Fatalf("insert: %v", err)
	}

	gotOff, err := s.GetTask(ctx, off.ID)
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if gotOff.ReminderEnabled || gotOff.DueTime != nil {
		t.Fatalf("unset fields did not survive: %#v", gotOff)
	}
	if !gotOff.CreateTime.Equal(off.CreateTime) || gotOff.CreateTime.Location() != time.UTC {
		t.Fatalf("create time mismatch: %v", gotOff.CreateTime)
	}

	gotOn, err := s.GetTask(ctx, on.ID)
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if !gotOn.ReminderEnabled {
		t.Fatal("reminder flag lost on round trip")
	}
	if gotOn.DueTime == nil || !gotOn.DueTime.Equal(due) || gotOn.DueTime.Location() != time.UTC {
		t.Fatalf("due time mismatch: %v", gotOn.DueTime)
	}
}

func TestInsertRejectsInvalidTask(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	rec := &recordingListener{}
	s.AddListener(rec)

	task := testTask(t, "")
	if err := s.InsertTask(ctx, task); err == nil {
		t.Fatal("expected rejection of invalid task")
	}
	if len(rec.inserted) != 0 {
		t.Fatal("no event must fire for a rejected insert")
	}

	total, err := s.GetTotalTaskCount(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if total != 0 {
		t.Fatalf("rejected insert must not write, count = %d", total)
	}
}

func TestUpdateReplacesFullTagSet(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	task := testTask(t, "Tagged")
	task.Tags = []string{"old", "stale"}
	if err := s.InsertTask(ctx, task); err != nil {
		t.Fatalf("insert: %v", err)
	}

	task.Title = "Tagged v2"
	task.Tags = []string{"fresh"}
	if err := s.UpdateTask(ctx, task); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := s.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "Tagged v2" {
		t.Fatalf("title not updated: %q", got.Title)
	}
	if len(got.Tags) != 1 || got.Tags[0] != "fresh" {
		t.Fatalf("tag set must be fully replaced, got %#v", got.Tags)
	}
}

func TestUpdateMissingTaskReturnsNotFound(t *testing.T) {
	s := setupStore(t)
	task := testTask(t, "Ghost")
	if err := s.UpdateTask(context.Background(), task); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got: %v", err)
	}
}

func TestDeleteCascadesTags(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	task := testTask(t, "Doomed")
	task.Tags = []string{"a", "b"}
	if err := s.InsertTask(ctx, task); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := s.DeleteTask(ctx, task.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	tags, err := s.GetTaskTags(ctx, task.ID)
	if err != nil {
		t.Fatalf("get tags: %v", err)
	}
	if len(tags) != 0 {
		t.Fatalf("tags must cascade on delete, got %#v", tags)
	}
	if _, err := s.GetTask(ctx, task.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got: %v", err)
	}
}

func TestOverdueAndCategoryScenario(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	now := time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC)

	a := testTask(t, "Buy milk")
	a.Category = "Shopping"
	a.Priority = model.PriorityLow

	b := testTask(t, "File taxes")
	b.Priority = model.PriorityUrgent
	b.CreateTime = now.Add(-48 * time.Hour)
	yesterday := now.Add(-24 * time.Hour)
	b.DueTime = &yesterday

	if err := s.InsertTask(ctx, a); err != nil {
		t.Fatalf("insert a: %v", err)
	}
	if err := s.InsertTask(ctx, b); err != nil {
		t.Fatalf("insert b: %v", err)
	}

	overdue, err := s.GetOverdueTasks(ctx, now)
	if err != nil {
		t.Fatalf("overdue: %v", err)
	}
	if len(overdue) != 1 || overdue[0].ID != b.ID {
		t.Fatalf("expected exactly [B] overdue, got %#v", overdue)
	}

	shopping, err := s.GetTasksByCategory(ctx, "Shopping")
	if err != nil {
		t.Fatalf("by category: %v", err)
	}
	if len(shopping) != 1 || shopping[0].ID != a.ID {
		t.Fatalf("expected exactly [A] in Shopping, got %#v", shopping)
	}
}

func TestOverdueExcludesCompleted(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	now := time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC)

	task := testTask(t, "Late but done")
	task.CreateTime = now.Add(-48 * time.Hour)
	due := now.Add(-time.Hour)
	task.DueTime = &due
	task.Status = model.StatusCompleted
	if err := s.InsertTask(ctx, task); err != nil {
		t.Fatalf("insert: %v", err)
	}

	overdue, err := s.GetOverdueTasks(ctx, now)
	if err != nil {
		t.Fatalf("overdue: %v", err)
	}
	if len(overdue) != 0 {
		t.Fatalf("completed tasks must not show as overdue: %#v", overdue)
	}
}

func TestTodayTasksOrderedByDueTime(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	now := time.Date(2026, 2, 9, 8, 0, 0, 0, time.UTC)

	evening := testTask(t, "Evening")
	evening.CreateTime = now.Add(-time.Hour)
	eveningDue := time.Date(2026, 2, 9, 20, 0, 0, 0, time.UTC)
	evening.DueTime = &eveningDue

	morning := testTask(t, "Morning")
	morning.CreateTime = now.Add(-time.Hour)
	morningDue := time.Date(2026, 2, 9, 9, 0, 0, 0, time.UTC)
	morning.DueTime = &morningDue

	tomorrow := testTask(t, "Tomorrow")
	tomorrow.CreateTime = now.Add(-time.Hour)
	tomorrowDue := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	tomorrow.DueTime = &tomorrowDue

	for _, task := range []model.Task{evening, morning, tomorrow} {
		if err := s.InsertTask(ctx, task); err != nil {
			t.Fatalf("insert %s: %v", task.Title, err)
		}
	}

	today, err := s.GetTodayTasks(ctx, now)
	if err != nil {
		t.Fatalf("today: %v", err)
	}
	if len(today) != 2 || today[0].ID != morning.ID || today[1].ID != evening.ID {
		t.Fatalf("expected [Morning, Evening], got %#v", today)
	}
}

func TestQueriesByStatusAndPriority(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	done := testTask(t, "Done")
	done.Status = model.StatusCompleted
	urgent := testTask(t, "Urgent")
	urgent.Priority = model.PriorityUrgent

	if err := s.InsertTask(ctx, done); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := s.InsertTask(ctx, urgent); err != nil {
		t.Fatalf("insert: %v", err)
	}

	completed, err := s.GetTasksByStatus(ctx, model.StatusCompleted)
	if err != nil {
		t.Fatalf("by status: %v", err)
	}
	if len(completed) != 1 || completed[0].ID != done.ID {
		t.Fatalf("unexpected completed set: %#v", completed)
	}

	urgents, err := s.GetTasksByPriority(ctx, model.PriorityUrgent)
	if err != nil {
		t.Fatalf("by priority: %v", err)
	}
	if len(urgents) != 1 || urgents[0].ID != urgent.ID {
		t.Fatalf("unexpected urgent set: %#v", urgents)
	}
}

func TestCounts(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	for i, status := range []model.Status{model.StatusPending, model.StatusPending, model.StatusCompleted} {
		task := testTask(t, "Task")
		task.Status = status
		if i == 2 {
			task.Category = "work"
		}
		if err := s.InsertTask(ctx, task); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	total, err := s.GetTotalTaskCount(ctx)
	if err != nil || total != 3 {
		t.Fatalf("total = %d, err = %v", total, err)
	}
	completed, err := s.GetCompletedTaskCount(ctx)
	if err != nil || completed != 1 {
		t.Fatalf("completed = %d, err = %v", completed, err)
	}
	pending, err := s.GetPendingTaskCount(ctx)
	if err != nil || pending != 2 {
		t.Fatalf("pending = %d, err = %v", pending, err)
	}
	work, err := s.GetTaskCountByCategory(ctx, "work")
	if err != nil || work != 1 {
		t.Fatalf("work = %d, err = %v", work, err)
	}
}

func TestTagOperations(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	task := testTask(t, "Taggable")
	if err := s.InsertTask(ctx, task); err != nil {
		t.Fatalf("insert: %v", err)
	}

	if err := s.AddTagToTask(ctx, task.ID, "alpha"); err != nil {
		t.Fatalf("add tag: %v", err)
	}
	// Adding the same tag twice is a no-op, not an error.
	if err := s.AddTagToTask(ctx, task.ID, "alpha"); err != nil {
		t.Fatalf("idempotent add tag: %v", err)
	}
	if err := s.AddTagToTask(ctx, task.ID, "beta"); err != nil {
		t.Fatalf("add tag: %v", err)
	}

	tags, err := s.GetTaskTags(ctx, task.ID)
	if err != nil {
		t.Fatalf("get tags: %v", err)
	}
	if len(tags) != 2 || tags[0] != "alpha" || tags[1] != "beta" {
		t.Fatalf("unexpected tags: %#v", tags)
	}

	if err := s.RemoveTagFromTask(ctx, task.ID, "alpha"); err != nil {
		t.Fatalf("remove tag: %v", err)
	}
	tags, err = s.GetTaskTags(ctx, task.ID)
	if err != nil {
		t.Fatalf("get tags: %v", err)
	}
	if len(tags) != 1 || tags[0] != "beta" {
		t.Fatalf("unexpected tags after remove: %#v", tags)
	}

	other := testTask(t, "Other")
	other.Category = "home"
	other.Tags = []string{"beta", "gamma"}
	if err := s.InsertTask(ctx, other); err != nil {
		t.Fatalf("insert: %v", err)
	}

	all, err := s.GetAllTags(ctx)
	if err != nil {
		t.Fatalf("all tags: %v", err)
	}
	if len(all) != 2 || all[0] != "beta" || all[1] != "gamma" {
		t.Fatalf("unexpected distinct tags: %#v", all)
	}

	categories, err := s.GetAllCategories(ctx)
	if err != nil {
		t.Fatalf("categories: %v", err)
	}
	if len(categories) != 2 || categories[0] != "default" || categories[1] != "home" {
		t.Fatalf("unexpected categories: %#v", categories)
	}
}

func TestConfigLastWriteWins(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	value, err := s.GetConfig(ctx, "theme", "dark")
	if err != nil {
		t.Fatalf("get config: %v", err)
	}
	if value != "dark" {
		t.Fatalf("missing key must yield the default, got %q", value)
	}

	if err := s.SetConfig(ctx, "theme", "light"); err != nil {
		t.Fatalf("set config: %v", err)
	}
	if err := s.SetConfig(ctx, "theme", "solarized"); err != nil {
		t.Fatalf("set config: %v", err)
	}

	value, err = s.GetConfig(ctx, "theme", "dark")
	if err != nil {
		t.Fatalf("get config: %v", err)
	}
	if value != "solarized" {
		t.Fatalf("last write must win, got %q", value)
	}
}

func TestEventsFireAfterDurableWrite(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	rec := &recordingListener{}
	s.AddListener(rec)

	task := testTask(t, "Observed")
	if err := s.InsertTask(ctx, task); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if len(rec.inserted) != 1 || rec.inserted[0].ID != task.ID {
		t.Fatalf("expected one insert event, got %#v", rec.inserted)
	}

	task.Title = "Observed v2"
	if err := s.UpdateTask(ctx, task); err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(rec.updated) != 1 || rec.updated[0].Title != "Observed v2" {
		t.Fatalf("expected one update event, got %#v", rec.updated)
	}

	if err := s.DeleteTask(ctx, task.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(rec.deleted) != 1 || rec.deleted[0] != task.ID {
		t.Fatalf("expected one delete event, got %#v", rec.deleted)
	}

	// A failed mutation must not produce an event.
	if err := s.DeleteTask(ctx, task.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got: %v", err)
	}
	if len(rec.deleted) != 1 {
		t.Fatalf("failed delete must not emit an event: %#v", rec.deleted)
	}
}

func TestUninitializedStoreRefusesOperations(t *testing.T) {
	s := New(t.TempDir(), nil)
	ctx := context.Background()

	if err := s.InsertTask(ctx, testTask(t, "Nope")); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized, got: %v", err)
	}
	tasks, err := s.GetAllTasks(ctx)
	if !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized, got: %v", err)
	}
	if len(tasks) != 0 {
		t.Fatalf("uninitialized store must return empty results: %#v", tasks)
	}
	if _, err := s.GetTotalTaskCount(ctx); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized, got: %v", err)
	}
}

func TestInitializeIsIdempotent(t *testing.T) {
	s := setupStore(t)
	if err := s.Initialize(context.Background()); err != nil {
		t.Fatalf("second initialize must be a no-op, got: %v", err)
	}
}

func TestValidateIntegrityAndRepair(t *testing.T) {
	dir := t.TempDir()
	s := New(dir, nil)
	ctx := context.Background()
	if err := s.Initialize(ctx); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	if err := s.ValidateIntegrity(ctx); err != nil {
		t.Fatalf("fresh database must validate clean: %v", err)
	}

	// Plant an orphaned tag row through a side connection that has
	// foreign keys off.
	raw, err := sql.Open("sqlite3", filepath.Join(dir, databaseName))
	if err != nil {
		t.Fatalf("open side connection: %v", err)
	}
	if _, err := raw.Exec(`INSERT INTO task_tags (task_id, tag) VALUES ('missing-task', 'orphan')`); err != nil {
		t.Fatalf("plant orphan: %v", err)
	}
	if err := raw.Close(); err != nil {
		t.Fatalf("close side connection: %v", err)
	}

	if err := s.ValidateIntegrity(ctx); err == nil {
		t.Fatal("orphaned tag row must fail integrity validation")
	}
	if err := s.Repair(ctx); err != nil {
		t.Fatalf("repair: %v", err)
	}
	if err := s.ValidateIntegrity(ctx); err != nil {
		t.Fatalf("database must validate clean after repair: %v", err)
	}
}

func TestBackupAndRestore(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	task := testTask(t, "Keep me")
	if err := s.InsertTask(ctx, task); err != nil {
		t.Fatalf("insert: %v", err)
	}

	backupPath := filepath.Join(t.TempDir(), "snapshot.db")
	if err := s.Backup(ctx, backupPath); err != nil {
		t.Fatalf("backup: %v", err)
	}

	if err := s.DeleteTask(ctx, task.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Restore(ctx, backupPath); err != nil {
		t.Fatalf("restore: %v", err)
	}

	got, err := s.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("get after restore: %v", err)
	}
	if got.Title != "Keep me" {
		t.Fatalf("unexpected task after restore: %#v", got)
	}

	if err := s.Vacuum(ctx); err != nil {
		t.Fatalf("vacuum: %v", err)
	}
}
