package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"memo/internal/model"
)

const (
	databaseName = "memo.db"

	// SQLite's native datetime text form, comparable with date() and
	// datetime() results. All values are stored in UTC.
	sqliteTimeLayout = "2006-01-02 15:04:05"
)

var (
	ErrNotFound       = errors.New("storage: not found")
	ErrNotInitialized = errors.New("storage: store not initialized")
)

// Store owns the on-disk database file and is the only reader/writer of
// it. It is built by the composition root and passed by pointer; it is not
// safe for concurrent use, matching the single event-loop design.
type Store struct {
	dataDir     string
	path        string
	db          *sql.DB
	log         *zap.SugaredLogger
	listeners   []Listener
	initialized bool
}

func New(dataDir string, log *zap.SugaredLogger) *Store {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Store{
		dataDir: dataDir,
		path:    filepath.Join(dataDir, databaseName),
		log:     log,
	}
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Initialize is idempotent. It creates the data directory and database
// file, the schema and indexes, and brings the stored schema version up to
// the code's expected version. On failure the store stays uninitialized
// and every other operation returns ErrNotInitialized.
func (s *Store) Initialize(ctx context.Context) error {
	if s.initialized {
		return nil
	}

	if err := os.MkdirAll(s.dataDir, 0o755); err != nil {
		return fmt.Errorf("storage: create data dir: %w", err)
	}

	db, err := sql.Open("sqlite3", s.path+"?_foreign_keys=on")
	if err != nil {
		return fmt.Errorf("storage: open database: %w", err)
	}
	// One writer, one reader context; a second pooled connection would
	// only invite SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	s.db = db

	if err := s.createTables(ctx); err != nil {
		_ = s.closeDB()
		return err
	}
	if err := s.createIndexes(ctx); err != nil {
		_ = s.closeDB()
		return err
	}

	current, err := s.readDatabaseVersion(ctx)
	if err != nil {
		_ = s.closeDB()
		return err
	}
	if current < schemaVersion {
		if err := s.migrate(ctx, current, schemaVersion); err != nil {
			_ = s.closeDB()
			return err
		}
	}

	s.initialized = true
	s.log.Infow("store initialized", "path", s.path, "schema_version", schemaVersion)
	return nil
}

func (s *Store) Close() error {
	s.initialized = false
	return s.closeDB()
}

func (s *Store) closeDB() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *Store) createTables(ctx context.Context) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS tasks (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT,
			create_time DATETIME DEFAULT CURRENT_TIMESTAMP,
			due_time DATETIME,
			priority INTEGER DEFAULT 2,
			status INTEGER DEFAULT 0,
			category TEXT DEFAULT 'default',
			reminder_enabled BOOLEAN DEFAULT 0,
			reminder_minutes INTEGER DEFAULT 15
		)`,
		`CREATE TABLE IF NOT EXISTS task_tags (
			task_id TEXT,
			tag TEXT,
			PRIMARY KEY(task_id, tag),
			FOREIGN KEY(task_id) REFERENCES tasks(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS app_config (
			key TEXT PRIMARY KEY,
			value TEXT
		)`,
	}
	for _, stmt := range ddl {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			s.log.Errorw("create table failed", "error", err)
			return fmt.Errorf("storage: create tables: %w", err)
		}
	}
	return nil
}

func (s *Store) createIndexes(ctx context.Context) error {
	stmts := []string{
		"CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status)",
		"CREATE INDEX IF NOT EXISTS idx_tasks_priority ON tasks(priority)",
		"CREATE INDEX IF NOT EXISTS idx_tasks_category ON tasks(category)",
		"CREATE INDEX IF NOT EXISTS idx_tasks_due_time ON tasks(due_time)",
		"CREATE INDEX IF NOT EXISTS idx_tasks_create_time ON tasks(create_time)",
		"CREATE INDEX IF NOT EXISTS idx_tasks_status_due_time ON tasks(status, due_time)",
		"CREATE INDEX IF NOT EXISTS idx_task_tags_task_id ON task_tags(task_id)",
		"CREATE INDEX IF NOT EXISTS idx_task_tags_tag ON task_tags(tag)",
		"CREATE INDEX IF NOT EXISTS idx_app_config_key ON app_config(key)",
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			s.log.Errorw("create index failed", "stmt", stmt, "error", err)
			return fmt.Errorf("storage: create indexes: %w", err)
		}
	}
	return nil
}

// fail logs a diagnostic, notifies listeners, and wraps the error. Every
// unexpected database failure funnels through here so callers always get
// a definite failure signal and a logged cause.
func (s *Store) fail(op string, err error) error {
	s.log.Errorw("database operation failed", "op", op, "error", err)
	s.notifyError(fmt.Sprintf("%s: %v", op, err))
	return fmt.Errorf("storage: %s: %w", op, err)
}

func (s *Store) ready() error {
	if !s.initialized {
		return ErrNotInitialized
	}
	return nil
}

const taskColumns = "id, title, description, create_time, due_time, priority, status, category, reminder_enabled, reminder_minutes"

func (s *Store) InsertTask(ctx context.Context, t model.Task) error {
	if err := s.ready(); err != nil {
		return err
	}
	if err := t.Validate(); err != nil {
		return fmt.Errorf("storage: reject insert: %w", err)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Title, t.Description, timeValue(t.CreateTime), nullTimeValue(t.DueTime),
		int(t.Priority), int(t.Status), t.Category, boolInt(t.ReminderEnabled), t.ReminderMinutes,
	)
	if err != nil {
		return s.fail("insert task", err)
	}

	for _, tag := range t.Tags {
		if err := s.AddTagToTask(ctx, t.ID, tag); err != nil {
			return err
		}
	}

	s.notifyInserted(t)
	return nil
}

// UpdateTask rewrites every user-editable column and replaces the full tag
// set. create_time is immutable and is never touched here.
func (s *Store) UpdateTask(ctx context.Context, t model.Task) error {
	if err := s.ready(); err != nil {
		return err
	}
	if err := t.Validate(); err != nil {
		return fmt.Errorf("storage: reject update: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE tasks SET
			title = ?, description = ?, due_time = ?,
			priority = ?, status = ?, category = ?,
			reminder_enabled = ?, reminder_minutes = ?
		WHERE id = ?`,
		t.Title, t.Description, nullTimeValue(t.DueTime),
		int(t.Priority), int(t.Status), t.Category,
		boolInt(t.ReminderEnabled), t.ReminderMinutes, t.ID,
	)
	if err != nil {
		return s.fail("update task", err)
	}
	if err := checkRowsAffected(res); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM task_tags WHERE task_id = ?`, t.ID); err != nil {
		return s.fail("replace task tags", err)
	}
	for _, tag := range t.Tags {
		if err := s.AddTagToTask(ctx, t.ID, tag); err != nil {
			return err
		}
	}

	s.notifyUpdated(t)
	return nil
}

// DeleteTask removes the task row; its tag rows go with it through the
// cascading foreign key.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	if err := s.ready(); err != nil {
		return err
	}
	if id == "" {
		return fmt.Errorf("storage: delete task: empty id")
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return s.fail("delete task", err)
	}
	if err := checkRowsAffected(res); err != nil {
		return err
	}

	s.notifyDeleted(id)
	return nil
}

func (s *Store) GetTask(ctx context.Context, id string) (model.Task, error) {
	if err := s.ready(); err != nil {
		return model.Task{}, err
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Task{}, ErrNotFound
		}
		return model.Task{}, s.fail("get task", err)
	}
	t.Tags, err = s.GetTaskTags(ctx, t.ID)
	if err != nil {
		return model.Task{}, err
	}
	return t, nil
}

func (s *Store) GetAllTasks(ctx context.Context) ([]model.Task, error) {
	return s.queryTasks(ctx, "get all tasks",
		`SELECT `+taskColumns+` FROM tasks ORDER BY create_time DESC`)
}

func (s *Store) GetTasksByCategory(ctx context.Context, category string) ([]model.Task, error) {
	return s.queryTasks(ctx, "get tasks by category",
		`SELECT `+taskColumns+` FROM tasks WHERE category = ? ORDER BY create_time DESC`, category)
}

func (s *Store) GetTasksByStatus(ctx context.Context, status model.Status) ([]model.Task, error) {
	return s.queryTasks(ctx, "get tasks by status",
		`SELECT `+taskColumns+` FROM tasks WHERE status = ? ORDER BY create_time DESC`, int(status))
}

func (s *Store) GetTasksByPriority(ctx context.Context, priority model.Priority) ([]model.Task, error) {
	return s.queryTasks(ctx, "get tasks by priority",
		`SELECT `+taskColumns+` FROM tasks WHERE priority = ? ORDER BY create_time DESC`, int(priority))
}

// GetOverdueTasks returns tasks due strictly before now that are not
// completed, soonest first.
func (s *Store) GetOverdueTasks(ctx context.Context, now time.Time) ([]model.Task, error) {
	return s.queryTasks(ctx, "get overdue tasks", `
		SELECT `+taskColumns+` FROM tasks
		WHERE due_time IS NOT NULL
		AND due_time < ?
		AND status != ?
		ORDER BY due_time ASC`,
		mustTime(now), int(model.StatusCompleted))
}

// GetTodayTasks returns tasks whose due date falls on now's date,
// regardless of status, soonest first.
func (s *Store) GetTodayTasks(ctx context.Context, now time.Time) ([]model.Task, error) {
	return s.queryTasks(ctx, "get today tasks", `
		SELECT `+taskColumns+` FROM tasks
		WHERE due_time IS NOT NULL
		AND date(due_time) = date(?)
		ORDER BY due_time ASC`,
		mustTime(now))
}

func (s *Store) queryTasks(ctx context.Context, op, query string, args ...any) ([]model.Task, error) {
	tasks := make([]model.Task, 0)
	if err := s.ready(); err != nil {
		return tasks, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return tasks, s.fail(op, err)
	}
	defer rows.Close()

	for rows.Next() {
		t, scanErr := scanTask(rows)
		if scanErr != nil {
			return tasks, s.fail(op, scanErr)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return tasks, s.fail(op, err)
	}

	for i := range tasks {
		tags, tagErr := s.GetTaskTags(ctx, tasks[i].ID)
		if tagErr != nil {
			return tasks, tagErr
		}
		tasks[i].Tags = tags
	}
	return tasks, nil
}

func (s *Store) AddTagToTask(ctx context.Context, taskID, tag string) error {
	if err := s.ready(); err != nil {
		return err
	}
	if taskID == "" || tag == "" {
		return fmt.Errorf("storage: add tag: empty task id or tag")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO task_tags (task_id, tag) VALUES (?, ?)`, taskID, tag)
	if err != nil {
		return s.fail("add tag", err)
	}
	return nil
}

func (s *Store) RemoveTagFromTask(ctx context.Context, taskID, tag string) error {
	if err := s.ready(); err != nil {
		return err
	}
	if taskID == "" || tag == "" {
		return fmt.Errorf("storage: remove tag: empty task id or tag")
	}
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM task_tags WHERE task_id = ? AND tag = ?`, taskID, tag)
	if err != nil {
		return s.fail("remove tag", err)
	}
	return nil
}

func (s *Store) GetTaskTags(ctx context.Context, taskID string) ([]string, error) {
	tags := make([]string, 0)
	if err := s.ready(); err != nil {
		return tags, err
	}
	if taskID == "" {
		return tags, nil
	}
	return s.queryStrings(ctx, "get task tags",
		`SELECT tag FROM task_tags WHERE task_id = ? ORDER BY tag`, taskID)
}

func (s *Store) GetAllTags(ctx context.Context) ([]string, error) {
	if err := s.ready(); err != nil {
		return []string{}, err
	}
	return s.queryStrings(ctx, "get all tags",
		`SELECT DISTINCT tag FROM task_tags ORDER BY tag`)
}

func (s *Store) GetAllCategories(ctx context.Context) ([]string, error) {
	if err := s.ready(); err != nil {
		return []string{}, err
	}
	return s.queryStrings(ctx, "get all categories",
		`SELECT DISTINCT category FROM tasks ORDER BY category`)
}

func (s *Store) queryStrings(ctx context.Context, op, query string, args ...any) ([]string, error) {
	out := make([]string, 0)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return out, s.fail(op, err)
	}
	defer rows.Close()

	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return out, s.fail(op, err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return out, s.fail(op, err)
	}
	return out, nil
}

func (s *Store) GetTotalTaskCount(ctx context.Context) (int, error) {
	return s.count(ctx, "total task count", `SELECT COUNT(*) FROM tasks`)
}

func (s *Store) GetCompletedTaskCount(ctx context.Context) (int, error) {
	return s.count(ctx, "completed task count",
		`SELECT COUNT(*) FROM tasks WHERE status = ?`, int(model.StatusCompleted))
}

func (s *Store) GetPendingTaskCount(ctx context.Context) (int, error) {
	return s.count(ctx, "pending task count",
		`SELECT COUNT(*) FROM tasks WHERE status = ?`, int(model.StatusPending))
}

func (s *Store) GetTaskCountByCategory(ctx context.Context, category string) (int, error) {
	return s.count(ctx, "task count by category",
		`SELECT COUNT(*) FROM tasks WHERE category = ?`, category)
}

func (s *Store) count(ctx context.Context, op, query string, args ...any) (int, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, s.fail(op, err)
	}
	return n, nil
}

// SetConfig stores an arbitrary key/value pair, last write wins.
func (s *Store) SetConfig(ctx context.Context, key, value string) error {
	if err := s.ready(); err != nil {
		return err
	}
	if key == "" {
		return fmt.Errorf("storage: set config: empty key")
	}
	return s.setConfig(ctx, key, value)
}

func (s *Store) setConfig(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO app_config (key, value) VALUES (?, ?)`, key, value)
	if err != nil {
		return s.fail("set config", err)
	}
	return nil
}

// GetConfig returns the stored value for key, or defaultValue when the key
// is absent.
func (s *Store) GetConfig(ctx context.Context, key, defaultValue string) (string, error) {
	if err := s.ready(); err != nil {
		return defaultValue, err
	}
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM app_config WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return defaultValue, nil
	}
	if err != nil {
		return defaultValue, s.fail("get config", err)
	}
	return value, nil
}

func timeValue(v time.Time) any {
	if v.IsZero() {
		return nil
	}
	return v.UTC().Format(sqliteTimeLayout)
}

func nullTimeValue(v *time.Time) any {
	if v == nil {
		return nil
	}
	return v.UTC().Format(sqliteTimeLayout)
}

func mustTime(v time.Time) string {
	return v.UTC().Format(sqliteTimeLayout)
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(sc scanner) (model.Task, error) {
	var t model.Task
	var description sql.NullString
	// The driver converts DATETIME and BOOLEAN columns by declared type,
	// so these must be scanned as time.Time and bool rather than raw text.
	var created, due sql.NullTime
	var reminderEnabled bool
	var priority, status, reminderMinutes int
	if err := sc.Scan(&t.ID, &t.Title, &description, &created, &due,
		&priority, &status, &t.Category, &reminderEnabled, &reminderMinutes); err != nil {
		return model.Task{}, err
	}
	t.Description = description.String
	if created.Valid {
		t.CreateTime = created.Time.UTC()
	}
	if due.Valid {
		dueTime := due.Time.UTC()
		t.DueTime = &dueTime
	}
	t.Priority = model.Priority(priority)
	t.Status = model.Status(status)
	t.ReminderEnabled = reminderEnabled
	t.ReminderMinutes = reminderMinutes
	return t, nil
}

func checkRowsAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
