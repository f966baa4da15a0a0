package storage

import (
	"context"
	"fmt"
	"io"
	"os"
)

// ValidateIntegrity checks that the required tables exist, that no foreign
// key constraint is violated, and that no task_tags row is orphaned.
func (s *Store) ValidateIntegrity(ctx context.Context) error {
	if err := s.ready(); err != nil {
		return err
	}

	for _, table := range []string{"tasks", "task_tags", "app_config"} {
		var name string
		err := s.db.QueryRowContext(ctx,
			`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		if err != nil {
			return s.fail("integrity check", fmt.Errorf("required table %q is missing", table))
		}
	}

	rows, err := s.db.QueryContext(ctx, `PRAGMA foreign_key_check`)
	if err != nil {
		return s.fail("integrity check", err)
	}
	violated := rows.Next()
	closeErr := rows.Close()
	if violated {
		return s.fail("integrity check", fmt.Errorf("foreign key constraint violations detected"))
	}
	if closeErr != nil {
		return s.fail("integrity check", closeErr)
	}

	var orphans int
	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM task_tags tt
		LEFT JOIN tasks t ON tt.task_id = t.id
		WHERE t.id IS NULL`).Scan(&orphans)
	if err != nil {
		return s.fail("integrity check", err)
	}
	if orphans > 0 {
		return s.fail("integrity check", fmt.Errorf("%d orphaned task_tags rows", orphans))
	}
	return nil
}

// Repair deletes orphaned tag rows, recreates any missing indexes, and
// runs SQLite's own integrity check.
func (s *Store) Repair(ctx context.Context) error {
	if err := s.ready(); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		DELETE FROM task_tags
		WHERE task_id NOT IN (SELECT id FROM tasks)`)
	if err != nil {
		return s.fail("repair", err)
	}
	if removed, err := res.RowsAffected(); err == nil && removed > 0 {
		s.log.Infow("removed orphaned task_tags rows", "count", removed)
	}

	if err := s.createIndexes(ctx); err != nil {
		return err
	}

	var result string
	if err := s.db.QueryRowContext(ctx, `PRAGMA integrity_check`).Scan(&result); err != nil {
		return s.fail("repair", err)
	}
	if result != "ok" {
		return s.fail("repair", fmt.Errorf("integrity check reported %q", result))
	}
	return nil
}

// Backup writes an atomic snapshot of the whole database to backupPath.
func (s *Store) Backup(ctx context.Context, backupPath string) error {
	if err := s.ready(); err != nil {
		return err
	}
	if backupPath == "" {
		return fmt.Errorf("storage: backup: empty path")
	}
	if _, err := s.db.ExecContext(ctx, `VACUUM INTO ?`, backupPath); err != nil {
		return s.fail("backup", err)
	}
	return nil
}

// Restore replaces the database file with the snapshot at backupPath and
// re-initializes the store.
func (s *Store) Restore(ctx context.Context, backupPath string) error {
	if err := s.ready(); err != nil {
		return err
	}
	if backupPath == "" {
		return fmt.Errorf("storage: restore: empty path")
	}

	src, err := os.Open(backupPath)
	if err != nil {
		return fmt.Errorf("storage: restore: %w", err)
	}
	defer src.Close()

	if err := s.Close(); err != nil {
		return fmt.Errorf("storage: restore: close current: %w", err)
	}

	dst, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("storage: restore: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return fmt.Errorf("storage: restore: %w", err)
	}
	if err := dst.Close(); err != nil {
		return fmt.Errorf("storage: restore: %w", err)
	}

	return s.Initialize(ctx)
}

// Vacuum compacts the database file in place.
func (s *Store) Vacuum(ctx context.Context) error {
	if err := s.ready(); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `VACUUM`); err != nil {
		return s.fail("vacuum", err)
	}
	return nil
}
