package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
)

// schemaVersion is the version the code expects. Initialize migrates any
// older database up to it, one step at a time.
const schemaVersion = 1

const versionKey = "database_version"

// migrationStep transforms the schema from exactly one version to the
// next. A required transition without a registered step fails
// initialization.
type migrationStep struct {
	from  int
	to    int
	apply func(ctx context.Context, s *Store) error
}

var migrationSteps = []migrationStep{
	// 0 -> 1: initial schema. Tables and indexes are created by
	// Initialize before migration runs, so the step only records the
	// version.
	{from: 0, to: 1, apply: func(ctx context.Context, s *Store) error { return nil }},
}

func findMigrationStep(from, to int) (migrationStep, bool) {
	for _, step := range migrationSteps {
		if step.from == from && step.to == to {
			return step, true
		}
	}
	return migrationStep{}, false
}

func (s *Store) migrate(ctx context.Context, from, to int) error {
	if from == to {
		return nil
	}
	s.log.Infow("migrating database", "from", from, "to", to)

	for v := from; v < to; v++ {
		step, ok := findMigrationStep(v, v+1)
		if !ok {
			return fmt.Errorf("storage: no migration step from version %d to %d", v, v+1)
		}
		if err := step.apply(ctx, s); err != nil {
			return fmt.Errorf("storage: migrate %d to %d: %w", v, v+1, err)
		}
		s.log.Infow("migration step applied", "version", v+1)
	}

	return s.writeDatabaseVersion(ctx, to)
}

// GetDatabaseVersion reports the schema version recorded in app_config; a
// database without the entry is version 0.
func (s *Store) GetDatabaseVersion(ctx context.Context) (int, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	return s.readDatabaseVersion(ctx)
}

func (s *Store) readDatabaseVersion(ctx context.Context) (int, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM app_config WHERE key = ?`, versionKey).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		// Missing row means a fresh database.
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("storage: read %s: %w", versionKey, err)
	}
	v, convErr := strconv.Atoi(value)
	if convErr != nil {
		return 0, fmt.Errorf("storage: corrupt %s value %q", versionKey, value)
	}
	return v, nil
}

func (s *Store) writeDatabaseVersion(ctx context.Context, version int) error {
	return s.setConfig(ctx, versionKey, strconv.Itoa(version))
}
