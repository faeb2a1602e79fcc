package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	"stry/store/migrations"

	"github.com/sirupsen/logrus"
)

const (
	migrationTable = "schema_migrations"
	upMarker       = "-- +migrate Up"
	downMarker     = "-- +migrate Down"
)

type migration struct {
	name string
	up   string
	down string
}

// afterUp runs inside the transaction of the named migration, for the
// steps SQLite cannot express in SQL.
var afterUp = map[string]func(ctx context.Context, tx *sql.Tx) error{
	"003_name_key.sql": backfillNameKeys,
}

// loadMigrations reads every .sql file of migrationFS in name order.
func loadMigrations(migrationFS fs.FS) ([]migration, error) {
	entries, err := fs.ReadDir(migrationFS, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	out := make([]migration, 0, len(names))
	for _, name := range names {
		content, err := fs.ReadFile(migrationFS, name)
		if err != nil {
			return nil, fmt.Errorf("failed to read migration %s: %w", name, err)
		}
		up, down := splitMigration(string(content))
		out = append(out, migration{name: name, up: up, down: down})
	}
	return out, nil
}

// splitMigration returns the SQL after "-- +migrate Up" and after
// "-- +migrate Down". A file without markers is all up.
func splitMigration(content string) (string, string) {
	upIdx := strings.Index(content, upMarker)
	downIdx := strings.Index(content, downMarker)
	switch {
	case upIdx == -1 && downIdx == -1:
		return content, ""
	case downIdx == -1:
		return content[upIdx+len(upMarker):], ""
	case upIdx == -1:
		return content[:downIdx], content[downIdx+len(downMarker):]
	case upIdx < downIdx:
		return content[upIdx+len(upMarker) : downIdx], content[downIdx+len(downMarker):]
	default:
		return content[upIdx+len(upMarker):], content[downIdx+len(downMarker) : upIdx]
	}
}

func ensureMigrationTable(ctx context.Context, sqlDB *sql.DB) error {
	createSQL := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
    name TEXT PRIMARY KEY,
    applied_at INTEGER NOT NULL
);
`, migrationTable)
	if _, err := sqlDB.ExecContext(ctx, createSQL); err != nil {
		return fmt.Errorf("failed to create migration table: %w", err)
	}
	return nil
}

// migrateUp applies every migration not yet recorded and returns their names.
func migrateUp(ctx context.Context, sqlDB *sql.DB, migrationFS fs.FS) ([]string, error) {
	all, err := loadMigrations(migrationFS)
	if err != nil {
		return nil, err
	}
	if err := ensureMigrationTable(ctx, sqlDB); err != nil {
		return nil, err
	}

	var applied []string
	for _, m := range all {
		done, err := isApplied(ctx, sqlDB, m.name)
		if err != nil {
			return applied, fmt.Errorf("failed to check migration %s: %w", m.name, err)
		}
		if done {
			continue
		}
		if err := runUp(ctx, sqlDB, m); err != nil {
			return applied, err
		}
		logrus.WithField("migration", m.name).Debug("Applied migration")
		applied = append(applied, m.name)
	}
	return applied, nil
}

func runUp(ctx context.Context, sqlDB *sql.DB, m migration) error {
	tx, err := sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin migration %s: %w", m.name, err)
	}
	defer tx.Rollback()

	if strings.TrimSpace(m.up) != "" {
		if _, err := tx.ExecContext(ctx, m.up); err != nil {
			return fmt.Errorf("failed to run migration %s: %w", m.name, err)
		}
	}
	if step, ok := afterUp[m.name]; ok {
		if err := step(ctx, tx); err != nil {
			return fmt.Errorf("failed to run migration %s: %w", m.name, err)
		}
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO "+migrationTable+" (name, applied_at) VALUES (?, ?)",
		m.name,
		time.Now().UTC().UnixMilli(),
	); err != nil {
		return fmt.Errorf("failed to record migration %s: %w", m.name, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration %s: %w", m.name, err)
	}
	return nil
}

// migrateDown reverts the last steps applied migrations, newest first, and
// returns their names.
func migrateDown(ctx context.Context, sqlDB *sql.DB, migrationFS fs.FS, steps int) ([]string, error) {
	if steps <= 0 {
		return nil, fmt.Errorf("steps must be positive, got %d", steps)
	}
	all, err := loadMigrations(migrationFS)
	if err != nil {
		return nil, err
	}
	if err := ensureMigrationTable(ctx, sqlDB); err != nil {
		return nil, err
	}
	byName := make(map[string]migration, len(all))
	for _, m := range all {
		byName[m.name] = m
	}

	names, err := appliedMigrations(ctx, sqlDB)
	if err != nil {
		return nil, err
	}

	var reverted []string
	for i := len(names) - 1; i >= 0 && len(reverted) < steps; i-- {
		m, ok := byName[names[i]]
		if !ok {
			return reverted, fmt.Errorf("migration %s is applied but unknown", names[i])
		}
		if err := runDown(ctx, sqlDB, m); err != nil {
			return reverted, err
		}
		logrus.WithField("migration", m.name).Debug("Reverted migration")
		reverted = append(reverted, m.name)
	}
	return reverted, nil
}

func runDown(ctx context.Context, sqlDB *sql.DB, m migration) error {
	if strings.TrimSpace(m.down) == "" {
		return fmt.Errorf("migration %s cannot be reverted", m.name)
	}
	tx, err := sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin migration %s: %w", m.name, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, m.down); err != nil {
		return fmt.Errorf("failed to revert migration %s: %w", m.name, err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM "+migrationTable+" WHERE name = ?", m.name); err != nil {
		return fmt.Errorf("failed to unrecord migration %s: %w", m.name, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration %s: %w", m.name, err)
	}
	return nil
}

func appliedMigrations(ctx context.Context, sqlDB *sql.DB) ([]string, error) {
	rows, err := sqlDB.QueryContext(ctx, "SELECT name FROM "+migrationTable+" ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to list migrations: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan migration: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func isApplied(ctx context.Context, sqlDB *sql.DB, name string) (bool, error) {
	var found int
	err := sqlDB.QueryRowContext(ctx, "SELECT 1 FROM "+migrationTable+" WHERE name = ?", name).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// backfillNameKeys fills name_key for entities saved before the column
// existed. SQLite's LOWER only folds ASCII.
func backfillNameKeys(ctx context.Context, tx *sql.Tx) error {
	for _, table := range []string{"authors", "origins", "tags"} {
		rows, err := tx.QueryContext(ctx, "SELECT id, name FROM "+table)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", table, err)
		}
		keys := map[string]string{}
		for rows.Next() {
			var id, name string
			if err := rows.Scan(&id, &name); err != nil {
				rows.Close()
				return fmt.Errorf("failed to scan %s: %w", table, err)
			}
			keys[id] = nameKey(name)
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", table, err)
		}

		for id, key := range keys {
			if _, err := tx.ExecContext(ctx, "UPDATE "+table+" SET name_key = ? WHERE id = ?", key, id); err != nil {
				return fmt.Errorf("failed to update %s: %w", table, err)
			}
		}
	}
	return nil
}

// MigrateUp applies the pending embedded migrations.
func (s *Store) MigrateUp(ctx context.Context) ([]string, error) {
	return migrateUp(ctx, s.sqlDB, migrations.FS)
}

// MigrateDown reverts the last steps embedded migrations.
func (s *Store) MigrateDown(ctx context.Context, steps int) ([]string, error) {
	return migrateDown(ctx, s.sqlDB, migrations.FS, steps)
}
