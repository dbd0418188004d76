package db

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"regexp"
	"slices"
	"strconv"
	"time"

	"github.com/colonyops/touchline/internal/core/logging"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migration is a single versioned schema change with up and down SQL.
type Migration struct {
	Version int
	Name    string
	UpSQL   string
	DownSQL string
}

// MigrationStatus pairs a known migration with when it was applied. Applied
// is the zero time for pending migrations.
type MigrationStatus struct {
	Version int
	Name    string
	Applied time.Time
}

// Pending reports whether the migration has not run yet.
func (s MigrationStatus) Pending() bool { return s.Applied.IsZero() }

var migrationFile = regexp.MustCompile(`^(\d+)_(\w+)\.(up|down)\.sql$`)

// parseFilename splits "NNNN_name.up.sql" or "NNNN_name.down.sql".
func parseFilename(filename string) (version int, name, direction string, err error) {
	m := migrationFile.FindStringSubmatch(filename)
	if m == nil {
		return 0, "", "", fmt.Errorf("expected NNNN_name.{up,down}.sql, got %q", filename)
	}
	version, err = strconv.Atoi(m[1])
	if err != nil {
		return 0, "", "", fmt.Errorf("version %q: %w", m[1], err)
	}
	if version <= 0 {
		return 0, "", "", fmt.Errorf("version must be positive, got %d", version)
	}
	return version, m[2], m[3], nil
}

// loadMigrations reads the embedded SQL files sorted by version. Each
// version needs exactly one up and one down file with the same name.
func loadMigrations() ([]Migration, error) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("reading migrations: %w", err)
	}

	byVersion := map[int]*Migration{}
	for _, entry := range entries {
		version, name, direction, err := parseFilename(entry.Name())
		if err != nil {
			return nil, err
		}
		body, err := fs.ReadFile(migrationsFS, "migrations/"+entry.Name())
		if err != nil {
			return nil, err
		}

		m := byVersion[version]
		if m == nil {
			m = &Migration{Version: version, Name: name}
			byVersion[version] = m
		}
		if m.Name != name {
			return nil, fmt.Errorf("migration %04d is named both %q and %q", version, m.Name, name)
		}

		slot := &m.UpSQL
		if direction == "down" {
			slot = &m.DownSQL
		}
		if *slot != "" {
			return nil, fmt.Errorf("duplicate %s file for migration %04d", direction, version)
		}
		*slot = string(body)
	}

	out := make([]Migration, 0, len(byVersion))
	for _, m := range byVersion {
		if m.UpSQL == "" || m.DownSQL == "" {
			return nil, fmt.Errorf("migration %04d (%s) needs both up and down files", m.Version, m.Name)
		}
		out = append(out, *m)
	}
	slices.SortFunc(out, func(a, b Migration) int { return a.Version - b.Version })
	return out, nil
}

// plan loads the embedded migrations together with the applied_at time of
// each one already recorded in conn.
func plan(ctx context.Context, conn *sql.DB) ([]Migration, map[int]time.Time, error) {
	migrations, err := loadMigrations()
	if err != nil {
		return nil, nil, err
	}

	if _, err := conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INTEGER PRIMARY KEY,
			name       TEXT NOT NULL,
			applied_at INTEGER NOT NULL
		)`); err != nil {
		return nil, nil, fmt.Errorf("creating schema_migrations: %w", err)
	}

	rows, err := conn.QueryContext(ctx, "SELECT version, applied_at FROM schema_migrations")
	if err != nil {
		return nil, nil, fmt.Errorf("reading schema_migrations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	applied := map[int]time.Time{}
	for rows.Next() {
		var (
			version int
			at      int64
		)
		if err := rows.Scan(&version, &at); err != nil {
			return nil, nil, err
		}
		applied[version] = time.Unix(0, at)
	}
	return migrations, applied, rows.Err()
}

// Status lists every known migration, oldest first.
func Status(ctx context.Context, conn *sql.DB) ([]MigrationStatus, error) {
	migrations, applied, err := plan(ctx, conn)
	if err != nil {
		return nil, err
	}
	out := make([]MigrationStatus, len(migrations))
	for i, m := range migrations {
		out[i] = MigrationStatus{Version: m.Version, Name: m.Name, Applied: applied[m.Version]}
	}
	return out, nil
}

// migrateUp applies every pending migration in version order.
func migrateUp(ctx context.Context, conn *sql.DB) error {
	migrations, applied, err := plan(ctx, conn)
	if err != nil {
		return err
	}

	log := logging.Component("db")
	for _, m := range migrations {
		if _, done := applied[m.Version]; done {
			continue
		}
		log.Info().Int("version", m.Version).Str("name", m.Name).Msg("applying migration")
		err := inTx(ctx, conn, m.UpSQL,
			"INSERT INTO schema_migrations (version, name, applied_at) VALUES (?, ?, ?)",
			m.Version, m.Name, time.Now().UnixNano())
		if err != nil {
			return fmt.Errorf("migration %04d (%s): %w", m.Version, m.Name, err)
		}
	}
	return nil
}

// ErrNothingToRevert is returned by MigrateDown when fewer than n
// migrations are applied.
var ErrNothingToRevert = errors.New("not enough applied migrations")

// MigrateDown reverts the n most recently applied migrations, newest first,
// and returns what it reverted.
func MigrateDown(ctx context.Context, conn *sql.DB, n int) ([]Migration, error) {
	if n <= 0 {
		return nil, fmt.Errorf("n must be positive, got %d", n)
	}

	migrations, applied, err := plan(ctx, conn)
	if err != nil {
		return nil, err
	}

	var targets []Migration
	for i := len(migrations) - 1; i >= 0 && len(targets) < n; i-- {
		if _, done := applied[migrations[i].Version]; done {
			targets = append(targets, migrations[i])
		}
	}
	if len(targets) < n {
		return nil, fmt.Errorf("%w: asked for %d, %d applied", ErrNothingToRevert, n, len(targets))
	}

	log := logging.Component("db")
	for i, m := range targets {
		log.Info().Int("version", m.Version).Str("name", m.Name).Msg("reverting migration")
		err := inTx(ctx, conn, m.DownSQL, "DELETE FROM schema_migrations WHERE version = ?", m.Version)
		if err != nil {
			return targets[:i], fmt.Errorf("revert %04d (%s): %w", m.Version, m.Name, err)
		}
	}
	return targets, nil
}

// inTx runs a migration body and its schema_migrations bookkeeping
// atomically.
func inTx(ctx context.Context, conn *sql.DB, body, record string, args ...any) error {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, body); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, record, args...); err != nil {
		return fmt.Errorf("recording: %w", err)
	}
	return tx.Commit()
}
