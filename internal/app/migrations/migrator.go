package migrations

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/yigit/studentgrades/internal/db"
)

//go:embed sql
var embedded embed.FS

// Migrator applies the embedded schema files of the database's dialect, in
// file name order, each inside its own transaction.
type Migrator struct {
	db     *db.Database
	files  fs.FS
	logger zerolog.Logger
}

// NewMigrator creates a migrator for the embedded schema of database's dialect
func NewMigrator(database *db.Database) (*Migrator, error) {
	files, err := fs.Sub(embedded, path.Join("sql", string(database.Dialect())))
	if err != nil {
		return nil, fmt.Errorf("no migrations for dialect %s: %w", database.Dialect(), err)
	}
	return NewMigratorFS(database, files), nil
}

// NewMigratorFS creates a migrator reading *.sql files from the root of files
func NewMigratorFS(database *db.Database, files fs.FS) *Migrator {
	return &Migrator{
		db:     database,
		files:  files,
		logger: database.Logger().With().Str("component", "migrator").Logger(),
	}
}

// ensureMigrationTableExists creates the migration tracking table if it doesn't exist
func (m *Migrator) ensureMigrationTableExists(ctx context.Context) error {
	return m.db.RunInTransaction(ctx, "migrations.ensure_table", func(ctx context.Context, q db.Querier) error {
		_, err := q.ExecContext(ctx, `
			CREATE TABLE IF NOT EXISTS schema_migrations (
				version VARCHAR(255) PRIMARY KEY,
				applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
			)`)
		return err
	})
}

func (m *Migrator) isMigrationApplied(ctx context.Context, q db.Querier, version string) (bool, error) {
	sqlText, args, err := m.db.Builder().
		Select("COUNT(*)").
		From("schema_migrations").
		Where("version = ?", version).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build migration status query: %w", err)
	}

	var n int
	if err := q.QueryRowContext(ctx, sqlText, args...).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to check migration status: %w", err)
	}
	return n > 0, nil
}

func (m *Migrator) recordMigration(ctx context.Context, q db.Querier, version string) error {
	sqlText, args, err := m.db.Builder().
		Insert("schema_migrations").
		Columns("version").
		Values(version).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build record migration query: %w", err)
	}
	if _, err := q.ExecContext(ctx, sqlText, args...); err != nil {
		return fmt.Errorf("failed to record migration: %w", err)
	}
	return nil
}

// Up applies every pending migration and returns the versions it applied
func (m *Migrator) Up(ctx context.Context) ([]string, error) {
	if err := m.ensureMigrationTableExists(ctx); err != nil {
		return nil, err
	}

	entries, err := fs.ReadDir(m.files, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read migration directory: %w", err)
	}

	var sqlFiles []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			sqlFiles = append(sqlFiles, entry.Name())
		}
	}
	sort.Strings(sqlFiles)

	var applied []string
	for _, name := range sqlFiles {
		ok, err := m.apply(ctx, name)
		if err != nil {
			return applied, err
		}
		if ok {
			applied = append(applied, versionOf(name))
		}
	}
	return applied, nil
}

func (m *Migrator) apply(ctx context.Context, name string) (bool, error) {
	version := versionOf(name)

	content, err := fs.ReadFile(m.files, name)
	if err != nil {
		return false, fmt.Errorf("failed to read migration file %s: %w", name, err)
	}

	applied := false
	err = m.db.RunInTransaction(ctx, "migrations.apply", func(ctx context.Context, q db.Querier) error {
		done, err := m.isMigrationApplied(ctx, q, version)
		if err != nil {
			return err
		}
		if done {
			m.logger.Debug().Str("file", name).Msg("Migration already applied, skipping")
			return nil
		}

		for _, stmt := range splitStatements(string(content)) {
			if _, err := q.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("error occurred during SQL migration %s: %w", name, err)
			}
		}
		if err := m.recordMigration(ctx, q, version); err != nil {
			return err
		}
		applied = true
		return nil
	})
	if err != nil {
		return false, err
	}

	if applied {
		m.logger.Info().Str("file", name).Msg("Migration file successfully applied")
	}
	return applied, nil
}

// Applied lists the recorded migration versions in order
func (m *Migrator) Applied(ctx context.Context) ([]string, error) {
	return db.Read(ctx, m.db, "migrations.applied", func(ctx context.Context, q db.Querier) ([]string, error) {
		rows, err := q.QueryContext(ctx, `SELECT version FROM schema_migrations ORDER BY version`)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		var versions []string
		for rows.Next() {
			var v string
			if err := rows.Scan(&v); err != nil {
				return nil, err
			}
			versions = append(versions, v)
		}
		return versions, rows.Err()
	})
}

// versionOf extracts the version prefix, "001_init.sql" => "001"
func versionOf(name string) string {
	return strings.SplitN(path.Base(name), "_", 2)[0]
}

// splitStatements splits a schema file on semicolons. Schema files hold
// plain DDL only, no procedural bodies.
func splitStatements(content string) []string {
	var out []string
	for _, part := range strings.Split(content, ";") {
		if stmt := strings.TrimSpace(part); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}
