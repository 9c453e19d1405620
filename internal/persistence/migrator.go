package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"RouterLedger/internal/observability"
)

// migrationLockID is the advisory lock key guarding concurrent migrators.
// Several service replicas may run Up at startup; only one applies.
const migrationLockID = 0x726f7574 // "rout"

// migration is one versioned pair of SQL files on disk,
// {version}_{name}.up.sql and {version}_{name}.down.sql.
type migration struct {
	Version string
	Name    string
	UpFile  string
}

func (mi migration) downFile() string {
	return strings.Replace(mi.UpFile, ".up.sql", ".down.sql", 1)
}

// Migrator applies the SQL files under migrations/ in version order and
// records them in public.schema_migrations.
type Migrator struct {
	db            *sql.DB
	migrationsDir string
}

func NewMigrator(db *sql.DB, migrationsDir string) *Migrator {
	return &Migrator{db: db, migrationsDir: migrationsDir}
}

// Up applies every pending migration, oldest first.
func (m *Migrator) Up(ctx context.Context) error {
	logger := observability.NewLogger("migrate")

	unlock, err := m.acquireLock(ctx)
	if err != nil {
		return fmt.Errorf("acquire migration lock: %w", err)
	}
	defer unlock()

	if err := m.ensureVersionTable(ctx); err != nil {
		return fmt.Errorf("ensure version table: %w", err)
	}

	applied, err := m.appliedVersions(ctx)
	if err != nil {
		return fmt.Errorf("read applied versions: %w", err)
	}

	pending, err := m.discover()
	if err != nil {
		return fmt.Errorf("discover migrations: %w", err)
	}

	for _, mi := range pending {
		if applied[mi.Version] {
			continue
		}

		sqlText, err := os.ReadFile(filepath.Join(m.migrationsDir, mi.UpFile))
		if err != nil {
			return fmt.Errorf("read %s: %w", mi.UpFile, err)
		}

		err = m.inTx(ctx, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, string(sqlText)); err != nil {
				return err
			}
			_, err := tx.ExecContext(ctx,
				`INSERT INTO public.schema_migrations (version, filename) VALUES ($1, $2)`,
				mi.Version, mi.UpFile,
			)
			return err
		})
		if err != nil {
			return fmt.Errorf("apply %s: %w", mi.UpFile, err)
		}

		logger.Info().Str("version", mi.Version).Str("name", mi.Name).Msg("migration applied")
	}

	return nil
}

// Down rolls back the newest applied migration, if any.
func (m *Migrator) Down(ctx context.Context) error {
	logger := observability.NewLogger("migrate")

	unlock, err := m.acquireLock(ctx)
	if err != nil {
		return fmt.Errorf("acquire migration lock: %w", err)
	}
	defer unlock()

	if err := m.ensureVersionTable(ctx); err != nil {
		return err
	}

	var version, filename string
	err = m.db.QueryRowContext(ctx,
		`SELECT version, filename FROM public.schema_migrations ORDER BY version DESC LIMIT 1`,
	).Scan(&version, &filename)
	if err == sql.ErrNoRows {
		logger.Info().Msg("nothing to roll back")
		return nil
	}
	if err != nil {
		return fmt.Errorf("read newest migration: %w", err)
	}

	mi := migration{Version: version, UpFile: filename}
	sqlText, err := os.ReadFile(filepath.Join(m.migrationsDir, mi.downFile()))
	if err != nil {
		return fmt.Errorf("read %s: %w", mi.downFile(), err)
	}

	err = m.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, string(sqlText)); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			`DELETE FROM public.schema_migrations WHERE version = $1`, version,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("roll back %s: %w", mi.downFile(), err)
	}

	logger.Info().Str("version", version).Msg("migration rolled back")
	return nil
}

func (m *Migrator) acquireLock(ctx context.Context) (func(), error) {
	if _, err := m.db.ExecContext(ctx, `SELECT pg_advisory_lock($1)`, migrationLockID); err != nil {
		return nil, err
	}
	return func() {
		m.db.ExecContext(context.Background(), `SELECT pg_advisory_unlock($1)`, migrationLockID)
	}, nil
}

func (m *Migrator) ensureVersionTable(ctx context.Context) error {
	_, err := m.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS public.schema_migrations (
			version    TEXT PRIMARY KEY,
			filename   TEXT NOT NULL,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	return err
}

func (m *Migrator) appliedVersions(ctx context.Context) (map[string]bool, error) {
	rows, err := m.db.QueryContext(ctx, `SELECT version FROM public.schema_migrations`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		applied[v] = true
	}
	return applied, rows.Err()
}

// discover lists the up-migrations on disk, sorted by version.
func (m *Migrator) discover() ([]migration, error) {
	entries, err := os.ReadDir(m.migrationsDir)
	if err != nil {
		return nil, err
	}

	var out []migration
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".up.sql") {
			continue
		}
		version, rest, ok := strings.Cut(name, "_")
		if !ok {
			return nil, fmt.Errorf("migration %q does not match {version}_{name}.up.sql", name)
		}
		out = append(out, migration{
			Version: version,
			Name:    strings.TrimSuffix(rest, ".up.sql"),
			UpFile:  name,
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

func (m *Migrator) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}
