package infra

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

const migrationsSubdir = "db/migrations"

// RunMigrations applies pending schema migrations from dir. An empty dir
// searches upward from the working directory, which lets the binaries and the
// integration suite run from any package directory.
func RunMigrations(dsn, dir string, logger *slog.Logger) error {
	if dir == "" {
		dir = FindMigrationDir()
	}
	m, err := migrate.New("file://"+filepath.ToSlash(dir), dsn)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("read schema version: %w", err)
	}
	if dirty {
		return fmt.Errorf("schema version %d is dirty", version)
	}
	logger.Info("schema up to date", "version", version)
	return nil
}

// FindMigrationDir returns the nearest db/migrations directory at or above
// the working directory, or the relative path when none is found.
func FindMigrationDir() string {
	dir, err := os.Getwd()
	if err != nil {
		return migrationsSubdir
	}
	for {
		candidate := filepath.Join(dir, migrationsSubdir)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return migrationsSubdir
		}
		dir = parent
	}
}
