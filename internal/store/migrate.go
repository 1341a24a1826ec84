package store

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/simonvc/bistroledger/internal/logger"
)

//go:embed migrations
var migrations embed.FS

// migrate applies the embedded migrations for the store's dialect. The
// migrate instance is not closed because that would close the shared pool.
func (s *Store) migrate() error {
	src, err := iofs.New(migrations, "migrations/"+string(s.dialect))
	if err != nil {
		return fmt.Errorf("migration source: %w", err)
	}

	var driver database.Driver
	switch s.dialect {
	case Postgres:
		driver, err = postgres.WithInstance(s.writer, &postgres.Config{})
	default:
		driver, err = sqlite.WithInstance(s.writer, &sqlite.Config{})
	}
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, string(s.dialect), driver)
	if err != nil {
		return fmt.Errorf("migration instance: %w", err)
	}
	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.L.Debug("no new database migrations to apply", "dialect", s.dialect)
			return nil
		}
		return err
	}
	version, _, _ := m.Version()
	logger.L.Info("database migrations applied", "dialect", s.dialect, "version", version)
	return nil
}
