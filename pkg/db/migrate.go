package db

import (
	"errors"
	"fmt"
	"log"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"amenitybook/pkg/config"
)

// Migrate brings the reservation schema up to date and returns the version
// it ended on. A schema left dirty by a failed run is reported rather than
// built upon; fix it by hand and force the version.
func Migrate(migrationsPath string, cfg config.Config) (uint, error) {
	m, err := migrate.New(migrationsPath, migrationConnString(cfg))
	if err != nil {
		return 0, err
	}
	defer func() { _, _ = m.Close() }()

	if v, dirty, err := m.Version(); err == nil && dirty {
		return v, fmt.Errorf("schema is dirty at version %d", v)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, err
	}

	v, _, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	log.Printf("db: schema at version=%d", v)
	return v, nil
}
