package db

import (
	stderrors "errors"
	"fmt"

	"todoapp/internal/domain/errors"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// Migration applies every pending migration found in migratePath to the database at dsn.
func Migration(dsn, migratePath string) error {
	if dsn == "" || migratePath == "" {
		return errors.ErrInvalidArgument
	}

	m, err := migrate.New("file://"+migratePath, dsn)
	if err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}
	defer func() {
		_, _ = m.Close()
	}()

	if err := m.Up(); err != nil && !stderrors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}
