package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// RunMigrations applies the warehouse star-schema DDL. Only the warehouse
// side is migrated; the operational source is owned elsewhere.
func RunMigrations(cfg DBConfig) error {
	user := url.QueryEscape(cfg.User)
	pass := url.QueryEscape(cfg.Password)

	migrateURL := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		user, pass, cfg.Host, cfg.Port, cfg.DBName, cfg.SSLMode,
	)

	path, _ := os.Getwd()
	migrationsPath := fmt.Sprintf("file://%s/internal/db/migrations", strings.ReplaceAll(path, "\\", "/"))

	m, err := migrate.New(migrationsPath, migrateURL)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("applying migrations: %w", err)
	}
	return nil
}
