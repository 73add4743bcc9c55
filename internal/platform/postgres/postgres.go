// Package postgres opens the database connection and applies embedded schema
// migrations at startup.
package postgres

import (
	"database/sql"
	"embed"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	migrate "github.com/rubenv/sql-migrate"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Open connects to PostgreSQL and applies pending migrations.
func Open(databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := Migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate applies pending schema migrations. Exposed separately so
// integration tests can run it against a container database.
func Migrate(db *sql.DB) error {
	source := &migrate.EmbedFileSystemMigrationSource{
		FileSystem: migrationFS,
		Root:       "migrations",
	}
	if _, err := migrate.Exec(db, "postgres", source, migrate.Up); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}
