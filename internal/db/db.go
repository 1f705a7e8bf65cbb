// Package db is the sqlite backend: the task list and the visibility
// switches live in one database file, with the schema managed by goose.
package db

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// DB is an open sqlite backend database
type DB struct {
	*sql.DB
	Path    string
	Version int64 // schema version after migrations
}

// Open opens the database at dbPath, creating it and its directory if
// needed, and brings the schema up to date
func Open(dbPath string) (*DB, error) {
	return OpenContext(context.Background(), dbPath)
}

// OpenContext is Open with a context for the connection check and
// migrations
func OpenContext(ctx context.Context, dbPath string) (*DB, error) {
	if dbPath == "" {
		return nil, errors.New("sqlite backend: no database path configured")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("sqlite backend: failed to create %s: %w", filepath.Dir(dbPath), err)
	}

	sqlDB, err := sql.Open("sqlite3", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("sqlite backend: failed to open %s: %w", dbPath, err)
	}

	// One writer; the whole list is replaced in a single transaction
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("sqlite backend: cannot use %s: %w", dbPath, err)
	}

	db := &DB{DB: sqlDB, Path: dbPath}
	if err := db.migrate(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("sqlite backend: %s: %w", dbPath, err)
	}
	return db, nil
}

func dsn(path string) string {
	return fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=ON", path)
}

// migrate applies pending embedded migrations and records the resulting
// schema version
func (db *DB) migrate(ctx context.Context) error {
	sub, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return err
	}
	provider, err := goose.NewProvider(goose.DialectSQLite3, db.DB, sub)
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	version, err := provider.GetDBVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	db.Version = version
	return nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.DB.Close()
}

// Transaction runs fn in a transaction, rolling back if fn fails
func (db *DB) Transaction(fn func(*sql.Tx) error) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return err
	}
	return tx.Commit()
}
