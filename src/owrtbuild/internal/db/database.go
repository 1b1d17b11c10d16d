// Package db records build runs in a local SQLite database so past builds
// can be listed and inspected.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/openwrt-tools/owrtbuild/src/common/paths"
	"github.com/openwrt-tools/owrtbuild/src/owrtbuild/internal/db/migrations"
)

// Database wraps the SQLite connection holding the build history
type Database struct {
	db   *sql.DB
	path string
}

// Config holds the database configuration
type Config struct {
	// Path is the SQLite database file location
	Path string
}

// DefaultConfig returns a default database configuration
func DefaultConfig() Config {
	return Config{
		Path: "~/.owrtbuild/owrtbuild.db",
	}
}

// New opens (creating if needed) the history database and applies pending
// schema migrations
func New(cfg Config) (*Database, error) {
	path := paths.Expand(cfg.Path)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &Database{db: db, path: path}, nil
}

// DB returns the underlying sql.DB for direct queries
func (d *Database) DB() *sql.DB {
	return d.db
}

// Path returns the database file location
func (d *Database) Path() string {
	return d.path
}

// Close closes the database connection
func (d *Database) Close() error {
	return d.db.Close()
}
