package store

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// Catalog records metadata for every occupied slot
type Catalog struct {
	db *sqlx.DB
}

func NewCatalog(dbPath string) (*Catalog, error) {
	// Create directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create catalog directory: %w", err)
	}

	db, err := sqlx.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	// sqlite has a single writer, queue callers on one connection
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping catalog: %w", err)
	}

	catalog := &Catalog{db: db}
	if err := catalog.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate catalog: %w", err)
	}

	return catalog, nil
}

// OpenCatalog opens the catalog at dbPath. A file that cannot be opened or migrated is
// moved aside and a fresh catalog is created in its place; Reconcile refills it from disk.
func OpenCatalog(dbPath string) (*Catalog, error) {
	catalog, err := NewCatalog(dbPath)
	if err == nil {
		return catalog, nil
	}
	if _, statErr := os.Stat(dbPath); statErr != nil {
		return nil, err
	}

	aside := fmt.Sprintf("%s.corrupt-%d", dbPath, time.Now().Unix())
	slog.Warn("catalog unusable, starting a new one", "path", dbPath, "moved_to", aside, "error", err)
	if err := os.Rename(dbPath, aside); err != nil {
		return nil, fmt.Errorf("failed to move corrupt catalog aside: %w", err)
	}
	for _, suffix := range []string{"-wal", "-shm", "-journal"} {
		os.Remove(dbPath + suffix)
	}

	return NewCatalog(dbPath)
}

func (c *Catalog) migrate() error {
	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	return goose.Up(c.db.DB, "migrations")
}

// Record inserts or replaces the row for a.Slot
func (c *Catalog) Record(a Artifact) error {
	const stmt = `
		INSERT INTO slots (slot, size, checksum, uploaded_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(slot) DO UPDATE SET
			size        = excluded.size,
			checksum    = excluded.checksum,
			uploaded_at = excluded.uploaded_at
	`
	if _, err := c.db.Exec(stmt, a.Slot, a.Size, a.Checksum, a.UploadedAt.UnixMilli()); err != nil {
		return fmt.Errorf("failed to record slot %d: %w", a.Slot, err)
	}
	return nil
}

func (c *Catalog) Remove(slot int) error {
	if _, err := c.db.Exec(`DELETE FROM slots WHERE slot = ?`, slot); err != nil {
		return fmt.Errorf("failed to remove slot %d: %w", slot, err)
	}
	return nil
}

func (c *Catalog) Get(slot int) (*Artifact, error) {
	var row slotRow
	err := c.db.Get(&row, `SELECT slot, size, checksum, uploaded_at FROM slots WHERE slot = ?`, slot)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get slot %d: %w", slot, err)
	}
	a := row.artifact()
	return &a, nil
}

// List returns every recorded slot ordered by slot index
func (c *Catalog) List() ([]Artifact, error) {
	var rows []slotRow
	if err := c.db.Select(&rows, `SELECT slot, size, checksum, uploaded_at FROM slots ORDER BY slot ASC`); err != nil {
		return nil, fmt.Errorf("failed to list slots: %w", err)
	}

	artifacts := make([]Artifact, 0, len(rows))
	for _, row := range rows {
		artifacts = append(artifacts, row.artifact())
	}
	return artifacts, nil
}

func (c *Catalog) Close() error {
	return c.db.Close()
}
