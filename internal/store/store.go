// Package store persists workspace-local console state in a sqlite
// database: an audit log of dispatched commands and the guest inventory
// captured by sync.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// CommandRecord is one row of the command audit log.
type CommandRecord struct {
	ID         int64
	Line       string
	Kind       string
	Outcome    string // "ok" or "error"
	ErrorText  string
	ExecutedAt time.Time
}

// Resource is one synced guest (VM or container).
type Resource struct {
	VMID     int
	Type     string // "qemu" or "lxc"
	Node     string
	Name     string
	Status   string
	CPUs     int
	MaxMem   int64
	MaxDisk  int64
	SyncedAt time.Time
}

// Store wraps the workspace state database.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the state database at path.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("store path must be set")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("prepare store dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open state db: %w", err)
	}

	if _, err := db.ExecContext(context.Background(), `
CREATE TABLE IF NOT EXISTS command_log (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	line TEXT NOT NULL,
	kind TEXT NOT NULL,
	outcome TEXT NOT NULL,
	error_text TEXT NOT NULL DEFAULT '',
	executed_at TIMESTAMP NOT NULL
)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("init command_log schema: %w", err)
	}

	if _, err := db.ExecContext(context.Background(), `
CREATE TABLE IF NOT EXISTS resources (
	vmid INTEGER NOT NULL,
	type TEXT NOT NULL,
	node TEXT NOT NULL,
	name TEXT NOT NULL,
	status TEXT NOT NULL,
	cpus INTEGER NOT NULL DEFAULT 0,
	maxmem INTEGER NOT NULL DEFAULT 0,
	maxdisk INTEGER NOT NULL DEFAULT 0,
	synced_at TIMESTAMP NOT NULL,
	PRIMARY KEY (vmid, type)
)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("init resources schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// RecordCommand appends one entry to the audit log.
func (s *Store) RecordCommand(ctx context.Context, line, kind string, execErr error) error {
	outcome := "ok"
	errText := ""
	if execErr != nil {
		outcome = "error"
		errText = execErr.Error()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO command_log (line, kind, outcome, error_text, executed_at) VALUES (?, ?, ?, ?, ?)`,
		line, kind, outcome, errText, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("record command: %w", err)
	}
	return nil
}

// RecentCommands returns up to limit audit entries, newest first.
func (s *Store) RecentCommands(ctx context.Context, limit int) ([]CommandRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, line, kind, outcome, error_text, executed_at FROM command_log ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query command log: %w", err)
	}
	defer rows.Close()

	var records []CommandRecord
	for rows.Next() {
		var rec CommandRecord
		if err := rows.Scan(&rec.ID, &rec.Line, &rec.Kind, &rec.Outcome, &rec.ErrorText, &rec.ExecutedAt); err != nil {
			return nil, fmt.Errorf("scan command log: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// UpsertResources replaces the inventory rows for the given resources.
func (s *Store) UpsertResources(ctx context.Context, resources []Resource) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin sync tx: %w", err)
	}
	defer tx.Rollback()

	for _, r := range resources {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO resources (vmid, type, node, name, status, cpus, maxmem, maxdisk, synced_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(vmid, type) DO UPDATE SET
	node=excluded.node, name=excluded.name, status=excluded.status,
	cpus=excluded.cpus, maxmem=excluded.maxmem, maxdisk=excluded.maxdisk,
	synced_at=excluded.synced_at`,
			r.VMID, r.Type, r.Node, r.Name, r.Status, r.CPUs, r.MaxMem, r.MaxDisk, r.SyncedAt.UTC()); err != nil {
			return fmt.Errorf("upsert resource %d: %w", r.VMID, err)
		}
	}
	return tx.Commit()
}

// ListResources returns the synced inventory ordered by vmid.
func (s *Store) ListResources(ctx context.Context) ([]Resource, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT vmid, type, node, name, status, cpus, maxmem, maxdisk, synced_at FROM resources ORDER BY vmid`)
	if err != nil {
		return nil, fmt.Errorf("query resources: %w", err)
	}
	defer rows.Close()

	var resources []Resource
	for rows.Next() {
		var r Resource
		if err := rows.Scan(&r.VMID, &r.Type, &r.Node, &r.Name, &r.Status, &r.CPUs, &r.MaxMem, &r.MaxDisk, &r.SyncedAt); err != nil {
			return nil, fmt.Errorf("scan resource: %w", err)
		}
		resources = append(resources, r)
	}
	return resources, rows.Err()
}
