package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // register sqlite driver
)

// sqliteSchemaDDL creates the todos collection and its secondary indexes.
//
// AUTOINCREMENT guarantees ids are never reused after deletion.
const sqliteSchemaDDL = `
CREATE TABLE IF NOT EXISTS todos (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    task TEXT NOT NULL,
    completed INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_todos_task ON todos(task);
CREATE INDEX IF NOT EXISTS idx_todos_completed ON todos(completed);
`

// sqlitePragmas are applied to the single connection on open.
var sqlitePragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA busy_timeout=5000",
}

// SQLiteBackend implements StorageBackend on an embedded SQLite database.
//
// The schema version is tracked in PRAGMA user_version. The backend keeps one
// long-lived connection; SQLite allows a single writer, so the pool is capped
// at one connection.
type SQLiteBackend struct {
	// DBPath is the absolute path to the SQLite database file.
	DBPath string

	db *sql.DB
}

// NewSQLiteBackend opens (or creates) the database at dbPath.
//
// Parent directories are created automatically. When the file is new
// (user_version 0) the todos table and indexes are created and the version is
// set to SchemaVersion. A database stamped with a newer version is rejected
// with ErrVersion.
func NewSQLiteBackend(ctx context.Context, dbPath string) (*SQLiteBackend, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range sqlitePragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	backend := &SQLiteBackend{DBPath: dbPath, db: db}
	if err := backend.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return backend, nil
}

// ensureSchema performs first-time setup when the database is at version 0.
func (b *SQLiteBackend) ensureSchema(ctx context.Context) error {
	var version int
	if err := b.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("failed to read user_version: %w", err)
	}

	switch {
	case version > SchemaVersion:
		return fmt.Errorf("%w: %s is at version %d, this build supports %d", ErrVersion, DatabaseName, version, SchemaVersion)
	case version == SchemaVersion:
		return nil
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin schema transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, sqliteSchemaDDL); err != nil {
		return fmt.Errorf("failed to execute schema DDL: %w", err)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", SchemaVersion)); err != nil {
		return fmt.Errorf("failed to set user_version: %w", err)
	}

	return tx.Commit()
}

// Add inserts a new, not-completed item and returns it with its assigned id.
func (b *SQLiteBackend) Add(ctx context.Context, task string) (TodoItem, error) {
	res, err := b.db.ExecContext(ctx, `INSERT INTO todos (task, completed) VALUES (?, 0)`, task)
	if err != nil {
		return TodoItem{}, fmt.Errorf("failed to insert todo: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return TodoItem{}, fmt.Errorf("failed to read inserted id: %w", err)
	}

	return TodoItem{ID: id, Task: task}, nil
}

// List returns all items ordered by id.
func (b *SQLiteBackend) List(ctx context.Context) ([]TodoItem, error) {
	rows, err := b.db.QueryContext(ctx, `SELECT id, task, completed FROM todos ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query todos: %w", err)
	}
	defer func() { _ = rows.Close() }()

	result := make([]TodoItem, 0)
	for rows.Next() {
		item, err := scanTodo(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return result, nil
}

// Get returns a single item by id.
func (b *SQLiteBackend) Get(ctx context.Context, id int64) (TodoItem, error) {
	row := b.db.QueryRowContext(ctx, `SELECT id, task, completed FROM todos WHERE id = ?`, id)
	return scanTodo(row)
}

// Update runs a read-modify-write of one record inside a transaction.
func (b *SQLiteBackend) Update(ctx context.Context, id int64, mutate func(*TodoItem)) (TodoItem, error) {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return TodoItem{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	item, err := scanTodo(tx.QueryRowContext(ctx, `SELECT id, task, completed FROM todos WHERE id = ?`, id))
	if err != nil {
		return TodoItem{}, err
	}

	mutate(&item)
	item.ID = id

	if _, err := tx.ExecContext(ctx,
		`UPDATE todos SET task = ?, completed = ? WHERE id = ?`,
		item.Task, item.Completed, item.ID,
	); err != nil {
		return TodoItem{}, fmt.Errorf("failed to update todo %d: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return TodoItem{}, fmt.Errorf("failed to commit update: %w", err)
	}

	return item, nil
}

// Delete removes the item by id; a missing id is not an error.
func (b *SQLiteBackend) Delete(ctx context.Context, id int64) error {
	if _, err := b.db.ExecContext(ctx, `DELETE FROM todos WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete todo %d: %w", id, err)
	}
	return nil
}

// Close closes the database handle.
func (b *SQLiteBackend) Close() error {
	if b.db == nil {
		return nil
	}
	return b.db.Close()
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanTodo reads one todos row, mapping sql.ErrNoRows to ErrNotFound.
func scanTodo(s rowScanner) (TodoItem, error) {
	var item TodoItem
	if err := s.Scan(&item.ID, &item.Task, &item.Completed); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return TodoItem{}, ErrNotFound
		}
		return TodoItem{}, fmt.Errorf("failed to scan todo: %w", err)
	}
	return item, nil
}
