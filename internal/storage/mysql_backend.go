package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/go-sql-driver/mysql" // register mysql driver
)

// mysqlTodosDDL creates the todos collection with its indexes inline,
// since MySQL has no CREATE INDEX IF NOT EXISTS. TEXT columns need a prefix
// length to be indexed.
const mysqlTodosDDL = `
CREATE TABLE IF NOT EXISTS todos (
    id BIGINT PRIMARY KEY AUTO_INCREMENT,
    task TEXT NOT NULL,
    completed BOOLEAN NOT NULL DEFAULT FALSE,
    INDEX idx_todos_task (task(191)),
    INDEX idx_todos_completed (completed)
)`

// MySQLBackend implements StorageBackend using MySQL.
//
// InnoDB on MySQL 8 persists the AUTO_INCREMENT counter, so ids are not
// reused across restarts.
type MySQLBackend struct {
	// DSN is the go-sql-driver data source name (e.g., "user:pass@tcp(host:3306)/todo").
	DSN string

	db *sql.DB
}

// NewMySQLBackend connects to MySQL and initializes the schema.
func NewMySQLBackend(ctx context.Context, dsn string) (*MySQLBackend, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	backend := &MySQLBackend{DSN: dsn, db: db}
	if err := backend.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return backend, nil
}

// ensureSchema creates the todos table on first open and stamps version 1.
// MySQL commits DDL implicitly, so these statements run outside a transaction.
func (b *MySQLBackend) ensureSchema(ctx context.Context) error {
	if _, err := b.db.ExecContext(ctx, schemaVersionDDL); err != nil {
		return fmt.Errorf("failed to create todo_schema: %w", err)
	}

	var version int
	err := b.db.QueryRowContext(ctx, `SELECT version FROM todo_schema WHERE name = ?`, DatabaseName).Scan(&version)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	switch {
	case version > SchemaVersion:
		return fmt.Errorf("%w: %s is at version %d, this build supports %d", ErrVersion, DatabaseName, version, SchemaVersion)
	case version == SchemaVersion:
		return nil
	}

	if _, err := b.db.ExecContext(ctx, mysqlTodosDDL); err != nil {
		return fmt.Errorf("failed to execute schema DDL: %w", err)
	}
	if _, err := b.db.ExecContext(ctx,
		`INSERT IGNORE INTO todo_schema (name, version) VALUES (?, ?)`,
		DatabaseName, SchemaVersion,
	); err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}

	return nil
}

// Add inserts a new item and returns it with its AUTO_INCREMENT id.
func (b *MySQLBackend) Add(ctx context.Context, task string) (TodoItem, error) {
	res, err := b.db.ExecContext(ctx, `INSERT INTO todos (task, completed) VALUES (?, FALSE)`, task)
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
func (b *MySQLBackend) List(ctx context.Context) ([]TodoItem, error) {
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
func (b *MySQLBackend) Get(ctx context.Context, id int64) (TodoItem, error) {
	return scanTodo(b.db.QueryRowContext(ctx, `SELECT id, task, completed FROM todos WHERE id = ?`, id))
}

// Update locks the row, applies mutate and writes the full record back.
func (b *MySQLBackend) Update(ctx context.Context, id int64, mutate func(*TodoItem)) (TodoItem, error) {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return TodoItem{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	item, err := scanTodo(tx.QueryRowContext(ctx, `SELECT id, task, completed FROM todos WHERE id = ? FOR UPDATE`, id))
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
func (b *MySQLBackend) Delete(ctx context.Context, id int64) error {
	if _, err := b.db.ExecContext(ctx, `DELETE FROM todos WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete todo %d: %w", id, err)
	}
	return nil
}

// Close closes the database handle.
func (b *MySQLBackend) Close() error {
	if b.db == nil {
		return nil
	}
	return b.db.Close()
}
