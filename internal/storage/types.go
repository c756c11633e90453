// Package storage provides the persistence contract and backends for todo items.
//
// Every backend stores a single collection named "todos" inside a database
// named "todoDB" at schema version 1. Records are keyed by an auto-assigned
// integer id that is never reused, and two non-unique secondary indexes
// (task, completed) are created alongside the collection.
package storage

import (
	"context"
	"errors"
)

const (
	// DatabaseName is the logical name of the todo database. Its single
	// collection is the todos table (or the "todos" array of the JSON file).
	DatabaseName = "todoDB"

	// SchemaVersion is the only schema version this package knows how to create.
	SchemaVersion = 1
)

var (
	// ErrNotFound is returned when no item exists for the requested id.
	ErrNotFound = errors.New("todo item not found")

	// ErrVersion is returned when the store was created by a newer schema version.
	ErrVersion = errors.New("unsupported schema version")

	// ErrUnknownBackend is returned by the factory for an unrecognised backend name.
	ErrUnknownBackend = errors.New("unknown storage backend")
)

// TodoItem is the sole persisted entity.
type TodoItem struct {
	// ID is assigned by the backend on insert and never reused.
	ID int64 `json:"id"`

	// Task is the trimmed, non-empty task text. It never changes after creation.
	Task string `json:"task"`

	// Completed is false at creation and only changes through an explicit toggle.
	Completed bool `json:"completed"`
}

// StorageBackend defines the contract for todo persistence.
//
// Each method runs in its own transaction scoped to the todos collection.
// Implementations must be safe for concurrent use; conflicting writes are
// serialised by the underlying engine, not by callers.
type StorageBackend interface {
	// Add inserts a new item with the given task and completed=false.
	//
	// Returns the stored item including its freshly assigned id.
	// The task is stored as given; callers validate it beforehand.
	Add(ctx context.Context, task string) (TodoItem, error)

	// List returns every item in ascending id order.
	//
	// Returns an empty (non-nil) slice when the collection is empty.
	List(ctx context.Context) ([]TodoItem, error)

	// Get returns the item with the given id, or ErrNotFound.
	Get(ctx context.Context, id int64) (TodoItem, error)

	// Update reads the item with the given id, applies mutate to it and
	// writes the full record back within one read-write transaction.
	//
	// Returns ErrNotFound (and writes nothing) if the id does not exist.
	// mutate must not change the ID.
	Update(ctx context.Context, id int64, mutate func(*TodoItem)) (TodoItem, error)

	// Delete removes the item with the given id.
	//
	// Deleting an id that does not exist is a no-op and returns nil.
	Delete(ctx context.Context, id int64) error

	// Close releases the underlying store handle.
	Close() error
}
