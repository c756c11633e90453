package todo

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/JamesPrial/todo-db/internal/storage"
)

// Repository performs the task operations against one open backend.
// It is safe for concurrent use; conflicting writes are ordered by the
// backend.
type Repository struct {
	backend storage.StorageBackend
	logger  *zap.Logger
}

// NewRepository wraps an already-open backend.
func NewRepository(backend storage.StorageBackend, logger *zap.Logger) *Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repository{backend: backend, logger: logger}
}

// Add stores a new, not yet completed item and returns it with its
// assigned id. task is expected to be normalised already.
func (r *Repository) Add(ctx context.Context, task string) (Item, error) {
	item, err := r.backend.Add(ctx, task)
	if err != nil {
		return Item{}, fmt.Errorf("add todo: %w", err)
	}
	r.logger.Debug("todo added", zap.Int64("id", item.ID))
	return item, nil
}

// List returns every item in ascending id order. The slice is never nil.
func (r *Repository) List(ctx context.Context) ([]Item, error) {
	items, err := r.backend.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	return items, nil
}

// Get returns one item, or an error wrapping storage.ErrNotFound.
func (r *Repository) Get(ctx context.Context, id int64) (Item, error) {
	item, err := r.backend.Get(ctx, id)
	if err != nil {
		return Item{}, fmt.Errorf("get todo %d: %w", id, err)
	}
	return item, nil
}

// ToggleComplete reads item id, sets Completed to completed and writes it
// back in one transaction. Only the Completed field changes. A missing id
// returns an error wrapping storage.ErrNotFound and writes nothing.
func (r *Repository) ToggleComplete(ctx context.Context, id int64, completed bool) (Item, error) {
	item, err := r.backend.Update(ctx, id, func(item *storage.TodoItem) {
		item.Completed = completed
	})
	if err != nil {
		return Item{}, fmt.Errorf("toggle todo %d: %w", id, err)
	}
	r.logger.Debug("todo toggled", zap.Int64("id", id), zap.Bool("completed", completed))
	return item, nil
}

// Delete removes item id. Deleting an id that does not exist succeeds.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	if err := r.backend.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete todo %d: %w", id, err)
	}
	r.logger.Debug("todo deleted", zap.Int64("id", id))
	return nil
}

// Close releases the store handle.
func (r *Repository) Close() error {
	return r.backend.Close()
}
