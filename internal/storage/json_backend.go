package storage

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/gofrs/flock"
)

// jsonDocument is the on-disk layout of the JSON backend.
//
// NextID is persisted so ids are never reused, even after the item holding
// the highest id has been deleted.
type jsonDocument struct {
	Name    string     `json:"name"`
	Version int        `json:"version"`
	NextID  int64      `json:"next_id"`
	Todos   []TodoItem `json:"todos"`
}

// JSONBackend implements StorageBackend using a single JSON file.
//
// Every operation reloads the file, applies its change and writes the whole
// document back with an atomic rename. Each load-modify-save holds an
// exclusive lock on <DataFile>.lock, so separate processes sharing the data
// directory never interleave; the mutex covers goroutines of this handle.
// The JSON layout has no secondary indexes; List is a linear scan like every
// other backend.
type JSONBackend struct {
	// DataFile is the absolute path to the JSON document.
	DataFile string

	mu   sync.Mutex
	lock *flock.Flock
}

// NewJSONBackend opens (or creates) the JSON document at dataFile.
//
// A missing file is created at SchemaVersion with an empty collection.
// An unreadable or malformed file, or one written by a newer version,
// fails the open.
func NewJSONBackend(dataFile string) (*JSONBackend, error) {
	b := &JSONBackend{DataFile: dataFile, lock: flock.New(dataFile + ".lock")}

	err := b.locked(func() error {
		doc, err := b.load()
		if err != nil {
			return err
		}
		if doc.Version > SchemaVersion {
			return fmt.Errorf("%w: %s is at version %d, this build supports %d", ErrVersion, DatabaseName, doc.Version, SchemaVersion)
		}

		if _, statErr := os.Stat(dataFile); errors.Is(statErr, os.ErrNotExist) {
			if err := b.save(doc); err != nil {
				return fmt.Errorf("failed to initialize %s: %w", dataFile, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return b, nil
}

// locked runs fn while holding both the handle mutex and the file lock.
func (b *JSONBackend) locked(fn func() error) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(b.DataFile), 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	if err := b.lock.Lock(); err != nil {
		return fmt.Errorf("failed to lock %s: %w", b.lock.Path(), err)
	}
	defer func() { _ = b.lock.Unlock() }()

	return fn()
}

// load reads the document, returning a fresh version-1 document if the
// file does not exist yet.
func (b *JSONBackend) load() (*jsonDocument, error) {
	data, err := os.ReadFile(b.DataFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &jsonDocument{
				Name:    DatabaseName,
				Version: SchemaVersion,
				NextID:  1,
				Todos:   make([]TodoItem, 0),
			}, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", b.DataFile, err)
	}

	var doc jsonDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", b.DataFile, err)
	}

	if doc.Todos == nil {
		doc.Todos = make([]TodoItem, 0)
	}
	if doc.NextID < 1 {
		doc.NextID = 1
	}
	for _, item := range doc.Todos {
		if item.ID >= doc.NextID {
			doc.NextID = item.ID + 1
		}
	}
	// Hand-edited files may be out of order; List promises ascending ids.
	slices.SortStableFunc(doc.Todos, func(x, y TodoItem) int { return cmp.Compare(x.ID, y.ID) })

	return &doc, nil
}

// save writes the document atomically via a temp file in the same directory.
func (b *JSONBackend) save(doc *jsonDocument) error {
	dir := filepath.Dir(b.DataFile)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	tmpFile, err := os.CreateTemp(dir, "*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()

	_, writeErr := tmpFile.Write(data)
	closeErr := tmpFile.Close()

	if writeErr != nil {
		_ = os.Remove(tmpPath)
		return writeErr
	}
	if closeErr != nil {
		_ = os.Remove(tmpPath)
		return closeErr
	}

	if err := os.Rename(tmpPath, b.DataFile); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}

	return nil
}

// Add appends a new item using the persisted id counter.
func (b *JSONBackend) Add(ctx context.Context, task string) (TodoItem, error) {
	if err := ctx.Err(); err != nil {
		return TodoItem{}, err
	}

	var item TodoItem
	err := b.locked(func() error {
		doc, err := b.load()
		if err != nil {
			return err
		}

		item = TodoItem{ID: doc.NextID, Task: task}
		doc.NextID++
		doc.Todos = append(doc.Todos, item)

		if err := b.save(doc); err != nil {
			return fmt.Errorf("failed to write todo: %w", err)
		}
		return nil
	})
	if err != nil {
		return TodoItem{}, err
	}
	return item, nil
}

// List returns all items in ascending id order.
func (b *JSONBackend) List(ctx context.Context) ([]TodoItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var items []TodoItem
	err := b.locked(func() error {
		doc, err := b.load()
		if err != nil {
			return err
		}
		items = doc.Todos
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// Get returns the item with the given id.
func (b *JSONBackend) Get(ctx context.Context, id int64) (TodoItem, error) {
	items, err := b.List(ctx)
	if err != nil {
		return TodoItem{}, err
	}
	for _, item := range items {
		if item.ID == id {
			return item, nil
		}
	}
	return TodoItem{}, ErrNotFound
}

// Update applies mutate to the item with the given id and rewrites the file.
func (b *JSONBackend) Update(ctx context.Context, id int64, mutate func(*TodoItem)) (TodoItem, error) {
	if err := ctx.Err(); err != nil {
		return TodoItem{}, err
	}

	var item TodoItem
	err := b.locked(func() error {
		doc, err := b.load()
		if err != nil {
			return err
		}

		for i := range doc.Todos {
			if doc.Todos[i].ID != id {
				continue
			}
			item = doc.Todos[i]
			mutate(&item)
			item.ID = id
			doc.Todos[i] = item

			if err := b.save(doc); err != nil {
				return fmt.Errorf("failed to update todo %d: %w", id, err)
			}
			return nil
		}
		return ErrNotFound
	})
	if err != nil {
		return TodoItem{}, err
	}
	return item, nil
}

// Delete removes the item with the given id. The file is left untouched
// when the id does not exist.
func (b *JSONBackend) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return b.locked(func() error {
		doc, err := b.load()
		if err != nil {
			return err
		}

		kept := make([]TodoItem, 0, len(doc.Todos))
		for _, item := range doc.Todos {
			if item.ID != id {
				kept = append(kept, item)
			}
		}
		if len(kept) == len(doc.Todos) {
			return nil
		}
		doc.Todos = kept

		if err := b.save(doc); err != nil {
			return fmt.Errorf("failed to delete todo %d: %w", id, err)
		}
		return nil
	})
}

// Close releases the lock file handle.
func (b *JSONBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lock.Close()
}
