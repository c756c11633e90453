// Package transfer moves the todos collection in and out of a portable
// JSON document.
//
// Export writes every item with its id and completion state. Import reads
// either that document or a bare array of items, validates and trims each
// entry, and adds the survivors as new records: ids are always assigned by
// the destination store.
package transfer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/JamesPrial/todo-db/internal/storage"
	"github.com/JamesPrial/todo-db/internal/todo"
)

// Document is the export file layout.
type Document struct {
	Name       string      `json:"name"`
	Version    int         `json:"version"`
	ExportedAt string      `json:"exported_at"`
	Todos      []todo.Item `json:"todos"`
}

// Item is one validated entry ready to import.
type Item struct {
	Task      string
	Completed bool
}

// Result summarises an import.
type Result struct {
	Added int
}

// Lister lists items for Export.
type Lister interface {
	List(ctx context.Context) ([]todo.Item, error)
}

// Adder is what Import needs from the repository.
type Adder interface {
	Add(ctx context.Context, task string) (todo.Item, error)
	ToggleComplete(ctx context.Context, id int64, completed bool) (todo.Item, error)
}

// UTCISOTimestamp returns the current UTC time as ISO 8601 with millisecond
// precision, e.g. "2006-01-02T15:04:05.000Z".
func UTCISOTimestamp() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05.000") + "Z"
}

// Export writes the whole collection to w as an indented Document.
func Export(ctx context.Context, src Lister, w io.Writer) error {
	items, err := src.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list todos: %w", err)
	}

	doc := Document{
		Name:       storage.DatabaseName,
		Version:    storage.SchemaVersion,
		ExportedAt: UTCISOTimestamp(),
		Todos:      items,
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode export: %w", err)
	}
	return nil
}

// ReadImport decodes r and returns the valid entries plus the number of
// entries rejected. An entry is valid when it has a string "task" that is
// non-empty after trimming; "completed" is optional and must be a bool.
func ReadImport(r io.Reader) ([]Item, int, error) {
	var raw json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, 0, fmt.Errorf("failed to decode import: %w", err)
	}

	entries, err := rawEntries(raw)
	if err != nil {
		return nil, 0, err
	}

	items := make([]Item, 0, len(entries))
	skipped := 0
	for _, entry := range entries {
		item, ok := validateEntry(entry)
		if !ok {
			skipped++
			continue
		}
		items = append(items, item)
	}
	return items, skipped, nil
}

// Import adds items in order. Completed entries are added and then marked
// complete. It stops at the first store error.
func Import(ctx context.Context, dst Adder, items []Item) (Result, error) {
	var res Result
	for _, it := range items {
		added, err := dst.Add(ctx, it.Task)
		if err != nil {
			return res, fmt.Errorf("failed to import %q: %w", it.Task, err)
		}
		if it.Completed {
			if _, err := dst.ToggleComplete(ctx, added.ID, true); err != nil {
				return res, fmt.Errorf("failed to mark %q complete: %w", it.Task, err)
			}
		}
		res.Added++
	}
	return res, nil
}

// rawEntries accepts either {"todos": [...]} or [...].
func rawEntries(raw json.RawMessage) ([]map[string]any, error) {
	var list []map[string]any
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}

	var doc struct {
		Version int              `json:"version"`
		Todos   []map[string]any `json:"todos"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("import must be a todos document or an array: %w", err)
	}
	if doc.Version > storage.SchemaVersion {
		return nil, fmt.Errorf("%w: document version %d", storage.ErrVersion, doc.Version)
	}
	return doc.Todos, nil
}

func validateEntry(entry map[string]any) (Item, bool) {
	rawTask, ok := entry["task"].(string)
	if !ok {
		return Item{}, false
	}
	task, ok := todo.NormalizeTask(rawTask)
	if !ok {
		return Item{}, false
	}

	item := Item{Task: task}
	if v, present := entry["completed"]; present && v != nil {
		completed, ok := v.(bool)
		if !ok {
			return Item{}, false
		}
		item.Completed = completed
	}
	return item, true
}
