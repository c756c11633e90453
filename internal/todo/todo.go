// Package todo is the application layer over a storage backend: it opens
// the todoDB store once per process and exposes the task operations the
// renderers call.
package todo

import (
	"strings"

	"github.com/JamesPrial/todo-db/internal/storage"
)

// Item is the record the renderers work with.
type Item = storage.TodoItem

// NormalizeTask trims surrounding whitespace from raw input. ok is false
// when nothing remains, in which case the caller must not add anything.
func NormalizeTask(input string) (task string, ok bool) {
	task = strings.TrimSpace(input)
	return task, task != ""
}
