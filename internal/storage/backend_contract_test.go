package storage_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/JamesPrial/todo-db/internal/storage"
)

// ---------------------------------------------------------------------------
// Shared behaviour every StorageBackend must satisfy
// ---------------------------------------------------------------------------

// runBackendContract exercises the StorageBackend contract. newBackend must
// return an empty, freshly opened backend for every call.
func runBackendContract(t *testing.T, newBackend func(t *testing.T) storage.StorageBackend) {
	t.Helper()

	t.Run("empty list is non-nil", func(t *testing.T) {
		b := newBackend(t)
		items, err := b.List(context.Background())
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if items == nil {
			t.Fatal("List returned nil, want empty slice")
		}
		if len(items) != 0 {
			t.Errorf("List returned %d items, want 0", len(items))
		}
	})

	t.Run("add assigns increasing ids and completed false", func(t *testing.T) {
		b := newBackend(t)
		ctx := context.Background()

		first := mustAdd(t, b, "Buy milk")
		second := mustAdd(t, b, "Walk dog")

		if first.ID <= 0 {
			t.Errorf("first id = %d, want > 0", first.ID)
		}
		if second.ID <= first.ID {
			t.Errorf("second id %d not greater than first id %d", second.ID, first.ID)
		}
		if first.Completed || second.Completed {
			t.Error("new items must not be completed")
		}

		items, err := b.List(ctx)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(items) != 2 {
			t.Fatalf("List returned %d items, want 2", len(items))
		}
		if items[0] != first || items[1] != second {
			t.Errorf("List = %+v, want [%+v %+v]", items, first, second)
		}
	})

	t.Run("get returns stored item", func(t *testing.T) {
		b := newBackend(t)
		added := mustAdd(t, b, "Read book")

		got, err := b.Get(context.Background(), added.ID)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got != added {
			t.Errorf("Get = %+v, want %+v", got, added)
		}
	})

	t.Run("get missing id returns ErrNotFound", func(t *testing.T) {
		b := newBackend(t)
		_, err := b.Get(context.Background(), 4242)
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Get error = %v, want ErrNotFound", err)
		}
	})

	t.Run("update changes only mutated field", func(t *testing.T) {
		b := newBackend(t)
		ctx := context.Background()
		added := mustAdd(t, b, "Water plants")

		updated, err := b.Update(ctx, added.ID, func(item *storage.TodoItem) {
			item.Completed = true
		})
		if err != nil {
			t.Fatalf("Update: %v", err)
		}
		want := storage.TodoItem{ID: added.ID, Task: "Water plants", Completed: true}
		if updated != want {
			t.Errorf("Update returned %+v, want %+v", updated, want)
		}

		got, err := b.Get(ctx, added.ID)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got != want {
			t.Errorf("stored item = %+v, want %+v", got, want)
		}
	})

	t.Run("update cannot change id", func(t *testing.T) {
		b := newBackend(t)
		ctx := context.Background()
		added := mustAdd(t, b, "Pin id")

		updated, err := b.Update(ctx, added.ID, func(item *storage.TodoItem) {
			item.ID = 999
		})
		if err != nil {
			t.Fatalf("Update: %v", err)
		}
		if updated.ID != added.ID {
			t.Errorf("Update changed id to %d, want %d", updated.ID, added.ID)
		}
		if _, err := b.Get(ctx, 999); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Get(999) error = %v, want ErrNotFound", err)
		}
	})

	t.Run("update missing id returns ErrNotFound and writes nothing", func(t *testing.T) {
		b := newBackend(t)
		ctx := context.Background()
		mustAdd(t, b, "Only item")

		called := false
		_, err := b.Update(ctx, 777, func(item *storage.TodoItem) { called = true })
		if !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("Update error = %v, want ErrNotFound", err)
		}
		if called {
			t.Error("mutate must not be called for a missing id")
		}

		items := mustList(t, b)
		if len(items) != 1 {
			t.Errorf("List returned %d items, want 1", len(items))
		}
	})

	t.Run("delete removes item", func(t *testing.T) {
		b := newBackend(t)
		ctx := context.Background()
		first := mustAdd(t, b, "first")
		second := mustAdd(t, b, "second")

		if err := b.Delete(ctx, first.ID); err != nil {
			t.Fatalf("Delete: %v", err)
		}

		items := mustList(t, b)
		if len(items) != 1 || items[0] != second {
			t.Errorf("List after delete = %+v, want [%+v]", items, second)
		}
	})

	t.Run("delete missing id is a no-op", func(t *testing.T) {
		b := newBackend(t)
		added := mustAdd(t, b, "stay")

		if err := b.Delete(context.Background(), added.ID+100); err != nil {
			t.Fatalf("Delete missing id: %v", err)
		}

		items := mustList(t, b)
		if len(items) != 1 || items[0] != added {
			t.Errorf("List = %+v, want [%+v]", items, added)
		}
	})

	t.Run("ids are not reused after deleting the newest item", func(t *testing.T) {
		b := newBackend(t)
		ctx := context.Background()
		mustAdd(t, b, "one")
		newest := mustAdd(t, b, "two")

		if err := b.Delete(ctx, newest.ID); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		next := mustAdd(t, b, "three")

		if next.ID <= newest.ID {
			t.Errorf("id %d reused or decreased (deleted id was %d)", next.ID, newest.ID)
		}
	})

	t.Run("list stays ordered by id", func(t *testing.T) {
		b := newBackend(t)
		ctx := context.Background()
		a := mustAdd(t, b, "a")
		mustAdd(t, b, "b")
		c := mustAdd(t, b, "c")

		if _, err := b.Update(ctx, a.ID, func(item *storage.TodoItem) { item.Completed = true }); err != nil {
			t.Fatalf("Update: %v", err)
		}
		if _, err := b.Update(ctx, c.ID, func(item *storage.TodoItem) { item.Completed = true }); err != nil {
			t.Fatalf("Update: %v", err)
		}
		mustAdd(t, b, "d")

		items := mustList(t, b)
		for i := 1; i < len(items); i++ {
			if items[i-1].ID >= items[i].ID {
				t.Fatalf("List not ascending at %d: %+v", i, items)
			}
		}
	})

	t.Run("concurrent adds get distinct ids", func(t *testing.T) {
		b := newBackend(t)
		ctx := context.Background()

		const n = 10
		var wg sync.WaitGroup
		errs := make(chan error, n)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := b.Add(ctx, "parallel"); err != nil {
					errs <- err
				}
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			t.Fatalf("concurrent Add: %v", err)
		}

		items := mustList(t, b)
		if len(items) != n {
			t.Fatalf("List returned %d items, want %d", len(items), n)
		}
		seen := make(map[int64]bool, n)
		for _, item := range items {
			if seen[item.ID] {
				t.Errorf("duplicate id %d", item.ID)
			}
			seen[item.ID] = true
		}
	})
}

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

func mustAdd(t *testing.T, b storage.StorageBackend, task string) storage.TodoItem {
	t.Helper()
	item, err := b.Add(context.Background(), task)
	if err != nil {
		t.Fatalf("Add(%q): %v", task, err)
	}
	return item
}

func mustList(t *testing.T, b storage.StorageBackend) []storage.TodoItem {
	t.Helper()
	items, err := b.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	return items
}
