package tui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/JamesPrial/todo-db/internal/storage"
	"github.com/JamesPrial/todo-db/internal/todo"
)

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

// fakeRepo is an in-memory Repository that records calls.
type fakeRepo struct {
	mu        sync.Mutex
	items     []todo.Item
	nextID    int64
	listCalls int
	calls     []string
	failOps   map[string]error
}

func newFakeRepo(items ...todo.Item) *fakeRepo {
	r := &fakeRepo{nextID: 1, failOps: map[string]error{}}
	for _, it := range items {
		r.items = append(r.items, it)
		if it.ID >= r.nextID {
			r.nextID = it.ID + 1
		}
	}
	return r
}

func (r *fakeRepo) Add(_ context.Context, task string) (todo.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, "add:"+task)
	if err := r.failOps["add"]; err != nil {
		return todo.Item{}, err
	}
	it := todo.Item{ID: r.nextID, Task: task}
	r.nextID++
	r.items = append(r.items, it)
	return it, nil
}

func (r *fakeRepo) List(context.Context) ([]todo.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listCalls++
	if err := r.failOps["list"]; err != nil {
		return nil, err
	}
	out := make([]todo.Item, len(r.items))
	copy(out, r.items)
	return out, nil
}

func (r *fakeRepo) ToggleComplete(_ context.Context, id int64, completed bool) (todo.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, "toggle")
	if err := r.failOps["toggle"]; err != nil {
		return todo.Item{}, err
	}
	for i := range r.items {
		if r.items[i].ID == id {
			r.items[i].Completed = completed
			return r.items[i], nil
		}
	}
	return todo.Item{}, storage.ErrNotFound
}

func (r *fakeRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, "delete")
	for i := range r.items {
		if r.items[i].ID == id {
			r.items = append(r.items[:i], r.items[i+1:]...)
			break
		}
	}
	return nil
}

// settle runs cmd and feeds the resulting load/settled messages back into
// the model until no repository work remains.
func settle(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	for cmd != nil {
		msg := cmd()
		switch msg.(type) {
		case itemsLoadedMsg, opSettledMsg:
		default:
			return m
		}
		var next tea.Model
		next, cmd = m.Update(msg)
		m = next.(Model)
	}
	return m
}

func press(t *testing.T, m Model, k tea.KeyMsg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(k)
	return next.(Model), cmd
}

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

var (
	enterKey = tea.KeyMsg{Type: tea.KeyEnter}
	spaceKey = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	escKey   = tea.KeyMsg{Type: tea.KeyEsc}
)

func started(t *testing.T, repo *fakeRepo) Model {
	t.Helper()
	m := New(context.Background(), repo, nil)
	return settle(t, m, m.Init())
}

// typeTask enters add mode, types task and presses enter.
func typeTask(t *testing.T, m Model, task string) (Model, tea.Cmd) {
	t.Helper()
	m, _ = press(t, m, runes("a"))
	require.True(t, m.Adding())
	for _, r := range task {
		m, _ = press(t, m, runes(string(r)))
	}
	return press(t, m, enterKey)
}

// ---------------------------------------------------------------------------
// Rendering
// ---------------------------------------------------------------------------

func Test_Model_InitialRenderShowsEveryItem(t *testing.T) {
	t.Parallel()
	repo := newFakeRepo(
		todo.Item{ID: 1, Task: "Buy milk", Completed: true},
		todo.Item{ID: 2, Task: "Walk dog"},
	)
	m := started(t, repo)

	require.Equal(t, repo.items, m.Items())
	view := m.View()
	require.Contains(t, view, "Buy milk")
	require.Contains(t, view, "Walk dog")
	require.Contains(t, view, "[Undo] [Delete]")
	require.Contains(t, view, "[Done] [Delete]")
}

func Test_Model_EmptyStoreRendersNoRows(t *testing.T) {
	t.Parallel()
	m := started(t, newFakeRepo())
	require.Empty(t, m.Items())
	require.NotContains(t, m.View(), "[Delete]")
}

// ---------------------------------------------------------------------------
// Submission
// ---------------------------------------------------------------------------

func Test_Model_AddTrimsAndRerenders(t *testing.T) {
	t.Parallel()
	repo := newFakeRepo()
	m := started(t, repo)
	loadsBefore := repo.listCalls

	m, cmd := typeTask(t, m, "  Buy milk  ")
	require.True(t, m.Adding(), "input stays open until the add settles")

	// A second enter while the add is in flight does not add twice.
	m, again := press(t, m, enterKey)
	require.Nil(t, again)

	m = settle(t, m, cmd)
	require.False(t, m.Adding(), "input closes after a successful submit")
	require.Empty(t, m.Input())

	require.Equal(t, []string{"add:Buy milk"}, repo.calls)
	require.Equal(t, []todo.Item{{ID: 1, Task: "Buy milk"}}, m.Items())
	require.Equal(t, loadsBefore+1, repo.listCalls, "each settled op triggers one full re-read")
}

func Test_Model_EmptySubmitIsIgnored(t *testing.T) {
	t.Parallel()
	repo := newFakeRepo()
	m := started(t, repo)
	loadsBefore := repo.listCalls

	m, cmd := typeTask(t, m, "   ")

	require.Nil(t, cmd)
	require.True(t, m.Adding(), "input stays open")
	require.Empty(t, m.Status(), "no message for empty input")
	require.Empty(t, repo.calls)
	require.Equal(t, loadsBefore, repo.listCalls)
}

func Test_Model_EscCancelsAdd(t *testing.T) {
	t.Parallel()
	repo := newFakeRepo()
	m := started(t, repo)

	m, _ = press(t, m, runes("a"))
	m, _ = press(t, m, runes("x"))
	m, cmd := press(t, m, escKey)

	require.False(t, m.Adding())
	require.Nil(t, cmd)
	require.Empty(t, repo.calls)
}

// ---------------------------------------------------------------------------
// Toggle and delete
// ---------------------------------------------------------------------------

func Test_Model_ToggleUsesRenderedValue(t *testing.T) {
	t.Parallel()
	repo := newFakeRepo(todo.Item{ID: 1, Task: "Buy milk"}, todo.Item{ID: 2, Task: "Walk dog"})
	m := started(t, repo)

	m, cmd := press(t, m, spaceKey)
	m = settle(t, m, cmd)
	require.True(t, m.Items()[0].Completed)
	require.False(t, m.Items()[1].Completed)
	require.Contains(t, m.View(), "[Undo]")

	m, cmd = press(t, m, enterKey)
	m = settle(t, m, cmd)
	require.False(t, m.Items()[0].Completed, "second toggle restores the original state")
}

func Test_Model_DeleteSelected(t *testing.T) {
	t.Parallel()
	repo := newFakeRepo(todo.Item{ID: 1, Task: "Buy milk"}, todo.Item{ID: 2, Task: "Walk dog"})
	m := started(t, repo)

	m, cmd := press(t, m, runes("d"))
	m = settle(t, m, cmd)

	require.Equal(t, []todo.Item{{ID: 2, Task: "Walk dog"}}, m.Items())
	require.NotContains(t, m.View(), "Buy milk")
}

func Test_Model_ControlsOnEmptyListDoNothing(t *testing.T) {
	t.Parallel()
	repo := newFakeRepo()
	m := started(t, repo)

	for _, k := range []tea.KeyMsg{spaceKey, enterKey, runes("d")} {
		var cmd tea.Cmd
		m, cmd = press(t, m, k)
		require.Nil(t, cmd)
	}
	require.Empty(t, repo.calls)
}

// ---------------------------------------------------------------------------
// Failures
// ---------------------------------------------------------------------------

func Test_Model_FailedOpIsLoggedAndStillRerenders(t *testing.T) {
	t.Parallel()
	core, logs := observer.New(zapcore.ErrorLevel)
	repo := newFakeRepo(todo.Item{ID: 1, Task: "Buy milk"})
	repo.failOps["toggle"] = errors.New("disk full")

	m := New(context.Background(), repo, zap.New(core))
	m = settle(t, m, m.Init())
	loadsBefore := repo.listCalls

	m, cmd := press(t, m, spaceKey)
	m = settle(t, m, cmd)

	require.True(t, strings.HasPrefix(m.Status(), "toggle failed"), "status = %q", m.Status())
	require.Contains(t, m.View(), "disk full")
	require.Equal(t, loadsBefore+1, repo.listCalls)
	require.Equal(t, 1, logs.FilterMessage("todo operation failed").Len())
	require.False(t, m.Items()[0].Completed)
}

func Test_Model_FailedAddKeepsInput(t *testing.T) {
	t.Parallel()
	repo := newFakeRepo()
	repo.failOps["add"] = errors.New("disk full")
	m := started(t, repo)

	m, cmd := typeTask(t, m, "Buy milk")
	m = settle(t, m, cmd)

	require.True(t, m.Adding(), "input stays open after a failed add")
	require.Equal(t, "Buy milk", m.Input())
	require.True(t, strings.HasPrefix(m.Status(), "add failed"), "status = %q", m.Status())

	delete(repo.failOps, "add")
	m, cmd = press(t, m, enterKey)
	m = settle(t, m, cmd)

	require.False(t, m.Adding())
	require.Empty(t, m.Input())
	require.Equal(t, []todo.Item{{ID: 1, Task: "Buy milk"}}, m.Items())
}

func Test_Model_LoadFailureKeepsPreviousProjection(t *testing.T) {
	t.Parallel()
	repo := newFakeRepo(todo.Item{ID: 1, Task: "Buy milk"})
	m := started(t, repo)

	repo.failOps["list"] = errors.New("locked")
	m = settle(t, m, m.load())

	require.Len(t, m.Items(), 1)
	require.Contains(t, m.Status(), "load failed")
}

func Test_Model_QuitKeys(t *testing.T) {
	t.Parallel()
	m := started(t, newFakeRepo())

	for _, k := range []tea.KeyMsg{runes("q"), escKey} {
		_, cmd := press(t, m, k)
		require.NotNil(t, cmd)
		_, ok := cmd().(tea.QuitMsg)
		require.True(t, ok, "key %q must quit", k.String())
	}
}
