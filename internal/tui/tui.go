// Package tui is the interactive terminal renderer: a Bubble Tea list
// re-read from the repository after every operation.
package tui

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/JamesPrial/todo-db/internal/todo"
	"github.com/JamesPrial/todo-db/internal/ui"
)

// Repository is the subset of *todo.Repository the model drives.
type Repository interface {
	Add(ctx context.Context, task string) (todo.Item, error)
	List(ctx context.Context) ([]todo.Item, error)
	ToggleComplete(ctx context.Context, id int64, completed bool) (todo.Item, error)
	Delete(ctx context.Context, id int64) error
}

// itemsLoadedMsg carries the result of a full List.
type itemsLoadedMsg struct {
	items []todo.Item
	err   error
}

// opSettledMsg reports that a write finished, successfully or not. Every
// settled operation triggers a fresh load.
type opSettledMsg struct {
	op  string
	id  int64
	err error
}

// listItem adapts todo.Item to bubbles/list.Item.
type listItem struct {
	todo.Item
}

func (i listItem) FilterValue() string { return i.Task }

// itemDelegate renders each row on a single line.
type itemDelegate struct{}

func (d itemDelegate) Height() int                               { return 1 }
func (d itemDelegate) Spacing() int                              { return 0 }
func (d itemDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(listItem)
	if !ok {
		return
	}
	box := ui.MutedStyle.Render(ui.BoxUnchecked)
	task := it.Task
	if it.Completed {
		box = ui.SuccessStyle.Render(ui.BoxChecked)
		task = ui.DoneStyle.Render(task)
	}
	controls := ui.HelpStyle.Render(fmt.Sprintf("[%s] [%s]", ui.ToggleLabel(it.Completed), ui.LabelDelete))

	prefix := "  "
	if index == m.Index() {
		prefix = ui.SelectedStyle.Render("> ")
	}
	fmt.Fprintf(w, "%s%s %s  %s", prefix, box, task, controls)
}

type keyMap struct {
	add    key.Binding
	toggle key.Binding
	remove key.Binding
	quit   key.Binding
}

var keys = keyMap{
	add:    key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
	toggle: key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter/space", "done/undo")),
	remove: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
	quit:   key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
}

// Model is the Bubble Tea model for the todo list.
type Model struct {
	ctx    context.Context
	repo   Repository
	logger *zap.Logger

	list   list.Model
	items  []todo.Item
	input  textinput.Model
	adding bool
	status string

	// submitting is set while an add is in flight; the input keeps its
	// text until the add succeeds.
	submitting bool
}

// New builds a Model. Init performs the initial full render.
func New(ctx context.Context, repo Repository, logger *zap.Logger) Model {
	if logger == nil {
		logger = zap.NewNop()
	}

	l := list.New(nil, itemDelegate{}, 80, 20)
	l.Title = "Todos"
	l.SetShowHelp(true)
	l.SetShowPagination(true)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(false)
	l.Styles.Title = ui.TitleStyle
	l.Styles.HelpStyle = ui.HelpStyle
	l.Styles.PaginationStyle = ui.HelpStyle
	l.SetStatusBarItemName("item", "items")
	extra := func() []key.Binding { return []key.Binding{keys.add, keys.toggle, keys.remove} }
	l.AdditionalShortHelpKeys = extra
	l.AdditionalFullHelpKeys = extra

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "What needs to be done?"
	ti.CharLimit = 200

	return Model{
		ctx:    ctx,
		repo:   repo,
		logger: logger,
		list:   l,
		items:  []todo.Item{},
		input:  ti,
	}
}

// Run starts the program on the terminal and blocks until the user quits.
func Run(ctx context.Context, repo Repository, logger *zap.Logger) error {
	p := tea.NewProgram(New(ctx, repo, logger), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

// Items returns the projection from the last successful load.
func (m Model) Items() []todo.Item { return m.items }

// Status returns the status line text.
func (m Model) Status() string { return m.status }

// Input returns the current text of the add box.
func (m Model) Input() string { return m.input.Value() }

// Adding reports whether the input line is active.
func (m Model) Adding() bool { return m.adding }

func (m Model) Init() tea.Cmd { return m.load() }

func (m Model) load() tea.Cmd {
	return func() tea.Msg {
		items, err := m.repo.List(m.ctx)
		return itemsLoadedMsg{items: items, err: err}
	}
}

func (m Model) addCmd(task string) tea.Cmd {
	return func() tea.Msg {
		item, err := m.repo.Add(m.ctx, task)
		return opSettledMsg{op: "add", id: item.ID, err: err}
	}
}

func (m Model) toggleCmd(id int64, completed bool) tea.Cmd {
	return func() tea.Msg {
		_, err := m.repo.ToggleComplete(m.ctx, id, completed)
		return opSettledMsg{op: "toggle", id: id, err: err}
	}
}

func (m Model) deleteCmd(id int64) tea.Cmd {
	return func() tea.Msg {
		return opSettledMsg{op: "delete", id: id, err: m.repo.Delete(m.ctx, id)}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case itemsLoadedMsg:
		if msg.err != nil {
			m.logger.Error("failed to load todos", zap.Error(msg.err))
			m.status = "load failed: " + msg.err.Error()
			return m, nil
		}
		m.items = msg.items
		rows := make([]list.Item, 0, len(msg.items))
		for _, it := range msg.items {
			rows = append(rows, listItem{Item: it})
		}
		cmd := m.list.SetItems(rows)
		m.list.Title = ui.Header(msg.items)
		return m, cmd

	case opSettledMsg:
		if msg.op == "add" {
			m.submitting = false
			if msg.err == nil {
				m.input.SetValue("")
				m.input.Blur()
				m.adding = false
			}
		}
		if msg.err != nil {
			m.logger.Error("todo operation failed",
				zap.String("op", msg.op),
				zap.Int64("id", msg.id),
				zap.Error(msg.err),
			)
			m.status = msg.op + " failed: " + msg.err.Error()
		} else {
			m.status = ""
		}
		return m, m.load()

	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width-4, msg.Height-6)
		return m, nil

	case tea.KeyMsg:
		if m.adding {
			return m.updateInput(msg)
		}
		switch {
		case key.Matches(msg, keys.quit):
			return m, tea.Quit
		case key.Matches(msg, keys.add):
			m.adding = true
			m.input.SetValue("")
			cmd := m.input.Focus()
			return m, cmd
		case key.Matches(msg, keys.toggle):
			if it, ok := m.list.SelectedItem().(listItem); ok {
				return m, m.toggleCmd(it.ID, !it.Completed)
			}
			return m, nil
		case key.Matches(msg, keys.remove):
			if it, ok := m.list.SelectedItem().(listItem); ok {
				return m, m.deleteCmd(it.ID)
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		if m.submitting {
			return m, nil
		}
		task, ok := todo.NormalizeTask(m.input.Value())
		if !ok {
			return m, nil
		}
		m.submitting = true
		return m, m.addCmd(task)
	case tea.KeyEsc:
		m.submitting = false
		m.input.SetValue("")
		m.input.Blur()
		m.adding = false
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	content := m.list.View()
	if m.adding {
		bar := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("8")).Padding(0, 1)
		content += "\n" + bar.Render("Add new item\n"+m.input.View())
	}
	if m.status != "" {
		content += "\n" + ui.ErrorStyle.Render(m.status)
	}
	return ui.Panel(content)
}
