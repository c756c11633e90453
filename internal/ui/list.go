package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/JamesPrial/todo-db/internal/todo"
)

// Control labels shown next to every row.
const (
	LabelDone   = "Done"
	LabelUndo   = "Undo"
	LabelDelete = "Delete"
)

const maxTaskWidth = 80

// ToggleLabel is the label of the toggle control for an item with the
// given completion state.
func ToggleLabel(completed bool) string {
	if completed {
		return LabelUndo
	}
	return LabelDone
}

// Stats counts completed and pending items.
func Stats(items []todo.Item) (done, pending int) {
	for _, it := range items {
		if it.Completed {
			done++
		} else {
			pending++
		}
	}
	return
}

// ProgressBar renders a bar with a done/total suffix.
func ProgressBar(done, total, width int) string {
	if width < 5 {
		width = 5
	}
	filled := 0
	if total > 0 {
		filled = done * width / total
	}
	if filled > width {
		filled = width
	}
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", width-filled) + fmt.Sprintf("] %d/%d", done, total)
}

// Header renders the counts line.
func Header(items []todo.Item) string {
	d, p := Stats(items)
	return fmt.Sprintf("%s   %s %d  %s %d  %s %d",
		TitleStyle.Render("Todos"),
		SuccessStyle.Render("✔"), d,
		PendingStyle.Render("•"), p,
		AccentStyle.Render("Total"), len(items),
	)
}

// ListOptions tune RenderList and PlainList.
type ListOptions struct {
	Group bool // split into Pending and Done sections
}

// RenderList draws the full styled listing inside a panel.
func RenderList(items []todo.Item, opt ListOptions) string {
	d, _ := Stats(items)
	lines := []string{
		Header(items),
		MutedStyle.Render(ProgressBar(d, len(items), 28)),
		"",
	}
	lines = append(lines, sections(items, opt, styledRow, func(s string) string { return AccentStyle.Render(s) }, func(s string) string { return MutedStyle.Render(s) })...)
	lines = append(lines, "", MutedStyle.Render("Tip: add with `todo add \"Buy milk\"`"))
	return Panel(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// PlainList renders the listing without colour or borders, one row per
// line, suitable for pipes and scripts.
func PlainList(items []todo.Item, opt ListOptions) string {
	d, p := Stats(items)
	lines := []string{
		fmt.Sprintf("Todos  done %d  pending %d  total %d", d, p, len(items)),
		ProgressBar(d, len(items), 20),
		"",
	}
	identity := func(s string) string { return s }
	lines = append(lines, sections(items, opt, PlainRow, identity, identity)...)
	return strings.Join(lines, "\n") + "\n"
}

// PlainRow renders one item as "<id>. [x] task  [Undo] [Delete]".
func PlainRow(it todo.Item) string {
	box := "[ ]"
	if it.Completed {
		box = "[x]"
	}
	return fmt.Sprintf("%3d. %s %s  [%s] [%s]", it.ID, box, truncate(it.Task), ToggleLabel(it.Completed), LabelDelete)
}

func styledRow(it todo.Item) string {
	id := MutedStyle.Render(fmt.Sprintf("%3d.", it.ID))
	box := MutedStyle.Render(BoxUnchecked)
	task := truncate(it.Task)
	if it.Completed {
		box = SuccessStyle.Render(BoxChecked)
		task = DoneStyle.Render(task)
	}
	controls := HelpStyle.Render(fmt.Sprintf("[%s] [%s]", ToggleLabel(it.Completed), LabelDelete))
	return fmt.Sprintf("%s %s %s  %s", id, box, task, controls)
}

func sections(items []todo.Item, opt ListOptions, row func(todo.Item) string, heading, muted func(string) string) []string {
	if !opt.Group {
		return rows(items, row, muted("no items"))
	}
	var pending, done []todo.Item
	for _, it := range items {
		if it.Completed {
			done = append(done, it)
		} else {
			pending = append(pending, it)
		}
	}
	lines := []string{heading("Pending")}
	lines = append(lines, rows(pending, row, muted("(none)"))...)
	lines = append(lines, "", heading("Done"))
	lines = append(lines, rows(done, row, muted("(none)"))...)
	return lines
}

func rows(items []todo.Item, row func(todo.Item) string, empty string) []string {
	if len(items) == 0 {
		return []string{empty}
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, row(it))
	}
	return out
}

func truncate(task string) string {
	r := []rune(task)
	if len(r) > maxTaskWidth {
		return string(r[:maxTaskWidth-3]) + "..."
	}
	return task
}
