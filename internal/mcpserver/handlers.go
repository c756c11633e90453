package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/JamesPrial/todo-db/internal/storage"
	"github.com/JamesPrial/todo-db/internal/todo"
)

// Repository is the subset of *todo.Repository the tools call.
type Repository interface {
	Add(ctx context.Context, task string) (todo.Item, error)
	List(ctx context.Context) ([]todo.Item, error)
	ToggleComplete(ctx context.Context, id int64, completed bool) (todo.Item, error)
	Delete(ctx context.Context, id int64) error
}

// TodoHandlers binds the tool handlers to one repository.
type TodoHandlers struct {
	repo Repository
}

// NewTodoHandlers creates handlers over repo.
func NewTodoHandlers(repo Repository) *TodoHandlers {
	return &TodoHandlers{repo: repo}
}

// HandleAddTodo adds a todo.
// Parameters:
//   - task (string, required)
//
// Returns the stored item as JSON, or an error result for empty input.
func (h *TodoHandlers) HandleAddTodo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := request.RequireString("task")
	if err != nil {
		return mcp.NewToolResultError("Missing required parameter: task"), nil
	}
	task, ok := todo.NormalizeTask(raw)
	if !ok {
		return mcp.NewToolResultError("task must not be empty"), nil
	}

	item, err := h.repo.Add(ctx, task)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to add todo: %v", err)), nil
	}
	return jsonResult(item)
}

// HandleListTodos returns every todo as a JSON array.
func (h *TodoHandlers) HandleListTodos(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, err := h.repo.List(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list todos: %v", err)), nil
	}
	return jsonResult(items)
}

// HandleToggleTodo sets the completed flag.
// Parameters:
//   - id (number, required)
//   - completed (boolean, required)
func (h *TodoHandlers) HandleToggleTodo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, errResult := requireID(request)
	if errResult != nil {
		return errResult, nil
	}
	completed, err := request.RequireBool("completed")
	if err != nil {
		return mcp.NewToolResultError("Missing required parameter: completed"), nil
	}

	item, err := h.repo.ToggleComplete(ctx, id, completed)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("Todo %d not found", id)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("Failed to toggle todo: %v", err)), nil
	}
	return jsonResult(item)
}

// HandleDeleteTodo deletes a todo by id.
// Parameters:
//   - id (number, required)
func (h *TodoHandlers) HandleDeleteTodo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, errResult := requireID(request)
	if errResult != nil {
		return errResult, nil
	}
	if err := h.repo.Delete(ctx, id); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to delete todo: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Deleted todo %d", id)), nil
}

// requireID extracts a positive integer id. JSON numbers arrive as float64.
func requireID(request mcp.CallToolRequest) (int64, *mcp.CallToolResult) {
	f, err := request.RequireFloat("id")
	if err != nil {
		return 0, mcp.NewToolResultError("Missing required parameter: id")
	}
	if f < 1 || f != math.Trunc(f) || f >= math.MaxInt64 {
		return 0, mcp.NewToolResultError(fmt.Sprintf("Invalid id: %v", f))
	}
	return int64(f), nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
