package mcpserver

import (
	"errors"

	"github.com/mark3labs/mcp-go/server"
)

// NewServer creates and configures a new MCP server with the todo tools
// registered against repo.
func NewServer(repo Repository) (*server.MCPServer, error) {
	if repo == nil {
		return nil, errors.New("mcpserver: repository is nil")
	}
	h := NewTodoHandlers(repo)

	s := server.NewMCPServer(
		"todo-db",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	s.AddTool(addTodoTool(), h.HandleAddTodo)
	s.AddTool(listTodosTool(), h.HandleListTodos)
	s.AddTool(toggleTodoTool(), h.HandleToggleTodo)
	s.AddTool(deleteTodoTool(), h.HandleDeleteTodo)

	return s, nil
}
