// Package mcpserver exposes the todo repository as MCP tools over stdio.
package mcpserver

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// addTodoTool returns a tool definition for adding a todo.
func addTodoTool() mcp.Tool {
	return mcp.NewTool("add_todo",
		mcp.WithDescription("Add a new todo. Surrounding whitespace is trimmed; an empty task is rejected. Returns the stored item with its assigned id."),
		mcp.WithString("task",
			mcp.Required(),
			mcp.Description("The task text")),
	)
}

// listTodosTool returns a tool definition for listing every todo.
func listTodosTool() mcp.Tool {
	return mcp.NewTool("list_todos",
		mcp.WithDescription("List every todo in ascending id order as a JSON array of {id, task, completed}."),
	)
}

// toggleTodoTool returns a tool definition for setting a todo's completed flag.
func toggleTodoTool() mcp.Tool {
	return mcp.NewTool("toggle_todo",
		mcp.WithDescription("Set the completed flag of a todo. Only the flag changes; the task text and id are kept."),
		mcp.WithNumber("id",
			mcp.Required(),
			mcp.Description("Id of the todo")),
		mcp.WithBoolean("completed",
			mcp.Required(),
			mcp.Description("New completed value")),
	)
}

// deleteTodoTool returns a tool definition for deleting a todo.
func deleteTodoTool() mcp.Tool {
	return mcp.NewTool("delete_todo",
		mcp.WithDescription("Delete a todo by id. Deleting an id that does not exist succeeds."),
		mcp.WithNumber("id",
			mcp.Required(),
			mcp.Description("Id of the todo")),
	)
}
