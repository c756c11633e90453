// Package main implements the MCP server for the todo list.
//
// It exposes add_todo, list_todos, toggle_todo and delete_todo over stdio
// JSON-RPC (Model Context Protocol) against the store selected by the
// TODO_* environment variables. Logs go to stderr so stdout stays clean for
// the protocol.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/JamesPrial/todo-db/internal/config"
	"github.com/JamesPrial/todo-db/internal/logging"
	"github.com/JamesPrial/todo-db/internal/mcpserver"
	"github.com/JamesPrial/todo-db/internal/todo"
)

func run() int {
	cfg, err := config.Load(os.Getenv("TODO_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "[mcp-server] %v\n", err)
		return 1
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[mcp-server] %v\n", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	repo, err := todo.NewInitializer(cfg.StorageOptions(), nil, logger).Open(context.Background())
	if err != nil {
		return 1
	}
	defer func() { _ = repo.Close() }()

	srv, err := mcpserver.NewServer(repo)
	if err != nil {
		logger.Error("failed to create MCP server", zap.Error(err))
		return 1
	}

	if err := server.ServeStdio(srv, server.WithErrorLogger(logging.StdLog(logger))); err != nil {
		logger.Error("server error", zap.Error(err))
		return 1
	}

	return 0
}

func main() {
	os.Exit(run())
}
