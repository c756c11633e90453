// Package main is the todo command line: an interactive list by default,
// plus ls, add, done, rm, serve, export and import subcommands.
//
// Exit codes:
//   - 0: success
//   - 1: error (store could not be opened, I/O failure, missing id)
//   - 2: usage error (bad arguments, empty task)
//
// Settings come from TODO_* environment variables or a --config file; see
// internal/config.
package main

import (
	"context"
	"os"

	"github.com/JamesPrial/todo-db/internal/cli"
)

func main() {
	os.Exit(cli.Execute(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}
