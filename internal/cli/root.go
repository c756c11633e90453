// Package cli wires the todo commands together with cobra.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JamesPrial/todo-db/internal/config"
	"github.com/JamesPrial/todo-db/internal/logging"
	"github.com/JamesPrial/todo-db/internal/todo"
	"github.com/JamesPrial/todo-db/internal/ui"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigFile string
	Verbose    bool
}

// usageError marks errors caused by bad arguments; they exit with code 2.
type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return usageError{msg: fmt.Sprintf(format, args...)}
}

// usageArgs marks failures of an argument validator as usage errors.
func usageArgs(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := validate(cmd, args); err != nil {
			return usageError{msg: err.Error()}
		}
		return nil
	}
}

// NewRootCommand creates the root command. Without a subcommand it starts
// the interactive list.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "todo",
		Short:         "todo - a persistent task list",
		Long:          "Keep a task list in a local todoDB store and work on it from the terminal, a browser or an MCP client.",
		Args:          usageArgs(cobra.NoArgs),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, opts)
		},
	}

	// Inherited by every subcommand.
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{msg: err.Error()}
	})

	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "config file (YAML); TODO_* environment variables override it")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging")

	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewAddCommand(opts))
	cmd.AddCommand(NewDoneCommand(opts))
	cmd.AddCommand(NewRemoveCommand(opts))
	cmd.AddCommand(NewTUICommand(opts))
	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))

	return cmd
}

// Execute runs the command line and returns the process exit code:
// 0 ok, 1 error, 2 usage.
func Execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cmd := NewRootCommand()
	cmd.SetArgs(args)
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	ui.Fail(stderr, err.Error())
	var ue usageError
	if errors.As(err, &ue) {
		return 2
	}
	return 1
}

// session is the per-command state: config, logger and the open store.
type session struct {
	cfg    config.Config
	logger *zap.Logger
	repo   *todo.Repository
}

func (s *session) Close() {
	if s.repo != nil {
		_ = s.repo.Close()
	}
	_ = s.logger.Sync()
}

// openSession loads config, builds the logger and opens the store.
func openSession(cmd *cobra.Command, opts *RootOptions) (*session, error) {
	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		return nil, err
	}
	if opts.Verbose {
		cfg.LogLevel = "debug"
	}

	logger, err := logging.NewWithWriter(cfg.LogLevel, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}

	initializer := todo.NewInitializer(cfg.StorageOptions(), nil, logger)
	repo, err := initializer.Open(cmd.Context())
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}

	return &session{cfg: cfg, logger: logger, repo: repo}, nil
}
