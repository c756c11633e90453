package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JamesPrial/todo-db/internal/storage"
	"github.com/JamesPrial/todo-db/internal/todo"
	"github.com/JamesPrial/todo-db/internal/transfer"
	"github.com/JamesPrial/todo-db/internal/tui"
	"github.com/JamesPrial/todo-db/internal/ui"
	"github.com/JamesPrial/todo-db/internal/web"
)

// NewListCommand creates the ls command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	var plain, group bool

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List every todo",
		Args:    usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer s.Close()

			items, err := s.repo.List(cmd.Context())
			if err != nil {
				return err
			}

			opt := ui.ListOptions{Group: group}
			if plain {
				fmt.Fprint(cmd.OutOrStdout(), ui.PlainList(items, opt))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.RenderList(items, opt))
			return nil
		},
	}

	cmd.Flags().BoolVar(&plain, "plain", false, "no colour or borders")
	cmd.Flags().BoolVarP(&group, "group", "g", false, "group by pending and done")
	return cmd
}

// NewAddCommand creates the add command.
func NewAddCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add <task...>",
		Short: "Add a todo (the task may span several words)",
		Args:  usageArgs(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			task, ok := todo.NormalizeTask(strings.Join(args, " "))
			if !ok {
				return usagef("add: empty task")
			}

			s, err := openSession(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer s.Close()

			item, err := s.repo.Add(cmd.Context(), task)
			if err != nil {
				return err
			}
			ui.OK(cmd.OutOrStdout(), fmt.Sprintf("added #%d", item.ID))
			return nil
		},
	}
}

// NewDoneCommand creates the done command, which flips the completed flag.
func NewDoneCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "done <id>",
		Short: "Toggle a todo between done and pending",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("done", args[0])
			if err != nil {
				return err
			}

			s, err := openSession(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer s.Close()

			current, err := s.repo.Get(cmd.Context(), id)
			if err != nil {
				return notFoundHint(err, id)
			}
			item, err := s.repo.ToggleComplete(cmd.Context(), id, !current.Completed)
			if err != nil {
				return notFoundHint(err, id)
			}

			state := "pending"
			if item.Completed {
				state = "done"
			}
			ui.OK(cmd.OutOrStdout(), fmt.Sprintf("#%d marked %s", id, state))
			return nil
		},
	}
}

// NewRemoveCommand creates the rm command.
func NewRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a todo",
		Args:    usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("rm", args[0])
			if err != nil {
				return err
			}

			s, err := openSession(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.repo.Delete(cmd.Context(), id); err != nil {
				return err
			}
			ui.OK(cmd.OutOrStdout(), fmt.Sprintf("removed #%d", id))
			return nil
		},
	}
}

// NewTUICommand creates the tui command; it is also the root default.
func NewTUICommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive list",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, rootOpts)
		},
	}
}

func runTUI(cmd *cobra.Command, rootOpts *RootOptions) error {
	s, err := openSession(cmd, rootOpts)
	if err != nil {
		return err
	}
	defer s.Close()
	return tui.Run(cmd.Context(), s.repo, s.logger)
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the list as a web page",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer s.Close()

			if addr == "" {
				addr = s.cfg.ListenAddr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			s.logger.Info("serving todos", zap.String("addr", addr))
			return web.Serve(ctx, web.NewServer(s.repo, s.logger), addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from listen_addr)")
	return cmd
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every todo as JSON",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer s.Close()

			var w io.Writer = cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", output, err)
				}
				defer func() { _ = f.Close() }()
				w = f
			}
			return transfer.Export(cmd.Context(), s.repo, w)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file|->",
		Short: "Add todos from an export file or a JSON array",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("failed to open %s: %w", args[0], err)
				}
				defer func() { _ = f.Close() }()
				r = f
			}

			items, skipped, err := transfer.ReadImport(r)
			if err != nil {
				return err
			}

			s, err := openSession(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer s.Close()

			res, err := transfer.Import(cmd.Context(), s.repo, items)
			if err != nil {
				return err
			}
			ui.OK(cmd.OutOrStdout(), fmt.Sprintf("imported %d, skipped %d", res.Added, skipped))
			return nil
		},
	}
}

func parseID(command, raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, usagef("%s: not a valid id: %s", command, raw)
	}
	return id, nil
}

func notFoundHint(err error, id int64) error {
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("no todo with id %d (run `todo ls` to see ids)", id)
	}
	return err
}
