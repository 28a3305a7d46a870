package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"prefsform/internal/form"
	"prefsform/internal/jsonutil"
	"prefsform/internal/prefs"
	"prefsform/internal/ui"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "prefsform",
		Short: "Save, load and clear a username, email and id",
		Long: `prefsform keeps a username, an email and a numeric id in a local
preferences store. Run it without arguments for the interactive form.

Examples:
  prefsform
  prefsform save --username calist --email c@example.com --id 42
  prefsform load --json
  prefsform watch`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, true, runForm)
		},
	}
	root.AddCommand(newSaveCmd(), newLoadCmd(), newClearCmd(), newWatchCmd(), newImportCmd())
	return root
}

// withEnv opens the environment for the duration of fn.
func withEnv(cmd *cobra.Command, watch bool, fn func(*cobra.Command, *appEnv) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	e, err := openEnv(ctx, watch)
	if err != nil {
		return err
	}
	defer e.Close()
	return fn(cmd, e)
}

func runForm(cmd *cobra.Command, e *appEnv) error {
	m := ui.NewAppModel(cmd.Context(), e.users, e.logger)
	defer m.Close()
	p := tea.NewProgram(m.AsTeaModel(), tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	_, err := p.Run()
	return err
}

// --- save ---

func newSaveCmd() *cobra.Command {
	var fields form.Fields
	cmd := &cobra.Command{
		Use:   "save",
		Short: "Save the user record",
		Long: `Save the user record. An id that is missing or not a 32-bit integer is
stored as -1, the same as the form's Save action.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, false, func(cmd *cobra.Command, e *appEnv) error {
				c := form.NewController(e.users)
				c.Input = fields
				sub, err := c.Save(cmd.Context())
				if err != nil {
					return err
				}
				if !sub.ResetInput && fields.ID != "" {
					fmt.Fprintf(cmd.ErrOrStderr(), "id %q is not a 32-bit integer; stored %d\n", fields.ID, prefs.NoUserID)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Saved")
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&fields.Username, "username", "", "username to store")
	cmd.Flags().StringVar(&fields.Email, "email", "", "email to store")
	cmd.Flags().StringVar(&fields.ID, "id", "", "numeric id to store")
	return cmd
}

// --- load ---

func newLoadCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Print the stored user record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, false, func(cmd *cobra.Command, e *appEnv) error {
				d := e.users.Load()
				if asJSON {
					line, err := jsonutil.MarshalLine(d)
					if err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), line)
					return nil
				}
				printFields(cmd.OutOrStdout(), form.FromUserData(d))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

func printFields(w io.Writer, f form.Fields) {
	fmt.Fprintf(w, "username: %s\n", f.Username)
	fmt.Fprintf(w, "email:    %s\n", f.Email)
	fmt.Fprintf(w, "id:       %s\n", f.ID)
}

// --- clear ---

func newClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Reset the user record to blank values and id -1",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, false, func(cmd *cobra.Command, e *appEnv) error {
				if err := e.users.Clear(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Cleared")
				return nil
			})
		},
	}
}

// --- import ---

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Save a user record read from a JSON file",
		Long: `Save a user record read from a JSON file, for example:

  {"username": "calist", "email": "c@example.com", "id": 42}

Missing fields are stored blank; a missing id is stored as -1. An id
outside the 32-bit range is rejected.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading file: %w", err)
			}
			d := prefs.EmptyUserData()
			if err := jsonutil.UnmarshalStrict(data, &d, "import "+args[0]); err != nil {
				return err
			}
			return withEnv(cmd, false, func(cmd *cobra.Command, e *appEnv) error {
				if err := e.users.Save(cmd.Context(), d); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Saved")
				return nil
			})
		},
	}
}

// --- watch ---

func newWatchCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print each change to the stored values until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, true, func(cmd *cobra.Command, e *appEnv) error {
				ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
				defer stop()
				if asJSON {
					return watchJSON(ctx, cmd.OutOrStdout(), e.users)
				}
				return watchFields(ctx, cmd.OutOrStdout(), e.users)
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print each whole record as a JSON line")
	return cmd
}

// watchFields prints one line per field change, reading the three channels
// concurrently.
func watchFields(ctx context.Context, w io.Writer, users *prefs.UserStore) error {
	var mu sync.Mutex
	emitLine := func(format string, args ...any) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(w, format+"\n", args...)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for v := range users.Username(ctx) {
			emitLine("username: %s", v)
		}
		return nil
	})
	g.Go(func() error {
		for v := range users.Email(ctx) {
			emitLine("email: %s", v)
		}
		return nil
	})
	g.Go(func() error {
		for v := range users.UserID(ctx) {
			emitLine("id: %d", v)
		}
		return nil
	})
	return g.Wait()
}

func watchJSON(ctx context.Context, w io.Writer, users *prefs.UserStore) error {
	for d := range users.Changes(ctx) {
		line, err := jsonutil.MarshalLine(d)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, line)
	}
	return nil
}
