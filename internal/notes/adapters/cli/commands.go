package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"notekeeper/internal/notes/app"
	"notekeeper/internal/notes/export"
	"notekeeper/internal/notes/ports/api"
)

func newListCommand(opts *rootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List notes in display order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withStore(cmd, func(_ context.Context, store api.NoteStore) error {
				if asJSON {
					return printJSON(cmd.OutOrStdout(), store.Notes())
				}
				return printNotes(cmd.OutOrStdout(), store.Notes())
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print notes as JSON")
	return cmd
}

func newCreateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "create <text>",
		Short: "Append a new note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withStore(cmd, func(ctx context.Context, store api.NoteStore) error {
				if _, err := store.Create(ctx, args[0]); err != nil {
					return err
				}
				return printNotes(cmd.OutOrStdout(), store.Notes())
			})
		},
	}
}

func newEditCommand(opts *rootOptions) *cobra.Command {
	var id string

	cmd := &cobra.Command{
		Use:   "edit <old-text> <new-text> | edit --id <id> <new-text>",
		Short: "Rewrite the first note with the given text, or the note with --id",
		Args: func(cmd *cobra.Command, args []string) error {
			if id != "" {
				return cobra.ExactArgs(1)(cmd, args)
			}
			return cobra.ExactArgs(2)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withStore(cmd, func(ctx context.Context, store api.NoteStore) error {
				if id != "" {
					if _, err := store.UpdateByID(ctx, id, args[0]); err != nil {
						return err
					}
					return printNotes(cmd.OutOrStdout(), store.Notes())
				}

				updated, err := store.Update(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				if !updated {
					fmt.Fprintf(cmd.ErrOrStderr(), "no note with text %q\n", args[0])
				}
				return printNotes(cmd.OutOrStdout(), store.Notes())
			})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "edit the note with this ID")
	return cmd
}

func newDeleteCommand(opts *rootOptions) *cobra.Command {
	var id string

	cmd := &cobra.Command{
		Use:   "delete <index> | delete --id <id>",
		Short: "Delete the note at a list position, or the note with --id",
		Args: func(cmd *cobra.Command, args []string) error {
			if id != "" {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			var index int
			if id == "" {
				var err error
				if index, err = strconv.Atoi(args[0]); err != nil {
					return fmt.Errorf("invalid index %q: %w", args[0], err)
				}
			}

			return opts.withStore(cmd, func(ctx context.Context, store api.NoteStore) error {
				var err error
				if id != "" {
					err = store.DeleteByID(ctx, id)
				} else {
					err = store.Delete(ctx, index)
				}
				if err != nil {
					return err
				}
				return printNotes(cmd.OutOrStdout(), store.Notes())
			})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "delete the note with this ID")
	cmd.SetFlagErrorFunc(negativeIndexError)
	return cmd
}

// negativeIndexError reports "delete -1" as an out-of-range index instead of an unknown flag.
func negativeIndexError(_ *cobra.Command, err error) error {
	var notExist *pflag.NotExistError
	if !errors.As(err, &notExist) {
		return err
	}
	index, convErr := strconv.Atoi("-" + notExist.GetSpecifiedShortnames())
	if convErr != nil {
		return err
	}
	return fmt.Errorf("%w: %d", app.ErrIndexOutOfRange, index)
}

func newExportCommand(opts *rootOptions) *cobra.Command {
	var (
		format string
		output string
		font   string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export notes as json, csv, yaml or pdf",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var exportOpts []export.Option
			if font != "" {
				ttf, err := os.ReadFile(font)
				if err != nil {
					return fmt.Errorf("read font %s: %w", font, err)
				}
				exportOpts = append(exportOpts, export.WithFont(ttf))
			}

			return opts.withStore(cmd, func(_ context.Context, store api.NoteStore) error {
				if output == "" || output == "-" {
					return export.Write(cmd.OutOrStdout(), store.Notes(), format, exportOpts...)
				}

				var buf bytes.Buffer
				if err := export.Write(&buf, store.Notes(), format, exportOpts...); err != nil {
					return err
				}
				if err := os.WriteFile(output, buf.Bytes(), 0o644); err != nil {
					return fmt.Errorf("write %s: %w", output, err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "exported %d notes to %s\n", len(store.Notes()), output)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", export.FormatJSON, "json, csv, yaml or pdf")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, stdout when empty")
	cmd.Flags().StringVar(&font, "font", "", "TrueType font for pdf export, DejaVu Sans when empty")
	return cmd
}

func newWatchCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print the notes again whenever the notes file changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			parent := cmd.Context()
			if parent == nil {
				parent = context.Background()
			}
			ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
			defer stop()
			cmd.SetContext(ctx)

			return opts.withStore(cmd, func(ctx context.Context, store api.NoteStore) error {
				out := cmd.OutOrStdout()
				if err := printNotes(out, store.Notes()); err != nil {
					return err
				}

				return opts.watch(ctx, opts.configPath, func() {
					notes, err := store.LoadAll(ctx)
					if err != nil {
						fmt.Fprintf(cmd.ErrOrStderr(), "reload failed: %v\n", err)
						return
					}
					fmt.Fprintln(out, "--")
					_ = printNotes(out, notes)
				})
			})
		},
	}
}
