package main

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/keyloop/internal/store"
)

func (c *cli) listCmd() *cobra.Command {
	var watch, check bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded sequences",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			application, closeApp, err := c.open(nil)
			if err != nil {
				return err
			}
			defer closeApp()

			if check {
				all, err := application.LoadAll()
				fmt.Fprintf(c.stdout, "%d sequences loaded\n", len(all))
				if err != nil {
					return fmt.Errorf("some sequences failed to load:\n%w", err)
				}
				return nil
			}

			names, err := application.List()
			if err != nil {
				return err
			}
			if len(names) == 0 && !watch {
				fmt.Fprintln(c.stdout, "No sequences found.")
				return nil
			}

			w := tabwriter.NewWriter(c.stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tEVENTS\tDURATION\tMODIFIED")
			for _, name := range names {
				info, err := application.Info(name)
				if err != nil {
					fmt.Fprintf(w, "%s\t?\t?\t%v\n", name, err)
					continue
				}
				fmt.Fprintf(w, "%s\t%d\t%s\t%s\n",
					info.Name,
					info.Events,
					info.Duration.Round(time.Millisecond),
					info.Modified.Format("2006-01-02 15:04:05"),
				)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			if !watch {
				return nil
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return application.Watch(ctx, func(ch store.Change) {
				fmt.Fprintf(c.stdout, "%s %s\n", ch.Op, ch.Name)
			})
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "keep running and report changes")
	cmd.Flags().BoolVar(&check, "check", false, "load every sequence and report broken files")
	return cmd
}

func (c *cli) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Print the events of a sequence",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			application, closeApp, err := c.open(nil)
			if err != nil {
				return err
			}
			defer closeApp()

			seq, err := application.Load(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(c.stdout, "%s: %d events over %s\n", args[0], len(seq), seq.Duration().Round(time.Millisecond))
			for i, ev := range seq {
				fmt.Fprintf(c.stdout, "%4d  %s\n", i, ev)
			}
			return nil
		},
	}
}

func (c *cli) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <name>",
		Aliases: []string{"rm"},
		Short:   "Delete a sequence",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			application, closeApp, err := c.open(nil)
			if err != nil {
				return err
			}
			defer closeApp()

			if err := application.Delete(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(c.stdout, "Deleted %q\n", args[0])
			return nil
		},
	}
}

func (c *cli) renameCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rename <old> <new>",
		Aliases: []string{"mv"},
		Short:   "Rename a sequence",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			application, closeApp, err := c.open(nil)
			if err != nil {
				return err
			}
			defer closeApp()

			if err := application.Rename(args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(c.stdout, "Renamed %q to %q\n", args[0], args[1])
			return nil
		},
	}
}

func (c *cli) editCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "edit <name> <index> <field> <value>",
		Short: "Change one field of a recorded event",
		Long: "Change one field of a recorded event. Fields: timestamp, x, y and\n" +
			"button for mouse events; timestamp, key, base_key and modifiers for\n" +
			"key events. Modifiers are given as a comma separated list.",
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseIndex(args[1])
			if err != nil {
				return err
			}

			application, closeApp, err := c.open(nil)
			if err != nil {
				return err
			}
			defer closeApp()

			if err := application.UpdateEvent(args[0], index, args[2], args[3]); err != nil {
				return err
			}
			fmt.Fprintf(c.stdout, "Updated %s of event %d in %q\n", args[2], index, args[0])
			return nil
		},
	}
}

func (c *cli) removeEventCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm-event <name> <index>",
		Short: "Remove one recorded event",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseIndex(args[1])
			if err != nil {
				return err
			}

			application, closeApp, err := c.open(nil)
			if err != nil {
				return err
			}
			defer closeApp()

			if err := application.RemoveEvent(args[0], index); err != nil {
				return err
			}
			fmt.Fprintf(c.stdout, "Removed event %d from %q\n", index, args[0])
			return nil
		},
	}
}

func parseIndex(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid event index %q", s)
	}
	return n, nil
}
