package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/keyloop/internal/app"
	"github.com/dshills/keyloop/internal/backend"
	"github.com/dshills/keyloop/internal/config"
	"github.com/dshills/keyloop/internal/input/macro"
	"github.com/dshills/keyloop/internal/logging"
	"github.com/dshills/keyloop/internal/store"
)

func (c *cli) recordCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "record <name>",
		Short: "Record keyboard and mouse input from the terminal",
		Long: "Record keyboard and mouse input from the terminal until the capture\n" +
			"stop key (escape by default) is pressed, then save it under name.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if err := store.ValidateName(name); err != nil {
				return err
			}
			if !c.isTerminal() {
				return errNotTerminal
			}

			application, closeApp, err := c.open(func(cfg *config.Config, log *logging.Logger, opts *app.Options) {
				opts.Sources = []macro.Source{backend.NewTerminalSource(
					backend.WithMouse(cfg.Capture.Mouse),
					backend.WithBanner(
						fmt.Sprintf("keyloop: recording %q", name),
						fmt.Sprintf("Press %s to stop.", cfg.Capture.StopKey),
					),
					backend.WithTerminalLogger(log),
				)}
			})
			if err != nil {
				return err
			}
			defer closeApp()

			if application.Store().Exists(name) && !force {
				return fmt.Errorf("sequence %q already exists (use --force to overwrite)", name)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			capture, err := application.Record(ctx, name)
			if err != nil {
				return err
			}
			seq, err := capture.Wait()
			if err != nil {
				return err
			}

			fmt.Fprintf(c.stdout, "Saved %q: %d events over %s\n", name, len(seq), seq.Duration().Round(time.Millisecond))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing sequence")
	return cmd
}
