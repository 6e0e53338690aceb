package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/keyloop/internal/app"
	"github.com/dshills/keyloop/internal/backend"
	"github.com/dshills/keyloop/internal/config"
	"github.com/dshills/keyloop/internal/input/macro"
	"github.com/dshills/keyloop/internal/logging"
)

func (c *cli) playCmd() *cobra.Command {
	var (
		speed    float64
		loop     bool
		count    int
		dryRun   bool
		noHotkey bool
	)

	cmd := &cobra.Command{
		Use:   "play <name>",
		Short: "Replay a recorded sequence",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			application, closeApp, err := c.open(func(_ *config.Config, _ *logging.Logger, opts *app.Options) {
				opts.DryRun = dryRun
			})
			if err != nil {
				return err
			}
			defer closeApp()

			opts := application.PlayOptions()
			flags := cmd.Flags()
			if flags.Changed("speed") {
				opts.Speed = speed
			}
			if flags.Changed("loop") {
				opts.Looping = loop
			}
			if flags.Changed("count") {
				opts.Looping = true
				opts.MaxLoopCount = count
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			// The hotkey listener owns the terminal, so it is left off when
			// dry-run output goes there.
			if !noHotkey && !dryRun && c.isTerminal() {
				stopHotkey := c.watchStopKey(ctx, application)
				defer stopHotkey()
			}

			res, err := application.Play(ctx, name, opts)
			if err != nil {
				return err
			}

			fmt.Fprintf(c.stdout, "Played %q: %s, %d passes, %d events, %d skipped in %s\n",
				name, res.Outcome, res.Passes, res.Dispatched, res.Skipped, res.Elapsed.Round(time.Millisecond))

			switch res.Outcome {
			case macro.OutcomeAborted, macro.OutcomeFailed:
				return fmt.Errorf("playback %s: %w", res.Outcome, res.Err)
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.Float64VarP(&speed, "speed", "s", 1.0, "playback speed multiplier")
	flags.BoolVarP(&loop, "loop", "l", false, "repeat the sequence")
	flags.IntVarP(&count, "count", "n", 1, "number of passes (implies --loop)")
	flags.BoolVar(&dryRun, "dry-run", false, "print the input instead of sending it")
	flags.BoolVar(&noHotkey, "no-hotkey", false, "do not watch the terminal for the playback stop key")
	return cmd
}

// watchStopKey stops playback when the playback stop key is pressed in the
// terminal. The returned function ends the watch and waits for it.
func (c *cli) watchStopKey(ctx context.Context, application *app.Application) func() {
	cfg := application.Config()
	ctx, cancel := context.WithCancel(ctx)

	src := backend.NewTerminalSource(
		backend.WithMouse(false),
		backend.WithBanner(fmt.Sprintf("keyloop: playing. Press %s to stop.", cfg.Playback.StopKey)),
		backend.WithTerminalLogger(application.Logger()),
	)
	sink := backend.HotkeySink{Key: cfg.PlaybackStopKey(), Fire: application.StopPlayback}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := src.Listen(ctx, sink); err != nil {
			application.Logger().Warn("stop key unavailable: %v", err)
		}
	}()

	return func() {
		cancel()
		wg.Wait()
	}
}
