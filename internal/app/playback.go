package app

import (
	"context"
	"errors"

	"github.com/dshills/keyloop/internal/input/macro"
	"github.com/dshills/keyloop/internal/notify"
)

// Play replays the named sequence, or the current sequence when name is
// empty, and blocks until playback ends. The error reports a playback that
// could not start; the Result carries everything else.
func (a *Application) Play(ctx context.Context, name string, opts macro.PlayOptions) (macro.Result, error) {
	ch := make(chan macro.Result, 1)
	if err := a.PlayAsync(ctx, name, opts, func(res macro.Result) { ch <- res }); err != nil {
		return macro.Result{}, err
	}
	return <-ch, nil
}

// PlayAsync starts playback and returns at once. done, if not nil, is
// called with the result after the playback notice has been sent.
func (a *Application) PlayAsync(ctx context.Context, name string, opts macro.PlayOptions, done func(macro.Result)) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return ErrClosed
	}
	if a.session.IsRecording() || a.pending != nil {
		return opError("play", name, ErrBusy)
	}

	seq, label, err := a.resolveLocked(name)
	if err != nil {
		return err
	}
	player, err := a.playerLocked()
	if err != nil {
		return opError("play", label, err)
	}

	err = player.PlayAsync(ctx, seq, opts, func(res macro.Result) {
		a.playFinished(label, res)
		if done != nil {
			done(res)
		}
	})
	if err != nil {
		if errors.Is(err, macro.ErrAlreadyPlaying) {
			err = ErrBusy
		}
		return opError("play", label, err)
	}
	a.logger.Info("playing %q (%d events)", label, len(seq))
	return nil
}

// StopPlayback cancels a running playback. Safe to call when idle.
func (a *Application) StopPlayback() {
	a.mu.Lock()
	player := a.player
	a.mu.Unlock()
	if player != nil {
		player.Stop()
	}
}

// resolveLocked returns the sequence to play. A named sequence is loaded
// from the store and becomes the current sequence. An empty current
// sequence is played and completes at once.
func (a *Application) resolveLocked(name string) (macro.Sequence, string, error) {
	if name == "" {
		seq, current, ok := a.session.Lookup()
		if !ok {
			return nil, current, ErrNothingToPlay
		}
		return seq, current, nil
	}

	seq, err := a.store.Load(name)
	if err != nil {
		return nil, name, opError("play", name, err)
	}
	a.session.SetCurrent(seq, name)
	return seq, name, nil
}

func (a *Application) playerLocked() (*macro.Player, error) {
	if a.player != nil {
		return a.player, nil
	}
	be, err := a.newBackend()
	if err != nil {
		return nil, err
	}

	opts := []macro.PlayerOption{macro.WithPlayLogger(a.opts.Logger)}
	if a.opts.Sleeper != nil {
		opts = append(opts, macro.WithSleeper(a.opts.Sleeper))
	}
	a.player = macro.NewPlayer(a.session, be, opts...)
	return a.player, nil
}

func (a *Application) playFinished(name string, res macro.Result) {
	if res.Err != nil {
		a.logger.Warn("playback %q %s: %v", name, res.Outcome, res.Err)
	}
	a.notifier.Notify(notify.Notice{
		Op:      notify.OpPlayback,
		Session: a.session.ID(),
		Name:    name,
		Outcome: res.Outcome.String(),
		Events:  res.Dispatched,
		Passes:  res.Passes,
		Elapsed: res.Elapsed,
		Err:     res.Err,
	})
}
