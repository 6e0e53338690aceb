package app

import (
	"context"
	"errors"

	"github.com/dshills/keyloop/internal/input/macro"
	"github.com/dshills/keyloop/internal/notify"
	"github.com/dshills/keyloop/internal/store"
)

// Capture is a running or finished recording started by Record.
type Capture struct {
	name string
	done chan struct{}
	seq  macro.Sequence
	err  error
}

// Name returns the name the capture is saved under, empty if unsaved.
func (c *Capture) Name() string {
	return c.name
}

// Done is closed once the capture has ended and been saved.
func (c *Capture) Done() <-chan struct{} {
	return c.done
}

// Wait blocks until the capture ends and returns the captured sequence.
// The error reports a failed source or a failed save; the sequence is
// returned in both cases.
func (c *Capture) Wait() (macro.Sequence, error) {
	<-c.done
	return c.seq, c.err
}

// Record starts a capture. When name is not empty the sequence is saved
// under it once the capture ends. The capture ends on StopRecording, on the
// capture stop key, when a source fails or when ctx is cancelled.
func (a *Application) Record(ctx context.Context, name string) (*Capture, error) {
	if name != "" {
		if err := store.ValidateName(name); err != nil {
			return nil, opError("record", name, err)
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return nil, ErrClosed
	}
	// pending stays set until the previous capture has been saved.
	if a.session.IsPlaying() || (a.player != nil && a.player.IsPlaying()) || a.pending != nil {
		return nil, opError("record", name, ErrBusy)
	}

	if err := a.recorder.Start(ctx); err != nil {
		if errors.Is(err, macro.ErrAlreadyRecording) {
			err = ErrBusy
		}
		return nil, opError("record", name, err)
	}

	c := &Capture{name: name, done: make(chan struct{})}
	a.pending = c
	a.logger.Info("recording %q", name)
	return c, nil
}

// StopRecording ends the running capture and waits until it is saved.
func (a *Application) StopRecording() (macro.Sequence, error) {
	a.mu.Lock()
	c := a.pending
	a.mu.Unlock()

	if c == nil {
		return nil, ErrNotRecording
	}
	a.recorder.Stop()
	return c.Wait()
}

// captureStopped runs on the recorder goroutine after every capture.
func (a *Application) captureStopped(seq macro.Sequence, err error) {
	a.mu.Lock()
	c := a.pending
	a.mu.Unlock()

	name := ""
	if c != nil {
		name = c.name
	}

	if err == nil && name != "" {
		if saveErr := a.store.Save(name, seq); saveErr != nil {
			err = &store.OperationError{Op: "save", Name: name, Context: "after capture", Err: saveErr}
		} else {
			a.session.SetName(name)
		}
	}
	if err != nil {
		a.logger.Error("capture %q: %v", name, err)
	}

	outcome := "completed"
	if err != nil {
		outcome = "failed"
	}
	a.notifier.Notify(notify.Notice{
		Op:      notify.OpCapture,
		Session: a.session.ID(),
		Name:    name,
		Outcome: outcome,
		Events:  len(seq),
		Elapsed: seq.Duration(),
		Err:     err,
	})

	a.mu.Lock()
	if a.pending == c {
		a.pending = nil
	}
	a.mu.Unlock()

	if c != nil {
		c.seq, c.err = seq, err
		close(c.done)
	}
}
