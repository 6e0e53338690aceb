package macro

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dshills/keyloop/internal/input/key"
	"github.com/dshills/keyloop/internal/input/mouse"
	"github.com/dshills/keyloop/internal/logging"
)

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithStopKey sets the key that ends a capture. The default is Escape.
func WithStopKey(s key.Stroke) RecorderOption {
	return func(r *Recorder) { r.stopKey = s }
}

// WithClock replaces time.Now for timestamps.
func WithClock(now func() time.Time) RecorderOption {
	return func(r *Recorder) {
		if now != nil {
			r.now = now
		}
	}
}

// WithRecordLogger sets the recorder logger.
func WithRecordLogger(l *logging.Logger) RecorderOption {
	return func(r *Recorder) { r.logger = logging.Default(l).WithComponent("recorder") }
}

// OnCaptureStop registers fn to run once after every capture ends.
func OnCaptureStop(fn func(seq Sequence, err error)) RecorderOption {
	return func(r *Recorder) { r.onStop = fn }
}

// Recorder captures input from its sources into a Sequence.
// It implements Sink; sources call its methods from their own goroutines.
type Recorder struct {
	session *Session
	sources []Source
	stopKey key.Stroke
	now     func() time.Time
	logger  *logging.Logger
	onStop  func(Sequence, error)

	mu       sync.Mutex
	active   bool
	events   Sequence
	start    time.Time
	stopCh   chan struct{}
	stopOnce *sync.Once
	done     chan struct{}
	err      error
}

// NewRecorder creates a recorder listening to sources.
func NewRecorder(session *Session, sources []Source, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		session: session,
		sources: sources,
		stopKey: key.SpecialStroke(key.KeyEscape),
		now:     time.Now,
		logger:  logging.NullLogger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start clears the previous capture and begins listening.
// Listening ends when Stop is called, the stop key is pressed, a source
// fails, or ctx is cancelled.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active || r.session.IsRecording() {
		return ErrAlreadyRecording
	}
	if r.done != nil {
		select {
		case <-r.done:
		default:
			// The previous capture is still shutting down.
			return ErrAlreadyRecording
		}
	}

	r.events = Sequence{}
	r.start = r.now()
	r.err = nil
	r.session.Modifiers().Reset()
	r.session.recording.Store(true)
	r.active = true

	stopCh := make(chan struct{})
	done := make(chan struct{})
	r.stopCh = stopCh
	r.stopOnce = &sync.Once{}
	r.done = done

	ctx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(ctx)
	for _, src := range r.sources {
		src := src
		g.Go(func() error {
			return src.Listen(gctx, r)
		})
	}

	r.logger.Info("capture started with %d sources", len(r.sources))

	go func() {
		select {
		case <-stopCh:
		case <-gctx.Done():
		}
		cancel()
		err := g.Wait()
		if errors.Is(err, context.Canceled) {
			err = nil
		}
		r.finish(done, err)
	}()

	return nil
}

// finish publishes the capture and releases waiters.
func (r *Recorder) finish(done chan struct{}, err error) {
	r.mu.Lock()
	r.active = false
	r.err = err
	seq := r.events.Clone()
	r.mu.Unlock()

	r.session.recording.Store(false)
	r.session.Modifiers().Reset()
	r.session.SetCurrent(seq, "")

	if err != nil {
		r.logger.Error("capture source failed: %v", err)
	}
	r.logger.Info("capture stopped with %d events", len(seq))

	close(done)

	if r.onStop != nil {
		r.onStop(seq, err)
	}
}

// requestStop asks the capture to end without waiting for it.
func (r *Recorder) requestStop() chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopCh == nil {
		return nil
	}
	r.active = false
	stopCh := r.stopCh
	r.stopOnce.Do(func() { close(stopCh) })
	return r.done
}

// Stop ends the capture and returns once every source has returned.
// It is safe to call from any goroutine and more than once.
func (r *Recorder) Stop() {
	done := r.requestStop()
	if done != nil {
		<-done
	}
}

// Wait blocks until the current capture ends and returns it.
func (r *Recorder) Wait() (Sequence, error) {
	r.mu.Lock()
	done := r.done
	r.mu.Unlock()
	if done != nil {
		<-done
	}
	return r.Events(), r.Err()
}

// Run starts a capture and waits for it to end.
func (r *Recorder) Run(ctx context.Context) (Sequence, error) {
	if err := r.Start(ctx); err != nil {
		return nil, err
	}
	return r.Wait()
}

// Events returns a copy of the events captured so far.
func (r *Recorder) Events() Sequence {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events.Clone()
}

// Err returns the source error that ended the last capture, if any.
func (r *Recorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// IsRecording reports whether events are being captured.
func (r *Recorder) IsRecording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// elapsed must be called with r.mu held.
func (r *Recorder) elapsed() float64 {
	return r.now().Sub(r.start).Seconds()
}

// MouseMove records a pointer move.
func (r *Recorder) MouseMove(x, y int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.active {
		return
	}
	r.events = append(r.events, MouseMove{Timestamp: r.elapsed(), X: x, Y: y})
}

// MouseButton records a button press or release.
func (r *Recorder) MouseButton(x, y int, b mouse.Button, pressed bool) {
	if !b.Valid() {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.active {
		return
	}
	ts := r.elapsed()
	if pressed {
		r.events = append(r.events, MouseDown{Timestamp: ts, X: x, Y: y, Button: b})
	} else {
		r.events = append(r.events, MouseUp{Timestamp: ts, X: x, Y: y, Button: b})
	}
}

// KeyPress records a key press. The stop key ends the capture instead.
func (r *Recorder) KeyPress(s key.Stroke) {
	if s.Equals(r.stopKey) {
		r.logger.Debug("stop key pressed")
		r.requestStop()
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.active {
		return
	}
	ts := r.elapsed()
	mods := r.session.Modifiers()

	if mod := s.Modifier(); mod != key.ModNone {
		mods.Down(mod)
		held := mods.Held()
		r.events = append(r.events, KeyDown{
			Timestamp: ts,
			Key:       modifierLabel(held, mod),
			Modifiers: held,
			BaseKey:   mod.Name(),
		})
		return
	}

	held := mods.Held()
	base := s.BaseName(held)
	if base == "" {
		r.logger.Debug("ignoring key press %v with no name", s.Key)
		return
	}
	r.events = append(r.events, KeyDown{
		Timestamp: ts,
		Key:       held.Combo(base),
		Modifiers: held,
		BaseKey:   base,
	})
}

// KeyRelease records a key release.
func (r *Recorder) KeyRelease(s key.Stroke) {
	if s.Equals(r.stopKey) {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.active {
		return
	}
	ts := r.elapsed()
	mods := r.session.Modifiers()

	if mod := s.Modifier(); mod != key.ModNone {
		held := mods.Held()
		mods.Up(mod)
		r.events = append(r.events, KeyUp{
			Timestamp: ts,
			Key:       modifierLabel(held, mod),
			Modifiers: held,
			BaseKey:   mod.Name(),
		})
		return
	}

	held := mods.Held()
	base := s.BaseName(held)
	if base == "" {
		return
	}
	r.events = append(r.events, KeyUp{
		Timestamp: ts,
		Key:       held.Combo(base),
		Modifiers: held,
		BaseKey:   base,
	})
}

// modifierLabel is the display string of a modifier transition.
func modifierLabel(held, mod key.Modifier) string {
	if held.Count() > 1 {
		return held.String()
	}
	return mod.Name()
}
