package macro

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime/debug"
	"sync"
	"time"

	"github.com/dshills/keyloop/internal/input/key"
	"github.com/dshills/keyloop/internal/logging"
)

// DefaultSettleDelay is the pause after each modifier press or release.
const DefaultSettleDelay = 50 * time.Millisecond

// PlayOptions controls playback.
type PlayOptions struct {
	// Speed divides recorded delays. 2 plays twice as fast.
	Speed float64
	// Looping enables MaxLoopCount passes instead of one.
	Looping bool
	// MaxLoopCount is the number of passes when Looping is set.
	MaxLoopCount int
	// SettleDelay is the pause after each modifier press or release.
	SettleDelay time.Duration
}

// DefaultPlayOptions returns a single pass at recorded speed.
func DefaultPlayOptions() PlayOptions {
	return PlayOptions{
		Speed:        1.0,
		MaxLoopCount: 1,
		SettleDelay:  DefaultSettleDelay,
	}
}

// Passes returns how many times the sequence will be replayed.
func (o PlayOptions) Passes() int {
	if !o.Looping {
		return 1
	}
	return o.MaxLoopCount
}

// Validate reports unusable options.
func (o PlayOptions) Validate() error {
	if o.Speed <= 0 || math.IsNaN(o.Speed) || math.IsInf(o.Speed, 0) {
		return fmt.Errorf("%w: speed must be positive, got %v", ErrInvalidOptions, o.Speed)
	}
	if o.Looping && o.MaxLoopCount < 1 {
		return fmt.Errorf("%w: loop count must be at least 1, got %d", ErrInvalidOptions, o.MaxLoopCount)
	}
	if o.SettleDelay < 0 {
		return fmt.Errorf("%w: settle delay must not be negative", ErrInvalidOptions)
	}
	return nil
}

// Outcome is how a playback ended.
type Outcome int

const (
	OutcomeCompleted Outcome = iota
	OutcomeCancelled
	OutcomeAborted
	OutcomeFailed
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomeCompleted:
		return "completed"
	case OutcomeCancelled:
		return "cancelled"
	case OutcomeAborted:
		return "aborted"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result summarizes one playback.
type Result struct {
	Outcome    Outcome
	Passes     int
	Dispatched int
	Skipped    int
	Elapsed    time.Duration
	Err        error
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// PlayerOption configures a Player.
type PlayerOption func(*Player)

// WithSleeper replaces the timer used between events.
func WithSleeper(s Sleeper) PlayerOption {
	return func(p *Player) {
		if s != nil {
			p.sleep = s
		}
	}
}

// WithPlayLogger sets the player logger.
func WithPlayLogger(l *logging.Logger) PlayerOption {
	return func(p *Player) { p.logger = logging.Default(l).WithComponent("player") }
}

// OnPlayFinish registers fn to run once after every playback.
func OnPlayFinish(fn func(Result)) PlayerOption {
	return func(p *Player) { p.onFinish = fn }
}

// Player replays sequences through a Backend.
type Player struct {
	session  *Session
	backend  Backend
	sleep    Sleeper
	logger   *logging.Logger
	onFinish func(Result)

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc

	// held is only touched by the playback goroutine.
	held map[string]bool
}

// NewPlayer creates a player dispatching to backend.
func NewPlayer(session *Session, backend Backend, opts ...PlayerOption) *Player {
	p := &Player{
		session: session,
		backend: backend,
		sleep:   sleepContext,
		logger:  logging.NullLogger,
		held:    make(map[string]bool),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Play replays seq and blocks until playback ends.
// The error is non-nil only when playback could not start; failures during
// playback are reported in the Result.
func (p *Player) Play(ctx context.Context, seq Sequence, opts PlayOptions) (Result, error) {
	ctx, err := p.begin(ctx, opts)
	if err != nil {
		return Result{}, err
	}
	return p.run(ctx, seq, opts, nil), nil
}

// PlayAsync starts playback in a goroutine. done, if not nil, receives the
// result once playback ends.
func (p *Player) PlayAsync(ctx context.Context, seq Sequence, opts PlayOptions, done func(Result)) error {
	ctx, err := p.begin(ctx, opts)
	if err != nil {
		return err
	}
	go p.run(ctx, seq, opts, done)
	return nil
}

// Stop cancels playback, interrupting any wait between events.
// Keys already pressed stay pressed. Safe to call when idle.
func (p *Player) Stop() {
	p.session.playing.Store(false)
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
	}
}

// IsPlaying returns true while a playback is running.
func (p *Player) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *Player) begin(ctx context.Context, opts PlayOptions) (context.Context, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return nil, ErrAlreadyPlaying
	}

	ctx, cancel := context.WithCancel(ctx)
	p.running = true
	p.cancel = cancel
	p.held = make(map[string]bool)
	p.session.loops.Store(0)
	p.session.playing.Store(true)
	return ctx, nil
}

// run plays every pass. Cleanup and the finish callbacks run on every exit
// path, including a panic in the backend.
func (p *Player) run(ctx context.Context, seq Sequence, opts PlayOptions, done func(Result)) (res Result) {
	started := time.Now()
	passes := opts.Passes()
	p.logger.Info("playback started: %d events, %d passes, speed %.2f", len(seq), passes, opts.Speed)

	defer func() {
		if v := recover(); v != nil {
			res.Outcome = OutcomeFailed
			res.Err = &RecoveredPanicError{Value: v, Stack: debug.Stack()}
			p.logger.Error("playback panicked: %v", v)
		}
		res.Elapsed = time.Since(started)

		p.session.playing.Store(false)
		p.mu.Lock()
		if p.cancel != nil {
			p.cancel()
		}
		p.cancel = nil
		p.running = false
		p.mu.Unlock()

		p.logger.Info("playback %s after %d passes (%d dispatched, %d skipped)",
			res.Outcome, res.Passes, res.Dispatched, res.Skipped)

		if p.onFinish != nil {
			p.onFinish(res)
		}
		if done != nil {
			done(res)
		}
	}()

	if len(seq) == 0 {
		res.Outcome = OutcomeCompleted
		return res
	}

	for pass := 0; pass < passes; pass++ {
		if !p.active(ctx) {
			res.Outcome = OutcomeCancelled
			return res
		}

		for i, ev := range seq {
			if !p.active(ctx) {
				res.Outcome = OutcomeCancelled
				return res
			}

			if i > 0 {
				if delay := ev.Time() - seq[i-1].Time(); delay > 0 {
					if err := p.sleep(ctx, secondsToDuration(delay/opts.Speed)); err != nil {
						res.Outcome = OutcomeCancelled
						return res
					}
				}
				if !p.active(ctx) {
					res.Outcome = OutcomeCancelled
					return res
				}
			}

			err := p.dispatch(ctx, ev, opts)
			switch {
			case err == nil:
				res.Dispatched++
			case errors.Is(err, ErrFailSafe):
				p.session.playing.Store(false)
				res.Outcome = OutcomeAborted
				res.Err = err
				p.logger.Warn("fail-safe triggered at event %d", i)
				return res
			case ctx.Err() != nil:
				res.Outcome = OutcomeCancelled
				return res
			default:
				res.Skipped++
				p.logger.Warn("skipping event %d (%s): %v", i, ev.Kind(), err)
			}
		}

		res.Passes++
		p.session.loops.Add(1)
		p.logger.Debug("pass %d of %d complete", pass+1, passes)
	}

	res.Outcome = OutcomeCompleted
	return res
}

func (p *Player) active(ctx context.Context) bool {
	return p.session.IsPlaying() && ctx.Err() == nil
}

func (p *Player) dispatch(ctx context.Context, ev Event, opts PlayOptions) error {
	switch e := ev.(type) {
	case MouseMove:
		return p.backend.MoveTo(ctx, e.X, e.Y)
	case MouseDown:
		return p.backend.MouseDown(ctx, e.X, e.Y, e.Button)
	case MouseUp:
		return p.backend.MouseUp(ctx, e.X, e.Y, e.Button)
	case KeyDown:
		return p.press(ctx, e.Modifiers, e.BaseKey, opts.SettleDelay)
	case KeyUp:
		return p.release(ctx, e.Modifiers, e.BaseKey, opts.SettleDelay)
	default:
		return fmt.Errorf("%w: %T", ErrUnknownEvent, ev)
	}
}

// press holds each listed modifier not already held, then presses the base
// key. The base key is pressed even when held so autorepeat replays.
func (p *Player) press(ctx context.Context, mods key.Modifier, baseKey string, settle time.Duration) error {
	base, err := ResolveKeyName(baseKey)
	if err != nil {
		return err
	}

	for _, name := range mods.Names() {
		if name == base || p.held[name] {
			continue
		}
		if err := p.backend.KeyDown(ctx, name); err != nil {
			return err
		}
		p.held[name] = true
		if err := p.settle(ctx, settle); err != nil {
			return err
		}
	}

	if err := p.backend.KeyDown(ctx, base); err != nil {
		return err
	}
	p.held[base] = true
	if key.ModifierFromName(base) != key.ModNone {
		return p.settle(ctx, settle)
	}
	return nil
}

// release lets go of the base key, then the held modifiers in reverse order.
// A modifier the player does not hold is never released. When the base key
// is itself a modifier only that modifier is released; the others are still
// physically held and get their own keyup records.
func (p *Player) release(ctx context.Context, mods key.Modifier, baseKey string, settle time.Duration) error {
	base, err := ResolveKeyName(baseKey)
	if err != nil {
		return err
	}

	if key.ModifierFromName(base) != key.ModNone {
		if !p.held[base] {
			return nil
		}
		if err := p.backend.KeyUp(ctx, base); err != nil {
			return err
		}
		delete(p.held, base)
		return p.settle(ctx, settle)
	}

	if err := p.backend.KeyUp(ctx, base); err != nil {
		return err
	}
	delete(p.held, base)

	names := mods.Names()
	for i := len(names) - 1; i >= 0; i-- {
		name := names[i]
		if !p.held[name] {
			continue
		}
		if err := p.backend.KeyUp(ctx, name); err != nil {
			return err
		}
		delete(p.held, name)
		if err := p.settle(ctx, settle); err != nil {
			return err
		}
	}
	return nil
}

func (p *Player) settle(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	return p.sleep(ctx, d)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
