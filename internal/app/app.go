package app

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/dshills/keyloop/internal/config"
	"github.com/dshills/keyloop/internal/input/macro"
	"github.com/dshills/keyloop/internal/logging"
	"github.com/dshills/keyloop/internal/notify"
	"github.com/dshills/keyloop/internal/store"
)

// Application owns the session and coordinates the recorder, the player
// and the sequence store.
type Application struct {
	mu sync.Mutex

	config   *config.Config
	logger   *logging.Logger
	session  *macro.Session
	store    *store.Store
	notifier *notify.Notifier
	recorder *macro.Recorder

	// The player is created on first use so that commands which never
	// replay do not need a working backend.
	player     *macro.Player
	newBackend func() (macro.Backend, error)

	pending     *Capture
	ownNotifier bool
	closed      bool

	opts Options
}

// Options configures the application.
type Options struct {
	// Config is the loaded configuration. Defaults are used when nil.
	Config *config.Config

	// Logger receives application logs. Nothing is logged when nil.
	Logger *logging.Logger

	// Sources overrides the configured capture sources.
	Sources []macro.Source

	// Backend overrides the configured replay backend.
	Backend macro.Backend

	// DryRun replaces the configured backend with a dry-run backend.
	DryRun bool

	// Output receives dry-run lines.
	Output io.Writer

	// Notifier receives capture and playback notices. A synchronous
	// notifier is created when nil.
	Notifier *notify.Notifier

	// Clock and Sleeper replace wall time in tests.
	Clock   func() time.Time
	Sleeper macro.Sleeper
}

// New creates an Application with the given options.
func New(opts Options) (*Application, error) {
	a := &Application{opts: opts}
	if err := newBootstrapper(a, opts).bootstrap(); err != nil {
		return nil, err
	}
	return a, nil
}

// Config returns the configuration in use.
func (a *Application) Config() *config.Config {
	return a.config
}

// Session returns the application session.
func (a *Application) Session() *macro.Session {
	return a.session
}

// Store returns the sequence store.
func (a *Application) Store() *store.Store {
	return a.store
}

// Notifier returns the notifier used for capture and playback notices.
func (a *Application) Notifier() *notify.Notifier {
	return a.notifier
}

// Logger returns the application logger.
func (a *Application) Logger() *logging.Logger {
	return a.logger
}

// CurrentName returns the name of the current sequence, empty when the
// current sequence is an unsaved capture or there is none.
func (a *Application) CurrentName() string {
	_, name := a.session.Current()
	return name
}

// PlayOptions returns the configured playback options.
func (a *Application) PlayOptions() macro.PlayOptions {
	return a.config.PlayOptions()
}

// IsRecording returns true while a capture is running.
func (a *Application) IsRecording() bool {
	return a.session.IsRecording()
}

// IsPlaying returns true while a playback is running.
func (a *Application) IsPlaying() bool {
	return a.session.IsPlaying()
}

// Stop ends any capture or playback. It waits until a capture has been
// saved but does not wait for a playback. Stop must not be called from a
// capture notice observer.
func (a *Application) Stop() {
	a.mu.Lock()
	player := a.player
	pending := a.pending
	a.mu.Unlock()

	if player != nil {
		player.Stop()
	}
	a.recorder.Stop()
	if pending != nil {
		<-pending.done
	}
}

// Close stops all activity and releases the notifier.
func (a *Application) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	a.mu.Unlock()

	a.Stop()
	if a.ownNotifier {
		a.notifier.Close()
	}
	a.logger.Debug("application closed")
	return nil
}

// Watch reports changes made to the sequences directory by other processes
// until ctx is cancelled.
func (a *Application) Watch(ctx context.Context, fn func(store.Change)) error {
	return a.store.Watch(ctx, func(c store.Change) {
		a.logger.Debug("sequence %q %s", c.Name, c.Op)
		if fn != nil {
			fn(c)
		}
	})
}
