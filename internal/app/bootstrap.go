package app

import (
	"github.com/dshills/keyloop/internal/backend"
	"github.com/dshills/keyloop/internal/config"
	"github.com/dshills/keyloop/internal/input/macro"
	"github.com/dshills/keyloop/internal/logging"
	"github.com/dshills/keyloop/internal/notify"
	"github.com/dshills/keyloop/internal/store"
)

// bootstrapper handles component initialization with proper cleanup on failure.
type bootstrapper struct {
	app       *Application
	opts      Options
	initOrder []string
}

// newBootstrapper creates a new bootstrapper for the application.
func newBootstrapper(app *Application, opts Options) *bootstrapper {
	return &bootstrapper{
		app:       app,
		opts:      opts,
		initOrder: make([]string, 0, 5),
	}
}

// bootstrap initializes all components in dependency order.
// On failure, it cleans up already-initialized components.
func (b *bootstrapper) bootstrap() error {
	steps := []func() error{
		b.initConfig,
		b.initStore,
		b.initNotifier,
		b.initRecorder,
		b.initBackend,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			b.cleanup()
			return err
		}
	}
	b.app.logger.Debug("bootstrapped %v", b.initOrder)
	return nil
}

func (b *bootstrapper) initConfig() error {
	cfg := b.opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return &InitError{Component: "config", Err: err}
	}
	b.app.config = cfg
	b.app.logger = logging.Default(b.opts.Logger).WithComponent("app")
	b.app.session = macro.NewSession()
	b.initOrder = append(b.initOrder, "config")
	return nil
}

func (b *bootstrapper) initStore() error {
	st, err := store.New(b.app.config.Paths.SequencesDir, store.WithLogger(b.opts.Logger))
	if err != nil {
		return &InitError{Component: "store", Err: err}
	}
	b.app.store = st
	b.initOrder = append(b.initOrder, "store")
	return nil
}

func (b *bootstrapper) initNotifier() error {
	if b.opts.Notifier != nil {
		b.app.notifier = b.opts.Notifier
	} else {
		b.app.notifier = notify.New()
		b.app.ownNotifier = true
	}
	b.initOrder = append(b.initOrder, "notifier")
	return nil
}

func (b *bootstrapper) initRecorder() error {
	cfg := b.app.config
	sources := b.opts.Sources
	if sources == nil {
		sources = []macro.Source{backend.NewTerminalSource(
			backend.WithMouse(cfg.Capture.Mouse),
			backend.WithTerminalLogger(b.opts.Logger),
		)}
	}

	recOpts := []macro.RecorderOption{
		macro.WithStopKey(cfg.CaptureStopKey()),
		macro.WithRecordLogger(b.opts.Logger),
		macro.OnCaptureStop(b.app.captureStopped),
	}
	if b.opts.Clock != nil {
		recOpts = append(recOpts, macro.WithClock(b.opts.Clock))
	}
	b.app.recorder = macro.NewRecorder(b.app.session, sources, recOpts...)
	b.initOrder = append(b.initOrder, "recorder")
	return nil
}

// initBackend only decides how the backend will be built; it is opened on
// the first playback.
func (b *bootstrapper) initBackend() error {
	cfg := b.app.config
	log := b.opts.Logger

	switch {
	case b.opts.Backend != nil:
		be := b.opts.Backend
		b.app.newBackend = func() (macro.Backend, error) { return be, nil }
	case b.opts.DryRun || cfg.Backend.Name == config.BackendDryRun:
		out := b.opts.Output
		b.app.newBackend = func() (macro.Backend, error) { return backend.NewDryRun(out, log), nil }
	default:
		b.app.newBackend = func() (macro.Backend, error) {
			return backend.NewXdotool(
				backend.WithXdotoolPath(cfg.Backend.XdotoolPath),
				backend.WithFailSafe(cfg.Backend.FailSafe),
				backend.WithDisplay(cfg.Backend.Display),
				backend.WithXdotoolLogger(log),
			)
		}
	}
	b.initOrder = append(b.initOrder, "backend")
	return nil
}

// cleanup releases initialized components in reverse order.
func (b *bootstrapper) cleanup() {
	for i := len(b.initOrder) - 1; i >= 0; i-- {
		switch b.initOrder[i] {
		case "notifier":
			if b.app.ownNotifier {
				b.app.notifier.Close()
			}
		}
	}
	b.initOrder = b.initOrder[:0]
}
