package app

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/keyloop/internal/config"
	"github.com/dshills/keyloop/internal/input/key"
	"github.com/dshills/keyloop/internal/input/macro"
	"github.com/dshills/keyloop/internal/input/mouse"
	"github.com/dshills/keyloop/internal/notify"
	"github.com/dshills/keyloop/internal/store"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.SequencesDir = t.TempDir()
	cfg.Paths.LogsDir = t.TempDir()
	cfg.Playback.SettleDelay = 0
	return cfg
}

func instant(ctx context.Context, _ time.Duration) error { return ctx.Err() }

// script returns a source that feeds steps to the sink and then idles.
func script(steps ...func(macro.Sink)) macro.Source {
	return macro.SourceFunc(func(ctx context.Context, sink macro.Sink) error {
		for _, step := range steps {
			step(sink)
		}
		<-ctx.Done()
		return ctx.Err()
	})
}

func press(s key.Stroke) func(macro.Sink)   { return func(k macro.Sink) { k.KeyPress(s) } }
func release(s key.Stroke) func(macro.Sink) { return func(k macro.Sink) { k.KeyRelease(s) } }

var (
	ctrl   = key.SpecialStroke(key.KeyCtrlLeft)
	escape = key.SpecialStroke(key.KeyEscape)
)

type collector struct {
	mu      sync.Mutex
	notices []notify.Notice
}

func (c *collector) observe(n notify.Notice) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notices = append(c.notices, n)
}

func (c *collector) all() []notify.Notice {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]notify.Notice(nil), c.notices...)
}

type harness struct {
	app     *Application
	out     *bytes.Buffer
	notices *collector
}

func newHarness(t *testing.T, sources []macro.Source, opts ...func(*Options)) *harness {
	t.Helper()
	h := &harness{out: &bytes.Buffer{}, notices: &collector{}}
	o := Options{
		Config:  testConfig(t),
		Sources: sources,
		DryRun:  true,
		Output:  h.out,
		Sleeper: instant,
	}
	for _, fn := range opts {
		fn(&o)
	}
	a, err := New(o)
	require.NoError(t, err)
	a.Notifier().Subscribe(h.notices.observe)
	t.Cleanup(func() { _ = a.Close() })
	h.app = a
	return h
}

func copySteps() []func(macro.Sink) {
	return []func(macro.Sink){
		press(ctrl),
		press(key.RuneStroke(3)),
		release(key.RuneStroke(3)),
		release(ctrl),
		press(escape),
	}
}

func TestRecord_SavesOnStopKey(t *testing.T) {
	h := newHarness(t, []macro.Source{script(copySteps()...)})

	c, err := h.app.Record(context.Background(), "copy")
	require.NoError(t, err)
	assert.Equal(t, "copy", c.Name())

	seq, err := c.Wait()
	require.NoError(t, err)
	require.Len(t, seq, 4)
	assert.Equal(t, "ctrl+c", seq[1].(macro.KeyDown).Key)

	assert.True(t, h.app.Store().Exists("copy"))
	assert.Equal(t, "copy", h.app.CurrentName())
	assert.False(t, h.app.IsRecording())

	notices := h.notices.all()
	require.Len(t, notices, 1)
	assert.Equal(t, notify.OpCapture, notices[0].Op)
	assert.Equal(t, "copy", notices[0].Name)
	assert.Equal(t, "completed", notices[0].Outcome)
	assert.Equal(t, 4, notices[0].Events)
	assert.Equal(t, h.app.Session().ID(), notices[0].Session)
}

func TestRecord_Unnamed(t *testing.T) {
	h := newHarness(t, []macro.Source{script(
		func(s macro.Sink) { s.MouseMove(1, 2) },
		func(s macro.Sink) { s.MouseButton(1, 2, mouse.ButtonLeft, true) },
	)})

	_, err := h.app.Record(context.Background(), "")
	require.NoError(t, err)

	seq, err := h.app.StopRecording()
	require.NoError(t, err)
	assert.Len(t, seq, 2)

	names, err := h.app.List()
	require.NoError(t, err)
	assert.Empty(t, names)

	current, name := h.app.Session().Current()
	assert.Len(t, current, 2)
	assert.Empty(t, name)
}

func TestRecord_InvalidName(t *testing.T) {
	h := newHarness(t, []macro.Source{script()})
	_, err := h.app.Record(context.Background(), "a/b")
	assert.ErrorIs(t, err, store.ErrInvalidName)
	assert.False(t, h.app.IsRecording())
}

func TestRecord_Twice(t *testing.T) {
	h := newHarness(t, []macro.Source{script()})
	_, err := h.app.Record(context.Background(), "")
	require.NoError(t, err)

	_, err = h.app.Record(context.Background(), "")
	assert.ErrorIs(t, err, ErrBusy)

	_, err = h.app.StopRecording()
	require.NoError(t, err)

	_, err = h.app.Record(context.Background(), "")
	assert.NoError(t, err)
}

func TestStopRecording_NotRecording(t *testing.T) {
	h := newHarness(t, nil)
	_, err := h.app.StopRecording()
	assert.ErrorIs(t, err, ErrNotRecording)
}

func TestRecord_SourceError(t *testing.T) {
	boom := errors.New("device gone")
	h := newHarness(t, []macro.Source{macro.SourceFunc(func(context.Context, macro.Sink) error {
		return boom
	})})

	c, err := h.app.Record(context.Background(), "broken")
	require.NoError(t, err)

	_, err = c.Wait()
	assert.ErrorIs(t, err, boom)
	assert.False(t, h.app.Store().Exists("broken"), "failed captures are not saved")

	notices := h.notices.all()
	require.Len(t, notices, 1)
	assert.Equal(t, "failed", notices[0].Outcome)
}

func TestPlay_Named(t *testing.T) {
	h := newHarness(t, nil)
	seq := macro.Sequence{
		macro.KeyDown{Timestamp: 0, Key: "ctrl", Modifiers: key.ModCtrl, BaseKey: "ctrl"},
		macro.KeyDown{Timestamp: 0.1, Key: "ctrl+c", Modifiers: key.ModCtrl, BaseKey: "c"},
		macro.KeyUp{Timestamp: 0.2, Key: "ctrl+c", Modifiers: key.ModCtrl, BaseKey: "c"},
		macro.KeyUp{Timestamp: 0.3, Key: "ctrl", Modifiers: key.ModCtrl, BaseKey: "ctrl"},
	}
	require.NoError(t, h.app.Store().Save("copy", seq))

	res, err := h.app.Play(context.Background(), "copy", h.app.PlayOptions())
	require.NoError(t, err)
	assert.Equal(t, macro.OutcomeCompleted, res.Outcome)
	assert.Equal(t, 1, res.Passes)

	assert.Equal(t, "keydown \"ctrl\"\nkeydown \"c\"\nkeyup \"c\"\nkeyup \"ctrl\"\n", h.out.String())
	assert.Equal(t, "copy", h.app.CurrentName(), "played sequence becomes current")

	notices := h.notices.all()
	require.Len(t, notices, 1)
	assert.Equal(t, notify.OpPlayback, notices[0].Op)
	assert.Equal(t, "completed", notices[0].Outcome)
	assert.Equal(t, 1, notices[0].Passes)
}

func TestPlay_CurrentAfterRecording(t *testing.T) {
	h := newHarness(t, []macro.Source{script(
		func(s macro.Sink) { s.MouseMove(5, 6) },
		press(escape),
	)})

	c, err := h.app.Record(context.Background(), "")
	require.NoError(t, err)
	_, err = c.Wait()
	require.NoError(t, err)

	opts := h.app.PlayOptions()
	opts.Looping = true
	opts.MaxLoopCount = 3
	res, err := h.app.Play(context.Background(), "", opts)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Passes)
	assert.Equal(t, 3, h.app.Session().Loops())
	assert.Equal(t, "move (5, 6)\nmove (5, 6)\nmove (5, 6)\n", h.out.String())
}

func TestPlay_NothingToPlay(t *testing.T) {
	h := newHarness(t, nil)
	_, err := h.app.Play(context.Background(), "", macro.DefaultPlayOptions())
	assert.ErrorIs(t, err, ErrNothingToPlay)

	_, err = h.app.Play(context.Background(), "missing", macro.DefaultPlayOptions())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestPlay_EmptyCaptureCompletes(t *testing.T) {
	h := newHarness(t, []macro.Source{script(press(escape))})

	c, err := h.app.Record(context.Background(), "")
	require.NoError(t, err)
	seq, err := c.Wait()
	require.NoError(t, err)
	require.Empty(t, seq)

	res, err := h.app.Play(context.Background(), "", h.app.PlayOptions())
	require.NoError(t, err)
	assert.Equal(t, macro.OutcomeCompleted, res.Outcome)
	assert.Equal(t, 0, res.Dispatched)
	assert.Empty(t, h.out.String())

	notices := h.notices.all()
	require.Len(t, notices, 2)
	assert.Equal(t, notify.OpPlayback, notices[1].Op)
	assert.Equal(t, "completed", notices[1].Outcome)

	require.NoError(t, h.app.Clear())
	_, err = h.app.Play(context.Background(), "", h.app.PlayOptions())
	assert.ErrorIs(t, err, ErrNothingToPlay)
}

func TestGate_RecordWhilePlaying(t *testing.T) {
	started := make(chan struct{})
	releaseCh := make(chan struct{})
	var once sync.Once
	blocking := func(ctx context.Context, _ time.Duration) error {
		once.Do(func() { close(started) })
		select {
		case <-releaseCh:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	h := newHarness(t, []macro.Source{script()}, func(o *Options) { o.Sleeper = blocking })
	seq := macro.Sequence{
		macro.MouseMove{Timestamp: 0, X: 1, Y: 1},
		macro.MouseMove{Timestamp: 1, X: 2, Y: 2},
	}
	require.NoError(t, h.app.Store().Save("moves", seq))

	finished := make(chan macro.Result, 1)
	require.NoError(t, h.app.PlayAsync(context.Background(), "moves", h.app.PlayOptions(), func(r macro.Result) {
		finished <- r
	}))
	<-started

	_, err := h.app.Record(context.Background(), "")
	assert.ErrorIs(t, err, ErrBusy)
	assert.ErrorIs(t, h.app.Clear(), ErrBusy)
	assert.ErrorIs(t, h.app.PlayAsync(context.Background(), "moves", h.app.PlayOptions(), nil), ErrBusy)

	h.app.StopPlayback()
	select {
	case res := <-finished:
		assert.Equal(t, macro.OutcomeCancelled, res.Outcome)
	case <-time.After(2 * time.Second):
		t.Fatal("playback did not stop")
	}

	_, err = h.app.Record(context.Background(), "")
	assert.NoError(t, err)
}

func TestGate_PlayWhileRecording(t *testing.T) {
	h := newHarness(t, []macro.Source{script()})
	require.NoError(t, h.app.Store().Save("x", macro.Sequence{macro.MouseMove{X: 1, Y: 1}}))

	_, err := h.app.Record(context.Background(), "")
	require.NoError(t, err)

	_, err = h.app.Play(context.Background(), "x", macro.DefaultPlayOptions())
	assert.ErrorIs(t, err, ErrBusy)
	assert.ErrorIs(t, h.app.Save("y"), ErrBusy)

	h.app.Stop()
	assert.False(t, h.app.IsRecording())

	_, err = h.app.Play(context.Background(), "x", h.app.PlayOptions())
	assert.NoError(t, err)
}

func TestSequenceManagement(t *testing.T) {
	h := newHarness(t, nil)
	seq := macro.Sequence{macro.MouseMove{X: 1, Y: 1}, macro.MouseMove{Timestamp: 0.5, X: 2, Y: 2}}
	require.NoError(t, h.app.Store().Save("a", seq))

	_, err := h.app.Load("a")
	require.NoError(t, err)
	assert.Equal(t, "a", h.app.CurrentName())

	require.NoError(t, h.app.Rename("a", "b"))
	assert.Equal(t, "b", h.app.CurrentName())

	require.NoError(t, h.app.UpdateEvent("b", 1, "x", "9"))
	current, _ := h.app.Session().Current()
	assert.Equal(t, 9, current[1].(macro.MouseMove).X)

	require.NoError(t, h.app.RemoveEvent("b", 0))
	current, _ = h.app.Session().Current()
	assert.Len(t, current, 1)

	require.NoError(t, h.app.Save("c"))
	assert.Equal(t, "c", h.app.CurrentName())

	info, err := h.app.Info("c")
	require.NoError(t, err)
	assert.Equal(t, 1, info.Events)

	require.NoError(t, h.app.Delete("c"))
	current, name := h.app.Session().Current()
	assert.Empty(t, current, "deleting the current sequence clears it")
	assert.Empty(t, name)

	// Deleting another sequence leaves the current one alone.
	_, err = h.app.Load("b")
	require.NoError(t, err)
	require.NoError(t, h.app.Store().Save("other", seq))
	require.NoError(t, h.app.Delete("other"))
	assert.Equal(t, "b", h.app.CurrentName())

	assert.ErrorIs(t, h.app.Delete("missing"), store.ErrNotFound)

	all, err := h.app.LoadAll()
	require.NoError(t, err)
	assert.Contains(t, all, "b")

	require.NoError(t, h.app.Clear())
	assert.Empty(t, h.app.CurrentName())
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Playback.Speed = 0
	_, err := New(Options{Config: cfg})

	var initErr *InitError
	require.ErrorAs(t, err, &initErr)
	assert.Equal(t, "config", initErr.Component)
	assert.ErrorIs(t, err, config.ErrValidationFailed)
}

func TestBackendOpenedOnFirstPlay(t *testing.T) {
	h := newHarness(t, nil, func(o *Options) {
		o.DryRun = false
		o.Config.Backend.Name = config.BackendXdotool
		o.Config.Backend.XdotoolPath = "/nonexistent/xdotool-binary"
	})
	require.NoError(t, h.app.Store().Save("x", macro.Sequence{macro.MouseMove{X: 1, Y: 1}}))

	names, err := h.app.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, names)

	_, err = h.app.Play(context.Background(), "x", macro.DefaultPlayOptions())
	var opErr *store.OperationError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, "play", opErr.Op)
}

func TestClose(t *testing.T) {
	h := newHarness(t, []macro.Source{script()})
	require.NoError(t, h.app.Close())
	require.NoError(t, h.app.Close())

	_, err := h.app.Record(context.Background(), "")
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, h.app.PlayAsync(context.Background(), "", macro.DefaultPlayOptions(), nil), ErrClosed)
}

func TestWatch(t *testing.T) {
	h := newHarness(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	changes := make(chan store.Change, 4)
	done := make(chan error, 1)
	go func() {
		done <- h.app.Watch(ctx, func(c store.Change) {
			select {
			case changes <- c:
			default:
			}
		})
	}()

	// Give the watcher time to register the directory.
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, h.app.Store().Save("w", macro.Sequence{}))

	select {
	case c := <-changes:
		assert.Equal(t, "w", c.Name)
	case <-time.After(2 * time.Second):
		t.Fatal("no change reported")
	}

	cancel()
	assert.NoError(t, <-done)
}
