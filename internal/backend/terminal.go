// Package backend connects the macro engine to real input devices.
//
// TerminalSource captures keys and mouse input from the controlling terminal
// with tcell. Xdotool replays sequences on an X11 display. DryRun replays
// nowhere and only logs what it would do.
package backend

import (
	"context"
	"fmt"
	"sync"
	"unicode"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/keyloop/internal/input/key"
	"github.com/dshills/keyloop/internal/input/macro"
	"github.com/dshills/keyloop/internal/input/mouse"
	"github.com/dshills/keyloop/internal/logging"
)

// TerminalOption configures a TerminalSource.
type TerminalOption func(*TerminalSource)

// WithScreen uses screen instead of opening the controlling terminal.
func WithScreen(screen tcell.Screen) TerminalOption {
	return func(t *TerminalSource) { t.screen = screen }
}

// WithMouse enables or disables mouse reporting.
func WithMouse(enabled bool) TerminalOption {
	return func(t *TerminalSource) { t.mouse = enabled }
}

// WithBanner draws lines at the top of the screen while listening.
func WithBanner(lines ...string) TerminalOption {
	return func(t *TerminalSource) { t.banner = lines }
}

// WithTerminalLogger sets the source logger.
func WithTerminalLogger(l *logging.Logger) TerminalOption {
	return func(t *TerminalSource) { t.logger = logging.Default(l).WithComponent("terminal") }
}

// TerminalSource reports terminal input to a macro.Sink.
//
// Terminals report whole keystrokes rather than transitions, so each
// keystroke is expanded into modifier presses, a press and release of the
// key, and modifier releases in reverse order.
type TerminalSource struct {
	screen tcell.Screen
	mouse  bool
	banner []string
	logger *logging.Logger

	mu      sync.Mutex
	buttons tcell.ButtonMask
	lastX   int
	lastY   int
	moved   bool
}

// NewTerminalSource creates a terminal capture source.
func NewTerminalSource(opts ...TerminalOption) *TerminalSource {
	t := &TerminalSource{
		mouse:  true,
		logger: logging.NullLogger,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Listen takes over the terminal until ctx is cancelled.
func (t *TerminalSource) Listen(ctx context.Context, sink macro.Sink) error {
	screen := t.screen
	if screen == nil {
		s, err := tcell.NewScreen()
		if err != nil {
			return fmt.Errorf("failed to open terminal: %w", err)
		}
		screen = s
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("failed to initialize terminal: %w", err)
	}
	defer screen.Fini()

	if t.mouse {
		screen.EnableMouse(tcell.MouseMotionEvents)
	}
	t.drawBanner(screen)

	t.mu.Lock()
	t.buttons = 0
	t.moved = false
	t.mu.Unlock()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			// Wake PollEvent.
			_ = screen.PostEvent(tcell.NewEventInterrupt(nil))
		case <-stop:
		}
	}()

	t.logger.Debug("listening (mouse=%v)", t.mouse)
	for {
		ev := screen.PollEvent()
		if ev == nil || ctx.Err() != nil {
			return nil
		}
		t.handleEvent(ev, sink)
	}
}

func (t *TerminalSource) drawBanner(screen tcell.Screen) {
	if len(t.banner) == 0 {
		return
	}
	screen.Clear()
	for y, line := range t.banner {
		x := 0
		for _, r := range line {
			screen.SetContent(x, y, r, nil, tcell.StyleDefault)
			x++
		}
	}
	screen.Show()
}

func (t *TerminalSource) handleEvent(ev tcell.Event, sink macro.Sink) {
	switch e := ev.(type) {
	case *tcell.EventKey:
		stroke, mods, ok := convertKey(e)
		if !ok {
			t.logger.Debug("ignoring key %v", e.Name())
			return
		}
		emitKeystroke(sink, stroke, mods)
	case *tcell.EventMouse:
		t.handleMouse(e, sink)
	}
}

// emitKeystroke reports one keystroke as a series of transitions.
func emitKeystroke(sink macro.Sink, stroke key.Stroke, mods key.Modifier) {
	modKeys := modifierKeys(mods)
	for _, k := range modKeys {
		sink.KeyPress(key.SpecialStroke(k))
	}
	sink.KeyPress(stroke)
	sink.KeyRelease(stroke)
	for i := len(modKeys) - 1; i >= 0; i-- {
		sink.KeyRelease(key.SpecialStroke(modKeys[i]))
	}
}

func modifierKeys(mods key.Modifier) []key.Key {
	var keys []key.Key
	if mods.Has(key.ModCtrl) {
		keys = append(keys, key.KeyCtrlLeft)
	}
	if mods.Has(key.ModShift) {
		keys = append(keys, key.KeyShiftLeft)
	}
	if mods.Has(key.ModAlt) {
		keys = append(keys, key.KeyAltLeft)
	}
	if mods.Has(key.ModWin) {
		keys = append(keys, key.KeyWinLeft)
	}
	return keys
}

func (t *TerminalSource) handleMouse(e *tcell.EventMouse, sink macro.Sink) {
	x, y := e.Position()
	now := e.Buttons() & (tcell.ButtonPrimary | tcell.ButtonSecondary | tcell.ButtonMiddle)

	t.mu.Lock()
	before := t.buttons
	t.buttons = now
	moved := !t.moved || x != t.lastX || y != t.lastY
	t.lastX, t.lastY, t.moved = x, y, true
	t.mu.Unlock()

	if moved {
		sink.MouseMove(x, y)
	}
	for _, b := range []struct {
		mask   tcell.ButtonMask
		button mouse.Button
	}{
		{tcell.ButtonPrimary, mouse.ButtonLeft},
		{tcell.ButtonSecondary, mouse.ButtonRight},
		{tcell.ButtonMiddle, mouse.ButtonMiddle},
	} {
		wasDown, isDown := before&b.mask != 0, now&b.mask != 0
		if isDown != wasDown {
			sink.MouseButton(x, y, b.button, isDown)
		}
	}
}

// specialKeys maps tcell keys to key identities.
var specialKeys = map[tcell.Key]key.Key{
	tcell.KeyEscape:     key.KeyEscape,
	tcell.KeyEnter:      key.KeyEnter,
	tcell.KeyTab:        key.KeyTab,
	tcell.KeyBacktab:    key.KeyTab,
	tcell.KeyBackspace:  key.KeyBackspace,
	tcell.KeyBackspace2: key.KeyBackspace,
	tcell.KeyDelete:     key.KeyDelete,
	tcell.KeyInsert:     key.KeyInsert,
	tcell.KeyHome:       key.KeyHome,
	tcell.KeyEnd:        key.KeyEnd,
	tcell.KeyPgUp:       key.KeyPageUp,
	tcell.KeyPgDn:       key.KeyPageDown,
	tcell.KeyUp:         key.KeyUp,
	tcell.KeyDown:       key.KeyDown,
	tcell.KeyLeft:       key.KeyLeft,
	tcell.KeyRight:      key.KeyRight,
	tcell.KeyF1:         key.KeyF1,
	tcell.KeyF2:         key.KeyF2,
	tcell.KeyF3:         key.KeyF3,
	tcell.KeyF4:         key.KeyF4,
	tcell.KeyF5:         key.KeyF5,
	tcell.KeyF6:         key.KeyF6,
	tcell.KeyF7:         key.KeyF7,
	tcell.KeyF8:         key.KeyF8,
	tcell.KeyF9:         key.KeyF9,
	tcell.KeyF10:        key.KeyF10,
	tcell.KeyF11:        key.KeyF11,
	tcell.KeyF12:        key.KeyF12,
	tcell.KeyPause:      key.KeyPause,
	tcell.KeyPrint:      key.KeyPrintScreen,
}

// convertKey returns the stroke and modifiers of a terminal keystroke.
func convertKey(e *tcell.EventKey) (key.Stroke, key.Modifier, bool) {
	mods := convertMod(e.Modifiers())
	k := e.Key()

	if k == tcell.KeyBacktab {
		mods = mods.With(key.ModShift)
	}
	if sk, ok := specialKeys[k]; ok {
		return key.SpecialStroke(sk), mods, true
	}

	switch {
	case k == tcell.KeyRune:
		r := e.Rune()
		if r == ' ' {
			return key.SpecialStroke(key.KeySpace), mods, true
		}
		if mods.Has(key.ModCtrl) && !mods.Has(key.ModShift) {
			r = unicode.ToLower(r)
		}
		return key.RuneStroke(r), mods, true
	case k == tcell.KeyCtrlSpace:
		return key.SpecialStroke(key.KeySpace), mods.With(key.ModCtrl), true
	case k >= tcell.KeyCtrlA && k <= tcell.KeyCtrlZ:
		// Reported as the control code; the recorder maps it back to the letter.
		return key.RuneStroke(rune(k)), mods.With(key.ModCtrl), true
	}
	return key.Stroke{}, key.ModNone, false
}

func convertMod(m tcell.ModMask) key.Modifier {
	var result key.Modifier
	if m&tcell.ModCtrl != 0 {
		result = result.With(key.ModCtrl)
	}
	if m&tcell.ModShift != 0 {
		result = result.With(key.ModShift)
	}
	if m&tcell.ModAlt != 0 {
		result = result.With(key.ModAlt)
	}
	if m&tcell.ModMeta != 0 {
		result = result.With(key.ModWin)
	}
	return result
}
