package backend

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/keyloop/internal/input/key"
	"github.com/dshills/keyloop/internal/input/mouse"
)

// recordingSink collects sink calls as strings.
type recordingSink struct {
	mu    sync.Mutex
	calls []string
}

func (s *recordingSink) add(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, fmt.Sprintf(format, args...))
}

func (s *recordingSink) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func (s *recordingSink) MouseMove(x, y int) { s.add("move %d,%d", x, y) }

func (s *recordingSink) MouseButton(x, y int, b mouse.Button, pressed bool) {
	if pressed {
		s.add("down %s %d,%d", b, x, y)
	} else {
		s.add("up %s %d,%d", b, x, y)
	}
}

func (s *recordingSink) KeyPress(k key.Stroke)   { s.add("press %s", k.BaseName(key.ModCtrl)) }
func (s *recordingSink) KeyRelease(k key.Stroke) { s.add("release %s", k.BaseName(key.ModCtrl)) }

func TestConvertKey(t *testing.T) {
	tests := []struct {
		name   string
		ev     *tcell.EventKey
		stroke key.Stroke
		mods   key.Modifier
	}{
		{"rune", tcell.NewEventKey(tcell.KeyRune, 'a', tcell.ModNone), key.RuneStroke('a'), key.ModNone},
		{"space", tcell.NewEventKey(tcell.KeyRune, ' ', tcell.ModNone), key.SpecialStroke(key.KeySpace), key.ModNone},
		{"escape", tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone), key.SpecialStroke(key.KeyEscape), key.ModNone},
		{"page down", tcell.NewEventKey(tcell.KeyPgDn, 0, tcell.ModNone), key.SpecialStroke(key.KeyPageDown), key.ModNone},
		{"f5 with alt", tcell.NewEventKey(tcell.KeyF5, 0, tcell.ModAlt), key.SpecialStroke(key.KeyF5), key.ModAlt},
		{"backtab", tcell.NewEventKey(tcell.KeyBacktab, 0, tcell.ModNone), key.SpecialStroke(key.KeyTab), key.ModShift},
		{"ctrl c", tcell.NewEventKey(tcell.KeyCtrlC, 0, tcell.ModCtrl), key.RuneStroke(3), key.ModCtrl},
		{"meta is win", tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModMeta), key.RuneStroke('x'), key.ModWin},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stroke, mods, ok := convertKey(tt.ev)
			require.True(t, ok)
			assert.Equal(t, tt.stroke, stroke)
			assert.Equal(t, tt.mods, mods)
		})
	}

	_, _, ok := convertKey(tcell.NewEventKey(tcell.KeyF40, 0, tcell.ModNone))
	assert.False(t, ok)
}

func TestHandleEvent_Keystroke(t *testing.T) {
	src := NewTerminalSource()
	sink := &recordingSink{}

	src.handleEvent(tcell.NewEventKey(tcell.KeyCtrlC, 0, tcell.ModCtrl), sink)

	assert.Equal(t, []string{
		"press ctrl",
		"press c",
		"release c",
		"release ctrl",
	}, sink.Calls())
}

func TestHandleEvent_ModifiersReleasedInReverse(t *testing.T) {
	src := NewTerminalSource()
	sink := &recordingSink{}

	src.handleEvent(tcell.NewEventKey(tcell.KeyRight, 0, tcell.ModCtrl|tcell.ModShift), sink)

	assert.Equal(t, []string{
		"press ctrl",
		"press shift",
		"press right",
		"release right",
		"release shift",
		"release ctrl",
	}, sink.Calls())
}

func TestHandleEvent_Mouse(t *testing.T) {
	src := NewTerminalSource()
	sink := &recordingSink{}

	src.handleEvent(tcell.NewEventMouse(3, 4, tcell.ButtonNone, tcell.ModNone), sink)
	src.handleEvent(tcell.NewEventMouse(3, 4, tcell.ButtonPrimary, tcell.ModNone), sink)
	src.handleEvent(tcell.NewEventMouse(5, 4, tcell.ButtonPrimary, tcell.ModNone), sink)
	src.handleEvent(tcell.NewEventMouse(5, 4, tcell.ButtonNone, tcell.ModNone), sink)
	src.handleEvent(tcell.NewEventMouse(5, 4, tcell.ButtonSecondary, tcell.ModNone), sink)

	assert.Equal(t, []string{
		"move 3,4",
		"down left 3,4",
		"move 5,4",
		"up left 5,4",
		"down right 5,4",
	}, sink.Calls())
}

func TestHandleEvent_WheelIgnored(t *testing.T) {
	src := NewTerminalSource()
	sink := &recordingSink{}

	src.handleEvent(tcell.NewEventMouse(1, 1, tcell.ButtonNone, tcell.ModNone), sink)
	src.handleEvent(tcell.NewEventMouse(1, 1, tcell.WheelUp, tcell.ModNone), sink)

	assert.Equal(t, []string{"move 1,1"}, sink.Calls())
}

func TestListen_StopsOnCancel(t *testing.T) {
	screen := tcell.NewSimulationScreen("UTF-8")
	src := NewTerminalSource(WithScreen(screen), WithMouse(false), WithBanner("hi"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- src.Listen(ctx, &recordingSink{}) }()

	require.Eventually(t, func() bool {
		r, _, _, _ := screen.GetContent(0, 0)
		return r == 'h'
	}, 2*time.Second, 10*time.Millisecond, "banner drawn")
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Listen did not return after cancel")
	}
}

func TestHotkeySink(t *testing.T) {
	fired := 0
	h := HotkeySink{Key: key.SpecialStroke(key.KeyF12), Fire: func() { fired++ }}

	h.KeyPress(key.RuneStroke('a'))
	h.KeyRelease(key.SpecialStroke(key.KeyF12))
	h.MouseMove(1, 2)
	assert.Equal(t, 0, fired)

	h.KeyPress(key.SpecialStroke(key.KeyF12))
	assert.Equal(t, 1, fired)

	// A nil Fire is ignored.
	HotkeySink{Key: key.SpecialStroke(key.KeyF12)}.KeyPress(key.SpecialStroke(key.KeyF12))
}
