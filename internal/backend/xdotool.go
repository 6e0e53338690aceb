package backend

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dshills/keyloop/internal/input/macro"
	"github.com/dshills/keyloop/internal/input/mouse"
	"github.com/dshills/keyloop/internal/logging"
)

// Runner executes a command and returns its combined output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// XdotoolOption configures an Xdotool backend.
type XdotoolOption func(*Xdotool)

// WithXdotoolPath sets the xdotool binary.
func WithXdotoolPath(path string) XdotoolOption {
	return func(x *Xdotool) {
		if path != "" {
			x.path = path
		}
	}
}

// WithRunner replaces command execution.
func WithRunner(run Runner) XdotoolOption {
	return func(x *Xdotool) { x.run = run }
}

// WithFailSafe aborts playback when the pointer sits at the screen origin.
func WithFailSafe(enabled bool) XdotoolOption {
	return func(x *Xdotool) { x.failSafe = enabled }
}

// WithDisplay sets DISPLAY for xdotool.
func WithDisplay(display string) XdotoolOption {
	return func(x *Xdotool) { x.display = display }
}

// WithXdotoolLogger sets the backend logger.
func WithXdotoolLogger(l *logging.Logger) XdotoolOption {
	return func(x *Xdotool) { x.logger = logging.Default(l).WithComponent("xdotool") }
}

// Xdotool replays input on an X11 display through the xdotool command.
type Xdotool struct {
	path     string
	run      Runner
	failSafe bool
	display  string
	logger   *logging.Logger
}

// NewXdotool creates the backend. Without a custom runner the xdotool
// binary must be on PATH.
func NewXdotool(opts ...XdotoolOption) (*Xdotool, error) {
	x := &Xdotool{
		path:     "xdotool",
		failSafe: true,
		logger:   logging.NullLogger,
	}
	for _, opt := range opts {
		opt(x)
	}
	if x.run == nil {
		if _, err := exec.LookPath(x.path); err != nil {
			return nil, fmt.Errorf("xdotool not found (install it with your package manager): %w", err)
		}
		x.run = x.execRunner
	}
	return x, nil
}

func (x *Xdotool) execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if x.display != "" {
		cmd.Env = append(os.Environ(), "DISPLAY="+x.display)
	}
	return cmd.CombinedOutput()
}

func (x *Xdotool) exec(ctx context.Context, args ...string) ([]byte, error) {
	out, err := x.run(ctx, x.path, args...)
	if err != nil {
		msg := strings.TrimSpace(string(out))
		if msg != "" {
			return out, fmt.Errorf("xdotool %s: %w: %s", args[0], err, msg)
		}
		return out, fmt.Errorf("xdotool %s: %w", args[0], err)
	}
	return out, nil
}

// checkFailSafe reports macro.ErrFailSafe when the pointer is at (0, 0).
func (x *Xdotool) checkFailSafe(ctx context.Context) error {
	if !x.failSafe {
		return nil
	}
	out, err := x.exec(ctx, "getmouselocation", "--shell")
	if err != nil {
		return err
	}
	pos, err := parseMouseLocation(out)
	if err != nil {
		return err
	}
	if pos.IsOrigin() {
		return macro.ErrFailSafe
	}
	return nil
}

// parseMouseLocation reads the X= and Y= lines of getmouselocation --shell.
func parseMouseLocation(out []byte) (mouse.Position, error) {
	var pos mouse.Position
	var haveX, haveY bool
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		k, v, ok := strings.Cut(strings.TrimSpace(sc.Text()), "=")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			continue
		}
		switch k {
		case "X":
			pos.X, haveX = n, true
		case "Y":
			pos.Y, haveY = n, true
		}
	}
	if !haveX || !haveY {
		return pos, fmt.Errorf("unexpected getmouselocation output %q", strings.TrimSpace(string(out)))
	}
	return pos, nil
}

// MoveTo moves the pointer.
func (x *Xdotool) MoveTo(ctx context.Context, px, py int) error {
	if err := x.checkFailSafe(ctx); err != nil {
		return err
	}
	_, err := x.exec(ctx, "mousemove", strconv.Itoa(px), strconv.Itoa(py))
	return err
}

// MouseDown moves to the position and presses the button.
func (x *Xdotool) MouseDown(ctx context.Context, px, py int, b mouse.Button) error {
	return x.click(ctx, "mousedown", px, py, b)
}

// MouseUp moves to the position and releases the button.
func (x *Xdotool) MouseUp(ctx context.Context, px, py int, b mouse.Button) error {
	return x.click(ctx, "mouseup", px, py, b)
}

func (x *Xdotool) click(ctx context.Context, action string, px, py int, b mouse.Button) error {
	num, err := buttonNumber(b)
	if err != nil {
		return err
	}
	if err := x.checkFailSafe(ctx); err != nil {
		return err
	}
	_, err = x.exec(ctx, "mousemove", strconv.Itoa(px), strconv.Itoa(py), action, num)
	return err
}

func buttonNumber(b mouse.Button) (string, error) {
	switch b {
	case mouse.ButtonLeft:
		return "1", nil
	case mouse.ButtonMiddle:
		return "2", nil
	case mouse.ButtonRight:
		return "3", nil
	default:
		return "", fmt.Errorf("cannot press mouse button %s", b)
	}
}

// KeyDown presses a key by canonical name.
func (x *Xdotool) KeyDown(ctx context.Context, name string) error {
	return x.key(ctx, "keydown", name)
}

// KeyUp releases a key by canonical name.
func (x *Xdotool) KeyUp(ctx context.Context, name string) error {
	return x.key(ctx, "keyup", name)
}

func (x *Xdotool) key(ctx context.Context, action, name string) error {
	sym, err := Keysym(name)
	if err != nil {
		return err
	}
	if err := x.checkFailSafe(ctx); err != nil {
		return err
	}
	x.logger.Debug("%s %s", action, sym)
	_, err = x.exec(ctx, action, "--", sym)
	return err
}

// keysyms maps canonical key names to X keysym names.
var keysyms = map[string]string{
	"esc":          "Escape",
	"enter":        "Return",
	"tab":          "Tab",
	"backspace":    "BackSpace",
	"delete":       "Delete",
	"insert":       "Insert",
	"home":         "Home",
	"end":          "End",
	"page_up":      "Page_Up",
	"page_down":    "Page_Down",
	"up":           "Up",
	"down":         "Down",
	"left":         "Left",
	"right":        "Right",
	"space":        "space",
	"pause":        "Pause",
	"print_screen": "Print",
	"scroll_lock":  "Scroll_Lock",
	"num_lock":     "Num_Lock",
	"caps_lock":    "Caps_Lock",
	"menu":         "Menu",
	"ctrl":         "Control_L",
	"shift":        "Shift_L",
	"alt":          "Alt_L",
	"win":          "Super_L",
	"f1":           "F1",
	"f2":           "F2",
	"f3":           "F3",
	"f4":           "F4",
	"f5":           "F5",
	"f6":           "F6",
	"f7":           "F7",
	"f8":           "F8",
	"f9":           "F9",
	"f10":          "F10",
	"f11":          "F11",
	"f12":          "F12",
}

// punctuation maps characters to keysyms xdotool cannot take literally.
var punctuation = map[string]string{
	" ":  "space",
	"+":  "plus",
	"-":  "minus",
	"=":  "equal",
	",":  "comma",
	".":  "period",
	"/":  "slash",
	"\\": "backslash",
	";":  "semicolon",
	"'":  "apostrophe",
	"`":  "grave",
	"[":  "bracketleft",
	"]":  "bracketright",
	"!":  "exclam",
	"@":  "at",
	"#":  "numbersign",
	"$":  "dollar",
	"%":  "percent",
	"^":  "asciicircum",
	"&":  "ampersand",
	"*":  "asterisk",
	"(":  "parenleft",
	")":  "parenright",
	"_":  "underscore",
	"{":  "braceleft",
	"}":  "braceright",
	"|":  "bar",
	":":  "colon",
	"\"": "quotedbl",
	"<":  "less",
	">":  "greater",
	"?":  "question",
	"~":  "asciitilde",
	"\t": "Tab",
	"\n": "Return",
	"\r": "Return",
}

// Keysym returns the X keysym for a canonical key name. ASCII letters and
// digits are their own keysym names; any other single character uses the
// Unicode form (U00E9), since xdotool ignores names it cannot resolve.
func Keysym(name string) (string, error) {
	if sym, ok := keysyms[name]; ok {
		return sym, nil
	}
	if sym, ok := punctuation[name]; ok {
		return sym, nil
	}
	r, size := utf8.DecodeRuneInString(name)
	if size == 0 || size != len(name) || r == utf8.RuneError {
		return "", fmt.Errorf("%w: no keysym for %q", macro.ErrUnmappedKey, name)
	}
	if r < utf8.RuneSelf && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
		return name, nil
	}
	return fmt.Sprintf("U%04X", r), nil
}
