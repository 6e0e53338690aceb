package key

import (
	"fmt"
	"strings"
)

// Key represents a keyboard key.
// For character keys, use KeyRune and set the Rune field in Stroke.
type Key uint16

const (
	// KeyNone represents no key.
	KeyNone Key = iota

	// Special keys
	KeyEscape
	KeyEnter
	KeyTab
	KeyBackspace
	KeyDelete
	KeyInsert
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown

	// Arrow keys
	KeyUp
	KeyDown
	KeyLeft
	KeyRight

	// Function keys
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12

	// Other special keys
	KeySpace
	KeyPause
	KeyPrintScreen
	KeyScrollLock
	KeyNumLock
	KeyCapsLock
	KeyMenu

	// Modifier keys. Left and right variants collapse to the same Modifier.
	KeyCtrlLeft
	KeyCtrlRight
	KeyShiftLeft
	KeyShiftRight
	KeyAltLeft
	KeyAltRight
	KeyWinLeft
	KeyWinRight

	// KeyRune is used for character keys (letters, numbers, punctuation).
	// The actual character is stored in Stroke.Rune.
	KeyRune
)

// keyNames holds the symbolic name recorded for each special key.
var keyNames = map[Key]string{
	KeyEscape:      "esc",
	KeyEnter:       "enter",
	KeyTab:         "tab",
	KeyBackspace:   "backspace",
	KeyDelete:      "delete",
	KeyInsert:      "insert",
	KeyHome:        "home",
	KeyEnd:         "end",
	KeyPageUp:      "page_up",
	KeyPageDown:    "page_down",
	KeyUp:          "up",
	KeyDown:        "down",
	KeyLeft:        "left",
	KeyRight:       "right",
	KeyF1:          "f1",
	KeyF2:          "f2",
	KeyF3:          "f3",
	KeyF4:          "f4",
	KeyF5:          "f5",
	KeyF6:          "f6",
	KeyF7:          "f7",
	KeyF8:          "f8",
	KeyF9:          "f9",
	KeyF10:         "f10",
	KeyF11:         "f11",
	KeyF12:         "f12",
	KeySpace:       "space",
	KeyPause:       "pause",
	KeyPrintScreen: "print_screen",
	KeyScrollLock:  "scroll_lock",
	KeyNumLock:     "num_lock",
	KeyCapsLock:    "caps_lock",
	KeyMenu:        "menu",
	KeyCtrlLeft:    "ctrl",
	KeyCtrlRight:   "ctrl",
	KeyShiftLeft:   "shift",
	KeyShiftRight:  "shift",
	KeyAltLeft:     "alt",
	KeyAltRight:    "alt",
	KeyWinLeft:     "win",
	KeyWinRight:    "win",
}

// Name returns the symbolic name recorded for the key, e.g. "page_up".
// KeyRune and KeyNone have no symbolic name and return "".
func (k Key) Name() string {
	return keyNames[k]
}

// String returns a human-readable name for the key.
func (k Key) String() string {
	switch k {
	case KeyNone:
		return "None"
	case KeyRune:
		return "Rune"
	}
	if name, ok := keyNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Key(%d)", k)
}

// Modifier returns the modifier this key controls, or ModNone.
func (k Key) Modifier() Modifier {
	switch k {
	case KeyCtrlLeft, KeyCtrlRight:
		return ModCtrl
	case KeyShiftLeft, KeyShiftRight:
		return ModShift
	case KeyAltLeft, KeyAltRight:
		return ModAlt
	case KeyWinLeft, KeyWinRight:
		return ModWin
	default:
		return ModNone
	}
}

// IsModifier returns true if the key is one of the modifier keys.
func (k Key) IsModifier() bool {
	return k.Modifier() != ModNone
}

// IsSpecial returns true if this is a special (non-character) key.
func (k Key) IsSpecial() bool {
	return k != KeyNone && k != KeyRune
}

// IsFunctionKey returns true if this is a function key (F1-F12).
func (k Key) IsFunctionKey() bool {
	return k >= KeyF1 && k <= KeyF12
}

// keyNameMap maps accepted spellings (lowercase) to Key values.
var keyNameMap = map[string]Key{
	"escape":       KeyEscape,
	"esc":          KeyEscape,
	"enter":        KeyEnter,
	"return":       KeyEnter,
	"tab":          KeyTab,
	"backspace":    KeyBackspace,
	"delete":       KeyDelete,
	"del":          KeyDelete,
	"insert":       KeyInsert,
	"home":         KeyHome,
	"end":          KeyEnd,
	"page_up":      KeyPageUp,
	"pageup":       KeyPageUp,
	"pgup":         KeyPageUp,
	"page_down":    KeyPageDown,
	"pagedown":     KeyPageDown,
	"pgdn":         KeyPageDown,
	"up":           KeyUp,
	"down":         KeyDown,
	"left":         KeyLeft,
	"right":        KeyRight,
	"f1":           KeyF1,
	"f2":           KeyF2,
	"f3":           KeyF3,
	"f4":           KeyF4,
	"f5":           KeyF5,
	"f6":           KeyF6,
	"f7":           KeyF7,
	"f8":           KeyF8,
	"f9":           KeyF9,
	"f10":          KeyF10,
	"f11":          KeyF11,
	"f12":          KeyF12,
	"space":        KeySpace,
	"pause":        KeyPause,
	"print_screen": KeyPrintScreen,
	"printscreen":  KeyPrintScreen,
	"scroll_lock":  KeyScrollLock,
	"num_lock":     KeyNumLock,
	"caps_lock":    KeyCapsLock,
	"menu":         KeyMenu,
	"ctrl":         KeyCtrlLeft,
	"ctrl_l":       KeyCtrlLeft,
	"ctrl_r":       KeyCtrlRight,
	"shift":        KeyShiftLeft,
	"shift_l":      KeyShiftLeft,
	"shift_r":      KeyShiftRight,
	"alt":          KeyAltLeft,
	"alt_l":        KeyAltLeft,
	"alt_r":        KeyAltRight,
	"alt_gr":       KeyAltRight,
	"win":          KeyWinLeft,
	"win_l":        KeyWinLeft,
	"win_r":        KeyWinRight,
	"cmd":          KeyWinLeft,
	"cmd_l":        KeyWinLeft,
	"cmd_r":        KeyWinRight,
	"super":        KeyWinLeft,
}

// KeyFromName returns the Key for a given name (case-insensitive).
// A leading "Key." prefix, as written by older recordings, is ignored.
// Returns KeyNone if the name is not recognized.
func KeyFromName(name string) Key {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.TrimPrefix(name, "key.")
	if k, ok := keyNameMap[name]; ok {
		return k
	}
	return KeyNone
}
