package key

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Stroke identifies one physical key as reported by a capture source.
type Stroke struct {
	// Key identifies the key pressed.
	Key Key

	// Rune is the character for KeyRune strokes.
	Rune rune
}

// RuneStroke creates a stroke for a character key.
func RuneStroke(r rune) Stroke {
	return Stroke{Key: KeyRune, Rune: r}
}

// SpecialStroke creates a stroke for a special or modifier key.
func SpecialStroke(k Key) Stroke {
	return Stroke{Key: k}
}

// IsRune returns true if this is a character key stroke.
func (s Stroke) IsRune() bool {
	return s.Key == KeyRune && s.Rune != 0
}

// IsModifier returns true if the stroke is a modifier key.
func (s Stroke) IsModifier() bool {
	return s.Key.IsModifier()
}

// Modifier returns the modifier the stroke controls, or ModNone.
func (s Stroke) Modifier() Modifier {
	return s.Key.Modifier()
}

// BaseName returns the name recorded as base_key for this stroke while the
// given modifiers are held. Control characters are mapped back to letters.
func (s Stroke) BaseName(held Modifier) string {
	if s.Key == KeyRune {
		if s.Rune == 0 || !utf8.ValidRune(s.Rune) {
			return ""
		}
		return string(NormalizeControl(s.Rune, held))
	}
	return s.Key.Name()
}

// Equals returns true if two strokes identify the same key.
func (s Stroke) Equals(other Stroke) bool {
	return s.Key == other.Key && s.Rune == other.Rune
}

// String returns the base name with no modifiers applied.
func (s Stroke) String() string {
	return s.BaseName(ModNone)
}

// NormalizeControl maps an ASCII control code produced by a modifier+letter
// combination back to the lowercase letter, e.g. 0x17 with Ctrl held is 'w'.
// Runes are returned unchanged when no modifier is held or r is printable.
func NormalizeControl(r rune, held Modifier) rune {
	if held == ModNone || r < 1 || r >= 32 {
		return r
	}
	return 'a' + r - 1
}

// StrokeFromName parses a configured key name such as "escape", "f12" or a
// single character.
func StrokeFromName(name string) (Stroke, error) {
	trimmed := strings.TrimSpace(name)
	if utf8.RuneCountInString(trimmed) == 1 {
		r, _ := utf8.DecodeRuneInString(trimmed)
		return RuneStroke(r), nil
	}
	if k := KeyFromName(trimmed); k != KeyNone {
		return SpecialStroke(k), nil
	}
	return Stroke{}, fmt.Errorf("unknown key %q", name)
}
