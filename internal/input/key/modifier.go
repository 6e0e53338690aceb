package key

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Modifier represents a set of keyboard modifier keys.
type Modifier uint8

const (
	// ModNone indicates no modifiers.
	ModNone Modifier = 0

	// ModCtrl indicates the Control key.
	ModCtrl Modifier = 1 << (iota - 1)

	// ModShift indicates the Shift key.
	ModShift

	// ModAlt indicates the Alt key (Option on macOS).
	ModAlt

	// ModWin indicates the Windows key (Cmd on macOS, Super on Linux).
	ModWin
)

// canonicalOrder is the order modifiers are listed and joined in.
var canonicalOrder = [...]Modifier{ModCtrl, ModShift, ModAlt, ModWin}

// AllModifiers returns the four modifiers in canonical order.
func AllModifiers() []Modifier {
	return canonicalOrder[:]
}

// Has returns true if m contains the specified modifier.
func (m Modifier) Has(mod Modifier) bool {
	return m&mod != 0
}

// With returns a new Modifier with the specified modifier added.
func (m Modifier) With(mod Modifier) Modifier {
	return m | mod
}

// Without returns a new Modifier with the specified modifier removed.
func (m Modifier) Without(mod Modifier) Modifier {
	return m &^ mod
}

// IsEmpty returns true if no modifiers are set.
func (m Modifier) IsEmpty() bool {
	return m == ModNone
}

// Count returns the number of modifiers in the set.
func (m Modifier) Count() int {
	n := 0
	for _, mod := range canonicalOrder {
		if m.Has(mod) {
			n++
		}
	}
	return n
}

// Name returns the lowercase name of a single modifier.
// Returns "" for ModNone or a combination.
func (m Modifier) Name() string {
	switch m {
	case ModCtrl:
		return "ctrl"
	case ModShift:
		return "shift"
	case ModAlt:
		return "alt"
	case ModWin:
		return "win"
	default:
		return ""
	}
}

// Names returns the modifier names in canonical order.
// The result is never nil.
func (m Modifier) Names() []string {
	names := make([]string, 0, 4)
	for _, mod := range canonicalOrder {
		if m.Has(mod) {
			names = append(names, mod.Name())
		}
	}
	return names
}

// String returns the names joined with "+", e.g. "ctrl+shift".
func (m Modifier) String() string {
	return strings.Join(m.Names(), "+")
}

// Combo builds a combination string such as "ctrl+shift+s".
// With no modifiers the base is returned unchanged.
func (m Modifier) Combo(base string) string {
	if m == ModNone {
		return base
	}
	return m.String() + "+" + base
}

// modifierNameMap maps modifier names (lowercase) to Modifier values.
var modifierNameMap = map[string]Modifier{
	"ctrl":    ModCtrl,
	"control": ModCtrl,
	"shift":   ModShift,
	"alt":     ModAlt,
	"option":  ModAlt,
	"opt":     ModAlt,
	"win":     ModWin,
	"cmd":     ModWin,
	"command": ModWin,
	"meta":    ModWin,
	"super":   ModWin,
}

// ModifierFromName returns the Modifier for a given name (case-insensitive).
// Returns ModNone if the name is not recognized.
func ModifierFromName(name string) Modifier {
	if m, ok := modifierNameMap[strings.ToLower(strings.TrimSpace(name))]; ok {
		return m
	}
	return ModNone
}

// ParseModifiers combines a list of modifier names into a set.
func ParseModifiers(names []string) (Modifier, error) {
	var result Modifier
	for _, name := range names {
		mod := ModifierFromName(name)
		if mod == ModNone {
			return ModNone, fmt.Errorf("unknown modifier %q", name)
		}
		result = result.With(mod)
	}
	return result, nil
}

// MarshalJSON encodes the set as an ordered list of names.
func (m Modifier) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Names())
}

// UnmarshalJSON decodes a list of modifier names.
func (m *Modifier) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return fmt.Errorf("modifiers: %w", err)
	}
	parsed, err := ParseModifiers(names)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
