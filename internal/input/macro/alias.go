package macro

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dshills/keyloop/internal/input/key"
)

// ResolveKeyName maps a recorded base key to the canonical name passed to
// backends. Single characters pass through unchanged. Symbolic names lose
// any "Key." prefix and their aliases collapse, so "Key.page_up", "pageup"
// and "PgUp" all resolve to "page_up" and "cmd" resolves to "win".
func ResolveKeyName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if len(trimmed) >= 4 && strings.EqualFold(trimmed[:4], "key.") {
		trimmed = trimmed[4:]
	}
	if trimmed == "" {
		if name != "" && strings.TrimSpace(name) == "" {
			// The space bar recorded as a literal character.
			return name[:1], nil
		}
		return "", fmt.Errorf("%w: empty name", ErrUnmappedKey)
	}
	if utf8.RuneCountInString(trimmed) == 1 {
		return trimmed, nil
	}
	if k := key.KeyFromName(trimmed); k != key.KeyNone {
		return k.Name(), nil
	}
	if m := key.ModifierFromName(trimmed); m != key.ModNone {
		return m.Name(), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnmappedKey, name)
}
