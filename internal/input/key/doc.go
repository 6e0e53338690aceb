// Package key provides the keyboard vocabulary shared by capture and replay.
//
// This package defines the fundamental types for representing keyboard input:
//
//   - Key: Identifies a keyboard key (special keys, modifier keys, or runes)
//   - Modifier: A set of held modifier keys (Ctrl, Shift, Alt, Win)
//   - Stroke: One physical key as reported by a capture source
//
// # Names
//
// Recorded sequences refer to keys by name. Printable keys use the literal
// character ("a", "7", "/"). Non-printable keys use a lowercase symbolic
// name ("enter", "page_up", "f5"). Modifiers are always one of "ctrl",
// "shift", "alt" or "win".
//
// # Canonical Order
//
// Whenever modifiers are listed or joined into a combination string they
// appear in the order ctrl, shift, alt, win. The order never depends on the
// order in which the keys were pressed, so "ctrl+shift+s" is reproducible
// across recordings.
//
// # Control Characters
//
// Some platforms report Ctrl+letter as an ASCII control code rather than the
// letter. NormalizeControl maps those codes back to the letter so the
// recorded key names what the user pressed.
package key
