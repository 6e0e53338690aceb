// Package mouse provides the mouse vocabulary shared by capture and replay.
//
// Recorded sequences only distinguish the three primary buttons. Scroll and
// navigation buttons reported by capture sources are not part of a recording.
//
// Buttons are written by name ("left", "right", "middle"). ParseButton also
// accepts the "Button.left" spelling found in older recordings.
package mouse
