package macro

import (
	"fmt"

	"github.com/dshills/keyloop/internal/input/key"
	"github.com/dshills/keyloop/internal/input/mouse"
)

// Kind names an event variant as written in sequence files.
type Kind string

const (
	KindMouseMove Kind = "mousemove"
	KindMouseDown Kind = "mousedown"
	KindMouseUp   Kind = "mouseup"
	KindKeyDown   Kind = "keydown"
	KindKeyUp     Kind = "keyup"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindMouseMove, KindMouseDown, KindMouseUp, KindKeyDown, KindKeyUp:
		return true
	}
	return false
}

// Event is one recorded input observation.
type Event interface {
	// Kind returns the variant tag.
	Kind() Kind
	// Time returns seconds since the recording started.
	Time() float64
	// String returns a one-line description.
	String() string
}

// MouseMove moves the pointer to X, Y.
type MouseMove struct {
	Timestamp float64
	X, Y      int
}

func (e MouseMove) Kind() Kind    { return KindMouseMove }
func (e MouseMove) Time() float64 { return e.Timestamp }
func (e MouseMove) String() string {
	return fmt.Sprintf("%.3fs mousemove %s", e.Timestamp, mouse.Position{X: e.X, Y: e.Y})
}

// MouseDown presses Button at X, Y.
type MouseDown struct {
	Timestamp float64
	X, Y      int
	Button    mouse.Button
}

func (e MouseDown) Kind() Kind    { return KindMouseDown }
func (e MouseDown) Time() float64 { return e.Timestamp }
func (e MouseDown) String() string {
	return fmt.Sprintf("%.3fs mousedown %s %s", e.Timestamp, e.Button, mouse.Position{X: e.X, Y: e.Y})
}

// MouseUp releases Button at X, Y.
type MouseUp struct {
	Timestamp float64
	X, Y      int
	Button    mouse.Button
}

func (e MouseUp) Kind() Kind    { return KindMouseUp }
func (e MouseUp) Time() float64 { return e.Timestamp }
func (e MouseUp) String() string {
	return fmt.Sprintf("%.3fs mouseup %s %s", e.Timestamp, e.Button, mouse.Position{X: e.X, Y: e.Y})
}

// KeyDown presses BaseKey while Modifiers are held.
// Key is the display form, e.g. "ctrl+c".
type KeyDown struct {
	Timestamp float64
	Key       string
	Modifiers key.Modifier
	BaseKey   string
}

func (e KeyDown) Kind() Kind    { return KindKeyDown }
func (e KeyDown) Time() float64 { return e.Timestamp }
func (e KeyDown) String() string {
	return fmt.Sprintf("%.3fs keydown %s", e.Timestamp, e.Key)
}

// KeyUp releases BaseKey. Modifiers are the ones held before the release.
type KeyUp struct {
	Timestamp float64
	Key       string
	Modifiers key.Modifier
	BaseKey   string
}

func (e KeyUp) Kind() Kind    { return KindKeyUp }
func (e KeyUp) Time() float64 { return e.Timestamp }
func (e KeyUp) String() string {
	return fmt.Sprintf("%.3fs keyup %s", e.Timestamp, e.Key)
}
