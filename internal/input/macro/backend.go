package macro

import (
	"context"

	"github.com/dshills/keyloop/internal/input/key"
	"github.com/dshills/keyloop/internal/input/mouse"
)

// Backend produces simulated input during playback.
// Key names are canonical names from ResolveKeyName.
type Backend interface {
	MoveTo(ctx context.Context, x, y int) error
	MouseDown(ctx context.Context, x, y int, b mouse.Button) error
	MouseUp(ctx context.Context, x, y int, b mouse.Button) error
	KeyDown(ctx context.Context, name string) error
	KeyUp(ctx context.Context, name string) error
}

// Sink receives raw observations from a Source.
type Sink interface {
	MouseMove(x, y int)
	MouseButton(x, y int, b mouse.Button, pressed bool)
	KeyPress(s key.Stroke)
	KeyRelease(s key.Stroke)
}

// Source reports raw input to a Sink until ctx is cancelled.
type Source interface {
	Listen(ctx context.Context, sink Sink) error
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context, sink Sink) error

// Listen calls f.
func (f SourceFunc) Listen(ctx context.Context, sink Sink) error {
	return f(ctx, sink)
}
