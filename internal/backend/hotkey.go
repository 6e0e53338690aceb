package backend

import (
	"github.com/dshills/keyloop/internal/input/key"
	"github.com/dshills/keyloop/internal/input/mouse"
)

// HotkeySink calls Fire when Key is pressed and ignores everything else.
// It lets a capture source act as the playback stop key.
type HotkeySink struct {
	Key  key.Stroke
	Fire func()
}

func (h HotkeySink) MouseMove(int, int)                       {}
func (h HotkeySink) MouseButton(int, int, mouse.Button, bool) {}
func (h HotkeySink) KeyRelease(key.Stroke)                    {}

// KeyPress fires on the hotkey.
func (h HotkeySink) KeyPress(s key.Stroke) {
	if s.Equals(h.Key) && h.Fire != nil {
		h.Fire()
	}
}
