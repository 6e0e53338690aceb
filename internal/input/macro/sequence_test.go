package macro

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/keyloop/internal/input/key"
	"github.com/dshills/keyloop/internal/input/mouse"
)

func sampleSequence() Sequence {
	return Sequence{
		MouseMove{Timestamp: 0, X: 10, Y: 20},
		MouseDown{Timestamp: 0.25, X: 10, Y: 20, Button: mouse.ButtonLeft},
		MouseUp{Timestamp: 0.3, X: 10, Y: 20, Button: mouse.ButtonLeft},
		KeyDown{Timestamp: 0.5, Key: "ctrl", Modifiers: key.ModCtrl, BaseKey: "ctrl"},
		KeyDown{Timestamp: 0.6, Key: "ctrl+c", Modifiers: key.ModCtrl, BaseKey: "c"},
		KeyUp{Timestamp: 0.7, Key: "ctrl+c", Modifiers: key.ModCtrl, BaseKey: "c"},
		KeyUp{Timestamp: 0.8, Key: "ctrl", Modifiers: key.ModCtrl, BaseKey: "ctrl"},
		KeyDown{Timestamp: 1.0, Key: "a", Modifiers: key.ModNone, BaseKey: "a"},
	}
}

func TestSequence_RoundTrip(t *testing.T) {
	seq := sampleSequence()

	data, err := Encode(seq)
	require.NoError(t, err)

	got, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, seq, got)
}

func TestSequence_FieldNames(t *testing.T) {
	data, err := json.Marshal(Sequence{
		MouseDown{Timestamp: 1.5, X: 0, Y: 7, Button: mouse.ButtonRight},
		KeyUp{Timestamp: 2, Key: "a", BaseKey: "a"},
	})
	require.NoError(t, err)

	var raw []map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Len(t, raw, 2)

	assert.Equal(t, "mousedown", raw[0]["kind"])
	assert.Equal(t, 1.5, raw[0]["timestamp"])
	assert.Equal(t, 0.0, raw[0]["x"])
	assert.Equal(t, 7.0, raw[0]["y"])
	assert.Equal(t, "right", raw[0]["button"])
	assert.NotContains(t, raw[0], "key")

	assert.Equal(t, "keyup", raw[1]["kind"])
	assert.Equal(t, []any{}, raw[1]["modifiers"])
	assert.Equal(t, "a", raw[1]["base_key"])
	assert.NotContains(t, raw[1], "x")
}

func TestSequence_LegacyRecords(t *testing.T) {
	data := []byte(`[
		{"type": "mousedown", "timestamp": 0.1, "x": 12.6, "y": 3, "button": "Button.left"},
		{"type": "keydown", "timestamp": 0.2, "key": "ctrl+Key.tab", "modifiers": ["ctrl"]}
	]`)

	seq, err := Decode(data)
	require.NoError(t, err)
	require.Len(t, seq, 2)

	assert.Equal(t, MouseDown{Timestamp: 0.1, X: 13, Y: 3, Button: mouse.ButtonLeft}, seq[0])
	assert.Equal(t, KeyDown{Timestamp: 0.2, Key: "ctrl+Key.tab", Modifiers: key.ModCtrl, BaseKey: "Key.tab"}, seq[1])
}

func TestSequence_DecodeErrors(t *testing.T) {
	tests := map[string]string{
		"unknown kind":     `[{"kind": "scroll", "timestamp": 0}]`,
		"missing coords":   `[{"kind": "mousemove", "timestamp": 0}]`,
		"bad button":       `[{"kind": "mouseup", "timestamp": 0, "x": 1, "y": 1, "button": "x2"}]`,
		"bad modifier":     `[{"kind": "keydown", "timestamp": 0, "key": "a", "modifiers": ["hyper"], "base_key": "a"}]`,
		"out of order":     `[{"kind": "mousemove", "timestamp": 2, "x": 1, "y": 1}, {"kind": "mousemove", "timestamp": 1, "x": 1, "y": 1}]`,
		"not an array":     `{"kind": "mousemove"}`,
		"missing base key": `[{"kind": "keyup", "timestamp": 0}]`,
	}

	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(data))
			assert.Error(t, err)
		})
	}
}

func TestSequence_Validate(t *testing.T) {
	assert.NoError(t, Sequence{}.Validate())
	assert.NoError(t, sampleSequence().Validate())

	err := Sequence{
		MouseMove{Timestamp: 1},
		MouseMove{Timestamp: 0.5},
	}.Validate()
	assert.ErrorIs(t, err, ErrOutOfOrder)

	// Equal timestamps are allowed.
	assert.NoError(t, Sequence{MouseMove{Timestamp: 1}, MouseMove{Timestamp: 1}}.Validate())

	assert.Error(t, Sequence{MouseDown{Timestamp: 0}}.Validate())
	assert.Error(t, Sequence{MouseMove{Timestamp: -1}}.Validate())
}

func TestSequence_DurationAndClone(t *testing.T) {
	seq := sampleSequence()
	assert.Equal(t, time.Second, seq.Duration())
	assert.Equal(t, time.Duration(0), Sequence{MouseMove{Timestamp: 3}}.Duration())

	clone := seq.Clone()
	clone[0] = MouseMove{Timestamp: 0, X: 99}
	assert.Equal(t, MouseMove{Timestamp: 0, X: 10, Y: 20}, seq[0])
	assert.Nil(t, Sequence(nil).Clone())
}

func TestEncode_Empty(t *testing.T) {
	data, err := Encode(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestEventStrings(t *testing.T) {
	assert.Equal(t, "0.250s mousedown left (10, 20)", sampleSequence()[1].String())
	assert.Equal(t, "0.600s keydown ctrl+c", sampleSequence()[4].String())
}

func TestResolveKeyName(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"a", "a", false},
		{"A", "A", false},
		{" ", " ", false},
		{"Key.tab", "tab", false},
		{"Key.page_up", "page_up", false},
		{"pageup", "page_up", false},
		{"PgDn", "page_down", false},
		{"cmd", "win", false},
		{"Key.cmd_r", "win", false},
		{"ctrl", "ctrl", false},
		{"escape", "esc", false},
		{"f5", "f5", false},
		{"hyper", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ResolveKeyName(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnmappedKey)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestModifierState(t *testing.T) {
	var m ModifierState
	assert.Equal(t, []string{}, m.HeldNames())

	m.Down(key.ModWin)
	m.Down(key.ModCtrl)
	m.Down(key.ModShift)
	assert.Equal(t, []string{"ctrl", "shift", "win"}, m.HeldNames())

	m.Up(key.ModShift)
	assert.Equal(t, key.ModCtrl|key.ModWin, m.Held())

	m.Reset()
	assert.True(t, m.Held().IsEmpty())
}

func TestSession(t *testing.T) {
	s := NewSession()
	_, _, ok := s.Lookup()
	assert.False(t, ok)
	assert.NotEmpty(t, s.ID())
	assert.NotEqual(t, s.ID(), NewSession().ID())
	assert.False(t, s.IsRecording())
	assert.False(t, s.IsPlaying())

	seq := sampleSequence()
	s.SetCurrent(seq, "demo")
	got, name := s.Current()
	assert.Equal(t, seq, got)
	assert.Equal(t, "demo", name)

	s.SetName("renamed")
	_, name = s.Current()
	assert.Equal(t, "renamed", name)

	s.Clear()
	got, name, ok = s.Lookup()
	assert.Empty(t, got)
	assert.Empty(t, name)
	assert.False(t, ok)

	s.SetCurrent(nil, "")
	_, _, ok = s.Lookup()
	assert.True(t, ok, "an empty capture is still a current sequence")
}

func TestSecondsToDuration(t *testing.T) {
	assert.Equal(t, 1500*time.Millisecond, secondsToDuration(1.5))
	assert.Equal(t, time.Duration(0), secondsToDuration(-1))
	assert.Equal(t, time.Duration(0), secondsToDuration(math.NaN()))
	assert.Equal(t, time.Duration(math.MaxInt64), secondsToDuration(1e12))
	assert.Equal(t, time.Duration(math.MaxInt64), secondsToDuration(math.Inf(1)))
}
