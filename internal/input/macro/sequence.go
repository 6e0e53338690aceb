package macro

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dshills/keyloop/internal/input/key"
	"github.com/dshills/keyloop/internal/input/mouse"
)

// Sequence is an ordered list of recorded events.
type Sequence []Event

// Duration returns the time between the first and last event.
func (s Sequence) Duration() time.Duration {
	if len(s) < 2 {
		return 0
	}
	return secondsToDuration(s[len(s)-1].Time() - s[0].Time())
}

// Clone returns a copy of the sequence. Events are values, so the copy
// shares nothing with s.
func (s Sequence) Clone() Sequence {
	if s == nil {
		return nil
	}
	out := make(Sequence, len(s))
	copy(out, s)
	return out
}

// Validate checks that timestamps never decrease and that every event is
// complete enough to replay.
func (s Sequence) Validate() error {
	prev := 0.0
	for i, ev := range s {
		if ev == nil {
			return fmt.Errorf("event %d: %w: nil", i, ErrUnknownEvent)
		}
		ts := ev.Time()
		if ts < 0 || math.IsNaN(ts) || math.IsInf(ts, 0) {
			return fmt.Errorf("event %d: invalid timestamp %v", i, ts)
		}
		if i > 0 && ts < prev {
			return fmt.Errorf("event %d: %w: %.3f after %.3f", i, ErrOutOfOrder, ts, prev)
		}
		prev = ts

		switch e := ev.(type) {
		case MouseMove:
		case MouseDown:
			if !e.Button.Valid() {
				return fmt.Errorf("event %d: invalid button", i)
			}
		case MouseUp:
			if !e.Button.Valid() {
				return fmt.Errorf("event %d: invalid button", i)
			}
		case KeyDown:
			if e.BaseKey == "" {
				return fmt.Errorf("event %d: missing base key", i)
			}
		case KeyUp:
			if e.BaseKey == "" {
				return fmt.Errorf("event %d: missing base key", i)
			}
		default:
			return fmt.Errorf("event %d: %w: %T", i, ErrUnknownEvent, ev)
		}
	}
	return nil
}

// record is the on-disk form of an event.
type record struct {
	Kind      Kind          `json:"kind"`
	Timestamp float64       `json:"timestamp"`
	X         *int          `json:"x,omitempty"`
	Y         *int          `json:"y,omitempty"`
	Button    *mouse.Button `json:"button,omitempty"`
	Key       string        `json:"key,omitempty"`
	Modifiers *key.Modifier `json:"modifiers,omitempty"`
	BaseKey   string        `json:"base_key,omitempty"`
}

// rawRecord accepts the current and legacy spellings of a record.
type rawRecord struct {
	Kind      Kind     `json:"kind"`
	Type      Kind     `json:"type"`
	Timestamp float64  `json:"timestamp"`
	X         *float64 `json:"x"`
	Y         *float64 `json:"y"`
	Button    string   `json:"button"`
	Key       string   `json:"key"`
	Modifiers []string `json:"modifiers"`
	BaseKey   string   `json:"base_key"`
}

func toRecord(ev Event) (record, error) {
	rec := record{Kind: ev.Kind(), Timestamp: ev.Time()}
	switch e := ev.(type) {
	case MouseMove:
		rec.X, rec.Y = &e.X, &e.Y
	case MouseDown:
		rec.X, rec.Y, rec.Button = &e.X, &e.Y, &e.Button
	case MouseUp:
		rec.X, rec.Y, rec.Button = &e.X, &e.Y, &e.Button
	case KeyDown:
		rec.Key, rec.Modifiers, rec.BaseKey = e.Key, &e.Modifiers, e.BaseKey
	case KeyUp:
		rec.Key, rec.Modifiers, rec.BaseKey = e.Key, &e.Modifiers, e.BaseKey
	default:
		return record{}, fmt.Errorf("%w: %T", ErrUnknownEvent, ev)
	}
	return rec, nil
}

func (r rawRecord) event() (Event, error) {
	kind := r.Kind
	if kind == "" {
		kind = r.Type
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, kind)
	}

	switch kind {
	case KindMouseMove, KindMouseDown, KindMouseUp:
		if r.X == nil || r.Y == nil {
			return nil, fmt.Errorf("%s: missing coordinates", kind)
		}
		x, y := int(math.Round(*r.X)), int(math.Round(*r.Y))
		if kind == KindMouseMove {
			return MouseMove{Timestamp: r.Timestamp, X: x, Y: y}, nil
		}
		button, err := mouse.ParseButton(r.Button)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", kind, err)
		}
		if kind == KindMouseDown {
			return MouseDown{Timestamp: r.Timestamp, X: x, Y: y, Button: button}, nil
		}
		return MouseUp{Timestamp: r.Timestamp, X: x, Y: y, Button: button}, nil
	}

	mods, err := key.ParseModifiers(r.Modifiers)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", kind, err)
	}
	base := r.BaseKey
	if base == "" {
		// Older records only carry the display string.
		base = r.Key
		if i := strings.LastIndex(base, "+"); i >= 0 && i < len(base)-1 {
			base = base[i+1:]
		}
	}
	if base == "" {
		return nil, fmt.Errorf("%s: missing key", kind)
	}
	display := r.Key
	if display == "" {
		display = mods.Combo(base)
	}
	if kind == KindKeyDown {
		return KeyDown{Timestamp: r.Timestamp, Key: display, Modifiers: mods, BaseKey: base}, nil
	}
	return KeyUp{Timestamp: r.Timestamp, Key: display, Modifiers: mods, BaseKey: base}, nil
}

// MarshalJSON encodes the sequence as an array of records.
func (s Sequence) MarshalJSON() ([]byte, error) {
	recs := make([]record, 0, len(s))
	for i, ev := range s {
		rec, err := toRecord(ev)
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
		recs = append(recs, rec)
	}
	return json.Marshal(recs)
}

// UnmarshalJSON decodes an array of records.
func (s *Sequence) UnmarshalJSON(data []byte) error {
	var raws []rawRecord
	if err := json.Unmarshal(data, &raws); err != nil {
		return err
	}
	out := make(Sequence, 0, len(raws))
	for i, raw := range raws {
		ev, err := raw.event()
		if err != nil {
			return fmt.Errorf("event %d: %w", i, err)
		}
		out = append(out, ev)
	}
	*s = out
	return nil
}

// Encode returns the indented JSON form used for sequence files.
func Encode(s Sequence) ([]byte, error) {
	if s == nil {
		s = Sequence{}
	}
	return json.MarshalIndent(s, "", "  ")
}

// Decode parses and validates a sequence file.
func Decode(data []byte) (Sequence, error) {
	var s Sequence
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode sequence: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid sequence: %w", err)
	}
	return s, nil
}

// secondsToDuration saturates instead of overflowing, so a tiny speed
// yields the longest possible wait rather than a negative one.
func secondsToDuration(sec float64) time.Duration {
	ns := sec * float64(time.Second)
	switch {
	case math.IsNaN(ns) || ns <= 0:
		return 0
	case ns >= math.MaxInt64:
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(ns)
}
