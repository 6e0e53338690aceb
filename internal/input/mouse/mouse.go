package mouse

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Button represents a mouse button.
type Button uint8

const (
	// ButtonNone indicates no button.
	ButtonNone Button = iota
	// ButtonLeft is the primary (left) mouse button.
	ButtonLeft
	// ButtonMiddle is the middle mouse button (scroll wheel click).
	ButtonMiddle
	// ButtonRight is the secondary (right) mouse button.
	ButtonRight
)

// String returns the recorded name of the button.
func (b Button) String() string {
	switch b {
	case ButtonLeft:
		return "left"
	case ButtonMiddle:
		return "middle"
	case ButtonRight:
		return "right"
	default:
		return "none"
	}
}

// Valid returns true for left, middle and right.
func (b Button) Valid() bool {
	return b >= ButtonLeft && b <= ButtonRight
}

// ParseButton parses a button name. Matching is case-insensitive and looks
// for the name anywhere in s, so "Button.left" parses as ButtonLeft.
func ParseButton(s string) (Button, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case strings.Contains(s, "left"):
		return ButtonLeft, nil
	case strings.Contains(s, "right"):
		return ButtonRight, nil
	case strings.Contains(s, "middle"):
		return ButtonMiddle, nil
	default:
		return ButtonNone, fmt.Errorf("unknown mouse button %q", s)
	}
}

// MarshalJSON encodes the button by name.
func (b Button) MarshalJSON() ([]byte, error) {
	if !b.Valid() {
		return nil, fmt.Errorf("cannot encode mouse button %d", b)
	}
	return json.Marshal(b.String())
}

// UnmarshalJSON decodes a button name.
func (b *Button) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("button: %w", err)
	}
	parsed, err := ParseButton(s)
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

// Position represents a screen coordinate.
type Position struct {
	X int
	Y int
}

// Equal returns true if two positions are equal.
func (p Position) Equal(other Position) bool {
	return p.X == other.X && p.Y == other.Y
}

// IsOrigin returns true for the top-left screen corner.
func (p Position) IsOrigin() bool {
	return p.X == 0 && p.Y == 0
}

// String returns the position as "(x, y)".
func (p Position) String() string {
	return fmt.Sprintf("(%d, %d)", p.X, p.Y)
}
