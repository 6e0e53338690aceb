package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/dshills/keyloop/internal/input/key"
	"github.com/dshills/keyloop/internal/input/macro"
	"github.com/dshills/keyloop/internal/input/mouse"
)

// Info summarizes a stored sequence without decoding it.
type Info struct {
	Name     string
	Events   int
	Duration time.Duration
	Size     int64
	Modified time.Time
}

// Info reads the event count and duration of name.
func (s *Store) Info(name string) (Info, error) {
	if err := ValidateName(name); err != nil {
		return Info{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	path := s.path(name)
	st, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Info{}, opError("info", name, ErrNotFound)
	}
	if err != nil {
		return Info{}, opError("info", name, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Info{}, opError("info", name, err)
	}
	if !gjson.ValidBytes(data) {
		return Info{}, opError("info", name, errors.New("malformed JSON"))
	}

	doc := gjson.ParseBytes(data)
	if !doc.IsArray() {
		return Info{}, opError("info", name, errors.New("not an event array"))
	}
	n := int(doc.Get("#").Int())
	info := Info{Name: name, Events: n, Size: st.Size(), Modified: st.ModTime()}
	if n > 1 {
		first := doc.Get("0.timestamp").Float()
		last := doc.Get(strconv.Itoa(n-1) + ".timestamp").Float()
		info.Duration = time.Duration((last - first) * float64(time.Second))
	}
	return info, nil
}

// editableFields lists the fields UpdateEvent accepts per event family.
var editableFields = map[string]struct{ mouse, key bool }{
	"timestamp": {true, true},
	"x":         {true, false},
	"y":         {true, false},
	"button":    {true, false},
	"key":       {false, true},
	"base_key":  {false, true},
	"modifiers": {false, true},
}

// UpdateEvent sets one field of the event at index. The edited sequence
// must still decode and validate, otherwise nothing is written.
func (s *Store) UpdateEvent(name string, index int, field, value string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	allowed, ok := editableFields[field]
	if !ok {
		return opError("edit", name, fmt.Errorf("%w: %q", ErrInvalidField, field))
	}
	parsed, err := parseFieldValue(field, value)
	if err != nil {
		return opError("edit", name, err)
	}

	return s.editRaw("edit", name, index, func(data []byte, rec gjson.Result) ([]byte, error) {
		kind := macro.Kind(rec.Get("kind").String())
		if kind == "" {
			kind = macro.Kind(rec.Get("type").String())
		}
		isMouse := kind == macro.KindMouseMove || kind == macro.KindMouseDown || kind == macro.KindMouseUp
		if (isMouse && !allowed.mouse) || (!isMouse && !allowed.key) {
			return nil, fmt.Errorf("%w: %s events have no %q", ErrInvalidField, kind, field)
		}
		if field == "button" && kind == macro.KindMouseMove {
			return nil, fmt.Errorf("%w: mousemove events have no button", ErrInvalidField)
		}
		return sjson.SetBytes(data, fmt.Sprintf("%d.%s", index, field), parsed)
	})
}

// RemoveEvent deletes the event at index.
func (s *Store) RemoveEvent(name string, index int) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	return s.editRaw("remove-event", name, index, func(data []byte, _ gjson.Result) ([]byte, error) {
		return sjson.DeleteBytes(data, strconv.Itoa(index))
	})
}

// editRaw applies fn to the file text of name, then decodes, validates and
// writes the result.
func (s *Store) editRaw(op, name string, index int, fn func([]byte, gjson.Result) ([]byte, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return opError(op, name, ErrNotFound)
	}
	if err != nil {
		return opError(op, name, err)
	}
	if !gjson.ValidBytes(data) {
		return opError(op, name, errors.New("malformed JSON"))
	}

	n := int(gjson.GetBytes(data, "#").Int())
	if index < 0 || index >= n {
		return opError(op, name, fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, index, n))
	}

	edited, err := fn(data, gjson.GetBytes(data, strconv.Itoa(index)))
	if err != nil {
		return opError(op, name, err)
	}
	seq, err := macro.Decode(edited)
	if err != nil {
		return opError(op, name, err)
	}
	out, err := macro.Encode(seq)
	if err != nil {
		return opError(op, name, err)
	}
	if err := writeAtomic(s.path(name), out); err != nil {
		return opError(op, name, err)
	}
	s.cache[name] = seq
	s.logger.Info("%s %q at index %d", op, name, index)
	return nil
}

func parseFieldValue(field, value string) (any, error) {
	switch field {
	case "timestamp":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f < 0 {
			return nil, fmt.Errorf("timestamp must be a non-negative number: %q", value)
		}
		return f, nil
	case "x", "y":
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("%s must be an integer: %q", field, value)
		}
		return n, nil
	case "button":
		b, err := mouse.ParseButton(value)
		if err != nil {
			return nil, err
		}
		return b.String(), nil
	case "key", "base_key":
		if value == "" {
			return nil, fmt.Errorf("%s must not be empty", field)
		}
		return value, nil
	case "modifiers":
		var names []string
		for _, part := range strings.FieldsFunc(value, func(r rune) bool { return r == '+' || r == ',' }) {
			names = append(names, strings.TrimSpace(part))
		}
		mods, err := key.ParseModifiers(names)
		if err != nil {
			return nil, err
		}
		return mods.Names(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrInvalidField, field)
}
