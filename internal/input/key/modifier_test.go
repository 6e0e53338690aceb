package key

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModifierHas(t *testing.T) {
	tests := []struct {
		mod    Modifier
		check  Modifier
		expect bool
	}{
		{ModNone, ModCtrl, false},
		{ModCtrl, ModCtrl, true},
		{ModCtrl | ModAlt, ModCtrl, true},
		{ModCtrl | ModAlt, ModAlt, true},
		{ModCtrl | ModAlt, ModShift, false},
		{ModCtrl | ModAlt | ModShift | ModWin, ModWin, true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expect, tt.mod.Has(tt.check), "Modifier(%d).Has(%d)", tt.mod, tt.check)
	}
}

func TestModifierWithWithout(t *testing.T) {
	mod := ModNone.With(ModCtrl).With(ModAlt)
	assert.True(t, mod.Has(ModCtrl))
	assert.True(t, mod.Has(ModAlt))
	assert.Equal(t, 2, mod.Count())

	mod = mod.Without(ModAlt)
	assert.False(t, mod.Has(ModAlt))
	assert.True(t, mod.Has(ModCtrl))

	assert.True(t, ModNone.IsEmpty())
	assert.False(t, mod.IsEmpty())
}

func TestModifierNamesCanonicalOrder(t *testing.T) {
	// Build the set in a scrambled order; names must still come out canonical.
	mod := ModWin.With(ModAlt).With(ModCtrl).With(ModShift)
	assert.Equal(t, []string{"ctrl", "shift", "alt", "win"}, mod.Names())
	assert.Equal(t, "ctrl+shift+alt+win", mod.String())

	assert.Equal(t, []string{}, ModNone.Names())
	assert.Equal(t, "", ModNone.String())
}

func TestModifierName(t *testing.T) {
	assert.Equal(t, "ctrl", ModCtrl.Name())
	assert.Equal(t, "shift", ModShift.Name())
	assert.Equal(t, "alt", ModAlt.Name())
	assert.Equal(t, "win", ModWin.Name())
	assert.Equal(t, "", ModNone.Name())
	assert.Equal(t, "", (ModCtrl | ModAlt).Name())
}

func TestModifierCombo(t *testing.T) {
	assert.Equal(t, "c", ModNone.Combo("c"))
	assert.Equal(t, "ctrl+c", ModCtrl.Combo("c"))
	assert.Equal(t, "ctrl+shift+tab", (ModShift | ModCtrl).Combo("tab"))
}

func TestModifierFromName(t *testing.T) {
	tests := []struct {
		name string
		want Modifier
	}{
		{"ctrl", ModCtrl},
		{"Control", ModCtrl},
		{"shift", ModShift},
		{"alt", ModAlt},
		{"option", ModAlt},
		{"win", ModWin},
		{"cmd", ModWin},
		{"super", ModWin},
		{"hyper", ModNone},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ModifierFromName(tt.name), tt.name)
	}
}

func TestParseModifiers(t *testing.T) {
	mod, err := ParseModifiers([]string{"alt", "ctrl"})
	require.NoError(t, err)
	assert.Equal(t, ModCtrl|ModAlt, mod)

	_, err = ParseModifiers([]string{"ctrl", "hyper"})
	assert.Error(t, err)
}

func TestModifierJSON(t *testing.T) {
	data, err := json.Marshal(ModAlt | ModCtrl)
	require.NoError(t, err)
	assert.JSONEq(t, `["ctrl","alt"]`, string(data))

	data, err = json.Marshal(ModNone)
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(data))

	var mod Modifier
	require.NoError(t, json.Unmarshal([]byte(`["win","shift"]`), &mod))
	assert.Equal(t, ModShift|ModWin, mod)

	assert.Error(t, json.Unmarshal([]byte(`["bogus"]`), &mod))
	assert.Error(t, json.Unmarshal([]byte(`"ctrl"`), &mod))
}
