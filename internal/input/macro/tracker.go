package macro

import (
	"sync"

	"github.com/dshills/keyloop/internal/input/key"
)

// ModifierState tracks which of ctrl, shift, alt and win are held.
// It is safe for concurrent use.
type ModifierState struct {
	mu   sync.Mutex
	held key.Modifier
}

// Down marks mod as held.
func (m *ModifierState) Down(mod key.Modifier) {
	m.mu.Lock()
	m.held = m.held.With(mod)
	m.mu.Unlock()
}

// Up marks mod as released.
func (m *ModifierState) Up(mod key.Modifier) {
	m.mu.Lock()
	m.held = m.held.Without(mod)
	m.mu.Unlock()
}

// Held returns the held set.
func (m *ModifierState) Held() key.Modifier {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.held
}

// HeldNames returns the held modifiers in canonical order.
func (m *ModifierState) HeldNames() []string {
	return m.Held().Names()
}

// Reset releases every modifier.
func (m *ModifierState) Reset() {
	m.mu.Lock()
	m.held = key.ModNone
	m.mu.Unlock()
}
