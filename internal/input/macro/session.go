package macro

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Session is the state shared by one Recorder and one Player.
type Session struct {
	id string

	recording atomic.Bool
	playing   atomic.Bool
	loops     atomic.Int64

	mods ModifierState

	mu      sync.Mutex
	current Sequence
	name    string
	set     bool
}

// NewSession creates an idle session with a fresh ID.
func NewSession() *Session {
	return &Session{id: uuid.NewString()}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// IsRecording reports whether a capture is running.
func (s *Session) IsRecording() bool {
	return s.recording.Load()
}

// IsPlaying reports whether playback is running and has not been stopped.
func (s *Session) IsPlaying() bool {
	return s.playing.Load()
}

// Loops returns the number of passes completed by the latest playback.
func (s *Session) Loops() int {
	return int(s.loops.Load())
}

// Modifiers returns the capture modifier tracker.
func (s *Session) Modifiers() *ModifierState {
	return &s.mods
}

// Current returns a copy of the current sequence and its name.
// The name is empty for a recording that has not been saved.
func (s *Session) Current() (Sequence, string) {
	seq, name, _ := s.Lookup()
	return seq, name
}

// Lookup is Current plus whether a sequence has been set at all. An empty
// capture counts as set; Clear unsets it.
func (s *Session) Lookup() (Sequence, string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Clone(), s.name, s.set
}

// SetCurrent replaces the current sequence.
func (s *Session) SetCurrent(seq Sequence, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = seq.Clone()
	s.name = name
	s.set = true
}

// SetName renames the current sequence without touching its events.
func (s *Session) SetName(name string) {
	s.mu.Lock()
	s.name = name
	s.mu.Unlock()
}

// Clear forgets the current sequence.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
	s.name = ""
	s.set = false
}
