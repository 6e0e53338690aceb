package macro

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dshills/keyloop/internal/input/mouse"
)

// fakeBackend records every call as a short string.
type fakeBackend struct {
	mu    sync.Mutex
	calls []string

	// fail returns an error for a call, or nil.
	fail func(call string) error
	// onCall runs after a call is recorded.
	onCall func(call string)
}

func (b *fakeBackend) record(call string) error {
	b.mu.Lock()
	b.calls = append(b.calls, call)
	fail, onCall := b.fail, b.onCall
	b.mu.Unlock()
	if onCall != nil {
		onCall(call)
	}
	if fail != nil {
		return fail(call)
	}
	return nil
}

func (b *fakeBackend) Calls() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.calls))
	copy(out, b.calls)
	return out
}

func (b *fakeBackend) count(prefix string) int {
	n := 0
	for _, c := range b.Calls() {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

func (b *fakeBackend) MoveTo(_ context.Context, x, y int) error {
	return b.record(fmt.Sprintf("move %d,%d", x, y))
}

func (b *fakeBackend) MouseDown(_ context.Context, x, y int, btn mouse.Button) error {
	return b.record(fmt.Sprintf("mousedown %s %d,%d", btn, x, y))
}

func (b *fakeBackend) MouseUp(_ context.Context, x, y int, btn mouse.Button) error {
	return b.record(fmt.Sprintf("mouseup %s %d,%d", btn, x, y))
}

func (b *fakeBackend) KeyDown(_ context.Context, name string) error {
	return b.record("keydown " + name)
}

func (b *fakeBackend) KeyUp(_ context.Context, name string) error {
	return b.record("keyup " + name)
}

// recordingSleeper logs requested durations without waiting.
type recordingSleeper struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.delays = append(s.delays, d)
	s.mu.Unlock()
	return ctx.Err()
}

func (s *recordingSleeper) Delays() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]time.Duration, len(s.delays))
	copy(out, s.delays)
	return out
}

// fakeClock advances by step on every call.
type fakeClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

func newFakeClock(step time.Duration) *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), step: step}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

// scriptSource runs script against the sink, signals emitted, then blocks
// until the capture ends.
func scriptSource(emitted chan<- struct{}, script func(Sink)) Source {
	return SourceFunc(func(ctx context.Context, sink Sink) error {
		script(sink)
		if emitted != nil {
			close(emitted)
		}
		<-ctx.Done()
		return nil
	})
}

func waitFor(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	case <-time.After(2 * time.Second):
		return false
	}
}
