package notify

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpString(t *testing.T) {
	assert.Equal(t, "capture", OpCapture.String())
	assert.Equal(t, "playback", OpPlayback.String())
	assert.Equal(t, "unknown", Op(9).String())
}

func TestNotifier_Subscribe(t *testing.T) {
	n := New()
	defer n.Close()

	var got []Notice
	n.Subscribe(func(notice Notice) { got = append(got, notice) })

	n.Notify(Notice{Op: OpCapture, Events: 3})
	n.Notify(Notice{Op: OpPlayback, Outcome: "completed"})

	require.Len(t, got, 2)
	assert.Equal(t, 3, got[0].Events)
	assert.False(t, got[0].At.IsZero())
	assert.Equal(t, "completed", got[1].Outcome)
}

func TestNotifier_SubscribeOp(t *testing.T) {
	n := New()
	defer n.Close()

	var captures, playbacks int
	n.SubscribeOp(OpCapture, func(Notice) { captures++ })
	n.SubscribeOp(OpPlayback, func(Notice) { playbacks++ })

	n.Notify(Notice{Op: OpPlayback})
	n.Notify(Notice{Op: OpPlayback})
	n.Notify(Notice{Op: OpCapture})

	assert.Equal(t, 1, captures)
	assert.Equal(t, 2, playbacks)
}

func TestNotifier_Order(t *testing.T) {
	n := New()
	defer n.Close()

	var order []int
	for i := 0; i < 5; i++ {
		i := i
		n.Subscribe(func(Notice) { order = append(order, i) })
	}
	n.Notify(Notice{})
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestNotifier_Unsubscribe(t *testing.T) {
	n := New()
	defer n.Close()

	calls := 0
	sub := n.Subscribe(func(Notice) { calls++ })
	n.Notify(Notice{})
	sub.Unsubscribe()
	sub.Unsubscribe()
	n.Notify(Notice{})

	assert.Equal(t, 1, calls)
}

func TestNotifier_Async(t *testing.T) {
	n := New(WithAsync(4))

	var mu sync.Mutex
	var got []int
	n.Subscribe(func(notice Notice) {
		mu.Lock()
		got = append(got, notice.Events)
		mu.Unlock()
	})

	for i := 1; i <= 3; i++ {
		n.Notify(Notice{Events: i})
	}
	n.Close()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{1, 2, 3}, got)
}

func TestNotifier_AfterClose(t *testing.T) {
	n := New()
	calls := 0
	n.Subscribe(func(Notice) { calls++ })

	n.Close()
	n.Close()
	n.Notify(Notice{})
	assert.Equal(t, 0, calls)
}
