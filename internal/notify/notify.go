// Package notify delivers completion notices for captures and playbacks.
//
// Observers subscribe to every notice or only to one operation. Delivery is
// synchronous by default; WithAsync queues notices and delivers them from a
// single goroutine so slow observers never block the recorder or player.
package notify

import (
	"sort"
	"sync"
	"time"
)

// Op identifies the operation a notice reports on.
type Op int

const (
	// OpCapture is reported once when a capture stops.
	OpCapture Op = iota

	// OpPlayback is reported once when a playback finishes.
	OpPlayback
)

// String returns the op name.
func (o Op) String() string {
	switch o {
	case OpCapture:
		return "capture"
	case OpPlayback:
		return "playback"
	default:
		return "unknown"
	}
}

// Notice describes a finished capture or playback.
type Notice struct {
	Op Op

	// Session is the ID of the session that ran the operation.
	Session string

	// Name is the sequence name, empty for an unsaved recording.
	Name string

	// Outcome is "completed" for captures and the playback outcome otherwise.
	Outcome string

	// Events is the number of events captured or dispatched.
	Events int

	// Passes is the number of completed playback passes.
	Passes int

	Elapsed time.Duration
	Err     error
	At      time.Time
}

// Observer is called for each delivered notice.
type Observer func(Notice)

// Subscription represents an active observer subscription.
type Subscription struct {
	id       uint64
	notifier *Notifier
}

// Unsubscribe removes this subscription.
func (s *Subscription) Unsubscribe() {
	if s != nil && s.notifier != nil {
		s.notifier.unsubscribe(s.id)
	}
}

type entry struct {
	observer Observer
	op       Op
	all      bool
}

// Notifier fans notices out to observers.
type Notifier struct {
	mu        sync.RWMutex
	observers map[uint64]entry
	nextID    uint64

	async  bool
	buffer chan Notice
	done   chan struct{}
	wg     sync.WaitGroup
	closed bool
}

// Option configures a Notifier.
type Option func(*Notifier)

// WithAsync enables asynchronous delivery with the given queue size.
func WithAsync(bufferSize int) Option {
	return func(n *Notifier) {
		if bufferSize > 0 {
			n.async = true
			n.buffer = make(chan Notice, bufferSize)
		}
	}
}

// New creates a new Notifier.
func New(opts ...Option) *Notifier {
	n := &Notifier{
		observers: make(map[uint64]entry),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(n)
	}
	if n.async {
		n.wg.Add(1)
		go n.processAsync()
	}
	return n
}

// Subscribe registers an observer for every notice.
func (n *Notifier) Subscribe(observer Observer) *Subscription {
	return n.add(entry{observer: observer, all: true})
}

// SubscribeOp registers an observer for notices about op only.
func (n *Notifier) SubscribeOp(op Op, observer Observer) *Subscription {
	return n.add(entry{observer: observer, op: op})
}

func (n *Notifier) add(e entry) *Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()
	id := n.nextID
	n.nextID++
	n.observers[id] = e
	return &Subscription{id: id, notifier: n}
}

// Notify delivers a notice. Notices sent after Close are dropped.
func (n *Notifier) Notify(notice Notice) {
	if notice.At.IsZero() {
		notice.At = time.Now()
	}

	n.mu.RLock()
	if n.closed {
		n.mu.RUnlock()
		return
	}
	n.mu.RUnlock()

	if n.async {
		select {
		case n.buffer <- notice:
		case <-n.done:
		}
		return
	}
	n.deliver(notice)
}

// Close stops async delivery after draining queued notices.
// It is safe to call Close multiple times.
func (n *Notifier) Close() {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return
	}
	n.closed = true
	n.mu.Unlock()

	close(n.done)
	n.wg.Wait()
}

func (n *Notifier) unsubscribe(id uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.observers, id)
}

// deliver calls matching observers in subscription order, outside the lock.
func (n *Notifier) deliver(notice Notice) {
	n.mu.RLock()
	ids := make([]uint64, 0, len(n.observers))
	for id, e := range n.observers {
		if e.all || e.op == notice.Op {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	observers := make([]Observer, 0, len(ids))
	for _, id := range ids {
		observers = append(observers, n.observers[id].observer)
	}
	n.mu.RUnlock()

	for _, obs := range observers {
		obs(notice)
	}
}

func (n *Notifier) processAsync() {
	defer n.wg.Done()

	for {
		select {
		case notice := <-n.buffer:
			n.deliver(notice)
		case <-n.done:
			for {
				select {
				case notice := <-n.buffer:
					n.deliver(notice)
				default:
					return
				}
			}
		}
	}
}
