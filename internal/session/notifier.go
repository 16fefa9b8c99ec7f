package session

import (
	"sync"
	"time"
)

// EventType names a session state transition.
type EventType string

const (
	EventSignedIn       EventType = "signed_in"
	EventSignedOut      EventType = "signed_out"
	EventTokenRefreshed EventType = "token_refreshed"
)

// Event is delivered to subscribers on every transition. Session is nil for
// EventSignedOut.
type Event struct {
	Type     EventType
	Identity Identity
	Session  *Session
	At       time.Time
}

type subscriber struct {
	id uint64
	fn func(Event)
}

// Notifier is an observer registry for session transitions. Delivery is
// synchronous and in subscription order.
type Notifier struct {
	mu     sync.RWMutex
	nextID uint64
	subs   []subscriber
}

// NewNotifier creates an empty registry.
func NewNotifier() *Notifier {
	return &Notifier{}
}

// Subscribe registers fn and returns its unsubscribe handle. Calling the
// handle more than once is a no-op.
func (n *Notifier) Subscribe(fn func(Event)) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}
	n.mu.Lock()
	n.nextID++
	subID := n.nextID
	n.subs = append(n.subs, subscriber{id: subID, fn: fn})
	n.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { n.remove(subID) })
	}
}

func (n *Notifier) remove(subID uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i, s := range n.subs {
		if s.id == subID {
			n.subs = append(n.subs[:i:i], n.subs[i+1:]...)
			return
		}
	}
}

// Publish delivers ev to a snapshot of the current subscribers, so a callback
// may unsubscribe itself without deadlocking.
func (n *Notifier) Publish(ev Event) {
	n.mu.RLock()
	snapshot := make([]subscriber, len(n.subs))
	copy(snapshot, n.subs)
	n.mu.RUnlock()

	for _, s := range snapshot {
		s.fn(ev)
	}
}

// Len returns the number of active subscribers.
func (n *Notifier) Len() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.subs)
}
