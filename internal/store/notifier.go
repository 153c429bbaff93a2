package store

import "sync"

// ChangeEvent describes a range of timestamps whose records changed for a
// user. An empty UserID means the change could affect any user.
type ChangeEvent struct {
	UserID string
	Start  int64
	End    int64
}

// merge widens e to cover other. Events for different users collapse to the
// any-user form.
func (e ChangeEvent) merge(other ChangeEvent) ChangeEvent {
	if e.UserID != other.UserID {
		e.UserID = ""
	}
	if other.Start < e.Start {
		e.Start = other.Start
	}
	if other.End > e.End {
		e.End = other.End
	}
	return e
}

// Notifier fans change events out to subscribers. Events are coalesced per
// subscriber: a slow consumer sees one widened event instead of a backlog,
// and never blocks a publisher. This is what makes store ranges observable —
// writers publish after each merged batch, readers re-query on receipt.
type Notifier struct {
	mu   sync.Mutex
	subs map[uint64]*subscription
	next uint64
}

type subscription struct {
	mu      sync.Mutex
	pending *ChangeEvent
	signal  chan ChangeEvent
	closed  bool
}

// NewNotifier creates an empty notifier.
func NewNotifier() *Notifier {
	return &Notifier{subs: make(map[uint64]*subscription)}
}

// Subscribe registers a consumer. The returned channel delivers coalesced
// events; cancel unregisters and closes it.
func (n *Notifier) Subscribe() (<-chan ChangeEvent, func()) {
	sub := &subscription{signal: make(chan ChangeEvent, 1)}

	n.mu.Lock()
	id := n.next
	n.next++
	n.subs[id] = sub
	n.mu.Unlock()

	cancel := func() {
		n.mu.Lock()
		s, ok := n.subs[id]
		delete(n.subs, id)
		n.mu.Unlock()
		if ok {
			s.mu.Lock()
			close(s.signal)
			s.closed = true
			s.mu.Unlock()
		}
	}
	return sub.signal, cancel
}

// Publish delivers ev to every subscriber without blocking.
func (n *Notifier) Publish(ev ChangeEvent) {
	n.mu.Lock()
	subs := make([]*subscription, 0, len(n.subs))
	for _, s := range n.subs {
		subs = append(subs, s)
	}
	n.mu.Unlock()

	for _, s := range subs {
		s.deliver(ev)
	}
}

func (s *subscription) deliver(ev ChangeEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	if s.pending != nil {
		ev = s.pending.merge(ev)
	}

	select {
	case s.signal <- ev:
		s.pending = nil
		return
	default:
	}

	// Channel already holds an undelivered event; widen it instead of
	// queueing a backlog.
	select {
	case old := <-s.signal:
		ev = old.merge(ev)
	default:
	}
	select {
	case s.signal <- ev:
		s.pending = nil
	default:
		s.pending = &ev
	}
}
