package goSession

// Subscription receives published snapshots. Its channel holds at most one
// pending value: a slow reader skips intermediate versions but never sees an
// older snapshot after a newer one.
type Subscription struct {
	m      *Manager
	id     uint64
	ch     chan Session
	closed bool // guarded by m.mu
}

// Subscribe registers a subscriber. The channel immediately holds the current
// snapshot. After [Manager.Close] the returned subscription is already closed.
func (m *Manager) Subscribe() *Subscription {
	m.mu.Lock()
	defer m.mu.Unlock()

	sub := &Subscription{
		m:  m,
		ch: make(chan Session, 1),
	}
	sub.ch <- m.current.clone()

	if m.closed.Load() {
		sub.closeLocked()
		return sub
	}

	m.nextSubID++
	sub.id = m.nextSubID
	m.subscribers[sub.id] = sub
	return sub
}

// C returns the delivery channel. It is closed when the subscription ends.
func (s *Subscription) C() <-chan Session {
	return s.ch
}

// Close ends the subscription. It is safe to call more than once.
func (s *Subscription) Close() {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	delete(s.m.subscribers, s.id)
	s.closeLocked()
}

func (s *Subscription) closeLocked() {
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}

// deliver replaces any undelivered snapshot with snap. Callers hold m.mu, so
// this is the only sender and the second send cannot block.
func (s *Subscription) deliver(snap Session) {
	if s.closed {
		return
	}
	select {
	case s.ch <- snap:
		return
	default:
	}

	select {
	case <-s.ch:
	default:
	}
	select {
	case s.ch <- snap:
	default:
	}
}
