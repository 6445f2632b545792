// Package session implements the in-memory, per-agent-name fan-out that
// bridges persisted sends to live push streams.
package session

import (
	"context"
	"sync"
)

// subscriberBufferSize is the per-subscriber bound on queued events. Once
// full, the oldest queued event for that subscriber is dropped so publish
// never blocks (spec requires drop-oldest, the inverse of the idiomatic
// select-default "drop newest" pattern).
const subscriberBufferSize = 100

// subscriber is a single receiver's mutex-guarded ring buffer. It is its own
// unit of synchronization, independent of the map-level lock in Manager.
type subscriber struct {
	mu     sync.Mutex
	buf    []Event
	notify chan struct{}
	closed bool
}

func newSubscriber() *subscriber {
	return &subscriber{notify: make(chan struct{}, 1)}
}

func (s *subscriber) push(e Event) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if len(s.buf) >= subscriberBufferSize {
		s.buf = s.buf[1:]
	}
	s.buf = append(s.buf, e)
	s.mu.Unlock()
	s.wake()
}

func (s *subscriber) close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.wake()
}

func (s *subscriber) wake() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// recv blocks until an event is available, the subscription is closed, or
// ctx is done.
func (s *subscriber) recv(ctx context.Context) (Event, bool) {
	for {
		s.mu.Lock()
		if len(s.buf) > 0 {
			e := s.buf[0]
			s.buf = s.buf[1:]
			s.mu.Unlock()
			return e, true
		}
		closed := s.closed
		s.mu.Unlock()
		if closed {
			return Event{}, false
		}

		select {
		case <-s.notify:
		case <-ctx.Done():
			return Event{}, false
		}
	}
}

// channel holds all subscribers for one agent name. Its own mutex, not the
// Manager's map lock, guards the subscriber list.
type channel struct {
	mu          sync.Mutex
	subscribers []*subscriber
}

// Manager is an in-memory, name-keyed multi-subscriber fan-out. Only
// creation and removal of a name's channel take the map's writer lock; every
// other operation takes the reader lock to look the channel up, then
// operates on that channel's own lock.
type Manager struct {
	mu       sync.RWMutex
	channels map[string]*channel
}

// NewManager creates an empty session manager.
func NewManager() *Manager {
	return &Manager{channels: make(map[string]*channel)}
}

func (m *Manager) getOrCreate(name string) *channel {
	m.mu.RLock()
	ch, ok := m.channels[name]
	m.mu.RUnlock()
	if ok {
		return ch
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if ch, ok := m.channels[name]; ok {
		return ch
	}
	ch = &channel{}
	m.channels[name] = ch
	return ch
}

// Subscription is a live handle returned by Subscribe. Callers must call
// Close when done.
type Subscription struct {
	name string
	ch   *channel
	sub  *subscriber
}

// Recv blocks until the next event, the subscription is closed, or ctx ends.
func (s *Subscription) Recv(ctx context.Context) (Event, bool) {
	return s.sub.recv(ctx)
}

// Close detaches the subscription from its channel. The channel itself is
// retained even if this was the last subscriber.
func (s *Subscription) Close() {
	s.ch.mu.Lock()
	for i, sub := range s.ch.subscribers {
		if sub == s.sub {
			s.ch.subscribers = append(s.ch.subscribers[:i], s.ch.subscribers[i+1:]...)
			break
		}
	}
	s.ch.mu.Unlock()
	s.sub.close()
}

// Subscribe creates the channel for name if absent and returns a new,
// independent subscription. Multiple concurrent subscribers for the same
// name each receive every subsequent event.
func (m *Manager) Subscribe(name string) *Subscription {
	ch := m.getOrCreate(name)
	sub := newSubscriber()

	ch.mu.Lock()
	ch.subscribers = append(ch.subscribers, sub)
	ch.mu.Unlock()

	return &Subscription{name: name, ch: ch, sub: sub}
}

// IsConnected reports whether name has a channel with at least one live
// subscriber.
func (m *Manager) IsConnected(name string) bool {
	m.mu.RLock()
	ch, ok := m.channels[name]
	m.mu.RUnlock()
	if !ok {
		return false
	}

	ch.mu.Lock()
	defer ch.mu.Unlock()
	return len(ch.subscribers) > 0
}

// Notify publishes an event (an agent message or a raw JSON-RPC value, see
// AgentMessageEvent and JSONRPCEvent) to name's subscribers. It returns
// true iff the channel exists and had at least one live receiver at publish
// time.
func (m *Manager) Notify(name string, e Event) bool {
	return m.publish(name, e)
}

func (m *Manager) publish(name string, e Event) bool {
	m.mu.RLock()
	ch, ok := m.channels[name]
	m.mu.RUnlock()
	if !ok {
		return false
	}

	ch.mu.Lock()
	subs := make([]*subscriber, len(ch.subscribers))
	copy(subs, ch.subscribers)
	ch.mu.Unlock()

	if len(subs) == 0 {
		return false
	}
	for _, sub := range subs {
		sub.push(e)
	}
	return true
}

// Remove drops name's channel, terminating existing subscribers on their
// next read. A reconnect after Remove creates a fresh channel.
func (m *Manager) Remove(name string) {
	m.mu.Lock()
	ch, ok := m.channels[name]
	delete(m.channels, name)
	m.mu.Unlock()
	if !ok {
		return
	}

	ch.mu.Lock()
	subs := ch.subscribers
	ch.subscribers = nil
	ch.mu.Unlock()

	for _, sub := range subs {
		sub.close()
	}
}
