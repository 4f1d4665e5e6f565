package live

import (
	"strings"
	"sync"
)

// Bus is an in-process publish/subscribe dispatcher behind the live query
// surface. Subscriptions are keyed by topic and return an explicit
// disposer; there is no implicit teardown.
type Bus struct {
	mu   sync.RWMutex
	subs map[int]*subscription
	next int
}

type subscription struct {
	pattern string
	ch      chan Event
}

// matches applies the subscription pattern: a pattern ending in "." is a
// namespace wildcard, anything else must equal the topic exactly. Plain
// prefix matching would bleed events across ids that extend one another
// ("chat.a:b" vs "chat.a:bc").
func (s *subscription) matches(topic string) bool {
	if strings.HasSuffix(s.pattern, ".") {
		return strings.HasPrefix(topic, s.pattern)
	}
	return topic == s.pattern
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{
		subs: make(map[int]*subscription),
	}
}

// Publish delivers the event to every subscriber whose pattern matches the
// event topic. Delivery is non-blocking: a subscriber that cannot keep up
// loses events rather than stalling committers.
func (b *Bus) Publish(evt Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.subs {
		if sub.matches(evt.Topic) {
			select {
			case sub.ch <- evt:
			default:
			}
		}
	}
}

// Subscribe registers interest in one topic, or in a whole namespace when
// pattern ends with "." (e.g. "user."). bufSize controls the channel
// buffer. The returned disposer releases the subscription; it is safe to
// call more than once.
func (b *Bus) Subscribe(pattern string, bufSize int) (<-chan Event, func()) {
	ch := make(chan Event, bufSize)
	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = &subscription{pattern: pattern, ch: ch}
	b.mu.Unlock()

	return ch, func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

// SubscriberCount returns the number of live subscriptions.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
