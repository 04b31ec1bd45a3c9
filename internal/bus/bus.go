package bus

import (
	"sync"
	"time"
)

// Broadcast is an unsolicited message fanned out to every subscriber:
// chat gateways, the UI surface, and any test harness. It exists
// because a search flow has more logical steps than the one response
// callback the request/response cycle allows.
type Broadcast struct {
	SessionID string
	Text      string
	Timestamp time.Time
}

// Handler processes a broadcast. Fire and forget, no return value.
type Handler func(Broadcast)

// SubscriptionID uniquely identifies a subscription.
type SubscriptionID uint64

type subscription struct {
	id      SubscriptionID
	handler Handler
}

// Bus fans broadcasts out to all subscribers. Handlers run
// synchronously in subscription order, so broadcasts from one flow are
// delivered in the order they were published. Interleaving with
// broadcasts from unrelated flows is not guaranteed.
type Bus struct {
	mu     sync.RWMutex
	subs   []subscription
	nextID SubscriptionID
}

func New() *Bus {
	return &Bus{}
}

// Subscribe registers a handler and returns an ID for Unsubscribe.
func (b *Bus) Subscribe(handler Handler) SubscriptionID {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	b.subs = append(b.subs, subscription{id: b.nextID, handler: handler})
	return b.nextID
}

// Unsubscribe removes a subscription by its ID.
// Returns true if the subscription was found and removed.
func (b *Bus) Unsubscribe(id SubscriptionID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, sub := range b.subs {
		if sub.id == id {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			return true
		}
	}
	return false
}

// Publish delivers the broadcast to every subscriber. A panicking
// handler is swallowed so one bad subscriber cannot break the flow.
func (b *Bus) Publish(sessionID, text string) {
	msg := Broadcast{
		SessionID: sessionID,
		Text:      text,
		Timestamp: time.Now(),
	}

	b.mu.RLock()
	subs := make([]subscription, len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	for _, sub := range subs {
		func() {
			defer func() { _ = recover() }()
			sub.handler(msg)
		}()
	}
}

// Count returns the number of active subscribers.
func (b *Bus) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
