// Package events implements spec §9's replacement for the source's
// channel-object listener cycles: montages publish typed
// ChannelMutation events to subscribers instead of a channel holding a
// back-pointer to its containing montage. Subscription is keyed by
// (callerID, topic), mirroring the registry + "remove all handlers
// added by X" pattern §9 calls for — grounded on the teacher's
// wsClients/broadcastJSON shape in server.go (a mutex-guarded
// subscriber map walked under RLock to deliver).
package events

import "sync"

// ChannelMutation is published whenever a montage channel's
// configuration changes in a way that invalidates downstream signal
// values (active/reference set, averaging, or filter).
type ChannelMutation struct {
	Montage string
	Channel string
	Reason  string
}

// Handler receives a published mutation. Handlers run synchronously on
// the publisher's goroutine, one after another, after Publish has
// copied the subscriber list and released Bus's lock; a handler that
// blocks indefinitely blocks every later subscriber on the same topic.
type Handler func(ChannelMutation)

type subscription struct {
	callerID string
	handler  Handler
}

// Bus is a topic-keyed registry of subscriptions. The zero value is
// not usable; construct with NewBus.
type Bus struct {
	mu   sync.RWMutex
	subs map[string][]subscription
}

// NewBus constructs an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[string][]subscription)}
}

// Subscribe registers handler under topic, attributed to callerID so a
// later RemoveAllFor(callerID) can find it. Returns nothing to
// unsubscribe individually by design — callers that need per-handler
// removal should use a distinct callerID per handler.
func (b *Bus) Subscribe(callerID, topic string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[topic] = append(b.subs[topic], subscription{callerID: callerID, handler: handler})
}

// RemoveAllFor unsubscribes every handler callerID registered, across
// every topic (spec §9's "remove all handlers added by X").
func (b *Bus) RemoveAllFor(callerID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for topic, subs := range b.subs {
		filtered := subs[:0:0]
		for _, s := range subs {
			if s.callerID != callerID {
				filtered = append(filtered, s)
			}
		}
		b.subs[topic] = filtered
	}
}

// Publish delivers mutation to every handler subscribed to topic, in
// registration order.
func (b *Bus) Publish(topic string, mutation ChannelMutation) {
	b.mu.RLock()
	subs := append([]subscription(nil), b.subs[topic]...)
	b.mu.RUnlock()
	for _, s := range subs {
		s.handler(mutation)
	}
}

// TopicForMontage returns the canonical topic name a montage's
// mutations are published under, so publishers and subscribers agree
// without a shared constant.
func TopicForMontage(montageName string) string {
	return "montage:" + montageName
}
