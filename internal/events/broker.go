// Package events provides the engine's pub/sub fan-out. The engine
// publishes lifecycle events (cycle completion, cache clears, applied
// suggestions) and hosts subscribe to drive status displays without
// coupling to engine internals.
package events

import "sync"

// Broker manages event distribution. Publishing never blocks: a
// subscriber whose channel is full misses that event, which is
// acceptable for the advisory events carried here.
type Broker struct {
	subscribers map[Type][]chan Event
	owned       map[<-chan Event]chan Event
	mu          sync.RWMutex
	bufferSize  int
}

// NewBroker creates a new event broker.
func NewBroker() *Broker {
	return &Broker{
		subscribers: make(map[Type][]chan Event),
		owned:       make(map[<-chan Event]chan Event),
		bufferSize:  16,
	}
}

// Subscribe creates a subscription to specific event types. With no
// types given, the subscription receives every event.
func (b *Broker) Subscribe(types ...Type) <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, b.bufferSize)
	b.owned[ch] = ch

	if len(types) == 0 {
		types = []Type{typeWildcard}
	}
	for _, t := range types {
		b.subscribers[t] = append(b.subscribers[t], ch)
	}

	return ch
}

// Unsubscribe removes a subscription and closes its channel. A channel
// registered under several types is unlinked from all of them and
// closed once.
func (b *Broker) Unsubscribe(ch <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	sendCh, ok := b.owned[ch]
	if !ok {
		return
	}
	delete(b.owned, ch)

	for t, subs := range b.subscribers {
		for i, c := range subs {
			if c == sendCh {
				b.subscribers[t] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
		if len(b.subscribers[t]) == 0 {
			delete(b.subscribers, t)
		}
	}

	close(sendCh)
}

// Publish sends an event to all matching subscribers.
func (b *Broker) Publish(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subscribers[event.Type] {
		select {
		case ch <- event:
		default:
		}
	}
	for _, ch := range b.subscribers[typeWildcard] {
		select {
		case ch <- event:
		default:
		}
	}
}

// Clear drops every subscription, closing all channels.
func (b *Broker) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.owned {
		close(ch)
	}
	b.subscribers = make(map[Type][]chan Event)
	b.owned = make(map[<-chan Event]chan Event)
}
