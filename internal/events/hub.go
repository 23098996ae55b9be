// Package events fans change notifications out to in-process subscribers,
// most notably the WebSocket stream.
package events

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// ChannelPrefix namespaces every channel name
const ChannelPrefix = "graphsql:ws:"

// subscriberBuffer is how many undelivered messages a subscriber may lag behind
const subscriberBuffer = 64

var ErrHubClosed = errors.New("event hub is closed")

// Publisher sends a message to every subscriber of a channel
type Publisher interface {
	Publish(ctx context.Context, channel string, message []byte) error
}

// Hub is an in-process pub/sub broker.
// Publishing never blocks: a subscriber whose buffer is full misses the message.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[*Subscription]struct{}
	closed bool
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[*Subscription]struct{})}
}

// Subscription receives messages published on its channels until closed
type Subscription struct {
	C        <-chan []byte
	Channels []string

	c    chan []byte
	hub  *Hub
	once sync.Once
}

// Subscribe registers interest in the given channels
func (h *Hub) Subscribe(channels ...string) (*Subscription, error) {
	c := make(chan []byte, subscriberBuffer)
	sub := &Subscription{C: c, Channels: channels, c: c, hub: h}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, ErrHubClosed
	}
	for _, ch := range channels {
		if h.subs[ch] == nil {
			h.subs[ch] = make(map[*Subscription]struct{})
		}
		h.subs[ch][sub] = struct{}{}
	}
	return sub, nil
}

// Close unregisters the subscription and closes its channel. Safe to call twice.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.mu.Lock()
		defer s.hub.mu.Unlock()
		for _, ch := range s.Channels {
			delete(s.hub.subs[ch], s)
			if len(s.hub.subs[ch]) == 0 {
				delete(s.hub.subs, ch)
			}
		}
		close(s.c)
	})
}

func (h *Hub) Publish(ctx context.Context, channel string, message []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return ErrHubClosed
	}
	for sub := range h.subs[channel] {
		select {
		case sub.c <- message:
		default:
			slog.Debug("dropping event for slow subscriber", "channel", channel)
		}
	}
	return nil
}

// Subscribers counts the live subscriptions of a channel
func (h *Hub) Subscribers(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[channel])
}

// Close ends every subscription
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	var all []*Subscription
	seen := make(map[*Subscription]bool)
	for _, subs := range h.subs {
		for sub := range subs {
			if !seen[sub] {
				seen[sub] = true
				all = append(all, sub)
			}
		}
	}
	h.mu.Unlock()

	for _, sub := range all {
		sub.Close()
	}
}
