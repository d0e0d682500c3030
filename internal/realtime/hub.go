package realtime

import (
	"sync"

	"github.com/google/uuid"

	"github.com/strideworks/coachbridge-backend/internal/platform/logger"
)

// Subscription is an owned handle on one channel's event feed. Close is
// idempotent and guaranteed to detach the subscriber; callers must not
// rely on effect ordering elsewhere for teardown.
type Subscription struct {
	ID      uuid.UUID
	Channel string
	Events  chan Event

	hub       *Hub
	closeOnce sync.Once
}

func (s *Subscription) Close() {
	if s == nil {
		return
	}
	s.closeOnce.Do(func() {
		s.hub.remove(s)
		close(s.Events)
	})
}

type Hub struct {
	mu            sync.RWMutex
	log           *logger.Logger
	subscriptions map[string]map[*Subscription]bool
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		log:           log.With("component", "RealtimeHub"),
		subscriptions: make(map[string]map[*Subscription]bool),
	}
}

func (h *Hub) Subscribe(channel string) *Subscription {
	sub := &Subscription{
		ID:      uuid.New(),
		Channel: channel,
		Events:  make(chan Event, 32),
		hub:     h,
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.subscriptions[channel]
	if !ok {
		subs = make(map[*Subscription]bool)
		h.subscriptions[channel] = subs
	}
	subs[sub] = true

	h.log.Debug("subscribed", "subscription_id", sub.ID, "channel", channel)
	return sub
}

func (h *Hub) remove(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if subs, ok := h.subscriptions[sub.Channel]; ok {
		delete(subs, sub)
		if len(subs) == 0 {
			delete(h.subscriptions, sub.Channel)
		}
	}
	h.log.Debug("unsubscribed", "subscription_id", sub.ID, "channel", sub.Channel)
}

func (h *Hub) Broadcast(evt Event) {
	channel := Channel(evt.ThreadID)

	h.mu.RLock()
	defer h.mu.RUnlock()
	subs, ok := h.subscriptions[channel]
	if !ok {
		return
	}
	for s := range subs {
		select {
		case s.Events <- evt:
		default:
			h.log.Warn("dropping realtime event; subscriber buffer full",
				"subscription_id", s.ID, "channel", channel)
		}
	}
}
