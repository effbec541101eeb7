package profile

import (
	"log/slog"
	"sync"

	"github.com/athenaeum/moirai/internal/model"
)

// subscriber buffer size; a slow listener drops events rather than
// blocking the writer
const subscriberBuffer = 16

// Hub fans profile change events out to per-user subscribers. It is
// the push half of the store adapter: subscribing returns a channel that
// is closed when the subscription is cancelled.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[model.UserID]map[chan model.Event]struct{}
	logger      *slog.Logger
}

// NewHub creates a new Hub
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		subscribers: make(map[model.UserID]map[chan model.Event]struct{}),
		logger:      logger.With(slog.String("component", "profile_hub")),
	}
}

// Subscribe registers a listener for one user's profile events.
// The returned cancel func closes the channel; it is safe to call twice.
func (h *Hub) Subscribe(userID model.UserID) (<-chan model.Event, func()) {
	ch := make(chan model.Event, subscriberBuffer)

	h.mu.Lock()
	subs, ok := h.subscribers[userID]
	if !ok {
		subs = make(map[chan model.Event]struct{})
		h.subscribers[userID] = subs
	}
	subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			if subs, ok := h.subscribers[userID]; ok {
				delete(subs, ch)
				if len(subs) == 0 {
					delete(h.subscribers, userID)
				}
			}
			h.mu.Unlock()
			close(ch)
		})
	}

	return ch, cancel
}

// Publish delivers an event to every subscriber of its user.
// Sends never block: a full buffer drops the event with a warning.
func (h *Hub) Publish(event model.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subscribers[event.UserID] {
		select {
		case ch <- event:
		default:
			h.logger.Warn("profile event dropped - subscriber buffer full",
				slog.String("user_id", string(event.UserID)),
				slog.String("type", string(event.Type)),
			)
		}
	}
}

// SubscriberCount returns the number of active subscriptions for a user
func (h *Hub) SubscriberCount(userID model.UserID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[userID])
}
