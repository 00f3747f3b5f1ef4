package worker

import (
	"sync"

	"github.com/mkovtun/study-tracker/internal/models"
)

// subscriber receives the task events it is allowed to see. Students get
// their own events, admins get everything.
type subscriber struct {
	userID string
	admin  bool
	events chan *models.TaskEvent
}

// Hub fans task events out to live stream subscribers. It is strictly
// process-local; the durable leg of event delivery is RabbitMQ.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[*subscriber]struct{}
}

func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[*subscriber]struct{}),
	}
}

// Subscribe registers a stream and returns its event channel plus an
// unsubscribe function. The caller must call unsubscribe when the
// connection tears down.
func (h *Hub) Subscribe(userID string, admin bool) (<-chan *models.TaskEvent, func()) {
	sub := &subscriber{
		userID: userID,
		admin:  admin,
		events: make(chan *models.TaskEvent, 16),
	}

	h.mu.Lock()
	h.subscribers[sub] = struct{}{}
	h.mu.Unlock()

	unsubscribe := func() {
		h.mu.Lock()
		if _, ok := h.subscribers[sub]; ok {
			delete(h.subscribers, sub)
			close(sub.events)
		}
		h.mu.Unlock()
	}

	return sub.events, unsubscribe
}

// Broadcast delivers an event to every matching subscriber. Slow
// consumers are skipped rather than blocking the hub.
func (h *Hub) Broadcast(event *models.TaskEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subscribers {
		if !sub.admin && sub.userID != event.UserID {
			continue
		}
		select {
		case sub.events <- event:
		default:
		}
	}
}

func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}
