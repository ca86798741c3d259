package ui

import (
	"log/slog"
	"sync"

	"github.com/mr1hm/go-emergency-alerts/internal/metrics"
)

// subscriberBuffer is how many events a page may fall behind before the
// hub starts dropping events for it.
const subscriberBuffer = 100

// subscriber is one open event stream.
type subscriber struct {
	client  string
	events  chan Event
	dropped uint64 // guarded by Hub.mu
}

// Hub fans UI events out to every connected page. A page that stops reading
// loses events rather than stalling the presenter; the loss is counted per
// page and reported when the page goes away.
type Hub struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[uint64]*subscriber
}

func NewHub() *Hub {
	return &Hub{subs: make(map[uint64]*subscriber)}
}

// Subscribe opens a stream for client, usually the page's remote address.
func (h *Hub) Subscribe(client string) (uint64, <-chan Event) {
	s := &subscriber{client: client, events: make(chan Event, subscriberBuffer)}

	h.mu.Lock()
	h.nextID++
	id := h.nextID
	h.subs[id] = s
	n := len(h.subs)
	h.mu.Unlock()

	metrics.UISubscribers.Set(float64(n))
	return id, s.events
}

func (h *Hub) Unsubscribe(id uint64) {
	h.mu.Lock()
	s, ok := h.subs[id]
	if ok {
		delete(h.subs, id)
		close(s.events)
	}
	n := len(h.subs)
	h.mu.Unlock()

	if ok {
		metrics.UISubscribers.Set(float64(n))
		s.report(id)
	}
}

func (h *Hub) Broadcast(e Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, s := range h.subs {
		select {
		case s.events <- e:
		default:
			s.dropped++
			metrics.UIEventsDropped.Inc()
		}
	}
}

// SubscriberCount reports open streams for the health endpoint.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close ends every open stream.
func (h *Hub) Close() {
	h.mu.Lock()
	subs := h.subs
	h.subs = make(map[uint64]*subscriber)
	for _, s := range subs {
		close(s.events)
	}
	h.mu.Unlock()

	metrics.UISubscribers.Set(0)
	for id, s := range subs {
		s.report(id)
	}
}

func (s *subscriber) report(id uint64) {
	if s.dropped == 0 {
		return
	}
	slog.Warn("event stream fell behind", "subscriber", id, "client", s.client, "dropped", s.dropped)
}
