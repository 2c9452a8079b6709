package httpapi

import (
	"sync"

	"github.com/felixgeelhaar/learnroad/pkg/domain/learning"
)

// Hub fans plan events out to connected stream clients. Slow clients drop
// events rather than block publishers.
type Hub struct {
	mu      sync.RWMutex
	clients map[chan learning.ProgressEvent]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[chan learning.ProgressEvent]struct{})}
}

func (h *Hub) Publish(e learning.ProgressEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.clients {
		select {
		case ch <- e:
		default:
		}
	}
}

// Subscribe returns a channel of future events and a func that releases it.
func (h *Hub) Subscribe() (<-chan learning.ProgressEvent, func()) {
	ch := make(chan learning.ProgressEvent, 64)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.clients, ch)
			h.mu.Unlock()
			close(ch)
		})
	}
}

func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
