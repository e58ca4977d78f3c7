package dashboard

import (
	"encoding/json"
	"log/slog"

	"github.com/chenhm/gitlab-ci-monitor/internal/monitor"
)

// Subscriber abstracts a connected dashboard.
type Subscriber interface {
	Send([]byte) error
	Close()
}

// Hub fans every render frame out to all connected dashboards. There is one
// board stream; subscribers come and go with browser connections.
type Hub struct {
	subscribers map[Subscriber]struct{}
	register    chan Subscriber
	unreg       chan Subscriber
	broadcast   chan []byte
	log         *slog.Logger
}

// NewHub creates a running Hub.
func NewHub(log *slog.Logger) *Hub {
	h := &Hub{
		subscribers: make(map[Subscriber]struct{}),
		register:    make(chan Subscriber),
		unreg:       make(chan Subscriber),
		broadcast:   make(chan []byte),
		log:         log,
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case sub := <-h.register:
			h.subscribers[sub] = struct{}{}
		case sub := <-h.unreg:
			delete(h.subscribers, sub)
		case payload := <-h.broadcast:
			for sub := range h.subscribers {
				if err := sub.Send(payload); err != nil {
					sub.Close()
					delete(h.subscribers, sub)
				}
			}
		}
	}
}

// Register adds a dashboard to the board stream.
func (h *Hub) Register(sub Subscriber) {
	h.register <- sub
}

// Unregister removes a dashboard.
func (h *Hub) Unregister(sub Subscriber) {
	h.unreg <- sub
}

// Publish implements monitor.Publisher by broadcasting the frame as JSON.
func (h *Hub) Publish(frame monitor.Frame) {
	payload, err := json.Marshal(frame)
	if err != nil {
		h.log.Error("frame marshal failed", "error", err)
		return
	}
	h.broadcast <- payload
}
