package service

import (
	"encoding/json"
	"sync"
	"time"
)

// EventType represents the type of event
type EventType string

const (
	// Connection events
	EventConnected     EventType = "connection.connected"
	EventConnectFailed EventType = "connection.failed"
	EventHealth        EventType = "connection.health"

	// System events
	EventHeartbeat EventType = "heartbeat"
)

// Event represents a server-sent event
type Event struct {
	Type EventType   `json:"type"`
	Data interface{} `json:"data"`
}

// Format returns the SSE formatted string
func (e *Event) Format() string {
	data, _ := json.Marshal(e.Data)
	return "event: " + string(e.Type) + "\ndata: " + string(data) + "\n\n"
}

// EventPublisher accepts events for broadcast
type EventPublisher interface {
	Publish(event *Event)
}

// Subscriber represents a connected SSE client
type Subscriber struct {
	ID     string
	Events chan *Event
	Done   chan struct{}
}

// EventHubConfig holds configuration for the event hub
type EventHubConfig struct {
	Heartbeat time.Duration // default 30s
	Buffer    int           // per-subscriber queue, default 100
}

// EventHub fans connection lifecycle events out to SSE subscribers. A
// subscriber whose queue is full misses events rather than blocking
// publishers.
type EventHub struct {
	mu          sync.RWMutex
	subscribers map[string]*Subscriber
	buffer      int
	heartbeat   *time.Ticker
	done        chan struct{}
	closeOnce   sync.Once
}

// NewEventHub creates a new event hub
func NewEventHub(cfg EventHubConfig) *EventHub {
	if cfg.Heartbeat <= 0 {
		cfg.Heartbeat = 30 * time.Second
	}
	if cfg.Buffer <= 0 {
		cfg.Buffer = 100
	}
	hub := &EventHub{
		subscribers: make(map[string]*Subscriber),
		buffer:      cfg.Buffer,
		heartbeat:   time.NewTicker(cfg.Heartbeat),
		done:        make(chan struct{}),
	}
	go hub.sendHeartbeats()
	return hub
}

// Subscribe adds a new subscriber
func (h *EventHub) Subscribe(subscriberID string) *Subscriber {
	h.mu.Lock()
	defer h.mu.Unlock()

	sub := &Subscriber{
		ID:     subscriberID,
		Events: make(chan *Event, h.buffer),
		Done:   make(chan struct{}),
	}
	h.subscribers[subscriberID] = sub
	return sub
}

// Unsubscribe removes a subscriber
func (h *EventHub) Unsubscribe(subscriberID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if sub, ok := h.subscribers[subscriberID]; ok {
		close(sub.Done)
		close(sub.Events)
		delete(h.subscribers, subscriberID)
	}
}

// Publish sends an event to every subscriber
func (h *EventHub) Publish(event *Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, sub := range h.subscribers {
		select {
		case sub.Events <- event:
		default:
			// Buffer full, skip this subscriber
		}
	}
}

// sendHeartbeats keeps idle streams open through proxies
func (h *EventHub) sendHeartbeats() {
	for {
		select {
		case <-h.heartbeat.C:
			h.Publish(&Event{
				Type: EventHeartbeat,
				Data: map[string]string{
					"timestamp": time.Now().UTC().Format(time.RFC3339),
				},
			})
		case <-h.done:
			return
		}
	}
}

// Close stops the hub and ends every subscription
func (h *EventHub) Close() {
	h.closeOnce.Do(func() {
		close(h.done)
		h.heartbeat.Stop()

		h.mu.Lock()
		defer h.mu.Unlock()
		for id, sub := range h.subscribers {
			close(sub.Done)
			close(sub.Events)
			delete(h.subscribers, id)
		}
	})
}

// SubscriberCount returns the number of subscribers
func (h *EventHub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}
