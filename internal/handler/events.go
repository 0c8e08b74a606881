package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/aiplsaur/APIMongoDB/internal/service"
)

// EventsHandler handles SSE event streaming
type EventsHandler struct {
	eventHub *service.EventHub
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(eventHub *service.EventHub) *EventsHandler {
	return &EventsHandler{
		eventHub: eventHub,
	}
}

// Stream handles GET /api/connection/events. It streams connect outcomes,
// health transitions and heartbeats until the client goes away.
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)

	// Streams outlive the server write timeout
	_ = rc.SetWriteDeadline(time.Time{})

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	subscriberID := uuid.New().String()
	sub := h.eventHub.Subscribe(subscriberID)
	defer h.eventHub.Unsubscribe(subscriberID)

	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "event: subscribed\ndata: {\"subscriberId\":\"%s\"}\n\n", subscriberID)
	if err := rc.Flush(); err != nil {
		return
	}

	for {
		select {
		case event, ok := <-sub.Events:
			if !ok {
				return
			}
			fmt.Fprint(w, event.Format())
			if err := rc.Flush(); err != nil {
				return
			}

		case <-sub.Done:
			return

		case <-r.Context().Done():
			// Client disconnected
			return
		}
	}
}
