package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvent_Format(t *testing.T) {
	t.Parallel()
	e := &Event{Type: EventHealth, Data: map[string]bool{"ok": true}}

	assert.Equal(t, "event: connection.health\ndata: {\"ok\":true}\n\n", e.Format())
}

func TestEventHub_PublishReachesEverySubscriber(t *testing.T) {
	t.Parallel()
	hub := NewEventHub(EventHubConfig{Heartbeat: time.Hour})
	defer hub.Close()

	a := hub.Subscribe("a")
	b := hub.Subscribe("b")
	require.Equal(t, 2, hub.SubscriberCount())

	hub.Publish(&Event{Type: EventConnected})

	assert.Equal(t, EventConnected, (<-a.Events).Type)
	assert.Equal(t, EventConnected, (<-b.Events).Type)
}

func TestEventHub_FullQueueDropsEvents(t *testing.T) {
	t.Parallel()
	hub := NewEventHub(EventHubConfig{Heartbeat: time.Hour, Buffer: 1})
	defer hub.Close()
	sub := hub.Subscribe("slow")

	hub.Publish(&Event{Type: EventConnected})
	hub.Publish(&Event{Type: EventConnectFailed})

	assert.Equal(t, EventConnected, (<-sub.Events).Type)
	assert.Empty(t, sub.Events)
}

func TestEventHub_Unsubscribe(t *testing.T) {
	t.Parallel()
	hub := NewEventHub(EventHubConfig{Heartbeat: time.Hour})
	defer hub.Close()
	sub := hub.Subscribe("gone")

	hub.Unsubscribe("gone")
	hub.Unsubscribe("gone")

	assert.Zero(t, hub.SubscriberCount())
	_, open := <-sub.Events
	assert.False(t, open)
	hub.Publish(&Event{Type: EventConnected})
}

func TestEventHub_Heartbeat(t *testing.T) {
	t.Parallel()
	hub := NewEventHub(EventHubConfig{Heartbeat: 10 * time.Millisecond})
	defer hub.Close()
	sub := hub.Subscribe("idle")

	select {
	case e := <-sub.Events:
		assert.Equal(t, EventHeartbeat, e.Type)
	case <-time.After(time.Second):
		t.Fatal("no heartbeat")
	}
}

func TestEventHub_CloseEndsSubscriptions(t *testing.T) {
	t.Parallel()
	hub := NewEventHub(EventHubConfig{Heartbeat: time.Hour})
	sub := hub.Subscribe("x")

	hub.Close()
	hub.Close()

	<-sub.Done
	assert.Zero(t, hub.SubscriberCount())
	hub.Unsubscribe("x")
}
