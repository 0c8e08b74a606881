package handler

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aiplsaur/APIMongoDB/internal/database"
	"github.com/aiplsaur/APIMongoDB/internal/model"
	"github.com/aiplsaur/APIMongoDB/internal/service"
	"github.com/aiplsaur/APIMongoDB/internal/testing/helpers"
	"github.com/aiplsaur/APIMongoDB/internal/testing/testdb"
)

// readEvent returns the next "event:" name from an SSE stream
func readEvent(t *testing.T, r *bufio.Reader) string {
	t.Helper()
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		if name, ok := strings.CutPrefix(strings.TrimSpace(line), "event: "); ok {
			return name
		}
	}
}

func TestEvents_StreamsConnectOutcomes(t *testing.T) {
	t.Parallel()

	m := database.NewManager(database.ManagerConfig{Logger: testdb.QuietLogger()})
	t.Cleanup(func() { _ = m.Close(context.Background()) })
	hub := service.NewEventHub(service.EventHubConfig{Heartbeat: time.Hour})
	t.Cleanup(hub.Close)

	api := NewRouter(RouterConfig{
		Connections: service.NewConnectionService(service.ConnectionServiceConfig{Manager: m, Events: hub}),
		Checker:     m,
		Logger:      testdb.QuietLogger(),
		Events:      hub,
	})
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/connection/events", nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	stream := bufio.NewReader(resp.Body)
	require.Equal(t, "subscribed", readEvent(t, stream))

	ok := helpers.NewRequest(t, http.MethodPost, "/api/connection").
		WithBody(model.ConnectRequest{ConnectionString: testdb.MemoryURI}).
		Do(api)
	helpers.AssertStatus(t, ok, http.StatusOK)
	assert.Equal(t, string(service.EventConnected), readEvent(t, stream))

	failed := helpers.NewRequest(t, http.MethodPost, "/api/connection").
		WithBody(model.ConnectRequest{ConnectionString: "invalid"}).
		Do(api)
	helpers.AssertStatus(t, failed, http.StatusOK)
	assert.Equal(t, string(service.EventConnectFailed), readEvent(t, stream))
}

func TestEvents_RouteAbsentWithoutHub(t *testing.T) {
	t.Parallel()

	resp := helpers.NewRequest(t, http.MethodGet, "/api/connection/events").Do(disconnectedAPI())

	helpers.AssertEnvelopeError(t, resp, http.StatusNotFound, "Not Found")
}
