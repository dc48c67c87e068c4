package live

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trafficlens/congestion/pkg/congestion"
)

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/live" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.ClientCount() == n }, 2*time.Second, 10*time.Millisecond)
}

func TestHubBroadcast(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(NewHandler(hub))
	defer srv.Close()

	watcher := dial(t, srv, "?name=highway.mp4")
	other := dial(t, srv, "?name=junction.mp4")
	waitForClients(t, hub, 2)

	assert.True(t, hub.HasClients("highway.mp4"))
	assert.False(t, hub.HasClients("nothing.mp4"))

	res := &congestion.FrameResult{Frame: 12, VehicleCount: 8, IsCongested: true, MeanInstantSpeed: 40}
	hub.Broadcast("highway.mp4", res)

	watcher.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := watcher.ReadMessage()
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, "highway.mp4", msg.Video)
	require.NotNil(t, msg.Result)
	assert.Equal(t, 12, msg.Result.Frame)
	assert.True(t, msg.Result.IsCongested)

	// the other viewer watches a different video and must get nothing
	other.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	_, _, err = other.ReadMessage()
	assert.Error(t, err)
}

func TestHubUnregisterOnClose(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(NewHandler(hub))
	defer srv.Close()

	conn := dial(t, srv, "?name=a.mp4")
	waitForClients(t, hub, 1)

	conn.Close()
	waitForClients(t, hub, 0)
	assert.False(t, hub.HasClients("a.mp4"))
}

func TestHandlerRequiresName(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(NewHandler(hub))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/ws/live")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestBroadcastWithoutClients(t *testing.T) {
	hub := NewHub()
	hub.Broadcast("empty.mp4", &congestion.FrameResult{Frame: 1})
	assert.Zero(t, hub.ClientCount())
}
