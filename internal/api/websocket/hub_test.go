package websocket

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
)

func startHub(t *testing.T, origins ...string) (*Hub, string) {
	t.Helper()
	hub := NewHub(origins, nil)
	go hub.Run()
	t.Cleanup(hub.Stop)

	server := httptest.NewServer(http.HandlerFunc(hub.ServeWs))
	t.Cleanup(server.Close)
	return hub, "ws" + strings.TrimPrefix(server.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, message, err := conn.ReadMessage()
	require.NoError(t, err)
	var ev Event
	require.NoError(t, json.Unmarshal(message, &ev))
	return ev
}

func TestHub_BroadcastWithoutClients(t *testing.T) {
	hub := NewHub(nil, nil)
	go hub.Run()
	defer hub.Stop()

	assert.Equal(t, 0, hub.ClientCount())
	assert.True(t, hub.BroadcastEvent(Event{Type: "simulation:queued"}))
}

func TestHub_PublishReachesClients(t *testing.T) {
	hub, url := startHub(t)

	conns := []*websocket.Conn{dial(t, url), dial(t, url), dial(t, url)}
	require.Eventually(t, func() bool { return hub.ClientCount() == 3 }, time.Second, 5*time.Millisecond)

	hub.Publish("simulation:progress", map[string]int{"done": 10, "total": 100})

	for _, conn := range conns {
		ev := readEvent(t, conn)
		assert.Equal(t, "simulation:progress", ev.Type)
		data, ok := ev.Data.(map[string]any)
		require.True(t, ok)
		assert.Equal(t, 10.0, data["done"])
	}
}

func TestHub_ClientDisconnect(t *testing.T) {
	hub, url := startHub(t)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
}

func TestHub_Stop(t *testing.T) {
	hub, url := startHub(t)
	conn := dial(t, url)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	hub.Stop()
	hub.Stop()
	require.Eventually(t, hub.IsStopped, time.Second, 5*time.Millisecond)
	assert.False(t, hub.BroadcastEvent(Event{Type: "late"}))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}

func TestMatchOrigin(t *testing.T) {
	assert.True(t, matchOrigin("http://localhost:*", "http://localhost:5173"))
	assert.True(t, matchOrigin("http://localhost:5173", "http://localhost:5173"))
	assert.False(t, matchOrigin("http://localhost:*", "http://evil.example"))
	assert.False(t, matchOrigin("https://localhost:*", "http://localhost:5173"))
}

func TestHub_RejectsForeignOrigin(t *testing.T) {
	_, url := startHub(t, "http://localhost:*")

	header := http.Header{"Origin": []string{"http://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	header.Set("Origin", "http://localhost:5173")
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	_ = conn.Close()
}
