package ws

import (
	"context"
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

func startHub(t *testing.T, origin string, opts ...HubOption) (*Hub, *httptest.Server) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(origin, opts...)
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeWs(hub, w, r)
	}))
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, header http.Header) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	return websocket.DefaultDialer.Dial(url, header)
}

func TestPublishReachesClients(t *testing.T) {
	counts := make(chan int, 8)
	hub, srv := startHub(t, "*", WithClientCountHook(func(n int) { counts <- n }))

	conn, _, err := dial(t, srv, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, <-counts)

	hub.Publish(EventReaction, map[string]any{"id": 7, "type": "love"})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg struct {
		Type string         `json:"type"`
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, EventReaction, msg.Type)
	assert.EqualValues(t, 7, msg.Data["id"])
	assert.Equal(t, "love", msg.Data["type"])

	conn.Close()
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestOriginCheck(t *testing.T) {
	_, srv := startHub(t, "https://blushbox.example")

	header := http.Header{}
	header.Set("Origin", "https://evil.example")
	_, resp, err := dial(t, srv, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	header.Set("Origin", "https://blushbox.example")
	conn, _, err := dial(t, srv, header)
	require.NoError(t, err)
	conn.Close()
}

func TestPublishWithoutRunningHubDoesNotBlock(t *testing.T) {
	hub := NewHub("*")
	done := make(chan struct{})
	go func() {
		for i := 0; i < 300; i++ {
			hub.Publish(EventReport, map[string]int{"id": i})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked")
	}
}
