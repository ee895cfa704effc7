package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/sujalbistaa/blushbox/internal/config"
	"github.com/sujalbistaa/blushbox/internal/ws"
)

func TestWriteRateLimit(t *testing.T) {
	router, _ := newTestServer(t, func(c *config.Config) {
		c.Limits.RateLimitRPS = 0.001
		c.Limits.RateLimitBurst = 1
	})

	id := createConfession(t, router, "first", "Sad")

	rec := doRequest(router, http.MethodPost, "/api/confessions", confessionBody("second", "Sad"), nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "Too many requests")

	// Reactions are not rate limited.
	rec = doRequest(router, http.MethodPost, fmt.Sprintf("/api/confessions/%d/react", id), map[string]string{"type": "love"}, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, listConfessions(t, router, ""), 1)
}

func TestIPRateLimiterSweep(t *testing.T) {
	rl := NewIPRateLimiter(rate.Limit(1), 1)
	rl.GetLimiter("192.0.2.1")
	rl.GetLimiter("192.0.2.2")
	require.Equal(t, 2, rl.Len())

	rl.Sweep(time.Hour)
	assert.Equal(t, 2, rl.Len())

	rl.Sweep(-time.Second)
	assert.Equal(t, 0, rl.Len())
}

func TestSecurityHeadersAndRequestID(t *testing.T) {
	router, _ := newTestServer(t)

	rec := doRequest(router, http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "default-src 'self'")
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))

	rec = doRequest(router, http.MethodGet, "/healthz", nil, http.Header{requestIDHeader: {"abc-123"}})
	assert.Equal(t, "abc-123", rec.Header().Get(requestIDHeader))

	rec = doRequest(router, http.MethodGet, "/healthz", nil, http.Header{requestIDHeader: {strings.Repeat("x", 65)}})
	assert.NotEqual(t, strings.Repeat("x", 65), rec.Header().Get(requestIDHeader))
}

func TestCORSConfig(t *testing.T) {
	wildcard := corsConfig("*")
	assert.True(t, wildcard.AllowAllOrigins)
	assert.False(t, wildcard.AllowCredentials)

	pinned := corsConfig("https://blushbox.example")
	assert.False(t, pinned.AllowAllOrigins)
	assert.Equal(t, []string{"https://blushbox.example"}, pinned.AllowOrigins)
	assert.True(t, pinned.AllowCredentials)
}

func TestFrontendFallback(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>blushbox</html>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log('hi')"), 0o644))

	router, _ := newTestServer(t, func(c *config.Config) { c.StaticDir = dir })

	rec := doRequest(router, http.MethodGet, "/app.js", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "console.log")

	rec = doRequest(router, http.MethodGet, "/mood/Sad", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "blushbox")

	rec = doRequest(router, http.MethodGet, "/api/missing", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Not found"}`, rec.Body.String())
}

func TestWebsocketReceivesNewConfession(t *testing.T) {
	router, env := newTestServer(t)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return env.Hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	id := createConfession(t, router, "live", "Love")

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg struct {
		Type string `json:"type"`
		Data struct {
			ID      uint   `json:"id"`
			Content string `json:"content"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, ws.EventNewConfession, msg.Type)
	assert.Equal(t, id, msg.Data.ID)
	assert.Equal(t, "live", msg.Data.Content)
}
