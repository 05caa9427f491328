package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"chatpulse/internal/core/domain"
	"chatpulse/internal/core/ports"
	"chatpulse/internal/infrastructure/repositories/memory"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestServer(t *testing.T) (*WebSocketServer, ports.ConnectionRegistry, *httptest.Server) {
	t.Helper()
	registry := memory.NewMemoryConnectionRegistry()
	server := NewWebSocketServer(registry, zaptest.NewLogger(t).Sugar())

	httpServer := httptest.NewServer(http.HandlerFunc(server.HandleWebSocket))
	t.Cleanup(httpServer.Close)
	return server, registry, httpServer
}

func dial(t *testing.T, httpServer *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(httpServer.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func streamerMembers(t *testing.T, registry ports.ConnectionRegistry, streamer domain.StreamerID) []domain.ConnectionHandle {
	t.Helper()
	members, err := registry.Members(context.Background(), streamer)
	require.NoError(t, err)
	return members
}

func TestHandleWebSocket_RegisterConnection(t *testing.T) {
	_, registry, httpServer := newTestServer(t)
	conn := dial(t, httpServer)

	err := conn.WriteJSON(map[string]string{
		"action":        "registerConnection",
		"streamer_name": "alice",
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return len(streamerMembers(t, registry, "alice")) == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHandleWebSocket_RegisterRejectsUnexpectedField(t *testing.T) {
	_, registry, httpServer := newTestServer(t)
	conn := dial(t, httpServer)

	err := conn.WriteJSON(map[string]string{
		"action":        "registerConnection",
		"streamer_name": "alice",
		"extra":         "nope",
	})
	require.NoError(t, err)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var reply map[string]string
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, "error", reply["action"])
	assert.Contains(t, reply["message"], "unexpected field")

	assert.Empty(t, streamerMembers(t, registry, "alice"))
}

func TestHandleWebSocket_RegisterRejectsInvalidStreamerName(t *testing.T) {
	_, registry, httpServer := newTestServer(t)
	conn := dial(t, httpServer)

	require.NoError(t, conn.WriteJSON(map[string]string{
		"action":        "registerConnection",
		"streamer_name": "not a login!",
	}))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var reply map[string]string
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, "error", reply["action"])

	assert.Empty(t, streamerMembers(t, registry, "not a login!"))
}

func TestHandleWebSocket_PingPong(t *testing.T) {
	_, _, httpServer := newTestServer(t)
	conn := dial(t, httpServer)

	require.NoError(t, conn.WriteJSON(map[string]string{"action": "ping"}))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var reply ClientMessage
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, "pong", reply.Action)
}

func TestHandleWebSocket_PingRejectsExtraFields(t *testing.T) {
	_, _, httpServer := newTestServer(t)
	conn := dial(t, httpServer)

	require.NoError(t, conn.WriteJSON(map[string]string{
		"action":        "ping",
		"streamer_name": "alice",
	}))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var reply map[string]string
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, "error", reply["action"])
}

func TestHandleWebSocket_UnknownAction(t *testing.T) {
	_, _, httpServer := newTestServer(t)
	conn := dial(t, httpServer)

	require.NoError(t, conn.WriteJSON(map[string]string{"action": "selfDestruct"}))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var reply map[string]string
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, "error", reply["action"])
	assert.Contains(t, reply["message"], "unknown action")
}

func TestHandleWebSocket_DisconnectDeregisters(t *testing.T) {
	_, registry, httpServer := newTestServer(t)
	conn := dial(t, httpServer)

	require.NoError(t, conn.WriteJSON(map[string]string{
		"action":        "registerConnection",
		"streamer_name": "alice",
	}))
	require.Eventually(t, func() bool {
		return len(streamerMembers(t, registry, "alice")) == 1
	}, 2*time.Second, 10*time.Millisecond)

	conn.Close()

	require.Eventually(t, func() bool {
		return len(streamerMembers(t, registry, "alice")) == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSend_DeliversPayload(t *testing.T) {
	server, registry, httpServer := newTestServer(t)
	conn := dial(t, httpServer)

	require.NoError(t, conn.WriteJSON(map[string]string{
		"action":        "registerConnection",
		"streamer_name": "alice",
	}))

	var handle domain.ConnectionHandle
	require.Eventually(t, func() bool {
		members := streamerMembers(t, registry, "alice")
		if len(members) != 1 {
			return false
		}
		handle = members[0]
		return true
	}, 2*time.Second, 10*time.Millisecond)

	payload := json.RawMessage(`{"type":"nlp_processed_message","data":{"message_text":"hi"}}`)
	require.NoError(t, server.Send(context.Background(), handle, payload))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, string(payload), string(data))
}

func TestSend_UnknownHandle(t *testing.T) {
	server, _, _ := newTestServer(t)

	err := server.Send(context.Background(), "no-such-handle", json.RawMessage(`{}`))
	assert.ErrorIs(t, err, domain.ErrConnectionNotFound)
}
