// Package gateway hosts the realtime WebSocket endpoint: connection
// registration, keepalive, and payload delivery to live sockets.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"chatpulse/internal/core/domain"
	"chatpulse/internal/core/ports"
	"chatpulse/pkg/validation"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Should be configured properly for production
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// wsConnection serializes writes: the ping ticker, the reader loop's
// replies, and broadcast deliveries all write to the same socket.
type wsConnection struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsConnection) write(timeout time.Duration, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(timeout))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// ConnectionMetrics receives connection lifecycle counters.
type ConnectionMetrics interface {
	RecordConnectionOpened()
	RecordConnectionClosed()
	RecordRegistration()
}

type WebSocketServer struct {
	registry ports.ConnectionRegistry

	connections map[domain.ConnectionHandle]*wsConnection
	mu          sync.RWMutex

	pingInterval time.Duration
	pongTimeout  time.Duration
	readTimeout  time.Duration
	writeTimeout time.Duration

	metrics ConnectionMetrics
	logger  *zap.SugaredLogger
}

// ClientMessage is one frame from a connected client. Frames carry an
// action plus the fields that action allows, nothing else.
type ClientMessage struct {
	Action       string `json:"action"`
	StreamerName string `json:"streamer_name,omitempty"`
}

const (
	actionRegister = "registerConnection"
	actionPing     = "ping"
	actionPong     = "pong"
)

func NewWebSocketServer(registry ports.ConnectionRegistry, logger *zap.SugaredLogger) *WebSocketServer {
	return &WebSocketServer{
		registry:     registry,
		connections:  make(map[domain.ConnectionHandle]*wsConnection),
		pingInterval: 30 * time.Second,
		pongTimeout:  60 * time.Second,
		readTimeout:  60 * time.Second,
		writeTimeout: 10 * time.Second,
		logger:       logger,
	}
}

// SetMetrics attaches a lifecycle counter sink. Nil disables it.
func (s *WebSocketServer) SetMetrics(metrics ConnectionMetrics) {
	s.metrics = metrics
}

// SetTimeouts overrides the keepalive and IO deadlines.
func (s *WebSocketServer) SetTimeouts(pingInterval, pongTimeout, readTimeout, writeTimeout time.Duration) {
	s.pingInterval = pingInterval
	s.pongTimeout = pongTimeout
	s.readTimeout = readTimeout
	s.writeTimeout = writeTimeout
}

func (s *WebSocketServer) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Errorw("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	// The handle is minted at upgrade time; the client never supplies it.
	handle := domain.ConnectionHandle(uuid.NewString())

	wsc := &wsConnection{conn: conn}
	s.mu.Lock()
	s.connections[handle] = wsc
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.RecordConnectionOpened()
	}
	s.logger.Infow("client connected", "handle", handle)

	conn.SetReadDeadline(time.Now().Add(s.pongTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(s.pongTimeout))
		return nil
	})

	pingTicker := time.NewTicker(s.pingInterval)
	defer pingTicker.Stop()

	messageChan := make(chan json.RawMessage, 10)
	errorChan := make(chan error, 1)

	go func() {
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				errorChan <- err
				return
			}
			conn.SetReadDeadline(time.Now().Add(s.readTimeout))
			messageChan <- json.RawMessage(data)
		}
	}()

	for {
		select {
		case raw := <-messageChan:
			if err := s.handleMessage(r.Context(), handle, wsc, raw); err != nil {
				s.logger.Infow("error handling client message", "handle", handle, "error", err)
				s.sendError(wsc, err.Error())
			}

		case <-pingTicker.C:
			wsc.mu.Lock()
			conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
			err := conn.WriteMessage(websocket.PingMessage, nil)
			wsc.mu.Unlock()
			if err != nil {
				s.logger.Infow("error sending ping", "handle", handle, "error", err)
				goto cleanup
			}

		case err := <-errorChan:
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				s.logger.Infow("error reading client message", "handle", handle, "error", err)
			}
			goto cleanup
		}
	}

cleanup:
	s.mu.Lock()
	delete(s.connections, handle)
	s.mu.Unlock()

	// Deregistration is unconditional: it runs whether or not the
	// client ever sent registerConnection.
	if err := s.registry.Deregister(context.Background(), handle); err != nil {
		s.logger.Warnw("failed to deregister connection", "handle", handle, "error", err)
	}

	if s.metrics != nil {
		s.metrics.RecordConnectionClosed()
	}
	s.logger.Infow("client disconnected", "handle", handle)
}

// handleMessage dispatches one frame. Validation is strict: a frame
// carrying any field its action does not define is rejected whole.
func (s *WebSocketServer) handleMessage(ctx context.Context, handle domain.ConnectionHandle, wsc *wsConnection, raw json.RawMessage) error {
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return fmt.Errorf("malformed message: %w", err)
	}

	var msg ClientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return fmt.Errorf("malformed message: %w", err)
	}
	if msg.Action == "" {
		return fmt.Errorf("action is required")
	}

	switch msg.Action {
	case actionRegister:
		if err := rejectUnexpectedFields(fields, "action", "streamer_name"); err != nil {
			return err
		}
		return s.handleRegister(ctx, handle, msg.StreamerName)

	case actionPing:
		if err := rejectUnexpectedFields(fields, "action"); err != nil {
			return err
		}
		s.handlePing(handle, wsc)
		return nil

	default:
		return fmt.Errorf("unknown action: %s", msg.Action)
	}
}

func rejectUnexpectedFields(fields map[string]json.RawMessage, allowed ...string) error {
	for key := range fields {
		ok := false
		for _, a := range allowed {
			if key == a {
				ok = true
				break
			}
		}
		if !ok {
			return fmt.Errorf("unexpected field: %s", key)
		}
	}
	return nil
}

func (s *WebSocketServer) handleRegister(ctx context.Context, handle domain.ConnectionHandle, streamerName string) error {
	if err := validation.ValidateStreamerLogin(streamerName); err != nil {
		return fmt.Errorf("invalid streamer_name: %w", err)
	}

	if err := s.registry.Register(ctx, domain.StreamerID(streamerName), handle); err != nil {
		return fmt.Errorf("failed to register connection: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordRegistration()
	}
	s.logger.Infow("connection registered", "handle", handle, "streamer", streamerName)
	return nil
}

// handlePing answers with a pong frame. A failed write is logged and
// swallowed; the read deadline will reap a dead socket soon enough.
func (s *WebSocketServer) handlePing(handle domain.ConnectionHandle, wsc *wsConnection) {
	data, _ := json.Marshal(ClientMessage{Action: actionPong})
	if err := wsc.write(s.writeTimeout, data); err != nil {
		s.logger.Infow("failed to send pong", "handle", handle, "error", err)
	}
}

// Send delivers one payload to one live socket. It implements the
// delivery half the broadcaster fans out through.
func (s *WebSocketServer) Send(ctx context.Context, handle domain.ConnectionHandle, payload json.RawMessage) error {
	s.mu.RLock()
	wsc, exists := s.connections[handle]
	s.mu.RUnlock()

	if !exists {
		return fmt.Errorf("handle %s: %w", handle, domain.ErrConnectionNotFound)
	}

	if err := wsc.write(s.writeTimeout, payload); err != nil {
		return fmt.Errorf("failed to write to connection %s: %w", handle, err)
	}
	return nil
}

var _ ports.ConnectionSender = (*WebSocketServer)(nil)

func (s *WebSocketServer) sendError(wsc *wsConnection, message string) {
	data, _ := json.Marshal(map[string]string{
		"action":  "error",
		"message": message,
	})
	if err := wsc.write(s.writeTimeout, data); err != nil {
		s.logger.Debugw("failed to send error frame", "error", err)
	}
}

func (s *WebSocketServer) ConnectedCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.connections)
}
