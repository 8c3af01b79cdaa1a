// Package websocket connects clients to the relay: it accepts WebSocket
// upgrades, runs one session per connection, and routes inbound text frames
// to the topic directory.
package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/coder/websocket"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/nfrund/topical/internal/pubsub"
	"github.com/nfrund/topical/internal/relay"
)

// Bridge manages all WebSocket sessions and ties them to the topic directory
// and the lifecycle event bus.
type Bridge struct {
	directory  *relay.Directory
	publisher  pubsub.Publisher
	validate   *validator.Validate
	sendBuffer int

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewBridge initializes a new Bridge, ready to handle connections.
func NewBridge(directory *relay.Directory, publisher pubsub.Publisher, sendBuffer int) *Bridge {
	return &Bridge{
		directory:  directory,
		publisher:  publisher,
		validate:   validator.New(),
		sendBuffer: sendBuffer,
		sessions:   make(map[string]*Session),
	}
}

// ServeWS handles a WebSocket upgrade request and runs the session until the
// client disconnects.
func (b *Bridge) ServeWS(c echo.Context) error {
	conn, err := websocket.Accept(c.Response(), c.Request(), &websocket.AcceptOptions{
		// The relay has no origin policy of its own; deployments terminate
		// TLS and enforce origins at the edge.
		InsecureSkipVerify: true,
	})
	if err != nil {
		slog.Error("Failed to upgrade connection to WebSocket", "error", err)
		return nil
	}

	s := &Session{
		id:     uuid.NewString(),
		conn:   conn,
		bridge: b,
		send:   make(chan []byte, b.sendBuffer),
		state:  stateConnected,
	}

	b.add(s)
	b.publishLifecycle(relay.EventSessionConnected, s.id, "", "")
	slog.Info("WebSocket connection accepted", "session_id", s.id, "remote", c.Request().RemoteAddr)

	go s.writePump()
	s.readPump(c.Request().Context())
	return nil
}

func (b *Bridge) add(s *Session) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sessions[s.id] = s
}

func (b *Bridge) remove(s *Session) {
	b.mu.Lock()
	_, present := b.sessions[s.id]
	delete(b.sessions, s.id)
	b.mu.Unlock()

	if present {
		b.publishLifecycle(relay.EventSessionDisconnected, s.id, "", "")
	}
}

// SessionCount returns the number of live sessions.
func (b *Bridge) SessionCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.sessions)
}

// CloseAll disconnects every session, used during server shutdown.
func (b *Bridge) CloseAll() {
	b.mu.RLock()
	sessions := make([]*Session, 0, len(b.sessions))
	for _, s := range b.sessions {
		sessions = append(sessions, s)
	}
	b.mu.RUnlock()

	for _, s := range sessions {
		s.close("server shutting down")
	}
}

// publishLifecycle emits a session lifecycle event on the bus. Failures are
// logged and swallowed; presence is advisory and must never affect sessions.
func (b *Bridge) publishLifecycle(event, sessionID, username, topic string) {
	payload, err := json.Marshal(struct {
		SessionID string `json:"sessionID"`
		Username  string `json:"username,omitempty"`
		Topic     string `json:"topic,omitempty"`
	}{SessionID: sessionID, Username: username, Topic: topic})
	if err != nil {
		return
	}

	msg := pubsub.Message{
		Topic:     event,
		SessionID: sessionID,
		Payload:   payload,
	}
	if err := b.publisher.Publish(context.Background(), msg); err != nil {
		slog.Error("Failed to publish lifecycle event", "event", event, "session_id", sessionID, "error", err)
	}
}
