package websocket

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/nfrund/topical/internal/metrics"
	"github.com/nfrund/topical/internal/relay"
)

// Time allowed to write a frame to the peer.
const writeWait = 10 * time.Second

type sessionState int

const (
	// stateConnected: transport open, no topic yet.
	stateConnected sessionState = iota
	// stateJoined: transport open, member of exactly one topic.
	stateJoined
	// stateClosed: terminal.
	stateClosed
)

// Session is one connected client: its transport connection, assigned unique
// name, and current topic membership. A session belongs to at most one topic;
// switching topics is leave-then-join, never implicit.
type Session struct {
	id     string
	conn   *websocket.Conn
	bridge *Bridge

	// sendMu guards send against concurrent close. Deliver takes the read
	// lock, close takes the write lock and nils the channel.
	sendMu sync.RWMutex
	send   chan []byte

	// mu guards state, topic, and name.
	mu    sync.Mutex
	state sessionState
	topic *relay.Topic
	name  string

	closeOnce sync.Once
}

// SessionID implements relay.Member.
func (s *Session) SessionID() string {
	return s.id
}

// Deliver enqueues a frame on the session's bounded outbound queue. It never
// blocks: if the queue is full the frame is dropped and the session is
// disconnected asynchronously, so a slow consumer cannot stall a broadcast.
// Implements relay.Member.
func (s *Session) Deliver(payload []byte) {
	s.sendMu.RLock()
	defer s.sendMu.RUnlock()

	// A nil channel means the session is already closed.
	if s.send == nil {
		return
	}

	select {
	case s.send <- payload:
	default:
		metrics.DeliveriesDropped.Inc()
		slog.Warn("Session send queue full, dropping frame and disconnecting", "session_id", s.id)
		go s.close("send queue overflow")
	}
}

// readPump reads frames from the WebSocket connection and routes them. It
// runs in the connection's handler goroutine and returns when the connection
// drops, which triggers the session's cleanup.
func (s *Session) readPump(ctx context.Context) {
	defer s.close("client disconnected")

	for {
		_, payload, err := s.conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				slog.Info("WebSocket closed normally", "session_id", s.id)
			} else if err != io.EOF && ctx.Err() == nil {
				slog.Error("WebSocket read error", "session_id", s.id, "error", err)
			}
			return
		}
		s.bridge.route(s, string(payload))
	}
}

// writePump drains the outbound queue onto the WebSocket connection. A write
// failure means the client is unreachable: the session closes itself, which
// is invisible to whoever issued the broadcast.
func (s *Session) writePump() {
	defer s.conn.Close(websocket.StatusNormalClosure, "server-side cleanup")

	for payload := range s.send {
		ctx, cancel := context.WithTimeout(context.Background(), writeWait)
		err := s.conn.Write(ctx, websocket.MessageText, payload)
		cancel()
		if err != nil {
			slog.Error("WebSocket write error", "session_id", s.id, "error", err)
			go s.close("write failure")
			return
		}
	}
}

// currentTopic returns the session's topic and unique name, or ErrNotJoined
// when the session has not joined one.
func (s *Session) currentTopic() (*relay.Topic, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != stateJoined {
		return nil, "", relay.ErrNotJoined
	}
	return s.topic, s.name, nil
}

// completeJoin records a successful join. It reports false when the session
// closed while the join was in flight; the caller must then undo the
// membership, since close already ran its cleanup without seeing a topic.
func (s *Session) completeJoin(t *relay.Topic, name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == stateClosed {
		return false
	}
	s.topic = t
	s.name = name
	s.state = stateJoined
	return true
}

// close tears the session down exactly once: mark the state terminal and take
// the topic in the same critical section (so a concurrent join either commits
// before this and is observed here, or observes stateClosed and undoes
// itself), then leave the topic, stop the write pump, and unregister from the
// bridge.
func (s *Session) close(reason string) {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		t, name := s.topic, s.name
		s.topic = nil
		s.name = ""
		s.state = stateClosed
		s.mu.Unlock()

		if t != nil {
			s.bridge.directory.Leave(t, s)
			t.Notify(name+" left the topic", nil)
			s.bridge.publishLifecycle(relay.EventSessionLeft, s.id, name, t.Name())
		}

		s.sendMu.Lock()
		if s.send != nil {
			close(s.send)
			s.send = nil
		}
		s.sendMu.Unlock()

		if s.conn != nil {
			s.conn.Close(websocket.StatusNormalClosure, reason)
		}
		s.bridge.remove(s)
	})
}
