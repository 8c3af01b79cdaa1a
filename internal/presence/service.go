// Package presence tracks which sessions are currently connected and which
// topic each one occupies, fed by relay lifecycle events on the bus.
package presence

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/nfrund/topical/internal/metrics"
	"github.com/nfrund/topical/internal/pubsub"
	"github.com/nfrund/topical/internal/relay"
)

// Session is one connected client's presence record.
type Session struct {
	SessionID string    `json:"session_id"`
	Username  string    `json:"username,omitempty"`
	Topic     string    `json:"topic,omitempty"`
	Since     time.Time `json:"since"`
}

// Service maintains the set of connected sessions.
type Service struct {
	mu       sync.RWMutex
	sessions map[string]Session
	logger   *slog.Logger
}

// NewService creates the presence service and subscribes it to the relay's
// session lifecycle events.
func NewService(subscriber pubsub.Subscriber) *Service {
	svc := &Service{
		sessions: make(map[string]Session),
		logger:   slog.Default().With("service", "presence"),
	}

	ctx := context.Background()
	subscriptions := map[string]pubsub.Handler{
		relay.EventSessionConnected:    svc.handleConnected,
		relay.EventSessionJoined:       svc.handleJoined,
		relay.EventSessionLeft:         svc.handleLeft,
		relay.EventSessionDisconnected: svc.handleDisconnected,
	}
	for topic, handler := range subscriptions {
		if err := subscriber.Subscribe(ctx, topic, handler); err != nil {
			svc.logger.Error("failed to subscribe to lifecycle events", "topic", topic, "error", err)
		}
	}

	return svc
}

type lifecycleEvent struct {
	SessionID string `json:"sessionID"`
	Username  string `json:"username,omitempty"`
	Topic     string `json:"topic,omitempty"`
}

func (s *Service) handleConnected(ctx context.Context, msg pubsub.Message) error {
	var event lifecycleEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		s.logger.Error("Failed to unmarshal connected event", "error", err)
		return err
	}

	s.mu.Lock()
	s.sessions[event.SessionID] = Session{
		SessionID: event.SessionID,
		Since:     time.Now().UTC(),
	}
	count := len(s.sessions)
	s.mu.Unlock()

	metrics.Sessions.Set(float64(count))
	s.logger.Debug("Session connected", "session_id", event.SessionID, "online", count)
	return nil
}

func (s *Service) handleJoined(ctx context.Context, msg pubsub.Message) error {
	var event lifecycleEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		s.logger.Error("Failed to unmarshal joined event", "error", err)
		return err
	}

	s.mu.Lock()
	if session, ok := s.sessions[event.SessionID]; ok {
		session.Username = event.Username
		session.Topic = event.Topic
		s.sessions[event.SessionID] = session
	}
	s.mu.Unlock()
	return nil
}

func (s *Service) handleLeft(ctx context.Context, msg pubsub.Message) error {
	var event lifecycleEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		s.logger.Error("Failed to unmarshal left event", "error", err)
		return err
	}

	s.mu.Lock()
	if session, ok := s.sessions[event.SessionID]; ok {
		session.Username = ""
		session.Topic = ""
		s.sessions[event.SessionID] = session
	}
	s.mu.Unlock()
	return nil
}

func (s *Service) handleDisconnected(ctx context.Context, msg pubsub.Message) error {
	var event lifecycleEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		s.logger.Error("Failed to unmarshal disconnected event", "error", err)
		return err
	}

	s.mu.Lock()
	delete(s.sessions, event.SessionID)
	count := len(s.sessions)
	s.mu.Unlock()

	metrics.Sessions.Set(float64(count))
	s.logger.Debug("Session disconnected", "session_id", event.SessionID, "online", count)
	return nil
}

// Online returns all connected sessions, ordered by connect time.
func (s *Service) Online() []Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := make([]Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		sessions = append(sessions, session)
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].Since.Before(sessions[j].Since) })
	return sessions
}

// Count returns the number of connected sessions.
func (s *Service) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
