package websocket

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/nfrund/topical/internal/protocol"
	"github.com/nfrund/topical/internal/relay"
)

// Inbound protocol, one form per text frame:
//
//	JOIN <topicName> <requestedName>  join a topic
//	/list                             list active topics with member counts
//	anything else                     chat message to the current topic
const (
	joinVerb    = "JOIN"
	listCommand = "/list"
)

// joinRequest carries the validated fields of a JOIN frame.
type joinRequest struct {
	Topic string `validate:"required,max=64"`
	Name  string `validate:"required,max=32"`
}

// route dispatches one inbound text frame for the session.
func (b *Bridge) route(s *Session, raw string) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return
	}

	// "/list" is allowed before joining and is scoped across all topics.
	if text == listCommand {
		b.handleList(s)
		return
	}

	if fields := strings.Fields(text); fields[0] == joinVerb {
		if len(fields) != 3 {
			b.sendError(s, protocol.ErrKindBadRequest, "usage: JOIN <topic> <name>")
			return
		}
		b.handleJoin(s, joinRequest{Topic: fields[1], Name: fields[2]})
		return
	}

	b.handleChat(s, text)
}

// handleJoin runs the join flow: validate, resolve a unique name, register
// with the topic, confirm to the client, replay the live history, and notify
// the other members.
func (b *Bridge) handleJoin(s *Session, req joinRequest) {
	if err := b.validate.Struct(req); err != nil {
		b.sendError(s, protocol.ErrKindBadRequest, "invalid topic or name")
		return
	}

	if _, _, err := s.currentTopic(); err == nil {
		b.sendRelayError(s, relay.ErrAlreadyJoined)
		return
	}

	t, unique, recent, err := b.directory.Join(req.Topic, s, req.Name)
	if err != nil {
		b.sendRelayError(s, err)
		return
	}

	if !s.completeJoin(t, unique) {
		// The session closed between the directory join and here; pull the
		// membership back out so the dead session cannot linger in the topic.
		b.directory.Leave(t, s)
		return
	}
	b.sendFrame(s, protocol.NewJoined(t.Name(), unique))

	// Replay the history snapshot taken with the join, so a new member sees
	// recent traffic without receiving a concurrent broadcast twice.
	for _, msg := range recent {
		b.sendFrame(s, protocol.NewMessage(msg.ID, msg.Topic, msg.Sender, msg.Body, msg.SentAt))
	}

	t.Notify(unique+" joined the topic", s)
	b.publishLifecycle(relay.EventSessionJoined, s.id, unique, t.Name())
}

// handleChat broadcasts a chat message in the session's current topic. The
// sender receives its own message back, plus a delivery ack.
func (b *Bridge) handleChat(s *Session, body string) {
	t, name, err := s.currentTopic()
	if err != nil {
		b.sendRelayError(s, err)
		return
	}

	msg := relay.NewMessage(t.Name(), name, body)
	t.Broadcast(msg)
	b.sendFrame(s, protocol.NewAck(msg.ID))
}

// handleList responds with all active topics and their member counts.
func (b *Bridge) handleList(s *Session) {
	b.sendFrame(s, protocol.NewTopics(b.directory.Snapshot()))
}

func (b *Bridge) sendFrame(s *Session, frame *protocol.Frame) {
	payload, err := frame.Encode()
	if err != nil {
		slog.Error("Failed to encode frame", "type", frame.Type, "error", err)
		return
	}
	s.Deliver(payload)
}

// sendError reports a per-session error to that client only. No inbound
// error closes the connection or reaches other sessions.
func (b *Bridge) sendError(s *Session, kind, detail string) {
	b.sendFrame(s, protocol.NewError(kind, detail))
}

// sendRelayError maps a relay sentinel onto its wire error kind.
func (b *Bridge) sendRelayError(s *Session, err error) {
	switch {
	case errors.Is(err, relay.ErrNotJoined):
		b.sendError(s, protocol.ErrKindNotJoined, "join a topic before sending messages")
	case errors.Is(err, relay.ErrAlreadyJoined):
		b.sendError(s, protocol.ErrKindAlreadyJoined, "leave the current topic before joining another")
	case errors.Is(err, relay.ErrNameExhausted):
		// The session stays Connected; it may retry with another name.
		b.sendError(s, protocol.ErrKindNameExhausted, "no unique name available, try another")
	default:
		slog.Error("Request failed", "session_id", s.id, "error", err)
		b.sendError(s, protocol.ErrKindBadRequest, "request failed")
	}
}
