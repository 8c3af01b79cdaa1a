// Package protocol defines the JSON frames exchanged with clients over the
// WebSocket connection.
package protocol

import (
	"encoding/json"
	"time"
)

// Frame types sent by the server.
const (
	TypeJoined  = "joined"
	TypeMessage = "message"
	TypeSystem  = "system"
	TypeAck     = "ack"
	TypeTopics  = "topics"
	TypeError   = "error"
)

// Error kinds reported to clients.
const (
	ErrKindNotJoined     = "not_joined"
	ErrKindAlreadyJoined = "already_joined"
	ErrKindNameExhausted = "name_exhausted"
	ErrKindBadRequest    = "bad_request"
)

// Frame is the envelope for every outbound message.
type Frame struct {
	Type string `json:"type"`

	// TypeJoined
	Topic    string `json:"topic,omitempty"`
	Username string `json:"username,omitempty"`

	// TypeMessage / TypeSystem / TypeAck
	ID        string `json:"id,omitempty"`
	Message   string `json:"message,omitempty"`
	Timestamp int64  `json:"timestamp,omitempty"`

	// TypeTopics
	ActiveTopics []TopicInfo `json:"active_topics,omitempty"`

	// TypeError
	Kind   string `json:"kind,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// TopicInfo is one entry of a topics listing.
type TopicInfo struct {
	Name  string `json:"name"`
	Users int    `json:"users"`
}

// NewJoined confirms a join with the assigned unique name.
func NewJoined(topic, username string) *Frame {
	return &Frame{Type: TypeJoined, Topic: topic, Username: username}
}

// NewMessage renders a broadcast chat message.
func NewMessage(id, topic, username, body string, sentAt time.Time) *Frame {
	return &Frame{
		Type:      TypeMessage,
		ID:        id,
		Topic:     topic,
		Username:  username,
		Message:   body,
		Timestamp: sentAt.Unix(),
	}
}

// NewSystem renders a system notice (joins, leaves).
func NewSystem(topic, body string) *Frame {
	return &Frame{
		Type:      TypeSystem,
		Topic:     topic,
		Message:   body,
		Timestamp: time.Now().UTC().Unix(),
	}
}

// NewAck confirms delivery of a message to its sender.
func NewAck(messageID string) *Frame {
	return &Frame{
		Type:      TypeAck,
		ID:        messageID,
		Timestamp: time.Now().UTC().Unix(),
	}
}

// NewTopics renders a directory listing.
func NewTopics(infos []TopicInfo) *Frame {
	if infos == nil {
		infos = []TopicInfo{}
	}
	return &Frame{Type: TypeTopics, ActiveTopics: infos}
}

// NewError renders an error notice.
func NewError(kind, detail string) *Frame {
	return &Frame{Type: TypeError, Kind: kind, Detail: detail}
}

// Encode marshals the frame for the wire.
func (f *Frame) Encode() ([]byte, error) {
	return json.Marshal(f)
}
