package relay

import (
	"time"

	"github.com/google/uuid"
)

// Message is an immutable chat message record.
type Message struct {
	ID     string
	Topic  string
	Sender string
	Body   string
	SentAt time.Time
}

// NewMessage stamps a chat message with an ID and the current UTC time.
func NewMessage(topic, sender, body string) Message {
	return Message{
		ID:     uuid.NewString(),
		Topic:  topic,
		Sender: sender,
		Body:   body,
		SentAt: time.Now().UTC(),
	}
}

// Expired reports whether the message is past its time-to-live at the given
// instant. Both the background sweeper and lazy history reads use this same
// cutoff rule.
func (m Message) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(m.SentAt) > ttl
}
