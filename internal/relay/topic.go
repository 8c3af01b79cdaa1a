package relay

import (
	"log/slog"
	"sync"
	"time"

	"github.com/nfrund/topical/internal/metrics"
	"github.com/nfrund/topical/internal/protocol"
)

// Member is the relay's view of a connected session. Deliver must never
// block: implementations enqueue the frame on a bounded outbound queue and
// handle overflow themselves (drop and disconnect).
type Member interface {
	SessionID() string
	Deliver(payload []byte)
}

// member pairs a Member with the unique name assigned at join time.
type member struct {
	name string
	m    Member
}

// Topic is a named broadcast group: its current members in join order and a
// history buffer bounded by the message TTL.
//
// Lock ordering: Directory.mu is always taken before Topic.mu. Broadcast and
// reads take Topic.mu alone.
type Topic struct {
	name string
	ttl  time.Duration

	mu      sync.RWMutex
	names   *nameRegistry
	members []member
	history []Message
}

func newTopic(name string, ttl time.Duration) *Topic {
	return &Topic{
		name:  name,
		ttl:   ttl,
		names: newNameRegistry(),
	}
}

// Name returns the topic's name.
func (t *Topic) Name() string {
	return t.name
}

// join resolves the requested name and appends the session to the member
// sequence. It returns the non-expired history captured in the same critical
// section as the membership insert: messages broadcast before the insert
// appear in the snapshot, messages broadcast after it reach the new member
// through delivery, and no message takes both paths. Called by the Directory
// with its lock held.
func (t *Topic) join(m Member, requested string) (string, []Message, error) {
	now := time.Now().UTC()

	t.mu.Lock()
	defer t.mu.Unlock()

	unique, err := t.names.resolve(requested)
	if err != nil {
		return "", nil, err
	}
	recent := t.recentLocked(now)
	t.members = append(t.members, member{name: unique, m: m})
	return unique, recent, nil
}

// leave removes the session from the member sequence and releases its name.
// It reports the released name and whether the topic is now empty. Unknown
// members are a no-op. Called by the Directory with its lock held.
func (t *Topic) leave(m Member) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i, entry := range t.members {
		if entry.m == m {
			t.members = append(t.members[:i], t.members[i+1:]...)
			t.names.release(entry.name)
			return entry.name, len(t.members) == 0
		}
	}
	return "", len(t.members) == 0
}

// Broadcast appends the message to history and delivers it to every current
// member, including the sender. Delivery happens under the topic lock so that
// all members observe broadcasts in the same order, and no member receives a
// message after a concurrent leave was observed. Deliver is a non-blocking
// enqueue, so a slow consumer cannot stall the broadcast.
func (t *Topic) Broadcast(msg Message) {
	payload, err := protocol.NewMessage(msg.ID, msg.Topic, msg.Sender, msg.Body, msg.SentAt).Encode()
	if err != nil {
		slog.Error("Failed to encode broadcast frame", "topic", t.name, "error", err)
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.history = append(t.history, msg)
	for _, entry := range t.members {
		entry.m.Deliver(payload)
	}
	metrics.MessagesBroadcast.WithLabelValues(t.name).Inc()
}

// Notify delivers a system notice to every member except exclude (which may
// be nil). Notices are not recorded in history.
func (t *Topic) Notify(body string, exclude Member) {
	payload, err := protocol.NewSystem(t.name, body).Encode()
	if err != nil {
		slog.Error("Failed to encode system frame", "topic", t.name, "error", err)
		return
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	for _, entry := range t.members {
		if entry.m == exclude {
			continue
		}
		entry.m.Deliver(payload)
	}
}

// ActiveMembers returns the unique names of current members in join order.
func (t *Topic) ActiveMembers() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	names := make([]string, len(t.members))
	for i, entry := range t.members {
		names[i] = entry.name
	}
	return names
}

// MemberCount returns the number of current members.
func (t *Topic) MemberCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.members)
}

// RecentMessages returns the non-expired history in broadcast order. Expiry
// is applied lazily at read time with the same cutoff the sweeper uses, so a
// client can never observe an expired message between sweeps.
func (t *Topic) RecentMessages() []Message {
	now := time.Now().UTC()

	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.recentLocked(now)
}

// recentLocked filters expired entries out of history. Callers hold t.mu.
func (t *Topic) recentLocked(now time.Time) []Message {
	recent := make([]Message, 0, len(t.history))
	for _, msg := range t.history {
		if !msg.Expired(now, t.ttl) {
			recent = append(recent, msg)
		}
	}
	return recent
}

// expire trims history entries older than the TTL at the given instant and
// returns how many were removed. Running it on an already-trimmed history is
// a no-op. It never touches membership.
func (t *Topic) expire(now time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	// History is appended in SentAt order, so everything before the first
	// live entry is expired.
	cut := 0
	for cut < len(t.history) && t.history[cut].Expired(now, t.ttl) {
		cut++
	}
	if cut == 0 {
		return 0
	}
	t.history = append([]Message(nil), t.history[cut:]...)
	return cut
}
