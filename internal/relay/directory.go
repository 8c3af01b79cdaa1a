package relay

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/nfrund/topical/internal/metrics"
	"github.com/nfrund/topical/internal/protocol"
)

// Directory is the process-wide mapping from topic name to Topic. Topics are
// created lazily on first join and removed synchronously when their last
// member leaves, so a topic present in the directory always has at least one
// member.
type Directory struct {
	ttl time.Duration

	mu     sync.RWMutex
	topics map[string]*Topic
}

// NewDirectory creates an empty directory whose topics expire messages after
// the given TTL.
func NewDirectory(ttl time.Duration) *Directory {
	return &Directory{
		ttl:    ttl,
		topics: make(map[string]*Topic),
	}
}

// Join adds the session to the named topic under the requested display name,
// creating the topic if it does not exist. It returns the topic, the assigned
// unique name, and the history snapshot taken with the membership insert.
// Creation and first join are one atomic step under the directory lock, so
// two concurrent joiners can never race a half-created topic.
func (d *Directory) Join(topicName string, m Member, requested string) (*Topic, string, []Message, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	t, exists := d.topics[topicName]
	if !exists {
		t = newTopic(topicName, d.ttl)
	}

	unique, recent, err := t.join(m, requested)
	if err != nil {
		// The topic was never published if this was its first join.
		return nil, "", nil, err
	}

	if !exists {
		d.topics[topicName] = t
		metrics.Topics.Inc()
		slog.Info("Topic created", "topic", topicName)
	}
	slog.Info("Session joined topic", "topic", topicName, "username", unique, "members", t.MemberCount())
	return t, unique, recent, nil
}

// Leave removes the session from the topic and, if the topic becomes empty,
// removes the topic from the directory in the same critical section. Leaving
// a topic the session is not a member of is a no-op.
func (d *Directory) Leave(t *Topic, m Member) {
	d.mu.Lock()
	defer d.mu.Unlock()

	name, empty := t.leave(m)
	if name != "" {
		slog.Info("Session left topic", "topic", t.Name(), "username", name)
	}
	if empty {
		if _, present := d.topics[t.Name()]; present {
			delete(d.topics, t.Name())
			metrics.Topics.Dec()
			slog.Info("Topic removed because it became empty", "topic", t.Name())
		}
	}
}

// Get returns the named topic if it has members.
func (d *Directory) Get(name string) (*Topic, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	t, ok := d.topics[name]
	return t, ok
}

// Snapshot lists all active topics with their member counts for "/list"
// rendering.
func (d *Directory) Snapshot() []protocol.TopicInfo {
	d.mu.RLock()
	defer d.mu.RUnlock()

	infos := make([]protocol.TopicInfo, 0, len(d.topics))
	for name, t := range d.topics {
		infos = append(infos, protocol.TopicInfo{Name: name, Users: t.MemberCount()})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// activeTopics returns the current topics for the sweeper to trim.
func (d *Directory) activeTopics() []*Topic {
	d.mu.RLock()
	defer d.mu.RUnlock()

	topics := make([]*Topic, 0, len(d.topics))
	for _, t := range d.topics {
		topics = append(topics, t)
	}
	return topics
}
