package relay

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeMember records every payload delivered to it.
type fakeMember struct {
	id string

	mu       sync.Mutex
	received [][]byte
}

func newFakeMember(id string) *fakeMember {
	return &fakeMember{id: id}
}

func (f *fakeMember) SessionID() string { return f.id }

func (f *fakeMember) Deliver(payload []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.received = append(f.received, payload)
}

func (f *fakeMember) frames(t *testing.T) []map[string]any {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()

	frames := make([]map[string]any, 0, len(f.received))
	for _, payload := range f.received {
		var frame map[string]any
		require.NoError(t, json.Unmarshal(payload, &frame))
		frames = append(frames, frame)
	}
	return frames
}

func TestTopic_JoinOrderAndNames(t *testing.T) {
	topic := newTopic("general", 30*time.Second)

	a := newFakeMember("a")
	b := newFakeMember("b")

	nameA, _, err := topic.join(a, "alice")
	require.NoError(t, err)
	nameB, _, err := topic.join(b, "alice")
	require.NoError(t, err)

	assert.Equal(t, "alice", nameA)
	assert.Equal(t, "alice#2", nameB)
	assert.Equal(t, []string{"alice", "alice#2"}, topic.ActiveMembers())
}

func TestTopic_BroadcastReachesAllIncludingSender(t *testing.T) {
	topic := newTopic("general", 30*time.Second)

	a := newFakeMember("a")
	b := newFakeMember("b")
	_, _, err := topic.join(a, "alice")
	require.NoError(t, err)
	_, _, err = topic.join(b, "bob")
	require.NoError(t, err)

	topic.Broadcast(NewMessage("general", "alice", "hi"))

	for _, m := range []*fakeMember{a, b} {
		frames := m.frames(t)
		require.Len(t, frames, 1)
		assert.Equal(t, "message", frames[0]["type"])
		assert.Equal(t, "general", frames[0]["topic"])
		assert.Equal(t, "alice", frames[0]["username"])
		assert.Equal(t, "hi", frames[0]["message"])
	}

	// A member joining after the broadcast receives nothing from it.
	late := newFakeMember("late")
	_, _, err = topic.join(late, "carol")
	require.NoError(t, err)
	assert.Empty(t, late.frames(t))
}

func TestTopic_BroadcastOrderIsConsistentAcrossMembers(t *testing.T) {
	topic := newTopic("general", 30*time.Second)

	a := newFakeMember("a")
	b := newFakeMember("b")
	_, _, err := topic.join(a, "alice")
	require.NoError(t, err)
	_, _, err = topic.join(b, "bob")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			topic.Broadcast(NewMessage("general", "alice", fmt.Sprintf("msg-%d", i)))
		}(i)
	}
	wg.Wait()

	framesA := a.frames(t)
	framesB := b.frames(t)
	require.Len(t, framesA, 10)
	require.Len(t, framesB, 10)
	for i := range framesA {
		assert.Equal(t, framesA[i]["id"], framesB[i]["id"], "members observed broadcasts in different orders")
	}
}

func TestTopic_NotifyExcludesAndSkipsHistory(t *testing.T) {
	topic := newTopic("general", 30*time.Second)

	a := newFakeMember("a")
	b := newFakeMember("b")
	_, _, err := topic.join(a, "alice")
	require.NoError(t, err)
	_, _, err = topic.join(b, "bob")
	require.NoError(t, err)

	topic.Notify("bob joined the topic", b)

	framesA := a.frames(t)
	require.Len(t, framesA, 1)
	assert.Equal(t, "system", framesA[0]["type"])
	assert.Empty(t, b.frames(t))
	assert.Empty(t, topic.RecentMessages(), "notices must not enter history")
}

func TestTopic_RecentMessagesLazyExpiry(t *testing.T) {
	ttl := 30 * time.Second
	topic := newTopic("general", ttl)
	a := newFakeMember("a")
	_, _, err := topic.join(a, "alice")
	require.NoError(t, err)

	now := time.Now().UTC()
	old := NewMessage("general", "alice", "old")
	old.SentAt = now.Add(-time.Minute)
	fresh := NewMessage("general", "alice", "fresh")

	topic.Broadcast(old)
	topic.Broadcast(fresh)

	recent := topic.RecentMessages()
	require.Len(t, recent, 1)
	assert.Equal(t, "fresh", recent[0].Body)
}

func TestTopic_ExpireTrimsAndIsIdempotent(t *testing.T) {
	ttl := 30 * time.Second
	topic := newTopic("general", ttl)
	a := newFakeMember("a")
	_, _, err := topic.join(a, "alice")
	require.NoError(t, err)

	now := time.Now().UTC()
	for i, age := range []time.Duration{time.Minute, 45 * time.Second, 0} {
		msg := NewMessage("general", "alice", fmt.Sprintf("msg-%d", i))
		msg.SentAt = now.Add(-age)
		topic.Broadcast(msg)
	}

	assert.Equal(t, 2, topic.expire(now))
	assert.Equal(t, 0, topic.expire(now), "re-running expiry must be a no-op")

	recent := topic.RecentMessages()
	require.Len(t, recent, 1)
	assert.Equal(t, "msg-2", recent[0].Body)
}

func TestMessage_ExpiredCutoff(t *testing.T) {
	ttl := 30 * time.Second
	msg := NewMessage("general", "alice", "hi")

	assert.False(t, msg.Expired(msg.SentAt.Add(29*time.Second), ttl))
	assert.False(t, msg.Expired(msg.SentAt.Add(30*time.Second), ttl))
	assert.True(t, msg.Expired(msg.SentAt.Add(31*time.Second), ttl))
}
