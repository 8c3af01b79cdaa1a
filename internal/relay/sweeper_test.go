package relay

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweeper_TrimsExpiredHistory(t *testing.T) {
	ttl := 30 * time.Second
	dir := NewDirectory(ttl)

	a := newFakeMember("a")
	topic, _, _, err := dir.Join("general", a, "alice")
	require.NoError(t, err)

	now := time.Now().UTC()
	old := NewMessage("general", "alice", "old")
	old.SentAt = now.Add(-time.Minute)
	topic.Broadcast(old)
	topic.Broadcast(NewMessage("general", "alice", "fresh"))

	sweeper := NewSweeper(dir, time.Hour)
	sweeper.sweep(now)

	recent := topic.RecentMessages()
	require.Len(t, recent, 1)
	assert.Equal(t, "fresh", recent[0].Body)

	// Sweeping again with nothing expired is a no-op.
	sweeper.sweep(now)
	assert.Len(t, topic.RecentMessages(), 1)
}

func TestSweeper_BackgroundSweep(t *testing.T) {
	ttl := 50 * time.Millisecond
	dir := NewDirectory(ttl)

	a := newFakeMember("a")
	topic, _, _, err := dir.Join("general", a, "alice")
	require.NoError(t, err)
	topic.Broadcast(NewMessage("general", "alice", "short-lived"))

	sweeper := NewSweeper(dir, 10*time.Millisecond)
	sweeper.Start(context.Background())
	defer sweeper.Shutdown()

	assert.Eventually(t, func() bool {
		topic.mu.RLock()
		defer topic.mu.RUnlock()
		return len(topic.history) == 0
	}, time.Second, 10*time.Millisecond, "sweeper should trim the expired message")
}

func TestSweeper_ShutdownStopsGoroutine(t *testing.T) {
	dir := NewDirectory(30 * time.Second)
	sweeper := NewSweeper(dir, 10*time.Millisecond)
	sweeper.Start(context.Background())

	done := make(chan struct{})
	go func() {
		sweeper.Shutdown()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Shutdown did not return")
	}
}

func TestSweeper_ShutdownWithoutStart(t *testing.T) {
	sweeper := NewSweeper(NewDirectory(30*time.Second), time.Second)
	sweeper.Shutdown() // must not block or panic
}
