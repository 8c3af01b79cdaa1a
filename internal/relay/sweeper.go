package relay

import (
	"context"
	"log/slog"
	"time"

	"github.com/nfrund/topical/internal/metrics"
)

// Sweeper proactively trims expired messages from every topic's history on a
// fixed tick. Lazy expiry on reads uses the same cutoff rule, so the two
// paths always agree; the sweeper exists to bound memory between reads.
type Sweeper struct {
	directory *Directory
	interval  time.Duration

	ticker *time.Ticker
	stop   chan struct{}
	done   chan struct{}
}

// NewSweeper creates a sweeper over the directory. The interval should be
// well below the message TTL so expiry is observed promptly.
func NewSweeper(directory *Directory, interval time.Duration) *Sweeper {
	return &Sweeper{
		directory: directory,
		interval:  interval,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start launches the background sweep goroutine. It returns immediately; the
// goroutine runs until Shutdown is called or the context is canceled.
func (s *Sweeper) Start(ctx context.Context) {
	s.ticker = time.NewTicker(s.interval)
	go s.run(ctx)
	slog.Info("Expiry sweeper started", "interval", s.interval)
}

func (s *Sweeper) run(ctx context.Context) {
	defer close(s.done)
	defer s.ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case <-s.ticker.C:
			s.sweep(time.Now().UTC())
		}
	}
}

// sweep trims every topic once. Expiry is a pure trim of each history
// sequence and runs concurrently with joins, leaves, and broadcasts.
func (s *Sweeper) sweep(now time.Time) {
	var expired int
	for _, t := range s.directory.activeTopics() {
		if n := t.expire(now); n > 0 {
			expired += n
			slog.Debug("Expired messages", "topic", t.Name(), "count", n)
		}
	}
	if expired > 0 {
		metrics.MessagesExpired.Add(float64(expired))
	}
}

// Shutdown stops the sweep goroutine and waits for it to exit. Safe to call
// once.
func (s *Sweeper) Shutdown() {
	if s.ticker == nil {
		return
	}
	close(s.stop)
	<-s.done
}
