package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Sessions is the number of currently connected sessions.
	Sessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "topical_sessions",
		Help: "Current number of connected sessions",
	})

	// Topics is the number of topics with at least one member.
	Topics = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "topical_topics",
		Help: "Current number of active topics",
	})

	// MessagesBroadcast counts chat messages broadcast, per topic.
	MessagesBroadcast = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "topical_messages_broadcast_total",
			Help: "Total number of chat messages broadcast per topic",
		},
		[]string{"topic"},
	)

	// MessagesExpired counts history entries removed by TTL expiry.
	MessagesExpired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "topical_messages_expired_total",
		Help: "Total number of messages removed from history by TTL expiry",
	})

	// DeliveriesDropped counts frames dropped because a session's outbound
	// queue was full.
	DeliveriesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "topical_deliveries_dropped_total",
		Help: "Total number of frames dropped due to slow consumers",
	})
)
