package relay

// Bus topics for session and topic lifecycle events published by the
// transport layer and consumed by the presence service.
const (
	// EventSessionConnected fires when a transport connection is accepted.
	EventSessionConnected = "relay.session.connected"
	// EventSessionJoined fires when a session is added to a topic.
	EventSessionJoined = "relay.session.joined"
	// EventSessionLeft fires when a session is removed from its topic.
	EventSessionLeft = "relay.session.left"
	// EventSessionDisconnected fires when the transport connection closes.
	EventSessionDisconnected = "relay.session.disconnected"
)
