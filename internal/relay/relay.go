// Package relay implements the clipboard relay core: the registry of live
// push subscribers, the best-effort fan-out of accepted updates, and the
// gateway that funnels both admission channels through one validate → store →
// broadcast path.
//
// The relay is transport-agnostic: subscribers register, receive events via a
// non-blocking Send, and the network edge submits raw payloads through the
// Gateway.
package relay

import (
	"time"

	"go.klb.dev/cliprelay/internal/update"
)

// Event is a clipboard update delivered to a subscriber.
type Event struct {
	Source string
	Update *update.Update
}

// Subscriber is anything that can receive clipboard events from the relay.
type Subscriber interface {
	ID() string
	Source() string
	// Send delivers an event. Must be non-blocking; a false return means the
	// subscriber could not accept the event and should be dropped.
	Send(Event) bool
}

// SubscriberInfo is a point-in-time description of one registered subscriber,
// reported by the status endpoint.
type SubscriberInfo struct {
	ID          string    `json:"id"`
	Source      string    `json:"source"`
	ConnectedAt time.Time `json:"connectedAt"`
}
