package relay

import (
	"go.klb.dev/cliprelay/internal/state"
	"go.klb.dev/cliprelay/internal/update"
)

// Gateway normalizes the two admission channels into a single accept path:
// validate, replace the state, then fan out. Only the broadcast exclusion
// differs between the channels.
type Gateway struct {
	store *state.Store
	reg   *Registry
	bc    *Broadcaster
}

// NewGateway wires a Gateway over its collaborators.
func NewGateway(store *state.Store, reg *Registry) *Gateway {
	return &Gateway{
		store: store,
		reg:   reg,
		bc:    NewBroadcaster(reg),
	}
}

// SubmitRequest admits a one-shot submission. On accept the update is
// broadcast to all subscribers; request submissions have no push-channel
// identity to exclude. The returned error is a validation error suitable for
// surfacing to the caller; delivery failures are never surfaced.
func (g *Gateway) SubmitRequest(raw []byte, fallbackSource string) (*update.Update, error) {
	return g.submit(raw, fallbackSource, "")
}

// SubmitPush admits a submission arriving over a push connection. The
// submitting connection is excluded from the resulting broadcast.
func (g *Gateway) SubmitPush(raw []byte, connID, fallbackSource string) (*update.Update, error) {
	return g.submit(raw, fallbackSource, connID)
}

func (g *Gateway) submit(raw []byte, fallbackSource, excludeID string) (*update.Update, error) {
	u, err := update.Normalize(raw, fallbackSource)
	if err != nil {
		return nil, err
	}
	g.store.Set(u)
	LogUpdate("clipboard updated", u)
	g.bc.Broadcast(u, excludeID)
	return u, nil
}

// Fetch returns the current clipboard snapshot. Pure read; no broadcast.
func (g *Gateway) Fetch() update.Update {
	return g.store.Get()
}

// Registry exposes the subscriber registry for the push edge.
func (g *Gateway) Registry() *Registry { return g.reg }

// Subscribers returns metadata about the registered push subscribers.
func (g *Gateway) Subscribers() []SubscriberInfo { return g.reg.Info() }
