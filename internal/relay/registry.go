package relay

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Registry tracks live push-channel subscribers. It owns them exclusively:
// once unregistered a subscriber is never delivered to again.
type Registry struct {
	mu   sync.RWMutex
	subs map[string]Subscriber
	seen map[string]time.Time // id → registration time
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		subs: make(map[string]Subscriber),
		seen: make(map[string]time.Time),
	}
}

// NewID returns a fresh opaque connection identity.
func NewID() string { return uuid.NewString() }

// Register adds sub and returns its id.
func (r *Registry) Register(sub Subscriber) string {
	r.mu.Lock()
	r.subs[sub.ID()] = sub
	r.seen[sub.ID()] = time.Now()
	total := len(r.subs)
	r.mu.Unlock()

	slog.Info("subscriber registered", "id", sub.ID(), "source", sub.Source(), "total", total)
	return sub.ID()
}

// Unregister removes the subscriber with the given id. Removing an unknown id
// is a no-op, so a failed push and a clean disconnect may both report it.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	sub, ok := r.subs[id]
	delete(r.subs, id)
	delete(r.seen, id)
	total := len(r.subs)
	r.mu.Unlock()

	if ok {
		slog.Info("subscriber unregistered", "id", id, "source", sub.Source(), "total", total)
	}
}

// Snapshot returns the subscribers registered at call time, in no particular
// order. A subscriber closing during iteration only fails its own delivery.
func (r *Registry) Snapshot() []Subscriber {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Subscriber, 0, len(r.subs))
	for _, sub := range r.subs {
		out = append(out, sub)
	}
	return out
}

// Len returns the number of registered subscribers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}

// Info returns metadata for all registered subscribers.
func (r *Registry) Info() []SubscriberInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]SubscriberInfo, 0, len(r.subs))
	for id, sub := range r.subs {
		out = append(out, SubscriberInfo{
			ID:          id,
			Source:      sub.Source(),
			ConnectedAt: r.seen[id],
		})
	}
	return out
}
