// Package echo prevents clipboard update loops on the client side.
//
// Without suppression a device that submits content receives it back from
// the relay, writes it to its OS clipboard, the clipboard watcher fires, and
// the device submits the same content again, forever. Three independent
// rules break the loop:
//
//   - timestamp: ignore any received update not strictly newer than the last
//     one applied
//   - origin: ignore any received update tagged with this device's own source
//   - content identity: after programmatically writing a received value to
//     the OS clipboard, suppress the watcher event that write triggers
package echo

import (
	"sync"

	"go.klb.dev/cliprelay/internal/update"
)

// Suppressor tracks what this client has applied and sent. Safe for use from
// the receive and capture goroutines concurrently.
type Suppressor struct {
	source string

	mu          sync.Mutex
	lastApplied int64  // timestamp of the last update applied locally
	lastValue   string // fingerprint of the value just written to the OS clipboard
	lastSent    string // fingerprint of the value most recently submitted
}

// New returns a Suppressor for a client tagged with the given source.
func New(source string) *Suppressor {
	return &Suppressor{source: source}
}

// ShouldApply reports whether a received update should be written to the
// local clipboard. Stale timestamps and this client's own submissions are
// both rejected.
func (s *Suppressor) ShouldApply(u *update.Update) bool {
	if u.Source == s.source {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return u.Timestamp > s.lastApplied
}

// MarkApplied records that u was written to the local clipboard. The very
// next capture of the same value will be suppressed, since programmatic
// clipboard writes re-trigger OS change watchers.
func (s *Suppressor) MarkApplied(u *update.Update) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.Timestamp > s.lastApplied {
		s.lastApplied = u.Timestamp
	}
	s.lastValue = Fingerprint(u)
}

// ShouldSend reports whether a locally captured value should be submitted.
// A capture identical to the value just applied is the watcher echoing our
// own write; it is suppressed once and the marker cleared.
func (s *Suppressor) ShouldSend(fingerprint string) bool {
	if fingerprint == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if fingerprint == s.lastValue {
		s.lastValue = ""
		return false
	}
	return fingerprint != s.lastSent
}

// MarkSent records a submitted value so identical repeat captures are not
// re-submitted.
func (s *Suppressor) MarkSent(fingerprint string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSent = fingerprint
}

// Fingerprint reduces an update to the identity used for content-based
// suppression: the text value when present, otherwise the image data URI.
func Fingerprint(u *update.Update) string {
	if text := u.Text(); text != "" {
		return text
	}
	return u.Image()
}
