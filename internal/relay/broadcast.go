package relay

import (
	"context"
	"log/slog"

	"go.klb.dev/cliprelay/internal/update"
)

// Report summarises one fan-out attempt.
type Report struct {
	// Delivered counts subscribers that accepted the event.
	Delivered int
	// Skipped counts subscribers excluded as the originating connection.
	Skipped int
	// Dropped counts subscribers that refused delivery and were removed.
	Dropped int
}

// Broadcaster fans accepted updates out to all registered subscribers.
type Broadcaster struct {
	reg *Registry
}

// NewBroadcaster returns a Broadcaster over reg.
func NewBroadcaster(reg *Registry) *Broadcaster {
	return &Broadcaster{reg: reg}
}

// Broadcast pushes u to every subscriber registered at call time except the
// one identified by excludeID (pass "" to exclude nobody). Each push is
// independent and best-effort: a subscriber that refuses delivery is removed
// from the registry and the remaining deliveries proceed. There is no
// acknowledgment, retry, or cross-subscriber ordering guarantee.
func (b *Broadcaster) Broadcast(u *update.Update, excludeID string) Report {
	var rep Report
	for _, sub := range b.reg.Snapshot() {
		if excludeID != "" && sub.ID() == excludeID {
			rep.Skipped++
			continue
		}
		if sub.Send(Event{Source: u.Source, Update: u}) {
			rep.Delivered++
		} else {
			// A refused send means the connection is dead or hopelessly
			// backed up. Treat it as an implicit unregister.
			slog.Warn("delivery failed, dropping subscriber", "id", sub.ID(), "source", sub.Source())
			b.reg.Unregister(sub.ID())
			rep.Dropped++
		}
	}
	return rep
}

// LogUpdate logs an accepted update at INFO (source and format names) and, at
// DEBUG, a short text preview or the byte size of binary formats.
func LogUpdate(event string, u *update.Update) {
	slog.Info(event, "source", u.Source, "formats", u.FormatNames(), "timestamp", u.Timestamp)

	if !slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	if text := u.Text(); text != "" {
		preview := text
		if len(preview) > 120 {
			preview = preview[:120] + "…"
		}
		slog.Debug("clipboard text", "preview", preview)
	}
	if img := u.Image(); img != "" {
		slog.Debug("clipboard image", "size_bytes", len(img))
	}
	if files := u.Files(); len(files) > 0 {
		slog.Debug("clipboard files", "count", len(files))
	}
}
