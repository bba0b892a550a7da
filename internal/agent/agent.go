// Package agent runs the client-side sync daemon: it subscribes to the relay
// push channel, applies received updates to the local system clipboard, and
// submits local clipboard changes back over the same socket.
//
// All three echo-suppression rules live here (see the echo package); the
// relay only guarantees that this connection never receives its own
// push-channel submissions back.
package agent

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"go.klb.dev/cliprelay/internal/clip"
	"go.klb.dev/cliprelay/internal/echo"
	"go.klb.dev/cliprelay/internal/update"
	"go.klb.dev/cliprelay/internal/wspeer"
)

const (
	dialTimeout    = 10 * time.Second
	reconnectDelay = time.Second
	maxReconnect   = 30 * time.Second
)

// Config holds the agent's connection settings.
type Config struct {
	// ServerURL is the relay base URL, e.g. "http://laptop:3000".
	ServerURL string
	// APIKey is sent on the handshake for symmetry with the one-shot
	// endpoints; the relay does not require it there.
	APIKey string
	// Source tags every submission from this device.
	Source string
}

// Agent keeps one local clipboard in sync with the relay.
type Agent struct {
	cfg     Config
	backend clip.Backend
	sup     *echo.Suppressor
}

// New returns an Agent over the given clipboard backend.
func New(cfg Config, backend clip.Backend) *Agent {
	return &Agent{
		cfg:     cfg,
		backend: backend,
		sup:     echo.New(cfg.Source),
	}
}

// Run connects and reconnects until ctx is cancelled. Network failures are
// retried with exponential backoff; they never terminate the loop.
func (a *Agent) Run(ctx context.Context) error {
	delay := reconnectDelay
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		conn, err := a.dial(ctx)
		if err != nil {
			slog.Warn("connection failed", "err", err, "retry_in", delay)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			if delay < maxReconnect {
				delay *= 2
			}
			continue
		}
		delay = reconnectDelay

		slog.Info("connected", "server", a.cfg.ServerURL, "source", a.cfg.Source)
		a.session(ctx, conn)
	}
}

// dial opens the push channel.
func (a *Agent) dial(ctx context.Context) (*websocket.Conn, error) {
	wsURL := toWS(a.cfg.ServerURL) + "/ws?source=" + a.cfg.Source

	header := http.Header{}
	if a.cfg.APIKey != "" {
		header.Set("x-api-key", a.cfg.APIKey)
	}

	dialer := websocket.Dialer{HandshakeTimeout: dialTimeout}
	conn, resp, err := dialer.DialContext(ctx, wsURL, header)
	if resp != nil {
		resp.Body.Close()
	}
	return conn, err
}

// session runs one connection until it drops: a reader goroutine applies
// incoming updates, while the main loop forwards local clipboard changes.
func (a *Agent) session(ctx context.Context, conn *websocket.Conn) {
	defer conn.Close()

	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		a.readLoop(conn)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-readerDone:
			slog.Info("connection lost, reconnecting")
			return
		case <-a.backend.Watch():
			a.captureAndSend(conn)
		}
	}
}

// readLoop applies pushed updates to the local clipboard, subject to echo
// suppression. Returns when the connection drops.
func (a *Agent) readLoop(conn *websocket.Conn) {
	for {
		var env wspeer.Envelope
		if err := conn.ReadJSON(&env); err != nil {
			return
		}

		switch env.Event {
		case wspeer.EventClipboardUpdate:
			u := wspeer.DecodeUpdate(&env)
			if u == nil {
				continue
			}
			if !a.sup.ShouldApply(u) {
				slog.Debug("update suppressed", "source", u.Source, "timestamp", u.Timestamp)
				continue
			}
			if err := a.backend.Write(u.Formats); err != nil {
				slog.Warn("clipboard write failed", "err", err)
				continue
			}
			// Record before the OS watcher can fire for our own write.
			a.sup.MarkApplied(u)
			slog.Debug("applied remote clipboard", "source", u.Source)

		case wspeer.EventError:
			slog.Warn("relay rejected submission", "reason", env.Error)
		}
	}
}

// captureAndSend reads the local clipboard and submits it unless suppressed.
func (a *Agent) captureAndSend(conn *websocket.Conn) {
	formats, err := a.backend.Read()
	if err != nil {
		slog.Warn("clipboard read failed", "err", err)
		return
	}
	if len(formats) == 0 {
		return
	}

	fp := echo.Fingerprint(&update.Update{Formats: formats})
	if !a.sup.ShouldSend(fp) {
		slog.Debug("capture suppressed")
		return
	}

	err = conn.WriteJSON(wspeer.Envelope{
		Event:   wspeer.EventSetClipboard,
		Formats: formats,
		Source:  a.cfg.Source,
	})
	if err != nil {
		slog.Warn("submit failed", "err", err)
		return
	}
	a.sup.MarkSent(fp)
	slog.Debug("submitted local clipboard", "formats", len(formats))
}

// toWS converts an http(s) base URL into the ws(s) scheme.
func toWS(base string) string {
	base = strings.TrimSuffix(base, "/")
	switch {
	case strings.HasPrefix(base, "https://"):
		return "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		return "ws://" + strings.TrimPrefix(base, "http://")
	default:
		return "ws://" + base
	}
}
