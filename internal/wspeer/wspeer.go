// Package wspeer adapts a websocket connection into a relay.Subscriber.
//
// Wire protocol, one JSON object per message:
//
//	server → client  {"event":"clipboardUpdate","clipboard":{"formats":…,"source":…,"timestamp":…}}
//	client → server  {"event":"setClipboard","formats":…,"source":…}
//	server → client  {"event":"error","error":"<reason>"}
package wspeer

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"go.klb.dev/cliprelay/internal/relay"
	"go.klb.dev/cliprelay/internal/update"
)

const (
	// EventClipboardUpdate notifies subscribers of a state change.
	EventClipboardUpdate = "clipboardUpdate"
	// EventSetClipboard submits an update over the push channel.
	EventSetClipboard = "setClipboard"
	// EventError reports a rejected push-channel submission.
	EventError = "error"
)

const (
	sendBuffer    = 64
	writeDeadline = 5 * time.Second
	pingInterval  = 15 * time.Second
	pongDeadline  = pingInterval + 10*time.Second
	maxMessage    = 100 << 20 // match the HTTP body cap
)

// Envelope is the top-level websocket message.
type Envelope struct {
	Event     string         `json:"event"`
	Clipboard *Clipboard     `json:"clipboard,omitempty"`
	Formats   map[string]any `json:"formats,omitempty"`
	Source    string         `json:"source,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// Clipboard is the payload of a clipboardUpdate event.
type Clipboard struct {
	Formats   map[string]any `json:"formats"`
	Source    string         `json:"source"`
	Timestamp int64          `json:"timestamp"`
}

// Peer wraps a single websocket connection as a relay.Subscriber.
type Peer struct {
	id     string
	source string
	conn   *websocket.Conn
	gw     *relay.Gateway
	sendCh chan Envelope
}

// New creates a Peer for conn. source identifies the client in logs and the
// status endpoint; it is not used for broadcast exclusion, which is by
// connection identity.
func New(conn *websocket.Conn, gw *relay.Gateway, source string) *Peer {
	return &Peer{
		id:     relay.NewID(),
		source: source,
		conn:   conn,
		gw:     gw,
		sendCh: make(chan Envelope, sendBuffer),
	}
}

func (p *Peer) ID() string     { return p.id }
func (p *Peer) Source() string { return p.source }

// Send implements relay.Subscriber. Non-blocking: a full buffer means the
// client is not draining and reports delivery failure.
func (p *Peer) Send(ev relay.Event) bool {
	env := Envelope{
		Event: EventClipboardUpdate,
		Clipboard: &Clipboard{
			Formats:   ev.Update.Formats,
			Source:    ev.Update.Source,
			Timestamp: ev.Update.Timestamp,
		},
	}
	select {
	case p.sendCh <- env:
		return true
	default:
		return false
	}
}

// Serve registers the peer and runs the read and write loops until the
// connection drops. It blocks; run one goroutine per connection.
func (p *Peer) Serve() {
	log := slog.With("id", p.id, "source", p.source)

	reg := p.gw.Registry()
	reg.Register(p)
	defer reg.Unregister(p.id)
	defer p.conn.Close()

	p.conn.SetReadLimit(maxMessage)
	_ = p.conn.SetReadDeadline(time.Now().Add(pongDeadline))
	p.conn.SetPongHandler(func(string) error {
		return p.conn.SetReadDeadline(time.Now().Add(pongDeadline))
	})

	done := make(chan struct{})
	go p.writeLoop(done, log)
	defer close(done)

	for {
		_, raw, err := p.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Info("connection closed", "err", err)
			}
			return
		}
		p.handleMessage(raw, log)
	}
}

// handleMessage dispatches one inbound frame. Invalid submissions are
// answered with an error event; the connection stays open.
func (p *Peer) handleMessage(raw []byte, log *slog.Logger) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		p.sendError("malformed message")
		return
	}

	switch env.Event {
	case EventSetClipboard:
		// The envelope carries formats/source at the top level, exactly the
		// modern submission shape, so the raw frame feeds the gateway as-is.
		if _, err := p.gw.SubmitPush(raw, p.id, "websocket"); err != nil {
			log.Debug("push submission rejected", "err", err)
			p.sendError(err.Error())
		}
	default:
		log.Warn("unexpected event", "event", env.Event)
	}
}

// sendError enqueues an error event; writeLoop is the only writer on the
// connection. Dropped silently when the buffer is full.
func (p *Peer) sendError(reason string) {
	select {
	case p.sendCh <- Envelope{Event: EventError, Error: reason}:
	default:
	}
}

// writeLoop drains outbound events and keeps the connection alive with pings.
func (p *Peer) writeLoop(done <-chan struct{}, log *slog.Logger) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case env := <-p.sendCh:
			_ = p.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := p.conn.WriteJSON(env); err != nil {
				log.Warn("write failed", "err", err)
				p.conn.Close()
				return
			}
		case <-ticker.C:
			if err := p.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeDeadline)); err != nil {
				p.conn.Close()
				return
			}
		}
	}
}

// DecodeUpdate converts a received clipboardUpdate envelope into an Update
// for client-side consumers (the agent's echo suppressor works on Updates).
func DecodeUpdate(env *Envelope) *update.Update {
	if env.Clipboard == nil {
		return nil
	}
	return &update.Update{
		Formats:   env.Clipboard.Formats,
		Source:    env.Clipboard.Source,
		Timestamp: env.Clipboard.Timestamp,
	}
}
