// Package httpapi exposes the relay over HTTP: the one-shot submit/fetch
// endpoints, the websocket push channel, and the status and health probes.
//
// Routes:
//
//	POST /clipboard  submit an update (modern or legacy shape) — auth
//	GET  /clipboard  fetch the current clipboard                — auth
//	GET  /status     list connected push subscribers            — auth
//	GET  /ws         upgrade to the push channel                — no auth
//	GET  /health     liveness probe                             — no auth
//
// Authentication is a pre-shared key in the x-api-key header. An empty
// configured key disables the check.
package httpapi

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"go.klb.dev/cliprelay/internal/relay"
	"go.klb.dev/cliprelay/internal/wspeer"
)

// maxBodyBytes caps submissions; images and file sets ride in JSON strings.
const maxBodyBytes = 100 << 20

// Server is the HTTP edge over a relay Gateway.
type Server struct {
	gw     *relay.Gateway
	apiKey string
	up     websocket.Upgrader
}

// New returns a Server. apiKey may be empty to disable auth.
func New(gw *relay.Gateway, apiKey string) *Server {
	return &Server{
		gw:     gw,
		apiKey: apiKey,
		up: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Clients are native apps, not browsers; origin checks add nothing.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Handler returns the routed http.Handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /clipboard", s.auth(s.handleSubmit))
	mux.HandleFunc("GET /clipboard", s.auth(s.handleFetch))
	mux.HandleFunc("GET /status", s.auth(s.handleStatus))
	mux.HandleFunc("GET /ws", s.handleWS)
	mux.HandleFunc("GET /health", s.handleHealth)
	return mux
}

// auth wraps a handler with the pre-shared key check. Auth failures are 401
// and are distinct from validation failures, which are 400.
func (s *Server) auth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey != "" {
			key := r.Header.Get("x-api-key")
			if key == "" {
				writeError(w, http.StatusUnauthorized, "API key required in x-api-key header")
				return
			}
			if subtle.ConstantTimeCompare([]byte(key), []byte(s.apiKey)) != 1 {
				writeError(w, http.StatusUnauthorized, "invalid API key")
				return
			}
		}
		next(w, r)
	}
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "payload too large")
			return
		}
		writeError(w, http.StatusBadRequest, "unreadable body")
		return
	}

	if _, err := s.gw.SubmitRequest(raw, "http"); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleFetch(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.gw.Fetch())
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"subscribers": s.gw.Subscribers(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UnixMilli(),
	})
}

// handleWS upgrades to the push channel. The handshake itself is not
// authenticated; one-shot endpoints carry the key per request instead.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	source := r.URL.Query().Get("source")
	if source == "" {
		source = "websocket"
	}

	conn, err := s.up.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "err", err, "remote", r.RemoteAddr)
		return
	}

	peer := wspeer.New(conn, s.gw, source)
	go peer.Serve()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("response write failed", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, reason string) {
	writeJSON(w, status, map[string]string{"error": reason})
}
