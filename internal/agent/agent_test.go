package agent

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.klb.dev/cliprelay/internal/httpapi"
	"go.klb.dev/cliprelay/internal/relay"
	"go.klb.dev/cliprelay/internal/state"
)

func TestToWS(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"http://laptop:3000", "ws://laptop:3000"},
		{"http://laptop:3000/", "ws://laptop:3000"},
		{"https://relay.example.com", "wss://relay.example.com"},
		{"laptop:3000", "ws://laptop:3000"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, toWS(tt.in), tt.in)
	}
}

// memBackend is an in-memory clip.Backend for driving the agent in tests.
type memBackend struct {
	mu      sync.Mutex
	formats map[string]any
	watchCh chan struct{}
	wrote   chan map[string]any
}

func newMemBackend() *memBackend {
	return &memBackend{
		watchCh: make(chan struct{}, 1),
		wrote:   make(chan map[string]any, 8),
	}
}

func (b *memBackend) Name() string { return "memory" }

func (b *memBackend) Read() (map[string]any, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.formats, nil
}

func (b *memBackend) Write(formats map[string]any) error {
	b.mu.Lock()
	b.formats = formats
	b.mu.Unlock()
	b.wrote <- formats
	return nil
}

func (b *memBackend) Watch() <-chan struct{} { return b.watchCh }
func (b *memBackend) Close()                 {}

// setLocal simulates the user copying something: the clipboard content
// changes and the OS watcher fires.
func (b *memBackend) setLocal(formats map[string]any) {
	b.mu.Lock()
	b.formats = formats
	b.mu.Unlock()
	b.watchCh <- struct{}{}
}

// fireWatch simulates the spurious watcher event an OS emits after a
// programmatic clipboard write, without changing content.
func (b *memBackend) fireWatch() { b.watchCh <- struct{}{} }

func TestAgentSyncRoundtrip(t *testing.T) {
	gw := relay.NewGateway(state.New(), relay.NewRegistry())
	srv := httptest.NewServer(httpapi.New(gw, "").Handler())
	defer srv.Close()

	backend := newMemBackend()
	ag := New(Config{ServerURL: srv.URL, Source: "agentA"}, backend)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = ag.Run(ctx) }()

	require.Eventually(t, func() bool {
		return gw.Registry().Len() == 1
	}, 2*time.Second, 10*time.Millisecond)

	// A remote submission must land on the local clipboard.
	resp, err := http.Post(srv.URL+"/clipboard", "application/json",
		strings.NewReader(`{"formats":{"text":"remote"},"source":"deviceB"}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	select {
	case formats := <-backend.wrote:
		assert.Equal(t, "remote", formats["text"])
	case <-time.After(2 * time.Second):
		t.Fatal("agent never applied the remote update")
	}

	// The watcher event triggered by that write must not echo back: the
	// relay state keeps deviceB as its source.
	backend.fireWatch()
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, "deviceB", gw.Fetch().Source)

	// A genuine local copy is submitted with this agent's source tag.
	backend.setLocal(map[string]any{"text": "local"})
	require.Eventually(t, func() bool {
		got := gw.Fetch()
		return got.Text() == "local" && got.Source == "agentA"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestAgentRetriesWhenServerUnreachable(t *testing.T) {
	backend := newMemBackend()
	ag := New(Config{ServerURL: "http://127.0.0.1:1", Source: "agentA"}, backend)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	// Run must keep retrying until cancelled, never panic or return early.
	err := ag.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
