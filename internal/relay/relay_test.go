package relay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.klb.dev/cliprelay/internal/state"
	"go.klb.dev/cliprelay/internal/update"
)

// fakeSub records delivered events; ok=false simulates a dead connection.
type fakeSub struct {
	id     string
	source string
	ok     bool
	got    []Event
}

func (f *fakeSub) ID() string     { return f.id }
func (f *fakeSub) Source() string { return f.source }
func (f *fakeSub) Send(ev Event) bool {
	if !f.ok {
		return false
	}
	f.got = append(f.got, ev)
	return true
}

func newFake(source string) *fakeSub {
	return &fakeSub{id: NewID(), source: source, ok: true}
}

func TestBroadcastExcludesOriginConnection(t *testing.T) {
	reg := NewRegistry()
	a, b, c := newFake("a"), newFake("b"), newFake("c")
	reg.Register(a)
	reg.Register(b)
	reg.Register(c)

	u := &update.Update{Formats: map[string]any{"text": "hi"}, Source: "a"}
	rep := NewBroadcaster(reg).Broadcast(u, a.ID())

	assert.Equal(t, 2, rep.Delivered)
	assert.Equal(t, 1, rep.Skipped)
	assert.Empty(t, a.got, "submitting connection must not receive its own update")
	require.Len(t, b.got, 1)
	require.Len(t, c.got, 1)
	assert.Equal(t, "a", b.got[0].Source)
}

func TestBroadcastWithoutExclusionReachesAll(t *testing.T) {
	reg := NewRegistry()
	subs := []*fakeSub{newFake("a"), newFake("b"), newFake("c")}
	for _, s := range subs {
		reg.Register(s)
	}

	u := &update.Update{Formats: map[string]any{"text": "hi"}, Source: "http"}
	rep := NewBroadcaster(reg).Broadcast(u, "")

	assert.Equal(t, 3, rep.Delivered)
	for _, s := range subs {
		assert.Len(t, s.got, 1)
	}
}

func TestBroadcastDropsDeadSubscriber(t *testing.T) {
	reg := NewRegistry()
	alive := newFake("alive")
	dead := newFake("dead")
	dead.ok = false
	reg.Register(alive)
	reg.Register(dead)

	u := &update.Update{Formats: map[string]any{"text": "hi"}, Source: "x"}
	rep := NewBroadcaster(reg).Broadcast(u, "")

	assert.Equal(t, 1, rep.Delivered)
	assert.Equal(t, 1, rep.Dropped)
	assert.Len(t, alive.got, 1, "dead subscriber must not abort the rest")
	assert.Equal(t, 1, reg.Len(), "dead subscriber removed from registry")

	// A second broadcast no longer attempts the removed subscriber.
	rep = NewBroadcaster(reg).Broadcast(u, "")
	assert.Equal(t, 1, rep.Delivered)
	assert.Zero(t, rep.Dropped)
}

func TestRegistryUnregisterUnknownIsNoop(t *testing.T) {
	reg := NewRegistry()
	reg.Unregister("never-registered")
	assert.Zero(t, reg.Len())
}

func TestGatewaySubmitRoundtrip(t *testing.T) {
	g := NewGateway(state.New(), NewRegistry())

	before := g.Fetch()
	u, err := g.SubmitRequest([]byte(`{"formats":{"text":"hello"},"source":"deviceA"}`), "http")
	require.NoError(t, err)

	got := g.Fetch()
	assert.Equal(t, "hello", got.Text())
	assert.Equal(t, "deviceA", got.Source)
	assert.Greater(t, got.Timestamp, before.Timestamp)
	assert.Equal(t, u.Timestamp, got.Timestamp)
}

func TestGatewayRejectionLeavesStateUntouched(t *testing.T) {
	g := NewGateway(state.New(), NewRegistry())
	_, err := g.SubmitRequest([]byte(`{"formats":{"text":"keep"}}`), "")
	require.NoError(t, err)
	kept := g.Fetch()

	_, err = g.SubmitRequest([]byte(`{"formats":{}}`), "")
	assert.ErrorIs(t, err, update.ErrEmptyFormats)
	assert.Equal(t, kept, g.Fetch())
}

func TestGatewayLastWriteWins(t *testing.T) {
	g := NewGateway(state.New(), NewRegistry())
	_, err := g.SubmitRequest([]byte(`{"formats":{"text":"one","image":"data:image/png;base64,aGk="}}`), "")
	require.NoError(t, err)
	_, err = g.SubmitRequest([]byte(`{"formats":{"text":"two"}}`), "")
	require.NoError(t, err)

	got := g.Fetch()
	assert.Equal(t, "two", got.Text())
	assert.False(t, got.HasFormat(update.FormatImage), "no merge across submissions")
}

func TestGatewayPushSubmitExcludesSubmitter(t *testing.T) {
	reg := NewRegistry()
	g := NewGateway(state.New(), reg)

	submitter := newFake("deviceA")
	other := newFake("deviceB")
	reg.Register(submitter)
	reg.Register(other)

	_, err := g.SubmitPush([]byte(`{"formats":{"text":"hi"},"source":"deviceA"}`), submitter.ID(), "websocket")
	require.NoError(t, err)

	assert.Empty(t, submitter.got)
	require.Len(t, other.got, 1)
	assert.Equal(t, "hi", other.got[0].Update.Text())
}

func TestGatewayLegacyEquivalence(t *testing.T) {
	g := NewGateway(state.New(), NewRegistry())
	_, err := g.SubmitRequest([]byte(`{"type":"text","data":"hello"}`), "http")
	require.NoError(t, err)

	got := g.Fetch()
	assert.Equal(t, "hello", got.Text())
	assert.Equal(t, update.SourceLegacy, got.Source)
}
