package state

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.klb.dev/cliprelay/internal/update"
)

func TestSetStampsMonotonicTimestamps(t *testing.T) {
	s := New()
	boot := s.Get()

	u1 := &update.Update{Formats: map[string]any{"text": "one"}, Source: "a"}
	s.Set(u1)
	got1 := s.Get()
	assert.Greater(t, got1.Timestamp, boot.Timestamp)
	assert.Equal(t, got1.Timestamp, u1.Timestamp)

	// Rapid successive writes within the same millisecond must still produce
	// strictly increasing timestamps.
	u2 := &update.Update{Formats: map[string]any{"text": "two"}, Source: "b"}
	s.Set(u2)
	got2 := s.Get()
	assert.Greater(t, got2.Timestamp, got1.Timestamp)
}

func TestSetReplacesWholesale(t *testing.T) {
	s := New()
	s.Set(&update.Update{
		Formats: map[string]any{"text": "hello", "image": "data:image/png;base64,aGk="},
		Source:  "ios",
	})
	s.Set(&update.Update{Formats: map[string]any{"text": "bye"}, Source: "windows"})

	got := s.Get()
	assert.Equal(t, "bye", got.Text())
	assert.False(t, got.HasFormat(update.FormatImage), "no merge with the previous update")
	assert.Equal(t, "windows", got.Source)
}

func TestBootState(t *testing.T) {
	s := New()
	got := s.Get()
	require.NotNil(t, got.Formats)
	assert.Empty(t, got.Formats)
	assert.Equal(t, update.SourceUnknown, got.Source)
}

func TestConcurrentSetAndGet(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.Set(&update.Update{Formats: map[string]any{"text": "x"}, Source: "a"})
		}()
		go func() {
			defer wg.Done()
			got := s.Get()
			// A reader must never observe a torn record.
			assert.NotNil(t, got.Formats)
			assert.NotEmpty(t, got.Source)
		}()
	}
	wg.Wait()
}
