package update

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeModern(t *testing.T) {
	u, err := Normalize([]byte(`{"formats":{"text":"hello"},"source":"ios"}`), "")
	require.NoError(t, err)
	assert.Equal(t, "hello", u.Text())
	assert.Equal(t, "ios", u.Source)
	assert.Zero(t, u.Timestamp)
}

func TestNormalizeDefaultsSource(t *testing.T) {
	u, err := Normalize([]byte(`{"formats":{"text":"hi"}}`), "")
	require.NoError(t, err)
	assert.Equal(t, SourceUnknown, u.Source)

	u, err = Normalize([]byte(`{"formats":{"text":"hi"}}`), "http")
	require.NoError(t, err)
	assert.Equal(t, "http", u.Source)

	// An explicit source always wins over the fallback.
	u, err = Normalize([]byte(`{"formats":{"text":"hi"},"source":"windows"}`), "http")
	require.NoError(t, err)
	assert.Equal(t, "windows", u.Source)
}

func TestNormalizeRejections(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want error
	}{
		{"missing formats", `{"source":"ios"}`, ErrMissingFormats},
		{"empty formats", `{"formats":{}}`, ErrEmptyFormats},
		{"legacy bad type", `{"type":"files","data":"x"}`, ErrInvalidType},
		{"legacy non-string data", `{"type":"text","data":42}`, ErrInvalidData},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize([]byte(tt.raw), "")
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestNormalizeLegacy(t *testing.T) {
	u, err := Normalize([]byte(`{"type":"text","data":"hello"}`), "")
	require.NoError(t, err)
	assert.Equal(t, "hello", u.Text())
	assert.Equal(t, SourceLegacy, u.Source)

	u, err = Normalize([]byte(`{"type":"image","data":"data:image/png;base64,aGk="}`), "")
	require.NoError(t, err)
	assert.True(t, u.HasFormat(FormatImage))
	assert.Equal(t, SourceLegacy, u.Source)
}

func TestNormalizeDropsNamelessFiles(t *testing.T) {
	raw := []byte(`{"formats":{"files":[
		{"name":"a.txt","content":"aGk=","size":2,"mimeType":"text/plain"},
		{"content":"b3JwaGFu","size":6},
		{"name":"dir","content":"","size":0,"isDirectory":true}
	]},"source":"windows"}`)

	u, err := Normalize(raw, "")
	require.NoError(t, err)
	files := u.Files()
	require.Len(t, files, 2)
	assert.Equal(t, "a.txt", files[0].Name)
	assert.Equal(t, int64(2), files[0].Size)
	assert.True(t, files[1].IsDirectory)
}

func TestNormalizeAllFilesDroppedLeavesEmpty(t *testing.T) {
	// A files-only update whose entries are all nameless ends up empty and
	// must be rejected, not accepted as a formatless update.
	raw := []byte(`{"formats":{"files":[{"content":"aGk="}]}}`)
	_, err := Normalize(raw, "")
	assert.ErrorIs(t, err, ErrEmptyFormats)
}

func TestNormalizeMalformedJSON(t *testing.T) {
	_, err := Normalize([]byte(`{"formats":`), "")
	assert.Error(t, err)
}
