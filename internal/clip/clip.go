// Package clip provides a unified interface to the system clipboard across
// platforms. Build constraints select the appropriate implementation:
//
//	clip_darwin.go   — macOS via golang.design/x/clipboard + cgo changeCount
//	clip_windows.go  — Windows via golang.design/x/clipboard + AddClipboardFormatListener
//	clip_linux.go    — Linux via golang.design/x/clipboard, polling only
//	clip_other.go    — headless / container stub
//
// Backends speak the relay's format map: "text" is a plain string, "image"
// is a data-URI-encoded PNG. The "files" format is never written back to an
// OS clipboard by the agent.
package clip

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// Backend is the interface that all platform clipboard implementations satisfy.
type Backend interface {
	// Name returns a human-readable name for the backend.
	Name() string

	// Read returns the current clipboard contents as a format map.
	// Returns nil, nil if the clipboard is empty or holds only unsupported types.
	Read() (map[string]any, error)

	// Write applies a format map to the clipboard. When several formats are
	// present, text wins over image; files are ignored.
	Write(formats map[string]any) error

	// Watch returns a channel that receives a signal whenever the clipboard
	// changes. The channel is never closed. On platforms without native change
	// notification (Linux X11/Wayland) this is implemented via polling.
	// The caller should call Read() when it receives from the channel.
	Watch() <-chan struct{}

	// Close releases any resources held by the backend.
	Close()
}

const pngPrefix = "data:image/png;base64,"

// EncodeImage wraps raw PNG bytes in the data-URI form used on the wire.
func EncodeImage(png []byte) string {
	return pngPrefix + base64.StdEncoding.EncodeToString(png)
}

// DecodeImage extracts raw image bytes from a data-URI string.
func DecodeImage(dataURI string) ([]byte, error) {
	if !strings.HasPrefix(dataURI, "data:image") {
		return nil, fmt.Errorf("not an image data URI")
	}
	idx := strings.IndexByte(dataURI, ',')
	if idx < 0 {
		return nil, fmt.Errorf("malformed data URI")
	}
	return base64.StdEncoding.DecodeString(dataURI[idx+1:])
}
