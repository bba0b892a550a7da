// Package update defines the clipboard update record and the validation that
// every inbound submission passes before the relay accepts it.
//
// Two submission shapes are accepted on the wire:
//
//	{"formats": {"text": "...", ...}, "source": "ios"}   — modern
//	{"type": "text"|"image", "data": "..."}              — legacy
//
// Legacy submissions are normalized into the modern shape with source
// "legacy" before validation runs, so the rest of the relay only ever sees
// one canonical Update.
package update

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Well-known format names. Formats is an open map; these are the ones the
// bundled clients produce.
const (
	FormatText  = "text"
	FormatImage = "image"
	FormatFiles = "files"
)

// SourceUnknown is assigned when a submission carries no source tag.
const SourceUnknown = "unknown"

// SourceLegacy tags submissions that arrived in the legacy single-format shape.
const SourceLegacy = "legacy"

// Validation errors returned by Normalize. The HTTP edge maps these to 400
// responses with the error text as the machine-readable reason.
var (
	ErrMissingFormats = errors.New("formats object is required")
	ErrEmptyFormats   = errors.New("at least one format is required")
	ErrInvalidType    = errors.New("invalid clipboard type")
	ErrInvalidData    = errors.New("clipboard data must be a string")
)

// FileEntry describes one file inside the "files" format. Content is base64,
// empty for directories. Image formats elsewhere use data-URI strings.
type FileEntry struct {
	Name        string `json:"name"`
	Content     string `json:"content"`
	Size        int64  `json:"size"`
	MimeType    string `json:"mimeType,omitempty"`
	IsDirectory bool   `json:"isDirectory,omitempty"`
}

// Update is the canonical clipboard record, both on the wire and inside the
// relay. Timestamp is stamped by the relay at acceptance time and is never
// trusted from the client.
type Update struct {
	Formats   map[string]any `json:"formats"`
	Source    string         `json:"source"`
	Timestamp int64          `json:"timestamp"`
}

// submission is the union of both accepted wire shapes.
type submission struct {
	// Modern
	Formats map[string]any `json:"formats"`
	Source  string         `json:"source"`

	// Legacy
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Normalize decodes raw into a validated Update. fallbackSource is used when
// the submission carries no source tag; pass "" to default to "unknown".
func Normalize(raw []byte, fallbackSource string) (*Update, error) {
	var sub submission
	if err := json.Unmarshal(raw, &sub); err != nil {
		return nil, fmt.Errorf("decode submission: %w", err)
	}

	if sub.Formats == nil && sub.Type != "" {
		return normalizeLegacy(&sub)
	}
	return validate(sub.Formats, sub.Source, fallbackSource)
}

// normalizeLegacy converts a {type, data} submission into the modern shape.
// The two allowed types are "text" and "image"; data must be a JSON string.
func normalizeLegacy(sub *submission) (*Update, error) {
	if sub.Type != FormatText && sub.Type != FormatImage {
		return nil, ErrInvalidType
	}
	var data string
	if err := json.Unmarshal(sub.Data, &data); err != nil {
		return nil, ErrInvalidData
	}
	return validate(map[string]any{sub.Type: data}, SourceLegacy, "")
}

// validate applies the acceptance rules in order and returns the canonical
// Update. The Timestamp is left zero; the state store stamps it on Set.
func validate(formats map[string]any, source, fallbackSource string) (*Update, error) {
	if formats == nil {
		return nil, ErrMissingFormats
	}
	if len(formats) == 0 {
		return nil, ErrEmptyFormats
	}

	if files, ok := formats[FormatFiles]; ok {
		cleaned := cleanFiles(files)
		if cleaned == nil {
			delete(formats, FormatFiles)
			if len(formats) == 0 {
				return nil, ErrEmptyFormats
			}
		} else {
			formats[FormatFiles] = cleaned
		}
	}

	if source == "" {
		source = fallbackSource
	}
	if source == "" {
		source = SourceUnknown
	}

	return &Update{Formats: formats, Source: source}, nil
}

// cleanFiles drops file entries without a name rather than rejecting the
// whole update. Returns nil when nothing valid remains or the value is not a
// file list at all.
func cleanFiles(v any) []FileEntry {
	list, ok := v.([]any)
	if !ok {
		// Already-typed entries pass through (internal callers).
		if typed, ok := v.([]FileEntry); ok {
			return cleanTyped(typed)
		}
		return nil
	}

	var out []FileEntry
	for _, raw := range list {
		m, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		name, _ := m["name"].(string)
		if name == "" {
			continue
		}
		entry := FileEntry{Name: name}
		entry.Content, _ = m["content"].(string)
		entry.MimeType, _ = m["mimeType"].(string)
		if sz, ok := m["size"].(float64); ok {
			entry.Size = int64(sz)
		}
		entry.IsDirectory, _ = m["isDirectory"].(bool)
		out = append(out, entry)
	}
	return out
}

func cleanTyped(list []FileEntry) []FileEntry {
	var out []FileEntry
	for _, f := range list {
		if f.Name != "" {
			out = append(out, f)
		}
	}
	return out
}

// HasFormat reports whether the update carries the named format.
func (u *Update) HasFormat(name string) bool {
	_, ok := u.Formats[name]
	return ok
}

// Text returns the text format as a string, or "" when absent.
func (u *Update) Text() string {
	s, _ := u.Formats[FormatText].(string)
	return s
}

// Image returns the image format (a data-URI string), or "" when absent.
func (u *Update) Image() string {
	s, _ := u.Formats[FormatImage].(string)
	return s
}

// Files returns the cleaned file entries, or nil when absent.
func (u *Update) Files() []FileEntry {
	f, _ := u.Formats[FormatFiles].([]FileEntry)
	return f
}

// FormatNames returns the format keys present, for logging.
func (u *Update) FormatNames() []string {
	names := make([]string, 0, len(u.Formats))
	for name := range u.Formats {
		names = append(names, name)
	}
	return names
}
