package clip

import "go.klb.dev/cliprelay/internal/update"

// readFormats builds a format map from the x/clipboard text and image slots.
// Shared by the platform backends; returns nil when both are empty.
func readFormats(text, img []byte) map[string]any {
	formats := make(map[string]any, 2)
	if len(text) > 0 {
		formats[update.FormatText] = string(text)
	}
	if len(img) > 0 {
		formats[update.FormatImage] = EncodeImage(img)
	}
	if len(formats) == 0 {
		return nil
	}
	return formats
}

// pickWrite selects what a backend should write from a multi-format update:
// text first, then image. Returns ok=false when neither is present.
func pickWrite(formats map[string]any) (text string, img []byte, ok bool) {
	if t, isStr := formats[update.FormatText].(string); isStr && t != "" {
		return t, nil, true
	}
	if uri, isStr := formats[update.FormatImage].(string); isStr && uri != "" {
		raw, err := DecodeImage(uri)
		if err != nil {
			return "", nil, false
		}
		return "", raw, true
	}
	return "", nil, false
}
