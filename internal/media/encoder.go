package media

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
)

// Payload is the provider-specific descriptor derived from a Reference.
// Exactly one of Inline or URL is set.
type Payload struct {
	Kind     Kind
	MIMEType string
	// Inline holds base64-encoded file bytes for local media.
	Inline string
	// URL holds the remote location, passed through untouched.
	URL string
}

// ContentURL renders the payload as the URL form expected by
// chat-completions media parts: a data URI for inline media, the remote URL
// otherwise.
func (p Payload) ContentURL() string {
	if p.URL != "" {
		return p.URL
	}
	return "data:" + p.MIMEType + ";base64," + p.Inline
}

// Encode converts a Reference into its Payload. It performs no I/O: file
// bytes were captured when the FileRef was built and URLs are never fetched
// locally.
func Encode(ref Reference) (Payload, error) {
	switch r := ref.(type) {
	case FileRef:
		if len(r.Data) == 0 {
			return Payload{}, fmt.Errorf("encode %s: file reference has no data", r.Name)
		}
		mimeType := strings.TrimSpace(r.MIMEType)
		if mimeType == "" {
			mimeType = fallbackMIMEType
		}
		return Payload{
			Kind:     classifyMIME(mimeType),
			MIMEType: mimeType,
			Inline:   base64.StdEncoding.EncodeToString(r.Data),
		}, nil
	case URLRef:
		trimmed := strings.TrimSpace(r.URL)
		if trimmed == "" {
			return Payload{}, fmt.Errorf("encode url reference: url is empty")
		}
		return Payload{
			Kind: classifyURL(trimmed),
			URL:  trimmed,
		}, nil
	default:
		return Payload{}, fmt.Errorf("encode: unsupported reference type %T", ref)
	}
}

func classifyMIME(mimeType string) Kind {
	if strings.HasPrefix(strings.ToLower(mimeType), "video/") {
		return KindVideo
	}
	return KindImage
}

func classifyURL(raw string) Kind {
	path := raw
	if parsed, err := url.Parse(raw); err == nil && parsed.Path != "" {
		path = parsed.Path
	}
	if strings.HasSuffix(strings.ToLower(path), ".mp4") {
		return KindVideo
	}
	return KindImage
}
