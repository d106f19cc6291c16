package media

import (
	"fmt"
	"mime"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// Kind tells the provider how to interpret a payload.
type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

// Reference identifies one submitted media input. Implementations are
// FileRef and URLRef; the interface is sealed so every reference resolves to
// exactly one of the two.
type Reference interface {
	// Label returns the user-facing identifier: the file name for a
	// FileRef, the literal URL for a URLRef.
	Label() string

	isReference()
}

// FileRef is a local file captured as raw bytes.
type FileRef struct {
	Name     string
	MIMEType string
	Data     []byte
}

func (FileRef) isReference() {}

// Label returns the file name.
func (f FileRef) Label() string { return f.Name }

// URLRef is a remote media location. The URL is never fetched locally; the
// inference provider dereferences it.
type URLRef struct {
	URL string
}

func (URLRef) isReference() {}

// Label returns the literal URL.
func (u URLRef) Label() string { return u.URL }

// ItemResult is the per-reference outcome of a run: either the completion
// text produced by the model or an error message when every attempt failed.
type ItemResult struct {
	SourceLabel string `json:"source"`
	Text        string `json:"text"`
	IsError     bool   `json:"is_error"`
}

const fallbackMIMEType = "application/octet-stream"

// FromPath reads a local file into a FileRef. The MIME type is sniffed from
// the file extension.
func FromPath(path string) (FileRef, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return FileRef{}, fmt.Errorf("read media file: %w", err)
	}
	mimeType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if mimeType == "" {
		mimeType = fallbackMIMEType
	}
	return FileRef{
		Name:     filepath.Base(path),
		MIMEType: mimeType,
		Data:     data,
	}, nil
}

// Parse turns one CLI argument into a Reference: http(s) inputs become
// URLRefs, everything else is treated as a local file path.
func Parse(arg string) (Reference, error) {
	trimmed := strings.TrimSpace(arg)
	if trimmed == "" {
		return nil, fmt.Errorf("empty media reference")
	}
	if isRemote(trimmed) {
		return URLRef{URL: trimmed}, nil
	}
	return FromPath(trimmed)
}

func isRemote(arg string) bool {
	parsed, err := url.Parse(arg)
	if err != nil {
		return false
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https":
		return parsed.Host != ""
	default:
		return false
	}
}
