package vision

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"glance/internal/media"
)

func describeResponse(text string) map[string]any {
	return map[string]any{
		"choices": []any{
			map[string]any{
				"message": map[string]any{"content": text},
			},
		},
	}
}

func TestClientDescribeSuccess(t *testing.T) {
	var captured chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Fatalf("unexpected auth header %q", got)
		}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Fatalf("read request: %v", err)
		}
		if err := json.Unmarshal(body, &captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(describeResponse("a cat on a sofa"))
	}))
	defer server.Close()

	client := NewClient(Config{
		APIKey:      "test-key",
		BaseURL:     server.URL,
		Model:       "gpt-4o",
		Temperature: 0.4,
		MaxTokens:   256,
	})
	payload, err := media.Encode(media.URLRef{URL: "https://example.com/cat.jpg"})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	text, err := client.Describe(context.Background(), "describe this", payload)
	if err != nil {
		t.Fatalf("Describe returned error: %v", err)
	}
	if text != "a cat on a sofa" {
		t.Fatalf("unexpected completion %q", text)
	}

	if captured.Model != "gpt-4o" || captured.MaxTokens != 256 || captured.Temperature != 0.4 {
		t.Fatalf("unexpected request settings %+v", captured)
	}
	if len(captured.Messages) != 1 || captured.Messages[0].Role != "user" {
		t.Fatalf("expected one user message, got %+v", captured.Messages)
	}
	parts := captured.Messages[0].Content
	if len(parts) != 2 || parts[0].Type != "text" || parts[0].Text != "describe this" {
		t.Fatalf("unexpected content parts %+v", parts)
	}
	if parts[1].Type != "image_url" || parts[1].ImageURL == nil || parts[1].ImageURL.URL != "https://example.com/cat.jpg" {
		t.Fatalf("unexpected media part %+v", parts[1])
	}
}

func TestClientDescribeVideoPart(t *testing.T) {
	var captured chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &captured)
		_ = json.NewEncoder(w).Encode(describeResponse("a short clip"))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "k", BaseURL: server.URL, Model: "gpt-4o-mini", MaxTokens: 64})
	payload, err := media.Encode(media.URLRef{URL: "https://example.com/clip.mp4"})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := client.Describe(context.Background(), "describe", payload); err != nil {
		t.Fatalf("Describe returned error: %v", err)
	}
	parts := captured.Messages[0].Content
	if parts[1].Type != "video_url" || parts[1].VideoURL == nil {
		t.Fatalf("expected video part, got %+v", parts[1])
	}
}

func TestClientDescribeStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":"rate limited"}`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "k", BaseURL: server.URL, Model: "gpt-4o", MaxTokens: 64})
	payload, _ := media.Encode(media.URLRef{URL: "https://example.com/a.jpg"})
	_, err := client.Describe(context.Background(), "describe", payload)
	if err == nil {
		t.Fatal("expected error for 429 response")
	}
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %T: %v", err, err)
	}
	if statusErr.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("unexpected status %d", statusErr.StatusCode)
	}
	if !strings.Contains(err.Error(), "429") || !strings.Contains(err.Error(), "rate limited") {
		t.Fatalf("expected status and body in message, got %q", err.Error())
	}
}

func TestClientDescribeInvalidFormat(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty choices", `{"choices":[]}`},
		{"missing content", `{"choices":[{"message":{}}]}`},
		{"not json", `<html>oops</html>`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tc.body))
			}))
			defer server.Close()

			client := NewClient(Config{APIKey: "k", BaseURL: server.URL, Model: "gpt-4o", MaxTokens: 64})
			payload, _ := media.Encode(media.URLRef{URL: "https://example.com/a.jpg"})
			_, err := client.Describe(context.Background(), "describe", payload)
			if !errors.Is(err, ErrInvalidResponse) {
				t.Fatalf("expected ErrInvalidResponse, got %v", err)
			}
		})
	}
}

func TestClientDescribeRequiresKeyAndPrompt(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://localhost", Model: "gpt-4o"})
	payload, _ := media.Encode(media.URLRef{URL: "https://example.com/a.jpg"})
	if _, err := client.Describe(context.Background(), "describe", payload); err == nil {
		t.Fatal("expected error without api key")
	}
	client = NewClient(Config{APIKey: "k", BaseURL: "http://localhost", Model: "gpt-4o"})
	if _, err := client.Describe(context.Background(), "  ", payload); err == nil {
		t.Fatal("expected error without prompt")
	}
}
