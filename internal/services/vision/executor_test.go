package vision

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"glance/internal/logging"
	"glance/internal/media"
)

func TestExecutorSuccessFirstAttempt(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(describeResponse("a lighthouse at dusk"))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "k", BaseURL: server.URL, Model: "gpt-4o", MaxTokens: 64})
	executor := NewExecutor(client, logging.NewNop())

	result := executor.Execute(context.Background(), media.URLRef{URL: "https://example.com/light.jpg"}, "describe")
	if result.IsError {
		t.Fatalf("unexpected error result: %q", result.Text)
	}
	if result.SourceLabel != "https://example.com/light.jpg" {
		t.Fatalf("unexpected label %q", result.SourceLabel)
	}
	if result.Text != "a lighthouse at dusk" {
		t.Fatalf("unexpected text %q", result.Text)
	}
}

func TestExecutorExhaustsRetriesOnPersistentFailure(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("backend exploded"))
	}))
	defer server.Close()

	var slept []time.Duration
	client := NewClient(Config{APIKey: "k", BaseURL: server.URL, Model: "gpt-4o", MaxTokens: 64})
	executor := NewExecutor(client, logging.NewNop(), WithSleeper(func(d time.Duration) {
		slept = append(slept, d)
	}))

	result := executor.Execute(context.Background(), media.URLRef{URL: "https://example.com/a.jpg"}, "describe")
	if !result.IsError {
		t.Fatal("expected error result")
	}
	// Initial attempt plus three retries.
	if got := calls.Load(); got != 4 {
		t.Fatalf("expected 4 attempts, got %d", got)
	}
	// Linear backoff: 1s, 2s, 3s between the four attempts.
	want := []time.Duration{time.Second, 2 * time.Second, 3 * time.Second}
	if len(slept) != len(want) {
		t.Fatalf("expected %d sleeps, got %v", len(want), slept)
	}
	for i, d := range want {
		if slept[i] != d {
			t.Fatalf("sleep %d: expected %v, got %v", i, d, slept[i])
		}
	}
	if !strings.HasPrefix(result.Text, "Error: ") {
		t.Fatalf("expected Error: prefix, got %q", result.Text)
	}
	if !strings.Contains(result.Text, "500") || !strings.Contains(result.Text, "backend exploded") {
		t.Fatalf("expected last error message in result, got %q", result.Text)
	}
}

func TestExecutorRecoversAfterTransientFailures(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_ = json.NewEncoder(w).Encode(describeResponse("recovered"))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "k", BaseURL: server.URL, Model: "gpt-4o", MaxTokens: 64})
	executor := NewExecutor(client, logging.NewNop(), WithSleeper(func(time.Duration) {}))

	result := executor.Execute(context.Background(), media.URLRef{URL: "https://example.com/a.jpg"}, "describe")
	if result.IsError {
		t.Fatalf("expected success after retries, got %q", result.Text)
	}
	if result.Text != "recovered" {
		t.Fatalf("unexpected text %q", result.Text)
	}
	if got := calls.Load(); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}
}

func TestExecutorRetriesInvalidFormatLikeTransport(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			_, _ = w.Write([]byte(`{"choices":[]}`))
			return
		}
		_ = json.NewEncoder(w).Encode(describeResponse("second try"))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "k", BaseURL: server.URL, Model: "gpt-4o", MaxTokens: 64})
	executor := NewExecutor(client, logging.NewNop(), WithSleeper(func(time.Duration) {}))

	result := executor.Execute(context.Background(), media.URLRef{URL: "https://example.com/a.jpg"}, "describe")
	if result.IsError || result.Text != "second try" {
		t.Fatalf("expected recovery from format error, got %+v", result)
	}
}

func TestExecutorEncodeFailureBecomesErrorResult(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "k", BaseURL: server.URL, Model: "gpt-4o", MaxTokens: 64})
	executor := NewExecutor(client, logging.NewNop(), WithSleeper(func(time.Duration) {}))

	result := executor.Execute(context.Background(), media.FileRef{Name: "empty.png", MIMEType: "image/png"}, "describe")
	if !result.IsError {
		t.Fatal("expected error result for encode failure")
	}
	if result.SourceLabel != "empty.png" {
		t.Fatalf("unexpected label %q", result.SourceLabel)
	}
	if got := calls.Load(); got != 0 {
		t.Fatalf("encode failure should not reach the network, got %d calls", got)
	}
}

func TestExecutorStopsRetryingOnContextCancel(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	client := NewClient(Config{APIKey: "k", BaseURL: server.URL, Model: "gpt-4o", MaxTokens: 64})
	executor := NewExecutor(client, logging.NewNop(), WithSleeper(func(time.Duration) { cancel() }))

	result := executor.Execute(ctx, media.URLRef{URL: "https://example.com/a.jpg"}, "describe")
	if !result.IsError {
		t.Fatal("expected error result")
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("expected retries to stop after cancel, got %d calls", got)
	}
}

type staticDescriber struct {
	text string
	err  error
}

func (s staticDescriber) Describe(context.Context, string, media.Payload) (string, error) {
	return s.text, s.err
}

func TestExecutorNeverPanicsOnUnknownFailure(t *testing.T) {
	executor := NewExecutor(staticDescriber{err: errors.New("boom")}, logging.NewNop(),
		WithMaxRetries(0))
	result := executor.Execute(context.Background(), media.URLRef{URL: "https://example.com/a.jpg"}, "describe")
	if !result.IsError || result.Text != "Error: boom" {
		t.Fatalf("unexpected result %+v", result)
	}
}
