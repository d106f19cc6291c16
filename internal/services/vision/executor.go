package vision

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"glance/internal/logging"
	"glance/internal/media"
)

const (
	// DefaultMaxRetries is the retry budget per item beyond the first attempt.
	DefaultMaxRetries = 3
	// defaultBackoffUnit scales the linear backoff: attempt N sleeps N units.
	defaultBackoffUnit = time.Second
)

// Describer performs one inference call for one payload.
type Describer interface {
	Describe(ctx context.Context, prompt string, payload media.Payload) (string, error)
}

// Executor runs one media reference end to end: encode, request, bounded
// retry. Execute never fails; every exhausted item becomes an error
// ItemResult.
type Executor struct {
	client Describer
	logger *slog.Logger

	maxRetries  int
	backoffUnit time.Duration
	sleeper     func(time.Duration)
}

// ExecutorOption customizes retry behavior.
type ExecutorOption func(*Executor)

// WithMaxRetries overrides the retry budget (defaults to 3).
func WithMaxRetries(retries int) ExecutorOption {
	return func(e *Executor) {
		if retries >= 0 {
			e.maxRetries = retries
		}
	}
}

// WithBackoffUnit overrides the linear backoff unit (defaults to 1s).
func WithBackoffUnit(unit time.Duration) ExecutorOption {
	return func(e *Executor) {
		e.backoffUnit = unit
	}
}

// WithSleeper overrides how backoff sleeps are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) ExecutorOption {
	return func(e *Executor) {
		e.sleeper = sleeper
	}
}

// NewExecutor constructs an executor around the supplied client.
func NewExecutor(client Describer, logger *slog.Logger, opts ...ExecutorOption) *Executor {
	executor := &Executor{
		client:      client,
		logger:      logging.NewComponentLogger(logger, "executor"),
		maxRetries:  DefaultMaxRetries,
		backoffUnit: defaultBackoffUnit,
	}
	for _, opt := range opts {
		opt(executor)
	}
	return executor
}

// Execute resolves one reference to exactly one ItemResult. Encode failures
// count as attempt failures; transport, HTTP status, and response-format
// failures are retried identically. After the retry budget is spent the last
// error is reported inline.
func (e *Executor) Execute(ctx context.Context, ref media.Reference, prompt string) media.ItemResult {
	label := ref.Label()
	attempts := e.maxRetries + 1

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		text, err := e.attempt(ctx, ref, prompt)
		if err == nil {
			return media.ItemResult{SourceLabel: label, Text: text}
		}
		lastErr = err
		e.logger.Warn("item attempt failed",
			logging.String(logging.FieldItem, label),
			logging.Int(logging.FieldAttempt, attempt),
			logging.Error(err),
		)
		if attempt == attempts {
			break
		}
		if err := e.sleep(ctx, time.Duration(attempt)*e.backoffUnit); err != nil {
			break
		}
	}
	if lastErr == nil {
		lastErr = errors.New("unknown failure")
	}
	return media.ItemResult{
		SourceLabel: label,
		Text:        "Error: " + lastErr.Error(),
		IsError:     true,
	}
}

func (e *Executor) attempt(ctx context.Context, ref media.Reference, prompt string) (string, error) {
	payload, err := media.Encode(ref)
	if err != nil {
		return "", err
	}
	return e.client.Describe(ctx, prompt, payload)
}

func (e *Executor) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	if e.sleeper != nil {
		e.sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
