package batch

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"glance/internal/logging"
	"glance/internal/media"
)

// DefaultRateLimit is the sustained batch dispatch rate per minute.
const DefaultRateLimit = 3

// Executor performs one inference call for one media reference. It never
// fails; exhausted items come back as error results.
type Executor interface {
	Execute(ctx context.Context, ref media.Reference, prompt string) media.ItemResult
}

// Sink receives ordered result batches and progress updates. The run
// controller is the only implementation; the scheduler never touches shared
// state directly.
type Sink interface {
	AppendResults(results []media.ItemResult)
	SetProgress(progress int)
}

// Control exposes the cooperative pause and abort signals owned by the run
// controller.
type Control interface {
	// WaitResume blocks while the run is paused.
	WaitResume(ctx context.Context) error
	// Aborted reports whether stop was requested.
	Aborted() bool
	// AbortChan is closed when stop is requested, so rate-limit delays can
	// wake early.
	AbortChan() <-chan struct{}
}

// Scheduler drives a run's batches sequentially, fanning items out within
// each batch.
type Scheduler struct {
	exec   Executor
	logger *slog.Logger

	batchSize       int
	interBatchDelay time.Duration
}

// SchedulerOption configures optional Scheduler behavior.
type SchedulerOption func(*Scheduler)

// WithBatchSize overrides the batch size (defaults to 5).
func WithBatchSize(size int) SchedulerOption {
	return func(s *Scheduler) {
		if size > 0 {
			s.batchSize = size
		}
	}
}

// WithRateLimit sets the sustained rate in batches per minute (defaults to
// 3, i.e. a 20s delay between batches).
func WithRateLimit(perMinute int) SchedulerOption {
	return func(s *Scheduler) {
		if perMinute > 0 {
			s.interBatchDelay = time.Minute / time.Duration(perMinute)
		}
	}
}

// WithInterBatchDelay overrides the computed rate-limit delay directly
// (useful for tests).
func WithInterBatchDelay(delay time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		s.interBatchDelay = delay
	}
}

// NewScheduler constructs a scheduler around the supplied executor.
func NewScheduler(exec Executor, logger *slog.Logger, opts ...SchedulerOption) *Scheduler {
	scheduler := &Scheduler{
		exec:            exec,
		logger:          logging.NewComponentLogger(logger, "scheduler"),
		batchSize:       DefaultSize,
		interBatchDelay: time.Minute / DefaultRateLimit,
	}
	for _, opt := range opts {
		opt(scheduler)
	}
	return scheduler
}

// Run partitions refs and processes every batch in order. Per-item failures
// are contained in the results; only a setup failure (bad partition size)
// or context cancellation is returned. An abort observed between batches
// ends the run early with the results produced so far intact.
func (s *Scheduler) Run(ctx context.Context, refs []media.Reference, prompt string, ctrl Control, sink Sink) error {
	batches, err := Partition(refs, s.batchSize)
	if err != nil {
		return err
	}
	total := len(refs)
	completed := 0

	for i, refs := range batches {
		if err := ctrl.WaitResume(ctx); err != nil {
			return err
		}
		if ctrl.Aborted() {
			s.logger.Info("run aborted before batch",
				logging.Int(logging.FieldBatchIndex, i),
				logging.Int("completed", completed),
			)
			return nil
		}

		started := time.Now()
		results := s.runBatch(ctx, refs, prompt)
		sink.AppendResults(results)
		completed += len(results)
		sink.SetProgress(progressFor(completed, total))

		s.logger.Info("batch complete",
			logging.Int(logging.FieldBatchIndex, i),
			logging.Int("batch_size", len(refs)),
			logging.Int("completed", completed),
			logging.Int("total", total),
			logging.Duration("elapsed", time.Since(started)),
		)

		if i < len(batches)-1 {
			if err := s.pace(ctx, ctrl); err != nil {
				return err
			}
		}
	}
	return nil
}

// runBatch fans the batch's items out concurrently and fans back in with
// results indexed by item position, so batch order equals input order no
// matter which request finishes first.
func (s *Scheduler) runBatch(ctx context.Context, refs []media.Reference, prompt string) []media.ItemResult {
	results := make([]media.ItemResult, len(refs))
	var wg sync.WaitGroup
	wg.Add(len(refs))
	for i, ref := range refs {
		i, ref := i, ref
		go func() {
			defer wg.Done()
			results[i] = s.exec.Execute(ctx, ref, prompt)
		}()
	}
	wg.Wait()
	return results
}

// pace enforces the inter-batch rate limit. An abort cuts the delay short;
// the caller re-checks the abort flag before the next batch.
func (s *Scheduler) pace(ctx context.Context, ctrl Control) error {
	if s.interBatchDelay <= 0 {
		return nil
	}
	timer := time.NewTimer(s.interBatchDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-ctrl.AbortChan():
		return nil
	case <-timer.C:
		return nil
	}
}

// progressFor computes percent complete from the actual cumulative item
// count, clamped to 100 so a trailing partial batch can never overshoot.
func progressFor(completed, total int) int {
	if total <= 0 {
		return 100
	}
	progress := completed * 100 / total
	if progress > 100 {
		progress = 100
	}
	return progress
}
