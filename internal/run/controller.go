package run

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"glance/internal/batch"
	"glance/internal/logging"
	"glance/internal/media"
	"glance/internal/notifications"
)

// State is the lifecycle phase of a run.
type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StatePaused    State = "paused"
	StateAborting  State = "aborting"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// Scheduler drives the partitioned batches of a run. *batch.Scheduler is the
// production implementation.
type Scheduler interface {
	Run(ctx context.Context, refs []media.Reference, prompt string, ctrl batch.Control, sink batch.Sink) error
}

// Controller owns one run from Start to a terminal state.
type Controller struct {
	sched    Scheduler
	logger   *slog.Logger
	notifier notifications.Service

	gate *batch.Gate

	mu       sync.Mutex
	state    State
	progress int
	results  []media.ItemResult
	runErr   error
	runID    string
	started  time.Time
	aborted  bool
	abort    chan struct{}
	done     chan struct{}
}

// NewController wires a controller around the supplied scheduler. A nil
// notifier disables lifecycle pushes.
func NewController(sched Scheduler, logger *slog.Logger, notifier notifications.Service) *Controller {
	if notifier == nil {
		notifier = notifications.Noop()
	}
	return &Controller{
		sched:    sched,
		logger:   logging.NewComponentLogger(logger, "run"),
		notifier: notifier,
		gate:     batch.NewGate(),
		state:    StateIdle,
		abort:    make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start begins the run. It is valid only from the idle state; a second call
// is rejected so callers cannot double-submit. An empty reference list is a
// run-level failure.
func (c *Controller) Start(ctx context.Context, refs []media.Reference, prompt string) error {
	c.mu.Lock()
	if c.state != StateIdle {
		state := c.state
		c.mu.Unlock()
		return fmt.Errorf("run already started (state %s)", state)
	}
	if len(refs) == 0 {
		err := errors.New("no media references supplied")
		c.state = StateFailed
		c.runErr = err
		close(c.done)
		c.mu.Unlock()
		return err
	}
	c.state = StateRunning
	c.runID = uuid.NewString()
	c.started = time.Now()
	items := make([]media.Reference, len(refs))
	copy(items, refs)
	runID := c.runID
	c.mu.Unlock()

	runCtx := logging.WithRunID(ctx, runID)
	logger := c.logger.With(logging.String(logging.FieldRunID, runID))
	logger.Info("run started", logging.Int("item_count", len(items)))
	if err := c.notifier.NotifyRunStarted(runCtx, len(items)); err != nil {
		logger.Warn("start notification failed", logging.Error(err))
	}

	go c.execute(runCtx, items, prompt, logger)
	return nil
}

func (c *Controller) execute(ctx context.Context, refs []media.Reference, prompt string, logger *slog.Logger) {
	err := c.sched.Run(ctx, refs, prompt, control{c}, sink{c})

	c.mu.Lock()
	if err != nil {
		c.state = StateFailed
		c.runErr = err
	} else {
		c.state = StateCompleted
	}
	state := c.state
	results := c.results
	started := c.started
	close(c.done)
	c.mu.Unlock()

	duration := time.Since(started)
	notifyCtx := context.WithoutCancel(ctx)
	switch state {
	case StateFailed:
		logger.Error("run failed", logging.Error(err), logging.Duration("duration", duration))
		if nerr := c.notifier.NotifyRunFailed(notifyCtx, err); nerr != nil {
			logger.Warn("failure notification failed", logging.Error(nerr))
		}
	default:
		succeeded, failed := tally(results)
		logger.Info("run completed",
			logging.Int("succeeded", succeeded),
			logging.Int("failed", failed),
			logging.Duration("duration", duration),
		)
		if nerr := c.notifier.NotifyRunCompleted(notifyCtx, succeeded, failed, duration); nerr != nil {
			logger.Warn("completion notification failed", logging.Error(nerr))
		}
	}
}

// Pause suspends batch dispatch. Valid only while running; otherwise
// ignored. The batch already in flight finishes.
func (c *Controller) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateRunning {
		return
	}
	c.state = StatePaused
	c.gate.Pause()
	c.logger.Info("run paused", logging.String(logging.FieldRunID, c.runID))
}

// Resume reopens the gate. Valid only while paused; otherwise ignored.
func (c *Controller) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StatePaused {
		return
	}
	c.state = StateRunning
	c.gate.Resume()
	c.logger.Info("run resumed", logging.String(logging.FieldRunID, c.runID))
}

// Stop requests an abort. Valid from running or paused and idempotent. The
// batch already in flight finishes and its results are kept; no further
// batches start. The run settles in the completed state.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateRunning && c.state != StatePaused {
		return
	}
	c.state = StateAborting
	if !c.aborted {
		c.aborted = true
		close(c.abort)
	}
	// Release a paused scheduler so it can observe the abort.
	c.gate.Resume()
	c.logger.Info("run stop requested", logging.String(logging.FieldRunID, c.runID))
}

// Wait blocks until the run reaches a terminal state.
func (c *Controller) Wait() {
	<-c.done
}

// Done exposes the terminal-state channel for select loops.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// State returns the current lifecycle phase.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Progress returns percent complete, 0-100.
func (c *Controller) Progress() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.progress
}

// Results returns a snapshot copy of the ordered results collected so far.
func (c *Controller) Results() []media.ItemResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	results := make([]media.ItemResult, len(c.results))
	copy(results, c.results)
	return results
}

// Err returns the run-level error, if the run failed.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.runErr
}

// RunID returns the identifier assigned at Start.
func (c *Controller) RunID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.runID
}

// control adapts the controller to the scheduler's Control interface without
// exporting mutators on the controller itself.
type control struct {
	c *Controller
}

func (h control) WaitResume(ctx context.Context) error { return h.c.gate.Wait(ctx) }

func (h control) Aborted() bool {
	h.c.mu.Lock()
	defer h.c.mu.Unlock()
	return h.c.aborted
}

func (h control) AbortChan() <-chan struct{} { return h.c.abort }

// sink is the only path that mutates results and progress.
type sink struct {
	c *Controller
}

func (s sink) AppendResults(results []media.ItemResult) {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	s.c.results = append(s.c.results, results...)
}

func (s sink) SetProgress(progress int) {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	if progress < s.c.progress {
		return
	}
	if progress > 100 {
		progress = 100
	}
	s.c.progress = progress
}

func tally(results []media.ItemResult) (succeeded, failed int) {
	for _, result := range results {
		if result.IsError {
			failed++
		} else {
			succeeded++
		}
	}
	return succeeded, failed
}
