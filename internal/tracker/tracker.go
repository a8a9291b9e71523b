// Package tracker samples the active window on an interval, classifies the
// focused application into an activity type, and submits each sample to the
// tracking pipeline.
package tracker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ENACT/enact/internal/models"
)

const (
	defaultInterval      = 10 * time.Second
	defaultIdleThreshold = 5 * time.Minute
	submitTimeout        = 5 * time.Second
)

// Snapshotter supplies the system-metrics snapshot attached to every
// submitted sample.
type Snapshotter interface {
	Snapshot() map[string]any
}

// Tracker runs the background sampling loop. Start and Stop are idempotent
// and a stopped tracker can be started again.
type Tracker struct {
	inspector     Inspector
	submitter     Submitter
	snapshots     Snapshotter
	logger        *slog.Logger
	interval      time.Duration
	idleThreshold time.Duration

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
	done     chan struct{}

	metrics interface{ SamplerTick() }

	// idleFor accumulates consecutive idle time; only the loop goroutine
	// touches it.
	idleFor time.Duration
}

// New constructs a Tracker. snapshots may be nil, in which case samples carry
// no system metrics. A non-positive interval or idleThreshold falls back to
// the defaults (10 s sampling, 5 min idle suppression).
func New(inspector Inspector, submitter Submitter, snapshots Snapshotter, interval, idleThreshold time.Duration, logger *slog.Logger) *Tracker {
	if interval <= 0 {
		interval = defaultInterval
	}
	if idleThreshold <= 0 {
		idleThreshold = defaultIdleThreshold
	}
	return &Tracker{
		inspector:     inspector,
		submitter:     submitter,
		snapshots:     snapshots,
		logger:        logger,
		interval:      interval,
		idleThreshold: idleThreshold,
	}
}

// SetMetrics attaches a sample counter. Call before Start.
func (t *Tracker) SetMetrics(metrics interface{ SamplerTick() }) {
	t.metrics = metrics
}

// Start begins the sampling loop in a new goroutine. Starting a running
// tracker is a no-op.
func (t *Tracker) Start(ctx context.Context) {
	t.mu.Lock()
	if t.running {
		t.mu.Unlock()
		t.logger.Debug("Tracker already running")
		return
	}
	t.running = true
	t.stopChan = make(chan struct{})
	t.done = make(chan struct{})
	stopChan, done := t.stopChan, t.done
	t.mu.Unlock()

	t.logger.Info("Starting activity tracker",
		"interval", t.interval,
		"idle_threshold", t.idleThreshold)
	go t.run(ctx, stopChan, done)
}

// Stop halts the loop and waits for the in-flight sample to finish. Stopping
// a tracker that is not running is a no-op.
func (t *Tracker) Stop() {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return
	}
	t.running = false
	close(t.stopChan)
	done := t.done
	t.mu.Unlock()

	select {
	case <-done:
	case <-time.After(submitTimeout + time.Second):
		t.logger.Warn("Tracker did not stop within the grace period")
	}
}

func (t *Tracker) run(ctx context.Context, stopChan <-chan struct{}, done chan<- struct{}) {
	defer func() {
		close(done)
		t.mu.Lock()
		t.running = false
		t.mu.Unlock()
	}()

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			t.sampleOnce(ctx)
		case <-stopChan:
			t.logger.Info("Activity tracker stopped")
			return
		case <-ctx.Done():
			t.logger.Info("Activity tracker stopping due to context cancellation")
			return
		}
	}
}

// sampleOnce inspects, classifies, and submits a single sample. A failed
// window read classifies as idle rather than aborting the loop.
func (t *Tracker) sampleOnce(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			t.logger.Error("Recovered from panic in tracker sample", "panic", r)
		}
	}()

	if t.metrics != nil {
		t.metrics.SamplerTick()
	}

	title, process, err := t.inspector.ActiveWindow(ctx)
	if err != nil {
		t.logger.Debug("Failed to inspect active window, sampling as idle", "error", err.Error())
		title, process = "", ""
	}

	activity := Classify(title, process)

	if activity == models.ActivityIdle {
		t.idleFor += t.interval
		// Sustained idle stretches are not worth logging; the machine is
		// effectively unattended past the threshold.
		if t.idleFor > t.idleThreshold {
			t.logger.Debug("Suppressing idle sample", "idle_for", t.idleFor)
			return
		}
	} else {
		t.idleFor = 0
	}

	metadata := map[string]any{"source": "auto_tracker"}
	if t.snapshots != nil {
		for key, value := range t.snapshots.Snapshot() {
			metadata[key] = value
		}
	}

	submitCtx, cancel := context.WithTimeout(ctx, submitTimeout)
	defer cancel()

	if err := t.submitter.Submit(submitCtx, activity, t.interval.Seconds(), metadata); err != nil {
		t.logger.Warn("Failed to submit tracked sample",
			"activity_type", activity,
			"error", err.Error())
		return
	}

	t.logger.Debug("Tracked activity sample",
		"activity_type", activity,
		"duration_seconds", t.interval.Seconds())
}
