package collector

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"boiler_collector/internal/device"
	"boiler_collector/internal/logger"
	"boiler_collector/internal/models"
	"boiler_collector/internal/normalize"
	"boiler_collector/internal/payload"
	"boiler_collector/internal/service"

	"github.com/google/uuid"
)

// Loop states.
const (
	StateIdle       = "IDLE"
	StatePolling    = "POLLING"
	StateBackingOff = "BACKING_OFF"
	StateStopped    = "STOPPED"
)

// DefaultPendingLimit bounds the snapshots kept while storage is down.
const DefaultPendingLimit = 100

// ErrDeviceMismatch fails a poll whose reply carries another device id than
// the one configured; reports, events and status share that id as their key.
var ErrDeviceMismatch = errors.New("reply from unexpected device")

// EventSink receives collector events. repository.EventRepo satisfies it.
type EventSink interface {
	Append(ctx context.Context, e models.CollectorEvent) error
}

// Options configures one collector. Interval and PollTimeout are required.
type Options struct {
	DeviceID     string
	Querier      device.Querier
	Normalizer   *normalize.Normalizer
	Recorder     service.Recorder
	Events       EventSink
	Logger       *logger.Logger
	Interval     time.Duration
	PollTimeout  time.Duration
	GracePeriod  time.Duration
	Backoff      Backoff
	PendingLimit int

	// Now defaults to time.Now.
	Now func() time.Time
}

// Collector polls one device until its context is canceled.
type Collector struct {
	opts Options
	log  *logger.Logger

	// owned by the Run goroutine
	failures   int
	lastReport *int64
	configHash string
	pending    []models.Snapshot

	mu     sync.Mutex
	status models.CollectorStatus
}

func New(opts Options) (*Collector, error) {
	switch {
	case strings.TrimSpace(opts.DeviceID) == "":
		return nil, errors.New("collector: device id is required")
	case opts.Querier == nil:
		return nil, errors.New("collector: querier is required")
	case opts.Normalizer == nil:
		return nil, errors.New("collector: normalizer is required")
	case opts.Recorder == nil:
		return nil, errors.New("collector: recorder is required")
	case opts.Interval <= 0:
		return nil, errors.New("collector: interval must be > 0")
	case opts.PollTimeout <= 0:
		return nil, errors.New("collector: poll timeout must be > 0")
	case opts.GracePeriod < 0:
		return nil, errors.New("collector: grace period must be >= 0")
	}
	if opts.Backoff.isZero() {
		opts.Backoff = DefaultBackoff()
	}
	if err := opts.Backoff.Validate(); err != nil {
		return nil, fmt.Errorf("collector: %w", err)
	}
	if opts.PendingLimit <= 0 {
		opts.PendingLimit = DefaultPendingLimit
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	return &Collector{
		opts:   opts,
		log:    opts.Logger.With("device", opts.DeviceID),
		status: models.CollectorStatus{DeviceID: opts.DeviceID, State: StateIdle},
	}, nil
}

// Run polls immediately, then every Interval measured from the previous poll
// start, or after a backoff delay when a poll fails. It returns nil once ctx is
// canceled and the in-flight poll has finished or been cut off.
func (c *Collector) Run(ctx context.Context) error {
	c.log.Infow("collector_started", "interval", c.opts.Interval, "poll_timeout", c.opts.PollTimeout)
	c.event(ctx, models.EventStarted, "collector started", nil)
	defer func() {
		c.setState(StateStopped, time.Time{})
		c.event(ctx, models.EventStopped, "collector stopped", map[string]any{"pending": len(c.pending)})
		c.log.Infow("collector_stopped", "pending", len(c.pending))
	}()

	next := c.opts.Now()
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		if wait := next.Sub(c.opts.Now()); wait > 0 {
			timer.Reset(wait)
			select {
			case <-ctx.Done():
				return nil
			case <-timer.C:
			}
		} else if ctx.Err() != nil {
			return nil
		}

		start := c.opts.Now()
		c.setState(StatePolling, time.Time{})
		err := c.pollWithGrace(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			next = c.onFailure(ctx, start, err)
			continue
		}
		next = c.onSuccess(ctx, start)
	}
}

// Status returns a copy of the current loop status.
func (c *Collector) Status() models.CollectorStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// pollWithGrace runs one poll whose context survives shutdown of ctx for
// GracePeriod, and is always bounded by PollTimeout.
func (c *Collector) pollWithGrace(ctx context.Context) error {
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.opts.PollTimeout)
	defer cancel()

	stop := context.AfterFunc(ctx, func() {
		if c.opts.GracePeriod == 0 {
			cancel()
			return
		}
		t := time.AfterFunc(c.opts.GracePeriod, cancel)
		context.AfterFunc(pctx, func() { t.Stop() })
	})
	defer stop()

	return c.poll(pctx)
}

// poll performs exactly one device request and at most one report write
// beyond flushing the pending queue.
func (c *Collector) poll(ctx context.Context) error {
	now := c.opts.Now()
	c.mu.Lock()
	c.status.LastAttempt = now
	c.mu.Unlock()

	data, err := c.opts.Querier.Query(ctx)
	if err != nil {
		return err
	}
	raw, err := payload.Parse(data)
	if err != nil {
		return err
	}
	snap, err := c.opts.Normalizer.Normalize(raw, normalize.Context{Now: now, Previous: c.lastReport})
	if err != nil {
		return err
	}
	if snap.DeviceID != c.opts.DeviceID {
		return fmt.Errorf("%w: configured %q, reply from %q", ErrDeviceMismatch, c.opts.DeviceID, snap.DeviceID)
	}
	c.reportWarnings(ctx, snap)

	if err := c.flush(ctx); err != nil {
		c.enqueue(ctx, snap)
		return c.storageFailed(ctx, err)
	}
	inserted, err := c.opts.Recorder.Record(ctx, snap)
	if err != nil {
		c.enqueue(ctx, snap)
		return c.storageFailed(ctx, err)
	}
	rt := snap.ReportTime
	c.lastReport = &rt
	if !inserted {
		c.log.Debugw("duplicate_report", "report_time", snap.ReportTime)
		c.event(ctx, models.EventDuplicate, "report already recorded", map[string]any{"report_time": snap.ReportTime})
	}

	return c.recordConfig(ctx, raw, now)
}

func (c *Collector) recordConfig(ctx context.Context, raw *payload.RawSnapshot, now time.Time) error {
	if raw.Configuration == nil && raw.Schedules == nil {
		return nil
	}
	cs, err := c.opts.Normalizer.ConfigSnapshot(raw, now)
	if err != nil {
		return err
	}
	if cs.Hash == c.configHash {
		return nil
	}
	if err := c.opts.Recorder.RecordConfig(ctx, cs); err != nil {
		return c.storageFailed(ctx, err)
	}
	if c.configHash != "" {
		c.log.Infow("config_changed", "hash", cs.Hash)
		c.event(ctx, models.EventConfigChanged, "configuration or schedules changed", map[string]any{"hash": cs.Hash})
	}
	c.configHash = cs.Hash
	return nil
}

// flush writes queued snapshots oldest first, stopping at the first failure.
func (c *Collector) flush(ctx context.Context) error {
	for len(c.pending) > 0 {
		s := c.pending[0]
		if _, err := c.opts.Recorder.Record(ctx, s); err != nil {
			return err
		}
		c.pending = c.pending[1:]
		rt := s.ReportTime
		if c.lastReport == nil || rt > *c.lastReport {
			c.lastReport = &rt
		}
		c.log.Debugw("pending_flushed", "report_time", s.ReportTime, "remaining", len(c.pending))
	}
	c.setPending()
	return nil
}

func (c *Collector) enqueue(ctx context.Context, s models.Snapshot) {
	if len(c.pending) >= c.opts.PendingLimit {
		dropped := c.pending[0]
		c.pending = c.pending[1:]
		c.log.Warnw("pending_dropped", "report_time", dropped.ReportTime, "limit", c.opts.PendingLimit)
		c.event(ctx, models.EventPendingDropped, "pending queue full, oldest snapshot dropped",
			map[string]any{"report_time": dropped.ReportTime})
	}
	c.pending = append(c.pending, s)
	c.setPending()
}

func (c *Collector) storageFailed(ctx context.Context, err error) error {
	c.log.Errorw("storage_unavailable", "error", err, "pending", len(c.pending))
	c.event(ctx, models.EventStorageFailed, err.Error(), map[string]any{"pending": len(c.pending)})
	return err
}

func (c *Collector) reportWarnings(ctx context.Context, snap models.Snapshot) {
	if len(snap.Warnings) == 0 {
		return
	}
	for _, w := range snap.Warnings {
		if w.Code == models.WarnClockReset {
			c.log.Warnw("clock_reset", "report_time", snap.ReportTime, "message", w.Message)
			c.event(ctx, models.EventClockReset, w.Message, map[string]any{"report_time": snap.ReportTime})
		}
	}
	c.log.Infow("validation_warnings", "report_time", snap.ReportTime, "count", len(snap.Warnings))
	c.event(ctx, models.EventWarning, fmt.Sprintf("%d validation warning(s)", len(snap.Warnings)), snap.Warnings)
}

func (c *Collector) onFailure(ctx context.Context, start time.Time, err error) time.Time {
	c.failures++
	delay := c.opts.Backoff.Delay(c.failures)
	next := c.opts.Now().Add(delay)

	c.mu.Lock()
	c.status.ConsecutiveFailures = c.failures
	c.status.LastError = err.Error()
	c.mu.Unlock()
	c.setState(StateBackingOff, next)

	c.log.Warnw("poll_failed", "error", err, "kind", failureKind(err), "failures", c.failures, "backoff", delay)
	c.event(ctx, models.EventPollFailed, err.Error(), map[string]any{"kind": failureKind(err), "started_at": start})
	c.event(ctx, models.EventBackoff, fmt.Sprintf("retrying in %s", delay.Round(time.Millisecond)),
		map[string]any{"failures": c.failures, "delay_ms": delay.Milliseconds()})
	return next
}

func (c *Collector) onSuccess(ctx context.Context, start time.Time) time.Time {
	if c.failures > 0 {
		c.log.Infow("collector_recovered", "after_failures", c.failures)
		c.event(ctx, models.EventRecovered, "device polled successfully", map[string]any{"after_failures": c.failures})
	}
	c.failures = 0
	next := start.Add(c.opts.Interval)

	c.mu.Lock()
	c.status.ConsecutiveFailures = 0
	c.status.LastSuccess = c.opts.Now()
	c.status.LastError = ""
	c.mu.Unlock()
	c.setState(StateIdle, next)
	return next
}

func (c *Collector) setState(state string, next time.Time) {
	c.mu.Lock()
	c.status.State = state
	c.status.NextAttempt = next
	c.mu.Unlock()
}

func (c *Collector) setPending() {
	c.mu.Lock()
	c.status.PendingWrites = len(c.pending)
	c.mu.Unlock()
}

// event appends to the event log. Failures are logged only, and the write
// outlives ctx so shutdown events still land.
func (c *Collector) event(ctx context.Context, typ, desc string, meta any) {
	if c.opts.Events == nil {
		return
	}
	ectx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.opts.PollTimeout)
	defer cancel()
	err := c.opts.Events.Append(ectx, models.CollectorEvent{
		EventID:     uuid.NewString(),
		DeviceID:    c.opts.DeviceID,
		OccurredAt:  c.opts.Now().UTC(),
		Type:        typ,
		Description: desc,
		Metadata:    meta,
	})
	if err != nil {
		c.log.Warnw("event_append_failed", "type", typ, "error", err)
	}
}

// failureKind classifies an error for logs and event metadata.
func failureKind(err error) string {
	switch {
	case errors.Is(err, device.ErrTransport):
		return "transport"
	case errors.Is(err, payload.ErrMalformedPayload):
		return "malformed"
	case errors.Is(err, payload.ErrIncompletePayload):
		return "incomplete"
	case errors.Is(err, normalize.ErrNormalization):
		return "normalization"
	case errors.Is(err, ErrDeviceMismatch):
		return "device_mismatch"
	case errors.Is(err, service.ErrStorageUnavailable):
		return "storage"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "unknown"
	}
}
