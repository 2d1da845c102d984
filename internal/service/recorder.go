package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"boiler_collector/internal/logger"
	"boiler_collector/internal/models"
	"boiler_collector/internal/repository"
)

// ErrStorageUnavailable is returned when a write still fails after every retry.
var ErrStorageUnavailable = errors.New("storage unavailable")

// Write defaults.
const (
	DefaultWriteTimeout = 5 * time.Second
	DefaultWriteRetries = 2
	DefaultRetryPause   = 200 * time.Millisecond
)

// WriteOptions bounds a single store operation.
type WriteOptions struct {
	Timeout    time.Duration // per attempt
	Retries    int           // extra attempts after the first, at least 1
	RetryPause time.Duration
}

func (o WriteOptions) withDefaults() WriteOptions {
	if o.Timeout <= 0 {
		o.Timeout = DefaultWriteTimeout
	}
	if o.Retries < 1 {
		o.Retries = DefaultWriteRetries
	}
	if o.RetryPause <= 0 {
		o.RetryPause = DefaultRetryPause
	}
	return o
}

// SnapshotSink receives a copy of every newly stored report.
type SnapshotSink interface {
	WriteSnapshot(ctx context.Context, s models.Snapshot) error
}

type RecorderService struct {
	reportRepo repository.ReportRepo
	configRepo repository.ConfigRepo
	sinks      []SnapshotSink
	opts       WriteOptions
	log        *logger.Logger
}

func NewRecorderService(reportRepo repository.ReportRepo, configRepo repository.ConfigRepo, opts WriteOptions, log *logger.Logger, sinks ...SnapshotSink) *RecorderService {
	if log == nil {
		log = logger.Nop()
	}
	return &RecorderService{
		reportRepo: reportRepo,
		configRepo: configRepo,
		sinks:      sinks,
		opts:       opts.withDefaults(),
		log:        log.Named("recorder"),
	}
}

// Record stores s and reports whether a new row was written. Recording the
// same (device, report time) twice returns false without error.
func (r *RecorderService) Record(ctx context.Context, s models.Snapshot) (bool, error) {
	var inserted bool
	err := r.retry(ctx, "record report", func(ctx context.Context) error {
		var err error
		inserted, err = r.reportRepo.Insert(ctx, s)
		return err
	})
	if err != nil {
		return false, err
	}
	if inserted {
		r.mirror(ctx, s)
	}
	return inserted, nil
}

// RecordConfig replaces the stored configuration of the device.
func (r *RecorderService) RecordConfig(ctx context.Context, c models.ConfigSnapshot) error {
	return r.retry(ctx, "record config", func(ctx context.Context) error {
		return r.configRepo.Upsert(ctx, c)
	})
}

func (r *RecorderService) retry(ctx context.Context, op string, fn func(context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt <= r.opts.Retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("%w: %s: %w", ErrStorageUnavailable, op, ctx.Err())
			case <-time.After(r.opts.RetryPause):
			}
		}

		wctx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
		lastErr = fn(wctx)
		cancel()
		if lastErr == nil {
			return nil
		}
		r.log.Debugw("write_failed", "op", op, "attempt", attempt+1, "error", lastErr)
	}
	return fmt.Errorf("%w: %s: %w", ErrStorageUnavailable, op, lastErr)
}

func (r *RecorderService) mirror(ctx context.Context, s models.Snapshot) {
	for _, sink := range r.sinks {
		wctx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
		if err := sink.WriteSnapshot(wctx, s); err != nil {
			r.log.Warnw("mirror_failed", "device_id", s.DeviceID, "report_time", s.ReportTime, "error", err)
		}
		cancel()
	}
}
