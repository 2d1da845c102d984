package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"boiler_collector/internal/logger"
	"boiler_collector/internal/models"
)

// fakeReportRepo keeps reports in memory and can fail the first N calls.
type fakeReportRepo struct {
	mu       sync.Mutex
	rows     map[string]map[int64]models.Snapshot
	failures int
	err      error
	calls    int
	points   []models.ReportPoint
	devices  []models.DeviceSummary

	gotFrom, gotTo int64
	gotLimit       int
}

func newFakeReportRepo() *fakeReportRepo {
	return &fakeReportRepo{rows: map[string]map[int64]models.Snapshot{}}
}

func (f *fakeReportRepo) Insert(ctx context.Context, s models.Snapshot) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failures > 0 {
		f.failures--
		return false, f.err
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	byTime, ok := f.rows[s.DeviceID]
	if !ok {
		byTime = map[int64]models.Snapshot{}
		f.rows[s.DeviceID] = byTime
	}
	if _, dup := byTime[s.ReportTime]; dup {
		return false, nil
	}
	byTime[s.ReportTime] = s
	return true, nil
}

func (f *fakeReportRepo) Latest(_ context.Context, deviceID string) (*models.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *models.Snapshot
	for rt, s := range f.rows[deviceID] {
		if latest == nil || rt > latest.ReportTime {
			s := s
			latest = &s
		}
	}
	return latest, nil
}

func (f *fakeReportRepo) List(_ context.Context, _ string, from, to int64, limit int) ([]models.ReportPoint, error) {
	f.gotFrom, f.gotTo, f.gotLimit = from, to, limit
	return f.points, nil
}

func (f *fakeReportRepo) Devices(context.Context) ([]models.DeviceSummary, error) {
	return f.devices, nil
}

func (f *fakeReportRepo) count(deviceID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows[deviceID])
}

type fakeConfigRepo struct {
	stored   map[string]models.ConfigSnapshot
	failures int
	err      error
	calls    int
}

func newFakeConfigRepo() *fakeConfigRepo {
	return &fakeConfigRepo{stored: map[string]models.ConfigSnapshot{}}
}

func (f *fakeConfigRepo) Upsert(_ context.Context, c models.ConfigSnapshot) error {
	f.calls++
	if f.failures > 0 {
		f.failures--
		return f.err
	}
	f.stored[c.DeviceID] = c
	return nil
}

func (f *fakeConfigRepo) Get(_ context.Context, deviceID string) (*models.ConfigSnapshot, error) {
	c, ok := f.stored[deviceID]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

type fakeSink struct {
	got []models.Snapshot
	err error
}

func (f *fakeSink) WriteSnapshot(_ context.Context, s models.Snapshot) error {
	f.got = append(f.got, s)
	return f.err
}

var fastWrites = WriteOptions{Timeout: time.Second, Retries: 2, RetryPause: time.Millisecond}

func testSnapshot(deviceID string, reportTime int64) models.Snapshot {
	return models.Snapshot{DeviceID: deviceID, ReportTime: reportTime}
}

func TestRecorder_Record_Idempotent(t *testing.T) {
	t.Parallel()

	reports := newFakeReportRepo()
	sink := &fakeSink{}
	rec := NewRecorderService(reports, newFakeConfigRepo(), fastWrites, logger.Nop(), sink)
	ctx := context.Background()

	inserted, err := rec.Record(ctx, testSnapshot("dev", 504189887))
	if err != nil || !inserted {
		t.Fatalf("first record: inserted=%v err=%v", inserted, err)
	}
	inserted, err = rec.Record(ctx, testSnapshot("dev", 504189887))
	if err != nil {
		t.Fatalf("second record: %v", err)
	}
	if inserted {
		t.Fatalf("duplicate report must not be inserted")
	}
	if n := reports.count("dev"); n != 1 {
		t.Fatalf("expected 1 stored report, got %d", n)
	}
	if len(sink.got) != 1 {
		t.Fatalf("sink should only see new reports, got %d", len(sink.got))
	}
}

func TestRecorder_Record_RetriesThenSucceeds(t *testing.T) {
	t.Parallel()

	reports := newFakeReportRepo()
	reports.failures = 2
	reports.err = errors.New("database is locked")
	rec := NewRecorderService(reports, newFakeConfigRepo(), fastWrites, logger.Nop())

	inserted, err := rec.Record(context.Background(), testSnapshot("dev", 1))
	if err != nil || !inserted {
		t.Fatalf("inserted=%v err=%v", inserted, err)
	}
	if reports.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", reports.calls)
	}
}

func TestRecorder_Record_StorageUnavailable(t *testing.T) {
	t.Parallel()

	cause := errors.New("disk I/O error")
	reports := newFakeReportRepo()
	reports.failures = 10
	reports.err = cause
	rec := NewRecorderService(reports, newFakeConfigRepo(), fastWrites, logger.Nop())

	_, err := rec.Record(context.Background(), testSnapshot("dev", 1))
	if !errors.Is(err, ErrStorageUnavailable) {
		t.Fatalf("expected ErrStorageUnavailable, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to be wrapped, got %v", err)
	}
	if reports.calls != 1+fastWrites.Retries {
		t.Fatalf("expected %d attempts, got %d", 1+fastWrites.Retries, reports.calls)
	}
}

func TestRecorder_Record_CanceledContextStopsRetrying(t *testing.T) {
	t.Parallel()

	reports := newFakeReportRepo()
	reports.failures = 10
	reports.err = errors.New("locked")
	rec := NewRecorderService(reports, newFakeConfigRepo(),
		WriteOptions{Timeout: time.Second, Retries: 5, RetryPause: time.Hour}, logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	_, err := rec.Record(ctx, testSnapshot("dev", 1))
	if !errors.Is(err, ErrStorageUnavailable) || !errors.Is(err, context.Canceled) {
		t.Fatalf("expected canceled storage error, got %v", err)
	}
	if reports.calls != 1 {
		t.Fatalf("expected a single attempt before cancel, got %d", reports.calls)
	}
}

func TestRecorder_MirrorFailureIsNotAnError(t *testing.T) {
	t.Parallel()

	sink := &fakeSink{err: errors.New("influx down")}
	rec := NewRecorderService(newFakeReportRepo(), newFakeConfigRepo(), fastWrites, nil, sink)

	inserted, err := rec.Record(context.Background(), testSnapshot("dev", 7))
	if err != nil || !inserted {
		t.Fatalf("inserted=%v err=%v", inserted, err)
	}
	if len(sink.got) != 1 {
		t.Fatalf("expected mirror attempt, got %d", len(sink.got))
	}
}

func TestRecorder_RecordConfig(t *testing.T) {
	t.Parallel()

	configs := newFakeConfigRepo()
	configs.failures = 1
	configs.err = errors.New("busy")
	rec := NewRecorderService(newFakeReportRepo(), configs, fastWrites, logger.Nop())

	c := models.ConfigSnapshot{DeviceID: "dev", Hash: "abc"}
	if err := rec.RecordConfig(context.Background(), c); err != nil {
		t.Fatalf("RecordConfig: %v", err)
	}
	if configs.calls != 2 {
		t.Fatalf("expected retry after first failure, calls=%d", configs.calls)
	}
	if configs.stored["dev"].Hash != "abc" {
		t.Fatalf("config not stored: %+v", configs.stored)
	}
}

func TestWriteOptions_Defaults(t *testing.T) {
	t.Parallel()

	o := WriteOptions{Retries: 0}.withDefaults()
	if o.Retries < 1 {
		t.Fatalf("retries must be at least 1, got %d", o.Retries)
	}
	if o.Timeout != DefaultWriteTimeout || o.RetryPause != DefaultRetryPause {
		t.Fatalf("unexpected defaults: %+v", o)
	}
}
