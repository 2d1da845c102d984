package collector

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"boiler_collector/internal/device"
	"boiler_collector/internal/logger"
	"boiler_collector/internal/models"
	"boiler_collector/internal/normalize"
	"boiler_collector/internal/service"
)

func replyJSON(reportTime int64, roomTemp, chBase float64) []byte {
	return []byte(fmt.Sprintf(`{"retrieve_reply":{
		"status":{"device_id":"dev-1"},
		"report":{"report_time":%d,"room_temp":%g},
		"schedules":{"ch_schedule":{"base_temp":%g,"entries":[[[420,540,20]],[],[],[],[],[],[]]}}
	}}`, reportTime, roomTemp, chBase))
}

// scriptedQuerier returns its responses in order and repeats the last one.
type scriptedQuerier struct {
	mu        sync.Mutex
	responses []func(ctx context.Context) ([]byte, error)
	calls     int
}

func (q *scriptedQuerier) Query(ctx context.Context) ([]byte, error) {
	q.mu.Lock()
	i := q.calls
	if i >= len(q.responses) {
		i = len(q.responses) - 1
	}
	q.calls++
	fn := q.responses[i]
	q.mu.Unlock()
	return fn(ctx)
}

func (q *scriptedQuerier) callCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.calls
}

func reply(b []byte) func(context.Context) ([]byte, error) {
	return func(context.Context) ([]byte, error) { return b, nil }
}

func fail(err error) func(context.Context) ([]byte, error) {
	return func(context.Context) ([]byte, error) { return nil, err }
}

type fakeRecorder struct {
	mu         sync.Mutex
	failNext   int
	alwaysFail bool
	seen       map[int64]bool
	records    []int64
	configs    []models.ConfigSnapshot
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{seen: map[int64]bool{}}
}

func (r *fakeRecorder) Record(_ context.Context, s models.Snapshot) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.alwaysFail || r.failNext > 0 {
		if r.failNext > 0 {
			r.failNext--
		}
		return false, fmt.Errorf("%w: record report: disk full", service.ErrStorageUnavailable)
	}
	if r.seen[s.ReportTime] {
		return false, nil
	}
	r.seen[s.ReportTime] = true
	r.records = append(r.records, s.ReportTime)
	return true, nil
}

func (r *fakeRecorder) RecordConfig(_ context.Context, c models.ConfigSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.configs = append(r.configs, c)
	return nil
}

func (r *fakeRecorder) recorded() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.records...)
}

type fakeEvents struct {
	mu     sync.Mutex
	events []models.CollectorEvent
}

func (f *fakeEvents) Append(_ context.Context, e models.CollectorEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
	return nil
}

func (f *fakeEvents) count(typ string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, e := range f.events {
		if e.Type == typ {
			n++
		}
	}
	return n
}

type fixture struct {
	q   *scriptedQuerier
	rec *fakeRecorder
	ev  *fakeEvents
	c   *Collector
}

func newFixture(t *testing.T, responses ...func(context.Context) ([]byte, error)) *fixture {
	t.Helper()
	norm, err := normalize.New(normalize.GenerationR4, nil)
	if err != nil {
		t.Fatalf("normalize.New: %v", err)
	}
	f := &fixture{
		q:   &scriptedQuerier{responses: responses},
		rec: newFakeRecorder(),
		ev:  &fakeEvents{},
	}
	f.c, err = New(Options{
		DeviceID:    "dev-1",
		Querier:     f.q,
		Normalizer:  norm,
		Recorder:    f.rec,
		Events:      f.ev,
		Logger:      logger.Nop(),
		Interval:    20 * time.Millisecond,
		PollTimeout: time.Second,
		Backoff:     Backoff{Initial: 5 * time.Millisecond, Max: 20 * time.Millisecond, Multiplier: 2},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return f
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	norm, _ := normalize.New("", nil)
	base := Options{
		DeviceID:    "dev-1",
		Querier:     &scriptedQuerier{},
		Normalizer:  norm,
		Recorder:    newFakeRecorder(),
		Interval:    time.Minute,
		PollTimeout: 10 * time.Second,
	}

	tests := []struct {
		name   string
		mutate func(*Options)
	}{
		{"missing device id", func(o *Options) { o.DeviceID = " " }},
		{"missing querier", func(o *Options) { o.Querier = nil }},
		{"missing normalizer", func(o *Options) { o.Normalizer = nil }},
		{"missing recorder", func(o *Options) { o.Recorder = nil }},
		{"missing interval", func(o *Options) { o.Interval = 0 }},
		{"missing poll timeout", func(o *Options) { o.PollTimeout = 0 }},
		{"negative grace", func(o *Options) { o.GracePeriod = -time.Second }},
		{"bad backoff", func(o *Options) { o.Backoff = Backoff{Initial: time.Second, Max: time.Millisecond, Multiplier: 2} }},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			o := base
			tc.mutate(&o)
			if _, err := New(o); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}

	c, err := New(base)
	if err != nil {
		t.Fatalf("valid options rejected: %v", err)
	}
	if c.opts.PendingLimit != DefaultPendingLimit || c.opts.Backoff.Initial != DefaultBackoff().Initial {
		t.Fatalf("defaults not applied: %+v", c.opts)
	}
}

func TestPoll_RecordsReportAndConfigOncePerHash(t *testing.T) {
	t.Parallel()

	f := newFixture(t,
		reply(replyJSON(100, 20.1, 15)),
		reply(replyJSON(160, 20.2, 15)),
		reply(replyJSON(220, 20.3, 16)),
	)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := f.c.poll(ctx); err != nil {
			t.Fatalf("poll %d: %v", i, err)
		}
	}

	if got := f.rec.recorded(); len(got) != 3 || got[0] != 100 || got[2] != 220 {
		t.Fatalf("unexpected records %v", got)
	}
	if f.q.callCount() != 3 {
		t.Fatalf("expected one device request per poll, got %d", f.q.callCount())
	}
	if len(f.rec.configs) != 2 {
		t.Fatalf("config must be recorded on first poll and on change only, got %d", len(f.rec.configs))
	}
	if f.rec.configs[0].Hash == f.rec.configs[1].Hash {
		t.Fatalf("changed schedule must change the hash")
	}
	if n := f.ev.count(models.EventConfigChanged); n != 1 {
		t.Fatalf("expected 1 CONFIG_CHANGED event, got %d", n)
	}
}

func TestPoll_DuplicateReportIsNotAFailure(t *testing.T) {
	t.Parallel()

	f := newFixture(t, reply(replyJSON(100, 20, 15)))
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if err := f.c.poll(ctx); err != nil {
			t.Fatalf("poll %d: %v", i, err)
		}
	}
	if got := f.rec.recorded(); len(got) != 1 {
		t.Fatalf("expected a single stored report, got %v", got)
	}
	if n := f.ev.count(models.EventDuplicate); n != 1 {
		t.Fatalf("expected 1 DUPLICATE event, got %d", n)
	}
}

func TestPoll_PendingQueueFlushesInOrder(t *testing.T) {
	t.Parallel()

	f := newFixture(t,
		reply(replyJSON(1, 20, 15)),
		reply(replyJSON(2, 20, 15)),
		reply(replyJSON(3, 20, 15)),
	)
	f.rec.failNext = 2
	ctx := context.Background()

	if err := f.c.poll(ctx); !errors.Is(err, service.ErrStorageUnavailable) {
		t.Fatalf("poll 1: expected storage error, got %v", err)
	}
	if err := f.c.poll(ctx); !errors.Is(err, service.ErrStorageUnavailable) {
		t.Fatalf("poll 2: expected storage error, got %v", err)
	}
	if got := f.c.Status().PendingWrites; got != 2 {
		t.Fatalf("expected 2 pending writes, got %d", got)
	}
	if err := f.c.poll(ctx); err != nil {
		t.Fatalf("poll 3: %v", err)
	}

	got := f.rec.recorded()
	want := []int64{1, 2, 3}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("records %v, want %v", got, want)
	}
	if f.c.Status().PendingWrites != 0 {
		t.Fatalf("pending queue not drained")
	}
	if n := f.ev.count(models.EventStorageFailed); n != 2 {
		t.Fatalf("expected 2 STORAGE_FAILED events, got %d", n)
	}
}

func TestPoll_PendingQueueDropsOldest(t *testing.T) {
	t.Parallel()

	f := newFixture(t,
		reply(replyJSON(1, 20, 15)),
		reply(replyJSON(2, 20, 15)),
		reply(replyJSON(3, 20, 15)),
		reply(replyJSON(4, 20, 15)),
	)
	f.c.opts.PendingLimit = 2
	f.rec.alwaysFail = true
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_ = f.c.poll(ctx)
	}
	if len(f.c.pending) != 2 || f.c.pending[0].ReportTime != 2 || f.c.pending[1].ReportTime != 3 {
		t.Fatalf("unexpected pending queue %+v", f.c.pending)
	}
	if n := f.ev.count(models.EventPendingDropped); n != 1 {
		t.Fatalf("expected 1 PENDING_DROPPED event, got %d", n)
	}

	f.rec.mu.Lock()
	f.rec.alwaysFail = false
	f.rec.mu.Unlock()
	if err := f.c.poll(ctx); err != nil {
		t.Fatalf("recovery poll: %v", err)
	}
	if got := fmt.Sprint(f.rec.recorded()); got != "[2 3 4]" {
		t.Fatalf("records %s, want [2 3 4]", got)
	}
}

func TestPoll_WarningsAreNotFailures(t *testing.T) {
	t.Parallel()

	f := newFixture(t, reply(replyJSON(100, 500, 15)))
	if err := f.c.poll(context.Background()); err != nil {
		t.Fatalf("out of range reading must not fail the poll: %v", err)
	}
	if len(f.rec.recorded()) != 1 {
		t.Fatalf("snapshot with warnings must still be recorded")
	}
	if n := f.ev.count(models.EventWarning); n != 1 {
		t.Fatalf("expected 1 WARNING event, got %d", n)
	}
}

func TestPoll_ClockReset(t *testing.T) {
	t.Parallel()

	f := newFixture(t, reply(replyJSON(1000, 20, 15)), reply(replyJSON(400, 20, 15)))
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if err := f.c.poll(ctx); err != nil {
			t.Fatalf("poll %d: %v", i, err)
		}
	}
	if n := f.ev.count(models.EventClockReset); n != 1 {
		t.Fatalf("expected 1 CLOCK_RESET event, got %d", n)
	}
}

func TestPoll_FailureKinds(t *testing.T) {
	t.Parallel()

	transport := &device.TransportError{Op: "retrieve", Target: "10.0.0.2:10000", Err: errors.New("connection refused")}
	tests := []struct {
		name     string
		response func(context.Context) ([]byte, error)
		kind     string
	}{
		{"transport", fail(transport), "transport"},
		{"malformed", reply([]byte(`{"retrieve_reply":`)), "malformed"},
		{"incomplete", reply([]byte(`{"retrieve_reply":{"report":{"room_temp":20}}}`)), "incomplete"},
		{"blank device id", reply([]byte(`{"retrieve_reply":{"status":{"device_id":"  "},"report":{"report_time":5,"room_temp":20}}}`)), "normalization"},
		{"other device", reply([]byte(`{"retrieve_reply":{"status":{"device_id":"dev-2"},"report":{"report_time":5,"room_temp":20}}}`)), "device_mismatch"},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t, tc.response)
			err := f.c.poll(context.Background())
			if err == nil {
				t.Fatalf("expected failure")
			}
			if got := failureKind(err); got != tc.kind {
				t.Fatalf("failureKind = %q, want %q (%v)", got, tc.kind, err)
			}
			if len(f.rec.recorded()) != 0 {
				t.Fatalf("failed poll must not record")
			}
		})
	}
}

func TestPoll_DeviceMismatchKeepsStorageClean(t *testing.T) {
	t.Parallel()

	other := []byte(`{"retrieve_reply":{
		"status":{"device_id":"6808-1401-3109_15-30-001-123"},
		"report":{"report_time":100,"room_temp":20},
		"configuration":{"download_url":"http://example.invalid/R4"}
	}}`)
	f := newFixture(t, reply(other))

	err := f.c.poll(context.Background())
	if !errors.Is(err, ErrDeviceMismatch) {
		t.Fatalf("want ErrDeviceMismatch, got %v", err)
	}
	f.rec.mu.Lock()
	configs := len(f.rec.configs)
	f.rec.mu.Unlock()
	if len(f.rec.recorded()) != 0 || configs != 0 {
		t.Fatalf("mismatched reply must not be stored: reports=%v configs=%d", f.rec.recorded(), configs)
	}
}

func TestRun_BacksOffAndRecovers(t *testing.T) {
	t.Parallel()

	transport := &device.TransportError{Op: "retrieve", Target: "dev", Err: errors.New("timeout")}
	f := newFixture(t, fail(transport), fail(transport), fail(transport), reply(replyJSON(100, 20, 15)))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.c.Run(ctx) }()

	waitFor(t, "recovery", func() bool { return len(f.rec.recorded()) == 1 })
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run returned %v", err)
	}

	st := f.c.Status()
	if st.State != StateStopped {
		t.Fatalf("expected STOPPED, got %s", st.State)
	}
	if st.ConsecutiveFailures != 0 || st.LastError != "" {
		t.Fatalf("failure counter must reset on success: %+v", st)
	}
	if n := f.ev.count(models.EventBackoff); n != 3 {
		t.Fatalf("expected 3 BACKOFF events, got %d", n)
	}
	if n := f.ev.count(models.EventRecovered); n != 1 {
		t.Fatalf("expected 1 RECOVERED event, got %d", n)
	}
	if f.ev.count(models.EventStarted) != 1 || f.ev.count(models.EventStopped) != 1 {
		t.Fatalf("expected STARTED and STOPPED events")
	}
}

func TestRun_FirstPollIsImmediate(t *testing.T) {
	t.Parallel()

	f := newFixture(t, reply(replyJSON(100, 20, 15)))
	f.c.opts.Interval = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = f.c.Run(ctx) }()

	waitFor(t, "first poll", func() bool { return f.q.callCount() == 1 })
	st := f.c.Status()
	waitFor(t, "idle state", func() bool { st = f.c.Status(); return st.State == StateIdle })
	if until := time.Until(st.NextAttempt); until < 59*time.Minute {
		t.Fatalf("next attempt should be one interval after poll start, got %v", until)
	}
}

func TestOnSuccess_IntervalFromPollStart(t *testing.T) {
	t.Parallel()

	f := newFixture(t, reply(replyJSON(1, 20, 15)))
	start := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	if next := f.c.onSuccess(context.Background(), start); !next.Equal(start.Add(f.c.opts.Interval)) {
		t.Fatalf("next = %v, want %v", next, start.Add(f.c.opts.Interval))
	}
}

// blockingReply waits until released or the poll context ends.
func blockingReply(started chan<- struct{}, release <-chan struct{}, body []byte) func(context.Context) ([]byte, error) {
	return func(ctx context.Context) ([]byte, error) {
		close(started)
		select {
		case <-release:
			return body, nil
		case <-ctx.Done():
			return nil, &device.TransportError{Op: "retrieve", Target: "dev", Err: ctx.Err()}
		}
	}
}

func TestRun_GracePeriodLetsInFlightPollFinish(t *testing.T) {
	t.Parallel()

	started, release := make(chan struct{}), make(chan struct{})
	f := newFixture(t, blockingReply(started, release, replyJSON(100, 20, 15)))
	f.c.opts.GracePeriod = 2 * time.Second

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.c.Run(ctx) }()

	<-started
	cancel()
	time.Sleep(20 * time.Millisecond)
	close(release)

	if err := <-done; err != nil {
		t.Fatalf("Run returned %v", err)
	}
	if got := f.rec.recorded(); len(got) != 1 {
		t.Fatalf("in-flight poll should complete within grace period, records=%v", got)
	}
}

func TestRun_NoGraceCancelsInFlightPoll(t *testing.T) {
	t.Parallel()

	started, release := make(chan struct{}), make(chan struct{})
	defer close(release)
	f := newFixture(t, blockingReply(started, release, replyJSON(100, 20, 15)))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.c.Run(ctx) }()

	<-started
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("Run did not stop after cancel")
	}
	if got := f.rec.recorded(); len(got) != 0 {
		t.Fatalf("canceled poll must not record, got %v", got)
	}
}
