package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assetdesk/asset-service/internal/config"
	"github.com/assetdesk/asset-service/internal/domain"
	"github.com/assetdesk/asset-service/internal/service"
)

type stubLocker struct {
	acquired bool
	err      error
	keys     []string
	released int
}

func (l *stubLocker) AcquireLock(_ context.Context, key string, _ time.Duration) (func(), bool, error) {
	l.keys = append(l.keys, key)
	if l.err != nil || !l.acquired {
		return func() {}, false, l.err
	}
	return func() { l.released++ }, true, nil
}

type jobCall struct {
	job     string
	success bool
}

type jobRecorder struct {
	mu    sync.Mutex
	calls []jobCall
}

func (r *jobRecorder) RecordJob(job string, success bool, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, jobCall{job: job, success: success})
}

type stubRunner struct {
	calls   int
	actor   domain.Scope
	unit    *string
	asOf    time.Time
	failure error
}

func (r *stubRunner) RunDue(_ context.Context, actor domain.Scope, businessUnitID *string, asOf time.Time) (*service.BatchResult, error) {
	r.calls++
	r.actor = actor
	r.unit = businessUnitID
	r.asOf = asOf
	return &service.BatchResult{AsOf: asOf, Processed: 3}, r.failure
}

type stubScanner struct {
	calls int
	err   error
}

func (s *stubScanner) ScanOverdue(context.Context, time.Time) (int, error) {
	s.calls++
	return 2, s.err
}

func newTestScheduler(locker Locker, runner *stubRunner, scanner *stubScanner, rec *jobRecorder) *Scheduler {
	s := NewScheduler(config.WorkerConfig{DepreciationCron: "0 2 1 * *", OverdueScanCron: "0 7 * * *"}, SchedulerDependencies{
		Depreciation: runner,
		Overdue:      scanner,
		Locker:       locker,
		Metrics:      rec,
	})
	s.now = func() time.Time { return time.Date(2026, time.April, 1, 2, 0, 0, 0, time.UTC) }
	return s
}

func TestRunDepreciationUnderLock(t *testing.T) {
	locker := &stubLocker{acquired: true}
	runner := &stubRunner{}
	rec := &jobRecorder{}
	s := newTestScheduler(locker, runner, &stubScanner{}, rec)

	s.RunDepreciation(context.Background())

	assert.Equal(t, 1, runner.calls)
	assert.Equal(t, domain.Scope{}, runner.actor)
	assert.Nil(t, runner.unit)
	assert.Equal(t, time.Date(2026, time.April, 1, 2, 0, 0, 0, time.UTC), runner.asOf)
	assert.Equal(t, []string{"asset-service:lock:depreciation_run"}, locker.keys)
	assert.Equal(t, 1, locker.released)
	assert.Equal(t, []jobCall{{job: jobDepreciation, success: true}}, rec.calls)
}

func TestRunSkipsWhenLockHeldElsewhere(t *testing.T) {
	runner := &stubRunner{}
	scanner := &stubScanner{}
	rec := &jobRecorder{}
	s := newTestScheduler(&stubLocker{acquired: false}, runner, scanner, rec)

	s.RunDepreciation(context.Background())
	s.RunOverdueScan(context.Background())

	assert.Zero(t, runner.calls)
	assert.Zero(t, scanner.calls)
	assert.Empty(t, rec.calls)
}

func TestRunRecordsLockAndJobFailures(t *testing.T) {
	rec := &jobRecorder{}
	runner := &stubRunner{}
	s := newTestScheduler(&stubLocker{err: errors.New("redis down")}, runner, &stubScanner{}, rec)
	s.RunDepreciation(context.Background())
	assert.Zero(t, runner.calls)
	assert.Equal(t, []jobCall{{job: jobDepreciation, success: false}}, rec.calls)

	rec = &jobRecorder{}
	scanner := &stubScanner{err: errors.New("query failed")}
	s = newTestScheduler(nil, &stubRunner{}, scanner, rec)
	s.RunOverdueScan(context.Background())
	assert.Equal(t, 1, scanner.calls)
	assert.Equal(t, []jobCall{{job: jobOverdueScan, success: false}}, rec.calls)
}

func TestRunSkipsCancelledContext(t *testing.T) {
	runner := &stubRunner{}
	rec := &jobRecorder{}
	s := newTestScheduler(nil, runner, &stubScanner{}, rec)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s.RunDepreciation(ctx)
	assert.Zero(t, runner.calls)
	assert.Empty(t, rec.calls)
}

func TestStartRejectsBadCron(t *testing.T) {
	s := NewScheduler(config.WorkerConfig{DepreciationCron: "every tuesday", OverdueScanCron: "0 7 * * *"}, SchedulerDependencies{
		Depreciation: &stubRunner{},
		Overdue:      &stubScanner{},
	})
	require.Error(t, s.Start(context.Background()))

	ok := newTestScheduler(nil, &stubRunner{}, &stubScanner{}, &jobRecorder{})
	require.NoError(t, ok.Start(context.Background()))
	assert.Len(t, ok.cron.Entries(), 2)
	ok.Stop()
}
