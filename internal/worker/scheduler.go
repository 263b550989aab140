package worker

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/assetdesk/asset-service/internal/config"
	"github.com/assetdesk/asset-service/internal/domain"
	"github.com/assetdesk/asset-service/internal/service"
)

const (
	jobDepreciation = "depreciation_run"
	jobOverdueScan  = "overdue_scan"
	lockPrefix      = "asset-service:lock:"
)

// Locker grants a cluster-wide lock so only one replica runs a job.
type Locker interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (release func(), acquired bool, err error)
}

// JobRecorder observes job outcomes.
type JobRecorder interface {
	RecordJob(job string, success bool, duration time.Duration)
}

// DepreciationRunner posts due depreciation periods.
type DepreciationRunner interface {
	RunDue(ctx context.Context, actor domain.Scope, businessUnitID *string, asOf time.Time) (*service.BatchResult, error)
}

// OverdueScanner flags deployments past their expected return date.
type OverdueScanner interface {
	ScanOverdue(ctx context.Context, asOf time.Time) (int, error)
}

// Scheduler runs the periodic depreciation batch and overdue scan.
type Scheduler struct {
	cron         *cron.Cron
	cfg          config.WorkerConfig
	depreciation DepreciationRunner
	overdue      OverdueScanner
	locker       Locker
	metrics      JobRecorder
	logger       *zap.Logger
	now          func() time.Time
	ctx          context.Context
}

// SchedulerDependencies bundles collaborators for the scheduler.
type SchedulerDependencies struct {
	Depreciation DepreciationRunner
	Overdue      OverdueScanner
	Locker       Locker
	Metrics      JobRecorder
	Logger       *zap.Logger
}

// NewScheduler constructs a scheduler; call Start to register the jobs.
func NewScheduler(cfg config.WorkerConfig, deps SchedulerDependencies) *Scheduler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		cron:         cron.New(cron.WithLocation(time.UTC)),
		cfg:          cfg,
		depreciation: deps.Depreciation,
		overdue:      deps.Overdue,
		locker:       deps.Locker,
		metrics:      deps.Metrics,
		logger:       logger,
		now:          time.Now,
		ctx:          context.Background(),
	}
}

// Start registers both jobs and starts the cron loop. Jobs stop taking new runs once ctx ends.
func (s *Scheduler) Start(ctx context.Context) error {
	s.ctx = ctx
	if s.depreciation != nil {
		if _, err := s.cron.AddFunc(s.cfg.DepreciationCron, func() { s.RunDepreciation(s.ctx) }); err != nil {
			return err
		}
	}
	if s.overdue != nil {
		if _, err := s.cron.AddFunc(s.cfg.OverdueScanCron, func() { s.RunOverdueScan(s.ctx) }); err != nil {
			return err
		}
	}
	s.cron.Start()
	s.logger.Info("scheduler started",
		zap.String("depreciation_cron", s.cfg.DepreciationCron),
		zap.String("overdue_scan_cron", s.cfg.OverdueScanCron))
	return nil
}

// Stop halts the cron loop and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// RunDepreciation posts due periods for every business unit.
func (s *Scheduler) RunDepreciation(ctx context.Context) {
	s.runLocked(ctx, jobDepreciation, func(ctx context.Context) error {
		result, err := s.depreciation.RunDue(ctx, domain.Scope{}, nil, s.now().UTC())
		if result != nil {
			s.logger.Info("scheduled depreciation run",
				zap.Int("processed", result.Processed),
				zap.Int("skipped", result.Skipped),
				zap.Int("failed", result.Failed))
		}
		return err
	})
}

// RunOverdueScan publishes overdue events for late deployments.
func (s *Scheduler) RunOverdueScan(ctx context.Context) {
	s.runLocked(ctx, jobOverdueScan, func(ctx context.Context) error {
		count, err := s.overdue.ScanOverdue(ctx, s.now().UTC())
		if err == nil {
			s.logger.Info("overdue scan finished", zap.Int("overdue", count))
		}
		return err
	})
}

func (s *Scheduler) runLocked(ctx context.Context, job string, fn func(ctx context.Context) error) {
	if ctx.Err() != nil {
		return
	}
	if s.locker != nil {
		release, acquired, err := s.locker.AcquireLock(ctx, lockPrefix+job, s.cfg.LockTTL())
		if err != nil {
			s.logger.Warn("job lock failed", zap.String("job", job), zap.Error(err))
			s.record(job, false, 0)
			return
		}
		if !acquired {
			s.logger.Debug("job already running elsewhere", zap.String("job", job))
			return
		}
		defer release()
	}

	start := time.Now()
	err := fn(ctx)
	s.record(job, err == nil, time.Since(start))
	if err != nil {
		s.logger.Error("job failed", zap.String("job", job), zap.Error(err))
	}
}

func (s *Scheduler) record(job string, success bool, d time.Duration) {
	if s.metrics != nil {
		s.metrics.RecordJob(job, success, d)
	}
}
