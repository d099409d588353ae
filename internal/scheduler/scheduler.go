package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"anoa.com/estatecrm/pkg/logger"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler runs registered jobs on their cron schedules. A scheduled run is
// skipped while the previous run of the same job is still going.
type Scheduler struct {
	mu   sync.Mutex
	cron *cron.Cron
	jobs []Job
	log  *zap.Logger
}

func NewScheduler(log *zap.Logger) *Scheduler {
	log = logger.OrNop(log)
	cronLog := cronLogger{log: log.Named("cron")}
	return &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.Recover(cronLog),
			cron.SkipIfStillRunning(cronLog),
		)),
		log: log,
	}
}

// RegisterJob adds job. Jobs with a schedule are run by the cron loop once
// Start is called.
func (s *Scheduler) RegisterJob(job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.jobs {
		if existing.Name() == job.Name() {
			return fmt.Errorf("job %q already registered", job.Name())
		}
	}

	if schedule := job.Schedule(); schedule != "" {
		if _, err := s.cron.AddFunc(schedule, func() { s.run(context.Background(), job) }); err != nil {
			return fmt.Errorf("failed to schedule job %q: %w", job.Name(), err)
		}
		s.log.Info("job scheduled", zap.String("job", job.Name()), zap.String("schedule", schedule))
	} else {
		s.log.Info("job registered for on-demand runs", zap.String("job", job.Name()))
	}

	s.jobs = append(s.jobs, job)
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("scheduler started", zap.Int("jobs", len(s.RegisteredJobs())))
}

// Stop halts the cron loop and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.log.Info("scheduler stopped")
	case <-ctx.Done():
		s.log.Warn("scheduler stop timed out waiting for running jobs")
	}
}

// RunJobByName runs a registered job immediately on the caller's goroutine.
func (s *Scheduler) RunJobByName(ctx context.Context, name string) error {
	s.mu.Lock()
	var job Job
	for _, j := range s.jobs {
		if j.Name() == name {
			job = j
			break
		}
	}
	s.mu.Unlock()

	if job == nil {
		return fmt.Errorf("job %q not found", name)
	}
	return s.run(ctx, job)
}

func (s *Scheduler) RegisteredJobs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, len(s.jobs))
	for i, job := range s.jobs {
		names[i] = job.Name()
	}
	return names
}

func (s *Scheduler) run(ctx context.Context, job Job) error {
	start := time.Now()
	s.log.Info("job started", zap.String("job", job.Name()))

	if err := job.Run(ctx); err != nil {
		s.log.Error("job failed",
			zap.String("job", job.Name()),
			zap.Duration("took", time.Since(start)),
			zap.Error(err),
		)
		return err
	}

	s.log.Info("job completed",
		zap.String("job", job.Name()),
		zap.Duration("took", time.Since(start)),
	)
	return nil
}

// cronLogger routes cron's internal logging into zap.
type cronLogger struct {
	log *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Sugar().Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
