package engagement

import (
	"context"
	"errors"
	"fmt"
	"time"

	milestone "anoa.com/estatecrm/internal/modules/milestone/service"
	"anoa.com/estatecrm/internal/observability"
	"anoa.com/estatecrm/pkg/apperror"
	"anoa.com/estatecrm/pkg/lock"
	"anoa.com/estatecrm/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	SweepLockKey = "lock:engagement_sweep"

	DefaultSweepLookback = 7 * 24 * time.Hour
	DefaultSweepLockTTL  = 30 * time.Minute
)

var ErrSweepInProgress = fmt.Errorf("engagement sweep already running: %w", apperror.ErrConflict)

type MilestoneChecker interface {
	Check(ctx context.Context, subjectID uuid.UUID, score int) ([]milestone.Milestone, error)
}

type SweepConfig struct {
	Lookback time.Duration
	LockTTL  time.Duration
}

type SweepResult struct {
	Subjects   int       `json:"subjects"`
	Recomputed int       `json:"recomputed"`
	Failed     int       `json:"failed"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Sweeper recomputes every recently active subject. Only one sweep runs at
// a time across all instances sharing the locker.
type Sweeper struct {
	engagement Service
	activities ActivityReader
	milestones MilestoneChecker
	locker     lock.Locker
	cfg        SweepConfig
	log        *zap.Logger
	now        func() time.Time
}

// NewSweeper wires the batch trigger. milestones may be nil.
func NewSweeper(engagement Service, activities ActivityReader, milestones MilestoneChecker, locker lock.Locker, cfg SweepConfig, log *zap.Logger) *Sweeper {
	if cfg.Lookback <= 0 {
		cfg.Lookback = DefaultSweepLookback
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = DefaultSweepLockTTL
	}
	if locker == nil {
		locker = lock.NewLocalLocker()
	}
	return &Sweeper{
		engagement: engagement,
		activities: activities,
		milestones: milestones,
		locker:     locker,
		cfg:        cfg,
		log:        logger.OrNop(log),
		now:        time.Now,
	}
}

// Run performs one sweep. Per-subject failures are counted and logged; the
// sweep only fails as a whole when it cannot lock or list subjects.
func (s *Sweeper) Run(ctx context.Context) (*SweepResult, error) {
	token, acquired, err := s.locker.Acquire(ctx, SweepLockKey, s.cfg.LockTTL)
	if err != nil {
		observability.RecordSweep("failed", time.Time{})
		return nil, apperror.External("failed to acquire sweep lock", err)
	}
	if !acquired {
		observability.RecordSweep("skipped", time.Time{})
		return nil, ErrSweepInProgress
	}
	defer func() {
		if err := s.locker.Release(context.WithoutCancel(ctx), SweepLockKey, token); err != nil {
			s.log.Warn("failed to release sweep lock", zap.Error(err))
		}
	}()

	result := &SweepResult{StartedAt: s.now().UTC()}
	subjects, err := s.activities.SubjectsActiveSince(ctx, result.StartedAt.Add(-s.cfg.Lookback))
	if err != nil {
		observability.RecordSweep("failed", time.Time{})
		return nil, apperror.Storage("failed to list active subjects", err)
	}
	result.Subjects = len(subjects)

	s.log.Info("engagement sweep started", zap.Int("subjects", len(subjects)))

	for _, subjectID := range subjects {
		if ctx.Err() != nil {
			break
		}
		if err := s.sweepSubject(ctx, subjectID); err != nil {
			result.Failed++
			s.log.Warn("engagement sweep: subject failed",
				zap.String("subject_id", subjectID.String()),
				zap.Error(err),
			)
			continue
		}
		result.Recomputed++
	}

	result.FinishedAt = s.now().UTC()
	if err := ctx.Err(); err != nil {
		observability.RecordSweep("failed", time.Time{})
		return result, fmt.Errorf("engagement sweep interrupted: %w", err)
	}

	observability.RecordSweep("completed", result.FinishedAt)
	s.log.Info("engagement sweep finished",
		zap.Int("subjects", result.Subjects),
		zap.Int("recomputed", result.Recomputed),
		zap.Int("failed", result.Failed),
		zap.Duration("took", result.FinishedAt.Sub(result.StartedAt)),
	)
	return result, nil
}

func (s *Sweeper) sweepSubject(ctx context.Context, subjectID uuid.UUID) error {
	snapshot, err := s.engagement.Recompute(ctx, subjectID)
	if err != nil {
		return err
	}
	if s.milestones == nil {
		return nil
	}
	if _, err := s.milestones.Check(ctx, subjectID, snapshot.TotalScore); err != nil {
		return errors.Join(errors.New("milestone check failed"), err)
	}
	return nil
}
