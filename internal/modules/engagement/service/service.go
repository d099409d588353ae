// Package engagement rolls activity points up into engagement snapshots.
package engagement

import (
	"context"
	"time"

	"anoa.com/estatecrm/internal/entity"
	engagementRepo "anoa.com/estatecrm/internal/modules/engagement/repository"
	"anoa.com/estatecrm/internal/observability"
	"anoa.com/estatecrm/pkg/apperror"
	"anoa.com/estatecrm/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultWindow = 30 * 24 * time.Hour

	// MaxLeadScore caps the copy written into the CRM lead record.
	MaxLeadScore = 100
)

// ActivityReader is the read side of the activity log.
type ActivityReader interface {
	SumPointsSince(ctx context.Context, subjectID uuid.UUID, since time.Time) (int, error)
	SubjectsActiveSince(ctx context.Context, since time.Time) ([]uuid.UUID, error)
}

type Config struct {
	Window time.Duration
	// FloorAtZero clamps negative window sums to zero before they are stored.
	FloorAtZero bool
}

type Service interface {
	Recompute(ctx context.Context, subjectID uuid.UUID) (*entity.EngagementSnapshot, error)
	GetSnapshot(ctx context.Context, subjectID uuid.UUID) (*entity.EngagementSnapshot, error)
}

type service struct {
	activities ActivityReader
	snapshots  engagementRepo.SnapshotRepository
	leadScores engagementRepo.LeadScoreRepository
	cfg        Config
	log        *zap.Logger
	now        func() time.Time
}

// NewService wires the aggregator. leadScores may be nil when no CRM lead
// table is available.
func NewService(activities ActivityReader, snapshots engagementRepo.SnapshotRepository, leadScores engagementRepo.LeadScoreRepository, cfg Config, log *zap.Logger) Service {
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	return &service{
		activities: activities,
		snapshots:  snapshots,
		leadScores: leadScores,
		cfg:        cfg,
		log:        logger.OrNop(log),
		now:        time.Now,
	}
}

// Recompute sums the subject's points over the trailing window and stores
// the result. A recompute that changes nothing leaves the stored snapshot,
// including its timestamp, untouched.
func (s *service) Recompute(ctx context.Context, subjectID uuid.UUID) (snapshot *entity.EngagementSnapshot, err error) {
	defer func() { observability.RecordRecompute(err) }()

	if subjectID == uuid.Nil {
		return nil, apperror.Validation("subject id is required")
	}

	now := s.now().UTC()
	total, err := s.activities.SumPointsSince(ctx, subjectID, now.Add(-s.cfg.Window))
	if err != nil {
		return nil, apperror.Storage("failed to sum activity points", err)
	}
	if s.cfg.FloorAtZero && total < 0 {
		total = 0
	}
	level := string(LevelFor(total))

	existing, err := s.snapshots.FindBySubjectID(ctx, subjectID)
	if err != nil {
		return nil, apperror.Storage("failed to load engagement snapshot", err)
	}
	if existing != nil && existing.TotalScore == total && existing.Level == level {
		s.syncLeadScore(ctx, subjectID, total)
		return existing, nil
	}

	snapshot = &entity.EngagementSnapshot{
		SubjectID:   subjectID,
		TotalScore:  total,
		Level:       level,
		LastUpdated: now.Truncate(time.Microsecond),
	}
	if err := s.snapshots.Upsert(ctx, snapshot); err != nil {
		return nil, apperror.Storage("failed to store engagement snapshot", err)
	}

	if existing == nil || existing.Level != level {
		s.log.Info("engagement level changed",
			zap.String("subject_id", subjectID.String()),
			zap.String("level", level),
			zap.Int("score", total),
		)
	}

	s.syncLeadScore(ctx, subjectID, total)
	return snapshot, nil
}

// GetSnapshot returns the stored snapshot, computing it on first access.
func (s *service) GetSnapshot(ctx context.Context, subjectID uuid.UUID) (*entity.EngagementSnapshot, error) {
	snapshot, err := s.snapshots.FindBySubjectID(ctx, subjectID)
	if err != nil {
		return nil, apperror.Storage("failed to load engagement snapshot", err)
	}
	if snapshot != nil {
		return snapshot, nil
	}
	return s.Recompute(ctx, subjectID)
}

// syncLeadScore mirrors the score into the subject's lead, if any. Failures
// are logged only; the snapshot is already stored.
func (s *service) syncLeadScore(ctx context.Context, subjectID uuid.UUID, total int) {
	if s.leadScores == nil {
		return
	}

	score := min(max(total, 0), MaxLeadScore)
	found, err := s.leadScores.SyncLeadScore(ctx, subjectID, score)
	if err != nil {
		s.log.Warn("lead score sync failed",
			zap.String("subject_id", subjectID.String()),
			zap.Error(err),
		)
		return
	}
	if found {
		s.log.Debug("lead score synced",
			zap.String("subject_id", subjectID.String()),
			zap.Int("score", score),
		)
	}
}
