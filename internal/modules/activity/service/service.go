// Package activity records tracked subject actions and triggers the
// engagement rollup that follows each one.
package activity

import (
	"context"
	"sort"
	"time"

	"anoa.com/estatecrm/internal/entity"
	activityRepo "anoa.com/estatecrm/internal/modules/activity/repository"
	milestone "anoa.com/estatecrm/internal/modules/milestone/service"
	"anoa.com/estatecrm/internal/observability"
	"anoa.com/estatecrm/pkg/apperror"
	"anoa.com/estatecrm/pkg/logger"
	"anoa.com/estatecrm/pkg/validator"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

const (
	DefaultWindowDays = 30
	MaxWindowDays     = 365
	MaxObjectIDLen    = 64
	MaxObjectTypeLen  = 50
)

type Scorer interface {
	Evaluate(action string, metadata map[string]any) int
}

type Recomputer interface {
	Recompute(ctx context.Context, subjectID uuid.UUID) (*entity.EngagementSnapshot, error)
}

type MilestoneChecker interface {
	Check(ctx context.Context, subjectID uuid.UUID, score int) ([]milestone.Milestone, error)
}

type RecordInput struct {
	SubjectID  uuid.UUID
	Action     string
	ObjectID   *string
	ObjectType *string
	Metadata   map[string]any
	IPAddress  *string
	UserAgent  *string
}

// RecordResult describes the stored activity. Snapshot is nil when the
// follow-up recompute failed; the activity itself is still stored.
type RecordResult struct {
	ID         uint
	Points     int
	Snapshot   *entity.EngagementSnapshot
	Milestones []milestone.Milestone
}

type ActionSubtotal struct {
	Action string
	Count  int
	Points int
}

type Summary struct {
	SubjectID  uuid.UUID
	WindowDays int
	Since      time.Time
	Activities []entity.ActivityLog
	ByAction   []ActionSubtotal
	Total      int
}

type Service interface {
	Record(ctx context.Context, in RecordInput) (*RecordResult, error)
	// Query returns the subject's activity over the last windowDays days.
	// Zero selects the default window.
	Query(ctx context.Context, subjectID uuid.UUID, windowDays int) (*Summary, error)
}

type service struct {
	repo       activityRepo.ActivityRepository
	scorer     Scorer
	engagement Recomputer
	milestones MilestoneChecker
	windowDays int
	log        *zap.Logger
	now        func() time.Time
}

// NewService wires the write path. engagement and milestones may be nil, in
// which case recording stops after the append.
func NewService(repo activityRepo.ActivityRepository, scorer Scorer, engagement Recomputer, milestones MilestoneChecker, defaultWindowDays int, log *zap.Logger) Service {
	if defaultWindowDays <= 0 || defaultWindowDays > MaxWindowDays {
		defaultWindowDays = DefaultWindowDays
	}
	return &service{
		repo:       repo,
		scorer:     scorer,
		engagement: engagement,
		milestones: milestones,
		windowDays: defaultWindowDays,
		log:        logger.OrNop(log),
		now:        time.Now,
	}
}

func (s *service) Record(ctx context.Context, in RecordInput) (*RecordResult, error) {
	if err := validateRecord(in); err != nil {
		observability.RecordActivityFailure("validation")
		return nil, err
	}

	points := s.scorer.Evaluate(in.Action, in.Metadata)
	activity := &entity.ActivityLog{
		SubjectID:  in.SubjectID,
		Action:     in.Action,
		ObjectID:   in.ObjectID,
		ObjectType: in.ObjectType,
		Points:     points,
		IPAddress:  in.IPAddress,
		UserAgent:  in.UserAgent,
		CreatedAt:  s.now().UTC().Truncate(time.Microsecond),
	}
	if len(in.Metadata) > 0 {
		activity.Metadata = datatypes.JSONMap(in.Metadata)
	}

	if err := s.repo.Create(ctx, activity); err != nil {
		observability.RecordActivityFailure("storage")
		s.log.Error("failed to record activity",
			zap.String("subject_id", in.SubjectID.String()),
			zap.String("action", in.Action),
			zap.Error(err),
		)
		return nil, apperror.Storage("failed to record activity", err)
	}
	observability.RecordActivity(in.Action)

	result := &RecordResult{ID: activity.ID, Points: points}
	if s.engagement == nil {
		return result, nil
	}

	snapshot, err := s.engagement.Recompute(ctx, in.SubjectID)
	if err != nil {
		s.log.Warn("engagement recompute after record failed",
			zap.String("subject_id", in.SubjectID.String()),
			zap.Error(err),
		)
		return result, nil
	}
	result.Snapshot = snapshot

	if s.milestones == nil {
		return result, nil
	}
	crossed, err := s.milestones.Check(ctx, in.SubjectID, snapshot.TotalScore)
	if err != nil {
		s.log.Warn("milestone check after record failed",
			zap.String("subject_id", in.SubjectID.String()),
			zap.Error(err),
		)
	}
	result.Milestones = crossed

	return result, nil
}

func (s *service) Query(ctx context.Context, subjectID uuid.UUID, windowDays int) (*Summary, error) {
	if subjectID == uuid.Nil {
		return nil, apperror.Validation("subject id is required")
	}
	if windowDays == 0 {
		windowDays = s.windowDays
	}
	if windowDays < 1 || windowDays > MaxWindowDays {
		return nil, apperror.Validation("window_days must be between 1 and 365")
	}

	since := s.now().UTC().AddDate(0, 0, -windowDays)
	activities, err := s.repo.ListBySubjectSince(ctx, subjectID, since)
	if err != nil {
		return nil, apperror.Storage("failed to query activity", err)
	}

	summary := &Summary{
		SubjectID:  subjectID,
		WindowDays: windowDays,
		Since:      since,
		Activities: activities,
		ByAction:   []ActionSubtotal{},
	}

	byAction := make(map[string]*ActionSubtotal)
	for _, a := range activities {
		sub, ok := byAction[a.Action]
		if !ok {
			sub = &ActionSubtotal{Action: a.Action}
			byAction[a.Action] = sub
		}
		sub.Count++
		sub.Points += a.Points
		summary.Total += a.Points
	}
	for _, sub := range byAction {
		summary.ByAction = append(summary.ByAction, *sub)
	}
	sort.Slice(summary.ByAction, func(i, j int) bool {
		return summary.ByAction[i].Action < summary.ByAction[j].Action
	})

	return summary, nil
}

func validateRecord(in RecordInput) error {
	if in.SubjectID == uuid.Nil {
		return apperror.Validation("subject id is required")
	}
	if !validator.IsActionKey(in.Action) {
		return apperror.Validation("action must be lowercase snake_case")
	}
	if in.ObjectID != nil && len(*in.ObjectID) > MaxObjectIDLen {
		return apperror.Validation("object_id must be at most 64 characters")
	}
	if in.ObjectType != nil && len(*in.ObjectType) > MaxObjectTypeLen {
		return apperror.Validation("object_type must be at most 50 characters")
	}
	return nil
}
