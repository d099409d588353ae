// Package milestone awards one-shot engagement milestones and announces them.
package milestone

import (
	"context"
	"time"

	"anoa.com/estatecrm/internal/entity"
	milestoneRepo "anoa.com/estatecrm/internal/modules/milestone/repository"
	notification "anoa.com/estatecrm/internal/modules/notification/service"
	"anoa.com/estatecrm/internal/observability"
	"anoa.com/estatecrm/pkg/apperror"
	"anoa.com/estatecrm/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const DefaultNotifyTimeout = 3 * time.Second

type Milestone struct {
	Name      string `json:"name"`
	Threshold int    `json:"threshold"`
}

// DefaultMilestones is ordered by ascending threshold.
var DefaultMilestones = []Milestone{
	{Name: "engaged_visitor", Threshold: 25},
	{Name: "active_prospect", Threshold: 50},
	{Name: "hot_lead", Threshold: 75},
	{Name: "ready_to_buy", Threshold: 100},
}

type Tracker interface {
	// Check awards every milestone at or below score that the subject does
	// not hold yet and returns the ones awarded by this call.
	Check(ctx context.Context, subjectID uuid.UUID, score int) ([]Milestone, error)
	List(ctx context.Context, subjectID uuid.UUID) ([]entity.MilestoneFlag, error)
}

type tracker struct {
	repo          milestoneRepo.MilestoneRepository
	publisher     notification.Publisher
	milestones    []Milestone
	notifyTimeout time.Duration
	log           *zap.Logger
	now           func() time.Time
}

// NewTracker uses DefaultMilestones. A nil publisher drops events.
func NewTracker(repo milestoneRepo.MilestoneRepository, publisher notification.Publisher, notifyTimeout time.Duration, log *zap.Logger) Tracker {
	if publisher == nil {
		publisher = notification.Noop{}
	}
	if notifyTimeout <= 0 {
		notifyTimeout = DefaultNotifyTimeout
	}
	return &tracker{
		repo:          repo,
		publisher:     publisher,
		milestones:    DefaultMilestones,
		notifyTimeout: notifyTimeout,
		log:           logger.OrNop(log),
		now:           time.Now,
	}
}

func (t *tracker) Check(ctx context.Context, subjectID uuid.UUID, score int) ([]Milestone, error) {
	if subjectID == uuid.Nil {
		return nil, apperror.Validation("subject id is required")
	}
	if score < t.milestones[0].Threshold {
		return nil, nil
	}

	held, err := t.repo.ListBySubject(ctx, subjectID)
	if err != nil {
		return nil, apperror.Storage("failed to load milestones", err)
	}
	awarded := make(map[string]bool, len(held))
	for _, flag := range held {
		awarded[flag.MilestoneName] = true
	}

	var crossed []Milestone
	for _, m := range t.milestones {
		if m.Threshold > score {
			break
		}
		if awarded[m.Name] {
			continue
		}

		flag := &entity.MilestoneFlag{
			SubjectID:     subjectID,
			MilestoneName: m.Name,
			Score:         score,
			AwardedAt:     t.now().UTC().Truncate(time.Microsecond),
		}
		created, err := t.repo.CreateIfAbsent(ctx, flag)
		if err != nil {
			return crossed, apperror.Storage("failed to award milestone", err)
		}
		// Another request won the insert; it owns the notification.
		if !created {
			continue
		}

		observability.RecordMilestoneAwarded(m.Name)
		crossed = append(crossed, m)
		t.notify(ctx, flag)
	}

	return crossed, nil
}

func (t *tracker) List(ctx context.Context, subjectID uuid.UUID) ([]entity.MilestoneFlag, error) {
	flags, err := t.repo.ListBySubject(ctx, subjectID)
	if err != nil {
		return nil, apperror.Storage("failed to load milestones", err)
	}
	return flags, nil
}

func (t *tracker) notify(ctx context.Context, flag *entity.MilestoneFlag) {
	ctx, cancel := context.WithTimeout(ctx, t.notifyTimeout)
	defer cancel()

	event := notification.MilestoneEvent{
		Type:      notification.EventTypeMilestoneReached,
		SubjectID: flag.SubjectID,
		Milestone: flag.MilestoneName,
		Score:     flag.Score,
		AwardedAt: flag.AwardedAt,
	}
	if err := t.publisher.Publish(ctx, event); err != nil {
		observability.RecordMilestonePublishFailure()
		t.log.Warn("milestone notification failed",
			zap.String("subject_id", flag.SubjectID.String()),
			zap.String("milestone", flag.MilestoneName),
			zap.Error(err),
		)
		return
	}

	t.log.Info("milestone reached",
		zap.String("subject_id", flag.SubjectID.String()),
		zap.String("milestone", flag.MilestoneName),
		zap.Int("score", flag.Score),
	)
}
