package repository

import (
	"context"
	"time"

	"anoa.com/estatecrm/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ActivityRepository is the append-only activity store.
type ActivityRepository interface {
	Create(ctx context.Context, activity *entity.ActivityLog) error
	ListBySubjectSince(ctx context.Context, subjectID uuid.UUID, since time.Time) ([]entity.ActivityLog, error)
	SumPointsSince(ctx context.Context, subjectID uuid.UUID, since time.Time) (int, error)
	SubjectsActiveSince(ctx context.Context, since time.Time) ([]uuid.UUID, error)
}

type activityRepository struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) Create(ctx context.Context, activity *entity.ActivityLog) error {
	return r.db.WithContext(ctx).Create(activity).Error
}

func (r *activityRepository) ListBySubjectSince(ctx context.Context, subjectID uuid.UUID, since time.Time) ([]entity.ActivityLog, error) {
	var activities []entity.ActivityLog
	err := r.db.WithContext(ctx).
		Where("subject_id = ? AND created_at >= ?", subjectID, since).
		Order("created_at ASC, id ASC").
		Find(&activities).Error
	return activities, err
}

func (r *activityRepository) SumPointsSince(ctx context.Context, subjectID uuid.UUID, since time.Time) (int, error) {
	var total int
	err := r.db.WithContext(ctx).
		Model(&entity.ActivityLog{}).
		Select("COALESCE(SUM(points), 0)").
		Where("subject_id = ? AND created_at >= ?", subjectID, since).
		Scan(&total).Error
	return total, err
}

func (r *activityRepository) SubjectsActiveSince(ctx context.Context, since time.Time) ([]uuid.UUID, error) {
	var subjectIDs []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&entity.ActivityLog{}).
		Where("created_at >= ?", since).
		Distinct().
		Order("subject_id").
		Pluck("subject_id", &subjectIDs).Error
	return subjectIDs, err
}
