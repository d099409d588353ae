package repository

import (
	"context"

	"anoa.com/estatecrm/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MilestoneRepository interface {
	ListBySubject(ctx context.Context, subjectID uuid.UUID) ([]entity.MilestoneFlag, error)
	// CreateIfAbsent inserts the flag unless (subject_id, milestone_name) already
	// exists. It reports whether this call created the row.
	CreateIfAbsent(ctx context.Context, flag *entity.MilestoneFlag) (bool, error)
}

type milestoneRepository struct {
	db *gorm.DB
}

func NewMilestoneRepository(db *gorm.DB) MilestoneRepository {
	return &milestoneRepository{db: db}
}

func (r *milestoneRepository) ListBySubject(ctx context.Context, subjectID uuid.UUID) ([]entity.MilestoneFlag, error) {
	var flags []entity.MilestoneFlag
	err := r.db.WithContext(ctx).
		Where("subject_id = ?", subjectID).
		Order("awarded_at ASC, id ASC").
		Find(&flags).Error
	return flags, err
}

func (r *milestoneRepository) CreateIfAbsent(ctx context.Context, flag *entity.MilestoneFlag) (bool, error) {
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "subject_id"}, {Name: "milestone_name"}},
		DoNothing: true,
	}).Create(flag)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
