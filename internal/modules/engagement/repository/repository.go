package repository

import (
	"context"

	"anoa.com/estatecrm/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SnapshotRepository interface {
	Upsert(ctx context.Context, snapshot *entity.EngagementSnapshot) error
	FindBySubjectID(ctx context.Context, subjectID uuid.UUID) (*entity.EngagementSnapshot, error)
	GetTopSubjects(ctx context.Context, limit int) ([]entity.EngagementSnapshot, error)
}

type snapshotRepository struct {
	db *gorm.DB
}

func NewSnapshotRepository(db *gorm.DB) SnapshotRepository {
	return &snapshotRepository{db: db}
}

func (r *snapshotRepository) Upsert(ctx context.Context, snapshot *entity.EngagementSnapshot) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "subject_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"total_score", "level", "last_updated"}),
	}).Create(snapshot).Error
}

// FindBySubjectID returns nil without error when the subject has no snapshot yet.
func (r *snapshotRepository) FindBySubjectID(ctx context.Context, subjectID uuid.UUID) (*entity.EngagementSnapshot, error) {
	// Find with a slice avoids GORM's "record not found" log noise from First()
	var snapshots []entity.EngagementSnapshot
	err := r.db.WithContext(ctx).
		Where("subject_id = ?", subjectID).
		Limit(1).
		Find(&snapshots).Error
	if err != nil {
		return nil, err
	}
	if len(snapshots) == 0 {
		return nil, nil
	}
	return &snapshots[0], nil
}

func (r *snapshotRepository) GetTopSubjects(ctx context.Context, limit int) ([]entity.EngagementSnapshot, error) {
	var snapshots []entity.EngagementSnapshot
	err := r.db.WithContext(ctx).
		Order("total_score DESC, last_updated ASC").
		Limit(limit).
		Find(&snapshots).Error
	return snapshots, err
}

// LeadScoreRepository writes engagement into the CRM lead record.
type LeadScoreRepository interface {
	// SyncLeadScore reports false when the subject has no lead.
	SyncLeadScore(ctx context.Context, subjectID uuid.UUID, score int) (bool, error)
}

type leadScoreRepository struct {
	db *gorm.DB
}

func NewLeadScoreRepository(db *gorm.DB) LeadScoreRepository {
	return &leadScoreRepository{db: db}
}

func (r *leadScoreRepository) SyncLeadScore(ctx context.Context, subjectID uuid.UUID, score int) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&entity.Lead{}).
		Where("subject_id = ?", subjectID).
		Update("score", score)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
