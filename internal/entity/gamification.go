package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ActivityLog is one tracked subject action. Rows are append-only.
type ActivityLog struct {
	ID         uint              `gorm:"primaryKey" json:"id"`
	SubjectID  uuid.UUID         `gorm:"type:uuid;index:idx_activity_subject_date,priority:1;not null" json:"subject_id"`
	Action     string            `gorm:"size:64;not null" json:"action"`
	ObjectID   *string           `gorm:"size:64" json:"object_id,omitempty"`
	ObjectType *string           `gorm:"size:50" json:"object_type,omitempty"`
	Points     int               `gorm:"not null" json:"points"`
	Metadata   datatypes.JSONMap `json:"metadata,omitempty"`
	IPAddress  *string           `gorm:"size:45" json:"ip_address,omitempty"`
	UserAgent  *string           `gorm:"type:text" json:"user_agent,omitempty"`
	CreatedAt  time.Time         `gorm:"index:idx_activity_subject_date,priority:2;index:idx_activity_date" json:"created_at"`
}

func (ActivityLog) TableName() string {
	return "activity_logs"
}

// EngagementSnapshot is the last computed rolling score for a subject.
// It can always be rebuilt from activity_logs.
type EngagementSnapshot struct {
	SubjectID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"subject_id"`
	TotalScore  int       `gorm:"not null;default:0;index" json:"total_score"`
	Level       string    `gorm:"size:32;not null" json:"level"`
	LastUpdated time.Time `json:"last_updated"`
}

func (EngagementSnapshot) TableName() string {
	return "engagement_snapshots"
}

// MilestoneFlag records that a subject crossed a milestone. Never updated or deleted.
type MilestoneFlag struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	SubjectID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_milestone_subject_name,priority:1" json:"subject_id"`
	MilestoneName string    `gorm:"size:32;not null;uniqueIndex:idx_milestone_subject_name,priority:2" json:"milestone_name"`
	Score         int       `gorm:"not null" json:"score"`
	AwardedAt     time.Time `gorm:"not null" json:"awarded_at"`
}

func (MilestoneFlag) TableName() string {
	return "milestone_flags"
}
