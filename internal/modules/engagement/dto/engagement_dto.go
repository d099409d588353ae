package dto

import (
	"time"

	commonDto "anoa.com/estatecrm/pkg/dto"
	"github.com/google/uuid"
)

type MilestoneResponse struct {
	Name      string    `json:"name"`
	Score     int       `json:"score"`
	AwardedAt time.Time `json:"awarded_at"`
}

// SnapshotResponse is the engagement view of one subject.
type SnapshotResponse struct {
	SubjectID   uuid.UUID                  `json:"subject_id"`
	TotalScore  int                        `json:"total_score"`
	Level       string                     `json:"level"`
	LastUpdated time.Time                  `json:"last_updated"`
	Status      commonDto.EngagementStatus `json:"status"`
	Milestones  []MilestoneResponse        `json:"milestones"`
}

type RecomputeResponse struct {
	SnapshotResponse
	NewMilestones []string `json:"new_milestones"`
}
