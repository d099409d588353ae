package dto

import (
	"time"

	commonDto "anoa.com/estatecrm/pkg/dto"
	"github.com/google/uuid"
)

type RecordActivityRequest struct {
	Action     string         `json:"action" binding:"required,action_key"`
	ObjectID   *string        `json:"object_id" binding:"omitempty,max=64"`
	ObjectType *string        `json:"object_type" binding:"omitempty,max=50"`
	Metadata   map[string]any `json:"metadata"`
}

type ActivityQuery struct {
	WindowDays int `form:"window_days" binding:"omitempty,min=1,max=365"`
}

type EngagementSummary struct {
	TotalScore int                        `json:"total_score"`
	Level      string                     `json:"level"`
	Status     commonDto.EngagementStatus `json:"status"`
}

type RecordActivityResponse struct {
	Recorded   bool               `json:"recorded"`
	ID         uint               `json:"id,omitempty"`
	Points     int                `json:"points"`
	Engagement *EngagementSummary `json:"engagement,omitempty"`
	Milestones []string           `json:"milestones"`
}

type ActivityResponse struct {
	ID         uint           `json:"id"`
	Action     string         `json:"action"`
	ObjectID   *string        `json:"object_id,omitempty"`
	ObjectType *string        `json:"object_type,omitempty"`
	Points     int            `json:"points"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

type ActionSubtotalResponse struct {
	Action string `json:"action"`
	Count  int    `json:"count"`
	Points int    `json:"points"`
}

type ActivitySummaryResponse struct {
	SubjectID  uuid.UUID                `json:"subject_id"`
	WindowDays int                      `json:"window_days"`
	Since      time.Time                `json:"since"`
	Total      int                      `json:"total"`
	ByAction   []ActionSubtotalResponse `json:"by_action"`
	Activities []ActivityResponse       `json:"activities"`
}
