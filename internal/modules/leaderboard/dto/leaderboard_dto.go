package dto

import (
	"time"

	commonDto "anoa.com/estatecrm/pkg/dto"
	"github.com/google/uuid"
)

// LeaderboardEntry is one subject in the engagement leaderboard.
// Position is the ranking in the leaderboard (1-based).
type LeaderboardEntry struct {
	Position         int                        `json:"position"`
	SubjectID        uuid.UUID                  `json:"subject_id"`
	LastUpdated      time.Time                  `json:"last_updated"`
	EngagementStatus commonDto.EngagementStatus `json:"engagement_status"`
}
