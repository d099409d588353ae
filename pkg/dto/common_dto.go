package dto

// EngagementStatus describes where a score sits in the level ladder.
type EngagementStatus struct {
	Level         string  `json:"level"`
	NextLevel     string  `json:"next_level"`
	CurrentPoints int     `json:"current_points"`
	TargetPoints  int     `json:"target_points"`
	Progress      float64 `json:"progress"` // Percentage
}

type ErrorResponse struct {
	Error string `json:"error"`
}
