package engagement

import (
	"math"

	"anoa.com/estatecrm/pkg/dto"
)

type Level string

const (
	LevelNewVisitor     Level = "new_visitor"
	LevelEngagedVisitor Level = "engaged_visitor"
	LevelActiveProspect Level = "active_prospect"
	LevelHotLead        Level = "hot_lead"
	LevelReadyToBuy     Level = "ready_to_buy"

	// MaxLevel is reported as the next level once ready_to_buy is reached.
	MaxLevel = "max_level"
)

// Level thresholds, in points over the engagement window.
const (
	PointsReadyToBuy     = 100
	PointsHotLead        = 75
	PointsActiveProspect = 50
	PointsEngagedVisitor = 25
)

type levelThreshold struct {
	level    Level
	minScore int
}

// Ordered high to low; the first threshold the score meets wins.
var levelThresholds = []levelThreshold{
	{LevelReadyToBuy, PointsReadyToBuy},
	{LevelHotLead, PointsHotLead},
	{LevelActiveProspect, PointsActiveProspect},
	{LevelEngagedVisitor, PointsEngagedVisitor},
}

// LevelFor maps a score to its level. Scores below every threshold,
// negative ones included, are new_visitor.
func LevelFor(score int) Level {
	for _, t := range levelThresholds {
		if score >= t.minScore {
			return t.level
		}
	}
	return LevelNewVisitor
}

// GetEngagementStatus calculates the level and the progress towards the next one.
func GetEngagementStatus(score int) dto.EngagementStatus {
	var status dto.EngagementStatus
	status.CurrentPoints = score

	switch {
	case score >= PointsReadyToBuy:
		status.Level = string(LevelReadyToBuy)
		status.NextLevel = MaxLevel
		status.TargetPoints = PointsReadyToBuy
		status.Progress = 100

	case score >= PointsHotLead:
		status.Level = string(LevelHotLead)
		status.NextLevel = string(LevelReadyToBuy)
		status.TargetPoints = PointsReadyToBuy

	case score >= PointsActiveProspect:
		status.Level = string(LevelActiveProspect)
		status.NextLevel = string(LevelHotLead)
		status.TargetPoints = PointsHotLead

	case score >= PointsEngagedVisitor:
		status.Level = string(LevelEngagedVisitor)
		status.NextLevel = string(LevelActiveProspect)
		status.TargetPoints = PointsActiveProspect

	default:
		status.Level = string(LevelNewVisitor)
		status.NextLevel = string(LevelEngagedVisitor)
		status.TargetPoints = PointsEngagedVisitor
	}

	if status.Progress == 0 && score > 0 {
		status.Progress = (float64(score) / float64(status.TargetPoints)) * 100
	}

	// Round progress to 2 decimal places
	status.Progress = math.Round(status.Progress*100) / 100

	return status
}
