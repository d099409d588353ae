package bootstrap

import (
	"anoa.com/estatecrm/internal/entity"
	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entity.ActivityLog{},
		&entity.EngagementSnapshot{},
		&entity.MilestoneFlag{},
		&entity.AgentStatistics{},
		&entity.Listing{},
		&entity.Lead{},
		&entity.Transaction{},
	)
}
