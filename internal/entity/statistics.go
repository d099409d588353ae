package entity

import (
	"time"

	"github.com/google/uuid"
)

// AgentStatistics is a cached roll-up of an agent's listings, leads and transactions.
type AgentStatistics struct {
	AgentID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"agent_id"`
	TotalListings     int       `json:"total_listings"`
	ActiveListings    int       `json:"active_listings"`
	SoldListings      int       `json:"sold_listings"`
	PendingListings   int       `json:"pending_listings"`
	AvgDaysOnMarket   float64   `json:"avg_days_on_market"`
	TotalLeads        int       `json:"total_leads"`
	ConvertedLeads    int       `json:"converted_leads"`
	ConversionRate    float64   `json:"conversion_rate"`
	TotalTransactions int       `json:"total_transactions"`
	TotalVolume       float64   `json:"total_volume"`
	YTDVolume         float64   `json:"ytd_volume"`
	LastCalculated    time.Time `gorm:"not null" json:"last_calculated"`
}

func (AgentStatistics) TableName() string {
	return "agent_statistics"
}
