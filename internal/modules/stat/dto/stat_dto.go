package dto

import (
	"time"

	"github.com/google/uuid"
)

type StatisticsQuery struct {
	Force bool `form:"force"`
}

type AgentStatisticsResponse struct {
	AgentID           uuid.UUID `json:"agent_id"`
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
	LastCalculated    time.Time `json:"last_calculated"`
}
