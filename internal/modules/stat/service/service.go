// Package stat computes agent performance statistics and serves them through
// a time-boxed cache.
package stat

import (
	"context"
	"math"
	"time"

	"anoa.com/estatecrm/internal/entity"
	statRepo "anoa.com/estatecrm/internal/modules/stat/repository"
	"anoa.com/estatecrm/pkg/apperror"
	"anoa.com/estatecrm/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const DefaultTimeout = 5 * time.Second

type Aggregator interface {
	// Compute reads the agent's listings, leads and transactions and reduces
	// them into statistics stamped with the computation time. It writes nothing.
	Compute(ctx context.Context, agentID uuid.UUID) (*entity.AgentStatistics, error)
}

type aggregator struct {
	listings     statRepo.ListingRepository
	leads        statRepo.LeadRepository
	transactions statRepo.TransactionRepository
	timeout      time.Duration
	log          *zap.Logger
	now          func() time.Time
}

func NewAggregator(listings statRepo.ListingRepository, leads statRepo.LeadRepository, transactions statRepo.TransactionRepository, timeout time.Duration, log *zap.Logger) Aggregator {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &aggregator{
		listings:     listings,
		leads:        leads,
		transactions: transactions,
		timeout:      timeout,
		log:          logger.OrNop(log),
		now:          time.Now,
	}
}

func (a *aggregator) Compute(ctx context.Context, agentID uuid.UUID) (*entity.AgentStatistics, error) {
	if agentID == uuid.Nil {
		return nil, apperror.Validation("agent id is required")
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	listings, err := a.listings.ListByAgent(ctx, agentID)
	if err != nil {
		return nil, apperror.External("failed to read listings", err)
	}
	leads, err := a.leads.ListByAgent(ctx, agentID)
	if err != nil {
		return nil, apperror.External("failed to read leads", err)
	}
	transactions, err := a.transactions.ListByAgent(ctx, agentID)
	if err != nil {
		return nil, apperror.External("failed to read transactions", err)
	}

	now := a.now().UTC()
	stats := &entity.AgentStatistics{
		AgentID:           agentID,
		TotalListings:     len(listings),
		TotalLeads:        len(leads),
		TotalTransactions: len(transactions),
		LastCalculated:    now.Truncate(time.Microsecond),
	}

	var soldDays float64
	var soldWithDates int
	for _, l := range listings {
		switch l.Status {
		case entity.ListingStatusActive:
			stats.ActiveListings++
		case entity.ListingStatusPending:
			stats.PendingListings++
		case entity.ListingStatusSold:
			stats.SoldListings++
			// Sale dates earlier than the list date are data entry errors.
			if l.SaleDate != nil && !l.SaleDate.Before(l.ListDate) {
				soldDays += l.SaleDate.Sub(l.ListDate).Hours() / 24
				soldWithDates++
			}
		}
	}
	if soldWithDates > 0 {
		stats.AvgDaysOnMarket = round(soldDays/float64(soldWithDates), 1)
	}

	for _, l := range leads {
		if l.Status == entity.LeadStatusConverted {
			stats.ConvertedLeads++
		}
	}
	if stats.TotalLeads > 0 {
		stats.ConversionRate = round(float64(stats.ConvertedLeads)/float64(stats.TotalLeads)*100, 2)
	}

	for _, t := range transactions {
		stats.TotalVolume += t.SalePrice
		if t.ClosingDate.UTC().Year() == now.Year() {
			stats.YTDVolume += t.SalePrice
		}
	}

	a.log.Debug("agent statistics computed",
		zap.String("agent_id", agentID.String()),
		zap.Int("listings", stats.TotalListings),
		zap.Int("leads", stats.TotalLeads),
		zap.Int("transactions", stats.TotalTransactions),
	)
	return stats, nil
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
