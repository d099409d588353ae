package stat

import (
	"context"
	"time"

	"anoa.com/estatecrm/internal/entity"
	statRepo "anoa.com/estatecrm/internal/modules/stat/repository"
	"anoa.com/estatecrm/internal/observability"
	"anoa.com/estatecrm/pkg/apperror"
	"anoa.com/estatecrm/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const DefaultTTL = 24 * time.Hour

type State string

const (
	StateAbsent State = "absent"
	StateStale  State = "stale"
	StateFresh  State = "fresh"
)

// StateOf classifies a cache entry. Staleness is purely time based; writes
// to listings, leads or transactions do not invalidate an entry.
func StateOf(stats *entity.AgentStatistics, now time.Time, ttl time.Duration) State {
	if stats == nil {
		return StateAbsent
	}
	if now.Sub(stats.LastCalculated) < ttl {
		return StateFresh
	}
	return StateStale
}

type RefreshResult struct {
	Agents    int `json:"agents"`
	Refreshed int `json:"refreshed"`
	Failed    int `json:"failed"`
}

type Cache interface {
	// Get returns the cached statistics while fresh, recomputing when the
	// entry is absent, stale or force is set.
	Get(ctx context.Context, agentID uuid.UUID, force bool) (*entity.AgentStatistics, error)
	// RefreshAll force-recomputes every known agent.
	RefreshAll(ctx context.Context) (*RefreshResult, error)
}

type cache struct {
	aggregator Aggregator
	store      statRepo.StatisticsRepository
	agents     statRepo.AgentDirectory
	ttl        time.Duration
	log        *zap.Logger
	now        func() time.Time
}

func NewCache(aggregator Aggregator, store statRepo.StatisticsRepository, agents statRepo.AgentDirectory, ttl time.Duration, log *zap.Logger) Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &cache{
		aggregator: aggregator,
		store:      store,
		agents:     agents,
		ttl:        ttl,
		log:        logger.OrNop(log),
		now:        time.Now,
	}
}

func (c *cache) Get(ctx context.Context, agentID uuid.UUID, force bool) (*entity.AgentStatistics, error) {
	if agentID == uuid.Nil {
		return nil, apperror.Validation("agent id is required")
	}

	cached, err := c.store.FindByAgentID(ctx, agentID)
	if err != nil {
		return nil, apperror.Storage("failed to load agent statistics", err)
	}

	state := StateOf(cached, c.now(), c.ttl)
	if !force && state == StateFresh {
		observability.RecordStatsCache("hit")
		return cached, nil
	}
	if force {
		observability.RecordStatsCache("forced")
	} else {
		observability.RecordStatsCache("miss")
	}

	stats, err := c.aggregator.Compute(ctx, agentID)
	if err != nil {
		// A forced read asked for fresh numbers; serving the cached entry
		// would hide the failure.
		if cached != nil && !force {
			observability.RecordStatsCache("stale_fallback")
			c.log.Warn("agent statistics recompute failed, serving cached entry",
				zap.String("agent_id", agentID.String()),
				zap.String("state", string(state)),
				zap.Error(err),
			)
			return cached, nil
		}
		return nil, err
	}

	if err := c.store.Save(ctx, stats); err != nil {
		c.log.Warn("failed to store agent statistics",
			zap.String("agent_id", agentID.String()),
			zap.Error(err),
		)
	}
	return stats, nil
}

func (c *cache) RefreshAll(ctx context.Context) (*RefreshResult, error) {
	agentIDs, err := c.agents.ListAgentIDs(ctx)
	if err != nil {
		return nil, apperror.Storage("failed to list agents", err)
	}

	result := &RefreshResult{Agents: len(agentIDs)}
	for _, agentID := range agentIDs {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		if _, err := c.Get(ctx, agentID, true); err != nil {
			result.Failed++
			c.log.Warn("agent statistics refresh failed",
				zap.String("agent_id", agentID.String()),
				zap.Error(err),
			)
			continue
		}
		result.Refreshed++
	}

	c.log.Info("agent statistics refreshed",
		zap.Int("agents", result.Agents),
		zap.Int("refreshed", result.Refreshed),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}
