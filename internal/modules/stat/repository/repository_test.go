package repository

import (
	"context"
	"testing"
	"time"

	"anoa.com/estatecrm/internal/entity"
	"anoa.com/estatecrm/internal/testsupport"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestListByAgentFiltersOnAgent(t *testing.T) {
	ctx := context.Background()
	db := testsupport.NewSQLiteDB(t)
	agent, other := uuid.New(), uuid.New()
	listed := time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC)

	require.NoError(t, db.Create(&[]entity.Listing{
		{AgentID: agent, Status: entity.ListingStatusActive, ListDate: listed},
		{AgentID: agent, Status: entity.ListingStatusSold, ListDate: listed},
		{AgentID: other, Status: entity.ListingStatusActive, ListDate: listed},
	}).Error)
	require.NoError(t, db.Create(&entity.Lead{AgentID: agent, Status: "new"}).Error)
	require.NoError(t, db.Create(&entity.Transaction{AgentID: other, SalePrice: 1, ClosingDate: listed}).Error)

	listings, err := NewListingRepository(db).ListByAgent(ctx, agent)
	require.NoError(t, err)
	require.Len(t, listings, 2)

	leads, err := NewLeadRepository(db).ListByAgent(ctx, agent)
	require.NoError(t, err)
	require.Len(t, leads, 1)

	transactions, err := NewTransactionRepository(db).ListByAgent(ctx, agent)
	require.NoError(t, err)
	require.Empty(t, transactions)

	ids, err := NewAgentDirectory(db).ListAgentIDs(ctx)
	require.NoError(t, err)
	require.ElementsMatch(t, []uuid.UUID{agent, other}, ids)
}

func TestStatisticsRepositorySaveOverwrites(t *testing.T) {
	ctx := context.Background()
	repo := NewStatisticsRepository(testsupport.NewSQLiteDB(t))
	agentID := uuid.New()
	at := time.Date(2026, time.February, 1, 8, 0, 0, 0, time.UTC)

	missing, err := repo.FindByAgentID(ctx, agentID)
	require.NoError(t, err)
	require.Nil(t, missing)

	require.NoError(t, repo.Save(ctx, &entity.AgentStatistics{AgentID: agentID, TotalLeads: 3, LastCalculated: at}))
	require.NoError(t, repo.Save(ctx, &entity.AgentStatistics{AgentID: agentID, TotalLeads: 5, ConversionRate: 40, LastCalculated: at.Add(time.Hour)}))

	stored, err := repo.FindByAgentID(ctx, agentID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.Equal(t, 5, stored.TotalLeads)
	require.Equal(t, 40.0, stored.ConversionRate)
	require.True(t, stored.LastCalculated.Equal(at.Add(time.Hour)))
}
