package repository

import (
	"context"

	"anoa.com/estatecrm/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ListingRepository interface {
	ListByAgent(ctx context.Context, agentID uuid.UUID) ([]entity.Listing, error)
}

type LeadRepository interface {
	ListByAgent(ctx context.Context, agentID uuid.UUID) ([]entity.Lead, error)
}

type TransactionRepository interface {
	ListByAgent(ctx context.Context, agentID uuid.UUID) ([]entity.Transaction, error)
}

// AgentDirectory lists every agent referenced by a listing, lead or transaction.
type AgentDirectory interface {
	ListAgentIDs(ctx context.Context) ([]uuid.UUID, error)
}

type StatisticsRepository interface {
	// FindByAgentID returns nil without error when nothing is cached.
	FindByAgentID(ctx context.Context, agentID uuid.UUID) (*entity.AgentStatistics, error)
	Save(ctx context.Context, stats *entity.AgentStatistics) error
}

type listingRepository struct {
	db *gorm.DB
}

func NewListingRepository(db *gorm.DB) ListingRepository {
	return &listingRepository{db: db}
}

func (r *listingRepository) ListByAgent(ctx context.Context, agentID uuid.UUID) ([]entity.Listing, error) {
	var listings []entity.Listing
	err := r.db.WithContext(ctx).Where("agent_id = ?", agentID).Find(&listings).Error
	return listings, err
}

type leadRepository struct {
	db *gorm.DB
}

func NewLeadRepository(db *gorm.DB) LeadRepository {
	return &leadRepository{db: db}
}

func (r *leadRepository) ListByAgent(ctx context.Context, agentID uuid.UUID) ([]entity.Lead, error) {
	var leads []entity.Lead
	err := r.db.WithContext(ctx).Where("agent_id = ?", agentID).Find(&leads).Error
	return leads, err
}

type transactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) ListByAgent(ctx context.Context, agentID uuid.UUID) ([]entity.Transaction, error) {
	var transactions []entity.Transaction
	err := r.db.WithContext(ctx).Where("agent_id = ?", agentID).Find(&transactions).Error
	return transactions, err
}

type agentDirectory struct {
	db *gorm.DB
}

func NewAgentDirectory(db *gorm.DB) AgentDirectory {
	return &agentDirectory{db: db}
}

func (r *agentDirectory) ListAgentIDs(ctx context.Context) ([]uuid.UUID, error) {
	seen := make(map[uuid.UUID]struct{})
	var agentIDs []uuid.UUID

	for _, model := range []any{&entity.Listing{}, &entity.Lead{}, &entity.Transaction{}} {
		var ids []uuid.UUID
		if err := r.db.WithContext(ctx).Model(model).Distinct().Pluck("agent_id", &ids).Error; err != nil {
			return nil, err
		}
		for _, id := range ids {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			agentIDs = append(agentIDs, id)
		}
	}

	return agentIDs, nil
}

type statisticsRepository struct {
	db *gorm.DB
}

func NewStatisticsRepository(db *gorm.DB) StatisticsRepository {
	return &statisticsRepository{db: db}
}

func (r *statisticsRepository) FindByAgentID(ctx context.Context, agentID uuid.UUID) (*entity.AgentStatistics, error) {
	var stats []entity.AgentStatistics
	err := r.db.WithContext(ctx).Where("agent_id = ?", agentID).Limit(1).Find(&stats).Error
	if err != nil {
		return nil, err
	}
	if len(stats) == 0 {
		return nil, nil
	}
	return &stats[0], nil
}

func (r *statisticsRepository) Save(ctx context.Context, stats *entity.AgentStatistics) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "agent_id"}},
		UpdateAll: true,
	}).Create(stats).Error
}
