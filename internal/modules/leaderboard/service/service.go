package service

import (
	"context"

	engagementRepo "anoa.com/estatecrm/internal/modules/engagement/repository"
	engagement "anoa.com/estatecrm/internal/modules/engagement/service"
	leaderboardDto "anoa.com/estatecrm/internal/modules/leaderboard/dto"
	"anoa.com/estatecrm/pkg/apperror"
)

const (
	DefaultLimit = 10
	MaxLimit     = 50
)

type LeaderboardService interface {
	GetLeaderboard(ctx context.Context, limit int) ([]leaderboardDto.LeaderboardEntry, error)
}

type leaderboardService struct {
	snapshots engagementRepo.SnapshotRepository
}

func NewLeaderboardService(snapshots engagementRepo.SnapshotRepository) LeaderboardService {
	return &leaderboardService{snapshots: snapshots}
}

func (s *leaderboardService) GetLeaderboard(ctx context.Context, limit int) ([]leaderboardDto.LeaderboardEntry, error) {
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	snapshots, err := s.snapshots.GetTopSubjects(ctx, limit)
	if err != nil {
		return nil, apperror.Storage("failed to fetch leaderboard", err)
	}

	entries := make([]leaderboardDto.LeaderboardEntry, 0, len(snapshots))
	for i, snapshot := range snapshots {
		entries = append(entries, leaderboardDto.LeaderboardEntry{
			Position:         i + 1, // 1-based position
			SubjectID:        snapshot.SubjectID,
			LastUpdated:      snapshot.LastUpdated,
			EngagementStatus: engagement.GetEngagementStatus(snapshot.TotalScore),
		})
	}

	return entries, nil
}
