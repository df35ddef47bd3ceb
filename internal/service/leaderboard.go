package service

import (
	"context"

	"github.com/sideline/platform/internal/domain"
	"github.com/sideline/platform/internal/repository"
)

const leaderboardSize = 50

// LeaderboardService ranks users by wallet balance.
type LeaderboardService struct {
	pool  repository.DBTX
	repos Repos
}

// NewLeaderboardService creates a LeaderboardService.
func NewLeaderboardService(pool repository.DBTX, repos Repos) *LeaderboardService {
	return &LeaderboardService{pool: pool, repos: repos}
}

// Top returns the highest balances, richest first.
func (s *LeaderboardService) Top(ctx context.Context) ([]domain.LeaderboardRow, error) {
	rows, err := s.repos.Bets.Leaderboard(ctx, s.pool, leaderboardSize)
	if err != nil {
		return nil, domain.ErrStorage("load leaderboard", err)
	}
	if rows == nil {
		rows = []domain.LeaderboardRow{}
	}
	return rows, nil
}
