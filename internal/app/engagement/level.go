package engagement

import (
	"context"

	"github.com/hackgrid/hackgrid/internal/app/progression"
	"github.com/hackgrid/hackgrid/internal/domain"
	"github.com/hackgrid/hackgrid/internal/infra/store"
)

// LevelService reads level state: profiles and the leaderboard.
type LevelService struct {
	db *store.DB
}

// NewLevelService creates a level service.
func NewLevelService(db *store.DB) *LevelService {
	return &LevelService{db: db}
}

// Profile returns the user's balance, level breakdown and title.
func (l *LevelService) Profile(ctx context.Context, userID string) (domain.Profile, error) {
	if err := validUserID(userID); err != nil {
		return domain.Profile{}, err
	}
	u, err := l.db.GetUser(ctx, userID)
	if err != nil {
		return domain.Profile{}, err
	}
	info := progression.Info(u.XP)
	return domain.Profile{
		User:  u,
		Level: info,
		Title: progression.TitleForLevel(info.Level),
	}, nil
}

// Leaderboard returns the top users by XP, ranked from 1.
func (l *LevelService) Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	if limit > 100 {
		limit = 100
	}
	users, err := l.db.Leaderboard(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]domain.LeaderboardEntry, len(users))
	for i, u := range users {
		level := progression.LevelFromXP(u.XP)
		out[i] = domain.LeaderboardEntry{
			Rank:   i + 1,
			UserID: u.ID,
			XP:     u.XP,
			Level:  level,
			Title:  progression.TitleForLevel(level),
		}
	}
	return out, nil
}
