package engagement

import (
	"context"
	"fmt"
	"time"

	"github.com/hackgrid/hackgrid/internal/app/progression"
	"github.com/hackgrid/hackgrid/internal/domain"
	"github.com/hackgrid/hackgrid/internal/infra/metrics"
	"github.com/hackgrid/hackgrid/internal/infra/store"
)

// SolveService records verified solves from the puzzle service and pays
// the solve reward. Answer checking happens upstream.
type SolveService struct {
	db      *store.DB
	catalog *progression.Catalog
	rewards *RewardService
}

// NewSolveService creates a solve service.
func NewSolveService(db *store.DB, catalog *progression.Catalog, rewards *RewardService) *SolveService {
	return &SolveService{db: db, catalog: catalog, rewards: rewards}
}

// RecordSolve stores a solve and grants its reward. Each puzzle pays once
// per user; a repeat returns domain.ErrPuzzleAlreadySolved.
func (s *SolveService) RecordSolve(ctx context.Context, ev domain.PuzzleSolve) (domain.SolveResult, error) {
	if err := validUserID(ev.UserID); err != nil {
		return domain.SolveResult{}, err
	}
	if ev.Puzzle == "" {
		return domain.SolveResult{}, fmt.Errorf("%w: empty puzzle slug", domain.ErrInvalidInput)
	}
	if ev.HintsUsed < 0 || ev.TimeSpent < 0 {
		return domain.SolveResult{}, fmt.Errorf("%w: negative hints or time", domain.ErrInvalidInput)
	}
	if len(s.catalog.Rules.Categories) > 0 && !s.catalog.KnownCategory(ev.Category) {
		return domain.SolveResult{}, fmt.Errorf("%w: unknown category %q", domain.ErrInvalidInput, ev.Category)
	}
	if ev.SolvedAt.IsZero() {
		ev.SolvedAt = time.Now()
	}

	reward, perfect, speed, err := s.catalog.SolveReward(ev.Difficulty, ev.HintsUsed, ev.TimeSpent)
	if err != nil {
		return domain.SolveResult{}, err
	}
	ev.XPAwarded = reward.XP
	ev.CoinsAwarded = reward.Coins

	var res domain.SolveResult
	err = s.db.WithTx(ctx, func(tx *store.Tx) error {
		if _, err := tx.EnsureUser(ctx, ev.UserID, ev.SolvedAt); err != nil {
			return err
		}
		if err := tx.InsertSolve(ctx, ev); err != nil {
			return err
		}
		grant, err := s.rewards.apply(ctx, tx.Queries, ev.UserID, domain.RewardGrant{
			Source: domain.SourceSolve,
			Ref:    ev.Puzzle,
			Reward: reward,
		}, ev.SolvedAt)
		if err != nil {
			return err
		}
		res = domain.SolveResult{Grant: grant, Perfect: perfect, Speed: speed}
		return nil
	})
	if err != nil {
		return domain.SolveResult{}, err
	}

	metrics.SolvesRecorded.WithLabelValues(ev.Difficulty).Inc()
	recordGrant(domain.SourceSolve, res.Grant)
	return res, nil
}

// Recent returns the user's latest solves.
func (s *SolveService) Recent(ctx context.Context, userID string, limit int) ([]domain.PuzzleSolve, error) {
	if err := validUserID(userID); err != nil {
		return nil, err
	}
	return s.db.RecentSolves(ctx, userID, limit)
}
