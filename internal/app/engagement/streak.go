package engagement

import (
	"context"
	"time"

	"github.com/hackgrid/hackgrid/internal/app/progression"
	"github.com/hackgrid/hackgrid/internal/domain"
	"github.com/hackgrid/hackgrid/internal/infra/metrics"
	"github.com/hackgrid/hackgrid/internal/infra/store"
)

// StreakService manages daily login streaks.
// A day is a UTC calendar day. Same day: no-op. Next day: +1.
// Any gap: the streak restarts at 1. Breaks are silent.
type StreakService struct {
	db      *store.DB
	catalog *progression.Catalog
	rewards *RewardService
}

// NewStreakService creates a streak service.
func NewStreakService(db *store.DB, catalog *progression.Catalog, rewards *RewardService) *StreakService {
	return &StreakService{db: db, catalog: catalog, rewards: rewards}
}

// RecordLogin registers a login at now. The first login of a day extends
// the streak and grants DAILY_LOGIN (FIRST_TIME_LOGIN on the very first
// login) plus STREAK_BONUS per streak day beyond the first, capped.
func (s *StreakService) RecordLogin(ctx context.Context, userID string, now time.Time) (domain.LoginResult, error) {
	if err := validUserID(userID); err != nil {
		return domain.LoginResult{}, err
	}

	today := dayStart(now)
	var res domain.LoginResult
	err := s.db.WithTx(ctx, func(tx *store.Tx) error {
		u, err := tx.EnsureUser(ctx, userID, now)
		if err != nil {
			return err
		}

		// Same day (or a clock that went backwards): already counted.
		if !u.StreakLastDay.IsZero() && !today.After(u.StreakLastDay) {
			res = domain.LoginResult{Streak: u.StreakCurrent, Longest: u.StreakLongest}
			return tx.TouchActive(ctx, userID, now)
		}

		current := nextStreak(u, today)
		longest := max(u.StreakLongest, current)

		swapped, err := tx.UpdateStreak(ctx, userID, u.StreakLastDay, current, longest, today, now)
		if err != nil {
			return err
		}
		if !swapped {
			// A concurrent login recorded today first.
			fresh, err := tx.GetUser(ctx, userID)
			if err != nil {
				return err
			}
			res = domain.LoginResult{Streak: fresh.StreakCurrent, Longest: fresh.StreakLongest}
			return nil
		}

		grant, err := s.rewards.apply(ctx, tx.Queries, userID, domain.RewardGrant{
			Source: domain.SourceLogin,
			Ref:    today.Format("2006-01-02"),
			Reward: s.loginReward(u.StreakLastDay.IsZero(), current),
		}, now)
		if err != nil {
			return err
		}
		res = domain.LoginResult{FirstToday: true, Streak: current, Longest: longest, Grant: &grant}
		return nil
	})
	if err != nil {
		return domain.LoginResult{}, err
	}

	if res.Grant != nil {
		metrics.Logins.Inc()
		recordGrant(domain.SourceLogin, *res.Grant)
	}
	return res, nil
}

// Streak returns the user's live and longest streak.
func (s *StreakService) Streak(ctx context.Context, userID string, now time.Time) (current, longest int, err error) {
	u, err := s.db.GetUser(ctx, userID)
	if err != nil {
		return 0, 0, err
	}
	return liveStreak(u, now), u.StreakLongest, nil
}

// loginReward sums the login action and the capped streak bonus.
func (s *StreakService) loginReward(firstEver bool, streak int) domain.Reward {
	action := progression.ActionDailyLogin
	if firstEver {
		if _, ok := s.catalog.Actions[progression.ActionFirstLogin]; ok {
			action = progression.ActionFirstLogin
		}
	}
	reward := s.catalog.Actions[action]

	bonusDays := min(streak-1, s.catalog.Rules.StreakBonusCapDays)
	if bonusDays > 0 {
		per := s.catalog.Actions[progression.ActionStreakBonus]
		reward.XP += per.XP * int64(bonusDays)
		reward.Coins += per.Coins * int64(bonusDays)
	}
	return reward
}

// nextStreak returns the streak after a first login on today.
func nextStreak(u domain.User, today time.Time) int {
	if u.StreakLastDay.IsZero() {
		return 1
	}
	if today.Sub(dayStart(u.StreakLastDay)) == 24*time.Hour {
		return u.StreakCurrent + 1
	}
	return 1
}
