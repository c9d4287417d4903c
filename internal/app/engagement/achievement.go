package engagement

import (
	"context"
	"time"

	"github.com/hackgrid/hackgrid/internal/app/progression"
	"github.com/hackgrid/hackgrid/internal/domain"
	"github.com/hackgrid/hackgrid/internal/infra/metrics"
	"github.com/hackgrid/hackgrid/internal/infra/store"
)

// AchievementService unlocks catalog achievements against a lifetime
// snapshot. An unlock row is inserted at most once, and only the inserting
// caller pays the reward.
type AchievementService struct {
	db        *store.DB
	catalog   *progression.Catalog
	evaluator *progression.AchievementEvaluator
	rewards   *RewardService
	notify    *NotificationService
}

// NewAchievementService creates an achievement service over the catalog.
func NewAchievementService(db *store.DB, catalog *progression.Catalog, rewards *RewardService, notify *NotificationService) *AchievementService {
	return &AchievementService{
		db:        db,
		catalog:   catalog,
		evaluator: progression.NewAchievementEvaluator(catalog),
		rewards:   rewards,
		notify:    notify,
	}
}

// Check evaluates every locked achievement and unlocks the satisfied ones.
// One pass: XP granted by an unlock is seen by the next Check.
func (a *AchievementService) Check(ctx context.Context, userID string, now time.Time) ([]domain.AchievementDef, error) {
	if err := validUserID(userID); err != nil {
		return nil, err
	}

	type paid struct {
		def   domain.AchievementDef
		grant domain.GrantResult
	}
	var unlockedNow []paid

	err := a.db.WithTx(ctx, func(tx *store.Tx) error {
		unlockedNow = nil
		u, err := tx.EnsureUser(ctx, userID, now)
		if err != nil {
			return err
		}
		progress, err := a.lifetime(ctx, tx.Queries, u, now)
		if err != nil {
			return err
		}
		unlocked, err := tx.UnlockedSet(ctx, userID)
		if err != nil {
			return err
		}

		for _, def := range a.evaluator.Check(progress, unlocked) {
			isNew, err := tx.UnlockAchievement(ctx, userID, def.ID, now)
			if err != nil {
				return err
			}
			if !isNew {
				continue
			}
			grant, err := a.rewards.apply(ctx, tx.Queries, userID, domain.RewardGrant{
				Source: domain.SourceAchievement,
				Ref:    def.ID,
				Reward: domain.Reward{XP: def.XPReward, Coins: def.CoinReward},
			}, now)
			if err != nil {
				return err
			}
			if _, err := a.notify.enqueue(ctx, tx.Queries, domain.Notification{
				UserID:    userID,
				Type:      domain.NotifyAchievement,
				Title:     "Achievement unlocked: " + def.Name,
				Body:      def.Description,
				CreatedAt: now,
			}); err != nil {
				return err
			}
			unlockedNow = append(unlockedNow, paid{def: def, grant: grant})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	defs := make([]domain.AchievementDef, 0, len(unlockedNow))
	for _, p := range unlockedNow {
		metrics.AchievementsUnlocked.WithLabelValues(p.def.ID).Inc()
		recordGrant(domain.SourceAchievement, p.grant)
		defs = append(defs, p.def)
	}
	return defs, nil
}

// Overview returns the user's unlocked achievements and the locked,
// non-secret ones with progress.
func (a *AchievementService) Overview(ctx context.Context, userID string, now time.Time) (domain.AchievementOverview, error) {
	u, err := a.db.GetUser(ctx, userID)
	if err != nil {
		return domain.AchievementOverview{}, err
	}
	progress, err := a.lifetime(ctx, a.db.Queries, u, now)
	if err != nil {
		return domain.AchievementOverview{}, err
	}
	list, err := a.db.UnlockedAchievements(ctx, userID)
	if err != nil {
		return domain.AchievementOverview{}, err
	}

	ov := domain.AchievementOverview{
		Unlocked: make([]domain.UnlockedAchievementView, 0, len(list)),
		Total:    len(a.evaluator.Definitions()),
	}
	unlocked := make(map[string]bool, len(list))
	for _, ua := range list {
		unlocked[ua.ID] = true
		def, ok := a.evaluator.Lookup(ua.ID)
		if !ok {
			continue // removed from the catalog
		}
		ov.Unlocked = append(ov.Unlocked, domain.UnlockedAchievementView{Achievement: def, UnlockedAt: ua.UnlockedAt})
	}
	ov.Available = a.evaluator.Available(progress, unlocked)
	if ov.Available == nil {
		ov.Available = []domain.AchievementStatus{}
	}
	return ov, nil
}

// Catalog lists the non-secret achievement definitions.
func (a *AchievementService) Catalog() []domain.AchievementDef {
	var out []domain.AchievementDef
	for _, def := range a.evaluator.Definitions() {
		if !def.Secret {
			out = append(out, def)
		}
	}
	return out
}

// lifetime builds the achievement snapshot for u.
func (a *AchievementService) lifetime(ctx context.Context, q *store.Queries, u domain.User, now time.Time) (domain.LifetimeProgress, error) {
	p, err := q.LifetimeProgress(ctx, u.ID, a.catalog.Rules.AchievementSpeedSeconds)
	if err != nil {
		return domain.LifetimeProgress{}, err
	}
	p.TotalXP = u.XP
	p.CurrentLevel = progression.LevelFromXP(u.XP)
	p.CurrentStreak = liveStreak(u, now)
	return p, nil
}
