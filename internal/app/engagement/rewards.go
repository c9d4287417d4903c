package engagement

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hackgrid/hackgrid/internal/app/progression"
	"github.com/hackgrid/hackgrid/internal/domain"
	"github.com/hackgrid/hackgrid/internal/infra/store"
)

// RewardService applies XP and coin grants. A grant moves the balance,
// recomputes the level, pays the level-up bonus and appends to the ledger,
// all in the caller's transaction. The ledger always sums to the balance.
type RewardService struct {
	db      *store.DB
	catalog *progression.Catalog
	notify  *NotificationService
}

// NewRewardService creates a reward service.
func NewRewardService(db *store.DB, catalog *progression.Catalog, notify *NotificationService) *RewardService {
	return &RewardService{db: db, catalog: catalog, notify: notify}
}

// Grant applies one reward, creating the user on first touch.
func (r *RewardService) Grant(ctx context.Context, userID string, g domain.RewardGrant, now time.Time) (domain.GrantResult, error) {
	var res domain.GrantResult
	err := r.db.WithTx(ctx, func(tx *store.Tx) error {
		var err error
		res, err = r.apply(ctx, tx.Queries, userID, g, now)
		return err
	})
	if err != nil {
		return domain.GrantResult{}, err
	}
	recordGrant(g.Source, res)
	return res, nil
}

// GrantAction grants the catalog reward of a named action scaled by
// multiplier, which must lie in (0, max_multiplier].
func (r *RewardService) GrantAction(ctx context.Context, userID, action string, multiplier float64, now time.Time) (domain.GrantResult, error) {
	reward, err := r.catalog.ActionReward(action, multiplier)
	if err != nil {
		return domain.GrantResult{}, err
	}
	return r.Grant(ctx, userID, domain.RewardGrant{
		Source: domain.SourceAction,
		Ref:    action,
		Reward: reward,
	}, now)
}

// Ledger returns the user's latest ledger entries.
func (r *RewardService) Ledger(ctx context.Context, userID string, limit int) ([]domain.LedgerEntry, error) {
	if err := validUserID(userID); err != nil {
		return nil, err
	}
	return r.db.Ledger(ctx, userID, limit)
}

// apply runs inside an open transaction.
func (r *RewardService) apply(ctx context.Context, q *store.Queries, userID string, g domain.RewardGrant, now time.Time) (domain.GrantResult, error) {
	if err := validUserID(userID); err != nil {
		return domain.GrantResult{}, err
	}
	if g.Reward.XP < 0 || g.Reward.Coins < 0 {
		return domain.GrantResult{}, fmt.Errorf("%w: negative reward %+v", domain.ErrInvalidInput, g.Reward)
	}
	if _, err := q.EnsureUser(ctx, userID, now); err != nil {
		return domain.GrantResult{}, err
	}

	totalXP, totalCoins, err := q.AddBalance(ctx, userID, g.Reward.XP, g.Reward.Coins, now)
	if err != nil {
		return domain.GrantResult{}, err
	}
	if err := q.InsertLedger(ctx, ledgerEntry(userID, g.Source, g.Ref, g.Reward, now)); err != nil {
		return domain.GrantResult{}, err
	}

	oldXP := totalXP - g.Reward.XP
	gain := progression.ApplyXPGain(oldXP, g.Reward.XP)
	res := domain.GrantResult{
		XPGained:    g.Reward.XP,
		CoinsGained: g.Reward.Coins,
		OldLevel:    progression.LevelFromXP(oldXP),
		NewLevel:    gain.NewLevel,
		LeveledUp:   gain.LeveledUp,
		TotalXP:     totalXP,
		TotalCoins:  totalCoins,
	}

	if gain.LeveledUp {
		bonus := progression.LevelUpBonus(res.OldLevel, res.NewLevel, r.catalog.Rules.LevelUpCoins)
		if bonus > 0 {
			_, totalCoins, err = q.AddBalance(ctx, userID, 0, bonus, now)
			if err != nil {
				return domain.GrantResult{}, err
			}
			ref := fmt.Sprintf("level_%d", res.NewLevel)
			if err := q.InsertLedger(ctx, ledgerEntry(userID, domain.SourceLevelUp, ref, domain.Reward{Coins: bonus}, now)); err != nil {
				return domain.GrantResult{}, err
			}
			res.LevelUpBonus = bonus
			res.TotalCoins = totalCoins
		}
		if _, err := r.notify.enqueue(ctx, q, domain.Notification{
			UserID:    userID,
			Type:      domain.NotifyLevelUp,
			Title:     "Level up!",
			Body:      fmt.Sprintf("You reached level %d: %s", res.NewLevel, progression.TitleForLevel(res.NewLevel)),
			CreatedAt: now,
		}); err != nil {
			return domain.GrantResult{}, err
		}
	}

	// Level is always derived from XP and written with it.
	if err := q.SetLevel(ctx, userID, res.NewLevel); err != nil {
		return domain.GrantResult{}, fmt.Errorf("set level: %w", err)
	}
	return res, nil
}

func ledgerEntry(userID string, source domain.RewardSource, ref string, r domain.Reward, now time.Time) domain.LedgerEntry {
	return domain.LedgerEntry{
		ID:        uuid.NewString(),
		UserID:    userID,
		Source:    source,
		Ref:       ref,
		XP:        r.XP,
		Coins:     r.Coins,
		CreatedAt: now,
	}
}
