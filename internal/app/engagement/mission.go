package engagement

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/hackgrid/hackgrid/internal/app/progression"
	"github.com/hackgrid/hackgrid/internal/domain"
	"github.com/hackgrid/hackgrid/internal/infra/metrics"
	"github.com/hackgrid/hackgrid/internal/infra/store"
)

// MissionService rolls daily and weekly mission sets and pays claims.
// A daily set covers one UTC day, a weekly set one ISO week from Monday.
// Each window is rolled exactly once per user.
type MissionService struct {
	db        *store.DB
	catalog   *progression.Catalog
	generator *progression.Generator
	rewards   *RewardService
	notify    *NotificationService
	newRand   func() progression.Rand
}

// NewMissionService creates a mission service. newRand may be nil.
func NewMissionService(db *store.DB, catalog *progression.Catalog, rewards *RewardService,
	notify *NotificationService, policy progression.GenerationPolicy, newRand func() progression.Rand) *MissionService {
	if newRand == nil {
		newRand = func() progression.Rand { return progression.NewRand(time.Now().UnixNano()) }
	}
	return &MissionService{
		db:        db,
		catalog:   catalog,
		generator: progression.NewGenerator(catalog, policy),
		rewards:   rewards,
		notify:    notify,
		newRand:   newRand,
	}
}

// Active returns the user's live missions with progress, rolling the daily
// and weekly sets first when their windows have closed.
func (m *MissionService) Active(ctx context.Context, userID string, now time.Time) ([]domain.MissionStatus, error) {
	if err := validUserID(userID); err != nil {
		return nil, err
	}
	for _, period := range []domain.MissionPeriod{domain.PeriodDaily, domain.PeriodWeekly} {
		if err := m.ensureWindow(ctx, userID, period, now); err != nil {
			return nil, err
		}
	}

	instances, err := m.db.ActiveMissions(ctx, userID, now)
	if err != nil {
		return nil, fmt.Errorf("list missions: %w", err)
	}
	u, err := m.db.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	type window struct{ from, to int64 }
	snapshots := make(map[window]domain.WindowActivity)

	out := make([]domain.MissionStatus, 0, len(instances))
	for _, inst := range instances {
		def, ok := m.catalog.Mission(inst.MissionID)
		if !ok {
			log.Printf("[missions] instance %s references unknown mission %q, skipping", inst.ID, inst.MissionID)
			continue
		}

		key := window{inst.StartedAt.UnixMilli(), inst.ExpiresAt.UnixMilli()}
		activity, ok := snapshots[key]
		if !ok {
			activity, err = m.windowActivity(ctx, m.db.Queries, u, inst.StartedAt, inst.ExpiresAt, now)
			if err != nil {
				return nil, err
			}
			snapshots[key] = activity
		}

		progress, err := progression.EvaluateMission(def, activity)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.MissionStatus{
			Instance:      inst,
			Mission:       def,
			Progress:      progress.Progress,
			Completed:     progress.Completed,
			ProgressPct:   progression.ProgressPercentage(progress.Progress, def.Target),
			TimeRemaining: formatRemaining(inst.ExpiresAt.Sub(now)),
		})
	}
	return out, nil
}

// Claim pays a completed mission once. Foreign ids report
// ErrMissionNotFound; expired, claimed and incomplete missions are refused.
func (m *MissionService) Claim(ctx context.Context, userID, instanceID string, now time.Time) (domain.GrantResult, error) {
	if err := validUserID(userID); err != nil {
		return domain.GrantResult{}, err
	}

	var res domain.GrantResult
	var missionID string
	err := m.db.WithTx(ctx, func(tx *store.Tx) error {
		inst, err := tx.GetMission(ctx, userID, instanceID)
		if err != nil {
			return err
		}
		if inst.Claimed {
			return fmt.Errorf("%w: %s", domain.ErrMissionAlreadyClaimed, instanceID)
		}
		if inst.IsExpired(now) {
			return fmt.Errorf("%w: %s", domain.ErrMissionExpired, instanceID)
		}
		def, ok := m.catalog.Mission(inst.MissionID)
		if !ok {
			return fmt.Errorf("%w: %s is no longer in the catalog", domain.ErrMissionNotFound, inst.MissionID)
		}

		u, err := tx.GetUser(ctx, userID)
		if err != nil {
			return err
		}
		activity, err := m.windowActivity(ctx, tx.Queries, u, inst.StartedAt, inst.ExpiresAt, now)
		if err != nil {
			return err
		}
		progress, err := progression.EvaluateMission(def, activity)
		if err != nil {
			return err
		}
		if !progress.Completed {
			return fmt.Errorf("%w: %s at %d/%d", domain.ErrMissionNotCompleted, def.ID, progress.Progress, def.Target)
		}

		claimed, err := tx.MarkMissionClaimed(ctx, inst.ID, now)
		if err != nil {
			return err
		}
		if !claimed {
			return fmt.Errorf("%w: %s", domain.ErrMissionAlreadyClaimed, instanceID)
		}

		res, err = m.rewards.apply(ctx, tx.Queries, userID, domain.RewardGrant{
			Source: domain.SourceMission,
			Ref:    inst.ID,
			Reward: domain.Reward{XP: def.XPReward, Coins: def.CoinReward},
		}, now)
		if err != nil {
			return err
		}
		missionID = def.ID

		_, err = m.notify.enqueue(ctx, tx.Queries, domain.Notification{
			UserID:    userID,
			Type:      domain.NotifyMissionClaimed,
			Title:     "Mission complete",
			Body:      fmt.Sprintf("%s: +%d XP, +%d coins", def.Title, def.XPReward, def.CoinReward),
			CreatedAt: now,
		})
		return err
	})
	if err != nil {
		return domain.GrantResult{}, err
	}

	metrics.MissionsClaimed.WithLabelValues(missionID).Inc()
	recordGrant(domain.SourceMission, res)
	return res, nil
}

// PurgeExpired deletes mission instances that expired before the cutoff.
func (m *MissionService) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	n, err := m.db.DeleteExpiredMissions(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("purge expired missions: %w", err)
	}
	metrics.ExpiredMissionsPurged.Add(float64(n))
	return n, nil
}

// ensureWindow rolls a new set for (user, period) if the current window
// has closed. Concurrent callers race on the mission_sets row; one wins.
func (m *MissionService) ensureWindow(ctx context.Context, userID string, period domain.MissionPeriod, now time.Time) error {
	from, to := windowBounds(period, now)

	rolled := 0
	err := m.db.WithTx(ctx, func(tx *store.Tx) error {
		if _, err := tx.EnsureUser(ctx, userID, now); err != nil {
			return err
		}
		won, err := tx.ClaimMissionWindow(ctx, userID, period, from, to, now)
		if err != nil || !won {
			return err
		}

		var defs []domain.MissionDef
		if period == domain.PeriodDaily {
			defs = m.generator.Daily(m.newRand())
		} else {
			defs = m.generator.Weekly()
		}
		for _, def := range defs {
			inst := domain.MissionInstance{
				ID:        uuid.NewString(),
				UserID:    userID,
				MissionID: def.ID,
				Period:    period,
				StartedAt: from,
				ExpiresAt: to,
			}
			if err := tx.InsertMission(ctx, inst); err != nil {
				return err
			}
		}
		rolled = len(defs)
		return nil
	})
	if err != nil {
		return fmt.Errorf("roll %s missions: %w", period, err)
	}
	if rolled > 0 {
		metrics.MissionSetsRolled.WithLabelValues(string(period)).Inc()
	}
	return nil
}

// windowActivity builds the mission snapshot for [from, to).
func (m *MissionService) windowActivity(ctx context.Context, q *store.Queries, u domain.User, from, to, now time.Time) (domain.WindowActivity, error) {
	a, err := q.WindowActivity(ctx, u.ID, from, to, m.catalog.Rules.MissionSpeedSeconds)
	if err != nil {
		return domain.WindowActivity{}, err
	}
	a.LoggedIn = !u.StreakLastDay.IsZero() &&
		!u.StreakLastDay.Before(dayStart(from)) && u.StreakLastDay.Before(to)
	a.CurrentStreak = liveStreak(u, now)
	return a, nil
}

// windowBounds returns the UTC window containing now.
func windowBounds(period domain.MissionPeriod, now time.Time) (from, to time.Time) {
	if period == domain.PeriodWeekly {
		from = weekStart(now)
		return from, from.AddDate(0, 0, 7)
	}
	from = dayStart(now)
	return from, from.AddDate(0, 0, 1)
}
