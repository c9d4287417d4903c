// Package engagement runs the hackgrid progression rules against persisted
// player state: reward grants, login streaks, solves, mission sets,
// achievement unlocks and notifications.
//
// Every read-modify-write happens inside one store transaction, so a
// reward is applied at most once even when requests race.
package engagement

import (
	"fmt"
	"time"

	"github.com/hackgrid/hackgrid/internal/app/progression"
	"github.com/hackgrid/hackgrid/internal/domain"
	"github.com/hackgrid/hackgrid/internal/infra/metrics"
	"github.com/hackgrid/hackgrid/internal/infra/store"
)

// Options tunes the engine.
type Options struct {
	Generation    progression.GenerationPolicy
	Notifications domain.NotificationPolicy
	// Rand returns the source for one mission roll. Nil seeds from the clock.
	Rand func() progression.Rand
}

// DefaultOptions returns the stock generation and notification policies.
func DefaultOptions() Options {
	return Options{
		Generation:    progression.DefaultGenerationPolicy(),
		Notifications: domain.DefaultNotificationPolicy(),
	}
}

// Engine wires all engagement services over one store and catalog.
type Engine struct {
	Catalog       *progression.Catalog
	Rewards       *RewardService
	Streaks       *StreakService
	Solves        *SolveService
	Missions      *MissionService
	Achievements  *AchievementService
	Notifications *NotificationService
	Levels        *LevelService
}

// NewEngine creates the engagement services.
func NewEngine(db *store.DB, catalog *progression.Catalog, opts Options) *Engine {
	notify := NewNotificationService(db, opts.Notifications)
	rewards := NewRewardService(db, catalog, notify)
	return &Engine{
		Catalog:       catalog,
		Rewards:       rewards,
		Streaks:       NewStreakService(db, catalog, rewards),
		Solves:        NewSolveService(db, catalog, rewards),
		Missions:      NewMissionService(db, catalog, rewards, notify, opts.Generation, opts.Rand),
		Achievements:  NewAchievementService(db, catalog, rewards, notify),
		Notifications: notify,
		Levels:        NewLevelService(db),
	}
}

// ─── Helpers ────────────────────────────────────────────────────────────────

// dayStart returns 00:00 UTC of t's day. Streaks and daily missions use UTC days.
func dayStart(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// weekStart returns 00:00 UTC of the Monday of t's week.
func weekStart(t time.Time) time.Time {
	day := dayStart(t)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// liveStreak is the streak as of now: a streak whose last login is older
// than yesterday is already broken.
func liveStreak(u domain.User, now time.Time) int {
	if u.StreakLastDay.IsZero() {
		return 0
	}
	if dayStart(now).Sub(dayStart(u.StreakLastDay)) > 24*time.Hour {
		return 0
	}
	return u.StreakCurrent
}

func validUserID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: empty user id", domain.ErrInvalidInput)
	}
	if len(id) > 128 {
		return fmt.Errorf("%w: user id longer than 128 bytes", domain.ErrInvalidInput)
	}
	return nil
}

// recordGrant publishes grant metrics. Call after the transaction commits.
func recordGrant(source domain.RewardSource, r domain.GrantResult) {
	metrics.XPGranted.WithLabelValues(string(source)).Add(float64(r.XPGained))
	metrics.CoinsGranted.WithLabelValues(string(source)).Add(float64(r.CoinsGained))
	if r.LevelUpBonus > 0 {
		metrics.CoinsGranted.WithLabelValues(string(domain.SourceLevelUp)).Add(float64(r.LevelUpBonus))
	}
	if r.LeveledUp {
		metrics.LevelUps.Add(float64(r.NewLevel - r.OldLevel))
	}
}

// formatRemaining renders a countdown like "5h 12m" or "2d 3h".
func formatRemaining(d time.Duration) string {
	if d <= 0 {
		return "expired"
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h >= 24 {
		return fmt.Sprintf("%dd %dh", h/24, h%24)
	}
	return fmt.Sprintf("%dh %dm", h, m)
}
