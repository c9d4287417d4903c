// Package domain holds the hackgrid progression types.
// The progression engine turns player activity into XP, levels, mission
// progress and achievement unlocks.
package domain

import "time"

// ─── Level / XP Types ───────────────────────────────────────────────────────

// LevelInfo describes where an XP total sits on the level curve.
type LevelInfo struct {
	Level             int     `json:"level"`
	CurrentXP         int64   `json:"current_xp"`
	XPForCurrentLevel int64   `json:"xp_for_current_level"`
	XPForNextLevel    int64   `json:"xp_for_next_level"`
	XPNeededForNext   int64   `json:"xp_needed_for_next"`
	ProgressPct       float64 `json:"progress_percentage"`
}

// XPGain is the result of applying an XP delta.
type XPGain struct {
	NewXP     int64 `json:"new_xp"`
	NewLevel  int   `json:"new_level"`
	LeveledUp bool  `json:"leveled_up"`
	XPGained  int64 `json:"xp_gained"`
}

// ─── Mission Types ──────────────────────────────────────────────────────────

// MissionType selects which activity counter drives a mission.
type MissionType string

const (
	MissionSolvePuzzles   MissionType = "SOLVE_PUZZLES"
	MissionDailyLogin     MissionType = "DAILY_LOGIN"
	MissionXPGain         MissionType = "XP_GAIN"
	MissionSocial         MissionType = "SOCIAL_INTERACTION"
	MissionStreakMaintain MissionType = "STREAK_MAINTAIN"
)

// Valid reports whether t is one of the known mission types.
func (t MissionType) Valid() bool {
	switch t {
	case MissionSolvePuzzles, MissionDailyLogin, MissionXPGain, MissionSocial, MissionStreakMaintain:
		return true
	}
	return false
}

// MissionPeriod is the cadence a mission is rolled at.
type MissionPeriod string

const (
	PeriodDaily   MissionPeriod = "DAILY"
	PeriodWeekly  MissionPeriod = "WEEKLY"
	PeriodSpecial MissionPeriod = "SPECIAL"
)

// Valid reports whether p is a known period.
func (p MissionPeriod) Valid() bool {
	switch p {
	case PeriodDaily, PeriodWeekly, PeriodSpecial:
		return true
	}
	return false
}

// ScopeKind narrows a SOLVE_PUZZLES mission to a subset of solves.
type ScopeKind string

const (
	ScopeNone       ScopeKind = "none"
	ScopeCategory   ScopeKind = "category"
	ScopeDifficulty ScopeKind = "difficulty"
	ScopePerfect    ScopeKind = "perfect"
	ScopeSpeed      ScopeKind = "speed"
)

// Valid reports whether k is a known scope. The empty string means none.
func (k ScopeKind) Valid() bool {
	switch k {
	case "", ScopeNone, ScopeCategory, ScopeDifficulty, ScopePerfect, ScopeSpeed:
		return true
	}
	return false
}

// MissionDef is a static mission template from the catalog.
type MissionDef struct {
	ID            string        `json:"id" toml:"id"`
	Title         string        `json:"title" toml:"title"`
	Description   string        `json:"description" toml:"description"`
	Icon          string        `json:"icon" toml:"icon"`
	Type          MissionType   `json:"type" toml:"type"`
	Target        int           `json:"target" toml:"target"`
	XPReward      int64         `json:"xp_reward" toml:"xp_reward"`
	CoinReward    int64         `json:"coin_reward" toml:"coin_reward"`
	Period        MissionPeriod `json:"period" toml:"period"`
	DurationHours int           `json:"duration_hours" toml:"duration_hours"`
	Scope         ScopeKind     `json:"scope,omitempty" toml:"scope"`
	ScopeValue    string        `json:"scope_value,omitempty" toml:"scope_value"`
}

// Duration returns the validity window of one mission instance.
func (m MissionDef) Duration() time.Duration {
	return time.Duration(m.DurationHours) * time.Hour
}

// MissionProgress is the evaluator output for one mission.
type MissionProgress struct {
	Progress  int  `json:"progress"`
	Completed bool `json:"completed"`
}

// MissionInstance is a mission rolled for a user inside one window.
type MissionInstance struct {
	ID        string        `json:"id"`
	UserID    string        `json:"user_id"`
	MissionID string        `json:"mission_id"`
	Period    MissionPeriod `json:"period"`
	StartedAt time.Time     `json:"started_at"`
	ExpiresAt time.Time     `json:"expires_at"`
	Claimed   bool          `json:"claimed"`
	ClaimedAt time.Time     `json:"claimed_at,omitempty"`
}

// IsExpired reports whether the instance window has closed at now.
func (m MissionInstance) IsExpired(now time.Time) bool {
	return !now.Before(m.ExpiresAt)
}

// MissionStatus is a mission instance joined with its definition and progress.
type MissionStatus struct {
	Instance      MissionInstance `json:"instance"`
	Mission       MissionDef      `json:"mission"`
	Progress      int             `json:"progress"`
	Completed     bool            `json:"completed"`
	ProgressPct   float64         `json:"progress_percentage"`
	TimeRemaining string          `json:"time_remaining"`
}

// WindowActivity is the activity snapshot a mission is evaluated against.
// Counters cover the mission instance window only; CurrentStreak is the
// live streak value.
type WindowActivity struct {
	PuzzlesSolved int            `json:"puzzles_solved"`
	ByCategory    map[string]int `json:"by_category"`
	ByDifficulty  map[string]int `json:"by_difficulty"`
	PerfectSolves int            `json:"perfect_solves"`
	SpeedSolves   int            `json:"speed_solves"`
	XPEarned      int64          `json:"xp_earned"`
	LoggedIn      bool           `json:"logged_in"`
	CurrentStreak int            `json:"current_streak"`
	SocialActions int            `json:"social_actions"`
}

// ─── Achievement Types ──────────────────────────────────────────────────────

// AchievementCategory groups achievements by theme.
type AchievementCategory string

const (
	CatPuzzleSolving AchievementCategory = "PUZZLE_SOLVING"
	CatSocial        AchievementCategory = "SOCIAL"
	CatProgression   AchievementCategory = "PROGRESSION"
	CatSpecial       AchievementCategory = "SPECIAL"
)

// ConditionType selects the predicate an achievement is checked with.
type ConditionType string

const (
	CondPuzzleCount    ConditionType = "puzzle_count"
	CondXPTotal        ConditionType = "xp_total"
	CondLevelReached   ConditionType = "level_reached"
	CondStreakDays     ConditionType = "streak_days"
	CondSpecificPuzzle ConditionType = "specific_puzzle"
	CondSpeedSolve     ConditionType = "speed_solve"
	CondPerfectSolve   ConditionType = "perfect_solve"
	CondSocialAction   ConditionType = "social_action"
)

// Known reports whether the evaluator has a rule for c.
func (c ConditionType) Known() bool {
	switch c {
	case CondPuzzleCount, CondXPTotal, CondLevelReached, CondStreakDays,
		CondSpecificPuzzle, CondSpeedSolve, CondPerfectSolve, CondSocialAction:
		return true
	}
	return false
}

// Condition is the typed predicate of an achievement.
type Condition struct {
	Type             ConditionType `json:"type" toml:"type"`
	Target           int64         `json:"target,omitempty" toml:"target"`
	Puzzle           string        `json:"puzzle,omitempty" toml:"puzzle"` // specific_puzzle slug
	Category         string        `json:"category,omitempty" toml:"category"`
	Difficulty       string        `json:"difficulty,omitempty" toml:"difficulty"`
	TimeLimitSeconds int           `json:"time_limit_seconds,omitempty" toml:"time_limit_seconds"`
}

// AchievementDef defines a single achievement.
type AchievementDef struct {
	ID          string              `json:"id" toml:"id"`
	Name        string              `json:"name" toml:"name"`
	Description string              `json:"description" toml:"description"`
	Icon        string              `json:"icon" toml:"icon"`
	Category    AchievementCategory `json:"category" toml:"category"`
	Condition   Condition           `json:"condition" toml:"condition"`
	XPReward    int64               `json:"xp_reward" toml:"xp_reward"`
	CoinReward  int64               `json:"coin_reward" toml:"coin_reward"`
	Secret      bool                `json:"secret,omitempty" toml:"secret"`
}

// UnlockedAchievement records when a user earned an achievement.
type UnlockedAchievement struct {
	ID         string    `json:"id"`
	UnlockedAt time.Time `json:"unlocked_at"`
}

// AchievementStatus pairs a locked achievement with display progress.
type AchievementStatus struct {
	Achievement AchievementDef `json:"achievement"`
	ProgressPct float64        `json:"progress_percentage"`
}

// UnlockedAchievementView is an unlocked achievement with its definition.
type UnlockedAchievementView struct {
	Achievement AchievementDef `json:"achievement"`
	UnlockedAt  time.Time      `json:"unlocked_at"`
}

// AchievementOverview is the achievements page of one user.
type AchievementOverview struct {
	Unlocked  []UnlockedAchievementView `json:"unlocked"`
	Available []AchievementStatus       `json:"available"`
	Total     int                       `json:"total"`
}

// LifetimeProgress is the all-time snapshot fed to achievement conditions.
type LifetimeProgress struct {
	PuzzlesSolved   int            `json:"puzzles_solved"`
	ByCategory      map[string]int `json:"by_category"`
	ByDifficulty    map[string]int `json:"by_difficulty"`
	PerfectSolves   int            `json:"perfect_solves"`
	SpeedSolves     int            `json:"speed_solves"`
	CurrentStreak   int            `json:"current_streak"`
	TotalXP         int64          `json:"total_xp"`
	CurrentLevel    int            `json:"current_level"`
	SocialActions   int            `json:"social_actions"`
	SpecificPuzzles []string       `json:"specific_puzzles"`
}

// ─── Reward Types ───────────────────────────────────────────────────────────

// RewardSource categorizes how XP and coins were earned.
type RewardSource string

const (
	SourceAction      RewardSource = "ACTION"
	SourceLogin       RewardSource = "LOGIN"
	SourceSolve       RewardSource = "PUZZLE_SOLVE"
	SourceMission     RewardSource = "MISSION"
	SourceAchievement RewardSource = "ACHIEVEMENT"
	SourceLevelUp     RewardSource = "LEVEL_UP"
)

// Reward is an XP and coin amount.
type Reward struct {
	XP    int64 `json:"xp" toml:"xp"`
	Coins int64 `json:"coins" toml:"coins"`
}

// RewardGrant is one reward to be applied to a user.
type RewardGrant struct {
	Source RewardSource
	Ref    string // mission instance, achievement id, puzzle slug, action name
	Reward Reward
}

// GrantResult reports the effect of applying a RewardGrant.
type GrantResult struct {
	XPGained     int64 `json:"xp_gained"`
	CoinsGained  int64 `json:"coins_gained"`
	LevelUpBonus int64 `json:"level_up_bonus"`
	OldLevel     int   `json:"old_level"`
	NewLevel     int   `json:"new_level"`
	LeveledUp    bool  `json:"leveled_up"`
	TotalXP      int64 `json:"total_xp"`
	TotalCoins   int64 `json:"total_coins"`
}

// LedgerEntry is one persisted reward grant.
type LedgerEntry struct {
	ID        string       `json:"id"`
	UserID    string       `json:"user_id"`
	Source    RewardSource `json:"source"`
	Ref       string       `json:"ref"`
	XP        int64        `json:"xp"`
	Coins     int64        `json:"coins"`
	CreatedAt time.Time    `json:"created_at"`
}

// ─── Player Types ───────────────────────────────────────────────────────────

// User is the persisted progression state of one player.
type User struct {
	ID            string    `json:"id"`
	XP            int64     `json:"xp"`
	Level         int       `json:"level"`
	Coins         int64     `json:"coins"`
	StreakCurrent int       `json:"streak_current"`
	StreakLongest int       `json:"streak_longest"`
	StreakLastDay time.Time `json:"streak_last_day"`
	LastActive    time.Time `json:"last_active"`
	CreatedAt     time.Time `json:"created_at"`
}

// Profile is the level view of a user.
type Profile struct {
	User  User      `json:"user"`
	Level LevelInfo `json:"level"`
	Title string    `json:"title"`
}

// LeaderboardEntry is one row of the XP leaderboard.
type LeaderboardEntry struct {
	Rank   int    `json:"rank"`
	UserID string `json:"user_id"`
	XP     int64  `json:"xp"`
	Level  int    `json:"level"`
	Title  string `json:"title"`
}

// PuzzleSolve is a verified solve event from the puzzle service.
type PuzzleSolve struct {
	UserID       string    `json:"user_id"`
	Puzzle       string    `json:"puzzle"` // slug
	Category     string    `json:"category"`
	Difficulty   string    `json:"difficulty"`
	HintsUsed    int       `json:"hints_used"`
	TimeSpent    int       `json:"time_spent"` // seconds
	XPAwarded    int64     `json:"xp_awarded"`
	CoinsAwarded int64     `json:"coins_awarded"`
	SolvedAt     time.Time `json:"solved_at"`
}

// SolveResult reports the rewards of a recorded solve.
type SolveResult struct {
	Grant   GrantResult `json:"grant"`
	Perfect bool        `json:"perfect_solve"`
	Speed   bool        `json:"speed_bonus"`
}

// LoginResult reports the streak state after a login.
type LoginResult struct {
	FirstToday bool         `json:"first_today"`
	Streak     int          `json:"streak"`
	Longest    int          `json:"longest"`
	Grant      *GrantResult `json:"grant,omitempty"`
}

// ─── Notification Types ─────────────────────────────────────────────────────

// NotificationType categorizes notifications.
type NotificationType string

const (
	NotifyAchievement    NotificationType = "achievement"
	NotifyLevelUp        NotificationType = "level_up"
	NotifyMissionClaimed NotificationType = "mission_claimed"
)

// Notification is a toast message queued for a user.
type Notification struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Body      string           `json:"body"`
	CreatedAt time.Time        `json:"created_at"`
	Shown     bool             `json:"shown"`
}

// NotificationPolicy governs how many notifications a user can receive.
type NotificationPolicy struct {
	MaxPerDay int `json:"max_per_day"`
}

// DefaultNotificationPolicy returns the default cap.
func DefaultNotificationPolicy() NotificationPolicy {
	return NotificationPolicy{MaxPerDay: 20}
}
