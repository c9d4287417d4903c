package progression

import (
	"slices"

	"github.com/hackgrid/hackgrid/internal/domain"
)

// AchievementEvaluator checks achievement conditions against a lifetime
// snapshot. The catalog is fixed at construction.
type AchievementEvaluator struct {
	definitions []domain.AchievementDef
}

// NewAchievementEvaluator creates an evaluator over the catalog achievements.
func NewAchievementEvaluator(c *Catalog) *AchievementEvaluator {
	defs := make([]domain.AchievementDef, len(c.Achievements))
	copy(defs, c.Achievements)
	return &AchievementEvaluator{definitions: defs}
}

// Definitions returns a copy of the achievement catalog (for display).
func (e *AchievementEvaluator) Definitions() []domain.AchievementDef {
	return slices.Clone(e.definitions)
}

// Lookup returns the definition with the given id.
func (e *AchievementEvaluator) Lookup(id string) (domain.AchievementDef, bool) {
	for _, d := range e.definitions {
		if d.ID == id {
			return d, true
		}
	}
	return domain.AchievementDef{}, false
}

// Check returns the achievements whose condition holds and whose id is not
// in unlocked. Pure: the caller unlocks and rewards each result once.
func (e *AchievementEvaluator) Check(p domain.LifetimeProgress, unlocked map[string]bool) []domain.AchievementDef {
	var out []domain.AchievementDef
	for _, def := range e.definitions {
		if unlocked[def.ID] {
			continue
		}
		if Satisfied(def.Condition, p) {
			out = append(out, def)
		}
	}
	return out
}

// Progress returns display progress (0-100) toward def.
func (e *AchievementEvaluator) Progress(def domain.AchievementDef, p domain.LifetimeProgress) float64 {
	return ConditionProgress(def.Condition, p)
}

// Available lists locked, non-secret achievements with their progress.
func (e *AchievementEvaluator) Available(p domain.LifetimeProgress, unlocked map[string]bool) []domain.AchievementStatus {
	var out []domain.AchievementStatus
	for _, def := range e.definitions {
		if unlocked[def.ID] || def.Secret {
			continue
		}
		out = append(out, domain.AchievementStatus{
			Achievement: def,
			ProgressPct: e.Progress(def, p),
		})
	}
	return out
}

// Satisfied reports whether c holds for p. Unknown condition types never hold.
func Satisfied(c domain.Condition, p domain.LifetimeProgress) bool {
	switch c.Type {
	case domain.CondPuzzleCount:
		return int64(puzzleCount(c, p)) >= c.Target
	case domain.CondXPTotal:
		return p.TotalXP >= c.Target
	case domain.CondLevelReached:
		return int64(p.CurrentLevel) >= c.Target
	case domain.CondStreakDays:
		return int64(p.CurrentStreak) >= c.Target
	case domain.CondSpecificPuzzle:
		return slices.Contains(p.SpecificPuzzles, c.Puzzle)
	case domain.CondSpeedSolve:
		// The time limit is applied when the solve is classified as a speed
		// solve; any recorded speed solve satisfies the condition.
		return p.SpeedSolves >= 1
	case domain.CondPerfectSolve:
		return int64(p.PerfectSolves) >= c.Target
	case domain.CondSocialAction:
		return int64(p.SocialActions) >= c.Target
	}
	return false
}

// ConditionProgress returns display progress (0-100) toward c.
// Kinds without a numeric mapping report 0.
func ConditionProgress(c domain.Condition, p domain.LifetimeProgress) float64 {
	var current int64
	switch c.Type {
	case domain.CondPuzzleCount:
		current = int64(puzzleCount(c, p))
	case domain.CondXPTotal:
		current = p.TotalXP
	case domain.CondLevelReached:
		current = int64(p.CurrentLevel)
	case domain.CondStreakDays:
		current = int64(p.CurrentStreak)
	case domain.CondPerfectSolve:
		current = int64(p.PerfectSolves)
	default:
		return 0
	}
	if c.Target <= 0 {
		return 100.0
	}
	return clampPct(float64(current) / float64(c.Target) * 100.0)
}

// puzzleCount selects the counter for a puzzle_count condition.
// Category takes precedence over difficulty.
func puzzleCount(c domain.Condition, p domain.LifetimeProgress) int {
	switch {
	case c.Category != "":
		return p.ByCategory[c.Category]
	case c.Difficulty != "":
		return p.ByDifficulty[c.Difficulty]
	}
	return p.PuzzlesSolved
}
