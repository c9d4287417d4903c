// Package progression implements the hackgrid rules engine: the XP level
// curve, the mission progress evaluator and the achievement condition
// evaluator. Everything here is a pure function of its inputs and safe for
// concurrent use; persistence lives in the engagement layer.
package progression

import (
	"sort"

	"github.com/hackgrid/hackgrid/internal/domain"
)

// MaxLevel bounds the level search. XPRequiredForLevel(MaxLevel) is ~5e13,
// far from int64 overflow.
const MaxLevel = 1_000_000

// XPRequiredForLevel returns the cumulative XP needed to reach level.
// Quadratic curve: (l-1)^2*50 + (l-1)*50. Levels below 1 clamp to 1.
func XPRequiredForLevel(level int) int64 {
	if level <= 1 {
		return 0
	}
	if level > MaxLevel {
		level = MaxLevel
	}
	n := int64(level - 1)
	return n*n*50 + n*50
}

// LevelFromXP returns the highest level whose requirement is <= xp.
// Derived from XPRequiredForLevel by search so the two cannot drift.
func LevelFromXP(xp int64) int {
	if xp < 0 {
		return 1
	}

	// Grow an upper bound, then binary search inside [lo, hi).
	lo, hi := 1, 2
	for hi < MaxLevel && XPRequiredForLevel(hi) <= xp {
		lo = hi
		hi *= 2
	}
	if hi > MaxLevel {
		hi = MaxLevel
	}
	if XPRequiredForLevel(hi) <= xp {
		return hi
	}

	for hi-lo > 1 {
		mid := lo + (hi-lo)/2
		if XPRequiredForLevel(mid) <= xp {
			lo = mid
		} else {
			hi = mid
		}
	}
	return lo
}

// Info returns the level breakdown for an XP total. Levels stop at MaxLevel:
// past XPRequiredForLevel(MaxLevel) the next-level requirement equals the
// current one, XPNeededForNext is 0 and progress reads 0.
func Info(xp int64) domain.LevelInfo {
	level := LevelFromXP(xp)
	cur := XPRequiredForLevel(level)
	next := XPRequiredForLevel(level + 1)

	pct := 0.0
	if span := next - cur; span > 0 {
		pct = float64(xp-cur) / float64(span) * 100.0
	}
	needed := next - xp
	if needed < 0 {
		needed = 0
	}

	return domain.LevelInfo{
		Level:             level,
		CurrentXP:         xp,
		XPForCurrentLevel: cur,
		XPForNextLevel:    next,
		XPNeededForNext:   needed,
		ProgressPct:       clampPct(pct),
	}
}

// ApplyXPGain adds delta to current and reports whether a level was gained.
// Negative deltas are allowed for administrative corrections.
func ApplyXPGain(current, delta int64) domain.XPGain {
	oldLevel := LevelFromXP(current)
	newXP := current + delta
	newLevel := LevelFromXP(newXP)
	return domain.XPGain{
		NewXP:     newXP,
		NewLevel:  newLevel,
		LeveledUp: newLevel > oldLevel,
		XPGained:  delta,
	}
}

// LevelUpBonus returns the coins owed for moving from oldLevel to newLevel.
func LevelUpBonus(oldLevel, newLevel int, coinsPerLevel int64) int64 {
	if newLevel <= oldLevel {
		return 0
	}
	return int64(newLevel-oldLevel) * coinsPerLevel
}

// ─── Titles ─────────────────────────────────────────────────────────────────

type levelTitle struct {
	Level int
	Title string
}

// titles is sorted ascending and always starts at level 1.
var titles = []levelTitle{
	{1, "SCRIPT_KIDDIE"},
	{5, "JUNIOR_HACKER"},
	{10, "CODE_BREAKER"},
	{15, "CYBER_WARRIOR"},
	{20, "DIGITAL_PHANTOM"},
	{25, "MATRIX_WALKER"},
	{30, "SYSTEM_INFILTRATOR"},
	{35, "NEURAL_ARCHITECT"},
	{40, "QUANTUM_HACKER"},
	{45, "CYBER_LEGEND"},
	{50, "DIGITAL_GOD"},
}

// TitleForLevel returns the title of the highest threshold <= level.
func TitleForLevel(level int) string {
	i := sort.Search(len(titles), func(i int) bool { return titles[i].Level > level })
	if i == 0 {
		return titles[0].Title
	}
	return titles[i-1].Title
}

func clampPct(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
