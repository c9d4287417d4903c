package progression

import (
	"math/rand"

	"github.com/hackgrid/hackgrid/internal/domain"
)

// Rand is the random source used to roll mission sets. *rand.Rand satisfies it.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

// NewRand returns a seeded Rand. The same seed rolls the same missions.
func NewRand(seed int64) Rand {
	return rand.New(rand.NewSource(seed))
}

// GenerationPolicy holds the chances of the optional daily picks.
type GenerationPolicy struct {
	SkillChance  float64 `toml:"skill_chance"`  // perfect/speed mission
	ScopedChance float64 `toml:"scoped_chance"` // category/difficulty mission
	XPChance     float64 `toml:"xp_chance"`     // XP_GAIN mission, only below MaxMissions
	MaxMissions  int     `toml:"max_missions"`
}

// DefaultGenerationPolicy returns the stock daily mix.
func DefaultGenerationPolicy() GenerationPolicy {
	return GenerationPolicy{
		SkillChance:  0.5,
		ScopedChance: 0.4,
		XPChance:     0.4,
		MaxMissions:  4,
	}
}

// Generator rolls mission sets from an immutable pool.
type Generator struct {
	daily  []domain.MissionDef
	weekly []domain.MissionDef
	policy GenerationPolicy
}

// NewGenerator creates a generator over the catalog's mission pool.
func NewGenerator(c *Catalog, policy GenerationPolicy) *Generator {
	if policy.MaxMissions < 2 {
		policy.MaxMissions = 2
	}
	g := &Generator{policy: policy}
	for _, m := range c.Missions {
		switch m.Period {
		case domain.PeriodDaily:
			g.daily = append(g.daily, m)
		case domain.PeriodWeekly:
			g.weekly = append(g.weekly, m)
		}
	}
	return g
}

// Daily rolls one day's missions: the login mission, one solving mission,
// then optional skill, scoped and XP missions. Never duplicates an id.
func (g *Generator) Daily(r Rand) []domain.MissionDef {
	var out []domain.MissionDef
	seen := make(map[string]bool)
	add := func(m domain.MissionDef) {
		out = append(out, m)
		seen[m.ID] = true
	}
	pick := func(keep func(domain.MissionDef) bool) (domain.MissionDef, bool) {
		var pool []domain.MissionDef
		for _, m := range g.daily {
			if !seen[m.ID] && keep(m) {
				pool = append(pool, m)
			}
		}
		if len(pool) == 0 {
			return domain.MissionDef{}, false
		}
		return pool[r.Intn(len(pool))], true
	}

	if m, ok := pick(func(m domain.MissionDef) bool { return m.Type == domain.MissionDailyLogin }); ok {
		add(m)
	}

	if m, ok := pick(isPlainSolveMission); ok {
		add(m)
	} else if m, ok := pick(func(m domain.MissionDef) bool { return m.Type == domain.MissionSolvePuzzles }); ok {
		add(m)
	}

	if r.Float64() < g.policy.SkillChance {
		if m, ok := pick(isSkillMission); ok {
			add(m)
		}
	}

	if r.Float64() < g.policy.ScopedChance {
		if m, ok := pick(isScopedMission); ok {
			add(m)
		}
	}

	if len(out) < g.policy.MaxMissions && r.Float64() < g.policy.XPChance {
		if m, ok := pick(func(m domain.MissionDef) bool { return m.Type == domain.MissionXPGain }); ok {
			add(m)
		}
	}

	if len(out) > g.policy.MaxMissions {
		out = out[:g.policy.MaxMissions]
	}
	return out
}

// Weekly returns the weekly missions. The weekly set is the whole pool.
func (g *Generator) Weekly() []domain.MissionDef {
	out := make([]domain.MissionDef, len(g.weekly))
	copy(out, g.weekly)
	return out
}

func isPlainSolveMission(m domain.MissionDef) bool {
	return m.Type == domain.MissionSolvePuzzles && m.Scope == domain.ScopeNone
}

func isSkillMission(m domain.MissionDef) bool {
	return m.Type == domain.MissionSolvePuzzles &&
		(m.Scope == domain.ScopePerfect || m.Scope == domain.ScopeSpeed)
}

func isScopedMission(m domain.MissionDef) bool {
	return m.Type == domain.MissionSolvePuzzles &&
		(m.Scope == domain.ScopeCategory || m.Scope == domain.ScopeDifficulty)
}
