package progression

import (
	_ "embed"
	"fmt"
	"math"
	"os"
	"slices"

	"github.com/BurntSushi/toml"

	"github.com/hackgrid/hackgrid/internal/domain"
)

//go:embed catalog.toml
var defaultCatalog []byte

// Catalog is the static game content: missions, achievements and reward
// tables. Loaded once at startup and never mutated afterwards.
type Catalog struct {
	Rules        Rules                    `toml:"rules"`
	Actions      map[string]domain.Reward `toml:"actions"`
	Missions     []domain.MissionDef      `toml:"missions"`
	Achievements []domain.AchievementDef  `toml:"achievements"`
}

// Rules holds the tunables that are not per-item content.
type Rules struct {
	LevelUpCoins            int64    `toml:"level_up_coins"`
	MissionSpeedSeconds     int      `toml:"mission_speed_seconds"`
	AchievementSpeedSeconds int      `toml:"achievement_speed_seconds"`
	SpeedBonusSeconds       int      `toml:"speed_bonus_seconds"`
	StreakBonusCapDays      int      `toml:"streak_bonus_cap_days"`
	MaxMultiplier           float64  `toml:"max_multiplier"`
	Difficulties            []string `toml:"difficulties"`
	Categories              []string `toml:"categories"`
}

// Reward action names used by the engagement layer.
const (
	ActionDailyLogin     = "DAILY_LOGIN"
	ActionFirstLogin     = "FIRST_TIME_LOGIN"
	ActionPerfectSolve   = "PERFECT_SOLVE"
	ActionSpeedBonus     = "SPEED_BONUS"
	ActionStreakBonus    = "STREAK_BONUS"
	puzzleActionPrefix   = "PUZZLE_"
	defaultMaxMultiplier = 10.0
)

// DefaultCatalog parses the embedded catalog.
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(defaultCatalog)
}

// LoadCatalog reads a catalog file. An empty path selects the embedded one.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes and validates a TOML catalog.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if _, err := toml.Decode(string(data), &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	for i := range c.Missions {
		if c.Missions[i].Scope == "" {
			c.Missions[i].Scope = domain.ScopeNone
		}
	}
	if c.Rules.MaxMultiplier <= 0 {
		c.Rules.MaxMultiplier = defaultMaxMultiplier
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate rejects content the evaluators cannot handle.
func (c *Catalog) Validate() error {
	ids := make(map[string]bool)
	hasLogin, hasSolve := false, false

	for _, m := range c.Missions {
		switch {
		case m.ID == "":
			return fmt.Errorf("%w: mission without id", domain.ErrInvalidInput)
		case ids[m.ID]:
			return fmt.Errorf("%w: duplicate mission id %q", domain.ErrInvalidInput, m.ID)
		case !m.Type.Valid():
			return fmt.Errorf("%w: mission %q: %q", domain.ErrUnknownMissionType, m.ID, m.Type)
		case !m.Period.Valid():
			return fmt.Errorf("%w: mission %q has unknown period %q", domain.ErrInvalidInput, m.ID, m.Period)
		case !m.Scope.Valid():
			return fmt.Errorf("%w: mission %q has unknown scope %q", domain.ErrInvalidInput, m.ID, m.Scope)
		case m.Target < 0 || m.XPReward < 0 || m.CoinReward < 0:
			return fmt.Errorf("%w: mission %q has a negative target or reward", domain.ErrInvalidInput, m.ID)
		case m.DurationHours <= 0:
			return fmt.Errorf("%w: mission %q needs a positive duration", domain.ErrInvalidInput, m.ID)
		}
		if (m.Scope == domain.ScopeCategory || m.Scope == domain.ScopeDifficulty) && m.ScopeValue == "" {
			return fmt.Errorf("%w: mission %q scope %q needs a scope_value", domain.ErrInvalidInput, m.ID, m.Scope)
		}
		ids[m.ID] = true
		if m.Period == domain.PeriodDaily {
			hasLogin = hasLogin || m.Type == domain.MissionDailyLogin
			hasSolve = hasSolve || m.Type == domain.MissionSolvePuzzles
		}
	}
	if !hasLogin || !hasSolve {
		return fmt.Errorf("%w: daily pool needs a DAILY_LOGIN and a SOLVE_PUZZLES mission", domain.ErrInvalidInput)
	}

	ids = make(map[string]bool)
	for _, a := range c.Achievements {
		switch {
		case a.ID == "":
			return fmt.Errorf("%w: achievement without id", domain.ErrInvalidInput)
		case ids[a.ID]:
			return fmt.Errorf("%w: duplicate achievement id %q", domain.ErrInvalidInput, a.ID)
		case a.Condition.Target < 0 || a.XPReward < 0 || a.CoinReward < 0:
			return fmt.Errorf("%w: achievement %q has a negative target or reward", domain.ErrInvalidInput, a.ID)
		case a.Condition.Type == domain.CondSpecificPuzzle && a.Condition.Puzzle == "":
			return fmt.Errorf("%w: achievement %q needs a puzzle slug", domain.ErrInvalidInput, a.ID)
		}
		ids[a.ID] = true
	}

	for name, r := range c.Actions {
		if r.XP < 0 || r.Coins < 0 {
			return fmt.Errorf("%w: action %q has a negative reward", domain.ErrInvalidInput, name)
		}
	}
	return nil
}

// Warnings lists content that loads but will never fire.
func (c *Catalog) Warnings() []string {
	var out []string
	for _, a := range c.Achievements {
		if !a.Condition.Type.Known() {
			out = append(out, fmt.Sprintf("achievement %q: %v %q, never unlocks",
				a.ID, domain.ErrUnknownConditionType, a.Condition.Type))
		}
	}
	return out
}

// Mission returns the mission definition with the given id.
func (c *Catalog) Mission(id string) (domain.MissionDef, bool) {
	for _, m := range c.Missions {
		if m.ID == id {
			return m, true
		}
	}
	return domain.MissionDef{}, false
}

// ActionReward returns the reward for a named action scaled by multiplier.
func (c *Catalog) ActionReward(action string, multiplier float64) (domain.Reward, error) {
	base, ok := c.Actions[action]
	if !ok {
		return domain.Reward{}, fmt.Errorf("%w: %q", domain.ErrUnknownAction, action)
	}
	if multiplier <= 0 || multiplier > c.Rules.MaxMultiplier {
		return domain.Reward{}, fmt.Errorf("%w: multiplier %.2f outside (0, %.0f]", domain.ErrInvalidInput, multiplier, c.Rules.MaxMultiplier)
	}
	return domain.Reward{
		XP:    int64(math.Floor(float64(base.XP) * multiplier)),
		Coins: int64(math.Floor(float64(base.Coins) * multiplier)),
	}, nil
}

// SolveReward returns the reward for a verified solve: the difficulty base
// plus the perfect (no hints) and speed bonuses. Zero seconds means the
// solve was not timed and earns no speed bonus.
func (c *Catalog) SolveReward(difficulty string, hintsUsed, seconds int) (r domain.Reward, perfect, speed bool, err error) {
	base, ok := c.Actions[puzzleActionPrefix+difficulty]
	if !ok || !slices.Contains(c.Rules.Difficulties, difficulty) {
		return domain.Reward{}, false, false, fmt.Errorf("%w: unknown difficulty %q", domain.ErrInvalidInput, difficulty)
	}
	r = base
	if hintsUsed == 0 {
		perfect = true
		r = addReward(r, c.Actions[ActionPerfectSolve])
	}
	if seconds > 0 && seconds < c.Rules.SpeedBonusSeconds {
		speed = true
		r = addReward(r, c.Actions[ActionSpeedBonus])
	}
	return r, perfect, speed, nil
}

// KnownCategory reports whether category is a configured puzzle category.
func (c *Catalog) KnownCategory(category string) bool {
	return slices.Contains(c.Rules.Categories, category)
}

func addReward(a, b domain.Reward) domain.Reward {
	return domain.Reward{XP: a.XP + b.XP, Coins: a.Coins + b.Coins}
}
