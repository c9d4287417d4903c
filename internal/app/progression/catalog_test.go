package progression_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hackgrid/hackgrid/internal/app/progression"
	"github.com/hackgrid/hackgrid/internal/domain"
)

func TestDefaultCatalog(t *testing.T) {
	c, err := progression.DefaultCatalog()
	if err != nil {
		t.Fatalf("DefaultCatalog: %v", err)
	}
	if len(c.Achievements) != 16 {
		t.Errorf("achievements = %d, want 16", len(c.Achievements))
	}
	if len(c.Missions) != 14 {
		t.Errorf("missions = %d, want 14", len(c.Missions))
	}
	if c.Rules.LevelUpCoins != 50 {
		t.Errorf("level_up_coins = %d, want 50", c.Rules.LevelUpCoins)
	}
	if w := c.Warnings(); len(w) != 0 {
		t.Errorf("stock catalog has warnings: %v", w)
	}
	for _, m := range c.Missions {
		if m.Scope == "" {
			t.Errorf("mission %q scope not defaulted", m.ID)
		}
	}
}

func TestActionReward(t *testing.T) {
	c, _ := progression.DefaultCatalog()

	r, err := c.ActionReward("PUZZLE_MEDIUM", 1)
	if err != nil {
		t.Fatal(err)
	}
	if r.XP != 50 || r.Coins != 25 {
		t.Errorf("got %+v, want 50/25", r)
	}

	r, _ = c.ActionReward("DAILY_LOGIN", 1.5)
	if r.XP != 15 || r.Coins != 7 {
		t.Errorf("multiplied reward = %+v, want 15/7 (floored)", r)
	}

	if _, err := c.ActionReward("HACK_THE_PLANET", 1); !errors.Is(err, domain.ErrUnknownAction) {
		t.Errorf("unknown action: got %v", err)
	}
	for _, m := range []float64{0, -1, 10.5} {
		if _, err := c.ActionReward("DAILY_LOGIN", m); !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("multiplier %.1f: got %v, want ErrInvalidInput", m, err)
		}
	}
}

func TestSolveReward(t *testing.T) {
	c, _ := progression.DefaultCatalog()

	tests := []struct {
		name          string
		difficulty    string
		hints, secs   int
		xp, coins     int64
		perfect, fast bool
	}{
		{"plain", "HARD", 2, 300, 100, 50, false, false},
		{"perfect", "HARD", 0, 300, 150, 75, true, false},
		{"fast", "EASY", 1, 60, 50, 20, false, true},
		{"perfect and fast", "MEDIUM", 0, 119, 125, 60, true, true},
		{"speed boundary", "MEDIUM", 1, 120, 50, 25, false, false},
		{"untimed", "HARD", 2, 0, 100, 50, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, perfect, fast, err := c.SolveReward(tt.difficulty, tt.hints, tt.secs)
			if err != nil {
				t.Fatal(err)
			}
			if r.XP != tt.xp || r.Coins != tt.coins {
				t.Errorf("reward = %+v, want %d/%d", r, tt.xp, tt.coins)
			}
			if perfect != tt.perfect || fast != tt.fast {
				t.Errorf("perfect=%v speed=%v, want %v/%v", perfect, fast, tt.perfect, tt.fast)
			}
		})
	}

	if _, _, _, err := c.SolveReward("IMPOSSIBLE", 0, 10); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("unknown difficulty: got %v", err)
	}
}

const minimalCatalog = `
[actions]
DAILY_LOGIN = { xp = 10, coins = 5 }

[[missions]]
id = "login"
type = "DAILY_LOGIN"
target = 1
period = "DAILY"
duration_hours = 24

[[missions]]
id = "solve"
type = "SOLVE_PUZZLES"
target = 1
period = "DAILY"
duration_hours = 24
`

func TestParseCatalog_Minimal(t *testing.T) {
	c, err := progression.ParseCatalog([]byte(minimalCatalog))
	if err != nil {
		t.Fatalf("ParseCatalog: %v", err)
	}
	if c.Rules.MaxMultiplier != 10 {
		t.Errorf("max multiplier default = %.1f, want 10", c.Rules.MaxMultiplier)
	}
	if _, ok := c.Mission("solve"); !ok {
		t.Error("mission lookup failed")
	}
}

func TestParseCatalog_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		extra string
		want  error
	}{
		{"duplicate id", `
[[missions]]
id = "login"
type = "DAILY_LOGIN"
target = 1
period = "DAILY"
duration_hours = 24
`, domain.ErrInvalidInput},
		{"unknown type", `
[[missions]]
id = "dance"
type = "DANCE"
target = 1
period = "DAILY"
duration_hours = 24
`, domain.ErrUnknownMissionType},
		{"unknown period", `
[[missions]]
id = "typo"
type = "SOLVE_PUZZLES"
target = 1
period = "DAILYY"
duration_hours = 24
`, domain.ErrInvalidInput},
		{"scope without value", `
[[missions]]
id = "crypto"
type = "SOLVE_PUZZLES"
target = 1
period = "DAILY"
duration_hours = 24
scope = "category"
`, domain.ErrInvalidInput},
		{"negative reward", `
[[achievements]]
id = "greedy"
condition = { type = "xp_total", target = 1 }
xp_reward = -5
`, domain.ErrInvalidInput},
		{"specific puzzle without slug", `
[[achievements]]
id = "mystery"
condition = { type = "specific_puzzle" }
`, domain.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := progression.ParseCatalog([]byte(minimalCatalog + tt.extra))
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestParseCatalog_MissingDailyBasics(t *testing.T) {
	data := `
[[missions]]
id = "solve"
type = "SOLVE_PUZZLES"
target = 1
period = "DAILY"
duration_hours = 24
`
	if _, err := progression.ParseCatalog([]byte(data)); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("got %v, want ErrInvalidInput", err)
	}
}

func TestCatalogWarnings_UnknownCondition(t *testing.T) {
	data := minimalCatalog + `
[[achievements]]
id = "eclipse"
condition = { type = "moon_phase", target = 1 }
`
	c, err := progression.ParseCatalog([]byte(data))
	if err != nil {
		t.Fatalf("unknown condition types load with a warning, got %v", err)
	}
	w := c.Warnings()
	if len(w) != 1 || !strings.Contains(w[0], "eclipse") {
		t.Errorf("warnings = %v", w)
	}
}

func TestLoadCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.toml")
	if err := os.WriteFile(path, []byte(minimalCatalog), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := progression.LoadCatalog(path)
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	if len(c.Missions) != 2 {
		t.Errorf("missions = %d, want 2", len(c.Missions))
	}

	if _, err := progression.LoadCatalog(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("expected error for a missing file")
	}

	def, err := progression.LoadCatalog("")
	if err != nil || len(def.Achievements) == 0 {
		t.Errorf("empty path should load the embedded catalog: %v", err)
	}
}
