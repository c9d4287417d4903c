package progression_test

import (
	"testing"

	"github.com/hackgrid/hackgrid/internal/app/progression"
)

func TestXPRequiredForLevel_BaseLevels(t *testing.T) {
	for _, level := range []int{-5, 0, 1} {
		if xp := progression.XPRequiredForLevel(level); xp != 0 {
			t.Errorf("level %d should need 0 XP, got %d", level, xp)
		}
	}
}

func TestXPRequiredForLevel_Curve(t *testing.T) {
	tests := []struct {
		level int
		want  int64
	}{
		{2, 100},
		{3, 300},
		{4, 600},
		{5, 1000},
		{10, 4500},
	}
	for _, tt := range tests {
		if got := progression.XPRequiredForLevel(tt.level); got != tt.want {
			t.Errorf("XPRequiredForLevel(%d) = %d, want %d", tt.level, got, tt.want)
		}
	}
}

func TestXPRequiredForLevel_StrictlyIncreasing(t *testing.T) {
	prev := progression.XPRequiredForLevel(1)
	for level := 2; level <= 500; level++ {
		cur := progression.XPRequiredForLevel(level)
		if cur <= prev {
			t.Fatalf("level %d (%d XP) not above level %d (%d XP)", level, cur, level-1, prev)
		}
		prev = cur
	}
}

func TestLevelFromXP_Boundaries(t *testing.T) {
	tests := []struct {
		xp   int64
		want int
	}{
		{-100, 1},
		{0, 1},
		{99, 1},
		{100, 2},
		{299, 2},
		{300, 3},
		{999, 4},
		{1000, 5},
		{4500, 10},
	}
	for _, tt := range tests {
		if got := progression.LevelFromXP(tt.xp); got != tt.want {
			t.Errorf("LevelFromXP(%d) = %d, want %d", tt.xp, got, tt.want)
		}
	}
}

func TestLevelFromXP_Bracket(t *testing.T) {
	for xp := int64(0); xp <= 200_000; xp += 37 {
		level := progression.LevelFromXP(xp)
		lo := progression.XPRequiredForLevel(level)
		hi := progression.XPRequiredForLevel(level + 1)
		if !(lo <= xp && xp < hi) {
			t.Fatalf("xp %d: level %d bracket [%d, %d) does not contain it", xp, level, lo, hi)
		}
	}
}

func TestLevelFromXP_Monotonic(t *testing.T) {
	prev := progression.LevelFromXP(0)
	for xp := int64(1); xp <= 100_000; xp += 11 {
		cur := progression.LevelFromXP(xp)
		if cur < prev {
			t.Fatalf("LevelFromXP(%d) = %d dropped below %d", xp, cur, prev)
		}
		prev = cur
	}
}

func TestLevelFromXP_LargeValues(t *testing.T) {
	xp := progression.XPRequiredForLevel(12345)
	if got := progression.LevelFromXP(xp); got != 12345 {
		t.Errorf("LevelFromXP(%d) = %d, want 12345", xp, got)
	}
	if got := progression.LevelFromXP(xp - 1); got != 12344 {
		t.Errorf("LevelFromXP(%d) = %d, want 12344", xp-1, got)
	}
	if got := progression.LevelFromXP(1 << 62); got != progression.MaxLevel {
		t.Errorf("huge xp should cap at MaxLevel, got %d", got)
	}
}

func TestInfo(t *testing.T) {
	info := progression.Info(200)
	if info.Level != 2 {
		t.Errorf("level = %d, want 2", info.Level)
	}
	if info.XPForCurrentLevel != 100 || info.XPForNextLevel != 300 {
		t.Errorf("bracket = [%d, %d], want [100, 300]", info.XPForCurrentLevel, info.XPForNextLevel)
	}
	if info.XPNeededForNext != 100 {
		t.Errorf("needed = %d, want 100", info.XPNeededForNext)
	}
	if info.ProgressPct != 50 {
		t.Errorf("progress = %.2f, want 50", info.ProgressPct)
	}
}

func TestInfo_ProgressAlwaysInRange(t *testing.T) {
	for _, xp := range []int64{-1000, -1, 0, 1, 99, 100, 101, 5000, 123456} {
		pct := progression.Info(xp).ProgressPct
		if pct < 0 || pct > 100 {
			t.Errorf("Info(%d).ProgressPct = %.2f, outside [0,100]", xp, pct)
		}
	}
}

func TestInfo_AtLevelCap(t *testing.T) {
	capXP := progression.XPRequiredForLevel(progression.MaxLevel)
	for _, xp := range []int64{capXP, capXP + 1, 1 << 62} {
		info := progression.Info(xp)
		if info.Level != progression.MaxLevel {
			t.Errorf("Info(%d).Level = %d, want MaxLevel", xp, info.Level)
		}
		if info.XPNeededForNext != 0 {
			t.Errorf("Info(%d).XPNeededForNext = %d, want 0 at the cap", xp, info.XPNeededForNext)
		}
		if info.ProgressPct < 0 || info.ProgressPct > 100 {
			t.Errorf("Info(%d).ProgressPct = %.2f", xp, info.ProgressPct)
		}
	}
}

func TestApplyXPGain(t *testing.T) {
	gain := progression.ApplyXPGain(90, 20)
	if gain.NewXP != 110 || gain.NewLevel != 2 || !gain.LeveledUp || gain.XPGained != 20 {
		t.Errorf("unexpected gain: %+v", gain)
	}

	gain = progression.ApplyXPGain(110, 10)
	if gain.LeveledUp {
		t.Error("staying inside a level must not report a level-up")
	}
}

func TestApplyXPGain_Additive(t *testing.T) {
	for _, d := range []int64{-500, -1, 0, 1, 250, 10_000} {
		if got := progression.ApplyXPGain(300, d).NewXP; got != 300+d {
			t.Errorf("ApplyXPGain(300, %d).NewXP = %d, want %d", d, got, 300+d)
		}
	}
	if progression.ApplyXPGain(1000, -900).LeveledUp {
		t.Error("negative delta must not level up")
	}
}

func TestLevelUpBonus(t *testing.T) {
	if got := progression.LevelUpBonus(2, 5, 50); got != 150 {
		t.Errorf("bonus = %d, want 150", got)
	}
	if got := progression.LevelUpBonus(5, 5, 50); got != 0 {
		t.Errorf("no level gained should give 0, got %d", got)
	}
}

func TestTitleForLevel(t *testing.T) {
	tests := []struct {
		level int
		want  string
	}{
		{-3, "SCRIPT_KIDDIE"},
		{1, "SCRIPT_KIDDIE"},
		{4, "SCRIPT_KIDDIE"},
		{5, "JUNIOR_HACKER"},
		{12, "CODE_BREAKER"},
		{49, "CYBER_LEGEND"},
		{50, "DIGITAL_GOD"},
		{999, "DIGITAL_GOD"},
	}
	for _, tt := range tests {
		if got := progression.TitleForLevel(tt.level); got != tt.want {
			t.Errorf("TitleForLevel(%d) = %q, want %q", tt.level, got, tt.want)
		}
	}
}
