package progression

import (
	"fmt"

	"github.com/hackgrid/hackgrid/internal/domain"
)

// EvaluateMission computes progress for one mission against an activity
// snapshot. An unknown mission type is a data-integrity bug upstream and
// fails loudly instead of reporting zero progress.
func EvaluateMission(m domain.MissionDef, a domain.WindowActivity) (domain.MissionProgress, error) {
	if m.Target < 0 {
		return domain.MissionProgress{}, fmt.Errorf("%w: mission %q has negative target %d", domain.ErrInvalidInput, m.ID, m.Target)
	}

	var progress int
	switch m.Type {
	case domain.MissionSolvePuzzles:
		p, err := solveProgress(m, a)
		if err != nil {
			return domain.MissionProgress{}, err
		}
		progress = p
	case domain.MissionXPGain:
		progress = int(a.XPEarned)
	case domain.MissionDailyLogin:
		if a.LoggedIn {
			progress = 1
		}
	case domain.MissionStreakMaintain:
		progress = a.CurrentStreak
	case domain.MissionSocial:
		progress = a.SocialActions
	default:
		return domain.MissionProgress{}, fmt.Errorf("%w: %q (mission %q)", domain.ErrUnknownMissionType, m.Type, m.ID)
	}

	return domain.MissionProgress{
		Progress:  progress,
		Completed: progress >= m.Target,
	}, nil
}

// solveProgress picks the solve counter selected by the mission scope.
func solveProgress(m domain.MissionDef, a domain.WindowActivity) (int, error) {
	switch m.Scope {
	case "", domain.ScopeNone:
		return a.PuzzlesSolved, nil
	case domain.ScopeCategory:
		return a.ByCategory[m.ScopeValue], nil
	case domain.ScopeDifficulty:
		return a.ByDifficulty[m.ScopeValue], nil
	case domain.ScopePerfect:
		return a.PerfectSolves, nil
	case domain.ScopeSpeed:
		return a.SpeedSolves, nil
	}
	return 0, fmt.Errorf("%w: mission %q has unknown scope %q", domain.ErrInvalidInput, m.ID, m.Scope)
}

// ProgressPercentage returns progress/target as 0-100.
// A zero or negative target is trivially satisfied.
func ProgressPercentage(progress, target int) float64 {
	if target <= 0 {
		return 100.0
	}
	return clampPct(float64(progress) / float64(target) * 100.0)
}
