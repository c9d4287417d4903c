package store

import (
	"context"
	"fmt"
	"time"

	"github.com/hackgrid/hackgrid/internal/domain"
)

// ─── Achievements ───────────────────────────────────────────────────────────

// UnlockAchievement records an unlock. Returns true if newly unlocked.
func (q *Queries) UnlockAchievement(ctx context.Context, userID, id string, at time.Time) (bool, error) {
	res, err := q.exec(ctx,
		`INSERT INTO user_achievements (user_id, achievement_id, unlocked_at) VALUES (?, ?, ?)
		 ON CONFLICT(user_id, achievement_id) DO NOTHING`,
		userID, id, toMillis(at),
	)
	if err != nil {
		return false, fmt.Errorf("unlock %s: %w", id, err)
	}
	n, err := affected(res)
	return n == 1, err
}

// UnlockedAchievements returns the user's unlocks, oldest first.
func (q *Queries) UnlockedAchievements(ctx context.Context, userID string) ([]domain.UnlockedAchievement, error) {
	rows, err := q.query(ctx,
		`SELECT achievement_id, unlocked_at FROM user_achievements
		 WHERE user_id = ? ORDER BY unlocked_at ASC, achievement_id ASC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.UnlockedAchievement
	for rows.Next() {
		var a domain.UnlockedAchievement
		var ts int64
		if err := rows.Scan(&a.ID, &ts); err != nil {
			return nil, err
		}
		a.UnlockedAt = fromMillis(ts)
		out = append(out, a)
	}
	return out, rows.Err()
}

// UnlockedSet returns the user's unlocked ids as a set.
func (q *Queries) UnlockedSet(ctx context.Context, userID string) (map[string]bool, error) {
	list, err := q.UnlockedAchievements(ctx, userID)
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(list))
	for _, a := range list {
		set[a.ID] = true
	}
	return set, nil
}
