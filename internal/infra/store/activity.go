package store

import (
	"context"
	"fmt"
	"time"

	"github.com/hackgrid/hackgrid/internal/domain"
)

// ─── Puzzle Solves ──────────────────────────────────────────────────────────

// InsertSolve records a verified solve. A puzzle counts once per user;
// a repeat returns domain.ErrPuzzleAlreadySolved.
func (q *Queries) InsertSolve(ctx context.Context, s domain.PuzzleSolve) error {
	res, err := q.exec(ctx,
		`INSERT INTO puzzle_solves (user_id, puzzle, category, difficulty, hints_used, time_spent, xp_awarded, coins_awarded, solved_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user_id, puzzle) DO NOTHING`,
		s.UserID, s.Puzzle, s.Category, s.Difficulty, s.HintsUsed, s.TimeSpent,
		s.XPAwarded, s.CoinsAwarded, toMillis(s.SolvedAt),
	)
	if err != nil {
		return fmt.Errorf("insert solve: %w", err)
	}
	n, err := affected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrPuzzleAlreadySolved, s.Puzzle)
	}
	return nil
}

// RecentSolves returns the user's latest solves.
func (q *Queries) RecentSolves(ctx context.Context, userID string, limit int) ([]domain.PuzzleSolve, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := q.query(ctx,
		`SELECT user_id, puzzle, category, difficulty, hints_used, time_spent, xp_awarded, coins_awarded, solved_at
		 FROM puzzle_solves WHERE user_id = ? ORDER BY solved_at DESC, puzzle ASC LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.PuzzleSolve
	for rows.Next() {
		var s domain.PuzzleSolve
		var solvedAt int64
		if err := rows.Scan(&s.UserID, &s.Puzzle, &s.Category, &s.Difficulty, &s.HintsUsed,
			&s.TimeSpent, &s.XPAwarded, &s.CoinsAwarded, &solvedAt); err != nil {
			return nil, err
		}
		s.SolvedAt = fromMillis(solvedAt)
		out = append(out, s)
	}
	return out, rows.Err()
}

// solveCounts aggregates solves inside [from, to). A solve without timing
// data (time_spent = 0) is never a speed solve.
type solveCounts struct {
	total, perfect, speed int
	xp                    int64
	byCategory            map[string]int
	byDifficulty          map[string]int
}

func (q *Queries) countSolves(ctx context.Context, userID string, from, to time.Time, speedSeconds int) (solveCounts, error) {
	c := solveCounts{byCategory: map[string]int{}, byDifficulty: map[string]int{}}
	toMs := toMillis(to)
	if to.IsZero() {
		toMs = 1<<63 - 1
	}
	rows, err := q.query(ctx,
		`SELECT category, difficulty, COUNT(*),
		        SUM(CASE WHEN hints_used = 0 THEN 1 ELSE 0 END),
		        SUM(CASE WHEN time_spent > 0 AND time_spent < ? THEN 1 ELSE 0 END),
		        COALESCE(SUM(xp_awarded), 0)
		 FROM puzzle_solves
		 WHERE user_id = ? AND solved_at >= ? AND solved_at < ?
		 GROUP BY category, difficulty`,
		speedSeconds, userID, toMillis(from), toMs,
	)
	if err != nil {
		return c, fmt.Errorf("count solves: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var category, difficulty string
		var total, perfect, speed, xp int64
		if err := rows.Scan(&category, &difficulty, &total, &perfect, &speed, &xp); err != nil {
			return c, err
		}
		c.total += int(total)
		c.perfect += int(perfect)
		c.speed += int(speed)
		c.xp += xp
		c.byCategory[category] += int(total)
		c.byDifficulty[difficulty] += int(total)
	}
	return c, rows.Err()
}

// WindowActivity returns the solve counters and XP earned from puzzle
// solves inside [from, to). Login, mission and achievement rewards do not
// count toward XPEarned. Login and streak fields come from the user row and
// are left to the caller.
func (q *Queries) WindowActivity(ctx context.Context, userID string, from, to time.Time, speedSeconds int) (domain.WindowActivity, error) {
	c, err := q.countSolves(ctx, userID, from, to, speedSeconds)
	if err != nil {
		return domain.WindowActivity{}, err
	}

	return domain.WindowActivity{
		PuzzlesSolved: c.total,
		ByCategory:    c.byCategory,
		ByDifficulty:  c.byDifficulty,
		PerfectSolves: c.perfect,
		SpeedSolves:   c.speed,
		XPEarned:      c.xp,
	}, nil
}

// LifetimeProgress returns the all-time solve counters and solved puzzle
// slugs. XP, level and streak come from the user row.
func (q *Queries) LifetimeProgress(ctx context.Context, userID string, speedSeconds int) (domain.LifetimeProgress, error) {
	c, err := q.countSolves(ctx, userID, time.Time{}, time.Time{}, speedSeconds)
	if err != nil {
		return domain.LifetimeProgress{}, err
	}

	rows, err := q.query(ctx, `SELECT puzzle FROM puzzle_solves WHERE user_id = ? ORDER BY puzzle`, userID)
	if err != nil {
		return domain.LifetimeProgress{}, fmt.Errorf("list solved puzzles: %w", err)
	}
	defer rows.Close()

	var puzzles []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return domain.LifetimeProgress{}, err
		}
		puzzles = append(puzzles, p)
	}
	if err := rows.Err(); err != nil {
		return domain.LifetimeProgress{}, err
	}

	return domain.LifetimeProgress{
		PuzzlesSolved:   c.total,
		ByCategory:      c.byCategory,
		ByDifficulty:    c.byDifficulty,
		PerfectSolves:   c.perfect,
		SpeedSolves:     c.speed,
		SpecificPuzzles: puzzles,
	}, nil
}
