package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hackgrid/hackgrid/internal/domain"
)

// ─── Users ──────────────────────────────────────────────────────────────────

const userColumns = `id, xp, level, coins, streak_current, streak_longest, streak_last_day, last_active, created_at`

// EnsureUser creates the user row if missing and returns it.
func (q *Queries) EnsureUser(ctx context.Context, id string, now time.Time) (domain.User, error) {
	_, err := q.exec(ctx,
		`INSERT INTO users (id, created_at) VALUES (?, ?)
		 ON CONFLICT(id) DO NOTHING`,
		id, toMillis(now),
	)
	if err != nil {
		return domain.User{}, fmt.Errorf("ensure user %s: %w", id, err)
	}
	return q.GetUser(ctx, id)
}

// GetUser returns a user or domain.ErrUserNotFound.
func (q *Queries) GetUser(ctx context.Context, id string) (domain.User, error) {
	row := q.queryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, fmt.Errorf("%w: %s", domain.ErrUserNotFound, id)
	}
	return u, err
}

// AddBalance atomically adds xp and coins and returns the new totals.
// The row stays locked until the surrounding transaction ends.
func (q *Queries) AddBalance(ctx context.Context, id string, xp, coins int64, now time.Time) (totalXP, totalCoins int64, err error) {
	err = q.queryRow(ctx,
		`UPDATE users SET xp = xp + ?, coins = coins + ?, last_active = ?
		 WHERE id = ? RETURNING xp, coins`,
		xp, coins, toMillis(now), id,
	).Scan(&totalXP, &totalCoins)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, 0, fmt.Errorf("%w: %s", domain.ErrUserNotFound, id)
	}
	if err != nil {
		return 0, 0, fmt.Errorf("add balance %s: %w", id, err)
	}
	return totalXP, totalCoins, nil
}

// SetLevel stores the level derived from the user's XP.
func (q *Queries) SetLevel(ctx context.Context, id string, level int) error {
	_, err := q.exec(ctx, `UPDATE users SET level = ? WHERE id = ?`, level, id)
	return err
}

// UpdateStreak swaps in a new streak state if the stored last day is still
// prevLastDay. It reports false when a concurrent login got there first.
func (q *Queries) UpdateStreak(ctx context.Context, id string, prevLastDay time.Time, current, longest int, lastDay, now time.Time) (bool, error) {
	res, err := q.exec(ctx,
		`UPDATE users SET streak_current = ?, streak_longest = ?, streak_last_day = ?, last_active = ?
		 WHERE id = ? AND streak_last_day = ?`,
		current, longest, toMillis(lastDay), toMillis(now), id, toMillis(prevLastDay),
	)
	if err != nil {
		return false, fmt.Errorf("update streak %s: %w", id, err)
	}
	n, err := affected(res)
	return n == 1, err
}

// TouchActive records activity without changing balances.
func (q *Queries) TouchActive(ctx context.Context, id string, now time.Time) error {
	_, err := q.exec(ctx, `UPDATE users SET last_active = ? WHERE id = ?`, toMillis(now), id)
	return err
}

// Leaderboard returns the top users by XP.
func (q *Queries) Leaderboard(ctx context.Context, limit int) ([]domain.User, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := q.query(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY xp DESC, id ASC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// CountUsers returns the number of known users.
func (q *Queries) CountUsers(ctx context.Context) (int, error) {
	var n int
	err := q.queryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}

func scanUser(s scanner) (domain.User, error) {
	var u domain.User
	var lastDay, lastActive, created int64
	err := s.Scan(&u.ID, &u.XP, &u.Level, &u.Coins, &u.StreakCurrent, &u.StreakLongest,
		&lastDay, &lastActive, &created)
	if err != nil {
		return domain.User{}, err
	}
	u.StreakLastDay = fromMillis(lastDay)
	u.LastActive = fromMillis(lastActive)
	u.CreatedAt = fromMillis(created)
	return u, nil
}
