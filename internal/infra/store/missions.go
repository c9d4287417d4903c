package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hackgrid/hackgrid/internal/domain"
)

// ─── Mission Windows ────────────────────────────────────────────────────────

// ClaimMissionWindow opens a new mission window for (user, period) unless a
// live one exists. Exactly one caller per window gets true and must roll the
// mission instances; everyone else reads the existing set.
func (q *Queries) ClaimMissionWindow(ctx context.Context, userID string, period domain.MissionPeriod, startedAt, expiresAt, now time.Time) (bool, error) {
	res, err := q.exec(ctx,
		`INSERT INTO mission_sets (user_id, period, started_at, expires_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(user_id, period) DO UPDATE SET
			started_at = excluded.started_at,
			expires_at = excluded.expires_at
		 WHERE mission_sets.expires_at <= ?`,
		userID, string(period), toMillis(startedAt), toMillis(expiresAt), toMillis(now),
	)
	if err != nil {
		return false, fmt.Errorf("claim mission window: %w", err)
	}
	n, err := affected(res)
	return n == 1, err
}

// MissionWindow returns the current window bounds for (user, period).
func (q *Queries) MissionWindow(ctx context.Context, userID string, period domain.MissionPeriod) (startedAt, expiresAt time.Time, ok bool, err error) {
	var s, e int64
	err = q.queryRow(ctx,
		`SELECT started_at, expires_at FROM mission_sets WHERE user_id = ? AND period = ?`,
		userID, string(period),
	).Scan(&s, &e)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, time.Time{}, false, err
	}
	return fromMillis(s), fromMillis(e), true, nil
}

// ─── Mission Instances ──────────────────────────────────────────────────────

const missionColumns = `id, user_id, mission_id, period, started_at, expires_at, claimed, claimed_at`

// InsertMission stores a rolled mission instance.
func (q *Queries) InsertMission(ctx context.Context, m domain.MissionInstance) error {
	_, err := q.exec(ctx,
		`INSERT INTO user_missions (`+missionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.UserID, m.MissionID, string(m.Period), toMillis(m.StartedAt), toMillis(m.ExpiresAt),
		boolInt(m.Claimed), toMillis(m.ClaimedAt),
	)
	if err != nil {
		return fmt.Errorf("insert mission %s: %w", m.MissionID, err)
	}
	return nil
}

// ActiveMissions returns the user's unexpired instances, oldest first.
func (q *Queries) ActiveMissions(ctx context.Context, userID string, now time.Time) ([]domain.MissionInstance, error) {
	rows, err := q.query(ctx,
		`SELECT `+missionColumns+` FROM user_missions
		 WHERE user_id = ? AND expires_at > ?
		 ORDER BY period ASC, started_at ASC, mission_id ASC`,
		userID, toMillis(now),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.MissionInstance
	for rows.Next() {
		m, err := scanMission(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// GetMission returns one of the user's instances or domain.ErrMissionNotFound.
func (q *Queries) GetMission(ctx context.Context, userID, id string) (domain.MissionInstance, error) {
	row := q.queryRow(ctx,
		`SELECT `+missionColumns+` FROM user_missions WHERE id = ? AND user_id = ?`, id, userID)
	m, err := scanMission(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.MissionInstance{}, fmt.Errorf("%w: %s", domain.ErrMissionNotFound, id)
	}
	return m, err
}

// MarkMissionClaimed flips claimed from 0 to 1. It reports false when the
// instance was already claimed.
func (q *Queries) MarkMissionClaimed(ctx context.Context, id string, now time.Time) (bool, error) {
	res, err := q.exec(ctx,
		`UPDATE user_missions SET claimed = 1, claimed_at = ? WHERE id = ? AND claimed = 0`,
		toMillis(now), id,
	)
	if err != nil {
		return false, fmt.Errorf("claim mission %s: %w", id, err)
	}
	n, err := affected(res)
	return n == 1, err
}

// DeleteExpiredMissions removes instances that expired before the cutoff.
func (q *Queries) DeleteExpiredMissions(ctx context.Context, before time.Time) (int64, error) {
	res, err := q.exec(ctx, `DELETE FROM user_missions WHERE expires_at < ?`, toMillis(before))
	if err != nil {
		return 0, err
	}
	return affected(res)
}

func scanMission(s scanner) (domain.MissionInstance, error) {
	var m domain.MissionInstance
	var period string
	var started, expires, claimedAt int64
	var claimed int
	if err := s.Scan(&m.ID, &m.UserID, &m.MissionID, &period, &started, &expires, &claimed, &claimedAt); err != nil {
		return domain.MissionInstance{}, err
	}
	m.Period = domain.MissionPeriod(period)
	m.StartedAt = fromMillis(started)
	m.ExpiresAt = fromMillis(expires)
	m.Claimed = claimed != 0
	m.ClaimedAt = fromMillis(claimedAt)
	return m, nil
}
