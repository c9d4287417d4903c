package store

import (
	"context"
	"fmt"

	"github.com/hackgrid/hackgrid/internal/domain"
)

// ─── Reward Ledger ──────────────────────────────────────────────────────────

// InsertLedger appends a reward entry. Entries are never updated.
func (q *Queries) InsertLedger(ctx context.Context, e domain.LedgerEntry) error {
	_, err := q.exec(ctx,
		`INSERT INTO reward_ledger (id, user_id, source, ref, xp, coins, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.UserID, string(e.Source), e.Ref, e.XP, e.Coins, toMillis(e.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert ledger entry: %w", err)
	}
	return nil
}

// Ledger returns the user's latest entries, newest first.
func (q *Queries) Ledger(ctx context.Context, userID string, limit int) ([]domain.LedgerEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := q.query(ctx,
		`SELECT id, user_id, source, ref, xp, coins, created_at FROM reward_ledger
		 WHERE user_id = ? ORDER BY created_at DESC, id ASC LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.LedgerEntry
	for rows.Next() {
		var e domain.LedgerEntry
		var source string
		var ts int64
		if err := rows.Scan(&e.ID, &e.UserID, &source, &e.Ref, &e.XP, &e.Coins, &ts); err != nil {
			return nil, err
		}
		e.Source = domain.RewardSource(source)
		e.CreatedAt = fromMillis(ts)
		out = append(out, e)
	}
	return out, rows.Err()
}

// LedgerTotals sums the user's ledger. It matches the user's balance.
func (q *Queries) LedgerTotals(ctx context.Context, userID string) (xp, coins int64, err error) {
	err = q.queryRow(ctx,
		`SELECT COALESCE(SUM(xp), 0), COALESCE(SUM(coins), 0) FROM reward_ledger WHERE user_id = ?`,
		userID,
	).Scan(&xp, &coins)
	return xp, coins, err
}
