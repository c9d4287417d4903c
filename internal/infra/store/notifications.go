package store

import (
	"context"
	"fmt"
	"time"

	"github.com/hackgrid/hackgrid/internal/domain"
)

// ─── Notifications ──────────────────────────────────────────────────────────

// InsertNotification queues a notification.
func (q *Queries) InsertNotification(ctx context.Context, n domain.Notification) error {
	_, err := q.exec(ctx,
		`INSERT INTO notifications (id, user_id, type, title, body, created_at, shown)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.UserID, string(n.Type), n.Title, n.Body, toMillis(n.CreatedAt), boolInt(n.Shown),
	)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

// NotificationCountSince counts the user's notifications created at or after since.
func (q *Queries) NotificationCountSince(ctx context.Context, userID string, since time.Time) (int, error) {
	var n int
	err := q.queryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = ? AND created_at >= ?`,
		userID, toMillis(since),
	).Scan(&n)
	return n, err
}

// PendingNotifications returns unshown notifications, oldest first.
func (q *Queries) PendingNotifications(ctx context.Context, userID string, limit int) ([]domain.Notification, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := q.query(ctx,
		`SELECT id, user_id, type, title, body, created_at, shown FROM notifications
		 WHERE user_id = ? AND shown = 0 ORDER BY created_at ASC, id ASC LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Notification
	for rows.Next() {
		var n domain.Notification
		var typ string
		var ts int64
		var shown int
		if err := rows.Scan(&n.ID, &n.UserID, &typ, &n.Title, &n.Body, &ts, &shown); err != nil {
			return nil, err
		}
		n.Type = domain.NotificationType(typ)
		n.CreatedAt = fromMillis(ts)
		n.Shown = shown != 0
		out = append(out, n)
	}
	return out, rows.Err()
}

// MarkNotificationShown marks one of the user's notifications as displayed.
func (q *Queries) MarkNotificationShown(ctx context.Context, userID, id string) error {
	res, err := q.exec(ctx,
		`UPDATE notifications SET shown = 1 WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return err
	}
	n, err := affected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrNotificationNotFound, id)
	}
	return nil
}
