package engagement

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hackgrid/hackgrid/internal/domain"
	"github.com/hackgrid/hackgrid/internal/infra/metrics"
	"github.com/hackgrid/hackgrid/internal/infra/store"
)

// NotificationService queues toast notifications for level-ups, unlocks and
// mission claims. At most MaxPerDay are queued per user and UTC day; the
// rest are dropped silently.
type NotificationService struct {
	db     *store.DB
	policy domain.NotificationPolicy
}

// NewNotificationService creates a notification service with the given policy.
func NewNotificationService(db *store.DB, policy domain.NotificationPolicy) *NotificationService {
	return &NotificationService{db: db, policy: policy}
}

// Create queues a notification if policy allows it.
// Returns false if it was suppressed by the daily cap.
func (n *NotificationService) Create(ctx context.Context, notif domain.Notification) (bool, error) {
	var queued bool
	err := n.db.WithTx(ctx, func(tx *store.Tx) error {
		var err error
		queued, err = n.enqueue(ctx, tx.Queries, notif)
		return err
	})
	return queued, err
}

// Pending returns unshown notifications.
func (n *NotificationService) Pending(ctx context.Context, userID string, limit int) ([]domain.Notification, error) {
	if err := validUserID(userID); err != nil {
		return nil, err
	}
	return n.db.PendingNotifications(ctx, userID, limit)
}

// MarkShown marks a notification as shown.
func (n *NotificationService) MarkShown(ctx context.Context, userID, id string) error {
	return n.db.MarkNotificationShown(ctx, userID, id)
}

// TodayCount returns how many notifications the user got on now's UTC day.
func (n *NotificationService) TodayCount(ctx context.Context, userID string, now time.Time) (int, error) {
	return n.db.NotificationCountSince(ctx, userID, dayStart(now))
}

// enqueue runs inside an open transaction.
func (n *NotificationService) enqueue(ctx context.Context, q *store.Queries, notif domain.Notification) (bool, error) {
	if notif.CreatedAt.IsZero() {
		notif.CreatedAt = time.Now()
	}
	count, err := q.NotificationCountSince(ctx, notif.UserID, dayStart(notif.CreatedAt))
	if err != nil {
		return false, fmt.Errorf("count today: %w", err)
	}
	if count >= n.policy.MaxPerDay {
		metrics.NotificationsSuppressed.Inc()
		return false, nil
	}

	notif.ID = uuid.NewString()
	notif.Shown = false
	if err := q.InsertNotification(ctx, notif); err != nil {
		return false, err
	}
	return true, nil
}
