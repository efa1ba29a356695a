package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"finai/internal/domain/notification"
)

type NotificationRepository struct {
	db *DB
}

func NewNotificationRepository(db *DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, params notification.CreateNotificationParams) (*notification.Notification, error) {
	query := `
		INSERT INTO notifications (id, user_id, type, message)
		VALUES ($1, $2, $3, $4)
		RETURNING id, user_id, type, message, read_at, created_at
	`

	var n notification.Notification
	var readAt sql.NullTime

	err := r.db.QueryRowContext(ctx, query, uuid.NewString(), params.UserID, params.Type, params.Message).Scan(
		&n.ID, &n.UserID, &n.Type, &n.Message, &readAt, &n.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	if readAt.Valid {
		n.ReadAt = &readAt.Time
	}

	return &n, nil
}

// ListByUserID returns the user's notifications newest first. A
// non-positive limit returns every row.
func (r *NotificationRepository) ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*notification.Notification, error) {
	query := `
		SELECT id, user_id, type, message, read_at, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		OFFSET $2
	`
	args := []any{userID, offset}
	if limit > 0 {
		query += ` LIMIT $3`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*notification.Notification
	for rows.Next() {
		var n notification.Notification
		var readAt sql.NullTime

		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Message, &readAt, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}

		if readAt.Valid {
			n.ReadAt = &readAt.Time
		}

		notifications = append(notifications, &n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate notifications: %w", err)
	}

	return notifications, nil
}

// MarkRead sets the read timestamp. The owner filter makes a foreign
// notification look exactly like a missing one.
func (r *NotificationRepository) MarkRead(ctx context.Context, userID, notificationID string) error {
	query := `
		UPDATE notifications
		SET read_at = COALESCE(read_at, NOW())
		WHERE id = $1 AND user_id = $2
	`

	result, err := r.db.ExecContext(ctx, query, notificationID, userID)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check notification update: %w", err)
	}
	if affected == 0 {
		return notification.ErrNotificationNotFound
	}

	return nil
}
