package notification

import "context"

// Repository defines the interface for notification data access.
// Defined in the domain layer, implemented in the infrastructure layer.
type Repository interface {
	Create(ctx context.Context, params CreateNotificationParams) (*Notification, error)
	ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*Notification, error)
	MarkRead(ctx context.Context, userID, notificationID string) error
}
