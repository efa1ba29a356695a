package notification

import (
	"context"
	"errors"
	"fmt"
	"log"
)

// UserTopic returns the FCM topic for a user's devices.
func UserTopic(userID string) string {
	return "user-" + userID
}

// Service contains the business logic for notification operations
type Service struct {
	repo      Repository
	messenger Messenger
}

// NewService creates a new notification service. The messenger may be nil,
// in which case notifications are stored but never pushed.
func NewService(repo Repository, messenger Messenger) *Service {
	return &Service{repo: repo, messenger: messenger}
}

// Notify stores a notification and pushes it to the user's device topic.
// Push failures are logged and never surfaced; the stored record is the
// source of truth.
func (s *Service) Notify(ctx context.Context, userID, notificationType, message string) (*Notification, error) {
	if userID == "" {
		return nil, errors.New("user ID is required")
	}
	if message == "" {
		return nil, errors.New("message is required")
	}

	created, err := s.repo.Create(ctx, CreateNotificationParams{
		UserID:  userID,
		Type:    notificationType,
		Message: message,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	if s.messenger != nil {
		if err := s.messenger.SendToTopic(ctx, UserTopic(userID), title(notificationType), message); err != nil {
			log.Printf("Warning: failed to push notification %s to user %s: %v", created.ID, userID, err)
		}
	}

	return created, nil
}

// List returns notifications for a user, newest first. Without an explicit
// limit every row is returned; an explicit limit is capped at 100.
func (s *Service) List(ctx context.Context, userID string, limit, offset int) ([]*Notification, error) {
	if userID == "" {
		return nil, errors.New("user ID is required")
	}
	if limit < 0 {
		limit = 0
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	return s.repo.ListByUserID(ctx, userID, limit, offset)
}

// MarkRead marks a notification as read. Only the owner can mark it;
// anything else reports ErrNotificationNotFound.
func (s *Service) MarkRead(ctx context.Context, userID, notificationID string) error {
	if notificationID == "" {
		return errors.New("notification ID is required")
	}
	if userID == "" {
		return errors.New("user ID is required")
	}

	return s.repo.MarkRead(ctx, userID, notificationID)
}

func title(notificationType string) string {
	switch notificationType {
	case TypeSync:
		return "Accounts synced"
	case TypeBudgetExceeded:
		return "Budget exceeded"
	default:
		return "Finai"
	}
}
