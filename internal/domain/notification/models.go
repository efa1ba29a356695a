// Package notification stores user notifications and pushes them via FCM.
package notification

import (
	"errors"
	"time"
)

// Notification types
const (
	TypeSync           = "sync"
	TypeBudgetExceeded = "budget_exceeded"
)

// Domain errors
var (
	ErrNotificationNotFound = errors.New("notification not found")
)

// Notification is a stored notification record.
type Notification struct {
	ID        string     `json:"id"`
	UserID    string     `json:"-"`
	Type      string     `json:"type"`
	Message   string     `json:"message"`
	ReadAt    *time.Time `json:"readAt"`
	CreatedAt time.Time  `json:"createdAt"`
}

// CreateNotificationParams contains parameters for storing a notification.
type CreateNotificationParams struct {
	UserID  string
	Type    string
	Message string
}
