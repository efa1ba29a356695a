package budget

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"finai/internal/domain/notification"
)

// MockBudgetRepo implements Repository
type MockBudgetRepo struct {
	GetByCategoryFunc func(ctx context.Context, ownerID, categoryID string) (*Budget, error)
}

func (m *MockBudgetRepo) GetByCategory(ctx context.Context, ownerID, categoryID string) (*Budget, error) {
	if m.GetByCategoryFunc != nil {
		return m.GetByCategoryFunc(ctx, ownerID, categoryID)
	}
	return nil, nil
}

// MockSummer implements TransactionSummer
type MockSummer struct {
	SumByCategoryFunc func(ctx context.Context, ownerID, categoryID string) (decimal.Decimal, error)
}

func (m *MockSummer) SumByCategory(ctx context.Context, ownerID, categoryID string) (decimal.Decimal, error) {
	if m.SumByCategoryFunc != nil {
		return m.SumByCategoryFunc(ctx, ownerID, categoryID)
	}
	return decimal.Zero, nil
}

// MockNotificationRepo implements notification.Repository
type MockNotificationRepo struct {
	CreateFunc func(ctx context.Context, params notification.CreateNotificationParams) (*notification.Notification, error)
}

func (m *MockNotificationRepo) Create(ctx context.Context, params notification.CreateNotificationParams) (*notification.Notification, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, params)
	}
	return &notification.Notification{ID: "n-1"}, nil
}

func (m *MockNotificationRepo) ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*notification.Notification, error) {
	return nil, nil
}

func (m *MockNotificationRepo) MarkRead(ctx context.Context, userID, notificationID string) error {
	return nil
}

func strPtr(s string) *string { return &s }

func budgetOf(amount string) *MockBudgetRepo {
	return &MockBudgetRepo{
		GetByCategoryFunc: func(ctx context.Context, ownerID, categoryID string) (*Budget, error) {
			return &Budget{
				ID:         "b-1",
				OwnerID:    ownerID,
				CategoryID: categoryID,
				Amount:     decimal.RequireFromString(amount),
			}, nil
		},
	}
}

func summerOf(total string) *MockSummer {
	return &MockSummer{
		SumByCategoryFunc: func(ctx context.Context, ownerID, categoryID string) (decimal.Decimal, error) {
			return decimal.RequireFromString(total), nil
		},
	}
}

func TestCheck_Exceeded(t *testing.T) {
	notified := 0
	var gotParams notification.CreateNotificationParams
	repo := &MockNotificationRepo{
		CreateFunc: func(ctx context.Context, params notification.CreateNotificationParams) (*notification.Notification, error) {
			notified++
			gotParams = params
			return &notification.Notification{ID: "n-1"}, nil
		},
	}

	m := NewMonitor(budgetOf("500.00"), summerOf("612.34"), notification.NewService(repo, nil))

	if err := m.Check(context.Background(), "user-1", strPtr("groceries")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if notified != 1 {
		t.Fatalf("expected 1 notification, got %d", notified)
	}
	if gotParams.Type != notification.TypeBudgetExceeded {
		t.Errorf("expected budget_exceeded type, got %q", gotParams.Type)
	}
}

func TestCheck_ExactlyAtLimitDoesNotNotify(t *testing.T) {
	notified := 0
	repo := &MockNotificationRepo{
		CreateFunc: func(ctx context.Context, params notification.CreateNotificationParams) (*notification.Notification, error) {
			notified++
			return &notification.Notification{ID: "n-1"}, nil
		},
	}

	m := NewMonitor(budgetOf("500.00"), summerOf("500.00"), notification.NewService(repo, nil))

	if err := m.Check(context.Background(), "user-1", strPtr("groceries")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if notified != 0 {
		t.Errorf("expected no notification at exactly the limit, got %d", notified)
	}
}

func TestCheck_NilCategory(t *testing.T) {
	budgets := &MockBudgetRepo{
		GetByCategoryFunc: func(ctx context.Context, ownerID, categoryID string) (*Budget, error) {
			t.Error("expected no budget lookup for nil category")
			return nil, nil
		},
	}

	m := NewMonitor(budgets, &MockSummer{}, notification.NewService(&MockNotificationRepo{}, nil))

	if err := m.Check(context.Background(), "user-1", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.Check(context.Background(), "user-1", strPtr("")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCheck_NoBudget(t *testing.T) {
	summed := false
	summer := &MockSummer{
		SumByCategoryFunc: func(ctx context.Context, ownerID, categoryID string) (decimal.Decimal, error) {
			summed = true
			return decimal.Zero, nil
		},
	}

	m := NewMonitor(&MockBudgetRepo{}, summer, notification.NewService(&MockNotificationRepo{}, nil))

	if err := m.Check(context.Background(), "user-1", strPtr("groceries")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summed {
		t.Error("expected no sum query without a budget")
	}
}

func TestCheck_EveryQualifyingCallNotifies(t *testing.T) {
	notified := 0
	repo := &MockNotificationRepo{
		CreateFunc: func(ctx context.Context, params notification.CreateNotificationParams) (*notification.Notification, error) {
			notified++
			return &notification.Notification{ID: "n-1"}, nil
		},
	}

	m := NewMonitor(budgetOf("100.00"), summerOf("150.00"), notification.NewService(repo, nil))

	for i := 0; i < 3; i++ {
		if err := m.Check(context.Background(), "user-1", strPtr("groceries")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if notified != 3 {
		t.Errorf("expected a notification per qualifying check, got %d", notified)
	}
}

func TestCheck_RepoFailure(t *testing.T) {
	budgets := &MockBudgetRepo{
		GetByCategoryFunc: func(ctx context.Context, ownerID, categoryID string) (*Budget, error) {
			return nil, errors.New("db down")
		},
	}

	m := NewMonitor(budgets, &MockSummer{}, notification.NewService(&MockNotificationRepo{}, nil))

	if err := m.Check(context.Background(), "user-1", strPtr("groceries")); err == nil {
		t.Fatal("expected error when budget lookup fails")
	}
}
