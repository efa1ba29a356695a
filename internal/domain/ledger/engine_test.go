package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

// MockTransactionRepo implements TransactionRepository
type MockTransactionRepo struct {
	InsertFunc        func(ctx context.Context, transaction *LedgerTransaction) error
	ListByOwnerFunc   func(ctx context.Context, ownerID string, limit, offset int) ([]*LedgerTransaction, error)
	SumByCategoryFunc func(ctx context.Context, ownerID, categoryID string) (decimal.Decimal, error)
}

func (m *MockTransactionRepo) Insert(ctx context.Context, transaction *LedgerTransaction) error {
	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, transaction)
	}
	return nil
}

func (m *MockTransactionRepo) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]*LedgerTransaction, error) {
	if m.ListByOwnerFunc != nil {
		return m.ListByOwnerFunc(ctx, ownerID, limit, offset)
	}
	return nil, nil
}

func (m *MockTransactionRepo) SumByCategory(ctx context.Context, ownerID, categoryID string) (decimal.Decimal, error) {
	if m.SumByCategoryFunc != nil {
		return m.SumByCategoryFunc(ctx, ownerID, categoryID)
	}
	return decimal.Zero, nil
}

// MockRecurringRepo implements RecurringRepository
type MockRecurringRepo struct {
	ListDueFunc func(ctx context.Context, now time.Time) ([]*RecurringTemplate, error)
	AdvanceFunc func(ctx context.Context, id string, next time.Time) error
}

func (m *MockRecurringRepo) ListDue(ctx context.Context, now time.Time) ([]*RecurringTemplate, error) {
	if m.ListDueFunc != nil {
		return m.ListDueFunc(ctx, now)
	}
	return nil, nil
}

func (m *MockRecurringRepo) Advance(ctx context.Context, id string, next time.Time) error {
	if m.AdvanceFunc != nil {
		return m.AdvanceFunc(ctx, id, next)
	}
	return nil
}

// MockScheduledRepo implements ScheduledRepository
type MockScheduledRepo struct {
	ListDueFunc func(ctx context.Context, now time.Time) ([]*ScheduledTransaction, error)
	DeleteFunc  func(ctx context.Context, id string) error
}

func (m *MockScheduledRepo) ListDue(ctx context.Context, now time.Time) ([]*ScheduledTransaction, error) {
	if m.ListDueFunc != nil {
		return m.ListDueFunc(ctx, now)
	}
	return nil, nil
}

func (m *MockScheduledRepo) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

// MockBudgetChecker implements BudgetChecker
type MockBudgetChecker struct {
	CheckFunc func(ctx context.Context, ownerID string, categoryID *string) error
}

func (m *MockBudgetChecker) Check(ctx context.Context, ownerID string, categoryID *string) error {
	if m.CheckFunc != nil {
		return m.CheckFunc(ctx, ownerID, categoryID)
	}
	return nil
}

func catPtr(s string) *string { return &s }

func newTestEngine(transactions TransactionRepository, recurring RecurringRepository, scheduled ScheduledRepository, budget BudgetChecker) *Engine {
	return NewEngine(transactions, recurring, scheduled, budget, EngineConfig{
		RecurringInterval: time.Minute,
		ScheduledInterval: time.Minute,
		PollTimeout:       time.Minute,
	})
}

func TestPollRecurring(t *testing.T) {
	now := time.Date(2025, 8, 15, 10, 0, 0, 0, time.UTC)
	due := time.Date(2025, 8, 15, 0, 0, 0, 0, time.UTC)

	template := &RecurringTemplate{
		ID:             "r-1",
		OwnerID:        "user-1",
		CategoryID:     catPtr("rent"),
		Description:    "Monthly rent",
		Amount:         decimal.RequireFromString("-2500.00"),
		Currency:       "BRL",
		IntervalDays:   30,
		NextOccurrence: due,
	}

	var inserted *LedgerTransaction
	transactions := &MockTransactionRepo{
		InsertFunc: func(ctx context.Context, transaction *LedgerTransaction) error {
			inserted = transaction
			return nil
		},
	}

	var advancedTo time.Time
	recurring := &MockRecurringRepo{
		ListDueFunc: func(ctx context.Context, listNow time.Time) ([]*RecurringTemplate, error) {
			return []*RecurringTemplate{template}, nil
		},
		AdvanceFunc: func(ctx context.Context, id string, next time.Time) error {
			if id != "r-1" {
				t.Errorf("expected advance for r-1, got %q", id)
			}
			advancedTo = next
			return nil
		},
	}

	checked := 0
	budget := &MockBudgetChecker{
		CheckFunc: func(ctx context.Context, ownerID string, categoryID *string) error {
			checked++
			return nil
		},
	}

	e := newTestEngine(transactions, recurring, &MockScheduledRepo{}, budget)
	e.PollRecurring(context.Background(), now)

	if inserted == nil {
		t.Fatal("expected a ledger transaction")
	}
	if !inserted.Date.Equal(due) {
		t.Errorf("expected transaction dated at the occurrence, got %v", inserted.Date)
	}
	if inserted.ID == "" {
		t.Error("expected a generated transaction ID")
	}
	if !inserted.Amount.Equal(template.Amount) {
		t.Errorf("expected template amount, got %s", inserted.Amount)
	}
	if checked != 1 {
		t.Errorf("expected 1 budget check, got %d", checked)
	}

	wantNext := due.AddDate(0, 0, 30)
	if !advancedTo.Equal(wantNext) {
		t.Errorf("expected cursor advanced to %v, got %v", wantNext, advancedTo)
	}
}

func TestPollRecurring_OneIntervalPerPoll(t *testing.T) {
	// Cursor three intervals in the past still advances only once.
	now := time.Date(2025, 8, 15, 10, 0, 0, 0, time.UTC)
	due := now.AddDate(0, 0, -90)

	template := &RecurringTemplate{
		ID:             "r-1",
		OwnerID:        "user-1",
		Amount:         decimal.RequireFromString("-10.00"),
		IntervalDays:   30,
		NextOccurrence: due,
	}

	inserts := 0
	transactions := &MockTransactionRepo{
		InsertFunc: func(ctx context.Context, transaction *LedgerTransaction) error {
			inserts++
			return nil
		},
	}

	var advancedTo time.Time
	recurring := &MockRecurringRepo{
		ListDueFunc: func(ctx context.Context, listNow time.Time) ([]*RecurringTemplate, error) {
			return []*RecurringTemplate{template}, nil
		},
		AdvanceFunc: func(ctx context.Context, id string, next time.Time) error {
			advancedTo = next
			return nil
		},
	}

	e := newTestEngine(transactions, recurring, &MockScheduledRepo{}, &MockBudgetChecker{})
	e.PollRecurring(context.Background(), now)

	if inserts != 1 {
		t.Errorf("expected exactly one insert, got %d", inserts)
	}
	if !advancedTo.Equal(due.AddDate(0, 0, 30)) {
		t.Errorf("expected cursor advanced by one interval, got %v", advancedTo)
	}
}

func TestPollRecurring_InsertFailureSkipsAdvance(t *testing.T) {
	template := &RecurringTemplate{
		ID:             "r-1",
		OwnerID:        "user-1",
		IntervalDays:   7,
		NextOccurrence: time.Now().UTC(),
	}

	transactions := &MockTransactionRepo{
		InsertFunc: func(ctx context.Context, transaction *LedgerTransaction) error {
			return errors.New("db down")
		},
	}

	advanced := 0
	recurring := &MockRecurringRepo{
		ListDueFunc: func(ctx context.Context, now time.Time) ([]*RecurringTemplate, error) {
			return []*RecurringTemplate{template}, nil
		},
		AdvanceFunc: func(ctx context.Context, id string, next time.Time) error {
			advanced++
			return nil
		},
	}

	e := newTestEngine(transactions, recurring, &MockScheduledRepo{}, &MockBudgetChecker{})
	e.PollRecurring(context.Background(), time.Now().UTC())

	if advanced != 0 {
		t.Errorf("expected no cursor advance after failed insert, got %d", advanced)
	}
}

func TestPollRecurring_RowErrorDoesNotAbortCycle(t *testing.T) {
	broken := &RecurringTemplate{ID: "r-bad", OwnerID: "user-1", IntervalDays: 7, NextOccurrence: time.Now().UTC()}
	healthy := &RecurringTemplate{ID: "r-ok", OwnerID: "user-2", IntervalDays: 7, NextOccurrence: time.Now().UTC()}

	var insertedOwners []string
	transactions := &MockTransactionRepo{
		InsertFunc: func(ctx context.Context, transaction *LedgerTransaction) error {
			if transaction.OwnerID == "user-1" {
				return errors.New("constraint violation")
			}
			insertedOwners = append(insertedOwners, transaction.OwnerID)
			return nil
		},
	}

	recurring := &MockRecurringRepo{
		ListDueFunc: func(ctx context.Context, now time.Time) ([]*RecurringTemplate, error) {
			return []*RecurringTemplate{broken, healthy}, nil
		},
	}

	e := newTestEngine(transactions, recurring, &MockScheduledRepo{}, &MockBudgetChecker{})
	e.PollRecurring(context.Background(), time.Now().UTC())

	if len(insertedOwners) != 1 || insertedOwners[0] != "user-2" {
		t.Errorf("expected the healthy row to fire, got %v", insertedOwners)
	}
}

func TestPollScheduled(t *testing.T) {
	bookingDate := time.Date(2025, 8, 15, 0, 0, 0, 0, time.UTC)
	executeAt := time.Date(2025, 8, 15, 9, 30, 0, 0, time.UTC)

	scheduled := &ScheduledTransaction{
		ID:          "s-1",
		OwnerID:     "user-1",
		AccountID:   "acc-1",
		CategoryID:  catPtr("utilities"),
		Type:        TypeExpense,
		Description: "Electricity bill",
		Amount:      decimal.RequireFromString("-180.00"),
		Currency:    "BRL",
		Date:        bookingDate,
		ExecuteAt:   executeAt,
	}

	var inserted *LedgerTransaction
	transactions := &MockTransactionRepo{
		InsertFunc: func(ctx context.Context, transaction *LedgerTransaction) error {
			inserted = transaction
			return nil
		},
	}

	deleted := []string{}
	scheduledRepo := &MockScheduledRepo{
		ListDueFunc: func(ctx context.Context, now time.Time) ([]*ScheduledTransaction, error) {
			return []*ScheduledTransaction{scheduled}, nil
		},
		DeleteFunc: func(ctx context.Context, id string) error {
			if inserted == nil {
				t.Error("expected delete to run only after insert")
			}
			deleted = append(deleted, id)
			return nil
		},
	}

	e := newTestEngine(transactions, &MockRecurringRepo{}, scheduledRepo, &MockBudgetChecker{})
	e.PollScheduled(context.Background(), time.Now().UTC())

	if inserted == nil {
		t.Fatal("expected a ledger transaction")
	}
	if !inserted.Date.Equal(bookingDate) {
		t.Errorf("expected transaction to carry the booking date, got %v", inserted.Date)
	}
	if inserted.AccountID != "acc-1" || inserted.Type != TypeExpense {
		t.Errorf("expected account and type carried over, got %+v", inserted)
	}
	if len(deleted) != 1 || deleted[0] != "s-1" {
		t.Errorf("expected s-1 deleted after firing, got %v", deleted)
	}
}

func TestPollScheduled_InsertFailureKeepsRow(t *testing.T) {
	scheduled := &ScheduledTransaction{ID: "s-1", OwnerID: "user-1", ExecuteAt: time.Now().UTC()}

	transactions := &MockTransactionRepo{
		InsertFunc: func(ctx context.Context, transaction *LedgerTransaction) error {
			return errors.New("db down")
		},
	}

	deletes := 0
	scheduledRepo := &MockScheduledRepo{
		ListDueFunc: func(ctx context.Context, now time.Time) ([]*ScheduledTransaction, error) {
			return []*ScheduledTransaction{scheduled}, nil
		},
		DeleteFunc: func(ctx context.Context, id string) error {
			deletes++
			return nil
		},
	}

	e := newTestEngine(transactions, &MockRecurringRepo{}, scheduledRepo, &MockBudgetChecker{})
	e.PollScheduled(context.Background(), time.Now().UTC())

	if deletes != 0 {
		t.Errorf("expected row kept after failed insert, got %d deletes", deletes)
	}
}

func TestPollScheduled_BudgetFailureStillDeletes(t *testing.T) {
	scheduled := &ScheduledTransaction{ID: "s-1", OwnerID: "user-1", CategoryID: catPtr("food"), ExecuteAt: time.Now().UTC()}

	deletes := 0
	scheduledRepo := &MockScheduledRepo{
		ListDueFunc: func(ctx context.Context, now time.Time) ([]*ScheduledTransaction, error) {
			return []*ScheduledTransaction{scheduled}, nil
		},
		DeleteFunc: func(ctx context.Context, id string) error {
			deletes++
			return nil
		},
	}

	budget := &MockBudgetChecker{
		CheckFunc: func(ctx context.Context, ownerID string, categoryID *string) error {
			return errors.New("budget lookup failed")
		},
	}

	e := newTestEngine(&MockTransactionRepo{}, &MockRecurringRepo{}, scheduledRepo, budget)
	e.PollScheduled(context.Background(), time.Now().UTC())

	if deletes != 1 {
		t.Errorf("expected row deleted despite budget failure, got %d deletes", deletes)
	}
}

func TestEngineShutdownWaitsForInFlightPoll(t *testing.T) {
	template := &RecurringTemplate{ID: "r-1", OwnerID: "user-1", IntervalDays: 7, NextOccurrence: time.Now().UTC()}

	insertStarted := make(chan struct{}, 1)
	insertResult := make(chan error, 1)
	transactions := &MockTransactionRepo{
		InsertFunc: func(ctx context.Context, transaction *LedgerTransaction) error {
			select {
			case insertStarted <- struct{}{}:
			default:
			}
			// A write in flight when Shutdown is called must run to
			// completion, not die with the engine context.
			var err error
			select {
			case <-ctx.Done():
				err = ctx.Err()
			case <-time.After(300 * time.Millisecond):
			}
			select {
			case insertResult <- err:
			default:
			}
			return err
		},
	}

	recurring := &MockRecurringRepo{
		ListDueFunc: func(ctx context.Context, now time.Time) ([]*RecurringTemplate, error) {
			return []*RecurringTemplate{template}, nil
		},
	}

	e := NewEngine(transactions, recurring, &MockScheduledRepo{}, &MockBudgetChecker{}, EngineConfig{
		RecurringInterval: 10 * time.Millisecond,
		ScheduledInterval: time.Minute,
		PollTimeout:       time.Minute,
	})
	e.Start()

	select {
	case <-insertStarted:
	case <-time.After(2 * time.Second):
		t.Fatal("poll never started")
	}

	e.Shutdown(5 * time.Second)

	select {
	case err := <-insertResult:
		if err != nil {
			t.Errorf("in-flight insert was aborted by shutdown: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("insert never finished")
	}
}

func TestEngineShutdown(t *testing.T) {
	e := newTestEngine(&MockTransactionRepo{}, &MockRecurringRepo{}, &MockScheduledRepo{}, &MockBudgetChecker{})
	e.Start()

	done := make(chan struct{})
	go func() {
		e.Shutdown(2 * time.Second)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("engine did not shut down in time")
	}
}
