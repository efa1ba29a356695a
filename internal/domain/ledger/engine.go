package ledger

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

var (
	engineTracer    = otel.Tracer("finai/engine")
	engineMeter     = otel.Meter("finai/engine")
	pollCycles, _   = engineMeter.Int64Counter("engine.poll.cycles", metric.WithDescription("Poll cycles executed by source"))
	entriesFired, _ = engineMeter.Int64Counter("engine.entries.fired", metric.WithDescription("Ledger entries materialized by source"))
	pollErrors, _   = engineMeter.Int64Counter("engine.poll.errors", metric.WithDescription("Row-level errors during polling"))
)

// EngineConfig holds polling intervals for the schedule engine.
type EngineConfig struct {
	RecurringInterval time.Duration
	ScheduledInterval time.Duration
	PollTimeout       time.Duration
}

// Engine materializes recurring templates and scheduled transactions into
// the ledger. Rows are processed sequentially and are not claimed, so two
// engine instances polling the same database can double-fire; run one.
type Engine struct {
	transactions TransactionRepository
	recurring    RecurringRepository
	scheduled    ScheduledRepository
	budget       BudgetChecker
	config       EngineConfig

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewEngine(
	transactions TransactionRepository,
	recurring RecurringRepository,
	scheduled ScheduledRepository,
	budget BudgetChecker,
	config EngineConfig,
) *Engine {
	if config.RecurringInterval <= 0 {
		config.RecurringInterval = time.Minute
	}
	if config.ScheduledInterval <= 0 {
		config.ScheduledInterval = time.Minute
	}
	if config.PollTimeout <= 0 {
		config.PollTimeout = 5 * time.Minute
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Engine{
		transactions: transactions,
		recurring:    recurring,
		scheduled:    scheduled,
		budget:       budget,
		config:       config,
		ctx:          ctx,
		cancel:       cancel,
	}
}

// Start launches the two polling loops.
func (e *Engine) Start() {
	log.Printf("Engine: Starting pollers (recurring every %v, scheduled every %v)",
		e.config.RecurringInterval, e.config.ScheduledInterval)

	e.wg.Add(2)
	go e.loop("recurring", e.config.RecurringInterval, e.PollRecurring)
	go e.loop("scheduled", e.config.ScheduledInterval, e.PollScheduled)
}

func (e *Engine) loop(name string, interval time.Duration, poll func(context.Context, time.Time)) {
	defer e.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-e.ctx.Done():
			log.Printf("Engine: %s poller shutting down", name)
			return

		case now := <-ticker.C:
			// The cycle context is deliberately not derived from e.ctx:
			// Shutdown must let an in-flight poll finish its writes and
			// only prevent the next cycle from starting.
			ctx, cancel := context.WithTimeout(context.Background(), e.config.PollTimeout)
			poll(ctx, now)
			cancel()
		}
	}
}

// PollRecurring fires every template whose cursor is due and advances it by
// exactly one interval. A template that missed several intervals catches up
// one occurrence per poll rather than bursting.
func (e *Engine) PollRecurring(ctx context.Context, now time.Time) {
	ctx, span := engineTracer.Start(ctx, "engine.PollRecurring")
	defer span.End()

	pollCycles.Add(ctx, 1, metric.WithAttributes(attribute.String("source", "recurring")))

	due, err := e.recurring.ListDue(ctx, now)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Printf("Engine: Failed to list due recurring templates: %v", err)
		return
	}

	for _, template := range due {
		if err := e.fireRecurring(ctx, template); err != nil {
			pollErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("source", "recurring")))
			log.Printf("Engine: Failed to fire recurring template %s: %v", template.ID, err)
			continue
		}
		entriesFired.Add(ctx, 1, metric.WithAttributes(attribute.String("source", "recurring")))
	}
}

func (e *Engine) fireRecurring(ctx context.Context, template *RecurringTemplate) error {
	transaction := &LedgerTransaction{
		ID:          uuid.NewString(),
		OwnerID:     template.OwnerID,
		AccountID:   template.AccountID,
		CategoryID:  template.CategoryID,
		Type:        template.Type,
		Description: template.Description,
		Amount:      template.Amount,
		Currency:    template.Currency,
		Date:        template.NextOccurrence,
	}

	if err := e.transactions.Insert(ctx, transaction); err != nil {
		return err
	}

	if err := e.budget.Check(ctx, template.OwnerID, template.CategoryID); err != nil {
		log.Printf("Engine: Budget check failed for user %s: %v", template.OwnerID, err)
	}

	next := template.NextOccurrence.AddDate(0, 0, template.IntervalDays)
	return e.recurring.Advance(ctx, template.ID, next)
}

// PollScheduled fires every due one-shot transaction and deletes it. The
// delete runs only after a successful insert, so a crash in between
// replays the row on the next poll (at-least-once).
func (e *Engine) PollScheduled(ctx context.Context, now time.Time) {
	ctx, span := engineTracer.Start(ctx, "engine.PollScheduled")
	defer span.End()

	pollCycles.Add(ctx, 1, metric.WithAttributes(attribute.String("source", "scheduled")))

	due, err := e.scheduled.ListDue(ctx, now)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Printf("Engine: Failed to list due scheduled transactions: %v", err)
		return
	}

	for _, scheduled := range due {
		if err := e.fireScheduled(ctx, scheduled); err != nil {
			pollErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("source", "scheduled")))
			log.Printf("Engine: Failed to fire scheduled transaction %s: %v", scheduled.ID, err)
			continue
		}
		entriesFired.Add(ctx, 1, metric.WithAttributes(attribute.String("source", "scheduled")))
	}
}

func (e *Engine) fireScheduled(ctx context.Context, scheduled *ScheduledTransaction) error {
	transaction := &LedgerTransaction{
		ID:          uuid.NewString(),
		OwnerID:     scheduled.OwnerID,
		AccountID:   scheduled.AccountID,
		CategoryID:  scheduled.CategoryID,
		Type:        scheduled.Type,
		Description: scheduled.Description,
		Amount:      scheduled.Amount,
		Currency:    scheduled.Currency,
		Date:        scheduled.Date,
	}

	if err := e.transactions.Insert(ctx, transaction); err != nil {
		return err
	}

	if err := e.budget.Check(ctx, scheduled.OwnerID, scheduled.CategoryID); err != nil {
		log.Printf("Engine: Budget check failed for user %s: %v", scheduled.OwnerID, err)
	}

	return e.scheduled.Delete(ctx, scheduled.ID)
}

// Shutdown stops both pollers and waits for any in-flight poll.
func (e *Engine) Shutdown(timeout time.Duration) {
	log.Println("Engine: Initiating graceful shutdown...")

	e.cancel()

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Println("Engine: Pollers stopped gracefully")
	case <-time.After(timeout):
		log.Println("Engine: Timeout waiting for pollers to stop")
	}
}
