package service

import (
	"context"
	"time"

	"github.com/YarKhan02/Workshop-sub000/internal/model"
)

// Slot actions reported to EventPublisher.SlotChanged.
const (
	SlotBooked     = "booked"
	SlotReleased   = "released"
	SlotReconciled = "reconciled"
)

// EventPublisher receives ledger changes after their transaction committed.
// Publishing is best-effort: implementations swallow and log their own errors.
type EventPublisher interface {
	StockMoved(ctx context.Context, m *model.StockMovement)
	SlotChanged(ctx context.Context, action string, date time.Time, rec *model.DailyAvailability)
}

// JobDispatcher enqueues background work (see internal/worker).
type JobDispatcher interface {
	EnqueueAvailabilitySync(ctx context.Context, dates []time.Time) error
	EnqueueStockAlert(ctx context.Context, v *model.ProductVariant) error
}

type noopPublisher struct{}

func (noopPublisher) StockMoved(context.Context, *model.StockMovement) {}
func (noopPublisher) SlotChanged(context.Context, string, time.Time, *model.DailyAvailability) {
}

func publisherOrNoop(p EventPublisher) EventPublisher {
	if p == nil {
		return noopPublisher{}
	}
	return p
}
