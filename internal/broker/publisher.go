package broker

import (
	"context"
	"time"

	"github.com/YarKhan02/Workshop-sub000/internal/infra"
	"github.com/YarKhan02/Workshop-sub000/internal/metrics"
	"github.com/YarKhan02/Workshop-sub000/internal/model"

	"github.com/rs/zerolog/log"
)

const publishTimeout = 5 * time.Second

type eventSink interface {
	PublishEvent(ctx context.Context, key string, event interface{}) error
}

// LedgerPublisher turns committed ledger changes into Kafka events.
// While the broker is down the circuit breaker fast-fails and events are
// dropped; the database stays the source of truth.
type LedgerPublisher struct {
	sink eventSink
	cb   *infra.Breaker
}

func NewLedgerPublisher(sink eventSink, cb *infra.Breaker) *LedgerPublisher {
	return &LedgerPublisher{sink: sink, cb: cb}
}

// Breaker exposes the circuit breaker for health reporting.
func (p *LedgerPublisher) Breaker() *infra.Breaker { return p.cb }

// NewPublisherBreaker builds the breaker guarding event publishing. State
// changes are logged and exported as metrics.
func NewPublisherBreaker(cfg infra.BreakerConfig) *infra.Breaker {
	if cfg.Name == "" {
		cfg.Name = "kafka"
	}
	cfg.OnTransition = observeBreaker
	metrics.BreakerState.WithLabelValues(cfg.Name).Set(float64(infra.BreakerClosed))
	return infra.NewBreaker(cfg)
}

func observeBreaker(name string, from, to infra.BreakerState) {
	metrics.BreakerState.WithLabelValues(name).Set(float64(to))
	metrics.BreakerTransitionsTotal.WithLabelValues(name, from.String(), to.String()).Inc()
	ev := log.Info()
	if to == infra.BreakerOpen {
		ev = log.Warn()
	}
	ev.Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
		Msg("broker: circuit breaker state changed")
}

func (p *LedgerPublisher) StockMoved(ctx context.Context, m *model.StockMovement) {
	if m == nil {
		return
	}
	ev := StockMovedEvent{
		Type:             EventStockMoved,
		MovementID:       m.ID.String(),
		ProductVariantID: m.ProductVariantID.String(),
		ChangeAmount:     m.ChangeAmount,
		Reason:           m.Reason,
		QuantityBefore:   m.QuantityBefore,
		QuantityAfter:    m.QuantityAfter,
		ReferenceID:      m.ReferenceID,
		CreatedBy:        m.CreatedBy,
		OccurredAt:       m.CreatedAt,
	}
	p.publish(ctx, EventStockMoved, m.ProductVariantID.String(), ev)
}

func (p *LedgerPublisher) SlotChanged(ctx context.Context, action string, date time.Time, rec *model.DailyAvailability) {
	day := date.Format(model.DateLayout)
	ev := SlotChangedEvent{
		Type:       EventSlotChanged,
		Action:     action,
		Date:       day,
		OccurredAt: time.Now().UTC(),
	}
	if rec != nil {
		ev.TotalSlots = rec.TotalSlots
		ev.AvailableSlots = rec.AvailableSlots
		ev.IsAvailable = rec.IsAvailable
	}
	p.publish(ctx, EventSlotChanged, day, ev)
}

func (p *LedgerPublisher) publish(ctx context.Context, eventType, key string, ev interface{}) {
	// Detached from the request so a finished handler does not cancel the write.
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	err := p.cb.Do(func() error {
		return p.sink.PublishEvent(pctx, key, ev)
	})
	if err != nil {
		metrics.EventsPublishFailedTotal.WithLabelValues(eventType).Inc()
		log.Warn().Err(err).Str("type", eventType).Str("key", key).Msg("broker: event dropped")
	}
}
