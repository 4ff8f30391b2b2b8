package worker

// Background goroutine that periodically re-derives the ledgers' cached
// counters: availability for the upcoming days and variant quantities from
// their movement history.

import (
	"context"
	"time"

	"github.com/YarKhan02/Workshop-sub000/internal/model"
	"github.com/YarKhan02/Workshop-sub000/internal/repository"
	"github.com/YarKhan02/Workshop-sub000/internal/service"

	"github.com/rs/zerolog/log"
)

// ReconcileCronConfig holds all dependencies for the reconcile goroutine.
type ReconcileCronConfig struct {
	Availability service.AvailabilityService
	Ledger       service.StockLedgerService
	Products     repository.ProductRepository
	Interval     time.Duration
	DaysAhead    int
}

// ReconcileResult summarizes one pass.
type ReconcileResult struct {
	DaysCorrected     int
	VariantsChecked   int
	VariantsCorrected int
}

// StartReconcileCron ticks every cfg.Interval until ctx is cancelled.
func StartReconcileCron(ctx context.Context, cfg ReconcileCronConfig) {
	if cfg.Interval <= 0 {
		cfg.Interval = 15 * time.Minute
	}
	go func() {
		ticker := time.NewTicker(cfg.Interval)
		defer ticker.Stop()

		log.Info().Dur("interval", cfg.Interval).Msg("reconcile_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("reconcile_cron: shutting down")
				return
			case <-ticker.C:
				RunReconcile(ctx, cfg, time.Now())
			}
		}
	}()
}

// RunReconcile performs one pass. Errors are logged and the pass continues
// with the next item.
func RunReconcile(ctx context.Context, cfg ReconcileCronConfig, now time.Time) ReconcileResult {
	var res ReconcileResult

	if cfg.Availability != nil {
		days := cfg.DaysAhead
		if days < 0 {
			days = 0
		}
		start := model.NormalizeDate(now)
		dates := make([]time.Time, 0, days+1)
		for i := 0; i <= days; i++ {
			dates = append(dates, start.AddDate(0, 0, i))
		}
		for len(dates) > 0 {
			n := len(dates)
			if n > service.MaxSyncDates {
				n = service.MaxSyncDates
			}
			changed, err := cfg.Availability.SyncWithActual(ctx, dates[:n]...)
			if err != nil {
				log.Error().Err(err).Msg("reconcile_cron: availability sync failed")
			}
			res.DaysCorrected += changed
			dates = dates[n:]
		}
	}

	if cfg.Ledger != nil && cfg.Products != nil {
		ids, err := cfg.Products.ListVariantIDs(ctx)
		if err != nil {
			log.Error().Err(err).Msg("reconcile_cron: failed to list variants")
			return res
		}
		for _, id := range ids {
			if ctx.Err() != nil {
				return res
			}
			r, err := cfg.Ledger.RecomputeQuantityFromHistory(ctx, id)
			if err != nil {
				log.Error().Err(err).Str("variant_id", id.String()).Msg("reconcile_cron: recompute failed")
				continue
			}
			res.VariantsChecked++
			if r.Corrected {
				res.VariantsCorrected++
			}
		}
	}

	if res.DaysCorrected > 0 || res.VariantsCorrected > 0 {
		log.Warn().
			Int("days_corrected", res.DaysCorrected).
			Int("variants_corrected", res.VariantsCorrected).
			Msg("reconcile_cron: drift corrected")
	}
	return res
}
