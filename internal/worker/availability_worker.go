package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/YarKhan02/Workshop-sub000/internal/model"
	"github.com/YarKhan02/Workshop-sub000/internal/service"

	"github.com/rs/zerolog/log"
)

// AvailabilitySyncWorker recomputes day counters from the bookings table.
type AvailabilitySyncWorker struct {
	availability service.AvailabilityService
}

func NewAvailabilitySyncWorker(availability service.AvailabilityService) *AvailabilitySyncWorker {
	return &AvailabilitySyncWorker{availability: availability}
}

func (w *AvailabilitySyncWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload AvailabilitySyncPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		// A malformed payload never succeeds; drop it.
		log.Error().Err(err).Msg("availability_worker: invalid payload")
		return nil
	}
	dates := make([]time.Time, 0, len(payload.Dates))
	for _, s := range payload.Dates {
		d, err := model.ParseDate(s)
		if err != nil {
			log.Warn().Str("date", s).Msg("availability_worker: skipping invalid date")
			continue
		}
		dates = append(dates, d)
	}
	if len(dates) == 0 {
		return nil
	}

	changed, err := w.availability.SyncWithActual(ctx, dates...)
	if err != nil {
		return fmt.Errorf("sync availability: %w", err)
	}
	log.Info().Int("days", len(dates)).Int("corrected", changed).Msg("availability_worker: sync done")
	return nil
}
