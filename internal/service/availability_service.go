package service

import (
	"context"
	"fmt"
	"time"

	"github.com/YarKhan02/Workshop-sub000/internal/dto"
	"github.com/YarKhan02/Workshop-sub000/internal/metrics"
	"github.com/YarKhan02/Workshop-sub000/internal/model"
	"github.com/YarKhan02/Workshop-sub000/internal/repository"

	"github.com/rs/zerolog/log"
	"go.uber.org/multierr"
	"gorm.io/gorm"
)

const (
	// maxRangeDays bounds calendar queries.
	maxRangeDays = 92
	// MaxSyncDates bounds one SyncWithActual call.
	MaxSyncDates = maxRangeDays
)

// AvailabilityService is the availability ledger: the only component that
// mutates DailyAvailability.available_slots. Every mutation locks the day's
// row for the duration of its transaction.
type AvailabilityService interface {
	GetOrCreate(ctx context.Context, date time.Time) (*model.DailyAvailability, error)
	// BookSlot takes one slot. It returns false, without writing, when the
	// day has no free slot left.
	BookSlot(ctx context.Context, date time.Time) (bool, error)
	// CancelSlot gives one slot back. It returns false, without writing, when
	// the day is already at full capacity.
	CancelSlot(ctx context.Context, date time.Time) (bool, error)
	// MoveSlot releases from and takes to in a single transaction. It returns
	// false and changes nothing when to has no free slot.
	MoveSlot(ctx context.Context, from, to time.Time) (bool, error)
	// BookSlotTx, CancelSlotTx and MoveSlotTx run the same operations inside
	// the caller's transaction so a booking write and its slot change commit
	// together. The returned changes go to Announce after the commit.
	BookSlotTx(tx *gorm.DB, date time.Time) (bool, []SlotChange, error)
	CancelSlotTx(tx *gorm.DB, date time.Time) (bool, []SlotChange, error)
	MoveSlotTx(tx *gorm.DB, from, to time.Time) (bool, []SlotChange, error)
	Announce(ctx context.Context, changes []SlotChange)
	// SyncWithActual recomputes available_slots from the occupying bookings
	// and returns how many days were corrected.
	SyncWithActual(ctx context.Context, dates ...time.Time) (int, error)
	ListRange(ctx context.Context, from, to time.Time) ([]model.DailyAvailability, error)
	Update(ctx context.Context, date time.Time, req dto.UpdateAvailabilityRequest) (*model.DailyAvailability, error)
}

type availabilityService struct {
	repo         repository.AvailabilityRepository
	bookings     repository.BookingRepository
	tx           repository.TxRunner
	events       EventPublisher
	defaultTotal int
}

func NewAvailabilityService(
	repo repository.AvailabilityRepository,
	bookings repository.BookingRepository,
	tx repository.TxRunner,
	events EventPublisher,
	defaultTotal int,
) AvailabilityService {
	if defaultTotal < 1 {
		defaultTotal = model.DefaultDailySlots
	}
	return &availabilityService{
		repo:         repo,
		bookings:     bookings,
		tx:           tx,
		events:       publisherOrNoop(events),
		defaultTotal: defaultTotal,
	}
}

func checkDate(date time.Time) (time.Time, error) {
	if date.IsZero() {
		return time.Time{}, validationErr(CodeInvalidDate, "date is required")
	}
	return model.NormalizeDate(date), nil
}

// lockDay makes sure the row exists, then reads it FOR UPDATE.
func (s *availabilityService) lockDay(tx *gorm.DB, date time.Time) (*model.DailyAvailability, error) {
	if err := s.repo.EnsureTx(tx, date, s.defaultTotal); err != nil {
		return nil, fmt.Errorf("ensure availability %s: %w", date.Format(model.DateLayout), err)
	}
	rec, err := s.repo.LockByDateTx(tx, date)
	if err != nil {
		return nil, fmt.Errorf("lock availability %s: %w", date.Format(model.DateLayout), err)
	}
	return rec, nil
}

func (s *availabilityService) GetOrCreate(ctx context.Context, date time.Time) (*model.DailyAvailability, error) {
	date, err := checkDate(date)
	if err != nil {
		return nil, err
	}
	var rec *model.DailyAvailability
	err = runTx(ctx, s.tx, func(tx *gorm.DB) error {
		if err := s.repo.EnsureTx(tx, date, s.defaultTotal); err != nil {
			return err
		}
		var err error
		rec, err = s.repo.FindByDateTx(tx, date)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("get availability %s: %w", date.Format(model.DateLayout), err)
	}
	return rec, nil
}

// SlotChange is a slot mutation made inside a transaction. It is published
// through Announce once that transaction has committed.
type SlotChange struct {
	Action string
	Date   time.Time
	Record *model.DailyAvailability
}

func (s *availabilityService) Announce(ctx context.Context, changes []SlotChange) {
	for _, c := range changes {
		s.events.SlotChanged(ctx, c.Action, c.Date, c.Record)
	}
}

// finish records the outcome of a self-contained slot operation and publishes
// its changes.
func (s *availabilityService) finish(ctx context.Context, op, exhausted string, ok bool, changes []SlotChange, err error) (bool, error) {
	switch {
	case err != nil:
		metrics.SlotOperationsTotal.WithLabelValues(op, "error").Inc()
		return false, err
	case !ok:
		metrics.SlotOperationsTotal.WithLabelValues(op, exhausted).Inc()
		return false, nil
	}
	metrics.SlotOperationsTotal.WithLabelValues(op, "ok").Inc()
	s.Announce(ctx, changes)
	return true, nil
}

func (s *availabilityService) BookSlot(ctx context.Context, date time.Time) (bool, error) {
	date, err := checkDate(date)
	if err != nil {
		return false, err
	}
	var (
		ok      bool
		changes []SlotChange
	)
	err = runTx(ctx, s.tx, func(tx *gorm.DB) error {
		var err error
		ok, changes, err = s.bookTx(tx, date)
		return err
	})
	return s.finish(ctx, "book", "exhausted", ok, changes, err)
}

func (s *availabilityService) BookSlotTx(tx *gorm.DB, date time.Time) (bool, []SlotChange, error) {
	date, err := checkDate(date)
	if err != nil {
		return false, nil, err
	}
	ok, changes, err := s.bookTx(tx, date)
	if err == nil && !ok {
		metrics.SlotOperationsTotal.WithLabelValues("book", "exhausted").Inc()
	}
	return ok, changes, err
}

func (s *availabilityService) bookTx(tx *gorm.DB, date time.Time) (bool, []SlotChange, error) {
	rec, err := s.lockDay(tx, date)
	if err != nil {
		return false, nil, err
	}
	if rec.AvailableSlots <= 0 {
		return false, nil, nil
	}
	rec.AvailableSlots--
	if err := s.repo.SaveTx(tx, rec); err != nil {
		return false, nil, err
	}
	return true, []SlotChange{{Action: SlotBooked, Date: date, Record: rec}}, nil
}

func (s *availabilityService) CancelSlot(ctx context.Context, date time.Time) (bool, error) {
	date, err := checkDate(date)
	if err != nil {
		return false, err
	}
	var (
		ok      bool
		changes []SlotChange
	)
	err = runTx(ctx, s.tx, func(tx *gorm.DB) error {
		var err error
		ok, changes, err = s.cancelTx(tx, date)
		return err
	})
	return s.finish(ctx, "cancel", "full", ok, changes, err)
}

func (s *availabilityService) CancelSlotTx(tx *gorm.DB, date time.Time) (bool, []SlotChange, error) {
	date, err := checkDate(date)
	if err != nil {
		return false, nil, err
	}
	ok, changes, err := s.cancelTx(tx, date)
	if err == nil && !ok {
		metrics.SlotOperationsTotal.WithLabelValues("cancel", "full").Inc()
	}
	return ok, changes, err
}

func (s *availabilityService) cancelTx(tx *gorm.DB, date time.Time) (bool, []SlotChange, error) {
	rec, err := s.lockDay(tx, date)
	if err != nil {
		return false, nil, err
	}
	if rec.AvailableSlots >= rec.TotalSlots {
		return false, nil, nil
	}
	rec.AvailableSlots++
	if err := s.repo.SaveTx(tx, rec); err != nil {
		return false, nil, err
	}
	return true, []SlotChange{{Action: SlotReleased, Date: date, Record: rec}}, nil
}

func (s *availabilityService) MoveSlot(ctx context.Context, from, to time.Time) (bool, error) {
	from, err := checkDate(from)
	if err != nil {
		return false, err
	}
	to, err = checkDate(to)
	if err != nil {
		return false, err
	}
	if from.Equal(to) {
		return true, nil
	}
	var (
		ok      bool
		changes []SlotChange
	)
	err = runTx(ctx, s.tx, func(tx *gorm.DB) error {
		var err error
		ok, changes, err = s.moveTx(tx, from, to)
		return err
	})
	return s.finish(ctx, "move", "exhausted", ok, changes, err)
}

func (s *availabilityService) MoveSlotTx(tx *gorm.DB, from, to time.Time) (bool, []SlotChange, error) {
	from, err := checkDate(from)
	if err != nil {
		return false, nil, err
	}
	to, err = checkDate(to)
	if err != nil {
		return false, nil, err
	}
	if from.Equal(to) {
		return true, nil, nil
	}
	ok, changes, err := s.moveTx(tx, from, to)
	if err == nil && !ok {
		metrics.SlotOperationsTotal.WithLabelValues("move", "exhausted").Inc()
	}
	return ok, changes, err
}

func (s *availabilityService) moveTx(tx *gorm.DB, from, to time.Time) (bool, []SlotChange, error) {
	// Lock in date order so two opposite moves cannot deadlock.
	first, second := from, to
	if to.Before(from) {
		first, second = to, from
	}
	a, err := s.lockDay(tx, first)
	if err != nil {
		return false, nil, err
	}
	b, err := s.lockDay(tx, second)
	if err != nil {
		return false, nil, err
	}
	fromRec, toRec := a, b
	if first.Equal(to) {
		fromRec, toRec = b, a
	}

	if toRec.AvailableSlots <= 0 {
		return false, nil, nil
	}
	toRec.AvailableSlots--
	if fromRec.AvailableSlots < fromRec.TotalSlots {
		fromRec.AvailableSlots++
	} else {
		log.Warn().Str("date", from.Format(model.DateLayout)).
			Msg("move_slot: source day already at full capacity, nothing to release")
	}
	if err := s.repo.SaveTx(tx, fromRec); err != nil {
		return false, nil, err
	}
	if err := s.repo.SaveTx(tx, toRec); err != nil {
		return false, nil, err
	}
	return true, []SlotChange{
		{Action: SlotReleased, Date: from, Record: fromRec},
		{Action: SlotBooked, Date: to, Record: toRec},
	}, nil
}

// SyncWithActual reconciles each date in its own transaction. A date that
// fails does not stop the others; the failures come back combined.
func (s *availabilityService) SyncWithActual(ctx context.Context, dates ...time.Time) (int, error) {
	if len(dates) == 0 {
		return 0, validationErr(CodeInvalidDate, "at least one date is required")
	}
	if len(dates) > MaxSyncDates {
		return 0, validationErr(CodeInvalidDate, "at most %d dates per sync", MaxSyncDates)
	}
	updated := 0
	var errs error
	for _, d := range dates {
		date, err := checkDate(d)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		changed, err := s.syncDay(ctx, date)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if changed {
			updated++
		}
	}
	return updated, errs
}

func (s *availabilityService) syncDay(ctx context.Context, date time.Time) (bool, error) {
	var (
		rec     *model.DailyAvailability
		changed bool
	)
	err := runTx(ctx, s.tx, func(tx *gorm.DB) error {
		var err error
		rec, err = s.lockDay(tx, date)
		if err != nil {
			return err
		}
		// Booking writes hold this row lock until they commit, so the count
		// below never misses a booking whose slot is already taken.
		occupied, err := s.bookings.CountOccupyingTx(tx, date)
		if err != nil {
			return fmt.Errorf("count bookings %s: %w", date.Format(model.DateLayout), err)
		}
		expected := rec.TotalSlots - int(occupied)
		if expected < 0 {
			log.Warn().
				Str("date", date.Format(model.DateLayout)).
				Int("total_slots", rec.TotalSlots).
				Int64("occupied", occupied).
				Msg("sync: day is overbooked")
			expected = 0
		}
		if expected == rec.AvailableSlots {
			return nil
		}
		log.Info().
			Str("date", date.Format(model.DateLayout)).
			Int("stored", rec.AvailableSlots).
			Int("expected", expected).
			Msg("sync: correcting availability drift")
		rec.AvailableSlots = expected
		changed = true
		return s.repo.SaveTx(tx, rec)
	})
	if err != nil {
		return false, err
	}
	if changed {
		metrics.AvailabilityReconciledTotal.Inc()
		s.events.SlotChanged(ctx, SlotReconciled, date, rec)
	}
	return changed, nil
}

// ListRange returns one record per day in [from, to]. Days never referenced
// are returned with default capacity but are not persisted.
func (s *availabilityService) ListRange(ctx context.Context, from, to time.Time) ([]model.DailyAvailability, error) {
	from, err := checkDate(from)
	if err != nil {
		return nil, err
	}
	to, err = checkDate(to)
	if err != nil {
		return nil, err
	}
	if to.Before(from) {
		return nil, validationErr(CodeInvalidDate, "'to' must not be before 'from'")
	}
	days := int(to.Sub(from).Hours()/24) + 1
	if days > maxRangeDays {
		return nil, validationErr(CodeInvalidDate, "range exceeds %d days", maxRangeDays)
	}

	stored, err := s.repo.ListRange(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("list availability: %w", err)
	}
	byDate := make(map[string]model.DailyAvailability, len(stored))
	for _, rec := range stored {
		byDate[rec.Date.Format(model.DateLayout)] = rec
	}

	out := make([]model.DailyAvailability, 0, days)
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if rec, ok := byDate[d.Format(model.DateLayout)]; ok {
			out = append(out, rec)
			continue
		}
		out = append(out, model.DailyAvailability{
			Date:           d,
			TotalSlots:     s.defaultTotal,
			AvailableSlots: s.defaultTotal,
			IsAvailable:    true,
		})
	}
	return out, nil
}

// Update changes capacity and/or the open flag. Booked slots are preserved:
// shrinking capacity below the booked count is rejected.
func (s *availabilityService) Update(ctx context.Context, date time.Time, req dto.UpdateAvailabilityRequest) (*model.DailyAvailability, error) {
	date, err := checkDate(date)
	if err != nil {
		return nil, err
	}
	if req.TotalSlots != nil && *req.TotalSlots < 1 {
		return nil, validationErr(CodeInvalidQuantity, "total_slots must be at least 1")
	}

	var rec *model.DailyAvailability
	err = runTx(ctx, s.tx, func(tx *gorm.DB) error {
		var err error
		rec, err = s.lockDay(tx, date)
		if err != nil {
			return err
		}
		if req.TotalSlots != nil {
			booked := rec.BookedSlots()
			if *req.TotalSlots < booked {
				return invariantErr(CodeCapacityBelow,
					"cannot set capacity to %d: %d slots already booked", *req.TotalSlots, booked)
			}
			rec.TotalSlots = *req.TotalSlots
			rec.AvailableSlots = *req.TotalSlots - booked
		}
		if req.IsAvailable != nil {
			rec.IsAvailable = *req.IsAvailable
		}
		return s.repo.SaveTx(tx, rec)
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}
