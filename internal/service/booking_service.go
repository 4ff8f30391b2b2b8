package service

import (
	"context"
	"fmt"
	"time"

	"github.com/YarKhan02/Workshop-sub000/internal/dto"
	"github.com/YarKhan02/Workshop-sub000/internal/model"
	"github.com/YarKhan02/Workshop-sub000/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// BookingService owns the booking lifecycle and keeps the availability
// ledger in step with it: every change in whether a booking occupies a slot
// triggers exactly one ledger call, in the same transaction as the booking
// write.
type BookingService interface {
	Create(ctx context.Context, req dto.CreateBookingRequest) (*dto.BookingResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.BookingResponse, error)
	List(ctx context.Context, filter dto.BookingFilter) (*dto.BookingListResponse, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*dto.BookingResponse, error)
	Reschedule(ctx context.Context, id uuid.UUID, date string) (*dto.BookingResponse, error)
}

type bookingService struct {
	repo         repository.BookingRepository
	availability AvailabilityService
	tx           repository.TxRunner
}

func NewBookingService(repo repository.BookingRepository, availability AvailabilityService, tx repository.TxRunner) BookingService {
	return &bookingService{repo: repo, availability: availability, tx: tx}
}

func parseBookingDate(s string) (time.Time, error) {
	date, err := model.ParseDate(s)
	if err != nil {
		return time.Time{}, validationErr(CodeInvalidDate, "invalid date %q, expected YYYY-MM-DD", s)
	}
	if date.Before(model.NormalizeDate(time.Now())) {
		return time.Time{}, validationErr(CodeInvalidDate, "date %s is in the past", s)
	}
	return date, nil
}

func noAvailability(date time.Time) error {
	return invariantErr(CodeNoAvailability, "no availability on %s", date.Format(model.DateLayout))
}

// bookedDayClosed reports whether the day a slot was just taken on is closed.
// BookSlot only looks at the counter; bookings also need the day to be open.
func bookedDayClosed(changes []SlotChange) bool {
	for _, c := range changes {
		if c.Action == SlotBooked && c.Record != nil && !c.Record.IsAvailable {
			return true
		}
	}
	return false
}

// claimTx takes a slot on date inside tx. A rejection is returned as an error
// so the surrounding transaction rolls back whatever it already wrote.
func (s *bookingService) claimTx(tx *gorm.DB, date time.Time) ([]SlotChange, error) {
	ok, changes, err := s.availability.BookSlotTx(tx, date)
	if err != nil {
		return nil, err
	}
	if !ok || bookedDayClosed(changes) {
		return nil, noAvailability(date)
	}
	return changes, nil
}

func (s *bookingService) Create(ctx context.Context, req dto.CreateBookingRequest) (*dto.BookingResponse, error) {
	date, err := parseBookingDate(req.Date)
	if err != nil {
		return nil, err
	}
	if req.Price.IsNegative() {
		return nil, validationErr(CodeInvalidInput, "price must not be negative")
	}

	b := &model.Booking{
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		CustomerPhone: req.CustomerPhone,
		Vehicle:       req.Vehicle,
		ServiceName:   req.ServiceName,
		Date:          date,
		Status:        model.BookingPending,
		Price:         req.Price,
		Notes:         req.Notes,
	}
	if req.Draft {
		b.Status = model.BookingDraft
	}

	var changes []SlotChange
	err = runTx(ctx, s.tx, func(tx *gorm.DB) error {
		if model.OccupiesSlot(b.Status) {
			var err error
			if changes, err = s.claimTx(tx, date); err != nil {
				return err
			}
		}
		if err := s.repo.CreateTx(tx, b); err != nil {
			return fmt.Errorf("create booking: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.availability.Announce(ctx, changes)
	return bookingToResponse(b), nil
}

func bookingNotFound(id uuid.UUID) error {
	return notFoundErr(CodeBookingNotFound, "booking %s not found", id)
}

func (s *bookingService) lockTx(tx *gorm.DB, id uuid.UUID) (*model.Booking, error) {
	b, err := s.repo.LockByIDTx(tx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, bookingNotFound(id)
		}
		return nil, err
	}
	return b, nil
}

func (s *bookingService) Get(ctx context.Context, id uuid.UUID) (*dto.BookingResponse, error) {
	b, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, bookingNotFound(id)
		}
		return nil, err
	}
	return bookingToResponse(b), nil
}

func (s *bookingService) List(ctx context.Context, filter dto.BookingFilter) (*dto.BookingListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 20
	}
	bookings, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	data := make([]dto.BookingResponse, 0, len(bookings))
	for i := range bookings {
		data = append(data, *bookingToResponse(&bookings[i]))
	}
	return &dto.BookingListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

// UpdateStatus applies the occupancy policy under the booking's row lock:
//   - occupying → non-occupying: CancelSlot on the booking's date
//   - non-occupying → occupying: BookSlot (rejected when the day is full)
//   - otherwise: no ledger call
//
// A second caller racing on the same booking sees the committed status and
// makes no ledger call of its own.
func (s *bookingService) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*dto.BookingResponse, error) {
	if !model.ValidBookingStatus(status) {
		return nil, validationErr(CodeInvalidStatus, "unknown booking status %q", status)
	}

	var (
		b       *model.Booking
		prev    string
		changes []SlotChange
	)
	err := runTx(ctx, s.tx, func(tx *gorm.DB) error {
		var err error
		if b, err = s.lockTx(tx, id); err != nil {
			return err
		}
		prev = b.Status
		if prev == status {
			return nil
		}

		switch wasOccupying, willOccupy := model.OccupiesSlot(prev), model.OccupiesSlot(status); {
		case wasOccupying && !willOccupy:
			ok, c, err := s.availability.CancelSlotTx(tx, b.Date)
			if err != nil {
				return err
			}
			if !ok {
				log.Warn().Str("booking_id", b.ID.String()).Str("date", b.Date.Format(model.DateLayout)).
					Msg("booking: day already at full capacity on release")
			}
			changes = c
		case !wasOccupying && willOccupy:
			if changes, err = s.claimTx(tx, b.Date); err != nil {
				return err
			}
		}

		b.Status = status
		if err := s.repo.UpdateTx(tx, b); err != nil {
			return fmt.Errorf("update booking: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if prev != status {
		s.availability.Announce(ctx, changes)
		log.Info().Str("booking_id", b.ID.String()).Str("from", prev).Str("to", status).Msg("booking status changed")
	}
	return bookingToResponse(b), nil
}

// Reschedule moves an occupying booking's slot with a single MoveSlot call,
// committed together with the new date.
func (s *bookingService) Reschedule(ctx context.Context, id uuid.UUID, dateStr string) (*dto.BookingResponse, error) {
	date, err := parseBookingDate(dateStr)
	if err != nil {
		return nil, err
	}

	var (
		b       *model.Booking
		changes []SlotChange
	)
	err = runTx(ctx, s.tx, func(tx *gorm.DB) error {
		var err error
		if b, err = s.lockTx(tx, id); err != nil {
			return err
		}
		if b.Date.Equal(date) {
			return nil
		}
		if model.OccupiesSlot(b.Status) {
			ok, c, err := s.availability.MoveSlotTx(tx, b.Date, date)
			if err != nil {
				return err
			}
			if !ok || bookedDayClosed(c) {
				return noAvailability(date)
			}
			changes = c
		}
		b.Date = date
		if err := s.repo.UpdateTx(tx, b); err != nil {
			return fmt.Errorf("reschedule booking: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.availability.Announce(ctx, changes)
	return bookingToResponse(b), nil
}

func bookingToResponse(b *model.Booking) *dto.BookingResponse {
	return &dto.BookingResponse{
		ID:            b.ID.String(),
		CustomerName:  b.CustomerName,
		CustomerEmail: b.CustomerEmail,
		CustomerPhone: b.CustomerPhone,
		Vehicle:       b.Vehicle,
		ServiceName:   b.ServiceName,
		Date:          b.Date.Format(model.DateLayout),
		Status:        b.Status,
		Price:         b.Price,
		Notes:         b.Notes,
		CreatedAt:     b.CreatedAt.Format(time.RFC3339),
	}
}
