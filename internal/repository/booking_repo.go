package repository

import (
	"context"
	"time"

	"github.com/YarKhan02/Workshop-sub000/internal/dto"
	"github.com/YarKhan02/Workshop-sub000/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BookingRepository persists bookings. Writes run inside the transaction that
// holds the day's availability lock, so the booking row and the slot counter
// always commit together.
type BookingRepository interface {
	CreateTx(tx *gorm.DB, b *model.Booking) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Booking, error)
	// LockByIDTx reads the booking with SELECT ... FOR UPDATE, so concurrent
	// status changes of the same booking apply one after the other.
	LockByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Booking, error)
	UpdateTx(tx *gorm.DB, b *model.Booking) error
	List(ctx context.Context, filter dto.BookingFilter) ([]model.Booking, int64, error)
	// CountOccupyingTx counts bookings on date whose status holds a slot.
	CountOccupyingTx(tx *gorm.DB, date time.Time) (int64, error)
}

type bookingRepo struct{ db *gorm.DB }

func NewBookingRepository(db *gorm.DB) BookingRepository { return &bookingRepo{db: db} }

func (r *bookingRepo) CreateTx(tx *gorm.DB, b *model.Booking) error {
	return tx.Create(b).Error
}

func (r *bookingRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	var b model.Booking
	err := r.db.WithContext(ctx).First(&b, "id = ?", id).Error
	return &b, err
}

func (r *bookingRepo) LockByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Booking, error) {
	var b model.Booking
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&b, "id = ?", id).Error
	return &b, err
}

func (r *bookingRepo) UpdateTx(tx *gorm.DB, b *model.Booking) error {
	return tx.Save(b).Error
}

func (r *bookingRepo) List(ctx context.Context, filter dto.BookingFilter) ([]model.Booking, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Booking{})
	if filter.Date != "" {
		q = q.Where("date = ?", filter.Date)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Email != "" {
		q = q.Where("customer_email = ?", filter.Email)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	_, limit, offset := paginate(filter.Page, filter.Limit, 20, 100)
	var bookings []model.Booking
	err := q.Order("date ASC, created_at ASC").Offset(offset).Limit(limit).Find(&bookings).Error
	return bookings, total, err
}

func (r *bookingRepo) CountOccupyingTx(tx *gorm.DB, date time.Time) (int64, error) {
	var n int64
	err := tx.Model(&model.Booking{}).
		Where("date = ? AND status IN ?", dateKey(date), model.OccupyingStatuses).
		Count(&n).Error
	return n, err
}
