package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Booking statuses. Only pending, confirmed and in_progress hold a slot in
// the availability ledger.
const (
	BookingDraft       = "draft"
	BookingPending     = "pending"
	BookingConfirmed   = "confirmed"
	BookingInProgress  = "in_progress"
	BookingCompleted   = "completed"
	BookingCancelled   = "cancelled"
	BookingNoShow      = "no_show"
	BookingRescheduled = "rescheduled"
)

// OccupyingStatuses is used by the reconciliation query.
var OccupyingStatuses = []string{BookingPending, BookingConfirmed, BookingInProgress}

// OccupiesSlot reports whether a booking in this status consumes a slot.
func OccupiesSlot(status string) bool {
	switch status {
	case BookingPending, BookingConfirmed, BookingInProgress:
		return true
	}
	return false
}

// ValidBookingStatus reports whether status belongs to the booking vocabulary.
func ValidBookingStatus(status string) bool {
	switch status {
	case BookingDraft, BookingPending, BookingConfirmed, BookingInProgress,
		BookingCompleted, BookingCancelled, BookingNoShow, BookingRescheduled:
		return true
	}
	return false
}

// Booking is a customer appointment for a detailing service on a given date.
type Booking struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CustomerName  string          `gorm:"not null"`
	CustomerEmail string          `gorm:"index;not null"`
	CustomerPhone *string
	Vehicle       string          `gorm:"not null"`
	ServiceName   string          `gorm:"not null"`
	Date          time.Time       `gorm:"type:date;index;not null"`
	Status        string          `gorm:"type:varchar(20);index;not null;default:'pending'"`
	Price         decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Notes         *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
