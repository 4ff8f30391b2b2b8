package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateBookingRequest struct {
	CustomerName  string          `json:"customer_name"  validate:"required,min=2,max=120"`
	CustomerEmail string          `json:"customer_email" validate:"required,email"`
	CustomerPhone *string         `json:"customer_phone" validate:"omitempty,min=6,max=30"`
	Vehicle       string          `json:"vehicle"        validate:"required,max=120"`
	ServiceName   string          `json:"service_name"   validate:"required,max=120"`
	Date          string          `json:"date"           validate:"required,datetime=2006-01-02"`
	Price         decimal.Decimal `json:"price"          validate:"min=0"`
	Notes         *string         `json:"notes"`
	// Draft bookings are saved without claiming a slot.
	Draft bool `json:"draft"`
}

type UpdateBookingStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=draft pending confirmed in_progress completed cancelled no_show rescheduled"`
}

type RescheduleBookingRequest struct {
	Date string `json:"date" validate:"required,datetime=2006-01-02"`
}

// ─── Filter / Pagination ─────────────────────────────────────────────────────

type BookingFilter struct {
	Date   string `form:"date"   validate:"omitempty,datetime=2006-01-02"`
	Status string `form:"status"`
	Email  string `form:"email"`
	Page   int    `form:"page,default=1"   validate:"min=1"`
	Limit  int    `form:"limit,default=20" validate:"min=1,max=100"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type BookingResponse struct {
	ID            string          `json:"id"`
	CustomerName  string          `json:"customer_name"`
	CustomerEmail string          `json:"customer_email"`
	CustomerPhone *string         `json:"customer_phone"`
	Vehicle       string          `json:"vehicle"`
	ServiceName   string          `json:"service_name"`
	Date          string          `json:"date"`
	Status        string          `json:"status"`
	Price         decimal.Decimal `json:"price"`
	Notes         *string         `json:"notes"`
	CreatedAt     string          `json:"created_at"`
}

type BookingListResponse struct {
	Data  []BookingResponse `json:"data"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}
