package dto

// ─── Request DTOs ────────────────────────────────────────────────────────────

// AvailabilityRangeFilter is bound from the query string of GET /v1/availability.
type AvailabilityRangeFilter struct {
	From string `form:"from" validate:"required,datetime=2006-01-02"`
	To   string `form:"to"   validate:"required,datetime=2006-01-02"`
}

// UpdateAvailabilityRequest changes the capacity or the open flag of a day.
// Nil fields are left untouched.
type UpdateAvailabilityRequest struct {
	TotalSlots  *int  `json:"total_slots"  validate:"omitempty,min=1,max=100"`
	IsAvailable *bool `json:"is_available"`
}

// SyncAvailabilityRequest asks for a reconciliation of the given dates.
// Async=true enqueues the job instead of running it inline.
type SyncAvailabilityRequest struct {
	Dates []string `json:"dates" validate:"required,min=1,max=92,dive,datetime=2006-01-02"`
	Async bool     `json:"async"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type AvailabilityResponse struct {
	Date           string `json:"date"`
	TotalSlots     int    `json:"total_slots"`
	AvailableSlots int    `json:"available_slots"`
	BookedSlots    int    `json:"booked_slots"`
	IsAvailable    bool   `json:"is_available"`
	Bookable       bool   `json:"bookable"`
}

type SyncAvailabilityResponse struct {
	Updated int  `json:"updated"`
	Queued  bool `json:"queued"`
}
