package model

import (
	"time"

	"github.com/google/uuid"
)

// DefaultDailySlots is the capacity given to a date the first time it is referenced.
const DefaultDailySlots = 7

// DailyAvailability is the booking-capacity counter for one calendar date.
// Invariant: 0 <= AvailableSlots <= TotalSlots. IsAvailable closes the day
// independently of the counter (holidays, maintenance).
type DailyAvailability struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Date           time.Time `gorm:"type:date;uniqueIndex;not null" json:"date"`
	TotalSlots     int       `gorm:"not null;default:7" json:"total_slots"`
	AvailableSlots int       `gorm:"not null;default:7" json:"available_slots"`
	IsAvailable    bool      `gorm:"not null;default:true" json:"is_available"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (DailyAvailability) TableName() string { return "daily_availabilities" }

// HasAvailability reports whether a new booking may occupy this date.
func (d *DailyAvailability) HasAvailability() bool {
	return d.IsAvailable && d.AvailableSlots > 0
}

// BookedSlots is the number of slots currently occupied.
func (d *DailyAvailability) BookedSlots() int {
	return d.TotalSlots - d.AvailableSlots
}

// NormalizeDate truncates t to midnight UTC so that every caller agrees on
// the key of a calendar day.
func NormalizeDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return NormalizeDate(t), nil
}

const DateLayout = "2006-01-02"
