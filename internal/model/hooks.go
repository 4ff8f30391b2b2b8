package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// IDs are generated client-side so that drivers without RETURNING (mysql)
// still hand back the primary key after Create.

func newID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

func (d *DailyAvailability) BeforeCreate(*gorm.DB) error { newID(&d.ID); return nil }
func (b *Booking) BeforeCreate(*gorm.DB) error           { newID(&b.ID); return nil }
func (p *Product) BeforeCreate(*gorm.DB) error           { newID(&p.ID); return nil }
func (v *ProductVariant) BeforeCreate(*gorm.DB) error    { newID(&v.ID); return nil }
func (m *StockMovement) BeforeCreate(*gorm.DB) error     { newID(&m.ID); return nil }
func (i *Invoice) BeforeCreate(*gorm.DB) error           { newID(&i.ID); return nil }
func (i *InvoiceItem) BeforeCreate(*gorm.DB) error       { newID(&i.ID); return nil }
